package scheduling

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgRepository persists the clinic's records in Postgres.
type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

// Helpers

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	if err := row.Scan(&p.RUN, &p.Name, &p.Age); err != nil {
		return nil, err
	}
	return &p, nil
}

func scanDoctor(row pgx.Row) (*Doctor, error) {
	var d Doctor
	if err := row.Scan(&d.RUN, &d.Name, &d.Specialty, &d.Capacity); err != nil {
		return nil, err
	}
	return &d, nil
}

func scanAppointmentRecord(row pgx.Row) (AppointmentRecord, error) {
	var rec AppointmentRecord
	err := row.Scan(&rec.ID, &rec.PatientRUN, &rec.DoctorRUN, &rec.Status, &rec.ScheduledAt)
	return rec, err
}

// Interface methods

func (r *PgRepository) InsertPatient(ctx context.Context, p *Patient) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO patients (run, name, age)
		VALUES ($1, $2, $3)
	`, p.RUN, p.Name, p.Age)
	if err != nil {
		return fmt.Errorf("insert patient %s: %w", p.RUN, err)
	}
	return nil
}

func (r *PgRepository) InsertDoctor(ctx context.Context, d *Doctor) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO doctors (run, name, specialty, capacity)
		VALUES ($1, $2, $3, $4)
	`, d.RUN, d.Name, d.Specialty, d.Capacity)
	if err != nil {
		return fmt.Errorf("insert doctor %s: %w", d.RUN, err)
	}
	return nil
}

func (r *PgRepository) InsertAppointment(ctx context.Context, rec AppointmentRecord) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO appointments (id, patient_run, doctor_run, status, scheduled_at)
		VALUES ($1, $2, $3, $4, $5)
	`, rec.ID, rec.PatientRUN, rec.DoctorRUN, rec.Status, rec.ScheduledAt)
	if err != nil {
		return fmt.Errorf("insert appointment %d: %w", rec.ID, err)
	}
	return nil
}

func (r *PgRepository) UpdateAppointmentStatus(ctx context.Context, id int64, from, to Status) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE appointments
		SET status = $2
		WHERE id = $1
		  AND status = $3
	`, id, to, from)
	if err != nil {
		return fmt.Errorf("update appointment %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: id %d with status %s", ErrAppointmentNotFound, id, from)
	}
	return nil
}

func (r *PgRepository) ListAllPatients(ctx context.Context) ([]*Patient, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT run, name, age
		FROM patients
		ORDER BY run
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

func (r *PgRepository) ListAllDoctors(ctx context.Context) ([]*Doctor, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT run, name, specialty, capacity
		FROM doctors
		ORDER BY run
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*Doctor
	for rows.Next() {
		d, err := scanDoctor(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, d)
	}
	return result, rows.Err()
}

func (r *PgRepository) ListAllAppointments(ctx context.Context) ([]AppointmentRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, patient_run, doctor_run, status, scheduled_at
		FROM appointments
		ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []AppointmentRecord
	for rows.Next() {
		rec, err := scanAppointmentRecord(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, rec)
	}
	return result, rows.Err()
}

func (r *PgRepository) ListOverdueReserved(ctx context.Context, now time.Time) ([]AppointmentRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, patient_run, doctor_run, status, scheduled_at
		FROM appointments
		WHERE status = 'reserved'
		  AND scheduled_at < $1
		ORDER BY id
	`, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []AppointmentRecord
	for rows.Next() {
		rec, err := scanAppointmentRecord(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, rec)
	}
	return result, rows.Err()
}

func (r *PgRepository) InsertEvent(ctx context.Context, ev EventLog) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO event_logs (event_type, appointment_id, payload, created_at)
		VALUES ($1, $2, $3, COALESCE($4, now()))
	`, ev.EventType, ev.AppointmentID, ev.Payload, nullableTime(ev.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert event log: %w", err)
	}
	return nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
