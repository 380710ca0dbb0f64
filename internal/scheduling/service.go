package scheduling

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	redisclient "github.com/clinisys/clinic-scheduling/internal/redis"
)

// ConflictWindow is the minimum spacing between two non-cancelled
// appointments for the same doctor. Anything strictly closer is rejected;
// exactly 30 minutes apart is allowed.
const ConflictWindow = 30 * time.Minute

const (
	EventAppointmentBooked    = "APPOINTMENT_BOOKED"
	EventAppointmentConfirmed = "APPOINTMENT_CONFIRMED"
	EventAppointmentCancelled = "APPOINTMENT_CANCELLED"
	EventAppointmentAttended  = "APPOINTMENT_ATTENDED"
	EventAppointmentExpired   = "APPOINTMENT_EXPIRED"
)

const clockLayout = "02-01-2006 15:04"

// Service is the appointment scheduling and lifecycle engine. It owns the
// id->appointment index and the ID sequence; patients and doctors live in the
// Registry. The external repository is written before any in-memory mutation
// is considered committed.
type Service struct {
	mu           sync.Mutex
	appointments map[int64]*Appointment
	nextID       int64

	registry *Registry
	repo     Repository
	locker   redisclient.Locker
	log      zerolog.Logger
	now      func() time.Time
}

func NewService(registry *Registry, repo Repository, locker redisclient.Locker, log zerolog.Logger) *Service {
	return &Service{
		appointments: make(map[int64]*Appointment),
		nextID:       1,
		registry:     registry,
		repo:         repo,
		locker:       locker,
		log:          log,
		now:          time.Now,
	}
}

func (s *Service) Registry() *Registry { return s.registry }

// Book reserves an appointment for a patient with a doctor at the given time.
// The conflict and capacity checks run inside a per-doctor lock so that
// concurrent bookings for the same doctor cannot both pass them.
func (s *Service) Book(ctx context.Context, patientRUN, doctorRUN string, at time.Time) (*Appointment, error) {
	patient, err := s.registry.FindPatient(patientRUN)
	if err != nil {
		return nil, err
	}
	doctor, err := s.registry.FindDoctor(doctorRUN)
	if err != nil {
		return nil, err
	}

	if !at.After(s.now()) {
		return nil, fmt.Errorf("%w: %s", ErrPastScheduleTime, at.Format(clockLayout))
	}

	var booked *Appointment
	err = s.locker.WithDoctorLock(ctx, doctor.RUN, func(lockCtx context.Context) error {
		s.mu.Lock()
		defer s.mu.Unlock()

		for _, existing := range doctor.Appointments {
			if existing.Status == StatusCancelled {
				continue
			}
			if existing.ScheduledAt.Sub(at).Abs() < ConflictWindow {
				return fmt.Errorf("%w: doctor already has an appointment at %s, bookings must be at least 30 minutes apart",
					ErrScheduleConflict, existing.ScheduledAt.Format("15:04"))
			}
		}
		if doctor.ActiveAppointments() >= doctor.Capacity {
			return fmt.Errorf("%w: no remaining slots for doctor %s", ErrCapacityExceeded, doctor.Name)
		}

		appt := &Appointment{
			ID:          s.nextID,
			Patient:     patient,
			Doctor:      doctor,
			ScheduledAt: at,
			Status:      StatusReserved,
		}
		if err := s.repo.InsertAppointment(lockCtx, appt.Record()); err != nil {
			return fmt.Errorf("insert appointment: %w", err)
		}

		s.nextID++
		s.appointments[appt.ID] = appt
		patient.Appointments = append(patient.Appointments, appt)
		doctor.Appointments = append(doctor.Appointments, appt)
		booked = appt

		s.logEvent(lockCtx, appt.ID, EventAppointmentBooked, map[string]any{
			"patient_run":  patient.RUN,
			"doctor_run":   doctor.RUN,
			"scheduled_at": at,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Int64("id", booked.ID).
		Str("patient_run", patient.RUN).
		Str("doctor_run", doctor.RUN).
		Time("scheduled_at", at).
		Msg("appointment booked")
	return booked, nil
}

// Confirm moves a reserved appointment to confirmed. A reserved appointment
// whose scheduled time has already passed is cancelled instead and the call
// reports the expiry.
func (s *Service) Confirm(ctx context.Context, patientRUN string, id int64) (*Appointment, error) {
	patient, err := s.registry.FindPatient(patientRUN)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	appt, err := s.ownedLocked(patient, id)
	if err != nil {
		return nil, err
	}

	if appt.Status == StatusReserved && s.now().After(appt.ScheduledAt) {
		if err := s.persistTransition(ctx, appt, StatusCancelled); err != nil {
			return nil, err
		}
		s.logEvent(ctx, appt.ID, EventAppointmentExpired, map[string]any{
			"reason": "confirm_after_schedule",
		})
		s.log.Warn().Int64("id", appt.ID).Time("scheduled_at", appt.ScheduledAt).Msg("reservation expired, cancelled")
		return nil, fmt.Errorf("%w: was scheduled for %s", ErrAppointmentExpired, appt.ScheduledAt.Format(clockLayout))
	}

	to, err := appt.Status.Confirm()
	if err != nil {
		return nil, err
	}
	if err := s.persistTransition(ctx, appt, to); err != nil {
		return nil, err
	}

	s.logEvent(ctx, appt.ID, EventAppointmentConfirmed, map[string]any{})
	s.log.Info().Int64("id", appt.ID).Str("patient_run", patient.RUN).Msg("appointment confirmed")
	return appt, nil
}

// Cancel cancels a reserved or confirmed appointment.
func (s *Service) Cancel(ctx context.Context, patientRUN string, id int64) (*Appointment, error) {
	patient, err := s.registry.FindPatient(patientRUN)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	appt, err := s.ownedLocked(patient, id)
	if err != nil {
		return nil, err
	}

	to, err := appt.Status.Cancel()
	if err != nil {
		return nil, err
	}
	if err := s.persistTransition(ctx, appt, to); err != nil {
		return nil, err
	}

	s.logEvent(ctx, appt.ID, EventAppointmentCancelled, map[string]any{})
	s.log.Info().Int64("id", appt.ID).Str("patient_run", patient.RUN).Msg("appointment cancelled")
	return appt, nil
}

// Finalize marks a confirmed appointment as attended.
func (s *Service) Finalize(ctx context.Context, patientRUN string, id int64) (*Appointment, error) {
	patient, err := s.registry.FindPatient(patientRUN)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	appt, err := s.ownedLocked(patient, id)
	if err != nil {
		return nil, err
	}

	to, err := appt.Status.Attend()
	if err != nil {
		return nil, err
	}
	if err := s.persistTransition(ctx, appt, to); err != nil {
		return nil, err
	}

	s.logEvent(ctx, appt.ID, EventAppointmentAttended, map[string]any{})
	s.log.Info().Int64("id", appt.ID).Str("patient_run", patient.RUN).Msg("appointment attended")
	return appt, nil
}

// ownedLocked resolves an appointment and verifies the patient owns it.
// Callers must hold s.mu.
func (s *Service) ownedLocked(patient *Patient, id int64) (*Appointment, error) {
	appt, ok := s.appointments[id]
	if !ok {
		return nil, fmt.Errorf("%w: id %d", ErrAppointmentNotFound, id)
	}
	if appt.Patient != patient {
		return nil, fmt.Errorf("%w: appointment %d", ErrNotOwner, id)
	}
	return appt, nil
}

// persistTransition writes the status change to the repository and only then
// updates the in-memory appointment. Callers must hold s.mu.
func (s *Service) persistTransition(ctx context.Context, appt *Appointment, to Status) error {
	if err := s.repo.UpdateAppointmentStatus(ctx, appt.ID, appt.Status, to); err != nil {
		return fmt.Errorf("update appointment %d status: %w", appt.ID, err)
	}
	appt.Status = to
	return nil
}

// Appointments returns every tracked appointment ordered by ID.
func (s *Service) Appointments() []*Appointment {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*Appointment, 0, len(s.appointments))
	for _, a := range s.appointments {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Service) AppointmentByID(id int64) (*Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	appt, ok := s.appointments[id]
	if !ok {
		return nil, fmt.Errorf("%w: id %d", ErrAppointmentNotFound, id)
	}
	return appt, nil
}

func (s *Service) AppointmentsForPatient(rawRUN string) ([]*Appointment, error) {
	patient, err := s.registry.FindPatient(rawRUN)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*Appointment(nil), patient.Appointments...), nil
}

func (s *Service) AppointmentsForDoctor(rawRUN string) ([]*Appointment, error) {
	doctor, err := s.registry.FindDoctor(rawRUN)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*Appointment(nil), doctor.Appointments...), nil
}

func (s *Service) SearchDoctorsBySpecialty(term string) ([]*Doctor, error) {
	return s.registry.SearchDoctorsBySpecialty(term)
}

// LoadFromStore rebuilds the in-memory indices from the repository's bulk
// reads, relinks appointment rows to live Patient/Doctor objects and reseeds
// the ID sequence to max(existing)+1 so IDs never collide across restarts.
func (s *Service) LoadFromStore(ctx context.Context) error {
	patients, err := s.repo.ListAllPatients(ctx)
	if err != nil {
		return fmt.Errorf("load patients: %w", err)
	}
	doctors, err := s.repo.ListAllDoctors(ctx)
	if err != nil {
		return fmt.Errorf("load doctors: %w", err)
	}
	records, err := s.repo.ListAllAppointments(ctx)
	if err != nil {
		return fmt.Errorf("load appointments: %w", err)
	}

	for _, p := range patients {
		s.registry.restorePatient(p)
	}
	for _, d := range doctors {
		s.registry.restoreDoctor(d)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var maxID int64
	for _, rec := range records {
		patient := s.registry.patientByRUN(rec.PatientRUN)
		doctor := s.registry.doctorByRUN(rec.DoctorRUN)
		if patient == nil || doctor == nil {
			s.log.Warn().Int64("id", rec.ID).Msg("appointment row references unknown patient or doctor, skipping")
			continue
		}

		appt := &Appointment{
			ID:          rec.ID,
			Patient:     patient,
			Doctor:      doctor,
			ScheduledAt: rec.ScheduledAt,
			Status:      rec.Status,
		}
		s.appointments[rec.ID] = appt
		patient.Appointments = append(patient.Appointments, appt)
		doctor.Appointments = append(doctor.Appointments, appt)

		if rec.ID > maxID {
			maxID = rec.ID
		}
	}
	s.nextID = maxID + 1

	s.log.Info().
		Int("patients", len(patients)).
		Int("doctors", len(doctors)).
		Int("appointments", len(s.appointments)).
		Int64("next_id", s.nextID).
		Msg("state loaded from store")
	return nil
}

// CancelOverdueReservations is called periodically by the expiry worker. It
// cancels reserved appointments whose scheduled time passed, using the
// repository's compare-and-swap so a concurrent confirm or cancel wins.
func (s *Service) CancelOverdueReservations(ctx context.Context, now time.Time) (int, error) {
	overdue, err := s.repo.ListOverdueReserved(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("list overdue reservations: %w", err)
	}

	cancelled := 0
	for _, rec := range overdue {
		err := s.repo.UpdateAppointmentStatus(ctx, rec.ID, StatusReserved, StatusCancelled)
		if err != nil {
			if errors.Is(err, ErrAppointmentNotFound) {
				continue // status moved since the listing
			}
			s.log.Error().Err(err).Int64("id", rec.ID).Msg("failed to cancel overdue reservation")
			continue
		}

		s.mu.Lock()
		if appt, ok := s.appointments[rec.ID]; ok && appt.Status == StatusReserved {
			appt.Status = StatusCancelled
		}
		s.mu.Unlock()

		s.logEvent(ctx, rec.ID, EventAppointmentExpired, map[string]any{"reason": "worker"})
		cancelled++
	}
	return cancelled, nil
}

func (s *Service) logEvent(ctx context.Context, appointmentID int64, eventType string, payload map[string]any) {
	data, err := json.Marshal(payload)
	if err != nil {
		s.log.Error().Err(err).Str("event", eventType).Msg("marshal event payload")
		data = nil
	}

	id := appointmentID
	ev := EventLog{
		EventType:     eventType,
		AppointmentID: &id,
		Payload:       data,
		CreatedAt:     s.now(),
	}
	if err := s.repo.InsertEvent(ctx, ev); err != nil {
		s.log.Error().Err(err).Str("event", eventType).Int64("appointment_id", appointmentID).Msg("insert event log")
	}
}
