package scheduling

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// MemoryRepository is an in-memory Repository for tests and ephemeral runs.
// It stores detached copies, mimicking a real store: mutating a live object
// never changes a persisted row.
type MemoryRepository struct {
	mu           sync.Mutex
	patients     map[string]Patient
	doctors      map[string]Doctor
	appointments map[int64]AppointmentRecord
	events       []EventLog
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		patients:     make(map[string]Patient),
		doctors:      make(map[string]Doctor),
		appointments: make(map[int64]AppointmentRecord),
	}
}

func (r *MemoryRepository) InsertPatient(_ context.Context, p *Patient) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.patients[p.RUN]; ok {
		return fmt.Errorf("patient %s: duplicate key", p.RUN)
	}
	r.patients[p.RUN] = Patient{RUN: p.RUN, Name: p.Name, Age: p.Age}
	return nil
}

func (r *MemoryRepository) InsertDoctor(_ context.Context, d *Doctor) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.doctors[d.RUN]; ok {
		return fmt.Errorf("doctor %s: duplicate key", d.RUN)
	}
	r.doctors[d.RUN] = Doctor{RUN: d.RUN, Name: d.Name, Specialty: d.Specialty, Capacity: d.Capacity}
	return nil
}

func (r *MemoryRepository) InsertAppointment(_ context.Context, rec AppointmentRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.appointments[rec.ID]; ok {
		return fmt.Errorf("appointment %d: duplicate key", rec.ID)
	}
	r.appointments[rec.ID] = rec
	return nil
}

func (r *MemoryRepository) UpdateAppointmentStatus(_ context.Context, id int64, from, to Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.appointments[id]
	if !ok || rec.Status != from {
		return fmt.Errorf("%w: id %d with status %s", ErrAppointmentNotFound, id, from)
	}
	rec.Status = to
	r.appointments[id] = rec
	return nil
}

func (r *MemoryRepository) ListAllPatients(_ context.Context) ([]*Patient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*Patient, 0, len(r.patients))
	for _, p := range r.patients {
		cp := p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RUN < out[j].RUN })
	return out, nil
}

func (r *MemoryRepository) ListAllDoctors(_ context.Context) ([]*Doctor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*Doctor, 0, len(r.doctors))
	for _, d := range r.doctors {
		cp := d
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RUN < out[j].RUN })
	return out, nil
}

func (r *MemoryRepository) ListAllAppointments(_ context.Context) ([]AppointmentRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]AppointmentRecord, 0, len(r.appointments))
	for _, rec := range r.appointments {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *MemoryRepository) ListOverdueReserved(_ context.Context, now time.Time) ([]AppointmentRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []AppointmentRecord
	for _, rec := range r.appointments {
		if rec.Status == StatusReserved && rec.ScheduledAt.Before(now) {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *MemoryRepository) InsertEvent(_ context.Context, ev EventLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ev.ID = int64(len(r.events) + 1)
	r.events = append(r.events, ev)
	return nil
}

// Events returns a copy of the recorded event log, oldest first.
func (r *MemoryRepository) Events() []EventLog {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]EventLog(nil), r.events...)
}

// AppointmentRecord returns the persisted row for an appointment, if any.
func (r *MemoryRepository) AppointmentRecord(id int64) (AppointmentRecord, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.appointments[id]
	return rec, ok
}
