package scheduling

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/clinisys/clinic-scheduling/internal/identity"
)

// Registry holds the clinic's registered patients and doctors, keyed by
// normalized RUN. Every write is persisted before the index is updated, so a
// failed insert leaves memory untouched.
type Registry struct {
	mu       sync.RWMutex
	patients map[string]*Patient
	doctors  map[string]*Doctor

	repo Repository
	log  zerolog.Logger
}

func NewRegistry(repo Repository, log zerolog.Logger) *Registry {
	return &Registry{
		patients: make(map[string]*Patient),
		doctors:  make(map[string]*Doctor),
		repo:     repo,
		log:      log,
	}
}

func (r *Registry) RegisterPatient(ctx context.Context, rawRUN, name string, age int) (*Patient, error) {
	run, err := identity.Normalize(rawRUN)
	if err != nil {
		return nil, err
	}
	if age < 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidAge, age)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.patients[run]; ok {
		return nil, fmt.Errorf("%w: patient %s", ErrAlreadyRegistered, run)
	}

	p := &Patient{RUN: run, Name: identity.FormatName(name), Age: age}
	if err := r.repo.InsertPatient(ctx, p); err != nil {
		return nil, fmt.Errorf("insert patient: %w", err)
	}
	r.patients[run] = p

	r.log.Info().Str("run", run).Str("name", p.Name).Msg("patient registered")
	return p, nil
}

func (r *Registry) RegisterDoctor(ctx context.Context, rawRUN, name, specialty string, capacity int) (*Doctor, error) {
	run, err := identity.Normalize(rawRUN)
	if err != nil {
		return nil, err
	}
	if capacity <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidCapacity, capacity)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.doctors[run]; ok {
		return nil, fmt.Errorf("%w: doctor %s", ErrAlreadyRegistered, run)
	}

	d := &Doctor{
		RUN:       run,
		Name:      identity.FormatName(name),
		Specialty: identity.FormatName(specialty),
		Capacity:  capacity,
	}
	if err := r.repo.InsertDoctor(ctx, d); err != nil {
		return nil, fmt.Errorf("insert doctor: %w", err)
	}
	r.doctors[run] = d

	r.log.Info().Str("run", run).Str("name", d.Name).Str("specialty", d.Specialty).Msg("doctor registered")
	return d, nil
}

func (r *Registry) FindPatient(rawRUN string) (*Patient, error) {
	run, err := identity.Normalize(rawRUN)
	if err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.patients[run]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPatientNotFound, run)
	}
	return p, nil
}

func (r *Registry) FindDoctor(rawRUN string) (*Doctor, error) {
	run, err := identity.Normalize(rawRUN)
	if err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.doctors[run]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrDoctorNotFound, run)
	}
	return d, nil
}

// SearchDoctorsBySpecialty matches the term case-insensitively as a substring
// of each doctor's specialty.
func (r *Registry) SearchDoctorsBySpecialty(term string) ([]*Doctor, error) {
	needle := strings.ToLower(strings.TrimSpace(term))
	if needle == "" {
		return nil, ErrEmptySearch
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*Doctor
	for _, d := range r.doctors {
		if strings.Contains(strings.ToLower(d.Specialty), needle) {
			out = append(out, d)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: no doctors with specialty matching %q", ErrDoctorNotFound, term)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].RUN < out[j].RUN })
	return out, nil
}

func (r *Registry) Patients() []*Patient {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Patient, 0, len(r.patients))
	for _, p := range r.patients {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RUN < out[j].RUN })
	return out
}

func (r *Registry) Doctors() []*Doctor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Doctor, 0, len(r.doctors))
	for _, d := range r.doctors {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RUN < out[j].RUN })
	return out
}

// restorePatient and restoreDoctor index already-persisted entities during
// startup load; they bypass validation and the repository write.
func (r *Registry) restorePatient(p *Patient) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.patients[p.RUN] = p
}

func (r *Registry) restoreDoctor(d *Doctor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.doctors[d.RUN] = d
}

func (r *Registry) patientByRUN(run string) *Patient {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.patients[run]
}

func (r *Registry) doctorByRUN(run string) *Doctor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.doctors[run]
}
