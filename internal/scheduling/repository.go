package scheduling

import (
	"context"
	"time"
)

// Repository contains all storage interactions needed by the engine. Inserts
// fail loudly on constraint violations; they never silently ignore a
// duplicate key.
type Repository interface {
	InsertPatient(ctx context.Context, p *Patient) error
	InsertDoctor(ctx context.Context, d *Doctor) error
	InsertAppointment(ctx context.Context, rec AppointmentRecord) error

	// UpdateAppointmentStatus persists a status change only when the stored
	// status still equals from. ErrAppointmentNotFound means no row matched,
	// either because the ID is unknown or because the status moved underneath.
	UpdateAppointmentStatus(ctx context.Context, id int64, from, to Status) error

	// Bulk reads used to rebuild in-memory state on startup.
	ListAllPatients(ctx context.Context) ([]*Patient, error)
	ListAllDoctors(ctx context.Context) ([]*Doctor, error)
	ListAllAppointments(ctx context.Context) ([]AppointmentRecord, error)

	// For the expiry worker: reserved appointments whose time has passed.
	ListOverdueReserved(ctx context.Context, now time.Time) ([]AppointmentRecord, error)

	// Event logging.
	InsertEvent(ctx context.Context, ev EventLog) error
}
