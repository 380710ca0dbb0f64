package scheduling

import "time"

type Status string

const (
	StatusReserved  Status = "reserved"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
	StatusAttended  Status = "attended"
	StatusNoShow    Status = "no_show"
)

type Patient struct {
	RUN          string
	Name         string
	Age          int
	Appointments []*Appointment
}

type Doctor struct {
	RUN          string
	Name         string
	Specialty    string
	Capacity     int
	Appointments []*Appointment
}

// ActiveAppointments counts the doctor's non-cancelled appointments. Capacity
// and slot accounting only ever look at this figure, so a cancelled booking
// frees its slot.
func (d *Doctor) ActiveAppointments() int {
	n := 0
	for _, a := range d.Appointments {
		if a.Status != StatusCancelled {
			n++
		}
	}
	return n
}

type Appointment struct {
	ID          int64
	Patient     *Patient
	Doctor      *Doctor
	ScheduledAt time.Time
	Status      Status
}

// AppointmentRecord is the persistence shape of an appointment. Rows carry
// RUNs rather than object references; the service relinks them to live
// Patient/Doctor objects when state is rebuilt from storage.
type AppointmentRecord struct {
	ID          int64
	PatientRUN  string
	DoctorRUN   string
	Status      Status
	ScheduledAt time.Time
}

func (a *Appointment) Record() AppointmentRecord {
	return AppointmentRecord{
		ID:          a.ID,
		PatientRUN:  a.Patient.RUN,
		DoctorRUN:   a.Doctor.RUN,
		Status:      a.Status,
		ScheduledAt: a.ScheduledAt,
	}
}

type EventLog struct {
	ID            int64
	EventType     string
	AppointmentID *int64
	Payload       []byte
	CreatedAt     time.Time
}
