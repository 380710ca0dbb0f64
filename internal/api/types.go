package api

import "time"

type RegisterPatientRequest struct {
	RUN  string `json:"run"`
	Name string `json:"name"`
	Age  int    `json:"age"`
}

type RegisterDoctorRequest struct {
	RUN       string `json:"run"`
	Name      string `json:"name"`
	Specialty string `json:"specialty"`
	Capacity  int    `json:"capacity"`
}

type BookAppointmentRequest struct {
	PatientRUN string `json:"patient_run"`
	DoctorRUN  string `json:"doctor_run"`
	// ScheduledAt accepts RFC 3339 or the legacy "02-01-2006 15:04" form.
	ScheduledAt string `json:"scheduled_at"`
}

// TransitionRequest carries the RUN claiming ownership of the appointment on
// confirm, cancel and attend calls.
type TransitionRequest struct {
	PatientRUN string `json:"patient_run"`
}

type PatientResponse struct {
	RUN  string `json:"run"`
	Name string `json:"name"`
	Age  int    `json:"age"`
}

type DoctorResponse struct {
	RUN       string `json:"run"`
	Name      string `json:"name"`
	Specialty string `json:"specialty"`
	Capacity  int    `json:"capacity"`
}

type AppointmentResponse struct {
	ID          int64     `json:"id"`
	PatientRUN  string    `json:"patient_run"`
	DoctorRUN   string    `json:"doctor_run"`
	ScheduledAt time.Time `json:"scheduled_at"`
	Status      string    `json:"status"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
