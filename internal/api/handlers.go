package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/clinisys/clinic-scheduling/internal/identity"
	redisclient "github.com/clinisys/clinic-scheduling/internal/redis"
	"github.com/clinisys/clinic-scheduling/internal/scheduling"
)

const legacyScheduleLayout = "02-01-2006 15:04"

func registerPatientHandler(reg *scheduling.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RegisterPatientRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		p, err := reg.RegisterPatient(r.Context(), req.RUN, req.Name, req.Age)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toPatientResponse(p))
	}
}

func registerDoctorHandler(reg *scheduling.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RegisterDoctorRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		d, err := reg.RegisterDoctor(r.Context(), req.RUN, req.Name, req.Specialty, req.Capacity)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toDoctorResponse(d))
	}
}

func listPatientsHandler(reg *scheduling.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		patients := reg.Patients()
		out := make([]PatientResponse, 0, len(patients))
		for _, p := range patients {
			out = append(out, toPatientResponse(p))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// listDoctorsHandler lists all doctors, or searches by specialty when the
// ?specialty= query parameter is present.
func listDoctorsHandler(reg *scheduling.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var (
			doctors []*scheduling.Doctor
			err     error
		)
		if term, ok := specialtyParam(r); ok {
			doctors, err = reg.SearchDoctorsBySpecialty(term)
			if err != nil {
				writeDomainError(w, err)
				return
			}
		} else {
			doctors = reg.Doctors()
		}

		out := make([]DoctorResponse, 0, len(doctors))
		for _, d := range doctors {
			out = append(out, toDoctorResponse(d))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func specialtyParam(r *http.Request) (string, bool) {
	if !r.URL.Query().Has("specialty") {
		return "", false
	}
	return r.URL.Query().Get("specialty"), true
}

func bookAppointmentHandler(svc *scheduling.Service, metrics *Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req BookAppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		at, err := parseScheduledAt(req.ScheduledAt)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_scheduled_at", err.Error())
			return
		}

		appt, err := svc.Book(r.Context(), req.PatientRUN, req.DoctorRUN, at)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		if metrics != nil {
			metrics.AppointmentsBooked.Inc()
		}
		writeJSON(w, http.StatusCreated, toAppointmentResponse(appt))
	}
}

func listAppointmentsHandler(svc *scheduling.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, toAppointmentResponses(svc.Appointments()))
	}
}

func getAppointmentHandler(svc *scheduling.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := appointmentID(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", err.Error())
			return
		}

		appt, err := svc.AppointmentByID(id)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func patientAppointmentsHandler(svc *scheduling.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		appts, err := svc.AppointmentsForPatient(chi.URLParam(r, "run"))
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toAppointmentResponses(appts))
	}
}

func doctorAppointmentsHandler(svc *scheduling.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		appts, err := svc.AppointmentsForDoctor(chi.URLParam(r, "run"))
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toAppointmentResponses(appts))
	}
}

type transitionFunc func(r *http.Request, patientRUN string, id int64) (*scheduling.Appointment, error)

// transitionHandler factors the shared shape of confirm, cancel and attend.
func transitionHandler(metrics *Metrics, apply transitionFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := appointmentID(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", err.Error())
			return
		}

		var req TransitionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		appt, err := apply(r, req.PatientRUN, id)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		if metrics != nil {
			metrics.StatusTransitions.WithLabelValues(string(appt.Status)).Inc()
		}
		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func appointmentID(r *http.Request) (int64, error) {
	idStr := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("id must be a positive integer")
	}
	return id, nil
}

func parseScheduledAt(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation(legacyScheduleLayout, s, time.Local); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("scheduled_at must be RFC 3339 or %q", legacyScheduleLayout)
}

// writeDomainError maps the engine's error taxonomy onto HTTP status codes.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, identity.ErrInvalidID):
		writeError(w, http.StatusBadRequest, "invalid_national_id", err.Error())
	case errors.Is(err, scheduling.ErrInvalidAge),
		errors.Is(err, scheduling.ErrInvalidCapacity),
		errors.Is(err, scheduling.ErrEmptySearch),
		errors.Is(err, scheduling.ErrPastScheduleTime):
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
	case errors.Is(err, scheduling.ErrPatientNotFound):
		writeError(w, http.StatusNotFound, "patient_not_found", err.Error())
	case errors.Is(err, scheduling.ErrDoctorNotFound):
		writeError(w, http.StatusNotFound, "doctor_not_found", err.Error())
	case errors.Is(err, scheduling.ErrAppointmentNotFound):
		writeError(w, http.StatusNotFound, "appointment_not_found", err.Error())
	case errors.Is(err, scheduling.ErrAlreadyRegistered):
		writeError(w, http.StatusConflict, "already_registered", err.Error())
	case errors.Is(err, scheduling.ErrNotOwner):
		writeError(w, http.StatusForbidden, "not_appointment_owner", err.Error())
	case errors.Is(err, scheduling.ErrScheduleConflict):
		writeError(w, http.StatusConflict, "schedule_conflict", err.Error())
	case errors.Is(err, scheduling.ErrCapacityExceeded):
		writeError(w, http.StatusConflict, "capacity_exceeded", err.Error())
	case errors.Is(err, scheduling.ErrInvalidStatusTransition):
		writeError(w, http.StatusConflict, "invalid_status_transition", err.Error())
	case errors.Is(err, scheduling.ErrAppointmentExpired):
		writeError(w, http.StatusConflict, "appointment_expired", err.Error())
	case errors.Is(err, redisclient.ErrLockNotAcquired):
		writeError(w, http.StatusConflict, "doctor_being_booked", "doctor is currently being booked, please retry shortly")
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

func toPatientResponse(p *scheduling.Patient) PatientResponse {
	return PatientResponse{RUN: p.RUN, Name: p.Name, Age: p.Age}
}

func toDoctorResponse(d *scheduling.Doctor) DoctorResponse {
	return DoctorResponse{RUN: d.RUN, Name: d.Name, Specialty: d.Specialty, Capacity: d.Capacity}
}

func toAppointmentResponse(a *scheduling.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:          a.ID,
		PatientRUN:  a.Patient.RUN,
		DoctorRUN:   a.Doctor.RUN,
		ScheduledAt: a.ScheduledAt,
		Status:      string(a.Status),
	}
}

func toAppointmentResponses(appts []*scheduling.Appointment) []AppointmentResponse {
	out := make([]AppointmentResponse, 0, len(appts))
	for _, a := range appts {
		out = append(out, toAppointmentResponse(a))
	}
	return out
}
