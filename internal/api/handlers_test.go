package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinisys/clinic-scheduling/internal/scheduling"
)

type passthroughLocker struct{}

func (passthroughLocker) WithDoctorLock(ctx context.Context, _ string, fn func(context.Context) error) error {
	return fn(ctx)
}

func newTestRouter(t *testing.T) (http.Handler, *Metrics) {
	t.Helper()

	repo := scheduling.NewMemoryRepository()
	registry := scheduling.NewRegistry(repo, zerolog.Nop())
	svc := scheduling.NewService(registry, repo, passthroughLocker{}, zerolog.Nop())
	metrics := NewMetrics(prometheus.NewRegistry())

	return NewRouter(RouterConfig{
		Registry: registry,
		Service:  svc,
		Logger:   zerolog.Nop(),
		Metrics:  metrics,
	}), metrics
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func TestRegisterEndpoints(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/patients", RegisterPatientRequest{
		RUN: "19.141.061-0", Name: "juan perez", Age: 30,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var p PatientResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&p))
	assert.Equal(t, "19141061-0", p.RUN)
	assert.Equal(t, "Juan Perez", p.Name)

	rec = doJSON(t, router, http.MethodPost, "/patients", RegisterPatientRequest{
		RUN: "19141061-0", Name: "Juan Again", Age: 31,
	})
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "already_registered", decodeError(t, rec).Error)

	rec = doJSON(t, router, http.MethodPost, "/patients", RegisterPatientRequest{
		RUN: "19.141.061-1", Name: "Bad Check", Age: 31,
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_national_id", decodeError(t, rec).Error)

	rec = doJSON(t, router, http.MethodPost, "/doctors", RegisterDoctorRequest{
		RUN: "24.360.785-K", Name: "dr. simi", Specialty: "general medicine", Capacity: 5,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/doctors?specialty=general", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var doctors []DoctorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&doctors))
	require.Len(t, doctors, 1)
	assert.Equal(t, "Dr. Simi", doctors[0].Name)

	rec = doJSON(t, router, http.MethodGet, "/doctors?specialty=dermatology", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBookingEndpoints(t *testing.T) {
	router, metrics := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/patients", RegisterPatientRequest{RUN: "19.141.061-0", Name: "Juan Perez", Age: 30})
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = doJSON(t, router, http.MethodPost, "/patients", RegisterPatientRequest{RUN: "21.072.613-6", Name: "Maria Lopez", Age: 25})
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = doJSON(t, router, http.MethodPost, "/doctors", RegisterDoctorRequest{RUN: "24.360.785-K", Name: "Dr. Simi", Specialty: "General Medicine", Capacity: 5})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/appointments", BookAppointmentRequest{
		PatientRUN: "19.141.061-0", DoctorRUN: "24.360.785-K", ScheduledAt: "2100-05-20T10:00:00Z",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var appt AppointmentResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&appt))
	assert.Equal(t, int64(1), appt.ID)
	assert.Equal(t, "reserved", appt.Status)
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.AppointmentsBooked))

	// Inside the 30-minute window of the first booking.
	rec = doJSON(t, router, http.MethodPost, "/appointments", BookAppointmentRequest{
		PatientRUN: "21.072.613-6", DoctorRUN: "24.360.785-K", ScheduledAt: "2100-05-20T10:15:00Z",
	})
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "schedule_conflict", decodeError(t, rec).Error)

	// Legacy console format is accepted, but this one is in the past.
	rec = doJSON(t, router, http.MethodPost, "/appointments", BookAppointmentRequest{
		PatientRUN: "19.141.061-0", DoctorRUN: "24.360.785-K", ScheduledAt: "01-01-2020 08:00",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation_failed", decodeError(t, rec).Error)

	rec = doJSON(t, router, http.MethodPost, "/appointments", BookAppointmentRequest{
		PatientRUN: "19.141.061-0", DoctorRUN: "24.360.785-K", ScheduledAt: "next tuesday",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_scheduled_at", decodeError(t, rec).Error)
}

func TestTransitionEndpoints(t *testing.T) {
	router, _ := newTestRouter(t)

	doJSON(t, router, http.MethodPost, "/patients", RegisterPatientRequest{RUN: "19.141.061-0", Name: "Juan Perez", Age: 30})
	doJSON(t, router, http.MethodPost, "/patients", RegisterPatientRequest{RUN: "21.072.613-6", Name: "Maria Lopez", Age: 25})
	doJSON(t, router, http.MethodPost, "/doctors", RegisterDoctorRequest{RUN: "24.360.785-K", Name: "Dr. Simi", Specialty: "General Medicine", Capacity: 5})

	rec := doJSON(t, router, http.MethodPost, "/appointments", BookAppointmentRequest{
		PatientRUN: "19.141.061-0", DoctorRUN: "24.360.785-K", ScheduledAt: "2100-05-20T10:00:00Z",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	// Another registered patient cannot drive someone else's appointment.
	rec = doJSON(t, router, http.MethodPost, "/appointments/1/confirm", TransitionRequest{PatientRUN: "21.072.613-6"})
	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "not_appointment_owner", decodeError(t, rec).Error)

	rec = doJSON(t, router, http.MethodPost, "/appointments/1/confirm", TransitionRequest{PatientRUN: "19.141.061-0"})
	require.Equal(t, http.StatusOK, rec.Code)
	var appt AppointmentResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&appt))
	assert.Equal(t, "confirmed", appt.Status)

	// Confirming twice is an illegal transition.
	rec = doJSON(t, router, http.MethodPost, "/appointments/1/confirm", TransitionRequest{PatientRUN: "19.141.061-0"})
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "invalid_status_transition", decodeError(t, rec).Error)

	rec = doJSON(t, router, http.MethodPost, "/appointments/1/attend", TransitionRequest{PatientRUN: "19.141.061-0"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/appointments/99/cancel", TransitionRequest{PatientRUN: "19.141.061-0"})
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/appointments/zero/cancel", TransitionRequest{PatientRUN: "19.141.061-0"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_appointment_id", decodeError(t, rec).Error)
}

func TestQueryEndpoints(t *testing.T) {
	router, _ := newTestRouter(t)

	doJSON(t, router, http.MethodPost, "/patients", RegisterPatientRequest{RUN: "19.141.061-0", Name: "Juan Perez", Age: 30})
	doJSON(t, router, http.MethodPost, "/doctors", RegisterDoctorRequest{RUN: "24.360.785-K", Name: "Dr. Simi", Specialty: "General Medicine", Capacity: 5})
	doJSON(t, router, http.MethodPost, "/appointments", BookAppointmentRequest{
		PatientRUN: "19.141.061-0", DoctorRUN: "24.360.785-K", ScheduledAt: "2100-05-20T10:00:00Z",
	})

	rec := doJSON(t, router, http.MethodGet, "/appointments", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var appts []AppointmentResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&appts))
	require.Len(t, appts, 1)

	rec = doJSON(t, router, http.MethodGet, "/appointments/1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/appointments/42", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/patients/19.141.061-0/appointments", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/doctors/24.360.785-K/appointments", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/patients/21.072.613-6/appointments", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}
