package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/clinisys/clinic-scheduling/internal/scheduling"
)

type RouterConfig struct {
	Registry *scheduling.Registry
	Service  *scheduling.Service
	Logger   zerolog.Logger
	Metrics  *Metrics
	PgPool   *pgxpool.Pool
	Redis    *redis.Client
	Env      string
	Version  string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(RequestLogger(cfg.Logger))
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware)
		r.Handle("/metrics", cfg.Metrics.Handler())
	}

	// Health endpoints need live connections; tests build routers without them.
	if cfg.PgPool != nil && cfg.Redis != nil {
		health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
		r.Get("/health/live", health.Liveness)
		r.Get("/health/ready", health.Readiness)
	}

	r.Post("/patients", registerPatientHandler(cfg.Registry))
	r.Get("/patients", listPatientsHandler(cfg.Registry))
	r.Get("/patients/{run}/appointments", patientAppointmentsHandler(cfg.Service))

	r.Post("/doctors", registerDoctorHandler(cfg.Registry))
	r.Get("/doctors", listDoctorsHandler(cfg.Registry))
	r.Get("/doctors/{run}/appointments", doctorAppointmentsHandler(cfg.Service))

	r.Post("/appointments", bookAppointmentHandler(cfg.Service, cfg.Metrics))
	r.Get("/appointments", listAppointmentsHandler(cfg.Service))
	r.Get("/appointments/{id}", getAppointmentHandler(cfg.Service))
	r.Post("/appointments/{id}/confirm", transitionHandler(cfg.Metrics,
		func(r *http.Request, run string, id int64) (*scheduling.Appointment, error) {
			return cfg.Service.Confirm(r.Context(), run, id)
		}))
	r.Post("/appointments/{id}/cancel", transitionHandler(cfg.Metrics,
		func(r *http.Request, run string, id int64) (*scheduling.Appointment, error) {
			return cfg.Service.Cancel(r.Context(), run, id)
		}))
	r.Post("/appointments/{id}/attend", transitionHandler(cfg.Metrics,
		func(r *http.Request, run string, id int64) (*scheduling.Appointment, error) {
			return cfg.Service.Finalize(r.Context(), run, id)
		}))

	return r
}
