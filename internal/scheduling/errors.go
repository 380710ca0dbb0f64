package scheduling

import "errors"

var (
	ErrPatientNotFound     = errors.New("patient not registered")
	ErrDoctorNotFound      = errors.New("doctor not registered")
	ErrAppointmentNotFound = errors.New("appointment not found")

	ErrAlreadyRegistered = errors.New("national ID already registered")
	ErrInvalidAge        = errors.New("age must not be negative")
	ErrInvalidCapacity   = errors.New("capacity must be a positive integer")
	ErrEmptySearch       = errors.New("search term must not be empty")

	ErrNotOwner                = errors.New("national ID does not own this appointment")
	ErrInvalidStatusTransition = errors.New("invalid status transition")
	ErrScheduleConflict        = errors.New("schedule conflict")
	ErrCapacityExceeded        = errors.New("doctor capacity exceeded")
	ErrPastScheduleTime        = errors.New("scheduled time must be in the future")
	ErrAppointmentExpired      = errors.New("appointment expired before confirmation")
)
