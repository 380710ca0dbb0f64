package scheduling

import "fmt"

// Status transitions form a small state machine:
//
//	reserved -> confirmed -> attended
//	reserved/confirmed -> cancelled
//
// cancelled, attended and no_show are terminal. The functions below are pure;
// the service persists the change before touching in-memory state.

// Confirm returns the status after confirming an appointment. Only a reserved
// appointment can be confirmed.
func (s Status) Confirm() (Status, error) {
	if s != StatusReserved {
		return "", fmt.Errorf("%w: cannot confirm a %s appointment", ErrInvalidStatusTransition, s)
	}
	return StatusConfirmed, nil
}

// Cancel returns the status after cancelling. Attended appointments cannot be
// cancelled, and cancelling twice is an error.
func (s Status) Cancel() (Status, error) {
	switch s {
	case StatusReserved, StatusConfirmed:
		return StatusCancelled, nil
	default:
		return "", fmt.Errorf("%w: cannot cancel a %s appointment", ErrInvalidStatusTransition, s)
	}
}

// Attend returns the status after marking the appointment as attended. An
// appointment must be confirmed before it can be attended.
func (s Status) Attend() (Status, error) {
	if s != StatusConfirmed {
		return "", fmt.Errorf("%w: cannot mark a %s appointment as attended", ErrInvalidStatusTransition, s)
	}
	return StatusAttended, nil
}

// Terminal reports whether no further transition is permitted from s.
func (s Status) Terminal() bool {
	switch s {
	case StatusCancelled, StatusAttended, StatusNoShow:
		return true
	}
	return false
}
