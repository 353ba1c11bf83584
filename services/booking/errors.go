package booking

import (
	"errors"
	"fmt"
)

var (
	ErrPsychologistNotFound = errors.New("psychologist not found")
	ErrSessionTypeNotFound  = errors.New("session type not found")
	ErrBookingNotFound      = errors.New("booking not found")
	ErrSlotUnavailable      = errors.New("requested slot is not available")
)

// InvalidTransitionError reports a status write the lifecycle does not allow.
type InvalidTransitionError struct {
	From string
	To   string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot transition booking from %q to %q", e.From, e.To)
}

// PolicyViolationError reports a request rejected by a business rule rather
// than by lifecycle state.
type PolicyViolationError struct {
	Message string
}

func (e *PolicyViolationError) Error() string { return e.Message }

// GatewayError wraps a payment provider failure.
type GatewayError struct {
	Op  string
	Err error
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("payment gateway %s failed: %v", e.Op, e.Err)
}

func (e *GatewayError) Unwrap() error { return e.Err }
