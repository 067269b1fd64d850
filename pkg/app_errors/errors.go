package apperrors

import (
	"errors"
	"fmt"
)

var (
	ErrEventNotFound           = errors.New("event not found")
	ErrBookingNotFound         = errors.New("booking not found")
	ErrUserNotFound            = errors.New("user not found")
	ErrBookingAlreadyCancelled = errors.New("booking already cancelled")
	ErrEmailTaken              = errors.New("email already registered")
	ErrInvalidCredentials      = errors.New("invalid email or password")
	ErrInvalidInput            = errors.New("invalid input")
	ErrForbidden               = errors.New("forbidden")
	ErrInternalServerError     = errors.New("internal server error")
)

// CapacityError is returned when a booking asks for more tickets than the
// event has left. It carries the remaining seat count so the caller can
// offer a corrected quantity.
type CapacityError struct {
	Available int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("not enough seats available, only %d left", e.Available)
}
