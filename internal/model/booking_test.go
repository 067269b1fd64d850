package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBookingStatusIsValid(t *testing.T) {
	assert.True(t, BookingStatusConfirmed.IsValid())
	assert.True(t, BookingStatusCancelled.IsValid())
	assert.False(t, BookingStatus("PENDING").IsValid())
	assert.False(t, BookingStatus("").IsValid())
}

func TestBookingStatusCanTransitionTo(t *testing.T) {
	assert.True(t, BookingStatusConfirmed.CanTransitionTo(BookingStatusCancelled))
	// cancelled is terminal
	assert.False(t, BookingStatusCancelled.CanTransitionTo(BookingStatusConfirmed))
	assert.False(t, BookingStatusCancelled.CanTransitionTo(BookingStatusCancelled))
	assert.False(t, BookingStatusConfirmed.CanTransitionTo(BookingStatusConfirmed))
}

func TestBookingIsCancelled(t *testing.T) {
	b := Booking{Status: BookingStatusConfirmed}
	assert.False(t, b.IsCancelled())

	now := time.Now()
	b.Status = BookingStatusCancelled
	b.CancelledAt = &now
	assert.True(t, b.IsCancelled())
}

func TestEventAvailableSeats(t *testing.T) {
	e := Event{Capacity: 100, TicketsBooked: 95}
	assert.Equal(t, 5, e.AvailableSeats())

	e.TicketsBooked = 100
	assert.Equal(t, 0, e.AvailableSeats())
}
