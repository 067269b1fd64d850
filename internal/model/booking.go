package model

import "time"

// BookingStatus is the lifecycle state of a booking.
type BookingStatus string

const (
	BookingStatusConfirmed BookingStatus = "CONFIRMED"
	BookingStatusCancelled BookingStatus = "CANCELLED"
)

func (s BookingStatus) IsValid() bool {
	switch s {
	case BookingStatusConfirmed, BookingStatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo checks whether the status may move to the target state.
// CANCELLED is terminal.
func (s BookingStatus) CanTransitionTo(target BookingStatus) bool {
	transitions := map[BookingStatus][]BookingStatus{
		BookingStatusConfirmed: {BookingStatusCancelled},
		BookingStatusCancelled: {},
	}

	allowed, ok := transitions[s]
	if !ok {
		return false
	}

	for _, status := range allowed {
		if status == target {
			return true
		}
	}
	return false
}

// Booking is a reservation of N tickets against one event by one attendee.
type Booking struct {
	ID               int           `json:"id" db:"id"`
	EventID          int           `json:"event_id" db:"event_id"`
	AttendeeID       int           `json:"attendee_id" db:"attendee_id"`
	TicketsBooked    int           `json:"tickets_booked" db:"tickets_booked"`
	TotalPrice       float64       `json:"total_price" db:"total_price"`
	Status           BookingStatus `json:"status" db:"status"`
	ConfirmationCode string        `json:"confirmation_code" db:"confirmation_code"`
	BookingTime      time.Time     `json:"booking_time" db:"booking_time"`
	CancelledAt      *time.Time    `json:"cancelled_at,omitempty" db:"cancelled_at"`
}

// IsCancelled reports whether the booking has been cancelled.
func (b *Booking) IsCancelled() bool {
	return b.Status == BookingStatusCancelled
}

// BookingDetail joins a booking with event display fields, for the
// attendee-facing list and detail views.
type BookingDetail struct {
	Booking
	EventName     string    `json:"event_name"`
	Venue         string    `json:"venue"`
	EventDateTime time.Time `json:"date_time"`
	ImageURL      *string   `json:"image_url,omitempty"`
}

// AttendeeBooking joins a booking with attendee display fields, for the
// organizer-facing attendee list.
type AttendeeBooking struct {
	Booking
	AttendeeName  string `json:"attendee_name"`
	AttendeeEmail string `json:"attendee_email"`
}

// CreateBookingRequest is the booking endpoint payload.
type CreateBookingRequest struct {
	EventID int `json:"event_id" binding:"required"`
	Tickets int `json:"tickets" binding:"required,min=1"`
}

// BookingFilter selects which bookings to list. Zero value means all.
type BookingFilter struct {
	AttendeeID *int
	EventID    *int
}
