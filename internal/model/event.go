package model

import "time"

// EventStatus is the publication state of an event.
type EventStatus string

const (
	EventStatusDraft     EventStatus = "DRAFT"
	EventStatusPublished EventStatus = "PUBLISHED"
)

func (s EventStatus) IsValid() bool {
	switch s {
	case EventStatusDraft, EventStatusPublished:
		return true
	}
	return false
}

type Event struct {
	ID            int         `json:"id" db:"id"`
	OrganizerID   int         `json:"organizer_id" db:"organizer_id"`
	Name          string      `json:"name" db:"name"`
	Description   *string     `json:"description,omitempty" db:"description"`
	Venue         string      `json:"venue" db:"venue"`
	VenueAddress  *string     `json:"venue_address,omitempty" db:"venue_address"`
	DateTime      time.Time   `json:"date_time" db:"date_time"`
	EndDateTime   *time.Time  `json:"end_date_time,omitempty" db:"end_date_time"`
	CategoryID    *int        `json:"category_id,omitempty" db:"category_id"`
	Capacity      int         `json:"capacity" db:"capacity"`
	TicketsBooked int         `json:"tickets_booked" db:"tickets_booked"`
	TicketPrice   float64     `json:"ticket_price" db:"ticket_price"`
	ImageURL      *string     `json:"image_url,omitempty" db:"image_url"`
	Status        EventStatus `json:"status" db:"status"`
	IsPrivate     bool        `json:"is_private" db:"is_private"`
	CreatedAt     time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at" db:"updated_at"`

	// joined display fields
	CategoryName  *string `json:"category_name,omitempty" db:"-"`
	OrganizerName *string `json:"organizer_name,omitempty" db:"-"`
}

// AvailableSeats is capacity minus currently confirmed tickets.
func (e *Event) AvailableSeats() int {
	return e.Capacity - e.TicketsBooked
}

// EventFilter narrows the published-event listing.
type EventFilter struct {
	CategoryID     *int
	OrganizerID    *int
	Search         *string
	IncludePrivate bool
}

type UpdateEventParams struct {
	Name         *string
	Description  *string
	Venue        *string
	VenueAddress *string
	DateTime     *time.Time
	EndDateTime  *time.Time
	CategoryID   *int
	Capacity     *int
	TicketPrice  *float64
	ImageURL     *string
	Status       *EventStatus
	IsPrivate    *bool
}

// Availability is the read-side projection served from the redis cache.
type Availability struct {
	EventID        int `json:"event_id"`
	Capacity       int `json:"capacity"`
	TicketsBooked  int `json:"tickets_booked"`
	AvailableSeats int `json:"available_seats"`
}
