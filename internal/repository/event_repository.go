package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go-event-ticketing/internal/model"
	apperrors "go-event-ticketing/pkg/app_errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type EventRepository interface {
	Create(ctx context.Context, event *model.Event) (*model.Event, error)
	List(ctx context.Context, filter model.EventFilter) ([]*model.Event, error)
	ListByOrganizer(ctx context.Context, organizerID int) ([]*model.Event, error)
	ListOrganizers(ctx context.Context) ([]*model.Organizer, error)
	FindByID(ctx context.Context, id int) (*model.Event, error)
	Update(ctx context.Context, id int, params model.UpdateEventParams) (*model.Event, error)
	Delete(ctx context.Context, id int) error

	// Transaction methods
	FindByIDWithLock(ctx context.Context, tx pgx.Tx, id int) (*model.Event, error)
	AddTicketsBooked(ctx context.Context, tx pgx.Tx, id int, delta int) error
}

type EventRepositoryImpl struct {
	pool *pgxpool.Pool
}

func NewEventRepository(pool *pgxpool.Pool) EventRepository {
	return &EventRepositoryImpl{
		pool: pool,
	}
}

const eventColumns = `id, organizer_id, name, description, venue, venue_address,
	date_time, end_date_time, category_id, capacity, tickets_booked,
	ticket_price, image_url, status, is_private, created_at, updated_at`

func scanEvent(row pgx.Row, event *model.Event) error {
	return row.Scan(
		&event.ID,
		&event.OrganizerID,
		&event.Name,
		&event.Description,
		&event.Venue,
		&event.VenueAddress,
		&event.DateTime,
		&event.EndDateTime,
		&event.CategoryID,
		&event.Capacity,
		&event.TicketsBooked,
		&event.TicketPrice,
		&event.ImageURL,
		&event.Status,
		&event.IsPrivate,
		&event.CreatedAt,
		&event.UpdatedAt,
	)
}

func (r *EventRepositoryImpl) Create(ctx context.Context, event *model.Event) (*model.Event, error) {
	query := fmt.Sprintf(`
		INSERT INTO events (
			organizer_id, name, description, venue, venue_address,
			date_time, end_date_time, category_id, capacity,
			ticket_price, image_url, status, is_private
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING %s
	`, eventColumns)

	err := scanEvent(r.pool.QueryRow(ctx, query,
		event.OrganizerID, event.Name, event.Description, event.Venue, event.VenueAddress,
		event.DateTime, event.EndDateTime, event.CategoryID, event.Capacity,
		event.TicketPrice, event.ImageURL, event.Status, event.IsPrivate,
	), event)
	if err != nil {
		return nil, err
	}
	return event, nil
}

// List returns published events with optional category, organizer and
// free-text filters. Private events are excluded unless the filter asks
// for them.
func (r *EventRepositoryImpl) List(ctx context.Context, filter model.EventFilter) ([]*model.Event, error) {
	query := `
		SELECT e.id, e.organizer_id, e.name, e.description, e.venue, e.venue_address,
		       e.date_time, e.end_date_time, e.category_id, e.capacity, e.tickets_booked,
		       e.ticket_price, e.image_url, e.status, e.is_private, e.created_at, e.updated_at,
		       c.name AS category_name, u.name AS organizer_name
		FROM events e
		LEFT JOIN categories c ON e.category_id = c.id
		LEFT JOIN users u ON e.organizer_id = u.id
		WHERE e.status = 'PUBLISHED'
	`

	args := []interface{}{}
	argPos := 1

	if !filter.IncludePrivate {
		query += " AND e.is_private = FALSE"
	}
	if filter.CategoryID != nil {
		query += fmt.Sprintf(" AND e.category_id = $%d", argPos)
		args = append(args, *filter.CategoryID)
		argPos++
	}
	if filter.OrganizerID != nil {
		query += fmt.Sprintf(" AND e.organizer_id = $%d", argPos)
		args = append(args, *filter.OrganizerID)
		argPos++
	}
	if filter.Search != nil {
		query += fmt.Sprintf(" AND (e.name ILIKE $%d OR e.description ILIKE $%d OR e.venue ILIKE $%d)", argPos, argPos, argPos)
		args = append(args, "%"+*filter.Search+"%")
		argPos++
	}

	query += " ORDER BY e.date_time ASC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]*model.Event, 0)
	for rows.Next() {
		var event model.Event
		err := rows.Scan(
			&event.ID,
			&event.OrganizerID,
			&event.Name,
			&event.Description,
			&event.Venue,
			&event.VenueAddress,
			&event.DateTime,
			&event.EndDateTime,
			&event.CategoryID,
			&event.Capacity,
			&event.TicketsBooked,
			&event.TicketPrice,
			&event.ImageURL,
			&event.Status,
			&event.IsPrivate,
			&event.CreatedAt,
			&event.UpdatedAt,
			&event.CategoryName,
			&event.OrganizerName,
		)
		if err != nil {
			return nil, err
		}
		events = append(events, &event)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return events, nil
}

func (r *EventRepositoryImpl) ListByOrganizer(ctx context.Context, organizerID int) ([]*model.Event, error) {
	query := `
		SELECT e.id, e.organizer_id, e.name, e.description, e.venue, e.venue_address,
		       e.date_time, e.end_date_time, e.category_id, e.capacity, e.tickets_booked,
		       e.ticket_price, e.image_url, e.status, e.is_private, e.created_at, e.updated_at,
		       c.name AS category_name
		FROM events e
		LEFT JOIN categories c ON e.category_id = c.id
		WHERE e.organizer_id = $1
		ORDER BY e.created_at DESC
	`

	rows, err := r.pool.Query(ctx, query, organizerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]*model.Event, 0)
	for rows.Next() {
		var event model.Event
		err := rows.Scan(
			&event.ID,
			&event.OrganizerID,
			&event.Name,
			&event.Description,
			&event.Venue,
			&event.VenueAddress,
			&event.DateTime,
			&event.EndDateTime,
			&event.CategoryID,
			&event.Capacity,
			&event.TicketsBooked,
			&event.TicketPrice,
			&event.ImageURL,
			&event.Status,
			&event.IsPrivate,
			&event.CreatedAt,
			&event.UpdatedAt,
			&event.CategoryName,
		)
		if err != nil {
			return nil, err
		}
		events = append(events, &event)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return events, nil
}

// ListOrganizers returns organizers that have at least one published event.
func (r *EventRepositoryImpl) ListOrganizers(ctx context.Context) ([]*model.Organizer, error) {
	query := `
		SELECT DISTINCT u.id, u.name
		FROM users u
		INNER JOIN events e ON u.id = e.organizer_id
		WHERE u.role = 'ORGANIZER' AND u.is_active = TRUE AND e.status = 'PUBLISHED'
		ORDER BY u.name ASC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	organizers := make([]*model.Organizer, 0)
	for rows.Next() {
		var org model.Organizer
		if err := rows.Scan(&org.ID, &org.Name); err != nil {
			return nil, err
		}
		organizers = append(organizers, &org)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return organizers, nil
}

func (r *EventRepositoryImpl) FindByID(ctx context.Context, id int) (*model.Event, error) {
	query := `
		SELECT e.id, e.organizer_id, e.name, e.description, e.venue, e.venue_address,
		       e.date_time, e.end_date_time, e.category_id, e.capacity, e.tickets_booked,
		       e.ticket_price, e.image_url, e.status, e.is_private, e.created_at, e.updated_at,
		       c.name AS category_name, u.name AS organizer_name
		FROM events e
		LEFT JOIN categories c ON e.category_id = c.id
		LEFT JOIN users u ON e.organizer_id = u.id
		WHERE e.id = $1
	`

	var event model.Event
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&event.ID,
		&event.OrganizerID,
		&event.Name,
		&event.Description,
		&event.Venue,
		&event.VenueAddress,
		&event.DateTime,
		&event.EndDateTime,
		&event.CategoryID,
		&event.Capacity,
		&event.TicketsBooked,
		&event.TicketPrice,
		&event.ImageURL,
		&event.Status,
		&event.IsPrivate,
		&event.CreatedAt,
		&event.UpdatedAt,
		&event.CategoryName,
		&event.OrganizerName,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrEventNotFound
		}
		return nil, err
	}

	return &event, nil
}

// FindByIDWithLock reads the event row FOR UPDATE. It serializes concurrent
// bookings for the same event: the second transaction blocks here until the
// first commits or rolls back.
func (r *EventRepositoryImpl) FindByIDWithLock(ctx context.Context, tx pgx.Tx, id int) (*model.Event, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM events
		WHERE id = $1
		FOR UPDATE
	`, eventColumns)

	var event model.Event
	err := scanEvent(tx.QueryRow(ctx, query, id), &event)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrEventNotFound
		}
		return nil, err
	}

	return &event, nil
}

// AddTicketsBooked moves the confirmed-ticket counter by delta (positive on
// booking, negative on cancellation). The WHERE clause re-checks the
// 0 <= tickets_booked <= capacity invariant so the counter can never leave
// that range even if a caller skips the locked read.
func (r *EventRepositoryImpl) AddTicketsBooked(ctx context.Context, tx pgx.Tx, id int, delta int) error {
	query := `
		UPDATE events
		SET tickets_booked = tickets_booked + $1, updated_at = $2
		WHERE id = $3
		  AND tickets_booked + $1 >= 0
		  AND tickets_booked + $1 <= capacity
	`

	result, err := tx.Exec(ctx, query, delta, time.Now().UTC(), id)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		if delta > 0 {
			return &apperrors.CapacityError{Available: 0}
		}
		return apperrors.ErrEventNotFound
	}

	return nil
}

func (r *EventRepositoryImpl) Update(ctx context.Context, id int, params model.UpdateEventParams) (*model.Event, error) {
	sets := []string{}
	args := []interface{}{}
	argPos := 1

	appendSet := func(column string, value interface{}) {
		sets = append(sets, fmt.Sprintf("%s = $%d", column, argPos))
		args = append(args, value)
		argPos++
	}

	if params.Name != nil {
		appendSet("name", *params.Name)
	}
	if params.Description != nil {
		appendSet("description", *params.Description)
	}
	if params.Venue != nil {
		appendSet("venue", *params.Venue)
	}
	if params.VenueAddress != nil {
		appendSet("venue_address", *params.VenueAddress)
	}
	if params.DateTime != nil {
		appendSet("date_time", *params.DateTime)
	}
	if params.EndDateTime != nil {
		appendSet("end_date_time", *params.EndDateTime)
	}
	if params.CategoryID != nil {
		appendSet("category_id", *params.CategoryID)
	}
	if params.Capacity != nil {
		appendSet("capacity", *params.Capacity)
	}
	if params.TicketPrice != nil {
		appendSet("ticket_price", *params.TicketPrice)
	}
	if params.ImageURL != nil {
		appendSet("image_url", *params.ImageURL)
	}
	if params.Status != nil {
		appendSet("status", *params.Status)
	}
	if params.IsPrivate != nil {
		appendSet("is_private", *params.IsPrivate)
	}

	if len(sets) == 0 {
		return nil, apperrors.ErrInvalidInput
	}

	// add updated_at
	sets = append(sets, fmt.Sprintf("updated_at = $%d", argPos))
	args = append(args, time.Now().UTC())
	argPos++

	// add id
	args = append(args, id)

	query := fmt.Sprintf(`
		UPDATE events
		SET %s
		WHERE id = $%d
		RETURNING %s
	`, strings.Join(sets, ", "), argPos, eventColumns)

	var event model.Event
	err := scanEvent(r.pool.QueryRow(ctx, query, args...), &event)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrEventNotFound
		}
		return nil, err
	}

	return &event, nil
}

func (r *EventRepositoryImpl) Delete(ctx context.Context, id int) error {
	query := `
		DELETE FROM events
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrEventNotFound
	}

	return nil
}
