package repository

import (
	"context"
	"fmt"
	"time"

	"go-event-ticketing/internal/model"
	apperrors "go-event-ticketing/pkg/app_errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type BookingRepository interface {
	List(ctx context.Context) ([]*model.BookingDetail, error)
	FindByID(ctx context.Context, id int) (*model.BookingDetail, error)
	FindByAttendeeID(ctx context.Context, attendeeID int) ([]*model.BookingDetail, error)
	FindByEventID(ctx context.Context, eventID int) ([]*model.AttendeeBooking, error)

	// Transaction methods
	Create(ctx context.Context, tx pgx.Tx, booking *model.Booking) (*model.Booking, error)
	FindByIDWithLock(ctx context.Context, tx pgx.Tx, id int) (*model.Booking, error)
	MarkCancelled(ctx context.Context, tx pgx.Tx, id int) error
}

type BookingRepositoryImpl struct {
	pool *pgxpool.Pool
}

func NewBookingRepository(pool *pgxpool.Pool) BookingRepository {
	return &BookingRepositoryImpl{
		pool: pool,
	}
}

const bookingColumns = `id, event_id, attendee_id, tickets_booked, total_price,
	status, confirmation_code, booking_time, cancelled_at`

func scanBooking(row pgx.Row, booking *model.Booking) error {
	return row.Scan(
		&booking.ID,
		&booking.EventID,
		&booking.AttendeeID,
		&booking.TicketsBooked,
		&booking.TotalPrice,
		&booking.Status,
		&booking.ConfirmationCode,
		&booking.BookingTime,
		&booking.CancelledAt,
	)
}

// Create inserts the booking inside the caller's transaction so the insert
// and the event counter update commit or roll back together.
func (r *BookingRepositoryImpl) Create(ctx context.Context, tx pgx.Tx, booking *model.Booking) (*model.Booking, error) {
	query := fmt.Sprintf(`
		INSERT INTO bookings (
			event_id, attendee_id, tickets_booked, total_price, status, confirmation_code
		)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING %s
	`, bookingColumns)

	err := scanBooking(tx.QueryRow(ctx, query,
		booking.EventID, booking.AttendeeID, booking.TicketsBooked,
		booking.TotalPrice, booking.Status, booking.ConfirmationCode,
	), booking)
	if err != nil {
		return nil, fmt.Errorf("failed to create booking: %w", err)
	}

	return booking, nil
}

func (r *BookingRepositoryImpl) List(ctx context.Context) ([]*model.BookingDetail, error) {
	query := `
		SELECT b.id, b.event_id, b.attendee_id, b.tickets_booked, b.total_price,
		       b.status, b.confirmation_code, b.booking_time, b.cancelled_at,
		       e.name AS event_name, e.venue, e.date_time, e.image_url
		FROM bookings b
		JOIN events e ON b.event_id = e.id
		ORDER BY b.booking_time DESC
	`

	return r.queryBookingDetails(ctx, query)
}

func (r *BookingRepositoryImpl) FindByAttendeeID(ctx context.Context, attendeeID int) ([]*model.BookingDetail, error) {
	query := `
		SELECT b.id, b.event_id, b.attendee_id, b.tickets_booked, b.total_price,
		       b.status, b.confirmation_code, b.booking_time, b.cancelled_at,
		       e.name AS event_name, e.venue, e.date_time, e.image_url
		FROM bookings b
		JOIN events e ON b.event_id = e.id
		WHERE b.attendee_id = $1
		ORDER BY b.booking_time DESC
	`

	return r.queryBookingDetails(ctx, query, attendeeID)
}

func (r *BookingRepositoryImpl) queryBookingDetails(ctx context.Context, query string, args ...interface{}) ([]*model.BookingDetail, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bookings := make([]*model.BookingDetail, 0)
	for rows.Next() {
		var b model.BookingDetail
		err := rows.Scan(
			&b.ID,
			&b.EventID,
			&b.AttendeeID,
			&b.TicketsBooked,
			&b.TotalPrice,
			&b.Status,
			&b.ConfirmationCode,
			&b.BookingTime,
			&b.CancelledAt,
			&b.EventName,
			&b.Venue,
			&b.EventDateTime,
			&b.ImageURL,
		)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, &b)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return bookings, nil
}

// FindByEventID is the organizer view: bookings for one event joined with
// attendee contact fields.
func (r *BookingRepositoryImpl) FindByEventID(ctx context.Context, eventID int) ([]*model.AttendeeBooking, error) {
	query := `
		SELECT b.id, b.event_id, b.attendee_id, b.tickets_booked, b.total_price,
		       b.status, b.confirmation_code, b.booking_time, b.cancelled_at,
		       u.name AS attendee_name, u.email AS attendee_email
		FROM bookings b
		JOIN users u ON b.attendee_id = u.id
		WHERE b.event_id = $1
		ORDER BY b.booking_time DESC
	`

	rows, err := r.pool.Query(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bookings := make([]*model.AttendeeBooking, 0)
	for rows.Next() {
		var b model.AttendeeBooking
		err := rows.Scan(
			&b.ID,
			&b.EventID,
			&b.AttendeeID,
			&b.TicketsBooked,
			&b.TotalPrice,
			&b.Status,
			&b.ConfirmationCode,
			&b.BookingTime,
			&b.CancelledAt,
			&b.AttendeeName,
			&b.AttendeeEmail,
		)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, &b)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return bookings, nil
}

func (r *BookingRepositoryImpl) FindByID(ctx context.Context, id int) (*model.BookingDetail, error) {
	query := `
		SELECT b.id, b.event_id, b.attendee_id, b.tickets_booked, b.total_price,
		       b.status, b.confirmation_code, b.booking_time, b.cancelled_at,
		       e.name AS event_name, e.venue, e.date_time, e.image_url
		FROM bookings b
		JOIN events e ON b.event_id = e.id
		WHERE b.id = $1
	`

	var b model.BookingDetail
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&b.ID,
		&b.EventID,
		&b.AttendeeID,
		&b.TicketsBooked,
		&b.TotalPrice,
		&b.Status,
		&b.ConfirmationCode,
		&b.BookingTime,
		&b.CancelledAt,
		&b.EventName,
		&b.Venue,
		&b.EventDateTime,
		&b.ImageURL,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrBookingNotFound
		}
		return nil, err
	}

	return &b, nil
}

// FindByIDWithLock reads the booking row FOR UPDATE so concurrent cancels
// of the same booking serialize, and only the first one decrements the
// event counter.
func (r *BookingRepositoryImpl) FindByIDWithLock(ctx context.Context, tx pgx.Tx, id int) (*model.Booking, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM bookings
		WHERE id = $1
		FOR UPDATE
	`, bookingColumns)

	var booking model.Booking
	err := scanBooking(tx.QueryRow(ctx, query, id), &booking)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrBookingNotFound
		}
		return nil, err
	}

	return &booking, nil
}

// MarkCancelled flips the booking to CANCELLED. The status guard in the
// WHERE clause makes the transition one-way at the storage level too.
func (r *BookingRepositoryImpl) MarkCancelled(ctx context.Context, tx pgx.Tx, id int) error {
	query := `
		UPDATE bookings
		SET status = $1, cancelled_at = $2
		WHERE id = $3 AND status = $4
	`

	result, err := tx.Exec(ctx, query,
		model.BookingStatusCancelled, time.Now().UTC(), id, model.BookingStatusConfirmed,
	)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrBookingAlreadyCancelled
	}

	return nil
}
