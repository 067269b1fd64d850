package service

import (
	"context"
	"crypto/rand"
	"errors"

	"go-event-ticketing/internal/cache"
	"go-event-ticketing/internal/model"
	"go-event-ticketing/internal/queue"
	"go-event-ticketing/internal/repository"
	apperrors "go-event-ticketing/pkg/app_errors"
	"go-event-ticketing/pkg/logger"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

// DB is the transaction entry point. *pgxpool.Pool satisfies it.
type DB interface {
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

type BookingService interface {
	// CreateBooking runs the booking transaction: lock the event row, check
	// availability, price the request, insert the booking and move the
	// counter, all in one atomic unit.
	CreateBooking(ctx context.Context, attendeeID int, req model.CreateBookingRequest) (*model.Booking, error)
	// CancelBooking flips a booking to CANCELLED and returns its tickets to
	// the event, exactly once.
	CancelBooking(ctx context.Context, id int) error
	ListBookings(ctx context.Context, attendeeID *int) ([]*model.BookingDetail, error)
	ListEventBookings(ctx context.Context, eventID int) ([]*model.AttendeeBooking, error)
	GetBooking(ctx context.Context, id int) (*model.BookingDetail, error)
}

type BookingServiceImpl struct {
	db           DB
	repository   repository.BookingRepository
	eventRepo    repository.EventRepository
	userRepo     repository.UserRepository
	availability cache.AvailabilityCache
	notifyQueue  queue.NotificationQueue
}

func NewBookingService(
	db DB,
	bookingRepo repository.BookingRepository,
	eventRepo repository.EventRepository,
	userRepo repository.UserRepository,
	availability cache.AvailabilityCache,
	notifyQueue queue.NotificationQueue,
) BookingService {
	return &BookingServiceImpl{
		db:           db,
		repository:   bookingRepo,
		eventRepo:    eventRepo,
		userRepo:     userRepo,
		availability: availability,
		notifyQueue:  notifyQueue,
	}
}

const (
	confirmationCodePrefix = "EVT-"
	confirmationCodeChars  = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	confirmationCodeLength = 6
	maxCodeAttempts        = 3
)

// generateConfirmationCode returns the human-presentable booking code:
// the fixed prefix plus 6 random base36 uppercase characters.
func generateConfirmationCode() string {
	buf := make([]byte, confirmationCodeLength)
	if _, err := rand.Read(buf); err != nil {
		panic(err)
	}
	for i, b := range buf {
		buf[i] = confirmationCodeChars[int(b)%len(confirmationCodeChars)]
	}
	return confirmationCodePrefix + string(buf)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func (s *BookingServiceImpl) CreateBooking(ctx context.Context, attendeeID int, req model.CreateBookingRequest) (*model.Booking, error) {
	if req.Tickets <= 0 {
		return nil, apperrors.ErrInvalidInput
	}

	// resolved before the transaction so a bad attendee id never holds the
	// event row lock
	attendee, err := s.userRepo.FindByID(ctx, attendeeID)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	// FOR UPDATE: concurrent bookings for the same event queue up here, so
	// every availability check sees the committed counter
	event, err := s.eventRepo.FindByIDWithLock(ctx, tx, req.EventID)
	if err != nil {
		return nil, err
	}

	available := event.AvailableSeats()
	if req.Tickets > available {
		return nil, &apperrors.CapacityError{Available: available}
	}

	booking := &model.Booking{
		EventID:       req.EventID,
		AttendeeID:    attendeeID,
		TicketsBooked: req.Tickets,
		TotalPrice:    float64(req.Tickets) * event.TicketPrice,
		Status:        model.BookingStatusConfirmed,
	}

	// the confirmation code carries a unique index; a collision aborts only
	// the savepoint, so we can regenerate and retry inside the transaction
	for attempt := 0; ; attempt++ {
		booking.ConfirmationCode = generateConfirmationCode()

		sp, err := tx.Begin(ctx)
		if err != nil {
			return nil, err
		}
		_, err = s.repository.Create(ctx, sp, booking)
		if err != nil {
			_ = sp.Rollback(ctx)
			if isUniqueViolation(err) && attempt+1 < maxCodeAttempts {
				continue
			}
			return nil, err
		}
		if err := sp.Commit(ctx); err != nil {
			return nil, err
		}
		break
	}

	if err := s.eventRepo.AddTicketsBooked(ctx, tx, event.ID, req.Tickets); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	s.invalidateAvailability(event.ID)
	s.publishNotification(&queue.BookingNotification{
		Type:             queue.NotificationBookingConfirmed,
		BookingID:        booking.ID,
		EventID:          event.ID,
		EventName:        event.Name,
		AttendeeName:     attendee.Name,
		AttendeeEmail:    attendee.Email,
		Tickets:          booking.TicketsBooked,
		TotalPrice:       booking.TotalPrice,
		ConfirmationCode: booking.ConfirmationCode,
	})

	return booking, nil
}

func (s *BookingServiceImpl) CancelBooking(ctx context.Context, id int) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	booking, err := s.repository.FindByIDWithLock(ctx, tx, id)
	if err != nil {
		return err
	}

	// already-cancelled guard: this is what makes the counter reversal
	// exactly-once
	if booking.IsCancelled() {
		return apperrors.ErrBookingAlreadyCancelled
	}

	if err := s.repository.MarkCancelled(ctx, tx, id); err != nil {
		return err
	}

	if err := s.eventRepo.AddTicketsBooked(ctx, tx, booking.EventID, -booking.TicketsBooked); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	s.invalidateAvailability(booking.EventID)
	if s.notifyQueue != nil {
		notification := &queue.BookingNotification{
			Type:             queue.NotificationBookingCancelled,
			BookingID:        booking.ID,
			EventID:          booking.EventID,
			Tickets:          booking.TicketsBooked,
			TotalPrice:       booking.TotalPrice,
			ConfirmationCode: booking.ConfirmationCode,
		}
		if event, err := s.eventRepo.FindByID(context.Background(), booking.EventID); err == nil {
			notification.EventName = event.Name
		}
		if attendee, err := s.userRepo.FindByID(context.Background(), booking.AttendeeID); err == nil {
			notification.AttendeeName = attendee.Name
			notification.AttendeeEmail = attendee.Email
		}
		s.publishNotification(notification)
	}

	return nil
}

// invalidateAvailability and publishNotification run after the commit.
// Both are best effort: the committed transaction is the source of truth,
// a failure here only degrades the cache or delays an email.
func (s *BookingServiceImpl) invalidateAvailability(eventID int) {
	if s.availability == nil {
		return
	}
	if err := s.availability.Invalidate(context.Background(), eventID); err != nil {
		logger.WithComponent("service").Warn("invalidate availability cache failed",
			zap.Int("event_id", eventID), zap.Error(err))
	}
}

func (s *BookingServiceImpl) publishNotification(n *queue.BookingNotification) {
	if s.notifyQueue == nil || n.AttendeeEmail == "" {
		return
	}
	if err := s.notifyQueue.Publish(context.Background(), n); err != nil {
		logger.WithComponent("service").Warn("publish notification failed",
			zap.Int("booking_id", n.BookingID), zap.Error(err))
	}
}

func (s *BookingServiceImpl) ListBookings(ctx context.Context, attendeeID *int) ([]*model.BookingDetail, error) {
	if attendeeID != nil {
		return s.repository.FindByAttendeeID(ctx, *attendeeID)
	}
	return s.repository.List(ctx)
}

func (s *BookingServiceImpl) ListEventBookings(ctx context.Context, eventID int) ([]*model.AttendeeBooking, error) {
	if _, err := s.eventRepo.FindByID(ctx, eventID); err != nil {
		return nil, err
	}
	return s.repository.FindByEventID(ctx, eventID)
}

func (s *BookingServiceImpl) GetBooking(ctx context.Context, id int) (*model.BookingDetail, error) {
	return s.repository.FindByID(ctx, id)
}
