package queue

import (
	"context"

	"go-event-ticketing/pkg/logger"

	"go.uber.org/zap"
)

// NotificationType distinguishes the email a notification produces.
type NotificationType string

const (
	NotificationBookingConfirmed NotificationType = "booking_confirmed"
	NotificationBookingCancelled NotificationType = "booking_cancelled"
)

// BookingNotification is the message published after a booking transaction
// commits. It is self-contained so the worker never has to read the
// database to render the email.
type BookingNotification struct {
	Type             NotificationType `json:"type"`
	BookingID        int              `json:"booking_id"`
	EventID          int              `json:"event_id"`
	EventName        string           `json:"event_name"`
	AttendeeName     string           `json:"attendee_name"`
	AttendeeEmail    string           `json:"attendee_email"`
	Tickets          int              `json:"tickets"`
	TotalPrice       float64          `json:"total_price"`
	ConfirmationCode string           `json:"confirmation_code"`
}

type Delivery struct {
	Data *BookingNotification
	Ack  func()
	Nack func(requeue bool)
}

type NotificationQueue interface {
	Publish(ctx context.Context, n *BookingNotification) error
	Subscribe(ctx context.Context) (<-chan Delivery, error)
}

// MemoryNotificationQueue backs the queue with a Go channel. Used in tests
// and single-process deployments without redis.
type MemoryNotificationQueue struct {
	ch chan *BookingNotification
}

func NewMemoryNotificationQueue(bufferSize int) NotificationQueue {
	return &MemoryNotificationQueue{
		ch: make(chan *BookingNotification, bufferSize),
	}
}

func (q *MemoryNotificationQueue) Publish(ctx context.Context, n *BookingNotification) error {
	select {
	case q.ch <- n:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *MemoryNotificationQueue) Subscribe(ctx context.Context) (<-chan Delivery, error) {
	out := make(chan Delivery)

	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case n, ok := <-q.ch:
				if !ok {
					return
				}

				out <- Delivery{
					Data: n,
					Ack:  func() {},
					Nack: func(requeue bool) {
						if !requeue {
							return
						}
						select {
						case q.ch <- n:
						default:
							// a full buffer must not wedge the worker
							logger.WithComponent("mq").Warn("requeue dropped, buffer full", zap.Int("booking_id", n.BookingID))
						}
					},
				}
			}
		}
	}()

	return out, nil
}
