package worker

import (
	"context"

	"go-event-ticketing/internal/mailer"
	"go-event-ticketing/internal/queue"
	"go-event-ticketing/pkg/logger"

	"go.uber.org/zap"
)

// NotificationWorker drains the notification queue and sends the emails.
// Bookings never wait on it: the queue decouples the transactional write
// from the slow SMTP call.
type NotificationWorker interface {
	Start(ctx context.Context) error
}

type NotificationWorkerImpl struct {
	queue  queue.NotificationQueue
	mailer mailer.Mailer
}

func NewNotificationWorker(q queue.NotificationQueue, m mailer.Mailer) NotificationWorker {
	return &NotificationWorkerImpl{
		queue:  q,
		mailer: m,
	}
}

func (w *NotificationWorkerImpl) Start(ctx context.Context) error {
	msgs, err := w.queue.Subscribe(ctx)
	if err != nil {
		return err
	}

	go func() {
		log := logger.WithComponent("worker")
		for msg := range msgs {
			if err := w.mailer.Send(msg.Data); err != nil {
				log.Warn("send notification failed, requeueing",
					zap.Int("booking_id", msg.Data.BookingID),
					zap.String("type", string(msg.Data.Type)),
					zap.Error(err),
				)
				msg.Nack(true)
				continue
			}
			msg.Ack()
		}
	}()
	return nil
}
