package service

import (
	"context"
	"errors"

	"go-event-ticketing/internal/cache"
	"go-event-ticketing/internal/model"
	"go-event-ticketing/internal/repository"
	apperrors "go-event-ticketing/pkg/app_errors"
	"go-event-ticketing/pkg/logger"

	"go.uber.org/zap"
)

type EventService interface {
	List(ctx context.Context, filter model.EventFilter) ([]*model.Event, error)
	ListByOrganizer(ctx context.Context, organizerID int) ([]*model.Event, error)
	ListOrganizers(ctx context.Context) ([]*model.Organizer, error)
	ListCategories(ctx context.Context) ([]*model.Category, error)
	GetByID(ctx context.Context, id int) (*model.Event, error)
	// GetAvailability serves the seat counters from the redis cache,
	// falling back to the database on a miss.
	GetAvailability(ctx context.Context, id int) (*model.Availability, error)
	Create(ctx context.Context, organizerID int, event *model.Event) (*model.Event, error)
	Update(ctx context.Context, id int, organizerID int, params model.UpdateEventParams) (*model.Event, error)
	Delete(ctx context.Context, id int, organizerID int) error
}

type EventServiceImpl struct {
	repo         repository.EventRepository
	categoryRepo repository.CategoryRepository
	availability cache.AvailabilityCache
}

func NewEventService(repo repository.EventRepository, categoryRepo repository.CategoryRepository, availability cache.AvailabilityCache) EventService {
	return &EventServiceImpl{
		repo:         repo,
		categoryRepo: categoryRepo,
		availability: availability,
	}
}

func (s *EventServiceImpl) List(ctx context.Context, filter model.EventFilter) ([]*model.Event, error) {
	return s.repo.List(ctx, filter)
}

func (s *EventServiceImpl) ListByOrganizer(ctx context.Context, organizerID int) ([]*model.Event, error) {
	return s.repo.ListByOrganizer(ctx, organizerID)
}

func (s *EventServiceImpl) ListOrganizers(ctx context.Context) ([]*model.Organizer, error) {
	return s.repo.ListOrganizers(ctx)
}

func (s *EventServiceImpl) ListCategories(ctx context.Context) ([]*model.Category, error) {
	return s.categoryRepo.ListActive(ctx)
}

func (s *EventServiceImpl) GetByID(ctx context.Context, id int) (*model.Event, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *EventServiceImpl) GetAvailability(ctx context.Context, id int) (*model.Availability, error) {
	if s.availability != nil {
		av, err := s.availability.Get(ctx, id)
		if err == nil {
			return av, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			logger.WithComponent("service").Warn("availability cache read failed", zap.Int("event_id", id), zap.Error(err))
		}
	}

	event, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.availability != nil {
		if err := s.availability.Set(ctx, id, event.Capacity, event.TicketsBooked); err != nil {
			logger.WithComponent("service").Warn("availability cache write failed", zap.Int("event_id", id), zap.Error(err))
		}
	}

	return &model.Availability{
		EventID:        event.ID,
		Capacity:       event.Capacity,
		TicketsBooked:  event.TicketsBooked,
		AvailableSeats: event.AvailableSeats(),
	}, nil
}

func (s *EventServiceImpl) Create(ctx context.Context, organizerID int, event *model.Event) (*model.Event, error) {
	event.OrganizerID = organizerID
	if event.Status == "" {
		event.Status = model.EventStatusDraft
	}
	if !event.Status.IsValid() {
		return nil, apperrors.ErrInvalidInput
	}
	if event.Capacity < 0 || event.TicketPrice < 0 {
		return nil, apperrors.ErrInvalidInput
	}
	return s.repo.Create(ctx, event)
}

// Update rejects writes against events the caller does not own. Admins own
// everything (organizerID 0 skips the check, set only from an admin token).
func (s *EventServiceImpl) Update(ctx context.Context, id int, organizerID int, params model.UpdateEventParams) (*model.Event, error) {
	event, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if organizerID != 0 && event.OrganizerID != organizerID {
		return nil, apperrors.ErrForbidden
	}
	if params.Status != nil && !params.Status.IsValid() {
		return nil, apperrors.ErrInvalidInput
	}
	return s.repo.Update(ctx, id, params)
}

func (s *EventServiceImpl) Delete(ctx context.Context, id int, organizerID int) error {
	event, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if organizerID != 0 && event.OrganizerID != organizerID {
		return apperrors.ErrForbidden
	}
	return s.repo.Delete(ctx, id)
}
