package handler

import (
	"encoding/csv"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"go-event-ticketing/internal/model"
	"go-event-ticketing/internal/service/mocks"
	apperrors "go-event-ticketing/pkg/app_errors"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func setupEventRouter(svc *mocks.MockEventService, bookingSvc *mocks.MockBookingService) *gin.Engine {
	r := gin.New()
	NewEventHandler(svc, bookingSvc, testTokens).RegisterRoutes(r)
	return r
}

func organizerAuth(t *testing.T) string {
	return bearerFor(t, &model.User{ID: 5, Name: "Live Nation", Role: model.RoleOrganizer})
}

func TestListEventsEndpoint(t *testing.T) {
	t.Run("filters come from the query string", func(t *testing.T) {
		svc := mocks.NewMockEventService()
		r := setupEventRouter(svc, nil)

		svc.On("List", mock.Anything, mock.MatchedBy(func(f model.EventFilter) bool {
			return f.CategoryID != nil && *f.CategoryID == 2 &&
				f.Search != nil && *f.Search == "jazz" &&
				!f.IncludePrivate
		})).Return([]*model.Event{{ID: 3, Name: "Jazz Night"}}, nil)

		w := doJSON(t, r, http.MethodGet, "/api/v1/events?category=2&search=jazz", "", nil)

		require.Equal(t, http.StatusOK, w.Code)
		svc.AssertExpectations(t)
	})

	t.Run("bad category value", func(t *testing.T) {
		svc := mocks.NewMockEventService()
		r := setupEventRouter(svc, nil)

		w := doJSON(t, r, http.MethodGet, "/api/v1/events?category=rock", "", nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		svc.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
	})
}

func TestGetAvailabilityEndpoint(t *testing.T) {
	svc := mocks.NewMockEventService()
	r := setupEventRouter(svc, nil)

	svc.On("GetAvailability", mock.Anything, 3).
		Return(&model.Availability{EventID: 3, Capacity: 100, TicketsBooked: 95, AvailableSeats: 5}, nil)

	w := doJSON(t, r, http.MethodGet, "/api/v1/events/3/availability", "", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var av model.Availability
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &av))
	assert.Equal(t, 5, av.AvailableSeats)
}

func TestCreateEventEndpoint(t *testing.T) {
	t.Run("organizer id comes from the token, not the payload", func(t *testing.T) {
		svc := mocks.NewMockEventService()
		r := setupEventRouter(svc, nil)

		svc.On("Create", mock.Anything, 5, mock.Anything).
			Return(&model.Event{ID: 3, OrganizerID: 5, Name: "Go Conf"}, nil)

		w := doJSON(t, r, http.MethodPost, "/api/v1/events", organizerAuth(t), gin.H{
			"name": "Go Conf", "venue": "Expo Hall",
			"date_time": time.Now().Add(24 * time.Hour).Format(time.RFC3339),
			"capacity":  100, "ticket_price": 20.0,
		})

		require.Equal(t, http.StatusCreated, w.Code)
		svc.AssertExpectations(t)
	})

	t.Run("attendees cannot create events", func(t *testing.T) {
		svc := mocks.NewMockEventService()
		r := setupEventRouter(svc, nil)

		w := doJSON(t, r, http.MethodPost, "/api/v1/events", attendeeAuth(t), gin.H{
			"name": "Go Conf", "venue": "Expo Hall",
			"date_time": time.Now().Format(time.RFC3339), "capacity": 100,
		})

		assert.Equal(t, http.StatusForbidden, w.Code)
		svc.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("missing venue fails validation", func(t *testing.T) {
		svc := mocks.NewMockEventService()
		r := setupEventRouter(svc, nil)

		w := doJSON(t, r, http.MethodPost, "/api/v1/events", organizerAuth(t), gin.H{
			"name": "Go Conf", "date_time": time.Now().Format(time.RFC3339), "capacity": 100,
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestUpdateEventEndpoint(t *testing.T) {
	t.Run("organizer updates their own event", func(t *testing.T) {
		svc := mocks.NewMockEventService()
		r := setupEventRouter(svc, nil)

		svc.On("Update", mock.Anything, 3, 5, mock.Anything).
			Return(&model.Event{ID: 3, OrganizerID: 5, Name: "Renamed"}, nil)

		w := doJSON(t, r, http.MethodPut, "/api/v1/events/3", organizerAuth(t), gin.H{"name": "Renamed"})

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("admin bypasses ownership with organizer scope zero", func(t *testing.T) {
		svc := mocks.NewMockEventService()
		r := setupEventRouter(svc, nil)
		admin := bearerFor(t, &model.User{ID: 1, Name: "Root", Role: model.RoleAdmin})

		svc.On("Update", mock.Anything, 3, 0, mock.Anything).
			Return(&model.Event{ID: 3, Name: "Renamed"}, nil)

		w := doJSON(t, r, http.MethodPut, "/api/v1/events/3", admin, gin.H{"name": "Renamed"})

		assert.Equal(t, http.StatusOK, w.Code)
		svc.AssertExpectations(t)
	})

	t.Run("foreign event maps to 403", func(t *testing.T) {
		svc := mocks.NewMockEventService()
		r := setupEventRouter(svc, nil)

		svc.On("Update", mock.Anything, 3, 5, mock.Anything).Return(nil, apperrors.ErrForbidden)

		w := doJSON(t, r, http.MethodPut, "/api/v1/events/3", organizerAuth(t), gin.H{"name": "Renamed"})

		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestExportAttendeesEndpoint(t *testing.T) {
	svc := mocks.NewMockEventService()
	bookingSvc := mocks.NewMockBookingService()
	r := setupEventRouter(svc, bookingSvc)

	svc.On("GetByID", mock.Anything, 3).Return(&model.Event{ID: 3, OrganizerID: 5}, nil)
	bookingSvc.On("ListEventBookings", mock.Anything, 3).Return([]*model.AttendeeBooking{
		{
			Booking: model.Booking{
				ID: 41, TicketsBooked: 2, TotalPrice: 40.00,
				Status: model.BookingStatusConfirmed, ConfirmationCode: "EVT-K9X2PQ",
				BookingTime: time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC),
			},
			AttendeeName:  "Amy Chen",
			AttendeeEmail: "amy@example.com",
		},
	}, nil)

	w := doJSON(t, r, http.MethodGet, "/api/v1/events/3/attendees.csv", organizerAuth(t), nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))

	records, err := csv.NewReader(strings.NewReader(w.Body.String())).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "attendee_name", records[0][0])
	assert.Equal(t, []string{"Amy Chen", "amy@example.com", "2", "40.00", "CONFIRMED", "EVT-K9X2PQ", "2026-03-01T18:00:00Z"}, records[1])
}

func TestListEventBookingsEndpoint(t *testing.T) {
	t.Run("organizer of another event is forbidden", func(t *testing.T) {
		svc := mocks.NewMockEventService()
		bookingSvc := mocks.NewMockBookingService()
		r := setupEventRouter(svc, bookingSvc)

		svc.On("GetByID", mock.Anything, 3).Return(&model.Event{ID: 3, OrganizerID: 99}, nil)

		w := doJSON(t, r, http.MethodGet, "/api/v1/events/3/bookings", organizerAuth(t), nil)

		assert.Equal(t, http.StatusForbidden, w.Code)
		bookingSvc.AssertNotCalled(t, "ListEventBookings", mock.Anything, mock.Anything)
	})

	t.Run("admin reads any event's bookings", func(t *testing.T) {
		svc := mocks.NewMockEventService()
		bookingSvc := mocks.NewMockBookingService()
		r := setupEventRouter(svc, bookingSvc)
		admin := bearerFor(t, &model.User{ID: 1, Name: "Root", Role: model.RoleAdmin})

		bookingSvc.On("ListEventBookings", mock.Anything, 3).Return([]*model.AttendeeBooking{}, nil)

		w := doJSON(t, r, http.MethodGet, "/api/v1/events/3/bookings", admin, nil)

		assert.Equal(t, http.StatusOK, w.Code)
		svc.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
	})
}
