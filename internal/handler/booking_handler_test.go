package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go-event-ticketing/internal/auth"
	"go-event-ticketing/internal/model"
	"go-event-ticketing/internal/service/mocks"
	apperrors "go-event-ticketing/pkg/app_errors"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var testTokens = auth.NewTokenManager("test-secret", time.Hour)

func setupBookingRouter(svc *mocks.MockBookingService) *gin.Engine {
	r := gin.New()
	NewBookingHandler(svc, testTokens).RegisterRoutes(r)
	return r
}

func bearerFor(t *testing.T, user *model.User) string {
	t.Helper()
	token, err := testTokens.Issue(user)
	require.NoError(t, err)
	return "Bearer " + token
}

func attendeeAuth(t *testing.T) string {
	return bearerFor(t, &model.User{ID: 7, Name: "Amy Chen", Role: model.RoleAttendee})
}

func doJSON(t *testing.T, r *gin.Engine, method, path, authHeader string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreateBookingEndpoint(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		svc := mocks.NewMockBookingService()
		r := setupBookingRouter(svc)

		svc.On("CreateBooking", mock.Anything, 7, model.CreateBookingRequest{EventID: 3, Tickets: 5}).
			Return(&model.Booking{
				ID: 41, EventID: 3, AttendeeID: 7, TicketsBooked: 5, TotalPrice: 100.00,
				Status: model.BookingStatusConfirmed, ConfirmationCode: "EVT-K9X2PQ",
			}, nil)

		w := doJSON(t, r, http.MethodPost, "/api/v1/bookings", attendeeAuth(t),
			gin.H{"event_id": 3, "tickets": 5})

		require.Equal(t, http.StatusCreated, w.Code)
		var booking model.Booking
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &booking))
		assert.Equal(t, 41, booking.ID)
		assert.Equal(t, "EVT-K9X2PQ", booking.ConfirmationCode)
		svc.AssertExpectations(t)
	})

	t.Run("capacity exceeded maps to 409 with the remaining seats", func(t *testing.T) {
		svc := mocks.NewMockBookingService()
		r := setupBookingRouter(svc)

		svc.On("CreateBooking", mock.Anything, 7, mock.Anything).
			Return(nil, &apperrors.CapacityError{Available: 5})

		w := doJSON(t, r, http.MethodPost, "/api/v1/bookings", attendeeAuth(t),
			gin.H{"event_id": 3, "tickets": 6})

		require.Equal(t, http.StatusConflict, w.Code)
		var body struct {
			AvailableSeats int `json:"available_seats"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, 5, body.AvailableSeats)
	})

	t.Run("unknown event maps to 404", func(t *testing.T) {
		svc := mocks.NewMockBookingService()
		r := setupBookingRouter(svc)

		svc.On("CreateBooking", mock.Anything, 7, mock.Anything).
			Return(nil, apperrors.ErrEventNotFound)

		w := doJSON(t, r, http.MethodPost, "/api/v1/bookings", attendeeAuth(t),
			gin.H{"event_id": 99, "tickets": 1})

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("malformed body never reaches the service", func(t *testing.T) {
		svc := mocks.NewMockBookingService()
		r := setupBookingRouter(svc)

		w := doJSON(t, r, http.MethodPost, "/api/v1/bookings", attendeeAuth(t),
			gin.H{"event_id": 3, "tickets": 0})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		svc.AssertNotCalled(t, "CreateBooking", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("missing token", func(t *testing.T) {
		r := setupBookingRouter(mocks.NewMockBookingService())

		w := doJSON(t, r, http.MethodPost, "/api/v1/bookings", "", gin.H{"event_id": 3, "tickets": 5})

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("organizer token lacks the booking capability", func(t *testing.T) {
		r := setupBookingRouter(mocks.NewMockBookingService())
		organizer := bearerFor(t, &model.User{ID: 5, Name: "Live Nation", Role: model.RoleOrganizer})

		w := doJSON(t, r, http.MethodPost, "/api/v1/bookings", organizer, gin.H{"event_id": 3, "tickets": 5})

		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestCancelBookingEndpoint(t *testing.T) {
	ownBooking := &model.BookingDetail{Booking: model.Booking{ID: 41, AttendeeID: 7}}

	t.Run("ok", func(t *testing.T) {
		svc := mocks.NewMockBookingService()
		r := setupBookingRouter(svc)

		svc.On("GetBooking", mock.Anything, 41).Return(ownBooking, nil)
		svc.On("CancelBooking", mock.Anything, 41).Return(nil)

		w := doJSON(t, r, http.MethodPut, "/api/v1/bookings/41/cancel", attendeeAuth(t), nil)

		assert.Equal(t, http.StatusOK, w.Code)
		svc.AssertExpectations(t)
	})

	t.Run("another attendee's booking is forbidden", func(t *testing.T) {
		svc := mocks.NewMockBookingService()
		r := setupBookingRouter(svc)

		svc.On("GetBooking", mock.Anything, 41).Return(ownBooking, nil)

		other := bearerFor(t, &model.User{ID: 99, Name: "Mallory", Role: model.RoleAttendee})
		w := doJSON(t, r, http.MethodPut, "/api/v1/bookings/41/cancel", other, nil)

		assert.Equal(t, http.StatusForbidden, w.Code)
		svc.AssertNotCalled(t, "CancelBooking", mock.Anything, mock.Anything)
	})

	t.Run("admin may cancel any booking", func(t *testing.T) {
		svc := mocks.NewMockBookingService()
		r := setupBookingRouter(svc)

		svc.On("GetBooking", mock.Anything, 41).Return(ownBooking, nil)
		svc.On("CancelBooking", mock.Anything, 41).Return(nil)

		admin := bearerFor(t, &model.User{ID: 1, Name: "Root", Role: model.RoleAdmin})
		w := doJSON(t, r, http.MethodPut, "/api/v1/bookings/41/cancel", admin, nil)

		assert.Equal(t, http.StatusOK, w.Code)
		svc.AssertExpectations(t)
	})

	t.Run("already cancelled maps to 400", func(t *testing.T) {
		svc := mocks.NewMockBookingService()
		r := setupBookingRouter(svc)

		svc.On("GetBooking", mock.Anything, 41).Return(ownBooking, nil)
		svc.On("CancelBooking", mock.Anything, 41).Return(apperrors.ErrBookingAlreadyCancelled)

		w := doJSON(t, r, http.MethodPut, "/api/v1/bookings/41/cancel", attendeeAuth(t), nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown booking maps to 404", func(t *testing.T) {
		svc := mocks.NewMockBookingService()
		r := setupBookingRouter(svc)

		svc.On("GetBooking", mock.Anything, 404).Return(nil, apperrors.ErrBookingNotFound)

		w := doJSON(t, r, http.MethodPut, "/api/v1/bookings/404/cancel", attendeeAuth(t), nil)

		assert.Equal(t, http.StatusNotFound, w.Code)
		svc.AssertNotCalled(t, "CancelBooking", mock.Anything, mock.Anything)
	})

	t.Run("non-numeric id", func(t *testing.T) {
		svc := mocks.NewMockBookingService()
		r := setupBookingRouter(svc)

		w := doJSON(t, r, http.MethodPut, "/api/v1/bookings/abc/cancel", attendeeAuth(t), nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		svc.AssertNotCalled(t, "CancelBooking", mock.Anything, mock.Anything)
	})
}

func TestListBookingsEndpoint(t *testing.T) {
	t.Run("attendee is scoped to their own bookings", func(t *testing.T) {
		svc := mocks.NewMockBookingService()
		r := setupBookingRouter(svc)

		svc.On("ListBookings", mock.Anything, mock.MatchedBy(func(id *int) bool {
			return id != nil && *id == 7
		})).Return([]*model.BookingDetail{
			{Booking: model.Booking{ID: 41, AttendeeID: 7}},
		}, nil)

		w := doJSON(t, r, http.MethodGet, "/api/v1/bookings", attendeeAuth(t), nil)

		require.Equal(t, http.StatusOK, w.Code)
		svc.AssertExpectations(t)
	})

	t.Run("admin sees everything", func(t *testing.T) {
		svc := mocks.NewMockBookingService()
		r := setupBookingRouter(svc)
		admin := bearerFor(t, &model.User{ID: 1, Name: "Root", Role: model.RoleAdmin})

		svc.On("ListBookings", mock.Anything, mock.MatchedBy(func(id *int) bool {
			return id == nil
		})).Return([]*model.BookingDetail{{}, {}}, nil)

		w := doJSON(t, r, http.MethodGet, "/api/v1/bookings", admin, nil)

		require.Equal(t, http.StatusOK, w.Code)
		svc.AssertExpectations(t)
	})
}

func TestGetBookingEndpoint(t *testing.T) {
	detail := &model.BookingDetail{
		Booking:   model.Booking{ID: 41, AttendeeID: 7, ConfirmationCode: "EVT-K9X2PQ"},
		EventName: "Go Conf",
	}

	t.Run("owner can read it", func(t *testing.T) {
		svc := mocks.NewMockBookingService()
		r := setupBookingRouter(svc)

		svc.On("GetBooking", mock.Anything, 41).Return(detail, nil)

		w := doJSON(t, r, http.MethodGet, "/api/v1/bookings/41", attendeeAuth(t), nil)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("someone else's booking is forbidden", func(t *testing.T) {
		svc := mocks.NewMockBookingService()
		r := setupBookingRouter(svc)
		other := bearerFor(t, &model.User{ID: 8, Name: "Bob", Role: model.RoleAttendee})

		svc.On("GetBooking", mock.Anything, 41).Return(detail, nil)

		w := doJSON(t, r, http.MethodGet, "/api/v1/bookings/41", other, nil)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("qr code renders a png of the confirmation code", func(t *testing.T) {
		svc := mocks.NewMockBookingService()
		r := setupBookingRouter(svc)

		svc.On("GetBooking", mock.Anything, 41).Return(detail, nil)

		w := doJSON(t, r, http.MethodGet, "/api/v1/bookings/41/qrcode", attendeeAuth(t), nil)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
		assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("\x89PNG")))
	})
}
