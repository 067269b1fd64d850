package handler

import (
	"errors"
	"fmt"
	"net/http"

	"go-event-ticketing/internal/auth"
	"go-event-ticketing/internal/middleware"
	"go-event-ticketing/internal/model"
	"go-event-ticketing/internal/service"
	apperrors "go-event-ticketing/pkg/app_errors"
	"go-event-ticketing/pkg/logger"

	"github.com/gin-gonic/gin"
	qrcode "github.com/skip2/go-qrcode"
	"go.uber.org/zap"
)

type BookingHandler struct {
	service service.BookingService
	tokens  *auth.TokenManager
}

func NewBookingHandler(service service.BookingService, tokens *auth.TokenManager) *BookingHandler {
	return &BookingHandler{service: service, tokens: tokens}
}

func (h *BookingHandler) RegisterRoutes(r *gin.Engine) {
	router := r.Group("/api/v1")
	router.Use(middleware.Authenticate(h.tokens), middleware.RequireCapability(auth.CapBookTickets))
	{
		router.GET("bookings", h.ListBookings)
		router.GET("bookings/:id", h.GetBooking)
		router.GET("bookings/:id/qrcode", h.GetBookingQRCode)
		router.POST("bookings", h.CreateBooking)
		router.PUT("bookings/:id/cancel", h.CancelBooking)
	}
}

func (h *BookingHandler) CreateBooking(c *gin.Context) {
	var req model.CreateBookingRequest
	if err := BindJson(c, &req); err != nil {
		return
	}

	claims := middleware.ClaimsFrom(c)
	booking, err := h.service.CreateBooking(c, claims.UserID, req)
	if err != nil {
		h.handleBookingError(c, err, "CreateBooking")
		return
	}

	c.JSON(http.StatusCreated, booking)
}

func (h *BookingHandler) ListBookings(c *gin.Context) {
	claims := middleware.ClaimsFrom(c)

	// attendees only ever see their own bookings; admins see everything
	var attendeeID *int
	if claims.Role != model.RoleAdmin {
		attendeeID = &claims.UserID
	}

	bookings, err := h.service.ListBookings(c, attendeeID)
	if err != nil {
		h.handleBookingError(c, err, "ListBookings")
		return
	}

	c.JSON(http.StatusOK, bookings)
}

func (h *BookingHandler) GetBooking(c *gin.Context) {
	id, ok := PathID(c, "id")
	if !ok {
		return
	}

	booking, err := h.service.GetBooking(c, id)
	if err != nil {
		h.handleBookingError(c, err, "GetBooking")
		return
	}

	claims := middleware.ClaimsFrom(c)
	if claims.Role != model.RoleAdmin && booking.AttendeeID != claims.UserID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
		return
	}

	c.JSON(http.StatusOK, booking)
}

// GetBookingQRCode renders the confirmation code as a PNG for the ticket
// view.
func (h *BookingHandler) GetBookingQRCode(c *gin.Context) {
	id, ok := PathID(c, "id")
	if !ok {
		return
	}

	booking, err := h.service.GetBooking(c, id)
	if err != nil {
		h.handleBookingError(c, err, "GetBookingQRCode")
		return
	}

	claims := middleware.ClaimsFrom(c)
	if claims.Role != model.RoleAdmin && booking.AttendeeID != claims.UserID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
		return
	}

	png, err := qrcode.Encode(booking.ConfirmationCode, qrcode.Medium, 256)
	if err != nil {
		h.handleBookingError(c, err, "GetBookingQRCode")
		return
	}

	c.Data(http.StatusOK, "image/png", png)
}

func (h *BookingHandler) CancelBooking(c *gin.Context) {
	id, ok := PathID(c, "id")
	if !ok {
		return
	}

	booking, err := h.service.GetBooking(c, id)
	if err != nil {
		h.handleBookingError(c, err, "CancelBooking")
		return
	}

	claims := middleware.ClaimsFrom(c)
	if claims.Role != model.RoleAdmin && booking.AttendeeID != claims.UserID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
		return
	}

	err = h.service.CancelBooking(c, id)
	if err != nil {
		h.handleBookingError(c, err, "CancelBooking")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Booking cancelled successfully"})
}

// Helper functions

func (h *BookingHandler) handleBookingError(c *gin.Context, err error, operation string) {
	log := logger.WithComponent("handler").With(zap.String("operation", operation), zap.Error(err))

	var capErr *apperrors.CapacityError
	switch {
	case errors.As(err, &capErr):
		log.Warn("Capacity exceeded")
		c.JSON(http.StatusConflict, gin.H{
			"error":           fmt.Sprintf("Not enough seats available. Only %d seats left.", capErr.Available),
			"available_seats": capErr.Available,
		})
	case errors.Is(err, apperrors.ErrEventNotFound):
		log.Warn("Event not found")
		c.JSON(http.StatusNotFound, gin.H{"error": "Event not found"})
	case errors.Is(err, apperrors.ErrBookingNotFound):
		log.Warn("Booking not found")
		c.JSON(http.StatusNotFound, gin.H{"error": "Booking not found"})
	case errors.Is(err, apperrors.ErrUserNotFound):
		log.Warn("User not found")
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
	case errors.Is(err, apperrors.ErrBookingAlreadyCancelled):
		log.Warn("Booking already cancelled")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Booking already cancelled"})
	case errors.Is(err, apperrors.ErrInvalidInput):
		log.Warn("Invalid input")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid booking data"})
	default:
		log.Error("Unexpected error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
