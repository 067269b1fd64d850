package handler

import (
	"encoding/csv"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"go-event-ticketing/internal/auth"
	"go-event-ticketing/internal/middleware"
	"go-event-ticketing/internal/model"
	"go-event-ticketing/internal/service"
	apperrors "go-event-ticketing/pkg/app_errors"
	"go-event-ticketing/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type EventHandler struct {
	service        service.EventService
	bookingService service.BookingService
	tokens         *auth.TokenManager
}

func NewEventHandler(service service.EventService, bookingService service.BookingService, tokens *auth.TokenManager) *EventHandler {
	return &EventHandler{service: service, bookingService: bookingService, tokens: tokens}
}

func (h *EventHandler) RegisterRoutes(r *gin.Engine) {
	public := r.Group("/api/v1")
	{
		public.GET("events", h.List)
		public.GET("events/categories", h.ListCategories)
		public.GET("events/organizers", h.ListOrganizers)
		public.GET("events/:id", h.GetByID)
		public.GET("events/:id/availability", h.GetAvailability)
	}

	manage := r.Group("/api/v1")
	manage.Use(middleware.Authenticate(h.tokens), middleware.RequireCapability(auth.CapManageEvents))
	{
		manage.POST("events", h.Create)
		manage.PUT("events/:id", h.Update)
		manage.DELETE("events/:id", h.Delete)
		manage.GET("events/organizer/:organizerId", h.ListByOrganizer)
		manage.GET("events/:id/bookings", h.ListEventBookings)
		manage.GET("events/:id/attendees.csv", h.ExportAttendees)
	}
}

// CreateEventRequest is the organizer event-creation payload.
type CreateEventRequest struct {
	Name         string             `json:"name" binding:"required"`
	Description  *string            `json:"description"`
	Venue        string             `json:"venue" binding:"required"`
	VenueAddress *string            `json:"venue_address"`
	DateTime     time.Time          `json:"date_time" binding:"required"`
	EndDateTime  *time.Time         `json:"end_date_time"`
	CategoryID   *int               `json:"category_id"`
	Capacity     int                `json:"capacity" binding:"required,min=1"`
	TicketPrice  float64            `json:"ticket_price" binding:"min=0"`
	ImageURL     *string            `json:"image_url"`
	Status       *model.EventStatus `json:"status"`
	IsPrivate    bool               `json:"is_private"`
}

// UpdateEventRequest carries partial updates; absent fields keep their
// stored values.
type UpdateEventRequest struct {
	Name         *string            `json:"name"`
	Description  *string            `json:"description"`
	Venue        *string            `json:"venue"`
	VenueAddress *string            `json:"venue_address"`
	DateTime     *time.Time         `json:"date_time"`
	EndDateTime  *time.Time         `json:"end_date_time"`
	CategoryID   *int               `json:"category_id"`
	Capacity     *int               `json:"capacity"`
	TicketPrice  *float64           `json:"ticket_price"`
	ImageURL     *string            `json:"image_url"`
	Status       *model.EventStatus `json:"status"`
	IsPrivate    *bool              `json:"is_private"`
}

// ListEventsQuery is the public catalog filter, bound from the query
// string.
type ListEventsQuery struct {
	Category       *int    `form:"category"`
	Organizer      *int    `form:"organizer"`
	Search         *string `form:"search"`
	IncludePrivate bool    `form:"include_private"`
}

func (h *EventHandler) List(c *gin.Context) {
	var q ListEventsQuery
	if err := BindQuery(c, &q); err != nil {
		return
	}

	filter := model.EventFilter{
		CategoryID:     q.Category,
		OrganizerID:    q.Organizer,
		Search:         q.Search,
		IncludePrivate: q.IncludePrivate,
	}

	events, err := h.service.List(c, filter)
	if err != nil {
		h.handleError(c, err, "List")
		return
	}
	c.JSON(http.StatusOK, events)
}

func (h *EventHandler) ListCategories(c *gin.Context) {
	categories, err := h.service.ListCategories(c)
	if err != nil {
		h.handleError(c, err, "ListCategories")
		return
	}
	c.JSON(http.StatusOK, categories)
}

func (h *EventHandler) ListOrganizers(c *gin.Context) {
	organizers, err := h.service.ListOrganizers(c)
	if err != nil {
		h.handleError(c, err, "ListOrganizers")
		return
	}
	c.JSON(http.StatusOK, organizers)
}

func (h *EventHandler) GetByID(c *gin.Context) {
	id, ok := PathID(c, "id")
	if !ok {
		return
	}

	event, err := h.service.GetByID(c, id)
	if err != nil {
		h.handleError(c, err, "GetByID")
		return
	}
	c.JSON(http.StatusOK, event)
}

func (h *EventHandler) GetAvailability(c *gin.Context) {
	id, ok := PathID(c, "id")
	if !ok {
		return
	}

	availability, err := h.service.GetAvailability(c, id)
	if err != nil {
		h.handleError(c, err, "GetAvailability")
		return
	}
	c.JSON(http.StatusOK, availability)
}

func (h *EventHandler) Create(c *gin.Context) {
	var req CreateEventRequest
	if err := BindJson(c, &req); err != nil {
		return
	}

	event := &model.Event{
		Name:         req.Name,
		Description:  req.Description,
		Venue:        req.Venue,
		VenueAddress: req.VenueAddress,
		DateTime:     req.DateTime,
		EndDateTime:  req.EndDateTime,
		CategoryID:   req.CategoryID,
		Capacity:     req.Capacity,
		TicketPrice:  req.TicketPrice,
		ImageURL:     req.ImageURL,
		IsPrivate:    req.IsPrivate,
	}
	if req.Status != nil {
		event.Status = *req.Status
	}

	claims := middleware.ClaimsFrom(c)
	created, err := h.service.Create(c, claims.UserID, event)
	if err != nil {
		h.handleError(c, err, "Create")
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *EventHandler) Update(c *gin.Context) {
	id, ok := PathID(c, "id")
	if !ok {
		return
	}

	var req UpdateEventRequest
	if err := BindJson(c, &req); err != nil {
		return
	}

	params := model.UpdateEventParams{
		Name:         req.Name,
		Description:  req.Description,
		Venue:        req.Venue,
		VenueAddress: req.VenueAddress,
		DateTime:     req.DateTime,
		EndDateTime:  req.EndDateTime,
		CategoryID:   req.CategoryID,
		Capacity:     req.Capacity,
		TicketPrice:  req.TicketPrice,
		ImageURL:     req.ImageURL,
		Status:       req.Status,
		IsPrivate:    req.IsPrivate,
	}

	updated, err := h.service.Update(c, id, h.ownerID(c), params)
	if err != nil {
		h.handleError(c, err, "Update")
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *EventHandler) Delete(c *gin.Context) {
	id, ok := PathID(c, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(c, id, h.ownerID(c)); err != nil {
		h.handleError(c, err, "Delete")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Event deleted successfully"})
}

func (h *EventHandler) ListByOrganizer(c *gin.Context) {
	organizerID, ok := PathID(c, "organizerId")
	if !ok {
		return
	}

	claims := middleware.ClaimsFrom(c)
	if claims.Role != model.RoleAdmin && claims.UserID != organizerID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
		return
	}

	events, err := h.service.ListByOrganizer(c, organizerID)
	if err != nil {
		h.handleError(c, err, "ListByOrganizer")
		return
	}
	c.JSON(http.StatusOK, events)
}

func (h *EventHandler) ListEventBookings(c *gin.Context) {
	id, ok := PathID(c, "id")
	if !ok {
		return
	}

	if !h.authorizeEventAccess(c, id) {
		return
	}

	bookings, err := h.bookingService.ListEventBookings(c, id)
	if err != nil {
		h.handleError(c, err, "ListEventBookings")
		return
	}
	c.JSON(http.StatusOK, bookings)
}

// ExportAttendees streams the event's attendee list as CSV.
func (h *EventHandler) ExportAttendees(c *gin.Context) {
	id, ok := PathID(c, "id")
	if !ok {
		return
	}

	if !h.authorizeEventAccess(c, id) {
		return
	}

	bookings, err := h.bookingService.ListEventBookings(c, id)
	if err != nil {
		h.handleError(c, err, "ExportAttendees")
		return
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="event-%d-attendees.csv"`, id))

	w := csv.NewWriter(c.Writer)
	_ = w.Write([]string{"attendee_name", "attendee_email", "tickets", "total_price", "status", "confirmation_code", "booking_time"})
	for _, b := range bookings {
		_ = w.Write([]string{
			b.AttendeeName,
			b.AttendeeEmail,
			strconv.Itoa(b.TicketsBooked),
			fmt.Sprintf("%.2f", b.TotalPrice),
			string(b.Status),
			b.ConfirmationCode,
			b.BookingTime.UTC().Format(time.RFC3339),
		})
	}
	w.Flush()
}

// ownerID is the organizer scope for ownership checks; 0 means admin, which
// skips the check in the service.
func (h *EventHandler) ownerID(c *gin.Context) int {
	claims := middleware.ClaimsFrom(c)
	if claims.Role == model.RoleAdmin {
		return 0
	}
	return claims.UserID
}

// authorizeEventAccess verifies the caller organizes the event (or is an
// admin) before exposing its attendee data.
func (h *EventHandler) authorizeEventAccess(c *gin.Context, eventID int) bool {
	claims := middleware.ClaimsFrom(c)
	if claims.Role == model.RoleAdmin {
		return true
	}

	event, err := h.service.GetByID(c, eventID)
	if err != nil {
		h.handleError(c, err, "authorizeEventAccess")
		return false
	}
	if event.OrganizerID != claims.UserID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
		return false
	}
	return true
}

func (h *EventHandler) handleError(c *gin.Context, err error, operation string) {
	log := logger.WithComponent("handler").With(zap.String("operation", operation), zap.Error(err))
	switch {
	case errors.Is(err, apperrors.ErrEventNotFound):
		log.Warn("Event not found")
		c.JSON(http.StatusNotFound, gin.H{"error": "Event not found"})
	case errors.Is(err, apperrors.ErrForbidden):
		log.Warn("Forbidden")
		c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
	case errors.Is(err, apperrors.ErrInvalidInput):
		log.Warn("Invalid input")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
	default:
		log.Error("Unexpected error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
