package handler

import (
	"errors"
	"net/http"

	"go-event-ticketing/internal/auth"
	"go-event-ticketing/internal/middleware"
	"go-event-ticketing/internal/model"
	"go-event-ticketing/internal/service"
	apperrors "go-event-ticketing/pkg/app_errors"
	"go-event-ticketing/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type UserHandler struct {
	service service.UserService
	tokens  *auth.TokenManager
}

func NewUserHandler(service service.UserService, tokens *auth.TokenManager) *UserHandler {
	return &UserHandler{service: service, tokens: tokens}
}

func (h *UserHandler) RegisterRoutes(r *gin.Engine) {
	router := r.Group("/api/v1")
	{
		router.POST("users/register", h.Register)
		router.POST("users/login", h.Login)
	}

	profile := r.Group("/api/v1")
	profile.Use(middleware.Authenticate(h.tokens))
	{
		profile.GET("users/:id", h.GetByID)
		profile.PUT("users/:id", h.UpdateProfile)
	}

	admin := r.Group("/api/v1")
	admin.Use(middleware.Authenticate(h.tokens), middleware.RequireCapability(auth.CapViewAllUsers))
	{
		admin.GET("users", h.List)
	}
}

// authorizeProfileAccess restricts the profile endpoints to the account
// owner; admins may reach any profile.
func authorizeProfileAccess(c *gin.Context, id int) bool {
	claims := middleware.ClaimsFrom(c)
	if claims.Role != model.RoleAdmin && claims.UserID != id {
		c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
		return false
	}
	return true
}

func (h *UserHandler) Register(c *gin.Context) {
	var req model.RegisterRequest
	if err := BindJson(c, &req); err != nil {
		return
	}

	user, err := h.service.Register(c, req)
	if err != nil {
		h.handleError(c, err, "Register")
		return
	}

	c.JSON(http.StatusCreated, user)
}

func (h *UserHandler) Login(c *gin.Context) {
	var req model.LoginRequest
	if err := BindJson(c, &req); err != nil {
		return
	}

	resp, err := h.service.Login(c, req)
	if err != nil {
		h.handleError(c, err, "Login")
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *UserHandler) GetByID(c *gin.Context) {
	id, ok := PathID(c, "id")
	if !ok {
		return
	}
	if !authorizeProfileAccess(c, id) {
		return
	}

	user, err := h.service.GetByID(c, id)
	if err != nil {
		h.handleError(c, err, "GetByID")
		return
	}

	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) UpdateProfile(c *gin.Context) {
	id, ok := PathID(c, "id")
	if !ok {
		return
	}
	if !authorizeProfileAccess(c, id) {
		return
	}

	var req model.UpdateProfileRequest
	if err := BindJson(c, &req); err != nil {
		return
	}

	user, err := h.service.UpdateProfile(c, id, req)
	if err != nil {
		h.handleError(c, err, "UpdateProfile")
		return
	}

	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) List(c *gin.Context) {
	users, err := h.service.List(c)
	if err != nil {
		h.handleError(c, err, "List")
		return
	}

	c.JSON(http.StatusOK, users)
}

func (h *UserHandler) handleError(c *gin.Context, err error, operation string) {
	log := logger.WithComponent("handler").With(zap.String("operation", operation), zap.Error(err))
	switch {
	case errors.Is(err, apperrors.ErrEmailTaken):
		log.Warn("Email already registered")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email already registered"})
	case errors.Is(err, apperrors.ErrInvalidCredentials):
		log.Warn("Invalid credentials")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
	case errors.Is(err, apperrors.ErrUserNotFound):
		log.Warn("User not found")
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
	case errors.Is(err, apperrors.ErrInvalidInput):
		log.Warn("Invalid input")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
	default:
		log.Error("Unexpected error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
