package handler

import (
	"encoding/json"
	"net/http"
	"testing"

	"go-event-ticketing/internal/model"
	"go-event-ticketing/internal/service/mocks"
	apperrors "go-event-ticketing/pkg/app_errors"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func setupUserRouter(svc *mocks.MockUserService) *gin.Engine {
	r := gin.New()
	NewUserHandler(svc, testTokens).RegisterRoutes(r)
	return r
}

func TestRegisterEndpoint(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		svc := mocks.NewMockUserService()
		r := setupUserRouter(svc)

		svc.On("Register", mock.Anything, mock.Anything).
			Return(&model.User{ID: 7, Name: "Amy Chen", Email: "amy@example.com", Role: model.RoleAttendee}, nil)

		w := doJSON(t, r, http.MethodPost, "/api/v1/users/register", "",
			gin.H{"name": "Amy Chen", "email": "amy@example.com", "password": "s3cret-pass"})

		require.Equal(t, http.StatusCreated, w.Code)
		// the password hash must never serialize
		assert.NotContains(t, w.Body.String(), "password")
	})

	t.Run("duplicate email maps to 400", func(t *testing.T) {
		svc := mocks.NewMockUserService()
		r := setupUserRouter(svc)

		svc.On("Register", mock.Anything, mock.Anything).Return(nil, apperrors.ErrEmailTaken)

		w := doJSON(t, r, http.MethodPost, "/api/v1/users/register", "",
			gin.H{"name": "Amy Chen", "email": "amy@example.com", "password": "s3cret-pass"})

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("short password fails validation before the service", func(t *testing.T) {
		svc := mocks.NewMockUserService()
		r := setupUserRouter(svc)

		w := doJSON(t, r, http.MethodPost, "/api/v1/users/register", "",
			gin.H{"name": "Amy Chen", "email": "amy@example.com", "password": "pw"})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		svc.AssertNotCalled(t, "Register", mock.Anything, mock.Anything)
	})
}

func TestLoginEndpoint(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		svc := mocks.NewMockUserService()
		r := setupUserRouter(svc)

		svc.On("Login", mock.Anything, model.LoginRequest{Email: "amy@example.com", Password: "s3cret-pass"}).
			Return(&model.LoginResponse{
				Token: "signed-token",
				User:  &model.User{ID: 7, Name: "Amy Chen", Role: model.RoleAttendee},
			}, nil)

		w := doJSON(t, r, http.MethodPost, "/api/v1/users/login", "",
			gin.H{"email": "amy@example.com", "password": "s3cret-pass"})

		require.Equal(t, http.StatusOK, w.Code)
		var resp model.LoginResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "signed-token", resp.Token)
		assert.Equal(t, 7, resp.User.ID)
	})

	t.Run("bad credentials map to 401", func(t *testing.T) {
		svc := mocks.NewMockUserService()
		r := setupUserRouter(svc)

		svc.On("Login", mock.Anything, mock.Anything).Return(nil, apperrors.ErrInvalidCredentials)

		w := doJSON(t, r, http.MethodPost, "/api/v1/users/login", "",
			gin.H{"email": "amy@example.com", "password": "wrong"})

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestGetUserEndpoint(t *testing.T) {
	t.Run("own profile", func(t *testing.T) {
		svc := mocks.NewMockUserService()
		r := setupUserRouter(svc)

		svc.On("GetByID", mock.Anything, 7).
			Return(&model.User{ID: 7, Name: "Amy Chen", Email: "amy@example.com", Role: model.RoleAttendee}, nil)

		w := doJSON(t, r, http.MethodGet, "/api/v1/users/7", attendeeAuth(t), nil)

		require.Equal(t, http.StatusOK, w.Code)
		var user model.User
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &user))
		assert.Equal(t, "amy@example.com", user.Email)
	})

	t.Run("another user's profile is forbidden", func(t *testing.T) {
		svc := mocks.NewMockUserService()
		r := setupUserRouter(svc)

		w := doJSON(t, r, http.MethodGet, "/api/v1/users/9", attendeeAuth(t), nil)

		assert.Equal(t, http.StatusForbidden, w.Code)
		svc.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
	})

	t.Run("admin may read any profile", func(t *testing.T) {
		svc := mocks.NewMockUserService()
		r := setupUserRouter(svc)
		admin := bearerFor(t, &model.User{ID: 1, Name: "Root", Role: model.RoleAdmin})

		svc.On("GetByID", mock.Anything, 7).
			Return(&model.User{ID: 7, Name: "Amy Chen", Role: model.RoleAttendee}, nil)

		w := doJSON(t, r, http.MethodGet, "/api/v1/users/7", admin, nil)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("no token", func(t *testing.T) {
		svc := mocks.NewMockUserService()
		r := setupUserRouter(svc)

		w := doJSON(t, r, http.MethodGet, "/api/v1/users/7", "", nil)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestUpdateUserEndpoint(t *testing.T) {
	t.Run("own profile", func(t *testing.T) {
		svc := mocks.NewMockUserService()
		r := setupUserRouter(svc)

		svc.On("UpdateProfile", mock.Anything, 7, mock.MatchedBy(func(req model.UpdateProfileRequest) bool {
			return req.Name != nil && *req.Name == "Amy C. Chen" && req.Password == nil
		})).Return(&model.User{ID: 7, Name: "Amy C. Chen", Role: model.RoleAttendee}, nil)

		w := doJSON(t, r, http.MethodPut, "/api/v1/users/7", attendeeAuth(t),
			gin.H{"name": "Amy C. Chen"})

		require.Equal(t, http.StatusOK, w.Code)
		svc.AssertExpectations(t)
	})

	t.Run("another user's profile is forbidden", func(t *testing.T) {
		svc := mocks.NewMockUserService()
		r := setupUserRouter(svc)

		w := doJSON(t, r, http.MethodPut, "/api/v1/users/9", attendeeAuth(t),
			gin.H{"name": "Hijacked"})

		assert.Equal(t, http.StatusForbidden, w.Code)
		svc.AssertNotCalled(t, "UpdateProfile", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("email conflict maps to 400", func(t *testing.T) {
		svc := mocks.NewMockUserService()
		r := setupUserRouter(svc)

		svc.On("UpdateProfile", mock.Anything, 7, mock.Anything).Return(nil, apperrors.ErrEmailTaken)

		w := doJSON(t, r, http.MethodPut, "/api/v1/users/7", attendeeAuth(t),
			gin.H{"email": "bob@example.com"})

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("short password fails validation before the service", func(t *testing.T) {
		svc := mocks.NewMockUserService()
		r := setupUserRouter(svc)

		w := doJSON(t, r, http.MethodPut, "/api/v1/users/7", attendeeAuth(t),
			gin.H{"password": "pw"})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		svc.AssertNotCalled(t, "UpdateProfile", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestListUsersEndpoint(t *testing.T) {
	t.Run("admin only", func(t *testing.T) {
		svc := mocks.NewMockUserService()
		r := setupUserRouter(svc)
		admin := bearerFor(t, &model.User{ID: 1, Name: "Root", Role: model.RoleAdmin})

		svc.On("List", mock.Anything).Return([]*model.User{{ID: 1}, {ID: 7}}, nil)

		w := doJSON(t, r, http.MethodGet, "/api/v1/users", admin, nil)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("attendees are forbidden", func(t *testing.T) {
		svc := mocks.NewMockUserService()
		r := setupUserRouter(svc)

		w := doJSON(t, r, http.MethodGet, "/api/v1/users", attendeeAuth(t), nil)

		assert.Equal(t, http.StatusForbidden, w.Code)
		svc.AssertNotCalled(t, "List", mock.Anything)
	})
}
