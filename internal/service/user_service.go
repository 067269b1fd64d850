package service

import (
	"context"
	"errors"

	"go-event-ticketing/internal/auth"
	"go-event-ticketing/internal/model"
	"go-event-ticketing/internal/repository"
	apperrors "go-event-ticketing/pkg/app_errors"
	"go-event-ticketing/pkg/logger"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const bcryptCost = 10

type UserService interface {
	Register(ctx context.Context, req model.RegisterRequest) (*model.User, error)
	Login(ctx context.Context, req model.LoginRequest) (*model.LoginResponse, error)
	List(ctx context.Context) ([]*model.User, error)
	GetByID(ctx context.Context, id int) (*model.User, error)
	UpdateProfile(ctx context.Context, id int, req model.UpdateProfileRequest) (*model.User, error)
}

type UserServiceImpl struct {
	repo   repository.UserRepository
	tokens *auth.TokenManager
}

func NewUserService(repo repository.UserRepository, tokens *auth.TokenManager) UserService {
	return &UserServiceImpl{
		repo:   repo,
		tokens: tokens,
	}
}

func (s *UserServiceImpl) Register(ctx context.Context, req model.RegisterRequest) (*model.User, error) {
	role := req.Role
	if role == "" {
		role = model.RoleAttendee
	}
	// admin accounts are provisioned out of band, never self-registered
	if role != model.RoleAttendee && role != model.RoleOrganizer {
		return nil, apperrors.ErrInvalidInput
	}

	_, err := s.repo.FindByEmail(ctx, req.Email)
	if err == nil {
		return nil, apperrors.ErrEmailTaken
	}
	if !errors.Is(err, apperrors.ErrUserNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         role,
		Phone:        req.Phone,
	}

	return s.repo.Create(ctx, user)
}

func (s *UserServiceImpl) Login(ctx context.Context, req model.LoginRequest) (*model.LoginResponse, error) {
	user, err := s.repo.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			// same signal as a wrong password, so the response does not
			// leak which emails are registered
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, err
	}

	if !user.IsActive {
		return nil, apperrors.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, apperrors.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}

	if err := s.repo.UpdateLastLogin(ctx, user.ID); err != nil {
		logger.WithComponent("service").Warn("update last_login failed", zap.Int("user_id", user.ID), zap.Error(err))
	}

	return &model.LoginResponse{
		Token: token,
		User:  user,
	}, nil
}

func (s *UserServiceImpl) List(ctx context.Context) ([]*model.User, error) {
	return s.repo.List(ctx)
}

func (s *UserServiceImpl) GetByID(ctx context.Context, id int) (*model.User, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *UserServiceImpl) UpdateProfile(ctx context.Context, id int, req model.UpdateProfileRequest) (*model.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	params := model.UpdateUserParams{
		Name:  req.Name,
		Phone: req.Phone,
	}

	if req.Email != nil && *req.Email != user.Email {
		existing, err := s.repo.FindByEmail(ctx, *req.Email)
		if err == nil && existing.ID != id {
			return nil, apperrors.ErrEmailTaken
		}
		if err != nil && !errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, err
		}
		params.Email = req.Email
	}

	if req.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcryptCost)
		if err != nil {
			return nil, err
		}
		hashed := string(hash)
		params.PasswordHash = &hashed
	}

	return s.repo.Update(ctx, id, params)
}
