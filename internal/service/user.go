package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/uppalapadu/watersafe/internal/model"
	"github.com/uppalapadu/watersafe/internal/repository"
)

// UserService handles participant registration and identity lookup.
type UserService struct {
	store repository.Store
	log   *zap.Logger
	newID func() string
}

// NewUserService constructs a UserService.
func NewUserService(store repository.Store, log *zap.Logger) *UserService {
	return &UserService{store: store, log: log, newID: newID}
}

// Register creates a participant account. Emails are unique regardless of case.
func (s *UserService) Register(ctx context.Context, req model.RegisterRequest) (model.User, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Village = strings.TrimSpace(req.Village)
	req.Phone = strings.TrimSpace(req.Phone)
	if err := req.Validate(); err != nil {
		return model.User{}, Validation(err)
	}

	user := model.User{
		ID:      s.newID(),
		Name:    req.Name,
		Email:   req.Email,
		Role:    model.RoleUser,
		Village: req.Village,
		Phone:   req.Phone,
	}
	return s.insert(ctx, user)
}

// CreateAdmin stores an administrator account. Used by seeding.
func (s *UserService) CreateAdmin(ctx context.Context, user model.User) (model.User, error) {
	user.Role = model.RoleAdmin
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	if user.ID == "" {
		user.ID = s.newID()
	}
	return s.insert(ctx, user)
}

func (s *UserService) insert(ctx context.Context, user model.User) (model.User, error) {
	if err := s.store.InsertUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return model.User{}, ErrEmailTaken
		}
		return model.User{}, Internal("register user", err)
	}
	s.log.Info("user registered", zap.String("user_id", user.ID), zap.String("role", string(user.Role)))
	return user, nil
}

// Login resolves a user by email, ignoring case.
func (s *UserService) Login(ctx context.Context, req model.LoginRequest) (model.User, error) {
	req.Email = strings.TrimSpace(req.Email)
	if err := req.Validate(); err != nil {
		return model.User{}, Validation(err)
	}
	user, err := s.store.FindUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.User{}, ErrUserNotFound
		}
		return model.User{}, Internal("login", err)
	}
	return user, nil
}

// GetUser returns a single user.
func (s *UserService) GetUser(ctx context.Context, id string) (model.User, error) {
	user, err := s.store.GetUser(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.User{}, ErrUserNotFound
		}
		return model.User{}, Internal("get user", err)
	}
	return user, nil
}
