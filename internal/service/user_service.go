package service

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/souta-ok/storesync/internal/domain"
	"github.com/souta-ok/storesync/internal/repository"
	"github.com/souta-ok/storesync/pkg/errors"
)

type userService struct {
	repos      *repository.Repositories
	bcryptCost int
	logger     *zap.Logger
}

// NewUserService creates a new user service
func NewUserService(repos *repository.Repositories, bcryptCost int, logger *zap.Logger) *userService {
	if bcryptCost <= 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &userService{
		repos:      repos,
		bcryptCost: bcryptCost,
		logger:     logger,
	}
}

// CreateUserWithPassword hashes the raw password and persists the user.
// Hashing happens here, explicitly, not in a persistence-layer hook.
func (s *userService) CreateUserWithPassword(ctx context.Context, email, rawPassword, name string) (*domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	fields := map[string]string{}
	if email == "" {
		fields["email"] = "required"
	}
	if len(rawPassword) < 8 {
		fields["password"] = "must be at least 8 characters"
	}
	if len(fields) > 0 {
		return nil, &errors.ErrValidation{Message: "invalid user input", Fields: fields}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(rawPassword), s.bcryptCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Email:        email,
		PasswordHash: string(hash),
		Name:         strings.TrimSpace(name),
		Provider:     "local",
	}
	if err := s.repos.User.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("User created", zap.String("user_id", user.ID.String()), zap.String("email", user.Email))
	return user, nil
}

// Authenticate verifies email+password and returns the matching user
func (s *userService) Authenticate(ctx context.Context, email, rawPassword string) (*domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.repos.User.GetByEmail(ctx, email)
	if err != nil {
		if _, isNotFound := err.(*errors.ErrNotFound); isNotFound {
			return nil, &errors.ErrUnauthorized{Message: "invalid email or password"}
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(rawPassword)) != nil {
		return nil, &errors.ErrUnauthorized{Message: "invalid email or password"}
	}
	return user, nil
}
