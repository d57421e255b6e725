package service

import (
	"context"
	"fmt"
	"time"

	"github.com/apporbit/apporbit-server/internal/domain"
	"github.com/apporbit/apporbit-server/internal/repo/postgres"
	"github.com/apporbit/apporbit-server/pkg/events"
	"github.com/apporbit/apporbit-server/pkg/logger"
)

type UserService interface {
	// Register is idempotent: re-registering an email is a no-op and
	// returns the existing user with created=false.
	Register(ctx context.Context, req *domain.UserCreate) (*domain.User, bool, error)
	List(ctx context.Context, limit, offset int) ([]domain.User, error)
	Get(ctx context.Context, email string) (*domain.User, error)
	// Role resolves a user's role, defaulting to "user" for unknown emails.
	Role(ctx context.Context, email string) (domain.Role, error)
	SetRole(ctx context.Context, id int64, role domain.Role) error
	Subscribe(ctx context.Context, email string) error
}

type userService struct {
	users postgres.UserRepository
	bus   events.Publisher
}

func NewUserService(users postgres.UserRepository, bus events.Publisher) UserService {
	return &userService{users: users, bus: bus}
}

func (s *userService) Register(ctx context.Context, req *domain.UserCreate) (*domain.User, bool, error) {
	user, created, err := s.users.Upsert(ctx, req)
	if err != nil {
		return nil, false, fmt.Errorf("failed to register user: %w", err)
	}

	if created {
		event := events.UserRegisteredEvent{
			Email:        user.Email,
			Name:         user.Name,
			RegisteredAt: time.Now(),
		}
		if err := s.bus.Publish(ctx, events.UserRegistered, event); err != nil {
			logger.ErrorContext(ctx, "Failed to publish user registered event", "error", err, "email", user.Email)
		}
	}

	return user, created, nil
}

func (s *userService) List(ctx context.Context, limit, offset int) ([]domain.User, error) {
	return s.users.List(ctx, limit, offset)
}

func (s *userService) Get(ctx context.Context, email string) (*domain.User, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrNotFound
	}
	return user, nil
}

func (s *userService) Role(ctx context.Context, email string) (domain.Role, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if user == nil || user.Role == "" {
		return domain.RoleUser, nil
	}
	return user.Role, nil
}

func (s *userService) SetRole(ctx context.Context, id int64, role domain.Role) error {
	updated, err := s.users.SetRole(ctx, id, role)
	if err != nil {
		return fmt.Errorf("failed to set role: %w", err)
	}
	if !updated {
		return domain.ErrNotFound
	}
	return nil
}

func (s *userService) Subscribe(ctx context.Context, email string) error {
	updated, err := s.users.SetSubscribed(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to subscribe user: %w", err)
	}
	if !updated {
		return domain.ErrNotFound
	}
	return nil
}
