package repository

import (
	"context"
	"errors"
	"time"

	"user-hub/internal/domain"
)

var (
	// ErrNotFound is returned when no user matches the given id or email.
	ErrNotFound = errors.New("user not found")
	// ErrDuplicateEmail is returned when a write would violate email uniqueness.
	ErrDuplicateEmail = errors.New("email already registered")
)

// UserRepository defines persistence operations for User entities.
type UserRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, user *domain.User) error
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	Count(ctx context.Context) (int64, error)
	// Update persists the mutable fields of an existing user. It stores the
	// password hash as given and never hashes; hashing happens exactly once,
	// upstream, when a plaintext password enters the system.
	Update(ctx context.Context, user *domain.User) error
	// UpdateLastLogin touches only the last_login column so a login never
	// rewrites credential or profile fields.
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error
	// List returns users ordered by creation time, newest first.
	List(ctx context.Context, offset, limit int) ([]domain.User, error)
}
