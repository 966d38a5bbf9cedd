package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"user-hub/internal/auth"
	"user-hub/internal/domain"
	"user-hub/internal/repository"
)

var (
	// ErrEmailTaken is returned when registering or changing to an email that already exists.
	ErrEmailTaken = errors.New("email already registered")
	// ErrInvalidEmail indicates the address fails basic format validation.
	ErrInvalidEmail = errors.New("invalid email address")
	// ErrFullNameRequired indicates a registration without a display name.
	ErrFullNameRequired = errors.New("full name is required")
	// ErrInvalidCredentials is returned for both unknown email and wrong
	// password, so responses cannot be used to enumerate accounts.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrAccountDeactivated is returned when an inactive account attempts to log in.
	ErrAccountDeactivated = errors.New("account is deactivated")
	// ErrUserNotFound is returned when the target user does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidStatus indicates a status value outside {active, inactive}.
	ErrInvalidStatus = errors.New("invalid status value")
)

// pageSize is the fixed number of users per admin listing page.
const pageSize = 10

// ProfileUpdate carries the optional fields of a self-service profile change.
// Nil fields are left untouched.
type ProfileUpdate struct {
	FullName *string
	Email    *string
	Password *string
}

// UserPage is one page of the administrative user listing.
type UserPage struct {
	Users []domain.PublicUser `json:"users"`
	Page  int                 `json:"page"`
	Pages int                 `json:"pages"`
	Total int64               `json:"total"`
}

// UserService describes account lifecycle and administration operations.
type UserService interface {
	Register(ctx context.Context, fullName, email, password string) (*domain.PublicUser, string, error)
	Login(ctx context.Context, email, password string) (*domain.PublicUser, string, error)
	GetByID(ctx context.Context, id string) (*domain.PublicUser, error)
	UpdateProfile(ctx context.Context, callerID string, update ProfileUpdate) (*domain.PublicUser, error)
	ListUsers(ctx context.Context, page int) (*UserPage, error)
	UpdateStatus(ctx context.Context, id string, status domain.Status) (domain.Status, error)
}

type userService struct {
	users  repository.UserRepository
	hasher *auth.PasswordHasher
	tokens *auth.TokenService
}

func NewUserService(users repository.UserRepository, hasher *auth.PasswordHasher, tokens *auth.TokenService) UserService {
	return &userService{
		users:  users,
		hasher: hasher,
		tokens: tokens,
	}
}

// roleForCount is the first-admin bootstrap policy: the first account in an
// empty store gets the admin role, everyone after gets user. The count is read
// before the insert, so two truly simultaneous first registrations could both
// observe zero; the store's single-writer connection keeps that window shut in
// practice.
func roleForCount(count int64) domain.Role {
	if count == 0 {
		return domain.RoleAdmin
	}
	return domain.RoleUser
}

func (s *userService) Register(ctx context.Context, fullName, email, password string) (*domain.PublicUser, string, error) {
	fullName = strings.TrimSpace(fullName)
	email = domain.NormalizeEmail(email)

	if fullName == "" {
		return nil, "", ErrFullNameRequired
	}
	if !domain.ValidEmail(email) {
		return nil, "", ErrInvalidEmail
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, "", ErrEmailTaken
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, "", err
	}

	count, err := s.users.Count(ctx)
	if err != nil {
		return nil, "", err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, "", err
	}

	user := &domain.User{
		ID:           uuid.NewString(),
		FullName:     fullName,
		Email:        email,
		PasswordHash: hash,
		Role:         roleForCount(count),
		Status:       domain.StatusActive,
	}

	if err := s.users.Create(ctx, user); err != nil {
		// unique constraint backstop for a concurrent registration
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, "", ErrEmailTaken
		}
		return nil, "", err
	}

	token, err := s.tokens.Issue(user.ID, user.Role)
	if err != nil {
		return nil, "", err
	}

	public := user.Public()
	return &public, token, nil
}

func (s *userService) Login(ctx context.Context, email, password string) (*domain.PublicUser, string, error) {
	email = domain.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, "", ErrInvalidCredentials
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}

	// status gating comes before the password check
	if user.Status == domain.StatusInactive {
		return nil, "", ErrAccountDeactivated
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, "", ErrInvalidCredentials
	}

	now := time.Now().UTC()
	if err := s.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		return nil, "", fmt.Errorf("record last login: %w", err)
	}
	user.LastLogin = &now

	token, err := s.tokens.Issue(user.ID, user.Role)
	if err != nil {
		return nil, "", err
	}

	public := user.Public()
	return &public, token, nil
}

func (s *userService) GetByID(ctx context.Context, id string) (*domain.PublicUser, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	public := user.Public()
	return &public, nil
}

func (s *userService) UpdateProfile(ctx context.Context, callerID string, update ProfileUpdate) (*domain.PublicUser, error) {
	user, err := s.users.GetByID(ctx, callerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if update.FullName != nil {
		name := strings.TrimSpace(*update.FullName)
		if name == "" {
			return nil, ErrFullNameRequired
		}
		user.FullName = name
	}

	if update.Email != nil {
		email := domain.NormalizeEmail(*update.Email)
		if !domain.ValidEmail(email) {
			return nil, ErrInvalidEmail
		}
		if email != user.Email {
			if _, err := s.users.GetByEmail(ctx, email); err == nil {
				return nil, ErrEmailTaken
			} else if !errors.Is(err, repository.ErrNotFound) {
				return nil, err
			}
			user.Email = email
		}
	}

	if update.Password != nil {
		hash, err := s.hasher.Hash(*update.Password)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
	}

	if err := s.users.Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	public := user.Public()
	return &public, nil
}

func (s *userService) ListUsers(ctx context.Context, page int) (*UserPage, error) {
	if page < 1 {
		page = 1
	}

	total, err := s.users.Count(ctx)
	if err != nil {
		return nil, err
	}

	users, err := s.users.List(ctx, pageSize*(page-1), pageSize)
	if err != nil {
		return nil, err
	}

	public := make([]domain.PublicUser, len(users))
	for i := range users {
		public[i] = users[i].Public()
	}

	pages := int((total + pageSize - 1) / pageSize)

	return &UserPage{
		Users: public,
		Page:  page,
		Pages: pages,
		Total: total,
	}, nil
}

func (s *userService) UpdateStatus(ctx context.Context, id string, status domain.Status) (domain.Status, error) {
	if !domain.ValidStatus(status) {
		return "", ErrInvalidStatus
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrUserNotFound
		}
		return "", err
	}

	user.Status = status
	if err := s.users.Update(ctx, user); err != nil {
		return "", err
	}
	return user.Status, nil
}
