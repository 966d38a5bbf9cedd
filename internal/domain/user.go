package domain

import (
	"regexp"
	"strings"
	"time"
)

// Role determines what a user is allowed to do.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Status marks whether an account may authenticate.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// User represents an account of the system.
type User struct {
	ID           string
	FullName     string
	Email        string
	PasswordHash string
	Role         Role
	Status       Status
	LastLogin    *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// PublicUser is the subset of a user record that is safe to return to clients.
type PublicUser struct {
	ID        string     `json:"id"`
	FullName  string     `json:"fullName"`
	Email     string     `json:"email"`
	Role      Role       `json:"role"`
	Status    Status     `json:"status"`
	LastLogin *time.Time `json:"lastLogin,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

// Public strips the password hash from a user record.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:        u.ID,
		FullName:  u.FullName,
		Email:     u.Email,
		Role:      u.Role,
		Status:    u.Status,
		LastLogin: u.LastLogin,
		CreatedAt: u.CreatedAt,
	}
}

var emailPattern = regexp.MustCompile(`^\S+@\S+\.\S+$`)

// NormalizeEmail trims and lowercases an email address so lookups and the
// uniqueness constraint are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidEmail reports whether the given address matches a basic local@domain shape.
func ValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// ValidStatus reports whether s is one of the known account statuses.
func ValidStatus(s Status) bool {
	return s == StatusActive || s == StatusInactive
}
