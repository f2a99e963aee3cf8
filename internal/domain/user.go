package domain

import (
	"context"
	"strings"
	"time"
)

// Role is the coarse permission level of a user.
type Role string

const (
	RoleBuyer Role = "buyer"
	RoleAgent Role = "agent"
	RoleAdmin Role = "admin"
)

// ParseRole normalizes a role name. "owner" is accepted as an alias for agent.
func ParseRole(s string) (Role, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "buyer":
		return RoleBuyer, true
	case "agent", "owner":
		return RoleAgent, true
	case "admin":
		return RoleAdmin, true
	}
	return "", false
}

// User represents a registered user of the application.
type User struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Identity is the authenticated caller resolved from a bearer token.
type Identity struct {
	ID   string
	Role Role
}

// Identity returns the caller identity for this user.
func (u *User) Identity() Identity {
	return Identity{ID: u.ID, Role: u.Role}
}

// UserRepository defines persistence operations for users.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	// Update persists name, email, role and password hash.
	Update(ctx context.Context, user *User) error
}
