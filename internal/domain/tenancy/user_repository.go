package tenancy

import (
	"context"

	"github.com/google/uuid"
)

// UserRepository defines persistence operations for users
type UserRepository interface {
	// FindByID finds a user by ID
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)

	// FindByEmail finds a user by email (case-insensitive)
	FindByEmail(ctx context.Context, email string) (*User, error)

	// EmailExists reports whether a user with the given email exists
	EmailExists(ctx context.Context, email string) (bool, error)

	// Save persists a user
	Save(ctx context.Context, user *User) error
}

// RoleRepository defines persistence operations for roles
type RoleRepository interface {
	// FindByID finds a role by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Role, error)

	// FindBySlug finds a role by its unique slug
	FindBySlug(ctx context.Context, slug string) (*Role, error)

	// Save persists a role
	Save(ctx context.Context, role *Role) error
}
