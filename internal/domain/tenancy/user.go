package tenancy

import (
	"strings"
	"time"

	"github.com/nexora/backend/internal/domain/shared"
)

// User is a platform account. A user provisioned from a purchase has no
// usable password and an unverified email until onboarding completes.
type User struct {
	shared.BaseEntity
	Name            string
	Email           string
	PasswordHash    *string
	EmailVerifiedAt *time.Time
}

// NewUser creates a user with a usable password hash.
func NewUser(name, email, passwordHash string) (*User, error) {
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	return &User{
		BaseEntity:   shared.NewBaseEntity(),
		Name:         name,
		Email:        strings.ToLower(email),
		PasswordHash: &passwordHash,
	}, nil
}

// NewProvisionedUser creates a user without a usable password; they must
// complete onboarding to set one. The name defaults to the email local part.
func NewProvisionedUser(email string) (*User, error) {
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	email = strings.ToLower(email)
	return &User{
		BaseEntity: shared.NewBaseEntity(),
		Name:       EmailLocalPart(email),
		Email:      email,
	}, nil
}

// HasUsablePassword reports whether the user can sign in with a password.
func (u *User) HasUsablePassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}

// EmailLocalPart returns the portion of an email address before the @.
func EmailLocalPart(email string) string {
	if at := strings.Index(email, "@"); at >= 0 {
		return email[:at]
	}
	return email
}

func validateEmail(email string) error {
	if email == "" || !strings.Contains(email, "@") {
		return shared.NewDomainError("INVALID_EMAIL", "Invalid email address")
	}
	return nil
}
