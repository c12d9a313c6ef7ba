package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Canonical role names. Roles are always stored in canonical form:
// upper-case with the ROLE_ prefix.
const (
	RoleUser  = "ROLE_USER"
	RoleAdmin = "ROLE_ADMIN"

	rolePrefix = "ROLE_"
)

// User represents a registered user. PasswordHash is a bcrypt hash and
// must never appear in API responses or log output.
type User struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Roles        []string  `json:"roles" db:"roles"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// TableName returns the table name for the User model
func (User) TableName() string {
	return "users"
}

// NewUser creates a new User with canonicalized roles. An empty role list
// yields exactly one default role, ROLE_USER.
func NewUser(name, email, passwordHash string, roles []string) *User {
	now := time.Now().UTC()
	return &User{
		ID:           uuid.New(),
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		Roles:        CanonicalRoles(roles),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// CanonicalRole normalizes a raw role string to its canonical form:
// upper-cased and prefixed with ROLE_. The operation is idempotent.
func CanonicalRole(role string) string {
	upper := strings.ToUpper(strings.TrimSpace(role))
	if strings.HasPrefix(upper, rolePrefix) {
		return upper
	}
	return rolePrefix + upper
}

// CanonicalRoles normalizes every role in the list, dropping empties and
// duplicates. An empty or nil input yields the default role set {ROLE_USER}.
func CanonicalRoles(roles []string) []string {
	out := make([]string, 0, len(roles))
	seen := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		if strings.TrimSpace(r) == "" {
			continue
		}
		canonical := CanonicalRole(r)
		if _, ok := seen[canonical]; ok {
			continue
		}
		seen[canonical] = struct{}{}
		out = append(out, canonical)
	}
	if len(out) == 0 {
		return []string{RoleUser}
	}
	return out
}

// HasRole reports whether the user holds the given canonical role
func (u *User) HasRole(role string) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// IsAdmin returns true if the user has the admin role
func (u *User) IsAdmin() bool {
	return u.HasRole(RoleAdmin)
}
