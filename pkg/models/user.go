package models

import (
	"time"

	"github.com/uptrace/bun"
)

// User roles.
const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID           int       `bun:",pk,nullzero" json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	Username     string    `bun:",nullzero" json:"username"`
	Email        string    `bun:",nullzero" json:"email"`
	PasswordHash string    `json:"-"` // Never expose password hash
	Role         string    `bun:",nullzero" json:"role"`
	IsActive     bool      `json:"is_active"`
}

// IsAdmin is the single capability check used by every operation that
// branches on administrator privileges.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
