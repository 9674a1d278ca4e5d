// AngelaMos | 2026
// entity.go

package user

import (
	"strings"
	"time"
)

type User struct {
	ID                 string     `db:"id"`
	Email              string     `db:"email"`
	PasswordHash       string     `db:"password_hash"`
	Name               string     `db:"name"`
	Role               string     `db:"role"`
	ResetCodeHash      *string    `db:"reset_code_hash"`
	ResetCodeExpiresAt *time.Time `db:"reset_code_expires_at"`
	ResetCodeAttempts  int        `db:"reset_code_attempts"`
	CreatedAt          time.Time  `db:"created_at"`
	UpdatedAt          time.Time  `db:"updated_at"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// HasPendingReset reports whether a reset code is currently stored. The
// schema guarantees hash and expiry are set together.
func (u *User) HasPendingReset() bool {
	return u.ResetCodeHash != nil && u.ResetCodeExpiresAt != nil
}

const (
	RoleStudent = "student"
	RoleAdmin   = "admin"
)

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
