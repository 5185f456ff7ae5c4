package auth

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/tabungan/internal/user"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrRevoked      = errors.New("token revoked")
)

// Identity is who a verified token speaks for.
type Identity struct {
	UserID    uuid.UUID
	Email     string
	Role      user.Role
	TokenID   string
	ExpiresAt time.Time
}

func (i *Identity) IsAdmin() bool {
	return i.Role == user.RoleAdmin
}

type Session struct {
	Token    string
	Identity Identity
}

// SessionEvent reports a sign-in or sign-out. Identity is nil after sign-out.
type SessionEvent struct {
	Identity *Identity
}
