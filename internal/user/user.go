package user

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Role decides what a user may do. Every account starts as RoleStudent;
// promotion to RoleAdmin is done directly in the database.
type Role string

const (
	RoleStudent Role = "student"
	RoleAdmin   Role = "admin"
)

var (
	ErrNotFound           = errors.New("user not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalid            = errors.New("invalid registration")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

type User struct {
	ID           uuid.UUID
	Email        string
	Role         Role
	PasswordHash string
	CreatedAt    time.Time
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
