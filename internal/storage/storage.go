package storage

import (
	"context"
	"errors"
	"strings"

	"github.com/yourusername/auth-starter/internal/models"
)

// ErrNotFound indicates a record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrDuplicateEmail indicates an email uniqueness conflict.
var ErrDuplicateEmail = errors.New("email already registered")

// UserStore captures persistence operations needed by handlers. Default reads
// exclude the password hash; login calls FindByEmailWithHash explicitly.
type UserStore interface {
	Create(ctx context.Context, user models.User) (models.User, error)
	FindByEmail(ctx context.Context, email string) (models.User, error)
	FindByEmailWithHash(ctx context.Context, email string) (models.User, error)
	FindByID(ctx context.Context, id string) (models.User, error)
}

// NormalizeEmail lowercases and trims an address so "ADA@EXAMPLE.com " and
// "ada@example.com" resolve to the same user. Applied at write time and on
// every lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
