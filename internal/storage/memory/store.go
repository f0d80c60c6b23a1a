package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/auth-starter/internal/models"
	"github.com/yourusername/auth-starter/internal/storage"
)

// Ensure Store satisfies the storage.UserStore interface at compile time.
var _ storage.UserStore = (*Store)(nil)

// Store keeps users in process memory. Data is lost on restart; it exists so
// the server runs without a database.
type Store struct {
	mu      sync.RWMutex
	byEmail map[string]models.User
	byID    map[string]models.User
}

// NewUserStore creates an empty in-memory store.
func NewUserStore() *Store {
	return &Store{
		byEmail: make(map[string]models.User),
		byID:    make(map[string]models.User),
	}
}

// Create inserts a new user, assigning an ID and timestamps. The caller is
// expected to have hashed the password already.
func (s *Store) Create(_ context.Context, user models.User) (models.User, error) {
	user.Email = storage.NormalizeEmail(user.Email)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byEmail[user.Email]; exists {
		return models.User{}, storage.ErrDuplicateEmail
	}

	now := time.Now().UTC()
	user.ID = uuid.NewString()
	user.CreatedAt = now
	user.UpdatedAt = now

	s.byEmail[user.Email] = user
	s.byID[user.ID] = user

	return user.WithoutHash(), nil
}

// FindByEmail fetches a user by email with the password hash stripped.
func (s *Store) FindByEmail(ctx context.Context, email string) (models.User, error) {
	user, err := s.FindByEmailWithHash(ctx, email)
	if err != nil {
		return models.User{}, err
	}
	return user.WithoutHash(), nil
}

// FindByEmailWithHash fetches a user by email including the password hash.
func (s *Store) FindByEmailWithHash(_ context.Context, email string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.byEmail[storage.NormalizeEmail(email)]
	if !ok {
		return models.User{}, storage.ErrNotFound
	}
	return user, nil
}

// FindByID fetches a user by ID with the password hash stripped.
func (s *Store) FindByID(_ context.Context, id string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.byID[id]
	if !ok {
		return models.User{}, storage.ErrNotFound
	}
	return user.WithoutHash(), nil
}
