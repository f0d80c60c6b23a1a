package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yourusername/auth-starter/internal/models"
	"github.com/yourusername/auth-starter/internal/storage"
)

// Ensure Store satisfies the storage.UserStore interface at compile time.
var _ storage.UserStore = (*Store)(nil)

// Store provides Postgres-backed persistence for users.
type Store struct {
	pool *pgxpool.Pool
}

// NewUserStore creates a new Store and runs migrations.
func NewUserStore(ctx context.Context, databaseURL string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	s := &Store{pool: pool}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return s, nil
}

// Close releases database resources.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *Store) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY,
			name TEXT NOT NULL,
			email TEXT UNIQUE NOT NULL,
			password_hash TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);`,
		`CREATE UNIQUE INDEX IF NOT EXISTS users_email_unique_idx ON users (email);`,
	}
	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply migrations: %w", err)
		}
	}
	return nil
}

// Create inserts a new user row. Email is normalized before the insert so the
// unique index operates on the canonical form.
func (s *Store) Create(ctx context.Context, user models.User) (models.User, error) {
	const query = `
		INSERT INTO users (id, name, email, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		RETURNING id, name, email, created_at, updated_at;
	`
	now := time.Now().UTC()
	row := s.pool.QueryRow(ctx, query,
		uuid.NewString(), user.Name, storage.NormalizeEmail(user.Email), user.PasswordHash, now)

	var created models.User
	if err := row.Scan(&created.ID, &created.Name, &created.Email, &created.CreatedAt, &created.UpdatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return models.User{}, storage.ErrDuplicateEmail
		}
		return models.User{}, err
	}
	return created, nil
}

// FindByEmail fetches a user by email without the password hash.
func (s *Store) FindByEmail(ctx context.Context, email string) (models.User, error) {
	const query = `
		SELECT id, name, email, created_at, updated_at
		FROM users WHERE email = $1;
	`
	row := s.pool.QueryRow(ctx, query, storage.NormalizeEmail(email))
	return scanUser(row, false)
}

// FindByEmailWithHash fetches a user by email including the password hash.
// Used only by the login path.
func (s *Store) FindByEmailWithHash(ctx context.Context, email string) (models.User, error) {
	const query = `
		SELECT id, name, email, created_at, updated_at, password_hash
		FROM users WHERE email = $1;
	`
	row := s.pool.QueryRow(ctx, query, storage.NormalizeEmail(email))
	return scanUser(row, true)
}

// FindByID fetches a user by ID without the password hash.
func (s *Store) FindByID(ctx context.Context, id string) (models.User, error) {
	const query = `
		SELECT id, name, email, created_at, updated_at
		FROM users WHERE id = $1;
	`
	row := s.pool.QueryRow(ctx, query, id)
	return scanUser(row, false)
}

func scanUser(row pgx.Row, withHash bool) (models.User, error) {
	var user models.User
	dest := []any{&user.ID, &user.Name, &user.Email, &user.CreatedAt, &user.UpdatedAt}
	if withHash {
		dest = append(dest, &user.PasswordHash)
	}
	if err := row.Scan(dest...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, storage.ErrNotFound
		}
		return models.User{}, err
	}
	return user, nil
}
