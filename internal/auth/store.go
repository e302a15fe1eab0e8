// Package auth is the identity collaborator: a Postgres-backed credential
// store and HS256 token service. The simulation core consumes only the
// opaque user id this package yields.
package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	"github.com/KhamessiTaha/EternaVerseApp-Backend/internal/apperr"
)

// User is a registered account. The password hash never leaves this package.
type User struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	passwordHash []byte
	CreatedAt    time.Time `json:"createdAt"`
}

// Store persists users in Postgres.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore wraps a pgx pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// EnsureSchema creates the users table if missing. Call once at startup.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY,
			username TEXT NOT NULL UNIQUE,
			password_hash BYTEA NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`)
	if err != nil {
		return apperr.Wrap(apperr.KindPersistence, err, "creating users schema")
	}
	return nil
}

// Register creates a user with a bcrypt-hashed password.
func (s *Store) Register(ctx context.Context, username, password string) (*User, error) {
	if len(username) < 3 {
		return nil, apperr.Validation("username must be at least 3 characters")
	}
	if len(password) < 8 {
		return nil, apperr.Validation("password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, err, "hashing password")
	}

	u := &User{ID: uuid.New(), Username: username, passwordHash: hash, CreatedAt: time.Now().UTC()}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO users (id, username, password_hash, created_at) VALUES ($1, $2, $3, $4)`,
		u.ID, u.Username, u.passwordHash, u.CreatedAt)
	if err != nil {
		// Unique violation reads as a validation problem, not a server fault.
		if isUniqueViolation(err) {
			return nil, apperr.Validation("username %q is taken", username)
		}
		return nil, apperr.Wrap(apperr.KindPersistence, err, "inserting user")
	}
	return u, nil
}

// Authenticate verifies credentials and returns the user.
func (s *Store) Authenticate(ctx context.Context, username, password string) (*User, error) {
	var u User
	err := s.pool.QueryRow(ctx,
		`SELECT id, username, password_hash, created_at FROM users WHERE username = $1`,
		username).Scan(&u.ID, &u.Username, &u.passwordHash, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.Unauthorized("invalid credentials")
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.KindPersistence, err, "loading user")
	}
	if bcrypt.CompareHashAndPassword(u.passwordHash, []byte(password)) != nil {
		return nil, apperr.Unauthorized("invalid credentials")
	}
	return &u, nil
}

func isUniqueViolation(err error) bool {
	type sqlState interface{ SQLState() string }
	var se sqlState
	return errors.As(err, &se) && se.SQLState() == "23505"
}
