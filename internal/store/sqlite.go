package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"vibeauth/internal/database"
	"vibeauth/internal/models"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS users (
	id TEXT PRIMARY KEY,
	email TEXT NOT NULL UNIQUE,
	display_name TEXT,
	credential_digest TEXT NOT NULL,
	totp_secret TEXT NOT NULL,
	is_logged_in INTEGER NOT NULL DEFAULT 0,
	created_at TEXT NOT NULL
);
`

// SQLiteStore keeps records in a SQLite users table.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens path and creates the schema if needed.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := database.OpenSQLite(path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite store create schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) FindByEmail(ctx context.Context, email string) (models.User, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT id, email, display_name, credential_digest, totp_secret, is_logged_in, created_at
FROM users
WHERE email = ?`, email)

	var (
		u         models.User
		name      sql.NullString
		createdAt string
	)
	err := row.Scan(&u.ID, &u.Email, &name, &u.CredentialDigest, &u.TOTPSecret, &u.IsLoggedIn, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, fmt.Errorf("sqlite store find user: %w", err)
	}
	u.DisplayName = name.String
	u.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return models.User{}, fmt.Errorf("sqlite store parse created_at: %w", err)
	}
	return u, nil
}

func (s *SQLiteStore) Insert(ctx context.Context, user models.User) error {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO users (id, email, display_name, credential_digest, totp_secret, is_logged_in, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Email,
		nullIfEmpty(user.DisplayName),
		user.CredentialDigest,
		user.TOTPSecret,
		user.IsLoggedIn,
		user.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("sqlite store insert user: %w", err)
	}
	return nil
}

func (s *SQLiteStore) SetLoggedIn(ctx context.Context, id string, loggedIn bool) error {
	res, err := s.db.ExecContext(ctx, `UPDATE users SET is_logged_in = ? WHERE id = ?`, loggedIn, id)
	if err != nil {
		return fmt.Errorf("sqlite store update login flag: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite store update login flag affected rows: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Close closes the database.
func (s *SQLiteStore) Close(context.Context) error {
	return s.db.Close()
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

var _ Backend = (*SQLiteStore)(nil)
