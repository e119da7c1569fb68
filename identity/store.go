package identity

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrNotFound   = errors.New("identity: not found")
	ErrEmailTaken = errors.New("identity: email already registered")
)

// DB is the query surface shared by *pgxpool.Pool, pgx.Tx and pgxmock.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store provides user and refresh-token lookups against the recipe schema.
type Store struct {
	pg     DB
	schema string
}

func NewStore(pg DB, schema string) *Store {
	s := strings.TrimSpace(schema)
	if s == "" {
		s = "public"
	}
	return &Store{pg: pg, schema: s}
}

func (s *Store) usersTable() string         { return s.schema + ".users" }
func (s *Store) refreshTokensTable() string { return s.schema + ".refresh_tokens" }

type User struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
	Name  string    `json:"name"`
}

// Credentials is a user row together with its password hash.
type Credentials struct {
	User
	PasswordHash string
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *Store) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := s.pg.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM `+s.usersTable()+` WHERE email=$1)`, normalizeEmail(email)).Scan(&exists)
	return exists, err
}

// CreateUser inserts a user and returns it. A concurrent signup for the same
// email surfaces as ErrEmailTaken.
func (s *Store) CreateUser(ctx context.Context, email, name, passwordHash string) (*User, error) {
	u := User{Email: normalizeEmail(email), Name: strings.TrimSpace(name)}
	err := s.pg.QueryRow(ctx,
		`INSERT INTO `+s.usersTable()+` (email, name, password_hash) VALUES ($1, $2, $3) RETURNING id`,
		u.Email, u.Name, passwordHash,
	).Scan(&u.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return &u, nil
}

func (s *Store) GetCredentialsByEmail(ctx context.Context, email string) (*Credentials, error) {
	var c Credentials
	err := s.pg.QueryRow(ctx,
		`SELECT id, email, name, password_hash FROM `+s.usersTable()+` WHERE email=$1 LIMIT 1`,
		normalizeEmail(email),
	).Scan(&c.ID, &c.Email, &c.Name, &c.PasswordHash)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Store) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	if id == uuid.Nil {
		return nil, ErrNotFound
	}
	var u User
	err := s.pg.QueryRow(ctx, `SELECT id, email, name FROM `+s.usersTable()+` WHERE id=$1 LIMIT 1`, id).Scan(&u.ID, &u.Email, &u.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Store) InsertRefreshToken(ctx context.Context, userID uuid.UUID, token string, expiresAt time.Time) error {
	_, err := s.pg.Exec(ctx,
		`INSERT INTO `+s.refreshTokensTable()+` (user_id, token, expires_at, created_at) VALUES ($1, $2, $3, now())`,
		userID, token, expiresAt)
	return err
}

// LookupRefreshToken returns the owner and expiry of a refresh token.
func (s *Store) LookupRefreshToken(ctx context.Context, token string) (uuid.UUID, time.Time, error) {
	var (
		userID    uuid.UUID
		expiresAt time.Time
	)
	err := s.pg.QueryRow(ctx, `SELECT user_id, expires_at FROM `+s.refreshTokensTable()+` WHERE token=$1`, token).Scan(&userID, &expiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, time.Time{}, ErrNotFound
	}
	return userID, expiresAt, err
}

// DeleteRefreshToken revokes a refresh token; unknown tokens are not an error.
func (s *Store) DeleteRefreshToken(ctx context.Context, token string) error {
	_, err := s.pg.Exec(ctx, `DELETE FROM `+s.refreshTokensTable()+` WHERE token=$1`, token)
	return err
}
