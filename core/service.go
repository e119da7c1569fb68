// Package core implements the account operations behind the auth service:
// signup, login, refresh-token exchange and revocation.
package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/PaulFidika/recipekit/identity"
	jwtkit "github.com/PaulFidika/recipekit/jwt"
	pwhash "github.com/PaulFidika/recipekit/password"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	DefaultAccessTTL  = 24 * time.Hour
	DefaultRefreshTTL = 30 * 24 * time.Hour
)

var (
	ErrMissingFields       = errors.New("missing_fields")
	ErrEmailTaken          = errors.New("user_exists")
	ErrInvalidCredentials  = errors.New("invalid_credentials")
	ErrInvalidRefreshToken = errors.New("invalid_refresh_token")
	ErrRefreshTokenExpired = errors.New("refresh_token_expired")
)

// Users is the persistence the service needs; *identity.Store implements it.
type Users interface {
	EmailExists(ctx context.Context, email string) (bool, error)
	CreateUser(ctx context.Context, email, name, passwordHash string) (*identity.User, error)
	GetCredentialsByEmail(ctx context.Context, email string) (*identity.Credentials, error)
	GetByID(ctx context.Context, id uuid.UUID) (*identity.User, error)
	InsertRefreshToken(ctx context.Context, userID uuid.UUID, token string, expiresAt time.Time) error
	LookupRefreshToken(ctx context.Context, token string) (uuid.UUID, time.Time, error)
	DeleteRefreshToken(ctx context.Context, token string) error
}

type Config struct {
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// Service issues Hasura access tokens for recipe accounts.
type Service struct {
	users  Users
	signer jwtkit.Signer
	cfg    Config
	events AuthEventLogger
	log    logrus.FieldLogger
	now    func() time.Time
}

func NewService(users Users, signer jwtkit.Signer, cfg Config, log logrus.FieldLogger) *Service {
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = DefaultAccessTTL
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = DefaultRefreshTTL
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Service{
		users:  users,
		signer: signer,
		cfg:    cfg,
		events: LogrusEvents{Log: log},
		log:    log,
		now:    time.Now,
	}
}

// WithEvents replaces the default logrus event sink.
func (s *Service) WithEvents(ev AuthEventLogger) *Service {
	if ev != nil {
		s.events = ev
	}
	return s
}

// Signer exposes the signer so transport middleware can verify tokens.
func (s *Service) Signer() jwtkit.Signer { return s.signer }

// Session is what a successful signup or login hands back.
type Session struct {
	AccessToken  string
	RefreshToken string
	User         identity.User
}

func (s *Service) Signup(ctx context.Context, name, email, password string) (*Session, error) {
	name, email = strings.TrimSpace(name), strings.TrimSpace(email)
	if name == "" || email == "" || password == "" {
		return nil, ErrMissingFields
	}
	if err := pwhash.Validate(password); err != nil {
		return nil, err
	}
	exists, err := s.users.EmailExists(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if exists {
		return nil, ErrEmailTaken
	}
	hash, err := pwhash.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u, err := s.users.CreateUser(ctx, email, name, hash)
	if errors.Is(err, identity.ErrEmailTaken) {
		return nil, ErrEmailTaken
	}
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return s.issueSession(ctx, *u)
}

func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, ErrMissingFields
	}
	cred, err := s.users.GetCredentialsByEmail(ctx, email)
	if errors.Is(err, identity.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	ok, err := pwhash.Verify(cred.PasswordHash, password)
	if err != nil {
		s.log.WithError(err).WithField("user_id", cred.ID).Warn("password verify failed")
		return nil, ErrInvalidCredentials
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}
	return s.issueSession(ctx, cred.User)
}

// Refresh exchanges a live refresh token for a new access token. The refresh
// token itself is not rotated.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (string, error) {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return "", ErrMissingFields
	}
	userID, expiresAt, err := s.users.LookupRefreshToken(ctx, refreshToken)
	if errors.Is(err, identity.ErrNotFound) {
		return "", ErrInvalidRefreshToken
	}
	if err != nil {
		return "", fmt.Errorf("lookup refresh token: %w", err)
	}
	if s.now().After(expiresAt) {
		return "", ErrRefreshTokenExpired
	}
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("load user: %w", err)
	}
	return s.accessToken(ctx, *u)
}

// Logout revokes a refresh token.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return ErrMissingFields
	}
	return s.users.DeleteRefreshToken(ctx, refreshToken)
}

// Me returns the account behind a verified access token.
func (s *Service) Me(ctx context.Context, userID string) (*identity.User, error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		return nil, identity.ErrNotFound
	}
	return s.users.GetByID(ctx, id)
}

// LogAuth forwards to the event sink; failures are only logged.
func (s *Service) LogAuth(ctx context.Context, userID, method string, ip, userAgent *string) {
	if err := s.events.LogAuth(ctx, userID, method, ip, userAgent); err != nil {
		s.log.WithError(err).Debug("auth event dropped")
	}
}

func (s *Service) issueSession(ctx context.Context, u identity.User) (*Session, error) {
	access, err := s.accessToken(ctx, u)
	if err != nil {
		return nil, err
	}
	rt := uuid.NewString()
	if err := s.users.InsertRefreshToken(ctx, u.ID, rt, s.now().Add(s.cfg.RefreshTTL)); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}
	return &Session{AccessToken: access, RefreshToken: rt, User: u}, nil
}

func (s *Service) accessToken(ctx context.Context, u identity.User) (string, error) {
	tok, err := s.signer.Sign(ctx, jwtkit.AccessClaims(u.ID.String(), u.Email, s.now(), s.cfg.AccessTTL))
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return tok, nil
}

// Provider is the surface the HTTP handlers depend on.
type Provider interface {
	Signup(ctx context.Context, name, email, password string) (*Session, error)
	Login(ctx context.Context, email, password string) (*Session, error)
	Refresh(ctx context.Context, refreshToken string) (string, error)
	Logout(ctx context.Context, refreshToken string) error
	Me(ctx context.Context, userID string) (*identity.User, error)
	LogAuth(ctx context.Context, userID, method string, ip, userAgent *string)
}

var _ Provider = (*Service)(nil)
