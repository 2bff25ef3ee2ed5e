// Package auth handles passwords, server-side sessions and the signed cookie
// that refers to them.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/video-stream/editor/internal/db/models"
	"github.com/video-stream/editor/internal/logging"
	"github.com/video-stream/editor/internal/store"
)

var (
	// ErrInvalidCredentials is returned for both unknown usernames and wrong
	// passwords.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthenticated    = errors.New("authentication required")
)

// DefaultSessionTTL is how long a login stays valid.
const DefaultSessionTTL = 24 * time.Hour

// Identity is the authenticated caller attached to a request.
type Identity struct {
	UserID    int64
	SessionID string
	ExpiresAt time.Time
}

// Login is the outcome of a successful register or login call.
type Login struct {
	User    *models.User
	Token   string
	Session *models.Session
}

type Manager struct {
	store  store.Store
	tokens *TokenService
	ttl    time.Duration
	now    func() time.Time
	log    *logrus.Entry
}

func NewManager(st store.Store, tokens *TokenService, ttl time.Duration, log logrus.FieldLogger) *Manager {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &Manager{
		store:  st,
		tokens: tokens,
		ttl:    ttl,
		now:    time.Now,
		log:    logging.WithComponent(log, "auth"),
	}
}

// Register creates the user and logs them in. A taken username or email
// yields store.ErrConflict.
func (m *Manager) Register(ctx context.Context, username, password string, email *string) (*Login, error) {
	hash, err := HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := &models.User{
		Username:  username,
		Email:     email,
		Password:  hash,
		CreatedAt: m.now().UTC().Truncate(time.Microsecond),
	}
	if err := m.store.CreateUser(ctx, u); err != nil {
		return nil, err
	}
	m.log.WithFields(logrus.Fields{"user_id": u.ID, "username": u.Username}).Info("user registered")
	return m.startSession(ctx, u)
}

func (m *Manager) Login(ctx context.Context, username, password string) (*Login, error) {
	u, err := m.store.GetUserByUsername(ctx, username)
	if errors.Is(err, store.ErrNotFound) {
		burnPasswordCheck(password)
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !CheckPassword(password, u.Password) {
		return nil, ErrInvalidCredentials
	}
	return m.startSession(ctx, u)
}

func (m *Manager) startSession(ctx context.Context, u *models.User) (*Login, error) {
	now := m.now().UTC().Truncate(time.Second)
	s := &models.Session{
		ID:        uuid.New().String(),
		UserID:    u.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
	}
	if err := m.store.CreateSession(ctx, s); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	token, err := m.tokens.Issue(s.ID, s.CreatedAt, s.ExpiresAt)
	if err != nil {
		return nil, fmt.Errorf("sign session token: %w", err)
	}
	return &Login{User: u, Token: token, Session: s}, nil
}

// Authenticate resolves a cookie value to the caller's identity. Any problem
// with the token or its session is reported as ErrUnauthenticated.
func (m *Manager) Authenticate(ctx context.Context, token string) (*Identity, error) {
	if token == "" {
		return nil, ErrUnauthenticated
	}
	claims, err := m.tokens.Parse(token)
	if err != nil {
		return nil, ErrUnauthenticated
	}
	s, err := m.store.GetSession(ctx, claims.SessionID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrUnauthenticated
	}
	if err != nil {
		return nil, err
	}
	if s.Expired(m.now()) {
		if err := m.store.DeleteSession(ctx, s.ID); err != nil {
			m.log.WithError(err).Warn("failed to delete expired session")
		}
		return nil, ErrUnauthenticated
	}
	return &Identity{UserID: s.UserID, SessionID: s.ID, ExpiresAt: s.ExpiresAt}, nil
}

// Logout destroys the session behind token. Tokens that no longer name a
// session are ignored.
func (m *Manager) Logout(ctx context.Context, token string) error {
	claims, err := m.tokens.Parse(token)
	if err != nil {
		return nil
	}
	if err := m.store.DeleteSession(ctx, claims.SessionID); err != nil && !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// CurrentUser returns the user behind an identity, or store.ErrNotFound when
// the account no longer exists.
func (m *Manager) CurrentUser(ctx context.Context, id *Identity) (*models.User, error) {
	if id == nil {
		return nil, ErrUnauthenticated
	}
	return m.store.GetUserByID(ctx, id.UserID)
}
