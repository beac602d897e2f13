package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"y-chat/internal/models"
	"y-chat/internal/repositories"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrSessionExpired     = errors.New("session expired")
	ErrInvalidUsername    = errors.New("username must be between 2 and 32 characters")
	ErrWeakPassword       = errors.New("password must be at least 6 characters")
)

// EventKind labels an authentication-state transition.
type EventKind string

const (
	EventSignedIn  EventKind = "signed_in"
	EventSignedOut EventKind = "signed_out"
	EventRefreshed EventKind = "refreshed"
)

// Event is delivered to subscribers on every state transition.
type Event struct {
	Kind     EventKind
	UserID   string
	Username string
}

// Session is the issued token pair for one identity.
type Session struct {
	UserID       string    `json:"user_id"`
	Username     string    `json:"username"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Manager establishes and persists authenticated identities. It is built
// once at startup and holds the subscriber registry for auth-state
// transitions.
type Manager struct {
	profiles   repositories.ProfileRepository
	sessions   repositories.SessionRepository
	tokens     *TokenManager
	refreshTTL time.Duration

	mu      sync.Mutex
	subs    map[int]func(Event)
	nextSub int
}

// NewManager constructs a Manager.
func NewManager(profiles repositories.ProfileRepository, sessions repositories.SessionRepository, tokens *TokenManager, refreshTTL time.Duration) *Manager {
	return &Manager{
		profiles:   profiles,
		sessions:   sessions,
		tokens:     tokens,
		refreshTTL: refreshTTL,
		subs:       make(map[int]func(Event)),
	}
}

// Subscribe registers a callback invoked on every sign-in, sign-out and
// refresh. The returned disposer cancels the subscription.
func (m *Manager) Subscribe(fn func(Event)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = fn
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.subs, id)
	}
}

func (m *Manager) notify(event Event) {
	m.mu.Lock()
	subs := make([]func(Event), 0, len(m.subs))
	for _, fn := range m.subs {
		subs = append(subs, fn)
	}
	m.mu.Unlock()
	for _, fn := range subs {
		fn(event)
	}
}

// SyntheticEmail maps a username to the internal email identity used for
// account storage.
func SyntheticEmail(username string) string {
	return fmt.Sprintf("%s@users.ychat.local", strings.ToLower(username))
}

// SignUp creates a profile and signs the new identity in.
func (m *Manager) SignUp(ctx context.Context, username, password string) (Session, error) {
	username = strings.TrimSpace(username)
	if len(username) < 2 || len(username) > 32 {
		return Session{}, ErrInvalidUsername
	}
	if len(password) < 6 {
		return Session{}, ErrWeakPassword
	}

	if _, err := m.profiles.GetProfileByUsername(ctx, username); err == nil {
		return Session{}, ErrUsernameTaken
	} else if !errors.Is(err, repositories.ErrProfileNotFound) {
		return Session{}, err
	}

	hash, err := HashPassword(password)
	if err != nil {
		return Session{}, err
	}

	profile, err := m.profiles.CreateProfile(ctx, uuid.NewString(), username, SyntheticEmail(username), hash)
	if err != nil {
		return Session{}, err
	}

	return m.issue(ctx, profile, EventSignedIn)
}

// SignIn verifies credentials and issues a token pair.
func (m *Manager) SignIn(ctx context.Context, username, password string) (Session, error) {
	userID, hash, err := m.profiles.GetCredentials(ctx, username)
	if err != nil {
		if errors.Is(err, repositories.ErrProfileNotFound) {
			return Session{}, ErrInvalidCredentials
		}
		return Session{}, err
	}
	if !VerifyPassword(password, hash) {
		return Session{}, ErrInvalidCredentials
	}

	profile, err := m.profiles.GetProfile(ctx, userID)
	if err != nil {
		return Session{}, err
	}

	return m.issue(ctx, profile, EventSignedIn)
}

// Refresh rotates the refresh token and issues a fresh access token.
func (m *Manager) Refresh(ctx context.Context, refreshToken string) (Session, error) {
	stored, err := m.sessions.GetSessionByToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, repositories.ErrSessionNotFound) {
			return Session{}, ErrSessionExpired
		}
		return Session{}, err
	}
	if stored.ExpiresAt.Before(time.Now()) {
		_ = m.sessions.DeleteSession(ctx, refreshToken)
		return Session{}, ErrSessionExpired
	}

	profile, err := m.profiles.GetProfile(ctx, stored.UserID)
	if err != nil {
		return Session{}, err
	}

	if err := m.sessions.DeleteSession(ctx, refreshToken); err != nil {
		return Session{}, err
	}

	return m.issue(ctx, profile, EventRefreshed)
}

// SignOut clears the persisted session.
func (m *Manager) SignOut(ctx context.Context, refreshToken string) error {
	stored, err := m.sessions.GetSessionByToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, repositories.ErrSessionNotFound) {
			return nil
		}
		return err
	}
	if err := m.sessions.DeleteSession(ctx, refreshToken); err != nil {
		return err
	}
	m.notify(Event{Kind: EventSignedOut, UserID: stored.UserID})
	return nil
}

func (m *Manager) issue(ctx context.Context, profile models.Profile, kind EventKind) (Session, error) {
	access, err := m.tokens.Generate(profile.ID, profile.Username)
	if err != nil {
		return Session{}, err
	}

	refresh, err := newRefreshToken()
	if err != nil {
		return Session{}, err
	}

	expiresAt := time.Now().Add(m.refreshTTL)
	if err := m.sessions.CreateSession(ctx, uuid.NewString(), profile.ID, refresh, expiresAt); err != nil {
		return Session{}, err
	}

	m.notify(Event{Kind: kind, UserID: profile.ID, Username: profile.Username})

	return Session{
		UserID:       profile.ID,
		Username:     profile.Username,
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    expiresAt,
	}, nil
}

func newRefreshToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
