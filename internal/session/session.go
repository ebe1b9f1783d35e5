// Package session keeps the login state across runs.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/debemdeboas/the-archive-writer/internal/api"
	"github.com/debemdeboas/the-archive-writer/internal/repository"
	"github.com/rs/zerolog"
)

const (
	// Key is the storage key of the persisted marker.
	Key = "authToken"

	// Marker is stored when the server accepts the login without issuing a
	// token. The session is then advisory only.
	Marker = "authenticated"
)

var ErrEmptyCredentials = errors.New("username and password are required")

var sessionLogger zerolog.Logger = zerolog.Nop()

func SetLogger(l zerolog.Logger) {
	sessionLogger = l.With().Str("component", "session").Logger()
}

// Authenticator performs the remote login.
type Authenticator interface {
	Login(ctx context.Context, username, password string) (*api.LoginResult, error)
}

type Store struct {
	kv repository.KVStore

	mu    sync.RWMutex
	value string
}

// Open loads the persisted marker from kv.
func Open(kv repository.KVStore) (*Store, error) {
	value, _, err := kv.Get(Key)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	return &Store{kv: kv, value: value}, nil
}

func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value != ""
}

// Token returns the bearer token, or "" when there is none.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.value == Marker {
		return ""
	}
	return s.value
}

// Login authenticates against the blog API and persists the result. On
// failure the stored state is left as it was.
func (s *Store) Login(ctx context.Context, auth Authenticator, username, password string) (*api.LoginResult, error) {
	if username == "" || password == "" {
		return nil, ErrEmptyCredentials
	}

	res, err := auth.Login(ctx, username, password)
	if err != nil {
		sessionLogger.Warn().Err(err).Str("username", username).Msg("Login rejected")
		return nil, err
	}

	value := res.Token
	if value == "" {
		value = Marker
	}
	if err := s.set(value); err != nil {
		return nil, err
	}

	sessionLogger.Info().Str("username", username).Bool("token", res.Token != "").Msg("Logged in")
	return res, nil
}

// Logout clears the in-memory and persisted state.
func (s *Store) Logout() error {
	if err := s.kv.Delete(Key); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	s.mu.Lock()
	s.value = ""
	s.mu.Unlock()
	return nil
}

// Invalidate is Logout for callbacks that cannot return an error.
func (s *Store) Invalidate() {
	if err := s.Logout(); err != nil {
		sessionLogger.Error().Err(err).Msg("Failed to invalidate session")
		return
	}
	sessionLogger.Info().Msg("Session invalidated by the server")
}

// ErrorMessage turns a Login error into the line shown under the form.
func ErrorMessage(err error) string {
	if errors.Is(err, ErrEmptyCredentials) {
		return "Please enter a username and password."
	}
	var se *api.StatusError
	if errors.As(err, &se) {
		return "Login failed: " + se.UserMessage()
	}
	return fmt.Sprintf("Network error: %v. Please check if the backend server is running.", err)
}

func (s *Store) set(value string) error {
	if err := s.kv.Set(Key, value); err != nil {
		return fmt.Errorf("failed to persist session: %w", err)
	}
	s.mu.Lock()
	s.value = value
	s.mu.Unlock()
	return nil
}
