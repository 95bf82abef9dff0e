package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/mccorkel/mnr-hackathon-mobile/internal/gateway"
	"github.com/mccorkel/mnr-hackathon-mobile/internal/storage"
	"github.com/rs/zerolog/log"
)

var (
	// ErrMissingCredentials is returned when a username or password is blank
	ErrMissingCredentials = errors.New("username and password are required")

	// ErrMissingEmail is returned when registering without an email
	ErrMissingEmail = errors.New("email is required")
)

// Authenticator is the part of the gateway a session talks to
type Authenticator interface {
	SignIn(ctx context.Context, username, password string) (string, error)
	Refresh(ctx context.Context, token string) (string, error)
	Register(ctx context.Context, req gateway.RegisterRequest) error
}

// Session signs the user in and out and keeps the stored token current
type Session struct {
	gateway Authenticator
	prefs   *storage.Preferences
	mu      sync.Mutex
}

// Status describes the stored session
type Status struct {
	Domain        string     `json:"domain"`
	SignedIn      bool       `json:"signedIn"`
	Username      string     `json:"username,omitempty"`
	SelfPatientID string     `json:"selfPatientId,omitempty"`
	Token         *TokenInfo `json:"token,omitempty"`
}

// NewSession creates a new session
func NewSession(gw Authenticator, prefs *storage.Preferences) *Session {
	return &Session{gateway: gw, prefs: prefs}
}

// Login signs in and stores the token and username
func (s *Session) Login(ctx context.Context, username, password string) error {
	username = strings.TrimSpace(username)
	if username == "" || strings.TrimSpace(password) == "" {
		return ErrMissingCredentials
	}

	token, err := s.gateway.SignIn(ctx, username, password)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.prefs.SetAuthToken(token); err != nil {
		return fmt.Errorf("failed to store token: %w", err)
	}
	if err := s.prefs.SetUsername(username); err != nil {
		log.Error().Err(err).Msg("Failed to store username")
	}
	return nil
}

// Register creates an account; the user signs in afterwards
func (s *Session) Register(ctx context.Context, username, password, email string) error {
	username = strings.TrimSpace(username)
	if username == "" || strings.TrimSpace(password) == "" {
		return ErrMissingCredentials
	}
	email = strings.TrimSpace(email)
	if email == "" {
		return ErrMissingEmail
	}
	return s.gateway.Register(ctx, gateway.RegisterRequest{
		Username: username,
		Password: password,
		Email:    email,
	})
}

// Refresh exchanges the token for a new one and stores it
func (s *Session) Refresh(ctx context.Context, token string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	newToken, err := s.gateway.Refresh(ctx, token)
	if err != nil {
		return "", err
	}
	if err := s.prefs.SetAuthToken(newToken); err != nil {
		return "", fmt.Errorf("failed to store refreshed token: %w", err)
	}
	log.Info().Msg("Refreshed auth token")
	return newToken, nil
}

// Logout forgets the token and username
func (s *Session) Logout() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prefs.SignOut()
}

// Status reports the stored session. Token details are included when the
// token is a readable JWT.
func (s *Session) Status(now time.Time) (Status, error) {
	var st Status
	var err error

	if st.Domain, err = s.prefs.Domain(); err != nil {
		return st, err
	}
	if st.Username, err = s.prefs.Username(); err != nil {
		return st, err
	}
	if st.SelfPatientID, err = s.prefs.SelfPatientID(); err != nil {
		return st, err
	}

	token, err := s.prefs.AuthToken()
	if err != nil {
		return st, err
	}
	st.SignedIn = token != ""
	if st.SignedIn {
		if info, err := Inspect(token, now); err == nil {
			st.Token = &info
		}
	}
	return st, nil
}
