package accounts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"ai-browser-assistant-service/internal/observability/logging"
)

// RemoteStore is an HTTP client against the external account/session store.
type RemoteStore struct {
	endpoint string
	client   *http.Client
	logger   zerolog.Logger

	mu      sync.RWMutex
	session *Session
}

// NewRemoteStore creates a client for the given store endpoint.
func NewRemoteStore(endpoint string, timeout time.Duration) *RemoteStore {
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &RemoteStore{
		endpoint: strings.TrimRight(endpoint, "/"),
		client:   &http.Client{Timeout: timeout},
		logger:   logging.WithComponent("accounts-remote"),
	}
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signInResponse struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	IsPremium bool      `json:"is_premium"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SignIn authenticates against the remote store and caches the session.
func (s *RemoteStore) SignIn(ctx context.Context, email, password string) (*Session, error) {
	body, err := json.Marshal(signInRequest{Email: email, Password: password})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint+"/signin", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("account store unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, ErrInvalidCredentials
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("account store returned %s", resp.Status)
	}

	var payload signInResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("malformed account store response: %w", err)
	}

	session := &Session{
		Account: Account{
			UserID:    payload.UserID,
			Email:     payload.Email,
			IsPremium: payload.IsPremium,
		},
		Token:     payload.Token,
		ExpiresAt: payload.ExpiresAt,
	}

	s.mu.Lock()
	s.session = session
	s.mu.Unlock()

	s.logger.Info().Str("userId", session.Account.UserID).Msg("Signed in")
	return session, nil
}

// SignOut revokes the session remotely and drops it locally. The local
// session is dropped even when the remote call fails.
func (s *RemoteStore) SignOut(ctx context.Context) error {
	s.mu.Lock()
	session := s.session
	s.session = nil
	s.mu.Unlock()

	if session == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint+"/signout", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+session.Token)

	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Remote sign-out failed, session dropped locally")
		return nil
	}
	defer resp.Body.Close()
	return nil
}

// Current returns the active account, if any.
func (s *RemoteStore) Current() (Account, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.session == nil || time.Now().After(s.session.ExpiresAt) {
		return Account{}, false
	}
	return s.session.Account, true
}
