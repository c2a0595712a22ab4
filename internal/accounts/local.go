package accounts

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const localSessionTTL = 24 * time.Hour

type localUser struct {
	account      Account
	passwordHash []byte
}

// LocalStore is an in-memory account store with bcrypt-hashed passwords.
// Used in development and tests; one active session at a time, matching the
// single-session assumption of the rest of the service.
type LocalStore struct {
	mu      sync.RWMutex
	users   map[string]*localUser // keyed by email
	session *Session
}

// NewLocalStore creates an empty local account store.
func NewLocalStore() *LocalStore {
	return &LocalStore{
		users: make(map[string]*localUser),
	}
}

// Register creates a new local account.
func (s *LocalStore) Register(email, password string, premium bool) (Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[email]; ok {
		return Account{}, ErrUserExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return Account{}, err
	}

	account := Account{
		UserID:    uuid.NewString(),
		Email:     email,
		IsPremium: premium,
	}
	s.users[email] = &localUser{account: account, passwordHash: hash}
	return account, nil
}

// SignIn validates credentials and opens a session.
func (s *LocalStore) SignIn(_ context.Context, email, password string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[email]
	if !ok {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(user.passwordHash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	s.session = &Session{
		Account:   user.account,
		Token:     uuid.NewString(),
		ExpiresAt: time.Now().Add(localSessionTTL),
	}
	return s.session, nil
}

// SignOut closes the active session. Signing out with no session is a no-op.
func (s *LocalStore) SignOut(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = nil
	return nil
}

// Current returns the active account, if any.
func (s *LocalStore) Current() (Account, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.session == nil {
		return Account{}, false
	}
	return s.session.Account, true
}

// SetPremium flips the premium flag for a registered account.
func (s *LocalStore) SetPremium(email string, premium bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[email]
	if !ok {
		return false
	}
	user.account.IsPremium = premium
	if s.session != nil && s.session.Account.Email == email {
		s.session.Account.IsPremium = premium
	}
	return true
}
