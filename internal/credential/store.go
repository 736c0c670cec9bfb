// Package credential registers local accounts and verifies logins.
//
// Passwords are only obscured (base64), never hashed: anyone who can read the
// storage backend can recover them. This mirrors the browser app the data
// format comes from and must not be mistaken for protection.
package credential

import (
	"context"
	"encoding/base64"
	"fmt"
	"sync"

	"github.com/MrSnakeDoc/gitmark/internal/domain"
	"github.com/MrSnakeDoc/gitmark/internal/logger"
	"github.com/MrSnakeDoc/gitmark/internal/storage"
)

// record is the persisted value for one account, keyed by email.
type record struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

// Store maps account emails to obscured credentials.
type Store struct {
	backend storage.Backend
	logger  logger.Logger

	mu       sync.Mutex
	accounts *storage.Pairs[record]
}

// NewStore creates a credential store. Call Load before use.
func NewStore(backend storage.Backend, log logger.Logger) *Store {
	return &Store{
		backend:  backend,
		logger:   log,
		accounts: &storage.Pairs[record]{},
	}
}

// Load reads the persisted account map. A missing map means no accounts.
func (s *Store) Load(ctx context.Context) error {
	accounts := &storage.Pairs[record]{}
	if _, err := storage.LoadJSON(ctx, s.backend, storage.KeyUsers, accounts); err != nil {
		return fmt.Errorf("failed to load accounts: %w", err)
	}

	s.mu.Lock()
	s.accounts = accounts
	s.mu.Unlock()

	s.logger.Debug("accounts loaded", logger.Int("count", accounts.Len()))
	return nil
}

// Register creates an account. It fails with domain.ErrAccountExists when the
// email is taken, leaving the existing account untouched.
func (s *Store) Register(ctx context.Context, name, email, password string) (domain.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.accounts.Has(email) {
		return domain.Identity{}, fmt.Errorf("register %s: %w", email, domain.ErrAccountExists)
	}

	updated := s.accounts.Clone()
	updated.Set(email, record{Name: name, Password: Obscure(password)})
	if err := storage.SaveJSON(ctx, s.backend, storage.KeyUsers, updated); err != nil {
		return domain.Identity{}, err
	}
	s.accounts = updated

	s.logger.Info("account registered", logger.String("email", email))
	return domain.Account{Name: name, Email: email}.Identity(), nil
}

// Verify checks a login attempt and returns the stored identity.
func (s *Store) Verify(ctx context.Context, email, password string) (domain.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acct, ok := s.account(email)
	if !ok {
		return domain.Identity{}, fmt.Errorf("verify %s: %w", email, domain.ErrAccountNotFound)
	}
	if stored, err := Reveal(acct.ObscuredPassword); err != nil || stored != password {
		return domain.Identity{}, fmt.Errorf("verify %s: %w", email, domain.ErrInvalidCredentials)
	}

	// The whole map is written back on every call, as registration does.
	if err := storage.SaveJSON(ctx, s.backend, storage.KeyUsers, s.accounts); err != nil {
		return domain.Identity{}, err
	}
	return acct.Identity(), nil
}

// account returns the stored account for email. s.mu must be held.
func (s *Store) account(email string) (domain.Account, bool) {
	rec, ok := s.accounts.Get(email)
	if !ok {
		return domain.Account{}, false
	}
	return domain.Account{Name: rec.Name, Email: email, ObscuredPassword: rec.Password}, true
}

// Count returns the number of registered accounts.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.accounts.Len()
}

// Obscure encodes a password for storage. It is reversible.
func Obscure(password string) string {
	return base64.StdEncoding.EncodeToString([]byte(password))
}

// Reveal decodes an obscured password.
func Reveal(obscured string) (string, error) {
	b, err := base64.StdEncoding.DecodeString(obscured)
	if err != nil {
		return "", fmt.Errorf("failed to decode password: %w", err)
	}
	return string(b), nil
}
