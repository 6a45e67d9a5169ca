package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// Credentials implements ports.CredentialStore with bcrypt hashes held in memory.
type Credentials struct {
	mu     sync.RWMutex
	hashes map[string][]byte
	cost   int
}

// CredentialsOption configures Credentials.
type CredentialsOption func(*Credentials)

// WithCost sets the bcrypt cost used by Add.
func WithCost(cost int) CredentialsOption {
	return func(c *Credentials) {
		c.cost = cost
	}
}

// NewCredentials creates an empty credential store.
func NewCredentials(opts ...CredentialsOption) *Credentials {
	c := &Credentials{
		hashes: make(map[string][]byte),
		cost:   bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Add hashes and stores password for login, replacing any previous one.
func (c *Credentials) Add(login, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), c.cost)
	if err != nil {
		return fmt.Errorf("hash password for %s: %w", login, err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hashes[login] = hash
	return nil
}

// AddHash stores an existing bcrypt hash for login.
func (c *Credentials) AddHash(login, hash string) error {
	if _, err := bcrypt.Cost([]byte(hash)); err != nil {
		return fmt.Errorf("invalid bcrypt hash for %s: %w", login, err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hashes[login] = []byte(hash)
	return nil
}

// Verify implements ports.CredentialStore.
func (c *Credentials) Verify(ctx context.Context, login, password string) (bool, error) {
	c.mu.RLock()
	hash, ok := c.hashes[login]
	c.mu.RUnlock()
	if !ok {
		return false, nil
	}

	err := bcrypt.CompareHashAndPassword(hash, []byte(password))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, err
	}
}
