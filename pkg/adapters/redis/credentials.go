package redis

import (
	"context"
	"errors"
	"fmt"

	backend "github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
)

// Credentials implements ports.CredentialStore over a Redis hash of
// login -> bcrypt hash, shared by every replica.
type Credentials struct {
	client backend.UniversalClient
	key    string
	cost   int
}

// NewCredentials creates a credential store under prefix+"credentials".
func NewCredentials(client backend.UniversalClient, prefix string) *Credentials {
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &Credentials{
		client: client,
		key:    prefix + "credentials",
		cost:   bcrypt.DefaultCost,
	}
}

// SetCost sets the bcrypt cost used by SetPassword.
func (c *Credentials) SetCost(cost int) {
	c.cost = cost
}

// SetPassword stores the bcrypt hash of password for login.
func (c *Credentials) SetPassword(ctx context.Context, login, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), c.cost)
	if err != nil {
		return fmt.Errorf("hash password for %s: %w", login, err)
	}
	if err := c.client.HSet(ctx, c.key, login, hash).Err(); err != nil {
		return fmt.Errorf("failed to store credentials: %w", err)
	}
	return nil
}

// Verify implements ports.CredentialStore.
func (c *Credentials) Verify(ctx context.Context, login, password string) (bool, error) {
	hash, err := c.client.HGet(ctx, c.key, login).Bytes()
	if errors.Is(err, backend.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read credentials: %w", err)
	}

	err = bcrypt.CompareHashAndPassword(hash, []byte(password))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, err
	}
}
