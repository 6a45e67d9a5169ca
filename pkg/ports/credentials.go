package ports

import "context"

// CredentialStore checks login/password pairs.
type CredentialStore interface {
	// Verify reports whether password is valid for login. Unknown logins are
	// not an error.
	Verify(ctx context.Context, login, password string) (bool, error)
}
