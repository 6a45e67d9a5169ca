package session

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aretw0/arbiter/internal/logging"
	"github.com/aretw0/arbiter/pkg/ports"
	"github.com/aretw0/arbiter/pkg/wire"
)

// Authenticator establishes the identity of a peer on a fresh connection.
type Authenticator interface {
	// Accept runs the server side. It waits up to timeout for credentials and
	// returns the identity they prove.
	Accept(ctx context.Context, conn *wire.Connector, timeout time.Duration) (string, bool)

	// Login runs the client side. It reports whether the server acknowledged
	// the credentials within timeout.
	Login(ctx context.Context, conn *wire.Connector, timeout time.Duration) bool
}

// PasswordAuth authenticates with a login/password pair sent as
// "login=<login>\npassword=<password>". The server answers Ack or Error.
//
// Store is used by Accept, User and Password by the client side.
type PasswordAuth struct {
	Store    ports.CredentialStore
	User     string
	Password string
	Logger   *slog.Logger
}

var _ Authenticator = (*PasswordAuth)(nil)

func (a *PasswordAuth) logger() *slog.Logger {
	if a.Logger == nil {
		return logging.NewNop()
	}
	return a.Logger
}

// Accept implements Authenticator.
func (a *PasswordAuth) Accept(ctx context.Context, conn *wire.Connector, timeout time.Duration) (string, bool) {
	f, ok := conn.ReceiveTimeout(timeout)
	if !ok {
		a.logger().Debug("no credentials received", "timeout", timeout)
		return "", false
	}

	if f.Command != wire.CommandAuth {
		a.reject(conn, "expected "+wire.CommandAuth)
		return "", false
	}

	login, password, err := ParseCredentials(f.Payload)
	if err != nil {
		a.reject(conn, err.Error())
		return "", false
	}

	if a.Store == nil {
		a.reject(conn, "no credential store")
		return "", false
	}
	valid, err := a.Store.Verify(ctx, login, password)
	if err != nil {
		a.logger().Warn("credential check failed", "login", login, "err", err)
		a.reject(conn, "credentials could not be checked")
		return "", false
	}
	if !valid {
		a.logger().Info("login rejected", "login", login)
		a.reject(conn, "invalid credentials")
		return "", false
	}

	if err := conn.Send(wire.Control(wire.CommandAck)); err != nil {
		return "", false
	}
	return login, true
}

func (a *PasswordAuth) reject(conn *wire.Connector, reason string) {
	_ = conn.Send(wire.NewFrame(wire.CommandError, []byte(reason)))
}

// Login implements Authenticator.
func (a *PasswordAuth) Login(ctx context.Context, conn *wire.Connector, timeout time.Duration) bool {
	payload := FormatCredentials(a.User, a.Password)
	if err := conn.Send(wire.NewFrame(wire.CommandAuth, payload)); err != nil {
		return false
	}

	f, ok := conn.ReceiveTimeout(timeout)
	if !ok {
		a.logger().Debug("no login answer", "timeout", timeout)
		return false
	}
	switch f.Command {
	case wire.CommandAck:
		return true
	case wire.CommandError:
		a.logger().Info("login refused by server", "login", a.User, "reason", string(f.Payload))
	default:
		a.logger().Warn("unexpected login answer", "command", f.Command)
	}
	return false
}

// FormatCredentials encodes a login request payload.
func FormatCredentials(login, password string) []byte {
	return []byte("login=" + login + "\npassword=" + password)
}

// ParseCredentials decodes a login request payload.
func ParseCredentials(payload []byte) (login, password string, err error) {
	var haveLogin, havePassword bool
	for line := range strings.SplitSeq(string(payload), "\n") {
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return "", "", fmt.Errorf("malformed credential line %q", line)
		}
		switch key {
		case "login":
			login, haveLogin = value, true
		case "password":
			password, havePassword = value, true
		}
	}
	if !haveLogin || login == "" {
		return "", "", fmt.Errorf("missing login")
	}
	if !havePassword {
		return "", "", fmt.Errorf("missing password")
	}
	return login, password, nil
}
