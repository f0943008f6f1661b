// Package session exposes the authenticated-session capability the core
// depends on. The gateway owns the real implementation; the core only ever
// sees this interface.
package session

import (
	"context"
	"errors"
	"strings"
	"time"
)

// Session scopes every remote call made on a user's behalf.
type Session struct {
	UserID string `json:"userId"`
	Email  string `json:"email,omitempty"`
	Token  string `json:"token,omitempty"`
}

// ErrNoSession means acquisition settled without a usable session.
var ErrNoSession = errors.New("session: no active session")

// Provider yields the current session or nil when none exists. A nil
// session with a nil error is valid and means "not signed in".
type Provider interface {
	Session(ctx context.Context) (*Session, error)
}

// ProviderFunc adapts a plain function to Provider.
type ProviderFunc func(ctx context.Context) (*Session, error)

func (f ProviderFunc) Session(ctx context.Context) (*Session, error) { return f(ctx) }

// Acquire retries session acquisition up to attempts times with a fixed
// delay between tries. Data fetches are never retried; this is the only
// remote call in the load path that is.
func Acquire(ctx context.Context, p Provider, attempts int, delay time.Duration) (*Session, error) {
	if attempts < 1 {
		attempts = 1
	}
	var lastErr error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		sess, err := p.Session(ctx)
		if err != nil {
			lastErr = err
			continue
		}
		if sess != nil && strings.TrimSpace(sess.UserID) != "" {
			return sess, nil
		}
		lastErr = ErrNoSession
	}
	return nil, lastErr
}

// accessDeniedMarkers are the substrings the backing stores put in errors
// when a row-level policy rejects a read. There is no structured code on
// that path, matching text is all we get.
var accessDeniedMarkers = []string{
	"permission denied",
	"not authorized",
	"jwt expired",
}

// LooksDenied reports whether err reads like an authentication or
// authorization refusal rather than a generic failure.
func LooksDenied(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range accessDeniedMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
