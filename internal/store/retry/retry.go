// Package retry wraps a Repository Port call with cenkalti/backoff/v4
// retries for the transient failures a backend connection can surface
// (a dropped MySQL/Dolt connection, a busy-timeout exhaustion under
// SQLite write contention) — distinct from the unique-constraint races
// the engine expects and handles locally via store.ErrAlreadyExists.
package retry

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/lattice-db/lattice/internal/store"
)

// Policy is the retry schedule a caller applies to one backend call.
type Policy struct {
	MaxElapsed time.Duration
}

// DefaultPolicy retries for up to 10 seconds with exponential backoff,
// matching the kind of transient-connection window an operator running
// MySQL/Dolt over a flaky network would want before giving up.
var DefaultPolicy = Policy{MaxElapsed: 10 * time.Second}

// Do runs fn, retrying on errors classified as transient by
// isTransient, until it succeeds, a non-transient error is returned, or
// p's elapsed-time budget runs out. A caller that wants something
// besides exponential backoff can construct its own backoff.BackOff and
// call backoff.Retry directly; Do exists for the common case.
func Do(ctx context.Context, p Policy, fn func(ctx context.Context) error) error {
	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = p.MaxElapsed
	bctx := backoff.WithContext(b, ctx)

	return backoff.Retry(func() error {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if isTransient(err) {
			return err
		}
		return backoff.Permanent(err)
	}, bctx)
}

// isTransient reports whether err looks like a connection-level
// failure worth retrying, rather than a semantic failure (not found,
// already exists, validation) the caller should see immediately.
func isTransient(err error) bool {
	if errors.Is(err, store.ErrAlreadyExists) || errors.Is(err, store.ErrNotFound) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	msg := err.Error()
	for _, sub := range []string{
		"connection refused", "broken pipe", "database is locked",
		"driver: bad connection", "EOF", "connection reset",
	} {
		if strings.Contains(msg, sub) {
			return true
		}
	}
	return false
}
