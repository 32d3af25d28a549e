// Package lock implements the Object Lock Registry (C11, spec.md §4.9):
// single-writer-per-(collection, document name) coordination during
// ingest, backed by the Repository Port's ObjectLocks sub-port.
//
// Grounded on the teacher's sentinel-error style
// (internal/mail/mailbox.go's ErrMessageNotFound/ErrEmptyInbox): Lock
// reports conflicts as a concrete *errs.Error of KindConflict carrying
// the blocking hostname, rather than a boolean, so callers can surface
// "locked by X since Y" without a second round trip.
package lock

import (
	"context"
	"time"

	"github.com/lattice-db/lattice/internal/errs"
	"github.com/lattice-db/lattice/internal/ids"
	"github.com/lattice-db/lattice/internal/model"
	"github.com/lattice-db/lattice/internal/store"
)

// Registry wraps a store.Port's ObjectLocks sub-port with the engine's
// acquire/release/expire semantics.
type Registry struct {
	port store.Port
}

func New(port store.Port) *Registry {
	return &Registry{port: port}
}

// Acquire attempts Free -> Held(hostname) for (collectionID,
// documentName). It returns an *errs.Error of KindConflict describing
// the current holder if the lock is already held.
func (r *Registry) Acquire(ctx context.Context, collectionID, documentName, hostname string) (*model.ObjectLock, error) {
	l := &model.ObjectLock{
		ID:           ids.New(ids.ObjectLock),
		CollectionID: collectionID,
		DocumentName: documentName,
		Hostname:     hostname,
		CreatedUTC:   time.Now().UTC(),
	}
	existing, acquired, err := r.port.TryAcquireLock(ctx, l)
	if err != nil {
		return nil, errs.Backend(err)
	}
	if acquired {
		return l, nil
	}
	return nil, errs.Conflict("document %q in collection %q is locked by %q since %s",
		documentName, collectionID, existing.Hostname, existing.CreatedUTC.Format(time.RFC3339))
}

// Release performs the idempotent Held -> Free transition for a lock
// already known by id.
func (r *Registry) Release(ctx context.Context, id string) error {
	if err := r.port.ReleaseLock(ctx, id); err != nil {
		return errs.Backend(err)
	}
	return nil
}

// ReleaseByName performs the idempotent Held -> Free transition for
// (collectionID, documentName), for callers that never captured the
// lock's id (e.g. recovering from a crash mid-ingest).
func (r *Registry) ReleaseByName(ctx context.Context, collectionID, documentName string) error {
	if err := r.port.ReleaseLockByName(ctx, collectionID, documentName); err != nil {
		return errs.Backend(err)
	}
	return nil
}

// DeleteExpired removes locks older than expirationSeconds, returning
// the count removed. Callers that hit a Conflict from Acquire may call
// this and retry.
func (r *Registry) DeleteExpired(ctx context.Context, expirationSeconds int) (int64, error) {
	n, err := r.port.DeleteExpiredLocks(ctx, expirationSeconds)
	if err != nil {
		return 0, errs.Backend(err)
	}
	return n, nil
}
