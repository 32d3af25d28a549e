package lock

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/lattice-db/lattice/internal/errs"
	"github.com/lattice-db/lattice/internal/store/sqlitestore"
)

func openTestStore(t *testing.T) *sqlitestore.Store {
	t.Helper()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "lattice.db")
	s, err := sqlitestore.Open(ctx, path)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestAcquireThenConflict(t *testing.T) {
	ctx := context.Background()
	r := New(openTestStore(t))

	l, err := r.Acquire(ctx, "col_1", "widget.json", "host-a")
	if err != nil {
		t.Fatal(err)
	}
	if l.Hostname != "host-a" {
		t.Errorf("Hostname = %q, want host-a", l.Hostname)
	}

	_, err = r.Acquire(ctx, "col_1", "widget.json", "host-b")
	if !errs.Is(err, errs.KindConflict) {
		t.Fatalf("expected KindConflict from a second acquire, got %v", err)
	}
}

func TestReleaseThenReacquire(t *testing.T) {
	ctx := context.Background()
	r := New(openTestStore(t))

	l, err := r.Acquire(ctx, "col_1", "widget.json", "host-a")
	if err != nil {
		t.Fatal(err)
	}
	if err := r.Release(ctx, l.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Acquire(ctx, "col_1", "widget.json", "host-b"); err != nil {
		t.Fatalf("expected reacquire to succeed after release, got %v", err)
	}
}

func TestReleaseByName(t *testing.T) {
	ctx := context.Background()
	r := New(openTestStore(t))

	if _, err := r.Acquire(ctx, "col_1", "widget.json", "host-a"); err != nil {
		t.Fatal(err)
	}
	if err := r.ReleaseByName(ctx, "col_1", "widget.json"); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Acquire(ctx, "col_1", "widget.json", "host-b"); err != nil {
		t.Fatalf("expected reacquire to succeed after ReleaseByName, got %v", err)
	}
}

func TestLocksAreScopedPerDocumentName(t *testing.T) {
	ctx := context.Background()
	r := New(openTestStore(t))

	if _, err := r.Acquire(ctx, "col_1", "widget.json", "host-a"); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Acquire(ctx, "col_1", "gadget.json", "host-b"); err != nil {
		t.Fatalf("a different document name should not conflict, got %v", err)
	}
}

func TestDeleteExpired(t *testing.T) {
	ctx := context.Background()
	r := New(openTestStore(t))

	if _, err := r.Acquire(ctx, "col_1", "widget.json", "host-a"); err != nil {
		t.Fatal(err)
	}
	n, err := r.DeleteExpired(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if n < 1 {
		t.Errorf("expected at least one expired lock removed with a 0s expiration, got %d", n)
	}
	if _, err := r.Acquire(ctx, "col_1", "widget.json", "host-b"); err != nil {
		t.Fatalf("expected reacquire to succeed after expiry sweep, got %v", err)
	}
}
