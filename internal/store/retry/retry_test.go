package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lattice-db/lattice/internal/store"
)

func TestDoSucceedsWithoutRetry(t *testing.T) {
	calls := 0
	err := Do(context.Background(), DefaultPolicy, func(ctx context.Context) error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestDoRetriesTransientError(t *testing.T) {
	calls := 0
	// Two default backoff waits total 625ms-1875ms; the budget must cover both.
	err := Do(context.Background(), Policy{MaxElapsed: 5 * time.Second}, func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("database is locked")
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestDoDoesNotRetryNotFound(t *testing.T) {
	calls := 0
	err := Do(context.Background(), DefaultPolicy, func(ctx context.Context) error {
		calls++
		return store.ErrNotFound
	})
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound to surface unwrapped, got %v", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1 (no retry on a semantic error)", calls)
	}
}

func TestDoGivesUpAfterElapsedBudget(t *testing.T) {
	calls := 0
	// The first default backoff wait is 250ms-750ms, so a 1s budget allows
	// at least one retry and gives up within a few attempts.
	err := Do(context.Background(), Policy{MaxElapsed: time.Second}, func(ctx context.Context) error {
		calls++
		return errors.New("connection refused")
	})
	if err == nil {
		t.Fatal("expected an error once the elapsed-time budget is exhausted")
	}
	if calls < 2 {
		t.Errorf("expected at least one retry before giving up, got %d calls", calls)
	}
}
