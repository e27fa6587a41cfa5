package schedule

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/canchapro/canchapro/internal/booking"
)

// blockingFetcher returns canned results, blocking until its context is
// cancelled when told to hang.
type blockingFetcher struct {
	hang    chan struct{} // closed when the hanging fetch has started
	results map[int64]Result
}

func (f *blockingFetcher) Fetch(ctx context.Context, courtID int64, date string) (Result, error) {
	if f.hang != nil {
		select {
		case <-f.hang:
		default:
			close(f.hang)
			<-ctx.Done()
			return Result{}, ctx.Err()
		}
	}
	if res, ok := f.results[courtID]; ok {
		return res, nil
	}
	return Result{Catalog: booking.DefaultCatalog()}, nil
}

func TestLoaderLastRequestWins(t *testing.T) {
	occupied := booking.DefaultCatalog()
	occupied[0].Occupied = true

	fetcher := &blockingFetcher{
		hang:    make(chan struct{}),
		results: map[int64]Result{2: {Catalog: occupied}},
	}
	loader := NewLoader(fetcher)

	firstDone := make(chan error, 1)
	go func() {
		_, err := loader.Fetch(context.Background(), 1, "2026-08-28")
		firstDone <- err
	}()

	// Wait until the first fetch is in flight, then supersede it.
	select {
	case <-fetcher.hang:
	case <-time.After(2 * time.Second):
		t.Fatal("first fetch never started")
	}

	res, err := loader.Fetch(context.Background(), 2, "2026-08-29")
	if err != nil {
		t.Fatalf("second fetch: %v", err)
	}
	if !res.Catalog[0].Occupied {
		t.Fatal("second fetch returned wrong catalog")
	}

	select {
	case err := <-firstDone:
		if !errors.Is(err, ErrSuperseded) && !errors.Is(err, context.Canceled) {
			t.Fatalf("first fetch error = %v, want superseded or cancelled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("first fetch never resolved")
	}

	current, ok := loader.Current()
	if !ok {
		t.Fatal("expected a current catalog")
	}
	if !current.Catalog[0].Occupied {
		t.Fatal("stale result overwrote the newer catalog")
	}
}

func TestLoaderCurrentEmptyBeforeFetch(t *testing.T) {
	loader := NewLoader(&blockingFetcher{})
	if _, ok := loader.Current(); ok {
		t.Fatal("expected no catalog before the first fetch")
	}
}

func TestLoaderSequentialFetches(t *testing.T) {
	fetcher := &blockingFetcher{results: map[int64]Result{
		1: {Catalog: booking.DefaultCatalog()},
		2: {Catalog: booking.DefaultCatalog(), Degraded: true},
	}}
	loader := NewLoader(fetcher)

	if _, err := loader.Fetch(context.Background(), 1, "2026-08-28"); err != nil {
		t.Fatalf("first: %v", err)
	}
	res, err := loader.Fetch(context.Background(), 2, "2026-08-28")
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	if !res.Degraded {
		t.Fatal("expected second result")
	}
	current, _ := loader.Current()
	if !current.Degraded {
		t.Fatal("current should reflect the latest fetch")
	}
}
