package schedule

import (
	"context"
	"errors"
	"sync"
)

// ErrSuperseded is returned to a fetch that lost the race against a newer one.
var ErrSuperseded = errors.New("schedule fetch superseded by a newer request")

// Fetcher is the slice of Client the loader needs; tests substitute fakes.
type Fetcher interface {
	Fetch(ctx context.Context, courtID int64, date string) (Result, error)
}

// Loader serializes catalog fetches with last-request-wins semantics: starting
// a fetch cancels the in-flight one, and a stale result is discarded instead
// of overwriting a newer catalog.
type Loader struct {
	fetcher Fetcher

	mu      sync.Mutex
	cancel  context.CancelFunc
	gen     uint64
	current Result
	loaded  bool
}

// NewLoader wraps a fetcher with last-request-wins coordination.
func NewLoader(fetcher Fetcher) *Loader {
	return &Loader{fetcher: fetcher}
}

// Fetch loads the catalog for (courtID, date), cancelling any fetch still in
// flight. If a newer Fetch starts before this one resolves, the stale result
// is dropped and ErrSuperseded returned.
func (l *Loader) Fetch(ctx context.Context, courtID int64, date string) (Result, error) {
	l.mu.Lock()
	if l.cancel != nil {
		l.cancel()
	}
	fetchCtx, cancel := context.WithCancel(ctx)
	l.cancel = cancel
	l.gen++
	gen := l.gen
	l.mu.Unlock()

	res, err := l.fetcher.Fetch(fetchCtx, courtID, date)

	l.mu.Lock()
	defer l.mu.Unlock()
	if gen != l.gen {
		cancel()
		return Result{}, ErrSuperseded
	}
	l.cancel = nil
	cancel()
	if err != nil {
		return Result{}, err
	}
	l.current = res
	l.loaded = true
	return res, nil
}

// Current returns the most recently applied catalog, if any fetch has
// completed without being superseded.
func (l *Loader) Current() (Result, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.current, l.loaded
}
