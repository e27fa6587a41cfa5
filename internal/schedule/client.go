// Package schedule fetches the per-(court, date) slot catalog from the
// scheduling endpoint and keeps it fresh under rapid court/date changes.
package schedule

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/canchapro/canchapro/internal/booking"
)

// FetchPolicy controls what happens when the schedule endpoint fails or
// returns no data.
type FetchPolicy string

const (
	// PolicyAssumeFree substitutes the default full-day catalog with every
	// slot free, surfacing only a soft warning. The booking UI never blocks
	// on a transient schedule outage.
	PolicyAssumeFree FetchPolicy = "assume_free"
	// PolicyBlock propagates the fetch failure as a hard error.
	PolicyBlock FetchPolicy = "block"
)

const defaultFetchTimeout = 5 * time.Second

// ErrScheduleUnavailable is returned under PolicyBlock when no catalog could
// be fetched.
var ErrScheduleUnavailable = errors.New("schedule unavailable for court and date")

// Result carries a fetched catalog. Degraded marks the fail-open fallback so
// callers can surface a non-blocking hint instead of an error banner.
type Result struct {
	Catalog  booking.Catalog
	Degraded bool
}

// Client fetches slot catalogs over HTTP.
type Client struct {
	baseURL string
	policy  FetchPolicy
	httpc   *http.Client
}

// NewClient builds a schedule client for the given endpoint base URL. An empty
// policy defaults to PolicyAssumeFree; a zero timeout gets a sane default.
func NewClient(baseURL string, policy FetchPolicy, timeout time.Duration) *Client {
	if policy == "" {
		policy = PolicyAssumeFree
	}
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}
	return &Client{
		baseURL: baseURL,
		policy:  policy,
		httpc:   &http.Client{Timeout: timeout},
	}
}

type slotsResponse struct {
	Slots []booking.Slot `json:"slots"`
}

// Fetch loads the catalog for one (court, date) pair. Context cancellation is
// always propagated as an error so a superseded request can never be mistaken
// for a schedule outage and fail open with stale defaults.
func (c *Client) Fetch(ctx context.Context, courtID int64, date string) (Result, error) {
	catalog, err := c.fetch(ctx, courtID, date)
	if err != nil {
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		log.Ctx(ctx).Warn().
			Err(err).
			Int64("court_id", courtID).
			Str("date", date).
			Msg("Schedule fetch failed")
		return c.fallback(err)
	}
	if len(catalog) == 0 {
		log.Ctx(ctx).Warn().
			Int64("court_id", courtID).
			Str("date", date).
			Msg("Schedule endpoint returned no slots")
		return c.fallback(ErrScheduleUnavailable)
	}
	return Result{Catalog: catalog}, nil
}

func (c *Client) fallback(cause error) (Result, error) {
	if c.policy == PolicyBlock {
		return Result{}, fmt.Errorf("%w: %w", ErrScheduleUnavailable, cause)
	}
	return Result{Catalog: booking.DefaultCatalog(), Degraded: true}, nil
}

func (c *Client) fetch(ctx context.Context, courtID int64, date string) (booking.Catalog, error) {
	endpoint := fmt.Sprintf("%s/courts/%d/schedule?date=%s", c.baseURL, courtID, url.QueryEscape(date))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build schedule request: %w", err)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("schedule request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("schedule request: unexpected status %d", resp.StatusCode)
	}

	var body slotsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode schedule response: %w", err)
	}
	return booking.Catalog(body.Slots), nil
}
