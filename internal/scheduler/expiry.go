package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/canchapro/canchapro/internal/db"
)

// ExpirePendingHolds releases pending reservations older than maxAge. A hold
// is created before charging; if the payment never completes the slot must
// return to the pool.
func ExpirePendingHolds(ctx context.Context, database *db.DB, now time.Time, maxAge time.Duration) (int64, error) {
	if database == nil {
		return 0, fmt.Errorf("pending hold expiry requires database")
	}

	expired, err := database.Queries.ExpirePendingReservations(ctx, now.Add(-maxAge))
	if err != nil {
		return 0, fmt.Errorf("expire pending reservations: %w", err)
	}
	if expired > 0 {
		log.Ctx(ctx).Info().Int64("expired", expired).Msg("Released stale pending reservations")
	}
	return expired, nil
}

// RegisterExpiryJob registers the periodic pending-hold expiry task.
func RegisterExpiryJob(database *db.DB, maxAge time.Duration) error {
	if database == nil {
		return fmt.Errorf("expiry job requires database")
	}
	if maxAge <= 0 {
		maxAge = 30 * time.Minute
	}

	jobName := "pending_hold_expiry"
	cronExpr := "*/5 * * * *"
	jobLogger := log.With().
		Str("component", "pending_hold_expiry_job").
		Str("job_name", jobName).
		Str("cron", cronExpr).
		Logger()

	_, err := AddJob(jobName, cronExpr, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		ctx = jobLogger.WithContext(ctx)

		if _, err := ExpirePendingHolds(ctx, database, time.Now().UTC(), maxAge); err != nil {
			jobLogger.Error().Err(err).Msg("Pending hold expiry failed")
		}
	})
	if err != nil {
		return fmt.Errorf("register expiry job: %w", err)
	}
	return nil
}
