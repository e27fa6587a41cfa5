package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/canchapro/canchapro/internal/db"
	"github.com/canchapro/canchapro/internal/email"
)

const reminderJobWindow = 15 * time.Minute

// RegisterReminderJobs registers the reservation reminder task. Every run
// scans the 15-minute window that sits hoursBefore ahead of now, so each
// confirmed reservation is reminded exactly once.
func RegisterReminderJobs(database *db.DB, emailClient *email.SESClient, hoursBefore int, sender string) error {
	if database == nil {
		return fmt.Errorf("reminder jobs require database")
	}
	if hoursBefore <= 0 {
		hoursBefore = 24
	}

	jobName := "reservation_reminders"
	cronExpr := "*/15 * * * *"
	jobLogger := log.With().
		Str("component", "reservation_reminders_job").
		Str("job_name", jobName).
		Str("cron", cronExpr).
		Logger()

	_, err := AddJob(jobName, cronExpr, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		ctx = jobLogger.WithContext(ctx)

		if emailClient == nil {
			jobLogger.Debug().Msg("Reminder job skipped: email client not configured")
			return
		}

		now := time.Now().UTC()
		windowStart := now.Add(time.Duration(hoursBefore) * time.Hour)
		windowEnd := windowStart.Add(reminderJobWindow)

		reservations, err := database.Queries.ListUpcomingConfirmed(ctx, windowStart, windowEnd)
		if err != nil {
			jobLogger.Error().Err(err).Msg("Failed to load reservations for reminder job")
			return
		}

		for _, reservation := range reservations {
			detail, err := database.Queries.GetCourtDetail(ctx, reservation.CourtID)
			if err != nil {
				jobLogger.Error().Err(err).Int64("reservation_id", reservation.ID).Msg("Failed to load court for reminder")
				continue
			}

			loc := time.UTC
			if detail.Timezone != "" {
				if loadedLoc, loadErr := time.LoadLocation(detail.Timezone); loadErr == nil {
					loc = loadedLoc
				} else {
					jobLogger.Warn().Err(loadErr).Str("timezone", detail.Timezone).Msg("Invalid complex timezone, using UTC")
				}
			}

			date, timeRange := email.FormatDateTimeRange(reservation.StartTime.In(loc), reservation.EndTime.In(loc))
			message := email.BuildReminderEmail(email.ReminderDetails{
				ComplexName: detail.ComplexName,
				CourtName:   detail.Court.Name,
				Date:        date,
				TimeRange:   timeRange,
			})
			email.SendReminderEmail(ctx, emailClient, reservation.Email, message, sender, &jobLogger)
		}
	})
	if err != nil {
		return fmt.Errorf("register reminder job: %w", err)
	}
	return nil
}
