package db_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/canchapro/canchapro/internal/db"
	"github.com/canchapro/canchapro/internal/testutil"
)

func seedCourt(t *testing.T, q *db.Queries) int64 {
	t.Helper()
	ctx := context.Background()

	complexID, err := q.CreateComplex(ctx, db.CreateComplexParams{
		Name:       "Complejo Prueba",
		District:   "Surco",
		Province:   "Lima",
		Department: "Lima",
		Verified:   true,
		OwnerPhone: "51922023667",
		Timezone:   "America/Lima",
	})
	if err != nil {
		t.Fatalf("create complex: %v", err)
	}

	courtID, err := q.CreateCourt(ctx, db.CreateCourtParams{
		ComplexID:    complexID,
		Name:         "Cancha Test",
		Sport:        "futbol",
		Surface:      "grass sintético",
		PricePerHour: 50,
	})
	if err != nil {
		t.Fatalf("create court: %v", err)
	}
	return courtID
}

func TestBlockingReservationOverlap(t *testing.T) {
	database := testutil.NewTestDB(t)
	ctx := context.Background()
	courtID := seedCourt(t, database.Queries)

	start := time.Date(2026, 8, 28, 18, 0, 0, 0, time.UTC)
	end := start.Add(2 * time.Hour)
	if _, err := database.Queries.CreateReservation(ctx, db.CreateReservationParams{
		CourtID:   courtID,
		StartTime: start,
		EndTime:   end,
		Email:     "jugador@example.com",
		Status:    db.ReservationConfirmed,
	}); err != nil {
		t.Fatalf("create reservation: %v", err)
	}

	tests := []struct {
		name string
		from time.Time
		to   time.Time
		want int64
	}{
		{"exact window", start, end, 1},
		{"overlapping tail", start.Add(time.Hour), end.Add(time.Hour), 1},
		{"adjacent after", end, end.Add(time.Hour), 0},
		{"adjacent before", start.Add(-time.Hour), start, 0},
		{"contained", start.Add(30 * time.Minute), start.Add(time.Hour), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := database.Queries.CountBlockingReservations(ctx, courtID, tt.from, tt.to)
			if err != nil {
				t.Fatalf("count: %v", err)
			}
			if n != tt.want {
				t.Errorf("count = %d, want %d", n, tt.want)
			}
		})
	}
}

func TestFailedReservationsDoNotBlock(t *testing.T) {
	database := testutil.NewTestDB(t)
	ctx := context.Background()
	courtID := seedCourt(t, database.Queries)

	start := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	id, err := database.Queries.CreateReservation(ctx, db.CreateReservationParams{
		CourtID:   courtID,
		StartTime: start,
		EndTime:   start.Add(time.Hour),
		Status:    db.ReservationPending,
	})
	if err != nil {
		t.Fatalf("create reservation: %v", err)
	}

	if err := database.Queries.UpdateReservationStatus(ctx, id, db.ReservationFailed); err != nil {
		t.Fatalf("update status: %v", err)
	}

	n, err := database.Queries.CountBlockingReservations(ctx, courtID, start, start.Add(time.Hour))
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Errorf("failed reservation still blocks the slot")
	}
}

func TestExpirePendingReservations(t *testing.T) {
	database := testutil.NewTestDB(t)
	ctx := context.Background()
	courtID := seedCourt(t, database.Queries)

	start := time.Now().UTC().Add(24 * time.Hour).Truncate(time.Hour)
	id, err := database.Queries.CreateReservation(ctx, db.CreateReservationParams{
		CourtID:   courtID,
		StartTime: start,
		EndTime:   start.Add(time.Hour),
		Status:    db.ReservationPending,
	})
	if err != nil {
		t.Fatalf("create reservation: %v", err)
	}

	// Cutoff before creation leaves the hold in place.
	n, err := database.Queries.ExpirePendingReservations(ctx, time.Now().UTC().Add(-time.Hour))
	if err != nil {
		t.Fatalf("expire: %v", err)
	}
	if n != 0 {
		t.Fatalf("expired %d reservations, want 0", n)
	}

	// Cutoff after creation releases it.
	n, err = database.Queries.ExpirePendingReservations(ctx, time.Now().UTC().Add(time.Hour))
	if err != nil {
		t.Fatalf("expire: %v", err)
	}
	if n != 1 {
		t.Fatalf("expired %d reservations, want 1", n)
	}

	blocked, err := database.Queries.CountBlockingReservations(ctx, courtID, start, start.Add(time.Hour))
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if blocked != 0 {
		t.Errorf("expired reservation %d still blocks the slot", id)
	}
}

func TestPaymentRoundTrip(t *testing.T) {
	database := testutil.NewTestDB(t)
	ctx := context.Background()
	courtID := seedCourt(t, database.Queries)

	start := time.Date(2026, 8, 28, 18, 0, 0, 0, time.UTC)
	resID, err := database.Queries.CreateReservation(ctx, db.CreateReservationParams{
		CourtID:   courtID,
		StartTime: start,
		EndTime:   start.Add(2 * time.Hour),
		Email:     "jugador@example.com",
		Status:    db.ReservationConfirmed,
	})
	if err != nil {
		t.Fatalf("create reservation: %v", err)
	}

	if _, err := database.Queries.CreatePayment(ctx, db.CreatePaymentParams{
		ReservationID: resID,
		Provider:      "culqi",
		ProviderRef:   "chr_test_1",
		AmountCents:   10000,
		Currency:      "PEN",
		Status:        db.PaymentSucceeded,
		UsedStepUp:    true,
	}); err != nil {
		t.Fatalf("create payment: %v", err)
	}

	p, err := database.Queries.GetPaymentByReservation(ctx, resID)
	if err != nil {
		t.Fatalf("get payment: %v", err)
	}
	if p.ProviderRef != "chr_test_1" || p.AmountCents != 10000 || !p.UsedStepUp {
		t.Errorf("payment = %+v", p)
	}
}

func TestCourtDetailJoinsComplex(t *testing.T) {
	database := testutil.NewTestDB(t)
	ctx := context.Background()
	courtID := seedCourt(t, database.Queries)

	d, err := database.Queries.GetCourtDetail(ctx, courtID)
	if err != nil {
		t.Fatalf("get court detail: %v", err)
	}
	if d.ComplexName != "Complejo Prueba" || !d.Verified || d.OwnerPhone != "51922023667" {
		t.Errorf("detail = %+v", d)
	}
	if d.Timezone != "America/Lima" {
		t.Errorf("timezone = %q", d.Timezone)
	}
}

// Two write transactions that both re-check availability before inserting
// must serialize: only one may create a hold for the same slot.
func TestOverlappingHoldWritesSerialize(t *testing.T) {
	database := testutil.NewTestDB(t)
	courtID := seedCourt(t, database.Queries)

	start := time.Date(2026, 7, 1, 18, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)
	errTaken := errors.New("slot already held")

	const writers = 6
	var created int32
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := database.RunInTx(context.Background(), func(tx *db.DB) error {
				n, err := tx.Queries.CountBlockingReservations(context.Background(), courtID, start, end)
				if err != nil {
					return err
				}
				if n > 0 {
					return errTaken
				}
				_, err = tx.Queries.CreateReservation(context.Background(), db.CreateReservationParams{
					CourtID:   courtID,
					StartTime: start,
					EndTime:   end,
					Status:    db.ReservationPending,
				})
				return err
			})
			if err == nil {
				atomic.AddInt32(&created, 1)
			} else if !errors.Is(err, errTaken) {
				t.Errorf("unexpected transaction error: %v", err)
			}
		}()
	}
	wg.Wait()

	if created != 1 {
		t.Fatalf("created = %d holds, want exactly 1", created)
	}
	n, err := database.Queries.CountBlockingReservations(context.Background(), courtID, start, end)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Fatalf("blocking reservations = %d, want 1", n)
	}
}
