// internal/api/payments/handlers.go
package payments

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/canchapro/canchapro/internal/api/apiutil"
	"github.com/canchapro/canchapro/internal/booking"
	"github.com/canchapro/canchapro/internal/db"
	"github.com/canchapro/canchapro/internal/email"
	"github.com/canchapro/canchapro/internal/payments"
	"github.com/canchapro/canchapro/internal/ratelimit"
)

const paymentsQueryTimeout = 5 * time.Second

// Options configure the charge endpoint.
type Options struct {
	Currency   string
	TrustProxy bool
}

var (
	database *db.DB
	charger  payments.Charger
	limiter  *ratelimit.Limiter
	sender   email.EmailSender
	options  Options
	initOnce sync.Once
)

// InitHandlers must be called during server startup before handling requests.
// The email sender may be nil; receipts are skipped then.
func InitHandlers(d *db.DB, c payments.Charger, l *ratelimit.Limiter, s email.EmailSender, opts Options) {
	if d == nil || c == nil {
		return
	}
	initOnce.Do(func() {
		database = d
		charger = c
		limiter = l
		sender = s
		options = opts
		if options.Currency == "" {
			options.Currency = "PEN"
		}
	})
}

type chargeRequest struct {
	CourtID        int64           `json:"court_id"`
	Date           string          `json:"date"`
	StartHour      string          `json:"start_hour"`
	DurationHours  int             `json:"duration_hours"`
	Email          string          `json:"email"`
	TokenID        string          `json:"token_id"`
	DeviceID       string          `json:"device_id"`
	ReservationID  *int64          `json:"reservation_id"`
	Authentication json.RawMessage `json:"authentication_3ds"`
}

type chargeResponse struct {
	Status        string `json:"status"`
	ReservationID int64  `json:"reservation_id"`
	ProviderRef   string `json:"provider_ref,omitempty"`
}

// POST /api/v1/payments/charge
//
// Runs one card charge for a reservation. A provider answer that requires
// 3-D Secure comes back as 409 with code "3ds_required" and the pending
// reservation id; the client completes the step-up in the browser and
// resubmits the same request with reservation_id and authentication_3ds set.
func HandleCharge(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	if database == nil || charger == nil {
		logger.Error().Msg("Payment handlers not initialized")
		apiutil.WriteError(w, http.StatusInternalServerError, "internal", "Error interno del servidor")
		return
	}

	var req chargeRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if err := validateChargeRequest(req); err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), paymentsQueryTimeout)
	defer cancel()

	detail, err := database.Queries.GetCourtDetail(ctx, req.CourtID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			apiutil.WriteError(w, http.StatusNotFound, "not_found", "Cancha no encontrada")
			return
		}
		logger.Error().Err(err).Int64("court_id", req.CourtID).Msg("Failed to load court")
		apiutil.WriteError(w, http.StatusInternalServerError, "internal", "No se pudo cargar la cancha")
		return
	}
	if !detail.Verified || !detail.CulqiEnabled {
		apiutil.WriteError(w, http.StatusUnprocessableEntity, "payments_disabled", "Este complejo no acepta pagos en línea")
		return
	}

	ip := ratelimit.GetClientIP(r, options.TrustProxy)
	if limiter != nil {
		if result := limiter.CheckCharge(req.Email, ip); !result.Allowed {
			ratelimit.LogRateLimitExceeded("charge", req.Email, ip, result.Reason)
			w.Header().Set("Retry-After", strconv.Itoa(int(result.RetryAfter.Seconds())+1))
			apiutil.WriteError(w, http.StatusTooManyRequests, "rate_limited", "Demasiados intentos de pago, inténtalo más tarde")
			return
		}
		limiter.RecordCharge(req.Email, ip)
	}

	loc, err := time.LoadLocation(detail.Timezone)
	if err != nil {
		logger.Error().Err(err).Str("timezone", detail.Timezone).Msg("Invalid complex timezone")
		loc = time.UTC
	}

	var reservation db.Reservation
	if req.ReservationID != nil {
		reservation, err = resumeReservation(ctx, req)
	} else {
		reservation, err = holdReservation(ctx, req, detail, loc)
	}
	if err != nil {
		writeReservationError(w, logger, err)
		return
	}

	amountCents := chargeAmountCents(reservation, detail.PricePerHour)
	dateText, timeRange := email.FormatDateTimeRange(reservation.StartTime.In(loc), reservation.EndTime.In(loc))

	flow := payments.NewFlow(nil, charger, nil)
	result, err := flow.Run(ctx, payments.CheckoutParams{
		AmountCents: amountCents,
		Currency:    options.Currency,
		Title:       detail.ComplexName,
	}, payments.ChargeRequest{
		TokenID:         req.TokenID,
		AmountCents:     amountCents,
		Currency:        options.Currency,
		Description:     fmt.Sprintf("Reserva %s - %s %s", detail.Court.Name, dateText, timeRange),
		Email:           req.Email,
		DeviceID:        req.DeviceID,
		StepUpAssertion: req.Authentication,
	})
	if err != nil {
		// The charge outcome is unknown, keep the hold until it expires.
		logger.Error().Err(err).Int64("reservation_id", reservation.ID).Msg("Charge attempt failed")
		apiutil.WriteError(w, http.StatusBadGateway, "payment_error", "No se pudo procesar el pago, inténtalo de nuevo")
		return
	}

	switch result.Status {
	case payments.ChargeSucceeded:
		if err := recordOutcome(ctx, reservation, result, amountCents, req, db.ReservationConfirmed, db.PaymentSucceeded); err != nil {
			logger.Error().Err(err).Int64("reservation_id", reservation.ID).Msg("Failed to record confirmed reservation")
			apiutil.WriteError(w, http.StatusInternalServerError, "internal", "No se pudo registrar la reserva")
			return
		}
		if limiter != nil {
			limiter.ResetFailures(req.Email)
		}
		email.SendReceiptEmail(r.Context(), sender, req.Email, email.BuildReceiptEmail(email.ReceiptDetails{
			ComplexName: detail.ComplexName,
			CourtName:   detail.Court.Name,
			Date:        dateText,
			TimeRange:   timeRange,
			AmountCents: amountCents,
			Currency:    options.Currency,
			ProviderRef: result.ProviderRef,
		}), logger)
		apiutil.WriteJSON(w, http.StatusOK, chargeResponse{
			Status:        "confirmed",
			ReservationID: reservation.ID,
			ProviderRef:   result.ProviderRef,
		})

	case payments.ChargeNeedsStepUp:
		// The hold stays pending while the browser runs the step-up.
		apiutil.WriteJSON(w, http.StatusConflict, map[string]any{
			"error":          map[string]string{"code": "3ds_required", "message": "La tarjeta requiere autenticación adicional"},
			"reservation_id": reservation.ID,
		})

	default:
		if limiter != nil {
			limiter.RecordFailure(req.Email)
		}
		if err := recordOutcome(ctx, reservation, result, amountCents, req, db.ReservationFailed, db.PaymentFailed); err != nil {
			logger.Error().Err(err).Int64("reservation_id", reservation.ID).Msg("Failed to record declined charge")
		}
		apiutil.WriteError(w, http.StatusPaymentRequired, "payment_declined", result.Message)
	}
}

func validateChargeRequest(req chargeRequest) error {
	if req.CourtID <= 0 {
		return fmt.Errorf("court_id es obligatorio")
	}
	if req.TokenID == "" {
		return fmt.Errorf("token_id es obligatorio")
	}
	if !strings.Contains(req.Email, "@") {
		return fmt.Errorf("email es obligatorio")
	}
	if req.ReservationID == nil {
		if _, err := apiutil.ParseDateField(req.Date, "date"); err != nil {
			return err
		}
		if req.StartHour == "" {
			return fmt.Errorf("start_hour es obligatorio")
		}
		if req.DurationHours < 1 || req.DurationHours > booking.MaxDurationHours {
			return fmt.Errorf("duration_hours debe estar entre 1 y %d", booking.MaxDurationHours)
		}
	}
	return nil
}

type reservationError struct {
	status  int
	code    string
	message string
}

func (e reservationError) Error() string { return e.message }

func writeReservationError(w http.ResponseWriter, logger *zerolog.Logger, err error) {
	var resErr reservationError
	if errors.As(err, &resErr) {
		apiutil.WriteError(w, resErr.status, resErr.code, resErr.message)
		return
	}
	logger.Error().Err(err).Msg("Failed to prepare reservation")
	apiutil.WriteError(w, http.StatusInternalServerError, "internal", "No se pudo preparar la reserva")
}

var errSlotUnavailable = reservationError{
	status:  http.StatusConflict,
	code:    "slot_unavailable",
	message: "Las horas solicitadas ya no están disponibles",
}

// holdReservation validates the requested range against the live schedule and
// creates the pending reservation that holds the slot while payment runs. The
// insert re-checks for overlaps inside a write transaction, so two concurrent
// charges for the same slot can never both acquire a hold.
func holdReservation(ctx context.Context, req chargeRequest, detail db.CourtDetail, loc *time.Location) (db.Reservation, error) {
	date, _ := time.Parse("2006-01-02", req.Date)
	catalog, err := apiutil.DayCatalog(ctx, database.Queries, detail.Court.ID, date, loc)
	if err != nil {
		return db.Reservation{}, err
	}
	hours, err := catalog.BuildSelection(req.StartHour, req.DurationHours)
	if err != nil {
		return db.Reservation{}, errSlotUnavailable
	}

	sel := booking.Selection{StartHour: req.StartHour, Duration: req.DurationHours, Hours: hours}
	intent, err := booking.NewIntent(detail.Court.ID, req.Date, sel, detail.PricePerHour)
	if err != nil {
		return db.Reservation{}, err
	}
	start, err := intent.StartAt(loc)
	if err != nil {
		return db.Reservation{}, err
	}
	end, err := intent.EndAt(loc)
	if err != nil {
		return db.Reservation{}, err
	}

	var id int64
	err = database.RunInTx(ctx, func(tx *db.DB) error {
		n, err := tx.Queries.CountBlockingReservations(ctx, detail.Court.ID, start.UTC(), end.UTC())
		if err != nil {
			return err
		}
		if n > 0 {
			return errSlotUnavailable
		}
		id, err = tx.Queries.CreateReservation(ctx, db.CreateReservationParams{
			CourtID:   detail.Court.ID,
			StartTime: start.UTC(),
			EndTime:   end.UTC(),
			Email:     req.Email,
			Status:    db.ReservationPending,
		})
		return err
	})
	if err != nil {
		return db.Reservation{}, err
	}
	return database.Queries.GetReservation(ctx, id)
}

// resumeReservation loads the pending hold created by the first attempt of a
// step-up flow.
func resumeReservation(ctx context.Context, req chargeRequest) (db.Reservation, error) {
	reservation, err := database.Queries.GetReservation(ctx, *req.ReservationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return db.Reservation{}, reservationError{
				status:  http.StatusNotFound,
				code:    "not_found",
				message: "Reserva no encontrada",
			}
		}
		return db.Reservation{}, err
	}
	if reservation.Status != db.ReservationPending || reservation.CourtID != req.CourtID {
		return db.Reservation{}, reservationError{
			status:  http.StatusConflict,
			code:    "slot_unavailable",
			message: "La reserva ya no se puede pagar",
		}
	}
	return reservation, nil
}

func recordOutcome(ctx context.Context, reservation db.Reservation, result payments.ChargeResult, amountCents int64, req chargeRequest, reservationStatus, paymentStatus string) error {
	return database.RunInTx(ctx, func(tx *db.DB) error {
		if err := tx.Queries.UpdateReservationStatus(ctx, reservation.ID, reservationStatus); err != nil {
			return err
		}
		_, err := tx.Queries.CreatePayment(ctx, db.CreatePaymentParams{
			ReservationID: reservation.ID,
			Provider:      "culqi",
			ProviderRef:   result.ProviderRef,
			AmountCents:   amountCents,
			Currency:      options.Currency,
			Status:        paymentStatus,
			UsedStepUp:    len(req.Authentication) > 0,
		})
		return err
	})
}

func chargeAmountCents(reservation db.Reservation, pricePerHour float64) int64 {
	hours := reservation.EndTime.Sub(reservation.StartTime).Hours()
	cents := int64(pricePerHour*hours*100 + 0.5)
	if cents < 1 {
		return 1
	}
	return cents
}
