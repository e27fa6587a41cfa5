// internal/api/reservations/handlers.go
package reservations

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/canchapro/canchapro/internal/api/apiutil"
	"github.com/canchapro/canchapro/internal/booking"
	"github.com/canchapro/canchapro/internal/db"
	"github.com/canchapro/canchapro/internal/whatsapp"
)

const reservationsQueryTimeout = 5 * time.Second

var (
	queries     *db.Queries
	queriesOnce sync.Once
)

// InitHandlers must be called during server startup before handling requests.
func InitHandlers(q *db.Queries) {
	if q == nil {
		return
	}
	queriesOnce.Do(func() {
		queries = q
	})
}

func loadQueries() *db.Queries {
	return queries
}

type whatsappRequest struct {
	CourtID       *int64 `json:"court_id"`
	ComplexID     *int64 `json:"complex_id"`
	Date          string `json:"date"`
	StartHour     string `json:"start_hour"`
	DurationHours int    `json:"duration_hours"`
}

type whatsappResponse struct {
	Phone         string  `json:"phone"`
	Message       string  `json:"message"`
	Link          string  `json:"link"`
	StartHour     string  `json:"start_hour"`
	EndHour       string  `json:"end_hour,omitempty"`
	DurationHours int     `json:"duration_hours"`
	TotalPrice    float64 `json:"total_price,omitempty"`
}

// POST /api/v1/reservations/whatsapp
//
// Builds the prefilled WhatsApp message and wa.me deep link for a reservation
// request. With a court_id the requested range is reconciled against the
// court's day schedule; with only a complex_id the request is passed through
// as-is, since unverified complexes publish no schedule.
func HandleWhatsApp(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	q := loadQueries()
	if q == nil {
		logger.Error().Msg("Database queries not initialized")
		apiutil.WriteError(w, http.StatusInternalServerError, "internal", "Error interno del servidor")
		return
	}

	var req whatsappRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	if _, err := apiutil.ParseDateField(req.Date, "date"); err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	switch {
	case req.CourtID != nil:
		handleCourtRequest(w, r, q, req)
	case req.ComplexID != nil:
		handleStandardRequest(w, r, q, req)
	default:
		apiutil.WriteError(w, http.StatusBadRequest, "invalid_request", "se requiere court_id o complex_id")
	}
}

func handleCourtRequest(w http.ResponseWriter, r *http.Request, q *db.Queries, req whatsappRequest) {
	logger := log.Ctx(r.Context())

	ctx, cancel := context.WithTimeout(r.Context(), reservationsQueryTimeout)
	defer cancel()

	detail, err := q.GetCourtDetail(ctx, *req.CourtID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			apiutil.WriteError(w, http.StatusNotFound, "not_found", "Cancha no encontrada")
			return
		}
		logger.Error().Err(err).Int64("court_id", *req.CourtID).Msg("Failed to load court")
		apiutil.WriteError(w, http.StatusInternalServerError, "internal", "No se pudo cargar la cancha")
		return
	}

	phone, err := whatsapp.NormalizePhone(detail.OwnerPhone)
	if err != nil || !whatsapp.ValidMobile(phone) {
		apiutil.WriteError(w, http.StatusUnprocessableEntity, "no_whatsapp", "Este complejo no tiene contacto de WhatsApp")
		return
	}

	loc, err := time.LoadLocation(detail.Timezone)
	if err != nil {
		logger.Error().Err(err).Str("timezone", detail.Timezone).Msg("Invalid complex timezone")
		loc = time.UTC
	}

	date, _ := apiutil.ParseDateField(req.Date, "date")
	catalog, err := apiutil.DayCatalog(ctx, q, detail.Court.ID, date, loc)
	if err != nil {
		logger.Error().Err(err).Int64("court_id", detail.Court.ID).Msg("Failed to build day catalog")
		apiutil.WriteError(w, http.StatusInternalServerError, "internal", "No se pudo cargar el horario")
		return
	}

	sel := booking.DeriveSelection(catalog, req.StartHour, req.DurationHours)
	intent, err := booking.NewIntent(detail.Court.ID, req.Date, sel, detail.PricePerHour)
	if err != nil {
		apiutil.WriteError(w, http.StatusConflict, "slot_unavailable", "Las horas solicitadas no están disponibles")
		return
	}

	message := whatsapp.BuildCourtMessage(whatsapp.CourtDetails{
		ComplexName:  detail.ComplexName,
		Zone:         whatsapp.FormatZone(detail.District, "", ""),
		CourtName:    detail.Court.Name,
		CourtType:    detail.Sport,
		Surface:      detail.Surface,
		PricePerHour: detail.PricePerHour,
		Date:         intent.Date,
		HourRange:    catalog.FormatHourRange(intent.StartHour, intent.DurationHours),
		Duration:     intent.DurationHours,
	})

	apiutil.WriteJSON(w, http.StatusOK, whatsappResponse{
		Phone:         phone,
		Message:       message,
		Link:          whatsapp.BuildLink(phone, message),
		StartHour:     intent.StartHour,
		EndHour:       intent.EndHour,
		DurationHours: intent.DurationHours,
		TotalPrice:    intent.TotalPrice,
	})
}

func handleStandardRequest(w http.ResponseWriter, r *http.Request, q *db.Queries, req whatsappRequest) {
	logger := log.Ctx(r.Context())

	ctx, cancel := context.WithTimeout(r.Context(), reservationsQueryTimeout)
	defer cancel()

	complexRow, err := q.GetComplex(ctx, *req.ComplexID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			apiutil.WriteError(w, http.StatusNotFound, "not_found", "Complejo no encontrado")
			return
		}
		logger.Error().Err(err).Int64("complex_id", *req.ComplexID).Msg("Failed to load complex")
		apiutil.WriteError(w, http.StatusInternalServerError, "internal", "No se pudo cargar el complejo")
		return
	}

	phone, err := whatsapp.NormalizePhone(complexRow.OwnerPhone)
	if err != nil || !whatsapp.ValidMobile(phone) {
		apiutil.WriteError(w, http.StatusUnprocessableEntity, "no_whatsapp", "Este complejo no tiene contacto de WhatsApp")
		return
	}

	duration := req.DurationHours
	if duration < 1 {
		duration = 1
	}
	if duration > booking.MaxDurationHours {
		duration = booking.MaxDurationHours
	}

	var priceMin, priceMax *float64
	if courts, err := q.ListCourtsByComplex(ctx, complexRow.ID); err == nil && len(courts) > 0 {
		min, max := courts[0].PricePerHour, courts[0].PricePerHour
		for _, c := range courts[1:] {
			if c.PricePerHour < min {
				min = c.PricePerHour
			}
			if c.PricePerHour > max {
				max = c.PricePerHour
			}
		}
		priceMin, priceMax = &min, &max
	}

	hourRange := req.StartHour
	if hourRange == "" {
		hourRange = "Por coordinar"
	}

	message := whatsapp.BuildStandardMessage(whatsapp.StandardDetails{
		ComplexName: complexRow.Name,
		Zone:        whatsapp.FormatZone(complexRow.District, complexRow.Province, complexRow.Department),
		PriceMin:    priceMin,
		PriceMax:    priceMax,
		Date:        req.Date,
		HourRange:   hourRange,
		Duration:    duration,
	})

	apiutil.WriteJSON(w, http.StatusOK, whatsappResponse{
		Phone:         phone,
		Message:       message,
		Link:          whatsapp.BuildLink(phone, message),
		StartHour:     req.StartHour,
		DurationHours: duration,
	})
}
