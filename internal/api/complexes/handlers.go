// internal/api/complexes/handlers.go
package complexes

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/canchapro/canchapro/internal/api/apiutil"
	"github.com/canchapro/canchapro/internal/db"
	"github.com/canchapro/canchapro/internal/request"
)

const complexesQueryTimeout = 5 * time.Second

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

type complexResponse struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	District     string `json:"district"`
	Province     string `json:"province"`
	Department   string `json:"department"`
	Verified     bool   `json:"verified"`
	CulqiEnabled bool   `json:"culqi_enabled"`
}

type courtResponse struct {
	ID           int64   `json:"id"`
	Name         string  `json:"name"`
	Sport        string  `json:"sport"`
	Surface      string  `json:"surface"`
	PricePerHour float64 `json:"price_per_hour"`
}

type complexDetailResponse struct {
	complexResponse
	Courts []courtResponse `json:"courts"`
}

func toComplexResponse(c db.Complex) complexResponse {
	return complexResponse{
		ID:           c.ID,
		Name:         c.Name,
		District:     c.District,
		Province:     c.Province,
		Department:   c.Department,
		Verified:     c.Verified,
		CulqiEnabled: c.CulqiEnabled,
	}
}

// GET /api/v1/complexes
func HandleList(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	q := loadQueries()
	if q == nil {
		logger.Error().Msg("Database queries not initialized")
		apiutil.WriteError(w, http.StatusInternalServerError, "internal", "Error interno del servidor")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), complexesQueryTimeout)
	defer cancel()

	list, err := q.ListComplexes(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to list complexes")
		apiutil.WriteError(w, http.StatusInternalServerError, "internal", "No se pudieron cargar los complejos")
		return
	}

	out := make([]complexResponse, 0, len(list))
	for _, c := range list {
		out = append(out, toComplexResponse(c))
	}
	apiutil.WriteJSON(w, http.StatusOK, map[string]any{"complexes": out})
}

// GET /api/v1/complexes/{id}
func HandleDetail(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	q := loadQueries()
	if q == nil {
		logger.Error().Msg("Database queries not initialized")
		apiutil.WriteError(w, http.StatusInternalServerError, "internal", "Error interno del servidor")
		return
	}

	id, ok := request.ParseID(r.PathValue("id"))
	if !ok {
		apiutil.WriteError(w, http.StatusBadRequest, "invalid_request", "id debe ser un entero positivo")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), complexesQueryTimeout)
	defer cancel()

	complexRow, err := q.GetComplex(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			apiutil.WriteError(w, http.StatusNotFound, "not_found", "Complejo no encontrado")
			return
		}
		logger.Error().Err(err).Int64("complex_id", id).Msg("Failed to load complex")
		apiutil.WriteError(w, http.StatusInternalServerError, "internal", "No se pudo cargar el complejo")
		return
	}

	courts, err := q.ListCourtsByComplex(ctx, id)
	if err != nil {
		logger.Error().Err(err).Int64("complex_id", id).Msg("Failed to list courts")
		apiutil.WriteError(w, http.StatusInternalServerError, "internal", "No se pudieron cargar las canchas")
		return
	}

	detail := complexDetailResponse{complexResponse: toComplexResponse(complexRow)}
	for _, c := range courts {
		detail.Courts = append(detail.Courts, courtResponse{
			ID:           c.ID,
			Name:         c.Name,
			Sport:        c.Sport,
			Surface:      c.Surface,
			PricePerHour: c.PricePerHour,
		})
	}
	apiutil.WriteJSON(w, http.StatusOK, detail)
}
