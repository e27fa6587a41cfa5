// internal/api/courts/handlers.go
package courts

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

const courtsQueryTimeout = 5 * time.Second

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

// GET /api/v1/courts/{id}/schedule?date=YYYY-MM-DD
func HandleSchedule(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	q := loadQueries()
	if q == nil {
		logger.Error().Msg("Database queries not initialized")
		apiutil.WriteError(w, http.StatusInternalServerError, "internal", "Error interno del servidor")
		return
	}

	courtID, ok := request.ParseID(r.PathValue("id"))
	if !ok {
		apiutil.WriteError(w, http.StatusBadRequest, "invalid_request", "id debe ser un entero positivo")
		return
	}

	date, ok := request.ParseDate(r.URL.Query().Get("date"))
	if !ok {
		apiutil.WriteError(w, http.StatusBadRequest, "invalid_request", "date debe ser una fecha en formato YYYY-MM-DD")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), courtsQueryTimeout)
	defer cancel()

	detail, err := q.GetCourtDetail(ctx, courtID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			apiutil.WriteError(w, http.StatusNotFound, "not_found", "Cancha no encontrada")
			return
		}
		logger.Error().Err(err).Int64("court_id", courtID).Msg("Failed to load court")
		apiutil.WriteError(w, http.StatusInternalServerError, "internal", "No se pudo cargar la cancha")
		return
	}

	loc, err := time.LoadLocation(detail.Timezone)
	if err != nil {
		logger.Error().Err(err).Str("timezone", detail.Timezone).Msg("Invalid complex timezone")
		loc = time.UTC
	}

	catalog, err := apiutil.DayCatalog(ctx, q, courtID, date, loc)
	if err != nil {
		logger.Error().Err(err).Int64("court_id", courtID).Msg("Failed to build day catalog")
		apiutil.WriteError(w, http.StatusInternalServerError, "internal", "No se pudo cargar el horario")
		return
	}

	apiutil.WriteJSON(w, http.StatusOK, map[string]any{
		"court_id": courtID,
		"date":     date.Format("2006-01-02"),
		"slots":    catalog,
	})
}
