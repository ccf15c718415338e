package valuation

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/foliotrack/foliotrack/internal/domain"
)

// Handlers contains HTTP handlers for the valuation API
type Handlers struct {
	service *Service
	log     zerolog.Logger
}

// NewHandlers creates a new valuation handlers instance
func NewHandlers(service *Service, log zerolog.Logger) *Handlers {
	return &Handlers{
		service: service,
		log:     log.With().Str("handler", "valuation").Logger(),
	}
}

// HandleSnapshot returns the open-position valuation report
// GET /api/portfolios/{portfolioID}/snapshot
func (h *Handlers) HandleSnapshot(w http.ResponseWriter, r *http.Request) {
	portfolioID, ok := h.portfolioID(w, r)
	if !ok {
		return
	}

	snapshot, err := h.service.ComputeSnapshot(portfolioID)
	if err != nil {
		h.fail(w, err, portfolioID, "Failed to compute snapshot")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(snapshot)
}

// HandleHoldings returns the full holdings report, including closed
// and oversold positions
// GET /api/portfolios/{portfolioID}/holdings
func (h *Handlers) HandleHoldings(w http.ResponseWriter, r *http.Request) {
	portfolioID, ok := h.portfolioID(w, r)
	if !ok {
		return
	}

	rows, err := h.service.ComputeHoldingsReport(portfolioID)
	if err != nil {
		h.fail(w, err, portfolioID, "Failed to compute holdings report")
		return
	}

	if rows == nil {
		rows = []HoldingRow{}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(rows)
}

// HandleRebuild forces a holdings projection rebuild
// POST /api/portfolios/{portfolioID}/holdings/rebuild
func (h *Handlers) HandleRebuild(w http.ResponseWriter, r *http.Request) {
	portfolioID, ok := h.portfolioID(w, r)
	if !ok {
		return
	}

	if err := h.service.RebuildHoldings(portfolioID); err != nil {
		h.fail(w, err, portfolioID, "Failed to rebuild holdings")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "rebuilt"})
}

func (h *Handlers) portfolioID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "portfolioID"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid portfolio ID", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func (h *Handlers) fail(w http.ResponseWriter, err error, portfolioID int64, msg string) {
	h.log.Error().Err(err).Int64("portfolio_id", portfolioID).Msg(msg)

	var inconsistency *domain.DataInconsistencyError
	if errors.As(err, &inconsistency) {
		http.Error(w, inconsistency.Error(), http.StatusUnprocessableEntity)
		return
	}

	http.Error(w, msg, http.StatusInternalServerError)
}
