package prices

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/foliotrack/foliotrack/pkg/formulas"
)

// SecurityResolver resolves a security ID to its ticker for history
// file lookups.
type SecurityResolver interface {
	ResolveTicker(securityID int64) (string, error)
}

// Handlers contains HTTP handlers for the price store API
type Handlers struct {
	repo     *Repository
	history  *HistoryDB
	resolver SecurityResolver
	log      zerolog.Logger
}

// NewHandlers creates a new prices handlers instance
func NewHandlers(repo *Repository, history *HistoryDB, resolver SecurityResolver, log zerolog.Logger) *Handlers {
	return &Handlers{
		repo:     repo,
		history:  history,
		resolver: resolver,
		log:      log.With().Str("handler", "prices").Logger(),
	}
}

// HandleUpsert stores a manually entered snapshot
// POST /api/securities/{securityID}/prices
func (h *Handlers) HandleUpsert(w http.ResponseWriter, r *http.Request) {
	securityID, err := strconv.ParseInt(chi.URLParam(r, "securityID"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid security ID", http.StatusBadRequest)
		return
	}

	var snap Snapshot
	if err := json.NewDecoder(r.Body).Decode(&snap); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	snap.SecurityID = securityID

	if snap.SnapshotTime == "" {
		http.Error(w, "snapshot_time is required", http.StatusBadRequest)
		return
	}

	if err := h.repo.Upsert(snap); err != nil {
		h.log.Error().Err(err).Int64("security_id", securityID).Msg("Failed to store snapshot")
		http.Error(w, "Failed to store snapshot", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusCreated)
}

// HandleLatest returns the most recent snapshot for a security
// GET /api/securities/{securityID}/prices/latest
func (h *Handlers) HandleLatest(w http.ResponseWriter, r *http.Request) {
	securityID, err := strconv.ParseInt(chi.URLParam(r, "securityID"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid security ID", http.StatusBadRequest)
		return
	}

	snap, err := h.repo.Latest(securityID)
	if err != nil {
		h.log.Error().Err(err).Int64("security_id", securityID).Msg("Failed to get latest price")
		http.Error(w, "Failed to get latest price", http.StatusInternalServerError)
		return
	}
	if snap == nil {
		http.Error(w, "No price observations for security", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(snap)
}

// HandleImport imports the security's EOD history file
// POST /api/securities/{securityID}/prices/import
func (h *Handlers) HandleImport(w http.ResponseWriter, r *http.Request) {
	securityID, err := strconv.ParseInt(chi.URLParam(r, "securityID"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid security ID", http.StatusBadRequest)
		return
	}

	ticker, err := h.resolver.ResolveTicker(securityID)
	if err != nil {
		h.log.Error().Err(err).Int64("security_id", securityID).Msg("Failed to resolve ticker")
		http.Error(w, "Security not found", http.StatusNotFound)
		return
	}

	imported, err := h.history.Import(securityID, ticker)
	if err != nil {
		h.log.Error().Err(err).Str("ticker", ticker).Msg("Failed to import price history")
		http.Error(w, "Failed to import price history", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{"imported": imported})
}

// HandleAnalytics summarizes the stored close series of a security
// GET /api/securities/{securityID}/prices/analytics
func (h *Handlers) HandleAnalytics(w http.ResponseWriter, r *http.Request) {
	securityID, err := strconv.ParseInt(chi.URLParam(r, "securityID"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid security ID", http.StatusBadRequest)
		return
	}

	closes, err := h.repo.GetCloses(securityID)
	if err != nil {
		h.log.Error().Err(err).Int64("security_id", securityID).Msg("Failed to load close prices")
		http.Error(w, "Failed to load close prices", http.StatusInternalServerError)
		return
	}

	analytics := ComputeAnalytics(securityID, closes)

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(analytics)
}

// ComputeAnalytics derives return and risk metrics from a close series
func ComputeAnalytics(securityID int64, closes []float64) Analytics {
	analytics := Analytics{
		SecurityID:   securityID,
		Observations: len(closes),
	}

	returns := formulas.Returns(closes)
	analytics.MeanDailyReturn = formulas.Mean(returns)
	analytics.AnnualizedVolatility = formulas.AnnualizedVolatility(returns)

	if sharpe := formulas.SharpeRatio(returns, 0, 252); sharpe != nil {
		analytics.SharpeRatio = *sharpe
	}
	if drawdown := formulas.MaxDrawdown(closes); drawdown != nil {
		analytics.MaxDrawdown = *drawdown
	}
	analytics.RSI14 = formulas.RSI(closes, 14)

	return analytics
}
