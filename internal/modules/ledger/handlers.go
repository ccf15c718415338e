package ledger

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/foliotrack/foliotrack/internal/domain"
)

// Handlers contains HTTP handlers for the trade ledger API
type Handlers struct {
	repo *Repository
	log  zerolog.Logger
}

// NewHandlers creates a new ledger handlers instance
func NewHandlers(repo *Repository, log zerolog.Logger) *Handlers {
	return &Handlers{
		repo: repo,
		log:  log.With().Str("handler", "ledger").Logger(),
	}
}

type recordRequest struct {
	SecurityID int64   `json:"security_id"`
	Kind       string  `json:"kind"`
	TradeDate  string  `json:"trade_date"`
	SettleDate string  `json:"settle_date"`
	Quantity   float64 `json:"quantity"`
	UnitPrice  float64 `json:"unit_price"`
	Fees       float64 `json:"fees"`
	Notes      string  `json:"notes"`
}

// HandleRecordTrade appends a BUY or SELL event to the ledger
// POST /api/portfolios/{portfolioID}/trades
func (h *Handlers) HandleRecordTrade(w http.ResponseWriter, r *http.Request) {
	portfolioID, err := strconv.ParseInt(chi.URLParam(r, "portfolioID"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid portfolio ID", http.StatusBadRequest)
		return
	}

	var req recordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	kind, err := EventKindFromString(req.Kind)
	if err != nil || kind == EventDividend {
		http.Error(w, "Trade kind must be BUY or SELL", http.StatusBadRequest)
		return
	}

	h.record(w, Event{
		PortfolioID: portfolioID,
		SecurityID:  req.SecurityID,
		Kind:        kind,
		TradeDate:   req.TradeDate,
		SettleDate:  req.SettleDate,
		Quantity:    req.Quantity,
		UnitPrice:   req.UnitPrice,
		Fees:        req.Fees,
		Notes:       req.Notes,
	})
}

// HandleRecordDividend appends a DIVIDEND event to the ledger.
// Quantity is the number of entitled shares, unit price the cash
// amount per share.
// POST /api/portfolios/{portfolioID}/dividends
func (h *Handlers) HandleRecordDividend(w http.ResponseWriter, r *http.Request) {
	portfolioID, err := strconv.ParseInt(chi.URLParam(r, "portfolioID"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid portfolio ID", http.StatusBadRequest)
		return
	}

	var req recordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	h.record(w, Event{
		PortfolioID: portfolioID,
		SecurityID:  req.SecurityID,
		Kind:        EventDividend,
		TradeDate:   req.TradeDate,
		SettleDate:  req.SettleDate,
		Quantity:    req.Quantity,
		UnitPrice:   req.UnitPrice,
		Fees:        req.Fees,
		Notes:       req.Notes,
	})
}

// HandleHistory returns the event history of a portfolio's security,
// dividends included, with total dividend cash amounts.
// GET /api/portfolios/{portfolioID}/trades?security_id=N
func (h *Handlers) HandleHistory(w http.ResponseWriter, r *http.Request) {
	portfolioID, err := strconv.ParseInt(chi.URLParam(r, "portfolioID"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid portfolio ID", http.StatusBadRequest)
		return
	}

	securityParam := r.URL.Query().Get("security_id")
	if securityParam == "" {
		http.Error(w, "security_id query parameter is required", http.StatusBadRequest)
		return
	}

	securityID, err := strconv.ParseInt(securityParam, 10, 64)
	if err != nil {
		http.Error(w, "Invalid security ID", http.StatusBadRequest)
		return
	}

	events, err := h.repo.ListBySecurity(portfolioID, securityID)
	if err != nil {
		h.log.Error().Err(err).Int64("portfolio_id", portfolioID).Msg("Failed to get trade history")
		http.Error(w, "Failed to get trade history", http.StatusInternalServerError)
		return
	}

	response := make([]map[string]interface{}, 0, len(events))
	for _, e := range events {
		row := map[string]interface{}{
			"id":             e.ID,
			"kind":           string(e.Kind),
			"trade_date":     e.TradeDate,
			"settle_date":    e.SettleDate,
			"quantity":       e.Quantity,
			"unit_price":     e.UnitPrice,
			"fees":           e.Fees,
			"trade_currency": e.TradeCurrency,
			"notes":          e.Notes,
		}
		if e.Kind == EventDividend {
			row["total_dividend"] = e.TotalDividend()
		}
		response = append(response, row)
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(response)
}

func (h *Handlers) record(w http.ResponseWriter, event Event) {
	id, err := h.repo.Record(event)
	if err != nil {
		var inconsistency *domain.DataInconsistencyError
		if errors.As(err, &inconsistency) {
			http.Error(w, inconsistency.Error(), http.StatusUnprocessableEntity)
			return
		}

		var storageErr *domain.StorageError
		if errors.As(err, &storageErr) {
			h.log.Error().Err(err).Msg("Failed to record ledger event")
			http.Error(w, "Failed to record event", http.StatusInternalServerError)
			return
		}

		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{"id": id})
}
