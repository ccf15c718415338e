package portfolios

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Handlers contains HTTP handlers for the portfolio API
type Handlers struct {
	repo *Repository
	log  zerolog.Logger
}

// NewHandlers creates a new portfolios handlers instance
func NewHandlers(repo *Repository, log zerolog.Logger) *Handlers {
	return &Handlers{
		repo: repo,
		log:  log.With().Str("handler", "portfolios").Logger(),
	}
}

// HandleCreate creates a new portfolio
// POST /api/portfolios
func (h *Handlers) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var p Portfolio
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	id, err := h.repo.Create(p)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to create portfolio")
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	created, err := h.repo.GetByID(id)
	if err != nil || created == nil {
		h.log.Error().Err(err).Int64("portfolio_id", id).Msg("Failed to load created portfolio")
		http.Error(w, "Failed to load created portfolio", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(created)
}

// HandleList returns portfolios, optionally filtered by owner
// GET /api/portfolios?owner_id=N
func (h *Handlers) HandleList(w http.ResponseWriter, r *http.Request) {
	var (
		portfolios []Portfolio
		err        error
	)

	if ownerParam := r.URL.Query().Get("owner_id"); ownerParam != "" {
		ownerID, parseErr := strconv.ParseInt(ownerParam, 10, 64)
		if parseErr != nil {
			http.Error(w, "Invalid owner_id", http.StatusBadRequest)
			return
		}
		portfolios, err = h.repo.GetByOwner(ownerID)
	} else {
		portfolios, err = h.repo.GetAll()
	}

	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list portfolios")
		http.Error(w, "Failed to list portfolios", http.StatusInternalServerError)
		return
	}

	if portfolios == nil {
		portfolios = []Portfolio{}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(portfolios)
}

// HandleGet returns a single portfolio
// GET /api/portfolios/{portfolioID}
func (h *Handlers) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "portfolioID"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid portfolio ID", http.StatusBadRequest)
		return
	}

	p, err := h.repo.GetByID(id)
	if err != nil {
		h.log.Error().Err(err).Int64("portfolio_id", id).Msg("Failed to get portfolio")
		http.Error(w, "Failed to get portfolio", http.StatusInternalServerError)
		return
	}
	if p == nil {
		http.Error(w, "Portfolio not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(p)
}

// HandleRelinkAccount moves a portfolio to another brokerage account
// PUT /api/portfolios/{portfolioID}/account
func (h *Handlers) HandleRelinkAccount(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "portfolioID"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid portfolio ID", http.StatusBadRequest)
		return
	}

	var body struct {
		BrokerageAccountID *int64 `json:"brokerage_account_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.repo.RelinkAccount(id, body.BrokerageAccountID); err != nil {
		h.log.Error().Err(err).Int64("portfolio_id", id).Msg("Failed to relink portfolio")
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	updated, err := h.repo.GetByID(id)
	if err != nil || updated == nil {
		h.log.Error().Err(err).Int64("portfolio_id", id).Msg("Failed to load relinked portfolio")
		http.Error(w, "Failed to load relinked portfolio", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(updated)
}
