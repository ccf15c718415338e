package securities

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Handlers contains HTTP handlers for the security master API
type Handlers struct {
	repo *Repository
	log  zerolog.Logger
}

// NewHandlers creates a new securities handlers instance
func NewHandlers(repo *Repository, log zerolog.Logger) *Handlers {
	return &Handlers{
		repo: repo,
		log:  log.With().Str("handler", "securities").Logger(),
	}
}

// HandleCreate creates a new security
// POST /api/securities
func (h *Handlers) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var sec Security
	if err := json.NewDecoder(r.Body).Decode(&sec); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	id, err := h.repo.Create(sec)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to create security")
		http.Error(w, "Failed to create security", http.StatusInternalServerError)
		return
	}

	created, err := h.repo.GetByID(id)
	if err != nil || created == nil {
		h.log.Error().Err(err).Int64("security_id", id).Msg("Failed to load created security")
		http.Error(w, "Failed to load created security", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(created)
}

// HandleList returns all securities
// GET /api/securities
func (h *Handlers) HandleList(w http.ResponseWriter, r *http.Request) {
	securities, err := h.repo.GetAll()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list securities")
		http.Error(w, "Failed to list securities", http.StatusInternalServerError)
		return
	}

	if securities == nil {
		securities = []Security{}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(securities)
}

// HandleGet returns a single security
// GET /api/securities/{securityID}
func (h *Handlers) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "securityID"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid security ID", http.StatusBadRequest)
		return
	}

	sec, err := h.repo.GetByID(id)
	if err != nil {
		h.log.Error().Err(err).Int64("security_id", id).Msg("Failed to get security")
		http.Error(w, "Failed to get security", http.StatusInternalServerError)
		return
	}
	if sec == nil {
		http.Error(w, "Security not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(sec)
}

// HandleAddTag attaches a tag to a security
// POST /api/securities/{securityID}/tags
func (h *Handlers) HandleAddTag(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "securityID"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid security ID", http.StatusBadRequest)
		return
	}

	var body struct {
		Label string `json:"label"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.repo.AddTag(id, body.Label); err != nil {
		h.log.Error().Err(err).Int64("security_id", id).Msg("Failed to add tag")
		http.Error(w, "Failed to add tag", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusCreated)
}

// HandleGetTags lists a security's tags
// GET /api/securities/{securityID}/tags
func (h *Handlers) HandleGetTags(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "securityID"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid security ID", http.StatusBadRequest)
		return
	}

	tags, err := h.repo.GetTags(id)
	if err != nil {
		h.log.Error().Err(err).Int64("security_id", id).Msg("Failed to get tags")
		http.Error(w, "Failed to get tags", http.StatusInternalServerError)
		return
	}

	if tags == nil {
		tags = []string{}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(tags)
}
