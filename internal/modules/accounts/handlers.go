package accounts

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Handlers contains HTTP handlers for users and brokerage accounts
type Handlers struct {
	repo *Repository
	log  zerolog.Logger
}

// NewHandlers creates a new accounts handlers instance
func NewHandlers(repo *Repository, log zerolog.Logger) *Handlers {
	return &Handlers{
		repo: repo,
		log:  log.With().Str("handler", "accounts").Logger(),
	}
}

type registerRequest struct {
	Email      string  `json:"email"`
	Password   string  `json:"password"`
	FirstName  string  `json:"first_name"`
	MiddleName *string `json:"middle_name"`
	LastName   string  `json:"last_name"`
}

// HandleRegister creates a new user
// POST /api/users
func (h *Handlers) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	id, err := h.repo.RegisterUser(req.Email, req.Password, req.FirstName, req.MiddleName, req.LastName)
	if err != nil {
		h.log.Error().Err(err).Str("email", req.Email).Msg("Failed to register user")
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	user, err := h.repo.GetUser(id)
	if err != nil || user == nil {
		h.log.Error().Err(err).Int64("user_id", id).Msg("Failed to load registered user")
		http.Error(w, "Failed to load registered user", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(user)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleLogin verifies credentials and returns the user
// POST /api/users/login
func (h *Handlers) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	user, err := h.repo.Authenticate(req.Email, req.Password)
	if err != nil {
		h.log.Error().Err(err).Str("email", req.Email).Msg("Failed to authenticate user")
		http.Error(w, "Failed to authenticate", http.StatusInternalServerError)
		return
	}
	if user == nil {
		http.Error(w, "Invalid email or password", http.StatusUnauthorized)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(user)
}

// HandleCreateAccount creates a brokerage account
// POST /api/accounts
func (h *Handlers) HandleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var account BrokerageAccount
	if err := json.NewDecoder(r.Body).Decode(&account); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	id, err := h.repo.CreateAccount(account)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to create brokerage account")
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	created, err := h.repo.GetAccount(id)
	if err != nil || created == nil {
		h.log.Error().Err(err).Int64("account_id", id).Msg("Failed to load created account")
		http.Error(w, "Failed to load created account", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(created)
}

// HandleListAccounts lists a user's brokerage accounts
// GET /api/accounts?owner_id=N
func (h *Handlers) HandleListAccounts(w http.ResponseWriter, r *http.Request) {
	ownerID, err := strconv.ParseInt(r.URL.Query().Get("owner_id"), 10, 64)
	if err != nil {
		http.Error(w, "owner_id query parameter is required", http.StatusBadRequest)
		return
	}

	accounts, err := h.repo.GetAccountsByOwner(ownerID)
	if err != nil {
		h.log.Error().Err(err).Int64("owner_id", ownerID).Msg("Failed to list accounts")
		http.Error(w, "Failed to list accounts", http.StatusInternalServerError)
		return
	}

	if accounts == nil {
		accounts = []BrokerageAccount{}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(accounts)
}

// HandleGetAccount returns a single brokerage account
// GET /api/accounts/{accountID}
func (h *Handlers) HandleGetAccount(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "accountID"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid account ID", http.StatusBadRequest)
		return
	}

	account, err := h.repo.GetAccount(id)
	if err != nil {
		h.log.Error().Err(err).Int64("account_id", id).Msg("Failed to get account")
		http.Error(w, "Failed to get account", http.StatusInternalServerError)
		return
	}
	if account == nil {
		http.Error(w, "Account not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(account)
}
