package valuation

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foliotrack/foliotrack/internal/modules/ledger"
)

func newTestRouter(handlers *Handlers) *chi.Mux {
	r := chi.NewRouter()
	r.Get("/api/portfolios/{portfolioID}/snapshot", handlers.HandleSnapshot)
	r.Get("/api/portfolios/{portfolioID}/holdings", handlers.HandleHoldings)
	r.Post("/api/portfolios/{portfolioID}/holdings/rebuild", handlers.HandleRebuild)
	return r
}

func TestHandleSnapshot(t *testing.T) {
	db := setupTestDB(t)
	seedPortfolio(t, db)
	svc, ledgerRepo, pricesRepo, _ := newTestService(db)
	router := newTestRouter(NewHandlers(svc, zerolog.Nop()))

	record(t, ledgerRepo, 1, 1, ledger.EventBuy, "2024-01-02", 10, 100, 0)
	storePrice(t, pricesRepo, 1, "2024-06-01T16:00:00Z", 110)

	req := httptest.NewRequest("GET", "/api/portfolios/1/snapshot", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var snapshot Snapshot
	require.NoError(t, json.NewDecoder(w.Body).Decode(&snapshot))
	assert.Equal(t, int64(1), snapshot.PortfolioID)
	require.Len(t, snapshot.Positions, 1)
	assert.InDelta(t, 1100.0, snapshot.Totals.TotalMarketValue, 1e-9)
}

func TestHandleSnapshot_EmptyPortfolioIsOK(t *testing.T) {
	db := setupTestDB(t)
	seedPortfolio(t, db)
	svc, _, _, _ := newTestService(db)
	router := newTestRouter(NewHandlers(svc, zerolog.Nop()))

	req := httptest.NewRequest("GET", "/api/portfolios/1/snapshot", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var snapshot Snapshot
	require.NoError(t, json.NewDecoder(w.Body).Decode(&snapshot))
	assert.Empty(t, snapshot.Positions)
}

func TestHandleSnapshot_InvalidPortfolioID(t *testing.T) {
	db := setupTestDB(t)
	seedPortfolio(t, db)
	svc, _, _, _ := newTestService(db)
	router := newTestRouter(NewHandlers(svc, zerolog.Nop()))

	req := httptest.NewRequest("GET", "/api/portfolios/abc/snapshot", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleHoldingsAndRebuild(t *testing.T) {
	db := setupTestDB(t)
	seedPortfolio(t, db)
	svc, ledgerRepo, _, holdingsRepo := newTestService(db)
	router := newTestRouter(NewHandlers(svc, zerolog.Nop()))

	record(t, ledgerRepo, 1, 1, ledger.EventBuy, "2024-01-02", 10, 100, 0)
	record(t, ledgerRepo, 1, 1, ledger.EventSell, "2024-02-01", 10, 110, 0)

	req := httptest.NewRequest("GET", "/api/portfolios/1/holdings", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var rows []HoldingRow
	require.NoError(t, json.NewDecoder(w.Body).Decode(&rows))
	require.Len(t, rows, 1)
	assert.Equal(t, StatusClosed, rows[0].Status)

	req = httptest.NewRequest("POST", "/api/portfolios/1/holdings/rebuild", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	projected, err := holdingsRepo.GetForPortfolio(1)
	require.NoError(t, err)
	assert.Len(t, projected, 1)
}
