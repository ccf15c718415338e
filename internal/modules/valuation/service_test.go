package valuation

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foliotrack/foliotrack/internal/database"
	"github.com/foliotrack/foliotrack/internal/modules/ledger"
	"github.com/foliotrack/foliotrack/internal/modules/prices"
)

func setupTestDB(t *testing.T) *database.DB {
	t.Helper()

	db, err := database.NewInMemory()
	require.NoError(t, err)
	require.NoError(t, db.Migrate())

	t.Cleanup(func() { db.Close() })
	return db
}

// seedPortfolio inserts a user, one portfolio and three securities,
// returning the portfolio ID. Security IDs are 1 (AAA), 2 (BBB),
// 3 (CCC).
func seedPortfolio(t *testing.T, db *database.DB) int64 {
	t.Helper()

	now := time.Now().Format(time.RFC3339)

	_, err := db.Exec(
		"INSERT INTO users (email, password_digest, first_name, last_name, created_at) VALUES (?, ?, ?, ?, ?)",
		"test@example.com", "digest", "Test", "User", now,
	)
	require.NoError(t, err)

	result, err := db.Exec(
		"INSERT INTO portfolios (owner_user_id, name, base_currency, created_at) VALUES (1, 'Main', 'USD', ?)",
		now,
	)
	require.NoError(t, err)

	portfolioID, err := result.LastInsertId()
	require.NoError(t, err)

	for _, ticker := range []string{"AAA", "BBB", "CCC"} {
		_, err := db.Exec(
			"INSERT INTO securities (ticker, created_at) VALUES (?, ?)",
			ticker, now,
		)
		require.NoError(t, err)
	}

	return portfolioID
}

func newTestService(db *database.DB) (*Service, *ledger.Repository, *prices.Repository, *HoldingsRepository) {
	ledgerRepo := ledger.NewRepository(db.Conn(), zerolog.Nop())
	pricesRepo := prices.NewRepository(db.Conn(), zerolog.Nop())
	holdingsRepo := NewHoldingsRepository(db.Conn(), zerolog.Nop())
	svc := NewService(ledgerRepo, pricesRepo, holdingsRepo, db.Conn(), zerolog.Nop())
	return svc, ledgerRepo, pricesRepo, holdingsRepo
}

func record(t *testing.T, repo *ledger.Repository, portfolioID, securityID int64, kind ledger.EventKind, date string, qty, price, fees float64) {
	t.Helper()

	_, err := repo.Record(ledger.Event{
		PortfolioID: portfolioID,
		SecurityID:  securityID,
		Kind:        kind,
		TradeDate:   date,
		Quantity:    qty,
		UnitPrice:   price,
		Fees:        fees,
	})
	require.NoError(t, err)
}

func storePrice(t *testing.T, repo *prices.Repository, securityID int64, at string, close float64) {
	t.Helper()

	require.NoError(t, repo.Upsert(prices.Snapshot{
		SecurityID:   securityID,
		SnapshotTime: at,
		Open:         close,
		High:         close,
		Low:          close,
		Close:        close,
	}))
}

func TestComputeSnapshot_MixedBuysAndSells(t *testing.T) {
	db := setupTestDB(t)
	portfolioID := seedPortfolio(t, db)
	svc, ledgerRepo, pricesRepo, _ := newTestService(db)

	record(t, ledgerRepo, portfolioID, 1, ledger.EventBuy, "2024-01-02", 10, 100, 1)
	record(t, ledgerRepo, portfolioID, 1, ledger.EventBuy, "2024-02-01", 5, 110, 1)
	record(t, ledgerRepo, portfolioID, 1, ledger.EventSell, "2024-03-01", 3, 120, 0)
	storePrice(t, pricesRepo, 1, "2024-06-01T16:00:00Z", 115)

	snapshot, err := svc.ComputeSnapshot(portfolioID)
	require.NoError(t, err)
	require.Len(t, snapshot.Positions, 1)

	row := snapshot.Positions[0]
	assert.Equal(t, "AAA", row.Ticker)
	assert.Equal(t, float64(15), row.BoughtQty)
	assert.Equal(t, float64(3), row.SoldQty)
	assert.Equal(t, float64(12), row.NetQty)

	avg := 1552.0 / 15.0
	require.NotNil(t, row.AvgCostBasis)
	assert.InDelta(t, avg, *row.AvgCostBasis, 1e-9)
	assert.InDelta(t, avg*12, row.OpenCostBasis, 1e-9)

	require.NotNil(t, row.LastPrice)
	assert.InDelta(t, 115.0, *row.LastPrice, 1e-9)
	assert.InDelta(t, 12*115.0, row.MarketValue, 1e-9)
	assert.InDelta(t, 12*115.0-avg*12, row.UnrealizedPL, 1e-9)
	assert.InDelta(t, (12*115.0-avg*12)/(avg*12)*100, row.UnrealizedPLPct, 1e-9)

	// Totals reconcile with the single row.
	assert.InDelta(t, row.OpenCostBasis, snapshot.Totals.TotalInvested, 1e-9)
	assert.InDelta(t, row.MarketValue, snapshot.Totals.TotalMarketValue, 1e-9)
	assert.InDelta(t, snapshot.Totals.TotalMarketValue-snapshot.Totals.TotalInvested, snapshot.Totals.TotalUnrealizedPL, 1e-9)
}

func TestComputeSnapshot_MissingPriceValuesAtZero(t *testing.T) {
	db := setupTestDB(t)
	portfolioID := seedPortfolio(t, db)
	svc, ledgerRepo, _, _ := newTestService(db)

	record(t, ledgerRepo, portfolioID, 1, ledger.EventBuy, "2024-01-02", 10, 50, 0)

	snapshot, err := svc.ComputeSnapshot(portfolioID)
	require.NoError(t, err)
	require.Len(t, snapshot.Positions, 1)

	row := snapshot.Positions[0]
	assert.Nil(t, row.LastPrice)
	assert.Zero(t, row.MarketValue)
	assert.InDelta(t, 500.0, row.OpenCostBasis, 1e-9)
	assert.InDelta(t, -500.0, row.UnrealizedPL, 1e-9)
	assert.InDelta(t, -100.0, row.UnrealizedPLPct, 1e-9)
}

func TestComputeSnapshot_ExcludesClosedAndOversold(t *testing.T) {
	db := setupTestDB(t)
	portfolioID := seedPortfolio(t, db)
	svc, ledgerRepo, pricesRepo, _ := newTestService(db)

	// Fully closed.
	record(t, ledgerRepo, portfolioID, 1, ledger.EventBuy, "2024-01-02", 5, 100, 0)
	record(t, ledgerRepo, portfolioID, 1, ledger.EventSell, "2024-02-01", 5, 110, 0)
	// Oversold.
	record(t, ledgerRepo, portfolioID, 2, ledger.EventBuy, "2024-01-02", 2, 100, 0)
	record(t, ledgerRepo, portfolioID, 2, ledger.EventSell, "2024-02-01", 5, 110, 0)
	// Open.
	record(t, ledgerRepo, portfolioID, 3, ledger.EventBuy, "2024-01-02", 4, 25, 0)
	storePrice(t, pricesRepo, 3, "2024-06-01T16:00:00Z", 30)

	snapshot, err := svc.ComputeSnapshot(portfolioID)
	require.NoError(t, err)
	require.Len(t, snapshot.Positions, 1)
	assert.Equal(t, int64(3), snapshot.Positions[0].SecurityID)
	assert.Equal(t, "CCC", snapshot.Positions[0].Ticker)
}

func TestComputeSnapshot_EmptyPortfolio(t *testing.T) {
	db := setupTestDB(t)
	portfolioID := seedPortfolio(t, db)
	svc, _, _, _ := newTestService(db)

	snapshot, err := svc.ComputeSnapshot(portfolioID)
	require.NoError(t, err)

	assert.Equal(t, portfolioID, snapshot.PortfolioID)
	assert.Empty(t, snapshot.Positions)
	assert.Zero(t, snapshot.Totals.TotalInvested)
	assert.Zero(t, snapshot.Totals.TotalMarketValue)
	assert.Zero(t, snapshot.Totals.TotalUnrealizedPL)
	assert.Zero(t, snapshot.Totals.TotalUnrealizedPLPct)
}

func TestComputeSnapshot_SortsByMarketValueDesc(t *testing.T) {
	db := setupTestDB(t)
	portfolioID := seedPortfolio(t, db)
	svc, ledgerRepo, pricesRepo, _ := newTestService(db)

	record(t, ledgerRepo, portfolioID, 1, ledger.EventBuy, "2024-01-02", 1, 10, 0)
	record(t, ledgerRepo, portfolioID, 2, ledger.EventBuy, "2024-01-02", 1, 10, 0)
	record(t, ledgerRepo, portfolioID, 3, ledger.EventBuy, "2024-01-02", 1, 10, 0)
	storePrice(t, pricesRepo, 1, "2024-06-01T16:00:00Z", 50)
	storePrice(t, pricesRepo, 2, "2024-06-01T16:00:00Z", 200)
	// Security 3 has no price and sorts last at zero market value.

	snapshot, err := svc.ComputeSnapshot(portfolioID)
	require.NoError(t, err)
	require.Len(t, snapshot.Positions, 3)

	assert.Equal(t, int64(2), snapshot.Positions[0].SecurityID)
	assert.Equal(t, int64(1), snapshot.Positions[1].SecurityID)
	assert.Equal(t, int64(3), snapshot.Positions[2].SecurityID)
}

func TestComputeSnapshot_DividendsDoNotAffectPositions(t *testing.T) {
	db := setupTestDB(t)
	portfolioID := seedPortfolio(t, db)
	svc, ledgerRepo, pricesRepo, _ := newTestService(db)

	record(t, ledgerRepo, portfolioID, 1, ledger.EventBuy, "2024-01-02", 10, 100, 0)
	record(t, ledgerRepo, portfolioID, 1, ledger.EventDividend, "2024-03-01", 10, 0.75, 0)
	storePrice(t, pricesRepo, 1, "2024-06-01T16:00:00Z", 100)

	snapshot, err := svc.ComputeSnapshot(portfolioID)
	require.NoError(t, err)
	require.Len(t, snapshot.Positions, 1)

	row := snapshot.Positions[0]
	assert.Equal(t, float64(10), row.BoughtQty)
	assert.Equal(t, float64(10), row.NetQty)
	require.NotNil(t, row.AvgCostBasis)
	assert.InDelta(t, 100.0, *row.AvgCostBasis, 1e-9)
}

func TestRebuildHoldings_Idempotent(t *testing.T) {
	db := setupTestDB(t)
	portfolioID := seedPortfolio(t, db)
	svc, ledgerRepo, _, holdingsRepo := newTestService(db)

	record(t, ledgerRepo, portfolioID, 1, ledger.EventBuy, "2024-01-02", 10, 100, 2)
	record(t, ledgerRepo, portfolioID, 2, ledger.EventBuy, "2024-01-03", 5, 40, 0)

	require.NoError(t, svc.RebuildHoldings(portfolioID))
	require.NoError(t, svc.RebuildHoldings(portfolioID))

	rows, err := holdingsRepo.GetForPortfolio(portfolioID)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, int64(1), rows[0].SecurityID)
	assert.InDelta(t, 100.2, rows[0].AvgCostBasis, 1e-9)
	assert.Equal(t, int64(2), rows[1].SecurityID)
	assert.InDelta(t, 40.0, rows[1].AvgCostBasis, 1e-9)
}

func TestRebuildHoldings_SkipsNeverBought(t *testing.T) {
	db := setupTestDB(t)
	portfolioID := seedPortfolio(t, db)
	svc, ledgerRepo, _, holdingsRepo := newTestService(db)

	record(t, ledgerRepo, portfolioID, 1, ledger.EventBuy, "2024-01-02", 10, 100, 0)
	record(t, ledgerRepo, portfolioID, 2, ledger.EventSell, "2024-01-02", 3, 50, 0)

	require.NoError(t, svc.RebuildHoldings(portfolioID))

	rows, err := holdingsRepo.GetForPortfolio(portfolioID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(1), rows[0].SecurityID)
}

func TestRebuildHoldings_DropsStaleRows(t *testing.T) {
	db := setupTestDB(t)
	portfolioID := seedPortfolio(t, db)
	svc, ledgerRepo, _, holdingsRepo := newTestService(db)

	// A stale row from a previous rebuild of a different state.
	require.NoError(t, holdingsRepo.ReplaceForPortfolio(portfolioID, []ProjectionRow{
		{SecurityID: 3, AvgCostBasis: 12.34},
	}))

	record(t, ledgerRepo, portfolioID, 1, ledger.EventBuy, "2024-01-02", 10, 100, 0)
	require.NoError(t, svc.RebuildHoldings(portfolioID))

	rows, err := holdingsRepo.GetForPortfolio(portfolioID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(1), rows[0].SecurityID)
}

func TestComputeHoldingsReport_FlagsClosedAndOversold(t *testing.T) {
	db := setupTestDB(t)
	portfolioID := seedPortfolio(t, db)
	svc, ledgerRepo, _, holdingsRepo := newTestService(db)

	record(t, ledgerRepo, portfolioID, 1, ledger.EventBuy, "2024-01-02", 5, 100, 0)
	record(t, ledgerRepo, portfolioID, 1, ledger.EventSell, "2024-02-01", 5, 110, 0)
	record(t, ledgerRepo, portfolioID, 2, ledger.EventBuy, "2024-01-02", 2, 100, 0)
	record(t, ledgerRepo, portfolioID, 2, ledger.EventSell, "2024-02-01", 5, 110, 0)
	record(t, ledgerRepo, portfolioID, 3, ledger.EventBuy, "2024-01-02", 4, 25, 0)

	rows, err := svc.ComputeHoldingsReport(portfolioID)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	byID := make(map[int64]HoldingRow)
	for _, row := range rows {
		byID[row.SecurityID] = row
	}

	assert.Equal(t, StatusClosed, byID[1].Status)
	assert.Equal(t, StatusOversold, byID[2].Status)
	assert.Equal(t, StatusOpen, byID[3].Status)

	// Bought shares always carry a basis, even when closed or oversold.
	require.NotNil(t, byID[1].AvgCostBasis)
	assert.InDelta(t, 100.0, *byID[1].AvgCostBasis, 1e-9)
	require.NotNil(t, byID[2].AvgCostBasis)

	// The report refreshes the projection as a side effect.
	projected, err := holdingsRepo.GetForPortfolio(portfolioID)
	require.NoError(t, err)
	assert.Len(t, projected, 3)
}

func TestComputeHoldingsReport_EmptyPortfolio(t *testing.T) {
	db := setupTestDB(t)
	portfolioID := seedPortfolio(t, db)
	svc, _, _, _ := newTestService(db)

	rows, err := svc.ComputeHoldingsReport(portfolioID)
	require.NoError(t, err)
	assert.Empty(t, rows)
}
