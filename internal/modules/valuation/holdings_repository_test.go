package valuation

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReplaceForPortfolio_SwapsRows(t *testing.T) {
	db := setupTestDB(t)
	portfolioID := seedPortfolio(t, db)
	repo := NewHoldingsRepository(db.Conn(), zerolog.Nop())

	require.NoError(t, repo.ReplaceForPortfolio(portfolioID, []ProjectionRow{
		{SecurityID: 1, AvgCostBasis: 100},
		{SecurityID: 2, AvgCostBasis: 40},
	}))

	require.NoError(t, repo.ReplaceForPortfolio(portfolioID, []ProjectionRow{
		{SecurityID: 2, AvgCostBasis: 41.5},
	}))

	rows, err := repo.GetForPortfolio(portfolioID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(2), rows[0].SecurityID)
	assert.InDelta(t, 41.5, rows[0].AvgCostBasis, 1e-9)
}

func TestReplaceForPortfolio_EmptyClearsProjection(t *testing.T) {
	db := setupTestDB(t)
	portfolioID := seedPortfolio(t, db)
	repo := NewHoldingsRepository(db.Conn(), zerolog.Nop())

	require.NoError(t, repo.ReplaceForPortfolio(portfolioID, []ProjectionRow{
		{SecurityID: 1, AvgCostBasis: 100},
	}))
	require.NoError(t, repo.ReplaceForPortfolio(portfolioID, nil))

	rows, err := repo.GetForPortfolio(portfolioID)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestReplaceForPortfolio_FailureKeepsOldRows(t *testing.T) {
	db := setupTestDB(t)
	portfolioID := seedPortfolio(t, db)
	repo := NewHoldingsRepository(db.Conn(), zerolog.Nop())

	require.NoError(t, repo.ReplaceForPortfolio(portfolioID, []ProjectionRow{
		{SecurityID: 1, AvgCostBasis: 100},
	}))

	// Security 99 violates the foreign key; the whole rebuild rolls back.
	err := repo.ReplaceForPortfolio(portfolioID, []ProjectionRow{
		{SecurityID: 2, AvgCostBasis: 40},
		{SecurityID: 99, AvgCostBasis: 10},
	})
	require.Error(t, err)

	rows, err := repo.GetForPortfolio(portfolioID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(1), rows[0].SecurityID)
	assert.InDelta(t, 100.0, rows[0].AvgCostBasis, 1e-9)
}
