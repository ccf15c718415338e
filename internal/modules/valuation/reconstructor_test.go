package valuation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foliotrack/foliotrack/internal/modules/ledger"
)

func buy(securityID int64, qty, price, fees float64) ledger.Event {
	return ledger.Event{SecurityID: securityID, Kind: ledger.EventBuy, Quantity: qty, UnitPrice: price, Fees: fees}
}

func sell(securityID int64, qty, price float64) ledger.Event {
	return ledger.Event{SecurityID: securityID, Kind: ledger.EventSell, Quantity: qty, UnitPrice: price}
}

func TestReconstruct_MixedBuysAndSells(t *testing.T) {
	events := []ledger.Event{
		buy(1, 10, 100, 1),
		buy(1, 5, 110, 1),
		sell(1, 3, 120),
	}

	pos := Reconstruct(1, events)

	assert.Equal(t, float64(15), pos.BoughtQty)
	assert.Equal(t, float64(3), pos.SoldQty)
	assert.Equal(t, float64(12), pos.NetQty())
	assert.InDelta(t, 1552.0, pos.TotalBuyCost, 1e-9)

	avg, ok := pos.AvgCostBasis()
	require.True(t, ok)
	assert.InDelta(t, 1552.0/15.0, avg, 1e-9)

	// The basis times the bought quantity reproduces the total spend.
	assert.InDelta(t, pos.TotalBuyCost, avg*pos.BoughtQty, 1e-9)
}

func TestReconstruct_SellsNeverReduceBasis(t *testing.T) {
	withSell := Reconstruct(1, []ledger.Event{
		buy(1, 10, 100, 0),
		sell(1, 9, 500),
	})
	withoutSell := Reconstruct(1, []ledger.Event{
		buy(1, 10, 100, 0),
	})

	avgWith, ok := withSell.AvgCostBasis()
	require.True(t, ok)
	avgWithout, ok := withoutSell.AvgCostBasis()
	require.True(t, ok)

	assert.Equal(t, avgWithout, avgWith)
}

func TestReconstruct_OversoldIsNegativeNotError(t *testing.T) {
	pos := Reconstruct(1, []ledger.Event{
		buy(1, 5, 100, 0),
		sell(1, 8, 100),
	})

	assert.Equal(t, float64(-3), pos.NetQty())

	avg, ok := pos.AvgCostBasis()
	require.True(t, ok)
	assert.InDelta(t, 100.0, avg, 1e-9)
}

func TestReconstruct_SellOnlyHasNoBasis(t *testing.T) {
	pos := Reconstruct(1, []ledger.Event{
		sell(1, 4, 100),
	})

	assert.Equal(t, float64(-4), pos.NetQty())

	_, ok := pos.AvgCostBasis()
	assert.False(t, ok)
}

func TestReconstruct_NoEvents(t *testing.T) {
	pos := Reconstruct(7, nil)

	assert.Equal(t, int64(7), pos.SecurityID)
	assert.Zero(t, pos.BoughtQty)
	assert.Zero(t, pos.SoldQty)
	assert.Zero(t, pos.NetQty())

	_, ok := pos.AvgCostBasis()
	assert.False(t, ok)
}

func TestReconstruct_FeesEnterBuyCostOnly(t *testing.T) {
	pos := Reconstruct(1, []ledger.Event{
		buy(1, 10, 50, 5),
		{SecurityID: 1, Kind: ledger.EventSell, Quantity: 2, UnitPrice: 60, Fees: 99},
	})

	assert.InDelta(t, 505.0, pos.TotalBuyCost, 1e-9)
}

func TestReconstructAll_GroupsPerSecurity(t *testing.T) {
	events := []ledger.Event{
		buy(2, 1, 10, 0),
		buy(1, 5, 100, 0),
		sell(2, 1, 12),
		buy(1, 5, 120, 0),
	}

	positions := ReconstructAll(events)
	require.Len(t, positions, 2)

	// First appearance order is preserved.
	assert.Equal(t, int64(2), positions[0].SecurityID)
	assert.Equal(t, int64(1), positions[1].SecurityID)

	assert.Equal(t, float64(0), positions[0].NetQty())
	assert.Equal(t, float64(10), positions[1].NetQty())
	assert.InDelta(t, 1100.0, positions[1].TotalBuyCost, 1e-9)
}

func TestReconstructAll_Empty(t *testing.T) {
	assert.Empty(t, ReconstructAll(nil))
}
