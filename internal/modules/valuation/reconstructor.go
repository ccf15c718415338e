package valuation

import (
	"github.com/foliotrack/foliotrack/internal/modules/ledger"
)

// Reconstruct folds a single security's BUY/SELL events into an
// aggregate position. Dividends must already be filtered out by the
// ledger query. SELL proceeds and fees never enter the cost basis;
// this engine does not compute realized gains.
func Reconstruct(securityID int64, events []ledger.Event) Position {
	pos := Position{SecurityID: securityID}

	for _, e := range events {
		switch e.Kind {
		case ledger.EventBuy:
			pos.BoughtQty += e.Quantity
			pos.TotalBuyCost += e.Quantity*e.UnitPrice + e.Fees
		case ledger.EventSell:
			pos.SoldQty += e.Quantity
		}
	}

	return pos
}

// ReconstructAll folds a portfolio's position events into one position
// per security. Input events must be ordered by (trade date, id);
// output preserves each security's first appearance in that order,
// which keeps reports deterministic.
func ReconstructAll(events []ledger.Event) []Position {
	index := make(map[int64]int)
	var positions []Position

	for _, e := range events {
		i, seen := index[e.SecurityID]
		if !seen {
			i = len(positions)
			index[e.SecurityID] = i
			positions = append(positions, Position{SecurityID: e.SecurityID})
		}

		switch e.Kind {
		case ledger.EventBuy:
			positions[i].BoughtQty += e.Quantity
			positions[i].TotalBuyCost += e.Quantity*e.UnitPrice + e.Fees
		case ledger.EventSell:
			positions[i].SoldQty += e.Quantity
		}
	}

	return positions
}
