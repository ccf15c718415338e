package valuation

// Position is the aggregate of all BUY/SELL ledger events for one
// (portfolio, security) pair. It is derived on demand and never stored
// directly; only the average cost basis is cached in the holdings
// projection.
type Position struct {
	SecurityID   int64   `json:"security_id"`
	BoughtQty    float64 `json:"bought_qty"`
	SoldQty      float64 `json:"sold_qty"`
	TotalBuyCost float64 `json:"total_buy_cost"`
}

// NetQty returns the currently held quantity. It may be negative when
// a portfolio sold more than it ever bought; downstream treats
// non-positive values as "no open position" rather than an error.
func (p Position) NetQty() float64 {
	return p.BoughtQty - p.SoldQty
}

// AvgCostBasis returns total buy cost divided by total bought
// quantity. Defined only when shares were ever bought; sells never
// reduce the basis.
func (p Position) AvgCostBasis() (float64, bool) {
	if p.BoughtQty <= 0 {
		return 0, false
	}
	return p.TotalBuyCost / p.BoughtQty, true
}

// SnapshotRow is one open position in the valuation snapshot
type SnapshotRow struct {
	SecurityID      int64    `json:"security_id"`
	Ticker          string   `json:"ticker"`
	SecType         string   `json:"sec_type"`
	BoughtQty       float64  `json:"bought_qty"`
	SoldQty         float64  `json:"sold_qty"`
	NetQty          float64  `json:"net_qty"`
	AvgCostBasis    *float64 `json:"avg_cost_basis"` // nil when never bought
	OpenCostBasis   float64  `json:"open_cost_basis"`
	LastPrice       *float64 `json:"last_price"` // nil when no observation exists
	PriceTime       string   `json:"price_time,omitempty"`
	MarketValue     float64  `json:"market_value"`
	UnrealizedPL    float64  `json:"unrealized_pl"`
	UnrealizedPLPct float64  `json:"unrealized_pl_pct"`
}

// Totals holds the portfolio-level aggregates of a snapshot
type Totals struct {
	TotalInvested        float64 `json:"total_invested"`
	TotalMarketValue     float64 `json:"total_market_value"`
	TotalUnrealizedPL    float64 `json:"total_unrealized_pl"`
	TotalUnrealizedPLPct float64 `json:"total_unrealized_pl_pct"`
}

// Snapshot is the full valuation report for a portfolio. An empty
// position list is a normal result, not a failure.
type Snapshot struct {
	PortfolioID int64         `json:"portfolio_id"`
	Positions   []SnapshotRow `json:"positions"`
	Totals      Totals        `json:"totals"`
}

// HoldingStatus classifies a holdings report row
type HoldingStatus string

const (
	StatusOpen     HoldingStatus = "OPEN"
	StatusClosed   HoldingStatus = "CLOSED"
	StatusOversold HoldingStatus = "OVERSOLD"
)

// HoldingRow is one row of the full holdings report. Unlike the
// valuation snapshot, closed and oversold positions are shown here,
// flagged by status.
type HoldingRow struct {
	SecurityID   int64         `json:"security_id"`
	Ticker       string        `json:"ticker"`
	SecType      string        `json:"sec_type"`
	BoughtQty    float64       `json:"bought_qty"`
	SoldQty      float64       `json:"sold_qty"`
	NetQty       float64       `json:"net_qty"`
	AvgCostBasis *float64      `json:"avg_cost_basis"` // nil when never bought
	Status       HoldingStatus `json:"status"`
}

// ProjectionRow is one persisted holdings projection entry
type ProjectionRow struct {
	SecurityID   int64   `json:"security_id"`
	AvgCostBasis float64 `json:"avg_cost_basis"`
}

func statusFor(netQty float64) HoldingStatus {
	switch {
	case netQty > 0:
		return StatusOpen
	case netQty < 0:
		return StatusOversold
	default:
		return StatusClosed
	}
}
