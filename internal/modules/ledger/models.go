package ledger

import (
	"fmt"
	"strings"
)

// EventKind represents the kind of a ledger event
type EventKind string

const (
	EventBuy      EventKind = "BUY"
	EventSell     EventKind = "SELL"
	EventDividend EventKind = "DIVIDEND"
)

// IsValid checks if the event kind is one of BUY, SELL, DIVIDEND
func (k EventKind) IsValid() bool {
	return k == EventBuy || k == EventSell || k == EventDividend
}

// IsPositionAffecting reports whether the event changes share quantity.
// Dividends are cash events and never enter position math.
func (k EventKind) IsPositionAffecting() bool {
	return k == EventBuy || k == EventSell
}

// EventKindFromString creates an EventKind from string (case-insensitive)
func EventKindFromString(value string) (EventKind, error) {
	switch strings.ToUpper(strings.TrimSpace(value)) {
	case "BUY":
		return EventBuy, nil
	case "SELL":
		return EventSell, nil
	case "DIVIDEND":
		return EventDividend, nil
	default:
		return "", fmt.Errorf("invalid event kind: %q", value)
	}
}

// Event is one immutable row of the trade ledger. For DIVIDEND events
// Quantity is the number of shares entitled and UnitPrice the cash
// amount per share.
type Event struct {
	ID            int64     `json:"id"`
	PortfolioID   int64     `json:"portfolio_id"`
	SecurityID    int64     `json:"security_id"`
	Kind          EventKind `json:"kind"`
	TradeDate     string    `json:"trade_date"`  // YYYY-MM-DD
	SettleDate    string    `json:"settle_date"` // YYYY-MM-DD
	Quantity      float64   `json:"quantity"`
	UnitPrice     float64   `json:"unit_price"`
	Fees          float64   `json:"fees"`
	TradeCurrency string    `json:"trade_currency"`
	Notes         string    `json:"notes,omitempty"`
	CreatedAt     string    `json:"created_at,omitempty"`
}

// TotalDividend returns the total cash amount of a DIVIDEND event
func (e Event) TotalDividend() float64 {
	if e.Kind != EventDividend {
		return 0
	}
	return e.Quantity * e.UnitPrice
}

// Validate checks event invariants before insertion
func (e *Event) Validate() error {
	if !e.Kind.IsValid() {
		return fmt.Errorf("invalid event kind: %q", e.Kind)
	}

	if e.PortfolioID <= 0 {
		return fmt.Errorf("portfolio_id is required")
	}

	if e.SecurityID <= 0 {
		return fmt.Errorf("security_id is required")
	}

	if e.Quantity < 0 {
		return fmt.Errorf("quantity must not be negative")
	}

	if e.UnitPrice < 0 {
		return fmt.Errorf("unit price must not be negative")
	}

	if e.Fees < 0 {
		return fmt.Errorf("fees must not be negative")
	}

	if e.TradeDate == "" {
		return fmt.Errorf("trade date is required")
	}

	if e.SettleDate == "" {
		e.SettleDate = e.TradeDate
	}

	return nil
}
