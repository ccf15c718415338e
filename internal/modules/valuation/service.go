package valuation

import (
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/foliotrack/foliotrack/internal/domain"
	"github.com/foliotrack/foliotrack/internal/modules/ledger"
	"github.com/foliotrack/foliotrack/internal/modules/prices"
)

// LedgerStore is the append-only trade ledger collaborator
type LedgerStore interface {
	ListPositionEvents(portfolioID int64, securityID *int64) ([]ledger.Event, error)
}

// PriceStore is the price observation collaborator
type PriceStore interface {
	Latest(securityID int64) (*prices.Snapshot, error)
}

// ProjectionStore persists the holdings projection
type ProjectionStore interface {
	ReplaceForPortfolio(portfolioID int64, rows []ProjectionRow) error
}

// Service reconstructs positions from the ledger and values them
// against the latest known prices. Every operation takes the portfolio
// identifier explicitly; the service holds no session state.
type Service struct {
	ledgerStore LedgerStore
	priceStore  PriceStore
	projection  ProjectionStore
	db          *sql.DB // securities table, for report display fields
	log         zerolog.Logger
}

// NewService creates a new valuation service
func NewService(
	ledgerStore LedgerStore,
	priceStore PriceStore,
	projection ProjectionStore,
	db *sql.DB,
	log zerolog.Logger,
) *Service {
	return &Service{
		ledgerStore: ledgerStore,
		priceStore:  priceStore,
		projection:  projection,
		db:          db,
		log:         log.With().Str("service", "valuation").Logger(),
	}
}

// RebuildHoldings replaces the portfolio's holdings projection with
// freshly computed average-cost rows. Securities never bought get no
// row. The rebuild is idempotent and safe to repeat; failure leaves
// the previous projection untouched.
func (s *Service) RebuildHoldings(portfolioID int64) error {
	events, err := s.ledgerStore.ListPositionEvents(portfolioID, nil)
	if err != nil {
		return fmt.Errorf("failed to list ledger events: %w", err)
	}

	return s.replaceProjection(portfolioID, ReconstructAll(events))
}

// ComputeSnapshot produces the open-position valuation report for a
// portfolio. Positions with netQty <= 0 are excluded; a missing latest
// price values the position at zero but keeps it listed. Zero holdings
// yield an empty snapshot, not an error.
func (s *Service) ComputeSnapshot(portfolioID int64) (Snapshot, error) {
	snapshot := Snapshot{
		PortfolioID: portfolioID,
		Positions:   []SnapshotRow{},
	}

	events, err := s.ledgerStore.ListPositionEvents(portfolioID, nil)
	if err != nil {
		return snapshot, fmt.Errorf("failed to list ledger events: %w", err)
	}

	positions := ReconstructAll(events)

	var open []Position
	for _, pos := range positions {
		if pos.NetQty() > 0 {
			open = append(open, pos)
		}
	}

	info, err := s.securityInfo(securityIDs(open))
	if err != nil {
		return snapshot, err
	}

	for _, pos := range open {
		row := SnapshotRow{
			SecurityID: pos.SecurityID,
			BoughtQty:  pos.BoughtQty,
			SoldQty:    pos.SoldQty,
			NetQty:     pos.NetQty(),
		}

		if sec, ok := info[pos.SecurityID]; ok {
			row.Ticker = sec.ticker
			row.SecType = sec.secType
		}

		// Undefined basis (oversell then buy-back edge case) values
		// the open cost at zero rather than erroring.
		if avg, ok := pos.AvgCostBasis(); ok {
			basis := avg
			row.AvgCostBasis = &basis
			row.OpenCostBasis = avg * row.NetQty
		}

		snap, err := s.priceStore.Latest(pos.SecurityID)
		if err != nil {
			return snapshot, fmt.Errorf("failed to look up latest price: %w", err)
		}

		// Missing price means zero market value, full paper loss; the
		// position still appears with a null last price.
		if snap != nil {
			lastPrice := snap.Close
			row.LastPrice = &lastPrice
			row.PriceTime = snap.SnapshotTime
			row.MarketValue = row.NetQty * lastPrice
		}

		row.UnrealizedPL = row.MarketValue - row.OpenCostBasis
		if row.OpenCostBasis > 0 {
			row.UnrealizedPLPct = row.UnrealizedPL / row.OpenCostBasis * 100
		}

		snapshot.Totals.TotalInvested += row.OpenCostBasis
		snapshot.Totals.TotalMarketValue += row.MarketValue

		snapshot.Positions = append(snapshot.Positions, row)
	}

	snapshot.Totals.TotalUnrealizedPL = snapshot.Totals.TotalMarketValue - snapshot.Totals.TotalInvested
	if snapshot.Totals.TotalInvested > 0 {
		snapshot.Totals.TotalUnrealizedPLPct = snapshot.Totals.TotalUnrealizedPL / snapshot.Totals.TotalInvested * 100
	}

	// Largest market value first; stable to keep reconstruction order
	// on ties.
	sort.SliceStable(snapshot.Positions, func(i, j int) bool {
		return snapshot.Positions[i].MarketValue > snapshot.Positions[j].MarketValue
	})

	return snapshot, nil
}

// ComputeHoldingsReport returns every security ever traded in the
// portfolio with its reconstructed quantities. Closed (netQty == 0)
// and oversold (netQty < 0) positions are shown here, flagged by
// status; only the valuation snapshot filters them out. The holdings
// projection is refreshed as a side effect, matching the reconstructed
// state.
func (s *Service) ComputeHoldingsReport(portfolioID int64) ([]HoldingRow, error) {
	events, err := s.ledgerStore.ListPositionEvents(portfolioID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list ledger events: %w", err)
	}

	positions := ReconstructAll(events)

	if err := s.replaceProjection(portfolioID, positions); err != nil {
		return nil, err
	}

	info, err := s.securityInfo(securityIDs(positions))
	if err != nil {
		return nil, err
	}

	rows := make([]HoldingRow, 0, len(positions))
	for _, pos := range positions {
		row := HoldingRow{
			SecurityID: pos.SecurityID,
			BoughtQty:  pos.BoughtQty,
			SoldQty:    pos.SoldQty,
			NetQty:     pos.NetQty(),
			Status:     statusFor(pos.NetQty()),
		}

		if sec, ok := info[pos.SecurityID]; ok {
			row.Ticker = sec.ticker
			row.SecType = sec.secType
		}

		if avg, ok := pos.AvgCostBasis(); ok {
			basis := avg
			row.AvgCostBasis = &basis
		}

		rows = append(rows, row)
	}

	return rows, nil
}

// replaceProjection stores average-cost rows for every position with
// bought shares. Positions with boughtQty == 0 get no row; they have
// no defined basis and must not be zero-valued into the cache.
func (s *Service) replaceProjection(portfolioID int64, positions []Position) error {
	rows := make([]ProjectionRow, 0, len(positions))
	for _, pos := range positions {
		avg, ok := pos.AvgCostBasis()
		if !ok {
			continue
		}
		rows = append(rows, ProjectionRow{SecurityID: pos.SecurityID, AvgCostBasis: avg})
	}

	if err := s.projection.ReplaceForPortfolio(portfolioID, rows); err != nil {
		return fmt.Errorf("failed to replace holdings projection: %w", err)
	}

	return nil
}

type securityDisplay struct {
	ticker  string
	secType string
}

// securityInfo loads display fields for report rows. A missing
// security row falls back to a synthetic ticker instead of failing the
// whole report.
func (s *Service) securityInfo(ids []int64) (map[int64]securityDisplay, error) {
	result := make(map[int64]securityDisplay, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]

	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	query := "SELECT id, ticker, sec_type FROM securities WHERE id IN (" + placeholders + ")"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, domain.NewStorageError("valuation.securityInfo", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		var display securityDisplay
		if err := rows.Scan(&id, &display.ticker, &display.secType); err != nil {
			return nil, fmt.Errorf("failed to scan security info: %w", err)
		}
		result[id] = display
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating security info: %w", err)
	}

	for _, id := range ids {
		if _, ok := result[id]; !ok {
			result[id] = securityDisplay{ticker: fmt.Sprintf("SEC-%d", id)}
		}
	}

	return result, nil
}

func securityIDs(positions []Position) []int64 {
	ids := make([]int64, len(positions))
	for i, pos := range positions {
		ids[i] = pos.SecurityID
	}
	return ids
}
