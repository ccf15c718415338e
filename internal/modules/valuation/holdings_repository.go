package valuation

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/foliotrack/foliotrack/internal/domain"
)

// HoldingsRepository persists the holdings projection: the derived
// average-cost cache keyed by (portfolio, security). The ledger is
// always ground truth; rows here have no independent write path.
type HoldingsRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewHoldingsRepository creates a new holdings repository
func NewHoldingsRepository(db *sql.DB, log zerolog.Logger) *HoldingsRepository {
	return &HoldingsRepository{
		db:  db,
		log: log.With().Str("repo", "holdings").Logger(),
	}
}

// ReplaceForPortfolio atomically swaps a portfolio's projection rows
// for freshly computed ones. Delete and reinsert happen in a single
// transaction so concurrent readers never observe a half-built
// projection; any error rolls the whole rebuild back.
func (r *HoldingsRepository) ReplaceForPortfolio(portfolioID int64, rows []ProjectionRow) error {
	tx, err := r.db.Begin()
	if err != nil {
		return domain.NewStorageError("holdings.ReplaceForPortfolio", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec("DELETE FROM holdings WHERE portfolio_id = ?", portfolioID); err != nil {
		return domain.NewStorageError("holdings.ReplaceForPortfolio", err)
	}

	now := time.Now().Format(time.RFC3339)
	insert := `
		INSERT INTO holdings (portfolio_id, security_id, avg_cost_basis, rebuilt_at)
		VALUES (?, ?, ?, ?)
	`

	for _, row := range rows {
		if _, err := tx.Exec(insert, portfolioID, row.SecurityID, row.AvgCostBasis, now); err != nil {
			return domain.NewStorageError("holdings.ReplaceForPortfolio", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return domain.NewStorageError("holdings.ReplaceForPortfolio", err)
	}

	r.log.Info().
		Int64("portfolio_id", portfolioID).
		Int("rows", len(rows)).
		Msg("Holdings projection rebuilt")

	return nil
}

// GetForPortfolio returns the current projection rows of a portfolio
// ordered by security
func (r *HoldingsRepository) GetForPortfolio(portfolioID int64) ([]ProjectionRow, error) {
	query := `
		SELECT security_id, avg_cost_basis FROM holdings
		WHERE portfolio_id = ?
		ORDER BY security_id
	`

	rows, err := r.db.Query(query, portfolioID)
	if err != nil {
		return nil, domain.NewStorageError("holdings.GetForPortfolio", err)
	}
	defer rows.Close()

	var result []ProjectionRow
	for rows.Next() {
		var row ProjectionRow
		if err := rows.Scan(&row.SecurityID, &row.AvgCostBasis); err != nil {
			return nil, fmt.Errorf("failed to scan holding: %w", err)
		}
		result = append(result, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating holdings: %w", err)
	}

	return result, nil
}
