package ledger

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/foliotrack/foliotrack/internal/domain"
)

// Repository handles ledger database operations. The trades table is
// append-only: rows are inserted, never updated or deleted.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new ledger repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "ledger").Logger(),
	}
}

// Record validates and appends an event to the ledger. The trade
// currency is derived from the referenced security; a missing security
// aborts the insert with a DataInconsistencyError.
func (r *Repository) Record(event Event) (int64, error) {
	if err := event.Validate(); err != nil {
		return 0, err
	}

	var currency sql.NullString
	err := r.db.QueryRow("SELECT currency FROM securities WHERE id = ?", event.SecurityID).Scan(&currency)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && !currency.Valid) {
		return 0, domain.NewDataInconsistencyError("security %d has no currency", event.SecurityID)
	}
	if err != nil {
		return 0, domain.NewStorageError("ledger.Record", err)
	}
	event.TradeCurrency = currency.String

	query := `
		INSERT INTO trades
		(portfolio_id, security_id, kind, trade_date, settle_date,
		 quantity, unit_price, fees, trade_currency, notes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.Exec(query,
		event.PortfolioID,
		event.SecurityID,
		string(event.Kind),
		event.TradeDate,
		event.SettleDate,
		event.Quantity,
		event.UnitPrice,
		event.Fees,
		event.TradeCurrency,
		nullString(event.Notes),
		time.Now().Format(time.RFC3339),
	)
	if err != nil {
		return 0, domain.NewStorageError("ledger.Record", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, domain.NewStorageError("ledger.Record", err)
	}

	r.log.Info().
		Int64("event_id", id).
		Int64("portfolio_id", event.PortfolioID).
		Int64("security_id", event.SecurityID).
		Str("kind", string(event.Kind)).
		Float64("quantity", event.Quantity).
		Msg("Ledger event recorded")

	return id, nil
}

// ListPositionEvents returns the BUY and SELL events of a portfolio,
// optionally restricted to one security, ordered by (trade_date, id).
// Dividends never enter position math and are excluded here.
func (r *Repository) ListPositionEvents(portfolioID int64, securityID *int64) ([]Event, error) {
	query := `
		SELECT id, portfolio_id, security_id, kind, trade_date, settle_date,
		       quantity, unit_price, fees, trade_currency, notes, created_at
		FROM trades
		WHERE portfolio_id = ? AND kind IN ('BUY','SELL')
	`
	args := []interface{}{portfolioID}

	if securityID != nil {
		query += " AND security_id = ?"
		args = append(args, *securityID)
	}

	query += " ORDER BY trade_date, id"

	return r.queryEvents(query, args...)
}

// ListBySecurity returns the full event history for one
// (portfolio, security) pair including dividends, oldest first.
func (r *Repository) ListBySecurity(portfolioID, securityID int64) ([]Event, error) {
	query := `
		SELECT id, portfolio_id, security_id, kind, trade_date, settle_date,
		       quantity, unit_price, fees, trade_currency, notes, created_at
		FROM trades
		WHERE portfolio_id = ? AND security_id = ?
		ORDER BY trade_date, id
	`

	return r.queryEvents(query, portfolioID, securityID)
}

// TradedSecurityIDs returns every security ever traded in a portfolio
func (r *Repository) TradedSecurityIDs(portfolioID int64) ([]int64, error) {
	query := `
		SELECT DISTINCT security_id FROM trades
		WHERE portfolio_id = ?
		ORDER BY security_id
	`

	rows, err := r.db.Query(query, portfolioID)
	if err != nil {
		return nil, domain.NewStorageError("ledger.TradedSecurityIDs", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan security id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating security ids: %w", err)
	}

	return ids, nil
}

func (r *Repository) queryEvents(query string, args ...interface{}) ([]Event, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, domain.NewStorageError("ledger.queryEvents", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		event, err := r.scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating events: %w", err)
	}

	return events, nil
}

func (r *Repository) scanEvent(rows *sql.Rows) (Event, error) {
	var event Event
	var kind string
	var notes sql.NullString

	err := rows.Scan(
		&event.ID,
		&event.PortfolioID,
		&event.SecurityID,
		&kind,
		&event.TradeDate,
		&event.SettleDate,
		&event.Quantity,
		&event.UnitPrice,
		&event.Fees,
		&event.TradeCurrency,
		&notes,
		&event.CreatedAt,
	)
	if err != nil {
		return event, err
	}

	event.Kind = EventKind(kind)
	if notes.Valid {
		event.Notes = notes.String
	}

	return event, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: s, Valid: true}
}
