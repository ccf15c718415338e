package portfolios

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Repository handles portfolio database operations
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new portfolio repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "portfolio").Logger(),
	}
}

// Create inserts a new portfolio and returns its ID
func (r *Repository) Create(p Portfolio) (int64, error) {
	if p.OwnerUserID == 0 {
		return 0, fmt.Errorf("owner_user_id is required")
	}
	if strings.TrimSpace(p.Name) == "" {
		return 0, fmt.Errorf("name cannot be empty")
	}
	if p.BaseCurrency == "" {
		p.BaseCurrency = "USD"
	}

	query := `
		INSERT INTO portfolios (owner_user_id, name, base_currency, brokerage_account_id, created_at)
		VALUES (?, ?, ?, ?, ?)
	`

	result, err := r.db.Exec(query,
		p.OwnerUserID,
		strings.TrimSpace(p.Name),
		strings.ToUpper(p.BaseCurrency),
		p.BrokerageAccountID,
		time.Now().Format(time.RFC3339),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to create portfolio: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get portfolio id: %w", err)
	}

	r.log.Info().Int64("portfolio_id", id).Str("name", p.Name).Msg("Portfolio created")
	return id, nil
}

// GetByID returns a portfolio by ID, or nil if it does not exist
func (r *Repository) GetByID(id int64) (*Portfolio, error) {
	query := `
		SELECT id, owner_user_id, name, base_currency, brokerage_account_id, created_at
		FROM portfolios WHERE id = ?
	`

	p, err := r.scanPortfolio(r.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get portfolio: %w", err)
	}

	return &p, nil
}

// GetByOwner returns a user's portfolios ordered by ID
func (r *Repository) GetByOwner(ownerUserID int64) ([]Portfolio, error) {
	query := `
		SELECT id, owner_user_id, name, base_currency, brokerage_account_id, created_at
		FROM portfolios WHERE owner_user_id = ? ORDER BY id
	`

	return r.queryPortfolios(query, ownerUserID)
}

// GetAll returns every portfolio ordered by ID
func (r *Repository) GetAll() ([]Portfolio, error) {
	query := `
		SELECT id, owner_user_id, name, base_currency, brokerage_account_id, created_at
		FROM portfolios ORDER BY id
	`

	return r.queryPortfolios(query)
}

// RelinkAccount moves a portfolio to another brokerage account. A nil
// accountID detaches the portfolio. Trades and valuation are
// unaffected.
func (r *Repository) RelinkAccount(portfolioID int64, accountID *int64) error {
	result, err := r.db.Exec(
		"UPDATE portfolios SET brokerage_account_id = ? WHERE id = ?",
		accountID, portfolioID,
	)
	if err != nil {
		return fmt.Errorf("failed to relink portfolio: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check relink result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("portfolio %d not found", portfolioID)
	}

	r.log.Info().Int64("portfolio_id", portfolioID).Msg("Portfolio relinked")
	return nil
}

func (r *Repository) queryPortfolios(query string, args ...interface{}) ([]Portfolio, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query portfolios: %w", err)
	}
	defer rows.Close()

	var portfolios []Portfolio
	for rows.Next() {
		p, err := r.scanPortfolio(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan portfolio: %w", err)
		}
		portfolios = append(portfolios, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating portfolios: %w", err)
	}

	return portfolios, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *Repository) scanPortfolio(row rowScanner) (Portfolio, error) {
	var p Portfolio
	var accountID sql.NullInt64

	err := row.Scan(
		&p.ID,
		&p.OwnerUserID,
		&p.Name,
		&p.BaseCurrency,
		&accountID,
		&p.CreatedAt,
	)
	if err != nil {
		return p, err
	}

	if accountID.Valid {
		p.BrokerageAccountID = &accountID.Int64
	}

	return p, nil
}
