package securities

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Repository handles security database operations
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new security repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "security").Logger(),
	}
}

// Create inserts a new security and returns its ID
func (r *Repository) Create(sec Security) (int64, error) {
	if strings.TrimSpace(sec.Ticker) == "" {
		return 0, fmt.Errorf("ticker cannot be empty")
	}

	sec.Ticker = strings.ToUpper(strings.TrimSpace(sec.Ticker))
	if sec.Exchange == "" {
		sec.Exchange = "UNKNOWN"
	}
	if sec.Currency == "" {
		sec.Currency = "USD"
	}
	if sec.SecType == "" {
		sec.SecType = "STOCK"
	}

	query := `
		INSERT INTO securities (ticker, exchange, currency, sec_type, sector, industry, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.Exec(query,
		sec.Ticker,
		strings.ToUpper(sec.Exchange),
		strings.ToUpper(sec.Currency),
		strings.ToUpper(sec.SecType),
		nullString(sec.Sector),
		nullString(sec.Industry),
		time.Now().Format(time.RFC3339),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to create security: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get security id: %w", err)
	}

	r.log.Info().Int64("security_id", id).Str("ticker", sec.Ticker).Msg("Security created")
	return id, nil
}

// GetByID returns a security by ID, or nil if it does not exist
func (r *Repository) GetByID(id int64) (*Security, error) {
	query := `
		SELECT id, ticker, exchange, currency, sec_type, sector, industry, created_at
		FROM securities WHERE id = ?
	`

	sec, err := r.scanSecurity(r.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get security by id: %w", err)
	}

	return &sec, nil
}

// GetByTicker returns a security by ticker symbol, or nil if not found
func (r *Repository) GetByTicker(ticker string) (*Security, error) {
	query := `
		SELECT id, ticker, exchange, currency, sec_type, sector, industry, created_at
		FROM securities WHERE ticker = ?
	`

	sec, err := r.scanSecurity(r.db.QueryRow(query, strings.ToUpper(strings.TrimSpace(ticker))))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get security by ticker: %w", err)
	}

	return &sec, nil
}

// GetAll returns every security ordered by ID
func (r *Repository) GetAll() ([]Security, error) {
	query := `
		SELECT id, ticker, exchange, currency, sec_type, sector, industry, created_at
		FROM securities ORDER BY id
	`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query securities: %w", err)
	}
	defer rows.Close()

	var securities []Security
	for rows.Next() {
		sec, err := r.scanSecurityRows(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan security: %w", err)
		}
		securities = append(securities, sec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating securities: %w", err)
	}

	return securities, nil
}

// AddTag attaches a tag to a security. Duplicate tags violate the
// primary key and surface as an error.
func (r *Repository) AddTag(securityID int64, label string) error {
	label = strings.TrimSpace(label)
	if label == "" {
		return fmt.Errorf("tag cannot be empty")
	}

	_, err := r.db.Exec("INSERT INTO security_tags (security_id, tag) VALUES (?, ?)", securityID, label)
	if err != nil {
		return fmt.Errorf("failed to add tag: %w", err)
	}

	r.log.Info().Int64("security_id", securityID).Str("tag", label).Msg("Tag added")
	return nil
}

// GetTags returns all tags for a security
func (r *Repository) GetTags(securityID int64) ([]string, error) {
	rows, err := r.db.Query("SELECT tag FROM security_tags WHERE security_id = ? ORDER BY tag", securityID)
	if err != nil {
		return nil, fmt.Errorf("failed to query tags: %w", err)
	}
	defer rows.Close()

	var tags []string
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return nil, fmt.Errorf("failed to scan tag: %w", err)
		}
		tags = append(tags, tag)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tags: %w", err)
	}

	return tags, nil
}

// ResolveTicker returns the ticker symbol for a security ID
func (r *Repository) ResolveTicker(securityID int64) (string, error) {
	var ticker string
	err := r.db.QueryRow("SELECT ticker FROM securities WHERE id = ?", securityID).Scan(&ticker)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("security %d not found", securityID)
	}
	if err != nil {
		return "", fmt.Errorf("failed to resolve ticker: %w", err)
	}
	return ticker, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *Repository) scanSecurity(row rowScanner) (Security, error) {
	var sec Security
	var sector, industry sql.NullString

	err := row.Scan(
		&sec.ID,
		&sec.Ticker,
		&sec.Exchange,
		&sec.Currency,
		&sec.SecType,
		&sector,
		&industry,
		&sec.CreatedAt,
	)
	if err != nil {
		return sec, err
	}

	if sector.Valid {
		sec.Sector = sector.String
	}
	if industry.Valid {
		sec.Industry = industry.String
	}

	return sec, nil
}

func (r *Repository) scanSecurityRows(rows *sql.Rows) (Security, error) {
	return r.scanSecurity(rows)
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: s, Valid: true}
}
