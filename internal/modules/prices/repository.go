package prices

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/foliotrack/foliotrack/internal/domain"
)

// Repository handles price snapshot database operations
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new price repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "prices").Logger(),
	}
}

// Upsert stores a snapshot, overwriting any existing row with the same
// (security_id, snapshot_time) natural key.
func (r *Repository) Upsert(snap Snapshot) error {
	if snap.Source == "" {
		snap.Source = "Manual"
	}
	if snap.IntervalCode == "" {
		snap.IntervalCode = "1D"
	}

	query := `
		INSERT INTO price_snapshots
		(security_id, snapshot_time, open_price, high_price, low_price, close_price,
		 volume, source, interval_code)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (security_id, snapshot_time) DO UPDATE SET
			open_price = excluded.open_price,
			high_price = excluded.high_price,
			low_price = excluded.low_price,
			close_price = excluded.close_price,
			volume = excluded.volume,
			source = excluded.source,
			interval_code = excluded.interval_code
	`

	_, err := r.db.Exec(query,
		snap.SecurityID,
		snap.SnapshotTime,
		snap.Open,
		snap.High,
		snap.Low,
		snap.Close,
		snap.Volume,
		snap.Source,
		snap.IntervalCode,
	)
	if err != nil {
		return domain.NewStorageError("prices.Upsert", err)
	}

	r.log.Debug().
		Int64("security_id", snap.SecurityID).
		Str("snapshot_time", snap.SnapshotTime).
		Float64("close", snap.Close).
		Msg("Price snapshot stored")

	return nil
}

// Latest returns the snapshot with the maximum timestamp for a
// security, or nil if the security has no observations.
func (r *Repository) Latest(securityID int64) (*Snapshot, error) {
	query := `
		SELECT id, security_id, snapshot_time, open_price, high_price, low_price,
		       close_price, volume, source, interval_code
		FROM price_snapshots
		WHERE security_id = ?
		ORDER BY snapshot_time DESC
		LIMIT 1
	`

	var snap Snapshot
	err := r.db.QueryRow(query, securityID).Scan(
		&snap.ID,
		&snap.SecurityID,
		&snap.SnapshotTime,
		&snap.Open,
		&snap.High,
		&snap.Low,
		&snap.Close,
		&snap.Volume,
		&snap.Source,
		&snap.IntervalCode,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, domain.NewStorageError("prices.Latest", err)
	}

	return &snap, nil
}

// GetCloses returns the close-price series for a security ordered
// oldest first, for analytics over the stored history.
func (r *Repository) GetCloses(securityID int64) ([]float64, error) {
	query := `
		SELECT close_price FROM price_snapshots
		WHERE security_id = ?
		ORDER BY snapshot_time ASC
	`

	rows, err := r.db.Query(query, securityID)
	if err != nil {
		return nil, domain.NewStorageError("prices.GetCloses", err)
	}
	defer rows.Close()

	var closes []float64
	for rows.Next() {
		var c float64
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("failed to scan close price: %w", err)
		}
		closes = append(closes, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating close prices: %w", err)
	}

	return closes, nil
}
