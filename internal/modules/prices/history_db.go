package prices

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3" // SQLite driver for external history files
	"github.com/rs/zerolog"
)

// HistoryDB reads external per-ticker EOD history database files and
// imports their daily prices into the price snapshot store. History
// files are named <TICKER>.db with dots replaced by underscores.
type HistoryDB struct {
	historyDir string
	repo       *Repository
	log        zerolog.Logger
}

// NewHistoryDB creates a new history importer
func NewHistoryDB(historyDir string, repo *Repository, log zerolog.Logger) *HistoryDB {
	return &HistoryDB{
		historyDir: historyDir,
		repo:       repo,
		log:        log.With().Str("component", "history_db").Logger(),
	}
}

// dailyRow is one daily_prices row of a history file
type dailyRow struct {
	Date   string
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume sql.NullInt64
}

// Import loads every daily price for a ticker from its history file
// and upserts them as 1D snapshots for the given security. Returns the
// number of rows imported.
func (h *HistoryDB) Import(securityID int64, ticker string) (int, error) {
	db, err := h.openHistoryDB(ticker)
	if err != nil {
		return 0, err
	}
	defer db.Close()

	query := `
		SELECT date, open_price, high_price, low_price, close_price, volume
		FROM daily_prices
		ORDER BY date ASC
	`

	rows, err := db.Query(query)
	if err != nil {
		return 0, fmt.Errorf("failed to query daily prices: %w", err)
	}
	defer rows.Close()

	imported := 0
	for rows.Next() {
		var row dailyRow
		if err := rows.Scan(&row.Date, &row.Open, &row.High, &row.Low, &row.Close, &row.Volume); err != nil {
			return imported, fmt.Errorf("failed to scan daily price: %w", err)
		}

		var volume int64
		if row.Volume.Valid {
			volume = row.Volume.Int64
		}

		snap := Snapshot{
			SecurityID:   securityID,
			SnapshotTime: row.Date + "T16:00:00Z", // EOD close
			Open:         row.Open,
			High:         row.High,
			Low:          row.Low,
			Close:        row.Close,
			Volume:       volume,
			Source:       "HistoryImport",
			IntervalCode: "1D",
		}

		if err := h.repo.Upsert(snap); err != nil {
			return imported, fmt.Errorf("failed to store imported snapshot: %w", err)
		}
		imported++
	}

	if err := rows.Err(); err != nil {
		return imported, fmt.Errorf("error iterating daily prices: %w", err)
	}

	h.log.Info().
		Int64("security_id", securityID).
		Str("ticker", ticker).
		Int("imported", imported).
		Msg("Price history imported")

	return imported, nil
}

// openHistoryDB opens the history database file for a ticker
func (h *HistoryDB) openHistoryDB(ticker string) (*sql.DB, error) {
	// Convert ticker format: AAPL.US -> AAPL_US
	dbTicker := strings.ReplaceAll(strings.ToUpper(strings.TrimSpace(ticker)), ".", "_")

	dbPath := filepath.Join(h.historyDir, dbTicker+".db")

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database for %s: %w", ticker, err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping history database for %s: %w", ticker, err)
	}

	return db, nil
}
