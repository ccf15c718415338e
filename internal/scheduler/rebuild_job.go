package scheduler

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/foliotrack/foliotrack/internal/modules/portfolios"
)

// PortfolioLister enumerates portfolios for the nightly rebuild
type PortfolioLister interface {
	GetAll() ([]portfolios.Portfolio, error)
}

// HoldingsRebuilder rebuilds one portfolio's holdings projection
type HoldingsRebuilder interface {
	RebuildHoldings(portfolioID int64) error
}

// RebuildHoldingsJob refreshes the holdings projection of every
// portfolio. The rebuild is an idempotent cache refresh, so running it
// nightly (or manually at any time) is always safe.
type RebuildHoldingsJob struct {
	log        zerolog.Logger
	portfolios PortfolioLister
	rebuilder  HoldingsRebuilder
}

// NewRebuildHoldingsJob creates a new holdings rebuild job
func NewRebuildHoldingsJob(log zerolog.Logger, lister PortfolioLister, rebuilder HoldingsRebuilder) *RebuildHoldingsJob {
	return &RebuildHoldingsJob{
		log:        log.With().Str("job", "rebuild_holdings").Logger(),
		portfolios: lister,
		rebuilder:  rebuilder,
	}
}

// Name returns the job name
func (j *RebuildHoldingsJob) Name() string {
	return "rebuild_holdings"
}

// Run rebuilds the holdings projection for all portfolios. A failure
// on one portfolio is logged and the rest still rebuild.
func (j *RebuildHoldingsJob) Run() error {
	startTime := time.Now()

	all, err := j.portfolios.GetAll()
	if err != nil {
		j.log.Error().Err(err).Msg("Failed to list portfolios")
		return err
	}

	failed := 0
	for _, p := range all {
		if err := j.rebuilder.RebuildHoldings(p.ID); err != nil {
			failed++
			j.log.Error().Err(err).Int64("portfolio_id", p.ID).Msg("Holdings rebuild failed")
		}
	}

	j.log.Info().
		Int("portfolios", len(all)).
		Int("failed", failed).
		Dur("duration", time.Since(startTime)).
		Msg("Nightly holdings rebuild completed")

	return nil
}
