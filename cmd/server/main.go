package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/foliotrack/foliotrack/internal/config"
	"github.com/foliotrack/foliotrack/internal/database"
	"github.com/foliotrack/foliotrack/internal/modules/accounts"
	"github.com/foliotrack/foliotrack/internal/modules/ledger"
	"github.com/foliotrack/foliotrack/internal/modules/portfolios"
	"github.com/foliotrack/foliotrack/internal/modules/prices"
	"github.com/foliotrack/foliotrack/internal/modules/securities"
	"github.com/foliotrack/foliotrack/internal/modules/valuation"
	"github.com/foliotrack/foliotrack/internal/scheduler"
	"github.com/foliotrack/foliotrack/internal/server"
	"github.com/foliotrack/foliotrack/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		bootstrapLog := logger.New(logger.Config{Level: "info", Pretty: true})
		bootstrapLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Initialize logger
	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})

	log.Info().Msg("Starting foliotrack")

	// Initialize database
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	// Run migrations
	if err := db.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	// Repositories
	accountsRepo := accounts.NewRepository(db.Conn(), log)
	portfoliosRepo := portfolios.NewRepository(db.Conn(), log)
	securitiesRepo := securities.NewRepository(db.Conn(), log)
	ledgerRepo := ledger.NewRepository(db.Conn(), log)
	pricesRepo := prices.NewRepository(db.Conn(), log)
	holdingsRepo := valuation.NewHoldingsRepository(db.Conn(), log)

	// Services
	historyDB := prices.NewHistoryDB(cfg.PriceHistoryDir, pricesRepo, log)
	valuationService := valuation.NewService(ledgerRepo, pricesRepo, holdingsRepo, db.Conn(), log)

	// Scheduler with the nightly holdings rebuild
	sched := scheduler.New(log)
	rebuildJob := scheduler.NewRebuildHoldingsJob(log, portfoliosRepo, valuationService)
	if err := sched.AddJob(cfg.HoldingsRebuildSchedule, rebuildJob); err != nil {
		log.Fatal().Err(err).Msg("Failed to register holdings rebuild job")
	}
	sched.Start()
	defer sched.Stop()

	// HTTP server
	srv := server.New(server.Config{
		Port:    cfg.Port,
		Log:     log,
		DevMode: cfg.DevMode,
		Handlers: server.Handlers{
			Accounts:   accounts.NewHandlers(accountsRepo, log),
			Portfolios: portfolios.NewHandlers(portfoliosRepo, log),
			Securities: securities.NewHandlers(securitiesRepo, log),
			Ledger:     ledger.NewHandlers(ledgerRepo, log),
			Prices:     prices.NewHandlers(pricesRepo, historyDB, securitiesRepo, log),
			Valuation:  valuation.NewHandlers(valuationService, log),
		},
	})

	// Start server in goroutine
	go func() {
		if err := srv.Start(); err != nil {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
