// Package main is the entry point for the dumbfi portfolio server. It wires
// the tax-lot rebalancing engine to stored portfolio state, market data
// sync and the HTTP API.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bcutrell/dumbfi/internal/config"
	"github.com/bcutrell/dumbfi/internal/database"
	"github.com/bcutrell/dumbfi/internal/modules/marketdata"
	"github.com/bcutrell/dumbfi/internal/modules/portfolio"
	"github.com/bcutrell/dumbfi/internal/modules/rebalancing"
	"github.com/bcutrell/dumbfi/internal/modules/risk"
	"github.com/bcutrell/dumbfi/internal/modules/taxlots"
	"github.com/bcutrell/dumbfi/internal/scheduler"
	"github.com/bcutrell/dumbfi/internal/server"
	"github.com/bcutrell/dumbfi/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{Level: "info", Pretty: true})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})
	logger.SetGlobalLogger(log)

	log.Info().Msg("Starting dumbfi")

	// Databases: portfolio state is durable, market data is rebuildable.
	portfolioDB, err := database.New(database.Config{
		Path:    cfg.PortfolioDBPath(),
		Profile: database.ProfileStandard,
		Name:    "portfolio",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open portfolio database")
	}
	defer portfolioDB.Close()

	marketDB, err := database.New(database.Config{
		Path:    cfg.MarketDBPath(),
		Profile: database.ProfileCache,
		Name:    "market",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open market database")
	}
	defer marketDB.Close()

	for _, db := range []*database.DB{portfolioDB, marketDB} {
		if err := db.Migrate(); err != nil {
			log.Fatal().Err(err).Str("db", db.Name()).Msg("Failed to apply schema")
		}
	}

	// Portfolio module.
	holdingRepo := portfolio.NewHoldingRepository(portfolioDB.Conn(), log)
	portfolioSvc := portfolio.NewService(holdingRepo, log)

	// Market data module.
	var provider marketdata.BarProvider
	if cfg.EODHDAPIKey != "" {
		provider = marketdata.NewEODHDClient(cfg.EODHDAPIKey, log)
	} else {
		log.Warn().Msg("EODHD_API_KEY not set, live price sync disabled")
	}
	priceRepo := marketdata.NewPriceRepository(marketDB.Conn(), log)
	quoteCache := marketdata.NewQuoteCache(marketDB.Conn(), 15*time.Minute, log)
	marketSvc := marketdata.NewService(provider, priceRepo, quoteCache, log)

	// Rebalancing module.
	rebalanceSvc := rebalancing.NewService(portfolioSvc, marketSvc, rebalancing.Settings{
		TaxRates: taxlots.TaxRates{
			ShortTerm: cfg.ShortTermRate,
			LongTerm:  cfg.LongTermRate,
		},
		LotSelection:   cfg.LotSelection,
		MinTradeSize:   cfg.MinTradeSize,
		DriftThreshold: cfg.DriftThreshold,
	}, log)

	// Risk module.
	riskSvc := risk.NewService(marketSvc, log)

	// Background jobs.
	sched := scheduler.New(log)
	syncJob := marketdata.NewSyncJob(marketSvc, portfolioSvc, log)
	if err := sched.AddJob(cfg.PriceSyncSchedule, syncJob); err != nil {
		log.Fatal().Err(err).Msg("Failed to register price sync job")
	}
	checkJob := rebalancing.NewCheckJob(rebalanceSvc, log)
	if err := sched.AddJob(cfg.RebalanceSchedule, checkJob); err != nil {
		log.Fatal().Err(err).Msg("Failed to register rebalance check job")
	}
	sched.Start()
	defer sched.Stop()

	srv := server.New(server.Config{
		Log:         log,
		Port:        cfg.Port,
		DevMode:     cfg.DevMode,
		PortfolioDB: portfolioDB,
		MarketDB:    marketDB,
		Modules: []server.RouteRegistrar{
			portfolio.NewHandlers(portfolioSvc, log),
			marketdata.NewHandlers(marketSvc, portfolioSvc, log),
			rebalancing.NewHandlers(rebalanceSvc, log),
			risk.NewHandlers(riskSvc, portfolioSvc, log),
		},
	})

	go func() {
		if err := srv.Start(); err != nil {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server shutdown failed")
	}
}
