package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/optifolio/optifolio/internal/clients/yahoo"
	"github.com/optifolio/optifolio/internal/config"
	"github.com/optifolio/optifolio/internal/database"
	"github.com/optifolio/optifolio/internal/modules/allocation"
	"github.com/optifolio/optifolio/internal/modules/extraction"
	"github.com/optifolio/optifolio/internal/modules/forecasting"
	"github.com/optifolio/optifolio/internal/modules/reporting"
	"github.com/optifolio/optifolio/internal/pipeline"
	"github.com/optifolio/optifolio/internal/scheduler"
	"github.com/optifolio/optifolio/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		boot := logger.New(logger.Config{Level: "info", Pretty: true})
		boot.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.PrettyLogs,
	})

	log.Info().Msg("Starting optifolio")

	// Optional local quote cache
	var cache extraction.Cache
	if cfg.CachePath != "" {
		db, err := database.New(cfg.CachePath)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to open quote cache")
		}
		defer db.Close()
		if err := db.Migrate(); err != nil {
			log.Fatal().Err(err).Msg("Failed to migrate quote cache")
		}
		cache = database.NewQuoteCache(db, log)
	}

	// Optional remote store; a nil store means credentials were absent and
	// persistence is skipped.
	store, err := reporting.NewStore(cfg.DatabaseURL, cfg.TableName, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to remote store")
	}
	if store == nil {
		log.Warn().Msg("DATABASE_URL not set, results will not be persisted")
	} else if err := store.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to migrate remote store")
	}

	pipe := pipeline.New(
		extraction.NewService(yahoo.NewClient(log), cache, log),
		forecasting.NewService(forecasting.NewModel(forecasting.DefaultSettings(), log), log),
		allocation.NewOptimizer(log),
		cfg,
		log,
	)

	job := &optimizationJob{pipe: pipe, store: store, log: log}

	if cfg.Schedule == "" {
		if err := job.Run(); err != nil {
			log.Error().Err(err).Msg("Run failed")
			os.Exit(1)
		}
		return
	}

	sched := scheduler.New(log)
	if err := sched.AddJob(cfg.Schedule, job); err != nil {
		log.Fatal().Err(err).Msg("Failed to register job")
	}
	sched.Start()
	defer sched.Stop()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down")
}

// optimizationJob runs the full pipeline once and persists the result.
type optimizationJob struct {
	pipe  *pipeline.Pipeline
	store *reporting.Store
	log   zerolog.Logger
}

func (j *optimizationJob) Name() string { return "portfolio_optimization" }

func (j *optimizationJob) Run() error {
	report, err := j.pipe.Run(context.Background())
	if err != nil {
		if errors.Is(err, pipeline.ErrNoData) {
			j.log.Error().Msg("Optimization returned empty result")
		}
		return err
	}

	report.Log(j.log)

	if j.store == nil {
		j.log.Warn().Msg("Persistence skipped: remote store not configured")
		return nil
	}

	if err := j.store.Save(report); err != nil {
		return err
	}
	return nil
}
