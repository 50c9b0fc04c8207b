package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/prismhq/prism/internal/analysis"
	"github.com/prismhq/prism/internal/answers"
	"github.com/prismhq/prism/internal/backends"
	"github.com/prismhq/prism/internal/brands"
	"github.com/prismhq/prism/internal/citations"
	"github.com/prismhq/prism/internal/config"
	"github.com/prismhq/prism/internal/infrastructure"
	"github.com/prismhq/prism/internal/metrics"
	"github.com/prismhq/prism/internal/pipeline"
)

func main() {
	var (
		brandFlag    = flag.String("brand", "", "Brand ID to process (required)")
		customerFlag = flag.String("customer", "", "Customer ID to process (required)")
		sinceFlag    = flag.Duration("since", 0, "Only process answers newer than this lookback (e.g. 24h; 0 = no bound)")
		limitFlag    = flag.Int("limit", 0, "Maximum answers per run (0 = no cap)")
		loopFlag     = flag.Bool("loop", false, "Run continuously with the reaper instead of once")
		intervalFlag = flag.Duration("interval", 5*time.Minute, "Delay between runs in loop mode")
	)
	flag.Parse()

	brandID, err := uuid.Parse(*brandFlag)
	if err != nil {
		log.Fatal("invalid -brand: ", err)
	}
	customerID, err := uuid.Parse(*customerFlag)
	if err != nil {
		log.Fatal("invalid -customer: ", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("config load failed: ", err)
	}

	infra, err := infrastructure.New(cfg)
	if err != nil {
		log.Fatal("infrastructure init failed: ", err)
	}

	logger := infra.Logger
	logger.Info("prism starting",
		"version", cfg.Version,
		"env", cfg.Env(),
		"brand_id", brandID,
		"loop", *loopFlag,
	)

	if err := infra.Start(); err != nil {
		log.Fatal("infrastructure start failed: ", err)
	}
	infra.Lifecycle.WaitForStartup()

	db := infra.Database.Connection()

	brandSystem := brands.New(db, logger)
	answerSystem := answers.New(db, logger,
		cfg.Pipeline.ReapStuckAfterDuration(),
		cfg.Pipeline.ReapDeadAfterDuration(),
	)
	metricSystem := metrics.New(db, logger)
	categories := citations.NewCategoryCache(db, logger)
	cache := analysis.NewCache(analysis.NewStore(db, logger), logger)

	openai := backends.NewOpenAI(cfg.Backends.OpenAI, logger)
	ollama := backends.Serialize(backends.NewOllama(cfg.Backends.Ollama, logger))

	rt := &pipeline.Runtime{
		Brands:     brandSystem,
		Answers:    answerSystem,
		Metrics:    metricSystem,
		Categories: categories,
		Cache:      cache,
		Breaker:    backends.NewBreaker(brandSystem, cfg.Pipeline.BreakerThreshold, logger),
		Logger:     logger,
		Config:     cfg.Pipeline,
	}

	switch cfg.Backends.Primary {
	case "ollama":
		rt.Primary = ollama
		rt.Fallback = openai
	default:
		rt.Primary = openai
	}

	pipe := pipeline.New(rt)

	var since *time.Time
	if *sinceFlag > 0 {
		t := time.Now().Add(-*sinceFlag)
		since = &t
	}

	ctx := infra.Lifecycle.Context()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan
		logger.Info("shutdown signal received")
		if err := infra.Lifecycle.Shutdown(cfg.ShutdownTimeoutDuration()); err != nil {
			logger.Error("shutdown incomplete", "error", err)
			os.Exit(1)
		}
		os.Exit(0)
	}()

	if *loopFlag {
		reaper := pipeline.NewReaper(answerSystem, cfg.Pipeline.ReapIntervalDuration(), logger)
		infra.Lifecycle.Background("reaper", logger, reaper.Run)

		runLoop(ctx, pipe, logger, brandID, customerID, since, *limitFlag, *intervalFlag)
		logger.Info("prism stopped")
		return
	}

	report, err := pipe.ProcessBacklog(ctx, brandID, customerID, since, *limitFlag)
	if err != nil {
		logger.Error("backlog run failed", "error", err)
		shutdown(infra, cfg)
		os.Exit(1)
	}

	out, _ := json.MarshalIndent(report, "", "  ")
	os.Stdout.Write(append(out, '\n'))

	shutdown(infra, cfg)
}

func runLoop(
	ctx context.Context,
	pipe pipeline.System,
	logger *slog.Logger,
	brandID, customerID uuid.UUID,
	since *time.Time,
	limit int,
	interval time.Duration,
) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := pipe.ProcessBacklog(ctx, brandID, customerID, since, limit); err != nil {
			logger.Error("backlog run failed", "error", err)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func shutdown(infra *infrastructure.Infrastructure, cfg *config.Config) {
	if err := infra.Lifecycle.Shutdown(cfg.ShutdownTimeoutDuration()); err != nil {
		infra.Logger.Error("shutdown incomplete", "error", err)
	}
}
