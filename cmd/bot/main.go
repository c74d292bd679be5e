package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"llm-futures-trader/internal/engine"
	"llm-futures-trader/internal/eod"
	"llm-futures-trader/internal/logger"
	"llm-futures-trader/internal/retry"
	"llm-futures-trader/internal/trace"
)

const version = "0.3.0"

func main() {
	if err := initializeSystem(); err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = trace.Shutdown(shutdownCtx)
	}()

	cfg, err := loadConfig(ctx)
	if err != nil {
		log.Fatal(err)
	}

	compressOldLogs(ctx)

	pol := retry.DefaultPolicy()
	if cfg.Retry.MaxAttempts > 0 {
		pol.MaxAttempts = cfg.Retry.MaxAttempts
	}

	exch := initializeExchange(ctx, cfg)
	requester, err := initializeRequester(cfg, pol)
	if err != nil {
		log.Fatal(err)
	}
	notifier := initializeNotifier(ctx)
	eng := initializeEngine(cfg, exch, requester, notifier, pol)

	logger.Info(ctx, "Bot started",
		"version", version,
		"pairs", cfg.Trading.Pairs,
		"interval_seconds", cfg.Trading.IntervalSeconds,
		"sandbox", cfg.Sandbox,
	)

	engine.Run(ctx, eng, notifier, time.Duration(cfg.Trading.IntervalSeconds)*time.Second, version)

	if p, err := eod.SummarizeToday(); err != nil {
		logger.Warn(context.Background(), "EOD summary failed", "error", err)
	} else if p != "" {
		logger.Info(context.Background(), "EOD summary written", "file", p)
	}
}
