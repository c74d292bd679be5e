package main

import (
	"context"
	"fmt"
	"os"

	"llm-futures-trader/internal/account"
	"llm-futures-trader/internal/engine"
	"llm-futures-trader/internal/engine/engineobs"
	"llm-futures-trader/internal/interfaces"
	"llm-futures-trader/internal/llm"
	"llm-futures-trader/internal/llm/llmobs"
	"llm-futures-trader/internal/logger"
	"llm-futures-trader/internal/market"
	"llm-futures-trader/internal/notify"
	"llm-futures-trader/internal/okx"
	"llm-futures-trader/internal/okx/okxobs"
	"llm-futures-trader/internal/retry"
	"llm-futures-trader/internal/store"
	"llm-futures-trader/internal/trace"
	"llm-futures-trader/internal/tradelog"

	"github.com/joho/godotenv"
)

// initializeSystem loads the environment and brings up logging and tracing.
func initializeSystem() error {
	_ = godotenv.Load()

	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if err := trace.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize tracer: %v\n", err)
	}

	return nil
}

func loadConfig(ctx context.Context) (*store.Config, error) {
	cfg, err := store.LoadConfig("config.yaml")
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to load config", err)
		return nil, err
	}
	return cfg, nil
}

// compressOldLogs compresses old tradelog files if retention is configured.
func compressOldLogs(ctx context.Context) {
	if v := os.Getenv("TRADER_LOG_RETENTION_DAYS"); v != "" {
		var n int
		fmt.Sscanf(v, "%d", &n)
		if err := tradelog.CompressOlder(n); err != nil {
			logger.Warn(ctx, "Failed to compress old logs", "error", err)
		}
	}
}

// initializeExchange builds the OKX client with observability middleware.
func initializeExchange(ctx context.Context, cfg *store.Config) okxobs.Exchange {
	client := okx.New(okx.Params{
		BaseURL:    cfg.Exchange.BaseURL,
		APIKey:     os.Getenv("OKX_API_KEY"),
		APISecret:  os.Getenv("OKX_API_SECRET"),
		Passphrase: os.Getenv("OKX_PASSPHRASE"),
		Sandbox:    cfg.Sandbox,
	})

	if cfg.Sandbox {
		logger.Info(ctx, "Running against the exchange demo environment")
	} else {
		logger.Warn(ctx, "PRODUCTION trading enabled - orders will use real funds")
	}

	return okxobs.Wrap(client)
}

// initializeRequester builds the decision requester: prompt renderer plus
// an OpenAI-compatible completion client with observability middleware.
func initializeRequester(cfg *store.Config, pol retry.Policy) (*llm.Requester, error) {
	renderer, err := llm.NewRenderer(cfg.PromptPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load prompt template: %w", err)
	}

	completer := llmobs.Wrap(llm.NewChatCompleter(llm.CompleterConfig{
		BaseURL:     cfg.LLM.BaseURL,
		APIKey:      os.Getenv("LLM_API_KEY"),
		Model:       cfg.LLM.Model,
		Temperature: float32(cfg.LLM.Temperature),
		MaxTokens:   cfg.LLM.MaxTokens,
	}))

	return llm.NewRequester(completer, renderer, cfg.LLM.System, pol), nil
}

// initializeNotifier builds the notifier. Without a webhook configured it
// degrades to a silent no-op.
func initializeNotifier(ctx context.Context) *notify.Notifier {
	webhook := os.Getenv("DISCORD_WEBHOOK_URL")
	if webhook == "" {
		logger.Warn(ctx, "DISCORD_WEBHOOK_URL not set - notifications disabled")
		return notify.NewNotifier()
	}
	return notify.NewNotifier(notify.NewDiscordSender(webhook))
}

// initializeEngine assembles the cycle engine with observability middleware.
func initializeEngine(cfg *store.Config, exch okxobs.Exchange, requester *llm.Requester, notifier *notify.Notifier, pol retry.Policy) interfaces.Engine {
	marketFetcher := market.NewFetcher(exch, market.Config{
		Bar:   cfg.Trading.CandleBar,
		Limit: cfg.Trading.CandleLimit,
		Retry: pol,
	})
	accountFetcher := account.NewFetcher(exch, exch, account.Config{
		Currency: cfg.Trading.Currency,
		Retry:    pol,
	})
	executor := engine.NewExecutor(exch, exch, cfg.Trading.MarginMode, cfg.Trading.Currency)

	eng := engine.New(engine.Config{
		Pairs:   cfg.Trading.Pairs,
		Version: version,
	}, accountFetcher, marketFetcher, requester, executor, notifier)

	return engineobs.Wrap(eng)
}
