package engine

import (
	"context"
	"fmt"
	"time"

	"llm-futures-trader/internal/interfaces"
	"llm-futures-trader/internal/logger"
	"llm-futures-trader/internal/notify"
)

// Run loops cycles forever until ctx is cancelled. The sleep between
// cycles is constant and measured from the end of one cycle to the
// start of the next. Cycle errors, including panics, are logged and
// never stop the loop.
func Run(ctx context.Context, eng interfaces.Engine, notifier Notifier, interval time.Duration, version string) {
	if interval <= 0 {
		interval = time.Hour
	}

	up := &notify.Message{Embeds: []notify.Embed{{
		Title:       "✅ Service Up",
		Description: "llm-futures-trader " + version,
		Color:       notify.ColorNeutral,
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
	}}}
	if err := notifier.Send(ctx, up); err != nil {
		logger.Warn(ctx, "Startup notification failed", "error", err)
	}

	for {
		runCycle(ctx, eng)

		select {
		case <-ctx.Done():
			logger.Info(ctx, "Scheduler stopped")
			return
		case <-time.After(interval):
		}
	}
}

func runCycle(ctx context.Context, eng interfaces.Engine) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error(ctx, "Cycle panicked", "panic", fmt.Sprint(r))
		}
	}()

	start := time.Now()
	result, err := eng.RunCycle(ctx)
	if err != nil {
		logger.ErrorWithErr(ctx, "Cycle failed", err, "duration_ms", time.Since(start).Milliseconds())
		return
	}
	succeeded := 0
	for _, o := range result.Outcomes {
		if o.Succeeded {
			succeeded++
		}
	}
	logger.Info(ctx, "Cycle completed",
		"actions", len(result.Outcomes),
		"succeeded", succeeded,
		"duration_ms", time.Since(start).Milliseconds(),
	)
}
