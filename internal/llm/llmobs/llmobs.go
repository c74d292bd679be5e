// Package llmobs wraps the completion port with observability middleware.
package llmobs

import (
	"context"
	"time"

	"llm-futures-trader/internal/interfaces"
	"llm-futures-trader/internal/logger"
	"llm-futures-trader/internal/trace"
)

type observableCompleter struct {
	next interfaces.Completer
}

var _ interfaces.Completer = (*observableCompleter)(nil)

// Wrap wraps a completer with logging and tracing.
func Wrap(next interfaces.Completer) interfaces.Completer {
	return &observableCompleter{next: next}
}

func (o *observableCompleter) Complete(ctx context.Context, system, user string) (string, error) {
	ctx, span := trace.StartSpan(ctx, "llm.Complete")
	defer span.End()

	start := time.Now()
	logger.DebugSkip(ctx, 1, "Requesting completion", "prompt_chars", len(user))

	out, err := o.next.Complete(ctx, system, user)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Completion failed", err, "duration_ms", time.Since(start).Milliseconds())
		return "", err
	}
	logger.InfoSkip(ctx, 1, "Completion received",
		"duration_ms", time.Since(start).Milliseconds(),
		"response_chars", len(out),
	)
	return out, nil
}
