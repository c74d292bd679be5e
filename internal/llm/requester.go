// Package llm turns account state and market snapshots into a validated
// decision batch via a chat completion provider.
package llm

import (
	"context"
	"fmt"
	"time"

	"llm-futures-trader/internal/interfaces"
	"llm-futures-trader/internal/logger"
	"llm-futures-trader/internal/retry"
	"llm-futures-trader/internal/types"
)

// DefaultSystemPrompt is the fixed system instruction for the single-turn
// decision exchange.
const DefaultSystemPrompt = "You are a professional crypto trader."

// DecisionError means the provider could not produce a usable decision
// batch within the retry budget. The cycle aborts.
type DecisionError struct {
	Err error
}

func (e *DecisionError) Error() string {
	return fmt.Sprintf("decision request failed: %v", e.Err)
}

func (e *DecisionError) Unwrap() error { return e.Err }

// Requester renders the prompt once per cycle and retries the completion
// exchange until a valid batch comes back or the budget runs out.
type Requester struct {
	completer interfaces.Completer
	renderer  *Renderer
	system    string
	pol       retry.Policy
}

func NewRequester(completer interfaces.Completer, renderer *Renderer, system string, pol retry.Policy) *Requester {
	if system == "" {
		system = DefaultSystemPrompt
	}
	return &Requester{completer: completer, renderer: renderer, system: system, pol: pol}
}

// Decisions builds the prompt from the cycle's state and returns the
// validated decision batch.
func (r *Requester) Decisions(ctx context.Context, state types.AccountState, snapshots []types.MarketSnapshot, pairs []string) (types.DecisionBatch, error) {
	prompt, err := r.renderer.Render(PromptVars{
		Balance:     state.Balance,
		Positions:   state.Positions,
		Pairs:       pairs,
		Markets:     snapshots,
		CurrentTime: time.Now().Format("2006-01-02 15:04:05"),
	})
	if err != nil {
		return types.DecisionBatch{}, &DecisionError{Err: err}
	}

	var batch types.DecisionBatch
	// An empty or unparseable payload is a transient provider glitch;
	// retry the whole exchange, not just the parse.
	err = r.pol.Do(ctx, func() error {
		raw, err := r.completer.Complete(ctx, r.system, prompt)
		if err != nil {
			return err
		}
		parsed, err := ParseDecisionBatch(raw)
		if err != nil {
			logger.Warn(ctx, "Discarding unparseable decision payload", "error", err)
			return err
		}
		batch = parsed
		return nil
	})
	if err != nil {
		return types.DecisionBatch{}, &DecisionError{Err: err}
	}
	return batch, nil
}
