package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"llm-futures-trader/internal/interfaces"
	"llm-futures-trader/internal/logger"
	"llm-futures-trader/internal/notify"
	"llm-futures-trader/internal/tradelog"
	"llm-futures-trader/internal/types"
)

// AccountSource yields the current account view.
type AccountSource interface {
	State(ctx context.Context) (types.AccountState, error)
}

// SnapshotSource yields market snapshots for all configured pairs.
type SnapshotSource interface {
	SnapshotAll(ctx context.Context, pairs []string) ([]types.MarketSnapshot, error)
}

// DecisionSource asks the model for a decision batch.
type DecisionSource interface {
	Decisions(ctx context.Context, state types.AccountState, snapshots []types.MarketSnapshot, pairs []string) (types.DecisionBatch, error)
}

// Notifier delivers a batch message. Delivery failures never fail a cycle.
type Notifier interface {
	Send(ctx context.Context, msg *notify.Message) error
}

type Config struct {
	Pairs   []string
	Version string
}

// Engine drives one full trading cycle: account state, market snapshots,
// model decisions, execution, notification.
type Engine struct {
	cfg      Config
	account  AccountSource
	market   SnapshotSource
	decider  DecisionSource
	executor *Executor
	notifier Notifier
}

var _ interfaces.Engine = (*Engine)(nil)

func New(cfg Config, account AccountSource, market SnapshotSource, decider DecisionSource, executor *Executor, notifier Notifier) *Engine {
	return &Engine{cfg: cfg, account: account, market: market, decider: decider, executor: executor, notifier: notifier}
}

// RunCycle executes one iteration. Any fetch or decision failure aborts
// the cycle before execution; execution failures never abort it.
func (e *Engine) RunCycle(ctx context.Context) (*types.CycleResult, error) {
	state, err := e.account.State(ctx)
	if err != nil {
		return nil, err
	}
	logger.Debug(ctx, "Account state fetched", "balance", state.Balance, "positions", len(state.Positions))

	snapshots, err := e.market.SnapshotAll(ctx, e.cfg.Pairs)
	if err != nil {
		return nil, err
	}
	logger.Debug(ctx, "Market snapshots fetched", "pairs", len(snapshots))

	batch, err := e.decider.Decisions(ctx, state, snapshots, e.cfg.Pairs)
	if err != nil {
		return nil, err
	}
	for _, d := range batch.Actions {
		logger.Decision(ctx, d.Pair, string(d.Type), d.Confidence, d.Rationale)
	}
	if err := tradelog.AppendDecision(tradelog.DecisionEntry{
		Reasoning: batch.Reasoning,
		Summary:   batch.Summary,
		Actions:   len(batch.Actions),
	}); err != nil {
		logger.Warn(ctx, "Decision log append failed", "error", err)
	}

	outcomes := e.executor.Execute(ctx, batch.Actions)

	result := &types.CycleResult{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Reasoning: batch.Reasoning,
		Summary:   batch.Summary,
		Outcomes:  outcomes,
	}
	e.notifyOutcomes(ctx, result)
	return result, nil
}

// notifyOutcomes flushes every outcome of the cycle as one message, all
// embeds stamped with the cycle timestamp.
func (e *Engine) notifyOutcomes(ctx context.Context, result *types.CycleResult) {
	if len(result.Outcomes) == 0 {
		return
	}
	embeds := make([]notify.Embed, 0, len(result.Outcomes))
	for _, o := range result.Outcomes {
		em := outcomeEmbed(o)
		em.Timestamp = result.Timestamp
		embeds = append(embeds, em)
	}
	if err := e.notifier.Send(ctx, &notify.Message{Embeds: embeds}); err != nil {
		logger.Warn(ctx, "Cycle notification failed", "error", err)
	}
}

func outcomeEmbed(o types.ActionOutcome) notify.Embed {
	d := o.Decision
	symbol := baseSymbol(d.Pair)
	var title string
	color := notify.ColorNeutral
	switch {
	case d.Type == types.ActionClose:
		title = "❌ CLOSE " + symbol
	case d.Side == "sell":
		title = "\U0001f4c9 SELL " + symbol
		color = notify.ColorSell
	default:
		title = "\U0001f4c8 BUY " + symbol
		color = notify.ColorBuy
	}
	desc := d.Rationale
	if desc != "" {
		desc += "\n"
	}
	desc += fmt.Sprintf("Confidence: %v\n", d.Confidence)
	desc += o.Response
	if !o.Succeeded {
		title += " (failed)"
	}
	return notify.Embed{Title: title, Description: desc, Color: color}
}

// baseSymbol reduces an instrument id to its base currency, e.g.
// "BTC-USDT-SWAP" to "BTC".
func baseSymbol(pair string) string {
	if i := strings.Index(pair, "-"); i > 0 {
		return pair[:i]
	}
	return pair
}
