package engine

import (
	"context"
	"fmt"
	"strings"

	"llm-futures-trader/internal/interfaces"
	"llm-futures-trader/internal/logger"
	"llm-futures-trader/internal/okx"
	"llm-futures-trader/internal/tradelog"
	"llm-futures-trader/internal/types"
)

// Executor turns model decisions into exchange calls. Decisions run
// strictly in order; a failed decision is recorded and the batch
// continues. Execution calls are never retried.
type Executor struct {
	account    interfaces.Account
	orders     interfaces.Orders
	marginMode string
	currency   string
}

func NewExecutor(account interfaces.Account, orders interfaces.Orders, marginMode, currency string) *Executor {
	if marginMode == "" {
		marginMode = "isolated"
	}
	if currency == "" {
		currency = "USDT"
	}
	return &Executor{account: account, orders: orders, marginMode: marginMode, currency: currency}
}

// Execute runs every decision and returns one outcome per decision,
// in the same order.
func (x *Executor) Execute(ctx context.Context, decisions []types.Decision) []types.ActionOutcome {
	outcomes := make([]types.ActionOutcome, 0, len(decisions))
	for _, d := range decisions {
		var out types.ActionOutcome
		switch d.Type {
		case types.ActionOpen:
			out = x.open(ctx, d)
		case types.ActionClose:
			out = x.close(ctx, d)
		default:
			out = types.ActionOutcome{Decision: d, Response: fmt.Sprintf("unknown action type %q", d.Type)}
		}
		logger.Trade(ctx, d.Pair, string(d.Type), out.Response, out.Succeeded)
		if err := tradelog.Append(tradelog.FromOutcome(out)); err != nil {
			logger.Warn(ctx, "Trade log append failed", "error", err)
		}
		outcomes = append(outcomes, out)
	}
	return outcomes
}

func (x *Executor) open(ctx context.Context, d types.Decision) types.ActionOutcome {
	if _, err := x.account.SetLeverage(ctx, d.Pair, x.marginMode, d.Leverage); err != nil {
		logger.ErrorWithErr(ctx, "Failed to set leverage", err, "pair", d.Pair, "leverage", d.Leverage)
		return types.ActionOutcome{Decision: d, Response: "set leverage: " + err.Error()}
	}

	resp, err := x.orders.PlaceOrder(ctx, types.OrderReq{
		Pair:         d.Pair,
		MarginMode:   x.marginMode,
		Side:         strings.ToLower(d.Side),
		Currency:     x.currency,
		Size:         d.Amount,
		TakeProfit:   d.TakeProfit,
		StopLoss:     d.StopLoss,
		AlgoClientID: okx.AlgoClientID(d.Pair),
	})
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to place order", err, "pair", d.Pair, "side", d.Side, "amount", d.Amount)
		return types.ActionOutcome{Decision: d, Response: "place order: " + err.Error()}
	}
	return types.ActionOutcome{Decision: d, Response: resp.Summary(), Succeeded: true}
}

func (x *Executor) close(ctx context.Context, d types.Decision) types.ActionOutcome {
	// The TP/SL order may already be gone; its cancellation must not
	// stop the market close.
	if _, err := x.orders.CancelAlgoOrder(ctx, d.Pair, okx.AlgoClientID(d.Pair)); err != nil {
		logger.Warn(ctx, "Cancel of TP/SL order failed, closing anyway", "pair", d.Pair, "error", err)
	}

	resp, err := x.orders.ClosePosition(ctx, d.Pair, x.marginMode, x.currency)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to close position", err, "pair", d.Pair)
		return types.ActionOutcome{Decision: d, Response: "close position: " + err.Error()}
	}
	return types.ActionOutcome{Decision: d, Response: resp.Summary(), Succeeded: true}
}
