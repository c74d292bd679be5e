// Package okxobs wraps the exchange ports with logging and tracing
// middleware so the core packages stay free of observability noise.
package okxobs

import (
	"context"

	"llm-futures-trader/internal/interfaces"
	"llm-futures-trader/internal/logger"
	"llm-futures-trader/internal/trace"
	"llm-futures-trader/internal/types"
)

// Exchange is the union of the three exchange-facing ports.
type Exchange interface {
	interfaces.MarketData
	interfaces.Account
	interfaces.Orders
}

type observableExchange struct {
	next Exchange
}

var _ Exchange = (*observableExchange)(nil)

// Wrap wraps an exchange client with observability middleware.
func Wrap(next Exchange) Exchange {
	return &observableExchange{next: next}
}

func (o *observableExchange) Ticker(ctx context.Context, pair string) (types.Ticker, error) {
	ctx, span := trace.StartSpan(ctx, "exchange.Ticker")
	defer span.End()

	t, err := o.next.Ticker(ctx, pair)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to fetch ticker", err, "pair", pair)
		return types.Ticker{}, err
	}
	logger.DebugSkip(ctx, 1, "Ticker fetched", "pair", pair, "last", t.Last)
	return t, nil
}

func (o *observableExchange) Candles(ctx context.Context, pair, bar string, limit int) ([]types.Candle, error) {
	ctx, span := trace.StartSpan(ctx, "exchange.Candles")
	defer span.End()

	cs, err := o.next.Candles(ctx, pair, bar, limit)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to fetch candles", err, "pair", pair, "bar", bar)
		return nil, err
	}
	logger.DebugSkip(ctx, 1, "Candles fetched", "pair", pair, "bar", bar, "count", len(cs))
	return cs, nil
}

func (o *observableExchange) Balance(ctx context.Context, ccy string) (float64, error) {
	ctx, span := trace.StartSpan(ctx, "exchange.Balance")
	defer span.End()

	v, err := o.next.Balance(ctx, ccy)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to fetch balance", err, "ccy", ccy)
		return 0, err
	}
	logger.DebugSkip(ctx, 1, "Balance fetched", "ccy", ccy, "available", v)
	return v, nil
}

func (o *observableExchange) Positions(ctx context.Context) ([]types.PositionRow, error) {
	ctx, span := trace.StartSpan(ctx, "exchange.Positions")
	defer span.End()

	rows, err := o.next.Positions(ctx)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to fetch positions", err)
		return nil, err
	}
	logger.DebugSkip(ctx, 1, "Positions fetched", "count", len(rows))
	return rows, nil
}

func (o *observableExchange) SetLeverage(ctx context.Context, pair, marginMode string, leverage float64) (types.OrderResp, error) {
	ctx, span := trace.StartSpan(ctx, "exchange.SetLeverage")
	defer span.End()

	resp, err := o.next.SetLeverage(ctx, pair, marginMode, leverage)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to set leverage", err, "pair", pair, "leverage", leverage, "response", resp.Summary())
		return resp, err
	}
	logger.InfoSkip(ctx, 1, "Leverage set", "pair", pair, "mode", marginMode, "leverage", leverage, "response", resp.Summary())
	return resp, nil
}

func (o *observableExchange) PlaceOrder(ctx context.Context, req types.OrderReq) (types.OrderResp, error) {
	ctx, span := trace.StartSpan(ctx, "exchange.PlaceOrder")
	defer span.End()

	logger.InfoSkip(ctx, 1, "Placing order", "pair", req.Pair, "side", req.Side, "size", req.Size, "algo_client_id", req.AlgoClientID)
	resp, err := o.next.PlaceOrder(ctx, req)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to place order", err, "pair", req.Pair, "side", req.Side, "response", resp.Summary())
		return resp, err
	}
	logger.InfoSkip(ctx, 1, "Order placed", "pair", req.Pair, "order_id", resp.OrderID, "response", resp.Summary())
	return resp, nil
}

func (o *observableExchange) ClosePosition(ctx context.Context, pair, marginMode, ccy string) (types.OrderResp, error) {
	ctx, span := trace.StartSpan(ctx, "exchange.ClosePosition")
	defer span.End()

	resp, err := o.next.ClosePosition(ctx, pair, marginMode, ccy)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to close position", err, "pair", pair, "response", resp.Summary())
		return resp, err
	}
	logger.InfoSkip(ctx, 1, "Position closed", "pair", pair, "response", resp.Summary())
	return resp, nil
}

func (o *observableExchange) AlgoOrder(ctx context.Context, clientID string) (*types.AlgoOrder, error) {
	ctx, span := trace.StartSpan(ctx, "exchange.AlgoOrder")
	defer span.End()

	ao, err := o.next.AlgoOrder(ctx, clientID)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to fetch algo order", err, "client_id", clientID)
		return nil, err
	}
	logger.DebugSkip(ctx, 1, "Algo order fetched", "client_id", clientID, "found", ao != nil)
	return ao, nil
}

func (o *observableExchange) CancelAlgoOrder(ctx context.Context, pair, clientID string) (types.OrderResp, error) {
	ctx, span := trace.StartSpan(ctx, "exchange.CancelAlgoOrder")
	defer span.End()

	resp, err := o.next.CancelAlgoOrder(ctx, pair, clientID)
	if err != nil {
		// Cancel-of-absent is routine; the executor decides severity.
		logger.WarnSkip(ctx, 1, "Cancel algo order returned error", "pair", pair, "client_id", clientID, "error", err, "response", resp.Summary())
		return resp, err
	}
	logger.InfoSkip(ctx, 1, "Algo order canceled", "pair", pair, "client_id", clientID, "response", resp.Summary())
	return resp, nil
}
