package interfaces

import (
	"context"

	"llm-futures-trader/internal/types"
)

// MarketData provides idempotent market reads.
type MarketData interface {
	Ticker(ctx context.Context, pair string) (types.Ticker, error)
	// Candles returns OHLCV rows in ascending chronological order.
	Candles(ctx context.Context, pair, bar string, limit int) ([]types.Candle, error)
}

// Account provides balance, position and leverage operations.
type Account interface {
	Balance(ctx context.Context, ccy string) (float64, error)
	Positions(ctx context.Context) ([]types.PositionRow, error)
	SetLeverage(ctx context.Context, pair, marginMode string, leverage float64) (types.OrderResp, error)
}

// Orders provides order placement and cancellation. AlgoOrder returns
// (nil, nil) when no TP/SL order exists for the client id.
type Orders interface {
	PlaceOrder(ctx context.Context, req types.OrderReq) (types.OrderResp, error)
	ClosePosition(ctx context.Context, pair, marginMode, ccy string) (types.OrderResp, error)
	AlgoOrder(ctx context.Context, clientID string) (*types.AlgoOrder, error)
	CancelAlgoOrder(ctx context.Context, pair, clientID string) (types.OrderResp, error)
}
