// Package account rebuilds the account view (balance and open positions)
// from exchange state. Nothing is cached across cycles: every call returns
// a fresh value graph.
package account

import (
	"context"
	"time"

	"llm-futures-trader/internal/interfaces"
	"llm-futures-trader/internal/okx"
	"llm-futures-trader/internal/retry"
	"llm-futures-trader/internal/types"
)

// Exchange position timestamps are reported in UTC+8.
var exchangeZone = time.FixedZone("UTC+8", 8*3600)

// Config tunes the account fetcher.
type Config struct {
	Currency string // settlement currency, e.g. "USDT"
	Retry    retry.Policy
}

// Fetcher reads balance and positions through the account and order ports.
type Fetcher struct {
	acct   interfaces.Account
	orders interfaces.Orders
	ccy    string
	pol    retry.Policy
}

func NewFetcher(acct interfaces.Account, orders interfaces.Orders, cfg Config) *Fetcher {
	ccy := cfg.Currency
	if ccy == "" {
		ccy = "USDT"
	}
	pol := cfg.Retry.WithRetryable(func(err error) bool {
		return !okx.IsAPIError(err)
	})
	return &Fetcher{acct: acct, orders: orders, ccy: ccy, pol: pol}
}

// State fetches the current account state: available balance in the
// settlement currency plus every position with its attached TP/SL, when
// one exists.
func (f *Fetcher) State(ctx context.Context) (types.AccountState, error) {
	var balance float64
	err := f.pol.Do(ctx, func() error {
		var err error
		balance, err = f.acct.Balance(ctx, f.ccy)
		return err
	})
	if err != nil {
		return types.AccountState{}, err
	}

	var rows []types.PositionRow
	err = f.pol.Do(ctx, func() error {
		var err error
		rows, err = f.acct.Positions(ctx)
		return err
	})
	if err != nil {
		return types.AccountState{}, err
	}

	positions := make([]types.Position, 0, len(rows))
	for _, row := range rows {
		pos, err := f.position(ctx, row)
		if err != nil {
			return types.AccountState{}, err
		}
		positions = append(positions, pos)
	}
	return types.AccountState{Balance: balance, Positions: positions}, nil
}

func (f *Fetcher) position(ctx context.Context, row types.PositionRow) (types.Position, error) {
	pos := types.Position{
		Pair:               row.Pair,
		Side:               sideOf(row.Size),
		Leverage:           row.Leverage,
		Amount:             abs(row.Size) * row.Leverage * row.Last,
		UnrealizedPnL:      row.UPnL,
		UnrealizedPnLRatio: row.UPnLRatio * 100,
	}

	var algo *types.AlgoOrder
	err := f.pol.Do(ctx, func() error {
		var err error
		algo, err = f.orders.AlgoOrder(ctx, okx.AlgoClientID(row.Pair))
		return err
	})
	if err != nil {
		return types.Position{}, err
	}
	// No TP/SL order just means those fields stay unset.
	if algo != nil {
		pos.TakeProfit = algo.TakeProfit
		pos.StopLoss = algo.StopLoss
		if algo.CreatedMs > 0 {
			pos.OpenedAt = time.UnixMilli(algo.CreatedMs).In(exchangeZone).Format("2006-01-02 15:04:05")
		}
	}
	return pos, nil
}

// sideOf maps the signed exchange position size to a side. NONE only when
// the size is exactly zero.
func sideOf(size float64) types.Side {
	switch {
	case size > 0:
		return types.SideLong
	case size < 0:
		return types.SideShort
	default:
		return types.SideNone
	}
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
