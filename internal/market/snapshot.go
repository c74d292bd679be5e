// Package market builds per-pair snapshots from raw exchange data: ticker
// state plus indicators derived from the daily closing series.
package market

import (
	"context"
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"

	"llm-futures-trader/internal/interfaces"
	"llm-futures-trader/internal/okx"
	"llm-futures-trader/internal/retry"
	"llm-futures-trader/internal/ta"
	"llm-futures-trader/internal/types"
)

// MarketDataError marks a pair whose snapshot could not be built. One
// failed pair poisons the whole cycle: deciding on partial data is worse
// than skipping a cycle.
type MarketDataError struct {
	Pair string
	Err  error
}

func (e *MarketDataError) Error() string {
	return fmt.Sprintf("market data for %s: %v", e.Pair, e.Err)
}

func (e *MarketDataError) Unwrap() error { return e.Err }

// Config tunes the snapshot fetcher.
type Config struct {
	Bar   string // candle interval, e.g. "1D"
	Limit int    // lookback window, e.g. 30
	Retry retry.Policy
}

// Fetcher assembles MarketSnapshots through the market-data port.
type Fetcher struct {
	md    interfaces.MarketData
	bar   string
	limit int
	pol   retry.Policy
}

func NewFetcher(md interfaces.MarketData, cfg Config) *Fetcher {
	bar := cfg.Bar
	if bar == "" {
		bar = "1D"
	}
	limit := cfg.Limit
	if limit <= 0 {
		limit = 30
	}
	// Exchange error codes are final; only transport-level failures are
	// worth another attempt.
	pol := cfg.Retry.WithRetryable(func(err error) bool {
		return !okx.IsAPIError(err)
	})
	return &Fetcher{md: md, bar: bar, limit: limit, pol: pol}
}

// Snapshot builds the snapshot for one pair.
func (f *Fetcher) Snapshot(ctx context.Context, pair string) (types.MarketSnapshot, error) {
	var ticker types.Ticker
	err := f.pol.Do(ctx, func() error {
		var err error
		ticker, err = f.md.Ticker(ctx, pair)
		return err
	})
	if err != nil {
		return types.MarketSnapshot{}, &MarketDataError{Pair: pair, Err: err}
	}

	var candles []types.Candle
	err = f.pol.Do(ctx, func() error {
		var err error
		candles, err = f.md.Candles(ctx, pair, f.bar, f.limit)
		return err
	})
	if err != nil {
		return types.MarketSnapshot{}, &MarketDataError{Pair: pair, Err: err}
	}

	closes := make([]float64, len(candles))
	for i, c := range candles {
		closes[i] = c.Close
	}
	return buildSnapshot(pair, ticker, closes), nil
}

// SnapshotAll fetches every pair's snapshot concurrently and joins the
// results before returning. All-or-nothing: the first failure cancels the
// remaining fetches and fails the whole set.
func (f *Fetcher) SnapshotAll(ctx context.Context, pairs []string) ([]types.MarketSnapshot, error) {
	out := make([]types.MarketSnapshot, len(pairs))
	g, gctx := errgroup.WithContext(ctx)
	for i, pair := range pairs {
		g.Go(func() error {
			snap, err := f.Snapshot(gctx, pair)
			if err != nil {
				return err
			}
			out[i] = snap
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// buildSnapshot derives the snapshot fields from a ticker and ascending
// closes. Indicator fields stay nil when the series is too short; zero and
// absent are different answers.
func buildSnapshot(pair string, t types.Ticker, closes []float64) types.MarketSnapshot {
	snap := types.MarketSnapshot{
		Pair:           pair,
		CurrentPrice:   t.Last,
		High24h:        t.High24h,
		Low24h:         t.Low24h,
		TotalVolume:    t.Vol24h,
		PriceChange24h: round5(t.Last - t.Open24h),
	}
	if t.Last != 0 {
		snap.PriceChange24hPct = round5((t.Last - t.Open24h) / t.Last * 100)
	}

	if len(closes) >= 8 {
		change := round5(t.Last - closes[len(closes)-8])
		snap.PriceChange7d = &change
		if t.Last != 0 {
			pct := round5(change / t.Last * 100)
			snap.PriceChange7dPct = &pct
		}
	}
	if v, ok := ta.SMA(closes, 7); ok {
		snap.SMA7 = &v
	}
	if v, ok := ta.SMA(closes, 14); ok {
		snap.SMA14 = &v
	}
	if v, ok := ta.RSI(closes, 14); ok {
		snap.RSI14 = &v
	}
	return snap
}

func round5(x float64) float64 {
	return math.Round(x*1e5) / 1e5
}
