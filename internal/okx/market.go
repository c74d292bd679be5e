package okx

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"llm-futures-trader/internal/types"
)

type tickerRow struct {
	InstID  string `json:"instId"`
	Last    string `json:"last"`
	Open24h string `json:"open24h"`
	High24h string `json:"high24h"`
	Low24h  string `json:"low24h"`
	Vol24h  string `json:"vol24h"`
}

// Ticker fetches the current ticker for a pair.
func (c *Client) Ticker(ctx context.Context, pair string) (types.Ticker, error) {
	path := "/api/v5/market/ticker?instId=" + url.QueryEscape(pair)
	var rows []tickerRow
	if _, err := c.do(ctx, "GET", path, nil, &rows); err != nil {
		return types.Ticker{}, err
	}
	if len(rows) == 0 {
		return types.Ticker{}, fmt.Errorf("okx: empty ticker for %s", pair)
	}

	row := rows[0]
	var t types.Ticker
	var err error
	if t.Last, err = atof(row.Last); err != nil {
		return types.Ticker{}, fmt.Errorf("okx: ticker last for %s: %w", pair, err)
	}
	if t.Open24h, err = atof(row.Open24h); err != nil {
		return types.Ticker{}, fmt.Errorf("okx: ticker open24h for %s: %w", pair, err)
	}
	if t.High24h, err = atof(row.High24h); err != nil {
		return types.Ticker{}, fmt.Errorf("okx: ticker high24h for %s: %w", pair, err)
	}
	if t.Low24h, err = atof(row.Low24h); err != nil {
		return types.Ticker{}, fmt.Errorf("okx: ticker low24h for %s: %w", pair, err)
	}
	if t.Vol24h, err = atof(row.Vol24h); err != nil {
		return types.Ticker{}, fmt.Errorf("okx: ticker vol24h for %s: %w", pair, err)
	}
	return t, nil
}

// Candles fetches up to limit OHLCV rows for a pair. OKX returns newest
// first; rows are reversed here so callers always see ascending time.
func (c *Client) Candles(ctx context.Context, pair, bar string, limit int) ([]types.Candle, error) {
	path := fmt.Sprintf("/api/v5/market/candles?instId=%s&bar=%s&limit=%d",
		url.QueryEscape(pair), url.QueryEscape(bar), limit)
	var rows [][]string
	if _, err := c.do(ctx, "GET", path, nil, &rows); err != nil {
		return nil, err
	}

	out := make([]types.Candle, 0, len(rows))
	for i := len(rows) - 1; i >= 0; i-- {
		cd, err := parseCandle(rows[i])
		if err != nil {
			return nil, fmt.Errorf("okx: candle for %s: %w", pair, err)
		}
		out = append(out, cd)
	}
	return out, nil
}

// parseCandle decodes one raw row: [ts, open, high, low, close, vol, ...].
func parseCandle(row []string) (types.Candle, error) {
	if len(row) < 6 {
		return types.Candle{}, fmt.Errorf("short row (%d fields)", len(row))
	}
	ts, err := strconv.ParseInt(row[0], 10, 64)
	if err != nil {
		return types.Candle{}, fmt.Errorf("ts: %w", err)
	}
	vals := make([]float64, 5)
	for i, s := range row[1:6] {
		v, err := atof(s)
		if err != nil {
			return types.Candle{}, fmt.Errorf("field %d: %w", i+1, err)
		}
		vals[i] = v
	}
	return types.Candle{
		Ts:    ts,
		Open:  vals[0],
		High:  vals[1],
		Low:   vals[2],
		Close: vals[3],
		Vol:   vals[4],
	}, nil
}

func atof(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}
