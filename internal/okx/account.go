package okx

import (
	"context"
	"fmt"
	"strconv"

	"llm-futures-trader/internal/types"
)

type balanceRow struct {
	Details []struct {
		Ccy      string `json:"ccy"`
		AvailBal string `json:"availBal"`
	} `json:"details"`
}

// Balance returns the available balance for one settlement currency.
// An account without that currency reads as zero, not as an error.
func (c *Client) Balance(ctx context.Context, ccy string) (float64, error) {
	var rows []balanceRow
	if _, err := c.do(ctx, "GET", "/api/v5/account/balance", nil, &rows); err != nil {
		return 0, err
	}
	for _, row := range rows {
		for _, d := range row.Details {
			if d.Ccy != ccy {
				continue
			}
			v, err := atof(d.AvailBal)
			if err != nil {
				return 0, fmt.Errorf("okx: balance for %s: %w", ccy, err)
			}
			return v, nil
		}
	}
	return 0, nil
}

type positionRow struct {
	InstID    string `json:"instId"`
	Pos       string `json:"pos"`
	Lever     string `json:"lever"`
	Last      string `json:"last"`
	UPL       string `json:"upl"`
	UPLRatio  string `json:"uplRatio"`
}

// Positions returns all raw position rows, signed sizes intact.
func (c *Client) Positions(ctx context.Context) ([]types.PositionRow, error) {
	var rows []positionRow
	if _, err := c.do(ctx, "GET", "/api/v5/account/positions", nil, &rows); err != nil {
		return nil, err
	}

	out := make([]types.PositionRow, 0, len(rows))
	for _, row := range rows {
		p := types.PositionRow{Pair: row.InstID}
		var err error
		if p.Size, err = atof(row.Pos); err != nil {
			return nil, fmt.Errorf("okx: position size for %s: %w", row.InstID, err)
		}
		if p.Leverage, err = atof(row.Lever); err != nil {
			return nil, fmt.Errorf("okx: position lever for %s: %w", row.InstID, err)
		}
		if p.Last, err = atof(row.Last); err != nil {
			return nil, fmt.Errorf("okx: position last for %s: %w", row.InstID, err)
		}
		if p.UPnL, err = atof(row.UPL); err != nil {
			return nil, fmt.Errorf("okx: position upl for %s: %w", row.InstID, err)
		}
		if p.UPnLRatio, err = atof(row.UPLRatio); err != nil {
			return nil, fmt.Errorf("okx: position uplRatio for %s: %w", row.InstID, err)
		}
		out = append(out, p)
	}
	return out, nil
}

// SetLeverage sets the leverage for a pair in the given margin mode.
func (c *Client) SetLeverage(ctx context.Context, pair, marginMode string, leverage float64) (types.OrderResp, error) {
	body := map[string]string{
		"instId":  pair,
		"lever":   strconv.FormatFloat(leverage, 'f', -1, 64),
		"mgnMode": marginMode,
	}
	env, err := c.do(ctx, "POST", "/api/v5/account/set-leverage", body, nil)
	if err != nil {
		if env != nil {
			return types.OrderResp{Code: env.Code, Msg: env.Msg}, err
		}
		return types.OrderResp{}, err
	}
	return types.OrderResp{Code: env.Code, Msg: env.Msg}, nil
}
