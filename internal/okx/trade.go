package okx

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"llm-futures-trader/internal/types"
)

// codeAlgoOrderNotFound is returned by order-algo lookups when no order
// exists for the client id.
const codeAlgoOrderNotFound = "51603"

type orderItem struct {
	OrdID string `json:"ordId"`
	SCode string `json:"sCode"`
	SMsg  string `json:"sMsg"`
}

// PlaceOrder places a market order with an attached TP/SL algo sub-order
// keyed by req.AlgoClientID. Never retried by callers: a duplicate market
// order is worse than a missed one.
func (c *Client) PlaceOrder(ctx context.Context, req types.OrderReq) (types.OrderResp, error) {
	type attachedAlgo struct {
		AttachAlgoClOrdID string `json:"attachAlgoClOrdId"`
		TpTriggerPx       string `json:"tpTriggerPx"`
		TpOrdPx           string `json:"tpOrdPx"`
		SlTriggerPx       string `json:"slTriggerPx"`
		SlOrdPx           string `json:"slOrdPx"`
	}
	body := map[string]any{
		"instId":  req.Pair,
		"tdMode":  req.MarginMode,
		"side":    req.Side,
		"ordType": "market",
		"sz":      strconv.FormatFloat(req.Size, 'f', -1, 64),
		"tgtCcy":  "quote_ccy",
		"ccy":     req.Currency,
		"attachAlgoOrds": []attachedAlgo{{
			AttachAlgoClOrdID: req.AlgoClientID,
			TpTriggerPx:       strconv.FormatFloat(req.TakeProfit, 'f', -1, 64),
			TpOrdPx:           "-1", // market price on trigger
			SlTriggerPx:       strconv.FormatFloat(req.StopLoss, 'f', -1, 64),
			SlOrdPx:           "-1",
		}},
	}

	var items []orderItem
	env, err := c.do(ctx, "POST", "/api/v5/trade/order", body, &items)
	if err != nil {
		if env != nil {
			return types.OrderResp{Code: env.Code, Msg: env.Msg}, err
		}
		return types.OrderResp{}, err
	}
	if len(items) == 0 {
		return types.OrderResp{Code: env.Code}, nil
	}
	item := items[0]
	resp := types.OrderResp{OrderID: item.OrdID, Code: item.SCode, Msg: item.SMsg}
	if item.SCode != "" && item.SCode != "0" {
		return resp, &APIError{Code: item.SCode, Msg: item.SMsg}
	}
	return resp, nil
}

// ClosePosition closes the pair's position at market price.
func (c *Client) ClosePosition(ctx context.Context, pair, marginMode, ccy string) (types.OrderResp, error) {
	body := map[string]string{
		"instId":  pair,
		"mgnMode": marginMode,
		"ccy":     ccy,
	}
	env, err := c.do(ctx, "POST", "/api/v5/trade/close-position", body, nil)
	if err != nil {
		if env != nil {
			return types.OrderResp{Code: env.Code, Msg: env.Msg}, err
		}
		return types.OrderResp{}, err
	}
	return types.OrderResp{Code: env.Code, Msg: env.Msg}, nil
}

type algoRow struct {
	TpTriggerPx string `json:"tpTriggerPx"`
	SlTriggerPx string `json:"slTriggerPx"`
	CTime       string `json:"cTime"`
}

// AlgoOrder looks up the TP/SL algo order by its client id. Returns
// (nil, nil) when no such order exists; absence is an ordinary state.
func (c *Client) AlgoOrder(ctx context.Context, clientID string) (*types.AlgoOrder, error) {
	path := "/api/v5/trade/order-algo?algoClOrdId=" + url.QueryEscape(clientID)
	var rows []algoRow
	if _, err := c.do(ctx, "GET", path, nil, &rows); err != nil {
		var ae *APIError
		if errors.As(err, &ae) && ae.Code == codeAlgoOrderNotFound {
			return nil, nil
		}
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}

	row := rows[0]
	out := &types.AlgoOrder{}
	if row.TpTriggerPx != "" {
		v, err := atof(row.TpTriggerPx)
		if err != nil {
			return nil, fmt.Errorf("okx: algo tpTriggerPx: %w", err)
		}
		out.TakeProfit = &v
	}
	if row.SlTriggerPx != "" {
		v, err := atof(row.SlTriggerPx)
		if err != nil {
			return nil, fmt.Errorf("okx: algo slTriggerPx: %w", err)
		}
		out.StopLoss = &v
	}
	if row.CTime != "" {
		ms, err := strconv.ParseInt(row.CTime, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("okx: algo cTime: %w", err)
		}
		out.CreatedMs = ms
	}
	return out, nil
}

// CancelAlgoOrder cancels the pair's TP/SL algo order by client id.
// Canceling an order that is already gone yields an APIError which callers
// treat as non-fatal.
func (c *Client) CancelAlgoOrder(ctx context.Context, pair, clientID string) (types.OrderResp, error) {
	body := []map[string]string{{
		"instId":      pair,
		"algoClOrdId": clientID,
	}}

	var items []orderItem
	env, err := c.do(ctx, "POST", "/api/v5/trade/cancel-algos", body, &items)
	if err != nil {
		if env != nil {
			return types.OrderResp{Code: env.Code, Msg: env.Msg}, err
		}
		return types.OrderResp{}, err
	}
	if len(items) == 0 {
		return types.OrderResp{Code: env.Code}, nil
	}
	item := items[0]
	resp := types.OrderResp{Code: item.SCode, Msg: item.SMsg}
	if item.SCode != "" && item.SCode != "0" {
		return resp, &APIError{Code: item.SCode, Msg: item.SMsg}
	}
	return resp, nil
}
