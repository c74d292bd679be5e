// Package okx is a thin client for the OKX v5 REST API covering the calls
// the trading loop needs: market data, balance, positions, leverage, market
// orders with attached TP/SL algo orders, and algo order lookup/cancel.
package okx

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const defaultBaseURL = "https://www.okx.com"

// Params configures the client. Credentials may be empty for public
// market-data endpoints.
type Params struct {
	BaseURL    string
	APIKey     string
	APISecret  string
	Passphrase string
	Sandbox    bool
}

// Client talks to one OKX deployment. Safe for concurrent use.
type Client struct {
	http       *resty.Client
	apiKey     string
	secret     []byte
	passphrase string
	sandbox    bool
}

func New(p Params) *Client {
	base := p.BaseURL
	if base == "" {
		base = defaultBaseURL
	}
	httpc := resty.New().
		SetBaseURL(base).
		SetTimeout(30 * time.Second).
		SetHeader("Content-Type", "application/json")

	return &Client{
		http:       httpc,
		apiKey:     p.APIKey,
		secret:     []byte(p.APISecret),
		passphrase: p.Passphrase,
		sandbox:    p.Sandbox,
	}
}

// APIError is a non-recoverable response from the exchange: the call went
// through but OKX rejected it with an error code. Not worth retrying.
type APIError struct {
	Code string
	Msg  string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("okx: code %s: %s", e.Code, e.Msg)
}

// IsAPIError reports whether err carries an exchange error code.
func IsAPIError(err error) bool {
	var ae *APIError
	return errors.As(err, &ae)
}

// AlgoClientID derives the TP/SL algo client-order id for a pair. It is a
// pure function of the pair so the order can always be found and canceled
// without bookkeeping. OKX client ids must be alphanumeric.
func AlgoClientID(pair string) string {
	return "tpsl" + strings.NewReplacer("-", "", "_", "", "/", "").Replace(pair)
}

// envelope is the uniform OKX response wrapper.
type envelope struct {
	Code string          `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

// do performs one signed request. path must include the query string, since
// the query is part of the signature prehash. out, when non-nil, receives
// the decoded data array.
func (c *Client) do(ctx context.Context, method, path string, body, out any) (*envelope, error) {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("okx: encode request: %w", err)
		}
	}

	req := c.http.R().SetContext(ctx)
	if len(payload) > 0 {
		req.SetBody(payload)
	}
	if c.apiKey != "" {
		ts := time.Now().UTC().Format("2006-01-02T15:04:05.000Z")
		req.SetHeader("OK-ACCESS-KEY", c.apiKey)
		req.SetHeader("OK-ACCESS-SIGN", Sign(c.secret, ts, method, path, string(payload)))
		req.SetHeader("OK-ACCESS-TIMESTAMP", ts)
		req.SetHeader("OK-ACCESS-PASSPHRASE", c.passphrase)
		if c.sandbox {
			req.SetHeader("x-simulated-trading", "1")
		}
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return nil, fmt.Errorf("okx: %s %s: %w", method, path, err)
	}
	if resp.StatusCode() >= 500 {
		return nil, fmt.Errorf("okx: %s %s: http %d", method, path, resp.StatusCode())
	}

	var env envelope
	if err := json.Unmarshal(resp.Body(), &env); err != nil {
		return nil, fmt.Errorf("okx: decode response: %w", err)
	}
	if env.Code != "0" {
		return &env, &APIError{Code: env.Code, Msg: env.Msg}
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return nil, fmt.Errorf("okx: decode data: %w", err)
		}
	}
	return &env, nil
}

// Sign computes the OKX request signature: base64 HMAC-SHA256 over
// timestamp + method + requestPath + body.
func Sign(secret []byte, timestamp, method, requestPath, body string) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(timestamp + method + requestPath + body))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
