package types

// Side is the direction of an open position.
type Side string

const (
	SideLong  Side = "LONG"
	SideShort Side = "SHORT"
	SideNone  Side = "NONE"
)

// Ticker is the current market state for one pair.
type Ticker struct {
	Last    float64
	Open24h float64
	High24h float64
	Low24h  float64
	Vol24h  float64
}

// Candle is one OHLCV row, Ts in unix milliseconds.
type Candle struct {
	Ts                          int64
	Open, High, Low, Close, Vol float64
}

// MarketSnapshot is the per-pair view handed to the decision model.
// Pointer fields are nil when the price history is too short to compute
// them; nil must never be rendered as zero.
type MarketSnapshot struct {
	Pair              string   `json:"pair"`
	CurrentPrice      float64  `json:"current_price"`
	High24h           float64  `json:"high_24h"`
	Low24h            float64  `json:"low_24h"`
	TotalVolume       float64  `json:"total_volume"`
	PriceChange24h    float64  `json:"price_change_24h"`
	PriceChange24hPct float64  `json:"price_change_24h_percentage"`
	PriceChange7d     *float64 `json:"price_change_7d,omitempty"`
	PriceChange7dPct  *float64 `json:"price_change_7d_percentage,omitempty"`
	SMA7              *float64 `json:"sma_7,omitempty"`
	SMA14             *float64 `json:"sma_14,omitempty"`
	RSI14             *float64 `json:"rsi_14,omitempty"`
}

// PositionRow is a raw exchange position as returned by the account port.
// Size keeps its sign: positive long, negative short.
type PositionRow struct {
	Pair      string
	Size      float64
	Leverage  float64
	Last      float64
	UPnL      float64
	UPnLRatio float64
}

// Position is one open position, rebuilt from exchange state every cycle.
type Position struct {
	Pair               string   `json:"pair"`
	Side               Side     `json:"side"`
	Leverage           float64  `json:"leverage"`
	Amount             float64  `json:"amount"`
	UnrealizedPnL      float64  `json:"unrealized_pnl"`
	UnrealizedPnLRatio float64  `json:"unrealized_pnl_ratio"`
	TakeProfit         *float64 `json:"take_profit,omitempty"`
	StopLoss           *float64 `json:"stop_loss,omitempty"`
	OpenedAt           string   `json:"opened_at,omitempty"`
}

// AccountState is the account view handed to the decision model.
type AccountState struct {
	Balance   float64    `json:"balance"`
	Positions []Position `json:"positions"`
}

// AlgoOrder is the TP/SL order attached to a position. Trigger prices are
// nil when the exchange did not report them.
type AlgoOrder struct {
	TakeProfit *float64
	StopLoss   *float64
	CreatedMs  int64
}

// ActionType tags a decision variant.
type ActionType string

const (
	ActionOpen  ActionType = "open_position"
	ActionClose ActionType = "close_position"
)

// Decision is one action from the model. Side, Amount, Leverage, TakeProfit
// and StopLoss are only meaningful for open_position.
type Decision struct {
	Type       ActionType `json:"type"`
	Pair       string     `json:"pair"`
	Side       string     `json:"side,omitempty"`
	Amount     float64    `json:"amount,omitempty"`
	Leverage   float64    `json:"leverage,omitempty"`
	TakeProfit float64    `json:"tp,omitempty"`
	StopLoss   float64    `json:"sl,omitempty"`
	Rationale  string     `json:"desc"`
	Confidence float64    `json:"confidence"`
}

// DecisionBatch is the full structured payload returned by the model.
type DecisionBatch struct {
	Reasoning string     `json:"think"`
	Summary   string     `json:"desc"`
	Actions   []Decision `json:"action"`
}

// OrderReq describes a market order with an attached TP/SL sub-order.
type OrderReq struct {
	Pair         string
	MarginMode   string
	Side         string
	Currency     string
	Size         float64
	TakeProfit   float64
	StopLoss     float64
	AlgoClientID string
}

// OrderResp is the exchange's answer to a trading call, kept verbatim
// enough for audit logging.
type OrderResp struct {
	OrderID string
	Code    string
	Msg     string
}

// Summary renders the response for logs and notifications.
func (r OrderResp) Summary() string {
	s := "code=" + r.Code
	if r.OrderID != "" {
		s += " ordId=" + r.OrderID
	}
	if r.Msg != "" {
		s += " msg=" + r.Msg
	}
	return s
}

// ActionOutcome records how one decision went. Used for notification only.
type ActionOutcome struct {
	Decision  Decision
	Response  string
	Succeeded bool
}

// CycleResult summarizes one scheduler iteration.
type CycleResult struct {
	Timestamp string          `json:"timestamp"`
	Reasoning string          `json:"reasoning"`
	Summary   string          `json:"summary"`
	Outcomes  []ActionOutcome `json:"outcomes"`
}
