package engine

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"llm-futures-trader/internal/notify"
	"llm-futures-trader/internal/types"
)

type fakeAccount struct {
	leverCalls []string
	leverErr   error
}

func (f *fakeAccount) Balance(ctx context.Context, ccy string) (float64, error) { return 0, nil }
func (f *fakeAccount) Positions(ctx context.Context) ([]types.PositionRow, error) {
	return nil, nil
}
func (f *fakeAccount) SetLeverage(ctx context.Context, pair, mode string, lever float64) (types.OrderResp, error) {
	f.leverCalls = append(f.leverCalls, pair)
	if f.leverErr != nil {
		return types.OrderResp{}, f.leverErr
	}
	return types.OrderResp{Code: "0"}, nil
}

type fakeOrders struct {
	placeCalls  int
	placeErr    error
	closeCalls  int
	closeErr    error
	cancelCalls []string
	cancelErr   error
	lastReq     types.OrderReq
}

func (f *fakeOrders) PlaceOrder(ctx context.Context, req types.OrderReq) (types.OrderResp, error) {
	f.placeCalls++
	f.lastReq = req
	if f.placeErr != nil {
		return types.OrderResp{}, f.placeErr
	}
	return types.OrderResp{OrderID: "1001", Code: "0"}, nil
}

func (f *fakeOrders) ClosePosition(ctx context.Context, pair, mode, ccy string) (types.OrderResp, error) {
	f.closeCalls++
	if f.closeErr != nil {
		return types.OrderResp{}, f.closeErr
	}
	return types.OrderResp{Code: "0"}, nil
}

func (f *fakeOrders) AlgoOrder(ctx context.Context, clientID string) (*types.AlgoOrder, error) {
	return nil, nil
}

func (f *fakeOrders) CancelAlgoOrder(ctx context.Context, pair, clientID string) (types.OrderResp, error) {
	f.cancelCalls = append(f.cancelCalls, clientID)
	if f.cancelErr != nil {
		return types.OrderResp{}, f.cancelErr
	}
	return types.OrderResp{Code: "0"}, nil
}

func openDecision(pair string) types.Decision {
	return types.Decision{
		Type: types.ActionOpen, Pair: pair, Side: "buy",
		Amount: 100, Leverage: 10, TakeProfit: 50000, StopLoss: 40000,
		Rationale: "breakout",
	}
}

func TestExecuteContinuesAfterFailure(t *testing.T) {
	t.Setenv("TRADER_LOG_DIR", t.TempDir())
	acct := &fakeAccount{}
	ords := &fakeOrders{placeErr: errors.New("insufficient margin")}
	x := NewExecutor(acct, ords, "isolated", "USDT")

	outcomes := x.Execute(context.Background(), []types.Decision{
		openDecision("BTC-USDT-SWAP"),
		{Type: types.ActionClose, Pair: "ETH-USDT-SWAP"},
	})

	if len(outcomes) != 2 {
		t.Fatalf("outcomes = %d, want 2", len(outcomes))
	}
	if outcomes[0].Succeeded {
		t.Error("failed order placement reported as succeeded")
	}
	if !strings.Contains(outcomes[0].Response, "insufficient margin") {
		t.Errorf("response %q does not carry the exchange error", outcomes[0].Response)
	}
	if !outcomes[1].Succeeded {
		t.Errorf("close after failed open did not run: %q", outcomes[1].Response)
	}
	if ords.closeCalls != 1 {
		t.Errorf("closeCalls = %d, want 1", ords.closeCalls)
	}
}

func TestExecuteOpenSetsLeverageFirst(t *testing.T) {
	t.Setenv("TRADER_LOG_DIR", t.TempDir())
	acct := &fakeAccount{}
	ords := &fakeOrders{}
	x := NewExecutor(acct, ords, "isolated", "USDT")

	outcomes := x.Execute(context.Background(), []types.Decision{openDecision("BTC-USDT-SWAP")})

	if len(acct.leverCalls) != 1 || acct.leverCalls[0] != "BTC-USDT-SWAP" {
		t.Fatalf("leverage calls = %v", acct.leverCalls)
	}
	if !outcomes[0].Succeeded {
		t.Fatalf("open failed: %q", outcomes[0].Response)
	}
	req := ords.lastReq
	if req.MarginMode != "isolated" || req.Currency != "USDT" || req.Side != "buy" {
		t.Errorf("order req = %+v", req)
	}
	if req.AlgoClientID != "tpslBTCUSDTSWAP" {
		t.Errorf("AlgoClientID = %q", req.AlgoClientID)
	}
	if req.TakeProfit != 50000 || req.StopLoss != 40000 {
		t.Errorf("triggers = %v/%v", req.TakeProfit, req.StopLoss)
	}
}

func TestExecuteOpenAbortsOnLeverageFailure(t *testing.T) {
	t.Setenv("TRADER_LOG_DIR", t.TempDir())
	acct := &fakeAccount{leverErr: errors.New("lever not supported")}
	ords := &fakeOrders{}
	x := NewExecutor(acct, ords, "isolated", "USDT")

	outcomes := x.Execute(context.Background(), []types.Decision{openDecision("BTC-USDT-SWAP")})

	if outcomes[0].Succeeded {
		t.Error("open with failed leverage reported as succeeded")
	}
	if ords.placeCalls != 0 {
		t.Errorf("placeCalls = %d, want 0 after leverage failure", ords.placeCalls)
	}
}

func TestExecuteCloseToleratesMissingAlgoOrder(t *testing.T) {
	t.Setenv("TRADER_LOG_DIR", t.TempDir())
	acct := &fakeAccount{}
	ords := &fakeOrders{cancelErr: errors.New("order does not exist")}
	x := NewExecutor(acct, ords, "isolated", "USDT")

	outcomes := x.Execute(context.Background(), []types.Decision{
		{Type: types.ActionClose, Pair: "BTC-USDT-SWAP"},
	})

	if !outcomes[0].Succeeded {
		t.Fatalf("close aborted by cancel failure: %q", outcomes[0].Response)
	}
	if ords.closeCalls != 1 {
		t.Errorf("closeCalls = %d, want 1", ords.closeCalls)
	}
}

type fakeSources struct {
	state    types.AccountState
	stateErr error
	snaps    []types.MarketSnapshot
	snapsErr error
	batch    types.DecisionBatch
	batchErr error

	decideCalls int
}

func (f *fakeSources) State(ctx context.Context) (types.AccountState, error) {
	return f.state, f.stateErr
}

func (f *fakeSources) SnapshotAll(ctx context.Context, pairs []string) ([]types.MarketSnapshot, error) {
	return f.snaps, f.snapsErr
}

func (f *fakeSources) Decisions(ctx context.Context, state types.AccountState, snaps []types.MarketSnapshot, pairs []string) (types.DecisionBatch, error) {
	f.decideCalls++
	return f.batch, f.batchErr
}

type recordingNotifier struct {
	msgs []*notify.Message
	err  error
}

func (r *recordingNotifier) Send(ctx context.Context, msg *notify.Message) error {
	r.msgs = append(r.msgs, msg)
	return r.err
}

func newTestEngine(src *fakeSources, ords *fakeOrders, nt *recordingNotifier) *Engine {
	cfg := Config{Pairs: []string{"BTC-USDT-SWAP", "ETH-USDT-SWAP"}}
	x := NewExecutor(&fakeAccount{}, ords, "isolated", "USDT")
	return New(cfg, src, src, src, x, nt)
}

func TestRunCycleAbortsOnMarketDataFailure(t *testing.T) {
	t.Setenv("TRADER_LOG_DIR", t.TempDir())
	src := &fakeSources{snapsErr: errors.New("ticker fetch failed")}
	ords := &fakeOrders{}
	nt := &recordingNotifier{}

	_, err := newTestEngine(src, ords, nt).RunCycle(context.Background())
	if err == nil {
		t.Fatal("cycle did not abort on market data failure")
	}
	if src.decideCalls != 0 {
		t.Errorf("decisions requested despite aborted cycle")
	}
	if len(nt.msgs) != 0 {
		t.Errorf("notification sent for aborted cycle")
	}
}

func TestRunCycleNotifiesOneBatch(t *testing.T) {
	t.Setenv("TRADER_LOG_DIR", t.TempDir())
	src := &fakeSources{
		state: types.AccountState{Balance: 1000, Positions: []types.Position{}},
		snaps: []types.MarketSnapshot{{Pair: "BTC-USDT-SWAP", CurrentPrice: 45000}},
		batch: types.DecisionBatch{
			Reasoning: "momentum continues",
			Summary:   "open BTC long, close ETH",
			Actions: []types.Decision{
				openDecision("BTC-USDT-SWAP"),
				{Type: types.ActionClose, Pair: "ETH-USDT-SWAP"},
			},
		},
	}
	ords := &fakeOrders{}
	nt := &recordingNotifier{}

	result, err := newTestEngine(src, ords, nt).RunCycle(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Outcomes) != 2 {
		t.Fatalf("outcomes = %d, want 2", len(result.Outcomes))
	}
	if len(nt.msgs) != 1 {
		t.Fatalf("notifications = %d, want one batch", len(nt.msgs))
	}
	embeds := nt.msgs[0].Embeds
	if len(embeds) != 2 {
		t.Fatalf("embeds = %d, want 2", len(embeds))
	}
	for _, em := range embeds {
		if em.Timestamp != result.Timestamp {
			t.Errorf("embed timestamp %q differs from cycle timestamp %q", em.Timestamp, result.Timestamp)
		}
	}
	if embeds[0].Color != notify.ColorBuy {
		t.Errorf("buy embed color = %d, want %d", embeds[0].Color, notify.ColorBuy)
	}
	if embeds[1].Color != notify.ColorNeutral {
		t.Errorf("close embed color = %d, want %d", embeds[1].Color, notify.ColorNeutral)
	}
	if !strings.Contains(embeds[0].Title, "BUY BTC") || strings.Contains(embeds[0].Title, "BTC-USDT") {
		t.Errorf("buy embed title = %q, want base symbol only", embeds[0].Title)
	}
	if !strings.Contains(embeds[1].Title, "CLOSE ETH") || strings.Contains(embeds[1].Title, "ETH-USDT") {
		t.Errorf("close embed title = %q, want base symbol only", embeds[1].Title)
	}
}

func TestRunCycleNoActionsNoNotification(t *testing.T) {
	t.Setenv("TRADER_LOG_DIR", t.TempDir())
	src := &fakeSources{
		state: types.AccountState{Balance: 1000},
		snaps: []types.MarketSnapshot{{Pair: "BTC-USDT-SWAP"}},
		batch: types.DecisionBatch{Reasoning: "nothing to do", Summary: "hold"},
	}
	nt := &recordingNotifier{}

	result, err := newTestEngine(src, &fakeOrders{}, nt).RunCycle(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Outcomes) != 0 {
		t.Fatalf("outcomes = %d, want 0", len(result.Outcomes))
	}
	if len(nt.msgs) != 0 {
		t.Errorf("empty cycle sent a notification")
	}
}

type panickyEngine struct {
	calls atomic.Int32
}

func (p *panickyEngine) RunCycle(ctx context.Context) (*types.CycleResult, error) {
	if p.calls.Add(1) == 1 {
		panic("nil snapshot")
	}
	return &types.CycleResult{}, nil
}

func TestRunSurvivesPanicAndStopsOnCancel(t *testing.T) {
	t.Setenv("TRADER_LOG_DIR", t.TempDir())
	eng := &panickyEngine{}
	nt := &recordingNotifier{}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		Run(ctx, eng, nt, time.Millisecond, "test")
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for eng.calls.Load() < 2 {
		select {
		case <-deadline:
			t.Fatal("engine not re-run after panic")
		case <-time.After(time.Millisecond):
		}
	}
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop on context cancel")
	}

	if len(nt.msgs) == 0 || len(nt.msgs[0].Embeds) == 0 {
		t.Fatal("no startup notification sent")
	}
	if !strings.Contains(nt.msgs[0].Embeds[0].Title, "Service Up") {
		t.Errorf("startup embed title = %q", nt.msgs[0].Embeds[0].Title)
	}
}

func TestOutcomeEmbedSell(t *testing.T) {
	em := outcomeEmbed(types.ActionOutcome{
		Decision:  types.Decision{Type: types.ActionOpen, Pair: "SOL-USDT-SWAP", Side: "sell", Rationale: "fading the spike", Confidence: 0.7},
		Response:  "code=0 ordId=7",
		Succeeded: true,
	})
	if em.Color != notify.ColorSell {
		t.Errorf("color = %d, want %d", em.Color, notify.ColorSell)
	}
	if !strings.Contains(em.Title, "SELL SOL") {
		t.Errorf("title = %q", em.Title)
	}
	if !strings.Contains(em.Description, "fading the spike") || !strings.Contains(em.Description, "code=0") {
		t.Errorf("description = %q", em.Description)
	}
	if !strings.Contains(em.Description, "Confidence: 0.7") {
		t.Errorf("description %q missing confidence line", em.Description)
	}
}

func TestOutcomeEmbedFailureMarked(t *testing.T) {
	em := outcomeEmbed(types.ActionOutcome{
		Decision: types.Decision{Type: types.ActionClose, Pair: "BTC-USDT-SWAP"},
		Response: "close position: timeout",
	})
	if !strings.Contains(em.Title, "(failed)") {
		t.Errorf("failed outcome title %q not marked", em.Title)
	}
}
