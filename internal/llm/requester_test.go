package llm

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"llm-futures-trader/internal/retry"
	"llm-futures-trader/internal/types"
)

type scriptedCompleter struct {
	responses []string
	errs      []error
	calls     int
	lastUser  string
}

func (s *scriptedCompleter) Complete(_ context.Context, _, user string) (string, error) {
	i := s.calls
	s.calls++
	s.lastUser = user
	if i < len(s.errs) && s.errs[i] != nil {
		return "", s.errs[i]
	}
	if i < len(s.responses) {
		return s.responses[i], nil
	}
	return "", errors.New("script exhausted")
}

const testTemplate = `Balance: {{.Balance}}
Positions: {{json .Positions}}
Pairs: {{range .Pairs}}{{.}} {{end}}
Markets: {{json .Markets}}
Time: {{.CurrentTime}}`

func writeTemplate(t *testing.T) *Renderer {
	t.Helper()
	path := filepath.Join(t.TempDir(), "prompt.tmpl")
	if err := os.WriteFile(path, []byte(testTemplate), 0o644); err != nil {
		t.Fatal(err)
	}
	r, err := NewRenderer(path)
	if err != nil {
		t.Fatal(err)
	}
	return r
}

func fastRetry(attempts int) retry.Policy {
	return retry.Policy{MaxAttempts: attempts, BaseDelay: time.Millisecond}
}

func TestRenderIncludesState(t *testing.T) {
	r := writeTemplate(t)
	out, err := r.Render(PromptVars{
		Balance: 1000.0,
		Pairs:   []string{"BTC-USDT-SWAP"},
		Markets: []types.MarketSnapshot{{Pair: "BTC-USDT-SWAP", CurrentPrice: 45000}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "Balance: 1000") {
		t.Errorf("balance missing from prompt:\n%s", out)
	}
	if !strings.Contains(out, `"pair":"BTC-USDT-SWAP"`) {
		t.Errorf("market snapshot missing from prompt:\n%s", out)
	}
	// Empty position list renders as an empty JSON array, not null noise.
	if !strings.Contains(out, "Positions: null") && !strings.Contains(out, "Positions: []") {
		t.Errorf("positions line malformed:\n%s", out)
	}
}

func TestRenderOmitsUnavailableIndicators(t *testing.T) {
	r := writeTemplate(t)
	out, err := r.Render(PromptVars{
		Markets: []types.MarketSnapshot{{Pair: "ETH-USDT-SWAP", CurrentPrice: 3000}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(out, "rsi_14") || strings.Contains(out, "sma_7") {
		t.Errorf("unavailable indicators must not appear as zeros:\n%s", out)
	}
}

func TestDecisionsRoundTrip(t *testing.T) {
	completer := &scriptedCompleter{responses: []string{validPayload}}
	req := NewRequester(completer, writeTemplate(t), "", fastRetry(3))

	batch, err := req.Decisions(context.Background(),
		types.AccountState{Balance: 1000.0, Positions: []types.Position{}},
		nil, []string{"BTC-USDT-SWAP", "ETH-USDT-SWAP"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(completer.lastUser, "Balance: 1000") {
		t.Error("rendered prompt must carry the balance")
	}

	open := batch.Actions[0]
	if open.Pair != "BTC-USDT-SWAP" || open.Side != "buy" || open.Amount != 100 {
		t.Errorf("round-trip mangled open action: %+v", open)
	}
	if batch.Actions[1].Pair != "ETH-USDT-SWAP" {
		t.Errorf("round-trip mangled close action: %+v", batch.Actions[1])
	}
}

func TestDecisionsRetriesGarbagePayload(t *testing.T) {
	completer := &scriptedCompleter{responses: []string{"", "not json at all", validPayload}}
	req := NewRequester(completer, writeTemplate(t), "", fastRetry(5))

	batch, err := req.Decisions(context.Background(), types.AccountState{}, nil, nil)
	if err != nil {
		t.Fatalf("expected retries to recover, got %v", err)
	}
	if completer.calls != 3 {
		t.Errorf("expected 3 completion calls, got %d", completer.calls)
	}
	if len(batch.Actions) != 2 {
		t.Errorf("expected parsed batch after retries, got %+v", batch)
	}
}

func TestDecisionsExhaustionYieldsDecisionError(t *testing.T) {
	completer := &scriptedCompleter{responses: []string{"junk", "junk", "junk"}}
	req := NewRequester(completer, writeTemplate(t), "", fastRetry(3))

	_, err := req.Decisions(context.Background(), types.AccountState{}, nil, nil)
	var de *DecisionError
	if !errors.As(err, &de) {
		t.Fatalf("expected DecisionError, got %v", err)
	}
	if completer.calls != 3 {
		t.Errorf("expected the full retry budget to be spent, got %d calls", completer.calls)
	}
}
