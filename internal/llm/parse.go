package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"llm-futures-trader/internal/types"
)

// ParseDecisionBatch parses and validates the model's structured payload.
// Any violation is an error: a malformed payload is a transient provider
// glitch and the whole request gets retried, never silently defaulted.
func ParseDecisionBatch(raw string) (types.DecisionBatch, error) {
	text := stripFences(strings.TrimSpace(raw))
	if text == "" {
		return types.DecisionBatch{}, fmt.Errorf("empty decision payload")
	}

	var batch types.DecisionBatch
	dec := json.NewDecoder(strings.NewReader(text))
	if err := dec.Decode(&batch); err != nil {
		return types.DecisionBatch{}, fmt.Errorf("decode decision payload: %w", err)
	}

	for i, d := range batch.Actions {
		if err := validateDecision(d); err != nil {
			return types.DecisionBatch{}, fmt.Errorf("action %d: %w", i+1, err)
		}
	}
	return batch, nil
}

func validateDecision(d types.Decision) error {
	if d.Pair == "" {
		return fmt.Errorf("missing pair")
	}
	switch d.Type {
	case types.ActionOpen:
		side := strings.ToLower(d.Side)
		if side != "buy" && side != "sell" {
			return fmt.Errorf("open_position side must be buy or sell, got %q", d.Side)
		}
		if d.Amount <= 0 {
			return fmt.Errorf("open_position amount must be positive, got %v", d.Amount)
		}
		if d.Leverage <= 0 {
			return fmt.Errorf("open_position leverage must be positive, got %v", d.Leverage)
		}
		if d.TakeProfit <= 0 || d.StopLoss <= 0 {
			return fmt.Errorf("open_position needs tp and sl trigger prices")
		}
	case types.ActionClose:
		// Pair is all a close needs.
	default:
		return fmt.Errorf("unknown action type %q", d.Type)
	}
	return nil
}

// stripFences removes a surrounding markdown code fence, which some
// providers wrap around JSON output.
func stripFences(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		// Drop a language tag like "json" on the fence line.
		s = s[i+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
