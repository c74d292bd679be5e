package interfaces

import (
	"context"

	"llm-futures-trader/internal/types"
)

// Engine runs one full trading cycle: fetch state, request decisions,
// execute, notify.
type Engine interface {
	RunCycle(ctx context.Context) (*types.CycleResult, error)
}
