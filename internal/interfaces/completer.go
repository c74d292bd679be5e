package interfaces

import "context"

// Completer is a single-turn chat completion provider.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}
