// Package strategy defines the signal-detection interface and the built-in
// strategies. Strategies are stateless with respect to positions and orders:
// they observe bars and the current position snapshot, and emit signals.
package strategy

import (
	"github.com/tradeforge/marginbt/internal/types"
)

// Context carries the per-bar view a strategy is allowed to see.
type Context struct {
	// Position is the open position for the symbol being processed, or a
	// flat position when none is open.
	Position types.Position
	// PendingOrders reports whether unfilled orders already exist for the
	// symbol. Strategies typically stay silent while an order is working.
	PendingOrders bool
}

// Strategy defines the methods any signal detector must implement.
type Strategy interface {
	// Initialize sets up the strategy with a configuration string. The
	// engine is responsible for producing the config string.
	Initialize(config string) error
	// ProcessData consumes one bar and returns a signal. A quiet bar
	// returns a signal of type no_action, never an error.
	ProcessData(ctx Context, data types.MarketData) (types.Signal, error)
	// Name returns the name of the strategy.
	Name() string
}

// noActionSignal is the shared quiet result for bars with nothing to do.
func noActionSignal(name string, data types.MarketData) types.Signal {
	return types.Signal{
		Time:   data.Time,
		Type:   types.SignalTypeNoAction,
		Name:   name,
		Symbol: data.Symbol,
	}
}
