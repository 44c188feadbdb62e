package strategy

import (
	"github.com/tradeforge/marginbt/internal/types"
	"github.com/tradeforge/marginbt/pkg/errors"
)

// MomentumBreakoutStrategy signals a long breakout after two consecutive
// up bars on rising volume. It only fires while flat with no working orders;
// entry placement, sizing and protective legs are the engine's job.
type MomentumBreakoutStrategy struct {
	name        string
	initialized bool

	prevBar    types.MarketData
	hasPrevBar bool
}

// NewMomentumBreakoutStrategy creates a new momentum breakout strategy.
func NewMomentumBreakoutStrategy() Strategy {
	return &MomentumBreakoutStrategy{
		name: "MomentumBreakoutStrategy",
	}
}

// Name returns the name of the strategy.
func (s *MomentumBreakoutStrategy) Name() string {
	return s.name
}

// Initialize sets up the strategy. It takes no configuration.
func (s *MomentumBreakoutStrategy) Initialize(config string) error {
	s.initialized = true
	return nil
}

// ProcessData consumes one bar and emits a buy_long signal when the bar and
// its predecessor both closed up and volume expanded.
func (s *MomentumBreakoutStrategy) ProcessData(ctx Context, data types.MarketData) (types.Signal, error) {
	if !s.initialized {
		return types.Signal{}, errors.New(errors.ErrCodeInvalidParameter, "strategy not initialized")
	}

	if !s.hasPrevBar {
		s.prevBar = data
		s.hasPrevBar = true

		return noActionSignal(s.name, data), nil
	}

	prev := s.prevBar
	s.prevBar = data

	if !ctx.Position.IsFlat() || ctx.PendingOrders {
		return noActionSignal(s.name, data), nil
	}

	if data.IsBullish() && prev.IsBullish() && data.Volume > prev.Volume {
		return types.Signal{
			Time:       data.Time,
			Type:       types.SignalTypeBuyLong,
			Name:       s.name,
			Reason:     "two consecutive up bars on rising volume",
			Symbol:     data.Symbol,
			TriggerBar: data,
			PriorBar:   prev,
		}, nil
	}

	return noActionSignal(s.name, data), nil
}
