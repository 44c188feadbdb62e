// Package bracket constructs linked entry/stop-loss/take-profit order
// groups from breakout signals and tracks their one-cancels-other state.
package bracket

import (
	"time"

	"github.com/google/uuid"
	"github.com/moznion/go-optional"
	"github.com/tradeforge/marginbt/internal/types"
	"github.com/tradeforge/marginbt/pkg/errors"
)

// Builder derives the three bracket prices from a signal:
//
//	entry  = reference extreme +/- one price increment in the breakout direction
//	stop   = stopFraction of the prior bar's opposite extreme
//	target = entry +/- (entry - stop) * rewardMultiple
//
// The reward multiple is a first-class parameter, so the structural
// reward:risk ratio is enforced by construction.
type Builder struct {
	priceIncrement float64
	stopFraction   float64
	rewardMultiple float64
	validity       time.Duration
}

// NewBuilder validates its parameters eagerly.
func NewBuilder(priceIncrement, stopFraction, rewardMultiple float64, validity time.Duration) (*Builder, error) {
	if priceIncrement <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidParameter, "price increment must be positive: %f", priceIncrement)
	}

	if stopFraction <= 0 || stopFraction > 1 {
		return nil, errors.Newf(errors.ErrCodeInvalidParameter, "stop fraction must be in (0, 1]: %f", stopFraction)
	}

	if rewardMultiple <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidParameter, "reward multiple must be positive: %f", rewardMultiple)
	}

	if validity <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidParameter, "validity window must be positive: %s", validity)
	}

	return &Builder{
		priceIncrement: priceIncrement,
		stopFraction:   stopFraction,
		rewardMultiple: rewardMultiple,
		validity:       validity,
	}, nil
}

// Extension projects a target price from an anchor pair: mid + (mid - low)
// scaled by the multiple. Generalized to any anchor pair, so a short bracket
// passes its anchors in mirrored order.
func Extension(low, mid, multiple float64) float64 {
	return mid + (mid-low)*multiple
}

// Build produces the entry spec with its two linked exit legs. The entry is
// a stop order one increment beyond the signal bar's extreme; the exits
// share the entry's group and quantity.
func (b *Builder) Build(signal types.Signal, quantity float64, leverage int, strategyName string) (types.OrderSpec, error) {
	if !signal.IsEntry() {
		return types.OrderSpec{}, errors.Newf(errors.ErrCodeInvalidBracket, "signal %s does not open a position", signal.Type)
	}

	if quantity <= 0 {
		return types.OrderSpec{}, errors.Newf(errors.ErrCodeInvalidQuantity, "bracket quantity must be positive: %f", quantity)
	}

	var entrySide, exitSide types.Side

	var entryPrice, stopPrice float64

	switch signal.Type {
	case types.SignalTypeBuyLong:
		entrySide = types.SideBuy
		exitSide = types.SideSell
		entryPrice = signal.TriggerBar.High + b.priceIncrement
		stopPrice = b.stopFraction * signal.PriorBar.Low
	case types.SignalTypeSellShort:
		entrySide = types.SideSell
		exitSide = types.SideBuy
		entryPrice = signal.TriggerBar.Low - b.priceIncrement
		// mirror of the long stop: the same fractional distance beyond the
		// prior bar's high
		stopPrice = (2 - b.stopFraction) * signal.PriorBar.High
	default:
		return types.OrderSpec{}, errors.Newf(errors.ErrCodeInvalidBracket, "unsupported signal type: %s", signal.Type)
	}

	targetPrice := Extension(stopPrice, entryPrice, b.rewardMultiple)

	if entrySide == types.SideBuy && !(stopPrice < entryPrice && entryPrice < targetPrice) {
		return types.OrderSpec{}, errors.Newf(errors.ErrCodeInvalidStopPrice,
			"long bracket prices must satisfy stop < entry < target: %f %f %f", stopPrice, entryPrice, targetPrice)
	}

	if entrySide == types.SideSell && !(targetPrice < entryPrice && entryPrice < stopPrice) {
		return types.OrderSpec{}, errors.Newf(errors.ErrCodeInvalidStopPrice,
			"short bracket prices must satisfy target < entry < stop: %f %f %f", targetPrice, entryPrice, stopPrice)
	}

	groupID := uuid.New().String()
	expiresAt := signal.Time.Add(b.validity)

	entry := types.OrderSpec{
		ID:           uuid.New().String(),
		GroupID:      groupID,
		Symbol:       signal.Symbol,
		Side:         entrySide,
		Kind:         types.OrderKindStop,
		Role:         types.LegRoleEntry,
		TriggerPrice: entryPrice,
		Quantity:     quantity,
		Leverage:     leverage,
		Reason:       types.Reason{Reason: types.OrderReasonBreakout, Message: signal.Reason},
		StrategyName: strategyName,
		ExpiresAt:    optional.Some(expiresAt),
		Children: []types.OrderSpec{
			{
				ID:           uuid.New().String(),
				GroupID:      groupID,
				Symbol:       signal.Symbol,
				Side:         exitSide,
				Kind:         types.OrderKindStop,
				Role:         types.LegRoleStopLoss,
				TriggerPrice: stopPrice,
				Quantity:     quantity,
				Leverage:     leverage,
				Reason:       types.Reason{Reason: types.OrderReasonStopLoss},
				StrategyName: strategyName,
				// exits are good-till-cancelled once the parent fills; an
				// unfilled parent takes them down with it at expiry
				ExpiresAt: optional.None[time.Time](),
			},
			{
				ID:           uuid.New().String(),
				GroupID:      groupID,
				Symbol:       signal.Symbol,
				Side:         exitSide,
				Kind:         types.OrderKindLimit,
				Role:         types.LegRoleTakeProfit,
				TriggerPrice: targetPrice,
				Quantity:     quantity,
				Leverage:     leverage,
				Reason:       types.Reason{Reason: types.OrderReasonTakeProfit},
				StrategyName: strategyName,
				ExpiresAt:    optional.None[time.Time](),
			},
		},
	}

	if err := entry.Validate(); err != nil {
		return types.OrderSpec{}, err
	}

	return entry, nil
}
