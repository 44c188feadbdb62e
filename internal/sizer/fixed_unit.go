package sizer

import (
	"github.com/tradeforge/marginbt/internal/commission"
	"github.com/tradeforge/marginbt/internal/types"
	"github.com/tradeforge/marginbt/pkg/errors"
)

// FixedUnitSizer trades a fixed quantity per signal, bounded by a maximum
// share of equity across the whole position.
type FixedUnitSizer struct {
	model              commission.CommissionModel
	fixedUnit          float64
	maxPercentOfEquity float64
	minUnit            float64
}

// NewFixedUnitSizer validates its parameters eagerly.
func NewFixedUnitSizer(model commission.CommissionModel, fixedUnit, maxPercentOfEquity, minUnit float64) (*FixedUnitSizer, error) {
	if fixedUnit <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidParameter, "fixed unit must be positive: %f", fixedUnit)
	}

	if maxPercentOfEquity <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidSizerPercent, "max percent of equity must be positive: %f", maxPercentOfEquity)
	}

	if minUnit <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidMinUnit, "min unit must be positive: %f", minUnit)
	}

	return &FixedUnitSizer{
		model:              model,
		fixedUnit:          fixedUnit,
		maxPercentOfEquity: maxPercentOfEquity,
		minUnit:            minUnit,
	}, nil
}

// Size implements PositionSizer.
func (s *FixedUnitSizer) Size(account types.AccountInfo, position types.Position, price float64, leverage int, isBuy bool) (float64, error) {
	if price <= 0 {
		return 0, errors.Newf(errors.ErrCodeInvalidPrice, "price must be positive: %f", price)
	}

	maxAllowed := account.Equity * s.maxPercentOfEquity / price

	room := maxAllowed - position.AbsSize()
	if room <= 0 {
		return 0, nil
	}

	quantity := s.fixedUnit
	if room < quantity {
		quantity = room
	}

	quantity = roundToUnit(quantity, s.minUnit)
	if quantity < s.minUnit {
		quantity = s.minUnit
	}

	requiredMargin := s.model.TotalMargin(price, quantity, leverage)
	if requiredMargin > account.Cash {
		return 0, nil
	}

	if isClosing(position, isBuy) && quantity > position.AbsSize() {
		quantity = position.AbsSize()
	}

	return quantity, nil
}
