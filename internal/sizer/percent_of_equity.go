package sizer

import (
	"github.com/tradeforge/marginbt/internal/commission"
	"github.com/tradeforge/marginbt/internal/types"
	"github.com/tradeforge/marginbt/pkg/errors"
)

// PercentOfEquitySizer commits a fixed fraction of account equity,
// multiplied by leverage, to each trade.
type PercentOfEquitySizer struct {
	model       commission.CommissionModel
	percent     float64
	minUnit     float64
	minLeverage int
	maxLeverage int
}

// NewPercentOfEquitySizer validates its parameters eagerly: percent must be
// in (0, 1] and minUnit positive.
func NewPercentOfEquitySizer(model commission.CommissionModel, percent, minUnit float64, minLeverage, maxLeverage int) (*PercentOfEquitySizer, error) {
	if percent <= 0 || percent > 1 {
		return nil, errors.Newf(errors.ErrCodeInvalidSizerPercent, "percent must be in (0, 1]: %f", percent)
	}

	if minUnit <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidMinUnit, "min unit must be positive: %f", minUnit)
	}

	if minLeverage < 1 || maxLeverage < minLeverage {
		return nil, errors.Newf(errors.ErrCodeInvalidParameter,
			"leverage bounds must satisfy 1 <= min <= max: [%d, %d]", minLeverage, maxLeverage)
	}

	return &PercentOfEquitySizer{
		model:       model,
		percent:     percent,
		minUnit:     minUnit,
		minLeverage: minLeverage,
		maxLeverage: maxLeverage,
	}, nil
}

// Size implements PositionSizer.
func (s *PercentOfEquitySizer) Size(account types.AccountInfo, position types.Position, price float64, leverage int, isBuy bool) (float64, error) {
	if price <= 0 {
		return 0, errors.Newf(errors.ErrCodeInvalidPrice, "price must be positive: %f", price)
	}

	if leverage < s.minLeverage {
		leverage = s.minLeverage
	}

	if leverage > s.maxLeverage {
		leverage = s.maxLeverage
	}

	notional := account.Equity * s.percent * float64(leverage)

	quantity := roundToUnit(notional/price, s.minUnit)
	if quantity < s.minUnit {
		quantity = s.minUnit
	}

	// Never size past the cash constraint: reject outright rather than
	// partially filling the margin requirement.
	requiredMargin := s.model.TotalMargin(price, quantity, leverage)
	if requiredMargin > account.Cash {
		return 0, nil
	}

	// A close must never flip the position.
	if isClosing(position, isBuy) && quantity > position.AbsSize() {
		quantity = position.AbsSize()
	}

	return quantity, nil
}
