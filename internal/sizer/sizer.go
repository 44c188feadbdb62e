// Package sizer converts account state and a desired trade direction into a
// margin-safe order quantity. Sizers are stateless: every call re-derives
// its answer from the supplied account snapshot, price and leverage.
package sizer

import (
	"math"

	"github.com/go-playground/validator/v10"
	"github.com/tradeforge/marginbt/internal/commission"
	"github.com/tradeforge/marginbt/internal/types"
	"github.com/tradeforge/marginbt/pkg/errors"
)

// PositionSizer sizes an order against the current account snapshot.
// A zero quantity with a nil error means the trade is skipped (for example
// because required margin exceeds available cash); callers must treat it as
// "no order", not as failure.
type PositionSizer interface {
	Size(account types.AccountInfo, position types.Position, price float64, leverage int, isBuy bool) (float64, error)
}

type Kind string

const (
	KindPercentOfEquity Kind = "percent_of_equity"
	KindFixedUnit       Kind = "fixed_unit"
)

var AllKinds = []any{
	KindPercentOfEquity,
	KindFixedUnit,
}

// Config selects and parameterizes a sizer.
type Config struct {
	Kind Kind `yaml:"kind" json:"kind" validate:"required,oneof=percent_of_equity fixed_unit"`
	// Percent is the fraction of equity a PercentOfEquitySizer commits per trade.
	Percent float64 `yaml:"percent" json:"percent"`
	// FixedUnit is the target quantity of a FixedUnitSizer.
	FixedUnit float64 `yaml:"fixed_unit" json:"fixed_unit"`
	// MaxPercentOfEquity caps a FixedUnitSizer's total exposure.
	MaxPercentOfEquity float64 `yaml:"max_percent_of_equity" json:"max_percent_of_equity"`
	// MinUnit is the smallest tradeable quantity increment.
	MinUnit     float64 `yaml:"min_unit" json:"min_unit" validate:"required,gt=0"`
	MinLeverage int     `yaml:"min_leverage" json:"min_leverage" validate:"gte=1"`
	MaxLeverage int     `yaml:"max_leverage" json:"max_leverage" validate:"gte=1,lte=125"`
}

// New builds the configured sizer backed by the given commission model.
func New(config Config, model commission.CommissionModel) (PositionSizer, error) {
	validate := validator.New()
	if err := validate.Struct(&config); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid sizer config", err)
	}

	switch config.Kind {
	case KindPercentOfEquity:
		return NewPercentOfEquitySizer(model, config.Percent, config.MinUnit, config.MinLeverage, config.MaxLeverage)
	case KindFixedUnit:
		return NewFixedUnitSizer(model, config.FixedUnit, config.MaxPercentOfEquity, config.MinUnit)
	default:
		return nil, errors.Newf(errors.ErrCodeUnsupportedSizer, "unsupported sizer kind: %s", config.Kind)
	}
}

// roundToUnit rounds quantity to the nearest multiple of unit. Rounding,
// not truncating, avoids systematic under-sizing.
func roundToUnit(quantity float64, unit float64) float64 {
	return math.Round(quantity/unit) * unit
}

// isClosing reports whether the requested direction reduces the open
// position rather than extending it.
func isClosing(position types.Position, isBuy bool) bool {
	if isBuy {
		return position.IsShort()
	}

	return position.IsLong()
}
