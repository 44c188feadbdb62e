package commission

import (
	"math"

	"github.com/tradeforge/marginbt/pkg/errors"
)

// FuturesCommission prices trades on a leveraged futures venue: percentage
// maker/taker fees, leverage-dependent maintenance margin, and advisory
// daily interest on short holdings.
type FuturesCommission struct {
	makerRate          float64
	takerRate          float64
	contractMultiplier float64
	dailyInterestRate  float64
	// interestOnLong charges interest on long holdings as well. The default
	// leaves longs exempt.
	interestOnLong bool
	// fallbackLookups counts margin lookups that missed the tier table and
	// used the 1x default rate.
	fallbackLookups int
}

// NewFuturesCommission returns a FuturesCommission with the venue's standard
// fee schedule: 0.02% maker, 0.05% taker, 2% daily interest on shorts.
func NewFuturesCommission() *FuturesCommission {
	return &FuturesCommission{
		makerRate:          0.0002,
		takerRate:          0.0005,
		contractMultiplier: 1.0,
		dailyInterestRate:  0.02,
		interestOnLong:     false,
		fallbackLookups:    0,
	}
}

// NewFuturesCommissionWithRates returns a FuturesCommission with custom
// maker/taker rates. Rates are fractions in [0, 1).
func NewFuturesCommissionWithRates(makerRate, takerRate float64) (*FuturesCommission, error) {
	if makerRate < 0 || makerRate >= 1 || takerRate < 0 || takerRate >= 1 {
		return nil, errors.Newf(errors.ErrCodeInvalidParameter,
			"commission rates must be in [0, 1): maker=%f taker=%f", makerRate, takerRate)
	}

	c := NewFuturesCommission()
	c.makerRate = makerRate
	c.takerRate = takerRate

	return c, nil
}

// Commission implements CommissionModel.
func (c *FuturesCommission) Commission(quantity float64, price float64, isMaker bool) (float64, error) {
	if price <= 0 {
		return 0, errors.Newf(errors.ErrCodeInvalidPrice, "price must be positive: %f", price)
	}

	rate := c.takerRate
	if isMaker {
		rate = c.makerRate
	}

	return math.Abs(quantity) * price * rate, nil
}

// MarginPerUnit implements CommissionModel. Unsupported leverage values fall
// back to the 1x rate and are counted, never rejected.
func (c *FuturesCommission) MarginPerUnit(price float64, leverage int) float64 {
	rate, supported := MarginRate(leverage)
	if !supported {
		c.fallbackLookups++
	}

	return price * c.contractMultiplier * rate
}

// TotalMargin implements CommissionModel.
func (c *FuturesCommission) TotalMargin(price float64, quantity float64, leverage int) float64 {
	return c.MarginPerUnit(price, leverage) * math.Abs(quantity)
}

// Interest implements CommissionModel. Long holdings are exempt unless
// interestOnLong is set.
func (c *FuturesCommission) Interest(quantity float64, price float64, daysHeld float64) float64 {
	if quantity > 0 && !c.interestOnLong {
		return 0
	}

	return math.Abs(quantity) * price * c.dailyInterestRate * daysHeld
}

// FallbackLookups reports how many margin lookups used the default rate
// because the requested leverage is not a supported tier.
func (c *FuturesCommission) FallbackLookups() int {
	return c.fallbackLookups
}
