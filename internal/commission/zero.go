package commission

import (
	"github.com/tradeforge/marginbt/pkg/errors"
)

// ZeroCommission implements CommissionModel with zero fees, zero margin and
// zero interest.
type ZeroCommission struct{}

// NewZeroCommission creates a new zero commission model.
func NewZeroCommission() *ZeroCommission {
	return &ZeroCommission{}
}

// Commission returns 0 for any quantity.
func (c *ZeroCommission) Commission(quantity float64, price float64, isMaker bool) (float64, error) {
	if price <= 0 {
		return 0, errors.Newf(errors.ErrCodeInvalidPrice, "price must be positive: %f", price)
	}

	return 0, nil
}

// MarginPerUnit returns 0 for any price and leverage.
func (c *ZeroCommission) MarginPerUnit(price float64, leverage int) float64 {
	return 0
}

// TotalMargin returns 0 for any quantity.
func (c *ZeroCommission) TotalMargin(price float64, quantity float64, leverage int) float64 {
	return 0
}

// Interest returns 0 for any holding.
func (c *ZeroCommission) Interest(quantity float64, price float64, daysHeld float64) float64 {
	return 0
}
