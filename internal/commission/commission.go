package commission

// CommissionModel answers what a trade costs and what collateral it requires.
type CommissionModel interface {
	// Commission returns the fee in quote currency for executing the given
	// quantity at the given price. isMaker selects the resting (limit) rate;
	// aggressive stop and market executions use the taker rate.
	Commission(quantity float64, price float64, isMaker bool) (float64, error)
	// MarginPerUnit returns the maintenance margin required to hold one unit
	// at the given price and leverage.
	MarginPerUnit(price float64, leverage int) float64
	// TotalMargin returns the maintenance margin required for the whole quantity.
	TotalMargin(price float64, quantity float64, leverage int) float64
	// Interest returns the advisory interest charge for holding the signed
	// quantity for daysHeld days. The charge is reported only, never
	// deducted from cash.
	Interest(quantity float64, price float64, daysHeld float64) float64
}

type Venue string

const (
	VenueLeveragedFutures Venue = "leveraged_futures"
	VenueZero             Venue = "zero_commission"
)

var AllVenues = []any{
	VenueLeveragedFutures,
	VenueZero,
}

func GetCommissionModel(venue Venue) CommissionModel {
	switch venue {
	case VenueLeveragedFutures:
		return NewFuturesCommission()
	case VenueZero:
		return NewZeroCommission()
	default:
		return NewZeroCommission()
	}
}
