package commission

// LeverageTier maps a supported leverage multiple to its maintenance margin
// rate. Higher leverage carries a lower or equal rate.
type LeverageTier struct {
	Leverage   int
	MarginRate float64
}

// DefaultMarginRate is the 1x rate applied when a leverage multiple is not
// present in the tier table. The fallback is a defined default, not an error.
const DefaultMarginRate = 0.50

// leverageTiers is ordered by ascending leverage so new tiers slot in
// without code change elsewhere.
var leverageTiers = []LeverageTier{
	{Leverage: 1, MarginRate: 0.50},
	{Leverage: 2, MarginRate: 0.25},
	{Leverage: 3, MarginRate: 0.15},
	{Leverage: 4, MarginRate: 0.125},
	{Leverage: 5, MarginRate: 0.10},
	{Leverage: 10, MarginRate: 0.05},
	{Leverage: 20, MarginRate: 0.025},
	{Leverage: 25, MarginRate: 0.02},
	{Leverage: 50, MarginRate: 0.01},
	{Leverage: 75, MarginRate: 0.0065},
	{Leverage: 100, MarginRate: 0.005},
	{Leverage: 125, MarginRate: 0.004},
}

// MarginRate looks up the maintenance margin rate for a leverage multiple.
// The second return value reports whether the leverage is a supported tier;
// on a miss the 1x DefaultMarginRate is returned.
func MarginRate(leverage int) (float64, bool) {
	for _, tier := range leverageTiers {
		if tier.Leverage == leverage {
			return tier.MarginRate, true
		}
	}

	return DefaultMarginRate, false
}

// SupportedLeverages returns the leverage multiples present in the tier
// table, in ascending order.
func SupportedLeverages() []int {
	leverages := make([]int, 0, len(leverageTiers))
	for _, tier := range leverageTiers {
		leverages = append(leverages, tier.Leverage)
	}

	return leverages
}
