package commission

import (
	"testing"

	"github.com/stretchr/testify/suite"
	"github.com/tradeforge/marginbt/pkg/errors"
)

type CommissionTestSuite struct {
	suite.Suite
}

func TestCommissionSuite(t *testing.T) {
	suite.Run(t, new(CommissionTestSuite))
}

func (suite *CommissionTestSuite) TestFuturesCommissionMakerTaker() {
	model := NewFuturesCommission()

	tests := []struct {
		name     string
		quantity float64
		price    float64
		isMaker  bool
		expected float64
	}{
		{"taker buy", 100, 100, false, 5.0},       // 100*100*0.0005
		{"maker buy", 100, 100, true, 2.0},        // 100*100*0.0002
		{"negative quantity taker", -100, 100, false, 5.0},
		{"zero quantity", 0, 100, false, 0},
		{"fractional quantity maker", 0.5, 20000, true, 2.0},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			fee, err := model.Commission(tc.quantity, tc.price, tc.isMaker)
			suite.NoError(err)
			suite.InDelta(tc.expected, fee, 1e-9)
		})
	}
}

func (suite *CommissionTestSuite) TestFuturesCommissionInvalidPrice() {
	model := NewFuturesCommission()

	for _, price := range []float64{0, -10} {
		_, err := model.Commission(1, price, false)
		suite.Error(err)
		suite.True(errors.HasCode(err, errors.ErrCodeInvalidPrice))
	}
}

func (suite *CommissionTestSuite) TestNewFuturesCommissionWithRates() {
	model, err := NewFuturesCommissionWithRates(0.0001, 0.0004)
	suite.NoError(err)

	fee, err := model.Commission(10, 1000, true)
	suite.NoError(err)
	suite.InDelta(1.0, fee, 1e-9)

	_, err = NewFuturesCommissionWithRates(1.0, 0.0005)
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidParameter))

	_, err = NewFuturesCommissionWithRates(0.0002, -0.1)
	suite.Error(err)
}

func (suite *CommissionTestSuite) TestMarginRateMonotonicity() {
	leverages := SupportedLeverages()
	suite.NotEmpty(leverages)

	prev := 1.0
	for _, leverage := range leverages {
		rate, supported := MarginRate(leverage)
		suite.True(supported)
		suite.LessOrEqual(rate, prev, "margin rate must be non-increasing as leverage increases")
		prev = rate
	}

	rate, _ := MarginRate(1)
	suite.Equal(0.50, rate)
	rate, _ = MarginRate(125)
	suite.Equal(0.004, rate)
}

func (suite *CommissionTestSuite) TestMarginRateFallback() {
	rate, supported := MarginRate(7)
	suite.False(supported)
	suite.Equal(DefaultMarginRate, rate)
}

func (suite *CommissionTestSuite) TestMarginPerUnit() {
	model := NewFuturesCommission()

	// price 100 at 10x leverage: 100 * 1.0 * 0.05 = 5
	suite.InDelta(5.0, model.MarginPerUnit(100, 10), 1e-9)
	// unsupported leverage falls back to the 1x rate
	suite.InDelta(50.0, model.MarginPerUnit(100, 8), 1e-9)
}

func (suite *CommissionTestSuite) TestTotalMargin() {
	model := NewFuturesCommission()

	// 100 units at price 100 with 10x leverage: 100*0.05*100 = 500
	suite.InDelta(500.0, model.TotalMargin(100, 100, 10), 1e-9)
	// sign of quantity is irrelevant
	suite.InDelta(500.0, model.TotalMargin(100, -100, 10), 1e-9)
}

func (suite *CommissionTestSuite) TestUnsupportedLeverageCounted() {
	model := NewFuturesCommission()
	suite.Equal(0, model.FallbackLookups())

	margin := model.MarginPerUnit(100, 7)
	suite.InDelta(50.0, margin, 1e-9)
	suite.Equal(1, model.FallbackLookups())

	model.TotalMargin(100, 10, 7)
	suite.Equal(2, model.FallbackLookups())
}

func (suite *CommissionTestSuite) TestInterestShortOnly() {
	model := NewFuturesCommission()

	// longs are exempt
	suite.Equal(0.0, model.Interest(10, 100, 3))
	// shorts accrue |q| * price * rate * days
	suite.InDelta(60.0, model.Interest(-10, 100, 3), 1e-9) // 10*100*0.02*3
}

func (suite *CommissionTestSuite) TestInterestOnLongFlag() {
	model := NewFuturesCommission()
	model.interestOnLong = true

	suite.InDelta(20.0, model.Interest(10, 100, 1), 1e-9)
}

func (suite *CommissionTestSuite) TestZeroCommission() {
	model := NewZeroCommission()

	fee, err := model.Commission(1000, 50, false)
	suite.NoError(err)
	suite.Equal(0.0, fee)

	_, err = model.Commission(1000, 0, false)
	suite.Error(err)

	suite.Equal(0.0, model.MarginPerUnit(100, 10))
	suite.Equal(0.0, model.TotalMargin(100, 100, 10))
	suite.Equal(0.0, model.Interest(-10, 100, 5))
}

func (suite *CommissionTestSuite) TestGetCommissionModel() {
	suite.IsType(&FuturesCommission{}, GetCommissionModel(VenueLeveragedFutures))
	suite.IsType(&ZeroCommission{}, GetCommissionModel(VenueZero))
	suite.IsType(&ZeroCommission{}, GetCommissionModel(Venue("unknown")))
}
