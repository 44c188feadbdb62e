package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/tradeforge/marginbt/internal/types"
	"github.com/tradeforge/marginbt/pkg/errors"
)

type AggregatorTestSuite struct {
	suite.Suite
	agg *Aggregator
}

func TestAggregatorSuite(t *testing.T) {
	suite.Run(t, new(AggregatorTestSuite))
}

func (suite *AggregatorTestSuite) SetupTest() {
	suite.agg = NewAggregator()
}

func closedTradeAt(netPnL float64, closeTime time.Time) types.ClosedTrade {
	return types.ClosedTrade{
		Symbol:    "BTCUSDT",
		Size:      1,
		NetPnL:    netPnL,
		GrossPnL:  netPnL,
		OpenTime:  closeTime.Add(-time.Hour),
		CloseTime: closeTime,
	}
}

func (suite *AggregatorTestSuite) TestZeroTradesFinalize() {
	summary := suite.agg.Finalize()

	suite.Equal(0, summary.TradeCount)
	suite.Equal(0.0, summary.WinRate)
	suite.True(summary.ProfitLossRatio.IsNone())
	suite.True(summary.AvgNewHighIntervalDays.IsNone())
	suite.Equal(0.0, summary.TradeFrequency)
	suite.True(summary.FirstTradeTime.IsNone())
}

func (suite *AggregatorTestSuite) TestWinLossAndBreakEvenTrades() {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	suite.NoError(suite.agg.OnTradeClosed(closedTradeAt(50, base), 1000))
	suite.NoError(suite.agg.OnTradeClosed(closedTradeAt(-20, base.Add(time.Hour)), 1000))
	suite.NoError(suite.agg.OnTradeClosed(closedTradeAt(0, base.Add(2*time.Hour)), 1000))

	summary := suite.agg.Finalize()

	suite.Equal(3, summary.TradeCount)
	suite.Equal(2, summary.ProfitTrades)
	suite.Equal(1, summary.LossTrades)
	suite.InDelta(66.67, summary.WinRate, 0.01)

	suite.Require().True(summary.ProfitLossRatio.IsSome())
	suite.InDelta(2.5, summary.ProfitLossRatio.Unwrap(), 1e-9)

	// (50 - 20 + 0) / 1000 * 100
	suite.InDelta(3.0, summary.CumulativePnLPct, 1e-9)
}

func (suite *AggregatorTestSuite) TestWinRateBounds() {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		suite.NoError(suite.agg.OnTradeClosed(closedTradeAt(-1, base.Add(time.Duration(i)*time.Hour)), 1000))
	}

	summary := suite.agg.Finalize()
	suite.Equal(0.0, summary.WinRate)

	winning := NewAggregator()
	for i := 0; i < 5; i++ {
		suite.NoError(winning.OnTradeClosed(closedTradeAt(1, base.Add(time.Duration(i)*time.Hour)), 1000))
	}

	summary = winning.Finalize()
	suite.Equal(100.0, summary.WinRate)
	suite.True(summary.ProfitLossRatio.IsNone(), "no losses recorded means no ratio")
}

func (suite *AggregatorTestSuite) TestRejectsOutOfOrderTrades() {
	base := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

	suite.NoError(suite.agg.OnTradeClosed(closedTradeAt(10, base), 1000))

	err := suite.agg.OnTradeClosed(closedTradeAt(10, base.Add(-time.Hour)), 1000)
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeOutOfOrderTrade))

	// equal timestamps are allowed: ordering is non-decreasing
	suite.NoError(suite.agg.OnTradeClosed(closedTradeAt(10, base), 1000))
}

func (suite *AggregatorTestSuite) TestRejectsNonPositiveEquity() {
	err := suite.agg.OnTradeClosed(closedTradeAt(10, time.Now()), 0)
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidParameter))
}

func (suite *AggregatorTestSuite) TestTradeFrequency() {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	// 4 trades over 2 days
	suite.NoError(suite.agg.OnTradeClosed(closedTradeAt(1, base), 1000))
	suite.NoError(suite.agg.OnTradeClosed(closedTradeAt(1, base.Add(12*time.Hour)), 1000))
	suite.NoError(suite.agg.OnTradeClosed(closedTradeAt(1, base.Add(36*time.Hour)), 1000))
	suite.NoError(suite.agg.OnTradeClosed(closedTradeAt(1, base.Add(48*time.Hour)), 1000))

	summary := suite.agg.Finalize()
	suite.InDelta(2.0, summary.TradeFrequency, 1e-9)
}

func (suite *AggregatorTestSuite) TestTradeFrequencyFloorsSpanAtOneDay() {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	// all trades within one hour still divide by a one-day span
	suite.NoError(suite.agg.OnTradeClosed(closedTradeAt(1, base), 1000))
	suite.NoError(suite.agg.OnTradeClosed(closedTradeAt(1, base.Add(time.Hour)), 1000))

	summary := suite.agg.Finalize()
	suite.InDelta(2.0, summary.TradeFrequency, 1e-9)
}

func (suite *AggregatorTestSuite) TestHighWaterMark() {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	suite.agg.OnEquitySample(10000, base)
	suite.agg.OnEquitySample(9000, base.Add(24*time.Hour))  // drawdown, no new high
	suite.agg.OnEquitySample(10000, base.Add(48*time.Hour)) // equal, no new high
	suite.agg.OnEquitySample(11000, base.Add(72*time.Hour))
	suite.agg.OnEquitySample(12000, base.Add(96*time.Hour))

	summary := suite.agg.Finalize()

	suite.Equal(12000.0, summary.EquityHighWaterMark)
	suite.Equal(3, summary.NewHighCount)

	// gaps: 3 days then 1 day -> mean 2 days
	suite.Require().True(summary.AvgNewHighIntervalDays.IsSome())
	suite.InDelta(2.0, summary.AvgNewHighIntervalDays.Unwrap(), 1e-9)
}

func (suite *AggregatorTestSuite) TestSingleHighHasNoInterval() {
	suite.agg.OnEquitySample(10000, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	summary := suite.agg.Finalize()

	suite.Equal(1, summary.NewHighCount)
	suite.True(summary.AvgNewHighIntervalDays.IsNone())
}

func (suite *AggregatorTestSuite) TestFinalizeIdempotent() {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	suite.NoError(suite.agg.OnTradeClosed(closedTradeAt(50, base), 1000))
	suite.agg.OnEquitySample(1050, base)

	first := suite.agg.Finalize()
	second := suite.agg.Finalize()

	suite.Equal(first, second)
}
