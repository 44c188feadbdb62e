package engine

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/tradeforge/marginbt/internal/strategy"
	"github.com/tradeforge/marginbt/internal/types"
	"github.com/tradeforge/marginbt/pkg/errors"
)

type BacktestEngineTestSuite struct {
	suite.Suite
	engine *BacktestEngine
}

func TestBacktestEngineSuite(t *testing.T) {
	suite.Run(t, new(BacktestEngineTestSuite))
}

const testEngineConfig = `
initial_capital: 10000
venue: leveraged_futures
leverage: 10
sizer:
  kind: percent_of_equity
  percent: 0.1
  min_unit: 0.001
  min_leverage: 1
  max_leverage: 125
bracket:
  price_increment: 0.1
  stop_fraction: 0.9
  reward_multiple: 1.5
  validity_minutes: 5
`

func (suite *BacktestEngineTestSuite) SetupTest() {
	suite.engine = NewBacktestEngine()
	suite.Require().NoError(suite.engine.Initialize(testEngineConfig))
	suite.Require().NoError(suite.engine.LoadStrategy(strategy.NewMomentumBreakoutStrategy()))
	suite.Require().NoError(suite.engine.SetResultsFolder(suite.T().TempDir()))
}

func engineBar(at time.Time, open, high, low, close, volume float64) types.MarketData {
	return types.MarketData{
		Symbol: "BTCUSDT",
		Time:   at,
		Open:   open,
		High:   high,
		Low:    low,
		Close:  close,
		Volume: volume,
	}
}

// breakoutBars produces a series where two up bars on rising volume fire a
// signal, the entry stop fills on the next bar and the take-profit fills on
// the bar after.
func breakoutBars(base time.Time) []types.MarketData {
	return []types.MarketData{
		engineBar(base, 100, 101, 99.5, 100.8, 1000),
		engineBar(base.Add(time.Minute), 100.8, 102, 100.2, 101.5, 1500),
		engineBar(base.Add(2*time.Minute), 101.5, 102.5, 101, 102.2, 1200),
		engineBar(base.Add(3*time.Minute), 103, 121.5, 102.5, 120, 2000),
		engineBar(base.Add(4*time.Minute), 120, 120.5, 118, 119, 900),
	}
}

func (suite *BacktestEngineTestSuite) TestFullBreakoutRoundTrip() {
	base := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

	summary, err := suite.engine.Run(breakoutBars(base))
	suite.Require().NoError(err)
	suite.Require().NotNil(summary)

	suite.Equal(1, summary.Metrics.TradeCount)
	suite.Equal(100.0, summary.Metrics.WinRate)
	suite.Equal(1, summary.Ledger.ClosedTrades)
	suite.True(summary.Ledger.TotalNetPnL > 0)
	suite.True(summary.FinalState.Cash > 10000)
	suite.Equal(0.0, summary.FinalState.MarginUsed)
	suite.True(summary.FinalState.TotalFees > 0)

	suite.FileExists(filepath.Join(suite.engine.resultsFolder, "summary.yaml"))
	suite.FileExists(filepath.Join(suite.engine.resultsFolder, "closed_trades.parquet"))
}

func (suite *BacktestEngineTestSuite) TestQuietMarketProducesEmptySummary() {
	base := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

	// every bar closes down, no signal ever fires
	bars := []types.MarketData{
		engineBar(base, 100, 100.5, 99, 99.5, 1000),
		engineBar(base.Add(time.Minute), 99.5, 100, 98.5, 99, 1100),
		engineBar(base.Add(2*time.Minute), 99, 99.5, 98, 98.5, 900),
	}

	summary, err := suite.engine.Run(bars)
	suite.Require().NoError(err)

	suite.Equal(0, summary.Metrics.TradeCount)
	suite.Equal(0.0, summary.Metrics.WinRate)
	suite.Equal(0, summary.Ledger.OrderEvents)
	suite.InDelta(10000, summary.FinalState.Cash, 1e-9)
}

func (suite *BacktestEngineTestSuite) TestRejectsNonAdvancingBars() {
	base := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

	bars := []types.MarketData{
		engineBar(base, 100, 101, 99.5, 100.8, 1000),
		engineBar(base, 100.8, 102, 100.2, 101.5, 1500), // duplicate timestamp
	}

	_, err := suite.engine.Run(bars)
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeMarketDataGap))
}

func (suite *BacktestEngineTestSuite) TestRejectsBackwardsBars() {
	base := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

	bars := []types.MarketData{
		engineBar(base, 100, 101, 99.5, 100.8, 1000),
		engineBar(base.Add(-time.Minute), 100.8, 102, 100.2, 101.5, 1500),
	}

	_, err := suite.engine.Run(bars)
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeMarketDataGap))
}

func (suite *BacktestEngineTestSuite) TestPreRunChecks() {
	fresh := NewBacktestEngine()
	suite.Require().NoError(fresh.Initialize(testEngineConfig))
	suite.Require().NoError(fresh.SetResultsFolder(suite.T().TempDir()))

	_, err := fresh.Run(breakoutBars(time.Now()))
	suite.True(errors.HasCode(err, errors.ErrCodeEngineNoStrategy))

	suite.Require().NoError(fresh.LoadStrategy(strategy.NewMomentumBreakoutStrategy()))

	_, err = fresh.Run(nil)
	suite.True(errors.HasCode(err, errors.ErrCodeEngineNoDataSource))
}

func (suite *BacktestEngineTestSuite) TestTimeWindowFiltersBars() {
	base := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

	config := TestConfig(base.Add(10*time.Minute), base.Add(20*time.Minute), "leveraged_futures")
	suite.Equal(10000.0, config.InitialCapital)

	windowed := NewBacktestEngine()
	suite.Require().NoError(windowed.Initialize(testEngineConfig + "\nstart_time: 2024-05-01T10:00:00Z\n"))
	suite.Require().NoError(windowed.LoadStrategy(strategy.NewMomentumBreakoutStrategy()))
	suite.Require().NoError(windowed.SetResultsFolder(suite.T().TempDir()))

	// all bars precede the window, so nothing trades
	summary, err := windowed.Run(breakoutBars(base))
	suite.Require().NoError(err)
	suite.Equal(0, summary.Metrics.TradeCount)
	suite.Equal(0, summary.Ledger.OrderEvents)
}

func (suite *BacktestEngineTestSuite) TestInvalidConfig() {
	broken := NewBacktestEngine()
	err := broken.Initialize("initial_capital: [not a number]")
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeEngineConfigError))
}
