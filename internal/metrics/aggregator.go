// Package metrics accumulates closed-trade outcomes and equity samples into
// running statistics. The aggregator is a pure accumulator: no operation
// reverses a prior update and Finalize is idempotent.
package metrics

import (
	"time"

	"github.com/moznion/go-optional"
	"github.com/shopspring/decimal"
	"github.com/tradeforge/marginbt/internal/types"
	"github.com/tradeforge/marginbt/pkg/errors"
)

// Aggregator consumes trade-closure and equity events in non-decreasing
// timestamp order. Out-of-order closures are rejected because the interval
// statistics depend on ordering.
type Aggregator struct {
	tradeCount   int
	profitTrades int
	// profits holds realized gains, losses realized loss magnitudes. A trade
	// with exactly zero net P&L enters neither sequence so it cannot dilute
	// the mean gain or the mean loss.
	profits []float64
	losses  []float64

	cumulativePnLPct decimal.Decimal

	firstTradeTime optional.Option[time.Time]
	lastTradeTime  optional.Option[time.Time]

	highWaterMark float64
	highTimes     []time.Time
}

// Summary is the finalized view of a run's statistics.
type Summary struct {
	TradeCount   int `yaml:"trade_count" json:"trade_count"`
	ProfitTrades int `yaml:"profit_trades" json:"profit_trades"`
	LossTrades   int `yaml:"loss_trades" json:"loss_trades"`
	// WinRate is the share of non-losing trades in percent, in [0, 100].
	WinRate float64 `yaml:"win_rate" json:"win_rate"`
	// ProfitLossRatio is mean gain over mean loss. None when no losses were
	// recorded; never a division by zero.
	ProfitLossRatio optional.Option[float64] `yaml:"profit_loss_ratio" json:"profit_loss_ratio"`
	// CumulativePnLPct is the sum of per-trade net P&L as a percentage of
	// equity at each close.
	CumulativePnLPct float64 `yaml:"cumulative_pnl_pct" json:"cumulative_pnl_pct"`
	// TradeFrequency is trades per day over the first-to-last trade span.
	TradeFrequency      float64 `yaml:"trade_frequency" json:"trade_frequency"`
	EquityHighWaterMark float64 `yaml:"equity_high_water_mark" json:"equity_high_water_mark"`
	NewHighCount        int     `yaml:"new_high_count" json:"new_high_count"`
	// AvgNewHighIntervalDays is the mean day-gap between consecutive equity
	// highs. None when fewer than two highs were recorded.
	AvgNewHighIntervalDays optional.Option[float64]   `yaml:"avg_new_high_interval_days" json:"avg_new_high_interval_days"`
	FirstTradeTime         optional.Option[time.Time] `yaml:"first_trade_time" json:"first_trade_time"`
	LastTradeTime          optional.Option[time.Time] `yaml:"last_trade_time" json:"last_trade_time"`
}

// NewAggregator creates an empty aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{
		cumulativePnLPct: decimal.Zero,
		highWaterMark:    0,
	}
}

// OnTradeClosed records one closed trade against the equity at its close.
func (a *Aggregator) OnTradeClosed(trade types.ClosedTrade, currentEquity float64) error {
	if currentEquity <= 0 {
		return errors.Newf(errors.ErrCodeInvalidParameter, "equity at close must be positive: %f", currentEquity)
	}

	if a.lastTradeTime.IsSome() && trade.CloseTime.Before(a.lastTradeTime.Unwrap()) {
		return errors.Newf(errors.ErrCodeOutOfOrderTrade,
			"trade closed at %s arrived after one closed at %s",
			trade.CloseTime.Format(time.RFC3339), a.lastTradeTime.Unwrap().Format(time.RFC3339))
	}

	a.tradeCount++

	switch {
	case trade.NetPnL > 0:
		a.profits = append(a.profits, trade.NetPnL)
		a.profitTrades++
	case trade.NetPnL < 0:
		a.losses = append(a.losses, -trade.NetPnL)
	default:
		// break-even counts toward the non-losing share but enters neither mean
		a.profitTrades++
	}

	pct := decimal.NewFromFloat(trade.NetPnL).
		Div(decimal.NewFromFloat(currentEquity)).
		Mul(decimal.NewFromInt(100))
	a.cumulativePnLPct = a.cumulativePnLPct.Add(pct)

	if a.firstTradeTime.IsNone() {
		a.firstTradeTime = optional.Some(trade.CloseTime)
	}

	a.lastTradeTime = optional.Some(trade.CloseTime)

	return nil
}

// OnEquitySample advances the equity high-water mark. Each new high appends
// its timestamp to the new-high sequence.
func (a *Aggregator) OnEquitySample(equity float64, timestamp time.Time) {
	if equity <= a.highWaterMark {
		return
	}

	a.highWaterMark = equity
	a.highTimes = append(a.highTimes, timestamp)
}

// TradeCount returns the number of closed trades recorded so far.
func (a *Aggregator) TradeCount() int {
	return a.tradeCount
}

// Finalize derives the summary statistics. It reads accumulated state only,
// so calling it repeatedly returns identical results.
func (a *Aggregator) Finalize() Summary {
	summary := Summary{
		TradeCount:          a.tradeCount,
		ProfitTrades:        a.profitTrades,
		LossTrades:          len(a.losses),
		WinRate:             0,
		ProfitLossRatio:     optional.None[float64](),
		CumulativePnLPct:    a.cumulativePnLPct.InexactFloat64(),
		TradeFrequency:      0,
		EquityHighWaterMark: a.highWaterMark,
		NewHighCount:        len(a.highTimes),
		AvgNewHighIntervalDays: optional.None[float64](),
		FirstTradeTime:         a.firstTradeTime,
		LastTradeTime:          a.lastTradeTime,
	}

	if a.tradeCount > 0 {
		summary.WinRate = float64(a.profitTrades) / float64(a.tradeCount) * 100
	}

	if len(a.losses) > 0 {
		meanProfit := 0.0
		if len(a.profits) > 0 {
			meanProfit = mean(a.profits)
		}

		summary.ProfitLossRatio = optional.Some(meanProfit / mean(a.losses))
	}

	if a.firstTradeTime.IsSome() && a.lastTradeTime.IsSome() {
		spanDays := a.lastTradeTime.Unwrap().Sub(a.firstTradeTime.Unwrap()).Hours() / 24
		if spanDays < 1 {
			spanDays = 1
		}

		summary.TradeFrequency = float64(a.tradeCount) / spanDays
	}

	if len(a.highTimes) >= 2 {
		var totalDays float64
		for i := 1; i < len(a.highTimes); i++ {
			totalDays += a.highTimes[i].Sub(a.highTimes[i-1]).Hours() / 24
		}

		summary.AvgNewHighIntervalDays = optional.Some(totalDays / float64(len(a.highTimes)-1))
	}

	return summary
}

func mean(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}

	return sum / float64(len(values))
}
