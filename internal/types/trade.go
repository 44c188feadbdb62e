package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// Trade records one executed order.
type Trade struct {
	Order         Order     `csv:"order"`
	ExecutedAt    time.Time `csv:"executed_at"`
	ExecutedQty   float64   `csv:"executed_qty"`
	ExecutedPrice float64   `csv:"executed_price"`
	// Fee is the commission for this trade
	Fee float64 `csv:"fee"`
	// PnL is the realized profit and loss for this trade, net of fees.
	// Zero for entries; set on the closing execution.
	PnL float64 `csv:"pnl"`
}

// ClosedTrade is emitted when a position fully closes. It is immutable and
// consumed exactly once by the metrics aggregator.
type ClosedTrade struct {
	Symbol     string    `yaml:"symbol" json:"symbol" csv:"symbol"`
	EntryPrice float64   `yaml:"entry_price" json:"entry_price" csv:"entry_price"`
	ExitPrice  float64   `yaml:"exit_price" json:"exit_price" csv:"exit_price"`
	// Size is the signed position size that was closed (positive = was long)
	Size     float64 `yaml:"size" json:"size" csv:"size"`
	Leverage int     `yaml:"leverage" json:"leverage" csv:"leverage"`
	// GrossPnL is the price-move P&L before commission
	GrossPnL float64 `yaml:"gross_pnl" json:"gross_pnl" csv:"gross_pnl"`
	// NetPnL is GrossPnL minus all commission paid on entry and exit
	NetPnL     float64   `yaml:"net_pnl" json:"net_pnl" csv:"net_pnl"`
	Commission float64   `yaml:"commission" json:"commission" csv:"commission"`
	OpenTime   time.Time `yaml:"open_time" json:"open_time" csv:"open_time"`
	CloseTime  time.Time `yaml:"close_time" json:"close_time" csv:"close_time"`
}

// NewClosedTrade computes gross and net P&L with decimal arithmetic.
// For shorts (size < 0) a falling price yields a positive P&L.
func NewClosedTrade(symbol string, size, entryPrice, exitPrice, commission float64, leverage int, openTime, closeTime time.Time) ClosedTrade {
	sizeDec := decimal.NewFromFloat(size)
	grossDec := decimal.NewFromFloat(exitPrice).Sub(decimal.NewFromFloat(entryPrice)).Mul(sizeDec)
	netDec := grossDec.Sub(decimal.NewFromFloat(commission))

	gross, _ := grossDec.Float64()
	net, _ := netDec.Float64()

	return ClosedTrade{
		Symbol:     symbol,
		EntryPrice: entryPrice,
		ExitPrice:  exitPrice,
		Size:       size,
		Leverage:   leverage,
		GrossPnL:   gross,
		NetPnL:     net,
		Commission: commission,
		OpenTime:   openTime,
		CloseTime:  closeTime,
	}
}

// HoldingDays returns the holding time of the trade in fractional days.
func (t ClosedTrade) HoldingDays() float64 {
	return t.CloseTime.Sub(t.OpenTime).Hours() / 24
}
