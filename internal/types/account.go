package types

import "time"

// AccountInfo represents the current account state. It is mutated only by
// the execution venue; the sizing and metrics components read it.
type AccountInfo struct {
	// Cash is the current cash balance (excluding unrealized P&L)
	Cash float64 `json:"cash" yaml:"cash"`
	// Equity is the total account value (cash + unrealized P&L)
	Equity float64 `json:"equity" yaml:"equity"`
	// MarginUsed is the maintenance margin currently locked by the open position
	MarginUsed float64 `json:"margin_used" yaml:"margin_used"`
	// RealizedPnL is the total realized profit/loss from closed positions
	RealizedPnL float64 `json:"realized_pnl" yaml:"realized_pnl"`
	// UnrealizedPnL is the unrealized profit/loss of the open position
	UnrealizedPnL float64 `json:"unrealized_pnl" yaml:"unrealized_pnl"`
	// TotalFees is the total commission paid
	TotalFees float64 `json:"total_fees" yaml:"total_fees"`
	// InterestAccrued is the advisory interest charge on short holdings.
	// It is reported only and never deducted from cash.
	InterestAccrued float64 `json:"interest_accrued" yaml:"interest_accrued"`
}

// Position represents the single open position of the account.
// Size is signed: positive for long, negative for short.
type Position struct {
	Symbol        string    `json:"symbol" yaml:"symbol" csv:"symbol"`
	Size          float64   `json:"size" yaml:"size" csv:"size"`
	EntryPrice    float64   `json:"entry_price" yaml:"entry_price" csv:"entry_price"`
	Leverage      int       `json:"leverage" yaml:"leverage" csv:"leverage"`
	OpenTimestamp time.Time `json:"open_timestamp" yaml:"open_timestamp" csv:"open_timestamp"`
}

// IsFlat reports whether there is no open position.
func (p Position) IsFlat() bool {
	return p.Size == 0
}

// IsLong reports whether the position is long.
func (p Position) IsLong() bool {
	return p.Size > 0
}

// IsShort reports whether the position is short.
func (p Position) IsShort() bool {
	return p.Size < 0
}

// AbsSize returns the unsigned position size.
func (p Position) AbsSize() float64 {
	if p.Size < 0 {
		return -p.Size
	}

	return p.Size
}

// UnrealizedPnL returns the mark-to-market profit of the position at price.
func (p Position) UnrealizedPnL(price float64) float64 {
	return (price - p.EntryPrice) * p.Size
}
