package types

import "time"

type SignalType string

const (
	// SignalTypeBuyLong is a signal that tells the engine to open a long position
	SignalTypeBuyLong SignalType = "buy_long"
	// SignalTypeSellShort is a signal that tells the engine to open a short position
	SignalTypeSellShort SignalType = "sell_short"
	// SignalTypeClosePosition is a signal that tells the engine to close the open position
	SignalTypeClosePosition SignalType = "close_position"
	// SignalTypeNoAction is a signal that tells the engine to take no action
	SignalTypeNoAction SignalType = "no_action"
)

// Signal is a detected entry opportunity. TriggerBar is the bar that
// produced the signal; PriorBar is the preceding bar whose opposite extreme
// anchors the protective stop.
type Signal struct {
	// Time is the time of the signal
	Time time.Time
	// Type is the type of the signal
	Type SignalType
	// Name is the name of the signal
	Name string
	// Reason is the reason for the signal
	Reason string
	// Symbol is the symbol of the signal
	Symbol string
	// TriggerBar is the bar on which the signal was detected
	TriggerBar MarketData
	// PriorBar is the bar preceding the trigger bar
	PriorBar MarketData
}

// IsEntry reports whether the signal requests opening a position.
func (s Signal) IsEntry() bool {
	return s.Type == SignalTypeBuyLong || s.Type == SignalTypeSellShort
}
