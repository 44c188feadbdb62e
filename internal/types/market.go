package types

import "time"

// MarketData represents a single OHLCV bar for one discrete time step.
// Bars are immutable and ordered by strictly increasing timestamps.
type MarketData struct {
	Id     string    `json:"id" yaml:"id" csv:"id"`
	Symbol string    `json:"symbol" yaml:"symbol" csv:"symbol"`
	Time   time.Time `json:"time" yaml:"time" csv:"time"`
	Open   float64   `json:"open" yaml:"open" csv:"open"`
	High   float64   `json:"high" yaml:"high" csv:"high"`
	Low    float64   `json:"low" yaml:"low" csv:"low"`
	Close  float64   `json:"close" yaml:"close" csv:"close"`
	Volume float64   `json:"volume" yaml:"volume" csv:"volume"`
}

// Range returns the full high-low span of the bar.
func (m MarketData) Range() float64 {
	return m.High - m.Low
}

// IsBullish reports whether the bar closed above its open.
func (m MarketData) IsBullish() bool {
	return m.Close > m.Open
}
