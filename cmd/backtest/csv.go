package main

import (
	"fmt"
	"os"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/tradeforge/marginbt/internal/types"
)

// csvTime parses RFC3339 or date-only timestamps from CSV cells.
type csvTime struct {
	time.Time
}

func (t *csvTime) UnmarshalCSV(value string) error {
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		parsed, err := time.Parse(layout, value)
		if err == nil {
			t.Time = parsed
			return nil
		}
	}

	return fmt.Errorf("unrecognized timestamp: %q", value)
}

type barRecord struct {
	Time   csvTime `csv:"time"`
	Symbol string  `csv:"symbol"`
	Open   float64 `csv:"open"`
	High   float64 `csv:"high"`
	Low    float64 `csv:"low"`
	Close  float64 `csv:"close"`
	Volume float64 `csv:"volume"`
}

// loadBars reads an OHLCV CSV file into bars, preserving file order.
func loadBars(path string) ([]types.MarketData, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var records []*barRecord
	if err := gocsv.UnmarshalFile(file, &records); err != nil {
		return nil, fmt.Errorf("failed to unmarshal CSV: %w", err)
	}

	bars := make([]types.MarketData, 0, len(records))
	for _, record := range records {
		bars = append(bars, types.MarketData{
			Symbol: record.Symbol,
			Time:   record.Time.Time,
			Open:   record.Open,
			High:   record.High,
			Low:    record.Low,
			Close:  record.Close,
			Volume: record.Volume,
		})
	}

	return bars, nil
}
