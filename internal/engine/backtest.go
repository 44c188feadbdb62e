// Package engine runs the backtest: it feeds bars to the strategy, sizes
// entry signals, wraps them in bracket orders and settles them against the
// simulated venue, while the metrics aggregator and the DuckDB ledger track
// the outcome.
package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/tradeforge/marginbt/internal/bracket"
	"github.com/tradeforge/marginbt/internal/commission"
	"github.com/tradeforge/marginbt/internal/logger"
	"github.com/tradeforge/marginbt/internal/metrics"
	"github.com/tradeforge/marginbt/internal/sizer"
	"github.com/tradeforge/marginbt/internal/strategy"
	"github.com/tradeforge/marginbt/internal/types"
	"github.com/tradeforge/marginbt/pkg/errors"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

type BacktestEngine struct {
	config        BacktestEngineConfig
	strategy      strategy.Strategy
	resultsFolder string
	log           *logger.Logger

	state   *BacktestState
	venue   *SimulatedVenue
	sizer   sizer.PositionSizer
	builder *bracket.Builder
	metrics *metrics.Aggregator
	model   commission.CommissionModel
}

func NewBacktestEngine() *BacktestEngine {
	return &BacktestEngine{}
}

// Initialize parses the yaml config and wires the venue, sizer, bracket
// builder, metrics aggregator and ledger.
func (b *BacktestEngine) Initialize(config string) error {
	if err := yaml.Unmarshal([]byte(config), &b.config); err != nil {
		return errors.Wrap(errors.ErrCodeEngineConfigError, "failed to parse engine config", err)
	}

	var loggerError error
	b.log, loggerError = logger.NewLogger()
	if loggerError != nil {
		return loggerError
	}

	b.log.Debug("Backtest engine initialized",
		zap.String("config", config),
	)

	model := commission.GetCommissionModel(b.config.Venue)
	b.model = model

	b.state = NewBacktestState(b.log)
	if b.state == nil {
		return errors.New(errors.ErrCodeEngineStateNil, "failed to create backtest state")
	}

	if err := b.state.Initialize(); err != nil {
		return errors.Wrap(errors.ErrCodeEngineInitFailed, "failed to initialize backtest state", err)
	}

	venue, err := NewSimulatedVenue(b.config.InitialCapital, model, b.state, b.log)
	if err != nil {
		return errors.Wrap(errors.ErrCodeEngineInitFailed, "failed to create venue", err)
	}

	b.venue = venue

	positionSizer, err := sizer.New(b.config.Sizer, model)
	if err != nil {
		return errors.Wrap(errors.ErrCodeEngineInitFailed, "failed to create sizer", err)
	}

	b.sizer = positionSizer

	builder, err := bracket.NewBuilder(
		b.config.Bracket.PriceIncrement,
		b.config.Bracket.StopFraction,
		b.config.Bracket.RewardMultiple,
		b.config.Bracket.Validity(),
	)
	if err != nil {
		return errors.Wrap(errors.ErrCodeEngineInitFailed, "failed to create bracket builder", err)
	}

	b.builder = builder
	b.metrics = metrics.NewAggregator()

	return nil
}

// LoadStrategy sets the signal detector for the run.
func (b *BacktestEngine) LoadStrategy(strat strategy.Strategy) error {
	b.strategy = strat
	b.log.Debug("Strategy loaded",
		zap.String("strategy", strat.Name()),
	)

	return nil
}

// SetResultsFolder sets the output directory for the summary and the
// Parquet export.
func (b *BacktestEngine) SetResultsFolder(folder string) error {
	b.resultsFolder = folder
	b.log.Debug("Results folder set",
		zap.String("folder", folder),
	)

	return nil
}

func (b *BacktestEngine) preRunCheck(bars []types.MarketData) error {
	if b.venue == nil {
		return errors.New(errors.ErrCodeEngineInitFailed, "engine not initialized")
	}

	if b.strategy == nil {
		b.log.Error("No strategy loaded")
		return errors.New(errors.ErrCodeEngineNoStrategy, "no strategy loaded")
	}

	if len(bars) == 0 {
		b.log.Error("No market data provided")
		return errors.New(errors.ErrCodeEngineNoDataSource, "no market data provided")
	}

	if b.resultsFolder == "" {
		b.log.Error("No results folder set")
		return errors.New(errors.ErrCodeEngineConfigError, "no results folder set")
	}

	return nil
}

// RunSummary is the final report written at the end of a run.
type RunSummary struct {
	Strategy   string            `yaml:"strategy" json:"strategy"`
	Metrics    metrics.Summary   `yaml:"metrics" json:"metrics"`
	Ledger     TradeStats        `yaml:"ledger" json:"ledger"`
	FinalState types.AccountInfo `yaml:"final_state" json:"final_state"`
	// LeverageFallbacks counts margin lookups that fell back to the most
	// conservative tier because the requested leverage is not listed.
	LeverageFallbacks int `yaml:"leverage_fallbacks" json:"leverage_fallbacks"`
}

// Run replays the bars through the strategy and venue. Bars must arrive in
// strictly increasing timestamp order; a regression or duplicate halts the
// run.
func (b *BacktestEngine) Run(bars []types.MarketData) (*RunSummary, error) {
	if err := b.preRunCheck(bars); err != nil {
		return nil, err
	}

	if err := b.strategy.Initialize(""); err != nil {
		b.log.Error("Failed to initialize strategy",
			zap.String("strategy", b.strategy.Name()),
			zap.Error(err),
		)

		return nil, err
	}

	bar := progressbar.Default(int64(len(bars)))
	bar.Describe(fmt.Sprintf("Backtesting %s", b.strategy.Name()))

	var lastTime time.Time
	var lastClose float64

	for _, data := range bars {
		bar.Add(1)

		if b.config.StartTime.IsSome() && data.Time.Before(b.config.StartTime.Unwrap()) {
			continue
		}

		if b.config.EndTime.IsSome() && data.Time.After(b.config.EndTime.Unwrap()) {
			break
		}

		if !lastTime.IsZero() && !data.Time.After(lastTime) {
			return nil, errors.Newf(errors.ErrCodeMarketDataGap,
				"bar at %s does not advance past %s",
				data.Time.Format(time.RFC3339), lastTime.Format(time.RFC3339))
		}

		lastTime = data.Time
		lastClose = data.Close

		if err := b.processBar(data); err != nil {
			return nil, err
		}
	}

	return b.finish(lastClose)
}

func (b *BacktestEngine) processBar(data types.MarketData) error {
	closedTrades, err := b.venue.OnBar(data)
	if err != nil {
		b.log.Error("Failed to settle bar",
			zap.Error(err),
		)

		return err
	}

	account := b.venue.AccountInfo(data.Close)

	for _, trade := range closedTrades {
		if err := b.metrics.OnTradeClosed(trade, account.Equity); err != nil {
			return err
		}
	}

	b.metrics.OnEquitySample(account.Equity, data.Time)

	signal, err := b.strategy.ProcessData(strategy.Context{
		Position:      b.venue.Position(),
		PendingOrders: b.venue.HasPendingOrders(),
	}, data)
	if err != nil {
		b.log.Error("Failed to process data",
			zap.Error(err),
		)

		return err
	}

	if !signal.IsEntry() {
		return nil
	}

	return b.placeBracket(signal, account, data)
}

func (b *BacktestEngine) placeBracket(signal types.Signal, account types.AccountInfo, data types.MarketData) error {
	isBuy := signal.Type == types.SignalTypeBuyLong

	quantity, err := b.sizer.Size(account, b.venue.Position(), data.Close, b.config.Leverage, isBuy)
	if err != nil {
		return err
	}

	if quantity == 0 {
		b.log.Debug("signal skipped, insufficient margin",
			zap.Time("time", signal.Time),
			zap.Float64("cash", account.Cash),
		)

		return nil
	}

	spec, err := b.builder.Build(signal, quantity, b.config.Leverage, b.strategy.Name())
	if err != nil {
		b.log.Warn("signal rejected by bracket builder",
			zap.Time("time", signal.Time),
			zap.Error(err),
		)

		return nil
	}

	return b.venue.SubmitBracket(spec, data.Time)
}

func (b *BacktestEngine) finish(lastClose float64) (*RunSummary, error) {
	stats, err := b.state.GetTradeStats()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeLedgerQueryFailed, "failed to aggregate ledger", err)
	}

	summary := &RunSummary{
		Strategy:   b.strategy.Name(),
		Metrics:    b.metrics.Finalize(),
		Ledger:     stats,
		FinalState: b.venue.AccountInfo(lastClose),
	}

	if counter, ok := b.model.(interface{ FallbackLookups() int }); ok {
		summary.LeverageFallbacks = counter.FallbackLookups()
		if summary.LeverageFallbacks > 0 {
			b.log.Warn("margin lookups fell back to the conservative tier",
				zap.Int("count", summary.LeverageFallbacks),
			)
		}
	}

	if err := b.writeSummary(summary); err != nil {
		return nil, err
	}

	if err := b.state.Write(b.resultsFolder); err != nil {
		return nil, err
	}

	return summary, nil
}

func (b *BacktestEngine) writeSummary(summary *RunSummary) error {
	if err := os.MkdirAll(b.resultsFolder, 0755); err != nil {
		return err
	}

	out, err := yaml.Marshal(summary)
	if err != nil {
		return err
	}

	path := filepath.Join(b.resultsFolder, "summary.yaml")
	if err := os.WriteFile(path, out, 0644); err != nil {
		return err
	}

	b.log.Info("Run summary written",
		zap.String("path", path),
		zap.Int("trades", summary.Metrics.TradeCount),
	)

	return nil
}
