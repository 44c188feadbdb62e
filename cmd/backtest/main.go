package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/tradeforge/marginbt/internal/config"
	"github.com/tradeforge/marginbt/internal/engine"
	"github.com/tradeforge/marginbt/internal/logger"
	"github.com/tradeforge/marginbt/internal/strategy"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

// runOptions are the resolved settings for one run: runner config file
// values overridden by CLI flags.
type runOptions struct {
	ConfigPath    string
	DataPath      string
	ResultsFolder string
	LogLevel      string
}

// resolveRunOptions merges the runner settings with flag values. Flags win;
// the settings file supplies defaults.
func resolveRunOptions(settings config.Config, configFlag, dataFlag, outputFlag string) (runOptions, error) {
	opts := runOptions{
		ConfigPath:    settings.Runner.EngineConfigPath,
		DataPath:      settings.Runner.DataPath,
		ResultsFolder: settings.Runner.ResultsFolder,
		LogLevel:      settings.Logger.Level,
	}

	if configFlag != "" {
		opts.ConfigPath = configFlag
	}

	if dataFlag != "" {
		opts.DataPath = dataFlag
	}

	if outputFlag != "" {
		opts.ResultsFolder = outputFlag
	}

	if opts.ResultsFolder == "" {
		opts.ResultsFolder = "results"
	}

	if opts.LogLevel == "" {
		opts.LogLevel = "info"
	}

	if opts.ConfigPath == "" {
		return opts, fmt.Errorf("engine config path missing: pass --config or set runner.engine_config_path")
	}

	if opts.DataPath == "" {
		return opts, fmt.Errorf("data path missing: pass --data or set runner.data_path")
	}

	return opts, nil
}

// runAction executes one backtest: runner defaults from the settings file,
// engine config from yaml, bars from CSV, results into the output folder.
func runAction(ctx context.Context, cmd *cli.Command) error {
	settings, err := config.LoadConfig(cmd.String("settings"))
	if err != nil {
		// no settings file is fine as long as flags cover the paths
		settings = config.Config{}
	}

	opts, err := resolveRunOptions(settings,
		cmd.String("config"), cmd.String("data"), cmd.String("output"))
	if err != nil {
		return err
	}

	runLog, err := logger.NewDevelopmentLogger(opts.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer runLog.Sync()

	engineConfig, err := os.ReadFile(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}

	bars, err := loadBars(opts.DataPath)
	if err != nil {
		return fmt.Errorf("failed to load market data: %w", err)
	}

	runLog.Info("Starting backtest",
		zap.String("config", opts.ConfigPath),
		zap.String("data", opts.DataPath),
		zap.Int("bars", len(bars)),
	)

	backtester := engine.NewBacktestEngine()

	if err := backtester.Initialize(string(engineConfig)); err != nil {
		return fmt.Errorf("failed to initialize backtest engine: %w", err)
	}

	if err := backtester.LoadStrategy(strategy.NewMomentumBreakoutStrategy()); err != nil {
		return fmt.Errorf("failed to load strategy: %w", err)
	}

	if err := backtester.SetResultsFolder(opts.ResultsFolder); err != nil {
		return fmt.Errorf("failed to set results folder: %w", err)
	}

	summary, err := backtester.Run(bars)
	if err != nil {
		return fmt.Errorf("backtest failed: %w", err)
	}

	runLog.Info("Backtest finished",
		zap.Int("trades", summary.Metrics.TradeCount),
		zap.Float64("win_rate", summary.Metrics.WinRate),
		zap.String("results", opts.ResultsFolder),
	)

	return nil
}

// schemaAction prints the JSON schema of the engine config.
func schemaAction(ctx context.Context, cmd *cli.Command) error {
	config := engine.EmptyConfig()

	schemaJSON, err := config.GenerateSchemaJSON()
	if err != nil {
		return fmt.Errorf("failed to generate schema: %w", err)
	}

	fmt.Println(schemaJSON)

	return nil
}

func main() {
	cmd := &cli.Command{
		Name:  "backtest",
		Usage: "Run leveraged futures backtests",
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Run a backtest over a CSV bar file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "settings",
						Aliases: []string{"s"},
						Usage:   "Directory holding the runner config.yml",
						Value:   ".",
					},
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to the engine yaml config (overrides runner.engine_config_path)",
					},
					&cli.StringFlag{
						Name:    "data",
						Aliases: []string{"d"},
						Usage:   "Path to the CSV file with OHLCV bars (overrides runner.data_path)",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Directory for the summary and Parquet export (overrides runner.results_folder)",
					},
				},
				Action: runAction,
			},
			{
				Name:   "schema",
				Usage:  "Print the JSON schema of the engine config",
				Action: schemaAction,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
