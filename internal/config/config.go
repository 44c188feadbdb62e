// Package config loads the runner settings for the command line tool. The
// engine itself takes its own yaml config; this layer only covers the
// surrounding run options.
package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the backtest runner.
type Config struct {
	Runner Runner `mapstructure:"runner"`
	Logger Logger `mapstructure:"logger"`
}

// Runner holds the paths and symbols for a backtest run.
type Runner struct {
	EngineConfigPath string `mapstructure:"engine_config_path"`
	DataPath         string `mapstructure:"data_path"`
	ResultsFolder    string `mapstructure:"results_folder"`
	Symbol           string `mapstructure:"symbol"`
}

// Logger holds the configuration for the logger.
type Logger struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(path string) (config Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yml")

	// Allow environment variables to override config file
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	viper.SetDefault("runner.results_folder", "results")
	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.format", "json")

	err = viper.ReadInConfig()
	if err != nil {
		return
	}

	err = viper.Unmarshal(&config)

	return
}
