package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/suite"
	"github.com/tradeforge/marginbt/internal/config"
)

type RunOptionsTestSuite struct {
	suite.Suite
}

func TestRunOptionsSuite(t *testing.T) {
	suite.Run(t, new(RunOptionsTestSuite))
}

func (suite *RunOptionsTestSuite) TestSettingsSupplyDefaults() {
	settings := config.Config{
		Runner: config.Runner{
			EngineConfigPath: "engine.yaml",
			DataPath:         "bars.csv",
			ResultsFolder:    "out",
		},
		Logger: config.Logger{Level: "debug"},
	}

	opts, err := resolveRunOptions(settings, "", "", "")
	suite.Require().NoError(err)
	suite.Equal("engine.yaml", opts.ConfigPath)
	suite.Equal("bars.csv", opts.DataPath)
	suite.Equal("out", opts.ResultsFolder)
	suite.Equal("debug", opts.LogLevel)
}

func (suite *RunOptionsTestSuite) TestFlagsOverrideSettings() {
	settings := config.Config{
		Runner: config.Runner{
			EngineConfigPath: "engine.yaml",
			DataPath:         "bars.csv",
			ResultsFolder:    "out",
		},
		Logger: config.Logger{Level: "debug"},
	}

	opts, err := resolveRunOptions(settings, "other.yaml", "other.csv", "elsewhere")
	suite.Require().NoError(err)
	suite.Equal("other.yaml", opts.ConfigPath)
	suite.Equal("other.csv", opts.DataPath)
	suite.Equal("elsewhere", opts.ResultsFolder)
	suite.Equal("debug", opts.LogLevel)
}

func (suite *RunOptionsTestSuite) TestFlagsAloneCarryBuiltInDefaults() {
	opts, err := resolveRunOptions(config.Config{}, "engine.yaml", "bars.csv", "")
	suite.Require().NoError(err)
	suite.Equal("results", opts.ResultsFolder)
	suite.Equal("info", opts.LogLevel)
}

func (suite *RunOptionsTestSuite) TestMissingPathsRejected() {
	_, err := resolveRunOptions(config.Config{}, "", "bars.csv", "")
	suite.Error(err)
	suite.Contains(err.Error(), "engine config path")

	_, err = resolveRunOptions(config.Config{}, "engine.yaml", "", "")
	suite.Error(err)
	suite.Contains(err.Error(), "data path")
}

func (suite *RunOptionsTestSuite) TestSettingsFileFeedsResolution() {
	dir := suite.T().TempDir()
	content := `runner:
  engine_config_path: engine.yaml
  data_path: bars.csv
logger:
  level: warn
`
	err := os.WriteFile(filepath.Join(dir, "config.yml"), []byte(content), 0644)
	suite.Require().NoError(err)

	settings, err := config.LoadConfig(dir)
	suite.Require().NoError(err)

	opts, err := resolveRunOptions(settings, "", "override.csv", "")
	suite.Require().NoError(err)
	suite.Equal("engine.yaml", opts.ConfigPath)
	suite.Equal("override.csv", opts.DataPath)
	suite.Equal("warn", opts.LogLevel)
}
