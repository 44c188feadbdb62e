package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/suite"
)

type ConfigTestSuite struct {
	suite.Suite
}

func TestConfigSuite(t *testing.T) {
	suite.Run(t, new(ConfigTestSuite))
}

func (suite *ConfigTestSuite) writeConfig(content string) string {
	dir := suite.T().TempDir()
	path := filepath.Join(dir, "config.yml")
	suite.Require().NoError(os.WriteFile(path, []byte(content), 0644))

	return dir
}

func (suite *ConfigTestSuite) TestLoadConfig() {
	dir := suite.writeConfig(`
runner:
  engine_config_path: engine.yaml
  data_path: bars.csv
  results_folder: out
  symbol: BTCUSDT
logger:
  level: debug
  format: console
`)

	config, err := LoadConfig(dir)
	suite.Require().NoError(err)

	suite.Equal("engine.yaml", config.Runner.EngineConfigPath)
	suite.Equal("bars.csv", config.Runner.DataPath)
	suite.Equal("out", config.Runner.ResultsFolder)
	suite.Equal("BTCUSDT", config.Runner.Symbol)
	suite.Equal("debug", config.Logger.Level)
}

func (suite *ConfigTestSuite) TestDefaults() {
	dir := suite.writeConfig(`
runner:
  engine_config_path: engine.yaml
  data_path: bars.csv
`)

	config, err := LoadConfig(dir)
	suite.Require().NoError(err)

	suite.Equal("results", config.Runner.ResultsFolder)
	suite.Equal("info", config.Logger.Level)
}

func (suite *ConfigTestSuite) TestMissingFile() {
	_, err := LoadConfig(suite.T().TempDir())
	suite.Error(err)
}
