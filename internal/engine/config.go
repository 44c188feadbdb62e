package engine

import (
	"encoding/json"
	"reflect"
	"strings"
	"time"

	"github.com/invopop/jsonschema"
	"github.com/moznion/go-optional"
	"github.com/tradeforge/marginbt/internal/commission"
	"github.com/tradeforge/marginbt/internal/sizer"
)

// BracketConfig holds the protective-order geometry for entry signals.
type BracketConfig struct {
	PriceIncrement  float64       `yaml:"price_increment" json:"price_increment" jsonschema:"title=Price Increment,description=Tick offset added beyond the signal bar extreme for the entry trigger,minimum=0"`
	StopFraction    float64       `yaml:"stop_fraction" json:"stop_fraction" jsonschema:"title=Stop Fraction,description=Fraction of the prior bar opposite extreme used as the protective stop,minimum=0,maximum=1"`
	RewardMultiple  float64       `yaml:"reward_multiple" json:"reward_multiple" jsonschema:"title=Reward Multiple,description=Target distance as a multiple of the entry-to-stop risk,minimum=0"`
	ValidityMinutes int `yaml:"validity_minutes" json:"validity_minutes" jsonschema:"title=Validity Minutes,description=Entry order lifetime in minutes before the bracket expires,minimum=1"`
}

// Validity returns the entry order lifetime as a duration.
func (b BracketConfig) Validity() time.Duration {
	return time.Duration(b.ValidityMinutes) * time.Minute
}

type BacktestEngineConfig struct {
	InitialCapital float64                    `yaml:"initial_capital" json:"initial_capital" jsonschema:"title=Initial Capital,description=Starting capital for the backtest in USD,minimum=0"`
	Venue          commission.Venue           `yaml:"venue" json:"venue" jsonschema:"title=Venue,description=The venue to use for commission and margin calculations"`
	Leverage       int                        `yaml:"leverage" json:"leverage" jsonschema:"title=Leverage,description=Leverage multiplier applied to new positions,minimum=1,maximum=125"`
	Sizer          sizer.Config               `yaml:"sizer" json:"sizer" jsonschema:"title=Sizer,description=Position sizing settings"`
	Bracket        BracketConfig              `yaml:"bracket" json:"bracket" jsonschema:"title=Bracket,description=Bracket order geometry for entry signals"`
	StartTime      optional.Option[time.Time] `yaml:"start_time" json:"start_time" jsonschema:"title=Start Time,description=Optional start time for the backtest period"`
	EndTime        optional.Option[time.Time] `yaml:"end_time" json:"end_time" jsonschema:"title=End Time,description=Optional end time for the backtest period"`
}

// UnmarshalYAML implements custom unmarshaling for BacktestEngineConfig
func (c *BacktestEngineConfig) UnmarshalYAML(unmarshal func(interface{}) error) error {
	type Config struct {
		InitialCapital float64          `yaml:"initial_capital"`
		Venue          commission.Venue `yaml:"venue"`
		Leverage       int              `yaml:"leverage"`
		Sizer          sizer.Config     `yaml:"sizer"`
		Bracket        BracketConfig    `yaml:"bracket"`
		StartTime      *time.Time       `yaml:"start_time"`
		EndTime        *time.Time       `yaml:"end_time"`
	}

	var config Config
	if err := unmarshal(&config); err != nil {
		return err
	}

	c.InitialCapital = config.InitialCapital
	c.Venue = config.Venue
	c.Leverage = config.Leverage
	c.Sizer = config.Sizer
	c.Bracket = config.Bracket
	if config.StartTime != nil {
		c.StartTime = optional.Some(*config.StartTime)
	}
	if config.EndTime != nil {
		c.EndTime = optional.Some(*config.EndTime)
	}

	return nil
}

// GenerateSchema generates a JSON schema for the BacktestEngineConfig
func (c *BacktestEngineConfig) GenerateSchema() (*jsonschema.Schema, error) {
	reflector := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		ExpandedStruct:             true,
		AllowAdditionalProperties:  false,
		Mapper: func(t reflect.Type) *jsonschema.Schema {
			if t.String() == "optional.Option[time.Time]" {
				return &jsonschema.Schema{
					Type:   "string",
					Format: "date-time",
				}
			}
			if strings.Contains(t.String(), "commission.Venue") {
				return &jsonschema.Schema{
					Type: "string",
					Enum: commission.AllVenues,
				}
			}
			return nil
		},
	}

	schema := reflector.Reflect(c)

	schema.Title = "backtest-engine-config"
	schema.Description = "Configuration schema for the backtest engine"
	schema.Version = "http://json-schema.org/draft-07/schema#"

	return schema, nil
}

// GenerateSchemaJSON generates a JSON schema string for the BacktestEngineConfig
func (c *BacktestEngineConfig) GenerateSchemaJSON() (string, error) {
	schema, err := c.GenerateSchema()
	if err != nil {
		return "", err
	}

	schemaBytes, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return "", err
	}

	return string(schemaBytes), nil
}

func TestConfig(startTime time.Time, endTime time.Time, venue commission.Venue) BacktestEngineConfig {
	return BacktestEngineConfig{
		InitialCapital: 10000,
		Venue:          venue,
		Leverage:       10,
		Sizer: sizer.Config{
			Kind:               sizer.KindPercentOfEquity,
			Percent:            0.1,
			MaxPercentOfEquity: 0.5,
			MinUnit:            0.001,
			MinLeverage:        1,
			MaxLeverage:        125,
		},
		Bracket: BracketConfig{
			PriceIncrement:  0.1,
			StopFraction:    0.9,
			RewardMultiple:  1.5,
			ValidityMinutes: 5,
		},
		StartTime: optional.Some(startTime),
		EndTime:   optional.Some(endTime),
	}
}

// EmptyConfig returns a BacktestEngineConfig with default values
func EmptyConfig() BacktestEngineConfig {
	return BacktestEngineConfig{
		InitialCapital: 0,
		Venue:          commission.VenueLeveragedFutures,
		Leverage:       1,
		StartTime:      optional.None[time.Time](),
		EndTime:        optional.None[time.Time](),
	}
}
