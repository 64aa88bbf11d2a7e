package config

import "time"

// Config is the root configuration structure
type Config struct {
	Assets         []string        `yaml:"assets" validate:"required,min=1,dive,required"`
	UpdateInterval Duration        `yaml:"update_interval"`
	FetchTimeout   Duration        `yaml:"fetch_timeout"`
	Consensus      ConsensusConfig `yaml:"consensus"`
	History        HistoryConfig   `yaml:"history"`
	Sources        []SourceConfig  `yaml:"sources"`
	Submit         SubmitConfig    `yaml:"submit"`
	Metrics        MetricsConfig   `yaml:"metrics"`
	Logging        LoggingConfig   `yaml:"logging"`
}

// ConsensusConfig configures the consensus engine
type ConsensusConfig struct {
	MinSources             int     `yaml:"min_sources" default:"2" validate:"gte=1"`
	MaxOutlierPercentage   float64 `yaml:"max_outlier_percentage" default:"0.3" validate:"gte=0,lte=1"`
	ConfidenceThreshold    float64 `yaml:"confidence_threshold" default:"0.7" validate:"gte=0,lte=1"`
	PriceVarianceThreshold float64 `yaml:"price_variance_threshold" default:"0.05" validate:"gte=0"`
}

// HistoryConfig configures the per-asset rolling price history
type HistoryConfig struct {
	Capacity int `yaml:"capacity" default:"100" validate:"gt=0"`
}

// SourceConfig configures a price fetcher
type SourceConfig struct {
	Type    string                 `yaml:"type"`
	Name    string                 `yaml:"name"`
	Enabled bool                   `yaml:"enabled"`
	Config  map[string]interface{} `yaml:"config"`
}

// SubmitConfig configures the submission sink
type SubmitConfig struct {
	Type    string   `yaml:"type" default:"log" validate:"oneof=log http"`
	URL     string   `yaml:"url"`
	Timeout Duration `yaml:"timeout"`
}

// MetricsConfig configures Prometheus metrics
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr" default:":9091"`
	Path    string `yaml:"path" default:"/metrics"`
}

// LoggingConfig configures logging
type LoggingConfig struct {
	Level  string `yaml:"level" default:"info" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" default:"json" validate:"oneof=json text"`
	Output string `yaml:"output" default:"stdout"`
}

// Duration is a wrapper around time.Duration for YAML parsing
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler
func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	td, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(td)
	return nil
}

// ToDuration converts Duration to time.Duration
func (d Duration) ToDuration() time.Duration {
	return time.Duration(d)
}

// GetString retrieves a string value from the source configuration.
func (sc *SourceConfig) GetString(key, defaultValue string) string {
	if val, ok := sc.Config[key]; ok {
		if str, ok := val.(string); ok {
			return str
		}
	}
	return defaultValue
}

// GetBool retrieves a boolean from source config.
func (sc *SourceConfig) GetBool(key string, defaultValue bool) bool {
	if val, ok := sc.Config[key]; ok {
		if b, ok := val.(bool); ok {
			return b
		}
	}
	return defaultValue
}

// GetFloat retrieves a float from source config.
func (sc *SourceConfig) GetFloat(key string, defaultValue float64) float64 {
	if val, ok := sc.Config[key]; ok {
		switch v := val.(type) {
		case float64:
			return v
		case int:
			return float64(v)
		}
	}
	return defaultValue
}
