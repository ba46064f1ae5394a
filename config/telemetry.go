package config

import "time"

// TelemetryConfig configures OpenTelemetry tracing and metrics export.
type TelemetryConfig struct {
	Enabled         bool          `yaml:"enabled" mapstructure:"enabled"`
	Endpoint        string        `yaml:"endpoint" mapstructure:"endpoint" validate:"omitempty,hostname_port"`
	Insecure        bool          `yaml:"insecure" mapstructure:"insecure"`
	SampleRate      float64       `yaml:"sample_rate" mapstructure:"sample_rate" validate:"gte=0,lte=1"`
	MetricsInterval time.Duration `yaml:"metrics_interval" mapstructure:"metrics_interval" validate:"gte=0"`
}

// ApplyDefaults fills unset fields.
func (c *TelemetryConfig) ApplyDefaults() {
	if c.Endpoint == "" {
		c.Endpoint = "localhost:4318"
	}
	if c.SampleRate == 0 {
		c.SampleRate = 1.0
	}
	if c.MetricsInterval == 0 {
		c.MetricsInterval = 15 * time.Second
	}
}
