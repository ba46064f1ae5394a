package config

import (
	"github.com/kbukum/lifescope/logger"
	"github.com/kbukum/lifescope/validation"
)

// Environments accepted by ServiceConfig.
var Environments = []string{"development", "staging", "production"}

// ServiceConfig contains the configuration every lifescope application needs.
// Projects extend this by embedding it in their own config structs.
//
// Example:
//
//	type DemoConfig struct {
//	    config.ServiceConfig `yaml:",inline" mapstructure:",squash"`
//	    Greeting string `yaml:"greeting" mapstructure:"greeting"`
//	}
type ServiceConfig struct {
	Name        string          `yaml:"name" mapstructure:"name"`
	Environment string          `yaml:"environment" mapstructure:"environment"`
	Version     string          `yaml:"version" mapstructure:"version"`
	Debug       bool            `yaml:"debug" mapstructure:"debug"`
	Logging     logger.Config   `yaml:"logging" mapstructure:"logging"`
	Container   ContainerConfig `yaml:"container" mapstructure:"container"`
	Telemetry   TelemetryConfig `yaml:"telemetry" mapstructure:"telemetry"`
}

// GetServiceConfig returns the base ServiceConfig.
// When embedded in a larger config struct, this method is promoted
// so the embedding struct automatically satisfies bootstrap.Config.
func (c *ServiceConfig) GetServiceConfig() *ServiceConfig {
	return c
}

// IsProduction reports whether the service runs in production.
func (c *ServiceConfig) IsProduction() bool {
	return c.Environment == "production"
}

// ApplyDefaults applies default values to the base configuration.
// Override this in embedding structs and call c.ServiceConfig.ApplyDefaults() first.
func (c *ServiceConfig) ApplyDefaults() {
	if c.Environment == "" {
		c.Environment = "development"
	}
	if c.Environment == "development" {
		c.Debug = true
	}
	// Propagate service name into logging so Init() uses the right tag.
	if c.Logging.ServiceName == "" && c.Name != "" {
		c.Logging.ServiceName = c.Name
	}
	c.Logging.ApplyDefaults()
	c.Container.ApplyDefaults(c.Environment)
	c.Telemetry.ApplyDefaults()
}

// Validate validates the configuration and reports every problem at once.
// Override this in embedding structs and call c.ServiceConfig.Validate() first.
func (c *ServiceConfig) Validate() error {
	v := validation.New()
	v.Required("name", c.Name)
	v.OneOf("environment", c.Environment, Environments)
	v.Merge("logging", c.Logging.Validate())
	v.Merge("container", validation.Validate(c.Container))
	v.Merge("telemetry", validation.Validate(c.Telemetry))
	return v.Err()
}
