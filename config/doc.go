// Package config loads and validates lifescope application configuration.
//
// LoadConfig reads a YAML file through Viper, loads an optional .env file
// with godotenv, and lets environment variables override any key of the
// target struct. Keys are derived from mapstructure tags, so the field
// tagged `mapstructure:"dispose_order"` inside `container` is overridden by
// CONTAINER_DISPOSE_ORDER (or APP_CONTAINER_DISPOSE_ORDER with
// WithEnvPrefix("APP")).
//
// # Usage
//
//	var cfg config.ServiceConfig
//	if err := config.LoadConfig("lifescope-demo", &cfg); err != nil {
//	    return err
//	}
//	cfg.ApplyDefaults()
//	if err := cfg.Validate(); err != nil {
//	    return err
//	}
package config
