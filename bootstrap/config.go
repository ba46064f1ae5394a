package bootstrap

import (
	"github.com/kbukum/lifescope/config"
)

// Config is the interface constraint for application configuration types.
// Any struct that embeds config.ServiceConfig automatically satisfies this
// interface via promoted methods.
//
// Example:
//
//	type DemoConfig struct {
//	    config.ServiceConfig `yaml:",inline" mapstructure:",squash"`
//	    Greeting string `yaml:"greeting" mapstructure:"greeting"`
//	}
//
//	app, err := bootstrap.NewApp[*DemoConfig](&cfg)
type Config interface {
	GetServiceConfig() *config.ServiceConfig
	ApplyDefaults()
	Validate() error
}
