// Package validation checks configuration values before they reach the
// container.
//
// It supports struct tag validation through go-playground/validator and
// programmatic checks with error collection. Field names in messages follow
// the mapstructure keys used in config files, so an error points at the
// exact YAML key to fix.
//
// # Struct Tag Validation
//
//	type ContainerConfig struct {
//	    DisposeOrder string `mapstructure:"dispose_order" validate:"oneof=reverse forward"`
//	}
//	err := validation.Validate(cfg)
//
// # Programmatic Validation
//
//	v := validation.New()
//	v.Required("name", cfg.Name)
//	v.OneOf("environment", cfg.Environment, []string{"development", "production"})
//	err := v.Err()
package validation
