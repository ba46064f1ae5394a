package config

// ContainerConfig configures the scope tree built by the bootstrap host.
type ContainerConfig struct {
	GlobalScopeName  string `yaml:"global_scope_name" mapstructure:"global_scope_name" validate:"required"`
	SessionScopeName string `yaml:"session_scope_name" mapstructure:"session_scope_name" validate:"required"`
	// Validation enables argument guards on registration. Nil means the
	// environment default: on in development, off elsewhere.
	Validation   *bool  `yaml:"validation" mapstructure:"validation"`
	DisposeOrder string `yaml:"dispose_order" mapstructure:"dispose_order" validate:"oneof=reverse forward"`
}

// ApplyDefaults fills unset fields. environment selects the guard default.
func (c *ContainerConfig) ApplyDefaults(environment string) {
	if c.GlobalScopeName == "" {
		c.GlobalScopeName = "global"
	}
	if c.SessionScopeName == "" {
		c.SessionScopeName = "session"
	}
	if c.Validation == nil {
		enabled := environment == "development"
		c.Validation = &enabled
	}
	if c.DisposeOrder == "" {
		c.DisposeOrder = "reverse"
	}
}

// ValidationEnabled reports whether argument guards are on.
func (c *ContainerConfig) ValidationEnabled() bool {
	return c.Validation != nil && *c.Validation
}
