package installer

import "github.com/kbukum/lifescope/di"

// Target selects the scope an installer populates.
type Target int

const (
	Global  Target = iota // Installed once into the Global scope
	Session               // Installed into every new Session scope
)

func (t Target) String() string {
	switch t {
	case Global:
		return "global"
	case Session:
		return "session"
	default:
		return "unknown"
	}
}

// Installer registers services into a scope.
type Installer interface {
	// Name returns the unique name of the installer.
	Name() string

	// Target returns the scope this installer populates.
	Target() Target

	// Install registers services. It should not resolve anything that
	// another installer of the same phase may not have registered yet.
	Install(s *di.Scope) error
}

// Initializer is optionally implemented by installers that need to run
// after every installer of the same target has registered its services.
type Initializer interface {
	Initialize(s *di.Scope) error
}

// Describable is optionally implemented by installers to report a one-line
// description in the startup summary.
type Describable interface {
	Describe() string
}
