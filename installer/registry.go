package installer

import (
	"fmt"
	"sync"
	"time"

	"github.com/kbukum/lifescope/di"
	"github.com/kbukum/lifescope/errors"
	"github.com/kbukum/lifescope/logger"
)

// Registry keeps installers in registration order. Installers of a target
// run in that order, so register the ones others depend on first.
type Registry struct {
	entries []Installer
	lookup  map[string]Installer
	mu      sync.RWMutex
	log     *logger.Logger
}

// NewRegistry creates an empty installer registry.
func NewRegistry() *Registry {
	return &Registry{
		entries: make([]Installer, 0),
		lookup:  make(map[string]Installer),
		log:     logger.Get("installer"),
	}
}

// Register adds installers. A duplicate name fails with AlreadyExists and
// stops at that installer.
func (r *Registry) Register(installers ...Installer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, in := range installers {
		if in == nil {
			return errors.NullArgument("installer")
		}
		name := in.Name()
		if _, exists := r.lookup[name]; exists {
			return errors.AlreadyExists(fmt.Sprintf("installer %s", name))
		}
		r.entries = append(r.entries, in)
		r.lookup[name] = in

		r.log.Debug("Installer registered", logger.Fields(
			logger.FieldInstaller, name,
			logger.FieldTarget, in.Target().String(),
		))
	}
	return nil
}

// Apply runs every installer for target against s: all Install calls in
// registration order, then all Initialize calls in the same order. The
// first failure aborts the phase and is returned.
func (r *Registry) Apply(target Target, s *di.Scope) error {
	selected := r.For(target)
	start := time.Now()

	r.log.Info("Applying installers", logger.Fields(
		logger.FieldTarget, target.String(),
		logger.FieldScope, s.Name(),
		logger.FieldCount, len(selected),
	))

	for _, in := range selected {
		if err := in.Install(s); err != nil {
			r.log.Error("Installer failed", logger.Fields(
				logger.FieldInstaller, in.Name(),
				logger.FieldPhase, "install",
				logger.FieldError, err.Error(),
			))
			return fmt.Errorf("install %s: %w", in.Name(), err)
		}
		r.log.Debug("Installer applied", logger.Fields(logger.FieldInstaller, in.Name()))
	}

	for _, in := range selected {
		initializer, ok := in.(Initializer)
		if !ok {
			continue
		}
		if err := initializer.Initialize(s); err != nil {
			r.log.Error("Installer failed", logger.Fields(
				logger.FieldInstaller, in.Name(),
				logger.FieldPhase, "initialize",
				logger.FieldError, err.Error(),
			))
			return fmt.Errorf("initialize %s: %w", in.Name(), err)
		}
	}

	r.log.Info("Installers applied", logger.DurationFields("apply_"+target.String(), time.Since(start)))
	return nil
}

// Get returns a registered installer by name, or nil if not found.
func (r *Registry) Get(name string) Installer {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lookup[name]
}

// For returns the installers of target in registration order.
func (r *Registry) For(target Target) []Installer {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Installer, 0, len(r.entries))
	for _, in := range r.entries {
		if in.Target() == target {
			result = append(result, in)
		}
	}
	return result
}

// All returns all registered installers in registration order.
func (r *Registry) All() []Installer {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Installer, len(r.entries))
	copy(result, r.entries)
	return result
}
