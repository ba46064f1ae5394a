package installer

import "github.com/kbukum/lifescope/di"

// Func is an Installer built from plain functions.
type Func struct {
	name        string
	target      Target
	install     func(*di.Scope) error
	initialize  func(*di.Scope) error
	description string
}

// New creates an installer from an install function.
func New(name string, target Target, install func(*di.Scope) error) *Func {
	return &Func{name: name, target: target, install: install}
}

// WithInitialize adds a second-phase function run after all installs.
func (f *Func) WithInitialize(fn func(*di.Scope) error) *Func {
	f.initialize = fn
	return f
}

// WithDescription sets the summary description.
func (f *Func) WithDescription(desc string) *Func {
	f.description = desc
	return f
}

func (f *Func) Name() string   { return f.name }
func (f *Func) Target() Target { return f.target }

func (f *Func) Install(s *di.Scope) error {
	if f.install == nil {
		return nil
	}
	return f.install(s)
}

func (f *Func) Initialize(s *di.Scope) error {
	if f.initialize == nil {
		return nil
	}
	return f.initialize(s)
}

func (f *Func) Describe() string { return f.description }
