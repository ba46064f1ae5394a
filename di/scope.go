package di

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"reflect"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kbukum/lifescope/errors"
	"github.com/kbukum/lifescope/logger"
	"github.com/kbukum/lifescope/observability"
)

// Disposable is implemented by services that release resources when the
// scope owning them is disposed.
type Disposable interface {
	Dispose() error
}

// Resolver produces service instances by key. *Scope is the only
// implementation in this module; factories and constructors receive one to
// pull their own dependencies.
type Resolver interface {
	Resolve(key ServiceKey) (any, error)
	TryResolve(key ServiceKey) (any, bool)
}

// RegistrationInfo describes a registration for introspection.
type RegistrationInfo struct {
	Key          ServiceKey
	Lifetime     Lifetime
	Materialized bool
}

// registration is the type-erased record stored per key.
type registration struct {
	key      ServiceKey
	lifetime Lifetime
	factory  func(r Resolver) (any, error)

	mutex        sync.RWMutex
	instance     any
	materialized bool
}

// Scope is a node of the scope tree. It owns its registrations and every
// singleton it materialized; its parent is only consulted, never owned.
type Scope struct {
	id     string
	name   string
	parent *Scope

	registrations map[ServiceKey]*registration
	catalog       *catalog
	owned         []any
	disposed      bool
	mutex         sync.RWMutex

	validate bool
	order    DisposeOrder
	log      *logger.Logger
	metrics  *observability.ContainerMetrics
}

type options struct {
	name     string
	parent   *Scope
	log      *logger.Logger
	metrics  *observability.ContainerMetrics
	validate *bool
	order    *DisposeOrder
}

// Option configures a Scope.
type Option func(*options)

// WithName sets the scope name used in logs, metrics and errors.
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

// WithParent makes the new scope fall back to parent for registered lookups.
func WithParent(parent *Scope) Option {
	return func(o *options) { o.parent = parent }
}

// WithLogger overrides the logger. Defaults to the "di" component logger.
func WithLogger(l *logger.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithMetrics records resolutions, factory invocations and disposals.
func WithMetrics(m *observability.ContainerMetrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithValidation turns argument guards on or off. Guards are off by default.
func WithValidation(enabled bool) Option {
	return func(o *options) { o.validate = &enabled }
}

// WithDisposeOrder sets the order in which owned singletons are disposed.
func WithDisposeOrder(order DisposeOrder) Option {
	return func(o *options) { o.order = &order }
}

// NewScope creates a scope. Without WithParent it is a root scope.
// Settings that are not given explicitly are inherited from the parent.
func NewScope(opts ...Option) *Scope {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	s := &Scope{
		id:            uuid.NewString(),
		name:          o.name,
		parent:        o.parent,
		registrations: make(map[ServiceKey]*registration),
		catalog:       newCatalog(),
	}
	if s.name == "" {
		s.name = "scope"
	}

	base := logger.Get("di")
	if p := o.parent; p != nil {
		s.validate = p.validate
		s.order = p.order
		s.metrics = p.metrics
	}
	if o.log != nil {
		base = o.log
	}
	if o.metrics != nil {
		s.metrics = o.metrics
	}
	if o.validate != nil {
		s.validate = *o.validate
	}
	if o.order != nil {
		s.order = *o.order
	}
	s.log = base.WithScope(s.id, s.name)

	s.metrics.ScopeOpened(context.Background(), s.name)
	s.log.Debug("Scope created", logger.Fields("parent", s.parentName()))
	return s
}

// NewChild creates a scope whose parent is s.
func (s *Scope) NewChild(name string, opts ...Option) *Scope {
	all := make([]Option, 0, len(opts)+2)
	all = append(all, WithParent(s), WithName(name))
	all = append(all, opts...)
	return NewScope(all...)
}

// ID returns the unique id assigned at creation.
func (s *Scope) ID() string { return s.id }

// Name returns the scope name.
func (s *Scope) Name() string { return s.name }

// Parent returns the parent scope, or nil for a root scope.
func (s *Scope) Parent() *Scope { return s.parent }

// IsDisposed reports whether Dispose has been called.
func (s *Scope) IsDisposed() bool {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.disposed
}

// ValidationEnabled reports whether argument guards are active.
func (s *Scope) ValidationEnabled() bool { return s.validate }

func (s *Scope) parentName() string {
	if s.parent == nil {
		return ""
	}
	return s.parent.name
}

// register stores reg under its key, replacing any previous registration.
// Instances already cached by the replaced registration stay owned.
func (s *Scope) register(reg *registration) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.disposed {
		return errors.ScopeDisposed(s.name)
	}
	if _, exists := s.registrations[reg.key]; exists {
		s.log.Debug("Registration replaced", logger.Fields(logger.FieldService, reg.key.String()))
	}
	s.registrations[reg.key] = reg
	if reg.lifetime == Instance {
		s.owned = append(s.owned, reg.instance)
	}

	s.log.Debug("Service registered", logger.Fields(
		logger.FieldService, reg.key.String(),
		logger.FieldLifetime, reg.lifetime.String(),
	))
	return nil
}

// Registrations returns every local registration sorted by key.
func (s *Scope) Registrations() []RegistrationInfo {
	s.mutex.RLock()
	regs := make([]*registration, 0, len(s.registrations))
	for _, reg := range s.registrations {
		regs = append(regs, reg)
	}
	s.mutex.RUnlock()

	infos := make([]RegistrationInfo, 0, len(regs))
	for _, reg := range regs {
		reg.mutex.RLock()
		infos = append(infos, RegistrationInfo{
			Key:          reg.key,
			Lifetime:     reg.lifetime,
			Materialized: reg.materialized,
		})
		reg.mutex.RUnlock()
	}
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].Key.String() < infos[j].Key.String()
	})
	return infos
}

// own records a freshly materialized singleton. When the scope was disposed
// while the factory ran, the instance is disposed on the spot instead.
func (s *Scope) own(v any) error {
	s.mutex.Lock()
	if !s.disposed {
		s.owned = append(s.owned, v)
		s.mutex.Unlock()
		return nil
	}
	s.mutex.Unlock()

	if err := disposeOne(v); err != nil {
		s.log.Error("Failed to dispose late singleton", logger.ErrorFields("dispose", err))
	}
	return errors.ScopeDisposed(s.name)
}

// Dispose disposes every owned singleton, clears the registry and marks the
// scope disposed. Only the first call does anything; later calls return nil.
// The parent is never affected.
func (s *Scope) Dispose() error {
	s.mutex.Lock()
	if s.disposed {
		s.mutex.Unlock()
		return nil
	}
	s.disposed = true
	owned := s.owned
	s.owned = nil
	s.registrations = make(map[ServiceKey]*registration)
	s.catalog = newCatalog()
	s.mutex.Unlock()

	if s.order == DisposeReverse {
		for i, j := 0, len(owned)-1; i < j; i, j = i+1, j-1 {
			owned[i], owned[j] = owned[j], owned[i]
		}
	}

	start := time.Now()
	seen := make(map[any]struct{})
	var errs []error
	count := 0
	for _, v := range owned {
		if isNil(v) {
			continue
		}
		if identityComparable(v) {
			if _, dup := seen[v]; dup {
				continue
			}
			seen[v] = struct{}{}
		}
		if !isDisposable(v) {
			continue
		}
		count++
		if err := disposeOne(v); err != nil {
			errs = append(errs, fmt.Errorf("dispose %T: %w", v, err))
		}
	}

	ctx := context.Background()
	outcome := "ok"
	if len(errs) > 0 {
		outcome = "error"
	}
	s.metrics.RecordDispose(ctx, s.name, outcome, count)
	s.metrics.ScopeClosed(ctx, s.name)

	err := stderrors.Join(errs...)
	if err != nil {
		s.log.Error("Scope disposed with errors", logger.Fields(
			logger.FieldCount, count,
			logger.FieldError, err.Error(),
		))
		return err
	}
	s.log.Info("Scope disposed", logger.Fields(
		logger.FieldCount, count,
		logger.FieldDuration, time.Since(start).Milliseconds(),
	))
	return nil
}

func isDisposable(v any) bool {
	switch v.(type) {
	case Disposable, io.Closer:
		return true
	}
	return false
}

// disposeOne runs the disposal capability of v. A panic is returned as an
// error.
func disposeOne(v any) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic during dispose: %v", r)
		}
	}()
	switch d := v.(type) {
	case Disposable:
		return d.Dispose()
	case io.Closer:
		return d.Close()
	}
	return nil
}

// identityComparable reports whether v can be deduplicated by identity.
// Only reference kinds qualify; struct values may hide uncomparable fields.
func identityComparable(v any) bool {
	switch reflect.TypeOf(v).Kind() {
	case reflect.Pointer, reflect.Chan, reflect.UnsafePointer:
		return true
	}
	return false
}
