package di

import (
	"context"
	"fmt"
	"reflect"
	"time"

	"github.com/kbukum/lifescope/errors"
	"github.com/kbukum/lifescope/logger"
	"github.com/kbukum/lifescope/observability"
)

// Resolve returns an instance for key. Lookup order: a local registration,
// then the parent chain, then auto-construction from declared constructors
// in this scope. Every failure is returned as an *errors.AppError.
func (s *Scope) Resolve(key ServiceKey) (any, error) {
	v, lifetime, outcome, err := s.resolve(key)
	if err != nil {
		outcome = observability.OutcomeError
	}
	s.metrics.RecordResolve(context.Background(), s.name, lifetime, outcome)
	return v, err
}

// TryResolve is Resolve without a diagnostic: any failure, including a
// panicking factory, yields (nil, false). A nil instance also counts as a
// failure; use Resolve to tell it apart from a missing registration.
func (s *Scope) TryResolve(key ServiceKey) (v any, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Debug("Recovered panic in TryResolve", logger.Fields(
				logger.FieldService, key.String(),
				"panic", fmt.Sprint(r),
			))
			v, ok = nil, false
		}
	}()
	v, err := s.Resolve(key)
	if err != nil || isNil(v) {
		return nil, false
	}
	return v, true
}

func (s *Scope) resolve(key ServiceKey) (v any, lifetime, outcome string, err error) {
	if key.typ == nil {
		return nil, "", "", errors.NullArgument("key")
	}
	v, lifetime, outcome, found, err := s.lookup(key)
	if found || err != nil {
		return v, lifetime, outcome, err
	}
	v, err = s.autowire(key)
	return v, "autowired", observability.OutcomeAutowired, err
}

// lookup finds a registration for key in s or its ancestors and
// materializes it in the scope that holds it. Ancestors never auto-construct.
func (s *Scope) lookup(key ServiceKey) (v any, lifetime, outcome string, found bool, err error) {
	s.mutex.RLock()
	if s.disposed {
		s.mutex.RUnlock()
		return nil, "", "", false, errors.ScopeDisposed(s.name)
	}
	reg := s.registrations[key]
	s.mutex.RUnlock()

	if reg != nil {
		v, outcome, err = s.materialize(reg)
		return v, reg.lifetime.String(), outcome, true, err
	}
	if s.parent != nil {
		return s.parent.lookup(key)
	}
	return nil, "", "", false, nil
}

// materialize produces the value of reg. The scope lock is not held here, so
// factories are free to resolve other keys from this scope.
func (s *Scope) materialize(reg *registration) (any, string, error) {
	switch reg.lifetime {
	case Instance:
		return reg.instance, observability.OutcomeCached, nil
	case Transient:
		v, err := s.invoke(reg)
		return v, observability.OutcomeCreated, err
	}

	// Fast path: already cached
	reg.mutex.RLock()
	if reg.materialized {
		v := reg.instance
		reg.mutex.RUnlock()
		return v, observability.OutcomeCached, nil
	}
	reg.mutex.RUnlock()

	reg.mutex.Lock()
	defer reg.mutex.Unlock()

	// Double-check pattern
	if reg.materialized {
		return reg.instance, observability.OutcomeCached, nil
	}

	v, err := s.invoke(reg)
	if err != nil {
		return nil, observability.OutcomeError, err
	}
	if err := s.own(v); err != nil {
		return nil, observability.OutcomeError, err
	}
	reg.instance = v
	reg.materialized = true
	return v, observability.OutcomeCreated, nil
}

func (s *Scope) invoke(reg *registration) (any, error) {
	start := time.Now()
	v, err := reg.factory(s)
	elapsed := time.Since(start)
	s.metrics.RecordFactory(context.Background(), s.name, reg.lifetime.String(), elapsed)

	if err != nil {
		s.log.Debug("Factory failed", logger.Fields(
			logger.FieldService, reg.key.String(),
			logger.FieldLifetime, reg.lifetime.String(),
			logger.FieldError, err.Error(),
		))
		if errors.IsAppError(err) {
			return nil, err
		}
		return nil, errors.FactoryFailed(reg.key.String(), err)
	}

	s.log.Debug("Service materialized", logger.Fields(
		logger.FieldService, reg.key.String(),
		logger.FieldLifetime, reg.lifetime.String(),
		logger.FieldDuration, elapsed.Milliseconds(),
	))
	return v, nil
}

// autowire builds an unregistered concrete type from the constructor
// selected for it. Parameters resolve from s, the originating scope, and the
// result is never cached.
func (s *Scope) autowire(key ServiceKey) (any, error) {
	ctor := s.selectConstructor(key.typ)
	if ctor == nil {
		if isConcrete(key.typ) {
			return nil, errors.ConstructorSelection(key.String(), "no constructor declared")
		}
		return nil, errors.UnregisteredService(key.String())
	}
	return ctor.call(s)
}

// Resolve returns the instance registered for T in r or its ancestors.
//
// Example:
//
//	repo, err := di.Resolve[Repository](session)
//	if err != nil {
//	    return fmt.Errorf("failed to get repository: %w", err)
//	}
func Resolve[T any](r Resolver) (T, error) {
	var zero T
	key := KeyOf[T]()
	instance, err := r.Resolve(key)
	if err != nil {
		return zero, err
	}
	if instance == nil {
		return zero, nil
	}
	result, ok := instance.(T)
	if !ok {
		return zero, errors.TypeMismatch(key.String(), fmt.Sprintf("%T", instance))
	}
	return result, nil
}

// TryResolve returns the zero value and false on any failure, including a
// nil instance. Use this when a dependency is optional.
//
// Example:
//
//	if metrics, ok := di.TryResolve[MetricsClient](scope); ok {
//	    metrics.RecordEvent(...)
//	}
func TryResolve[T any](r Resolver) (T, bool) {
	var zero T
	instance, ok := r.TryResolve(KeyOf[T]())
	if !ok || isNil(instance) {
		return zero, false
	}
	result, ok := instance.(T)
	if !ok {
		return zero, false
	}
	return result, true
}

// MustResolve resolves T and panics on error. Use it in composition code
// where a missing service is a programming error.
func MustResolve[T any](r Resolver) T {
	result, err := Resolve[T](r)
	if err != nil {
		panic(fmt.Sprintf("di: failed to resolve %s: %v", KeyOf[T](), err))
	}
	return result
}

// valueFor converts a resolved instance into an argument of type t.
func valueFor(v any, t reflect.Type) reflect.Value {
	if v == nil {
		return reflect.Zero(t)
	}
	return reflect.ValueOf(v)
}
