package di

import (
	"fmt"
	"reflect"

	"github.com/kbukum/lifescope/errors"
)

// Factory builds a T. The resolver it receives is the scope holding the
// registration.
type Factory[T any] func(r Resolver) (T, error)

// RegisterInstance registers a pre-built value. Every resolution of T
// returns v itself. The scope owns v and disposes it with the scope.
func RegisterInstance[T any](s *Scope, v T) error {
	if s.validate && isNil(v) {
		return errors.NullArgument("instance")
	}
	return s.register(&registration{
		key:          KeyOf[T](),
		lifetime:     Instance,
		instance:     v,
		materialized: true,
	})
}

// RegisterSingleton registers a factory invoked at most once per scope, on
// the first resolution of T. Concurrent first resolutions wait for a single
// invocation. A failed invocation caches nothing.
func RegisterSingleton[T any](s *Scope, f Factory[T]) error {
	return registerFactory(s, LazySingleton, f)
}

// RegisterTransient registers a factory invoked on every resolution of T.
func RegisterTransient[T any](s *Scope, f Factory[T]) error {
	return registerFactory(s, Transient, f)
}

func registerFactory[T any](s *Scope, lifetime Lifetime, f Factory[T]) error {
	if s.validate && f == nil {
		return errors.NullArgument("factory")
	}
	return s.register(&registration{
		key:      KeyOf[T](),
		lifetime: lifetime,
		factory: func(r Resolver) (any, error) {
			return f(r)
		},
	})
}

// ProvideSingleton registers ctor as a lazy singleton factory for T. Every
// parameter of ctor is resolved when T is first resolved. ctor must return
// a value assignable to T, optionally followed by an error.
//
// Example:
//
//	di.ProvideSingleton[Repository](session, NewSQLRepository)
func ProvideSingleton[T any](s *Scope, ctor any) error {
	return provide[T](s, LazySingleton, ctor)
}

// ProvideTransient registers ctor as a transient factory for T.
func ProvideTransient[T any](s *Scope, ctor any) error {
	return provide[T](s, Transient, ctor)
}

func provide[T any](s *Scope, lifetime Lifetime, ctor any) error {
	if s.validate && isNil(ctor) {
		return errors.NullArgument("ctor")
	}
	c, err := newConstructor(ctor)
	if err != nil {
		return err
	}
	key := KeyOf[T]()
	if !c.result.AssignableTo(key.typ) {
		return errors.InvalidConstructor(fmt.Sprintf("%T", ctor),
			fmt.Sprintf("result %s is not assignable to %s", c.result, key))
	}
	factory := c.call
	if key.typ.Kind() != reflect.Interface && c.result != key.typ {
		factory = func(r Resolver) (any, error) {
			v, err := c.call(r)
			if err != nil || v == nil {
				return v, err
			}
			return reflect.ValueOf(v).Convert(key.typ).Interface(), nil
		}
	}
	return s.register(&registration{
		key:      key,
		lifetime: lifetime,
		factory:  factory,
	})
}

// isNil reports whether v is nil or a nil value of a nillable kind.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface, reflect.UnsafePointer:
		return rv.IsNil()
	}
	return false
}
