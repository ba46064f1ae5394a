package di

import "reflect"

// ServiceKey identifies a service by its static Go type. Interfaces and
// concrete types are both valid keys; *Foo and Foo are distinct keys.
type ServiceKey struct {
	typ reflect.Type
}

// KeyOf returns the key for T.
func KeyOf[T any]() ServiceKey {
	return ServiceKey{typ: reflect.TypeFor[T]()}
}

// KeyFor returns the key for a reflected type.
func KeyFor(t reflect.Type) ServiceKey {
	return ServiceKey{typ: t}
}

// Type returns the reflected type behind the key.
func (k ServiceKey) Type() reflect.Type { return k.typ }

func (k ServiceKey) String() string {
	if k.typ == nil {
		return "<nil>"
	}
	return k.typ.String()
}

var (
	resolverType = reflect.TypeFor[Resolver]()
	errorType    = reflect.TypeFor[error]()
)

// isConcrete reports whether t is a struct or a pointer to a struct, the
// shapes auto-construction is defined for.
func isConcrete(t reflect.Type) bool {
	if t == nil {
		return false
	}
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Kind() == reflect.Struct
}
