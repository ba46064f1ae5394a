package di

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/kbukum/lifescope/errors"
)

// constructor is a validated function used to build a service. Its
// parameters are resolved from a Resolver; a parameter typed Resolver
// receives the resolver itself.
type constructor struct {
	fn       reflect.Value
	params   []reflect.Type
	result   reflect.Type
	hasError bool
}

// newConstructor checks the shape of fn: a non-variadic function returning
// R or (R, error).
func newConstructor(fn any) (*constructor, error) {
	desc := fmt.Sprintf("%T", fn)
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func {
		return nil, errors.InvalidConstructor(desc, "constructor must be a function")
	}
	if v.IsNil() {
		return nil, errors.InvalidConstructor(desc, "constructor is nil")
	}

	t := v.Type()
	if t.IsVariadic() {
		return nil, errors.InvalidConstructor(desc, "variadic constructors are not supported")
	}

	c := &constructor{fn: v}
	switch t.NumOut() {
	case 1:
	case 2:
		if t.Out(1) != errorType {
			return nil, errors.InvalidConstructor(desc, "second result must be error")
		}
		c.hasError = true
	default:
		return nil, errors.InvalidConstructor(desc, "constructor must return (instance) or (instance, error)")
	}
	c.result = t.Out(0)

	c.params = make([]reflect.Type, t.NumIn())
	for i := range c.params {
		c.params[i] = t.In(i)
	}
	return c, nil
}

// call resolves every parameter from r and invokes the constructor.
func (c *constructor) call(r Resolver) (any, error) {
	args := make([]reflect.Value, len(c.params))
	for i, p := range c.params {
		if p == resolverType {
			args[i] = reflect.ValueOf(r)
			continue
		}
		v, err := r.Resolve(KeyFor(p))
		if err != nil {
			return nil, fmt.Errorf("resolve parameter %d (%s) of %s: %w", i, p, c.result, err)
		}
		if v != nil && !reflect.TypeOf(v).AssignableTo(p) {
			return nil, errors.TypeMismatch(p.String(), fmt.Sprintf("%T", v))
		}
		args[i] = valueFor(v, p)
	}

	out := c.fn.Call(args)
	if c.hasError {
		if err, _ := out[1].Interface().(error); err != nil {
			return nil, errors.FactoryFailed(c.result.String(), err)
		}
	}
	return out[0].Interface(), nil
}

// catalog holds constructors declared for auto-construction, keyed by the
// type they build, in declaration order.
type catalog struct {
	mutex    sync.RWMutex
	declared map[reflect.Type][]*constructor
	selected map[reflect.Type]*constructor
}

func newCatalog() *catalog {
	return &catalog{
		declared: make(map[reflect.Type][]*constructor),
		selected: make(map[reflect.Type]*constructor),
	}
}

func (c *catalog) add(ctor *constructor) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.declared[ctor.result] = append(c.declared[ctor.result], ctor)
	delete(c.selected, ctor.result)
}

// pick returns the constructor with the most parameters, the earliest
// declared among equals. The choice is memoized until another constructor
// for the same type is declared.
func (c *catalog) pick(t reflect.Type) *constructor {
	c.mutex.RLock()
	if ctor, ok := c.selected[t]; ok {
		c.mutex.RUnlock()
		return ctor
	}
	c.mutex.RUnlock()

	c.mutex.Lock()
	defer c.mutex.Unlock()
	candidates := c.declared[t]
	if len(candidates) == 0 {
		return nil
	}
	best := candidates[0]
	for _, ctor := range candidates[1:] {
		if len(ctor.params) > len(best.params) {
			best = ctor
		}
	}
	c.selected[t] = best
	return best
}

// selectConstructor looks for declared constructors of t in s and then its
// ancestors; the nearest scope declaring any wins.
func (s *Scope) selectConstructor(t reflect.Type) *constructor {
	for cur := s; cur != nil; cur = cur.parent {
		cur.mutex.RLock()
		cat := cur.catalog
		cur.mutex.RUnlock()
		if ctor := cat.pick(t); ctor != nil {
			return ctor
		}
	}
	return nil
}

// AddConstructor declares ctor as a way to build its result type when that
// type is resolved without a registration. ctor must be a non-variadic
// function returning a struct or pointer-to-struct, optionally with an error.
// Several constructors may be declared for one type; the one with the most
// parameters is used.
//
// Example:
//
//	di.AddConstructor(global, NewReportService)
//	svc, err := di.Resolve[*ReportService](session)
func AddConstructor(s *Scope, ctor any) error {
	if s.validate && isNil(ctor) {
		return errors.NullArgument("ctor")
	}
	c, err := newConstructor(ctor)
	if err != nil {
		return err
	}
	if !isConcrete(c.result) {
		return errors.InvalidConstructor(fmt.Sprintf("%T", ctor),
			"result must be a struct or pointer to struct")
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.disposed {
		return errors.ScopeDisposed(s.name)
	}
	s.catalog.add(c)
	return nil
}
