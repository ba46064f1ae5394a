package di

import (
	stderrors "errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kbukum/lifescope/errors"
)

func TestRegisterInstance_Identity(t *testing.T) {
	s := newTestScope()
	settings := &Settings{Prefix: "hello "}
	mustNoErr(RegisterInstance(s, settings))

	for i := 0; i < 3; i++ {
		got, err := Resolve[*Settings](s)
		if err != nil {
			t.Fatalf("Resolve failed: %v", err)
		}
		if got != settings {
			t.Fatalf("attempt %d: expected the registered instance", i)
		}
	}
}

func TestRegisterInstance_InterfaceKey(t *testing.T) {
	s := newTestScope()
	g := &englishGreeter{prefix: "hi "}
	mustNoErr(RegisterInstance[Greeter](s, g))

	got, err := Resolve[Greeter](s)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if got.Greet("bob") != "hi bob" {
		t.Errorf("expected 'hi bob', got %q", got.Greet("bob"))
	}
	// The concrete type is a different key
	if _, err := Resolve[*englishGreeter](s); err == nil {
		t.Error("expected concrete key to be unregistered")
	}
}

func TestRegisterSingleton_Lazy(t *testing.T) {
	s := newTestScope()
	calls := 0
	mustNoErr(RegisterSingleton(s, func(r Resolver) (*Settings, error) {
		calls++
		return &Settings{}, nil
	}))
	if calls != 0 {
		t.Fatal("factory must not run at registration")
	}

	a := MustResolve[*Settings](s)
	b := MustResolve[*Settings](s)
	if a != b {
		t.Error("expected the same singleton instance")
	}
	if calls != 1 {
		t.Errorf("expected one factory call, got %d", calls)
	}
}

func TestRegisterSingleton_ConcurrentFirstResolution(t *testing.T) {
	s := newTestScope()
	var calls atomic.Int32
	mustNoErr(RegisterSingleton(s, func(r Resolver) (*Settings, error) {
		calls.Add(1)
		time.Sleep(10 * time.Millisecond)
		return &Settings{}, nil
	}))

	const workers = 50
	var (
		wg      sync.WaitGroup
		start   = make(chan struct{})
		results = make([]*Settings, workers)
		errs    = make([]error, workers)
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			results[i], errs[i] = Resolve[*Settings](s)
		}(i)
	}
	close(start)
	wg.Wait()

	if got := calls.Load(); got != 1 {
		t.Fatalf("expected exactly one factory invocation, got %d", got)
	}
	for i := range results {
		if errs[i] != nil {
			t.Fatalf("worker %d failed: %v", i, errs[i])
		}
		if results[i] != results[0] {
			t.Fatalf("worker %d got a different instance", i)
		}
	}
}

func TestRegisterSingleton_FailureIsRetried(t *testing.T) {
	s := newTestScope()
	calls := 0
	mustNoErr(RegisterSingleton(s, func(r Resolver) (*Settings, error) {
		calls++
		if calls == 1 {
			return nil, errBoom
		}
		return &Settings{}, nil
	}))

	_, err := Resolve[*Settings](s)
	if !stderrors.Is(err, errors.ErrFactoryFailed) {
		t.Fatalf("expected FactoryFailed, got %v", err)
	}
	if !stderrors.Is(err, errBoom) {
		t.Error("expected the factory error to be the cause")
	}

	if _, err := Resolve[*Settings](s); err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
	if calls != 2 {
		t.Errorf("expected 2 factory calls, got %d", calls)
	}
}

func TestRegisterTransient_Fresh(t *testing.T) {
	s := newTestScope()
	calls := 0
	mustNoErr(RegisterTransient(s, func(r Resolver) (*Settings, error) {
		calls++
		return &Settings{}, nil
	}))

	a := MustResolve[*Settings](s)
	b := MustResolve[*Settings](s)
	if a == b {
		t.Error("expected distinct transient instances")
	}
	if calls != 2 {
		t.Errorf("expected 2 factory calls, got %d", calls)
	}
}

func TestRegisterTransient_NotOwned(t *testing.T) {
	s := newTestScope()
	var made []*resource
	mustNoErr(RegisterTransient(s, func(r Resolver) (*resource, error) {
		res := &resource{}
		made = append(made, res)
		return res, nil
	}))
	MustResolve[*resource](s)
	mustNoErr(s.Dispose())

	if made[0].disposed.Load() != 0 {
		t.Error("transient instances are owned by the caller, not the scope")
	}
}

func TestReRegistration_LastWriteWins(t *testing.T) {
	s := newTestScope()
	first := &resource{name: "first"}
	mustNoErr(RegisterInstance(s, first))
	second := &resource{name: "second"}
	mustNoErr(RegisterInstance(s, second))

	if got := MustResolve[*resource](s); got != second {
		t.Errorf("expected the latest registration, got %q", got.name)
	}

	mustNoErr(s.Dispose())
	if first.disposed.Load() != 1 || second.disposed.Load() != 1 {
		t.Error("expected both instances to stay owned and be disposed")
	}
}

func TestFactory_ResolvesDependencies(t *testing.T) {
	s := newTestScope()
	mustNoErr(RegisterInstance(s, &Settings{Prefix: "hey "}))
	mustNoErr(RegisterSingleton(s, func(r Resolver) (Greeter, error) {
		settings, err := Resolve[*Settings](r)
		if err != nil {
			return nil, err
		}
		return &englishGreeter{prefix: settings.Prefix}, nil
	}))

	g := MustResolve[Greeter](s)
	if g.Greet("ann") != "hey ann" {
		t.Errorf("expected 'hey ann', got %q", g.Greet("ann"))
	}
}

func TestFactory_PropagatesAppError(t *testing.T) {
	s := newTestScope()
	mustNoErr(RegisterSingleton(s, func(r Resolver) (Greeter, error) {
		_, err := Resolve[*Settings](r)
		return nil, err
	}))

	_, err := Resolve[Greeter](s)
	if errors.CodeOf(err) != errors.ErrCodeConstructorSelection {
		t.Errorf("expected the inner failure code to surface, got %v", err)
	}
}

func TestParentFallback(t *testing.T) {
	parent := newTestScope()
	mustNoErr(RegisterSingleton(parent, greeterFactory("parent ")))
	child := parent.NewChild("child")

	fromChild := MustResolve[Greeter](child)
	fromParent := MustResolve[Greeter](parent)
	if fromChild != fromParent {
		t.Error("expected the parent singleton to be shared with the child")
	}
	if len(child.Registrations()) != 0 {
		t.Error("fallback must not register anything in the child")
	}
}

func TestChildShadowsParent(t *testing.T) {
	parent := newTestScope()
	mustNoErr(RegisterSingleton(parent, greeterFactory("parent ")))
	child := parent.NewChild("child")
	mustNoErr(RegisterSingleton(child, greeterFactory("child ")))

	if got := MustResolve[Greeter](child).Greet("x"); got != "child x" {
		t.Errorf("expected child registration, got %q", got)
	}
	if got := MustResolve[Greeter](parent).Greet("x"); got != "parent x" {
		t.Errorf("expected parent registration, got %q", got)
	}
}

func TestParentSingletonBuiltInParent(t *testing.T) {
	parent := newTestScope()
	mustNoErr(RegisterInstance(parent, &Settings{Prefix: "global "}))
	mustNoErr(RegisterSingleton(parent, func(r Resolver) (Greeter, error) {
		settings, err := Resolve[*Settings](r)
		if err != nil {
			return nil, err
		}
		return &englishGreeter{prefix: settings.Prefix}, nil
	}))

	child := parent.NewChild("child")
	mustNoErr(RegisterInstance(child, &Settings{Prefix: "session "}))

	// The parent's factory sees the parent's registrations only
	if got := MustResolve[Greeter](child).Greet("x"); got != "global x" {
		t.Errorf("expected parent dependencies, got %q", got)
	}
	mustNoErr(child.Dispose())
	if _, err := Resolve[Greeter](parent); err != nil {
		t.Errorf("expected parent singleton to survive child disposal: %v", err)
	}
}

func TestUnregisteredInterface(t *testing.T) {
	s := newTestScope()

	_, err := Resolve[Greeter](s)
	if !stderrors.Is(err, errors.ErrUnregisteredService) {
		t.Fatalf("expected UnregisteredService, got %v", err)
	}
	if !strings.Contains(err.Error(), "di.Greeter") {
		t.Errorf("expected the key in the message, got %q", err.Error())
	}

	if g, ok := TryResolve[Greeter](s); ok || g != nil {
		t.Error("expected TryResolve to return zero and false")
	}
}

func TestTryResolve_NilInstanceIsFailure(t *testing.T) {
	s := newTestScope()
	if err := RegisterSingleton(s, func(Resolver) (*Settings, error) { return nil, nil }); err != nil {
		t.Fatalf("RegisterSingleton failed: %v", err)
	}

	got, err := Resolve[*Settings](s)
	if err != nil || got != nil {
		t.Fatalf("expected Resolve to return the nil instance, got %v, %v", got, err)
	}
	if v, ok := TryResolve[*Settings](s); ok || v != nil {
		t.Errorf("expected TryResolve to report false for a nil instance, got %v, %v", v, ok)
	}
	if v, ok := s.TryResolve(KeyOf[*Settings]()); ok || v != nil {
		t.Errorf("expected Scope.TryResolve to report false for a nil instance, got %v, %v", v, ok)
	}
}

func TestUnregisteredConcreteWithoutConstructor(t *testing.T) {
	s := newTestScope()
	_, err := Resolve[*Report](s)
	if !stderrors.Is(err, errors.ErrConstructorSelection) {
		t.Fatalf("expected ConstructorSelection, got %v", err)
	}
}

func TestUnregisteredNonStructKinds(t *testing.T) {
	s := newTestScope()
	if _, err := Resolve[string](s); !stderrors.Is(err, errors.ErrUnregisteredService) {
		t.Errorf("expected UnregisteredService for string, got %v", err)
	}
	if _, err := Resolve[func()](s); !stderrors.Is(err, errors.ErrUnregisteredService) {
		t.Errorf("expected UnregisteredService for func, got %v", err)
	}
}

func TestTryResolve_RecoversPanic(t *testing.T) {
	s := newTestScope()
	mustNoErr(RegisterTransient(s, func(r Resolver) (*Settings, error) {
		panic("factory exploded")
	}))

	if _, ok := TryResolve[*Settings](s); ok {
		t.Error("expected TryResolve to report false for a panicking factory")
	}
}

func TestMustResolve_Panics(t *testing.T) {
	s := newTestScope()
	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected MustResolve to panic")
		}
		if !strings.Contains(fmt.Sprint(r), "di.Greeter") {
			t.Errorf("expected panic to name the service, got %v", r)
		}
	}()
	MustResolve[Greeter](s)
}

// fakeResolver returns whatever value it holds for any key.
type fakeResolver struct {
	value any
}

func (f fakeResolver) Resolve(ServiceKey) (any, error) { return f.value, nil }
func (f fakeResolver) TryResolve(ServiceKey) (any, bool) {
	return f.value, true
}

func TestResolve_TypeMismatch(t *testing.T) {
	r := fakeResolver{value: 42}

	_, err := Resolve[*Settings](r)
	if !stderrors.Is(err, errors.ErrTypeMismatch) {
		t.Errorf("expected TypeMismatch, got %v", err)
	}
	if _, ok := TryResolve[*Settings](r); ok {
		t.Error("expected TryResolve to reject a mismatched value")
	}
}

func TestGuards(t *testing.T) {
	tests := []struct {
		name string
		run  func(s *Scope) error
	}{
		{"nil instance", func(s *Scope) error { return RegisterInstance[*Settings](s, nil) }},
		{"nil singleton factory", func(s *Scope) error { return RegisterSingleton[*Settings](s, nil) }},
		{"nil transient factory", func(s *Scope) error { return RegisterTransient[*Settings](s, nil) }},
		{"nil provided ctor", func(s *Scope) error { return ProvideSingleton[*Settings](s, nil) }},
		{"nil declared ctor", func(s *Scope) error { return AddConstructor(s, nil) }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := newTestScope(WithValidation(true))
			if err := tc.run(s); !stderrors.Is(err, errors.ErrNullArgument) {
				t.Errorf("expected NullArgument, got %v", err)
			}
		})
	}
}

func TestGuards_DisabledAcceptsNilInstance(t *testing.T) {
	s := newTestScope(WithValidation(false))
	if err := RegisterInstance[*Settings](s, nil); err != nil {
		t.Fatalf("expected registration without guards, got %v", err)
	}
	got, err := Resolve[*Settings](s)
	if err != nil || got != nil {
		t.Errorf("expected nil instance, got %v, %v", got, err)
	}
	if err := s.Dispose(); err != nil {
		t.Errorf("expected nil instance to be skipped at disposal, got %v", err)
	}
}
