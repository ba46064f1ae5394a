package di

import (
	"context"
	stderrors "errors"
	"strings"
	"testing"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/kbukum/lifescope/errors"
	"github.com/kbukum/lifescope/observability"
)

func TestNewScope(t *testing.T) {
	s := newTestScope()
	if s.ID() == "" {
		t.Error("expected non-empty scope id")
	}
	if s.Name() != "test" {
		t.Errorf("expected name 'test', got %q", s.Name())
	}
	if s.Parent() != nil {
		t.Error("expected root scope to have no parent")
	}
	if s.IsDisposed() {
		t.Error("expected new scope not to be disposed")
	}
}

func TestNewChild_InheritsSettings(t *testing.T) {
	parent := newTestScope(WithValidation(true), WithDisposeOrder(DisposeForward))
	child := parent.NewChild("session")

	if child.Parent() != parent {
		t.Error("expected child parent to be the creating scope")
	}
	if child.Name() != "session" {
		t.Errorf("expected name 'session', got %q", child.Name())
	}
	if child.ID() == parent.ID() {
		t.Error("expected distinct scope ids")
	}
	if !child.ValidationEnabled() {
		t.Error("expected validation to be inherited")
	}
	if child.order != DisposeForward {
		t.Error("expected dispose order to be inherited")
	}

	override := parent.NewChild("plain", WithValidation(false))
	if override.ValidationEnabled() {
		t.Error("expected explicit option to override inherited validation")
	}
}

func TestDispose_DisposesOwnedSingletons(t *testing.T) {
	s := newTestScope()
	inst := &resource{name: "instance"}
	c := &closer{}

	mustNoErr(RegisterInstance(s, inst))
	mustNoErr(RegisterSingleton(s, func(r Resolver) (*closer, error) { return c, nil }))
	if _, err := Resolve[*closer](s); err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	if err := s.Dispose(); err != nil {
		t.Fatalf("Dispose failed: %v", err)
	}
	if got := inst.disposed.Load(); got != 1 {
		t.Errorf("expected instance disposed once, got %d", got)
	}
	if got := c.closed.Load(); got != 1 {
		t.Errorf("expected closer closed once, got %d", got)
	}
	if !s.IsDisposed() {
		t.Error("expected scope to be disposed")
	}
	if len(s.Registrations()) != 0 {
		t.Error("expected registry to be cleared")
	}
}

func TestDispose_SkipsUnmaterializedSingleton(t *testing.T) {
	s := newTestScope()
	calls := 0
	mustNoErr(RegisterSingleton(s, func(r Resolver) (*resource, error) {
		calls++
		return &resource{}, nil
	}))

	if err := s.Dispose(); err != nil {
		t.Fatalf("Dispose failed: %v", err)
	}
	if calls != 0 {
		t.Errorf("expected factory never to run, ran %d times", calls)
	}
}

func TestDispose_Idempotent(t *testing.T) {
	s := newTestScope()
	inst := &resource{}
	mustNoErr(RegisterInstance(s, inst))

	if err := s.Dispose(); err != nil {
		t.Fatalf("first Dispose failed: %v", err)
	}
	if err := s.Dispose(); err != nil {
		t.Fatalf("second Dispose should be a no-op, got %v", err)
	}
	if got := inst.disposed.Load(); got != 1 {
		t.Errorf("expected exactly one disposal, got %d", got)
	}
}

func TestDispose_SameInstanceUnderTwoKeys(t *testing.T) {
	s := newTestScope()
	inst := &resource{}
	mustNoErr(RegisterInstance(s, inst))
	mustNoErr(RegisterInstance[Disposable](s, inst))

	if err := s.Dispose(); err != nil {
		t.Fatalf("Dispose failed: %v", err)
	}
	if got := inst.disposed.Load(); got != 1 {
		t.Errorf("expected identity-deduplicated disposal, got %d", got)
	}
}

func TestDispose_Order(t *testing.T) {
	tests := []struct {
		name  string
		order DisposeOrder
		want  []string
	}{
		{"reverse", DisposeReverse, []string{"third", "second", "first"}},
		{"forward", DisposeForward, []string{"first", "second", "third"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := &recorder{}
			s := newTestScope(WithDisposeOrder(tc.order))
			mustNoErr(RegisterSingleton(s, func(r Resolver) (*thirdResource, error) {
				return &thirdResource{&resource{name: "third", rec: rec}}, nil
			}))
			mustNoErr(RegisterSingleton(s, func(r Resolver) (*firstResource, error) {
				return &firstResource{&resource{name: "first", rec: rec}}, nil
			}))
			mustNoErr(RegisterSingleton(s, func(r Resolver) (*secondResource, error) {
				return &secondResource{&resource{name: "second", rec: rec}}, nil
			}))

			// Materialization order differs from registration order on purpose
			MustResolve[*firstResource](s)
			MustResolve[*secondResource](s)
			MustResolve[*thirdResource](s)

			if err := s.Dispose(); err != nil {
				t.Fatalf("Dispose failed: %v", err)
			}
			got := rec.list()
			if strings.Join(got, ",") != strings.Join(tc.want, ",") {
				t.Errorf("expected order %v, got %v", tc.want, got)
			}
		})
	}
}

func TestDispose_JoinsErrorsAndContinues(t *testing.T) {
	s := newTestScope()
	errA := stderrors.New("a failed")
	errB := stderrors.New("b failed")
	a := &firstResource{&resource{fail: errA}}
	b := &secondResource{&resource{fail: errB}}
	ok := &thirdResource{&resource{}}
	mustNoErr(RegisterInstance(s, a))
	mustNoErr(RegisterInstance(s, ok))
	mustNoErr(RegisterInstance(s, b))

	err := s.Dispose()
	if err == nil {
		t.Fatal("expected disposal error")
	}
	if !stderrors.Is(err, errA) || !stderrors.Is(err, errB) {
		t.Errorf("expected both causes to be joined, got %v", err)
	}
	if ok.disposed.Load() != 1 {
		t.Error("expected the healthy instance to be disposed despite failures")
	}
}

type panicky struct{}

func (panicky) Dispose() error { panic("dispose exploded") }

func TestDispose_RecoversPanic(t *testing.T) {
	s := newTestScope()
	after := &resource{}
	mustNoErr(RegisterInstance(s, after))
	mustNoErr(RegisterInstance(s, &panicky{}))

	err := s.Dispose()
	if err == nil || !strings.Contains(err.Error(), "dispose exploded") {
		t.Errorf("expected panic to surface as error, got %v", err)
	}
	if after.disposed.Load() != 1 {
		t.Error("expected remaining instances to be disposed")
	}
}

func TestDispose_DoesNotAffectParent(t *testing.T) {
	parent := newTestScope()
	inst := &resource{}
	mustNoErr(RegisterInstance(parent, inst))
	child := parent.NewChild("child")

	if _, err := Resolve[*resource](child); err != nil {
		t.Fatalf("Resolve via parent failed: %v", err)
	}
	if err := child.Dispose(); err != nil {
		t.Fatalf("Dispose failed: %v", err)
	}
	if parent.IsDisposed() {
		t.Error("expected parent to stay alive")
	}
	if inst.disposed.Load() != 0 {
		t.Error("child must not dispose services owned by its parent")
	}
	if got, err := Resolve[*resource](parent); err != nil || got != inst {
		t.Errorf("expected parent to still resolve, got %v, %v", got, err)
	}
}

func TestDisposedScope_RejectsEverything(t *testing.T) {
	s := newTestScope()
	mustNoErr(RegisterInstance(s, &Settings{}))
	mustNoErr(s.Dispose())

	for i := 0; i < 3; i++ {
		if _, err := Resolve[*Settings](s); !stderrors.Is(err, errors.ErrScopeDisposed) {
			t.Errorf("attempt %d: expected ScopeDisposed, got %v", i, err)
		}
	}
	if _, ok := TryResolve[*Settings](s); ok {
		t.Error("expected TryResolve to fail on disposed scope")
	}
	if err := RegisterInstance(s, &Settings{}); !stderrors.Is(err, errors.ErrScopeDisposed) {
		t.Errorf("expected registration to fail with ScopeDisposed, got %v", err)
	}
	if err := AddConstructor(s, NewReportEmpty); !stderrors.Is(err, errors.ErrScopeDisposed) {
		t.Errorf("expected AddConstructor to fail with ScopeDisposed, got %v", err)
	}
}

func TestDisposedParent_ChildDelegationFails(t *testing.T) {
	parent := newTestScope()
	mustNoErr(RegisterInstance(parent, &Settings{}))
	child := parent.NewChild("child")
	mustNoErr(parent.Dispose())

	if _, err := Resolve[*Settings](child); !stderrors.Is(err, errors.ErrScopeDisposed) {
		t.Errorf("expected ScopeDisposed through parent, got %v", err)
	}
}

func TestSingletonFinishingAfterDispose(t *testing.T) {
	s := newTestScope()
	entered := make(chan struct{})
	release := make(chan struct{})
	built := &resource{}
	mustNoErr(RegisterSingleton(s, func(r Resolver) (*resource, error) {
		close(entered)
		<-release
		return built, nil
	}))

	done := make(chan error, 1)
	go func() {
		_, err := Resolve[*resource](s)
		done <- err
	}()

	<-entered
	if err := s.Dispose(); err != nil {
		t.Fatalf("Dispose failed: %v", err)
	}
	close(release)

	select {
	case err := <-done:
		if !stderrors.Is(err, errors.ErrScopeDisposed) {
			t.Errorf("expected ScopeDisposed for late singleton, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("resolution did not return")
	}
	if built.disposed.Load() != 1 {
		t.Error("expected late singleton to be disposed immediately")
	}
}

func TestRegistrations(t *testing.T) {
	s := newTestScope()
	mustNoErr(RegisterInstance(s, &Settings{}))
	mustNoErr(RegisterSingleton(s, greeterFactory("hi ")))
	mustNoErr(RegisterTransient(s, func(r Resolver) (*resource, error) { return &resource{}, nil }))

	before := map[string]RegistrationInfo{}
	for _, info := range s.Registrations() {
		before[info.Key.String()] = info
	}
	if len(before) != 3 {
		t.Fatalf("expected 3 registrations, got %d", len(before))
	}
	if info := before[KeyOf[Greeter]().String()]; info.Lifetime != LazySingleton || info.Materialized {
		t.Errorf("expected unmaterialized singleton, got %+v", info)
	}
	if info := before[KeyOf[*Settings]().String()]; info.Lifetime != Instance || !info.Materialized {
		t.Errorf("expected materialized instance, got %+v", info)
	}

	MustResolve[Greeter](s)
	for _, info := range s.Registrations() {
		if info.Key == KeyOf[Greeter]() && !info.Materialized {
			t.Error("expected singleton to be materialized after resolution")
		}
	}
}

func TestScope_RecordsMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer mp.Shutdown(context.Background())

	metrics, err := observability.NewContainerMetrics(mp.Meter(observability.InstrumentationName))
	if err != nil {
		t.Fatalf("NewContainerMetrics failed: %v", err)
	}

	s := newTestScope(WithMetrics(metrics))
	mustNoErr(RegisterSingleton(s, greeterFactory("hi ")))
	MustResolve[Greeter](s)
	MustResolve[Greeter](s)
	TryResolve[*Report](s)

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("collect failed: %v", err)
	}

	outcomes := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "lifescope.resolve.total" {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				t.Fatalf("unexpected data type %T", m.Data)
			}
			for _, dp := range sum.DataPoints {
				v, _ := dp.Attributes.Value(observability.AttrOutcome)
				outcomes[v.AsString()] += dp.Value
			}
		}
	}
	if outcomes[observability.OutcomeCreated] != 1 {
		t.Errorf("expected 1 created, got %d", outcomes[observability.OutcomeCreated])
	}
	if outcomes[observability.OutcomeCached] != 1 {
		t.Errorf("expected 1 cached, got %d", outcomes[observability.OutcomeCached])
	}
	if outcomes[observability.OutcomeError] != 1 {
		t.Errorf("expected 1 error, got %d", outcomes[observability.OutcomeError])
	}
}

func TestParseDisposeOrder(t *testing.T) {
	if ParseDisposeOrder("forward") != DisposeForward {
		t.Error("expected forward")
	}
	if ParseDisposeOrder("reverse") != DisposeReverse {
		t.Error("expected reverse")
	}
	if ParseDisposeOrder("") != DisposeReverse {
		t.Error("expected reverse as default")
	}
}

func TestLifetimeString(t *testing.T) {
	tests := map[Lifetime]string{
		Instance:      "instance",
		LazySingleton: "singleton",
		Transient:     "transient",
		Lifetime(99):  "unknown",
	}
	for l, want := range tests {
		if got := l.String(); got != want {
			t.Errorf("Lifetime(%d).String() = %q, want %q", l, got, want)
		}
	}
}
