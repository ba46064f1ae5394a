package di

import (
	stderrors "errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/kbukum/lifescope/logger"
)

// Test fixtures shared by the di tests.

type Greeter interface {
	Greet(name string) string
}

type englishGreeter struct{ prefix string }

func (g *englishGreeter) Greet(name string) string { return g.prefix + name }

type Settings struct {
	Prefix string
}

type recorder struct {
	mu    sync.Mutex
	names []string
}

func (r *recorder) add(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.names = append(r.names, name)
}

func (r *recorder) list() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.names...)
}

// resource implements Disposable and records its disposal.
type resource struct {
	name     string
	rec      *recorder
	disposed atomic.Int32
	fail     error
}

func (r *resource) Dispose() error {
	r.disposed.Add(1)
	if r.rec != nil {
		r.rec.add(r.name)
	}
	return r.fail
}

// closer implements io.Closer only.
type closer struct {
	closed atomic.Int32
}

func (c *closer) Close() error {
	c.closed.Add(1)
	return nil
}

type firstResource struct{ *resource }
type secondResource struct{ *resource }
type thirdResource struct{ *resource }

type Report struct {
	Greeter  Greeter
	Settings *Settings
	via      string
}

func NewReport(g Greeter, s *Settings) *Report {
	return &Report{Greeter: g, Settings: s, via: "full"}
}

func NewReportGreeterOnly(g Greeter) *Report {
	return &Report{Greeter: g, via: "greeter"}
}

func NewReportEmpty() *Report {
	return &Report{via: "empty"}
}

var errBoom = stderrors.New("boom")

func newTestScope(opts ...Option) *Scope {
	all := append([]Option{WithName("test"), WithLogger(logger.NewNop())}, opts...)
	return NewScope(all...)
}

func greeterFactory(prefix string) Factory[Greeter] {
	return func(r Resolver) (Greeter, error) {
		return &englishGreeter{prefix: prefix}, nil
	}
}

func mustNoErr(err error) {
	if err != nil {
		panic(fmt.Sprintf("unexpected error: %v", err))
	}
}
