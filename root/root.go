package root

import (
	stderrors "errors"
	"fmt"
	"sync"

	"github.com/kbukum/lifescope/di"
	"github.com/kbukum/lifescope/errors"
	"github.com/kbukum/lifescope/logger"
)

// State is the lifecycle state of a Root.
type State int

const (
	Uninitialized State = iota // Zero Root, not created with New
	NoSession                  // Global alive, no session
	SessionActive              // Global and one session alive
	Terminated                 // Shut down; no further sessions
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case NoSession:
		return "no_session"
	case SessionActive:
		return "session_active"
	case Terminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// Default scope names.
const (
	DefaultGlobalName  = "global"
	DefaultSessionName = "session"
)

type options struct {
	globalName  string
	sessionName string
	scopeOpts   []di.Option
	log         *logger.Logger
}

// Option configures a Root.
type Option func(*options)

// WithGlobalName sets the name of the Global scope.
func WithGlobalName(name string) Option {
	return func(o *options) { o.globalName = name }
}

// WithSessionName sets the name given to every session scope.
func WithSessionName(name string) Option {
	return func(o *options) { o.sessionName = name }
}

// WithScopeOptions passes options to the Global scope. Sessions inherit them.
func WithScopeOptions(opts ...di.Option) Option {
	return func(o *options) { o.scopeOpts = append(o.scopeOpts, opts...) }
}

// WithLogger sets the logger used for lifecycle events.
func WithLogger(l *logger.Logger) Option {
	return func(o *options) { o.log = l }
}

// Root owns the Global scope and the current session scope.
// A Root implements di.Resolver with session-first lookup.
type Root struct {
	// transition serializes BeginSession, EndSession and Shutdown. mutex
	// guards the fields below and is never held while scopes dispose, so
	// disposal callbacks may look services up through the Root.
	transition  sync.Mutex
	mutex       sync.RWMutex
	global      *di.Scope
	session     *di.Scope
	state       State
	sessionName string
	log         *logger.Logger
}

// New creates a Root with a fresh Global scope and no session.
func New(opts ...Option) *Root {
	o := &options{
		globalName:  DefaultGlobalName,
		sessionName: DefaultSessionName,
	}
	for _, opt := range opts {
		opt(o)
	}
	log := o.log
	if log == nil {
		log = logger.Get("root")
	}

	scopeOpts := append([]di.Option{di.WithName(o.globalName)}, o.scopeOpts...)
	if o.log != nil {
		scopeOpts = append(scopeOpts, di.WithLogger(o.log))
	}

	r := &Root{
		global:      di.NewScope(scopeOpts...),
		state:       NoSession,
		sessionName: o.sessionName,
		log:         log,
	}
	r.log.Info("Root created", logger.Fields(logger.FieldScope, o.globalName))
	return r
}

// Global returns the Global scope, or nil for an uninitialized Root.
func (r *Root) Global() *di.Scope {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return r.global
}

// Session returns the active session scope, or nil when there is none.
func (r *Root) Session() *di.Scope {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return r.session
}

// State returns the current lifecycle state.
func (r *Root) State() State {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return r.state
}

// BeginSession disposes the current session, if any, and starts a new one
// parented to Global. The previous session is detached before it disposes,
// so lookups during its disposal see Global only, and the new session is
// created after disposal returns. Disposal errors of the previous session
// are logged and do not prevent the new session.
func (r *Root) BeginSession() (*di.Scope, error) {
	r.transition.Lock()
	defer r.transition.Unlock()

	r.mutex.Lock()
	switch r.state {
	case Uninitialized:
		r.mutex.Unlock()
		return nil, errNotInitialized()
	case Terminated:
		r.mutex.Unlock()
		return nil, errors.ScopeDisposed(r.globalName())
	}
	previous := r.detachSession()
	global := r.global
	r.mutex.Unlock()

	if previous != nil {
		if err := previous.Dispose(); err != nil {
			r.log.Error("Previous session disposed with errors", logger.Fields(
				logger.FieldScopeID, previous.ID(),
				logger.FieldError, err.Error(),
			))
		}
	}

	session := global.NewChild(r.sessionName)

	r.mutex.Lock()
	r.session = session
	r.state = SessionActive
	r.mutex.Unlock()

	r.log.Info("Session started", logger.Fields(
		logger.FieldScopeID, session.ID(),
		logger.FieldState, SessionActive.String(),
	))
	return session, nil
}

// EndSession disposes and clears the active session. It is a no-op when no
// session is active.
func (r *Root) EndSession() error {
	r.transition.Lock()
	defer r.transition.Unlock()

	r.mutex.Lock()
	session := r.detachSession()
	state := r.state
	r.mutex.Unlock()

	if session == nil {
		return nil
	}
	err := session.Dispose()
	r.log.Info("Session ended", logger.Fields(
		logger.FieldScopeID, session.ID(),
		logger.FieldState, state.String(),
	))
	return err
}

// Shutdown disposes the session and then Global, and moves the Root to
// Terminated. Later calls return nil.
func (r *Root) Shutdown() error {
	r.transition.Lock()
	defer r.transition.Unlock()

	r.mutex.Lock()
	if r.state == Terminated || r.state == Uninitialized {
		r.state = Terminated
		r.mutex.Unlock()
		return nil
	}
	session := r.detachSession()
	global := r.global
	r.state = Terminated
	r.mutex.Unlock()

	var errs []error
	if session != nil {
		if err := session.Dispose(); err != nil {
			errs = append(errs, fmt.Errorf("dispose session: %w", err))
		}
	}
	if err := global.Dispose(); err != nil {
		errs = append(errs, fmt.Errorf("dispose global: %w", err))
	}

	err := stderrors.Join(errs...)
	if err != nil {
		r.log.Error("Root shut down with errors", logger.Fields(logger.FieldError, err.Error()))
		return err
	}
	r.log.Info("Root shut down")
	return nil
}

// detachSession clears the session reference and returns it. The caller
// holds r.mutex.
func (r *Root) detachSession() *di.Scope {
	session := r.session
	r.session = nil
	if session != nil && r.state == SessionActive {
		r.state = NoSession
	}
	return session
}

// Resolve tries the active session first and falls back to Global. When
// both fail, the Global error is reported; a session failure other than a
// missing registration is attached as its cause.
func (r *Root) Resolve(key di.ServiceKey) (any, error) {
	session, global := r.scopes()
	if global == nil {
		return nil, errNotInitialized()
	}
	var sessionErr error
	if session != nil {
		v, err := resolveIn(session, key)
		if err == nil {
			return v, nil
		}
		sessionErr = err
	}
	v, err := global.Resolve(key)
	if err != nil {
		return nil, withSessionCause(err, sessionErr)
	}
	return v, nil
}

// TryResolve is Resolve without a diagnostic.
func (r *Root) TryResolve(key di.ServiceKey) (any, bool) {
	session, global := r.scopes()
	if global == nil {
		return nil, false
	}
	if session != nil {
		if v, ok := session.TryResolve(key); ok {
			return v, true
		}
	}
	return global.TryResolve(key)
}

// resolveIn resolves key from s, turning a panicking factory into an error.
func resolveIn(s *di.Scope, key di.ServiceKey) (v any, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			v, err = nil, errors.Internal(fmt.Errorf("panic resolving %s in %s: %v", key, s.Name(), rec))
		}
	}()
	return s.Resolve(key)
}

// withSessionCause returns err carrying sessionErr as its cause. err is
// copied, never modified, and an existing cause is kept.
func withSessionCause(err, sessionErr error) error {
	if sessionErr == nil || errors.CodeOf(sessionErr) == errors.ErrCodeUnregisteredService {
		return err
	}
	appErr, ok := err.(*errors.AppError)
	if !ok || appErr.Cause != nil {
		return err
	}
	wrapped := *appErr
	wrapped.Cause = sessionErr
	return &wrapped
}

func (r *Root) scopes() (session, global *di.Scope) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return r.session, r.global
}

func (r *Root) globalName() string {
	if r.global == nil {
		return DefaultGlobalName
	}
	return r.global.Name()
}

func errNotInitialized() error {
	return errors.New(errors.ErrCodeInternal, "Root is not initialized; use root.New")
}

// Get resolves T from the active session, falling back to Global.
//
// Example:
//
//	repo, err := root.Get[Repository](r)
func Get[T any](r *Root) (T, error) {
	return di.Resolve[T](r)
}

// TryGet is Get without a diagnostic.
func TryGet[T any](r *Root) (T, bool) {
	return di.TryResolve[T](r)
}

// MustGet is Get that panics on failure.
func MustGet[T any](r *Root) T {
	return di.MustResolve[T](r)
}
