package bootstrap

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/kbukum/lifescope/di"
	"github.com/kbukum/lifescope/installer"
	"github.com/kbukum/lifescope/logger"
	"github.com/kbukum/lifescope/observability"
	"github.com/kbukum/lifescope/root"
	"github.com/kbukum/lifescope/version"
)

// App hosts a root container with uniform lifecycle management.
// The type parameter C is the config type, which must satisfy the Config interface.
// Any struct embedding config.ServiceConfig automatically satisfies Config.
//
// Example:
//
//	app, err := bootstrap.NewApp(&cfg)
//	app.Install(loggingInstaller, repositoryInstaller)
//	app.RunTask(ctx, func(ctx context.Context) error {
//	    if _, err := app.BeginSession(ctx); err != nil {
//	        return err
//	    }
//	    defer app.EndSession(ctx)
//	    repo, err := root.Get[Repository](app.Root)
//	    ...
//	})
type App[C Config] struct {
	Name       string
	Version    string
	Cfg        C
	Root       *root.Root
	Installers *installer.Registry
	Logger     *logger.Logger
	Summary    *Summary

	gracefulTimeout time.Duration
	telemetry       *telemetry
	onConfigure     []func(ctx context.Context, app *App[C]) error

	onStart []Hook
	onReady []Hook
	onStop  []Hook
}

// NewApp creates a new application instance from a typed config.
// It applies defaults, validates the config, initializes the logger and
// builds the root container from the container settings.
func NewApp[C Config](cfg C, opts ...Option) (*App[C], error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	base := cfg.GetServiceConfig()
	o := resolveOptions(opts)

	app := &App[C]{
		Name:            base.Name,
		Version:         base.Version,
		Cfg:             cfg,
		Installers:      installer.NewRegistry(),
		gracefulTimeout: 15 * time.Second,
	}
	if app.Version == "" {
		app.Version = version.Get().Short()
	}
	if o.gracefulTimeout != nil {
		app.gracefulTimeout = *o.gracefulTimeout
	}

	// Logger: use custom if provided, otherwise init from config.
	if o.logger != nil {
		app.Logger = o.logger
	} else {
		logger.Init(&base.Logging)
		app.Logger = logger.GetGlobalLogger()
	}

	// The global meter delegates to the provider installed by Start, so
	// instruments created here start exporting once telemetry is up.
	meter := o.meter
	if meter == nil {
		meter = observability.Meter(observability.InstrumentationName)
	}
	metrics, err := observability.NewContainerMetrics(meter)
	if err != nil {
		return nil, fmt.Errorf("container metrics: %w", err)
	}

	c := base.Container
	rootOpts := []root.Option{
		root.WithGlobalName(c.GlobalScopeName),
		root.WithSessionName(c.SessionScopeName),
		root.WithScopeOptions(
			di.WithValidation(c.ValidationEnabled()),
			di.WithDisposeOrder(di.ParseDisposeOrder(c.DisposeOrder)),
			di.WithMetrics(metrics),
		),
	}
	if o.logger != nil {
		rootOpts = append(rootOpts, root.WithLogger(o.logger.WithComponent("root")))
	}
	app.Root = root.New(append(rootOpts, o.rootOpts...)...)

	app.Summary = NewSummary(app.Name, app.Version, o.summaryOut)
	return app, nil
}

// Install registers installers. Global installers run during Start, session
// installers run in every scope created by BeginSession.
func (a *App[C]) Install(installers ...installer.Installer) error {
	return a.Installers.Register(installers...)
}

// OnConfigure registers a callback to run after the global scope is composed.
func (a *App[C]) OnConfigure(fn func(ctx context.Context, app *App[C]) error) {
	a.onConfigure = append(a.onConfigure, fn)
}

// Session returns the active session scope, or nil when there is none.
func (a *App[C]) Session() *di.Scope {
	return a.Root.Session()
}

// Start runs the startup sequence: telemetry, global installers, OnStart
// hooks, configure callbacks, OnReady hooks and the summary.
func (a *App[C]) Start(ctx context.Context) error {
	start := time.Now()

	a.Logger.Info("Starting application", logger.Fields(
		"name", a.Name,
		"version", a.Version,
	))

	tel, err := startTelemetry(ctx, a.Cfg.GetServiceConfig())
	if err != nil {
		return fmt.Errorf("telemetry initialization failed: %w", err)
	}
	a.telemetry = tel

	ctx, span := observability.StartSpan(ctx, observability.SpanAppStart)
	defer span.End()

	if err := a.Installers.Apply(installer.Global, a.Root.Global()); err != nil {
		observability.SetSpanError(ctx, err)
		return fmt.Errorf("global composition failed: %w", err)
	}

	if err := runHooks(ctx, a.onStart); err != nil {
		observability.SetSpanError(ctx, err)
		return fmt.Errorf("onStart hook failed: %w", err)
	}

	if err := a.configure(ctx); err != nil {
		observability.SetSpanError(ctx, err)
		return fmt.Errorf("configuration failed: %w", err)
	}

	if err := runHooks(ctx, a.onReady); err != nil {
		observability.SetSpanError(ctx, err)
		return fmt.Errorf("onReady hook failed: %w", err)
	}

	a.Summary.SetStartupDuration(time.Since(start))
	a.DisplaySummary()
	return nil
}

// configure runs registered configuration callbacks.
func (a *App[C]) configure(ctx context.Context) error {
	if len(a.onConfigure) == 0 {
		return nil
	}
	a.Logger.Debug("Running configuration callbacks", logger.Fields(logger.FieldCount, len(a.onConfigure)))

	for _, fn := range a.onConfigure {
		if err := fn(ctx, a); err != nil {
			return err
		}
	}
	return nil
}

// BeginSession starts a new session, disposing the previous one, and runs
// the session installers in it. When composition fails the half-built
// session is ended and the error returned.
func (a *App[C]) BeginSession(ctx context.Context) (*di.Scope, error) {
	start := time.Now()
	ctx, span := observability.StartSpan(ctx, observability.SpanSessionBegin)
	defer span.End()

	session, err := a.Root.BeginSession()
	if err != nil {
		observability.SetSpanError(ctx, err)
		return nil, err
	}
	span.SetAttributes(
		attribute.String(observability.AttrScope, session.Name()),
		attribute.String(observability.AttrScopeID, session.ID()),
	)

	if err := a.Installers.Apply(installer.Session, session); err != nil {
		observability.SetSpanError(ctx, err)
		if endErr := a.Root.EndSession(); endErr != nil {
			a.Logger.Error("Failed to end partially composed session", logger.Fields(
				logger.FieldScopeID, session.ID(),
				logger.FieldError, endErr.Error(),
			))
		}
		return nil, fmt.Errorf("session composition failed: %w", err)
	}

	a.Logger.WithContext(ctx).Info("Session ready",
		logger.Fields(logger.FieldScopeID, session.ID()),
		logger.DurationFields("begin_session", time.Since(start)),
	)
	return session, nil
}

// EndSession disposes the active session, if any.
func (a *App[C]) EndSession(ctx context.Context) error {
	ctx, span := observability.StartSpan(ctx, observability.SpanSessionEnd)
	defer span.End()

	if err := a.Root.EndSession(); err != nil {
		observability.SetSpanError(ctx, err)
		return err
	}
	return nil
}

// DisplaySummary prints the startup summary from the root's live scopes and
// the installer registry.
func (a *App[C]) DisplaySummary() {
	a.Summary.DisplaySummary(a.Root, a.Installers)
}

// Run executes the full application lifecycle for long-running services:
// Start → block on signal → graceful shutdown.
func (a *App[C]) Run(ctx context.Context) error {
	if err := a.Start(ctx); err != nil {
		a.abort(ctx)
		return err
	}

	a.Logger.Info("Application ready, waiting for shutdown signal")
	a.WaitForSignal(ctx)

	return a.stop(context.WithoutCancel(ctx))
}

// RunTask executes a finite task with the full bootstrap lifecycle.
// Unlike Run, it does not block on shutdown signals: it runs the task
// and shuts down when the task completes or the context is canceled
// (e.g., via SIGINT/SIGTERM).
//
// Example:
//
//	app, _ := bootstrap.NewApp(&cfg)
//	app.RunTask(ctx, func(ctx context.Context) error {
//	    return processRequests(ctx, app)
//	})
func (a *App[C]) RunTask(ctx context.Context, task func(ctx context.Context) error) error {
	if err := a.Start(ctx); err != nil {
		a.abort(ctx)
		return err
	}

	taskCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go func() {
		select {
		case sig := <-sigCh:
			a.Logger.Info("Received signal, canceling task", logger.Fields("signal", sig.String()))
			cancel()
		case <-taskCtx.Done():
		}
	}()

	taskErr := task(taskCtx)

	if stopErr := a.stop(context.WithoutCancel(ctx)); stopErr != nil {
		if taskErr != nil {
			return taskErr
		}
		return stopErr
	}
	return taskErr
}

// WaitForSignal blocks until an OS interrupt/term signal or context cancellation.
func (a *App[C]) WaitForSignal(ctx context.Context) os.Signal {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		a.Logger.Info("Received shutdown signal, graceful shutdown starting", logger.Fields("signal", sig.String()))
		return sig
	case <-ctx.Done():
		a.Logger.Info("Context canceled, shutting down")
		return nil
	}
}

// Shutdown performs graceful shutdown. Use when managing your own lifecycle.
func (a *App[C]) Shutdown(ctx context.Context) error {
	return a.stop(ctx)
}

// abort releases what a failed Start already acquired. OnStop hooks do
// not run because the application never became ready.
func (a *App[C]) abort(ctx context.Context) {
	if err := a.Root.Shutdown(); err != nil {
		a.Logger.Warn("Root container shut down with errors after failed start", logger.Fields(logger.FieldError, err.Error()))
	}
	if err := a.telemetry.shutdown(context.WithoutCancel(ctx)); err != nil {
		a.Logger.Warn("Telemetry shutdown error", logger.Fields(logger.FieldError, err.Error()))
	}
	a.telemetry = nil
}

// stop runs OnStop hooks, shuts the root down and flushes telemetry, all
// within the graceful timeout. The first error is returned.
func (a *App[C]) stop(ctx context.Context) error {
	a.Logger.Info("Shutting down application", logger.Fields("timeout", a.gracefulTimeout.String()))

	ctx, cancel := context.WithTimeout(ctx, a.gracefulTimeout)
	defer cancel()

	var shutdownErr error

	spanCtx, span := observability.StartSpan(ctx, observability.SpanAppStop)
	if err := runHooks(spanCtx, a.onStop); err != nil {
		a.Logger.Error("OnStop hook error", logger.Fields(logger.FieldError, err.Error()))
		shutdownErr = err
	}

	if err := a.Root.Shutdown(); err != nil {
		a.Logger.Error("Root container shut down with errors", logger.Fields(logger.FieldError, err.Error()))
		observability.SetSpanError(spanCtx, err)
		if shutdownErr == nil {
			shutdownErr = err
		}
	}
	span.End()

	if err := a.telemetry.shutdown(ctx); err != nil {
		a.Logger.Warn("Telemetry shutdown error", logger.Fields(logger.FieldError, err.Error()))
	}
	a.telemetry = nil

	a.Logger.Info("Application shutdown complete")
	return shutdownErr
}
