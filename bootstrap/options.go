package bootstrap

import (
	"io"
	"os"
	"time"

	"go.opentelemetry.io/otel/metric"

	"github.com/kbukum/lifescope/logger"
	"github.com/kbukum/lifescope/root"
)

// Option configures the App during creation.
// Options are non-generic so they can be used with any config type.
type Option func(*appOptions)

type appOptions struct {
	logger          *logger.Logger
	meter           metric.Meter
	rootOpts        []root.Option
	summaryOut      io.Writer
	gracefulTimeout *time.Duration
}

func resolveOptions(opts []Option) *appOptions {
	o := &appOptions{summaryOut: os.Stdout}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithLogger sets a custom logger for the application.
// If not set, the logger is initialized from the config's Logging field.
func WithLogger(l *logger.Logger) Option {
	return func(o *appOptions) {
		o.logger = l
	}
}

// WithGracefulTimeout sets the maximum duration for graceful shutdown.
func WithGracefulTimeout(d time.Duration) Option {
	return func(o *appOptions) {
		o.gracefulTimeout = &d
	}
}

// WithMeter records container metrics on m instead of the global meter
// provider.
func WithMeter(m metric.Meter) Option {
	return func(o *appOptions) {
		o.meter = m
	}
}

// WithRootOptions passes extra options to the root container. They are
// applied after the ones derived from ContainerConfig.
func WithRootOptions(opts ...root.Option) Option {
	return func(o *appOptions) {
		o.rootOpts = append(o.rootOpts, opts...)
	}
}

// WithSummaryOutput redirects the startup summary. Pass io.Discard to
// silence it.
func WithSummaryOutput(w io.Writer) Option {
	return func(o *appOptions) {
		o.summaryOut = w
	}
}
