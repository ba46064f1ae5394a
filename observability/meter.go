package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/kbukum/lifescope/logger"
)

// MeterConfig configures the OpenTelemetry meter provider.
type MeterConfig struct {
	// ServiceName is the name of the service.
	ServiceName string
	// ServiceVersion is the version of the service.
	ServiceVersion string
	// Environment is the deployment environment (dev, staging, prod).
	Environment string
	// Endpoint is the OTLP HTTP endpoint host:port (e.g., "localhost:4318").
	Endpoint string
	// Insecure allows insecure connections (for development).
	Insecure bool
	// Interval is the metric export interval.
	Interval time.Duration
}

// DefaultMeterConfig returns sensible defaults for development.
func DefaultMeterConfig(serviceName string) MeterConfig {
	return MeterConfig{
		ServiceName:    serviceName,
		ServiceVersion: "1.0.0",
		Environment:    "development",
		Endpoint:       "localhost:4318",
		Insecure:       true,
		Interval:       15 * time.Second,
	}
}

// InitMeter initializes the OpenTelemetry meter provider and installs it
// globally. The returned provider must be shut down on exit.
func InitMeter(ctx context.Context, config MeterConfig) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(config.Endpoint),
	}
	if config.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	readerOpts := []sdkmetric.PeriodicReaderOption{}
	if config.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(config.Interval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(newResource(config.ServiceName, config.ServiceVersion, config.Environment)),
	)

	otel.SetMeterProvider(mp)

	logger.Info("meter initialized", logger.Fields(
		"service", config.ServiceName,
		"endpoint", config.Endpoint,
		"interval", config.Interval.String(),
	))

	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// Resolution outcomes recorded by ContainerMetrics.
const (
	OutcomeCached    = "cached"
	OutcomeCreated   = "created"
	OutcomeAutowired = "autowired"
	OutcomeError     = "error"
)

// ContainerMetrics holds the instruments recorded by lifescope scopes.
// A nil *ContainerMetrics is valid and records nothing.
type ContainerMetrics struct {
	resolveTotal    metric.Int64Counter
	factoryDuration metric.Float64Histogram
	disposeTotal    metric.Int64Counter
	scopesActive    metric.Int64UpDownCounter
}

// NewContainerMetrics creates the container instruments on the given meter.
func NewContainerMetrics(meter metric.Meter) (*ContainerMetrics, error) {
	resolveTotal, err := meter.Int64Counter("lifescope.resolve.total",
		metric.WithDescription("Total number of service resolutions by outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating lifescope.resolve.total counter: %w", err)
	}

	factoryDuration, err := meter.Float64Histogram("lifescope.factory.duration",
		metric.WithDescription("Duration of factory and constructor invocations in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating lifescope.factory.duration histogram: %w", err)
	}

	disposeTotal, err := meter.Int64Counter("lifescope.dispose.total",
		metric.WithDescription("Total number of disposed singleton instances by outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating lifescope.dispose.total counter: %w", err)
	}

	scopesActive, err := meter.Int64UpDownCounter("lifescope.scopes.active",
		metric.WithDescription("Number of live (not yet disposed) scopes"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating lifescope.scopes.active gauge: %w", err)
	}

	return &ContainerMetrics{
		resolveTotal:    resolveTotal,
		factoryDuration: factoryDuration,
		disposeTotal:    disposeTotal,
		scopesActive:    scopesActive,
	}, nil
}

// RecordResolve records one resolution attempt.
func (m *ContainerMetrics) RecordResolve(ctx context.Context, scope, lifetime, outcome string) {
	if m == nil {
		return
	}
	m.resolveTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrScope, scope),
		attribute.String(AttrLifetime, lifetime),
		attribute.String(AttrOutcome, outcome),
	))
}

// RecordFactory records the duration of one factory invocation.
func (m *ContainerMetrics) RecordFactory(ctx context.Context, scope, lifetime string, d time.Duration) {
	if m == nil {
		return
	}
	m.factoryDuration.Record(ctx, d.Seconds(), metric.WithAttributes(
		attribute.String(AttrScope, scope),
		attribute.String(AttrLifetime, lifetime),
	))
}

// RecordDispose records the disposal of n instances with the given outcome.
func (m *ContainerMetrics) RecordDispose(ctx context.Context, scope, outcome string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.disposeTotal.Add(ctx, int64(n), metric.WithAttributes(
		attribute.String(AttrScope, scope),
		attribute.String(AttrOutcome, outcome),
	))
}

// ScopeOpened increments the live scope count.
func (m *ContainerMetrics) ScopeOpened(ctx context.Context, scope string) {
	if m == nil {
		return
	}
	m.scopesActive.Add(ctx, 1, metric.WithAttributes(attribute.String(AttrScope, scope)))
}

// ScopeClosed decrements the live scope count.
func (m *ContainerMetrics) ScopeClosed(ctx context.Context, scope string) {
	if m == nil {
		return
	}
	m.scopesActive.Add(ctx, -1, metric.WithAttributes(attribute.String(AttrScope, scope)))
}
