package bootstrap

import (
	"context"
	stderrors "errors"
	"fmt"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/kbukum/lifescope/config"
	"github.com/kbukum/lifescope/observability"
)

// telemetry holds the exporters started for the application. A nil
// *telemetry is valid and shuts down nothing.
type telemetry struct {
	tracer *sdktrace.TracerProvider
	meter  *sdkmetric.MeterProvider
}

// startTelemetry installs the OTLP tracer and meter providers globally when
// telemetry is enabled.
func startTelemetry(ctx context.Context, cfg *config.ServiceConfig) (*telemetry, error) {
	tc := cfg.Telemetry
	if !tc.Enabled {
		return nil, nil
	}

	tp, err := observability.InitTracer(ctx, observability.TracerConfig{
		ServiceName:    cfg.Name,
		ServiceVersion: cfg.Version,
		Environment:    cfg.Environment,
		Endpoint:       tc.Endpoint,
		Insecure:       tc.Insecure,
		SampleRate:     tc.SampleRate,
	})
	if err != nil {
		return nil, fmt.Errorf("tracer: %w", err)
	}

	mp, err := observability.InitMeter(ctx, observability.MeterConfig{
		ServiceName:    cfg.Name,
		ServiceVersion: cfg.Version,
		Environment:    cfg.Environment,
		Endpoint:       tc.Endpoint,
		Insecure:       tc.Insecure,
		Interval:       tc.MetricsInterval,
	})
	if err != nil {
		_ = tp.Shutdown(ctx)
		return nil, fmt.Errorf("meter: %w", err)
	}

	return &telemetry{tracer: tp, meter: mp}, nil
}

func (t *telemetry) shutdown(ctx context.Context) error {
	if t == nil {
		return nil
	}
	var errs []error
	if err := t.meter.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("meter shutdown: %w", err))
	}
	if err := t.tracer.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("tracer shutdown: %w", err))
	}
	return stderrors.Join(errs...)
}
