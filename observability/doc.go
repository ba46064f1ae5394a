// Package observability provides OpenTelemetry tracing and metrics for
// lifescope containers.
//
// Tracing:
//
//	tp, err := observability.InitTracer(ctx, observability.DefaultTracerConfig("my-app"))
//	defer tp.Shutdown(ctx)
//
//	ctx, span := observability.StartSpan(ctx, observability.SpanSessionBegin)
//	defer span.End()
//
// Metrics:
//
//	mp, err := observability.InitMeter(ctx, observability.DefaultMeterConfig("my-app"))
//	defer mp.Shutdown(ctx)
//
//	metrics, err := observability.NewContainerMetrics(observability.Meter(observability.InstrumentationName))
//	scope := di.NewScope(di.WithMetrics(metrics))
//
// Without InitTracer/InitMeter the global no-op providers are used, so the
// instruments cost almost nothing.
package observability
