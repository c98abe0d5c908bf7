// Package metrics exposes the service's OpenTelemetry instruments through a
// Prometheus exporter.
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	otelglobal "go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

const meterName = "github.com/JaimeStill/docent"

// Attribute keys shared by instruments.
var (
	AttrStatus = attribute.Key("status")
	AttrResult = attribute.Key("result")
	AttrKind   = attribute.Key("kind")
	AttrMethod = attribute.Key("http.method")
	AttrRoute  = attribute.Key("http.route")
	AttrCode   = attribute.Key("http.status_code")
)

// Init installs a global MeterProvider backed by a Prometheus registry and
// returns a Recorder along with the handler that serves the registry.
func Init(ctx context.Context, serviceName string) (*Recorder, http.Handler, error) {
	if serviceName == "" {
		serviceName = "docent"
	}

	reg := prometheus.NewRegistry()
	exporter, err := otelprom.New(otelprom.WithRegisterer(reg))
	if err != nil {
		return nil, nil, err
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
		),
	)
	if err != nil {
		return nil, nil, err
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(exporter),
		sdkmetric.WithResource(res),
	)
	otelglobal.SetMeterProvider(provider)

	rec, err := NewRecorder(otelglobal.Meter(meterName))
	if err != nil {
		return nil, nil, err
	}

	return rec, promhttp.HandlerFor(reg, promhttp.HandlerOpts{EnableOpenMetrics: true}), nil
}

// Recorder records domain and HTTP measurements. A nil Recorder discards
// every measurement.
type Recorder struct {
	intake          metric.Int64Counter
	classifications metric.Int64Counter
	transitions     metric.Int64Counter
	sweeps          metric.Float64Histogram
	requests        metric.Int64Counter
	latency         metric.Float64Histogram
}

// NewRecorder creates the instruments on meter.
func NewRecorder(meter metric.Meter) (*Recorder, error) {
	var (
		r   Recorder
		err error
	)

	if r.intake, err = meter.Int64Counter(
		"docent.intake.outcomes",
		metric.WithDescription("Storage events handled, by outcome status."),
	); err != nil {
		return nil, err
	}
	if r.classifications, err = meter.Int64Counter(
		"docent.classifications",
		metric.WithDescription("Classification attempts, by result."),
	); err != nil {
		return nil, err
	}
	if r.transitions, err = meter.Int64Counter(
		"docent.batch.transitions",
		metric.WithDescription("Training batch status transitions, by target status."),
	); err != nil {
		return nil, err
	}
	if r.sweeps, err = meter.Float64Histogram(
		"docent.monitor.sweep.duration",
		metric.WithDescription("Duration of training monitor sweeps."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}
	if r.requests, err = meter.Int64Counter(
		"docent.http.requests",
		metric.WithDescription("HTTP requests served."),
	); err != nil {
		return nil, err
	}
	if r.latency, err = meter.Float64Histogram(
		"docent.http.duration",
		metric.WithDescription("HTTP request latency."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	return &r, nil
}

// IntakeOutcome counts one handled storage event.
func (r *Recorder) IntakeOutcome(ctx context.Context, status string) {
	if r == nil {
		return
	}
	r.intake.Add(ctx, 1, metric.WithAttributes(AttrStatus.String(status)))
}

// Classification counts one classification attempt.
func (r *Recorder) Classification(ctx context.Context, ok bool) {
	if r == nil {
		return
	}
	result := "success"
	if !ok {
		result = "error"
	}
	r.classifications.Add(ctx, 1, metric.WithAttributes(AttrResult.String(result)))
}

// BatchTransition counts a batch moving into status.
func (r *Recorder) BatchTransition(ctx context.Context, kind, status string) {
	if r == nil {
		return
	}
	r.transitions.Add(ctx, 1, metric.WithAttributes(
		AttrKind.String(kind),
		AttrStatus.String(status),
	))
}

// Sweep records the duration of one monitor sweep.
func (r *Recorder) Sweep(ctx context.Context, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.sweeps.Record(ctx, elapsed.Seconds())
}

// HTTPRequest records a served request. It satisfies middleware.RequestRecorder.
func (r *Recorder) HTTPRequest(req *http.Request, status int, elapsed time.Duration) {
	if r == nil {
		return
	}

	route := req.Pattern
	if route == "" {
		route = "unmatched"
	}

	attrs := metric.WithAttributes(
		AttrMethod.String(req.Method),
		AttrRoute.String(route),
		AttrCode.String(strconv.Itoa(status)),
	)
	r.requests.Add(req.Context(), 1, attrs)
	r.latency.Record(req.Context(), elapsed.Seconds(), attrs)
}
