package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

const metricsExportInterval = 15 * time.Second

const instrumentationName = "account-service"

// SetupMetrics registra un MeterProvider global que exporta por OTLP/HTTP cada
// metricsExportInterval. Con endpoint vacio no registra nada y los instrumentos quedan no-op.
func SetupMetrics(ctx context.Context, endpoint, serviceName string) (shutdown func(context.Context) error, err error) {
	noop := func(context.Context) error { return nil }
	if endpoint == "" {
		return noop, nil
	}

	exporter, err := otlpmetrichttp.New(ctx, otlpmetrichttp.WithEndpointURL(endpoint))
	if err != nil {
		return noop, err
	}
	res, err := resource.New(ctx, resource.WithAttributes(semconv.ServiceName(serviceName)))
	if err != nil {
		return noop, err
	}

	mp := newMeterProvider(res, sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(metricsExportInterval)))
	otel.SetMeterProvider(mp)
	return mp.Shutdown, nil
}

func newMeterProvider(res *resource.Resource, reader sdkmetric.Reader) *sdkmetric.MeterProvider {
	return sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(reader),
	)
}

// Metrics agrupa los instrumentos emitidos por handlers y servicios.
// Sin un MeterProvider registrado los instrumentos son no-op.
type Metrics struct {
	apiCalls       metric.Int64Counter
	apiDuration    metric.Float64Histogram
	storeDuration  metric.Float64Histogram
	notifyFailures metric.Int64Counter
}

// NewMetrics crea los instrumentos sobre el meter global; llamar despues de SetupMetrics.
func NewMetrics() (*Metrics, error) {
	return NewMetricsWithMeter(otel.Meter(instrumentationName))
}

func NewMetricsWithMeter(meter metric.Meter) (*Metrics, error) {
	apiCalls, err := meter.Int64Counter("api.count", metric.WithDescription("API calls by name"))
	if err != nil {
		return nil, err
	}
	apiDuration, err := meter.Float64Histogram("api.duration", metric.WithUnit("ms"))
	if err != nil {
		return nil, err
	}
	storeDuration, err := meter.Float64Histogram("store.duration", metric.WithUnit("ms"))
	if err != nil {
		return nil, err
	}
	notifyFailures, err := meter.Int64Counter("notify.failures", metric.WithDescription("Verification notifications that could not be published"))
	if err != nil {
		return nil, err
	}
	return &Metrics{
		apiCalls:       apiCalls,
		apiDuration:    apiDuration,
		storeDuration:  storeDuration,
		notifyFailures: notifyFailures,
	}, nil
}

// API registra una llamada y su duracion.
func (m *Metrics) API(ctx context.Context, name string, elapsed time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("api", name))
	m.apiCalls.Add(ctx, 1, attrs)
	m.apiDuration.Record(ctx, float64(elapsed.Microseconds())/1000, attrs)
}

// Store registra la duracion de una operacion contra la base o el object store.
func (m *Metrics) Store(ctx context.Context, op string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.storeDuration.Record(ctx, float64(elapsed.Microseconds())/1000, metric.WithAttributes(attribute.String("op", op)))
}

// NotifyFailure cuenta una notificacion descartada.
func (m *Metrics) NotifyFailure(ctx context.Context, channel string) {
	if m == nil {
		return
	}
	m.notifyFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("channel", channel)))
}
