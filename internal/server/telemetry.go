package server

import (
	"context"
	"net/http"
	"time"

	loader "github.com/bionicotaku/lingo-services-feed/internal/infrastructure/config_loader"

	"github.com/go-kratos/kratos/v2/log"
	kmetrics "github.com/go-kratos/kratos/v2/middleware/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	promexp "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// Telemetry 持有 feed 服务的 MeterProvider、HTTP 请求指标与 Prometheus 注册表。
type Telemetry struct {
	MeterProvider      *sdkmetric.MeterProvider
	Meter              metric.Meter
	RequestCounter     metric.Int64Counter
	SecondsHistogram   metric.Float64Histogram
	PrometheusRegistry *prometheus.Registry
}

// NewTelemetry 构造本地 MeterProvider 并挂载 Prometheus exporter。
// 不注册为全局 provider；互动、Feed、目录与事件发布指标都经 ProvideMeter 注入，由 /metrics 输出。
func NewTelemetry(meta loader.ServiceMetadata, logger log.Logger) (*Telemetry, func(), error) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
	exporter, err := promexp.New(
		promexp.WithRegisterer(registry),
		promexp.WithoutUnits(),
	)
	if err != nil {
		return nil, nil, err
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(exporter),
		sdkmetric.WithView(kmetrics.DefaultSecondsHistogramView(kmetrics.DefaultServerSecondsHistogramName)),
	)

	name := meta.Name
	if name == "" {
		name = "lingo-services-feed"
	}
	meter := mp.Meter(name)

	requestCounter, err := kmetrics.DefaultRequestsCounter(meter, kmetrics.DefaultServerRequestsCounterName)
	if err != nil {
		return nil, nil, err
	}
	secondsHistogram, err := kmetrics.DefaultSecondsHistogram(meter, kmetrics.DefaultServerSecondsHistogramName)
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := mp.Shutdown(ctx); err != nil {
			log.NewHelper(logger).Warnf("shutdown meter provider: %v", err)
		}
	}

	return &Telemetry{
		MeterProvider:      mp,
		Meter:              meter,
		RequestCounter:     requestCounter,
		SecondsHistogram:   secondsHistogram,
		PrometheusRegistry: registry,
	}, cleanup, nil
}

// ProvideMeter 暴露服务级 Meter 供业务指标使用。
func ProvideMeter(t *Telemetry) metric.Meter {
	return t.Meter
}

// MetricsHandler 以 Prometheus 文本格式输出指标。
func (t *Telemetry) MetricsHandler() http.Handler {
	return promhttp.HandlerFor(t.PrometheusRegistry, promhttp.HandlerOpts{})
}
