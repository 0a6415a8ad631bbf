// Package server 组装 HTTP 入口、指标端点与限流。
package server

import (
	stdhttp "net/http"

	"github.com/bionicotaku/lingo-services-feed/internal/controllers"
	loader "github.com/bionicotaku/lingo-services-feed/internal/infrastructure/config_loader"
	"github.com/bionicotaku/lingo-services-feed/internal/metadata"

	obsTrace "github.com/bionicotaku/lingo-utils/observability/tracing"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/middleware/logging"
	kmetrics "github.com/go-kratos/kratos/v2/middleware/metrics"
	"github.com/go-kratos/kratos/v2/middleware/recovery"
	"github.com/go-kratos/kratos/v2/transport/http"
)

// ReadyChecker 报告服务是否可以接流量（目录快照已加载）。
type ReadyChecker interface {
	Ready() bool
}

// NewHTTPServer new an HTTP server.
func NewHTTPServer(
	c loader.Server,
	tel *Telemetry,
	limiter *RateLimiter,
	ready ReadyChecker,
	engagement *controllers.EngagementHandler,
	feed *controllers.FeedHandler,
	discovery *controllers.DiscoveryHandler,
	logger log.Logger,
) *http.Server {
	var opts = []http.ServerOption{
		http.Middleware(
			obsTrace.Server(),
			recovery.Recovery(),
			metadata.Server(),
			kmetrics.Server(
				kmetrics.WithRequests(tel.RequestCounter),
				kmetrics.WithSeconds(tel.SecondsHistogram),
			),
			limiter.Middleware(),
			logging.Server(logger),
		),
	}
	if c.HTTP.Network != "" {
		opts = append(opts, http.Network(c.HTTP.Network))
	}
	if c.HTTP.Addr != "" {
		opts = append(opts, http.Address(c.HTTP.Addr))
	}
	if c.HTTP.Timeout > 0 {
		opts = append(opts, http.Timeout(c.HTTP.Timeout.Std()))
	}

	srv := http.NewServer(opts...)

	srv.Handle("/healthz", stdhttp.HandlerFunc(func(w stdhttp.ResponseWriter, _ *stdhttp.Request) {
		w.WriteHeader(stdhttp.StatusOK)
	}))
	srv.Handle("/readyz", stdhttp.HandlerFunc(func(w stdhttp.ResponseWriter, _ *stdhttp.Request) {
		if ready != nil && !ready.Ready() {
			w.WriteHeader(stdhttp.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(stdhttp.StatusOK)
	}))
	srv.Handle("/metrics", tel.MetricsHandler())

	r := srv.Route("/v1")
	engagement.Register(r)
	feed.Register(r)
	discovery.Register(r)
	return srv
}
