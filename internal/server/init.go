package server

import (
	"github.com/bionicotaku/lingo-services-feed/internal/tasks/catalog"

	"github.com/google/wire"
)

// ProviderSet bundles the HTTP server, telemetry and rate limiter providers for Wire.
var ProviderSet = wire.NewSet(
	NewTelemetry,
	ProvideMeter,
	ProvideRateLimiter,
	NewHTTPServer,
	wire.Bind(new(ReadyChecker), new(*catalog.Refresher)),
)
