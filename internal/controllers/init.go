package controllers

import (
	loader "github.com/bionicotaku/lingo-services-feed/internal/infrastructure/config_loader"

	"github.com/google/wire"
)

// ProviderSet exposes controller/handler constructors for DI.
var ProviderSet = wire.NewSet(
	ProvideBaseHandler,
	NewEngagementHandler,
	NewFeedHandler,
	NewDiscoveryHandler,
)

// ProvideBaseHandler 从服务配置构造按类型区分超时的基础 Handler。
func ProvideBaseHandler(cfg loader.Server) *BaseHandler {
	return NewBaseHandler(HandlerTimeouts{
		Default: cfg.Handlers.Default.Std(),
		Command: cfg.Handlers.Command.Std(),
		Query:   cfg.Handlers.Query.Std(),
	})
}
