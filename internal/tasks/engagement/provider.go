package engagement

import (
	loader "github.com/bionicotaku/lingo-services-feed/internal/infrastructure/config_loader"

	"github.com/bionicotaku/lingo-utils/gcpubsub"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/wire"
	"go.opentelemetry.io/otel/metric"
)

// ProviderSet 暴露事件发布器。
var ProviderSet = wire.NewSet(ProvidePublisher)

// ProvidePublisher 按 messaging.engagement 配置装配发布器。
func ProvidePublisher(pub gcpubsub.Publisher, cfg loader.Messaging, meter metric.Meter, logger log.Logger) *Publisher {
	return NewPublisher(FromGCPubSub(pub), Config{
		BufferSize:     cfg.Engagement.BufferSize,
		PublishTimeout: cfg.Engagement.PublishTimeout.Std(),
	}, meter, logger)
}
