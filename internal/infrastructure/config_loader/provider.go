package loader

import (
	"github.com/bionicotaku/lingo-services-feed/internal/services"

	obswire "github.com/bionicotaku/lingo-utils/observability"
	"github.com/bionicotaku/lingo-utils/txmanager"
	"github.com/google/wire"
)

// ProviderSet exposes configuration-derived dependencies for Wire graphs.
var ProviderSet = wire.NewSet(
	ProvideServiceMetadata,
	ProvideBootstrap,
	ProvideServerConfig,
	ProvideDataConfig,
	ProvidePostgresConfig,
	ProvideCatalogConfig,
	ProvideMessagingConfig,
	ProvideRegistryConfig,
	ProvideObservabilityConfig,
	ProvideObservabilityInfo,
	ProvideTxConfig,
)

// ProvideServiceMetadata returns the resolved ServiceMetadata from the bundle.
func ProvideServiceMetadata(b *Bundle) ServiceMetadata {
	if b == nil {
		return ServiceMetadata{}
	}
	return b.Service
}

// ProvideBootstrap exposes the strongly typed bootstrap configuration.
func ProvideBootstrap(b *Bundle) *Bootstrap {
	if b == nil || b.Bootstrap == nil {
		return &Bootstrap{}
	}
	return b.Bootstrap
}

// ProvideServerConfig returns the server section of the bootstrap configuration.
func ProvideServerConfig(bc *Bootstrap) Server {
	return bc.Server
}

// ProvideDataConfig returns the data section of the bootstrap configuration.
func ProvideDataConfig(bc *Bootstrap) Data {
	return bc.Data
}

// ProvidePostgresConfig 返回 Postgres 连接配置。
func ProvidePostgresConfig(data Data) Postgres {
	return data.Postgres
}

// ProvideCatalogConfig 返回目录来源配置。
func ProvideCatalogConfig(bc *Bootstrap) Catalog {
	return bc.Catalog
}

// ProvideMessagingConfig 返回互动事件发布配置。
func ProvideMessagingConfig(bc *Bootstrap) Messaging {
	return bc.Messaging
}

// ProvideRegistryConfig 将 feed 配置转换为会话注册表参数。
func ProvideRegistryConfig(bc *Bootstrap) services.RegistryConfig {
	return services.RegistryConfig{
		Seed:           bc.Feed.Seed,
		ShuffleWindow:  bc.Feed.ShuffleWindow,
		PersistTimeout: bc.Feed.PersistTimeout.Std(),
	}
}

// ProvideObservabilityConfig exposes the normalized observability configuration.
func ProvideObservabilityConfig(b *Bundle) obswire.ObservabilityConfig {
	if b == nil {
		return obswire.ObservabilityConfig{}
	}
	return b.ObsConfig
}

// ProvideObservabilityInfo 将服务元信息转换为 observability.ServiceInfo。
func ProvideObservabilityInfo(meta ServiceMetadata) obswire.ServiceInfo {
	return meta.ObservabilityInfo()
}

// ProvideTxConfig 返回事务管理器配置。
func ProvideTxConfig(b *Bundle) txmanager.Config {
	if b == nil {
		return txmanager.Config{}
	}
	return b.TxConfig
}
