// Package services 编排互动状态账本、个性化 Feed 与发现类查询。
package services

import (
	"github.com/bionicotaku/lingo-services-feed/internal/repositories"

	"github.com/google/wire"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ProviderSet is services providers.
var ProviderSet = wire.NewSet(
	NewMetrics,
	ProvideStateRepository,
	NewSessionRegistry,
	NewDiscoveryService,
	wire.Bind(new(Catalog), new(*repositories.CatalogRepository)),
)

// ProvideStateRepository 在未配置数据库时返回 nil，会话仅保存在内存中。
func ProvideStateRepository(pool *pgxpool.Pool, repo *repositories.EngagementStateRepository) StateRepository {
	if pool == nil || repo == nil {
		return nil
	}
	return repo
}
