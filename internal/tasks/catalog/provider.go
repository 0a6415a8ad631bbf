package catalog

import (
	"context"
	"fmt"

	loader "github.com/bionicotaku/lingo-services-feed/internal/infrastructure/config_loader"
	"github.com/bionicotaku/lingo-services-feed/internal/infrastructure/gcs"
	"github.com/bionicotaku/lingo-services-feed/internal/repositories"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/wire"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/metric"
)

// ProviderSet 暴露目录来源与刷新任务。
var ProviderSet = wire.NewSet(ProvideSource, ProvideRefresher)

// ProvideSource 按 catalog.source 选择目录来源。
func ProvideSource(ctx context.Context, cfg loader.Catalog, pool *pgxpool.Pool, logger log.Logger) (repositories.CatalogSource, func(), error) {
	noop := func() {}
	switch cfg.Source {
	case "", "file":
		return repositories.NewFileCatalogSource(cfg.FilePath), noop, nil
	case "postgres":
		if pool == nil {
			return nil, nil, fmt.Errorf("catalog source postgres requires data.postgres.dsn")
		}
		return repositories.NewPostgresCatalogSource(pool, logger), noop, nil
	case "gcs":
		reader, cleanup, err := gcs.NewStorageReader(ctx)
		if err != nil {
			return nil, nil, err
		}
		src, err := gcs.NewCatalogSource(reader, cfg.GCS.Bucket, cfg.GCS.Object, cfg.GCS.Timeout.Std(), gcs.BreakerSettings{
			MaxRequests:         cfg.GCS.Breaker.MaxRequests,
			Interval:            cfg.GCS.Breaker.Interval.Std(),
			OpenTimeout:         cfg.GCS.Breaker.OpenTimeout.Std(),
			ConsecutiveFailures: cfg.GCS.Breaker.ConsecutiveFailures,
		}, logger)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		return src, cleanup, nil
	default:
		return nil, nil, fmt.Errorf("unknown catalog source %q", cfg.Source)
	}
}

// ProvideRefresher 装配目录刷新任务。
func ProvideRefresher(source repositories.CatalogSource, repo *repositories.CatalogRepository, cfg loader.Catalog, meter metric.Meter, logger log.Logger) *Refresher {
	return NewRefresher(source, repo, cfg.RefreshInterval.Std(), meter, logger)
}
