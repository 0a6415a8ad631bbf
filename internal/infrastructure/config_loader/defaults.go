package loader

import "time"

const (
	// defaultConfPath is the fallback configuration directory when no overrides are provided.
	defaultConfPath = "configs"
	// defaultEnvironment is used when APP_ENV is missing.
	defaultEnvironment = "development"
	// defaultServiceName is used when SERVICE_NAME is missing.
	defaultServiceName = "lingo-services-feed"
	// defaultServiceVersion is used when SERVICE_VERSION is missing.
	defaultServiceVersion = "dev"

	defaultHTTPAddr          = "0.0.0.0:8000"
	defaultCatalogSource     = "file"
	defaultCatalogFile       = "configs/catalog.json"
	defaultRefreshInterval   = time.Minute
	defaultGCSTimeout        = 10 * time.Second
	defaultBreakerInterval   = time.Minute
	defaultBreakerOpen       = 30 * time.Second
	defaultBreakerFailures   = 3
	defaultShuffleWindow     = 10
	defaultPersistTimeout    = 3 * time.Second
	defaultEventBufferSize   = 256
	defaultPublishTimeout    = 5 * time.Second
	defaultCommandTimeout    = 5 * time.Second
	defaultQueryTimeout      = 3 * time.Second
	defaultTxIsolation       = "read_committed"
	defaultTxTimeout         = 3 * time.Second
	defaultEngagementTopicID = "feed-engagement-events"
)

// applyDefaults 为缺省字段填充默认值，在环境变量覆盖之前执行。
func applyDefaults(bc *Bootstrap) {
	if bc == nil {
		return
	}
	if bc.Server.HTTP.Addr == "" {
		bc.Server.HTTP.Addr = defaultHTTPAddr
	}
	if bc.Server.Handlers.Command == 0 {
		bc.Server.Handlers.Command = Duration(defaultCommandTimeout)
	}
	if bc.Server.Handlers.Query == 0 {
		bc.Server.Handlers.Query = Duration(defaultQueryTimeout)
	}

	if bc.Catalog.Source == "" {
		bc.Catalog.Source = defaultCatalogSource
	}
	if bc.Catalog.Source == "file" && bc.Catalog.FilePath == "" {
		bc.Catalog.FilePath = defaultCatalogFile
	}
	if bc.Catalog.RefreshInterval == 0 {
		bc.Catalog.RefreshInterval = Duration(defaultRefreshInterval)
	}
	if bc.Catalog.GCS.Timeout == 0 {
		bc.Catalog.GCS.Timeout = Duration(defaultGCSTimeout)
	}
	if bc.Catalog.GCS.Breaker.Interval == 0 {
		bc.Catalog.GCS.Breaker.Interval = Duration(defaultBreakerInterval)
	}
	if bc.Catalog.GCS.Breaker.OpenTimeout == 0 {
		bc.Catalog.GCS.Breaker.OpenTimeout = Duration(defaultBreakerOpen)
	}
	if bc.Catalog.GCS.Breaker.ConsecutiveFailures == 0 {
		bc.Catalog.GCS.Breaker.ConsecutiveFailures = defaultBreakerFailures
	}

	if bc.Feed.ShuffleWindow == 0 {
		bc.Feed.ShuffleWindow = defaultShuffleWindow
	}
	if bc.Feed.PersistTimeout == 0 {
		bc.Feed.PersistTimeout = Duration(defaultPersistTimeout)
	}

	engagement := &bc.Messaging.Engagement
	if engagement.TopicID == "" {
		engagement.TopicID = defaultEngagementTopicID
	}
	if engagement.BufferSize == 0 {
		engagement.BufferSize = defaultEventBufferSize
	}
	if engagement.PublishTimeout == 0 {
		engagement.PublishTimeout = Duration(defaultPublishTimeout)
	}

	tx := &bc.Data.Postgres.Transaction
	if tx.DefaultIsolation == "" {
		tx.DefaultIsolation = defaultTxIsolation
	}
	if tx.DefaultTimeout == 0 {
		tx.DefaultTimeout = Duration(defaultTxTimeout)
	}
}
