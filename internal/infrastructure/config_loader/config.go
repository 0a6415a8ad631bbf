package loader

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"
)

// Duration 支持以 "5s"、"1m30s" 或纳秒整数书写的时长配置。
type Duration time.Duration

// UnmarshalJSON 解析字符串或数字形式的时长。
func (d *Duration) UnmarshalJSON(b []byte) error {
	raw := strings.TrimSpace(string(b))
	if raw == "" || raw == "null" {
		*d = 0
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*d = 0
			return nil
		}
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", s, err)
		}
		*d = Duration(parsed)
		return nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid duration %s: %w", raw, err)
	}
	*d = Duration(n)
	return nil
}

// MarshalJSON 以字符串形式输出时长。
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// Std 转换为 time.Duration。
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Bootstrap 是服务配置文件的根结构。
type Bootstrap struct {
	Server        Server        `json:"server"`
	Data          Data          `json:"data"`
	Catalog       Catalog       `json:"catalog"`
	Feed          Feed          `json:"feed"`
	Messaging     Messaging     `json:"messaging"`
	Observability Observability `json:"observability"`
}

// Server 描述 HTTP 入口配置。
type Server struct {
	HTTP     HTTP           `json:"http"`
	Handlers HandlerTimeout `json:"handlers"`
}

// HTTP 监听与限流设置。
type HTTP struct {
	Network   string    `json:"network" validate:"omitempty,oneof=tcp tcp4 tcp6 unix"`
	Addr      string    `json:"addr" validate:"required"`
	Timeout   Duration  `json:"timeout" validate:"gte=0"`
	RateLimit RateLimit `json:"rate_limit"`
}

// RateLimit 按用户的令牌桶限流，RPS 为 0 时关闭。
type RateLimit struct {
	RPS   float64 `json:"rps" validate:"gte=0"`
	Burst int     `json:"burst" validate:"gte=0"`
}

// HandlerTimeout 按 Handler 类型区分的超时。
type HandlerTimeout struct {
	Default Duration `json:"default" validate:"gte=0"`
	Command Duration `json:"command" validate:"gte=0"`
	Query   Duration `json:"query" validate:"gte=0"`
}

// Data 描述数据源配置。
type Data struct {
	Postgres Postgres `json:"postgres"`
}

// Postgres 连接池与事务配置；DSN 为空时关闭持久化。
type Postgres struct {
	DSN                      string      `json:"dsn"`
	MaxOpenConns             int32       `json:"max_open_conns" validate:"gte=0"`
	MinOpenConns             int32       `json:"min_open_conns" validate:"gte=0"`
	MaxConnLifetime          Duration    `json:"max_conn_lifetime"`
	MaxConnIdleTime          Duration    `json:"max_conn_idle_time"`
	HealthCheckPeriod        Duration    `json:"health_check_period"`
	Schema                   string      `json:"schema"`
	EnablePreparedStatements bool        `json:"enable_prepared_statements"`
	Transaction              Transaction `json:"transaction"`
}

// Transaction 对应 txmanager.Config。
type Transaction struct {
	DefaultIsolation string   `json:"default_isolation" validate:"omitempty,oneof=read_committed repeatable_read serializable"`
	DefaultTimeout   Duration `json:"default_timeout"`
	LockTimeout      Duration `json:"lock_timeout"`
	MaxRetries       int      `json:"max_retries" validate:"gte=0"`
	MetricsEnabled   *bool    `json:"metrics_enabled"`
}

// Catalog 目录快照来源与刷新周期。
type Catalog struct {
	Source          string   `json:"source" validate:"oneof=file gcs postgres"`
	FilePath        string   `json:"file_path" validate:"required_if=Source file"`
	RefreshInterval Duration `json:"refresh_interval" validate:"gte=0"`
	GCS             GCS      `json:"gcs"`
}

// GCS 目录对象位置与熔断参数。
type GCS struct {
	Bucket  string   `json:"bucket"`
	Object  string   `json:"object"`
	Timeout Duration `json:"timeout"`
	Breaker Breaker  `json:"breaker"`
}

// Breaker 对应 gobreaker.Settings 的常用字段。
type Breaker struct {
	MaxRequests         uint32   `json:"max_requests"`
	Interval            Duration `json:"interval"`
	OpenTimeout         Duration `json:"open_timeout"`
	ConsecutiveFailures uint32   `json:"consecutive_failures"`
}

// Feed 个性化 Feed 参数。
type Feed struct {
	Seed           int64    `json:"seed"`
	ShuffleWindow  int      `json:"shuffle_window" validate:"gte=0"`
	PersistTimeout Duration `json:"persist_timeout"`
}

// Messaging 互动事件发布配置。
type Messaging struct {
	Engagement EngagementTopic `json:"engagement"`
}

// EngagementTopic 描述互动事件 Topic 与本地缓冲。
type EngagementTopic struct {
	Enabled          bool     `json:"enabled"`
	ProjectID        string   `json:"project_id"`
	TopicID          string   `json:"topic_id" validate:"required_if=Enabled true"`
	EmulatorEndpoint string   `json:"emulator_endpoint"`
	BufferSize       int      `json:"buffer_size" validate:"gte=0"`
	PublishTimeout   Duration `json:"publish_timeout"`
	EnableLogging    *bool    `json:"enable_logging"`
	EnableMetrics    *bool    `json:"enable_metrics"`
}

// Observability 追踪与指标导出配置。
type Observability struct {
	GlobalAttributes map[string]string `json:"global_attributes"`
	Tracing          *Tracing          `json:"tracing"`
	Metrics          *Metrics          `json:"metrics"`
}

// Tracing 追踪导出配置。
type Tracing struct {
	Enabled            bool              `json:"enabled"`
	Exporter           string            `json:"exporter"`
	Endpoint           string            `json:"endpoint"`
	Headers            map[string]string `json:"headers"`
	Insecure           bool              `json:"insecure"`
	SamplingRatio      float64           `json:"sampling_ratio" validate:"gte=0,lte=1"`
	BatchTimeout       Duration          `json:"batch_timeout"`
	ExportTimeout      Duration          `json:"export_timeout"`
	MaxQueueSize       int               `json:"max_queue_size"`
	MaxExportBatchSize int               `json:"max_export_batch_size"`
	Required           bool              `json:"required"`
}

// Metrics 指标导出配置；/metrics 端点始终可用，与此处导出器无关。
type Metrics struct {
	Enabled             bool              `json:"enabled"`
	Exporter            string            `json:"exporter"`
	Endpoint            string            `json:"endpoint"`
	Headers             map[string]string `json:"headers"`
	Insecure            bool              `json:"insecure"`
	Interval            Duration          `json:"interval"`
	DisableRuntimeStats bool              `json:"disable_runtime_stats"`
	Required            bool              `json:"required"`
}
