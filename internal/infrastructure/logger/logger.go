// Package logger 基于 gclog 构造结构化日志，附带链路与请求上下文字段。
package logger

import (
	"context"
	"os"

	loader "github.com/bionicotaku/lingo-services-feed/internal/infrastructure/config_loader"
	"github.com/bionicotaku/lingo-services-feed/internal/metadata"

	gclog "github.com/bionicotaku/lingo-utils/gclog"

	"github.com/go-kratos/kratos/v2/log"
	"go.opentelemetry.io/otel/trace"
)

// Config captures runtime metadata used to annotate logs.
type Config struct {
	Service string
	Version string
	HostID  string
	Env     string
}

// NewLogger builds a Kratos-compatible logger with trace/span enrichment.
// 每条日志附带 trace_id/span_id 以及请求头中的 user_id/request_id。
func NewLogger(cfg Config) (log.Logger, error) {
	baseLogger, err := gclog.NewLogger(
		gclog.WithService(cfg.Service),
		gclog.WithVersion(cfg.Version),
		gclog.WithEnvironment(cfg.Env),
		gclog.WithStaticLabels(map[string]string{"service.id": cfg.HostID}),
		gclog.EnableSourceLocation(),
	)
	if err != nil {
		return nil, err
	}
	return log.With(
		baseLogger,
		"trace_id", TraceID(),
		"span_id", SpanID(),
		"user_id", UserID(),
		"request_id", RequestID(),
	), nil
}

// TraceID 返回当前 span 的 trace id，无 span 时为空串。
func TraceID() log.Valuer {
	return func(ctx context.Context) interface{} {
		sc := trace.SpanContextFromContext(ctx)
		if sc.HasTraceID() {
			return sc.TraceID().String()
		}
		return ""
	}
}

// SpanID 返回当前 span id。
func SpanID() log.Valuer {
	return func(ctx context.Context) interface{} {
		sc := trace.SpanContextFromContext(ctx)
		if sc.HasSpanID() {
			return sc.SpanID().String()
		}
		return ""
	}
}

// UserID 返回请求元数据中的用户 ID。
func UserID() log.Valuer {
	return func(ctx context.Context) interface{} {
		return metadata.UserID(ctx)
	}
}

// RequestID 返回请求元数据中的 request id。
func RequestID() log.Valuer {
	return func(ctx context.Context) interface{} {
		if meta, ok := metadata.FromContext(ctx); ok {
			return meta.RequestID
		}
		return ""
	}
}

// ConfigFromMetadata 由服务元信息构造日志配置。
func ConfigFromMetadata(meta loader.ServiceMetadata) Config {
	cfg := Config{Service: meta.Name, Version: meta.Version, HostID: meta.InstanceID, Env: meta.Environment}
	if cfg.Service == "" {
		cfg.Service = "lingo-services-feed"
	}
	if cfg.Version == "" {
		cfg.Version = "dev"
	}
	if cfg.HostID == "" {
		cfg.HostID, _ = os.Hostname()
	}
	if cfg.Env == "" {
		cfg.Env = "development"
	}
	return cfg
}
