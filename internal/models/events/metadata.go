// Package events 提供互动事件构造与元数据辅助函数，统一事件命名与属性。
package events

import (
	"context"
	"time"

	json "github.com/goccy/go-json"
	"go.opentelemetry.io/otel/trace"
)

// BuildAttributes 构造符合 Pub/Sub 约定的 message attributes。
func BuildAttributes(event EngagementEvent, schemaVersion string, traceID string) map[string]string {
	if schemaVersion == "" {
		schemaVersion = SchemaVersionV1
	}
	attrs := map[string]string{
		"event_id":       event.EventID.String(),
		"event_type":     event.Type,
		"aggregate_id":   event.UserID,
		"aggregate_type": AggregateTypeEngagement,
		"occurred_at":    event.OccurredAt.UTC().Format(time.RFC3339),
		"schema_version": schemaVersion,
	}
	if traceID != "" {
		attrs["trace_id"] = traceID
	}
	return attrs
}

// MarshalPayload 将事件编码为 JSON 消息体。
func MarshalPayload(event EngagementEvent) ([]byte, error) {
	return json.Marshal(event)
}

// TraceIDFromContext 提取 OTel Trace ID，若不存在返回空字符串。
func TraceIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	spanCtx := trace.SpanContextFromContext(ctx)
	if !spanCtx.IsValid() || !spanCtx.HasTraceID() {
		return ""
	}
	return spanCtx.TraceID().String()
}
