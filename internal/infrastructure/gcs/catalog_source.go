// Package gcs 提供与 Google Cloud Storage 交互的基础设施封装。
package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/bionicotaku/lingo-services-feed/internal/models/po"
	"github.com/bionicotaku/lingo-services-feed/internal/repositories/mappers"

	"cloud.google.com/go/storage"
	"github.com/go-kratos/kratos/v2/log"
	gobreaker "github.com/sony/gobreaker/v2"
)

// ObjectReader 抽象对象读取，便于在测试中替换 storage.Client。
type ObjectReader interface {
	ReadObject(ctx context.Context, bucket, object string) ([]byte, error)
}

// BreakerSettings 对应 gobreaker.Settings 的常用字段。
type BreakerSettings struct {
	MaxRequests         uint32
	Interval            time.Duration
	OpenTimeout         time.Duration
	ConsecutiveFailures uint32
}

// CatalogSource 从 GCS 对象读取目录快照。
//
// 读取经由熔断器：连续失败达到阈值后，后续刷新直接返回 gobreaker.ErrOpenState，
// 直到 OpenTimeout 之后进入半开状态重试。
type CatalogSource struct {
	reader  ObjectReader
	bucket  string
	object  string
	timeout time.Duration
	cb      *gobreaker.CircuitBreaker[[]byte]
	log     *log.Helper
}

// NewCatalogSource 构造 GCS 目录源。
func NewCatalogSource(reader ObjectReader, bucket, object string, timeout time.Duration, breaker BreakerSettings, logger log.Logger) (*CatalogSource, error) {
	if reader == nil {
		return nil, errors.New("gcs catalog source: reader is required")
	}
	if bucket == "" || object == "" {
		return nil, errors.New("gcs catalog source: bucket and object are required")
	}
	helper := log.NewHelper(logger)
	failures := breaker.ConsecutiveFailures
	if failures == 0 {
		failures = 3
	}

	name := fmt.Sprintf("gcs-catalog:%s/%s", bucket, object)
	cb := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        name,
		MaxRequests: breaker.MaxRequests,
		Interval:    breaker.Interval,
		Timeout:     breaker.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			helper.Warnf("circuit breaker state changed: name=%s from=%s to=%s", name, from, to)
		},
	})

	return &CatalogSource{
		reader:  reader,
		bucket:  bucket,
		object:  object,
		timeout: timeout,
		cb:      cb,
		log:     helper,
	}, nil
}

// Name 返回来源标识。
func (s *CatalogSource) Name() string {
	return fmt.Sprintf("gcs://%s/%s", s.bucket, s.object)
}

// State 返回熔断器当前状态。
func (s *CatalogSource) State() gobreaker.State {
	return s.cb.State()
}

// Load 读取并解析目录对象。解析失败不计入熔断统计。
func (s *CatalogSource) Load(ctx context.Context) (*po.CatalogSnapshot, error) {
	data, err := s.cb.Execute(func() ([]byte, error) {
		readCtx := ctx
		if s.timeout > 0 {
			var cancel context.CancelFunc
			readCtx, cancel = context.WithTimeout(ctx, s.timeout)
			defer cancel()
		}
		return s.reader.ReadObject(readCtx, s.bucket, s.object)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			s.log.WithContext(ctx).Warnf("catalog load rejected by breaker: source=%s", s.Name())
		}
		return nil, fmt.Errorf("read catalog object: %w", err)
	}
	return mappers.DecodeCatalog(data)
}

// StorageReader 基于 storage.Client 实现 ObjectReader。
type StorageReader struct {
	client *storage.Client
}

// NewStorageReader 使用默认凭据创建 storage.Client，返回 cleanup。
func NewStorageReader(ctx context.Context) (*StorageReader, func(), error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("create storage client: %w", err)
	}
	return &StorageReader{client: client}, func() { _ = client.Close() }, nil
}

// ReadObject 读取完整对象内容。
func (r *StorageReader) ReadObject(ctx context.Context, bucket, object string) ([]byte, error) {
	rc, err := r.client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
