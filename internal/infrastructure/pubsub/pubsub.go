// Package pubsub 基于 lingo-utils/gcpubsub 构造互动事件发布器。
package pubsub

import (
	"context"
	"errors"
	"fmt"
	"strings"

	loader "github.com/bionicotaku/lingo-services-feed/internal/infrastructure/config_loader"

	"github.com/bionicotaku/lingo-utils/gcpubsub"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/wire"
	"golang.org/x/oauth2/google"
)

const pubsubScope = "https://www.googleapis.com/auth/pubsub"

// ProviderSet 暴露发布器构造函数。
var ProviderSet = wire.NewSet(NewPublisher)

// ErrProjectIDRequired 表示既未配置也无法从默认凭据推断 GCP 项目。
var ErrProjectIDRequired = errors.New("pubsub: project id is required")

// ProjectResolver 在配置缺省时推断项目 ID。
type ProjectResolver func(ctx context.Context) (string, error)

// DefaultCredentialsProject 从 Application Default Credentials 读取项目 ID。
func DefaultCredentialsProject(ctx context.Context) (string, error) {
	creds, err := google.FindDefaultCredentials(ctx, pubsubScope)
	if err != nil {
		return "", fmt.Errorf("find default credentials: %w", err)
	}
	if creds.ProjectID == "" {
		return "", ErrProjectIDRequired
	}
	return creds.ProjectID, nil
}

// NewPublisher 构造互动事件 Topic 的发布器。
// 事件发布关闭时返回 nil 发布器，调用方只在本地丢弃事件。
func NewPublisher(ctx context.Context, cfg loader.Messaging, meta loader.ServiceMetadata, logger log.Logger) (gcpubsub.Publisher, func(), error) {
	return newPublisher(ctx, cfg.Engagement, meta, logger, DefaultCredentialsProject)
}

// NewPublisherWithResolver 与 NewPublisher 相同，但允许替换项目推断逻辑。
func NewPublisherWithResolver(ctx context.Context, cfg loader.Messaging, meta loader.ServiceMetadata, logger log.Logger, resolve ProjectResolver) (gcpubsub.Publisher, func(), error) {
	return newPublisher(ctx, cfg.Engagement, meta, logger, resolve)
}

func newPublisher(ctx context.Context, topic loader.EngagementTopic, meta loader.ServiceMetadata, logger log.Logger, resolve ProjectResolver) (gcpubsub.Publisher, func(), error) {
	helper := log.NewHelper(logger)
	if !topic.Enabled {
		helper.Info("engagement event publishing disabled")
		return nil, func() {}, nil
	}

	projectID := strings.TrimSpace(topic.ProjectID)
	if projectID == "" && resolve != nil {
		resolved, err := resolve(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("resolve pubsub project: %w", err)
		}
		projectID = resolved
	}
	if projectID == "" {
		return nil, nil, ErrProjectIDRequired
	}

	component, cleanup, err := gcpubsub.NewComponent(ctx, gcpubsub.Config{
		ProjectID:        projectID,
		TopicID:          topic.TopicID,
		EnableLogging:    topic.EnableLogging,
		EnableMetrics:    topic.EnableMetrics,
		MeterName:        meterName(meta),
		EmulatorEndpoint: topic.EmulatorEndpoint,
	}, gcpubsub.Dependencies{Logger: logger})
	if err != nil {
		return nil, nil, fmt.Errorf("init pubsub component: %w", err)
	}
	helper.Infof("engagement publisher ready: project=%s topic=%s emulator=%v", projectID, topic.TopicID, topic.EmulatorEndpoint != "")
	return gcpubsub.ProvidePublisher(component), cleanup, nil
}

func meterName(meta loader.ServiceMetadata) string {
	name := meta.Name
	if name == "" {
		name = "lingo-services-feed"
	}
	return name + ".gcpubsub"
}
