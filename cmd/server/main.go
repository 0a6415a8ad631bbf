// Package main boots the Kratos HTTP entrypoint for the feed service.
package main

import (
	"context"
	"flag"
	"os"
	"time"

	loader "github.com/bionicotaku/lingo-services-feed/internal/infrastructure/config_loader"
	loginfra "github.com/bionicotaku/lingo-services-feed/internal/infrastructure/logger"
	"github.com/bionicotaku/lingo-services-feed/internal/server"
	"github.com/bionicotaku/lingo-services-feed/internal/services"
	"github.com/bionicotaku/lingo-services-feed/internal/tasks/catalog"
	"github.com/bionicotaku/lingo-services-feed/internal/tasks/engagement"

	"github.com/bionicotaku/lingo-utils/observability"
	"github.com/go-kratos/kratos/v2"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/transport/http"

	_ "go.uber.org/automaxprocs"
)

// go build -ldflags "-X main.Version=x.y.z"
var (
	// Name is the name of the compiled software.
	Name string
	// Version is the version of the compiled software.
	Version string
)

func newApp(
	logger log.Logger,
	meta loader.ServiceMetadata,
	hs *http.Server,
	refresher *catalog.Refresher,
	publisher *engagement.Publisher,
	limiter *server.RateLimiter,
	registry *services.SessionRegistry,
) *kratos.App {
	name := meta.Name
	if Name != "" {
		name = Name
	}
	version := meta.Version
	if Version != "" {
		version = Version
	}
	return kratos.New(
		kratos.ID(meta.InstanceID),
		kratos.Name(name),
		kratos.Version(version),
		kratos.Metadata(map[string]string{"environment": meta.Environment}),
		kratos.Logger(logger),
		kratos.Server(
			hs,
			refresher,
			publisher,
			limiter,
		),
		// 在发布器与连接池关闭前落盘所有会话。
		kratos.BeforeStop(func(ctx context.Context) error {
			registry.CloseAll(ctx)
			return nil
		}),
	)
}

func main() {
	// Parse command-line flags (currently only -conf).
	fs := flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	confPath, err := loader.ParseConfPath(fs, os.Args[1:])
	if err != nil {
		panic(err)
	}

	// Load configuration, apply env overrides and validate.
	bundle, err := loader.Build(loader.Params{ConfPath: confPath})
	if err != nil {
		panic(err)
	}

	// Build the structured logger used by the entire application.
	loggr, err := loginfra.NewLogger(loginfra.ConfigFromMetadata(bundle.Service))
	if err != nil {
		panic(err)
	}

	obsShutdown, err := observability.Init(context.Background(), bundle.ObsConfig,
		observability.WithLogger(loggr),
		observability.WithServiceName(bundle.Service.Name),
		observability.WithServiceVersion(bundle.Service.Version),
		observability.WithEnvironment(bundle.Service.Environment),
	)
	if err != nil {
		panic(err)
	}
	defer func() {
		if obsShutdown == nil {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := obsShutdown(ctx); err != nil {
			log.NewHelper(loggr).Warnf("shutdown observability: %v", err)
		}
	}()

	// Assemble all dependencies via Wire and create the Kratos app.
	app, cleanupApp, err := wireApp(context.Background(), bundle, loggr)
	if err != nil {
		panic(err)
	}
	defer cleanupApp()

	// Start the application and block until a stop signal is received.
	if err := app.Run(); err != nil {
		panic(err)
	}
}
