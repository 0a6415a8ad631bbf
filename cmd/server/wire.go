//go:build wireinject
// +build wireinject

// The build tag makes sure the stub is not built in the final build.

package main

import (
	"context"

	"github.com/bionicotaku/lingo-services-feed/internal/controllers"
	loader "github.com/bionicotaku/lingo-services-feed/internal/infrastructure/config_loader"
	"github.com/bionicotaku/lingo-services-feed/internal/infrastructure/database"
	"github.com/bionicotaku/lingo-services-feed/internal/infrastructure/pubsub"
	"github.com/bionicotaku/lingo-services-feed/internal/repositories"
	"github.com/bionicotaku/lingo-services-feed/internal/server"
	"github.com/bionicotaku/lingo-services-feed/internal/services"
	"github.com/bionicotaku/lingo-services-feed/internal/tasks/catalog"
	"github.com/bionicotaku/lingo-services-feed/internal/tasks/engagement"

	"github.com/go-kratos/kratos/v2"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/wire"
)

// wireApp init kratos application.
func wireApp(context.Context, *loader.Bundle, log.Logger) (*kratos.App, func(), error) {
	panic(wire.Build(
		loader.ProviderSet,
		database.ProviderSet,
		pubsub.ProviderSet,
		repositories.ProviderSet,
		catalog.ProviderSet,
		engagement.ProviderSet,
		services.ProviderSet,
		controllers.ProviderSet,
		server.ProviderSet,
		wire.Bind(new(services.EventSink), new(*engagement.Publisher)),
		newApp,
	))
}
