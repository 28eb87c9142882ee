package fx

import (
	"pvp-tracker/internal/api"
	"pvp-tracker/internal/config"
	"pvp-tracker/internal/database"
	"pvp-tracker/internal/logger"
	"pvp-tracker/internal/repository"
	"pvp-tracker/internal/service"

	"go.uber.org/fx"
)

var Module = fx.Options(
	fx.Provide(logger.New),
	fx.Provide(config.Load),
	fx.Provide(database.New),
	// repos
	fx.Provide(repository.NewCharacterRepository),
	fx.Provide(repository.NewSnapshotRepository),
	fx.Provide(repository.NewRatingChangeRepository),
	// api client
	fx.Provide(api.NewBlizzardClient),
	fx.Provide(func(c *api.BlizzardClient) service.BracketFetcher { return c }),
	// svc
	fx.Provide(service.NewPoller),
	fx.Provide(service.NewStatsService),
)
