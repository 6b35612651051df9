package bootstrap

import (
	"context"
	"log/slog"

	"go.uber.org/fx"
	"gorm.io/gorm"

	"klasboek/internal/bootstrap/config"
	"klasboek/internal/bootstrap/database"
	"klasboek/internal/bootstrap/logging"
	cacheinfra "klasboek/internal/infrastructure/cache"
	sqliterepo "klasboek/internal/infrastructure/persistence/sqlite/repository"
	sqliteuow "klasboek/internal/infrastructure/persistence/sqlite/uow"
	summarizerinfra "klasboek/internal/infrastructure/summarizer"
	"klasboek/internal/ports"
	"klasboek/internal/usecase/events"
)

var Module = fx.Options(
	fx.Provide(provideConfig),
	fx.Provide(provideDatabase),
	fx.Provide(provideApp),
	fx.Provide(
		fx.Annotate(
			sqliterepo.NewClassEventRepository,
			fx.As(new(ports.ClassEventRepository)),
		),
	),
	fx.Provide(
		fx.Annotate(
			sqliteuow.NewUnitOfWork,
			fx.As(new(ports.UnitOfWork)),
		),
	),
	fx.Provide(
		fx.Annotate(
			cacheinfra.NewSQLiteCache,
			fx.As(new(ports.Cache)),
		),
	),
	fx.Provide(provideSummarizer),
	fx.Provide(events.NewService),
)

type configParams struct {
	fx.In

	Ctx        context.Context
	ConfigFile string `name:"configFile"`
}

func provideConfig(p configParams) (config.Config, error) {
	ctx := logging.WithAttrs(p.Ctx, slog.String("component", "bootstrap.fx"))
	return config.Load(ctx, p.ConfigFile)
}

func provideDatabase(lc fx.Lifecycle, ctx context.Context, cfg config.Config) (*gorm.DB, error) {
	logCtx := logging.WithAttrs(ctx, slog.String("component", "bootstrap.fx"))

	db, err := database.Open(logCtx, cfg.Database)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		},
	})

	return db, nil
}

func provideSummarizer(cfg config.Config) ports.Summarizer {
	return summarizerinfra.NewOpenAISummarizer(cfg.Summarizer.APIKey, cfg.Summarizer.Model)
}

func provideApp(cfg config.Config, db *gorm.DB) *App {
	return &App{
		Config: cfg,
		DB:     db,
	}
}
