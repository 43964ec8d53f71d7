// Package main provides the all-in-one map server. It loads every configured
// map source and serves them to browsers over HTTP and WebSocket and, when
// enabled, to Telnet clients.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/mudmap/internal/config"
	"github.com/cory-johannsen/mudmap/internal/frontend/handlers"
	"github.com/cory-johannsen/mudmap/internal/frontend/telnet"
	"github.com/cory-johannsen/mudmap/internal/game/scene"
	"github.com/cory-johannsen/mudmap/internal/game/session"
	"github.com/cory-johannsen/mudmap/internal/game/view"
	"github.com/cory-johannsen/mudmap/internal/game/world"
	"github.com/cory-johannsen/mudmap/internal/observability"
	"github.com/cory-johannsen/mudmap/internal/render/ansi"
	"github.com/cory-johannsen/mudmap/internal/server"
	"github.com/cory-johannsen/mudmap/internal/storage/memory"
	"github.com/cory-johannsen/mudmap/internal/storage/postgres"
	"github.com/cory-johannsen/mudmap/internal/web"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	colors := flag.Bool("colors", true, "color the Telnet map")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	ctx := context.Background()

	// Load every map source; any failure is fatal.
	sources, err := world.SourcesFromConfig(cfg.Maps)
	if err != nil {
		logger.Fatal("reading map sources", zap.Error(err))
	}
	store := world.NewStore(observability.Component(logger, "store"))
	if err := store.LoadAll(ctx, sources); err != nil {
		logger.Fatal("loading maps", zap.Error(err))
	}
	logger.Info("maps loaded", zap.Int("sources", store.Len()), zap.Strings("names", store.Sources()))

	preparer := world.NewPreparer(observability.Component(logger, "preparer"))
	builder := scene.NewBuilder(scene.PolicyFromConfig(cfg.Render), observability.Component(logger, "scene"))
	viewers := session.NewManager()
	defaults := view.Defaults{Source: cfg.Maps.DefaultSource, AreaID: cfg.Maps.DefaultArea}

	lifecycle := server.NewLifecycle(logger)

	var bookmarks web.BookmarkStore = memory.NewBookmarkStore()
	if cfg.Database.Enabled {
		dbStart := time.Now()
		pool, err := postgres.Connect(ctx, cfg.Database)
		if err != nil {
			logger.Fatal("connecting to database", zap.Error(err))
		}
		logger.Info("database connected",
			zap.String("host", cfg.Database.Host),
			zap.Int("port", cfg.Database.Port),
			zap.String("database", cfg.Database.Name),
			zap.Duration("elapsed", time.Since(dbStart)),
		)
		bookmarks = postgres.NewBookmarkRepository(pool.DB())

		dbLogger := observability.Component(logger, "postgres")
		monitor := server.NewBackground(func(ctx context.Context) {
			pool.Monitor(ctx, 30*time.Second, dbLogger)
		})
		lifecycle.Add("postgres", &server.FuncService{
			StartFn: monitor.Start,
			StopFn: func() {
				monitor.Stop()
				pool.Close()
			},
		})
	}

	webServer := web.NewServer(cfg.HTTP, store, preparer, builder, viewers, bookmarks, defaults, observability.Component(logger, "web"))
	lifecycle.Add("http", &server.FuncService{
		StartFn: webServer.ListenAndServe,
		StopFn:  webServer.Stop,
	})

	if cfg.Telnet.Enabled {
		mapHandler := handlers.NewMapHandler(store, preparer, builder, viewers, ansi.New(*colors), defaults, observability.Component(logger, "browser"))
		acceptor := telnet.NewAcceptor(cfg.Telnet, mapHandler, observability.Component(logger, "telnet"))
		lifecycle.Add("telnet", &server.FuncService{
			StartFn: acceptor.ListenAndServe,
			StopFn:  acceptor.Stop,
		})
	}

	logger.Info("server initialized",
		zap.Strings("sources", store.Sources()),
		zap.String("http_addr", cfg.HTTP.Addr()),
		zap.Bool("telnet", cfg.Telnet.Enabled),
		zap.Bool("database", cfg.Database.Enabled),
		zap.Strings("services", lifecycle.Names()),
		zap.Duration("startup", time.Since(start)),
	)

	if err := lifecycle.Run(ctx); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}
