// Package main runs the omnissiah combat server: the armoury web API and dice
// feed, the combat gRPC service, and the telnet chat bot.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"

	"github.com/cory-johannsen/omnissiah/internal/armoury"
	"github.com/cory-johannsen/omnissiah/internal/config"
	"github.com/cory-johannsen/omnissiah/internal/feed"
	"github.com/cory-johannsen/omnissiah/internal/frontend/handlers"
	"github.com/cory-johannsen/omnissiah/internal/frontend/telnet"
	"github.com/cory-johannsen/omnissiah/internal/game/combat"
	"github.com/cory-johannsen/omnissiah/internal/game/command"
	"github.com/cory-johannsen/omnissiah/internal/game/dice"
	"github.com/cory-johannsen/omnissiah/internal/game/weapon"
	"github.com/cory-johannsen/omnissiah/internal/gameserver"
	"github.com/cory-johannsen/omnissiah/internal/observability"
	"github.com/cory-johannsen/omnissiah/internal/render"
	"github.com/cory-johannsen/omnissiah/internal/scripting"
	"github.com/cory-johannsen/omnissiah/internal/server"
	"github.com/cory-johannsen/omnissiah/internal/storage/postgres"
	"github.com/cory-johannsen/omnissiah/internal/storage/sqlite"
	"github.com/cory-johannsen/omnissiah/internal/web"
)

const healthInterval = 30 * time.Second

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging, cfg.Server.Name)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("starting omnissiah",
		zap.String("storage", cfg.Storage.Backend),
		zap.Bool("seeded", cfg.Combat.Deterministic()),
	)

	ctx := context.Background()
	lifecycle := server.NewLifecycle(logger, cfg.Server.ShutdownTimeout)

	store, err := openStore(ctx, cfg, lifecycle, logger)
	if err != nil {
		logger.Fatal("opening storage", zap.Error(err))
	}

	src := dice.NewCryptoSource()
	if cfg.Combat.Deterministic() {
		src = dice.NewSeededSource(cfg.Combat.Seed)
	}
	roller := dice.NewLoggedRoller(src, logger)

	opts := []combat.Option{combat.WithMaxFuryDepth(cfg.Combat.MaxFuryDepth)}
	if cfg.Content.ScriptsDir != "" {
		scripts := scripting.NewManager(roller, logger, cfg.Content.ScriptInstructionLimit)
		defer scripts.Close()
		if err := scripts.LoadDir(cfg.Content.ScriptsDir); err != nil {
			logger.Fatal("loading special rule scripts", zap.Error(err))
		}
		logger.Info("special rules loaded", zap.Strings("scripts", scripts.Loaded()))
		opts = append(opts, combat.WithSpecials(scripting.NewSpecials(scripts)))
	}
	resolver := combat.NewResolver(combat.DefaultCatalog(), roller, logger, opts...)

	ws, err := weapon.LoadWeapons(cfg.Content.WeaponsDir)
	if err != nil {
		logger.Fatal("loading preset weapons", zap.Error(err))
	}
	presets, err := weapon.NewRegistry(ws)
	if err != nil {
		logger.Fatal("indexing preset weapons", zap.Error(err))
	}
	logger.Info("preset weapons loaded", zap.Int("count", len(ws)))

	hub := feed.NewHub(logger)
	svc := gameserver.NewCombatService(resolver, armoury.NewService(store, logger), presets, roller, hub, logger)

	if cfg.HTTP.Enabled {
		webServer := web.NewServer(cfg.HTTP, svc, hub, logger)
		lifecycle.Add("http", &server.FuncService{
			StartFn: webServer.Start,
			StopFn: func() {
				webServer.Stop()
				hub.Close()
			},
		})
	}

	if cfg.GRPC.Enabled {
		grpcServer := grpc.NewServer()
		gameserver.RegisterCombatServiceServer(grpcServer, gameserver.NewGRPCServer(svc, logger))
		lifecycle.Add("grpc", &server.FuncService{
			StartFn: func() error {
				lis, err := net.Listen("tcp", cfg.GRPC.Addr())
				if err != nil {
					return fmt.Errorf("listening on %s: %w", cfg.GRPC.Addr(), err)
				}
				logger.Info("gRPC server listening", zap.String("addr", lis.Addr().String()))
				return grpcServer.Serve(lis)
			},
			StopFn: grpcServer.GracefulStop,
		})
	}

	if cfg.Telnet.Enabled {
		dispatcher := command.NewDispatcher(command.DefaultRegistry(), svc, render.ANSI, logger)
		acceptor := telnet.NewAcceptor(cfg.Telnet, handlers.NewBotHandler(dispatcher, logger), logger)
		lifecycle.Add("telnet", acceptor)
	}

	logger.Info("server initialized",
		zap.Duration("startup", time.Since(start)),
		zap.String("http_addr", cfg.HTTP.Addr()),
		zap.String("grpc_addr", cfg.GRPC.Addr()),
		zap.String("telnet_addr", cfg.Telnet.Addr()),
	)

	if err := lifecycle.Run(ctx); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}

// openStore builds the configured armoury backend and registers anything
// that needs closing with lifecycle.
func openStore(ctx context.Context, cfg config.Config, lifecycle *server.Lifecycle, logger *zap.Logger) (armoury.Store, error) {
	switch cfg.Storage.Backend {
	case config.BackendMemory:
		return armoury.NewMemoryStore(), nil

	case config.BackendSQLite:
		store, err := sqlite.Open(ctx, cfg.Storage.SQLitePath)
		if err != nil {
			return nil, err
		}
		logger.Info("sqlite opened", zap.String("path", cfg.Storage.SQLitePath))
		lifecycle.Add("sqlite", &server.FuncService{
			StartFn: func() error { return nil },
			StopFn: func() {
				if err := store.Close(); err != nil {
					logger.Warn("closing sqlite", zap.Error(err))
				}
			},
		})
		return store, nil

	case config.BackendPostgres:
		dbStart := time.Now()
		pool, err := postgres.NewPool(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		logger.Info("database connected",
			zap.String("host", cfg.Database.Host),
			zap.Int("port", cfg.Database.Port),
			zap.String("database", cfg.Database.Name),
			zap.Duration("elapsed", time.Since(dbStart)),
		)
		done := make(chan struct{})
		lifecycle.Add("postgres", &server.FuncService{
			StartFn: func() error {
				ticker := time.NewTicker(healthInterval)
				defer ticker.Stop()
				for {
					select {
					case <-done:
						return nil
					case <-ticker.C:
						if err := pool.Health(ctx, 5*time.Second); err != nil {
							logger.Warn("database health check failed", zap.Error(err))
						}
					}
				}
			},
			StopFn: func() {
				close(done)
				pool.Close()
			},
		})
		return postgres.NewWeaponRepository(pool.DB()), nil
	}
	return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
}
