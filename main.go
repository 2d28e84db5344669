package main

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/chwoo19999-a11y/my-first-project/config"
	"github.com/chwoo19999-a11y/my-first-project/routes"
	"github.com/chwoo19999-a11y/my-first-project/services"
	"github.com/chwoo19999-a11y/my-first-project/store"
	"github.com/chwoo19999-a11y/my-first-project/utils"
)

func main() {
	cfg := config.Load()

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}
	defer func() { _ = utils.Logger.Sync() }()

	backend, closeBackend := openBackend(cfg)

	opts := []store.Option{}
	if cfg.SeedDemoData {
		opts = append(opts, store.WithSeeder(store.DemoSeeder(cfg.SeedRandom, 5)))
	}
	st := store.New(backend, opts...)
	svc := services.New(st, cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if repairs, err := svc.Posts.Reconcile(ctx); err != nil {
		utils.Logger.Error("reconcile failed", zap.Error(err))
	} else {
		utils.Logger.Info("store ready", zap.String("driver", cfg.StorageDriver), zap.Int("repairs", repairs))
	}
	cancel()

	r := routes.SetupRouter(svc)

	srv := utils.NewServer(":"+cfg.AppPort, r, utils.DefaultReadTimeout, utils.DefaultWriteTimeout)
	srv.OnShutdown(func(context.Context) error { return utils.CloseRedis() })
	srv.OnShutdown(func(context.Context) error { return closeBackend() })

	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
	if err := srv.ListenAndServe(); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}

// openBackend picks flat files or a SQL snapshot table from the configured driver.
func openBackend(cfg config.AppConfig) (store.Backend, func() error) {
	if cfg.StorageDriver == "file" {
		fb, err := store.NewFileBackend(cfg.DataDir)
		if err != nil {
			utils.Sugar.Fatalf("open data dir: %v", err)
		}
		return fb, func() error { return nil }
	}

	db, err := config.OpenDatabase(cfg)
	if err != nil {
		utils.Sugar.Fatalf("open database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		utils.Sugar.Fatalf("get sql.DB: %v", err)
	}
	return store.NewGormBackend(db), sqlDB.Close
}
