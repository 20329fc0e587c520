// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"localdynamo/internal/config"
	"localdynamo/internal/db"
	"localdynamo/internal/ddb"
	"localdynamo/internal/logging"
	"localdynamo/internal/resource"
	"localdynamo/internal/router"
	"localdynamo/internal/snapshot"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	flag.StringVar(&cfg.Addr, "addr", cfg.Addr, "HTTP listen address")
	flag.StringVar(&cfg.SnapshotBackend, "snapshot-backend", cfg.SnapshotBackend, "snapshot backend: none, file, bolt or postgres")
	flag.StringVar(&cfg.SnapshotPath, "snapshot-path", cfg.SnapshotPath, "snapshot directory (file) or database file (bolt)")
	flag.StringVar(&cfg.PostgresDSN, "pg-dsn", cfg.PostgresDSN, "postgres DSN for the postgres backend")
	flag.DurationVar(&cfg.SnapshotDelay, "snapshot-delay", cfg.SnapshotDelay, "debounce delay between a write and its snapshot")
	flag.BoolVar(&cfg.Shared, "shared", cfg.Shared, "serve every caller from one shared namespace")
	flag.Parse()
	if err := cfg.Validate(); err != nil {
		panic(err)
	}

	logger, err := logging.New(logging.Options{
		Format: cfg.LogFormat,
		Level:  cfg.LogLevel,
		File:   cfg.LogFile,
	})
	if err != nil {
		panic(err)
	}
	zap.ReplaceGlobals(logger)
	defer logger.Sync()

	if err := run(cfg); err != nil {
		zap.L().Fatal("localdynamo exited", zap.Error(err))
	}
}

func run(cfg config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	namespaces := ddb.NewNamespaces(cfg.Shared)

	backend, err := openBackend(cfg)
	if err != nil {
		return err
	}

	var notifier *snapshot.Persister
	if backend != nil {
		defer backend.Close()
		if err := snapshot.Restore(ctx, backend, namespaces); err != nil {
			return err
		}
		notifier = snapshot.NewPersister(backend, namespaces, cfg.SnapshotDelay)
	}

	var handler http.Handler
	if notifier != nil {
		handler = router.New(namespaces, notifier)
	} else {
		handler = router.New(namespaces, nil)
	}

	srv := &http.Server{
		Addr:           cfg.Addr,
		Handler:        handler,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   15 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		zap.L().Info("server started", zap.String("addr", cfg.Addr), zap.Bool("shared", cfg.Shared))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "http server")
		}
		return nil
	})
	eg.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return errors.WithStack(srv.Shutdown(shutdownCtx))
	})
	if notifier != nil {
		eg.Go(func() error {
			return notifier.Run(ctx)
		})
	}

	return eg.Wait()
}

// openBackend returns nil when snapshots are disabled.
func openBackend(cfg config.Config) (snapshot.Backend, error) {
	switch cfg.SnapshotBackend {
	case config.BackendFile:
		return snapshot.NewFileBackend(cfg.SnapshotPath)
	case config.BackendBolt:
		return snapshot.NewBoltBackend(cfg.SnapshotPath)
	case config.BackendPostgres:
		pg, err := db.Connect(cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		return snapshot.NewSQLBackend(resource.NewGormStore(pg)), nil
	}
	return nil, nil
}
