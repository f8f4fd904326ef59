package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/YouWantToPinch/dashboard-api/internal/api"
	"github.com/YouWantToPinch/dashboard-api/internal/auth"
	"github.com/YouWantToPinch/dashboard-api/internal/blob"
	"github.com/YouWantToPinch/dashboard-api/internal/config"
	"github.com/YouWantToPinch/dashboard-api/internal/logging"
	"github.com/YouWantToPinch/dashboard-api/internal/realtime"
	"github.com/YouWantToPinch/dashboard-api/internal/resource"
	"github.com/YouWantToPinch/dashboard-api/internal/server"
	"github.com/YouWantToPinch/dashboard-api/internal/store/storage"
)

// changeQueueSize buffers mutations waiting to be pushed to sockets.
const changeQueueSize = 256

func main() {
	if err := run(); err != nil {
		log.Fatalf("run app: %v", err)
	}
}

func run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Parse(".env")
	if err != nil {
		return err
	}

	logger, err := logging.InitGlobal(os.Stdout, cfg.App.LogLevel, cfg.App.Pretty)
	if err != nil {
		return fmt.Errorf("init logger: %v", err)
	}

	store, err := storage.Open(ctx, storage.Options{
		Driver:   cfg.Store.Driver,
		DSN:      cfg.Store.DSN,
		Database: cfg.Store.Database,
		Attempts: cfg.Store.ConnectAttempts,
		Logger:   logger,
	})
	if err != nil {
		return fmt.Errorf("open store: %v", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("close store", slog.Any("err", err))
		}
	}()

	avatars, err := blob.NewAvatars(cfg.Uploads.Dir, cfg.Uploads.MaxAvatarBytes)
	if err != nil {
		return fmt.Errorf("init uploads: %v", err)
	}

	outbox := resource.NewOutbox(changeQueueSize, logger)
	hub := realtime.NewHub(logger)
	defer hub.Close()
	dispatcher := realtime.NewDispatcher(hub, outbox.Changes(), logger)

	apiCfg := api.NewAPIConfig(api.Options{
		Store:      store,
		Sink:       outbox,
		Tokens:     auth.NewIssuer(cfg.Auth.Secret, cfg.Auth.TokenTTL),
		Hub:        hub,
		Avatars:    avatars,
		Platform:   cfg.App.Platform,
		ClientURLs: cfg.HTTP.ClientURLs,
		Logger:     logger,
	})

	srv, err := server.New(server.Options{
		Addr:            cfg.HTTP.Addr,
		Handler:         api.SetupMux(apiCfg),
		ShutdownTimeout: cfg.HTTP.ShutdownTimeout,
		Logger:          logger,
	})
	if err != nil {
		return fmt.Errorf("init http server: %v", err)
	}

	eg, ctx := errgroup.WithContext(ctx)

	eg.Go(func() error { return srv.Run(ctx) })
	eg.Go(func() error { return dispatcher.Run(ctx) })
	eg.Go(func() error {
		// hijacked sockets are not drained by http.Server.Shutdown
		<-ctx.Done()
		hub.Close()
		return nil
	})

	if err := eg.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("wait app stop: %v", err)
	}

	return nil
}
