package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/ecomm-dev/accounts/backend/internal/router"
	"github.com/ecomm-dev/accounts/backend/internal/setup"
	"github.com/ecomm-dev/accounts/shared/config"
	"github.com/ecomm-dev/accounts/shared/logger"
)

func main() {
	var configFolder string
	flag.StringVar(&configFolder, "config_folder", "backend/config", "path to folder with configs")
	flag.Parse()

	cfg := config.MustLoad(configFolder)

	logger.Initialize(cfg.Public.Log.Level, cfg.Public.Log.JSON)
	incidents := logger.InitializeIncidents(cfg.Public.Log.IncidentFile)
	defer incidents.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := setup.SetupDependencies(ctx, cfg)
	if err != nil {
		logger.Log.Error("failed to initialize dependencies", "error", err)
		// os.Exit skips deferred calls
		stop()
		incidents.Close()
		os.Exit(1)
	}

	if deps.LoginLimiter != nil {
		go deps.LoginLimiter.Run(ctx, time.Minute)
	}

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.Public.HttpPort),
		Handler:           router.New(deps),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Log.Info("server started", "addr", srv.Addr, "storage", cfg.Public.Storage.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error("graceful shutdown failed", "error", err)
	}
	if err := deps.Storage.Close(shutdownCtx); err != nil {
		logger.Log.Error("failed to close storage", "error", err)
	}
}
