package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/janisto/iquant-greeting/internal/platform/config"
	applog "github.com/janisto/iquant-greeting/internal/platform/logging"
	"github.com/janisto/iquant-greeting/internal/server"
)

// Version can be overridden at build time: -ldflags "-X main.Version=1.2.3"
var Version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	applog.SetVersion(Version)

	// baseCtx outlives the signal context so logging after shutdown still has a live context.
	baseCtx := context.Background()
	defer func() {
		if err := applog.Sync(); err != nil {
			applog.LogError(baseCtx, "logger sync error", err)
		}
	}()
	if err := applog.Err(); err != nil {
		applog.LogError(baseCtx, "logger init error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		applog.LogError(baseCtx, "config load failed", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(baseCtx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := server.New(cfg, Version)
	if err := srv.ListenAndServe(ctx); err != nil {
		applog.LogError(baseCtx, "server failed", err, zap.String("addr", cfg.Addr()))
		return 1
	}
	applog.LogInfo(baseCtx, "server exited")
	return 0
}
