// Command calyptrad runs a CalDAV server backed by the in-memory store.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/calyptra/calyptra/server"
	"github.com/calyptra/calyptra/server/auth"
	"github.com/calyptra/calyptra/server/auth/htpasswd"
	"github.com/calyptra/calyptra/server/storage/memory"
)

func main() {
	cfg := loadConfig()
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	var backend auth.Backend
	if cfg.HtpasswdPath != "" {
		b, err := htpasswd.Load(cfg.HtpasswdPath)
		if err != nil {
			logger.Error("failed to load credentials", "path", cfg.HtpasswdPath, "error", err)
			os.Exit(1)
		}
		backend = b
	}

	handler := server.NewHandler(memory.New(), backend, server.Config{
		Realm:          cfg.Realm,
		DefaultCharset: cfg.DefaultCharset,
	}, logger)

	srv := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      newRouter(cfg, handler),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("server listening", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
}
