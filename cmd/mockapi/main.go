package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/jfcardenas/storefront-core/internal/mockapi"
	"github.com/jfcardenas/storefront-core/pkg/config"
	"github.com/jfcardenas/storefront-core/pkg/logger"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "mockapi"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "mockapi",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	server, err := mockapi.NewServer(mockapi.ServerParams{
		Logger: logg,
		JWT:    cfg.JWT,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create mock backend", err)
		os.Exit(1)
	}

	addr := ":" + cfg.MockAPI.Port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting mock backend")

	httpServer := &http.Server{
		Addr:    addr,
		Handler: server.Handler(),
	}

	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "mock backend stopped unexpectedly", err)
		os.Exit(1)
	}
}
