package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/agenthands/meddesert/internal/app"
	"github.com/agenthands/meddesert/internal/config"
	"github.com/agenthands/meddesert/internal/logging"
	"github.com/agenthands/meddesert/internal/server"
)

func main() {
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found, using environment")
	}

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config/config.toml"
	}
	cfg, err := config.LoadOrDefault(cfgPath)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	cfg.ApplyEnv()

	logger := logging.New(cfg.Log)
	gin.SetMode(cfg.Server.Mode)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	container, err := app.Build(ctx, cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize")
	}
	defer container.Close(context.Background())

	srv := server.NewServer(container.ServerDeps())
	if err := server.ListenAndServe(ctx, srv.SetupRouter(), cfg.Server.Port, logger); err != nil {
		logger.WithError(err).Error("Server failed")
	}
}
