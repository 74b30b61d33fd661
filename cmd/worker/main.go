// Package main runs the notification delivery worker.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Hamayesh-Negar/Back-end/config"
	"github.com/Hamayesh-Negar/Back-end/internal/notifications"
	"github.com/Hamayesh-Negar/Back-end/internal/worker"
	"github.com/Hamayesh-Negar/Back-end/pkg/queue"
	"github.com/Hamayesh-Negar/Back-end/pkg/redis"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	jobQueue := queue.NewQueue(rdb.Client, logger)
	fcm := notifications.NewFCMClient(cfg.FCM, logger)
	if !fcm.Enabled() {
		logger.Warn("no FCM server key configured, notifications will be dropped")
	}

	processor := worker.NewProcessor(jobQueue, fcm, logger)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		cancel()
	}()

	processor.Run(ctx)
	logger.Info("worker stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
