// Package main runs the background job worker (grade finalization).
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/timuslala/projektowanie-systemow-informatycznych/config"
	"github.com/timuslala/projektowanie-systemow-informatycznych/internal/access"
	"github.com/timuslala/projektowanie-systemow-informatycznych/internal/courses"
	"github.com/timuslala/projektowanie-systemow-informatycznych/internal/quizzes"
	"github.com/timuslala/projektowanie-systemow-informatycznych/internal/realtime"
	"github.com/timuslala/projektowanie-systemow-informatycznych/internal/worker"
	"github.com/timuslala/projektowanie-systemow-informatycznych/pkg/database"
	"github.com/timuslala/projektowanie-systemow-informatycznych/pkg/queue"
	"github.com/timuslala/projektowanie-systemow-informatycznych/pkg/redis"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	// No hub here: finalize events go straight to the quiz channel for the servers to relay.
	policy := access.NewPolicy(courses.NewRepository(pool))
	quizService := quizzes.NewService(quizzes.NewRepository(pool), policy, realtime.NewRedisPubSub(rdb.Client, logger), nil, quizzes.Options{
		BackfillOnReview:   cfg.Quiz.BackfillOnReview,
		MaxSubmissionItems: cfg.Quiz.MaxSubmissionItems,
	}, logger)
	jobQueue := queue.NewQueue(rdb.Client, logger)
	processor := worker.NewGradeProcessor(quizService, jobQueue, logger)

	workerCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go processor.Run(workerCtx)
	logger.Info("worker started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	cancel()
	time.Sleep(2 * time.Second)
	logger.Info("worker stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
