// Package main runs the course platform HTTP server with the quiz live feed and graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/timuslala/projektowanie-systemow-informatycznych/config"
	"github.com/timuslala/projektowanie-systemow-informatycznych/internal/access"
	"github.com/timuslala/projektowanie-systemow-informatycznych/internal/auth"
	"github.com/timuslala/projektowanie-systemow-informatycznych/internal/courses"
	"github.com/timuslala/projektowanie-systemow-informatycznych/internal/middleware"
	"github.com/timuslala/projektowanie-systemow-informatycznych/internal/models"
	"github.com/timuslala/projektowanie-systemow-informatycznych/internal/modules"
	"github.com/timuslala/projektowanie-systemow-informatycznych/internal/questionbanks"
	"github.com/timuslala/projektowanie-systemow-informatycznych/internal/questions"
	"github.com/timuslala/projektowanie-systemow-informatycznych/internal/quizzes"
	"github.com/timuslala/projektowanie-systemow-informatycznych/internal/realtime"
	"github.com/timuslala/projektowanie-systemow-informatycznych/internal/worker"
	"github.com/timuslala/projektowanie-systemow-informatycznych/pkg/database"
	"github.com/timuslala/projektowanie-systemow-informatycznych/pkg/queue"
	"github.com/timuslala/projektowanie-systemow-informatycznych/pkg/redis"
	"github.com/timuslala/projektowanie-systemow-informatycznych/pkg/response"
	"github.com/timuslala/projektowanie-systemow-informatycznych/pkg/storage"
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

	if err := database.Migrate(ctx, pool, logger); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	// Module images are optional; without a region the image endpoints answer 503.
	var images modules.ImageStore
	if cfg.AWS.Region != "" {
		s3Client, err := storage.NewS3(ctx, storage.S3Config{
			Region:               cfg.AWS.Region,
			AccessKeyID:          cfg.AWS.AccessKeyID,
			SecretAccessKey:      cfg.AWS.SecretAccessKey,
			MediaBucket:          cfg.AWS.MediaBucket,
			PresignExpireMinutes: cfg.AWS.PresignExpireMinutes,
		}, logger)
		if err != nil {
			logger.Warn("s3 disabled", zap.Error(err))
		} else {
			images = s3Client
		}
	}

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)
	redisPubSub := realtime.NewRedisPubSub(rdb.Client, logger)
	hub := realtime.NewHub(logger, redisPubSub, redisPubSub)

	// Courses double as the enrollment directory behind every access check.
	courseRepo := courses.NewRepository(pool)
	policy := access.NewPolicy(courseRepo)
	courseHandler := courses.NewHandler(courseRepo, policy, logger)

	authRepo := auth.NewRepository(pool)
	authHandler := auth.NewHandler(authRepo, policy, jwtService, logger)

	moduleRepo := modules.NewRepository(pool)
	moduleHandler := modules.NewHandler(moduleRepo, courseRepo, policy, images, logger)

	questionRepo := questions.NewRepository(pool)
	questionHandler := questions.NewHandler(questionRepo, logger)

	bankRepo := questionbanks.NewRepository(pool)
	bankHandler := questionbanks.NewHandler(bankRepo, logger)

	// Quiz engine; finalize requests go through the Redis job queue.
	jobQueue := queue.NewQueue(rdb.Client, logger)
	quizRepo := quizzes.NewRepository(pool)
	quizService := quizzes.NewService(quizRepo, policy, hub, worker.NewQueueEnqueuer(jobQueue), quizzes.Options{
		BackfillOnReview:   cfg.Quiz.BackfillOnReview,
		MaxSubmissionItems: cfg.Quiz.MaxSubmissionItems,
	}, logger)
	quizHandler := quizzes.NewHandler(quizService, logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(config.SplitOrigins(cfg.Server.CORSAllowedOrigins)))
	router.Use(middleware.Logger(logger))

	// Health
	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })

	// Accounts (public)
	accounts := router.Group("/accounts")
	{
		accounts.POST("/register", authHandler.Register)
		accounts.GET("/validate", authHandler.Validate)
		accounts.POST("/token", authHandler.Login)
		accounts.GET("/users/:id", middleware.JWT(jwtService.Identify), authHandler.UserInfo)
	}

	staff := middleware.RequireRole(models.RoleInstructor, models.RoleAdmin)

	// Protected API (JWT required)
	api := router.Group("/api")
	api.Use(middleware.JWT(jwtService.Identify))
	{
		// Courses
		api.GET("/courses", courseHandler.List)
		api.POST("/courses", staff, courseHandler.Create)
		api.GET("/courses/:id", courseHandler.Get)
		api.PUT("/courses/:id", courseHandler.Update)
		api.DELETE("/courses/:id", courseHandler.Delete)
		api.GET("/courses/:id/enrolled-students", courseHandler.EnrolledStudents)
		api.GET("/courses/:id/eligible-students", courseHandler.EligibleStudents)
		api.POST("/courses/:id/enroll/:student_id", courseHandler.Enroll)
		api.DELETE("/courses/:id/unenroll/:student_id", courseHandler.Unenroll)

		// Modules
		api.GET("/courses/:id/modules", moduleHandler.List)
		api.POST("/courses/:id/modules", moduleHandler.Create)
		api.GET("/courses/:id/modules/:module_id", moduleHandler.Get)
		api.PUT("/courses/:id/modules/:module_id", moduleHandler.Update)
		api.DELETE("/courses/:id/modules/:module_id", moduleHandler.Delete)
		api.PUT("/courses/:id/modules/:module_id/image", moduleHandler.UploadImage)
		api.GET("/courses/:id/modules/:module_id/image", moduleHandler.ImageURL)

		// Question authoring (instructors and admins)
		api.GET("/questions", staff, questionHandler.List)
		api.POST("/questions", staff, questionHandler.Create)
		api.GET("/questions/:id", staff, questionHandler.Get)
		api.PUT("/questions/:id", staff, questionHandler.Update)
		api.PATCH("/questions/:id", staff, questionHandler.Update)
		api.DELETE("/questions/:id", staff, questionHandler.Delete)

		api.GET("/question_banks", staff, bankHandler.List)
		api.POST("/question_banks", staff, bankHandler.Create)
		api.GET("/question_banks/:id", staff, bankHandler.Get)
		api.PUT("/question_banks/:id", staff, bankHandler.Rename)
		api.DELETE("/question_banks/:id", staff, bankHandler.Delete)
		api.GET("/question_banks/:id/questions", staff, bankHandler.Questions)
		api.POST("/question_banks/:id/questions", staff, bankHandler.AddQuestion)
		api.DELETE("/question_banks/:id/questions/:question_id", staff, bankHandler.RemoveQuestion)

		// Quizzes
		api.GET("/quizzes", quizHandler.List)
		api.POST("/quizzes", staff, quizHandler.Create)
		api.GET("/quizzes/:id", quizHandler.Get)
		api.PUT("/quizzes/:id", staff, quizHandler.Update)
		api.DELETE("/quizzes/:id", staff, quizHandler.Delete)
		api.GET("/quizzes/:id/questions", quizHandler.Questions)
		api.POST("/quizzes/:id/submit", quizHandler.Submit)
		api.GET("/quizzes/:id/review", quizHandler.Review)
		api.GET("/quizzes/:id/submissions", quizHandler.Submissions)
		api.GET("/quizzes/:id/submissions/:user_id", quizHandler.StudentSubmission)
		api.POST("/quizzes/:id/submissions/:user_id/finalize", quizHandler.Finalize)
		api.POST("/quizzes/grade_response/:response_id", quizHandler.Grade)
	}

	// Live quiz feed (token in query; no Authorization header required)
	router.GET("/ws", realtime.ServeWs(hub, logger, jwtService.Identify, quizService))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Background worker (grade finalization)
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()
	if cfg.Server.RunWorker {
		go worker.NewGradeProcessor(quizService, jobQueue, logger).Run(workerCtx)
		logger.Info("grading worker started")
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	workerCancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
