package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/savagehomeschool/backend/internal/backup"
	"github.com/savagehomeschool/backend/internal/config"
	"github.com/savagehomeschool/backend/internal/contentapi"
	"github.com/savagehomeschool/backend/internal/logger"
	"github.com/savagehomeschool/backend/internal/mailer"
	"github.com/savagehomeschool/backend/internal/repositories"
	"github.com/savagehomeschool/backend/internal/tasks"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v\n", err)
	}

	// Initialize logger
	if err := logger.Init(cfg.Logging.Level); err != nil {
		log.Fatalf("Failed to initialize logger: %v\n", err)
	}
	defer logger.Sync()

	logger.Logger.Info("Starting Homeschool Worker")

	// Connect to database
	db, err := connectDB(cfg.DSN())
	if err != nil {
		logger.Logger.Fatal("Failed to connect to database", zap.Error(err))
		os.Exit(1)
	}
	defer db.Close()

	// Initialize repositories
	userRepo := repositories.NewUserRepository(db)
	lessonRepo := repositories.NewLessonRepository(db)
	progressRepo := repositories.NewProgressRepository(db)

	// Backup service
	backupSvc := backup.NewService(cfg.Uploads.BasePath, cfg.Backup.Dir, userRepo, lessonRepo, progressRepo, logger.Logger)

	// External content clients share one cache
	contentClient, err := contentapi.NewClient(cfg.Content.CacheDir, logger.Logger)
	if err != nil {
		logger.Logger.Fatal("Failed to initialize content cache", zap.Error(err))
		os.Exit(1)
	}
	khan := contentapi.NewKhanClient(contentClient)
	ck12 := contentapi.NewCK12Client(contentClient)
	nasa := contentapi.NewNASAClient(contentClient, cfg.Content.NASAAPIKey)

	// SMTP sender for the weekly report
	sender := mailer.NewSMTPSender(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password, cfg.SMTP.From)

	// Create Asynq server
	srv := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     cfg.RedisAddr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		},
		asynq.Config{
			Queues: map[string]int{
				"default": 1,
			},
		},
	)

	// Create worker instance
	worker := NewWorker(
		logger.Logger,
		userRepo,
		progressRepo,
		backupSvc,
		khan,
		ck12,
		nasa,
		sender,
	)

	// Register task handlers
	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeBackup, worker.HandleBackup)
	mux.HandleFunc(tasks.TypePrefetch, worker.HandlePrefetch)
	mux.HandleFunc(tasks.TypeWeeklyReport, worker.HandleWeeklyReport)

	// Start worker
	go func() {
		if err := srv.Run(mux); err != nil {
			logger.Logger.Fatal("Failed to start worker", zap.Error(err))
		}
	}()

	logger.Logger.Info("Worker started")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Logger.Info("Shutting down worker...")
	srv.Shutdown()
	logger.Logger.Info("Worker exited")
}

// connectDB connects to the database
func connectDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}
