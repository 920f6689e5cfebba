package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	_ "github.com/go-sql-driver/mysql"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	_ "github.com/savagehomeschool/backend/docs"
	"github.com/savagehomeschool/backend/internal/auth"
	"github.com/savagehomeschool/backend/internal/backup"
	"github.com/savagehomeschool/backend/internal/config"
	"github.com/savagehomeschool/backend/internal/contentapi"
	"github.com/savagehomeschool/backend/internal/handlers"
	"github.com/savagehomeschool/backend/internal/logger"
	"github.com/savagehomeschool/backend/internal/middleware"
	"github.com/savagehomeschool/backend/internal/models"
	"github.com/savagehomeschool/backend/internal/repositories"
	"github.com/savagehomeschool/backend/internal/services"
	"github.com/savagehomeschool/backend/internal/storage"
)

// @title SavageHomeschool API
// @version 1.0
// @description API for family homeschool management

// @host localhost:8080
// @BasePath /api/v1
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
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

	logger.Logger.Info("Starting SavageHomeschool API")

	// Connect to database
	db, err := connectDB(cfg.DSN())
	if err != nil {
		logger.Logger.Fatal("Failed to connect to database", zap.Error(err))
		os.Exit(1)
	}
	defer db.Close()

	// Run migrations
	if err := runMigrations(db); err != nil {
		logger.Logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	// Initialize JWT token generator
	tokenGenerator := auth.NewTokenGenerator(
		cfg.JWT.Secret,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RefreshTokenExpiry,
	)

	// Initialize repositories
	userRepo := repositories.NewUserRepository(db)
	tokenRepo := repositories.NewTokenRepository(db)
	subjectRepo := repositories.NewSubjectRepository(db)
	lessonRepo := repositories.NewLessonRepository(db)
	quizRepo := repositories.NewQuizRepository(db)
	progressRepo := repositories.NewProgressRepository(db)
	activityRepo := repositories.NewActivityRepository(db)
	rewardRepo := repositories.NewRewardRepository(db)
	badgeRepo := repositories.NewBadgeRepository(db)
	readingRepo := repositories.NewReadingRepository(db)
	journalRepo := repositories.NewJournalRepository(db)

	// Bootstrap the initial admin account
	if err := ensureAdmin(context.Background(), userRepo); err != nil {
		logger.Logger.Fatal("Failed to bootstrap admin account", zap.Error(err))
	}

	// Lesson file storage
	lessonStorage := storage.NewLocalStorage(cfg.Uploads.BasePath)

	// External content clients share one cache
	contentClient, err := contentapi.NewClient(cfg.Content.CacheDir, logger.Logger)
	if err != nil {
		logger.Logger.Fatal("Failed to initialize content cache", zap.Error(err))
		os.Exit(1)
	}
	khan := contentapi.NewKhanClient(contentClient)
	ck12 := contentapi.NewCK12Client(contentClient)
	nasa := contentapi.NewNASAClient(contentClient, cfg.Content.NASAAPIKey)
	books := contentapi.NewOpenLibraryClient(contentClient)
	dictionary := contentapi.NewWordsClient(contentClient, cfg.Content.WordsAPIKey)

	// Initialize services
	authService := services.NewAuthService(userRepo, tokenRepo, activityRepo, tokenGenerator, logger.Logger)
	adminService := services.NewAdminService(userRepo, logger.Logger)
	subjectService := services.NewSubjectService(subjectRepo)
	lessonService := services.NewLessonService(lessonRepo, subjectRepo, lessonStorage, logger.Logger)
	quizService := services.NewQuizService(quizRepo, lessonRepo)
	progressService := services.NewProgressService(progressRepo, userRepo, badgeRepo, activityRepo, lessonRepo, logger.Logger)
	rewardService := services.NewRewardService(rewardRepo, userRepo, badgeRepo, activityRepo, logger.Logger)
	readingService := services.NewReadingService(readingRepo)
	journalService := services.NewJournalService(journalRepo)
	backupService := backup.NewService(cfg.Uploads.BasePath, cfg.Backup.Dir, userRepo, lessonRepo, progressRepo, logger.Logger)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService, logger.Logger)
	userHandler := handlers.NewUserHandler(adminService, logger.Logger)
	subjectHandler := handlers.NewSubjectHandler(subjectService, logger.Logger)
	lessonHandler := handlers.NewLessonHandler(lessonService, adminService, cfg.Uploads.MaxFileSize, logger.Logger)
	quizHandler := handlers.NewQuizHandler(quizService, logger.Logger)
	progressHandler := handlers.NewProgressHandler(progressService, logger.Logger)
	rewardHandler := handlers.NewRewardHandler(rewardService, logger.Logger)
	readingHandler := handlers.NewReadingHandler(readingService, logger.Logger)
	journalHandler := handlers.NewJournalHandler(journalService, logger.Logger)
	contentHandler := handlers.NewContentHandler(khan, ck12, nasa, books, dictionary, logger.Logger)
	backupHandler := handlers.NewBackupHandler(backupService, logger.Logger)

	// Initialize auth middleware
	authMiddleware := middleware.AuthMiddleware(tokenGenerator)
	parentMiddleware := middleware.RoleMiddleware(tokenGenerator, 2) // Parent role = 2
	adminMiddleware := middleware.RoleMiddleware(tokenGenerator, 3)  // Admin role = 3

	// Setup router
	r := chi.NewRouter()

	// Apply middleware
	r.Use(middleware.RequestIDMiddleware)
	r.Use(middleware.LoggerMiddleware(logger.Logger))
	r.Use(middleware.RecoveryMiddleware(logger.Logger))
	r.Use(middleware.CORSMiddleware(cfg.CORS.AllowedOrigins))
	r.Use(httprate.LimitByIP(100, time.Minute))
	r.Use(middleware.RequestSizeLimitMiddleware(cfg.Uploads.MaxFileSize + 1024*1024))

	// Swagger documentation
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL(fmt.Sprintf("http://localhost:%d/swagger/doc.json", cfg.Server.Port)),
	))

	// Scope router to /api/v1
	r.Route("/api/v1", func(r chi.Router) {
		// Public auth routes
		authHandler.RegisterRoutes(r)

		// Routes for any signed-in family member
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware)
			subjectHandler.RegisterRoutes(r)
			lessonHandler.RegisterRoutes(r)
			quizHandler.RegisterRoutes(r)
			progressHandler.RegisterRoutes(r)
			rewardHandler.RegisterRoutes(r)
			readingHandler.RegisterRoutes(r)
			journalHandler.RegisterRoutes(r)
			contentHandler.RegisterRoutes(r)
		})

		// Parent routes: lesson and quiz authoring, family overview
		r.Group(func(r chi.Router) {
			r.Use(parentMiddleware)
			lessonHandler.RegisterManageRoutes(r)
			quizHandler.RegisterManageRoutes(r)
			userHandler.RegisterFamilyRoutes(r)
		})

		// Admin routes
		r.Group(func(r chi.Router) {
			r.Use(adminMiddleware)
			userHandler.RegisterAdminRoutes(r)
			subjectHandler.RegisterAdminRoutes(r)
			rewardHandler.RegisterAdminRoutes(r)
		})

		// Backup and restore: admin plus the shared operations key when
		// one is configured, since ops automation hits these too
		r.Group(func(r chi.Router) {
			r.Use(adminMiddleware)
			if cfg.APIKey != "" {
				r.Use(middleware.APIKeyMiddleware(cfg.APIKey))
			}
			backupHandler.RegisterAdminRoutes(r)
		})
	})

	// Start server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Logger.Info("Server starting", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Logger.Info("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Logger.Info("Server exited")
}

// adminBootstrap is the interface ensureAdmin needs from the user repository
type adminBootstrap interface {
	GetAll(ctx context.Context, role *models.Role) ([]models.User, error)
	Create(ctx context.Context, user *models.User) error
}

// ensureAdmin creates the initial admin account when none exists yet.
// The password comes from ADMIN_PASSWORD and falls back to a default
// that should be changed after first login.
func ensureAdmin(ctx context.Context, userRepo adminBootstrap) error {
	role := models.RoleAdmin
	admins, err := userRepo.GetAll(ctx, &role)
	if err != nil {
		return fmt.Errorf("failed to check for admin accounts: %w", err)
	}
	if len(admins) > 0 {
		return nil
	}

	password := os.Getenv("ADMIN_PASSWORD")
	if password == "" {
		password = "admin123"
		logger.Logger.Warn("ADMIN_PASSWORD not set, using default admin password")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	admin := &models.User{
		Username:     "admin",
		PasswordHash: string(hash),
		Role:         models.RoleAdmin,
		Status:       models.UserStatusActive,
	}
	if err := userRepo.Create(ctx, admin); err != nil {
		return fmt.Errorf("failed to create admin account: %w", err)
	}

	logger.Logger.Info("Created initial admin account", zap.Int("user_id", admin.ID))
	return nil
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

// runMigrations runs database migrations
func runMigrations(db *sql.DB) error {
	driver, err := mysql.WithInstance(db, &mysql.Config{
		MigrationsTable: "homeschool_schema_migrations",
	})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	migrationPath := "file://migrations"
	if _, err := os.Stat("migrations"); os.IsNotExist(err) {
		// Try parent directory if running from cmd
		if _, err := os.Stat("../migrations"); err == nil {
			migrationPath = "file://../migrations"
		}
	}

	m, err := migrate.NewWithDatabaseInstance(
		migrationPath,
		"mysql",
		driver,
	)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}
