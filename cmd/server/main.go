package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/MohammadAghaei1/Misinformation-detector/internal/config"
	"github.com/MohammadAghaei1/Misinformation-detector/internal/handler"
	"github.com/MohammadAghaei1/Misinformation-detector/internal/hf"
	"github.com/MohammadAghaei1/Misinformation-detector/internal/repository"
	"github.com/MohammadAghaei1/Misinformation-detector/internal/scraper"
	"github.com/MohammadAghaei1/Misinformation-detector/internal/server"
	"github.com/MohammadAghaei1/Misinformation-detector/internal/service"
	"github.com/MohammadAghaei1/Misinformation-detector/internal/tavily"
)

func main() {
	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	logger.Info("Starting Misinformation Detector...")

	// .env first, so ${VAR} references in the YAML resolve
	if err := godotenv.Load(); err != nil {
		logger.Debug("No .env file found, relying on environment")
	}

	cfgPath := "configs/config.yml"
	if fromEnv := os.Getenv("CONFIG_PATH"); fromEnv != "" {
		cfgPath = fromEnv
	}
	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	// Database connection
	db, err := openDatabase(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Outbound clients
	hfClient, err := hf.NewClient(hf.Config{
		APIKey:     cfg.HF.APIKey,
		Model:      cfg.HF.Model,
		BaseURL:    cfg.HF.BaseURL,
		MaxRetries: cfg.HF.MaxRetries,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize judge client", zap.Error(err))
	}

	tavilyClient, err := tavily.NewClient(tavily.Config{
		APIKey:     cfg.Tavily.APIKey,
		MaxResults: cfg.Tavily.MaxResults,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize search client", zap.Error(err))
	}

	articleScraper := scraper.NewScraper(10*time.Second, logger)

	// Repositories and services
	recordRepo := repository.NewRecordRepository(db, cfg.Cache.PerUser, logger)
	authRepo := repository.NewAuthRepository(db, logger)

	judgeService := service.NewJudgeService(
		hfClient,
		tavilyClient,
		articleScraper,
		recordRepo,
		time.Duration(cfg.Cache.TTLMinutes)*time.Minute,
		cfg.Cache.PerUser,
		logger,
	)
	authService := service.NewAuthService(authRepo, cfg.JWT.Secret, logger)

	analysisHandler := handler.NewAnalysisHandler(judgeService, logger)
	authHandler := handler.NewAuthHandler(authService, logger)

	gin.SetMode(gin.ReleaseMode)
	srv := server.NewServer(analysisHandler, authHandler, cfg.JWT.Secret, logger)
	httpSrv := srv.HTTPServer(fmt.Sprintf(":%s", cfg.Server.Port))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	logger.Info("Misinformation Detector is running",
		zap.String("port", cfg.Server.Port),
		zap.String("model", cfg.HF.Model))

	<-ctx.Done()
	logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}

func openDatabase(cfg *config.Config, logger *zap.Logger) (*sqlx.DB, error) {
	if cfg.Database.Type == "postgres" {
		db, err := repository.NewPostgresDB(cfg.Database.URL, logger)
		if err != nil {
			return nil, err
		}
		repository.MigrateDB(db, logger)
		return db, nil
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		return nil, err
	}
	return repository.NewSQLiteDB(cfg.Database.Path, logger)
}
