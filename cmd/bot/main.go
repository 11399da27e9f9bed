package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"tokenbot/config"
	httpserver "tokenbot/internal/adapters/http/server"
	loggeradapter "tokenbot/internal/adapters/logger"
	telegramadapter "tokenbot/internal/adapters/telegram"
	tokensrepo "tokenbot/internal/adapters/tokens"
	"tokenbot/internal/application/edittoken"
	"tokenbot/internal/application/ratelimiter"
	tokenservice "tokenbot/internal/application/token"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Load configuration
	cfg := config.Load()

	// Validate configuration
	if err := validateConfig(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger based on environment
	isDevelopment := cfg.App.Environment == "development"
	logger, err := loggeradapter.NewLogger(isDevelopment)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	logger.Info("Starting application",
		zap.String("environment", cfg.App.Environment),
		zap.String("version", "1.0.0"),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize database repository
	if err := initializeDatabase(cfg, logger); err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}

	tokenRepo, err := tokensrepo.NewSQLiteRepository(cfg.Database.Path)
	if err != nil {
		logger.Fatal("Failed to create database repository", zap.Error(err))
	}
	defer func() {
		if err := tokenRepo.Close(); err != nil {
			logger.Error("Failed to close database", zap.Error(err))
		}
	}()

	if err := tokenRepo.InitSchema(ctx); err != nil {
		logger.Fatal("Failed to initialize database schema", zap.Error(err))
	}

	// Load token watchers
	tokenService := tokenservice.NewService(tokenRepo, logger)
	if err := tokenService.Load(ctx); err != nil {
		logger.Fatal("Failed to load tokens", zap.Error(err))
	}

	dialog := edittoken.NewDialog(tokenService, tokenRepo, cfg.Telegram.UpdateMessages, logger)

	// Initialize Telegram client
	api, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		logger.Fatal("Failed to create Telegram client", zap.Error(err))
	}
	api.Debug = cfg.Telegram.Debug
	logger.Info("Authorized on Telegram", zap.String("username", api.Self.UserName))

	// Initialize rate limiter for outbound Telegram requests
	sendLimiter := ratelimiter.NewRateLimiter(
		cfg.Telegram.RateLimitRPS,
		time.Second, // 1 second window
	)

	bot := telegramadapter.NewBot(api, telegramadapter.Config{
		AdminChatID:    cfg.Telegram.AdminChatID,
		UpdateMessages: cfg.Telegram.UpdateMessages,
		PollTimeout:    cfg.Telegram.PollTimeout,
	}, dialog, tokenService, sendLimiter, logger)

	var wg sync.WaitGroup

	if cfg.Server.Enabled {
		handlerAdapter := httpserver.NewHandlerAdapter(tokenService, logger)
		server := httpserver.NewServer(httpserver.Config{
			Host:         cfg.Server.Host,
			Port:         cfg.Server.Port,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
			IdleTimeout:  cfg.Server.IdleTimeout,
		}, handlerAdapter, logger)

		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := server.Run(ctx, shutdownTimeout); err != nil {
				logger.Error("HTTP server failed", zap.Error(err))
			}
		}()
	}

	if err := bot.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Bot stopped with error", zap.Error(err))
		stop()
	}

	wg.Wait()
	logger.Info("Application stopped gracefully")
}

// validateConfig validates the configuration
func validateConfig(cfg *config.Config) error {
	if cfg.Telegram.Token == "" {
		return fmt.Errorf("telegram token is required")
	}

	if cfg.Telegram.AdminChatID == 0 {
		return fmt.Errorf("telegram admin chat id is required")
	}

	if cfg.Database.Path == "" {
		return fmt.Errorf("database path is required")
	}

	if cfg.Server.Enabled && cfg.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}

	return nil
}

// initializeDatabase ensures the database directory exists
func initializeDatabase(cfg *config.Config, logger *loggeradapter.Logger) error {
	dataDir := filepath.Dir(cfg.Database.Path)
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	logger.Info("Database directory ready", zap.String("path", dataDir))
	return nil
}
