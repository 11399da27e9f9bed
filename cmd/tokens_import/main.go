package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"tokenbot/config"
	loggeradapter "tokenbot/internal/adapters/logger"
	tokensrepo "tokenbot/internal/adapters/tokens"
	tokenservice "tokenbot/internal/application/token"
	domainToken "tokenbot/internal/domain/token"
)

// tokens_import adds the tokens of a JSON list to the bot database.
// Usage: tokens_import [path], defaulting to TOKENS_PATH.
func main() {
	cfg := config.Load()

	logger, err := loggeradapter.NewLogger(cfg.App.Environment == "development")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	path := cfg.App.TokensPath
	if len(os.Args) > 1 {
		path = os.Args[1]
	}

	ctx := context.Background()

	records, err := tokensrepo.LoadFile(path)
	if err != nil {
		logger.Fatal("Failed to read token list", zap.String("path", path), zap.Error(err))
	}
	logger.Info("Token list loaded", zap.String("path", path), zap.Int("count", len(records)))

	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0755); err != nil {
		logger.Fatal("Failed to create data directory", zap.Error(err))
	}

	repo, err := tokensrepo.NewSQLiteRepository(cfg.Database.Path)
	if err != nil {
		logger.Fatal("Failed to open database", zap.Error(err))
	}
	defer func() {
		if err := repo.Close(); err != nil {
			logger.Error("Failed to close database", zap.Error(err))
		}
	}()

	if err := repo.InitSchema(ctx); err != nil {
		logger.Fatal("Failed to initialize database schema", zap.Error(err))
	}

	svc := tokenservice.NewService(repo, logger)
	added, skipped := importRecords(ctx, svc, records, logger)

	logger.Info("Import finished", zap.Int("added", added), zap.Int("skipped", skipped))
}

type importer interface {
	Exists(ctx context.Context, address string) (bool, error)
	Add(ctx context.Context, rec *domainToken.Record) error
}

func importRecords(ctx context.Context, svc importer, records []*domainToken.Record, logger *loggeradapter.Logger) (added, skipped int) {
	for _, rec := range records {
		exists, err := svc.Exists(ctx, rec.Address)
		if err != nil {
			logger.Error("Failed to check token", zap.String("address", rec.Address), zap.Error(err))
			skipped++
			continue
		}
		if exists {
			logger.Warn("Token already exists", zap.String("address", rec.Address), zap.String("symbol", rec.Symbol))
			skipped++
			continue
		}

		if err := svc.Add(ctx, rec); err != nil {
			if errors.Is(err, domainToken.ErrTokenExists) {
				skipped++
				continue
			}
			logger.Error("Failed to add token", zap.String("address", rec.Address), zap.Error(err))
			skipped++
			continue
		}
		added++
	}
	return added, skipped
}
