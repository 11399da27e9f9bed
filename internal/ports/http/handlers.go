package http

import (
	"context"
	"time"

	"tokenbot/internal/domain/watcher"
)

// TokensService is the read side of the watcher registry.
type TokensService interface {
	List(ctx context.Context) []watcher.TokenWatcher
	Snapshot(ctx context.Context, address string) (watcher.TokenWatcher, bool)
}

type Token struct {
	ID              string     `json:"id,omitempty"`
	Address         string     `json:"address"`
	Symbol          string     `json:"symbol"`
	Name            string     `json:"name"`
	Icon            *string    `json:"icon"`
	Decimals        uint8      `json:"decimals"`
	DefaultSlippage int        `json:"default_slippage"`
	UpdatedAt       *time.Time `json:"updated_at,omitempty"`
}

type TokenList struct {
	Data  []*Token `json:"data"`
	Total int      `json:"total"`
}

type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Service   string `json:"service"`
	Version   string `json:"version"`
	Tokens    int    `json:"tokens"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
