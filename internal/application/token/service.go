package token

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"tokenbot/internal/adapters/cache"
	loggeradapter "tokenbot/internal/adapters/logger"
	"tokenbot/internal/domain"
	domainToken "tokenbot/internal/domain/token"
	"tokenbot/internal/domain/watcher"

	"go.uber.org/zap"
)

var ErrWatcherNotFound = errors.New("token watcher not found")

// Service owns the watcher registry and keeps it in line with the token store.
// Watchers are mutated only through Update; Snapshot hands out copies so readers
// on other goroutines never observe a half-applied edit.
type Service struct {
	mu       sync.RWMutex
	repo     domainToken.Repository
	registry domain.Cache[string, *watcher.TokenWatcher]
	logger   *loggeradapter.Logger
}

func NewService(repo domainToken.Repository, logger *loggeradapter.Logger) *Service {
	if logger == nil {
		logger = loggeradapter.NewNopLogger()
	}
	return &Service{
		repo:     repo,
		registry: cache.NewCache[string, *watcher.TokenWatcher](64),
		logger:   logger,
	}
}

// Load builds a watcher for every stored token.
func (s *Service) Load(ctx context.Context) error {
	records, err := s.repo.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to load tokens: %w", err)
	}

	items := make(map[string]*watcher.TokenWatcher, len(records))
	for _, rec := range records {
		items[rec.Address] = watcher.NewTokenWatcher(rec)
	}

	s.mu.Lock()
	s.registry.SetBatch(ctx, items)
	s.mu.Unlock()

	s.logger.Info("Token watchers loaded", zap.Int("count", len(items)))
	return nil
}

// Get returns the live watcher. Callers other than the update dispatcher should use Snapshot.
func (s *Service) Get(ctx context.Context, address string) (*watcher.TokenWatcher, bool) {
	return s.registry.Get(ctx, address)
}

// Update applies fn to the watcher under the registry lock.
func (s *Service) Update(ctx context.Context, address string, fn func(w *watcher.TokenWatcher)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.registry.Get(ctx, address)
	if !ok {
		return false
	}
	fn(w)
	return true
}

// Snapshot returns a copy of one watcher.
func (s *Service) Snapshot(ctx context.Context, address string) (watcher.TokenWatcher, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	w, ok := s.registry.Get(ctx, address)
	if !ok {
		return watcher.TokenWatcher{}, false
	}
	return *w, true
}

// List returns copies of all watchers sorted by case-insensitive symbol.
func (s *Service) List(ctx context.Context) []watcher.TokenWatcher {
	s.mu.RLock()
	values := s.registry.Values(ctx)
	res := make([]watcher.TokenWatcher, 0, len(values))
	for _, w := range values {
		res = append(res, *w)
	}
	s.mu.RUnlock()

	sort.Slice(res, func(i, j int) bool {
		return strings.ToLower(res[i].Symbol) < strings.ToLower(res[j].Symbol)
	})
	return res
}

// Add stores a new token and starts watching it.
func (s *Service) Add(ctx context.Context, rec *domainToken.Record) error {
	if err := s.repo.Create(ctx, rec); err != nil {
		return err
	}

	s.mu.Lock()
	s.registry.Set(ctx, rec.Address, watcher.NewTokenWatcher(rec))
	s.mu.Unlock()

	s.logger.Info("Token added", zap.String("address", rec.Address), zap.String("symbol", rec.Symbol))
	return nil
}

// Exists reports whether a token is already stored.
func (s *Service) Exists(ctx context.Context, address string) (bool, error) {
	return s.repo.Exists(ctx, address)
}

// Remove deletes the token record and drops its watcher. The removed watcher is returned.
func (s *Service) Remove(ctx context.Context, address string) (watcher.TokenWatcher, error) {
	w, ok := s.Snapshot(ctx, address)
	if !ok {
		return watcher.TokenWatcher{}, fmt.Errorf("%w: address=%s", ErrWatcherNotFound, address)
	}

	if err := s.repo.Delete(ctx, address); err != nil {
		s.logger.Error("Failed to delete token", zap.String("address", address), zap.Error(err))
		return watcher.TokenWatcher{}, err
	}

	s.mu.Lock()
	s.registry.Delete(ctx, address)
	s.mu.Unlock()

	s.logger.Info("Token removed", zap.String("address", address), zap.String("symbol", w.Symbol))
	return w, nil
}
