package tokens

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"tokenbot/internal/domain/token"
)

// MemoryRepository implements token.Repository using in-memory storage.
// SaveErr, when set, is returned by Save without touching the stored record.
type MemoryRepository struct {
	mu      *sync.RWMutex
	records map[string]*token.Record // key: address
	SaveErr error
	saves   int
}

func NewMemoryRepository(records ...*token.Record) *MemoryRepository {
	r := &MemoryRepository{
		mu:      &sync.RWMutex{},
		records: make(map[string]*token.Record),
	}
	for _, rec := range records {
		r.records[rec.Address] = rec.Clone()
	}
	return r
}

func (r *MemoryRepository) List(_ context.Context) ([]*token.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	res := make([]*token.Record, 0, len(r.records))
	for _, rec := range r.records {
		res = append(res, rec.Clone())
	}
	sort.Slice(res, func(i, j int) bool {
		return strings.ToLower(res[i].Symbol) < strings.ToLower(res[j].Symbol)
	})
	return res, nil
}

func (r *MemoryRepository) GetByAddress(_ context.Context, address string) (*token.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.records[address]
	if !ok {
		return nil, fmt.Errorf("%w: address=%s", token.ErrTokenNotFound, address)
	}
	return rec.Clone(), nil
}

func (r *MemoryRepository) Exists(_ context.Context, address string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.records[address]
	return ok, nil
}

func (r *MemoryRepository) Create(_ context.Context, rec *token.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.records[rec.Address]; ok {
		return fmt.Errorf("%w: address=%s", token.ErrTokenExists, rec.Address)
	}
	r.records[rec.Address] = rec.Clone()
	return nil
}

func (r *MemoryRepository) Save(_ context.Context, rec *token.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.saves++
	if r.SaveErr != nil {
		return r.SaveErr
	}

	stored, ok := r.records[rec.Address]
	if !ok {
		return fmt.Errorf("%w: address=%s", token.ErrTokenNotFound, rec.Address)
	}
	rec.UpdatedAt = time.Now()
	stored.Icon = rec.Clone().Icon
	stored.DefaultSlippage = rec.DefaultSlippage
	stored.UpdatedAt = rec.UpdatedAt
	return nil
}

func (r *MemoryRepository) Delete(_ context.Context, address string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.records[address]; !ok {
		return fmt.Errorf("%w: address=%s", token.ErrTokenNotFound, address)
	}
	delete(r.records, address)
	return nil
}

// Saves returns how many times Save was called, failed attempts included.
func (r *MemoryRepository) Saves() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.saves
}
