package token

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrTokenNotFound = errors.New("token not found")
	ErrTokenExists   = errors.New("token already exists")
)

// Record is the persisted configuration of a tracked token.
type Record struct {
	ID              string
	Address         string
	Symbol          string
	Icon            *string // emoji, nil when none is set
	Decimals        uint8
	DefaultSlippage int

	CreatedAt time.Time
	UpdatedAt time.Time
}

func NewRecord(id, address, symbol string, decimals uint8, defaultSlippage int) *Record {
	if id == "" {
		id = uuid.New().String()
	}
	now := time.Now()
	return &Record{
		ID:              id,
		Address:         address,
		Symbol:          symbol,
		Decimals:        decimals,
		DefaultSlippage: defaultSlippage,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// Clone returns a deep copy so callers can stage edits without touching the original.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	c := *r
	if r.Icon != nil {
		icon := *r.Icon
		c.Icon = &icon
	}
	return &c
}

// IconValue returns the icon or an empty string when unset.
func (r *Record) IconValue() string {
	if r == nil || r.Icon == nil {
		return ""
	}
	return *r.Icon
}

type Repository interface {
	List(ctx context.Context) ([]*Record, error)
	GetByAddress(ctx context.Context, address string) (*Record, error)
	Exists(ctx context.Context, address string) (bool, error)
	Create(ctx context.Context, record *Record) error
	// Save writes icon and default slippage of an existing record inside a transaction.
	Save(ctx context.Context, record *Record) error
	Delete(ctx context.Context, address string) error
}
