package watcher

import (
	"tokenbot/internal/domain/token"
)

// TokenWatcher is the live in-memory view of a tracked token's trading configuration.
type TokenWatcher struct {
	Address         string
	Symbol          string
	Decimals        uint8
	Emoji           string // icon followed by a space, or empty
	Name            string // Emoji + Symbol
	DefaultSlippage int
	Record          *token.Record
}

func NewTokenWatcher(record *token.Record) *TokenWatcher {
	w := &TokenWatcher{
		Address:         record.Address,
		Symbol:          record.Symbol,
		Decimals:        record.Decimals,
		DefaultSlippage: record.DefaultSlippage,
		Record:          record,
	}
	w.setEmoji(record.IconValue())
	return w
}

// ApplyIcon takes over a record whose icon was just persisted and refreshes the derived fields.
func (w *TokenWatcher) ApplyIcon(record *token.Record) {
	w.Record = record
	w.setEmoji(record.IconValue())
}

// ApplySlippage takes over a record whose default slippage was just persisted.
func (w *TokenWatcher) ApplySlippage(record *token.Record) {
	w.Record = record
	w.DefaultSlippage = record.DefaultSlippage
}

func (w *TokenWatcher) setEmoji(icon string) {
	w.Emoji = ""
	if icon != "" {
		w.Emoji = icon + " "
	}
	w.Name = w.Emoji + w.Symbol
}
