package http

import (
	"tokenbot/internal/domain/watcher"
)

func ToHTTPToken(w *watcher.TokenWatcher) *Token {
	if w == nil {
		return nil
	}
	t := &Token{
		Address:         w.Address,
		Symbol:          w.Symbol,
		Name:            w.Name,
		Decimals:        w.Decimals,
		DefaultSlippage: w.DefaultSlippage,
	}
	if rec := w.Record; rec != nil {
		t.ID = rec.ID
		if rec.Icon != nil {
			icon := *rec.Icon
			t.Icon = &icon
		}
		if !rec.UpdatedAt.IsZero() {
			updated := rec.UpdatedAt
			t.UpdatedAt = &updated
		}
	}
	return t
}

// ToHTTPTokens converts watchers to HTTP tokens, keeping their order.
func ToHTTPTokens(watchers []watcher.TokenWatcher) []*Token {
	result := make([]*Token, len(watchers))
	for i := range watchers {
		result[i] = ToHTTPToken(&watchers[i])
	}
	return result
}
