package tokens

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"tokenbot/internal/domain/chain"
	"tokenbot/internal/domain/token"
)

// TokenData represents one entry of a token list file.
type TokenData struct {
	Address         string  `json:"address"`
	Symbol          string  `json:"symbol"`
	Icon            *string `json:"icon,omitempty"`
	Decimals        uint8   `json:"decimals"`
	DefaultSlippage int     `json:"default_slippage"`
}

// LoadFile reads a JSON token list and converts it to records.
// Addresses are normalized to their checksummed form.
func LoadFile(filePath string) ([]*token.Record, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var entries []TokenData
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to unmarshal JSON: %w", err)
	}

	records := make([]*token.Record, 0, len(entries))
	for i, e := range entries {
		rec, err := e.ToRecord()
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		records = append(records, rec)
	}

	return records, nil
}

func (d TokenData) ToRecord() (*token.Record, error) {
	address, ok := chain.ToChecksumAddress(strings.TrimSpace(d.Address))
	if !ok {
		return nil, fmt.Errorf("invalid token address %q", d.Address)
	}

	symbol := strings.TrimSpace(d.Symbol)
	if symbol == "" {
		return nil, fmt.Errorf("symbol is required for %s", address)
	}

	if d.DefaultSlippage < 1 {
		return nil, fmt.Errorf("default slippage must be a positive integer for %s", address)
	}

	rec := token.NewRecord("", address, symbol, d.Decimals, d.DefaultSlippage)
	if d.Icon != nil && strings.TrimSpace(*d.Icon) != "" {
		icon := strings.TrimSpace(*d.Icon)
		rec.Icon = &icon
	}
	return rec, nil
}
