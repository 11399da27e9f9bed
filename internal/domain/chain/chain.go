package chain

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// IsChecksumAddress reports whether s is a 0x-prefixed 20-byte hex address
// whose letter casing matches its EIP-55 checksum.
func IsChecksumAddress(s string) bool {
	if !strings.HasPrefix(s, "0x") || !common.IsHexAddress(s) {
		return false
	}
	return common.HexToAddress(s).Hex() == s
}

// ToChecksumAddress normalizes any valid hex address to its checksummed form.
func ToChecksumAddress(s string) (string, bool) {
	if !common.IsHexAddress(s) {
		return "", false
	}
	return common.HexToAddress(s).Hex(), true
}
