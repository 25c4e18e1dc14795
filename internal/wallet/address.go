package wallet

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// NormalizeAddress lower-cases addr and reports whether it is a 0x-prefixed
// 20-byte hex address.
func NormalizeAddress(addr string) (string, bool) {
	addr = strings.ToLower(strings.TrimSpace(addr))
	if len(addr) != 2+2*common.AddressLength || !strings.HasPrefix(addr, "0x") {
		return "", false
	}
	if !common.IsHexAddress(addr) {
		return "", false
	}
	return addr, true
}

// ShortAddress renders addr as 0x1234...abcd for display.
func ShortAddress(addr string) string {
	if len(addr) <= 10 {
		return addr
	}
	return addr[:6] + "..." + addr[len(addr)-4:]
}
