package gateway

import (
	"regexp"
	"strings"

	"github.com/talkincode/botgate/internal/domain"
)

// DefaultCanonicalSuffix is the address-type marker for a direct
// (one-to-one) chat.
const DefaultCanonicalSuffix = "@c.us"

// GroupSuffix marks a group address.
const GroupSuffix = "@g.us"

var nonAddressChars = regexp.MustCompile(`[^\d@]`)

// NormalizeRecipient strips every character that is not a digit or '@'
// from a raw recipient string and appends the canonical direct-address
// suffix when no '@' is present. An already-canonical address passes
// through unchanged. The result must be one or more digits followed by
// the suffix, otherwise ErrInvalidRecipient is returned.
func NormalizeRecipient(raw, suffix string) (string, error) {
	local := strings.TrimSuffix(strings.TrimSpace(raw), suffix)
	addr := nonAddressChars.ReplaceAllString(local, "")
	if !strings.Contains(addr, "@") {
		addr += suffix
	}
	digits := strings.TrimSuffix(addr, suffix)
	if digits == addr || digits == "" || nonDigit(digits) {
		return "", domain.ErrInvalidRecipient
	}
	return addr, nil
}

func nonDigit(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return true
		}
	}
	return false
}

// IsGroupAddress reports whether the address belongs to a group chat.
func IsGroupAddress(addr string) bool {
	return strings.Contains(addr, GroupSuffix)
}
