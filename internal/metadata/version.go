package metadata

import (
	"fmt"
	"strconv"
	"strings"
)

// VersionPrefix starts every render version id.
const VersionPrefix = "rsv"

// ParseVersionID returns the numeric suffix of an id such as "rsv007".
// Ids without the prefix or with a non-numeric suffix are rejected.
func ParseVersionID(id string) (int, bool) {
	suffix, ok := strings.CutPrefix(id, VersionPrefix)
	if !ok || suffix == "" {
		return 0, false
	}
	for _, r := range suffix {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(suffix)
	if err != nil {
		return 0, false
	}
	return n, true
}

// FormatVersionID renders n as rsv + at least three zero-padded digits.
func FormatVersionID(n int) string {
	return fmt.Sprintf("%s%03d", VersionPrefix, n)
}
