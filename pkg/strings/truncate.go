package strings

import (
	"strings"
)

// DefaultCellMaxLen is the default maximum width of a value in table output.
const DefaultCellMaxLen = 60

// MinTruncateLen is the smallest maxLen Truncate honours; anything shorter
// would leave no room for content plus "...".
const MinTruncateLen = 4

// Truncate collapses s onto a single line and shortens it to at most maxLen
// runes, ending in "..." when cut. maxLen values below MinTruncateLen are
// raised to MinTruncateLen.
func Truncate(s string, maxLen int) string {
	if maxLen < MinTruncateLen {
		maxLen = MinTruncateLen
	}

	s = strings.Join(strings.Fields(s), " ")

	runes := []rune(s)
	if len(runes) > maxLen {
		return string(runes[:maxLen-3]) + "..."
	}
	return s
}
