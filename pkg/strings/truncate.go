package strings

import (
	"strings"
)

// MaxSummaryLen is the longest edit or log comment MediaWiki stores, in
// characters. Longer comments are cut by the server without notice.
const MaxSummaryLen = 500

// MinTruncateLen is the minimum maxLen value for SingleLine.
// Values smaller than this would not leave room for content plus "...".
const MinTruncateLen = 4

// SingleLine folds all whitespace runs in s to single spaces and cuts the
// result to maxLen characters, ending in "..." when cut.
//
// Lengths are counted in runes so multi-byte characters are never split.
// maxLen below MinTruncateLen is clamped.
func SingleLine(s string, maxLen int) string {
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
