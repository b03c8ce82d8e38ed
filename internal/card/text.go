package card

import (
	"math"
	"strings"
	"unicode/utf8"
)

// Ellipsis marks text that was truncated by a local fallback.
const Ellipsis = "..."

// CountChars returns the character count as runes (not bytes).
// This correctly handles multi-byte UTF-8 characters.
func CountChars(text string) int {
	return utf8.RuneCountInString(text)
}

// EstimateTokens estimates token count using a word-based heuristic
// (1.3x multiplier on word count).
func EstimateTokens(text string) int {
	words := strings.Fields(strings.TrimSpace(text))
	return int(math.Ceil(float64(len(words)) * 1.3))
}

// Truncate cuts text to at most maxChars runes and appends an ellipsis
// marker. It never splits a multi-byte rune and prefers a word boundary
// when one exists in the trailing half of the cut.
func Truncate(text string, maxChars int) string {
	if maxChars <= 0 {
		return Ellipsis
	}
	if utf8.RuneCountInString(text) <= maxChars {
		return text
	}

	// Walk to the rune boundary at maxChars
	cut := 0
	count := 0
	for i := range text {
		if count == maxChars {
			cut = i
			break
		}
		count++
	}
	truncated := text[:cut]

	// Prefer a word boundary if we keep at least half the budget
	if lastSpace := strings.LastIndex(truncated, " "); lastSpace > cut/2 {
		truncated = truncated[:lastSpace]
	}

	return strings.TrimRight(truncated, " \t\n") + Ellipsis
}
