// Package textx provides small text utilities used across the project.
package textx

import (
	"strings"
	"unicode"
)

// SanitizeText removes control characters except tab/newline/CR and trims spaces.
func SanitizeText(s string) string {
	// strip control chars outside tab/newline/carriage return
	var b strings.Builder
	for _, r := range s {
		if r == '\n' || r == '\r' || r == '\t' || (r >= 32 && r != 127) {
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}

// WordCount counts whitespace-separated words.
func WordCount(s string) int {
	return len(strings.Fields(s))
}

// TruncateAtSentence caps s at max runes, preferring to cut at the last
// sentence boundary inside the cap. Falls back to a hard cut when no boundary
// lands in the second half of the window.
func TruncateAtSentence(s string, max int) string {
	if max <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	window := runes[:max]
	cut := -1
	for i := len(window) - 1; i >= max/2; i-- {
		if isTerminal(window[i]) {
			cut = i + 1
			break
		}
	}
	if cut < 0 {
		// hard cut at the last word boundary instead of mid-word
		for i := len(window) - 1; i >= max/2; i-- {
			if unicode.IsSpace(window[i]) {
				cut = i
				break
			}
		}
	}
	if cut < 0 {
		cut = max
	}
	return strings.TrimSpace(string(window[:cut]))
}

// EnsureTerminalPunctuation appends a period when s does not already end in
// terminal punctuation.
func EnsureTerminalPunctuation(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}
	runes := []rune(s)
	if isTerminal(runes[len(runes)-1]) {
		return s
	}
	return s + "."
}

func isTerminal(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}
