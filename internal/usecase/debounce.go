package usecase

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/fairyhunter13/ai-interview-orchestrator/internal/domain"
)

// Debouncer suppresses rapid re-submission of identical candidate input.
// A repeated answer is only treated as a duplicate inside the window, so a
// candidate may legitimately give the same answer twice later in the
// conversation while client retry storms are absorbed.
type Debouncer struct {
	Window time.Duration
}

// NewDebouncer constructs a Debouncer; window <= 0 falls back to 5s.
func NewDebouncer(window time.Duration) Debouncer {
	if window <= 0 {
		window = 5 * time.Second
	}
	return Debouncer{Window: window}
}

// IsDuplicate reports whether text is a duplicate of the last processed input
// within the debounce window. On a non-duplicate, the session's hash and
// timestamp are updated in place before processing continues.
func (d Debouncer) IsDuplicate(s *domain.InterviewSession, text string, now time.Time) bool {
	h := hashInput(text)
	if s.LastProcessedInputHash == h && !s.LastProcessedTime.IsZero() && now.Sub(s.LastProcessedTime) < d.Window {
		return true
	}
	s.LastProcessedInputHash = h
	s.LastProcessedTime = now
	return false
}

func hashInput(text string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(text)))
	return hex.EncodeToString(sum[:])
}
