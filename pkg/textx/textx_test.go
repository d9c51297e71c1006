package textx

import (
	"strings"
	"testing"
)

func TestSanitizeText_StripsControlChars(t *testing.T) {
	in := "hello\x00 world\x1b[0m\n"
	got := SanitizeText(in)
	if got != "hello world[0m" {
		t.Fatalf("unexpected sanitize output: %q", got)
	}
}

func TestWordCount(t *testing.T) {
	if n := WordCount("one two  three\nfour"); n != 4 {
		t.Fatalf("expected 4 words, got %d", n)
	}
	if n := WordCount("   "); n != 0 {
		t.Fatalf("expected 0 words, got %d", n)
	}
}

func TestTruncateAtSentence_ShortInputUnchanged(t *testing.T) {
	s := "Short answer."
	if got := TruncateAtSentence(s, 350); got != s {
		t.Fatalf("expected unchanged, got %q", got)
	}
}

func TestTruncateAtSentence_CutsAtBoundary(t *testing.T) {
	s := strings.Repeat("a", 200) + ". " + strings.Repeat("b", 300)
	got := TruncateAtSentence(s, 350)
	if !strings.HasSuffix(got, ".") {
		t.Fatalf("expected sentence-boundary cut, got suffix %q", got[len(got)-10:])
	}
	if len([]rune(got)) > 350 {
		t.Fatalf("truncated text exceeds cap: %d", len(got))
	}
}

func TestTruncateAtSentence_FallsBackToWordBoundary(t *testing.T) {
	s := strings.Repeat("word ", 120)
	got := TruncateAtSentence(s, 100)
	if len([]rune(got)) > 100 {
		t.Fatalf("truncated text exceeds cap: %d", len(got))
	}
	if strings.HasSuffix(got, "wor") {
		t.Fatalf("cut mid-word: %q", got)
	}
}

func TestEnsureTerminalPunctuation(t *testing.T) {
	if got := EnsureTerminalPunctuation("tell me more"); got != "tell me more." {
		t.Fatalf("expected period appended, got %q", got)
	}
	if got := EnsureTerminalPunctuation("really?"); got != "really?" {
		t.Fatalf("expected unchanged, got %q", got)
	}
	if got := EnsureTerminalPunctuation("  "); got != "" {
		t.Fatalf("expected empty, got %q", got)
	}
}
