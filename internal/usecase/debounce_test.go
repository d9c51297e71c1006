package usecase

import (
	"testing"
	"time"

	"github.com/fairyhunter13/ai-interview-orchestrator/internal/domain"
)

func TestDebouncer_DuplicateWithinWindow(t *testing.T) {
	d := NewDebouncer(5 * time.Second)
	s := &domain.InterviewSession{}
	now := time.Now()

	if d.IsDuplicate(s, "I have three years of Go experience", now) {
		t.Fatalf("first submission flagged as duplicate")
	}
	if !d.IsDuplicate(s, "I have three years of Go experience", now.Add(2*time.Second)) {
		t.Fatalf("resubmission within window not flagged")
	}
}

func TestDebouncer_SameTextAfterWindowProcessed(t *testing.T) {
	d := NewDebouncer(5 * time.Second)
	s := &domain.InterviewSession{}
	now := time.Now()

	_ = d.IsDuplicate(s, "yes", now)
	if d.IsDuplicate(s, "yes", now.Add(6*time.Second)) {
		t.Fatalf("same text after window should be processed normally")
	}
}

func TestDebouncer_TrimsBeforeHashing(t *testing.T) {
	d := NewDebouncer(5 * time.Second)
	s := &domain.InterviewSession{}
	now := time.Now()

	_ = d.IsDuplicate(s, "  hello there  ", now)
	if !d.IsDuplicate(s, "hello there", now.Add(time.Second)) {
		t.Fatalf("whitespace variants should hash identically")
	}
}

func TestDebouncer_UpdatesStateOnNonDuplicate(t *testing.T) {
	d := NewDebouncer(5 * time.Second)
	s := &domain.InterviewSession{}
	now := time.Now()

	_ = d.IsDuplicate(s, "first", now)
	first := s.LastProcessedInputHash
	_ = d.IsDuplicate(s, "second", now.Add(time.Second))
	if s.LastProcessedInputHash == first {
		t.Fatalf("hash not updated on non-duplicate")
	}
	if !s.LastProcessedTime.Equal(now.Add(time.Second)) {
		t.Fatalf("timestamp not updated on non-duplicate")
	}
}
