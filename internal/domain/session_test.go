package domain

import (
	"testing"
	"time"
)

func TestAppendTurn_TrimsOldestFirst(t *testing.T) {
	s := InterviewSession{}
	for i := 0; i < 45; i++ {
		s.AppendTurn(Turn{Speaker: SpeakerCandidate, Message: string(rune('a' + i%26)), QuestionNumber: i, Timestamp: time.Now()}, 40)
	}
	if len(s.ConversationHistory) != 40 {
		t.Fatalf("expected history capped at 40, got %d", len(s.ConversationHistory))
	}
	if s.ConversationHistory[0].QuestionNumber != 5 {
		t.Fatalf("expected oldest entries dropped, head question=%d", s.ConversationHistory[0].QuestionNumber)
	}
}

func TestAppendTurn_NoCap(t *testing.T) {
	s := InterviewSession{}
	for i := 0; i < 10; i++ {
		s.AppendTurn(Turn{Speaker: SpeakerInterviewer}, 0)
	}
	if len(s.ConversationHistory) != 10 {
		t.Fatalf("expected 10 turns, got %d", len(s.ConversationHistory))
	}
}

func TestCandidateTurnCount(t *testing.T) {
	s := InterviewSession{}
	s.AppendTurn(Turn{Speaker: SpeakerInterviewer}, 40)
	s.AppendTurn(Turn{Speaker: SpeakerCandidate}, 40)
	s.AppendTurn(Turn{Speaker: SpeakerInterviewer}, 40)
	s.AppendTurn(Turn{Speaker: SpeakerCandidate}, 40)
	if got := s.CandidateTurnCount(); got != 2 {
		t.Fatalf("expected 2 candidate turns, got %d", got)
	}
}

func TestLastCandidateMessages_ChronologicalOrder(t *testing.T) {
	s := InterviewSession{}
	for _, m := range []string{"first", "second", "third", "fourth"} {
		s.AppendTurn(Turn{Speaker: SpeakerCandidate, Message: m}, 40)
		s.AppendTurn(Turn{Speaker: SpeakerInterviewer, Message: "q"}, 40)
	}
	got := s.LastCandidateMessages(3)
	if len(got) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(got))
	}
	if got[0] != "second" || got[2] != "fourth" {
		t.Fatalf("unexpected order: %v", got)
	}
}
