package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/ai-interview-orchestrator/internal/domain"
)

func TestCompose_UsesGeneratorWhenAvailable(t *testing.T) {
	gen := &fakeGen{reply: "What was the hardest bug you shipped a fix for"}
	c := NewFollowupComposer(gen, 350)
	s := &domain.InterviewSession{SessionKey: "s", QuestionCount: 1}

	got := c.Compose(context.Background(), s, "I work on payment systems")
	require.Equal(t, 1, gen.calls)
	require.Equal(t, "What was the hardest bug you shipped a fix for.", got)
}

func TestCompose_FallsBackOnGeneratorError(t *testing.T) {
	gen := &fakeGen{err: errors.New("upstream timeout")}
	c := NewFollowupComposer(gen, 350)
	s := &domain.InterviewSession{QuestionCount: 1}

	got := c.Compose(context.Background(), s, "I mostly write Go and Python")
	require.NotEmpty(t, got)
	// question_count <= 2 band asks about technical background
	require.Contains(t, strings.ToLower(got), "techn")
}

func TestCompose_FallsBackOnEmptyReply(t *testing.T) {
	gen := &fakeGen{reply: "   "}
	c := NewFollowupComposer(gen, 350)
	s := &domain.InterviewSession{QuestionCount: 3}

	got := c.Compose(context.Background(), s, "answer")
	require.NotEmpty(t, got)
	require.Contains(t, strings.ToLower(got), "project")
}

func TestRuleFollowup_EmotionalKeywordsWin(t *testing.T) {
	c := NewFollowupComposer(nil, 350)
	s := &domain.InterviewSession{QuestionCount: 8}

	got := c.Compose(context.Background(), s, "Honestly I'm quite nervous about this")
	require.Contains(t, strings.ToLower(got), "nervous")
}

func TestRuleFollowup_BandsByQuestionCount(t *testing.T) {
	c := NewFollowupComposer(nil, 350)
	tests := []struct {
		count int
		want  string
	}{
		{1, "techn"},
		{3, "project"},
		{5, "team"},
		{8, "career"},
	}
	for _, tc := range tests {
		s := &domain.InterviewSession{QuestionCount: tc.count}
		got := strings.ToLower(c.Compose(context.Background(), s, "a plain answer"))
		require.Contains(t, got, tc.want, "count=%d", tc.count)
	}
}

func TestCompose_CapsLengthAtSentenceBoundary(t *testing.T) {
	long := strings.Repeat("This is a full sentence about distributed systems. ", 20)
	gen := &fakeGen{reply: long}
	c := NewFollowupComposer(gen, 350)
	s := &domain.InterviewSession{}

	got := c.Compose(context.Background(), s, "answer")
	require.LessOrEqual(t, len([]rune(got)), 350)
	require.Regexp(t, `[.!?]$`, got)
}

func TestContextSummary_IncludesRecentAndTopics(t *testing.T) {
	c := NewFollowupComposer(nil, 350)
	s := &domain.InterviewSession{QuestionCount: 4}
	s.AppendTurn(domain.Turn{Speaker: domain.SpeakerInterviewer, Message: "Tell me about your technical stack."}, 40)
	s.AppendTurn(domain.Turn{Speaker: domain.SpeakerCandidate, Message: "Mostly Go and Postgres."}, 40)
	s.AppendTurn(domain.Turn{Speaker: domain.SpeakerInterviewer, Message: "Describe a project you built recently."}, 40)
	s.AppendTurn(domain.Turn{Speaker: domain.SpeakerCandidate, Message: "A billing service."}, 40)

	summary := c.ContextSummary(s)
	require.Contains(t, summary, "Mostly Go and Postgres.")
	require.Contains(t, summary, "technical skills")
	require.Contains(t, summary, "projects")
	require.NotContains(t, summary, "teamwork")
	require.Contains(t, summary, "question 4")
}
