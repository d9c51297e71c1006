package usecase

import (
	"time"

	"github.com/fairyhunter13/ai-interview-orchestrator/internal/domain"
	"github.com/fairyhunter13/ai-interview-orchestrator/internal/observability"
)

// CompletionService finalizes an interview exactly once: it computes the
// aggregate summary, marks the record completed, and publishes the completion
// event for downstream consumers. Event publication is best-effort.
type CompletionService struct {
	Interviews domain.InterviewRepository
	Events     domain.CompletionEvents
}

// NewCompletionService constructs a CompletionService. events may be nil.
func NewCompletionService(interviews domain.InterviewRepository, events domain.CompletionEvents) CompletionService {
	return CompletionService{Interviews: interviews, Events: events}
}

// Finalize closes out the session. Calling it on an already-finalized session
// is a no-op and returns the previously computed summary shape.
func (c CompletionService) Finalize(ctx domain.Context, s *domain.InterviewSession, now time.Time) domain.CompletionSummary {
	if s.FinalizedAt != nil {
		return summaryOf(s, *s.FinalizedAt)
	}

	summary := summaryOf(s, now)
	s.FinalizedAt = &now

	lg := observability.LoggerFromContext(ctx)
	if c.Interviews != nil {
		if err := c.Interviews.MarkCompleted(ctx, s.SessionKey, now, summary); err != nil {
			lg.Error("mark completed failed", "session_key", s.SessionKey, "error", err)
		}
	}
	if c.Events != nil {
		if err := c.Events.PublishCompleted(ctx, summary); err != nil {
			lg.Warn("completion event publish failed", "session_key", s.SessionKey, "error", err)
		}
	}
	lg.Info("interview finalized",
		"session_key", s.SessionKey,
		"candidate_turns", summary.CandidateTurns,
		"elapsed_seconds", summary.ElapsedSeconds)
	return summary
}

func summaryOf(s *domain.InterviewSession, at time.Time) domain.CompletionSummary {
	elapsed := 0
	if !s.StartedAt.IsZero() && at.After(s.StartedAt) {
		elapsed = int(at.Sub(s.StartedAt).Seconds())
	}
	return domain.CompletionSummary{
		SessionKey:     s.SessionKey,
		CandidateTurns: s.CandidateTurnCount(),
		QuestionCount:  s.QuestionCount,
		ElapsedSeconds: elapsed,
		CompletedAt:    at,
	}
}
