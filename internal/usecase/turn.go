// Package usecase contains application business logic services.
package usecase

import (
	"fmt"
	"strings"
	"time"

	"github.com/fairyhunter13/ai-interview-orchestrator/internal/domain"
	"github.com/fairyhunter13/ai-interview-orchestrator/internal/observability"
	"github.com/fairyhunter13/ai-interview-orchestrator/pkg/textx"
)

// TurnOutcome labels the branch a turn resolved to, for metrics and logging.
type TurnOutcome string

// Turn outcomes.
const (
	OutcomeGreeting      TurnOutcome = "greeting"
	OutcomeEmpty         TurnOutcome = "empty"
	OutcomeCompleted     TurnOutcome = "already_completed"
	OutcomeDuplicate     TurnOutcome = "duplicate"
	OutcomeClosing       TurnOutcome = "closing"
	OutcomeFinalQuestion TurnOutcome = "final_question"
	OutcomeAudioTest     TurnOutcome = "audio_test"
	OutcomeQuestion      TurnOutcome = "question"
	OutcomeError         TurnOutcome = "error"
)

// SpeechChain is the synthesis fallback chain consumed by the turn service.
// Implementations never return an error; total failure degrades to an empty
// audio reference with an estimated duration.
type SpeechChain interface {
	Synthesize(ctx domain.Context, req domain.SynthesisRequest, affinity domain.SpeechProvider) domain.SynthesisResult
}

// TurnResult is the adapter-facing outcome of an open or turn call.
type TurnResult struct {
	ResponseText         string
	AudioReference       string
	AudioDuration        float64
	QuestionCount        int
	IsFinal              bool
	InterviewCompleted   bool
	TimeRemainingSeconds int
	Outcome              TurnOutcome
}

// Pacing holds the turn-processor thresholds. Zero values are replaced with
// the carried-over defaults.
type Pacing struct {
	ClosingThreshold    time.Duration
	FinalQuestionWindow time.Duration
	HistoryCap          int
	ResponseCharCap     int
}

func (p Pacing) withDefaults() Pacing {
	if p.ClosingThreshold <= 0 {
		p.ClosingThreshold = 30 * time.Second
	}
	if p.FinalQuestionWindow <= 0 {
		p.FinalQuestionWindow = 120 * time.Second
	}
	if p.HistoryCap <= 0 {
		p.HistoryCap = 40
	}
	if p.ResponseCharCap <= 0 {
		p.ResponseCharCap = 350
	}
	return p
}

// audioTestPhrases are sanity-check utterances candidates use to verify their
// microphone. They never count toward interview progress.
var audioTestPhrases = map[string]bool{
	"can you hear me": true,
	"hello":           true,
	"hello hello":     true,
	"testing":         true,
	"test":            true,
	"testing testing": true,
	"is this working": true,
	"mic check":       true,
	"one two three":   true,
}

const maxAudioTestLen = 30

var finalQuestionPrompts = []string{
	"We're coming up on time, so let me ask one final question: what makes you the right fit for this role?",
	"Before we wrap up, one last question: what would you want us to remember most about you as a candidate?",
	"As a final question, is there anything about your experience we haven't covered that you'd like to highlight?",
}

// Canned responses for non-question branches.
const (
	replyEmpty     = "I'm sorry, I didn't catch that. Could you please repeat your answer?"
	replyCompleted = "Thank you, this interview has already concluded. We'll be in touch with the next steps soon."
	replyDuplicate = "I received your answer and I'm processing it. Please give me just a moment."
	replyAudioTest = "Yes, I can hear you loud and clear! Whenever you're ready, let's start over with the first question."
	replyError     = "I'm sorry, we hit a brief technical issue. Could you please repeat your last answer?"
)

// TurnService is the turn processor: it owns the decision ladder, commits
// session state before synthesis, and triggers completion exactly once.
type TurnService struct {
	Store      domain.SessionStore
	Interviews domain.InterviewRepository
	Followups  FollowupComposer
	Debounce   Debouncer
	Speech     SpeechChain
	Completion CompletionService
	Pace       Pacing

	now func() time.Time
}

// NewTurnService constructs a TurnService with its collaborators.
func NewTurnService(store domain.SessionStore, interviews domain.InterviewRepository, followups FollowupComposer, debounce Debouncer, speech SpeechChain, completion CompletionService, pace Pacing) *TurnService {
	return &TurnService{
		Store:      store,
		Interviews: interviews,
		Followups:  followups,
		Debounce:   debounce,
		Speech:     speech,
		Completion: completion,
		Pace:       pace.withDefaults(),
		now:        time.Now,
	}
}

// Open bootstraps or resumes a session and returns the greeting. Opening an
// existing session never resets its state; the most recent interviewer
// message is replayed instead.
func (t *TurnService) Open(ctx domain.Context, sessionKey string) (TurnResult, error) {
	ic, err := t.Interviews.GetContext(ctx, sessionKey)
	if err != nil {
		return TurnResult{}, fmt.Errorf("op=turn.open: %w", err)
	}
	s, err := t.Store.CreateIfAbsent(ctx, sessionKey, ic)
	if err != nil {
		return TurnResult{}, fmt.Errorf("op=turn.open: %w", err)
	}

	if s.InterviewCompleted {
		res := t.respond(ctx, &s, replyCompleted, OutcomeCompleted)
		res.IsFinal = true
		return res, nil
	}

	// First contact: stamp the start time. The greeting itself is recorded at
	// question_number 0 in the response only; it does not enter the history,
	// so after the first real turn the history holds exactly that exchange.
	if s.StartedAt.IsZero() {
		s.StartedAt = t.now()
		if err := t.Store.Save(ctx, s); err != nil {
			return TurnResult{}, fmt.Errorf("op=turn.open: %w", err)
		}
		return t.respond(ctx, &s, t.greeting(s), OutcomeGreeting), nil
	}

	// Reconnect: replay the last interviewer message without mutating state.
	replay := t.greeting(s)
	for i := len(s.ConversationHistory) - 1; i >= 0; i-- {
		if s.ConversationHistory[i].Speaker == domain.SpeakerInterviewer {
			replay = s.ConversationHistory[i].Message
			break
		}
	}
	return t.respond(ctx, &s, replay, OutcomeGreeting), nil
}

// ProcessTurn runs the decision ladder for one candidate turn. A panic or
// unexpected failure inside the ladder degrades to a bland retry prompt and
// leaves completion state untouched; an in-progress interview must survive a
// single bad turn.
func (t *TurnService) ProcessTurn(ctx domain.Context, sessionKey, candidateText string, timeRemaining int) (res TurnResult, err error) {
	s, err := t.Store.Get(ctx, sessionKey)
	if err != nil {
		return TurnResult{}, fmt.Errorf("op=turn.process: %w", err)
	}

	defer func() {
		if rec := recover(); rec != nil {
			observability.LoggerFromContext(ctx).Error("turn processing panic recovered",
				"session_key", sessionKey, "recover", rec)
			res = t.respond(ctx, &s, replyError, OutcomeError)
			res.TimeRemainingSeconds = timeRemaining
			res.InterviewCompleted = s.InterviewCompleted
			err = nil
		}
	}()

	res = t.processLadder(ctx, &s, candidateText, timeRemaining)
	res.TimeRemainingSeconds = timeRemaining
	return res, nil
}

func (t *TurnService) processLadder(ctx domain.Context, s *domain.InterviewSession, candidateText string, timeRemaining int) TurnResult {
	text := textx.SanitizeText(candidateText)
	now := t.now()

	// 1. Empty input: ask to repeat, mutate nothing.
	if text == "" {
		return t.respond(ctx, s, replyEmpty, OutcomeEmpty)
	}

	// 2. Already completed: fixed acknowledgment, mutate nothing.
	if s.InterviewCompleted {
		res := t.respond(ctx, s, replyCompleted, OutcomeCompleted)
		res.IsFinal = true
		return res
	}

	// 3. Duplicate within the debounce window: notice, mutate nothing.
	if t.Debounce.IsDuplicate(s, text, now) {
		return t.respond(ctx, s, replyDuplicate, OutcomeDuplicate)
	}

	if s.StartedAt.IsZero() {
		s.StartedAt = now
	}

	// 4. Time exhausted: close out and complete.
	if timeRemaining <= int(t.Pace.ClosingThreshold.Seconds()) {
		closing := t.closing(*s)
		s.AppendTurn(domain.Turn{Speaker: domain.SpeakerCandidate, Message: text, QuestionNumber: s.QuestionCount, Timestamp: now, TimeRemainingSeconds: timeRemaining}, t.Pace.HistoryCap)
		s.AppendTurn(domain.Turn{Speaker: domain.SpeakerInterviewer, Message: closing, QuestionNumber: s.QuestionCount, Timestamp: now}, t.Pace.HistoryCap)
		s.InterviewCompleted = true
		t.Completion.Finalize(ctx, s, now)
		if err := t.Store.Save(ctx, *s); err != nil {
			observability.LoggerFromContext(ctx).Error("session save failed",
				"session_key", s.SessionKey, "error", err)
		}
		res := t.respond(ctx, s, closing, OutcomeClosing)
		res.IsFinal = true
		return res
	}

	// 5. Near end of time: signal the last substantive question.
	if timeRemaining <= int(t.Pace.FinalQuestionWindow.Seconds()) {
		s.QuestionCount++
		prompt := finalQuestionPrompts[s.QuestionCount%len(finalQuestionPrompts)]
		s.AppendTurn(domain.Turn{Speaker: domain.SpeakerCandidate, Message: text, QuestionNumber: s.QuestionCount, Timestamp: now, TimeRemainingSeconds: timeRemaining}, t.Pace.HistoryCap)
		s.AppendTurn(domain.Turn{Speaker: domain.SpeakerInterviewer, Message: prompt, QuestionNumber: s.QuestionCount, Timestamp: now}, t.Pace.HistoryCap)
		if err := t.Store.Save(ctx, *s); err != nil {
			observability.LoggerFromContext(ctx).Error("session save failed",
				"session_key", s.SessionKey, "error", err)
		}
		return t.respond(ctx, s, prompt, OutcomeFinalQuestion)
	}

	// 6. Audio sanity check: reassure, reset progress, keep it out of history.
	if isAudioTest(text) {
		s.QuestionCount = 0
		if err := t.Store.Save(ctx, *s); err != nil {
			observability.LoggerFromContext(ctx).Error("session save failed",
				"session_key", s.SessionKey, "error", err)
		}
		return t.respond(ctx, s, replyAudioTest, OutcomeAudioTest)
	}

	// 7. Normal turn: next question via LLM with rule-ladder fallback.
	s.QuestionCount++
	question := t.Followups.Compose(ctx, s, text)
	s.AppendTurn(domain.Turn{Speaker: domain.SpeakerCandidate, Message: text, QuestionNumber: s.QuestionCount, Timestamp: now, TimeRemainingSeconds: timeRemaining}, t.Pace.HistoryCap)
	s.AppendTurn(domain.Turn{Speaker: domain.SpeakerInterviewer, Message: question, QuestionNumber: s.QuestionCount, Timestamp: now}, t.Pace.HistoryCap)
	if err := t.Store.Save(ctx, *s); err != nil {
		observability.LoggerFromContext(ctx).Error("session save failed",
			"session_key", s.SessionKey, "error", err)
	}
	return t.respond(ctx, s, question, OutcomeQuestion)
}

// respond synthesizes audio for the response text. Conversation state has
// already been committed by the time this runs, so a slow or failing
// synthesis call cannot corrupt the session.
func (t *TurnService) respond(ctx domain.Context, s *domain.InterviewSession, text string, outcome TurnOutcome) TurnResult {
	res := TurnResult{
		ResponseText:       text,
		QuestionCount:      s.QuestionCount,
		InterviewCompleted: s.InterviewCompleted,
		Outcome:            outcome,
	}
	if t.Speech != nil {
		sr := t.Speech.Synthesize(ctx, domain.SynthesisRequest{Text: text}, s.VoiceServiceAffinity)
		res.AudioReference = sr.AudioReference
		res.AudioDuration = sr.DurationSeconds
		if sr.AudioReference != "" && sr.ProviderUsed != domain.ProviderNone && s.VoiceServiceAffinity != sr.ProviderUsed {
			s.VoiceServiceAffinity = sr.ProviderUsed
			// After a recovered panic the in-memory session may hold partial
			// ladder mutations; the error path must not persist anything.
			if outcome != OutcomeError {
				if err := t.Store.Save(ctx, *s); err != nil {
					observability.LoggerFromContext(ctx).Warn("voice affinity save failed",
						"session_key", s.SessionKey, "error", err)
				}
			}
		}
	}
	return res
}

func (t *TurnService) greeting(s domain.InterviewSession) string {
	name := s.CandidateName
	if name == "" {
		name = "there"
	}
	g := fmt.Sprintf("Hello %s, welcome to your interview for the %s position", name, s.JobTitle)
	if s.CompanyName != "" {
		g += " at " + s.CompanyName
	}
	g += ". I'll be asking you a few questions about your background and experience. Take your time with each answer. To begin, could you tell me a little about yourself?"
	return g
}

func (t *TurnService) closing(s domain.InterviewSession) string {
	name := s.CandidateName
	if name == "" {
		name = "there"
	}
	return fmt.Sprintf("Thank you, %s, that brings us to the end of our time today. I really appreciate you walking me through your experience. The team will review the conversation and follow up with next steps soon. Best of luck!", name)
}

func isAudioTest(text string) bool {
	if len(text) > maxAudioTestLen {
		return false
	}
	normalized := strings.ToLower(strings.TrimSpace(text))
	normalized = strings.TrimRight(normalized, ".!?")
	return audioTestPhrases[normalized]
}
