package domain

import (
	"context"
	"errors"
	"time"
)

// Error taxonomy (sentinels)
var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrUpstreamTimeout = errors.New("upstream timeout")
	ErrInternal        = errors.New("internal error")
)

// Speaker identifies who produced a turn.
type Speaker string

const (
	SpeakerInterviewer Speaker = "interviewer"
	SpeakerCandidate   Speaker = "candidate"
)

// SpeechProvider is a typed tag for the synthesis provider that produced an
// artifact. It replaces string matching on artifact paths.
type SpeechProvider string

const (
	ProviderNone   SpeechProvider = ""
	ProviderNeural SpeechProvider = "neural"
	ProviderHosted SpeechProvider = "hosted"
	ProviderLocal  SpeechProvider = "local"
)

// Turn is one exchange in the conversation. Turns are append-only; once
// recorded they are never mutated, only trimmed from the head of the history
// when the cap is exceeded.
type Turn struct {
	Speaker              Speaker   `json:"speaker"`
	Message              string    `json:"message"`
	QuestionNumber       int       `json:"question_number"`
	Timestamp            time.Time `json:"timestamp"`
	TimeRemainingSeconds int       `json:"time_remaining_seconds,omitempty"`
}

// InterviewSession holds all conversational state for one scheduled interview.
// Invariants: QuestionCount is monotonically non-decreasing except for the
// explicit audio-test reset; once InterviewCompleted is true neither
// ConversationHistory nor QuestionCount may change again.
type InterviewSession struct {
	SessionKey string `json:"session_key"`

	// Immutable context captured at session creation.
	CandidateName  string `json:"candidate_name"`
	JobTitle       string `json:"job_title"`
	CompanyName    string `json:"company_name"`
	ResumeText     string `json:"resume_text"`
	JobDescription string `json:"job_description"`
	JobLocation    string `json:"job_location"`

	// Scheduled interview length in seconds; drives store retention.
	ScheduledSeconds int `json:"scheduled_seconds"`

	QuestionCount       int    `json:"question_count"`
	ConversationHistory []Turn `json:"conversation_history"`
	InterviewCompleted  bool   `json:"interview_completed"`

	// VoiceServiceAffinity pins synthesis to the provider that first
	// succeeded so the voice does not change mid-interview.
	VoiceServiceAffinity SpeechProvider `json:"voice_service_affinity,omitempty"`

	// Debounce state.
	LastProcessedInputHash string    `json:"last_processed_input_hash,omitempty"`
	LastProcessedTime      time.Time `json:"last_processed_time,omitempty"`

	StartedAt time.Time `json:"started_at,omitempty"`

	// FinalizedAt is set by the completion manager; a second finalize on an
	// already-finalized session is a no-op.
	FinalizedAt *time.Time `json:"finalized_at,omitempty"`
}

// SynthesisRequest is the ephemeral input to the speech chain. Not persisted.
type SynthesisRequest struct {
	Text         string
	VoiceProfile string
}

// SynthesisResult carries the synthesis outcome. AudioReference is empty when
// every provider failed; DurationSeconds is then estimated from text length
// and is always positive.
type SynthesisResult struct {
	AudioReference  string
	DurationSeconds float64
	ProviderUsed    SpeechProvider
}

// CompletionSummary aggregates a finished interview.
type CompletionSummary struct {
	SessionKey     string    `json:"session_key"`
	CandidateTurns int       `json:"candidate_turns"`
	QuestionCount  int       `json:"question_count"`
	ElapsedSeconds int       `json:"elapsed_seconds"`
	CompletedAt    time.Time `json:"completed_at"`
}

// InterviewContext is the immutable record loaded from the surrounding job
// portal when a session is bootstrapped.
type InterviewContext struct {
	SessionKey       string
	CandidateName    string
	JobTitle         string
	CompanyName      string
	ResumeText       string
	JobDescription   string
	JobLocation      string
	ScheduledSeconds int
}

// Ports

// SessionStore is the single source of truth for conversational state.
// CreateIfAbsent must be idempotent: an existing session is returned
// unchanged, never reset.
type SessionStore interface {
	Get(ctx Context, sessionKey string) (InterviewSession, error)
	CreateIfAbsent(ctx Context, sessionKey string, ic InterviewContext) (InterviewSession, error)
	Save(ctx Context, s InterviewSession) error
}

// InterviewRepository loads interview context from the record store and marks
// interviews completed. The surrounding application owns the records.
type InterviewRepository interface {
	GetContext(ctx Context, sessionKey string) (InterviewContext, error)
	MarkCompleted(ctx Context, sessionKey string, at time.Time, summary CompletionSummary) error
}

// FollowupGenerator produces the next interviewer question from conversation
// context. Implementations may fail or time out; callers must degrade to a
// rule-based fallback.
type FollowupGenerator interface {
	GenerateFollowup(ctx Context, ic InterviewContext, contextSummary, latestMessage string) (string, error)
}

// SpeechSynthesizer is a single speech provider.
type SpeechSynthesizer interface {
	Name() SpeechProvider
	Synthesize(ctx Context, req SynthesisRequest) (SynthesisResult, error)
}

// CompletionEvents publishes interview completion for downstream consumers.
// Publication is best-effort; failures are logged, never surfaced.
type CompletionEvents interface {
	PublishCompleted(ctx Context, summary CompletionSummary) error
}

// Context is an alias to context.Context so the domain package stays free of
// adapter imports while usecases pass the std context through.
type Context = context.Context
