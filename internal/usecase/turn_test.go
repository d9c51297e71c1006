package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/ai-interview-orchestrator/internal/domain"
)

type fakeStore struct {
	sessions map[string]domain.InterviewSession
	saves    int
}

func newFakeStore() *fakeStore {
	return &fakeStore{sessions: map[string]domain.InterviewSession{}}
}

func (f *fakeStore) Get(_ domain.Context, key string) (domain.InterviewSession, error) {
	s, ok := f.sessions[key]
	if !ok {
		return domain.InterviewSession{}, domain.ErrNotFound
	}
	return s, nil
}

func (f *fakeStore) CreateIfAbsent(_ domain.Context, key string, ic domain.InterviewContext) (domain.InterviewSession, error) {
	if s, ok := f.sessions[key]; ok {
		return s, nil
	}
	s := domain.InterviewSession{
		SessionKey:       key,
		CandidateName:    ic.CandidateName,
		JobTitle:         ic.JobTitle,
		CompanyName:      ic.CompanyName,
		ResumeText:       ic.ResumeText,
		JobDescription:   ic.JobDescription,
		JobLocation:      ic.JobLocation,
		ScheduledSeconds: ic.ScheduledSeconds,
	}
	f.sessions[key] = s
	return s, nil
}

func (f *fakeStore) Save(_ domain.Context, s domain.InterviewSession) error {
	f.sessions[s.SessionKey] = s
	f.saves++
	return nil
}

type fakeRepo struct {
	ic        domain.InterviewContext
	missing   bool
	completed []string
}

func (f *fakeRepo) GetContext(_ domain.Context, key string) (domain.InterviewContext, error) {
	if f.missing {
		return domain.InterviewContext{}, domain.ErrNotFound
	}
	ic := f.ic
	ic.SessionKey = key
	return ic, nil
}

func (f *fakeRepo) MarkCompleted(_ domain.Context, key string, _ time.Time, _ domain.CompletionSummary) error {
	f.completed = append(f.completed, key)
	return nil
}

type fakeGen struct {
	reply string
	err   error
	calls int
}

func (f *fakeGen) GenerateFollowup(_ domain.Context, _ domain.InterviewContext, _, _ string) (string, error) {
	f.calls++
	return f.reply, f.err
}

type panickyGen struct{}

func (panickyGen) GenerateFollowup(_ domain.Context, _ domain.InterviewContext, _, _ string) (string, error) {
	panic("followup generator exploded")
}

type fakeChain struct {
	result domain.SynthesisResult
	calls  []domain.SpeechProvider // affinity observed per call
}

func (f *fakeChain) Synthesize(_ domain.Context, _ domain.SynthesisRequest, affinity domain.SpeechProvider) domain.SynthesisResult {
	f.calls = append(f.calls, affinity)
	return f.result
}

type fakeEvents struct{ published []domain.CompletionSummary }

func (f *fakeEvents) PublishCompleted(_ domain.Context, s domain.CompletionSummary) error {
	f.published = append(f.published, s)
	return nil
}

func newTestService(store *fakeStore, repo *fakeRepo, gen domain.FollowupGenerator, chain SpeechChain) *TurnService {
	svc := NewTurnService(
		store,
		repo,
		NewFollowupComposer(gen, 350),
		NewDebouncer(5*time.Second),
		chain,
		NewCompletionService(repo, &fakeEvents{}),
		Pacing{},
	)
	return svc
}

func ashaRepo() *fakeRepo {
	return &fakeRepo{ic: domain.InterviewContext{
		CandidateName:    "Asha",
		JobTitle:         "Backend Engineer",
		CompanyName:      "Acme",
		ScheduledSeconds: 900,
	}}
}

func TestOpen_GreetingAndBootstrap(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, ashaRepo(), &fakeGen{reply: "Next question?"}, &fakeChain{})

	res, err := svc.Open(context.Background(), "sess-1")
	require.NoError(t, err)
	require.Equal(t, OutcomeGreeting, res.Outcome)
	require.Contains(t, res.ResponseText, "Asha")
	require.Contains(t, res.ResponseText, "Backend Engineer")
	require.Equal(t, 0, res.QuestionCount)
	require.False(t, res.IsFinal)

	s := store.sessions["sess-1"]
	require.Empty(t, s.ConversationHistory)
	require.False(t, s.StartedAt.IsZero())
}

func TestOpen_IdempotentNeverResets(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, ashaRepo(), &fakeGen{reply: "What drew you to Go?"}, &fakeChain{})
	ctx := context.Background()

	_, err := svc.Open(ctx, "sess-1")
	require.NoError(t, err)
	_, err = svc.ProcessTurn(ctx, "sess-1", "I have 3 years of Python experience", 800)
	require.NoError(t, err)
	before := store.sessions["sess-1"]

	res, err := svc.Open(ctx, "sess-1")
	require.NoError(t, err)
	after := store.sessions["sess-1"]
	require.Equal(t, before.QuestionCount, after.QuestionCount)
	require.Len(t, after.ConversationHistory, len(before.ConversationHistory))
	// reconnect replays the last interviewer message
	require.Equal(t, "What drew you to Go?", res.ResponseText)
}

func TestOpen_MissingInterviewRecord(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, &fakeRepo{missing: true}, &fakeGen{}, &fakeChain{})

	_, err := svc.Open(context.Background(), "ghost")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestProcessTurn_EmptyInputNoMutation(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, ashaRepo(), &fakeGen{reply: "q"}, &fakeChain{})
	ctx := context.Background()
	_, _ = svc.Open(ctx, "s")
	before := store.sessions["s"]

	res, err := svc.ProcessTurn(ctx, "s", "   ", 700)
	require.NoError(t, err)
	require.Equal(t, OutcomeEmpty, res.Outcome)
	require.Equal(t, before.QuestionCount, store.sessions["s"].QuestionCount)
	require.Len(t, store.sessions["s"].ConversationHistory, len(before.ConversationHistory))
}

func TestProcessTurn_TimeExhaustedClosesInterview(t *testing.T) {
	store := newFakeStore()
	repo := ashaRepo()
	svc := newTestService(store, repo, &fakeGen{reply: "q"}, &fakeChain{})
	ctx := context.Background()
	_, _ = svc.Open(ctx, "s")

	res, err := svc.ProcessTurn(ctx, "s", "my final answer", 20)
	require.NoError(t, err)
	require.Equal(t, OutcomeClosing, res.Outcome)
	require.True(t, res.IsFinal)
	require.True(t, res.InterviewCompleted)
	require.True(t, store.sessions["s"].InterviewCompleted)
	require.Equal(t, []string{"s"}, repo.completed)
}

func TestProcessTurn_MonotonicCompletion(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, ashaRepo(), &fakeGen{reply: "q"}, &fakeChain{})
	ctx := context.Background()
	_, _ = svc.Open(ctx, "s")
	_, _ = svc.ProcessTurn(ctx, "s", "final", 10)
	histLen := len(store.sessions["s"].ConversationHistory)

	res, err := svc.ProcessTurn(ctx, "s", "anything else", 700)
	require.NoError(t, err)
	require.Equal(t, OutcomeCompleted, res.Outcome)
	require.True(t, res.IsFinal)
	require.Len(t, store.sessions["s"].ConversationHistory, histLen)
}

func TestProcessTurn_FinalQuestionWindow(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, ashaRepo(), &fakeGen{err: errors.New("down")}, &fakeChain{})
	ctx := context.Background()
	_, _ = svc.Open(ctx, "s")

	res, err := svc.ProcessTurn(ctx, "s", "an answer", 100)
	require.NoError(t, err)
	require.Equal(t, OutcomeFinalQuestion, res.Outcome)
	require.False(t, res.IsFinal)
	require.Equal(t, 1, res.QuestionCount)
	require.Contains(t, res.ResponseText, "final question")
}

func TestProcessTurn_DuplicateSuppressed(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, ashaRepo(), &fakeGen{reply: "Tell me more."}, &fakeChain{})
	ctx := context.Background()
	_, _ = svc.Open(ctx, "s")

	first, err := svc.ProcessTurn(ctx, "s", "I led a migration to Kubernetes", 700)
	require.NoError(t, err)
	require.Equal(t, OutcomeQuestion, first.Outcome)
	histLen := len(store.sessions["s"].ConversationHistory)

	second, err := svc.ProcessTurn(ctx, "s", "I led a migration to Kubernetes", 695)
	require.NoError(t, err)
	require.Equal(t, OutcomeDuplicate, second.Outcome)
	require.Len(t, store.sessions["s"].ConversationHistory, histLen)
	require.Equal(t, first.QuestionCount, second.QuestionCount)
}

func TestProcessTurn_AudioTestExcludedAndResets(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, ashaRepo(), &fakeGen{reply: "q"}, &fakeChain{})
	ctx := context.Background()
	_, _ = svc.Open(ctx, "s")
	_, _ = svc.ProcessTurn(ctx, "s", "I have 3 years of Python experience", 800)
	histLen := len(store.sessions["s"].ConversationHistory)

	res, err := svc.ProcessTurn(ctx, "s", "hello", 790)
	require.NoError(t, err)
	require.Equal(t, OutcomeAudioTest, res.Outcome)
	require.Equal(t, 0, res.QuestionCount)
	require.Equal(t, 0, store.sessions["s"].QuestionCount)
	require.Len(t, store.sessions["s"].ConversationHistory, histLen)
}

func TestProcessTurn_LongHelloIsNotAudioTest(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, ashaRepo(), &fakeGen{reply: "Interesting, tell me more."}, &fakeChain{})
	ctx := context.Background()
	_, _ = svc.Open(ctx, "s")

	res, err := svc.ProcessTurn(ctx, "s", "hello, I wanted to start by describing my background in detail", 800)
	require.NoError(t, err)
	require.Equal(t, OutcomeQuestion, res.Outcome)
	require.Equal(t, 1, res.QuestionCount)
}

func TestProcessTurn_SessionNotFound(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, ashaRepo(), &fakeGen{}, &fakeChain{})

	_, err := svc.ProcessTurn(context.Background(), "missing", "hi there everyone today", 500)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestProcessTurn_PanicDegradesToRetryPrompt(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, ashaRepo(), &fakeGen{reply: "q"}, &fakeChain{})
	ctx := context.Background()
	_, _ = svc.Open(ctx, "s")
	svc.now = func() time.Time { panic("clock broke") }

	res, err := svc.ProcessTurn(ctx, "s", "an answer with some substance", 700)
	require.NoError(t, err)
	require.Equal(t, OutcomeError, res.Outcome)
	require.Equal(t, replyError, res.ResponseText)
	require.False(t, res.InterviewCompleted)
}

func TestProcessTurn_PanicDoesNotPersistPartialState(t *testing.T) {
	store := newFakeStore()
	chain := &fakeChain{}
	svc := newTestService(store, ashaRepo(), panickyGen{}, chain)
	ctx := context.Background()
	_, _ = svc.Open(ctx, "s")
	before := store.sessions["s"]
	// synthesis succeeding with a new provider must not smuggle the
	// half-mutated session into the store on the recovery path
	chain.result = domain.SynthesisResult{
		AudioReference:  "audio/retry.wav",
		DurationSeconds: 3.1,
		ProviderUsed:    domain.ProviderNeural,
	}

	res, err := svc.ProcessTurn(ctx, "s", "an answer with some substance", 700)
	require.NoError(t, err)
	require.Equal(t, OutcomeError, res.Outcome)

	after := store.sessions["s"]
	require.Equal(t, before.QuestionCount, after.QuestionCount)
	require.Len(t, after.ConversationHistory, len(before.ConversationHistory))
	require.Equal(t, before.VoiceServiceAffinity, after.VoiceServiceAffinity)
	require.False(t, after.InterviewCompleted)
}

func TestProcessTurn_VoiceAffinityPersisted(t *testing.T) {
	store := newFakeStore()
	chain := &fakeChain{result: domain.SynthesisResult{
		AudioReference:  "audio/abc.wav",
		DurationSeconds: 4.2,
		ProviderUsed:    domain.ProviderHosted,
	}}
	svc := newTestService(store, ashaRepo(), &fakeGen{reply: "q"}, chain)
	ctx := context.Background()
	_, _ = svc.Open(ctx, "s")
	require.Equal(t, domain.ProviderHosted, store.sessions["s"].VoiceServiceAffinity)

	_, err := svc.ProcessTurn(ctx, "s", "a normal detailed answer here", 700)
	require.NoError(t, err)
	// second synthesis call sees the pinned affinity
	require.Equal(t, domain.ProviderHosted, chain.calls[len(chain.calls)-1])
}

func TestEndToEnd_AshaScenario(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, ashaRepo(), &fakeGen{reply: "What drew you to backend work?"}, &fakeChain{})
	ctx := context.Background()

	open, err := svc.Open(ctx, "asha-1")
	require.NoError(t, err)
	require.Equal(t, 0, open.QuestionCount)

	turn1, err := svc.ProcessTurn(ctx, "asha-1", "I have 3 years of Python experience", 800)
	require.NoError(t, err)
	require.Equal(t, 1, turn1.QuestionCount)
	require.False(t, turn1.IsFinal)
	// candidate answer + follow-up question
	require.Len(t, store.sessions["asha-1"].ConversationHistory, 2)

	turn2, err := svc.ProcessTurn(ctx, "asha-1", "I also maintain several Go services", 100)
	require.NoError(t, err)
	require.Equal(t, 2, turn2.QuestionCount)
	require.Equal(t, OutcomeFinalQuestion, turn2.Outcome)

	turn3, err := svc.ProcessTurn(ctx, "asha-1", "Thanks, I believe I'm a great fit", 15)
	require.NoError(t, err)
	require.True(t, turn3.IsFinal)
	require.True(t, turn3.InterviewCompleted)
	require.True(t, store.sessions["asha-1"].InterviewCompleted)
}
