// Package redis persists interview session state in Redis.
//
// Each session is one JSON document keyed by the interview identifier. The
// store is the single source of truth for conversational state; retention is
// the scheduled interview length plus a grace margin so a session never
// expires mid-interview.
package redis

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"

	"github.com/fairyhunter13/ai-interview-orchestrator/internal/domain"
)

const keyPrefix = "interview:session:"

// SessionStore implements domain.SessionStore on top of a Redis client.
type SessionStore struct {
	client      *redis.Client
	graceMargin time.Duration
}

// NewSessionStore constructs a SessionStore. graceMargin <= 0 falls back to 1h.
func NewSessionStore(client *redis.Client, graceMargin time.Duration) *SessionStore {
	if graceMargin <= 0 {
		graceMargin = time.Hour
	}
	return &SessionStore{client: client, graceMargin: graceMargin}
}

// Get loads a session by key. Missing keys map to domain.ErrNotFound.
func (s *SessionStore) Get(ctx domain.Context, sessionKey string) (domain.InterviewSession, error) {
	tracer := otel.Tracer("store.sessions")
	ctx, span := tracer.Start(ctx, "sessions.Get")
	defer span.End()
	raw, err := s.client.Get(ctx, keyPrefix+sessionKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.InterviewSession{}, fmt.Errorf("op=session.get: %w", domain.ErrNotFound)
		}
		return domain.InterviewSession{}, fmt.Errorf("op=session.get: %w", err)
	}
	var sess domain.InterviewSession
	if err := json.Unmarshal(raw, &sess); err != nil {
		return domain.InterviewSession{}, fmt.Errorf("op=session.get: decode: %w", err)
	}
	return sess, nil
}

// CreateIfAbsent bootstraps a session from the interview context. Creation is
// idempotent: when a session already exists for the key, the existing state
// is returned unchanged, so a reconnecting client never loses conversation
// history.
func (s *SessionStore) CreateIfAbsent(ctx domain.Context, sessionKey string, ic domain.InterviewContext) (domain.InterviewSession, error) {
	tracer := otel.Tracer("store.sessions")
	ctx, span := tracer.Start(ctx, "sessions.CreateIfAbsent")
	defer span.End()

	fresh := domain.InterviewSession{
		SessionKey:       sessionKey,
		CandidateName:    ic.CandidateName,
		JobTitle:         ic.JobTitle,
		CompanyName:      ic.CompanyName,
		ResumeText:       ic.ResumeText,
		JobDescription:   ic.JobDescription,
		JobLocation:      ic.JobLocation,
		ScheduledSeconds: ic.ScheduledSeconds,
	}
	raw, err := json.Marshal(fresh)
	if err != nil {
		return domain.InterviewSession{}, fmt.Errorf("op=session.create: encode: %w", err)
	}
	ok, err := s.client.SetNX(ctx, keyPrefix+sessionKey, raw, s.ttl(fresh)).Result()
	if err != nil {
		return domain.InterviewSession{}, fmt.Errorf("op=session.create: %w", err)
	}
	if ok {
		return fresh, nil
	}
	// Lost the race or session already exists: the stored state wins.
	return s.Get(ctx, sessionKey)
}

// Save overwrites the session document and refreshes its retention window.
func (s *SessionStore) Save(ctx domain.Context, sess domain.InterviewSession) error {
	tracer := otel.Tracer("store.sessions")
	ctx, span := tracer.Start(ctx, "sessions.Save")
	defer span.End()
	if sess.SessionKey == "" {
		return fmt.Errorf("op=session.save: %w: session key required", domain.ErrInvalidArgument)
	}
	raw, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("op=session.save: encode: %w", err)
	}
	if err := s.client.Set(ctx, keyPrefix+sess.SessionKey, raw, s.ttl(sess)).Err(); err != nil {
		return fmt.Errorf("op=session.save: %w", err)
	}
	return nil
}

// Ping reports store reachability for readiness probes.
func (s *SessionStore) Ping(ctx domain.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *SessionStore) ttl(sess domain.InterviewSession) time.Duration {
	scheduled := time.Duration(sess.ScheduledSeconds) * time.Second
	if scheduled <= 0 {
		scheduled = time.Hour
	}
	return scheduled + s.graceMargin
}
