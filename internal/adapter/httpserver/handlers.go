// Package httpserver exposes the interview orchestrator over REST: session
// open, turn processing, health and readiness probes. Handlers stay thin;
// all conversation logic lives in the usecase layer.
package httpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/fairyhunter13/ai-interview-orchestrator/internal/adapter/observability"
	"github.com/fairyhunter13/ai-interview-orchestrator/internal/config"
	"github.com/fairyhunter13/ai-interview-orchestrator/internal/domain"
	"github.com/fairyhunter13/ai-interview-orchestrator/internal/usecase"
)

const maxTurnBodyBytes = 64 << 10

// TurnRunner is the slice of the turn service the handlers need.
type TurnRunner interface {
	Open(ctx domain.Context, sessionKey string) (usecase.TurnResult, error)
	ProcessTurn(ctx domain.Context, sessionKey, candidateText string, timeRemaining int) (usecase.TurnResult, error)
}

// Server aggregates handler dependencies.
type Server struct {
	Cfg        config.Config
	Turns      TurnRunner
	DBCheck    func(ctx context.Context) error
	RedisCheck func(ctx context.Context) error
}

// NewServer constructs an HTTP server with all handlers and checks wired.
func NewServer(cfg config.Config, turns TurnRunner, dbCheck, redisCheck func(context.Context) error) *Server {
	return &Server{Cfg: cfg, Turns: turns, DBCheck: dbCheck, RedisCheck: redisCheck}
}

var (
	vldOnce sync.Once
	vld     *validator.Validate
)

func getValidator() *validator.Validate {
	vldOnce.Do(func() { vld = validator.New() })
	return vld
}

type openResponse struct {
	Text                 string  `json:"text"`
	AudioReference       string  `json:"audio_reference,omitempty"`
	AudioDurationSeconds float64 `json:"audio_duration_seconds"`
	QuestionCount        int     `json:"question_count"`
	IsFinal              bool    `json:"is_final"`
}

type turnRequest struct {
	Text                 string `json:"text"`
	TimeRemainingSeconds *int   `json:"time_remaining_seconds" validate:"required,gte=0"`
}

type turnResponse struct {
	ResponseText         string  `json:"response_text"`
	AudioReference       string  `json:"audio_reference,omitempty"`
	AudioDurationSeconds float64 `json:"audio_duration_seconds"`
	QuestionCount        int     `json:"question_count"`
	IsFinal              bool    `json:"is_final"`
	InterviewCompleted   bool    `json:"interview_completed"`
	TimeRemainingSeconds int     `json:"time_remaining_seconds"`
}

// OpenHandler bootstraps or resumes an interview session. Opening is
// idempotent: a reconnect replays the last interviewer message instead of
// resetting the conversation.
func (s *Server) OpenHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionKey := chi.URLParam(r, "sessionKey")
		if sessionKey == "" {
			writeError(w, r, fmt.Errorf("%w: missing session key", domain.ErrInvalidArgument), nil)
			return
		}
		res, err := s.Turns.Open(r.Context(), sessionKey)
		if err != nil {
			writeError(w, r, err, map[string]any{"session_key": sessionKey})
			return
		}
		writeJSON(w, http.StatusOK, openResponse{
			Text:                 res.ResponseText,
			AudioReference:       res.AudioReference,
			AudioDurationSeconds: res.AudioDuration,
			QuestionCount:        res.QuestionCount,
			IsFinal:              res.IsFinal,
		})
	}
}

// TurnHandler processes one candidate utterance and returns the
// interviewer's reply. The handler never surfaces processing errors as
// non-200 once the session is resolved; the turn service degrades to a
// canned reply instead.
func (s *Server) TurnHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionKey := chi.URLParam(r, "sessionKey")
		if sessionKey == "" {
			writeError(w, r, fmt.Errorf("%w: missing session key", domain.ErrInvalidArgument), nil)
			return
		}
		var req turnRequest
		body := io.LimitReader(r.Body, maxTurnBodyBytes)
		if err := json.NewDecoder(body).Decode(&req); err != nil {
			writeError(w, r, fmt.Errorf("%w: invalid json body", domain.ErrInvalidArgument), map[string]any{"decode": err.Error()})
			return
		}
		text := req.Text
		timeRemaining := 0
		if req.TimeRemainingSeconds != nil {
			timeRemaining = *req.TimeRemainingSeconds
		}
		if err := getValidator().Struct(req); err != nil {
			// A missing or negative time budget must not stall the interview.
			// Run the turn as an unheard utterance so the candidate gets a
			// clarifying prompt back instead of an error.
			text = ""
			if timeRemaining < 0 {
				timeRemaining = 0
			}
		}
		res, err := s.Turns.ProcessTurn(r.Context(), sessionKey, text, timeRemaining)
		if err != nil {
			writeError(w, r, err, map[string]any{"session_key": sessionKey})
			return
		}
		observability.RecordTurn(string(res.Outcome))
		if res.Outcome == usecase.OutcomeClosing {
			observability.RecordCompletion()
		}
		writeJSON(w, http.StatusOK, turnResponse{
			ResponseText:         res.ResponseText,
			AudioReference:       res.AudioReference,
			AudioDurationSeconds: res.AudioDuration,
			QuestionCount:        res.QuestionCount,
			IsFinal:              res.IsFinal,
			InterviewCompleted:   res.InterviewCompleted,
			TimeRemainingSeconds: res.TimeRemainingSeconds,
		})
	}
}

// HealthzHandler reports process liveness.
func (s *Server) HealthzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// ReadyzHandler probes the session store and the record store.
func (s *Server) ReadyzHandler() http.HandlerFunc {
	type check struct {
		Name    string `json:"name"`
		OK      bool   `json:"ok"`
		Details string `json:"details,omitempty"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		checks := make([]check, 0, 2)
		if s.DBCheck != nil {
			if err := s.DBCheck(ctx); err != nil {
				checks = append(checks, check{Name: "db", OK: false, Details: err.Error()})
			} else {
				checks = append(checks, check{Name: "db", OK: true})
			}
		}
		if s.RedisCheck != nil {
			if err := s.RedisCheck(ctx); err != nil {
				checks = append(checks, check{Name: "redis", OK: false, Details: err.Error()})
			} else {
				checks = append(checks, check{Name: "redis", OK: true})
			}
		}
		ok := true
		for _, c := range checks {
			if !c.OK {
				ok = false
				break
			}
		}
		st := http.StatusOK
		if !ok {
			st = http.StatusServiceUnavailable
		}
		writeJSON(w, st, map[string]any{"checks": checks})
	}
}
