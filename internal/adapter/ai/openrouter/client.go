// Package openrouter implements the follow-up question generator backed by
// an OpenRouter (OpenAI-compatible) chat completions endpoint.
package openrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/fairyhunter13/ai-interview-orchestrator/internal/adapter/observability"
	"github.com/fairyhunter13/ai-interview-orchestrator/internal/config"
	"github.com/fairyhunter13/ai-interview-orchestrator/internal/domain"
	obsctx "github.com/fairyhunter13/ai-interview-orchestrator/internal/observability"
)

const systemPrompt = `You are a professional, friendly job interviewer conducting a spoken interview.
Ask exactly one concise follow-up question based on the candidate's latest answer.
Stay conversational, do not repeat topics already covered, and never answer for the candidate.
Reply with the question text only.`

// Client implements domain.FollowupGenerator.
type Client struct {
	cfg config.Config
	hc  *http.Client
}

// New constructs a follow-up client with the configured timeout.
func New(cfg config.Config) *Client {
	timeout := cfg.LLMTimeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	transport := otelhttp.NewTransport(http.DefaultTransport,
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return fmt.Sprintf("Followup %s %s", r.Method, r.URL.Host)
		}),
	)
	return &Client{cfg: cfg, hc: &http.Client{Timeout: timeout, Transport: transport}}
}

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// GenerateFollowup asks the model for the next interview question. Transient
// upstream failures are retried with exponential backoff; a timeout or
// exhausted retry budget surfaces as domain.ErrUpstreamTimeout so the caller
// can fall back to its rule ladder.
func (c *Client) GenerateFollowup(ctx domain.Context, ic domain.InterviewContext, contextSummary, latestMessage string) (string, error) {
	if c.cfg.OpenRouterAPIKey == "" {
		return "", fmt.Errorf("%w: OPENROUTER_API_KEY missing", domain.ErrInvalidArgument)
	}

	userPrompt := buildUserPrompt(ic, contextSummary, latestMessage)
	start := time.Now()

	expo := backoff.NewExponentialBackOff()
	maxElapsed, initial, maxInterval, mult := c.cfg.GetLLMBackoffConfig()
	expo.MaxElapsedTime = maxElapsed
	expo.InitialInterval = initial
	expo.MaxInterval = maxInterval
	expo.Multiplier = mult

	var out string
	op := func() error {
		text, retryable, err := c.chatOnce(ctx, userPrompt)
		if err != nil {
			if retryable {
				return err
			}
			return backoff.Permanent(err)
		}
		out = text
		return nil
	}
	if err := backoff.Retry(op, backoff.WithContext(expo, ctx)); err != nil {
		observability.RecordFollowup("error", time.Since(start))
		obsctx.LoggerFromContext(ctx).Warn("followup generation failed",
			"session_key", ic.SessionKey, "error", err)
		if ctx.Err() != nil {
			return "", fmt.Errorf("op=followup.generate: %w", domain.ErrUpstreamTimeout)
		}
		return "", fmt.Errorf("op=followup.generate: %w", err)
	}
	observability.RecordFollowup("ok", time.Since(start))
	return out, nil
}

// chatOnce performs a single chat completion call. The second return value
// reports whether the failure is worth retrying.
func (c *Client) chatOnce(ctx context.Context, userPrompt string) (string, bool, error) {
	body, err := json.Marshal(chatRequest{
		Model: c.cfg.OpenRouterModel,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		MaxTokens: 200,
	})
	if err != nil {
		return "", false, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.OpenRouterBaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", false, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.OpenRouterAPIKey)

	resp, err := c.hc.Do(req)
	if err != nil {
		return "", true, fmt.Errorf("chat request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", true, fmt.Errorf("chat status %d: %s", resp.StatusCode, string(snippet))
	}
	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", false, fmt.Errorf("chat status %d: %s", resp.StatusCode, string(snippet))
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", false, fmt.Errorf("chat decode: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", false, fmt.Errorf("chat response empty")
	}
	text := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if text == "" {
		return "", false, fmt.Errorf("chat response blank content")
	}
	return text, false, nil
}

func buildUserPrompt(ic domain.InterviewContext, contextSummary, latestMessage string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Interview for the %s position", ic.JobTitle)
	if ic.CompanyName != "" {
		fmt.Fprintf(&b, " at %s", ic.CompanyName)
	}
	b.WriteString(".\n")
	if ic.JobDescription != "" {
		fmt.Fprintf(&b, "Job description: %s\n", clip(ic.JobDescription, 800))
	}
	if ic.ResumeText != "" {
		fmt.Fprintf(&b, "Candidate resume: %s\n", clip(ic.ResumeText, 800))
	}
	if contextSummary != "" {
		b.WriteString(contextSummary)
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "Candidate's latest answer: %s\n", clip(latestMessage, 600))
	b.WriteString("Ask the next interview question.")
	return b.String()
}

func clip(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
