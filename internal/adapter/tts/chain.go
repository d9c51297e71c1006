package tts

import (
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/fairyhunter13/ai-interview-orchestrator/internal/adapter/observability"
	"github.com/fairyhunter13/ai-interview-orchestrator/internal/domain"
	obsctx "github.com/fairyhunter13/ai-interview-orchestrator/internal/observability"
)

// Chain tries providers in priority order until one produces a verifiable
// artifact. A session with a voice affinity starts at the pinned provider;
// higher-priority providers are not retried mid-interview so the voice
// stays consistent.
//
// Chain never returns an error. When every provider fails the result has an
// empty AudioReference and an estimated duration, and the turn proceeds as
// text-only.
type Chain struct {
	providers    []domain.SpeechSynthesizer
	store        ArtifactStore
	voiceProfile string
}

func NewChain(store ArtifactStore, voiceProfile string, providers ...domain.SpeechSynthesizer) *Chain {
	return &Chain{providers: providers, store: store, voiceProfile: voiceProfile}
}

func (c *Chain) Synthesize(ctx domain.Context, req domain.SynthesisRequest, affinity domain.SpeechProvider) domain.SynthesisResult {
	log := obsctx.LoggerFromContext(ctx)
	if req.VoiceProfile == "" {
		req.VoiceProfile = c.voiceProfile
	}

	start := 0
	if affinity != domain.ProviderNone {
		for i, p := range c.providers {
			if p.Name() == affinity {
				start = i
				break
			}
		}
	}

	for _, p := range c.providers[start:] {
		attemptStart := time.Now()
		res, err := p.Synthesize(ctx, req)
		if err != nil {
			observability.RecordSynthesisAttempt(string(p.Name()), "error", time.Since(attemptStart))
			log.Warn("synthesis attempt failed",
				"provider", string(p.Name()), "error", err.Error())
			continue
		}
		data, verr := c.verify(ctx, res.AudioReference)
		if verr != "" {
			observability.RecordSynthesisAttempt(string(p.Name()), verr, time.Since(attemptStart))
			log.Warn("synthesis artifact rejected",
				"provider", string(p.Name()), "reason", verr, "artifact", res.AudioReference)
			continue
		}
		if res.DurationSeconds <= 0 {
			if d, ok := wavDuration(data); ok {
				res.DurationSeconds = d
			} else {
				res.DurationSeconds = EstimateDuration(req.Text)
			}
		}
		observability.RecordSynthesisAttempt(string(p.Name()), "ok", time.Since(attemptStart))
		return res
	}

	observability.RecordSynthesisFallback()
	log.Warn("all synthesis providers failed, degrading to text-only")
	return domain.SynthesisResult{
		AudioReference:  "",
		DurationSeconds: EstimateDuration(req.Text),
		ProviderUsed:    domain.ProviderNone,
	}
}

// verify reads the claimed artifact back and sniffs it. A provider that
// reports success without a readable audio artifact is treated as failed.
func (c *Chain) verify(ctx domain.Context, locator string) ([]byte, string) {
	if locator == "" {
		return nil, "empty_reference"
	}
	data, err := c.store.ReadBack(ctx, locator)
	if err != nil || len(data) == 0 {
		return nil, "readback_failed"
	}
	if !strings.HasPrefix(mimetype.Detect(data).String(), "audio/") {
		return nil, "not_audio"
	}
	return data, ""
}
