package tts

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/fairyhunter13/ai-interview-orchestrator/internal/domain"
)

const maxArtifactBytes = 16 << 20

// HTTPProvider calls a speech service over HTTP. The service takes a JSON
// body and answers with raw audio bytes; the provider persists them and
// reports the stored locator.
type HTTPProvider struct {
	name   domain.SpeechProvider
	url    string
	apiKey string
	store  ArtifactStore
	hc     *http.Client
}

// NewHTTPProvider builds a provider with a per-call timeout baked into its
// HTTP client. apiKey may be empty for unauthenticated services.
func NewHTTPProvider(name domain.SpeechProvider, url, apiKey string, store ArtifactStore, timeout time.Duration) *HTTPProvider {
	return &HTTPProvider{
		name:   name,
		url:    url,
		apiKey: apiKey,
		store:  store,
		hc: &http.Client{
			Timeout: timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport,
				otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
					return fmt.Sprintf("TTS %s %s %s", name, r.Method, r.URL.Host)
				}),
			),
		},
	}
}

func (p *HTTPProvider) Name() domain.SpeechProvider { return p.name }

type synthesizeBody struct {
	Text  string `json:"text"`
	Voice string `json:"voice,omitempty"`
}

func (p *HTTPProvider) Synthesize(ctx domain.Context, req domain.SynthesisRequest) (domain.SynthesisResult, error) {
	if p.url == "" {
		return domain.SynthesisResult{}, fmt.Errorf("tts %s: not configured: %w", p.name, domain.ErrInvalidArgument)
	}
	payload, err := json.Marshal(synthesizeBody{Text: req.Text, Voice: req.VoiceProfile})
	if err != nil {
		return domain.SynthesisResult{}, fmt.Errorf("tts %s: marshal: %w", p.name, err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(payload))
	if err != nil {
		return domain.SynthesisResult{}, fmt.Errorf("tts %s: build request: %w", p.name, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.hc.Do(httpReq)
	if err != nil {
		return domain.SynthesisResult{}, fmt.Errorf("tts %s: request: %w", p.name, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return domain.SynthesisResult{}, fmt.Errorf("tts %s: status %d: %w", p.name, resp.StatusCode, domain.ErrUpstreamTimeout)
	}
	audio, err := io.ReadAll(io.LimitReader(resp.Body, maxArtifactBytes))
	if err != nil {
		return domain.SynthesisResult{}, fmt.Errorf("tts %s: read body: %w", p.name, err)
	}
	if len(audio) == 0 {
		return domain.SynthesisResult{}, fmt.Errorf("tts %s: empty audio payload: %w", p.name, domain.ErrInternal)
	}

	locator, err := p.store.Put(ctx, audio, extFor(resp.Header.Get("Content-Type")))
	if err != nil {
		return domain.SynthesisResult{}, fmt.Errorf("tts %s: store artifact: %w", p.name, err)
	}

	res := domain.SynthesisResult{
		AudioReference: locator,
		ProviderUsed:   p.name,
	}
	if d, ok := wavDuration(audio); ok {
		res.DurationSeconds = d
	}
	return res, nil
}

func extFor(contentType string) string {
	switch contentType {
	case "audio/wav", "audio/x-wav", "audio/wave":
		return ".wav"
	case "audio/mpeg", "audio/mp3":
		return ".mp3"
	case "audio/ogg":
		return ".ogg"
	default:
		return ".bin"
	}
}
