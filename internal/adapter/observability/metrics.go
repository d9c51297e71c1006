package observability

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"route", "method", "status"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"route", "method"},
	)

	TurnsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "interview_turns_total",
			Help: "Total number of processed interview turns by outcome",
		},
		[]string{"outcome"},
	)
	CompletionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "interview_completions_total",
			Help: "Total number of interviews finalized",
		},
	)

	LLMFollowupTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llm_followup_total",
			Help: "Total number of LLM follow-up generations by outcome",
		},
		[]string{"outcome"},
	)
	LLMFollowupDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "llm_followup_duration_seconds",
			Help:    "LLM follow-up generation duration in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 20},
		},
	)

	SynthesisAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "synthesis_attempts_total",
			Help: "Total number of speech synthesis attempts by provider and outcome",
		},
		[]string{"provider", "outcome"},
	)
	SynthesisFallbackTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "synthesis_fallback_total",
			Help: "Total number of turns where every provider failed and audio degraded to text-only",
		},
	)
	SynthesisDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "synthesis_duration_seconds",
			Help:    "Speech synthesis duration in seconds by provider",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 25},
		},
		[]string{"provider"},
	)
)

func InitMetrics() {
	prometheus.MustRegister(HTTPRequestsTotal)
	prometheus.MustRegister(HTTPRequestDuration)
	prometheus.MustRegister(TurnsTotal)
	prometheus.MustRegister(CompletionsTotal)
	prometheus.MustRegister(LLMFollowupTotal)
	prometheus.MustRegister(LLMFollowupDuration)
	prometheus.MustRegister(SynthesisAttemptsTotal)
	prometheus.MustRegister(SynthesisFallbackTotal)
	prometheus.MustRegister(SynthesisDuration)
}

// HTTPMetricsMiddleware records Prometheus metrics for each request.
func HTTPMetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		dur := time.Since(start).Seconds()
		// Route pattern may be unavailable outside chi router; guard nil
		var route string
		if rc := chi.RouteContext(r.Context()); rc != nil {
			route = rc.RoutePattern()
		}
		if route == "" {
			// fallback when route pattern is unavailable
			route = r.URL.Path
		}
		method := r.Method
		status := ww.Status()
		HTTPRequestsTotal.WithLabelValues(route, method, http.StatusText(status)).Inc()
		HTTPRequestDuration.WithLabelValues(route, method).Observe(dur)
	})
}

// RecordTurn counts a processed turn by its resolved outcome.
func RecordTurn(outcome string) {
	TurnsTotal.WithLabelValues(outcome).Inc()
}

// RecordCompletion counts a finalized interview.
func RecordCompletion() {
	CompletionsTotal.Inc()
}

// RecordFollowup counts one LLM follow-up generation.
func RecordFollowup(outcome string, dur time.Duration) {
	LLMFollowupTotal.WithLabelValues(outcome).Inc()
	LLMFollowupDuration.Observe(dur.Seconds())
}

// RecordSynthesisAttempt counts one provider attempt.
func RecordSynthesisAttempt(provider, outcome string, dur time.Duration) {
	SynthesisAttemptsTotal.WithLabelValues(provider, outcome).Inc()
	SynthesisDuration.WithLabelValues(provider).Observe(dur.Seconds())
}

// RecordSynthesisFallback counts a turn where all providers failed.
func RecordSynthesisFallback() {
	SynthesisFallbackTotal.Inc()
}
