package observability

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordTurn_IncrementsOutcome(t *testing.T) {
	before := testutil.ToFloat64(TurnsTotal.WithLabelValues("question"))
	RecordTurn("question")
	after := testutil.ToFloat64(TurnsTotal.WithLabelValues("question"))
	if after != before+1 {
		t.Fatalf("expected counter to increment, got %v -> %v", before, after)
	}
}

func TestRecordSynthesisAttempt(t *testing.T) {
	before := testutil.ToFloat64(SynthesisAttemptsTotal.WithLabelValues("neural", "ok"))
	RecordSynthesisAttempt("neural", "ok", 250*time.Millisecond)
	after := testutil.ToFloat64(SynthesisAttemptsTotal.WithLabelValues("neural", "ok"))
	if after != before+1 {
		t.Fatalf("expected attempt counter to increment, got %v -> %v", before, after)
	}
}

func TestHTTPMetricsMiddleware_Records(t *testing.T) {
	h := HTTPMetricsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	req := httptest.NewRequest(http.MethodGet, "/v1/interview/abc", nil)
	rec := httptest.NewRecorder()
	before := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("/v1/interview/abc", http.MethodGet, http.StatusText(http.StatusOK)))
	h.ServeHTTP(rec, req)
	after := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("/v1/interview/abc", http.MethodGet, http.StatusText(http.StatusOK)))
	if after != before+1 {
		t.Fatalf("expected http counter to increment, got %v -> %v", before, after)
	}
}
