package transcript

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mshnjffr/azure-openai/internal/retry"
)

func fastPolicy(attempts int) retry.Policy {
	return retry.Policy{
		MaxAttempts: attempts,
		BaseDelay:   time.Millisecond,
		MaxDelay:    10 * time.Millisecond,
	}
}

func newTestRecorder(t *testing.T) *Recorder {
	t.Helper()
	r, err := NewRecorder(filepath.Join(t.TempDir(), "api.txt"), nil)
	if err != nil {
		t.Fatal(err)
	}
	return r
}

func readTranscript(t *testing.T, r *Recorder) string {
	t.Helper()
	data, err := os.ReadFile(r.Path())
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func countRecords(s string) int {
	return strings.Count(s, "=== API REQUEST ===")
}

func postJSON(t *testing.T, rt http.RoundTripper, url, body string) (*http.Response, error) {
	t.Helper()
	req, err := http.NewRequest("POST", url, strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", "test-secret")
	client := &http.Client{Transport: rt}
	return client.Do(req)
}

func TestTransport_SuccessProducesOneRecord(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	rec := newTestRecorder(t)
	tr := &Transport{Recorder: rec, Policy: fastPolicy(3)}

	resp, err := postJSON(t, tr, srv.URL, `{"hello":"world"}`)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if string(body) != `{"ok":true}` {
		t.Errorf("caller received wrong body: %q", body)
	}

	text := readTranscript(t, rec)
	if n := countRecords(text); n != 1 {
		t.Fatalf("expected 1 record, got %d", n)
	}
	if !strings.Contains(text, "Status Code: 200") {
		t.Error("record missing status")
	}
	if strings.Contains(text, "test-secret") {
		t.Fatal("api key leaked into transcript")
	}
	if !strings.Contains(text, Placeholder) {
		t.Error("expected redacted api-key header in transcript")
	}
}

func TestTransport_RateLimitedThenSuccess(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		if n <= 2 {
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"error":{"code":"429","message":"rate limited"}}`))
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	rec := newTestRecorder(t)
	tr := &Transport{Recorder: rec, Policy: fastPolicy(3)}

	resp, err := postJSON(t, tr, srv.URL, `{"attempt":"body"}`)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Fatalf("expected eventual 200, got %d", resp.StatusCode)
	}
	if got := calls.Load(); got != 3 {
		t.Fatalf("expected 3 physical attempts, got %d", got)
	}

	text := readTranscript(t, rec)
	if n := countRecords(text); n != 3 {
		t.Fatalf("expected 3 transcript records (one per attempt), got %d", n)
	}
	if got := strings.Count(text, "Status Code: 429"); got != 2 {
		t.Errorf("expected 2 rate-limit records, got %d", got)
	}
	if got := strings.Count(text, "Status Code: 200"); got != 1 {
		t.Errorf("expected 1 success record, got %d", got)
	}
	// The request body must be rewound and re-sent on each attempt.
	if got := strings.Count(text, `"attempt": "body"`); got != 3 {
		t.Errorf("expected request body in all 3 records, got %d", got)
	}
}

func TestTransport_ExhaustsRetries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	rec := newTestRecorder(t)
	tr := &Transport{Recorder: rec, Policy: fastPolicy(3)}

	resp, err := postJSON(t, tr, srv.URL, `{}`)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 after exhaustion, got %d", resp.StatusCode)
	}
	if n := countRecords(readTranscript(t, rec)); n != 3 {
		t.Fatalf("expected 3 records, got %d", n)
	}
}

func TestTransport_AuthFailureNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"code":"401","message":"bad key"}}`))
	}))
	defer srv.Close()

	rec := newTestRecorder(t)
	tr := &Transport{Recorder: rec, Policy: fastPolicy(3)}

	resp, err := postJSON(t, tr, srv.URL, `{}`)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if got := calls.Load(); got != 1 {
		t.Fatalf("auth failure must not be retried, got %d attempts", got)
	}
	if n := countRecords(readTranscript(t, rec)); n != 1 {
		t.Fatalf("expected 1 record, got %d", n)
	}
}

func TestTransport_ConnectionFailureRecorded(t *testing.T) {
	// A server that is already closed produces a connection error.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	rec := newTestRecorder(t)
	tr := &Transport{Recorder: rec, Policy: fastPolicy(2)}

	_, err := postJSON(t, tr, url, `{}`)
	if err == nil {
		t.Fatal("expected connection error")
	}

	text := readTranscript(t, rec)
	if n := countRecords(text); n != 2 {
		t.Fatalf("expected 2 records (connection failures retried), got %d", n)
	}
	if !strings.Contains(text, "Error:") {
		t.Error("failure records must carry the error description")
	}
}

func TestTransport_NilRecorderStillWorks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	tr := &Transport{Policy: fastPolicy(3)}
	resp, err := postJSON(t, tr, srv.URL, `{}`)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestTransport_RecordFailureDoesNotBreakCall(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	// Recorder pointing at a directory: every write fails.
	dir := t.TempDir()
	target := filepath.Join(dir, "api.txt")
	if err := os.Mkdir(target, 0o755); err != nil {
		t.Fatal(err)
	}
	rec, err := NewRecorder(target, nil)
	if err != nil {
		t.Fatal(err)
	}

	tr := &Transport{Recorder: rec, Policy: fastPolicy(3)}
	resp, err := postJSON(t, tr, srv.URL, `{}`)
	if err != nil {
		t.Fatalf("transcript failure must not break the call: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestTransport_ResponseBodyIntactAfterRecording(t *testing.T) {
	payload := `{"choices":[{"message":{"content":"Hello!"}}]}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(payload))
	}))
	defer srv.Close()

	rec := newTestRecorder(t)
	tr := &Transport{Recorder: rec, Policy: fastPolicy(3)}

	resp, err := postJSON(t, tr, srv.URL, `{}`)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if !bytes.Equal(body, []byte(payload)) {
		t.Errorf("caller body = %q, want %q", body, payload)
	}
}
