package logging

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func TestNewHonoursLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Level: "warn", Format: "json", Out: &buf})
	l.Info().Msg("hidden")
	l.Warn().Msg("shown")

	out := buf.String()
	if bytes.Contains([]byte(out), []byte("hidden")) {
		t.Fatalf("info event leaked at warn level: %s", out)
	}
	if !bytes.Contains([]byte(out), []byte("shown")) {
		t.Fatalf("warn event missing: %s", out)
	}
}

func TestRequestLoggerWritesStatus(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Format: "json", Out: &buf})

	r := chi.NewRouter()
	r.Use(middleware.RequestID, RequestLogger(l))
	r.Get("/missing", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing", nil))

	var ev map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &ev); err != nil {
		t.Fatalf("log line not json: %v (%s)", err, buf.String())
	}
	if ev["status"] != float64(404) || ev["level"] != "warn" || ev["path"] != "/missing" {
		t.Fatalf("unexpected event: %v", ev)
	}
	if ev["request_id"] == "" {
		t.Fatalf("request id missing: %v", ev)
	}
}
