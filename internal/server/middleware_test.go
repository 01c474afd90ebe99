package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/tjfontaine/mindspark/internal/core/domain"
)

func TestRequestIDMiddleware(t *testing.T) {
	var seen string
	handler := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	t.Run("generates id", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		if seen == "" {
			t.Fatal("request id not set in context")
		}
		if got := rec.Header().Get(RequestIDHeader); got != seen {
			t.Errorf("header = %q, want %q", got, seen)
		}
	})

	t.Run("keeps client uuid", func(t *testing.T) {
		const id = "8d3f0c2e-1b7a-4e52-9a55-0f1f3c2d4b6a"
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, id)
		handler.ServeHTTP(httptest.NewRecorder(), req)
		if seen != id {
			t.Errorf("request id = %q, want %q", seen, id)
		}
	})

	t.Run("replaces garbage", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, "not a uuid\n")
		handler.ServeHTTP(httptest.NewRecorder(), req)
		if seen == "not a uuid\n" {
			t.Error("garbage request id was kept")
		}
	})
}

func TestLoggingMiddleware(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	handler := RequestIDMiddleware(LoggingMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		AddLogField(r.Context(), "topic", "volcanoes")
		AddLogInt(r.Context(), "fragments", 3)
		AddLogField(r.Context(), "empty", "")
		w.WriteHeader(http.StatusAccepted)
		w.Write([]byte("hello"))
		w.(http.Flusher).Flush()
	})))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/generate", nil))

	if !rec.Flushed {
		t.Error("Flush was not forwarded")
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("log lines = %d, want 2", len(lines))
	}
	var completed map[string]any
	if err := json.Unmarshal([]byte(lines[1]), &completed); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if completed["msg"] != "request completed" {
		t.Errorf("msg = %v", completed["msg"])
	}
	if completed["status"] != float64(http.StatusAccepted) {
		t.Errorf("status = %v", completed["status"])
	}
	if completed["bytes"] != float64(5) {
		t.Errorf("bytes = %v", completed["bytes"])
	}
	if completed["topic"] != "volcanoes" || completed["fragments"] != float64(3) {
		t.Errorf("custom fields missing: %v", completed)
	}
	if _, ok := completed["empty"]; ok {
		t.Error("empty field should be skipped")
	}
	if completed["request_id"] == "" {
		t.Error("request_id missing")
	}
}

func TestLoggingMiddleware_ErrorRaisesLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	handler := LoggingMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		AddError(r.Context(), errors.New("persist failed"))
		AddError(r.Context(), nil)
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	var completed map[string]any
	json.Unmarshal([]byte(lines[len(lines)-1]), &completed)
	if completed["level"] != "WARN" || completed["error"] != "persist failed" {
		t.Errorf("completed line = %v", completed)
	}
}

type stubVerifier struct {
	tokens map[string]string
	calls  int
}

func (s *stubVerifier) Verify(ctx context.Context, token string) (*domain.Identity, error) {
	s.calls++
	if uid, ok := s.tokens[token]; ok {
		return &domain.Identity{UID: uid}, nil
	}
	return nil, domain.ErrPermission("invalid token")
}

func TestAuthMiddleware(t *testing.T) {
	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantType   string
		wantUID    string
	}{
		{"missing header", "", http.StatusUnauthorized, "authentication", ""},
		{"not bearer", "Basic abc", http.StatusUnauthorized, "authentication", ""},
		{"empty bearer", "Bearer   ", http.StatusUnauthorized, "authentication", ""},
		{"invalid token", "Bearer nope", http.StatusForbidden, "permission", ""},
		{"valid token", "Bearer good", http.StatusOK, "", "u1"},
		{"case-insensitive scheme", "bearer good", http.StatusOK, "", "u1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verifier := &stubVerifier{tokens: map[string]string{"good": "u1"}}
			var gotUID string
			handler := AuthMiddleware(verifier)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotUID = GetIdentity(r.Context()).UID
			}))

			req := httptest.NewRequest(http.MethodPost, "/api/generate", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if gotUID != tt.wantUID {
				t.Errorf("uid = %q, want %q", gotUID, tt.wantUID)
			}
			if tt.wantType != "" {
				var body ErrorBody
				if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
					t.Fatalf("error body: %v", err)
				}
				if body.Type != tt.wantType || body.Message == "" {
					t.Errorf("body = %+v, want type %s", body, tt.wantType)
				}
			}
		})
	}
}

func TestAuthMiddleware_WrapsPlainErrors(t *testing.T) {
	verifier := verifierFunc(func(ctx context.Context, token string) (*domain.Identity, error) {
		return nil, errors.New("backend down")
	})
	handler := AuthMiddleware(verifier)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("next must not be called")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer x")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
}

type verifierFunc func(ctx context.Context, token string) (*domain.Identity, error)

func (f verifierFunc) Verify(ctx context.Context, token string) (*domain.Identity, error) {
	return f(ctx, token)
}

func TestCORSMiddleware(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	allowed := []string{"http://localhost:3000"}

	tests := []struct {
		name        string
		origins     []string
		method      string
		origin      string
		preflight   bool
		wantOrigin  string
		wantExposed bool
		wantMethods string
	}{
		{name: "any origin", method: http.MethodPost, origin: "http://localhost:3000", wantOrigin: "*", wantExposed: true},
		{name: "listed origin", origins: allowed, method: http.MethodGet, origin: "http://localhost:3000", wantOrigin: "http://localhost:3000", wantExposed: true},
		{name: "unlisted origin", origins: allowed, method: http.MethodGet, origin: "http://evil.test"},
		{name: "no origin", origins: allowed, method: http.MethodGet},
		{name: "preflight", origins: allowed, method: http.MethodOptions, origin: "http://localhost:3000", preflight: true, wantOrigin: "http://localhost:3000", wantMethods: http.MethodPost},
		{name: "preflight unlisted origin", origins: allowed, method: http.MethodOptions, origin: "http://evil.test", preflight: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/api/generate", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			if tt.preflight {
				req.Header.Set("Access-Control-Request-Method", http.MethodPost)
				req.Header.Set("Access-Control-Request-Headers", "Authorization")
			}
			rec := httptest.NewRecorder()
			CORSMiddleware(tt.origins)(next).ServeHTTP(rec, req)

			if rec.Code != http.StatusOK {
				t.Errorf("status = %d, want 200", rec.Code)
			}
			if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tt.wantOrigin {
				t.Errorf("allow origin = %q, want %q", got, tt.wantOrigin)
			}
			exposed := rec.Header().Get("Access-Control-Expose-Headers")
			if tt.wantExposed && (!strings.Contains(exposed, domain.ImageURLHeader) || !strings.Contains(strings.ToLower(exposed), "x-request-id")) {
				t.Errorf("expose headers = %q", exposed)
			}
			if !tt.wantExposed && exposed != "" {
				t.Errorf("expose headers = %q, want none", exposed)
			}
			if got := rec.Header().Get("Access-Control-Allow-Methods"); got != tt.wantMethods {
				t.Errorf("allow methods = %q, want %q", got, tt.wantMethods)
			}
		})
	}
}

func TestTimeoutMiddleware(t *testing.T) {
	var deadline time.Time
	var ok bool
	handler := TimeoutMiddleware(time.Second)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		deadline, ok = r.Context().Deadline()
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if !ok || time.Until(deadline) > time.Second {
		t.Errorf("deadline = %v, %v", deadline, ok)
	}

	disabled := TimeoutMiddleware(0)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, ok = r.Context().Deadline()
	}))
	disabled.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if ok {
		t.Error("zero timeout must not set a deadline")
	}
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	WriteError(rec, req, domain.ErrInvalidRequest("topic is required").WithParam("topic"))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content-type = %q", ct)
	}
	var body ErrorBody
	json.Unmarshal(rec.Body.Bytes(), &body)
	if body.Message != "topic is required" || body.Type != "invalid_request" || body.Param != "topic" {
		t.Errorf("body = %+v", body)
	}
}

func TestServer_Router(t *testing.T) {
	s := New(0, slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))
	s.Router.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	rec := httptest.NewRecorder()
	s.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec.Header().Get(RequestIDHeader) == "" {
		t.Error("X-Request-ID missing")
	}
	if err := s.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown before Start = %v", err)
	}
}
