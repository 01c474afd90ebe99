package cli

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/tjfontaine/mindspark/internal/core/domain"
)

func fakeRelay(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/generate", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			w.WriteHeader(http.StatusForbidden)
			io.WriteString(w, `{"message":"Unauthorized","type":"permission"}`)
			return
		}
		w.Header().Set(domain.ImageURLHeader, "https://img/volcano")
		io.WriteString(w, "Volcanoes ")
		w.(http.Flusher).Flush()
		io.WriteString(w, "erupt.")
	})
	mux.HandleFunc("GET /api/history", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `[{"id":"h2","topic":"tides","explanation":"The moon pulls.","imageUrl":"https://img/tides","createdAt":"2026-05-02T00:00:00Z"},
			{"id":"h1","topic":"volcanoes","explanation":"Volcanoes erupt.","imageUrl":"https://img/volcano","createdAt":"2026-05-01T00:00:00Z"}]`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func TestAsk(t *testing.T) {
	srv := fakeRelay(t)

	out, _, err := run(t, "ask", "--server", srv.URL, "--token", "tok", "--interval", "1ms", "volcanoes")
	if err != nil {
		t.Fatalf("ask: %v", err)
	}
	for _, want := range []string{"volcanoes", "https://img/volcano", "Volcanoes erupt."} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Count(out, "Volcanoes erupt.") != 1 {
		t.Errorf("text printed more than once:\n%s", out)
	}
}

func TestAsk_ServerError(t *testing.T) {
	srv := fakeRelay(t)

	_, _, err := run(t, "ask", "--server", srv.URL, "--token", "nope", "volcanoes")
	if err == nil || !strings.Contains(err.Error(), "Unauthorized") {
		t.Errorf("err = %v, want the server message", err)
	}
}

func TestAsk_RequiresToken(t *testing.T) {
	t.Setenv("SPARK_TOKEN", "")
	_, _, err := run(t, "ask", "--server", "http://unused", "x")
	if err == nil || !strings.Contains(err.Error(), "token") {
		t.Errorf("err = %v", err)
	}
}

func TestHistoryAndShow(t *testing.T) {
	srv := fakeRelay(t)

	out, _, err := run(t, "history", "--server", srv.URL, "--token", "tok")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if i, j := strings.Index(out, "tides"), strings.Index(out, "volcanoes"); i < 0 || j < 0 || i > j {
		t.Errorf("history output not newest first:\n%s", out)
	}

	tests := []struct {
		ref  string
		want string
	}{
		{"1", "The moon pulls."},
		{"2", "Volcanoes erupt."},
		{"h2", "The moon pulls."},
	}
	for _, tt := range tests {
		out, _, err := run(t, "show", "--server", srv.URL, "--token", "tok", tt.ref)
		if err != nil {
			t.Fatalf("show %s: %v", tt.ref, err)
		}
		if !strings.Contains(out, tt.want) {
			t.Errorf("show %s output:\n%s", tt.ref, out)
		}
	}

	if _, _, err := run(t, "show", "--server", srv.URL, "--token", "tok", "9"); err == nil {
		t.Error("expected error for out of range entry")
	}
}
