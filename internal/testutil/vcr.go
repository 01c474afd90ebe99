// Package testutil holds helpers shared by package tests.
package testutil

import (
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"gopkg.in/dnaeon/go-vcr.v2/cassette"
	"gopkg.in/dnaeon/go-vcr.v2/recorder"
)

// scrubbedHeaders never reach a cassette.
var scrubbedHeaders = []string{"Authorization", "X-Goog-Api-Key", "Openai-Organization"}

// recording reports whether cassettes are being re-recorded (VCR_MODE=record).
func recording() bool {
	return os.Getenv("VCR_MODE") == "record"
}

// ReplayClient returns an HTTP client backed by testdata/fixtures/<name>.yaml
// and the API key to use with it. When recording, the key is read from
// keyEnv and the test is skipped if it is unset; when replaying, a
// placeholder key is returned. The recorder is stopped at test cleanup.
func ReplayClient(t *testing.T, name, keyEnv string) (*http.Client, string) {
	t.Helper()

	apiKey := os.Getenv(keyEnv)
	mode := recorder.ModeReplaying
	if recording() {
		if apiKey == "" {
			t.Skipf("%s not set, cannot record %s", keyEnv, name)
		}
		mode = recorder.ModeRecording
	}
	if apiKey == "" {
		apiKey = "test-key"
	}

	r, err := recorder.NewAsMode(filepath.Join("testdata", "fixtures", name), mode, nil)
	if err != nil {
		t.Fatalf("open cassette %s: %v", name, err)
	}
	t.Cleanup(func() {
		if err := r.Stop(); err != nil {
			t.Errorf("stop cassette %s: %v", name, err)
		}
	})

	// Bodies carry prompts only; method and URL identify an interaction.
	r.SetMatcher(func(req *http.Request, i cassette.Request) bool {
		return req.Method == i.Method && req.URL.String() == i.URL
	})
	r.AddFilter(func(i *cassette.Interaction) error {
		for _, h := range scrubbedHeaders {
			delete(i.Request.Headers, h)
		}
		return nil
	})

	return &http.Client{Transport: r}, apiKey
}
