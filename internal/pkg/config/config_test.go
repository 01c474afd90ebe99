package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadFile(t *testing.T) {
	t.Run("defaults without file", func(t *testing.T) {
		cfg, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
		if err != nil {
			t.Fatalf("LoadFile() error = %v", err)
		}

		if cfg.Server.Port != 5001 {
			t.Errorf("port = %v, want 5001", cfg.Server.Port)
		}
		if cfg.Server.RequestTimeout != 2*time.Minute {
			t.Errorf("request_timeout = %v, want 2m", cfg.Server.RequestTimeout)
		}
		if cfg.History.PageSize != 10 {
			t.Errorf("page_size = %v, want 10", cfg.History.PageSize)
		}
		if cfg.Generation.ImageBaseURL != "https://image.pollinations.ai/prompt/" {
			t.Errorf("image_base_url = %q", cfg.Generation.ImageBaseURL)
		}
		if cfg.Generation.PersistTimeout != 5*time.Second {
			t.Errorf("persist_timeout = %v, want 5s", cfg.Generation.PersistTimeout)
		}
	})

	t.Run("file values", func(t *testing.T) {
		t.Setenv("TEST_GEMINI_KEY", "secret")
		path := writeConfig(t, `
server:
  port: 7000
storage:
  type: memory
identities:
  - uid: user-1
    name: Ada
    token_hash: abc
providers:
  - name: gemini
    type: gemini
    api_key: ${TEST_GEMINI_KEY}
    model: gemini-1.5-flash
generation:
  metadata_provider: gemini
  answer_provider: gemini
  answer_words: 50
`)
		cfg, err := LoadFile(path)
		if err != nil {
			t.Fatalf("LoadFile() error = %v", err)
		}

		if cfg.Server.Port != 7000 {
			t.Errorf("port = %v, want 7000", cfg.Server.Port)
		}
		if cfg.Storage.Type != "memory" {
			t.Errorf("storage.type = %q, want memory", cfg.Storage.Type)
		}
		if len(cfg.Identities) != 1 || cfg.Identities[0].UID != "user-1" {
			t.Errorf("identities = %+v", cfg.Identities)
		}
		p, ok := cfg.Provider("gemini")
		if !ok {
			t.Fatal("expected gemini provider")
		}
		if p.APIKey != "secret" {
			t.Errorf("api_key = %q, want substituted value", p.APIKey)
		}
		if cfg.Generation.AnswerWords != 50 {
			t.Errorf("answer_words = %v, want 50", cfg.Generation.AnswerWords)
		}
	})

	t.Run("env var port override", func(t *testing.T) {
		t.Setenv("MINDSPARK_SERVER__PORT", "9000")

		cfg, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
		if err != nil {
			t.Fatalf("LoadFile() error = %v", err)
		}

		if cfg.Server.Port != 9000 {
			t.Errorf("port = %v, want 9000", cfg.Server.Port)
		}
	})
}

func TestSubstituteEnvVars(t *testing.T) {
	t.Setenv("TEST_VAR", "test-value")

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "simple substitution",
			input: "${TEST_VAR}",
			want:  "test-value",
		},
		{
			name:  "substitution in string",
			input: "prefix-${TEST_VAR}-suffix",
			want:  "prefix-test-value-suffix",
		},
		{
			name:  "no substitution",
			input: "plain-string",
			want:  "plain-string",
		},
		{
			name:  "undefined var",
			input: "${UNDEFINED_VAR_FOR_TEST}",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := substituteEnvVars(tt.input)
			if got != tt.want {
				t.Errorf("substituteEnvVars() = %v, want %v", got, tt.want)
			}
		})
	}
}
