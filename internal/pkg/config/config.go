package config

import (
	"errors"
	"io/fs"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix for environment overrides, e.g.
// MINDSPARK_SERVER__PORT=9000 sets server.port.
const EnvPrefix = "MINDSPARK_"

// DefaultPath is used when no config path is given.
const DefaultPath = "config.yaml"

type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Storage    StorageConfig    `koanf:"storage"`
	Identities []IdentityConfig `koanf:"identities"`
	Providers  []ProviderConfig `koanf:"providers"`
	Generation GenerationConfig `koanf:"generation"`
	History    HistoryConfig    `koanf:"history"`
}

type ServerConfig struct {
	Port           int           `koanf:"port"`
	RequestTimeout time.Duration `koanf:"request_timeout"`
	CORSOrigins    []string      `koanf:"cors_origins"`
}

type StorageConfig struct {
	Type   string       `koanf:"type"` // sqlite, postgres, mysql, memory, firestore
	SQLite SQLiteConfig `koanf:"sqlite"`
	// Database is the generic database configuration for multi-dialect support
	Database  DatabaseConfig  `koanf:"database"`
	Firestore FirestoreConfig `koanf:"firestore"`
}

type SQLiteConfig struct {
	Path string `koanf:"path"`
}

// DatabaseConfig is the generic database configuration supporting multiple dialects.
type DatabaseConfig struct {
	Driver string `koanf:"driver"` // sqlite, postgres, mysql
	DSN    string `koanf:"dsn"`    // Data source name / connection string
}

type FirestoreConfig struct {
	ProjectID  string `koanf:"project_id"`
	Collection string `koanf:"collection"`
}

// IdentityConfig maps a hashed bearer token to a user id.
// Generate hashes with cmd/keygen.
type IdentityConfig struct {
	UID       string `koanf:"uid"`
	Name      string `koanf:"name"`
	TokenHash string `koanf:"token_hash"`
}

type ProviderConfig struct {
	Name    string `koanf:"name"`
	Type    string `koanf:"type"` // gemini, openai, static
	APIKey  string `koanf:"api_key"`
	BaseURL string `koanf:"base_url"` // Custom API endpoint
	Model   string `koanf:"model"`
	// Fragments is the scripted answer for the static provider.
	Fragments []string `koanf:"fragments"`
	// Description is the scripted image prompt for the static provider.
	Description string `koanf:"description"`
}

type GenerationConfig struct {
	MetadataProvider string        `koanf:"metadata_provider"`
	AnswerProvider   string        `koanf:"answer_provider"`
	ImageBaseURL     string        `koanf:"image_base_url"`
	AnswerWords      int           `koanf:"answer_words"`
	PersistTimeout   time.Duration `koanf:"persist_timeout"`
}

type HistoryConfig struct {
	PageSize int `koanf:"page_size"`
}

// Provider returns the provider config with the given name.
func (c *Config) Provider(name string) (ProviderConfig, bool) {
	for _, p := range c.Providers {
		if p.Name == name {
			return p, true
		}
	}
	return ProviderConfig{}, false
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// Load reads DefaultPath.
func Load() (*Config, error) {
	return LoadFile(DefaultPath)
}

// LoadFile reads the YAML file at path (a missing file is fine), applies
// environment overrides and fills defaults.
func LoadFile(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		// File not found is OK, we'll use env vars
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	// Load environment variables (can override file config)
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".", -1)
	}), nil); err != nil {
		return nil, err
	}

	setDefaults(k)

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}

	// Substitute environment variables in provider API keys
	for i := range cfg.Providers {
		cfg.Providers[i].APIKey = substituteEnvVars(cfg.Providers[i].APIKey)
	}
	cfg.Storage.Database.DSN = substituteEnvVars(cfg.Storage.Database.DSN)

	return &cfg, nil
}

func setDefaults(k *koanf.Koanf) {
	defaults := map[string]any{
		"server.port":                  5001,
		"server.request_timeout":       "2m",
		"storage.type":                 "sqlite",
		"storage.sqlite.path":          "./data/mindspark.db",
		"storage.firestore.collection": "history",
		"generation.image_base_url":    "https://image.pollinations.ai/prompt/",
		"generation.answer_words":      100,
		"generation.persist_timeout":   "5s",
		"history.page_size":            10,
	}
	for key, v := range defaults {
		if !k.Exists(key) {
			k.Set(key, v)
		}
	}
}

func substituteEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		// Extract variable name from ${VAR_NAME}
		varName := envVarPattern.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}
