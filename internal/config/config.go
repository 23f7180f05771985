package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Mode string

const (
	ModeLocal Mode = "local"
	ModeGCP   Mode = "gcp"
)

type Config struct {
	Mode Mode

	Port string

	GCPProjectID string
	GCPLocation  string
	ModelName    string

	StorageBackend string // "memory", "sqlite" or "firestore"
	SQLitePath     string
	UseMockLLM     bool // true = use mock even on GCP

	Session SessionConfig `yaml:"session"`
}

// SessionConfig tunes the guided-session flow. Defaults mirror the
// production product: a 10 minute chat, 5 minute extensions capped at 3,
// 3 tokens regenerating every 3 hours.
type SessionConfig struct {
	ChatLength      time.Duration `yaml:"chat_length"`
	ExtensionLength time.Duration `yaml:"extension_length"`
	MaxExtensions   int           `yaml:"max_extensions"`
	BreatheStart    int           `yaml:"breathe_start"`
	MessageLimit    int           `yaml:"message_limit"`
	DebounceWindow  time.Duration `yaml:"debounce_window"`
	TokenCap        int           `yaml:"token_cap"`
	RegenPeriod     time.Duration `yaml:"regen_period"`
	RegistryTTL     time.Duration `yaml:"registry_ttl"`
}

// UnmarshalYAML accepts durations in time.ParseDuration form ("10m",
// "3h") and leaves any omitted knob at its current value.
func (sc *SessionConfig) UnmarshalYAML(node *yaml.Node) error {
	var raw struct {
		ChatLength      string `yaml:"chat_length"`
		ExtensionLength string `yaml:"extension_length"`
		MaxExtensions   *int   `yaml:"max_extensions"`
		BreatheStart    *int   `yaml:"breathe_start"`
		MessageLimit    *int   `yaml:"message_limit"`
		DebounceWindow  string `yaml:"debounce_window"`
		TokenCap        *int   `yaml:"token_cap"`
		RegenPeriod     string `yaml:"regen_period"`
		RegistryTTL     string `yaml:"registry_ttl"`
	}
	if err := node.Decode(&raw); err != nil {
		return err
	}

	setDur := func(dst *time.Duration, s string) error {
		if s == "" {
			return nil
		}
		d, err := time.ParseDuration(s)
		if err != nil {
			return err
		}
		*dst = d
		return nil
	}
	for _, pair := range []struct {
		dst *time.Duration
		src string
	}{
		{&sc.ChatLength, raw.ChatLength},
		{&sc.ExtensionLength, raw.ExtensionLength},
		{&sc.DebounceWindow, raw.DebounceWindow},
		{&sc.RegenPeriod, raw.RegenPeriod},
		{&sc.RegistryTTL, raw.RegistryTTL},
	} {
		if err := setDur(pair.dst, pair.src); err != nil {
			return err
		}
	}

	if raw.MaxExtensions != nil {
		sc.MaxExtensions = *raw.MaxExtensions
	}
	if raw.BreatheStart != nil {
		sc.BreatheStart = *raw.BreatheStart
	}
	if raw.MessageLimit != nil {
		sc.MessageLimit = *raw.MessageLimit
	}
	if raw.TokenCap != nil {
		sc.TokenCap = *raw.TokenCap
	}
	return nil
}

func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		ChatLength:      10 * time.Minute,
		ExtensionLength: 5 * time.Minute,
		MaxExtensions:   3,
		BreatheStart:    3,
		MessageLimit:    500,
		DebounceWindow:  300 * time.Millisecond,
		TokenCap:        3,
		RegenPeriod:     3 * time.Hour,
		RegistryTTL:     30 * time.Minute,
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getBoolEnv(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if v == "1" || v == "true" || v == "TRUE" {
		return true
	}
	return false
}

func getIntEnv(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// Load reads .env if present, an optional YAML file named by PAL_CONFIG_FILE,
// then env vars on top. Env vars win over the file.
func Load() *Config {
	_ = godotenv.Load()

	modeStr := getEnv("PAL_MODE", "local")
	var mode Mode
	switch modeStr {
	case "gcp":
		mode = ModeGCP
	default:
		mode = ModeLocal
	}

	cfg := &Config{
		Mode: mode,

		Port: getEnv("PAL_PORT", "8080"),

		GCPProjectID: getEnv("PAL_GCP_PROJECT", ""),
		GCPLocation:  getEnv("PAL_GCP_LOCATION", "us-central1"),
		ModelName:    getEnv("PAL_MODEL_NAME", "gemini-2.5-flash-lite"),

		StorageBackend: getEnv("PAL_STORAGE_BACKEND", "memory"),
		SQLitePath:     getEnv("PAL_SQLITE_PATH", "./data/pal.db"),
		UseMockLLM:     getBoolEnv("PAL_USE_MOCK_LLM", mode == ModeLocal),

		Session: DefaultSessionConfig(),
	}

	if path := os.Getenv("PAL_CONFIG_FILE"); path != "" {
		if err := loadFile(path, cfg); err != nil {
			log.Fatalf("loading config file %s: %v", path, err)
		}
	}

	// Env overrides for the most commonly tuned session knobs.
	cfg.Session.TokenCap = getIntEnv("PAL_TOKEN_CAP", cfg.Session.TokenCap)
	cfg.Session.MaxExtensions = getIntEnv("PAL_MAX_EXTENSIONS", cfg.Session.MaxExtensions)

	// Minimal validation in GCP mode
	if cfg.Mode == ModeGCP && cfg.GCPProjectID == "" {
		log.Fatal("PAL_GCP_PROJECT must be set in gcp mode")
	}

	return cfg
}

func loadFile(path string, cfg *Config) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read: %w", err)
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return fmt.Errorf("parse: %w", err)
	}
	return nil
}
