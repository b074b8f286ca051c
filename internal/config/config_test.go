package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.BatchAPIVersion != "2024-11-15" {
		t.Fatalf("unexpected batch api version %q", cfg.BatchAPIVersion)
	}
	if cfg.FastAPIVersion != "2025-10-15" {
		t.Fatalf("unexpected fast api version %q", cfg.FastAPIVersion)
	}
	if cfg.PollIntervalSeconds != 60 {
		t.Fatalf("expected 60s default poll interval, got %f", cfg.PollIntervalSeconds)
	}
	if cfg.PollIntervalCeilingSeconds != 600 {
		t.Fatalf("expected 10min default ceiling, got %f", cfg.PollIntervalCeilingSeconds)
	}
	if cfg.BackoffMultiplier != 1.5 {
		t.Fatalf("expected 1.5 default multiplier, got %f", cfg.BackoffMultiplier)
	}
	if cfg.MaxRetries != 3 || cfg.RetryBackoffSeconds != 2.0 {
		t.Fatalf("unexpected retry defaults: %d / %f", cfg.MaxRetries, cfg.RetryBackoffSeconds)
	}
	if len(cfg.Locales) != 1 || cfg.Locales[0] != "en-US" {
		t.Fatalf("expected default locales [en-US], got %v", cfg.Locales)
	}
	if cfg.ProfanityFilterMode != "Masked" {
		t.Fatalf("unexpected profanity default %q", cfg.ProfanityFilterMode)
	}
}

func TestLoadParsesJSONLists(t *testing.T) {
	t.Setenv("PHRASES_JSON", `["Contoso","Rehaan"]`)
	t.Setenv("CHANNELS_JSON", `[0,1]`)
	t.Setenv("LOCALES_JSON", `not-json`)

	cfg := Load()
	if len(cfg.Phrases) != 2 || cfg.Phrases[1] != "Rehaan" {
		t.Fatalf("unexpected phrases %v", cfg.Phrases)
	}
	if len(cfg.Channels) != 2 || cfg.Channels[1] != 1 {
		t.Fatalf("unexpected channels %v", cfg.Channels)
	}
	if len(cfg.Locales) != 1 || cfg.Locales[0] != "en-US" {
		t.Fatalf("malformed json must fall back to the default, got %v", cfg.Locales)
	}
}

func TestValidateBatchReportsAllMissingSettings(t *testing.T) {
	cfg := Config{
		MaxRetries:          3,
		RetryBackoffSeconds: 2,
		PollIntervalSeconds: 60,
		BackoffMultiplier:   1.5,
		MaxPollMinutes:      180,
	}

	err := cfg.ValidateBatch()
	var validation *ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("expected *ValidationError, got %v", err)
	}
	message := validation.Error()
	for _, fragment := range []string{"SPEECH_REGION", "SPEECH_KEY", "INPUT_CONTAINER_SAS_URL", "OUTPUT_CONTAINER_SAS_URL"} {
		if !strings.Contains(message, fragment) {
			t.Fatalf("expected %q mentioned in %q", fragment, message)
		}
	}
}

func TestValidateBatchAcceptsCompleteConfig(t *testing.T) {
	cfg := Config{
		Region:                "eastus",
		SubscriptionKey:       "key",
		InputContainerSASURL:  "https://in/sas",
		OutputContainerSASURL: "https://out/sas",
		MaxRetries:            3,
		RetryBackoffSeconds:   2,
		PollIntervalSeconds:   60,
		BackoffMultiplier:     1.5,
		MaxPollMinutes:        180,
	}
	if err := cfg.ValidateBatch(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
}

func TestValidateFastRejectsAmbiguousSource(t *testing.T) {
	cfg := Config{
		Region:              "eastus",
		EntraAccessToken:    "token",
		MaxRetries:          3,
		RetryBackoffSeconds: 2,
		AudioFilePath:       "clip.wav",
		AudioURL:            "https://audio.example/clip.wav",
	}

	err := cfg.ValidateFast()
	if err == nil || !strings.Contains(err.Error(), "only one of") {
		t.Fatalf("expected ambiguous source rejection, got %v", err)
	}
}

func TestValidateFastRejectsMissingSource(t *testing.T) {
	cfg := Config{
		Region:              "eastus",
		SubscriptionKey:     "key",
		MaxRetries:          3,
		RetryBackoffSeconds: 2,
	}

	err := cfg.ValidateFast()
	if err == nil || !strings.Contains(err.Error(), "AUDIO_FILE_PATH or AUDIO_URL") {
		t.Fatalf("expected missing source rejection, got %v", err)
	}
}

func TestLoadDotEnvRespectsProcessEnvironment(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	content := strings.Join([]string{
		"# comment",
		"SPEECH_REGION=westeurope",
		`SPEECH_KEY="quoted-key"`,
		"export MAX_RETRIES=7",
		"DOWNLOAD_DIR=results # inline comment",
	}, "\n")
	if err := os.WriteFile(envPath, []byte(content), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}

	t.Setenv("SPEECH_REGION", "eastus")
	t.Setenv("SPEECH_KEY", "")
	t.Setenv("MAX_RETRIES", "")
	t.Setenv("DOWNLOAD_DIR", "")
	// Blank values count as unset for these keys, so drop them entirely.
	os.Unsetenv("SPEECH_KEY")
	os.Unsetenv("MAX_RETRIES")
	os.Unsetenv("DOWNLOAD_DIR")

	if err := LoadDotEnv(envPath, filepath.Join(dir, "missing.env")); err != nil {
		t.Fatalf("load dotenv: %v", err)
	}

	cfg := Load()
	if cfg.Region != "eastus" {
		t.Fatalf("process env must win, got region %q", cfg.Region)
	}
	if cfg.SubscriptionKey != "quoted-key" {
		t.Fatalf("expected quoted value unwrapped, got %q", cfg.SubscriptionKey)
	}
	if cfg.MaxRetries != 7 {
		t.Fatalf("expected export prefix handled, got %d", cfg.MaxRetries)
	}
	if cfg.DownloadDir != "results" {
		t.Fatalf("expected inline comment stripped, got %q", cfg.DownloadDir)
	}
}
