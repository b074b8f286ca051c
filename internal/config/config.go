package config

import (
	"encoding/json"
	"os"
	"strconv"
	"strings"
)

// Config centralizes runtime settings for both transcription pipelines.
// It is loaded once and passed into constructors; nothing reads the
// environment after Load returns.
type Config struct {
	Region           string
	SubscriptionKey  string
	EntraAccessToken string

	BatchAPIVersion string
	FastAPIVersion  string

	DisplayName           string
	Description           string
	Locale                string
	InputContainerSASURL  string
	OutputContainerSASURL string
	Phrases               []string

	PollIntervalSeconds        float64
	PollIntervalCeilingSeconds float64
	BackoffMultiplier          float64
	MaxPollMinutes             int

	MaxRetries          int
	RetryBackoffSeconds float64
	RequestRPS          float64
	RequestBurst        int

	AudioFilePath          string
	AudioURL               string
	Locales                []string
	DiarizationEnabled     bool
	DiarizationMaxSpeakers int
	Channels               []int
	PhraseList             []string
	ProfanityFilterMode    string

	DownloadResults bool
	DownloadDir     string
	ArtifactKinds   []string
}

func Load() Config {
	return Config{
		Region:           getEnv("SPEECH_REGION", ""),
		SubscriptionKey:  getEnv("SPEECH_KEY", ""),
		EntraAccessToken: getEnv("ENTRA_ACCESS_TOKEN", ""),

		BatchAPIVersion: getEnv("BATCH_API_VERSION", "2024-11-15"),
		FastAPIVersion:  getEnv("FAST_API_VERSION", "2025-10-15"),

		DisplayName:           getEnv("DISPLAY_NAME", ""),
		Description:           getEnv("DESCRIPTION", "Transcribe audio files from a container"),
		Locale:                getEnv("LOCALE", "en-US"),
		InputContainerSASURL:  getEnv("INPUT_CONTAINER_SAS_URL", ""),
		OutputContainerSASURL: getEnv("OUTPUT_CONTAINER_SAS_URL", ""),
		Phrases:               getEnvStringList("PHRASES_JSON", nil),

		PollIntervalSeconds:        getEnvFloat("POLL_INTERVAL_SECONDS", 60),
		PollIntervalCeilingSeconds: getEnvFloat("POLL_INTERVAL_CEILING_SECONDS", 600),
		BackoffMultiplier:          getEnvFloat("BACKOFF_MULTIPLIER", 1.5),
		MaxPollMinutes:             getEnvInt("MAX_POLL_MINUTES", 180),

		MaxRetries:          getEnvInt("MAX_RETRIES", 3),
		RetryBackoffSeconds: getEnvFloat("RETRY_BACKOFF_SECONDS", 2.0),
		RequestRPS:          getEnvFloat("REQUEST_RPS", 2),
		RequestBurst:        getEnvInt("REQUEST_BURST", 4),

		AudioFilePath:          getEnv("AUDIO_FILE_PATH", ""),
		AudioURL:               getEnv("AUDIO_URL", ""),
		Locales:                getEnvStringList("LOCALES_JSON", []string{"en-US"}),
		DiarizationEnabled:     getEnvBool("DIARIZATION_ENABLED", false),
		DiarizationMaxSpeakers: getEnvInt("DIARIZATION_MAX_SPEAKERS", 2),
		Channels:               getEnvIntList("CHANNELS_JSON", nil),
		PhraseList:             getEnvStringList("PHRASE_LIST_JSON", nil),
		ProfanityFilterMode:    getEnv("PROFANITY_FILTER_MODE", "Masked"),

		DownloadResults: getEnvBool("DOWNLOAD_RESULTS", false),
		DownloadDir:     getEnv("DOWNLOAD_DIR", "batch_results"),
		ArtifactKinds:   getEnvStringList("ARTIFACT_KINDS_JSON", []string{"transcription", "result"}),
	}
}

// ValidationError reports missing or inconsistent configuration. It is
// raised before any network call is made.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid configuration: " + strings.Join(e.Problems, "; ")
}

// HasCredential reports whether at least one auth mechanism is set.
func (c Config) HasCredential() bool {
	return c.EntraAccessToken != "" || c.SubscriptionKey != ""
}

func (c Config) validateCommon() []string {
	var problems []string
	if strings.TrimSpace(c.Region) == "" {
		problems = append(problems, "SPEECH_REGION is required")
	}
	if !c.HasCredential() {
		problems = append(problems, "set SPEECH_KEY or ENTRA_ACCESS_TOKEN")
	}
	if c.MaxRetries < 1 {
		problems = append(problems, "MAX_RETRIES must be at least 1")
	}
	if c.RetryBackoffSeconds <= 0 {
		problems = append(problems, "RETRY_BACKOFF_SECONDS must be positive")
	}
	return problems
}

// ValidateBatch checks everything the batch pipeline needs up front.
func (c Config) ValidateBatch() error {
	problems := c.validateCommon()
	if c.InputContainerSASURL == "" {
		problems = append(problems, "INPUT_CONTAINER_SAS_URL is required")
	}
	if c.OutputContainerSASURL == "" {
		problems = append(problems, "OUTPUT_CONTAINER_SAS_URL is required")
	}
	if c.PollIntervalSeconds <= 0 {
		problems = append(problems, "POLL_INTERVAL_SECONDS must be positive")
	}
	if c.BackoffMultiplier <= 1.0 {
		problems = append(problems, "BACKOFF_MULTIPLIER must be greater than 1.0")
	}
	if c.MaxPollMinutes <= 0 {
		problems = append(problems, "MAX_POLL_MINUTES must be positive")
	}
	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

// ValidateFast checks everything the synchronous pipeline needs up
// front, including the exactly-one-audio-source precondition.
func (c Config) ValidateFast() error {
	problems := c.validateCommon()
	switch {
	case c.AudioFilePath == "" && c.AudioURL == "":
		problems = append(problems, "set AUDIO_FILE_PATH or AUDIO_URL")
	case c.AudioFilePath != "" && c.AudioURL != "":
		problems = append(problems, "set only one of AUDIO_FILE_PATH and AUDIO_URL")
	}
	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvFloat(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvStringList(key string, fallback []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	var parsed []string
	if err := json.Unmarshal([]byte(value), &parsed); err != nil {
		return fallback
	}
	return parsed
}

func getEnvIntList(key string, fallback []int) []int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	var parsed []int
	if err := json.Unmarshal([]byte(value), &parsed); err != nil {
		return fallback
	}
	return parsed
}
