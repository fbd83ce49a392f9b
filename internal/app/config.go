package app

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	ProviderGemini     = "gemini"
	ProviderOpenAI     = "openai"
	ProviderGoogle     = "google"
	ProviderElevenLabs = "elevenlabs"
	ProviderDeepgram   = "deepgram"
)

type Config struct {
	HTTPAddr    string
	LogLevel    string
	Environment string
	SentryDSN   string
	DatabaseURL string

	// Optional Redis for the TTS audio cache
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Generative model
	LLMProvider  string
	GeminiAPIKey string
	GeminiModel  string
	OpenAIAPIKey string
	OpenAIModel  string

	// Text-to-speech
	TTSProvider      string
	ElevenLabsAPIKey string
	TTSVoiceID       string  // ElevenLabs voice ID
	TTSStability     float64 // ElevenLabs voice stability (0.0-1.0)
	TTSSimilarity    float64 // ElevenLabs voice similarity boost (0.0-1.0)
	TTSCacheTTL      time.Duration
	TTSCacheEntries  int // in-process cache bound when Redis is not configured

	// Speech-to-text
	STTProvider    string
	DeepgramAPIKey string

	// Service account for the Google speech APIs
	GoogleCredentialsFile string

	StorageDir      string
	FFmpegPath      string
	QuestionCount   int
	UpstreamTimeout time.Duration
	EventWorkers    int
}

func LoadConfigFromEnv() Config {
	return Config{
		HTTPAddr:    getenv("HTTP_ADDR", ":5000"),
		LogLevel:    getenv("LOG_LEVEL", "info"),
		Environment: getenv("ENVIRONMENT", "development"),
		SentryDSN:   getenv("SENTRY_DSN", ""),
		DatabaseURL: getenv("DATABASE_URL", ""),

		RedisAddr:     getenv("REDIS_ADDR", ""),
		RedisPassword: getenv("REDIS_PASSWORD", ""),
		RedisDB:       getenvIntClamped("REDIS_DB", 0, 0, 15),

		LLMProvider:  strings.ToLower(getenv("LLM_PROVIDER", ProviderGemini)),
		GeminiAPIKey: getenv("GEMINI_API_KEY", ""),
		GeminiModel:  getenv("GEMINI_MODEL", "gemini-1.5-flash"),
		OpenAIAPIKey: getenv("OPENAI_API_KEY", ""),
		OpenAIModel:  getenv("OPENAI_MODEL", "gpt-4o-mini"),

		TTSProvider:      strings.ToLower(getenv("TTS_PROVIDER", ProviderGoogle)),
		ElevenLabsAPIKey: getenv("ELEVENLABS_API_KEY", ""),
		TTSVoiceID:       getenv("TTS_VOICE_ID", ""),
		TTSStability:     getenvFloatClamped("TTS_STABILITY", 0.5, 0.0, 1.0),
		TTSSimilarity:    getenvFloatClamped("TTS_SIMILARITY", 0.75, 0.0, 1.0),
		TTSCacheTTL:      getenvDuration("TTS_CACHE_TTL", 24*time.Hour),
		TTSCacheEntries:  getenvIntClamped("TTS_CACHE_MAX_ENTRIES", 512, 1, 100000),

		STTProvider:    strings.ToLower(getenv("STT_PROVIDER", ProviderGoogle)),
		DeepgramAPIKey: getenv("DEEPGRAM_API_KEY", ""),

		GoogleCredentialsFile: getenv("GOOGLE_CREDENTIALS_FILE", "credentials.json"),

		StorageDir:      getenv("STORAGE_DIR", "server_files"),
		FFmpegPath:      getenv("FFMPEG_PATH", "ffmpeg"),
		QuestionCount:   getenvIntClamped("QUESTION_COUNT", 3, 1, 10),
		UpstreamTimeout: getenvDuration("UPSTREAM_TIMEOUT", 0),
		EventWorkers:    getenvIntClamped("EVENT_WORKERS", 16, 1, 256),
	}
}

// Validate reports missing required settings for the selected providers.
func (c Config) Validate() error {
	var errs []error

	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}

	switch c.LLMProvider {
	case ProviderGemini:
		if c.GeminiAPIKey == "" {
			errs = append(errs, errors.New("GEMINI_API_KEY is required"))
		}
	case ProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			errs = append(errs, errors.New("OPENAI_API_KEY is required"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown LLM_PROVIDER %q", c.LLMProvider))
	}

	switch c.TTSProvider {
	case ProviderGoogle:
	case ProviderElevenLabs:
		if c.ElevenLabsAPIKey == "" {
			errs = append(errs, errors.New("ELEVENLABS_API_KEY is required"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown TTS_PROVIDER %q", c.TTSProvider))
	}

	switch c.STTProvider {
	case ProviderGoogle:
	case ProviderDeepgram:
		if c.DeepgramAPIKey == "" {
			errs = append(errs, errors.New("DEEPGRAM_API_KEY is required"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STT_PROVIDER %q", c.STTProvider))
	}

	if c.usesGoogleSpeech() {
		if _, err := os.Stat(c.GoogleCredentialsFile); err != nil {
			errs = append(errs, fmt.Errorf("GOOGLE_CREDENTIALS_FILE: %w", err))
		}
	}

	return errors.Join(errs...)
}

func (c Config) usesGoogleSpeech() bool {
	return c.TTSProvider == ProviderGoogle || c.STTProvider == ProviderGoogle
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getenvIntClamped(k string, def, min, max int) int {
	v, err := strconv.Atoi(os.Getenv(k))
	if err != nil {
		return def
	}
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func getenvFloatClamped(k string, def, min, max float64) float64 {
	v, err := strconv.ParseFloat(os.Getenv(k), 64)
	if err != nil {
		return def
	}
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func getenvDuration(k string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(k))
	if err != nil || d < 0 {
		return def
	}
	return d
}
