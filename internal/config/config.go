package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config carries every knob the processes read, resolved once at startup.
// Empty DatabaseURL switches on the in-memory store; empty KafkaBrokers makes
// the API run the pipeline in-process.
type Config struct {
	APIAddr    string
	WorkerAddr string

	DatabaseURL string

	KafkaBrokers []string
	KafkaTopic   string
	KafkaGroup   string

	MediaDir      string
	MediaBaseURL  string
	SigningSecret string
	SignedURLTTL  time.Duration

	AppPassword string
	JWTSecret   string

	OpenAIKey   string
	OpenAIModel string

	SpeechModel       string
	SpeechTimeout     time.Duration
	GoogleCredentials string

	SheetID string

	LogLevel string
}

// Load reads .env if present, then the environment. Secrets are validated by
// the component that needs them, not here, so the worker can start without
// API credentials and vice versa.
func Load() (*Config, error) {
	// Missing .env is fine outside development.
	_ = godotenv.Load()

	cfg := &Config{
		APIAddr:    getEnv("API_ADDR", ":8080"),
		WorkerAddr: getEnv("WORKER_ADDR", ":8081"),

		DatabaseURL: os.Getenv("DATABASE_URL"),

		KafkaBrokers: splitList(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:   getEnv("KAFKA_TOPIC", "video.processing"),
		KafkaGroup:   getEnv("KAFKA_GROUP", "voxlog-worker"),

		MediaDir:      getEnv("MEDIA_DIR", "./media"),
		MediaBaseURL:  getEnv("MEDIA_BASE_URL", "http://localhost:8080"),
		SigningSecret: os.Getenv("SIGNING_SECRET"),

		AppPassword: os.Getenv("APP_PASSWORD"),
		JWTSecret:   os.Getenv("JWT_SECRET"),

		OpenAIKey:   os.Getenv("OPENAI_API_KEY"),
		OpenAIModel: os.Getenv("OPENAI_MODEL"),

		SpeechModel:       os.Getenv("SPEECH_MODEL"),
		GoogleCredentials: os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"),

		SheetID: os.Getenv("SHEET_ID"),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	var err error
	if cfg.SignedURLTTL, err = getDuration("SIGNED_URL_TTL", time.Hour); err != nil {
		return nil, err
	}
	if cfg.SpeechTimeout, err = getDuration("SPEECH_TIMEOUT", 10*time.Minute); err != nil {
		return nil, err
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getDuration accepts either a Go duration string or a plain number of
// seconds.
func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("config %s: %w", key, err)
	}
	return d, nil
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
