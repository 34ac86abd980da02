// Package config resolves runtime configuration from the environment.
// A .env file in the working directory is loaded first when present;
// variables already set in the environment take precedence over it.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Image backend identifiers accepted by IMAGE_BACKEND.
const (
	ImageBackendImagen      = "imagen"
	ImageBackendHuggingFace = "huggingface"
)

// Credential store identifiers accepted by CREDENTIAL_STORE.
const (
	CredentialStoreFile   = "file"
	CredentialStoreSSM    = "ssm"
	CredentialStoreMemory = "memory"
)

// Config holds every setting the binaries read from the environment.
type Config struct {
	Port    int
	DataDir string

	GeminiModel      string
	ImageBackend     string
	HuggingFaceModel string
	SceneImageDelay  time.Duration

	// Static credential defaults; the persistent store takes precedence.
	GeminiAPIKey      string
	HuggingFaceAPIKey string

	CredentialStore     string
	SSMCredentialPrefix string

	SessionTableName string
	StoryboardBucket string

	MetricsEnabled   bool
	MetricsNamespace string
}

// Load reads .env (if any) and the process environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg("Failed to parse .env file, continuing with process environment")
	}

	cfg := &Config{
		Port:                getInt("PORT", 8080),
		DataDir:             getEnv("TUBESCRIPT_DATA_DIR", defaultDataDir()),
		GeminiModel:         getEnv("GEMINI_MODEL", ""),
		ImageBackend:        strings.ToLower(getEnv("IMAGE_BACKEND", ImageBackendImagen)),
		HuggingFaceModel:    getEnv("HUGGINGFACE_MODEL", "black-forest-labs/FLUX.1-schnell"),
		SceneImageDelay:     getDuration("SCENE_IMAGE_DELAY", 2*time.Second),
		GeminiAPIKey:        os.Getenv("GEMINI_API_KEY"),
		HuggingFaceAPIKey:   os.Getenv("HUGGINGFACE_API_KEY"),
		CredentialStore:     strings.ToLower(getEnv("CREDENTIAL_STORE", CredentialStoreFile)),
		SSMCredentialPrefix: getEnv("SSM_CREDENTIAL_PREFIX", "/tubescript/prod"),
		SessionTableName:    os.Getenv("SESSION_TABLE_NAME"),
		StoryboardBucket:    os.Getenv("STORYBOARD_BUCKET"),
		MetricsEnabled:      getBool("METRICS_ENABLED", false),
		MetricsNamespace:    getEnv("METRICS_NAMESPACE", "TubeScript"),
	}

	if cfg.ImageBackend != ImageBackendImagen && cfg.ImageBackend != ImageBackendHuggingFace {
		log.Warn().Str("value", cfg.ImageBackend).Msg("Unknown IMAGE_BACKEND, falling back to imagen")
		cfg.ImageBackend = ImageBackendImagen
	}
	return cfg
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".tubescript"
	}
	return filepath.Join(home, ".tubescript")
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Warn().Str("key", key).Str("value", v).Msg("Invalid integer, using default")
		return def
	}
	return n
}

func getBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v == "true" || v == "1" || v == "yes"
}

// getDuration accepts Go duration syntax ("1500ms", "2s") or a bare number of milliseconds.
func getDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if ms, err := strconv.Atoi(v); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	log.Warn().Str("key", key).Str("value", v).Msg("Invalid duration, using default")
	return def
}
