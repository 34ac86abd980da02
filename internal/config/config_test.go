package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	for _, k := range []string{"PORT", "IMAGE_BACKEND", "SCENE_IMAGE_DELAY", "CREDENTIAL_STORE", "METRICS_ENABLED"} {
		t.Setenv(k, "")
	}

	cfg := Load()
	if cfg.Port != 8080 {
		t.Errorf("expected port 8080, got %d", cfg.Port)
	}
	if cfg.ImageBackend != ImageBackendImagen {
		t.Errorf("expected imagen backend, got %s", cfg.ImageBackend)
	}
	if cfg.SceneImageDelay != 2*time.Second {
		t.Errorf("expected 2s delay, got %v", cfg.SceneImageDelay)
	}
	if cfg.CredentialStore != CredentialStoreFile {
		t.Errorf("expected file credential store, got %s", cfg.CredentialStore)
	}
	if cfg.MetricsEnabled {
		t.Error("expected metrics disabled by default")
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("PORT", "9090")
	t.Setenv("IMAGE_BACKEND", "HuggingFace")
	t.Setenv("SCENE_IMAGE_DELAY", "750")
	t.Setenv("METRICS_ENABLED", "true")

	cfg := Load()
	if cfg.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.Port)
	}
	if cfg.ImageBackend != ImageBackendHuggingFace {
		t.Errorf("expected huggingface backend, got %s", cfg.ImageBackend)
	}
	if cfg.SceneImageDelay != 750*time.Millisecond {
		t.Errorf("expected 750ms delay, got %v", cfg.SceneImageDelay)
	}
	if !cfg.MetricsEnabled {
		t.Error("expected metrics enabled")
	}
}

func TestLoad_UnknownBackendFallsBack(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("IMAGE_BACKEND", "dalle")

	if cfg := Load(); cfg.ImageBackend != ImageBackendImagen {
		t.Errorf("expected fallback to imagen, got %s", cfg.ImageBackend)
	}
}
