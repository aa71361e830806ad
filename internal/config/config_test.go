package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultThresholds(t *testing.T) {
	th := DefaultThresholds()

	if th.Liveness.EARThreshold != 0.21 {
		t.Errorf("expected EAR threshold 0.21, got %v", th.Liveness.EARThreshold)
	}
	if th.Liveness.EARWindow != 3 {
		t.Errorf("expected EAR window 3, got %d", th.Liveness.EARWindow)
	}
	if th.Liveness.SmileFrames != 5 || th.Liveness.HeadTurnFrames != 3 || th.Liveness.MovementFrames != 8 {
		t.Errorf("unexpected frame counts: %+v", th.Liveness)
	}
	if th.Liveness.Timeout != 30*time.Second {
		t.Errorf("expected timeout 30s, got %s", th.Liveness.Timeout)
	}
	if th.Liveness.HintAfter != 20*time.Second {
		t.Errorf("expected hint after 20s, got %s", th.Liveness.HintAfter)
	}
	if th.Match.Threshold != 0.6 {
		t.Errorf("expected match threshold 0.6, got %v", th.Match.Threshold)
	}
	if th.Ledger.Throttle != 10*time.Second {
		t.Errorf("expected throttle 10s, got %s", th.Ledger.Throttle)
	}
	if err := th.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoadThresholdsOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "thresholds.yaml")
	content := "liveness:\n  timeout: 45s\nmatch:\n  threshold: 0.5\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	th, err := LoadThresholds(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if th.Liveness.Timeout != 45*time.Second {
		t.Errorf("expected overridden timeout 45s, got %s", th.Liveness.Timeout)
	}
	if th.Match.Threshold != 0.5 {
		t.Errorf("expected overridden match threshold 0.5, got %v", th.Match.Threshold)
	}
	// Untouched keys keep their defaults.
	if th.Liveness.SmileThreshold != 0.4 {
		t.Errorf("expected default smile threshold 0.4, got %v", th.Liveness.SmileThreshold)
	}
}

func TestLoadThresholdsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad yaml", "liveness: [unclosed"},
		{"zero window", "liveness:\n  ear_window: 0\n"},
		{"too many signals", "liveness:\n  required_signals: 5\n"},
		{"hint after timeout", "liveness:\n  hint_after: 40s\n"},
		{"negative threshold", "match:\n  threshold: -1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "thresholds.yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0600); err != nil {
				t.Fatalf("failed to write file: %v", err)
			}
			if _, err := LoadThresholds(path); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoadThresholdsMissingFile(t *testing.T) {
	if _, err := LoadThresholds(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestEnvInt(t *testing.T) {
	t.Setenv("TEST_ENV_INT", "42")
	if got := envInt("TEST_ENV_INT", 7); got != 42 {
		t.Errorf("expected 42, got %d", got)
	}

	t.Setenv("TEST_ENV_INT", "-3")
	if got := envInt("TEST_ENV_INT", 7); got != 7 {
		t.Errorf("expected default 7 for negative value, got %d", got)
	}

	t.Setenv("TEST_ENV_INT", "abc")
	if got := envInt("TEST_ENV_INT", 7); got != 7 {
		t.Errorf("expected default 7 for invalid value, got %d", got)
	}
}

func TestEnvDuration(t *testing.T) {
	t.Setenv("TEST_ENV_DURATION", "250ms")
	if got := envDuration("TEST_ENV_DURATION", time.Second); got != 250*time.Millisecond {
		t.Errorf("expected 250ms, got %s", got)
	}

	t.Setenv("TEST_ENV_DURATION", "soon")
	if got := envDuration("TEST_ENV_DURATION", time.Second); got != time.Second {
		t.Errorf("expected default 1s, got %s", got)
	}
}

func TestLoad(t *testing.T) {
	t.Setenv("STORE_URL", "sqlite://kiosk.db")
	t.Setenv("STORE_CODEC", "CBOR")
	t.Setenv("WEB_PORT", "9090")
	t.Setenv("DETECTOR_URL", "http://detector:5000")
	t.Setenv("TIMEZONE", "Europe/Prague")
	t.Setenv("ALLOW_LIVENESS_BYPASS", "true")
	t.Setenv("THRESHOLDS_FILE", "")
	t.Setenv("WEB_ALLOWED_ORIGINS", "https://kiosk.example, ,https://admin.example")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Store.URL != "sqlite://kiosk.db" {
		t.Errorf("expected store URL, got %q", cfg.Store.URL)
	}
	if cfg.Store.Codec != "cbor" {
		t.Errorf("expected lowercased codec, got %q", cfg.Store.Codec)
	}
	if cfg.Web.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.Web.Port)
	}
	if len(cfg.Web.AllowedOrigins) != 2 || cfg.Web.AllowedOrigins[1] != "https://admin.example" {
		t.Errorf("expected two allowed origins, got %v", cfg.Web.AllowedOrigins)
	}
	if cfg.Detector.Interval != 100*time.Millisecond {
		t.Errorf("expected default interval 100ms, got %s", cfg.Detector.Interval)
	}
	if cfg.Location.String() != "Europe/Prague" {
		t.Errorf("expected Europe/Prague, got %s", cfg.Location)
	}
	if !cfg.AllowLivenessBypass {
		t.Error("expected bypass enabled")
	}
	if cfg.Export.DateLayout != "1/2/2006" {
		t.Errorf("expected default date layout, got %q", cfg.Export.DateLayout)
	}
}

func TestLoadInvalidTimezone(t *testing.T) {
	t.Setenv("TIMEZONE", "Mars/Olympus")
	if _, err := Load(); err == nil {
		t.Error("expected error for invalid timezone")
	}
}
