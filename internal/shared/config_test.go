package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.API.BaseURL != "http://localhost:7075/api" {
		t.Errorf("unexpected api base url %q", config.API.BaseURL)
	}
	if config.API.Timeout() != 10*time.Second {
		t.Errorf("unexpected api timeout %v", config.API.Timeout())
	}
	if config.Stream.BaseURL != "ws://localhost:5000/ws/scale" {
		t.Errorf("unexpected stream base url %q", config.Stream.BaseURL)
	}
	if config.Stream.MaxReconnectAttempts != 10 {
		t.Errorf("unexpected reconnect ceiling %d", config.Stream.MaxReconnectAttempts)
	}
	if config.Stream.BackoffBaseMs != 1000 || config.Stream.BackoffCapMs != 10000 {
		t.Errorf("unexpected backoff settings %d/%d", config.Stream.BackoffBaseMs, config.Stream.BackoffCapMs)
	}
	if config.Cache.Capacity != 5 {
		t.Errorf("unexpected cache capacity %d", config.Cache.Capacity)
	}
	if config.Cache.MaxOpenConns != 1 {
		t.Errorf("unexpected max open conns %d", config.Cache.MaxOpenConns)
	}
	if config.Connectivity.ProbeURL == "" {
		t.Error("expected a default probe url")
	}
}

func TestAPIConfigTimeout(t *testing.T) {
	if got := (APIConfig{}).Timeout(); got != 10*time.Second {
		t.Errorf("zero timeout should default to 10s, got %v", got)
	}
	if got := (APIConfig{TimeoutSeconds: 30}).Timeout(); got != 30*time.Second {
		t.Errorf("expected 30s, got %v", got)
	}
}

func TestLoadConfig(t *testing.T) {
	t.Run("ParsesFile", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		content := `
[api]
base_url = "http://bench-12:7075/api"
timeout_seconds = 5

[cache]
path = "bench.db"
capacity = 8
`
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		config, err := LoadConfig(path)
		if err != nil {
			t.Fatalf("LoadConfig failed: %v", err)
		}

		if config.API.BaseURL != "http://bench-12:7075/api" {
			t.Errorf("unexpected base url %q", config.API.BaseURL)
		}
		if config.API.Timeout() != 5*time.Second {
			t.Errorf("unexpected timeout %v", config.API.Timeout())
		}
		if config.Cache.Capacity != 8 {
			t.Errorf("unexpected capacity %d", config.Cache.Capacity)
		}
	})

	t.Run("MissingFile", func(t *testing.T) {
		if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
			t.Error("expected an error for a missing file")
		}
	})

	t.Run("MalformedFile", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.toml")
		if err := os.WriteFile(path, []byte("[api\nbase_url ="), 0644); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}
		if _, err := LoadConfig(path); err == nil {
			t.Error("expected a parse error")
		}
	})
}

func TestCreateConfigFile(t *testing.T) {
	t.Run("WritesExample", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")

		if err := CreateConfigFile(path); err != nil {
			t.Fatalf("CreateConfigFile failed: %v", err)
		}

		config, err := LoadConfig(path)
		if err != nil {
			t.Fatalf("created file does not parse: %v", err)
		}
		if config.Cache.Capacity != DefaultConfig().Cache.Capacity {
			t.Error("created file should mirror the embedded defaults")
		}
	})

	t.Run("RefusesToOverwrite", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(path, []byte("# mine"), 0644); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		err := CreateConfigFile(path)
		if !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}

		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		if string(data) != "# mine" {
			t.Error("existing config must not be touched")
		}
	})
}
