package cfg

import (
	"os"
	"strings"
	"testing"
)

func withArgs(t *testing.T, args ...string) {
	t.Helper()
	oldArgs := os.Args
	os.Args = append([]string{"test"}, args...)
	t.Cleanup(func() { os.Args = oldArgs })
}

func TestGetVersion(t *testing.T) {
	if GetVersion() == "" {
		t.Error("GetVersion should never return empty string")
	}

	version := GetVersion()
	if version != "dev" && version != "unknown" {
		t.Logf("Version: %s", version)
	}
}

func TestLoadDefaults(t *testing.T) {
	withArgs(t)
	for _, key := range []string{"CHANNELS_DIR", "PORT", "CACHE_BACKEND", "USER_AGENT", "DEFAULT_LIMIT", "FETCH_CONCURRENCY"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if cfg.ChannelsDir != "./channels" {
		t.Errorf("Expected channels dir './channels', got '%s'", cfg.ChannelsDir)
	}
	if cfg.Port != "8080" {
		t.Errorf("Expected port '8080', got '%s'", cfg.Port)
	}
	if cfg.CacheBackend != "memory" {
		t.Errorf("Expected cache backend 'memory', got '%s'", cfg.CacheBackend)
	}
	if cfg.DefaultLimit != 20 {
		t.Errorf("Expected default limit 20, got %d", cfg.DefaultLimit)
	}
	if cfg.FetchConcurrency != 4 {
		t.Errorf("Expected fetch concurrency 4, got %d", cfg.FetchConcurrency)
	}
	if !strings.HasPrefix(cfg.UserAgent, "RSS Blend/") {
		t.Errorf("Expected default user agent 'RSS Blend/<version>', got '%s'", cfg.UserAgent)
	}
	if Get() != cfg {
		t.Error("Expected Get to return the loaded configuration")
	}
}

func TestLoadFlagsAndEnv(t *testing.T) {
	withArgs(t, "--port", "9090", "--cache-backend", "sqlite", "--debug")
	t.Setenv("USER_AGENT", "Custom Agent")
	t.Setenv("CACHE_TTL", "0")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if cfg.Port != "9090" {
		t.Errorf("Expected port '9090', got '%s'", cfg.Port)
	}
	if cfg.CacheBackend != "sqlite" {
		t.Errorf("Expected cache backend 'sqlite', got '%s'", cfg.CacheBackend)
	}
	if !cfg.Debug {
		t.Error("Expected debug to be enabled")
	}
	if cfg.UserAgent != "Custom Agent" {
		t.Errorf("Expected user agent 'Custom Agent', got '%s'", cfg.UserAgent)
	}
	if cfg.CacheTTL != 0 {
		t.Errorf("Expected cache TTL 0, got %d", cfg.CacheTTL)
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"unknown backend", []string{"--cache-backend", "memcached"}},
		{"zero limit", []string{"--default-limit", "0"}},
		{"zero concurrency", []string{"--fetch-concurrency", "0"}},
		{"negative retries", []string{"--request-retries=-1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withArgs(t, tt.args...)
			if _, err := Load(); err == nil {
				t.Error("Expected error, got none")
			}
		})
	}
}

func TestLoadRequestHeaders(t *testing.T) {
	t.Run("flags", func(t *testing.T) {
		withArgs(t, "--request-header", "Accept: application/rss+xml", "--request-header", "X-Token:abc")
		os.Unsetenv("REQUEST_HEADERS")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}

		if cfg.RequestHeaders["Accept"] != "application/rss+xml" {
			t.Errorf("Expected trimmed Accept header, got '%s'", cfg.RequestHeaders["Accept"])
		}
		if cfg.RequestHeaders["X-Token"] != "abc" {
			t.Errorf("Expected X-Token header 'abc', got '%s'", cfg.RequestHeaders["X-Token"])
		}
	})

	t.Run("env", func(t *testing.T) {
		withArgs(t)
		t.Setenv("REQUEST_HEADERS", "Accept:application/xml;X-Token:abc")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}

		if len(cfg.RequestHeaders) != 2 || cfg.RequestHeaders["Accept"] != "application/xml" {
			t.Errorf("Expected 2 headers from env, got %v", cfg.RequestHeaders)
		}
	})

	t.Run("none", func(t *testing.T) {
		withArgs(t)
		os.Unsetenv("REQUEST_HEADERS")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}

		if len(cfg.RequestHeaders) != 0 {
			t.Errorf("Expected no extra headers, got %v", cfg.RequestHeaders)
		}
	})
}
