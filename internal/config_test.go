package internal

import (
	"strings"
	"testing"
	"time"
)

func TestAuthConfig_DisabledMode(t *testing.T) {
	cfg := AuthConfig{Mode: "disabled", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled mode should pass: %v", err)
	}
	if cfg.AuthEnabled() {
		t.Error("disabled mode should not be enabled")
	}
}

func TestAuthConfig_EmptyModeDefaultsDisabled(t *testing.T) {
	cfg := AuthConfig{}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty mode should default to disabled: %v", err)
	}
	if cfg.Mode != AuthModeDisabled {
		t.Errorf("mode = %q, want %q", cfg.Mode, AuthModeDisabled)
	}
}

func TestAuthConfig_TokenMode(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: "mysecret"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("token mode with token should pass: %v", err)
	}
	if !cfg.AuthEnabled() {
		t.Error("token mode should be enabled")
	}

	cfg.Token = ""
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "token is empty") {
		t.Errorf("empty token: err = %v", err)
	}
}

func TestAuthConfig_InvalidMode(t *testing.T) {
	cfg := AuthConfig{Mode: "magic", Token: "x"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("invalid mode should fail validation")
	}
}

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config: %v", err)
	}
	if cfg.App.HTTP.Address() != ":8080" {
		t.Errorf("address = %q", cfg.App.HTTP.Address())
	}
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"auth token missing", func(c *Config) { c.Auth.Mode = AuthModeToken }},
		{"bad log format", func(c *Config) { c.App.LogFormat = "xml" }},
		{"port out of range", func(c *Config) { c.App.HTTP.Port = 70000 }},
		{"empty sqlite path", func(c *Config) { c.SQLite.Path = "" }},
		{"negative busy retry", func(c *Config) { c.SQLite.BusyRetry = -time.Second }},
		{"inbox enabled without path", func(c *Config) { c.Inbox.Enabled = true; c.Inbox.Path = "" }},
		{"throttle too small", func(c *Config) { c.Events.Throttle = time.Millisecond }},
		{"negative heartbeat", func(c *Config) { c.Events.Heartbeat = -time.Second }},
		{"no history", func(c *Config) { c.Events.History = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestEmptyLogFormatDefaultsJSON(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.App.LogFormat = ""
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	if cfg.App.LogFormat != LogFormatJSON {
		t.Errorf("format = %q", cfg.App.LogFormat)
	}
}

func TestDisabledInboxNeedsNoPath(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Inbox.Path = ""
	if err := cfg.Validate(); err != nil {
		t.Errorf("disabled inbox: %v", err)
	}
}
