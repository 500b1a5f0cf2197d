package config

import (
	"strings"
	"testing"
	"time"
)

func TestValidate_Default(t *testing.T) {
	cfg := Default()
	if err := Validate(&cfg); err != nil {
		t.Fatalf("default config should be valid: %v", err)
	}
}

func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"listen without port", func(c *Config) { c.Server.Listen = "localhost" }, "server.listen"},
		{"listen port range", func(c *Config) { c.Server.Listen = "localhost:70000" }, "out of range"},
		{"ollama url", func(c *Config) { c.Ollama.BaseURL = "localhost:11434" }, "ollama.base_url"},
		{"notion url", func(c *Config) { c.Notion.BaseURL = "ftp://api.notion.com" }, "notion.base_url"},
		{"empty model", func(c *Config) { c.Ollama.Model = " " }, "ollama.model"},
		{"zero timeout", func(c *Config) { c.Ollama.Timeout = 0 }, "ollama.timeout"},
		{"notion timeout", func(c *Config) { c.Notion.Timeout = -time.Second }, "notion.timeout"},
		{"page size", func(c *Config) { c.Notion.BrowsePageSize = 101 }, "notion.browse_page_size"},
		{"backend", func(c *Config) { c.Tokens.Backend = "redis" }, "tokens.backend"},
		{"sqlite path", func(c *Config) { c.Tokens.Backend = "sqlite"; c.Tokens.SQLitePath = "" }, "tokens.sqlite_path"},
		{"log level", func(c *Config) { c.Log.Level = "trace" }, "log.level"},
		{"log format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := Validate(&cfg)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.HasPrefix(err.Error(), "CONFIG_INVALID:") || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("error %q should be CONFIG_INVALID and mention %q", err, tt.want)
			}
		})
	}
}

func TestRedacted_MasksToken(t *testing.T) {
	cfg := Default()
	cfg.Notion.Token = "secret_abc"

	red := cfg.Redacted()
	if red.Notion.Token == "secret_abc" {
		t.Fatal("token leaked into redacted config")
	}
	if cfg.Notion.Token != "secret_abc" {
		t.Fatal("Redacted must not mutate the receiver")
	}
	red.Server.AllowedOrigins[0] = "changed"
	if cfg.Server.AllowedOrigins[0] != "*" {
		t.Fatal("Redacted must copy slices")
	}
}
