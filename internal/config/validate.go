package config

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
)

var (
	TokenBackends = []string{"memory", "sqlite"}
	LogLevels     = []string{"debug", "info", "warn", "error"}
	LogFormats    = []string{"json", "console"}
)

const maxNotionPageSize = 100

// Validate checks addresses, URLs and enum constraints. Errors carry the
// CONFIG_INVALID prefix so the CLI can map them to its exit code.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("CONFIG_INVALID: nil config")
	}
	if err := validateListen(cfg.Server.Listen); err != nil {
		return err
	}
	if err := validateURL("ollama.base_url", cfg.Ollama.BaseURL); err != nil {
		return err
	}
	if err := validateURL("notion.base_url", cfg.Notion.BaseURL); err != nil {
		return err
	}
	if strings.TrimSpace(cfg.Ollama.Model) == "" {
		return fmt.Errorf("CONFIG_INVALID: ollama.model must not be empty")
	}
	if cfg.Ollama.Timeout <= 0 {
		return fmt.Errorf("CONFIG_INVALID: ollama.timeout must be positive, got %s", cfg.Ollama.Timeout)
	}
	if cfg.Notion.Timeout <= 0 {
		return fmt.Errorf("CONFIG_INVALID: notion.timeout must be positive, got %s", cfg.Notion.Timeout)
	}
	for key, size := range map[string]int{
		"notion.chat_page_size":   cfg.Notion.ChatPageSize,
		"notion.browse_page_size": cfg.Notion.BrowsePageSize,
	} {
		if size < 1 || size > maxNotionPageSize {
			return fmt.Errorf("CONFIG_INVALID: %s=%d; must be between 1 and %d", key, size, maxNotionPageSize)
		}
	}
	if !stringIn(cfg.Tokens.Backend, TokenBackends) {
		return fmt.Errorf("CONFIG_INVALID: tokens.backend=%q; allowed: %s", cfg.Tokens.Backend, strings.Join(TokenBackends, ", "))
	}
	if cfg.Tokens.Backend == "sqlite" && strings.TrimSpace(cfg.Tokens.SQLitePath) == "" {
		return fmt.Errorf("CONFIG_INVALID: tokens.sqlite_path is required when tokens.backend=sqlite")
	}
	if !stringIn(cfg.Log.Level, LogLevels) {
		return fmt.Errorf("CONFIG_INVALID: log.level=%q; allowed: %s", cfg.Log.Level, strings.Join(LogLevels, ", "))
	}
	if !stringIn(cfg.Log.Format, LogFormats) {
		return fmt.Errorf("CONFIG_INVALID: log.format=%q; allowed: %s", cfg.Log.Format, strings.Join(LogFormats, ", "))
	}
	return nil
}

func validateListen(value string) error {
	_, port, err := net.SplitHostPort(strings.TrimSpace(value))
	if err != nil {
		return fmt.Errorf("CONFIG_INVALID: server.listen must be host:port (e.g. %q): %w", Default().Server.Listen, err)
	}
	portNumber, err := strconv.Atoi(port)
	if err != nil || portNumber < 0 || portNumber > 65535 {
		return fmt.Errorf("CONFIG_INVALID: server.listen port out of range in %q", value)
	}
	return nil
}

func validateURL(key, value string) error {
	u, err := url.Parse(strings.TrimSpace(value))
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("CONFIG_INVALID: %s must be an http(s) URL, got %q", key, value)
	}
	return nil
}

func stringIn(s string, allowed []string) bool {
	for _, a := range allowed {
		if s == a {
			return true
		}
	}
	return false
}
