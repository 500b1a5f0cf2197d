package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Options for loading config.
type Options struct {
	// ConfigPath is an explicit config file. When empty, DefaultConfigPath is
	// used if it exists. An explicit path that does not exist is an error.
	ConfigPath string
	// DotEnvDir is where .env.local and .env are looked up; "" means cwd.
	DotEnvDir    string
	SkipValidate bool
	// Overrides apply last (flags > env > file > defaults). Nil means no CLI overrides.
	Overrides *Overrides
}

// Overrides holds CLI flag values. Only non-nil fields are applied.
type Overrides struct {
	Listen       *string
	OllamaURL    *string
	Model        *string
	LogLevel     *string
	LogFormat    *string
	TokenBackend *string
	SQLitePath   *string
}

// Load builds config with precedence: defaults → dotenv → config file → env vars → Overrides.
func Load(opts Options) (*Config, error) {
	cfg := Default()

	if err := loadDotEnvFiles(
		filepath.Join(opts.DotEnvDir, ".env.local"),
		filepath.Join(opts.DotEnvDir, ".env"),
	); err != nil {
		return nil, fmt.Errorf("CONFIG_INVALID: failed loading dotenv files: %w", err)
	}

	path, explicit := opts.ConfigPath, true
	if strings.TrimSpace(path) == "" {
		path, explicit = DefaultConfigPath, false
	}
	if err := applyFile(&cfg, path, explicit); err != nil {
		return nil, err
	}

	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}

	if opts.Overrides != nil {
		applyOverrides(&cfg, opts.Overrides)
	}

	if !opts.SkipValidate {
		if err := Validate(&cfg); err != nil {
			return nil, err
		}
	}
	return &cfg, nil
}

func applyFile(cfg *Config, path string, explicit bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !explicit {
			return nil
		}
		return fmt.Errorf("CONFIG_INVALID: cannot read config file %s: %w", path, err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("CONFIG_INVALID: malformed YAML in %s: %w", path, err)
		}
	default:
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return fmt.Errorf("CONFIG_INVALID: malformed TOML in %s: %w", path, err)
		}
	}
	return nil
}

func applyEnv(cfg *Config) error {
	if v := envValue("SOLENDIR_LISTEN"); v != "" {
		cfg.Server.Listen = v
	}
	if v := envValue("SOLENDIR_ALLOWED_ORIGINS"); v != "" {
		cfg.Server.AllowedOrigins = splitList(v)
	}
	if v := envValue("OLLAMA_BASE_URL"); v != "" {
		cfg.Ollama.BaseURL = v
	}
	if v := envValue("SOLENDIR_MODEL"); v != "" {
		cfg.Ollama.Model = v
	}
	if v := envValue("SOLENDIR_OLLAMA_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("CONFIG_INVALID: SOLENDIR_OLLAMA_TIMEOUT=%q: %w", v, err)
		}
		cfg.Ollama.Timeout = d
	}
	if v := envValue("NOTION_BASE_URL"); v != "" {
		cfg.Notion.BaseURL = v
	}
	if v := envValue("NOTION_TOKEN"); v != "" {
		cfg.Notion.Token = v
	}
	if v := envValue("SOLENDIR_TOKEN_BACKEND"); v != "" {
		cfg.Tokens.Backend = v
	}
	if v := envValue("SOLENDIR_SQLITE_PATH"); v != "" {
		cfg.Tokens.SQLitePath = v
	}
	if v := envValue("SOLENDIR_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := envValue("SOLENDIR_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	return nil
}

func applyOverrides(cfg *Config, o *Overrides) {
	if o.Listen != nil {
		cfg.Server.Listen = *o.Listen
	}
	if o.OllamaURL != nil {
		cfg.Ollama.BaseURL = *o.OllamaURL
	}
	if o.Model != nil {
		cfg.Ollama.Model = *o.Model
	}
	if o.LogLevel != nil {
		cfg.Log.Level = *o.LogLevel
	}
	if o.LogFormat != nil {
		cfg.Log.Format = *o.LogFormat
	}
	if o.TokenBackend != nil {
		cfg.Tokens.Backend = *o.TokenBackend
	}
	if o.SQLitePath != nil {
		cfg.Tokens.SQLitePath = *o.SQLitePath
	}
}

func envValue(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
