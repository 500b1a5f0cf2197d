package config

import (
	"time"

	"solendir/internal/notion"
	"solendir/internal/ollama"
)

// DefaultConfigPath is read when no --config flag is given and the file exists.
const DefaultConfigPath = "solendir.toml"

type Config struct {
	Server ServerConfig `toml:"server" yaml:"server"`
	Ollama OllamaConfig `toml:"ollama" yaml:"ollama"`
	Notion NotionConfig `toml:"notion" yaml:"notion"`
	Tokens TokensConfig `toml:"tokens" yaml:"tokens"`
	Log    LogConfig    `toml:"log" yaml:"log"`
}

type ServerConfig struct {
	Listen string `toml:"listen" yaml:"listen"`
	// AllowedOrigins defaults to "*". Credentials stay allowed either way;
	// the request origin is echoed back rather than a literal wildcard.
	AllowedOrigins []string `toml:"allowed_origins" yaml:"allowed_origins"`
}

type OllamaConfig struct {
	BaseURL string        `toml:"base_url" yaml:"base_url"`
	Model   string        `toml:"model" yaml:"model"`
	Timeout time.Duration `toml:"timeout" yaml:"timeout"`
}

type NotionConfig struct {
	BaseURL        string        `toml:"base_url" yaml:"base_url"`
	Version        string        `toml:"version" yaml:"version"`
	ChatPageSize   int           `toml:"chat_page_size" yaml:"chat_page_size"`
	BrowsePageSize int           `toml:"browse_page_size" yaml:"browse_page_size"`
	Timeout        time.Duration `toml:"timeout" yaml:"timeout"`
	// Token is a runtime-only value read from NOTION_TOKEN and used to seed
	// the token store. It is never loaded from or written to a config file.
	Token string `toml:"-" yaml:"-"`
}

type TokensConfig struct {
	Backend    string `toml:"backend" yaml:"backend"`
	SQLitePath string `toml:"sqlite_path" yaml:"sqlite_path"`
}

type LogConfig struct {
	Level  string `toml:"level" yaml:"level"`
	Format string `toml:"format" yaml:"format"`
}

func Default() Config {
	return Config{
		Server: ServerConfig{
			Listen:         "127.0.0.1:8000",
			AllowedOrigins: []string{"*"},
		},
		Ollama: OllamaConfig{
			BaseURL: ollama.DefaultBaseURL,
			Model:   ollama.DefaultModel,
			Timeout: 60 * time.Second,
		},
		Notion: NotionConfig{
			BaseURL:        notion.DefaultBaseURL,
			Version:        notion.DefaultVersion,
			ChatPageSize:   20,
			BrowsePageSize: 10,
			Timeout:        30 * time.Second,
		},
		Tokens: TokensConfig{
			Backend:    "memory",
			SQLitePath: "solendir.db",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Redacted returns a copy safe to print: the Notion token is masked.
func (c Config) Redacted() Config {
	out := c
	out.Server.AllowedOrigins = append([]string(nil), c.Server.AllowedOrigins...)
	if out.Notion.Token != "" {
		out.Notion.Token = "<from env NOTION_TOKEN>"
	}
	return out
}
