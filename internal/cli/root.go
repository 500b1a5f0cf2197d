package cli

import (
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/spf13/cobra"

	"solendir/internal/client"
	"solendir/internal/config"
)

const (
	ExitSuccess       = 0
	ExitGenericError  = 1
	ExitConfigInvalid = 2
	ExitBackendDown   = 3
	ExitBindFailure   = 4
)

// GlobalFlags holds flags shared across all commands.
type GlobalFlags struct {
	ConfigPath string
	URL        string
	Verbose    bool
	LogFormat  string
	JSON       bool
	// NotionToken is sent as a per-request override by client commands.
	NotionToken string
}

var globalFlags GlobalFlags

var rootCmd = &cobra.Command{
	Use:           "solendir",
	Short:         "Chat relay between a local Llama3 model and your Notion workspace",
	Long:          "solendir runs a small backend that forwards chat messages to a local Ollama model, adding Notion workspace context when a message asks about it.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&globalFlags.ConfigPath, "config", "", "config file path (.toml or .yaml; default: ./"+config.DefaultConfigPath+" if present)")
	rootCmd.PersistentFlags().StringVar(&globalFlags.URL, "url", "", "backend base URL for client commands (default: derived from server.listen)")
	rootCmd.PersistentFlags().BoolVarP(&globalFlags.Verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&globalFlags.LogFormat, "log-format", "", "log encoding: json|console")
	rootCmd.PersistentFlags().BoolVar(&globalFlags.JSON, "json", false, "machine-readable output")
	rootCmd.PersistentFlags().StringVar(&globalFlags.NotionToken, "notion-token", "", "use this Notion token for the request instead of the stored one")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(tokenCmd)
	rootCmd.AddCommand(pagesCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command. Use ExitCode to map the error to a process
// exit status.
func Execute() error {
	return rootCmd.Execute()
}

type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func withExit(code int, err error) error {
	if err == nil {
		return nil
	}
	return &exitError{code: code, err: err}
}

// ExitCode returns the process exit status for an error from Execute.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return ExitGenericError
}

// loadConfig applies the global flags as the highest-precedence layer.
func loadConfig(extra *config.Overrides) (*config.Config, error) {
	overrides := extra
	if overrides == nil {
		overrides = &config.Overrides{}
	}
	if globalFlags.LogFormat != "" {
		format := globalFlags.LogFormat
		overrides.LogFormat = &format
	}
	if globalFlags.Verbose {
		level := "debug"
		overrides.LogLevel = &level
	}
	cfg, err := config.Load(config.Options{
		ConfigPath: globalFlags.ConfigPath,
		Overrides:  overrides,
	})
	if err != nil {
		return nil, withExit(ExitConfigInvalid, err)
	}
	return cfg, nil
}

// backendURL resolves the --url flag, falling back to the configured listen
// address. Wildcard hosts are dialled on loopback.
func backendURL(cfg *config.Config) string {
	if u := strings.TrimSpace(globalFlags.URL); u != "" {
		return strings.TrimRight(u, "/")
	}
	host, port, err := net.SplitHostPort(cfg.Server.Listen)
	if err != nil {
		return client.DefaultBaseURL
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}
	return "http://" + net.JoinHostPort(host, port)
}

func newBackendClient() (*client.Client, *config.Config, error) {
	cfg, err := loadConfig(nil)
	if err != nil {
		return nil, nil, err
	}
	c := client.New(backendURL(cfg))
	c.NotionToken = strings.TrimSpace(globalFlags.NotionToken)
	return c, cfg, nil
}

func backendErr(err error) error {
	return withExit(ExitBackendDown, fmt.Errorf("backend request failed: %w", err))
}
