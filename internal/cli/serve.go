package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"solendir/internal/config"
	"solendir/internal/model"
	"solendir/internal/notion"
	"solendir/internal/ollama"
	"solendir/internal/relay"
	"solendir/internal/server"
	"solendir/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the chat relay backend",
	RunE:  runServe,
}

var (
	serveListen    string
	serveOllamaURL string
	serveModel     string
	serveBackend   string
	serveDBPath    string
)

func init() {
	serveCmd.Flags().StringVar(&serveListen, "listen", "", "host:port to listen on (default 127.0.0.1:8000)")
	serveCmd.Flags().StringVar(&serveOllamaURL, "ollama-url", "", "Ollama base URL")
	serveCmd.Flags().StringVar(&serveModel, "model", "", "model name passed to Ollama")
	serveCmd.Flags().StringVar(&serveBackend, "token-backend", "", "token store: memory|sqlite")
	serveCmd.Flags().StringVar(&serveDBPath, "sqlite-path", "", "SQLite file for the sqlite token store")
}

func serveOverrides(cmd *cobra.Command) *config.Overrides {
	o := &config.Overrides{}
	if cmd.Flags().Changed("listen") {
		o.Listen = &serveListen
	}
	if cmd.Flags().Changed("ollama-url") {
		o.OllamaURL = &serveOllamaURL
	}
	if cmd.Flags().Changed("model") {
		o.Model = &serveModel
	}
	if cmd.Flags().Changed("token-backend") {
		o.TokenBackend = &serveBackend
	}
	if cmd.Flags().Changed("sqlite-path") {
		o.SQLitePath = &serveDBPath
	}
	return o
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(serveOverrides(cmd))
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg.Log)
	if err != nil {
		return withExit(ExitConfigInvalid, err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tokens, err := store.Open(ctx, cfg.Tokens.Backend, cfg.Tokens.SQLitePath)
	if err != nil {
		return withExit(ExitConfigInvalid, err)
	}
	defer func() { _ = tokens.Close() }()
	if cfg.Notion.Token != "" {
		if err := tokens.Set(ctx, model.ProviderNotion, cfg.Notion.Token); err != nil {
			return fmt.Errorf("preload notion token: %w", err)
		}
		logger.Info("notion token preloaded from environment")
	}

	notionClient := notion.NewClient(cfg.Notion.BaseURL, cfg.Notion.Timeout)
	notionClient.Version = cfg.Notion.Version
	ollamaClient := ollama.NewClient(cfg.Ollama.BaseURL, cfg.Ollama.Timeout)

	svc := relay.NewService(notionClient, ollamaClient, relay.Options{
		Model:          cfg.Ollama.Model,
		ChatPageSize:   cfg.Notion.ChatPageSize,
		BrowsePageSize: cfg.Notion.BrowsePageSize,
		Logger:         logger.Named("relay"),
	})
	srv := server.New(svc, tokens, server.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		WriteTimeout:   cfg.Ollama.Timeout + 30*time.Second,
		Logger:         logger.Named("http"),
	})

	listener, err := net.Listen("tcp", cfg.Server.Listen)
	if err != nil {
		return withExit(ExitBindFailure, fmt.Errorf("server bind failure: %w", err))
	}

	printServeBanner(cmd, cfg, listener.Addr().String())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Serve(gctx, listener)
	})
	g.Go(func() error {
		probeOllama(gctx, ollamaClient, logger)
		return nil
	})
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("backend stopped")
	return nil
}

// probeOllama warns once at startup when the inference service cannot be
// reached. The backend keeps serving; chat requests will report the failure.
func probeOllama(ctx context.Context, c *ollama.Client, logger *zap.Logger) {
	probeCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	ollamaVersion, err := c.Version(probeCtx)
	if err != nil {
		if ctx.Err() == nil {
			logger.Warn("ollama is not reachable; chat requests will fail until it is",
				zap.String("base_url", c.BaseURL), zap.Error(err))
		}
		return
	}
	logger.Info("ollama reachable", zap.String("base_url", c.BaseURL), zap.String("version", ollamaVersion))
}

func printServeBanner(cmd *cobra.Command, cfg *config.Config, addr string) {
	if globalFlags.JSON {
		return
	}
	out := cmd.OutOrStdout()
	s := newStyles(out, false)
	fmt.Fprintln(out, s.banner())
	fmt.Fprintln(out, s.kv("Backend", s.URL.Render("http://"+addr)))
	fmt.Fprintln(out, s.kv("Model", cfg.Ollama.Model+" @ "+cfg.Ollama.BaseURL))
	fmt.Fprintln(out, s.kv("Token store", cfg.Tokens.Backend))
	fmt.Fprintln(out)
}
