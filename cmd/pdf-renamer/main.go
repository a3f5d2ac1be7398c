package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"go.uber.org/zap"

	"github.com/a3tai/pdf-widget-renamer/internal/config"
	"github.com/a3tai/pdf-widget-renamer/internal/httpapi"
	"github.com/a3tai/pdf-widget-renamer/internal/logger"
	"github.com/a3tai/pdf-widget-renamer/internal/mcp"
	"github.com/a3tai/pdf-widget-renamer/internal/renamer"
	"github.com/a3tai/pdf-widget-renamer/internal/vocabulary"
)

var (
	version   = "dev"     // This will be set by build flags
	buildTime = "unknown" // This will be set by build flags
	gitCommit = "unknown" // This will be set by build flags
)

func main() {
	// Load configuration from flags first
	cfg, err := config.LoadFromFlags()
	if errors.Is(err, config.ErrVersionRequested) {
		printVersion()
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(2)
	}

	// Set version if it was provided during build
	if version != "dev" {
		cfg.Version = version
	}

	log, err := logger.New(cfg.LogLevel, cfg.IsServerMode())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync(log)

	log.Debug("starting", zap.Stringer("config", cfg))

	// The vocabulary is read once and shared read-only by every request
	vocab := vocabulary.Load(cfg.VocabularyPath, log)
	service := renamer.NewService(vocabulary.NewResolver(vocab), cfg.RenamerOptions(), log)

	// Cancel on SIGINT/SIGTERM so servers can drain
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer stop()

	if cfg.IsServerMode() {
		err = runServerMode(ctx, cfg, service, vocab, log)
	} else {
		err = runStdioMode(ctx, cfg, service, log)
	}
	if err != nil {
		log.Error("server stopped with error", zap.Error(err))
		logger.Sync(log)
		os.Exit(1)
	}
	log.Info("server stopped")
}

// runServerMode serves the HTTP renaming API until ctx is cancelled
func runServerMode(ctx context.Context, cfg *config.Config, service *renamer.Service,
	vocab *vocabulary.Vocabulary, log *zap.Logger,
) error {
	server := httpapi.NewServer(service, httpapi.Options{
		MaxFileSize:    cfg.MaxFileSize,
		Timeout:        cfg.Timeout,
		Version:        cfg.Version,
		VocabularySize: vocab.Len(),
	}, log)
	return server.Run(ctx, cfg.Address())
}

// runStdioMode serves MCP tools on stdin/stdout; the parent process controls
// our lifecycle
func runStdioMode(ctx context.Context, cfg *config.Config, service *renamer.Service, log *zap.Logger) error {
	server, err := mcp.NewServer(cfg, service, log)
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}
	return server.Run(ctx)
}

// printVersion prints version information
func printVersion() {
	fmt.Printf("PDF Widget Renamer\n")
	fmt.Printf("Version: %s\n", version)
	fmt.Printf("Build Time: %s\n", buildTime)
	fmt.Printf("Git Commit: %s\n", gitCommit)
	fmt.Printf("Built with: %s\n", runtime.Version())
}
