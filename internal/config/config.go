package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/a3tai/pdf-widget-renamer/internal/layout"
	"github.com/a3tai/pdf-widget-renamer/internal/renamer"
)

const (
	// Mode constants
	ModeStdio  = "stdio"
	ModeServer = "server"

	// Default values
	DefaultPort        = 8080
	DefaultHost        = "127.0.0.1"
	DefaultLogLevel    = "info"
	DefaultMaxFileSize = 100 * 1024 * 1024 // 100MB
	DefaultTimeout     = 60 * time.Second

	// Directory permissions
	DefaultDirPerm = 0o750

	envPrefix = "PDF_RENAMER"
)

// ErrVersionRequested is returned when --version is on the command line.
var ErrVersionRequested = errors.New("version requested")

// Config holds all configuration for the widget renamer
type Config struct {
	// Server configuration
	Mode    string // "server" or "stdio"
	Host    string
	Port    int
	Timeout time.Duration // per-request processing limit in server mode

	// PDF configuration
	PDFDirectory   string
	VocabularyPath string

	// Matching configuration
	Tolerances    layout.Tolerances
	Index         layout.IndexOptions
	ContextMargin float64

	// Application configuration
	Version     string
	ServerName  string
	LogLevel    string
	MaxFileSize int64 // Maximum PDF file size in bytes
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	currentDir, err := os.Getwd()
	if err != nil {
		// Fallback to current directory if working directory cannot be determined
		currentDir = "."
	}

	opts := renamer.DefaultOptions()
	return &Config{
		Mode:          ModeServer,
		Host:          DefaultHost,
		Port:          DefaultPort,
		Timeout:       DefaultTimeout,
		PDFDirectory:  currentDir,
		Tolerances:    opts.Tolerances,
		Index:         opts.Index,
		ContextMargin: opts.ContextMargin,
		Version:       "1.0.0",
		ServerName:    "pdf-widget-renamer",
		LogLevel:      DefaultLogLevel,
		MaxFileSize:   DefaultMaxFileSize,
	}
}

// LoadFromFlags parses the process command line and environment.
func LoadFromFlags() (*Config, error) {
	return LoadFromArgs(os.Args[0], os.Args[1:])
}

// LoadFromArgs resolves configuration from defaults, then PDF_RENAMER_*
// environment variables, then args.
func LoadFromArgs(program string, args []string) (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	flags := pflag.NewFlagSet(program, pflag.ContinueOnError)

	setupViperEnvironment(v, cfg)
	defineCommandLineFlags(flags, cfg)
	bindFlagsToViper(v, flags)
	setupUsageMessage(flags, program)

	// Check for version flag before parsing
	if err := checkVersionFlag(args); err != nil {
		return nil, err
	}

	if err := flags.Parse(args); err != nil {
		return nil, err
	}

	populateConfigFromViper(v, cfg)

	// Expand paths if needed
	if cfg.PDFDirectory != "" {
		if expandedPath, err := filepath.Abs(cfg.PDFDirectory); err == nil {
			cfg.PDFDirectory = expandedPath
		}
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setupViperEnvironment configures viper with environment variables and defaults
func setupViperEnvironment(v *viper.Viper, cfg *Config) {
	// PDF_RENAMER_SAMEROW_TOLERANCE and friends
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("mode", cfg.Mode)
	v.SetDefault("host", cfg.Host)
	v.SetDefault("port", cfg.Port)
	v.SetDefault("timeout", cfg.Timeout)
	v.SetDefault("dir", cfg.PDFDirectory)
	v.SetDefault("vocabulary", cfg.VocabularyPath)
	v.SetDefault("loglevel", cfg.LogLevel)
	v.SetDefault("maxfilesize", cfg.MaxFileSize)
	v.SetDefault("samerow-tolerance", cfg.Tolerances.SameRow)
	v.SetDefault("center-tolerance", cfg.Tolerances.Center)
	v.SetDefault("align-tolerance", cfg.Tolerances.Align)
	v.SetDefault("context-margin", cfg.ContextMargin)
	v.SetDefault("row-tolerance", cfg.Index.RowTolerance)
	v.SetDefault("word-gap", cfg.Index.WordGap)
	v.SetDefault("column-gap", cfg.Index.ColumnGap)
}

// defineCommandLineFlags sets up all command line flags
func defineCommandLineFlags(flags *pflag.FlagSet, cfg *Config) {
	flags.String("mode", cfg.Mode, "Run mode: 'server' for the HTTP renaming service, 'stdio' for MCP standard I/O")
	flags.String("host", cfg.Host, "Server host address (server mode only)")
	flags.Int("port", cfg.Port, "Server port (server mode only)")
	flags.Duration("timeout", cfg.Timeout, "Per-request processing timeout (server mode only)")
	flags.String("dir", cfg.PDFDirectory, "Directory containing PDF files (stdio mode)")
	flags.String("vocabulary", cfg.VocabularyPath, "JSON file with canonical widget names")
	flags.String("loglevel", cfg.LogLevel, "Log level (debug, info, warn, error)")
	flags.Int64("maxfilesize", cfg.MaxFileSize, "Maximum PDF file size in bytes")
	flags.Float64("samerow-tolerance", cfg.Tolerances.SameRow,
		"Max distance between a label's bottom and a widget's top for a same-row label (points)")
	flags.Float64("center-tolerance", cfg.Tolerances.Center,
		"Max distance between the vertical centers of a label and a widget for a same-row label (points)")
	flags.Float64("align-tolerance", cfg.Tolerances.Align,
		"Max left-edge offset for a label printed above a widget (points)")
	flags.Float64("context-margin", cfg.ContextMargin, "Margin around a widget searched for context text (points)")
	flags.Float64("row-tolerance", cfg.Index.RowTolerance, "Max baseline difference for glyphs on one row (points)")
	flags.Float64("word-gap", cfg.Index.WordGap, "Gap starting a new word, as a fraction of the font size")
	flags.Float64("column-gap", cfg.Index.ColumnGap, "Gap starting a new text line, as a fraction of the font size")
}

// bindFlagsToViper binds command line flags to viper configuration
func bindFlagsToViper(v *viper.Viper, flags *pflag.FlagSet) {
	flags.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
	})
}

// setupUsageMessage configures the custom usage message
func setupUsageMessage(flags *pflag.FlagSet, program string) {
	flags.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n", program)
		fmt.Fprintf(os.Stderr, "\nPDF Widget Renamer - labels and renames PDF form fields\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flags.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s                                          "+
			"# HTTP server on 127.0.0.1:8080 (default)\n", program)
		fmt.Fprintf(os.Stderr, "  %s --vocabulary=names.json                  "+
			"# server with a name vocabulary\n", program)
		fmt.Fprintf(os.Stderr, "  %s --mode=stdio --dir=/path/to/pdfs         # MCP over stdio\n", program)
		fmt.Fprintf(os.Stderr, "  %s --host=0.0.0.0 --port=8081               # server on all interfaces\n", program)
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  %s_<FLAG>  any flag, upper-cased with '-' replaced by '_'\n", envPrefix)
		fmt.Fprintf(os.Stderr, "  e.g. %s_PORT, %s_VOCABULARY, %s_SAMEROW_TOLERANCE\n", envPrefix, envPrefix, envPrefix)
	}
}

// checkVersionFlag checks if version flag was requested
func checkVersionFlag(args []string) error {
	for _, arg := range args {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			return ErrVersionRequested
		}
	}
	return nil
}

// populateConfigFromViper fills the config struct with values from viper
func populateConfigFromViper(v *viper.Viper, cfg *Config) {
	cfg.Mode = v.GetString("mode")
	cfg.Host = v.GetString("host")
	cfg.Port = v.GetInt("port")
	cfg.Timeout = v.GetDuration("timeout")
	cfg.PDFDirectory = v.GetString("dir")
	cfg.VocabularyPath = v.GetString("vocabulary")
	cfg.LogLevel = v.GetString("loglevel")
	cfg.MaxFileSize = v.GetInt64("maxfilesize")
	cfg.Tolerances.SameRow = v.GetFloat64("samerow-tolerance")
	cfg.Tolerances.Center = v.GetFloat64("center-tolerance")
	cfg.Tolerances.Align = v.GetFloat64("align-tolerance")
	cfg.ContextMargin = v.GetFloat64("context-margin")
	cfg.Index.RowTolerance = v.GetFloat64("row-tolerance")
	cfg.Index.WordGap = v.GetFloat64("word-gap")
	cfg.Index.ColumnGap = v.GetFloat64("column-gap")
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Validate mode
	if c.Mode != ModeStdio && c.Mode != ModeServer {
		return errors.New("mode must be either 'stdio' or 'server'")
	}

	// Validate port range (only for server mode)
	if c.Mode == ModeServer && (c.Port < 1 || c.Port > 65535) {
		return errors.New("port must be between 1 and 65535")
	}

	if c.Mode == ModeServer && c.Timeout <= 0 {
		return errors.New("timeout must be positive")
	}

	// Validate PDF directory
	if c.PDFDirectory == "" {
		return errors.New("PDF directory cannot be empty")
	}

	// Check if PDF directory exists, create if it doesn't
	if _, err := os.Stat(c.PDFDirectory); os.IsNotExist(err) {
		if err := os.MkdirAll(c.PDFDirectory, DefaultDirPerm); err != nil {
			return fmt.Errorf("cannot create PDF directory %s: %w", c.PDFDirectory, err)
		}
	} else if err != nil {
		return fmt.Errorf("cannot access PDF directory %s: %w", c.PDFDirectory, err)
	}

	// Validate max file size
	if c.MaxFileSize <= 0 {
		return errors.New("maximum file size must be positive")
	}

	// Tolerances are distances; zero disables a case, negatives are meaningless
	for name, value := range map[string]float64{
		"samerow-tolerance": c.Tolerances.SameRow,
		"center-tolerance":  c.Tolerances.Center,
		"align-tolerance":   c.Tolerances.Align,
		"context-margin":    c.ContextMargin,
		"row-tolerance":     c.Index.RowTolerance,
		"word-gap":          c.Index.WordGap,
		"column-gap":        c.Index.ColumnGap,
	} {
		if value < 0 {
			return fmt.Errorf("%s cannot be negative: %g", name, value)
		}
	}
	if c.Index.ColumnGap < c.Index.WordGap {
		return fmt.Errorf("column-gap (%g) must not be smaller than word-gap (%g)", c.Index.ColumnGap, c.Index.WordGap)
	}

	// Validate log level
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}

	return nil
}

// RenamerOptions returns the matching options for renamer.NewService.
func (c *Config) RenamerOptions() renamer.Options {
	return renamer.Options{
		Tolerances:    c.Tolerances,
		Index:         c.Index,
		ContextMargin: c.ContextMargin,
		ContextLimit:  renamer.DefaultContextLimit,
	}
}

// Address returns the server address as host:port
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// IsDebug returns true if debug logging is enabled
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// String returns a string representation of the configuration
func (c *Config) String() string {
	return fmt.Sprintf("Config{Mode: %s, Host: %s, Port: %d, PDFDirectory: %s, Vocabulary: %s, LogLevel: %s, "+
		"MaxFileSize: %d, Timeout: %s, SameRow: %g, Center: %g, Align: %g}",
		c.Mode, c.Host, c.Port, c.PDFDirectory, c.VocabularyPath, c.LogLevel,
		c.MaxFileSize, c.Timeout, c.Tolerances.SameRow, c.Tolerances.Center, c.Tolerances.Align)
}

// IsServerMode returns true if the service runs as an HTTP server
func (c *Config) IsServerMode() bool {
	return c.Mode == ModeServer
}

// IsStdioMode returns true if the service runs as an MCP stdio server
func (c *Config) IsStdioMode() bool {
	return c.Mode == ModeStdio
}
