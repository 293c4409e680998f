package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// Mode constants
	ModeBatch = "batch"
	ModeStdio = "stdio"

	// Default values
	DefaultWorkers     = 4
	DefaultLogLevel    = "info"
	DefaultLogFormat   = "json"
	DefaultOutputDir   = "out"
	DefaultMaxFileSize = 100 * 1024 * 1024 // 100MB
)

// Config holds all configuration for the DXF indexer
type Config struct {
	// Run mode
	Mode string // "batch" or "stdio"

	// Batch configuration
	InputPath string // file or directory of DXF files
	OutputDir string // where per-file JSON and the manifest go
	DBPath    string // SQLite index path; empty disables persistence
	Workers   int

	// Pipeline configuration
	MaxFileSize int64  // maximum DXF file size in bytes
	RulesPath   string // optional custom classifier rules (JSON or YAML)

	// Application configuration
	Version    string
	ServerName string
	LogLevel   string
	LogFormat  string
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Mode:        ModeBatch,
		OutputDir:   DefaultOutputDir,
		Workers:     DefaultWorkers,
		MaxFileSize: DefaultMaxFileSize,
		Version:     "1.0.0",
		ServerName:  "dxf-indexer",
		LogLevel:    DefaultLogLevel,
		LogFormat:   DefaultLogFormat,
	}
}

// LoadFromFlags parses command line flags and returns a configuration
func LoadFromFlags() (*Config, error) {
	cfg := DefaultConfig()

	setupViperEnvironment(cfg)
	defineCommandLineFlags(cfg)
	bindFlagsToViper()
	setupUsageMessage()

	// Check for version flag before parsing
	if err := checkVersionFlag(); err != nil {
		return nil, err
	}

	pflag.Parse()

	populateConfigFromViper(cfg)

	// Expand paths if needed
	if cfg.InputPath != "" {
		if expandedPath, err := filepath.Abs(cfg.InputPath); err == nil {
			cfg.InputPath = expandedPath
		}
	}
	if cfg.OutputDir != "" {
		if expandedPath, err := filepath.Abs(cfg.OutputDir); err == nil {
			cfg.OutputDir = expandedPath
		}
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setupViperEnvironment configures viper with environment variables and defaults
func setupViperEnvironment(cfg *Config) {
	// Set environment variable prefix
	viper.SetEnvPrefix("DXF_INDEXER")
	viper.AutomaticEnv()

	viper.SetDefault("mode", cfg.Mode)
	viper.SetDefault("input", cfg.InputPath)
	viper.SetDefault("out", cfg.OutputDir)
	viper.SetDefault("db", cfg.DBPath)
	viper.SetDefault("workers", cfg.Workers)
	viper.SetDefault("rules", cfg.RulesPath)
	viper.SetDefault("loglevel", cfg.LogLevel)
	viper.SetDefault("logformat", cfg.LogFormat)
	viper.SetDefault("maxfilesize", cfg.MaxFileSize)
}

// defineCommandLineFlags sets up all command line flags
func defineCommandLineFlags(cfg *Config) {
	pflag.String("mode", cfg.Mode, "Run mode: 'batch' to index files, 'stdio' for MCP standard I/O")
	pflag.String("input", cfg.InputPath, "DXF file or directory to index (batch mode)")
	pflag.String("out", cfg.OutputDir, "Output directory for per-file JSON and the manifest (batch mode)")
	pflag.String("db", cfg.DBPath, "SQLite index database path (empty disables persistence)")
	pflag.Int("workers", cfg.Workers, "Number of concurrent workers (batch mode)")
	pflag.String("rules", cfg.RulesPath, "Custom classifier rules file (JSON or YAML)")
	pflag.String("loglevel", cfg.LogLevel, "Log level (debug, info, warn, error)")
	pflag.String("logformat", cfg.LogFormat, "Log format (json, console)")
	pflag.Int64("maxfilesize", cfg.MaxFileSize, "Maximum DXF file size in bytes")
}

// bindFlagsToViper binds command line flags to viper configuration
func bindFlagsToViper() {
	_ = viper.BindPFlag("mode", pflag.Lookup("mode"))
	_ = viper.BindPFlag("input", pflag.Lookup("input"))
	_ = viper.BindPFlag("out", pflag.Lookup("out"))
	_ = viper.BindPFlag("db", pflag.Lookup("db"))
	_ = viper.BindPFlag("workers", pflag.Lookup("workers"))
	_ = viper.BindPFlag("rules", pflag.Lookup("rules"))
	_ = viper.BindPFlag("loglevel", pflag.Lookup("loglevel"))
	_ = viper.BindPFlag("logformat", pflag.Lookup("logformat"))
	_ = viper.BindPFlag("maxfilesize", pflag.Lookup("maxfilesize"))
}

// setupUsageMessage configures the custom usage message
func setupUsageMessage() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nDXF Indexer - normalizes CAD drawings and extracts searchable features\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		pflag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s --input=/path/to/drawings --out=index      # batch index a directory\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --input=part.dxf --db=drawings.db          # index one file into SQLite\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --mode=stdio                               # MCP server over stdio\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  DXF_INDEXER_MODE        Run mode\n")
		fmt.Fprintf(os.Stderr, "  DXF_INDEXER_INPUT       Input file or directory\n")
		fmt.Fprintf(os.Stderr, "  DXF_INDEXER_OUT         Output directory\n")
		fmt.Fprintf(os.Stderr, "  DXF_INDEXER_DB          SQLite database path\n")
		fmt.Fprintf(os.Stderr, "  DXF_INDEXER_WORKERS     Worker count\n")
		fmt.Fprintf(os.Stderr, "  DXF_INDEXER_RULES       Custom rules file\n")
		fmt.Fprintf(os.Stderr, "  DXF_INDEXER_LOGLEVEL    Log level\n")
		fmt.Fprintf(os.Stderr, "  DXF_INDEXER_LOGFORMAT   Log format\n")
		fmt.Fprintf(os.Stderr, "  DXF_INDEXER_MAXFILESIZE Maximum file size\n")
	}
}

// ErrVersionRequested is returned by LoadFromFlags when the user asked for
// version output instead of a run
var ErrVersionRequested = errors.New("version requested")

// checkVersionFlag checks if version flag was requested
func checkVersionFlag() error {
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			return ErrVersionRequested
		}
	}
	return nil
}

// populateConfigFromViper fills the config struct with values from viper
func populateConfigFromViper(cfg *Config) {
	cfg.Mode = viper.GetString("mode")
	cfg.InputPath = viper.GetString("input")
	cfg.OutputDir = viper.GetString("out")
	cfg.DBPath = viper.GetString("db")
	cfg.Workers = viper.GetInt("workers")
	cfg.RulesPath = viper.GetString("rules")
	cfg.LogLevel = viper.GetString("loglevel")
	cfg.LogFormat = viper.GetString("logformat")
	cfg.MaxFileSize = viper.GetInt64("maxfilesize")
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Mode != ModeBatch && c.Mode != ModeStdio {
		return errors.New("mode must be either 'batch' or 'stdio'")
	}

	if c.Mode == ModeBatch && c.InputPath == "" {
		return errors.New("input path is required in batch mode")
	}

	if c.Mode == ModeBatch {
		if _, err := os.Stat(c.InputPath); err != nil {
			return fmt.Errorf("cannot access input path %s: %w", c.InputPath, err)
		}
	}

	if c.Workers < 1 {
		return errors.New("workers must be at least 1")
	}

	if c.MaxFileSize <= 0 {
		return errors.New("maximum file size must be positive")
	}

	if c.RulesPath != "" {
		if _, err := os.Stat(c.RulesPath); err != nil {
			return fmt.Errorf("cannot access rules file %s: %w", c.RulesPath, err)
		}
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}

	if c.LogFormat != "json" && c.LogFormat != "console" {
		return fmt.Errorf("invalid log format: %s (must be 'json' or 'console')", c.LogFormat)
	}

	return nil
}

// IsDebug returns true if debug logging is enabled
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// String returns a string representation of the configuration
func (c *Config) String() string {
	return fmt.Sprintf("Config{Mode: %s, InputPath: %s, OutputDir: %s, DBPath: %s, Workers: %d, LogLevel: %s, MaxFileSize: %d}",
		c.Mode, c.InputPath, c.OutputDir, c.DBPath, c.Workers, c.LogLevel, c.MaxFileSize)
}

// IsBatchMode returns true if the indexer runs over an input set and exits
func (c *Config) IsBatchMode() bool {
	return c.Mode == ModeBatch
}

// IsStdioMode returns true if the indexer serves MCP over stdio
func (c *Config) IsStdioMode() bool {
	return c.Mode == ModeStdio
}
