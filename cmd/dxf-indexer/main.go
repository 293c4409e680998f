package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"github.com/cadscope/dxf-indexer/internal/batch"
	"github.com/cadscope/dxf-indexer/internal/config"
	"github.com/cadscope/dxf-indexer/internal/dxf"
	"github.com/cadscope/dxf-indexer/internal/logging"
	"github.com/cadscope/dxf-indexer/internal/mcp"
	"github.com/cadscope/dxf-indexer/internal/store"
)

var (
	version   = "dev"     // This will be set by build flags
	buildTime = "unknown" // This will be set by build flags
	gitCommit = "unknown" // This will be set by build flags
)

func main() {
	cfg, err := config.LoadFromFlags()
	if errors.Is(err, config.ErrVersionRequested) {
		printVersion()
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Set version if it was provided during build
	if version != "dev" {
		cfg.Version = version
	}

	logger, err := logging.NewLogger(logging.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync() //nolint:errcheck // stderr sync failure is harmless

	if cfg.IsDebug() {
		logger.Debug("starting", zap.String("config", cfg.String()))
	}

	dxfService := dxf.NewService(cfg.MaxFileSize)
	if cfg.RulesPath != "" {
		if err := dxfService.LoadCustomRules(cfg.RulesPath); err != nil {
			logger.Fatal("failed to load custom rules",
				zap.String("path", cfg.RulesPath), zap.Error(err))
		}
	}

	// Set up context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.IsBatchMode() {
		os.Exit(runBatchMode(ctx, cancel, cfg, dxfService, logger))
	}
	runStdioMode(ctx, cfg, dxfService, logger)
}

// runBatchMode indexes the input set and returns the process exit code:
// 0 when every file completed, 1 otherwise.
func runBatchMode(ctx context.Context, cancel context.CancelFunc,
	cfg *config.Config, dxfService *dxf.Service, logger *zap.Logger,
) int {
	files, err := collectInputs(cfg.InputPath, dxfService)
	if err != nil {
		logger.Error("failed to collect inputs", zap.Error(err))
		return 1
	}
	if len(files) == 0 {
		logger.Warn("no DXF files found", zap.String("input", cfg.InputPath))
		return 0
	}

	// A signal cancels dispatch; in-flight files finish and the manifest
	// records the rest as cancelled.
	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-signalCh
		logger.Info("received signal, cancelling batch", zap.String("signal", sig.String()))
		cancel()
	}()

	indexer := batch.NewIndexer(dxfService, cfg.Workers, logger)
	results := indexer.Run(ctx, files)
	manifest := batch.ManifestFrom(results)

	for _, entry := range manifest {
		switch entry.Outcome {
		case batch.OutcomeCompleted:
			fmt.Printf("[OK]   %s\n", entry.File)
		case batch.OutcomeFailed:
			fmt.Printf("[FAIL] %s: %s\n", entry.File, entry.Error)
		case batch.OutcomeCancelled:
			fmt.Printf("[SKIP] %s: cancelled\n", entry.File)
		}
	}

	if err := batch.WriteOutputs(cfg.OutputDir, results); err != nil {
		logger.Error("failed to write outputs", zap.Error(err))
		return 1
	}
	manifestPath := filepath.Join(cfg.OutputDir, "index.jsonl")
	if err := manifest.WriteJSONL(manifestPath); err != nil {
		logger.Error("failed to write manifest", zap.Error(err))
		return 1
	}

	if cfg.DBPath != "" {
		if err := persistResults(ctx, cfg.DBPath, results, logger); err != nil {
			logger.Error("failed to persist results", zap.Error(err))
			return 1
		}
	}

	logger.Info("batch finished",
		zap.Int("files", len(manifest)),
		zap.Int("completed", manifest.Completed()),
		zap.Int("failed", manifest.Failed()),
		zap.Int("cancelled", manifest.Cancelled()),
		zap.String("manifest", manifestPath))

	if manifest.Failed() > 0 || manifest.Cancelled() > 0 {
		return 1
	}
	return 0
}

// collectInputs resolves the input path to an ordered list of DXF files.
// A single file is taken as-is; a directory is searched recursively.
func collectInputs(input string, dxfService *dxf.Service) ([]string, error) {
	info, err := os.Stat(input)
	if err != nil {
		return nil, fmt.Errorf("cannot access input path: %w", err)
	}
	if !info.IsDir() {
		if !strings.HasSuffix(strings.ToLower(input), ".dxf") {
			return nil, fmt.Errorf("input file is not a DXF: %s", input)
		}
		return []string{input}, nil
	}

	result, err := dxfService.SearchDirectory(dxf.SearchDirectoryRequest{Directory: input})
	if err != nil {
		return nil, err
	}
	files := make([]string, 0, len(result.Files))
	for _, f := range result.Files {
		files = append(files, f.Path)
	}
	return files, nil
}

// persistResults saves every completed analysis into the SQLite index
func persistResults(ctx context.Context, dbPath string, results []batch.Result, logger *zap.Logger) error {
	st, err := store.Open(ctx, dbPath)
	if err != nil {
		return err
	}
	defer st.Close()

	for i := range results {
		if results[i].Analysis == nil {
			continue
		}
		id, err := st.SaveResult(ctx, results[i].Analysis)
		if err != nil {
			return fmt.Errorf("saving %s: %w", results[i].Entry.File, err)
		}
		logger.Debug("drawing indexed",
			zap.String("file", results[i].Entry.File),
			zap.String("id", id))
	}
	return nil
}

// runStdioMode serves MCP over stdio until the parent closes the stream
func runStdioMode(ctx context.Context, cfg *config.Config, dxfService *dxf.Service, logger *zap.Logger) {
	server, err := mcp.NewServer(cfg, dxfService, logger)
	if err != nil {
		logger.Fatal("failed to create MCP server", zap.Error(err))
	}

	if err := server.Run(ctx); err != nil {
		logger.Error("server error", zap.Error(err))
		os.Exit(1)
	}
}

// printVersion prints version information
func printVersion() {
	fmt.Printf("DXF Indexer\n")
	fmt.Printf("Version: %s\n", version)
	fmt.Printf("Build Time: %s\n", buildTime)
	fmt.Printf("Git Commit: %s\n", gitCommit)
	fmt.Printf("Built with: %s\n", runtime.Version())
}
