package batch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/cadscope/dxf-indexer/internal/dxf"
)

// Result pairs one input file's manifest entry with its full analysis
// output. Analysis is nil unless the entry completed.
type Result struct {
	Entry    Entry
	Analysis *dxf.AnalyzeFileResult
}

// Indexer runs the analysis pipeline over a list of files with a bounded
// worker pool
type Indexer struct {
	service *dxf.Service
	workers int
	logger  *zap.Logger
}

// NewIndexer creates a batch indexer. Workers below 1 are clamped to 1.
func NewIndexer(service *dxf.Service, workers int, logger *zap.Logger) *Indexer {
	if workers < 1 {
		workers = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Indexer{
		service: service,
		workers: workers,
		logger:  logger,
	}
}

// Run processes every file and returns one result per input, in input
// order. Files are dispatched to workers as they come free; a failure in
// one file never stops the others. Cancelling the context stops dispatch:
// files not yet handed to a worker are marked cancelled, files already in
// flight run to completion.
func (ix *Indexer) Run(ctx context.Context, files []string) []Result {
	results := make([]Result, len(files))
	if len(files) == 0 {
		return results
	}

	workers := ix.workers
	if workers > len(files) {
		workers = len(files)
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				results[idx] = ix.processOne(files[idx])
			}
		}()
	}

dispatch:
	for i := range files {
		select {
		case <-ctx.Done():
			for j := i; j < len(files); j++ {
				results[j] = Result{Entry: Entry{
					File:    files[j],
					Outcome: OutcomeCancelled,
					Error:   ctx.Err().Error(),
				}}
			}
			break dispatch
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	return results
}

// processOne runs the pipeline on a single file. Panics are contained here
// so a fault in one file cannot take down the batch.
func (ix *Indexer) processOne(file string) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			ix.logger.Error("panic while processing file",
				zap.String("file", file),
				zap.Any("panic", r))
			res = Result{Entry: Entry{
				File:    file,
				Outcome: OutcomeFailed,
				Error:   fmt.Sprintf("internal error: %v", r),
			}}
		}
	}()

	start := time.Now()
	analysis, err := ix.service.AnalyzeFile(dxf.AnalyzeFileRequest{Path: file})
	if err != nil {
		ix.logger.Warn("file failed",
			zap.String("file", file),
			zap.Error(err))
		return Result{Entry: Entry{
			File:    file,
			Outcome: OutcomeFailed,
			Error:   err.Error(),
		}}
	}

	ix.logger.Debug("file analyzed",
		zap.String("file", file),
		zap.Int("entities", analysis.Summary.EntityCount),
		zap.Int("diagnostics", len(analysis.Diagnostics)),
		zap.Duration("elapsed", time.Since(start)))

	summary := analysis.Summary
	return Result{
		Entry: Entry{
			File:    file,
			Outcome: OutcomeCompleted,
			Summary: &summary,
		},
		Analysis: analysis,
	}
}

// ManifestFrom collects the manifest entries out of a result slice,
// preserving order
func ManifestFrom(results []Result) Manifest {
	manifest := make(Manifest, len(results))
	for i := range results {
		manifest[i] = results[i].Entry
	}
	return manifest
}
