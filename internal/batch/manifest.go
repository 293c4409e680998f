// Package batch drives the analysis pipeline across many input files. Files
// are processed in isolation: one file's failure never aborts the batch, and
// the manifest always carries exactly one entry per input.
package batch

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"

	"github.com/cadscope/dxf-indexer/internal/dxf/model"
)

// Outcome is the terminal state of one file's processing
type Outcome string

const (
	// OutcomeCompleted means the full pipeline ran and produced a summary
	OutcomeCompleted Outcome = "completed"
	// OutcomeFailed means the file was unreadable, unparsable, or the
	// pipeline faulted; the file's partial results are discarded wholesale
	OutcomeFailed Outcome = "failed"
	// OutcomeCancelled means the batch was cancelled before the file was
	// dispatched
	OutcomeCancelled Outcome = "cancelled"
)

// Entry is one file's manifest record
type Entry struct {
	File    string         `json:"file"`
	Outcome Outcome        `json:"outcome"`
	Summary *model.Summary `json:"summary,omitempty"`
	Error   string         `json:"error,omitempty"`
}

// Manifest is the ordered record of a batch run, one entry per input file
// in input order
type Manifest []Entry

// Completed counts the entries that finished successfully
func (m Manifest) Completed() int { return m.countOutcome(OutcomeCompleted) }

// Failed counts the entries that failed
func (m Manifest) Failed() int { return m.countOutcome(OutcomeFailed) }

// Cancelled counts the entries skipped by cancellation
func (m Manifest) Cancelled() int { return m.countOutcome(OutcomeCancelled) }

func (m Manifest) countOutcome(o Outcome) int {
	n := 0
	for _, e := range m {
		if e.Outcome == o {
			n++
		}
	}
	return n
}

// WriteJSONL writes the manifest as one JSON object per line, preserving
// batch order
func (m Manifest) WriteJSONL(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create manifest: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	for _, entry := range m {
		if err := enc.Encode(entry); err != nil {
			return fmt.Errorf("write manifest entry for %s: %w", entry.File, err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("flush manifest: %w", err)
	}
	return nil
}
