package batch

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// WriteOutputs writes one pretty-printed JSON document per completed result
// into dir, named after the input file's stem. Two inputs with the same
// stem get numbered suffixes so neither output is clobbered.
func WriteOutputs(dir string, results []Result) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	used := make(map[string]int)
	for i := range results {
		r := &results[i]
		if r.Analysis == nil {
			continue
		}

		base := filepath.Base(r.Entry.File)
		stem := strings.TrimSuffix(base, filepath.Ext(base))
		name := stem + ".json"
		if n := used[stem]; n > 0 {
			name = fmt.Sprintf("%s-%d.json", stem, n+1)
		}
		used[stem]++

		data, err := json.MarshalIndent(r.Analysis, "", "  ")
		if err != nil {
			return fmt.Errorf("encode output for %s: %w", r.Entry.File, err)
		}
		if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
			return fmt.Errorf("write output for %s: %w", r.Entry.File, err)
		}
	}
	return nil
}
