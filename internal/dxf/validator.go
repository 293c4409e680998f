package dxf

import (
	"fmt"
	"os"
	"strings"

	"github.com/cadscope/dxf-indexer/internal/dxf/parser"
)

// Validator handles DXF file validation
type Validator struct {
	maxFileSize int64
}

// NewValidator creates a new DXF validator with the specified constraints
func NewValidator(maxFileSize int64) *Validator {
	return &Validator{
		maxFileSize: maxFileSize,
	}
}

// ValidateFile performs validation on a DXF file. Validation failures are
// reported in the result, not as errors.
func (v *Validator) ValidateFile(req ValidateFileRequest) (*ValidateFileResult, error) {
	result := &ValidateFileResult{
		Path:  req.Path,
		Valid: false,
	}

	if err := v.validateDXFFile(req.Path); err != nil {
		result.Message = err.Error()
		return result, nil
	}

	result.Valid = true
	return result, nil
}

// validateDXFFile performs detailed validation on a DXF file
func (v *Validator) validateDXFFile(filePath string) error {
	if filePath == "" {
		return fmt.Errorf("path cannot be empty")
	}

	fileInfo, err := os.Stat(filePath)
	if os.IsNotExist(err) {
		return fmt.Errorf("file does not exist: %s", filePath)
	}
	if err != nil {
		return fmt.Errorf("cannot access file: %w", err)
	}

	if fileInfo.IsDir() {
		return fmt.Errorf("path is a directory, not a file: %s", filePath)
	}

	if !strings.HasSuffix(strings.ToLower(filePath), ".dxf") {
		return fmt.Errorf("file is not a DXF: %s", filePath)
	}

	if fileInfo.Size() == 0 {
		return fmt.Errorf("file is empty: %s", filePath)
	}

	if fileInfo.Size() > v.maxFileSize {
		return fmt.Errorf("file too large: %d bytes (max: %d bytes)",
			fileInfo.Size(), v.maxFileSize)
	}

	// Parse the tag stream to confirm the file is structurally sound.
	f, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("cannot open file: %w", err)
	}
	defer f.Close()

	if _, err := parser.Parse(f); err != nil {
		return fmt.Errorf("invalid DXF file: %w", err)
	}

	return nil
}

// IsValidDXF performs a quick check to see if a file is a valid DXF
func (v *Validator) IsValidDXF(filePath string) bool {
	return v.validateDXFFile(filePath) == nil
}
