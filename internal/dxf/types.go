package dxf

import "github.com/cadscope/dxf-indexer/internal/dxf/model"

// FileInfo represents information about a DXF file on disk
type FileInfo struct {
	Path         string `json:"path"`
	Name         string `json:"name"`
	Size         int64  `json:"size"`
	ModifiedTime string `json:"modified_time"`
}

// Request Types

// AnalyzeFileRequest represents a request to run the full analysis pipeline
// on one DXF file
type AnalyzeFileRequest struct {
	Path string `json:"path"`
}

// ValidateFileRequest represents a request to validate a DXF file
type ValidateFileRequest struct {
	Path string `json:"path"`
}

// StatsFileRequest represents a request for file-level DXF statistics
type StatsFileRequest struct {
	Path string `json:"path"`
}

// SearchDirectoryRequest represents a request to find DXF files in a
// directory, optionally filtered by a substring query
type SearchDirectoryRequest struct {
	Directory string `json:"directory"`
	Query     string `json:"query"`
}

// Response Types

// AnalyzeFileResult carries everything the pipeline produced for one file:
// the aggregate summary, the canonical entity records, and every diagnostic
// raised along the way
type AnalyzeFileResult struct {
	Summary     model.Summary      `json:"summary"`
	Entities    []model.Entity     `json:"entities"`
	Diagnostics []model.Diagnostic `json:"diagnostics,omitempty"`
}

// ValidateFileResult represents the result of a DXF validation
type ValidateFileResult struct {
	Valid   bool   `json:"valid"`
	Path    string `json:"path"`
	Message string `json:"message,omitempty"`
}

// StatsFileResult reports file-level facts without running the full
// pipeline: size, declared format version, and the layer table as authored
// (which may list layers no entity uses)
type StatsFileResult struct {
	Path           string   `json:"path"`
	Size           int64    `json:"size"`
	ModifiedTime   string   `json:"modified_time"`
	Version        string   `json:"version,omitempty"`
	DeclaredLayers []string `json:"declared_layers,omitempty"`
	RawEntityCount int      `json:"raw_entity_count"`
}

// SearchDirectoryResult represents the result of a directory search
type SearchDirectoryResult struct {
	Files       []FileInfo `json:"files"`
	TotalCount  int        `json:"total_count"`
	Directory   string     `json:"directory"`
	SearchQuery string     `json:"search_query,omitempty"`
}
