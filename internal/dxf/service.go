package dxf

import (
	"fmt"
	"os"
	"time"

	"github.com/cadscope/dxf-indexer/internal/dxf/model"
	"github.com/cadscope/dxf-indexer/internal/dxf/parser"
	"github.com/cadscope/dxf-indexer/internal/intelligence"
)

// Service runs the drawing analysis pipeline by orchestrating its stages:
// normalization, geometry derivation, annotation classification, and
// aggregation. One Service instance is safe to share across files; the
// pipeline keeps no per-file state of its own.
type Service struct {
	maxFileSize int64
	normalizer  *Normalizer
	deriver     *GeometryDeriver
	classifier  *intelligence.AnnotationClassifier
	aggregator  *Aggregator
	validator   *Validator
	search      *Search
}

// NewService creates a DXF service with all pipeline components
func NewService(maxFileSize int64) *Service {
	return &Service{
		maxFileSize: maxFileSize,
		normalizer:  NewNormalizer(),
		deriver:     NewGeometryDeriver(),
		classifier:  intelligence.NewAnnotationClassifier(),
		aggregator:  NewAggregator(),
		validator:   NewValidator(maxFileSize),
		search:      NewSearch(maxFileSize),
	}
}

// LoadCustomRules appends classifier rules from a JSON or YAML file
func (s *Service) LoadCustomRules(path string) error {
	return s.classifier.LoadCustomRules(path)
}

// AnalyzeFile reads one DXF file and runs the full pipeline over it. File
// access and parse failures are errors; everything past the parse degrades
// per entity into diagnostics instead of failing.
func (s *Service) AnalyzeFile(req AnalyzeFileRequest) (*AnalyzeFileResult, error) {
	doc, err := s.parseFile(req.Path)
	if err != nil {
		return nil, err
	}
	return s.AnalyzeDocument(req.Path, doc), nil
}

// AnalyzeDocument runs the pipeline stages over an already-parsed document.
// The stages apply strictly in sequence; each consumes the full output of
// the one before.
func (s *Service) AnalyzeDocument(source string, doc *parser.Document) *AnalyzeFileResult {
	diags := &model.Diagnostics{File: source}

	entities := make([]model.Entity, 0, len(doc.Entities))
	for i := range doc.Entities {
		ent, ok := s.normalizer.Normalize(&doc.Entities[i], diags)
		if !ok {
			continue
		}
		s.deriver.Derive(ent, diags)
		entities = append(entities, *ent)
	}

	annotations := s.classifier.Classify(entities, diags)
	summary := s.aggregator.Aggregate(source, doc.Version, entities, annotations)

	return &AnalyzeFileResult{
		Summary:     summary,
		Entities:    entities,
		Diagnostics: diags.Records,
	}
}

// ValidateFile performs validation on a DXF file
func (s *Service) ValidateFile(req ValidateFileRequest) (*ValidateFileResult, error) {
	return s.validator.ValidateFile(req)
}

// StatsFile reports file-level facts without running the full pipeline
func (s *Service) StatsFile(req StatsFileRequest) (*StatsFileResult, error) {
	info, err := os.Stat(req.Path)
	if err != nil {
		return nil, fmt.Errorf("cannot access file: %w", err)
	}

	doc, err := s.parseFile(req.Path)
	if err != nil {
		return nil, err
	}

	return &StatsFileResult{
		Path:           req.Path,
		Size:           info.Size(),
		ModifiedTime:   info.ModTime().Format(time.RFC3339),
		Version:        doc.Version,
		DeclaredLayers: doc.Layers,
		RawEntityCount: len(doc.Entities),
	}, nil
}

// SearchDirectory finds DXF files in a directory
func (s *Service) SearchDirectory(req SearchDirectoryRequest) (*SearchDirectoryResult, error) {
	return s.search.SearchDirectory(req)
}

// IsValidDXF performs a quick validation check on a file
func (s *Service) IsValidDXF(filePath string) bool {
	return s.validator.IsValidDXF(filePath)
}

// GetMaxFileSize returns the maximum file size limit
func (s *Service) GetMaxFileSize() int64 {
	return s.maxFileSize
}

func (s *Service) parseFile(path string) (*parser.Document, error) {
	if path == "" {
		return nil, fmt.Errorf("path cannot be empty")
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("cannot access file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("path is a directory, not a file: %s", path)
	}
	if info.Size() > s.maxFileSize {
		return nil, fmt.Errorf("file too large: %d bytes (max: %d bytes)", info.Size(), s.maxFileSize)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open file: %w", err)
	}
	defer f.Close()

	doc, err := parser.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return doc, nil
}
