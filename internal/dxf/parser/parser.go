package parser

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// RawEntity is one entity from the ENTITIES section, kept as the raw tag
// list. POLYLINE vertices and INSERT attributes arrive as separate entities
// in the stream; the parser folds them back under their owner as Children.
type RawEntity struct {
	Kind     string
	Tags     []Tag
	Children []RawEntity
}

// Str returns the first value for the given group code
func (e *RawEntity) Str(code int) (string, bool) {
	for _, t := range e.Tags {
		if t.Code == code {
			return t.Value, true
		}
	}
	return "", false
}

// StrAll returns every value for the given group code, in stream order
func (e *RawEntity) StrAll(code int) []string {
	var out []string
	for _, t := range e.Tags {
		if t.Code == code {
			out = append(out, t.Value)
		}
	}
	return out
}

// Float returns the first value for the code parsed as a float
func (e *RawEntity) Float(code int) (float64, bool) {
	s, ok := e.Str(code)
	if !ok {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// FloatAll returns every value for the code parsed as floats; values that do
// not parse are skipped
func (e *RawEntity) FloatAll(code int) []float64 {
	var out []float64
	for _, t := range e.Tags {
		if t.Code != code {
			continue
		}
		if f, err := strconv.ParseFloat(strings.TrimSpace(t.Value), 64); err == nil {
			out = append(out, f)
		}
	}
	return out
}

// Int returns the first value for the code parsed as an integer
func (e *RawEntity) Int(code int) (int, bool) {
	s, ok := e.Str(code)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, false
	}
	return n, true
}

// Handle returns the entity handle (group code 5), if present
func (e *RawEntity) Handle() string {
	h, _ := e.Str(5)
	return h
}

// Layer returns the entity layer name (group code 8), if present
func (e *RawEntity) Layer() string {
	l, _ := e.Str(8)
	return l
}

// Document is the parsed content of one DXF file: file-level metadata plus
// the raw entity stream from the ENTITIES section
type Document struct {
	Version  string
	Layers   []string
	Entities []RawEntity
}

// acadReleases maps $ACADVER codes to the release names users know
var acadReleases = map[string]string{
	"AC1009": "R12",
	"AC1012": "R13",
	"AC1014": "R14",
	"AC1015": "R2000",
	"AC1018": "R2004",
	"AC1021": "R2007",
	"AC1024": "R2010",
	"AC1027": "R2013",
	"AC1032": "R2018",
}

// Parse reads an ASCII DXF stream into a Document. Sections other than
// HEADER, TABLES, and ENTITIES are skipped. A malformed tag stream is a
// file-level error; unknown entity kinds are preserved for the layer above
// to count and drop.
func Parse(r io.Reader) (*Document, error) {
	tr := NewTagReader(r)
	doc := &Document{}

	for {
		tag, err := tr.Next()
		if err == io.EOF {
			return doc, nil
		}
		if err != nil {
			return nil, err
		}

		if tag.Code != 0 {
			continue
		}
		switch tag.Value {
		case "SECTION":
			name, err := tr.Next()
			if err != nil {
				return nil, fmt.Errorf("unterminated SECTION: %w", unexpectedEOF(err))
			}
			if name.Code != 2 {
				return nil, fmt.Errorf("line %d: SECTION without a name tag", name.Line)
			}
			if err := parseSection(tr, doc, name.Value); err != nil {
				return nil, err
			}
		case "EOF":
			return doc, nil
		}
	}
}

func parseSection(tr *TagReader, doc *Document, name string) error {
	switch name {
	case "HEADER":
		return parseHeader(tr, doc)
	case "TABLES":
		return parseTables(tr, doc)
	case "ENTITIES":
		return parseEntities(tr, doc)
	default:
		return skipSection(tr)
	}
}

func skipSection(tr *TagReader) error {
	for {
		tag, err := tr.Next()
		if err != nil {
			return fmt.Errorf("unterminated section: %w", unexpectedEOF(err))
		}
		if tag.Code == 0 && tag.Value == "ENDSEC" {
			return nil
		}
	}
}

// parseHeader extracts $ACADVER; every other header variable is skipped
func parseHeader(tr *TagReader, doc *Document) error {
	wantVersion := false
	for {
		tag, err := tr.Next()
		if err != nil {
			return fmt.Errorf("unterminated HEADER section: %w", unexpectedEOF(err))
		}
		switch {
		case tag.Code == 0 && tag.Value == "ENDSEC":
			return nil
		case tag.Code == 9:
			wantVersion = tag.Value == "$ACADVER"
		case tag.Code == 1 && wantVersion:
			if release, ok := acadReleases[tag.Value]; ok {
				doc.Version = release
			} else {
				doc.Version = tag.Value
			}
			wantVersion = false
		}
	}
}

// parseTables collects layer names from the LAYER table
func parseTables(tr *TagReader, doc *Document) error {
	inLayerTable := false
	wantLayerName := false
	for {
		tag, err := tr.Next()
		if err != nil {
			return fmt.Errorf("unterminated TABLES section: %w", unexpectedEOF(err))
		}
		switch {
		case tag.Code == 0 && tag.Value == "ENDSEC":
			return nil
		case tag.Code == 0 && tag.Value == "TABLE":
			inLayerTable = false
		case tag.Code == 2 && !inLayerTable && tag.Value == "LAYER":
			inLayerTable = true
		case tag.Code == 0 && tag.Value == "ENDTAB":
			inLayerTable = false
		case tag.Code == 0 && tag.Value == "LAYER" && inLayerTable:
			wantLayerName = true
		case tag.Code == 2 && wantLayerName:
			doc.Layers = append(doc.Layers, tag.Value)
			wantLayerName = false
		}
	}
}

// subEntityOwners lists container kinds whose sub-entities (VERTEX, ATTRIB)
// stream as siblings terminated by SEQEND
var subEntityOwners = map[string]bool{
	"POLYLINE": true,
	"INSERT":   true,
}

func parseEntities(tr *TagReader, doc *Document) error {
	var current *RawEntity
	var owner *RawEntity

	flush := func() {
		if current == nil {
			return
		}
		if owner != nil && current != owner {
			owner.Children = append(owner.Children, *current)
		} else {
			doc.Entities = append(doc.Entities, *current)
			if subEntityOwners[current.Kind] {
				owner = &doc.Entities[len(doc.Entities)-1]
			}
		}
		current = nil
	}

	for {
		tag, err := tr.Next()
		if err != nil {
			return fmt.Errorf("unterminated ENTITIES section: %w", unexpectedEOF(err))
		}

		if tag.Code != 0 {
			if current != nil {
				current.Tags = append(current.Tags, tag)
			}
			continue
		}

		switch tag.Value {
		case "ENDSEC":
			flush()
			return nil
		case "SEQEND":
			flush()
			owner = nil
		default:
			flush()
			if owner != nil && tag.Value != "VERTEX" && tag.Value != "ATTRIB" {
				// Owner was never closed with SEQEND; tolerate and move on.
				owner = nil
			}
			current = &RawEntity{Kind: tag.Value}
		}
	}
}

func unexpectedEOF(err error) error {
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}
