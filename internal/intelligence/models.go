// Package intelligence classifies the text-bearing entities of a drawing
// into engineering semantics: dimension callouts, material designations,
// bill-of-materials rows, and generic notes. Classification is heuristic and
// best-effort; anything unmatched stays a note.
package intelligence

import (
	"fmt"
	"regexp"

	"github.com/cadscope/dxf-indexer/internal/dxf/model"
)

// Role is the semantic role assigned to a piece of annotation text
type Role string

const (
	RoleDimension Role = "dimension"
	RoleMaterial  Role = "material"
	RoleBOMRow    Role = "bom_row"
	RoleNote      Role = "note"
)

// IsValid checks if the role is one of the known semantic roles
func (r Role) IsValid() bool {
	switch r {
	case RoleDimension, RoleMaterial, RoleBOMRow, RoleNote:
		return true
	default:
		return false
	}
}

// Rule maps a text predicate onto a role. Rules are evaluated in slice
// order and the first match claims the text, so precedence lives in the
// ordering, not in the rules themselves.
type Rule struct {
	Name        string   `json:"name" yaml:"name"`
	Role        Role     `json:"role" yaml:"role"`
	Patterns    []string `json:"patterns,omitempty" yaml:"patterns,omitempty"`
	Keywords    []string `json:"keywords,omitempty" yaml:"keywords,omitempty"`
	Layers      []string `json:"layers,omitempty" yaml:"layers,omitempty"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`

	compiled []*regexp.Regexp
}

// Compile prepares the rule's regular expressions. A rule with an invalid
// pattern is rejected whole rather than silently weakened.
func (r *Rule) Compile() error {
	if !r.Role.IsValid() {
		return fmt.Errorf("rule %q: unknown role %q", r.Name, r.Role)
	}
	r.compiled = r.compiled[:0]
	for _, p := range r.Patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return fmt.Errorf("rule %q: pattern %q: %w", r.Name, p, err)
		}
		r.compiled = append(r.compiled, re)
	}
	return nil
}

// RuleFile is the on-disk form of a custom rule set (JSON or YAML)
type RuleFile struct {
	Version string `json:"version,omitempty" yaml:"version,omitempty"`
	Rules   []Rule `json:"rules" yaml:"rules"`
}

// Config tunes the classifier heuristics
type Config struct {
	// MaterialLayers are layer names conventionally used for material
	// callouts; any text on them classifies as material.
	MaterialLayers []string

	// RowTolerance is the vertical distance (drawing units) within which two
	// text positions are considered the same table row, used when the text
	// carries no height of its own.
	RowTolerance float64

	// ColumnTolerance is the horizontal distance within which cells of
	// adjacent rows count as the same column.
	ColumnTolerance float64

	// MinTableRows is the number of aligned rows required before a cluster
	// is read as a table. A BOM-named block on the same layer lowers the
	// requirement to one row.
	MinTableRows int

	// MinTableCols is the number of cells a row needs to count as tabular.
	MinTableCols int
}

// DefaultConfig returns the classifier defaults
func DefaultConfig() Config {
	return Config{
		MaterialLayers:  []string{"material", "materials", "mat"},
		RowTolerance:    3.0,
		ColumnTolerance: 8.0,
		MinTableRows:    2,
		MinTableCols:    2,
	}
}

// textItem is one classifiable piece of text lifted out of an entity
type textItem struct {
	handle   string
	text     string
	layer    string
	position *model.Point
	height   *float64
}
