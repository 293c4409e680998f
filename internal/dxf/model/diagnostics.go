package model

import "fmt"

// DiagCode categorizes a non-fatal degradation encountered while processing
// a drawing
type DiagCode string

const (
	// DiagUnsupportedEntity marks a raw entity kind with no normalization rule
	DiagUnsupportedEntity DiagCode = "unsupported_entity"
	// DiagMissingAttribute marks a missing or ill-typed source attribute
	DiagMissingAttribute DiagCode = "missing_attribute"
	// DiagDegenerateGeometry marks geometry that is present but unusable
	DiagDegenerateGeometry DiagCode = "degenerate_geometry"
	// DiagBBoxFallback marks an over-approximated bounding box
	DiagBBoxFallback DiagCode = "bbox_fallback"
	// DiagUnparsableValue marks text that should carry a number but does not
	DiagUnparsableValue DiagCode = "unparsable_value"
)

// Diagnostic is one structured record of a skip, fallback, or degraded
// computation. It carries enough context for any logging collaborator to
// render it; the pipeline itself never writes log lines per entity.
type Diagnostic struct {
	File         string   `json:"file,omitempty"`
	EntityHandle string   `json:"entity_handle,omitempty"`
	Code         DiagCode `json:"code"`
	Detail       string   `json:"detail"`
}

func (d Diagnostic) String() string {
	if d.EntityHandle != "" {
		return fmt.Sprintf("%s [%s]: %s", d.Code, d.EntityHandle, d.Detail)
	}
	return fmt.Sprintf("%s: %s", d.Code, d.Detail)
}

// Diagnostics accumulates diagnostic records for one file's pipeline run
type Diagnostics struct {
	File    string
	Records []Diagnostic
}

// Add appends a diagnostic for the file as a whole
func (d *Diagnostics) Add(code DiagCode, detail string) {
	d.Records = append(d.Records, Diagnostic{File: d.File, Code: code, Detail: detail})
}

// AddEntity appends a diagnostic tied to a specific entity handle
func (d *Diagnostics) AddEntity(handle string, code DiagCode, detail string) {
	d.Records = append(d.Records, Diagnostic{File: d.File, EntityHandle: handle, Code: code, Detail: detail})
}

// CountByCode returns how many records carry the given code
func (d *Diagnostics) CountByCode(code DiagCode) int {
	n := 0
	for _, rec := range d.Records {
		if rec.Code == code {
			n++
		}
	}
	return n
}
