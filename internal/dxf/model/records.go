package model

// Dimension is a measured value extracted from a DIMENSION entity or from
// text classified as a dimension callout
type Dimension struct {
	Measurement  *float64 `json:"measurement,omitempty"`
	Text         string   `json:"text,omitempty"`
	Layer        string   `json:"layer,omitempty"`
	Position     *Point   `json:"position,omitempty"`
	EntityHandle string   `json:"entity_handle,omitempty"`
}

// Material is a material callout extracted from classified text
type Material struct {
	Content      string `json:"content"`
	Layer        string `json:"layer,omitempty"`
	Position     *Point `json:"position,omitempty"`
	EntityHandle string `json:"entity_handle,omitempty"`
}

// BOMRow is one row of a detected bill-of-materials table. Column roles are
// inferred from position and content, so any field may be empty.
type BOMRow struct {
	PartNo        string   `json:"part_no,omitempty"`
	Description   string   `json:"description,omitempty"`
	Quantity      string   `json:"quantity,omitempty"`
	Material      string   `json:"material,omitempty"`
	Layer         string   `json:"layer,omitempty"`
	EntityHandles []string `json:"entity_handles,omitempty"`
}

// Annotations is the set of structured records the classifier extracted from
// one drawing's text-bearing entities
type Annotations struct {
	Dimensions []Dimension `json:"dimensions"`
	Materials  []Material  `json:"materials"`
	BOMRows    []BOMRow    `json:"bom_rows"`
	NoteCount  int         `json:"note_count"`

	// HasBOMBlock is set when a block reference named like a parts list was
	// seen, even if no table rows could be recovered from it.
	HasBOMBlock bool `json:"has_bom_block"`
}

// Summary is the per-drawing aggregate produced once all entities of a file
// have been processed. It is immutable after aggregation.
type Summary struct {
	Source  string `json:"source"`
	Version string `json:"version,omitempty"`

	EntityCount int                `json:"entity_count"`
	TypeCounts  map[EntityType]int `json:"entity_counts"`
	LayerCount  int                `json:"layer_count"`
	Layers      []string           `json:"layers"`

	Dimensions []Dimension `json:"dimensions"`
	Materials  []Material  `json:"materials"`
	BOMRows    []BOMRow    `json:"bom_rows"`

	KeyDimensions []Dimension `json:"key_dimensions,omitempty"`
	HasBOM        bool        `json:"has_bom"`
	NoteCount     int         `json:"note_count"`
}
