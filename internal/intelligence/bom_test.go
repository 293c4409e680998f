package intelligence

import (
	"testing"

	"github.com/cadscope/dxf-indexer/internal/dxf/model"
)

// bomTable lays out two aligned rows of four cells on one layer, the shape
// of a small parts list drawn as loose text.
func bomTable() []model.Entity {
	return []model.Entity{
		// row 1 at y=30
		textEntity("R1C1", "BRK-01", "BOM", 10, 30),
		textEntity("R1C2", "BRACKET", "BOM", 40, 30),
		textEntity("R1C3", "2", "BOM", 80, 30),
		textEntity("R1C4", "SUS304", "BOM", 100, 30),
		// row 2 at y=22
		textEntity("R2C1", "PLT-07", "BOM", 10, 22),
		textEntity("R2C2", "BASE PLATE", "BOM", 40, 22),
		textEntity("R2C3", "1", "BOM", 80, 22),
		textEntity("R2C4", "SS400", "BOM", 100, 22),
	}
}

func TestClusterTablesRecognizesRows(t *testing.T) {
	c := NewAnnotationClassifier()
	diags := &model.Diagnostics{}

	ann := c.Classify(bomTable(), diags)

	if len(ann.BOMRows) != 2 {
		t.Fatalf("Expected 2 BOM rows, got %d (notes: %d)", len(ann.BOMRows), ann.NoteCount)
	}

	first := ann.BOMRows[0]
	if first.PartNo != "BRK-01" {
		t.Errorf("PartNo: got %q", first.PartNo)
	}
	if first.Quantity != "2" {
		t.Errorf("Quantity: got %q", first.Quantity)
	}
	if first.Material != "SUS304" {
		t.Errorf("Material: got %q", first.Material)
	}
	if first.Description != "BRACKET" {
		t.Errorf("Description: got %q", first.Description)
	}
	if first.Layer != "BOM" {
		t.Errorf("Layer: got %q", first.Layer)
	}
	if len(first.EntityHandles) != 4 {
		t.Errorf("EntityHandles: got %v", first.EntityHandles)
	}

	second := ann.BOMRows[1]
	if second.PartNo != "PLT-07" || second.Quantity != "1" || second.Material != "SS400" {
		t.Errorf("Unexpected second row: %+v", second)
	}

	// Table cells never double as notes.
	if ann.NoteCount != 0 {
		t.Errorf("NoteCount: got %d, want 0", ann.NoteCount)
	}
}

func TestClusterTablesRequiresTwoRows(t *testing.T) {
	c := NewAnnotationClassifier()
	diags := &model.Diagnostics{}

	// A single aligned row is not enough without a BOM-named block nearby.
	ann := c.Classify(bomTable()[:4], diags)
	if len(ann.BOMRows) != 0 {
		t.Errorf("Expected no rows from a single-row cluster, got %d", len(ann.BOMRows))
	}
	// Cells the table pass rejects fall back to the rule chain results:
	// SUS304 was already claimed as material, the rest become notes.
	if len(ann.Materials) != 1 {
		t.Errorf("Expected the material cell claimed by rules, got %d", len(ann.Materials))
	}
}

func TestClusterTablesSeededByBOMBlock(t *testing.T) {
	c := NewAnnotationClassifier()
	diags := &model.Diagnostics{}

	pos := model.Point{X: 5, Y: 35}
	entities := append(bomTable()[:4], model.Entity{
		Handle: "I1",
		Type:   model.EntityTypeInsert,
		Layer:  "BOM",
		Payload: model.InsertPayload{
			Name:   "部品表",
			Insert: &pos,
			XScale: 1, YScale: 1,
		},
	})

	ann := c.Classify(entities, diags)
	if !ann.HasBOMBlock {
		t.Fatal("Expected HasBOMBlock")
	}
	// The block on the same layer lowers the row threshold to one.
	if len(ann.BOMRows) != 1 {
		t.Errorf("Expected the single row accepted, got %d rows", len(ann.BOMRows))
	}
}

func TestClusterTablesRejectsMisalignedColumns(t *testing.T) {
	cfg := DefaultConfig()
	c := NewAnnotationClassifierWithConfig(cfg)
	diags := &model.Diagnostics{}

	entities := []model.Entity{
		textEntity("R1C1", "BRK-01", "BOM", 10, 30),
		textEntity("R1C2", "2", "BOM", 40, 30),
		// second row starts far to the right of the first
		textEntity("R2C1", "PLT-07", "BOM", 60, 22),
		textEntity("R2C2", "1", "BOM", 90, 22),
	}
	ann := c.Classify(entities, diags)
	if len(ann.BOMRows) != 0 {
		t.Errorf("Expected misaligned rows rejected, got %d rows", len(ann.BOMRows))
	}
}

func TestClusterTablesSeparateLayersSeparateTables(t *testing.T) {
	c := NewAnnotationClassifier()
	diags := &model.Diagnostics{}

	// Same coordinates, different layers: no table spans layers.
	entities := []model.Entity{
		textEntity("A1", "BRK-01", "BOM", 10, 30),
		textEntity("A2", "2", "BOM", 40, 30),
		textEntity("B1", "PLT-07", "TITLE", 10, 22),
		textEntity("B2", "1", "TITLE", 40, 22),
	}
	ann := c.Classify(entities, diags)
	if len(ann.BOMRows) != 0 {
		t.Errorf("Expected no rows across layers, got %d", len(ann.BOMRows))
	}
}

func TestClusterTablesUsesTextHeightForRowTolerance(t *testing.T) {
	c := NewAnnotationClassifier()
	diags := &model.Diagnostics{}

	h := 4.0
	tall := func(handle, text string, x, y float64) model.Entity {
		e := textEntity(handle, text, "BOM", x, y)
		p := e.Payload.(model.TextPayload)
		p.Height = &h
		e.Payload = p
		return e
	}

	// y jitter of 4 is outside the default tolerance (3) but inside the
	// height-derived one (4 * 1.5 = 6).
	entities := []model.Entity{
		tall("R1C1", "BRK-01", 10, 30),
		tall("R1C2", "2", 40, 34),
		tall("R2C1", "PLT-07", 10, 20),
		tall("R2C2", "1", 40, 24),
	}
	ann := c.Classify(entities, diags)
	if len(ann.BOMRows) != 2 {
		t.Errorf("Expected jittered cells bucketed by text height, got %d rows", len(ann.BOMRows))
	}
}
