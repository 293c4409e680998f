package model

import "testing"

func TestEntityTypeIsValid(t *testing.T) {
	for _, typ := range AllEntityTypes() {
		if !typ.IsValid() {
			t.Errorf("Expected %s to be valid", typ)
		}
	}
	if EntityType("VIEWPORT").IsValid() {
		t.Error("Expected VIEWPORT to be outside the enumeration")
	}
	if EntityType("").IsValid() {
		t.Error("Expected empty type to be invalid")
	}
}

func TestBBoxValid(t *testing.T) {
	if !(BBox{MinX: 0, MinY: 0, MaxX: 1, MaxY: 1}).Valid() {
		t.Error("Expected well-formed box to be valid")
	}
	if !(BBox{MinX: 2, MinY: 2, MaxX: 2, MaxY: 2}).Valid() {
		t.Error("Expected point-sized box to be valid")
	}
	if (BBox{MinX: 1, MinY: 0, MaxX: 0, MaxY: 1}).Valid() {
		t.Error("Expected inverted box to be invalid")
	}
}

func TestBBoxUnion(t *testing.T) {
	a := BBox{MinX: 0, MinY: 0, MaxX: 5, MaxY: 5}
	b := BBox{MinX: 3, MinY: -2, MaxX: 10, MaxY: 4}

	u := a.Union(b)
	want := BBox{MinX: 0, MinY: -2, MaxX: 10, MaxY: 5}
	if u != want {
		t.Errorf("Union: got %+v, want %+v", u, want)
	}
}

func TestPayloadEntityTypes(t *testing.T) {
	cases := []struct {
		payload Payload
		want    EntityType
	}{
		{LinePayload{}, EntityTypeLine},
		{CirclePayload{}, EntityTypeCircle},
		{ArcPayload{}, EntityTypeArc},
		{PolylinePayload{Kind: EntityTypeLWPolyline}, EntityTypeLWPolyline},
		{PolylinePayload{Kind: EntityTypePolyline}, EntityTypePolyline},
		{SplinePayload{}, EntityTypeSpline},
		{EllipsePayload{}, EntityTypeEllipse},
		{PointPayload{}, EntityTypePoint},
		{TextPayload{Kind: EntityTypeText}, EntityTypeText},
		{TextPayload{Kind: EntityTypeMText}, EntityTypeMText},
		{InsertPayload{}, EntityTypeInsert},
		{DimensionPayload{}, EntityTypeDimension},
		{HatchPayload{}, EntityTypeHatch},
	}
	for _, tc := range cases {
		if got := tc.payload.EntityType(); got != tc.want {
			t.Errorf("Payload %T: got %s, want %s", tc.payload, got, tc.want)
		}
	}
}

func TestParseMeasurement(t *testing.T) {
	cases := []struct {
		text string
		want float64
		ok   bool
	}{
		{"150", 150, true},
		{"12.5mm", 12.5, true},
		{"⌀42.0", 42, true},
		{"R5", 5, true},
		{"-3.2", -3.2, true},
		{"  100  ", 100, true},
		{"", 0, false},
		{"<>", 0, false},
		{"⌀<>", 0, false},
		{"no numbers here", 0, false},
	}
	for _, tc := range cases {
		got, ok := ParseMeasurement(tc.text)
		if ok != tc.ok {
			t.Errorf("ParseMeasurement(%q): ok=%v, want %v", tc.text, ok, tc.ok)
			continue
		}
		if ok && got != tc.want {
			t.Errorf("ParseMeasurement(%q): got %g, want %g", tc.text, got, tc.want)
		}
	}
}

func TestDiagnosticsCollector(t *testing.T) {
	d := &Diagnostics{File: "a.dxf"}
	d.Add(DiagUnsupportedEntity, "entity kind VIEWPORT")
	d.AddEntity("1F", DiagMissingAttribute, "LINE without both endpoints")
	d.AddEntity("20", DiagMissingAttribute, "CIRCLE without center or radius")

	if len(d.Records) != 3 {
		t.Fatalf("Expected 3 records, got %d", len(d.Records))
	}
	if d.Records[0].File != "a.dxf" {
		t.Errorf("Expected file carried onto records, got %q", d.Records[0].File)
	}
	if d.Records[1].EntityHandle != "1F" {
		t.Errorf("Expected handle 1F, got %q", d.Records[1].EntityHandle)
	}
	if got := d.CountByCode(DiagMissingAttribute); got != 2 {
		t.Errorf("CountByCode: got %d, want 2", got)
	}
	if got := d.CountByCode(DiagBBoxFallback); got != 0 {
		t.Errorf("CountByCode for absent code: got %d, want 0", got)
	}
}
