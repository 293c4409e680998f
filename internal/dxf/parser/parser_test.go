package parser

import (
	"io"
	"strings"
	"testing"
)

const minimalDXF = `0
SECTION
2
HEADER
9
$ACADVER
1
AC1015
0
ENDSEC
0
SECTION
2
TABLES
0
TABLE
2
LAYER
0
LAYER
2
OUTLINE
0
LAYER
2
DIMENSIONS
0
ENDTAB
0
ENDTAB
0
ENDSEC
0
SECTION
2
ENTITIES
0
LINE
5
A1
8
OUTLINE
10
0.0
20
0.0
11
10.0
21
0.0
0
CIRCLE
5
A2
8
OUTLINE
10
5.0
20
5.0
40
2.0
0
ENDSEC
0
EOF
`

func TestTagReaderNext(t *testing.T) {
	tr := NewTagReader(strings.NewReader("0\nSECTION\n2\nHEADER\n"))

	tag, err := tr.Next()
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if tag.Code != 0 || tag.Value != "SECTION" {
		t.Errorf("Expected (0, SECTION), got (%d, %q)", tag.Code, tag.Value)
	}
	if tag.Line != 1 {
		t.Errorf("Expected line 1, got %d", tag.Line)
	}

	tag, err = tr.Next()
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if tag.Code != 2 || tag.Value != "HEADER" {
		t.Errorf("Expected (2, HEADER), got (%d, %q)", tag.Code, tag.Value)
	}

	if _, err = tr.Next(); err != io.EOF {
		t.Errorf("Expected io.EOF at end of stream, got %v", err)
	}
}

func TestTagReaderStripsCarriageReturn(t *testing.T) {
	tr := NewTagReader(strings.NewReader("0\r\nLINE\r\n"))
	tag, err := tr.Next()
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if tag.Value != "LINE" {
		t.Errorf("Expected CR stripped, got %q", tag.Value)
	}
}

func TestTagReaderBadGroupCode(t *testing.T) {
	tr := NewTagReader(strings.NewReader("notanumber\nLINE\n"))
	if _, err := tr.Next(); err == nil {
		t.Error("Expected error for non-numeric group code")
	}
}

func TestTagReaderMissingValueLine(t *testing.T) {
	tr := NewTagReader(strings.NewReader("0\n"))
	if _, err := tr.Next(); err == nil {
		t.Error("Expected error for group code without value line")
	}
}

func TestParseMinimalFile(t *testing.T) {
	doc, err := Parse(strings.NewReader(minimalDXF))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if doc.Version != "R2000" {
		t.Errorf("Expected version R2000 for AC1015, got %q", doc.Version)
	}
	if len(doc.Layers) != 2 {
		t.Fatalf("Expected 2 declared layers, got %d", len(doc.Layers))
	}
	if doc.Layers[0] != "OUTLINE" || doc.Layers[1] != "DIMENSIONS" {
		t.Errorf("Unexpected layers: %v", doc.Layers)
	}

	if len(doc.Entities) != 2 {
		t.Fatalf("Expected 2 entities, got %d", len(doc.Entities))
	}
	line := doc.Entities[0]
	if line.Kind != "LINE" || line.Handle() != "A1" || line.Layer() != "OUTLINE" {
		t.Errorf("Unexpected first entity: kind=%s handle=%s layer=%s", line.Kind, line.Handle(), line.Layer())
	}
	if x, ok := line.Float(11); !ok || x != 10.0 {
		t.Errorf("Expected end X 10.0, got %v (ok=%v)", x, ok)
	}
	if doc.Entities[1].Kind != "CIRCLE" {
		t.Errorf("Expected second entity CIRCLE, got %s", doc.Entities[1].Kind)
	}
}

func TestParseUnknownVersionKeptVerbatim(t *testing.T) {
	input := "0\nSECTION\n2\nHEADER\n9\n$ACADVER\n1\nAC9999\n0\nENDSEC\n0\nEOF\n"
	doc, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if doc.Version != "AC9999" {
		t.Errorf("Expected unknown version kept verbatim, got %q", doc.Version)
	}
}

func TestParseSkipsUnknownSections(t *testing.T) {
	input := "0\nSECTION\n2\nBLOCKS\n0\nBLOCK\n2\nTITLE\n0\nENDBLK\n0\nENDSEC\n0\nEOF\n"
	doc, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(doc.Entities) != 0 {
		t.Errorf("Expected no entities from skipped section, got %d", len(doc.Entities))
	}
}

func TestParsePolylineVertexFolding(t *testing.T) {
	input := `0
SECTION
2
ENTITIES
0
POLYLINE
5
B1
70
1
0
VERTEX
10
0.0
20
0.0
0
VERTEX
10
5.0
20
0.0
0
VERTEX
10
5.0
20
5.0
0
SEQEND
0
LINE
5
B2
10
0
20
0
11
1
21
1
0
ENDSEC
0
EOF
`
	doc, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if len(doc.Entities) != 2 {
		t.Fatalf("Expected POLYLINE and LINE at top level, got %d entities", len(doc.Entities))
	}
	poly := doc.Entities[0]
	if poly.Kind != "POLYLINE" {
		t.Fatalf("Expected POLYLINE, got %s", poly.Kind)
	}
	if len(poly.Children) != 3 {
		t.Errorf("Expected 3 folded vertices, got %d", len(poly.Children))
	}
	for _, child := range poly.Children {
		if child.Kind != "VERTEX" {
			t.Errorf("Expected VERTEX child, got %s", child.Kind)
		}
	}
	if doc.Entities[1].Kind != "LINE" {
		t.Errorf("Expected LINE after SEQEND, got %s", doc.Entities[1].Kind)
	}
}

func TestParseInsertAttribFolding(t *testing.T) {
	input := `0
SECTION
2
ENTITIES
0
INSERT
5
C1
2
TITLEBLOCK
10
100.0
20
10.0
0
ATTRIB
2
PART_NO
1
BRK-1204
0
ATTRIB
2
MATERIAL
1
SUS304
0
SEQEND
0
ENDSEC
0
EOF
`
	doc, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if len(doc.Entities) != 1 {
		t.Fatalf("Expected 1 entity, got %d", len(doc.Entities))
	}
	ins := doc.Entities[0]
	if ins.Kind != "INSERT" {
		t.Fatalf("Expected INSERT, got %s", ins.Kind)
	}
	if name, _ := ins.Str(2); name != "TITLEBLOCK" {
		t.Errorf("Expected block name TITLEBLOCK, got %q", name)
	}
	if len(ins.Children) != 2 {
		t.Fatalf("Expected 2 folded attributes, got %d", len(ins.Children))
	}
	if v, _ := ins.Children[1].Str(1); v != "SUS304" {
		t.Errorf("Expected second attribute value SUS304, got %q", v)
	}
}

func TestParseOwnerWithoutSeqend(t *testing.T) {
	// A POLYLINE closed implicitly by the next top-level entity.
	input := `0
SECTION
2
ENTITIES
0
POLYLINE
5
D1
0
VERTEX
10
0
20
0
0
LINE
5
D2
10
0
20
0
11
1
21
1
0
ENDSEC
0
EOF
`
	doc, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(doc.Entities) != 2 {
		t.Fatalf("Expected 2 entities, got %d", len(doc.Entities))
	}
	if len(doc.Entities[0].Children) != 1 {
		t.Errorf("Expected 1 vertex folded before implicit close, got %d", len(doc.Entities[0].Children))
	}
}

func TestParseUnterminatedSection(t *testing.T) {
	input := "0\nSECTION\n2\nENTITIES\n0\nLINE\n"
	if _, err := Parse(strings.NewReader(input)); err == nil {
		t.Error("Expected error for unterminated ENTITIES section")
	}
}

func TestRawEntityAccessors(t *testing.T) {
	e := RawEntity{
		Kind: "LINE",
		Tags: []Tag{
			{Code: 5, Value: "FF"},
			{Code: 8, Value: "0"},
			{Code: 10, Value: "1.5"},
			{Code: 10, Value: "2.5"},
			{Code: 70, Value: " 1 "},
			{Code: 40, Value: "bogus"},
		},
	}

	if e.Handle() != "FF" {
		t.Errorf("Handle: got %q", e.Handle())
	}
	if e.Layer() != "0" {
		t.Errorf("Layer: got %q", e.Layer())
	}
	if f, ok := e.Float(10); !ok || f != 1.5 {
		t.Errorf("Float(10): got %v, ok=%v", f, ok)
	}
	if all := e.FloatAll(10); len(all) != 2 || all[1] != 2.5 {
		t.Errorf("FloatAll(10): got %v", all)
	}
	if n, ok := e.Int(70); !ok || n != 1 {
		t.Errorf("Int(70) should trim whitespace: got %v, ok=%v", n, ok)
	}
	if _, ok := e.Float(40); ok {
		t.Error("Float(40) should fail on non-numeric value")
	}
	if _, ok := e.Str(99); ok {
		t.Error("Str(99) should report missing code")
	}
}
