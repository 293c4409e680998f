package dxf

import (
	"math"
	"testing"

	"github.com/cadscope/dxf-indexer/internal/dxf/model"
)

func deriveBox(t *testing.T, payload model.Payload) (*model.BBox, *model.Diagnostics) {
	t.Helper()
	g := NewGeometryDeriver()
	diags := &model.Diagnostics{}
	ent := &model.Entity{Type: payload.EntityType(), Payload: payload}
	g.Derive(ent, diags)
	return ent.BBox, diags
}

func boxApproxEqual(a, b model.BBox) bool {
	const eps = 1e-9
	return math.Abs(a.MinX-b.MinX) < eps && math.Abs(a.MinY-b.MinY) < eps &&
		math.Abs(a.MaxX-b.MaxX) < eps && math.Abs(a.MaxY-b.MaxY) < eps
}

func TestDeriveLineBBox(t *testing.T) {
	box, diags := deriveBox(t, model.LinePayload{
		Start: model.Point{X: 10, Y: 0},
		End:   model.Point{X: 0, Y: 5},
	})
	if box == nil {
		t.Fatal("Expected a bounding box")
	}
	want := model.BBox{MinX: 0, MinY: 0, MaxX: 10, MaxY: 5}
	if *box != want {
		t.Errorf("Got %+v, want %+v", *box, want)
	}
	if len(diags.Records) != 0 {
		t.Errorf("Expected no diagnostics, got %v", diags.Records)
	}
}

func TestDeriveZeroLengthLine(t *testing.T) {
	box, diags := deriveBox(t, model.LinePayload{
		Start: model.Point{X: 1, Y: 1},
		End:   model.Point{X: 1, Y: 1},
	})
	if box != nil {
		t.Error("Expected no box for a zero-length line")
	}
	if diags.CountByCode(model.DiagDegenerateGeometry) != 1 {
		t.Error("Expected a degenerate_geometry diagnostic")
	}
}

func TestDeriveCircleBBox(t *testing.T) {
	box, _ := deriveBox(t, model.CirclePayload{
		Center: model.Point{X: 5, Y: 5},
		Radius: 2,
	})
	if box == nil {
		t.Fatal("Expected a bounding box")
	}
	want := model.BBox{MinX: 3, MinY: 3, MaxX: 7, MaxY: 7}
	if *box != want {
		t.Errorf("Got %+v, want %+v", *box, want)
	}
}

func TestDeriveZeroRadiusCircle(t *testing.T) {
	box, diags := deriveBox(t, model.CirclePayload{Center: model.Point{X: 1, Y: 1}})
	if box != nil {
		t.Error("Expected no box for a zero-radius circle")
	}
	if diags.CountByCode(model.DiagDegenerateGeometry) != 1 {
		t.Error("Expected a degenerate_geometry diagnostic")
	}
}

func TestDeriveArcBBoxQuarterSweep(t *testing.T) {
	// First quadrant sweep of the unit circle: endpoints (1,0) and (0,1),
	// only the 90° axis extreme falls inside.
	box, diags := deriveBox(t, model.ArcPayload{
		Center:     model.Point{X: 0, Y: 0},
		Radius:     1,
		StartAngle: 0,
		EndAngle:   90,
		HasAngles:  true,
	})
	if box == nil {
		t.Fatal("Expected a bounding box")
	}
	want := model.BBox{MinX: 0, MinY: 0, MaxX: 1, MaxY: 1}
	if !boxApproxEqual(*box, want) {
		t.Errorf("Got %+v, want %+v", *box, want)
	}
	if len(diags.Records) != 0 {
		t.Errorf("Expected no diagnostics, got %v", diags.Records)
	}
}

func TestDeriveArcBBoxWrappingSweep(t *testing.T) {
	// Sweep from 270° through 0° to 90°: the right half of the circle.
	box, _ := deriveBox(t, model.ArcPayload{
		Center:     model.Point{X: 0, Y: 0},
		Radius:     2,
		StartAngle: 270,
		EndAngle:   90,
		HasAngles:  true,
	})
	if box == nil {
		t.Fatal("Expected a bounding box")
	}
	want := model.BBox{MinX: 0, MinY: -2, MaxX: 2, MaxY: 2}
	if !boxApproxEqual(*box, want) {
		t.Errorf("Got %+v, want %+v", *box, want)
	}
}

func TestDeriveArcBBoxFullSweep(t *testing.T) {
	// Endpoints 360° apart cover the whole circle; the box must not collapse
	// onto the shared start/end point.
	for _, angles := range [][2]float64{{0, 360}, {90, 450}, {180, 180}} {
		box, diags := deriveBox(t, model.ArcPayload{
			Center:     model.Point{X: 5, Y: 5},
			Radius:     2,
			StartAngle: angles[0],
			EndAngle:   angles[1],
			HasAngles:  true,
		})
		if box == nil {
			t.Fatalf("Expected a bounding box for sweep %g to %g", angles[0], angles[1])
		}
		want := model.BBox{MinX: 3, MinY: 3, MaxX: 7, MaxY: 7}
		if !boxApproxEqual(*box, want) {
			t.Errorf("Sweep %g to %g: got %+v, want %+v", angles[0], angles[1], *box, want)
		}
		if len(diags.Records) != 0 {
			t.Errorf("Expected no diagnostics for a full sweep, got %v", diags.Records)
		}
	}
}

func TestDeriveArcWithoutAnglesFallsBack(t *testing.T) {
	box, diags := deriveBox(t, model.ArcPayload{
		Center: model.Point{X: 0, Y: 0},
		Radius: 1,
	})
	if box == nil {
		t.Fatal("Expected the full-circle fallback box")
	}
	want := model.BBox{MinX: -1, MinY: -1, MaxX: 1, MaxY: 1}
	if !boxApproxEqual(*box, want) {
		t.Errorf("Got %+v, want %+v", *box, want)
	}
	if diags.CountByCode(model.DiagBBoxFallback) != 1 {
		t.Error("Expected a bbox_fallback diagnostic")
	}
}

func TestDerivePolylineBBox(t *testing.T) {
	box, _ := deriveBox(t, model.PolylinePayload{
		Kind: model.EntityTypeLWPolyline,
		Points: []model.Point{
			{X: 0, Y: 0}, {X: 4, Y: 0}, {X: 4, Y: 3}, {X: -1, Y: 2},
		},
	})
	if box == nil {
		t.Fatal("Expected a bounding box")
	}
	want := model.BBox{MinX: -1, MinY: 0, MaxX: 4, MaxY: 3}
	if *box != want {
		t.Errorf("Got %+v, want %+v", *box, want)
	}
}

func TestDeriveEllipseBBox(t *testing.T) {
	// Axis-aligned ellipse: major axis along X with half-length 4, ratio 0.5.
	box, _ := deriveBox(t, model.EllipsePayload{
		Center:    model.Point{X: 10, Y: 10},
		MajorAxis: model.Point{X: 4, Y: 0},
		Ratio:     0.5,
	})
	if box == nil {
		t.Fatal("Expected a bounding box")
	}
	want := model.BBox{MinX: 6, MinY: 8, MaxX: 14, MaxY: 12}
	if !boxApproxEqual(*box, want) {
		t.Errorf("Got %+v, want %+v", *box, want)
	}
}

func TestDeriveRotatedEllipseBBox(t *testing.T) {
	// Major axis at 45°: the box must bound the rotated extent, not the
	// axis-aligned one.
	r := 2 * math.Sqrt2
	box, _ := deriveBox(t, model.EllipsePayload{
		Center:    model.Point{X: 0, Y: 0},
		MajorAxis: model.Point{X: r / math.Sqrt2, Y: r / math.Sqrt2},
		Ratio:     1, // circle written as a rotated ellipse
	})
	if box == nil {
		t.Fatal("Expected a bounding box")
	}
	want := model.BBox{MinX: -r, MinY: -r, MaxX: r, MaxY: r}
	if !boxApproxEqual(*box, want) {
		t.Errorf("Got %+v, want %+v", *box, want)
	}
}

func TestDerivePointBBox(t *testing.T) {
	box, _ := deriveBox(t, model.PointPayload{Location: model.Point{X: 3, Y: -1}})
	if box == nil {
		t.Fatal("Expected a bounding box")
	}
	want := model.BBox{MinX: 3, MinY: -1, MaxX: 3, MaxY: -1}
	if *box != want {
		t.Errorf("Got %+v, want %+v", *box, want)
	}
}

func TestDeriveTextHasNoBBox(t *testing.T) {
	box, diags := deriveBox(t, model.TextPayload{Kind: model.EntityTypeText, Text: "NOTE"})
	if box != nil {
		t.Error("Expected no box for text")
	}
	if len(diags.Records) != 0 {
		t.Errorf("Expected no diagnostics for unboxed text, got %v", diags.Records)
	}
}

func TestDeriveNilPayload(t *testing.T) {
	g := NewGeometryDeriver()
	diags := &model.Diagnostics{}
	ent := &model.Entity{Type: model.EntityTypeLine}
	g.Derive(ent, diags)
	if ent.BBox != nil {
		t.Error("Expected no box for a nil payload")
	}
}

func TestAngleInSweep(t *testing.T) {
	cases := []struct {
		angle, start, end float64
		want              bool
	}{
		{45, 0, 90, true},
		{180, 0, 90, false},
		{0, 270, 90, true},
		{180, 270, 90, false},
		{350, 270, 90, true},
		{-90, 180, 360, true}, // normalized to 270
	}
	for _, tc := range cases {
		if got := angleInSweep(tc.angle, tc.start, tc.end); got != tc.want {
			t.Errorf("angleInSweep(%g, %g, %g): got %v, want %v",
				tc.angle, tc.start, tc.end, got, tc.want)
		}
	}
}
