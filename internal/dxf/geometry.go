package dxf

import (
	"fmt"
	"math"

	"github.com/cadscope/dxf-indexer/internal/dxf/model"
)

// GeometryDeriver attaches bounding boxes to normalized entities. A box is
// only computed when the payload geometry supports it; text and block
// references stay unboxed because their extents depend on font metrics this
// layer does not have.
type GeometryDeriver struct{}

// NewGeometryDeriver creates a GeometryDeriver
func NewGeometryDeriver() *GeometryDeriver {
	return &GeometryDeriver{}
}

// Derive computes and attaches the bounding box for one entity. Degenerate
// geometry leaves the box nil and records a diagnostic; it never fails.
func (g *GeometryDeriver) Derive(ent *model.Entity, diags *model.Diagnostics) {
	if ent.Payload == nil {
		return
	}

	switch p := ent.Payload.(type) {
	case model.LinePayload:
		ent.BBox = g.lineBBox(p, ent.Handle, diags)
	case model.CirclePayload:
		ent.BBox = g.circleBBox(p.Center, p.Radius, ent.Handle, diags)
	case model.ArcPayload:
		ent.BBox = g.arcBBox(p, ent.Handle, diags)
	case model.PolylinePayload:
		ent.BBox = g.pointsBBox(p.Points, string(p.Kind), ent.Handle, diags)
	case model.SplinePayload:
		ent.BBox = g.pointsBBox(p.Points, "SPLINE", ent.Handle, diags)
	case model.EllipsePayload:
		ent.BBox = g.ellipseBBox(p)
	case model.PointPayload:
		ent.BBox = &model.BBox{MinX: p.Location.X, MinY: p.Location.Y, MaxX: p.Location.X, MaxY: p.Location.Y}
	default:
		// TEXT, MTEXT, INSERT, DIMENSION, HATCH carry no derivable extent.
	}
}

func (g *GeometryDeriver) lineBBox(p model.LinePayload, handle string, diags *model.Diagnostics) *model.BBox {
	if p.Start == p.End {
		diags.AddEntity(handle, model.DiagDegenerateGeometry, "zero-length LINE")
		return nil
	}
	return &model.BBox{
		MinX: math.Min(p.Start.X, p.End.X),
		MinY: math.Min(p.Start.Y, p.End.Y),
		MaxX: math.Max(p.Start.X, p.End.X),
		MaxY: math.Max(p.Start.Y, p.End.Y),
	}
}

func (g *GeometryDeriver) circleBBox(center model.Point, radius float64, handle string, diags *model.Diagnostics) *model.BBox {
	if radius <= 0 {
		diags.AddEntity(handle, model.DiagDegenerateGeometry, fmt.Sprintf("radius %g yields no extent", radius))
		return nil
	}
	return &model.BBox{
		MinX: center.X - radius,
		MinY: center.Y - radius,
		MaxX: center.X + radius,
		MaxY: center.Y + radius,
	}
}

// arcBBox bounds the swept range only: the arc endpoints plus whichever of
// the circle's four extremal points fall inside the sweep. Without angle
// data the full-circle box is used and flagged as an over-approximation.
func (g *GeometryDeriver) arcBBox(p model.ArcPayload, handle string, diags *model.Diagnostics) *model.BBox {
	if p.Radius <= 0 {
		diags.AddEntity(handle, model.DiagDegenerateGeometry, fmt.Sprintf("radius %g yields no extent", p.Radius))
		return nil
	}
	if !p.HasAngles {
		diags.AddEntity(handle, model.DiagBBoxFallback, "ARC angles unknown, using full-circle bounding box")
		return g.circleBBox(p.Center, p.Radius, handle, diags)
	}
	// Endpoints that coincide after normalization sweep the whole circle;
	// the extremal-angle walk below would otherwise admit only the start.
	if normalizeDeg(p.StartAngle) == normalizeDeg(p.EndAngle) {
		return g.circleBBox(p.Center, p.Radius, handle, diags)
	}

	angles := []float64{p.StartAngle, p.EndAngle}
	for _, axis := range []float64{0, 90, 180, 270} {
		if angleInSweep(axis, p.StartAngle, p.EndAngle) {
			angles = append(angles, axis)
		}
	}

	box := model.BBox{MinX: math.Inf(1), MinY: math.Inf(1), MaxX: math.Inf(-1), MaxY: math.Inf(-1)}
	for _, deg := range angles {
		rad := deg * math.Pi / 180
		x := p.Center.X + p.Radius*math.Cos(rad)
		y := p.Center.Y + p.Radius*math.Sin(rad)
		box = box.Union(model.BBox{MinX: x, MinY: y, MaxX: x, MaxY: y})
	}
	return &box
}

// angleInSweep reports whether angle lies on the counterclockwise sweep from
// start to end. All angles are degrees and normalized to [0, 360).
func angleInSweep(angle, start, end float64) bool {
	angle = normalizeDeg(angle)
	start = normalizeDeg(start)
	end = normalizeDeg(end)
	if start <= end {
		return angle >= start && angle <= end
	}
	return angle >= start || angle <= end
}

func normalizeDeg(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return deg
}

func (g *GeometryDeriver) pointsBBox(points []model.Point, kind, handle string, diags *model.Diagnostics) *model.BBox {
	if len(points) == 0 {
		diags.AddEntity(handle, model.DiagDegenerateGeometry, kind+" with no points")
		return nil
	}
	box := model.BBox{MinX: points[0].X, MinY: points[0].Y, MaxX: points[0].X, MaxY: points[0].Y}
	for _, p := range points[1:] {
		box = box.Union(model.BBox{MinX: p.X, MinY: p.Y, MaxX: p.X, MaxY: p.Y})
	}
	return &box
}

// ellipseBBox bounds the rotated ellipse exactly from its axis vectors
func (g *GeometryDeriver) ellipseBBox(p model.EllipsePayload) *model.BBox {
	ax, ay := p.MajorAxis.X, p.MajorAxis.Y
	// Minor axis is the major axis rotated 90° and scaled by the ratio.
	bx, by := -ay*p.Ratio, ax*p.Ratio
	halfW := math.Hypot(ax, bx)
	halfH := math.Hypot(ay, by)
	return &model.BBox{
		MinX: p.Center.X - halfW,
		MinY: p.Center.Y - halfH,
		MaxX: p.Center.X + halfW,
		MaxY: p.Center.Y + halfH,
	}
}
