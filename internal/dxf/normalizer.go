// Package dxf implements the drawing analysis pipeline: normalization of raw
// DXF entities into the canonical model, bounding box derivation, per-drawing
// aggregation, and the file-level service that ties the stages together.
package dxf

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/cadscope/dxf-indexer/internal/dxf/model"
	"github.com/cadscope/dxf-indexer/internal/dxf/parser"
)

// DXF group codes used by the normalizer. Points come in X/Y code pairs.
const (
	codeText       = 1
	codeName       = 2
	codeMTextChunk = 3
	codeLinetype   = 6
	codeX          = 10
	codeY          = 20
	codeX2         = 11
	codeY2         = 21
	codeScalar     = 40 // radius, text height, ellipse ratio
	codeXScale     = 41
	codeYScale     = 42
	codeAngle      = 50 // also INSERT rotation
	codeAngle2     = 51
	codeColor      = 62
	codeFlags      = 70
	codeLineweight = 370
)

const closedFlag = 1 // bit 1 of group 70 marks a closed polyline

// Normalizer maps raw DXF entities onto the canonical entity model. The
// mapping is total: malformed attributes degrade to nil fields with a
// diagnostic, and unsupported kinds are reported rather than raised.
type Normalizer struct{}

// NewNormalizer creates a Normalizer
func NewNormalizer() *Normalizer {
	return &Normalizer{}
}

// Normalize projects one raw entity into a canonical record. It returns
// false when the entity kind is not part of the supported enumeration; the
// drop is recorded in diags and the entity produces no record.
func (n *Normalizer) Normalize(raw *parser.RawEntity, diags *model.Diagnostics) (*model.Entity, bool) {
	typ := model.EntityType(raw.Kind)
	if !typ.IsValid() {
		diags.Add(model.DiagUnsupportedEntity, fmt.Sprintf("entity kind %q has no normalization rule", raw.Kind))
		return nil, false
	}

	ent := &model.Entity{
		Handle: raw.Handle(),
		Type:   typ,
		Layer:  raw.Layer(),
	}
	if c, ok := raw.Int(codeColor); ok {
		ent.Color = &c
	}
	if lt, ok := raw.Str(codeLinetype); ok {
		ent.Linetype = lt
	}
	if lw, ok := raw.Int(codeLineweight); ok {
		ent.Lineweight = &lw
	}

	ent.Payload = n.payloadFor(typ, raw, ent.Handle, diags)
	return ent, true
}

func (n *Normalizer) payloadFor(typ model.EntityType, raw *parser.RawEntity, handle string, diags *model.Diagnostics) model.Payload {
	switch typ {
	case model.EntityTypeLine:
		return n.linePayload(raw, handle, diags)
	case model.EntityTypeCircle:
		return n.circlePayload(raw, handle, diags)
	case model.EntityTypeArc:
		return n.arcPayload(raw, handle, diags)
	case model.EntityTypeLWPolyline:
		return n.lwPolylinePayload(raw, handle, diags)
	case model.EntityTypePolyline:
		return n.polylinePayload(raw, handle, diags)
	case model.EntityTypeSpline:
		return n.splinePayload(raw, handle, diags)
	case model.EntityTypeEllipse:
		return n.ellipsePayload(raw, handle, diags)
	case model.EntityTypePoint:
		return n.pointPayload(raw, handle, diags)
	case model.EntityTypeText, model.EntityTypeMText:
		return n.textPayload(typ, raw)
	case model.EntityTypeInsert:
		return n.insertPayload(raw, handle, diags)
	case model.EntityTypeDimension:
		return n.dimensionPayload(raw, handle, diags)
	case model.EntityTypeHatch:
		return n.hatchPayload(raw)
	default:
		return nil
	}
}

func (n *Normalizer) linePayload(raw *parser.RawEntity, handle string, diags *model.Diagnostics) model.Payload {
	start, okS := pointAt(raw, codeX, codeY)
	end, okE := pointAt(raw, codeX2, codeY2)
	if !okS || !okE {
		diags.AddEntity(handle, model.DiagMissingAttribute, "LINE without both endpoints")
		return nil
	}
	return model.LinePayload{Start: start, End: end}
}

func (n *Normalizer) circlePayload(raw *parser.RawEntity, handle string, diags *model.Diagnostics) model.Payload {
	center, okC := pointAt(raw, codeX, codeY)
	radius, okR := raw.Float(codeScalar)
	if !okC || !okR {
		diags.AddEntity(handle, model.DiagMissingAttribute, "CIRCLE without center or radius")
		return nil
	}
	if radius < 0 {
		diags.AddEntity(handle, model.DiagDegenerateGeometry, fmt.Sprintf("CIRCLE with negative radius %g", radius))
		return nil
	}
	return model.CirclePayload{Center: center, Radius: radius}
}

func (n *Normalizer) arcPayload(raw *parser.RawEntity, handle string, diags *model.Diagnostics) model.Payload {
	center, okC := pointAt(raw, codeX, codeY)
	radius, okR := raw.Float(codeScalar)
	if !okC || !okR {
		diags.AddEntity(handle, model.DiagMissingAttribute, "ARC without center or radius")
		return nil
	}
	if radius < 0 {
		diags.AddEntity(handle, model.DiagDegenerateGeometry, fmt.Sprintf("ARC with negative radius %g", radius))
		return nil
	}
	p := model.ArcPayload{Center: center, Radius: radius}
	start, okS := raw.Float(codeAngle)
	end, okE := raw.Float(codeAngle2)
	if okS && okE {
		p.StartAngle = start
		p.EndAngle = end
		p.HasAngles = true
	} else {
		diags.AddEntity(handle, model.DiagMissingAttribute, "ARC without angular range")
	}
	return p
}

func (n *Normalizer) lwPolylinePayload(raw *parser.RawEntity, handle string, diags *model.Diagnostics) model.Payload {
	points := zipPoints(raw.FloatAll(codeX), raw.FloatAll(codeY))
	flags, _ := raw.Int(codeFlags)
	return n.finishPolyline(model.EntityTypeLWPolyline, points, flags&closedFlag != 0, handle, diags)
}

func (n *Normalizer) polylinePayload(raw *parser.RawEntity, handle string, diags *model.Diagnostics) model.Payload {
	var points []model.Point
	for i := range raw.Children {
		child := &raw.Children[i]
		if child.Kind != "VERTEX" {
			continue
		}
		if p, ok := pointAt(child, codeX, codeY); ok {
			points = append(points, p)
		}
	}
	flags, _ := raw.Int(codeFlags)
	return n.finishPolyline(model.EntityTypePolyline, points, flags&closedFlag != 0, handle, diags)
}

func (n *Normalizer) finishPolyline(kind model.EntityType, points []model.Point, closed bool, handle string, diags *model.Diagnostics) model.Payload {
	if len(points) == 0 {
		diags.AddEntity(handle, model.DiagMissingAttribute, string(kind)+" without vertices")
		return nil
	}
	// A closed ring needs at least three vertices; anything shorter keeps its
	// points but loses the closed flag.
	if closed && len(points) < 3 {
		diags.AddEntity(handle, model.DiagDegenerateGeometry,
			fmt.Sprintf("closed %s with only %d vertices", kind, len(points)))
		closed = false
	}
	return model.PolylinePayload{Kind: kind, Points: points, Closed: closed}
}

func (n *Normalizer) splinePayload(raw *parser.RawEntity, handle string, diags *model.Diagnostics) model.Payload {
	fit := zipPoints(raw.FloatAll(codeX2), raw.FloatAll(codeY2))
	if len(fit) > 0 {
		return model.SplinePayload{Points: fit, FromFitPoints: true}
	}
	control := zipPoints(raw.FloatAll(codeX), raw.FloatAll(codeY))
	if len(control) > 0 {
		return model.SplinePayload{Points: control}
	}
	diags.AddEntity(handle, model.DiagMissingAttribute, "SPLINE without fit or control points")
	return nil
}

func (n *Normalizer) ellipsePayload(raw *parser.RawEntity, handle string, diags *model.Diagnostics) model.Payload {
	center, okC := pointAt(raw, codeX, codeY)
	major, okM := pointAt(raw, codeX2, codeY2)
	ratio, okR := raw.Float(codeScalar)
	if !okC || !okM || !okR {
		diags.AddEntity(handle, model.DiagMissingAttribute, "ELLIPSE without center, major axis, or ratio")
		return nil
	}
	return model.EllipsePayload{Center: center, MajorAxis: major, Ratio: ratio}
}

func (n *Normalizer) pointPayload(raw *parser.RawEntity, handle string, diags *model.Diagnostics) model.Payload {
	loc, ok := pointAt(raw, codeX, codeY)
	if !ok {
		diags.AddEntity(handle, model.DiagMissingAttribute, "POINT without location")
		return nil
	}
	return model.PointPayload{Location: loc}
}

func (n *Normalizer) textPayload(typ model.EntityType, raw *parser.RawEntity) model.Payload {
	var text string
	if typ == model.EntityTypeMText {
		// MTEXT content spans continuation chunks (code 3) followed by the
		// final chunk in code 1, all with inline formatting codes.
		var sb strings.Builder
		for _, chunk := range raw.StrAll(codeMTextChunk) {
			sb.WriteString(chunk)
		}
		if last, ok := raw.Str(codeText); ok {
			sb.WriteString(last)
		}
		text = StripMTextCodes(sb.String())
	} else {
		text, _ = raw.Str(codeText)
	}

	p := model.TextPayload{Kind: typ, Text: strings.TrimSpace(text)}
	if pos, ok := pointAt(raw, codeX, codeY); ok {
		p.Position = &pos
	}
	if h, ok := raw.Float(codeScalar); ok {
		p.Height = &h
	}
	return p
}

func (n *Normalizer) insertPayload(raw *parser.RawEntity, handle string, diags *model.Diagnostics) model.Payload {
	name, ok := raw.Str(codeName)
	if !ok {
		diags.AddEntity(handle, model.DiagMissingAttribute, "INSERT without block name")
		return nil
	}
	p := model.InsertPayload{Name: name, XScale: 1, YScale: 1}
	if pos, ok := pointAt(raw, codeX, codeY); ok {
		p.Insert = &pos
	}
	if xs, ok := raw.Float(codeXScale); ok {
		p.XScale = xs
	}
	if ys, ok := raw.Float(codeYScale); ok {
		p.YScale = ys
	}
	if rot, ok := raw.Float(codeAngle); ok {
		p.Rotation = rot
	}
	for i := range raw.Children {
		child := &raw.Children[i]
		if child.Kind != "ATTRIB" {
			continue
		}
		value, ok := child.Str(codeText)
		if !ok || strings.TrimSpace(value) == "" {
			continue
		}
		tag, _ := child.Str(codeName)
		p.Attributes = append(p.Attributes, model.InsertAttribute{Tag: tag, Value: strings.TrimSpace(value)})
	}
	return p
}

func (n *Normalizer) dimensionPayload(raw *parser.RawEntity, handle string, diags *model.Diagnostics) model.Payload {
	p := model.DimensionPayload{}
	if text, ok := raw.Str(codeText); ok {
		p.Text = strings.TrimSpace(text)
	}
	if dp, ok := pointAt(raw, codeX, codeY); ok {
		p.DefPoint = &dp
	}
	if m, ok := raw.Float(codeYScale); ok { // group 42 carries the actual measurement
		p.Measurement = &m
	} else if m, ok := model.ParseMeasurement(p.Text); ok {
		p.Measurement = &m
	} else {
		diags.AddEntity(handle, model.DiagUnparsableValue, "DIMENSION without a resolvable measurement")
	}
	return p
}

func (n *Normalizer) hatchPayload(raw *parser.RawEntity) model.Payload {
	p := model.HatchPayload{}
	if name, ok := raw.Str(codeName); ok {
		p.PatternName = name
	}
	if flags, ok := raw.Int(codeFlags); ok && flags&1 != 0 {
		p.SolidFill = true
	}
	return p
}

func pointAt(raw *parser.RawEntity, xCode, yCode int) (model.Point, bool) {
	x, okX := raw.Float(xCode)
	y, okY := raw.Float(yCode)
	if !okX || !okY {
		return model.Point{}, false
	}
	return model.Point{X: x, Y: y}, true
}

func zipPoints(xs, ys []float64) []model.Point {
	count := len(xs)
	if len(ys) < count {
		count = len(ys)
	}
	points := make([]model.Point, 0, count)
	for i := 0; i < count; i++ {
		points = append(points, model.Point{X: xs[i], Y: ys[i]})
	}
	return points
}

var (
	mtextFontRun = regexp.MustCompile(`\\[fF][^;]*;`)
	mtextInline  = regexp.MustCompile(`\\[HhWwQqAaCcTt][0-9.]*x?;?`)
)

// StripMTextCodes removes MTEXT inline formatting: paragraph breaks become
// newlines, grouping braces and font/height runs are dropped, and escaped
// characters are unescaped.
func StripMTextCodes(s string) string {
	s = strings.ReplaceAll(s, `\P`, "\n")
	s = mtextFontRun.ReplaceAllString(s, "")
	s = mtextInline.ReplaceAllString(s, "")

	// Unescaped braces delimit formatting runs and carry no text; a
	// backslash escapes the character after it.
	var sb strings.Builder
	sb.Grow(len(s))
	escaped := false
	for _, r := range s {
		if escaped {
			sb.WriteRune(r)
			escaped = false
			continue
		}
		switch r {
		case '\\':
			escaped = true
		case '{', '}':
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
