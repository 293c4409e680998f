// Package model defines the canonical entity and summary records produced by
// the DXF analysis pipeline. Entities are a closed tagged union: every entity
// carries the shared header fields plus exactly one type-specific payload.
package model

// EntityType identifies the kind of a canonical entity record
type EntityType string

const (
	EntityTypeLine       EntityType = "LINE"
	EntityTypeCircle     EntityType = "CIRCLE"
	EntityTypeArc        EntityType = "ARC"
	EntityTypeLWPolyline EntityType = "LWPOLYLINE"
	EntityTypePolyline   EntityType = "POLYLINE"
	EntityTypeSpline     EntityType = "SPLINE"
	EntityTypeEllipse    EntityType = "ELLIPSE"
	EntityTypePoint      EntityType = "POINT"
	EntityTypeText       EntityType = "TEXT"
	EntityTypeMText      EntityType = "MTEXT"
	EntityTypeInsert     EntityType = "INSERT"
	EntityTypeDimension  EntityType = "DIMENSION"
	EntityTypeHatch      EntityType = "HATCH"
)

// AllEntityTypes returns the fixed enumeration of supported entity types
func AllEntityTypes() []EntityType {
	return []EntityType{
		EntityTypeLine,
		EntityTypeCircle,
		EntityTypeArc,
		EntityTypeLWPolyline,
		EntityTypePolyline,
		EntityTypeSpline,
		EntityTypeEllipse,
		EntityTypePoint,
		EntityTypeText,
		EntityTypeMText,
		EntityTypeInsert,
		EntityTypeDimension,
		EntityTypeHatch,
	}
}

// IsValid checks if the entity type belongs to the fixed enumeration
func (t EntityType) IsValid() bool {
	switch t {
	case EntityTypeLine, EntityTypeCircle, EntityTypeArc, EntityTypeLWPolyline,
		EntityTypePolyline, EntityTypeSpline, EntityTypeEllipse, EntityTypePoint,
		EntityTypeText, EntityTypeMText, EntityTypeInsert, EntityTypeDimension,
		EntityTypeHatch:
		return true
	default:
		return false
	}
}

// Point is a 2D coordinate pair
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// BBox is an axis-aligned bounding rectangle [minx, miny, maxx, maxy]
type BBox struct {
	MinX float64 `json:"min_x"`
	MinY float64 `json:"min_y"`
	MaxX float64 `json:"max_x"`
	MaxY float64 `json:"max_y"`
}

// Valid reports whether the box satisfies min <= max on both axes
func (b BBox) Valid() bool {
	return b.MinX <= b.MaxX && b.MinY <= b.MaxY
}

// Union returns the smallest box enclosing both b and other
func (b BBox) Union(other BBox) BBox {
	out := b
	if other.MinX < out.MinX {
		out.MinX = other.MinX
	}
	if other.MinY < out.MinY {
		out.MinY = other.MinY
	}
	if other.MaxX > out.MaxX {
		out.MaxX = other.MaxX
	}
	if other.MaxY > out.MaxY {
		out.MaxY = other.MaxY
	}
	return out
}

// Payload is the type-specific portion of an entity record. Exactly one
// payload implementation exists per entity type, so "field X is only valid
// for type Y" is enforced by the type system rather than by convention.
type Payload interface {
	EntityType() EntityType
}

// LinePayload carries the two endpoints of a LINE
type LinePayload struct {
	Start Point `json:"start"`
	End   Point `json:"end"`
}

func (LinePayload) EntityType() EntityType { return EntityTypeLine }

// CirclePayload carries the center and radius of a CIRCLE
type CirclePayload struct {
	Center Point   `json:"center"`
	Radius float64 `json:"radius"`
}

func (CirclePayload) EntityType() EntityType { return EntityTypeCircle }

// ArcPayload carries a circular arc. Angles are in degrees, counterclockwise
// from the positive X axis. HasAngles is false when the source entity did not
// carry a usable angular range; bounding box derivation then falls back to
// the full-circle box and flags the over-approximation.
type ArcPayload struct {
	Center     Point   `json:"center"`
	Radius     float64 `json:"radius"`
	StartAngle float64 `json:"start_angle"`
	EndAngle   float64 `json:"end_angle"`
	HasAngles  bool    `json:"has_angles"`
}

func (ArcPayload) EntityType() EntityType { return EntityTypeArc }

// PolylinePayload carries the vertex list of LWPOLYLINE and POLYLINE
// entities. Closed covers both the explicit closed flag and an implicit
// first-equals-last vertex ring.
type PolylinePayload struct {
	Kind   EntityType `json:"-"`
	Points []Point    `json:"points"`
	Closed bool       `json:"is_closed"`
}

func (p PolylinePayload) EntityType() EntityType { return p.Kind }

// SplinePayload carries fit points when the source provided them, otherwise
// control points. FromFitPoints records which variant was available.
type SplinePayload struct {
	Points        []Point `json:"points"`
	FromFitPoints bool    `json:"from_fit_points"`
}

func (SplinePayload) EntityType() EntityType { return EntityTypeSpline }

// EllipsePayload carries the center, major axis endpoint (relative to the
// center) and minor/major ratio of an ELLIPSE
type EllipsePayload struct {
	Center    Point   `json:"center"`
	MajorAxis Point   `json:"major_axis"`
	Ratio     float64 `json:"ratio"`
}

func (EllipsePayload) EntityType() EntityType { return EntityTypeEllipse }

// PointPayload carries the location of a POINT entity
type PointPayload struct {
	Location Point `json:"location"`
}

func (PointPayload) EntityType() EntityType { return EntityTypePoint }

// TextPayload carries normalized text for TEXT and MTEXT entities. For MTEXT
// the inline formatting codes are stripped before storage. Height is the
// nominal text height when the source carried one.
type TextPayload struct {
	Kind     EntityType `json:"-"`
	Text     string     `json:"text"`
	Position *Point     `json:"position,omitempty"`
	Height   *float64   `json:"height,omitempty"`
}

func (p TextPayload) EntityType() EntityType { return p.Kind }

// InsertAttribute is one resolved attribute of a block reference
type InsertAttribute struct {
	Tag   string `json:"tag,omitempty"`
	Value string `json:"value"`
}

// InsertPayload carries a block reference with its placement and any
// attribute text attached to it
type InsertPayload struct {
	Name       string            `json:"name"`
	Insert     *Point            `json:"insert,omitempty"`
	XScale     float64           `json:"xscale"`
	YScale     float64           `json:"yscale"`
	Rotation   float64           `json:"rotation"`
	Attributes []InsertAttribute `json:"attributes,omitempty"`
}

func (InsertPayload) EntityType() EntityType { return EntityTypeInsert }

// DimensionPayload carries a dimension entity. Measurement is nil when
// neither the measurement attribute nor the override text yields a number.
type DimensionPayload struct {
	Measurement *float64 `json:"measurement,omitempty"`
	Text        string   `json:"text,omitempty"`
	DefPoint    *Point   `json:"defpoint,omitempty"`
}

func (DimensionPayload) EntityType() EntityType { return EntityTypeDimension }

// HatchPayload carries the fill style of a HATCH entity
type HatchPayload struct {
	SolidFill   bool   `json:"solid_fill"`
	PatternName string `json:"pattern_name,omitempty"`
}

func (HatchPayload) EntityType() EntityType { return EntityTypeHatch }

// Entity is one canonical drawing primitive. Header fields are shared by all
// types; Payload holds the type-specific projection and is nil when the
// essential geometry attributes could not be read (the entity still counts
// toward the drawing totals). BBox is nil when no box could be derived.
type Entity struct {
	Handle     string     `json:"handle,omitempty"`
	Type       EntityType `json:"type"`
	Layer      string     `json:"layer,omitempty"`
	Color      *int       `json:"color,omitempty"`
	Linetype   string     `json:"linetype,omitempty"`
	Lineweight *int       `json:"lineweight,omitempty"`
	BBox       *BBox      `json:"bbox,omitempty"`
	Payload    Payload    `json:"payload,omitempty"`
}
