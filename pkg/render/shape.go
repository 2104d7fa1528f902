package render

import (
	"image/color"

	"github.com/gogpu/gg"

	"github.com/ha1tch/dfaviz/pkg/geometry"
	"github.com/ha1tch/dfaviz/pkg/raster"
)

// Shape is a drawable element owned by a Renderer.
type Shape interface {
	// Common returns the state shared by every shape kind.
	Common() *Base
	// Draw paints the shape into the renderer's visible and hit surfaces.
	Draw(r *Renderer)
	// Contains reports whether p, in model coordinates, is inside the shape.
	Contains(p geometry.Point) bool
	// Bounds returns the model-space extent of the shape.
	Bounds() (geometry.Rectangle, bool)
}

// Style holds the paint and interaction attributes of a shape. Colors use
// the forms accepted by raster.ParseColor; an empty color paints nothing.
type Style struct {
	Fill          string
	Stroke        string
	StrokeWidth   float64
	ZIndex        int
	Font          float64 // text size, 10 when zero
	TextAlign     string
	TextBaseline  string
	Background    string
	Cursor        string
	PointerEvents string // "none" keeps the shape out of the hit buffer
}

// LocalTransform is applied around a shape's anchor before its geometry.
type LocalTransform struct {
	Scale     float64 // 1 when zero
	Rotation  float64
	Translate geometry.Point
}

// Base is embedded by every shape.
type Base struct {
	id  ID
	seq uint64

	Style     Style
	Transform *LocalTransform

	OnClick       Handler
	OnPointerDown Handler
	OnPointerUp   Handler
	OnPointerMove Handler
	OnDoubleClick Handler
	OnWheel       Handler
}

func newBase(style Style) Base {
	return Base{id: NextID(), Style: style}
}

// Common implements Shape.
func (b *Base) Common() *Base { return b }

// ID returns the shape id, NoID until the shape is created or added.
func (b *Base) ID() ID { return b.id }

// Interactive reports whether the shape takes part in hit testing.
func (b *Base) Interactive() bool { return b.Style.PointerEvents != "none" }

func (b *Base) handler(t EventType) Handler {
	switch t {
	case EventClick:
		return b.OnClick
	case EventPointerDown:
		return b.OnPointerDown
	case EventPointerUp:
		return b.OnPointerUp
	case EventPointerMove:
		return b.OnPointerMove
	case EventDoubleClick:
		return b.OnDoubleClick
	case EventWheel:
		return b.OnWheel
	}
	return nil
}

// localMatrix maps shape coordinates to model coordinates.
func (b *Base) localMatrix(anchor geometry.Point) geometry.Matrix {
	t := b.Transform
	if t == nil {
		return geometry.Identity()
	}
	s := t.Scale
	if s == 0 {
		s = 1
	}
	return geometry.TranslateMatrix(anchor.X+t.Translate.X, anchor.Y+t.Translate.Y).
		Mul(geometry.ScaleMatrix(s, s)).
		Mul(geometry.RotateMatrix(t.Rotation)).
		Mul(geometry.TranslateMatrix(-anchor.X, -anchor.Y))
}

// toLocal maps a model point back into shape coordinates.
func (b *Base) toLocal(p, anchor geometry.Point) (geometry.Point, bool) {
	if b.Transform == nil {
		return p, true
	}
	inv, ok := b.localMatrix(anchor).Invert()
	if !ok {
		return geometry.Point{}, false
	}
	return inv.Apply(p), true
}

// strokePad is half the stroke width when a stroke is painted.
func (b *Base) strokePad() float64 {
	if _, ok := raster.ParseColor(b.Style.Stroke); !ok {
		return 0
	}
	return b.strokeWidth() / 2
}

func (b *Base) strokeWidth() float64 {
	if b.Style.StrokeWidth <= 0 {
		return 1
	}
	return b.Style.StrokeWidth
}

// paintPath fills and strokes p on the visible surface and paints the
// same silhouette in the shape's key color on the hit surface.
func (r *Renderer) paintPath(b *Base, anchor geometry.Point, p *gg.Path) {
	m := b.localMatrix(anchor)
	fill, hasFill := raster.ParseColor(b.Style.Fill)
	stroke, hasStroke := raster.ParseColor(b.Style.Stroke)

	paint := func(c *raster.Context, f, s color.RGBA) {
		c.Save()
		defer c.Restore()
		c.Transform(m)
		if hasFill {
			c.SetFillColor(f)
			c.FillPath(p)
		}
		if hasStroke {
			c.SetStrokeColor(s)
			c.SetLineWidth(b.strokeWidth())
			c.StrokePath(p)
		}
	}

	paint(r.ctx, fill, stroke)
	if b.Interactive() {
		key := IDToColor(b.id)
		paint(r.hit, key, key)
	}
}
