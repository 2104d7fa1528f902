package render

import (
	"image/color"
	"sync"

	"github.com/ha1tch/dfaviz/pkg/geometry"
	"github.com/ha1tch/dfaviz/pkg/raster"
)

// TextPad is the margin around the glyph extent of a Text shape.
const TextPad = 2

const defaultFontSize = 10

var (
	measureMu  sync.Mutex
	measureCtx = raster.NewContext(1, 1)
)

// Text is a single line of text anchored at (X, Y) according to its
// alignment and baseline.
type Text struct {
	Base
	X, Y    float64
	Content string
}

// NewText returns a text shape with a fresh id.
func NewText(x, y float64, content string, style Style) *Text {
	return &Text{Base: newBase(style), X: x, Y: y, Content: content}
}

func (s *Text) anchor() geometry.Point { return geometry.Point{X: s.X, Y: s.Y} }

func (s *Text) applyFont(c *raster.Context) {
	size := s.Style.Font
	if size <= 0 {
		size = defaultFontSize
	}
	c.SetFontSize(size)
	c.SetTextAlign(raster.ParseTextAlign(s.Style.TextAlign))
	c.SetTextBaseline(raster.ParseTextBaseline(s.Style.TextBaseline))
}

// Metrics measures the text with its current style.
func (s *Text) Metrics() raster.TextMetrics {
	measureMu.Lock()
	defer measureMu.Unlock()
	measureCtx.Save()
	defer measureCtx.Restore()
	s.applyFont(measureCtx)
	return measureCtx.MeasureText(s.Content)
}

// Box returns the padded glyph extent in shape coordinates. It is what the
// background paints and what hit testing uses.
func (s *Text) Box() geometry.Rectangle {
	return s.Metrics().Box(s.X, s.Y).Inset(TextPad)
}

// Draw implements Shape.
func (s *Text) Draw(r *Renderer) {
	m := s.localMatrix(s.anchor())
	box := s.Box()

	c := r.ctx
	c.Save()
	c.Transform(m)
	if bg, ok := raster.ParseColor(s.Style.Background); ok {
		c.SetFillColor(bg)
		c.FillRect(box.X, box.Y, box.Width, box.Height)
	}
	fill, ok := raster.ParseColor(s.Style.Fill)
	if !ok && s.Style.Fill == "" {
		fill, ok = color.RGBA{A: 0xff}, true
	}
	if ok {
		s.applyFont(c)
		c.SetFillColor(fill)
		c.FillText(s.Content, s.X, s.Y)
	}
	c.Restore()

	if !s.Interactive() {
		return
	}
	h := r.hit
	h.Save()
	h.Transform(m)
	h.SetFillColor(IDToColor(s.id))
	h.FillRect(box.X, box.Y, box.Width, box.Height)
	h.Restore()
}

// Contains implements Shape.
func (s *Text) Contains(p geometry.Point) bool {
	l, ok := s.toLocal(p, s.anchor())
	return ok && s.Box().Contains(l)
}

// Bounds implements Shape.
func (s *Text) Bounds() (geometry.Rectangle, bool) {
	return s.localMatrix(s.anchor()).ApplyRect(s.Box()), true
}
