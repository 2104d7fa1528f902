package render

import (
	"github.com/gogpu/gg"

	"github.com/ha1tch/dfaviz/pkg/geometry"
)

// Rect is an axis-aligned rectangle anchored at its top-left corner.
type Rect struct {
	Base
	X, Y          float64
	Width, Height float64
}

// NewRect returns a rectangle with a fresh id.
func NewRect(x, y, w, h float64, style Style) *Rect {
	return &Rect{Base: newBase(style), X: x, Y: y, Width: w, Height: h}
}

func (s *Rect) anchor() geometry.Point { return geometry.Point{X: s.X, Y: s.Y} }

func (s *Rect) rect() geometry.Rectangle {
	return geometry.Rectangle{X: s.X, Y: s.Y, Width: s.Width, Height: s.Height}
}

// Draw implements Shape.
func (s *Rect) Draw(r *Renderer) {
	p := gg.NewPath()
	p.Rectangle(s.X, s.Y, s.Width, s.Height)
	r.paintPath(&s.Base, s.anchor(), p)
}

// Contains implements Shape.
func (s *Rect) Contains(p geometry.Point) bool {
	l, ok := s.toLocal(p, s.anchor())
	return ok && s.rect().Contains(l)
}

// Bounds implements Shape.
func (s *Rect) Bounds() (geometry.Rectangle, bool) {
	b := s.rect().Inset(s.strokePad())
	return s.localMatrix(s.anchor()).ApplyRect(b), true
}
