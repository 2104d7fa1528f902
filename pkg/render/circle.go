package render

import (
	"github.com/gogpu/gg"

	"github.com/ha1tch/dfaviz/pkg/geometry"
)

// Circle is anchored at its center.
type Circle struct {
	Base
	X, Y float64
	R    float64
}

// NewCircle returns a circle with a fresh id.
func NewCircle(x, y, r float64, style Style) *Circle {
	return &Circle{Base: newBase(style), X: x, Y: y, R: r}
}

func (s *Circle) center() geometry.Point { return geometry.Point{X: s.X, Y: s.Y} }

// Draw implements Shape.
func (s *Circle) Draw(r *Renderer) {
	p := gg.NewPath()
	p.Circle(s.X, s.Y, s.R)
	r.paintPath(&s.Base, s.center(), p)
}

// Contains implements Shape.
func (s *Circle) Contains(p geometry.Point) bool {
	l, ok := s.toLocal(p, s.center())
	return ok && geometry.Distance(l, s.center()) <= s.R
}

// Bounds implements Shape.
func (s *Circle) Bounds() (geometry.Rectangle, bool) {
	b := geometry.Rectangle{X: s.X - s.R, Y: s.Y - s.R, Width: 2 * s.R, Height: 2 * s.R}
	return s.localMatrix(s.center()).ApplyRect(b.Inset(s.strokePad())), true
}
