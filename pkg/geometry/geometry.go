// Package geometry provides the plane math used by the diagram renderer
// and the edge layout: points, circles, rectangles, polar conversion and
// circle intersection.
//
// All angles are in radians and follow the atan2 convention. The y axis
// points down, so positive angles turn clockwise on screen.
package geometry

import (
	"errors"
	"math"
)

// ErrNoIntersection is returned when two circles do not meet in exactly
// two points (disjoint, nested, or coincident with equal radii).
var ErrNoIntersection = errors.New("geometry: circles do not intersect")

// Point represents a 2D coordinate.
type Point struct {
	X, Y float64
}

// Add returns p+q.
func (p Point) Add(q Point) Point { return Point{p.X + q.X, p.Y + q.Y} }

// Sub returns p-q.
func (p Point) Sub(q Point) Point { return Point{p.X - q.X, p.Y - q.Y} }

// Mul returns p scaled by k.
func (p Point) Mul(k float64) Point { return Point{p.X * k, p.Y * k} }

// PolarPoint is a point expressed as a radius and an angle around some
// center.
type PolarPoint struct {
	R, T float64
}

// Circle is a center and a radius.
type Circle struct {
	C Point
	R float64
}

// Rectangle is an axis-aligned box. Width and Height are never negative.
type Rectangle struct {
	X, Y, Width, Height float64
}

// Contains reports whether p lies inside r, edges included.
func (r Rectangle) Contains(p Point) bool {
	return p.X >= r.X && p.X <= r.X+r.Width &&
		p.Y >= r.Y && p.Y <= r.Y+r.Height
}

// Center returns the middle of r.
func (r Rectangle) Center() Point {
	return Point{r.X + r.Width/2, r.Y + r.Height/2}
}

// IsEmpty reports whether r has no area.
func (r Rectangle) IsEmpty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Inset grows r by d on every side (shrinks it when d is negative).
func (r Rectangle) Inset(d float64) Rectangle {
	out := Rectangle{r.X - d, r.Y - d, r.Width + 2*d, r.Height + 2*d}
	if out.Width < 0 {
		out.Width = 0
	}
	if out.Height < 0 {
		out.Height = 0
	}
	return out
}

// MergeRectangle returns the smallest rectangle containing both a and b.
func MergeRectangle(a, b Rectangle) Rectangle {
	x0 := math.Min(a.X, b.X)
	y0 := math.Min(a.Y, b.Y)
	x1 := math.Max(a.X+a.Width, b.X+b.Width)
	y1 := math.Max(a.Y+a.Height, b.Y+b.Height)
	return Rectangle{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}

// Distance returns the Euclidean distance between p1 and p2.
func Distance(p1, p2 Point) float64 {
	return math.Hypot(p2.X-p1.X, p2.Y-p1.Y)
}

// MidPoint returns the point halfway between p1 and p2.
func MidPoint(p1, p2 Point) Point {
	return Point{(p1.X + p2.X) / 2, (p1.Y + p2.Y) / 2}
}

// AngleBetween returns the direction from one point to another.
func AngleBetween(from, to Point) float64 {
	return math.Atan2(to.Y-from.Y, to.X-from.X)
}

// ToPolar expresses p relative to center.
func ToPolar(p, center Point) PolarPoint {
	return PolarPoint{
		R: Distance(center, p),
		T: AngleBetween(center, p),
	}
}

// FromPolar converts pp back to cartesian coordinates around the origin.
// Add the center to place it.
func FromPolar(pp PolarPoint) Point {
	return Point{pp.R * math.Cos(pp.T), pp.R * math.Sin(pp.T)}
}

// ToRadian converts degrees to radians.
func ToRadian(deg float64) float64 { return deg * math.Pi / 180 }

// ToDegree converts radians to degrees.
func ToDegree(rad float64) float64 { return rad * 180 / math.Pi }

// NormalizeAngle maps a to [0, 2π).
func NormalizeAngle(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	return a
}

// IntersectCircles returns the two points where c1 and c2 cross.
//
// With q the distance between centers, the chord through both points sits
// at a = (r1²-r2²+q²)/2q along the center line and has half-length
// h = √(r1²-a²). Tangent circles yield the same point twice.
func IntersectCircles(c1, c2 Circle) ([2]Point, error) {
	q := Distance(c1.C, c2.C)
	eps := 1e-9 * math.Max(1, q)
	if q == 0 || q > c1.R+c2.R+eps || q < math.Abs(c1.R-c2.R)-eps {
		return [2]Point{}, ErrNoIntersection
	}

	a := (c1.R*c1.R - c2.R*c2.R + q*q) / (2 * q)
	hh := c1.R*c1.R - a*a
	if hh < 0 {
		hh = 0 // rounding at tangency
	}
	h := math.Sqrt(hh)

	dx := (c2.C.X - c1.C.X) / q
	dy := (c2.C.Y - c1.C.Y) / q
	base := Point{c1.C.X + a*dx, c1.C.Y + a*dy}

	return [2]Point{
		{base.X + h*dy, base.Y - h*dx},
		{base.X - h*dy, base.Y + h*dx},
	}, nil
}

// MidPointOfArc returns the point halfway along the major arc from start
// to end around center. The radius is taken from start.
//
// When the two arcs are the same length (a semicircle) the arc swept in
// the positive direction from start is used, which is the arc an SVG
// "A r r 0 1 1" command draws.
func MidPointOfArc(center, start, end Point) Point {
	p1 := ToPolar(start, center)
	p2 := ToPolar(end, center)

	span := NormalizeAngle(p2.T - p1.T)
	var t float64
	if span >= math.Pi-1e-9 {
		t = p1.T + span/2
	} else {
		t = p1.T - (2*math.Pi-span)/2
	}
	return center.Add(FromPolar(PolarPoint{R: p1.R, T: t}))
}
