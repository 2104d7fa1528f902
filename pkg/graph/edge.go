package graph

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/ha1tch/dfaviz/pkg/geometry"
)

// Layout constants, in model units.
const (
	NodeRadius      = 20
	NodeSpacing     = 100
	MinNodeDistance = 2 * NodeRadius
	AnchorOffset    = 10
	LoopRadius      = 20
	ArrowLength     = 5
	ArrowSpread     = 30 // degrees either side of the tangent

	// arrowBack is the arc length between the tip and the point the
	// arrowhead is aimed from.
	arrowBack = 3
)

// ErrDegenerateEdge is returned when node placement leaves no valid arc.
var ErrDegenerateEdge = errors.New("graph: degenerate edge")

// EdgeLayout is the drawable geometry of an edge. The arc runs from Start
// to End through positive angles around Center.
type EdgeLayout struct {
	Start  geometry.Point
	End    geometry.Point
	Center geometry.Point
	Radius float64
	Tip    geometry.Point
	Wings  [2]geometry.Point
	Label  geometry.Point
	Arc    string
	Arrow  string
}

// CalculateEdge lays out an edge between two distinct nodes. Each anchor
// sits AnchorOffset from its node toward the other, and the arc is the
// semicircle over the anchors, so opposite edges between the same pair
// curve to opposite sides.
func CalculateEdge(from, to geometry.Point) (EdgeLayout, error) {
	d := geometry.Distance(from, to)
	if d <= 2*AnchorOffset {
		return EdgeLayout{}, fmt.Errorf("%w: nodes %.1f apart", ErrDegenerateEdge, d)
	}
	u := to.Sub(from).Mul(1 / d)
	start := from.Add(u.Mul(AnchorOffset))
	end := to.Sub(u.Mul(AnchorOffset))
	return arcLayout(start, end, geometry.Distance(start, end)/2, to)
}

// CalculateLoop lays out a self-loop on the left of the node at p.
func CalculateLoop(p geometry.Point) (EdgeLayout, error) {
	start := geometry.Point{X: p.X - AnchorOffset, Y: p.Y + AnchorOffset}
	end := geometry.Point{X: p.X - AnchorOffset, Y: p.Y - AnchorOffset}
	return arcLayout(start, end, LoopRadius, p)
}

func arcLayout(start, end geometry.Point, r float64, node geometry.Point) (EdgeLayout, error) {
	centers, err := geometry.IntersectCircles(
		geometry.Circle{C: start, R: r},
		geometry.Circle{C: end, R: r},
	)
	if err != nil {
		return EdgeLayout{}, fmt.Errorf("%w: anchor circles: %w", ErrDegenerateEdge, err)
	}
	c := centers[0]

	tip, err := arrowTip(c, r, start, end, node)
	if err != nil {
		return EdgeLayout{}, err
	}

	back := c.Add(geometry.FromPolar(geometry.PolarPoint{
		R: r,
		T: geometry.AngleBetween(c, tip) - arrowBack/r,
	}))
	dir := geometry.AngleBetween(tip, back)
	spread := geometry.ToRadian(ArrowSpread)
	w1 := tip.Add(geometry.FromPolar(geometry.PolarPoint{R: ArrowLength, T: dir - spread}))
	w2 := tip.Add(geometry.FromPolar(geometry.PolarPoint{R: ArrowLength, T: dir + spread}))

	return EdgeLayout{
		Start:  start,
		End:    end,
		Center: c,
		Radius: r,
		Tip:    tip,
		Wings:  [2]geometry.Point{w1, w2},
		Label:  geometry.MidPointOfArc(c, start, end),
		Arc: "M " + num(start.X) + " " + num(start.Y) +
			" A " + num(r) + " " + num(r) + " 0 1 1 " + num(end.X) + " " + num(end.Y),
		Arrow: "M " + num(tip.X) + " " + num(tip.Y) +
			" L " + num(w1.X) + " " + num(w1.Y) +
			" L " + num(w2.X) + " " + num(w2.Y) + " Z",
	}, nil
}

// arrowTip finds where the arc enters the destination node. Of the two
// crossings of the node circle and the arc circle, only those strictly
// inside the drawn sweep qualify, and the one furthest along it wins.
func arrowTip(c geometry.Point, r float64, start, end, node geometry.Point) (geometry.Point, error) {
	cands, err := geometry.IntersectCircles(
		geometry.Circle{C: node, R: NodeRadius},
		geometry.Circle{C: c, R: r},
	)
	if err != nil {
		return geometry.Point{}, fmt.Errorf("%w: arrow tip: %w", ErrDegenerateEdge, err)
	}

	a0 := geometry.AngleBetween(c, start)
	span := geometry.NormalizeAngle(geometry.AngleBetween(c, end) - a0)
	best, bestOff := geometry.Point{}, -1.0
	for _, p := range cands {
		off := geometry.NormalizeAngle(geometry.AngleBetween(c, p) - a0)
		if off > 0 && off < span && off > bestOff {
			best, bestOff = p, off
		}
	}
	if bestOff < 0 {
		best = cands[0]
		if geometry.Distance(cands[1], end) < geometry.Distance(cands[0], end) {
			best = cands[1]
		}
	}
	return best, nil
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}
