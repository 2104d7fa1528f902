package geometry

import "math"

// Transform2D is the pan/zoom/rotate state of a view. Model points map to
// screen points as translate ∘ scale ∘ rotate. Every mutator rebuilds the
// cached matrix before returning.
type Transform2D struct {
	Scaling     [2]float64
	Translation [2]float64
	Rotation    float64

	matrix Matrix
}

// NewTransform2D returns the identity transform.
func NewTransform2D() *Transform2D {
	t := &Transform2D{Scaling: [2]float64{1, 1}}
	t.update()
	return t
}

func (t *Transform2D) update() {
	t.matrix = TranslateMatrix(t.Translation[0], t.Translation[1]).
		Mul(ScaleMatrix(t.Scaling[0], t.Scaling[1])).
		Mul(RotateMatrix(t.Rotation))
}

// Matrix returns the current model-to-screen matrix.
func (t *Transform2D) Matrix() Matrix { return t.matrix }

// Zoom returns the horizontal scale, which is the uniform zoom level for
// views that only ever zoom uniformly.
func (t *Transform2D) Zoom() float64 { return t.Scaling[0] }

// Reset returns t to the identity.
func (t *Transform2D) Reset() {
	t.Scaling = [2]float64{1, 1}
	t.Translation = [2]float64{}
	t.Rotation = 0
	t.update()
}

// Scale multiplies the current scale.
func (t *Transform2D) Scale(sx, sy float64) {
	t.Scaling[0] *= sx
	t.Scaling[1] *= sy
	t.update()
}

// SetScale replaces the current scale.
func (t *Transform2D) SetScale(sx, sy float64) {
	t.Scaling = [2]float64{sx, sy}
	t.update()
}

// Rotate adds rad to the rotation.
func (t *Transform2D) Rotate(rad float64) {
	t.Rotation += rad
	t.update()
}

// SetRotation replaces the rotation.
func (t *Transform2D) SetRotation(rad float64) {
	t.Rotation = rad
	t.update()
}

// Move shifts the translation by (dx, dy) screen units.
func (t *Transform2D) Move(dx, dy float64) {
	t.Translation[0] += dx
	t.Translation[1] += dy
	t.update()
}

// SetTranslation replaces the translation.
func (t *Transform2D) SetTranslation(tx, ty float64) {
	t.Translation = [2]float64{tx, ty}
	t.update()
}

// ZoomTo scales by factor around focal, a point in model space, so that
// focal keeps its screen position.
func (t *Transform2D) ZoomTo(focal Point, factor float64) {
	rf := RotateMatrix(t.Rotation).Apply(focal)
	t.Translation[0] += rf.X * t.Scaling[0] * (1 - factor)
	t.Translation[1] += rf.Y * t.Scaling[1] * (1 - factor)
	t.Scaling[0] *= factor
	t.Scaling[1] *= factor
	t.update()
}

// Transform maps a model point to the screen.
func (t *Transform2D) Transform(p Point) Point {
	return t.matrix.Apply(p)
}

// TransformInverse maps a screen point back to the model: un-translate,
// un-scale, then un-rotate around the origin.
func (t *Transform2D) TransformInverse(p Point) Point {
	x := (p.X - t.Translation[0]) / t.Scaling[0]
	y := (p.Y - t.Translation[1]) / t.Scaling[1]
	sin, cos := math.Sincos(-t.Rotation)
	return Point{x*cos - y*sin, x*sin + y*cos}
}

// Clone returns an independent copy of t.
func (t *Transform2D) Clone() *Transform2D {
	c := *t
	return &c
}
