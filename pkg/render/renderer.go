// Package render keeps a list of shapes, paints them into a visible raster
// and a color-keyed hit raster, and dispatches pointer events to the
// topmost shape under the pointer.
package render

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"math"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/ha1tch/dfaviz/pkg/geometry"
	"github.com/ha1tch/dfaviz/pkg/raster"
)

// ErrNoContext is returned when a canvas cannot provide a drawing context.
var ErrNoContext = errors.New("render: canvas has no drawing context")

// FitPadding is added to both content dimensions when fitting to view.
const FitPadding = 20

// DefaultFitZoom is the zoom applied after content has been fitted.
const DefaultFitZoom = 0.5

// HitTestMode selects how events find their target shape.
type HitTestMode int

const (
	// HitBuffer samples the color-keyed hit surface.
	HitBuffer HitTestMode = iota
	// Analytic asks each shape's Contains, topmost first.
	Analytic
)

// Option configures a Renderer.
type Option func(*Renderer)

// WithLogger sets the renderer's logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Renderer) { r.logger = l }
}

// WithHitTestMode selects the hit testing strategy.
func WithHitTestMode(m HitTestMode) Option {
	return func(r *Renderer) { r.mode = m }
}

// WithBackground sets the color the visible surface is cleared to.
func WithBackground(c color.Color) Option {
	return func(r *Renderer) { r.background = color.RGBAModel.Convert(c).(color.RGBA) }
}

// WithFitZoom overrides DefaultFitZoom.
func WithFitZoom(z float64) Option {
	return func(r *Renderer) { r.fitZoom = z }
}

// Renderer owns the shapes, both surfaces and the view transform. Apart
// from Post and Defer it must be used from one goroutine, normally the one
// running Run.
type Renderer struct {
	width, height int
	background    color.RGBA
	fitZoom       float64
	mode          HitTestMode
	logger        *slog.Logger

	canvas Canvas
	ctx    *raster.Context
	hit    *raster.Context

	elements []Shape
	index    map[ID]int
	hitMap   map[ID]Shape
	seq      uint64

	transform *geometry.Transform2D
	box       geometry.Rectangle
	hasBox    bool

	hovered     ID
	cursor      string
	dispatching bool
	observers   []func(ev Event, target Shape)

	mu         sync.Mutex
	deferred   []func()
	frameHooks []func()
	events     chan Event
	queueing   atomic.Bool
}

// NewRenderer returns a renderer for a w×h surface. Nothing is drawn until
// a canvas is attached with SetCanvas.
func NewRenderer(w, h int, opts ...Option) *Renderer {
	r := &Renderer{
		width:      w,
		height:     h,
		background: color.RGBA{0xff, 0xff, 0xff, 0xff},
		fitZoom:    DefaultFitZoom,
		logger:     slog.New(slog.DiscardHandler),
		index:      make(map[ID]int),
		hitMap:     make(map[ID]Shape),
		transform:  geometry.NewTransform2D(),
		events:     make(chan Event, 64),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// SetCanvas attaches the renderer to c and subscribes to its events.
func (r *Renderer) SetCanvas(c Canvas) error {
	ctx, err := c.NewContext(r.width, r.height)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNoContext, err)
	}
	if ctx == nil {
		return ErrNoContext
	}
	r.canvas = c
	r.ctx = ctx
	r.hit = raster.NewContext(r.width, r.height, raster.Aliased())
	for _, t := range EventTypes {
		c.AddEventListener(t, r.Post)
	}
	r.logger.Debug("canvas attached", "width", r.width, "height", r.height)
	return nil
}

// SetSize resizes both surfaces and redraws.
func (r *Renderer) SetSize(w, h int) error {
	r.width, r.height = w, h
	if r.canvas == nil {
		return nil
	}
	ctx, err := r.canvas.NewContext(w, h)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNoContext, err)
	}
	r.ctx = ctx
	r.hit.Resize(w, h)
	r.Draw()
	return nil
}

// Size returns the surface size in pixels.
func (r *Renderer) Size() (w, h int) { return r.width, r.height }

// Image returns the visible surface, nil before SetCanvas.
func (r *Renderer) Image() *image.RGBA {
	if r.ctx == nil {
		return nil
	}
	return r.ctx.Image()
}

// HitImage returns the hit surface, nil before SetCanvas.
func (r *Renderer) HitImage() *image.RGBA {
	if r.hit == nil {
		return nil
	}
	return r.hit.Image()
}

// Transform returns the view transform. Callers may mutate it; the next
// Draw picks the change up.
func (r *Renderer) Transform() *geometry.Transform2D { return r.transform }

// BoundingBox returns the model-space extent of the last draw.
func (r *Renderer) BoundingBox() (geometry.Rectangle, bool) { return r.box, r.hasBox }

// HoveredID returns the id of the shape under the pointer, or NoID.
func (r *Renderer) HoveredID() ID { return r.hovered }

// Logger returns the renderer's logger.
func (r *Renderer) Logger() *slog.Logger { return r.logger }

// Elements returns the shapes in paint order as of the last draw.
func (r *Renderer) Elements() []Shape {
	return append([]Shape(nil), r.elements...)
}

// AddElement adds s on top of the shapes with the same z-index. Adding a
// shape twice is a no-op; a different shape carrying a live id gets a
// fresh one. During dispatch the addition waits for the next
// frame.
func (r *Renderer) AddElement(s Shape) {
	if r.dispatching {
		r.Defer(func() { r.AddElement(s) })
		return
	}
	b := s.Common()
	if b.id == NoID {
		b.id = NextID()
	}
	if other, ok := r.hitMap[b.id]; ok {
		if other == s {
			return
		}
		// A wrapped id counter can hand out an id that is still live.
		old := b.id
		for taken := true; taken; _, taken = r.hitMap[b.id] {
			b.id = NextID()
		}
		r.logger.Warn("shape id in use, reassigned", "id", old.String(), "new", b.id.String())
	}
	r.seq++
	b.seq = r.seq
	r.index[b.id] = len(r.elements)
	r.elements = append(r.elements, s)
	r.hitMap[b.id] = s
}

// RemoveElement removes s. Removing an absent shape is a no-op. During
// dispatch the removal waits for the next frame.
func (r *Renderer) RemoveElement(s Shape) {
	if r.dispatching {
		r.Defer(func() { r.RemoveElement(s) })
		return
	}
	id := s.Common().id
	i, ok := r.index[id]
	if !ok || r.elements[i] != s {
		return
	}
	last := len(r.elements) - 1
	if i != last {
		r.elements[i] = r.elements[last]
		r.index[r.elements[i].Common().id] = i
	}
	r.elements[last] = nil
	r.elements = r.elements[:last]
	delete(r.index, id)
	delete(r.hitMap, id)
	if r.hovered == id {
		r.hovered = NoID
	}
}

// Has reports whether s is currently mounted.
func (r *Renderer) Has(s Shape) bool {
	other, ok := r.hitMap[s.Common().id]
	return ok && other == s
}

// Len returns the number of shapes.
func (r *Renderer) Len() int { return len(r.elements) }

// Draw repaints both surfaces and recomputes the bounding box.
func (r *Renderer) Draw() {
	if r.ctx == nil {
		return
	}
	r.ctx.Clear(r.background)
	r.hit.Clear(color.Transparent)

	sort.SliceStable(r.elements, func(i, j int) bool {
		a, b := r.elements[i].Common(), r.elements[j].Common()
		if a.Style.ZIndex != b.Style.ZIndex {
			return a.Style.ZIndex < b.Style.ZIndex
		}
		return a.seq < b.seq
	})
	for i, s := range r.elements {
		r.index[s.Common().id] = i
	}

	m := r.transform.Matrix()
	r.ctx.Save()
	r.hit.Save()
	r.ctx.SetMatrix(m)
	r.hit.SetMatrix(m)

	r.hasBox = false
	for _, s := range r.elements {
		s.Draw(r)
		b, ok := s.Bounds()
		if !ok {
			continue
		}
		if r.hasBox {
			r.box = geometry.MergeRectangle(r.box, b)
		} else {
			r.box, r.hasBox = b, true
		}
	}

	r.ctx.Restore()
	r.hit.Restore()
}

// FitContentToView scales and centers the content in viewport (the whole
// surface when nil), then applies the fit zoom. It returns the final scale.
func (r *Renderer) FitContentToView(viewport *geometry.Rectangle) float64 {
	if r.ctx == nil {
		return r.transform.Zoom()
	}
	r.Draw()
	if !r.hasBox {
		return r.transform.Zoom()
	}
	view := geometry.Rectangle{Width: float64(r.width), Height: float64(r.height)}
	if viewport != nil {
		view = *viewport
	}

	box := r.box
	scale := math.Min(view.Width/(box.Width+FitPadding), view.Height/(box.Height+FitPadding))
	if scale <= 0 || math.IsInf(scale, 0) || math.IsNaN(scale) {
		return r.transform.Zoom()
	}

	vc, bc := view.Center(), box.Center()
	r.transform.Reset()
	r.transform.SetTranslation(vc.X-bc.X, vc.Y-bc.Y)
	r.transform.ZoomTo(bc, scale)
	r.Draw()

	bc = r.box.Center()
	got := r.transform.Transform(bc)
	r.transform.Move(vc.X-got.X, vc.Y-got.Y)
	r.transform.ZoomTo(bc, r.fitZoom)
	r.Draw()

	r.logger.Debug("fit content", "scale", r.transform.Zoom(), "box", r.box)
	return r.transform.Zoom()
}

// Observe registers fn to see every dispatched event along with its
// target, which is nil on a miss.
func (r *Renderer) Observe(fn func(ev Event, target Shape)) {
	r.observers = append(r.observers, fn)
}

// HandleEvent resolves ev against the hit surface and calls the target's
// handler for the event type.
func (r *Renderer) HandleEvent(ev Event) {
	if r.ctx == nil {
		return
	}
	origin := r.canvas.Origin()
	ev.X, ev.Y = ev.PageX-origin.X, ev.PageY-origin.Y

	r.dispatching = true
	defer func() { r.dispatching = false }()

	var target Shape
	if ev.Type != EventPointerLeave {
		target = r.ShapeAt(geometry.Point{X: ev.X, Y: ev.Y})
	}
	switch ev.Type {
	case EventPointerMove, EventPointerLeave:
		r.setHover(target)
	}

	if target != nil {
		if h := target.Common().handler(ev.Type); h != nil {
			h(ev, target)
		}
	}
	for _, fn := range r.observers {
		fn(ev, target)
	}
}

// ShapeAt returns the topmost interactive shape at a canvas-local point.
func (r *Renderer) ShapeAt(local geometry.Point) Shape {
	if r.mode == Analytic {
		p := r.transform.TransformInverse(local)
		for i := len(r.elements) - 1; i >= 0; i-- {
			s := r.elements[i]
			if s.Common().Interactive() && s.Contains(p) {
				return s
			}
		}
		return nil
	}
	if r.hit == nil {
		return nil
	}
	id := ColorToID(r.hit.At(int(math.Floor(local.X)), int(math.Floor(local.Y))))
	if id == NoID {
		return nil
	}
	return r.hitMap[id]
}

func (r *Renderer) setHover(s Shape) {
	id, cursor := NoID, "default"
	if s != nil {
		id = s.Common().id
		if c := s.Common().Style.Cursor; c != "" {
			cursor = c
		}
	}
	r.hovered = id
	if cursor != r.cursor {
		r.cursor = cursor
		r.canvas.SetCursor(cursor)
	}
}
