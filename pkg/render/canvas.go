package render

import (
	"fmt"
	"image"
	"slices"
	"sync"

	"github.com/ha1tch/dfaviz/pkg/geometry"
	"github.com/ha1tch/dfaviz/pkg/raster"
)

// Canvas is the host surface a renderer paints into and receives pointer
// events from.
type Canvas interface {
	// NewContext returns a drawing context for a w×h visible surface.
	NewContext(w, h int) (*raster.Context, error)
	// Origin is the canvas position in host page coordinates.
	Origin() geometry.Point
	AddEventListener(t EventType, fn func(Event))
	SetCursor(cursor string)
}

// ImageCanvas is an in-memory Canvas. Hosts feed it events with Dispatch.
type ImageCanvas struct {
	mu        sync.Mutex
	origin    geometry.Point
	img       *image.RGBA
	cursor    string
	listeners map[EventType][]func(Event)
}

// NewImageCanvas returns a canvas placed at origin in page coordinates.
func NewImageCanvas(origin geometry.Point) *ImageCanvas {
	return &ImageCanvas{
		origin:    origin,
		cursor:    "default",
		listeners: make(map[EventType][]func(Event)),
	}
}

// NewContext implements Canvas.
func (c *ImageCanvas) NewContext(w, h int) (*raster.Context, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("invalid surface size %dx%d", w, h)
	}
	ctx := raster.NewContext(w, h)
	c.mu.Lock()
	c.img = ctx.Image()
	c.mu.Unlock()
	return ctx, nil
}

// Origin implements Canvas.
func (c *ImageCanvas) Origin() geometry.Point { return c.origin }

// AddEventListener implements Canvas.
func (c *ImageCanvas) AddEventListener(t EventType, fn func(Event)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners[t] = append(c.listeners[t], fn)
}

// SetCursor implements Canvas.
func (c *ImageCanvas) SetCursor(cursor string) {
	c.mu.Lock()
	c.cursor = cursor
	c.mu.Unlock()
}

// Cursor returns the last cursor set by the renderer.
func (c *ImageCanvas) Cursor() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cursor
}

// Image returns the visible surface, nil before the first NewContext.
func (c *ImageCanvas) Image() *image.RGBA {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.img
}

// Dispatch delivers ev to the listeners registered for its type.
func (c *ImageCanvas) Dispatch(ev Event) {
	c.mu.Lock()
	fns := slices.Clone(c.listeners[ev.Type])
	c.mu.Unlock()
	for _, fn := range fns {
		fn(ev)
	}
}
