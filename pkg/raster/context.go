// Package raster is a canvas-style 2D drawing context over a gg pixmap:
// a save/restore state stack, an affine transform, path fill and stroke,
// rectangles and text.
//
// A context is either anti-aliased, for pictures, or aliased. Aliased
// contexts threshold gg coverage at one half and write the exact paint
// color with no blending, so every pixel holds either the background or
// one of the colors that were painted. The renderer relies on that for its
// color-keyed hit buffer.
package raster

import (
	"image"
	"image/color"
	"math"

	"github.com/gogpu/gg"
	"golang.org/x/image/font/sfnt"

	"github.com/ha1tch/dfaviz/pkg/geometry"
)

type state struct {
	m         geometry.Matrix
	fill      color.RGBA
	stroke    color.RGBA
	lineWidth float64
	fontSize  float64
	align     TextAlign
	baseline  TextBaseline
}

func defaultState() state {
	return state{
		m:         geometry.Identity(),
		fill:      color.RGBA{0, 0, 0, 255},
		stroke:    color.RGBA{0, 0, 0, 255},
		lineWidth: 1,
		fontSize:  10,
	}
}

// surface is a gg context drawing into a pixmap, with an image.RGBA view
// sharing the pixmap's memory.
type surface struct {
	pm  *gg.Pixmap
	dc  *gg.Context
	img *image.RGBA
}

func newSurface(w, h int) surface {
	pm := gg.NewPixmap(w, h)
	dc := gg.NewContextForPixmap(pm)
	dc.SetLineJoin(gg.LineJoinRound)
	dc.SetDamageTracking(false)
	return surface{
		pm:  pm,
		dc:  dc,
		img: &image.RGBA{Pix: pm.Data(), Stride: 4 * w, Rect: image.Rect(0, 0, w, h)},
	}
}

// Context draws into an image.RGBA.
type Context struct {
	out     surface
	cover   surface // aliased only: white coverage, zeroed after each paint
	aliased bool

	st    state
	stack []state

	buf sfnt.Buffer
}

// Option configures a Context.
type Option func(*Context)

// Aliased makes the context write exact colors with no anti-aliasing.
func Aliased() Option {
	return func(c *Context) { c.aliased = true }
}

// NewContext allocates a w×h transparent image and a context drawing
// into it.
func NewContext(w, h int, opts ...Option) *Context {
	c := &Context{st: defaultState()}
	for _, o := range opts {
		o(c)
	}
	c.alloc(w, h)
	return c
}

func (c *Context) alloc(w, h int) {
	c.out = newSurface(w, h)
	if c.aliased {
		c.cover = newSurface(w, h)
	}
}

// Image returns the backing image. It shares memory with the context and
// stays valid until Resize.
func (c *Context) Image() *image.RGBA { return c.out.img }

// Width returns the image width in pixels.
func (c *Context) Width() int { return c.out.pm.Width() }

// Height returns the image height in pixels.
func (c *Context) Height() int { return c.out.pm.Height() }

// IsAliased reports whether the context writes exact colors.
func (c *Context) IsAliased() bool { return c.aliased }

// Resize replaces the backing image with a new transparent w×h image and
// resets the drawing state.
func (c *Context) Resize(w, h int) {
	c.alloc(w, h)
	c.st = defaultState()
	c.stack = c.stack[:0]
}

// Clear fills the whole image with col, ignoring the transform.
func (c *Context) Clear(col color.Color) {
	c.out.pm.Clear(solid(col))
}

// At returns the pixel at (x, y), or transparent outside the image.
func (c *Context) At(x, y int) color.RGBA {
	if !(image.Point{X: x, Y: y}.In(c.out.img.Rect)) {
		return color.RGBA{}
	}
	return c.out.img.RGBAAt(x, y)
}

// Save pushes the drawing state.
func (c *Context) Save() {
	c.stack = append(c.stack, c.st)
}

// Restore pops the drawing state saved by the matching Save.
func (c *Context) Restore() {
	if n := len(c.stack); n > 0 {
		c.st = c.stack[n-1]
		c.stack = c.stack[:n-1]
	}
}

// Matrix returns the current transform.
func (c *Context) Matrix() geometry.Matrix { return c.st.m }

// SetMatrix replaces the current transform.
func (c *Context) SetMatrix(m geometry.Matrix) { c.st.m = m }

// Transform multiplies the current transform by m; m applies first.
func (c *Context) Transform(m geometry.Matrix) { c.st.m = c.st.m.Mul(m) }

// Translate moves the origin.
func (c *Context) Translate(x, y float64) { c.Transform(geometry.TranslateMatrix(x, y)) }

// Scale scales user space.
func (c *Context) Scale(sx, sy float64) { c.Transform(geometry.ScaleMatrix(sx, sy)) }

// Rotate rotates user space by rad.
func (c *Context) Rotate(rad float64) { c.Transform(geometry.RotateMatrix(rad)) }

// SetFillColor sets the fill paint.
func (c *Context) SetFillColor(col color.Color) {
	c.st.fill = color.RGBAModel.Convert(col).(color.RGBA)
}

// SetStrokeColor sets the stroke paint.
func (c *Context) SetStrokeColor(col color.Color) {
	c.st.stroke = color.RGBAModel.Convert(col).(color.RGBA)
}

// SetLineWidth sets the stroke width in user units.
func (c *Context) SetLineWidth(w float64) { c.st.lineWidth = w }

// LineWidth returns the stroke width in user units.
func (c *Context) LineWidth() float64 { return c.st.lineWidth }

// SetFontSize sets the text size in user units.
func (c *Context) SetFontSize(size float64) { c.st.fontSize = size }

// SetTextAlign sets the horizontal text anchor.
func (c *Context) SetTextAlign(a TextAlign) { c.st.align = a }

// SetTextBaseline sets the vertical text anchor.
func (c *Context) SetTextBaseline(b TextBaseline) { c.st.baseline = b }

// FillPath fills p, given in user space, with the fill paint using the
// nonzero rule.
func (c *Context) FillPath(p *gg.Path) { c.paint(p, c.st.fill, false) }

// StrokePath strokes p with the stroke paint and line width. Joins are
// round.
func (c *Context) StrokePath(p *gg.Path) { c.paint(p, c.st.stroke, true) }

// FillRect fills a rectangle in user space.
func (c *Context) FillRect(x, y, w, h float64) {
	p := gg.NewPath()
	p.Rectangle(x, y, w, h)
	c.FillPath(p)
}

// StrokeRect strokes a rectangle in user space.
func (c *Context) StrokeRect(x, y, w, h float64) {
	p := gg.NewPath()
	p.Rectangle(x, y, w, h)
	c.StrokePath(p)
}

func (c *Context) paint(p *gg.Path, col color.RGBA, stroke bool) {
	if col.A == 0 || p == nil || p.NumVerbs() == 0 {
		return
	}
	m := ggMatrix(c.st.m)
	if !c.aliased {
		s := solid(col)
		c.out.dc.SetRGBA(s.R, s.G, s.B, s.A)
		draw(c.out.dc, m, p, c.st.lineWidth, stroke)
		return
	}

	c.cover.dc.SetRGBA(1, 1, 1, 1)
	draw(c.cover.dc, m, p, c.st.lineWidth, stroke)

	box := p.Transform(m).BoundingBox()
	pad := 1.0
	if stroke {
		pad += math.Max(1, c.st.lineWidth*m.ScaleFactor()) / 2
	}
	r := image.Rect(
		int(math.Floor(box.Min.X-pad)), int(math.Floor(box.Min.Y-pad)),
		int(math.Ceil(box.Max.X+pad)), int(math.Ceil(box.Max.Y+pad)),
	).Intersect(c.out.img.Rect)

	col.A = 255
	cov := c.cover.img
	for y := r.Min.Y; y < r.Max.Y; y++ {
		row := cov.Pix[y*cov.Stride:]
		for x := r.Min.X; x < r.Max.X; x++ {
			px := row[4*x : 4*x+4]
			if px[3] >= 0x80 {
				c.out.img.SetRGBA(x, y, col)
			}
			px[0], px[1], px[2], px[3] = 0, 0, 0, 0
		}
	}
}

// draw replays p through m and fills or strokes it. The software renderer
// never fails, so errors are dropped.
func draw(dc *gg.Context, m gg.Matrix, p *gg.Path, lineWidth float64, stroke bool) {
	dc.SetTransform(m)
	dc.DrawPath(p)
	if stroke {
		dc.SetLineWidth(lineWidth)
		_ = dc.Stroke()
		return
	}
	_ = dc.Fill()
}

func ggMatrix(m geometry.Matrix) gg.Matrix {
	return gg.Matrix{A: m[0], B: m[2], C: m[4], D: m[1], E: m[3], F: m[5]}
}

// solid converts col for gg. gg truncates when it writes 8-bit channels,
// so channels are nudged half a step up to land opaque colors exactly.
func solid(col color.Color) gg.RGBA {
	n := color.NRGBAModel.Convert(col).(color.NRGBA)
	if n.A == 0 {
		return gg.Transparent
	}
	ch := func(v uint8) float64 {
		if v == 255 {
			return 1
		}
		return (float64(v) + 0.5) / 255
	}
	return gg.RGBA{R: ch(n.R), G: ch(n.G), B: ch(n.B), A: ch(n.A)}
}
