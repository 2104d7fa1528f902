package raster

import (
	"math"
	"sync"

	"github.com/gogpu/gg"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"

	"github.com/ha1tch/dfaviz/pkg/geometry"
)

// TextAlign is the horizontal anchor of a text run.
type TextAlign int

const (
	AlignLeft TextAlign = iota
	AlignCenter
	AlignRight
)

// TextBaseline is the vertical anchor of a text run.
type TextBaseline int

const (
	BaselineAlphabetic TextBaseline = iota
	BaselineMiddle
	BaselineTop
	BaselineBottom
)

// ParseTextAlign maps "left", "center" and "right" ("start" and "end" are
// accepted as aliases).
func ParseTextAlign(s string) TextAlign {
	switch s {
	case "center":
		return AlignCenter
	case "right", "end":
		return AlignRight
	}
	return AlignLeft
}

// ParseTextBaseline maps "alphabetic", "middle", "top" and "bottom".
func ParseTextBaseline(s string) TextBaseline {
	switch s {
	case "middle":
		return BaselineMiddle
	case "top", "hanging":
		return BaselineTop
	case "bottom", "ideographic":
		return BaselineBottom
	}
	return BaselineAlphabetic
}

// TextMetrics describes the ink extent of a run relative to its anchor.
// Left and Ascent grow toward the left and up, Right and Descent toward the
// right and down, so the ink box is
// (x-Left, y-Ascent, Left+Right, Ascent+Descent).
type TextMetrics struct {
	Width   float64
	Left    float64
	Right   float64
	Ascent  float64
	Descent float64
}

// Box returns the ink box of a run anchored at (x, y).
func (m TextMetrics) Box(x, y float64) geometry.Rectangle {
	return geometry.Rectangle{
		X:      x - m.Left,
		Y:      y - m.Ascent,
		Width:  math.Max(0, m.Left+m.Right),
		Height: math.Max(0, m.Ascent+m.Descent),
	}
}

var (
	defaultFont     *sfnt.Font
	defaultFontErr  error
	defaultFontOnce sync.Once
)

func goRegular() (*sfnt.Font, error) {
	defaultFontOnce.Do(func() {
		defaultFont, defaultFontErr = sfnt.Parse(goregular.TTF)
	})
	return defaultFont, defaultFontErr
}

type glyph struct {
	index sfnt.GlyphIndex
	x     float64 // pen position
}

// layoutText positions each rune at the given size and returns the glyphs,
// the total advance and the ink bounds in baseline-relative coordinates
// (y down).
func (c *Context) layoutText(s string, size float64) (glyphs []glyph, advance float64, ink geometry.Rectangle, hasInk bool) {
	f, err := goRegular()
	if err != nil || size <= 0 {
		return nil, 0, geometry.Rectangle{}, false
	}
	ppem := fixed.Int26_6(math.Round(size * 64))

	var (
		pen  fixed.Int26_6
		prev sfnt.GlyphIndex
	)
	for i, r := range []rune(s) {
		gi, err := f.GlyphIndex(&c.buf, r)
		if err != nil {
			continue
		}
		if i > 0 {
			if k, err := f.Kern(&c.buf, prev, gi, ppem, font.HintingNone); err == nil {
				pen += k
			}
		}
		b, adv, err := f.GlyphBounds(&c.buf, gi, ppem, font.HintingNone)
		if err != nil {
			continue
		}
		glyphs = append(glyphs, glyph{index: gi, x: fixedToFloat(pen)})

		if b.Max.X > b.Min.X && b.Max.Y > b.Min.Y {
			box := geometry.Rectangle{
				X:      fixedToFloat(pen + b.Min.X),
				Y:      fixedToFloat(b.Min.Y),
				Width:  fixedToFloat(b.Max.X - b.Min.X),
				Height: fixedToFloat(b.Max.Y - b.Min.Y),
			}
			if hasInk {
				ink = geometry.MergeRectangle(ink, box)
			} else {
				ink, hasInk = box, true
			}
		}
		pen += adv
		prev = gi
	}
	return glyphs, fixedToFloat(pen), ink, hasInk
}

// anchorOffset returns the shift from the anchor to the pen origin on the
// alphabetic baseline.
func (c *Context) anchorOffset(advance, size float64) (dx, dy float64) {
	switch c.st.align {
	case AlignCenter:
		dx = -advance / 2
	case AlignRight:
		dx = -advance
	}

	f, err := goRegular()
	if err != nil {
		return dx, 0
	}
	m, err := f.Metrics(&c.buf, fixed.Int26_6(math.Round(size*64)), font.HintingNone)
	if err != nil {
		return dx, 0
	}
	ascent, descent := fixedToFloat(m.Ascent), fixedToFloat(m.Descent)
	switch c.st.baseline {
	case BaselineTop:
		dy = ascent
	case BaselineBottom:
		dy = -descent
	case BaselineMiddle:
		dy = (ascent - descent) / 2
	}
	return dx, dy
}

// MeasureText returns the extent of s drawn with the current font size,
// alignment and baseline.
func (c *Context) MeasureText(s string) TextMetrics {
	size := c.st.fontSize
	_, advance, ink, ok := c.layoutText(s, size)
	dx, dy := c.anchorOffset(advance, size)
	if !ok {
		return TextMetrics{Width: advance, Left: -dx, Right: dx + advance}
	}
	return TextMetrics{
		Width:   advance,
		Left:    -(dx + ink.X),
		Right:   dx + ink.X + ink.Width,
		Ascent:  -(dy + ink.Y),
		Descent: dy + ink.Y + ink.Height,
	}
}

// FillText fills the glyph outlines of s anchored at (x, y).
func (c *Context) FillText(s string, x, y float64) {
	f, err := goRegular()
	if err != nil {
		return
	}
	size := c.st.fontSize
	glyphs, advance, _, _ := c.layoutText(s, size)
	dx, dy := c.anchorOffset(advance, size)
	ppem := fixed.Int26_6(math.Round(size * 64))

	p := gg.NewPath()
	for _, g := range glyphs {
		segs, err := f.LoadGlyph(&c.buf, g.index, ppem, nil)
		if err != nil {
			continue
		}
		ox, oy := x+dx+g.x, y+dy
		pt := func(v fixed.Point26_6) (float64, float64) {
			return ox + fixedToFloat(v.X), oy + fixedToFloat(v.Y)
		}
		open := false
		for _, seg := range segs {
			switch seg.Op {
			case sfnt.SegmentOpMoveTo:
				if open {
					p.Close()
				}
				p.MoveTo(pt(seg.Args[0]))
				open = true
			case sfnt.SegmentOpLineTo:
				p.LineTo(pt(seg.Args[0]))
			case sfnt.SegmentOpQuadTo:
				cx, cy := pt(seg.Args[0])
				ex, ey := pt(seg.Args[1])
				p.QuadraticTo(cx, cy, ex, ey)
			case sfnt.SegmentOpCubeTo:
				c1x, c1y := pt(seg.Args[0])
				c2x, c2y := pt(seg.Args[1])
				ex, ey := pt(seg.Args[2])
				p.CubicTo(c1x, c1y, c2x, c2y, ex, ey)
			}
		}
		if open {
			p.Close()
		}
	}
	c.FillPath(p)
}

func fixedToFloat(v fixed.Int26_6) float64 {
	return float64(v) / 64
}
