package render

import (
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/ha1tch/dfaviz/pkg/geometry"
	"github.com/ha1tch/dfaviz/pkg/raster"
)

// WriteSVG writes the renderer's shapes, in paint order, as a standalone
// SVG document whose viewBox is the last bounding box plus padding. Call
// Draw first so the order and box are current.
func WriteSVG(w io.Writer, r *Renderer) error {
	box, ok := r.BoundingBox()
	if !ok {
		box = geometry.Rectangle{Width: float64(r.width), Height: float64(r.height)}
	}
	box = box.Inset(FitPadding / 2)

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%s" height="%s" viewBox="%s %s %s %s">
`, num(box.Width), num(box.Height), num(box.X), num(box.Y), num(box.Width), num(box.Height)))
	if bg := r.background; bg.A != 0 {
		sb.WriteString(fmt.Sprintf(`  <rect x="%s" y="%s" width="%s" height="%s" fill="%s"/>
`, num(box.X), num(box.Y), num(box.Width), num(box.Height), raster.FormatColor(bg)))
	}

	for _, s := range r.elements {
		writeShape(&sb, s)
	}
	sb.WriteString("</svg>\n")

	_, err := io.WriteString(w, sb.String())
	return err
}

func writeShape(sb *strings.Builder, s Shape) {
	b := s.Common()
	switch s := s.(type) {
	case *Rect:
		sb.WriteString(fmt.Sprintf(`  <rect x="%s" y="%s" width="%s" height="%s"%s%s/>
`, num(s.X), num(s.Y), num(s.Width), num(s.Height), paintAttrs(b), transformAttr(b, s.anchor())))
	case *Circle:
		sb.WriteString(fmt.Sprintf(`  <circle cx="%s" cy="%s" r="%s"%s%s/>
`, num(s.X), num(s.Y), num(s.R), paintAttrs(b), transformAttr(b, s.center())))
	case *Path:
		if _, err := s.Parsed(); err != nil {
			return
		}
		sb.WriteString(fmt.Sprintf(`  <path d="%s"%s%s/>
`, html.EscapeString(s.D), paintAttrs(b), transformAttr(b, geometry.Point{})))
	case *Text:
		tr := transformAttr(b, s.anchor())
		if bg, ok := raster.ParseColor(b.Style.Background); ok {
			box := s.Box()
			sb.WriteString(fmt.Sprintf(`  <rect x="%s" y="%s" width="%s" height="%s" fill="%s"%s/>
`, num(box.X), num(box.Y), num(box.Width), num(box.Height), raster.FormatColor(bg), tr))
		}
		fill := "#000000"
		if c, ok := raster.ParseColor(b.Style.Fill); ok {
			fill = raster.FormatColor(c)
		} else if b.Style.Fill != "" {
			fill = "none"
		}
		size := b.Style.Font
		if size <= 0 {
			size = defaultFontSize
		}
		sb.WriteString(fmt.Sprintf(`  <text x="%s" y="%s" font-family="sans-serif" font-size="%s" text-anchor="%s" dominant-baseline="%s" fill="%s"%s>%s</text>
`, num(s.X), num(s.Y), num(size), svgAnchor(b.Style.TextAlign), svgBaseline(b.Style.TextBaseline), fill, tr, html.EscapeString(s.Content)))
	}
}

func paintAttrs(b *Base) string {
	fill := "none"
	if c, ok := raster.ParseColor(b.Style.Fill); ok {
		fill = raster.FormatColor(c)
	}
	attrs := fmt.Sprintf(` fill="%s"`, fill)
	if c, ok := raster.ParseColor(b.Style.Stroke); ok {
		return attrs + fmt.Sprintf(` stroke="%s" stroke-width="%s"`, raster.FormatColor(c), num(b.strokeWidth()))
	}
	return attrs + ` stroke="none"`
}

func transformAttr(b *Base, anchor geometry.Point) string {
	if b.Transform == nil {
		return ""
	}
	m := b.localMatrix(anchor)
	return fmt.Sprintf(` transform="matrix(%s %s %s %s %s %s)"`,
		num(m[0]), num(m[1]), num(m[2]), num(m[3]), num(m[4]), num(m[5]))
}

func svgAnchor(align string) string {
	switch raster.ParseTextAlign(align) {
	case raster.AlignCenter:
		return "middle"
	case raster.AlignRight:
		return "end"
	}
	return "start"
}

func svgBaseline(baseline string) string {
	switch raster.ParseTextBaseline(baseline) {
	case raster.BaselineMiddle:
		return "middle"
	case raster.BaselineTop:
		return "hanging"
	case raster.BaselineBottom:
		return "text-after-edge"
	}
	return "alphabetic"
}

func num(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	s = strings.TrimRight(s, "0")
	s = strings.TrimSuffix(s, ".")
	if s == "-0" {
		return "0"
	}
	return s
}
