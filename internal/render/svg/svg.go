// Package svg draws view frames as standalone SVG documents for the browser surface.
package svg

import (
	"bytes"
	"encoding/xml"
	"strconv"
	"strings"

	"github.com/cory-johannsen/mudmap/internal/game/scene"
	"github.com/cory-johannsen/mudmap/internal/game/view"
)

const fontFamily = "Serif"

// Renderer draws frames into a fixed viewport.
type Renderer struct {
	viewport view.Viewport
}

// New creates a Renderer for a viewport of the given pixel size.
//
// Precondition: width and height must be positive.
func New(width, height int) *Renderer {
	return &Renderer{viewport: view.Viewport{Width: float64(width), Height: float64(height)}}
}

// Viewport returns the renderer's viewport.
func (r *Renderer) Viewport() view.Viewport {
	return r.viewport
}

// Render draws f. Paths are drawn below rooms; the title, the hover panel and
// the level indicator are drawn last. Every room group carries its ID in a
// data-room attribute for pointer hit-testing.
//
// Precondition: f.Scene must be non-nil.
func (r *Renderer) Render(f view.Frame) []byte {
	var b bytes.Buffer
	w, h := r.viewport.Width, r.viewport.Height
	tr := view.TransformFor(f.Scene, f.State, r.viewport)

	b.WriteString(`<svg xmlns="http://www.w3.org/2000/svg"`)
	attr(&b, "width", num(w))
	attr(&b, "height", num(h))
	attr(&b, "viewBox", "0 0 "+num(w)+" "+num(h))
	attr(&b, "data-area", f.State.AreaID)
	attr(&b, "data-level", strconv.Itoa(f.State.Level))
	b.WriteString(">\n")

	b.WriteString(`<g class="scene"`)
	attr(&b, "transform", "translate("+num(tr.Offset.X)+" "+num(tr.Offset.Y)+") scale("+num(tr.Scale)+")")
	b.WriteString(">\n")

	b.WriteString(`<g class="paths">` + "\n")
	for _, p := range f.Scene.Paths {
		writePath(&b, p)
	}
	b.WriteString("</g>\n")

	b.WriteString(`<g class="rooms">` + "\n")
	for _, room := range f.Scene.Rooms {
		writeRoom(&b, room, room.ID == f.State.Hover)
	}
	writeLabel(&b, f.Scene.Title, "title")
	if f.Panel != nil {
		writePanel(&b, *f.Panel)
	}
	b.WriteString("</g>\n")
	b.WriteString("</g>\n")

	writeLevels(&b, f.Levels, f.State.Level)
	b.WriteString("</svg>\n")
	return b.Bytes()
}

func writePath(b *bytes.Buffer, p scene.DrawablePath) {
	b.WriteString("<line")
	attr(b, "x1", num(p.From.X))
	attr(b, "y1", num(p.From.Y))
	attr(b, "x2", num(p.To.X))
	attr(b, "y2", num(p.To.Y))
	attr(b, "stroke", p.Style.Stroke)
	attr(b, "stroke-width", num(p.Style.Width))
	attr(b, "stroke-linecap", "round")
	if p.Style.Dashed {
		attr(b, "stroke-dasharray", num(scene.DashPattern[0])+" "+num(scene.DashPattern[1]))
	}
	attr(b, "data-direction", string(p.Direction))
	b.WriteString("/>\n")
}

func writeRoom(b *bytes.Buffer, room scene.DrawableRoom, hovered bool) {
	bounds := room.Bounds()
	b.WriteString(`<g class="room"`)
	attr(b, "data-room", room.ID)
	b.WriteString(">")

	b.WriteString("<rect")
	attr(b, "x", num(bounds.Min.X))
	attr(b, "y", num(bounds.Min.Y))
	attr(b, "width", num(room.Size))
	attr(b, "height", num(room.Size))
	attr(b, "fill", room.Fill)
	attr(b, "stroke", room.Stroke)
	attr(b, "opacity", num(room.Opacity))
	if hovered {
		attr(b, "stroke-width", "2")
	}
	b.WriteString("/>")

	if room.Symbol != "" {
		b.WriteString("<text")
		attr(b, "x", num(room.SymbolAt.X))
		attr(b, "y", num(room.SymbolAt.Y))
		attr(b, "text-anchor", "middle")
		attr(b, "font-family", fontFamily)
		attr(b, "font-size", num(scene.FontSize))
		attr(b, "fill", scene.SymbolColor)
		attr(b, "pointer-events", "none")
		b.WriteString(">")
		text(b, room.Symbol)
		b.WriteString("</text>")
	}

	b.WriteString("<title>")
	text(b, room.Detail)
	b.WriteString("</title></g>\n")
}

func writeLabel(b *bytes.Buffer, l scene.Label, class string) {
	b.WriteString("<text")
	attr(b, "class", class)
	attr(b, "x", num(l.At.X))
	attr(b, "y", num(l.At.Y))
	attr(b, "text-anchor", "middle")
	attr(b, "font-family", fontFamily)
	attr(b, "font-size", num(l.Size))
	attr(b, "fill", l.Color)
	if l.Bold {
		attr(b, "font-weight", "bold")
	}
	b.WriteString(">")
	text(b, l.Text)
	b.WriteString("</text>\n")
}

// writePanel draws the hover box with one tspan per detail line.
func writePanel(b *bytes.Buffer, p scene.Panel) {
	bounds := p.Bounds()
	b.WriteString(`<g class="panel" pointer-events="none">`)
	b.WriteString("<rect")
	attr(b, "x", num(bounds.Min.X))
	attr(b, "y", num(bounds.Min.Y))
	attr(b, "width", num(p.Width))
	attr(b, "height", num(p.Height))
	attr(b, "fill", p.Fill)
	attr(b, "stroke", p.Stroke)
	b.WriteString("/>")

	lineHeight := p.Font * 1.2
	top := p.Center.Y - lineHeight*float64(len(p.Lines)-1)/2 + p.Font/3
	b.WriteString("<text")
	attr(b, "text-anchor", "middle")
	attr(b, "font-family", fontFamily)
	attr(b, "font-size", num(p.Font))
	attr(b, "fill", p.Color)
	b.WriteString(">")
	for i, line := range p.Lines {
		b.WriteString("<tspan")
		attr(b, "x", num(p.Center.X))
		attr(b, "y", num(top+lineHeight*float64(i)))
		b.WriteString(">")
		text(b, line)
		b.WriteString("</tspan>")
	}
	b.WriteString("</text></g>\n")
}

// writeLevels draws the level list in the top-left corner with the active level in bold.
func writeLevels(b *bytes.Buffer, levels []int, active int) {
	b.WriteString(`<text class="levels" x="8" y="20"`)
	attr(b, "font-family", fontFamily)
	attr(b, "font-size", num(scene.FontSize))
	attr(b, "fill", scene.TitleColor)
	b.WriteString(">Levels: ")
	for i, mark := range view.LevelMarks(levels, active) {
		if i > 0 {
			b.WriteString(", ")
		}
		if strings.HasPrefix(mark, "*") {
			b.WriteString(`<tspan font-weight="bold">`)
			text(b, mark)
			b.WriteString("</tspan>")
			continue
		}
		text(b, mark)
	}
	b.WriteString("</text>\n")
}

func attr(b *bytes.Buffer, name, value string) {
	b.WriteString(" ")
	b.WriteString(name)
	b.WriteString(`="`)
	text(b, value)
	b.WriteString(`"`)
}

func text(b *bytes.Buffer, s string) {
	// EscapeText only fails on writer errors; bytes.Buffer never returns one.
	_ = xml.EscapeText(b, []byte(s))
}

func num(v float64) string {
	if v == 0 {
		return "0"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
