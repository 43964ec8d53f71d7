// Package ansi draws view frames onto a character grid for terminal surfaces.
package ansi

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/gookit/color"

	"github.com/cory-johannsen/mudmap/internal/game/scene"
	"github.com/cory-johannsen/mudmap/internal/game/view"
)

// Screen units covered by one character cell at zoom 1. A grid step of
// scene.GridSize spans four columns and two rows.
const (
	CellWidth  = 8.0
	CellHeight = 16.0
)

var hexColor = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

var forceColor sync.Once

type painter interface {
	Sprint(a ...any) string
}

var (
	styleTitle  = color.Style{color.FgGray, color.OpBold}
	styleLevel  = color.Style{color.OpBold}
	styleHeader = color.Style{color.FgCyan}
	stylePanel  = color.Style{color.FgBlack, color.BgWhite}
	styleSymbol = color.Style{color.FgBlack, color.OpBold}
)

// Renderer draws frames as lines of text.
type Renderer struct {
	colors bool
}

// New creates a Renderer. With colors enabled, escape codes are emitted even
// when the process itself is not attached to a terminal, since the output is
// written to remote clients.
func New(colors bool) *Renderer {
	if colors {
		forceColor.Do(func() { color.ForceOpenColor() })
	}
	return &Renderer{colors: colors}
}

type cell struct {
	ch    rune
	paint painter
}

type canvas struct {
	cols, rows int
	cells      [][]cell
}

func newCanvas(cols, rows int) *canvas {
	c := &canvas{cols: cols, rows: rows, cells: make([][]cell, rows)}
	for y := range c.cells {
		c.cells[y] = make([]cell, cols)
		for x := range c.cells[y] {
			c.cells[y][x] = cell{ch: ' '}
		}
	}
	return c
}

func (c *canvas) set(x, y int, ch rune, p painter) {
	if x < 0 || y < 0 || x >= c.cols || y >= c.rows {
		return
	}
	c.cells[y][x] = cell{ch: ch, paint: p}
}

func (c *canvas) write(x, y int, s string, p painter) {
	for _, ch := range s {
		c.set(x, y, ch, p)
		x++
	}
}

// Colors reports whether the renderer emits escape codes.
func (r *Renderer) Colors() bool {
	return r.colors
}

// Render draws f onto a cols×rows grid plus one header line.
//
// Precondition: cols and rows must be positive; f.Scene must be non-nil.
// Postcondition: Returns rows+1 lines.
func (r *Renderer) Render(f view.Frame, cols, rows int) []string {
	vp := view.Viewport{Width: float64(cols) * CellWidth, Height: float64(rows) * CellHeight}
	tr := view.TransformFor(f.Scene, f.State, vp)
	toCell := func(p scene.Point) (int, int) {
		return cellOf(tr.Apply(p))
	}

	c := newCanvas(cols, rows)
	// One cell of margin keeps the glyph at the canvas edge.
	visible := scene.Rect{
		Min: scene.Point{X: -CellWidth, Y: -CellHeight},
		Max: scene.Point{X: vp.Width + CellWidth, Y: vp.Height + CellHeight},
	}
	for _, p := range f.Scene.Paths {
		from, to, ok := clip(tr.Apply(p.From), tr.Apply(p.To), visible)
		if !ok {
			continue
		}
		x0, y0 := cellOf(from)
		x1, y1 := cellOf(to)
		r.line(c, x0, y0, x1, y1, p.Style)
	}
	for _, room := range f.Scene.Rooms {
		x, y := toCell(room.Center)
		sym := room.Symbol
		if sym == "" {
			sym = " "
		}
		fill := r.background(room.Fill)
		c.set(x-1, y, '[', fill)
		c.set(x, y, []rune(sym)[0], r.stack(fill, styleSymbol))
		c.set(x+1, y, ']', fill)
		if room.ID == f.State.Hover {
			c.set(x-2, y, '>', r.plain(styleLevel))
			c.set(x+2, y, '<', r.plain(styleLevel))
		}
	}

	tx, ty := toCell(f.Scene.Title.At)
	title := f.Scene.Title.Text
	c.write(tx-utf8.RuneCountInString(title)/2, ty, title, r.plain(styleTitle))

	if f.Panel != nil {
		r.panel(c, *f.Panel, toCell)
	}

	lines := make([]string, 0, rows+1)
	lines = append(lines, r.header(f))
	for _, row := range c.cells {
		lines = append(lines, r.flatten(row))
	}
	return lines
}

// header is the status line: area, levels with the active one marked, zoom.
func (r *Renderer) header(f view.Frame) string {
	var b strings.Builder
	b.WriteString(r.paint(styleHeader, fmt.Sprintf("[%s] %s", f.State.Source, f.Scene.Title.Text)))
	b.WriteString("  Levels: ")
	for i, mark := range view.LevelMarks(f.Levels, f.State.Level) {
		if i > 0 {
			b.WriteString(", ")
		}
		if strings.HasPrefix(mark, "*") {
			mark = r.paint(styleLevel, mark)
		}
		b.WriteString(mark)
	}
	b.WriteString(fmt.Sprintf("  Zoom: %.2f", f.State.Zoom))
	return b.String()
}

// line rasterizes a path with Bresenham's algorithm. Dashed paths skip every
// other cell.
func (r *Renderer) line(c *canvas, x0, y0, x1, y1 int, style scene.PathStyle) {
	dx, dy := x1-x0, y1-y0
	ch := '-'
	switch {
	case dx == 0 && dy == 0:
		return
	case dx == 0:
		ch = '|'
	case dy == 0:
		ch = '-'
	case (dx > 0) == (dy > 0):
		ch = '\\'
	default:
		ch = '/'
	}
	p := r.foreground(style.Stroke)

	adx, ady := abs(dx), -abs(dy)
	sx, sy := sign(dx), sign(dy)
	err := adx + ady
	x, y := x0, y0
	for step := 0; ; step++ {
		if !style.Dashed || step%2 == 0 {
			c.set(x, y, ch, p)
		}
		if x == x1 && y == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= ady {
			err += ady
			x += sx
		}
		if e2 <= adx {
			err += adx
			y += sy
		}
	}
}

func cellOf(q scene.Point) (int, int) {
	return int(math.Floor(q.X / CellWidth)), int(math.Floor(q.Y / CellHeight))
}

// clip trims the segment a-b to r with the Liang-Barsky algorithm. ok is
// false when no part of it lies inside r.
func clip(a, b scene.Point, r scene.Rect) (scene.Point, scene.Point, bool) {
	dx, dy := b.X-a.X, b.Y-a.Y
	t0, t1 := 0.0, 1.0
	edges := [4][2]float64{
		{-dx, a.X - r.Min.X},
		{dx, r.Max.X - a.X},
		{-dy, a.Y - r.Min.Y},
		{dy, r.Max.Y - a.Y},
	}
	for _, e := range edges {
		p, q := e[0], e[1]
		if p == 0 {
			if q < 0 {
				return a, b, false
			}
			continue
		}
		t := q / p
		if p < 0 {
			t0 = max(t0, t)
		} else {
			t1 = min(t1, t)
		}
		if t0 > t1 {
			return a, b, false
		}
	}
	return scene.Point{X: a.X + t0*dx, Y: a.Y + t0*dy},
		scene.Point{X: a.X + t1*dx, Y: a.Y + t1*dy}, true
}

// panel draws the detail box in the rows just above the hovered room, kept
// inside the canvas.
func (r *Renderer) panel(c *canvas, p scene.Panel, toCell func(scene.Point) (int, int)) {
	width := 0
	for _, l := range p.Lines {
		if n := utf8.RuneCountInString(l); n > width {
			width = n
		}
	}
	width += 4
	height := len(p.Lines) + 2

	cx, roomY := toCell(scene.Point{X: p.Center.X, Y: p.Center.Y + scene.GridSize})
	left := clamp(cx-width/2, 0, c.cols-width)
	top := clamp(roomY-height, 0, c.rows-height)
	paint := r.plain(stylePanel)

	border := "+" + strings.Repeat("-", width-2) + "+"
	c.write(left, top, border, paint)
	for i, l := range p.Lines {
		row := "| " + l + strings.Repeat(" ", width-4-utf8.RuneCountInString(l)) + " |"
		c.write(left, top+1+i, row, paint)
	}
	c.write(left, top+height-1, border, paint)
}

func (r *Renderer) flatten(row []cell) string {
	var b strings.Builder
	end := len(row)
	for end > 0 && row[end-1].ch == ' ' && row[end-1].paint == nil {
		end--
	}
	for _, cl := range row[:end] {
		if cl.paint == nil {
			b.WriteRune(cl.ch)
			continue
		}
		b.WriteString(cl.paint.Sprint(string(cl.ch)))
	}
	return b.String()
}

func (r *Renderer) paint(p painter, s string) string {
	if !r.colors {
		return s
	}
	return p.Sprint(s)
}

func (r *Renderer) plain(p painter) painter {
	if !r.colors {
		return nil
	}
	return p
}

// stack applies outer around inner so both escape sequences take effect.
func (r *Renderer) stack(outer, inner painter) painter {
	if !r.colors || outer == nil {
		return r.plain(inner)
	}
	return stacked{outer: outer, inner: inner}
}

type stacked struct {
	outer, inner painter
}

func (s stacked) Sprint(a ...any) string {
	return s.outer.Sprint(s.inner.Sprint(a...))
}

// foreground maps a stroke color to a terminal color.
func (r *Renderer) foreground(css string) painter {
	if !r.colors {
		return nil
	}
	switch strings.ToLower(css) {
	case "red":
		return color.Style{color.FgRed}
	case "blue":
		return color.Style{color.FgBlue}
	}
	if !hexColor.MatchString(css) {
		return nil
	}
	return color.HEX(css).C256()
}

// background maps a room fill to a terminal background color.
func (r *Renderer) background(css string) painter {
	if !r.colors || !hexColor.MatchString(css) {
		return nil
	}
	return color.HEX(css, true).C256()
}

// Strip removes escape codes, leaving the visible text.
func Strip(s string) string {
	return color.ClearCode(s)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func sign(v int) int {
	switch {
	case v < 0:
		return -1
	case v > 0:
		return 1
	}
	return 0
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
