package scene

import (
	"strings"
	"unicode/utf8"
)

// glyphAdvance approximates the advance width of one character of the
// panel font as a fraction of its size.
const glyphAdvance = 0.6

// Panel is the floating detail box shown above the hovered room.
type Panel struct {
	RoomID string   `json:"roomId"`
	Center Point    `json:"center"`
	Width  float64  `json:"width"`
	Height float64  `json:"height"`
	Lines  []string `json:"lines"`
	Fill   string   `json:"fill"`
	Stroke string   `json:"stroke"`
	Color  string   `json:"color"`
	Font   float64  `json:"font"`
}

// Bounds returns the panel rectangle.
func (p Panel) Bounds() Rect {
	return Rect{
		Min: Point{X: p.Center.X - p.Width/2, Y: p.Center.Y - p.Height/2},
		Max: Point{X: p.Center.X + p.Width/2, Y: p.Center.Y + p.Height/2},
	}
}

// HoverPanel derives the detail panel for roomID from sc. Nothing about the
// panel is stored; it is recomputed from the hovered room on every frame.
//
// Postcondition: Returns (panel, false) when roomID is empty or not drawn in sc.
func HoverPanel(sc *Scene, roomID string) (Panel, bool) {
	if roomID == "" {
		return Panel{}, false
	}
	room, ok := sc.Room(roomID)
	if !ok {
		return Panel{}, false
	}
	lines := strings.Split(room.Detail, "\n")
	return Panel{
		RoomID: room.ID,
		Center: Point{X: room.Center.X, Y: room.Center.Y - GridSize},
		Width:  TextWidth(lines, PanelFont) + 4,
		Height: FontSize * 2,
		Lines:  lines,
		Fill:   PanelFill,
		Stroke: PanelStroke,
		Color:  PanelText,
		Font:   PanelFont,
	}, true
}

// TextWidth estimates the rendered width of the widest line at the given font size.
func TextWidth(lines []string, size float64) float64 {
	widest := 0
	for _, l := range lines {
		if n := utf8.RuneCountInString(l); n > widest {
			widest = n
		}
	}
	return float64(widest) * size * glyphAdvance
}
