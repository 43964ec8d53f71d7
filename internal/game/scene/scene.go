// Package scene turns a prepared area level into drawable primitives.
//
// Coordinates are screen units: a room at grid (x, y) is centered at
// (x*GridSize, -y*GridSize), so world-up is screen-up.
package scene

import (
	"github.com/cory-johannsen/mudmap/internal/config"
	"github.com/cory-johannsen/mudmap/internal/game/world"
)

// Fixed layout constants.
const (
	GridSize = 32.0
	FontSize = 16.0
	// RoomSize is the edge length of a room unit.
	RoomSize = GridSize / 2
	// StubLength is the length of a directional stub path.
	StubLength = GridSize / 2
)

// Colors and opacity shared by every rendering surface.
const (
	DefaultFill  = "#aaa"
	RoomStroke   = "#1D2021"
	RoomOpacity  = 0.7
	SymbolColor  = "#000"
	TitleColor   = "#504945"
	PanelFill    = "#EEE"
	PanelStroke  = "#1D2021"
	PanelText    = "#333"
	PanelFont    = FontSize / 2
	DefaultColor = "#504945"
	StubColor    = "#ccc"
	WarpColor    = "#999"
	PortalColor  = "red"
	VerticalLine = "blue"
)

// DashPattern is the on/off pattern of every dashed path.
var DashPattern = [2]float64{2, 6}

// Point is a screen position.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add returns p translated by q.
func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y}
}

// Rect is an axis-aligned screen rectangle.
type Rect struct {
	Min Point `json:"min"`
	Max Point `json:"max"`
}

// Width returns the horizontal extent.
func (r Rect) Width() float64 { return r.Max.X - r.Min.X }

// Height returns the vertical extent.
func (r Rect) Height() float64 { return r.Max.Y - r.Min.Y }

// Center returns the midpoint.
func (r Rect) Center() Point {
	return Point{X: (r.Min.X + r.Max.X) / 2, Y: (r.Min.Y + r.Max.Y) / 2}
}

// Contains reports whether p lies inside r, edges included.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.Min.X && p.X <= r.Max.X && p.Y >= r.Min.Y && p.Y <= r.Max.Y
}

// PathStyle is the stroke of one path.
type PathStyle struct {
	Stroke string  `json:"stroke"`
	Width  float64 `json:"width"`
	Dashed bool    `json:"dashed"`
}

// DrawableRoom is the visual unit of one room on the active level.
type DrawableRoom struct {
	ID       string  `json:"id"`
	Center   Point   `json:"center"`
	Size     float64 `json:"size"`
	Fill     string  `json:"fill"`
	Stroke   string  `json:"stroke"`
	Opacity  float64 `json:"opacity"`
	Symbol   string  `json:"symbol,omitempty"`
	SymbolAt Point   `json:"symbolAt"`
	// Detail is the hover text, three newline-separated lines.
	Detail string `json:"detail"`
}

// Bounds returns the room unit's square.
func (r DrawableRoom) Bounds() Rect {
	half := r.Size / 2
	return Rect{
		Min: Point{X: r.Center.X - half, Y: r.Center.Y - half},
		Max: Point{X: r.Center.X + half, Y: r.Center.Y + half},
	}
}

// DrawablePath is one resolved exit.
type DrawablePath struct {
	From      Point           `json:"from"`
	To        Point           `json:"to"`
	Style     PathStyle       `json:"style"`
	Direction world.Direction `json:"direction"`
	FromRoom  string          `json:"fromRoom"`
	// ToRoom is empty for stubs of unresolved exits.
	ToRoom string `json:"toRoom,omitempty"`
	// Stub marks a directional hint instead of a path to the target.
	Stub bool `json:"stub,omitempty"`
}

// Label is a centered text element.
type Label struct {
	Text  string  `json:"text"`
	At    Point   `json:"at"`
	Size  float64 `json:"size"`
	Color string  `json:"color"`
	Bold  bool    `json:"bold"`
}

// Scene is the full set of primitives for one (area, level) pair.
type Scene struct {
	AreaID string `json:"areaId"`
	Level  int    `json:"level"`
	Levels []int  `json:"levels"`
	// Rooms are in drawing order; a later room covers an earlier one on the same cell.
	Rooms []DrawableRoom `json:"rooms"`
	Paths []DrawablePath `json:"paths"`
	Title Label          `json:"title"`
	// Bounds encloses every room unit; zero for an empty scene.
	Bounds Rect `json:"bounds"`
}

// Room returns the drawable room with the given ID.
//
// Postcondition: Returns (room, true) if drawn on this level, or (DrawableRoom{}, false).
func (s *Scene) Room(id string) (DrawableRoom, bool) {
	for i := len(s.Rooms) - 1; i >= 0; i-- {
		if s.Rooms[i].ID == id {
			return s.Rooms[i], true
		}
	}
	return DrawableRoom{}, false
}

// RoomAt returns the topmost room whose unit contains p.
func (s *Scene) RoomAt(p Point) (DrawableRoom, bool) {
	for i := len(s.Rooms) - 1; i >= 0; i-- {
		if s.Rooms[i].Bounds().Contains(p) {
			return s.Rooms[i], true
		}
	}
	return DrawableRoom{}, false
}

// Policy selects how exits that cannot be drawn to a target on the active
// level are handled.
type Policy struct {
	// StubCrossLevel draws a directional stub for exits to another level
	// instead of suppressing them.
	StubCrossLevel bool
	// StubDangling draws a directional stub for unresolved exits instead of
	// skipping them.
	StubDangling bool
	// WarpDirection is the exit name styled as a long-range warp.
	WarpDirection world.Direction
	// LogSkipped reports every skipped exit at debug level.
	LogSkipped bool
}

// DefaultPolicy suppresses cross-level exits and skips dangling ones.
func DefaultPolicy() Policy {
	return Policy{WarpDirection: "worm warp"}
}

// PolicyFromConfig converts the render configuration section.
//
// Precondition: cfg must have passed config validation.
func PolicyFromConfig(cfg config.RenderConfig) Policy {
	p := Policy{
		StubCrossLevel: cfg.CrossLevel == config.CrossLevelStub,
		StubDangling:   cfg.Dangling == config.DanglingStub,
		WarpDirection:  world.ParseDirection(cfg.WarpDirection),
		LogSkipped:     cfg.Debug,
	}
	if p.WarpDirection == "" {
		p.WarpDirection = DefaultPolicy().WarpDirection
	}
	return p
}
