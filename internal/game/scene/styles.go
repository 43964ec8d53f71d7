package scene

import (
	"strings"

	"github.com/cory-johannsen/mudmap/internal/game/world"
)

// Glyphs derived from a room's exit set when it carries no feature flags.
const (
	GlyphFourWay    = "✣"
	GlyphVertical   = "↕"
	GlyphHorizontal = "↔"
	GlyphUp         = "▲"
	GlyphDown       = "▼"
	GlyphIn         = "◆"
	GlyphOut        = "◇"
)

// PathStyleFor returns the stroke of a path drawn for an exit in dir.
func PathStyleFor(dir, warp world.Direction) PathStyle {
	switch {
	case dir == world.In || dir == world.Out:
		return PathStyle{Stroke: PortalColor, Width: 2, Dashed: true}
	case dir == world.Up || dir == world.Down:
		return PathStyle{Stroke: VerticalLine, Width: 2, Dashed: true}
	case warp != "" && dir == warp:
		return PathStyle{Stroke: WarpColor, Width: 1, Dashed: true}
	}
	return PathStyle{Stroke: DefaultColor, Width: 2}
}

// StubStyle is the stroke of every stub path regardless of direction.
func StubStyle() PathStyle {
	return PathStyle{Stroke: StubColor, Width: 1, Dashed: true}
}

// stubVectors are unit offsets in screen coordinates. Directions without an
// entry have no implied heading and never produce a stub.
var stubVectors = map[world.Direction]Point{
	world.North:     {X: 0, Y: -1},
	world.South:     {X: 0, Y: 1},
	world.East:      {X: 1, Y: 0},
	world.West:      {X: -1, Y: 0},
	world.Northeast: {X: 1, Y: -1},
	world.Northwest: {X: -1, Y: -1},
	world.Southeast: {X: 1, Y: 1},
	world.Southwest: {X: -1, Y: 1},
	world.Up:        {X: 0.5, Y: -1},
	world.Down:      {X: -0.5, Y: 1},
}

// stubEnd returns the end of a stub leaving from in direction dir.
//
// Postcondition: Returns (end, false) when dir implies no heading.
func stubEnd(from Point, dir world.Direction) (Point, bool) {
	v, ok := stubVectors[dir]
	if !ok {
		return Point{}, false
	}
	return Point{X: from.X + v.X*StubLength, Y: from.Y + v.Y*StubLength}, true
}

// SymbolFor selects the single annotation of a room. Feature flags win when
// the room carries an attribute bag; otherwise the glyph derives from its exits.
func SymbolFor(room *world.Room) string {
	if room.Features != nil {
		f := room.Features
		switch {
		case f.CommodityShop:
			return "C"
		case f.Bank:
			return "B"
		case f.Shop:
			return "$"
		case f.Grate:
			return "G"
		}
		return ""
	}

	var up, down, in, out bool
	for _, e := range room.Exits {
		switch e.Direction {
		case world.Up:
			up = true
		case world.Down:
			down = true
		case world.In:
			in = true
		case world.Out:
			out = true
		}
	}
	switch {
	case up && down && in && out:
		return GlyphFourWay
	case up && down:
		return GlyphVertical
	case in && out:
		return GlyphHorizontal
	case up:
		return GlyphUp
	case down:
		return GlyphDown
	case in:
		return GlyphIn
	case out:
		return GlyphOut
	}
	return ""
}

// DetailText is the hover text of a room:
//
//	#<id> -- <environment name>
//	<title or name>
//	Exits: <short codes>
func DetailText(room *world.Room) string {
	codes := make([]string, len(room.Exits))
	for i, e := range room.Exits {
		codes[i] = e.Direction.Short()
	}
	var b strings.Builder
	b.WriteString("#")
	b.WriteString(room.ID)
	b.WriteString(" -- ")
	b.WriteString(room.Environment.Name)
	b.WriteString("\n")
	b.WriteString(room.DisplayTitle())
	b.WriteString("\nExits: ")
	b.WriteString(strings.Join(codes, ", "))
	return b.String()
}

// fillFor returns the environment color or the neutral default.
func fillFor(env world.Environment) string {
	if env.Color != "" {
		return env.Color
	}
	return DefaultFill
}
