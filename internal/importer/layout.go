package importer

import (
	"fmt"

	"github.com/cory-johannsen/mudmap/internal/game/world"
)

// directionOffsets places a neighbour one grid cell away. North is +Y.
var directionOffsets = map[world.Direction]world.Coord{
	world.North:     {Y: 1},
	world.South:     {Y: -1},
	world.East:      {X: 1},
	world.West:      {X: -1},
	world.Northeast: {X: 1, Y: 1},
	world.Northwest: {X: -1, Y: 1},
	world.Southeast: {X: 1, Y: -1},
	world.Southwest: {X: -1, Y: -1},
	world.Up:        {Z: 1},
	world.Down:      {Z: -1},
}

// Layout assigns grid coordinates to a zone's rooms by walking exits
// breadth-first from the start room. A room reached through a compass or
// vertical exit is placed one cell in that direction; a room reached any
// other way is placed one cell east. When the wanted cell is taken the room
// takes the nearest free cell on the same level. Rooms the walk never reaches
// start a new walk to the east of everything placed so far.
//
// Precondition: zone must be non-nil.
// Postcondition: every room key is assigned a coordinate, no two rooms share
// one, and a warning is returned for every room not placed where its exit
// pointed.
func Layout(zone *Zone) (map[string]world.Coord, []string) {
	l := &layout{
		coords:   make(map[string]world.Coord, len(zone.Rooms)),
		occupied: make(map[world.Coord]string, len(zone.Rooms)),
		rooms:    make(map[string]*ZoneRoom, len(zone.Rooms)),
	}
	for i := range zone.Rooms {
		l.rooms[zone.Rooms[i].Key] = &zone.Rooms[i]
	}

	if start, ok := l.rooms[zone.Start]; ok {
		l.walk(start.Key, world.Coord{})
	}
	for _, r := range zone.Rooms {
		if _, placed := l.coords[r.Key]; placed {
			continue
		}
		seed := world.Coord{}
		if len(l.coords) > 0 {
			seed.X = l.maxX + 2
		}
		l.walk(r.Key, seed)
	}
	return l.coords, l.warnings
}

type layout struct {
	coords   map[string]world.Coord
	occupied map[world.Coord]string
	rooms    map[string]*ZoneRoom
	maxX     int
	warnings []string
}

func (l *layout) place(key string, c world.Coord) {
	l.coords[key] = c
	l.occupied[c] = key
	if len(l.coords) == 1 || c.X > l.maxX {
		l.maxX = c.X
	}
}

func (l *layout) walk(start string, at world.Coord) {
	l.place(start, l.free(at))
	queue := []string{start}
	for len(queue) > 0 {
		key := queue[0]
		queue = queue[1:]
		from := l.coords[key]
		for _, exit := range l.rooms[key].Exits {
			if _, known := l.rooms[exit.Target]; !known {
				continue
			}
			if _, placed := l.coords[exit.Target]; placed {
				continue
			}
			offset, ok := directionOffsets[world.ParseDirection(exit.Direction)]
			if !ok {
				offset = world.Coord{X: 1}
			}
			want := world.Coord{X: from.X + offset.X, Y: from.Y + offset.Y, Z: from.Z + offset.Z}
			got := l.free(want)
			if got != want {
				l.warnings = append(l.warnings, fmt.Sprintf(
					"room %q: cell (%d,%d,%d) %s of %q is taken by %q; placed at (%d,%d,%d)",
					exit.Target, want.X, want.Y, want.Z, exit.Direction, key, l.occupied[want], got.X, got.Y, got.Z,
				))
			}
			l.place(exit.Target, got)
			queue = append(queue, exit.Target)
		}
	}
}

// free returns want when it is unoccupied, otherwise the first free cell on
// the square rings around it, scanning each ring row by row.
func (l *layout) free(want world.Coord) world.Coord {
	for r := 0; ; r++ {
		for dy := r; dy >= -r; dy-- {
			for dx := -r; dx <= r; dx++ {
				if max(abs(dx), abs(dy)) != r {
					continue
				}
				c := world.Coord{X: want.X + dx, Y: want.Y + dy, Z: want.Z}
				if _, taken := l.occupied[c]; !taken {
					return c
				}
			}
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
