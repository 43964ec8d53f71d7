package importer_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/mudmap/internal/game/world"
	"github.com/cory-johannsen/mudmap/internal/importer"
)

func room(key string, exits ...importer.ZoneExit) importer.ZoneRoom {
	return importer.ZoneRoom{Key: key, Name: key, Exits: exits}
}

func exit(dir, target string) importer.ZoneExit {
	return importer.ZoneExit{Direction: dir, Target: target}
}

func TestLayout_FollowsDirections(t *testing.T) {
	zone := &importer.Zone{
		Start: "a",
		Rooms: []importer.ZoneRoom{
			room("a", exit("north", "b")),
			room("b", exit("east", "c"), exit("south", "a")),
			room("c", exit("up", "d")),
			room("d", exit("sw", "e")),
			room("e"),
		},
	}
	coords, warnings := importer.Layout(zone)
	assert.Empty(t, warnings)
	assert.Equal(t, map[string]world.Coord{
		"a": {},
		"b": {Y: 1},
		"c": {X: 1, Y: 1},
		"d": {X: 1, Y: 1, Z: 1},
		"e": {X: 0, Y: 0, Z: 1},
	}, coords)
}

func TestLayout_StartRoomIsOrigin(t *testing.T) {
	zone := &importer.Zone{
		Start: "b",
		Rooms: []importer.ZoneRoom{room("a"), room("b", exit("west", "a"))},
	}
	coords, _ := importer.Layout(zone)
	assert.Equal(t, world.Coord{}, coords["b"])
	assert.Equal(t, world.Coord{X: -1}, coords["a"])
}

func TestLayout_CustomExitGoesEast(t *testing.T) {
	zone := &importer.Zone{
		Rooms: []importer.ZoneRoom{room("a", exit("portal", "b")), room("b")},
	}
	coords, warnings := importer.Layout(zone)
	assert.Empty(t, warnings)
	assert.Equal(t, world.Coord{X: 1}, coords["b"])
}

func TestLayout_TakenCellMovesToNearestFree(t *testing.T) {
	zone := &importer.Zone{
		Start: "a",
		Rooms: []importer.ZoneRoom{
			room("a", exit("east", "b"), exit("portal", "c")),
			room("b"),
			room("c"),
		},
	}
	coords, warnings := importer.Layout(zone)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], `"c"`)
	assert.Contains(t, warnings[0], `taken by "b"`)
	assert.Equal(t, world.Coord{X: 1}, coords["b"])
	assert.Equal(t, world.Coord{X: 0, Y: 1}, coords["c"], "first free cell of the ring, top row first")
}

func TestLayout_UnreachedRoomsStartEast(t *testing.T) {
	zone := &importer.Zone{
		Start: "a",
		Rooms: []importer.ZoneRoom{
			room("a", exit("east", "b")),
			room("b"),
			room("island", exit("north", "shore")),
			room("shore"),
		},
	}
	coords, warnings := importer.Layout(zone)
	assert.Empty(t, warnings)
	assert.Equal(t, world.Coord{X: 3}, coords["island"])
	assert.Equal(t, world.Coord{X: 3, Y: 1}, coords["shore"])
}

func TestLayout_IgnoresExitsOutsideZone(t *testing.T) {
	zone := &importer.Zone{Rooms: []importer.ZoneRoom{room("a", exit("north", "elsewhere"))}}
	coords, warnings := importer.Layout(zone)
	assert.Empty(t, warnings)
	assert.Equal(t, map[string]world.Coord{"a": {}}, coords)
}

func TestLayout_EveryRoomGetsADistinctCell(t *testing.T) {
	dirs := []string{"north", "south", "east", "west", "ne", "nw", "se", "sw", "up", "down", "in", "hole"}
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(1, 25).Draw(rt, "rooms")
		zone := &importer.Zone{Start: "r0"}
		for i := 0; i < n; i++ {
			r := room(fmt.Sprintf("r%d", i))
			exits := rapid.IntRange(0, 4).Draw(rt, fmt.Sprintf("exits%d", i))
			for j := 0; j < exits; j++ {
				r.Exits = append(r.Exits, exit(
					rapid.SampledFrom(dirs).Draw(rt, "dir"),
					fmt.Sprintf("r%d", rapid.IntRange(0, n-1).Draw(rt, "target")),
				))
			}
			zone.Rooms = append(zone.Rooms, r)
		}

		coords, _ := importer.Layout(zone)
		require.Len(rt, coords, n)
		seen := make(map[world.Coord]string, n)
		for key, c := range coords {
			if other, dup := seen[c]; dup {
				rt.Fatalf("%s and %s share %+v", key, other, c)
			}
			seen[c] = key
		}
		assert.Equal(rt, world.Coord{}, coords["r0"])
	})
}
