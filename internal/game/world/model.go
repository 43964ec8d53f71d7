// Package world provides the map data model: datasets, areas, rooms, exits,
// environments and the preparation of an area for rendering.
package world

import (
	"sort"
	"strconv"
	"strings"
)

// Direction is a canonical exit name. Standard directions use their long
// form ("north", "up", "in"); custom exits keep their raw name ("worm warp").
type Direction string

// Standard compass, vertical and portal directions.
const (
	North     Direction = "north"
	South     Direction = "south"
	East      Direction = "east"
	West      Direction = "west"
	Northeast Direction = "northeast"
	Northwest Direction = "northwest"
	Southeast Direction = "southeast"
	Southwest Direction = "southwest"
	Up        Direction = "up"
	Down      Direction = "down"
	In        Direction = "in"
	Out       Direction = "out"
)

// StandardDirections contains every direction with a short code.
var StandardDirections = []Direction{
	North, South, East, West,
	Northeast, Northwest, Southeast, Southwest,
	Up, Down, In, Out,
}

var shortCodes = map[Direction]string{
	North:     "n",
	South:     "s",
	East:      "e",
	West:      "w",
	Northeast: "ne",
	Northwest: "nw",
	Southeast: "se",
	Southwest: "sw",
	Up:        "u",
	Down:      "d",
	In:        "in",
	Out:       "out",
}

var fromShortCode = func() map[string]Direction {
	m := make(map[string]Direction, len(shortCodes))
	for d, code := range shortCodes {
		m[code] = d
	}
	return m
}()

// ParseDirection normalizes a raw exit name. Short codes ("n", "u") and any
// letter case map onto the standard direction; anything else is kept verbatim
// apart from surrounding whitespace.
//
// Postcondition: Returns "" only when raw is blank.
func ParseDirection(raw string) Direction {
	trimmed := strings.TrimSpace(raw)
	lower := strings.ToLower(trimmed)
	if d, ok := fromShortCode[lower]; ok {
		return d
	}
	if _, ok := shortCodes[Direction(lower)]; ok {
		return Direction(lower)
	}
	return Direction(trimmed)
}

// IsStandard reports whether d has a short code.
func (d Direction) IsStandard() bool {
	_, ok := shortCodes[d]
	return ok
}

// Short returns the short code for d, or the raw name for custom exits.
func (d Direction) Short() string {
	if code, ok := shortCodes[d]; ok {
		return code
	}
	return string(d)
}

// RoomSource selects how an area's rooms are resolved from a dataset.
type RoomSource int

const (
	// Embedded areas carry their own room mapping.
	Embedded RoomSource = iota
	// Derived areas are rebuilt from the dataset-wide room mapping.
	Derived
)

// String returns "embedded" or "derived".
func (s RoomSource) String() string {
	if s == Derived {
		return "derived"
	}
	return "embedded"
}

// ParseRoomSource converts a configuration value into a RoomSource.
//
// Postcondition: Returns (source, true) for "embedded" or "derived", (Embedded, false) otherwise.
func ParseRoomSource(s string) (RoomSource, bool) {
	switch strings.ToLower(s) {
	case "embedded":
		return Embedded, true
	case "derived":
		return Derived, true
	}
	return Embedded, false
}

// Coord is a room's integer grid position. Z selects the level.
type Coord struct {
	X int
	Y int
	Z int
}

// GridPoint is a two-dimensional grid position used for explicit exit endpoints.
type GridPoint struct {
	X int
	Y int
}

// Environment is shared display metadata referenced by rooms.
type Environment struct {
	ID    string
	Name  string
	Color string
}

// Exit is a directed connection from a room.
type Exit struct {
	// Direction is the normalized exit name.
	Direction Direction
	// Target is the destination room ID; it may not resolve.
	Target string
	// Override is an explicit endpoint that replaces the target's position.
	Override *GridPoint
}

// Features are the symbolic room flags carried in a room's attribute bag.
type Features struct {
	Shop          bool
	CommodityShop bool
	Bank          bool
	Grate         bool
}

// Attribute keys that carry room features.
const (
	FeatureShop          = "feature-shop"
	FeatureCommodityShop = "feature-commodityshop"
	FeatureBank          = "feature-bank"
	FeatureGrate         = "feature-grate"
)

// FeaturesFromAttributes reads the feature flags from an attribute bag.
// Values "true", "1", "yes" (any case) count as set.
func FeaturesFromAttributes(attrs map[string]string) Features {
	return Features{
		Shop:          truthy(attrs[FeatureShop]),
		CommodityShop: truthy(attrs[FeatureCommodityShop]),
		Bank:          truthy(attrs[FeatureBank]),
		Grate:         truthy(attrs[FeatureGrate]),
	}
}

func truthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "1", "yes":
		return true
	}
	return false
}

// RoomRecord is a room as stored in a dataset, before preparation.
type RoomRecord struct {
	Coord         Coord
	Name          string
	Title         string
	EnvironmentID string
	// Area is the owning area ID; only set for dataset-wide rooms.
	Area  string
	Exits []Exit
	// Attributes is the raw attribute bag; nil when the room has none.
	Attributes map[string]string
}

// AreaRecord is an area as stored in a dataset.
type AreaRecord struct {
	Name string
	// Rooms holds embedded rooms keyed by room ID; nil for derived areas.
	Rooms map[string]RoomRecord
}

// Dataset is one loaded map document. It is never mutated after loading.
type Dataset struct {
	// Source is the name the dataset was loaded under.
	Source       string
	Areas        map[string]AreaRecord
	Rooms        map[string]RoomRecord
	Environments map[string]Environment
}

// Room is a render-ready room with its environment resolved.
type Room struct {
	ID          string
	Coord       Coord
	Name        string
	Title       string
	Environment Environment
	Exits       []Exit
	// Features is nil when the room carries no attribute bag.
	Features   *Features
	Attributes map[string]string
}

// DisplayTitle returns the title, falling back to the name.
func (r *Room) DisplayTitle() string {
	if r.Title != "" {
		return r.Title
	}
	return r.Name
}

// ExitForDirection returns the first exit in the given direction, if any.
//
// Postcondition: Returns (exit, true) if found, or (Exit{}, false) otherwise.
func (r *Room) ExitForDirection(dir Direction) (Exit, bool) {
	for _, e := range r.Exits {
		if e.Direction == dir {
			return e, true
		}
	}
	return Exit{}, false
}

// Area is a prepared, render-ready region. It is rebuilt from the dataset on
// every selection change and owns deep copies of its rooms.
type Area struct {
	ID     string
	Name   string
	Rooms  map[string]*Room
	Levels []int
}

// RoomIDs returns the room IDs in drawing order: numeric IDs ascending first,
// then the remaining IDs lexically.
func (a *Area) RoomIDs() []string {
	ids := make([]string, 0, len(a.Rooms))
	for id := range a.Rooms {
		ids = append(ids, id)
	}
	SortIDs(ids)
	return ids
}

// HasLevel reports whether level is one of the area's levels.
func (a *Area) HasLevel(level int) bool {
	for _, l := range a.Levels {
		if l == level {
			return true
		}
	}
	return false
}

// SortIDs orders IDs numerically where both parse as integers, numbers first.
func SortIDs(ids []string) {
	sort.Slice(ids, func(i, j int) bool {
		a, b := ids[i], ids[j]
		na, errA := strconv.Atoi(a)
		nb, errB := strconv.Atoi(b)
		switch {
		case errA == nil && errB == nil:
			return na < nb
		case errA == nil:
			return true
		case errB == nil:
			return false
		}
		return a < b
	})
}
