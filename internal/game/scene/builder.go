package scene

import (
	"math"

	"github.com/zyedidia/generic/mapset"
	"go.uber.org/zap"

	"github.com/cory-johannsen/mudmap/internal/game/world"
)

// Builder produces scenes under a fixed exit policy.
type Builder struct {
	policy Policy
	logger *zap.Logger
}

// NewBuilder creates a Builder.
//
// Precondition: logger must be non-nil.
func NewBuilder(policy Policy, logger *zap.Logger) *Builder {
	return &Builder{policy: policy, logger: logger}
}

// Build lays out the rooms of area on level and resolves their exits.
// The result depends only on area, level and the builder's policy. Exits
// that retrace an already drawn line, such as a north/south pair, yield one path.
//
// Precondition: area must be non-nil.
// Postcondition: Returns a non-nil Scene; Rooms and Paths are non-nil and may be empty.
func (b *Builder) Build(area *world.Area, level int) *Scene {
	sc := &Scene{
		AreaID: area.ID,
		Level:  level,
		Levels: append([]int{}, area.Levels...),
		Rooms:  []DrawableRoom{},
		Paths:  []DrawablePath{},
	}
	drawn := mapset.New[segment]()

	for _, id := range area.RoomIDs() {
		room := area.Rooms[id]
		if room.Coord.Z != level {
			continue
		}
		center := Position(room.Coord)
		sc.Rooms = append(sc.Rooms, DrawableRoom{
			ID:       room.ID,
			Center:   center,
			Size:     RoomSize,
			Fill:     fillFor(room.Environment),
			Stroke:   RoomStroke,
			Opacity:  RoomOpacity,
			Symbol:   SymbolFor(room),
			SymbolAt: Point{X: center.X, Y: center.Y + FontSize/3},
			Detail:   DetailText(room),
		})
		for _, exit := range room.Exits {
			p, ok := b.resolveExit(area, room, center, exit, level)
			if !ok {
				continue
			}
			// A reciprocal exit retraces an already drawn line.
			seg := segmentOf(p)
			if !p.Stub && drawn.Has(seg) {
				continue
			}
			drawn.Put(seg)
			sc.Paths = append(sc.Paths, p)
		}
	}

	sc.Bounds = roomBounds(sc.Rooms)
	top := Point{X: sc.Bounds.Center().X, Y: sc.Bounds.Min.Y}
	sc.Title = Label{
		Text:  area.Name,
		At:    Point{X: top.X, Y: top.Y - FontSize},
		Size:  FontSize,
		Color: TitleColor,
		Bold:  true,
	}
	return sc
}

// resolveExit turns one exit of a visible room into a path, if the policy allows.
func (b *Builder) resolveExit(area *world.Area, room *world.Room, from Point, exit world.Exit, level int) (DrawablePath, bool) {
	target, ok := area.Rooms[exit.Target]
	if !ok {
		if b.policy.StubDangling {
			return b.stub(room, from, exit, "")
		}
		b.skipped(room, exit, "target not found")
		return DrawablePath{}, false
	}

	if target.Coord.Z != level {
		if b.policy.StubCrossLevel {
			return b.stub(room, from, exit, target.ID)
		}
		b.skipped(room, exit, "target on another level")
		return DrawablePath{}, false
	}

	to := Position(target.Coord)
	if exit.Override != nil {
		to = gridPoint(exit.Override.X, exit.Override.Y)
	}
	return DrawablePath{
		From:      from,
		To:        to,
		Style:     PathStyleFor(exit.Direction, b.policy.WarpDirection),
		Direction: exit.Direction,
		FromRoom:  room.ID,
		ToRoom:    target.ID,
	}, true
}

func (b *Builder) stub(room *world.Room, from Point, exit world.Exit, toRoom string) (DrawablePath, bool) {
	end, ok := stubEnd(from, exit.Direction)
	if !ok {
		b.skipped(room, exit, "direction has no heading")
		return DrawablePath{}, false
	}
	return DrawablePath{
		From:      from,
		To:        end,
		Style:     StubStyle(),
		Direction: exit.Direction,
		FromRoom:  room.ID,
		ToRoom:    toRoom,
		Stub:      true,
	}, true
}

func (b *Builder) skipped(room *world.Room, exit world.Exit, reason string) {
	if !b.policy.LogSkipped {
		return
	}
	b.logger.Debug("exit skipped",
		zap.String("room", room.ID),
		zap.String("direction", string(exit.Direction)),
		zap.String("target", exit.Target),
		zap.String("reason", reason),
	)
}

// segment is an undirected line between two points.
type segment struct {
	a, b Point
}

func segmentOf(p DrawablePath) segment {
	a, b := p.From, p.To
	if b.X < a.X || (b.X == a.X && b.Y < a.Y) {
		a, b = b, a
	}
	return segment{a: a, b: b}
}

// Position returns the screen center of a grid coordinate.
func Position(c world.Coord) Point {
	return gridPoint(c.X, c.Y)
}

func gridPoint(x, y int) Point {
	return Point{X: float64(x) * GridSize, Y: float64(-y) * GridSize}
}

// roomBounds encloses every room unit.
//
// Postcondition: Returns the zero Rect when rooms is empty.
func roomBounds(rooms []DrawableRoom) Rect {
	if len(rooms) == 0 {
		return Rect{}
	}
	r := Rect{
		Min: Point{X: math.Inf(1), Y: math.Inf(1)},
		Max: Point{X: math.Inf(-1), Y: math.Inf(-1)},
	}
	for _, room := range rooms {
		rb := room.Bounds()
		r.Min.X = math.Min(r.Min.X, rb.Min.X)
		r.Min.Y = math.Min(r.Min.Y, rb.Min.Y)
		r.Max.X = math.Max(r.Max.X, rb.Max.X)
		r.Max.Y = math.Max(r.Max.Y, rb.Max.Y)
	}
	return r
}
