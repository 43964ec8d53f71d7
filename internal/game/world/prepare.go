package world

import (
	"sort"

	"github.com/zyedidia/generic/mapset"
	"go.uber.org/zap"
)

// Preparer turns dataset areas into render-ready Areas.
type Preparer struct {
	logger *zap.Logger
}

// NewPreparer creates a Preparer that reports data-quality issues to logger.
//
// Precondition: logger must be non-nil.
func NewPreparer(logger *zap.Logger) *Preparer {
	return &Preparer{logger: logger}
}

// Prepare resolves areaID in ds using the given room strategy. The returned
// Area owns deep copies of its rooms, so mutating it never affects ds.
//
// Precondition: ds must be non-nil.
// Postcondition: Returns the prepared Area, or an *AreaNotFoundError when
// areaID is absent. An area with zero rooms is logged and still returned.
func (p *Preparer) Prepare(ds *Dataset, areaID string, src RoomSource) (*Area, error) {
	record, ok := ds.Areas[areaID]
	if !ok {
		return nil, &AreaNotFoundError{Source: ds.Source, AreaID: areaID}
	}

	area := &Area{
		ID:    areaID,
		Name:  record.Name,
		Rooms: make(map[string]*Room),
	}

	switch src {
	case Derived:
		for id, rr := range ds.Rooms {
			if rr.Area != areaID {
				continue
			}
			area.Rooms[id] = resolveRoom(id, rr, ds.Environments)
		}
	default:
		for id, rr := range record.Rooms {
			area.Rooms[id] = resolveRoom(id, rr, ds.Environments)
		}
	}

	area.Levels = distinctLevels(area.Rooms)

	if len(area.Rooms) == 0 {
		p.logger.Warn("area has no rooms",
			zap.String("source", ds.Source),
			zap.String("area", areaID),
			zap.String("name", area.Name),
			zap.Error(ErrEmptyArea),
		)
	} else {
		p.logger.Info("area prepared",
			zap.String("source", ds.Source),
			zap.String("area", areaID),
			zap.String("name", area.Name),
			zap.Int("rooms", len(area.Rooms)),
			zap.Ints("levels", area.Levels),
		)
	}
	if n := countCollisions(area.Rooms); n > 0 {
		p.logger.Debug("rooms share a grid cell; the last drawn wins",
			zap.String("area", areaID),
			zap.Int("collisions", n),
		)
	}

	return area, nil
}

// resolveRoom deep-copies a room record, stamps its ID and embeds its environment.
// The owning-area field of derived rooms is not carried over.
func resolveRoom(id string, rr RoomRecord, envs map[string]Environment) *Room {
	env, ok := envs[rr.EnvironmentID]
	if !ok {
		env = Environment{ID: rr.EnvironmentID}
	}

	room := &Room{
		ID:          id,
		Coord:       rr.Coord,
		Name:        rr.Name,
		Title:       rr.Title,
		Environment: env,
	}

	if len(rr.Exits) > 0 {
		room.Exits = make([]Exit, len(rr.Exits))
		for i, e := range rr.Exits {
			room.Exits[i] = e
			if e.Override != nil {
				override := *e.Override
				room.Exits[i].Override = &override
			}
		}
	}

	if rr.Attributes != nil {
		room.Attributes = make(map[string]string, len(rr.Attributes))
		for k, v := range rr.Attributes {
			room.Attributes[k] = v
		}
		features := FeaturesFromAttributes(rr.Attributes)
		room.Features = &features
	}

	return room
}

// distinctLevels returns the sorted distinct Z values of rooms.
func distinctLevels(rooms map[string]*Room) []int {
	set := mapset.New[int]()
	for _, r := range rooms {
		set.Put(r.Coord.Z)
	}
	levels := make([]int, 0, set.Size())
	set.Each(func(z int) {
		levels = append(levels, z)
	})
	sort.Ints(levels)
	return levels
}

// countCollisions counts rooms placed on an already occupied (x, y, z) cell.
func countCollisions(rooms map[string]*Room) int {
	seen := mapset.New[Coord]()
	collisions := 0
	for _, r := range rooms {
		if seen.Has(r.Coord) {
			collisions++
			continue
		}
		seen.Put(r.Coord)
	}
	return collisions
}
