package view

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/mudmap/internal/game/scene"
	"github.com/cory-johannsen/mudmap/internal/game/world"
)

// Catalog resolves loaded datasets by source name.
type Catalog interface {
	Dataset(name string) (*world.Dataset, world.RoomSource, bool)
	Sources() []string
}

// Session drives one viewer: it applies events to its State and keeps the
// prepared area and built scene in step with it. A Session is not safe for
// concurrent use; each viewer owns one and feeds it a single input stream.
type Session struct {
	catalog  Catalog
	preparer *world.Preparer
	builder  *scene.Builder
	logger   *zap.Logger

	state State
	area  *world.Area
	scene *scene.Scene
}

// NewSession creates a Session in state initial and renders it.
//
// Precondition: catalog, preparer, builder and logger must be non-nil.
// Postcondition: Returns an error only when initial.Source is not loaded.
func NewSession(catalog Catalog, preparer *world.Preparer, builder *scene.Builder, logger *zap.Logger, initial State) (*Session, error) {
	if _, _, ok := catalog.Dataset(initial.Source); !ok {
		return nil, fmt.Errorf("unknown map source %q", initial.Source)
	}
	if initial.Zoom == 0 {
		initial.Zoom = 1
	}
	s := &Session{
		catalog:  catalog,
		preparer: preparer,
		builder:  builder,
		logger:   logger,
		state:    initial,
	}
	s.rebuild()
	return s, nil
}

// Dispatch applies ev and rebuilds the scene when the transition requires it.
//
// Postcondition: Returns the transition outcome; a rejected event leaves the
// state and scene untouched.
func (s *Session) Dispatch(ev Event) Outcome {
	if p, ok := ev.(PointAt); ok {
		ev = s.hit(p)
	}
	switch e := ev.(type) {
	case SelectSource:
		if _, _, ok := s.catalog.Dataset(e.Source); !ok {
			s.logger.Warn("unknown map source", zap.String("source", e.Source))
			return Outcome{Handled: true}
		}
	case HoverEnter:
		if _, ok := s.scene.Room(e.RoomID); !ok {
			return Outcome{}
		}
	}

	next, out := Reduce(s.state, s.area.Levels, ev)
	s.state = next
	if out.Rebuild {
		s.rebuild()
	}
	return out
}

// hit finds the room drawn under a surface point.
func (s *Session) hit(p PointAt) Event {
	tr := TransformFor(s.scene, s.state, p.Viewport)
	if tr.Scale == 0 {
		return HoverLeave{}
	}
	if r, ok := s.scene.RoomAt(tr.Invert(p.At)); ok {
		return HoverEnter{RoomID: r.ID}
	}
	return HoverLeave{}
}

// rebuild prepares the selected area and builds the selected level. An
// unknown area is logged and shown as an empty scene.
func (s *Session) rebuild() {
	ds, rooms, _ := s.catalog.Dataset(s.state.Source)
	area, err := s.preparer.Prepare(ds, s.state.AreaID, rooms)
	if err != nil {
		s.logger.Error("showing empty area",
			zap.String("source", s.state.Source),
			zap.String("area", s.state.AreaID),
			zap.Error(err),
		)
		area = &world.Area{ID: s.state.AreaID, Rooms: map[string]*world.Room{}}
	}
	s.area = area
	s.scene = s.builder.Build(area, s.state.Level)
}

// State returns the current view state.
func (s *Session) State() State {
	return s.state
}

// Area returns the prepared area being shown.
func (s *Session) Area() *world.Area {
	return s.area
}

// Scene returns the scene of the current level.
func (s *Session) Scene() *scene.Scene {
	return s.scene
}

// Panel returns the detail panel of the hovered room, if any.
func (s *Session) Panel() (scene.Panel, bool) {
	return scene.HoverPanel(s.scene, s.state.Hover)
}

// AreaOptions lists the areas of the active source for selection.
func (s *Session) AreaOptions() []world.AreaOption {
	ds, _, ok := s.catalog.Dataset(s.state.Source)
	if !ok {
		return []world.AreaOption{}
	}
	return world.AreaOptions(ds)
}

// Sources lists the loaded dataset names.
func (s *Session) Sources() []string {
	return s.catalog.Sources()
}

// Frame bundles everything a rendering surface needs to draw the session.
type Frame struct {
	State  State
	Scene  *scene.Scene
	Panel  *scene.Panel
	Levels []int
}

// Frame returns the current frame.
func (s *Session) Frame() Frame {
	f := Frame{State: s.state, Scene: s.scene, Levels: s.area.Levels}
	if p, ok := s.Panel(); ok {
		f.Panel = &p
	}
	return f
}

// Render is the pure form of a rebuild: it prepares and builds the scene
// for st from the catalog without touching any Session.
//
// Postcondition: Returns an error when the source is unknown or the area is
// absent; callers wanting an empty scene instead use a Session.
func Render(catalog Catalog, preparer *world.Preparer, builder *scene.Builder, st State) (*world.Area, *scene.Scene, error) {
	ds, rooms, ok := catalog.Dataset(st.Source)
	if !ok {
		return nil, nil, fmt.Errorf("unknown map source %q", st.Source)
	}
	area, err := preparer.Prepare(ds, st.AreaID, rooms)
	if err != nil {
		return nil, nil, err
	}
	return area, builder.Build(area, st.Level), nil
}
