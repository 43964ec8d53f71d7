package view

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/cory-johannsen/mudmap/internal/game/scene"
	"github.com/cory-johannsen/mudmap/internal/game/world"
)

func testCatalog(t *testing.T) *world.Store {
	t.Helper()
	store := world.NewStore(zaptest.NewLogger(t))
	store.Add("crowd", &world.Dataset{
		Source: "crowd",
		Areas: map[string]world.AreaRecord{
			"5": {Name: "Town, Little (Ruins)", Rooms: map[string]world.RoomRecord{
				"1": {Name: "Square", Exits: []world.Exit{{Direction: world.North, Target: "2"}}},
				"2": {Coord: world.Coord{X: 1}, Name: "Market", Exits: []world.Exit{{Direction: world.South, Target: "1"}}},
				"3": {Coord: world.Coord{Z: 1}, Name: "Tower"},
			}},
			"6": {Name: "Empty Field", Rooms: map[string]world.RoomRecord{}},
		},
		Environments: map[string]world.Environment{},
	}, world.Embedded)
	store.Add("official", &world.Dataset{
		Source: "official",
		Areas:  map[string]world.AreaRecord{"5": {Name: "Caves"}},
		Rooms: map[string]world.RoomRecord{
			"10": {Area: "5", Name: "Cave"},
		},
		Environments: map[string]world.Environment{},
	}, world.Derived)
	return store
}

func newTestSession(t *testing.T, logger *zap.Logger, initial State) *Session {
	t.Helper()
	catalog := testCatalog(t)
	s, err := NewSession(catalog, world.NewPreparer(logger), scene.NewBuilder(scene.DefaultPolicy(), logger), logger, initial)
	require.NoError(t, err)
	return s
}

func TestSession_EndToEnd(t *testing.T) {
	s := newTestSession(t, zaptest.NewLogger(t), Initial("#5", Defaults{Source: "crowd", AreaID: "11"}))

	assert.Len(t, s.Scene().Rooms, 2)
	assert.Len(t, s.Scene().Paths, 1)
	assert.Equal(t, []int{0, 1}, s.Area().Levels)

	out := s.Dispatch(KeyPress{Key: ']'})
	assert.True(t, out.Rebuild)
	assert.Equal(t, 1, s.State().Level)
	require.Len(t, s.Scene().Rooms, 1)
	assert.Equal(t, "3", s.Scene().Rooms[0].ID)
	assert.Empty(t, s.Scene().Paths)
}

func TestSession_UnknownSource(t *testing.T) {
	catalog := testCatalog(t)
	logger := zaptest.NewLogger(t)
	_, err := NewSession(catalog, world.NewPreparer(logger), scene.NewBuilder(scene.DefaultPolicy(), logger), logger, State{Source: "nope", AreaID: "5"})
	require.Error(t, err)

	s := newTestSession(t, logger, State{Source: "crowd", AreaID: "5", Zoom: 1})
	out := s.Dispatch(SelectSource{Source: "nope"})
	assert.False(t, out.Changed)
	assert.Equal(t, "crowd", s.State().Source)
}

func TestSession_AreaNotFoundShowsEmptyScene(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	s := newTestSession(t, zap.New(core), State{Source: "crowd", AreaID: "404", Zoom: 1})

	assert.Empty(t, s.Scene().Rooms)
	assert.Empty(t, s.Area().Levels)
	assert.Equal(t, 1, logs.FilterMessage("showing empty area").Len())

	out := s.Dispatch(SelectArea{AreaID: "5"})
	assert.Equal(t, "#5", out.Anchor)
	assert.Len(t, s.Scene().Rooms, 2)
}

func TestSession_EmptyArea(t *testing.T) {
	s := newTestSession(t, zaptest.NewLogger(t), State{Source: "crowd", AreaID: "6", Zoom: 1})
	assert.Empty(t, s.Scene().Rooms)
	assert.Equal(t, "Empty Field", s.Scene().Title.Text)
}

func TestSession_SelectSource(t *testing.T) {
	s := newTestSession(t, zaptest.NewLogger(t), State{Source: "crowd", AreaID: "5", Level: 1, Zoom: 1})
	out := s.Dispatch(SelectSource{Source: "official"})
	assert.True(t, out.Rebuild)
	assert.Equal(t, 0, s.State().Level)
	require.Len(t, s.Scene().Rooms, 1)
	assert.Equal(t, "10", s.Scene().Rooms[0].ID)
	assert.Equal(t, []world.AreaOption{{ID: "5", Name: "Caves"}}, s.AreaOptions())
}

func TestSession_Hover(t *testing.T) {
	s := newTestSession(t, zaptest.NewLogger(t), State{Source: "crowd", AreaID: "5", Zoom: 1})

	out := s.Dispatch(HoverEnter{RoomID: "3"})
	assert.False(t, out.Changed, "rooms on another level cannot be hovered")

	out = s.Dispatch(HoverEnter{RoomID: "2"})
	assert.True(t, out.Changed)
	f := s.Frame()
	require.NotNil(t, f.Panel)
	assert.Equal(t, "2", f.Panel.RoomID)

	s.Dispatch(KeyPress{Key: ']'})
	_, ok := s.Panel()
	assert.False(t, ok, "a rebuild clears the hover")
}

func TestSession_PointAt(t *testing.T) {
	s := newTestSession(t, zaptest.NewLogger(t), State{Source: "crowd", AreaID: "5", Zoom: 1})
	vp := Viewport{Width: 800, Height: 600}
	room := s.Scene().Rooms[0]
	at := TransformFor(s.Scene(), s.State(), vp).Apply(room.Center)

	out := s.Dispatch(PointAt{At: at, Viewport: vp})
	assert.True(t, out.Changed)
	assert.Equal(t, room.ID, s.State().Hover)

	out = s.Dispatch(PointAt{At: scene.Point{X: -1e6, Y: -1e6}, Viewport: vp})
	assert.True(t, out.Changed)
	assert.Empty(t, s.State().Hover)
}

func TestSession_Sources(t *testing.T) {
	s := newTestSession(t, zaptest.NewLogger(t), State{Source: "crowd", AreaID: "5"})
	assert.Equal(t, []string{"crowd", "official"}, s.Sources())
	assert.Equal(t, 1.0, s.State().Zoom)
	assert.Len(t, s.AreaOptions(), 2)
}

func TestRender(t *testing.T) {
	catalog := testCatalog(t)
	logger := zaptest.NewLogger(t)
	p := world.NewPreparer(logger)
	b := scene.NewBuilder(scene.DefaultPolicy(), logger)

	area, sc, err := Render(catalog, p, b, State{Source: "crowd", AreaID: "5"})
	require.NoError(t, err)
	assert.Equal(t, "5", area.ID)
	assert.Len(t, sc.Rooms, 2)

	_, _, err = Render(catalog, p, b, State{Source: "crowd", AreaID: "404"})
	assert.True(t, world.IsAreaNotFound(err))

	_, _, err = Render(catalog, p, b, State{Source: "nope"})
	assert.Error(t, err)
}

func TestTransformFor(t *testing.T) {
	sc := &scene.Scene{
		Bounds: scene.Rect{Min: scene.Point{X: -8, Y: -8}, Max: scene.Point{X: 40, Y: 8}},
		Title:  scene.Label{At: scene.Point{X: 16, Y: -24}, Size: 16},
	}
	vp := Viewport{Width: 200, Height: 100}

	tr := TransformFor(sc, State{Zoom: 1}, vp)
	// content spans y -40..8, so its center is (16, -16)
	assert.Equal(t, scene.Point{X: 100, Y: 50}, tr.Apply(scene.Point{X: 16, Y: -16}))

	tr = TransformFor(sc, State{Zoom: 2, Pan: scene.Point{X: 10, Y: 5}}, vp)
	assert.Equal(t, scene.Point{X: 110, Y: 55}, tr.Apply(scene.Point{X: 16, Y: -16}))
	assert.Equal(t, scene.Point{X: 16, Y: -16}, tr.Invert(scene.Point{X: 110, Y: 55}))
}
