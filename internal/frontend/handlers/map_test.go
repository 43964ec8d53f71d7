package handlers

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/mudmap/internal/config"
	"github.com/cory-johannsen/mudmap/internal/frontend/telnet"
	"github.com/cory-johannsen/mudmap/internal/game/scene"
	"github.com/cory-johannsen/mudmap/internal/game/session"
	"github.com/cory-johannsen/mudmap/internal/game/view"
	"github.com/cory-johannsen/mudmap/internal/game/world"
	"github.com/cory-johannsen/mudmap/internal/render/ansi"
	"github.com/cory-johannsen/mudmap/internal/testutil"
)

func testStore(t *testing.T) *world.Store {
	t.Helper()
	store := world.NewStore(zaptest.NewLogger(t))
	store.Add("crowd", &world.Dataset{
		Source: "crowd",
		Areas: map[string]world.AreaRecord{
			"5": {Name: "Town, Little", Rooms: map[string]world.RoomRecord{
				"1": {Name: "Square", Exits: []world.Exit{{Direction: world.East, Target: "2"}}},
				"2": {Coord: world.Coord{X: 1}, Name: "Market"},
				"3": {Coord: world.Coord{Z: 1}, Name: "Tower"},
			}},
			"6": {Name: "Empty Field", Rooms: map[string]world.RoomRecord{}},
		},
		Environments: map[string]world.Environment{},
	}, world.Embedded)
	store.Add("official", &world.Dataset{
		Source: "official",
		Areas:  map[string]world.AreaRecord{"9": {Name: "Caves"}},
		Rooms: map[string]world.RoomRecord{
			"10": {Area: "9", Name: "Cave"},
		},
		Environments: map[string]world.Environment{},
	}, world.Derived)
	return store
}

func testHandler(t *testing.T) (*MapHandler, *session.Manager) {
	t.Helper()
	logger := zaptest.NewLogger(t)
	viewers := session.NewManager()
	h := NewMapHandler(
		testStore(t),
		world.NewPreparer(logger),
		scene.NewBuilder(scene.DefaultPolicy(), logger),
		viewers,
		ansi.New(false),
		view.Defaults{Source: "crowd", AreaID: "5"},
		logger,
	)
	return h, viewers
}

func testBrowser(t *testing.T) (*browser, *session.Manager) {
	t.Helper()
	h, viewers := testHandler(t)
	b, err := h.newBrowser("127.0.0.1:9999")
	require.NoError(t, err)
	return b, viewers
}

func TestBrowser_Areas(t *testing.T) {
	b, _ := testBrowser(t)
	r := b.execute("areas")
	require.Len(t, r.lines, 2)
	assert.Equal(t, "       6  Empty Field", r.lines[0])
	assert.Equal(t, "*      5  Little Town", r.lines[1])
	assert.False(t, r.redraw)
}

func TestBrowser_SelectArea(t *testing.T) {
	b, viewers := testBrowser(t)

	r := b.execute("area #6")
	assert.True(t, r.redraw)
	assert.Equal(t, "6", b.view.State().AreaID)
	assert.Equal(t, []string{b.viewerID}, viewers.ViewersInArea("crowd", "6"))
	assert.Empty(t, viewers.ViewersInArea("crowd", "5"))

	r = b.execute("area 404")
	assert.Equal(t, []string{"No area 404 in crowd."}, r.lines)
	assert.Equal(t, "6", b.view.State().AreaID)

	r = b.execute("area")
	assert.Equal(t, []string{"Usage: area <id>"}, r.lines)
}

func TestBrowser_Sources(t *testing.T) {
	b, viewers := testBrowser(t)

	assert.Equal(t, []string{"* crowd", "  official"}, b.execute("sources").lines)

	r := b.execute("source nope")
	assert.Contains(t, r.lines[0], `Unknown source "nope"`)

	r = b.execute("src official")
	assert.True(t, r.redraw)
	assert.Equal(t, "official", b.view.State().Source)
	v, ok := viewers.Get(b.viewerID)
	require.True(t, ok)
	assert.Equal(t, "official", v.Source)

	r = b.execute("source official")
	assert.Equal(t, []string{"Already showing official."}, r.lines)
}

func TestBrowser_Levels(t *testing.T) {
	b, _ := testBrowser(t)
	assert.Equal(t, []string{"Levels: *0, 1"}, b.execute("levels").lines)

	assert.True(t, b.execute("]").redraw)
	assert.Equal(t, 1, b.view.State().Level)
	assert.Equal(t, []string{"Levels: 0, *1"}, b.execute("lv").lines)

	r := b.execute("upper")
	assert.Contains(t, r.lines[0], "No level there")

	assert.True(t, b.execute("{").redraw)
	assert.Equal(t, 0, b.view.State().Level)

	assert.True(t, b.execute("1").redraw)
	assert.Equal(t, 1, b.view.State().Level)

	r = b.execute("jump")
	assert.Equal(t, []string{"Type a level digit, for example 2."}, r.lines)

	b.execute("area 6")
	assert.Equal(t, []string{"This area has no rooms."}, b.execute("levels").lines)
}

func TestBrowser_Zoom(t *testing.T) {
	b, _ := testBrowser(t)

	// 1.1^16 < 5 < 1.1^17
	for i := 0; i < 16; i++ {
		require.True(t, b.execute("+").redraw, "step %d", i)
	}
	r := b.execute("zoomin")
	assert.Equal(t, []string{"Zoom limit reached."}, r.lines)

	assert.True(t, b.execute("0").redraw)
	assert.Equal(t, 1.0, b.view.State().Zoom)
	assert.Equal(t, []string{"The view is already reset."}, b.execute("reset").lines)

	assert.True(t, b.execute("_").redraw)
	assert.InDelta(t, 0.9, b.view.State().Zoom, 1e-9)
}

func TestBrowser_KeyRun(t *testing.T) {
	b, _ := testBrowser(t)

	assert.True(t, b.execute("+++").redraw)
	assert.InDelta(t, 1.331, b.view.State().Zoom, 1e-9)

	// The run stops at the limit but still redraws.
	assert.True(t, b.execute(strings.Repeat("+", 40)).redraw)
	assert.LessOrEqual(t, b.view.State().Zoom, 5.0)
	assert.Equal(t, []string{"Zoom limit reached."}, b.execute("++").lines)
}

func TestBrowser_Pan(t *testing.T) {
	b, _ := testBrowser(t)

	assert.True(t, b.execute("pan 2 -1").redraw)
	assert.Equal(t, scene.Point{X: 2 * ansi.CellWidth, Y: -ansi.CellHeight}, b.view.State().Pan)

	assert.Equal(t, []string{"Usage: pan <dx> <dy>"}, b.execute("pan left").lines)
	assert.Equal(t, []string{"Usage: pan <dx> <dy>"}, b.execute("pan a b").lines)

	before := b.view.State().Pan
	for _, bad := range []string{"pan NaN 0", "pan 0 Inf", "pan -inf 1"} {
		assert.Equal(t, []string{"Usage: pan <dx> <dy>"}, b.execute(bad).lines, bad)
	}
	assert.Equal(t, before, b.view.State().Pan)
}

func TestBrowser_Look(t *testing.T) {
	b, _ := testBrowser(t)

	assert.True(t, b.execute("look 2").redraw)
	assert.Equal(t, "2", b.view.State().Hover)
	assert.NotNil(t, b.view.Frame().Panel)

	r := b.execute("l 3")
	assert.Equal(t, []string{"No room 3 on this level."}, r.lines)
	assert.Equal(t, "2", b.view.State().Hover)

	assert.True(t, b.execute("unlook").redraw)
	assert.Empty(t, b.view.State().Hover)
}

func TestBrowser_WhoHelpQuit(t *testing.T) {
	b, viewers := testBrowser(t)
	_, err := viewers.Add(session.SurfaceWeb, "10.0.0.1:1", "official", "9", 4)
	require.NoError(t, err)

	r := b.execute("who")
	require.Len(t, r.lines, 3)
	assert.Equal(t, "2 viewer(s) connected:", r.lines[0])
	joined := strings.Join(r.lines, "\n")
	assert.Contains(t, joined, "* "+b.viewerID[:8]+"  telnet  crowd #5")
	assert.Contains(t, joined, "web     official #9")

	help := strings.Join(b.execute("?").lines, "\n")
	assert.Contains(t, help, "Navigation:")
	assert.Contains(t, help, "View:")
	assert.Contains(t, help, "System:")
	assert.Contains(t, help, "zoomin (+ =)")

	r = b.execute("exit")
	assert.True(t, r.quit)
	assert.Equal(t, []string{"Goodbye."}, r.lines)
}

func TestBrowser_UnknownAndEmpty(t *testing.T) {
	b, _ := testBrowser(t)
	assert.Equal(t, reply{}, b.execute("   "))
	r := b.execute("xyzzy")
	assert.Equal(t, []string{`Unknown command "xyzzy". Type help for commands.`}, r.lines)
}

func TestBrowser_RenderLeavesPromptRow(t *testing.T) {
	b, _ := testBrowser(t)
	lines := b.render(40, 12)
	assert.Len(t, lines, 11)
	assert.Equal(t, "[crowd] Town, Little  Levels: *0, 1  Zoom: 1.00", lines[0])

	assert.Len(t, b.render(0, 0), 2)
}

func TestBrowser_Prompt(t *testing.T) {
	b, _ := testBrowser(t)
	assert.Equal(t, "[crowd #5 L0]> ", b.prompt())
}

func TestNewBrowser_UnknownDefaultSource(t *testing.T) {
	h, viewers := testHandler(t)
	h.defaults.Source = "missing"
	_, err := h.newBrowser("x")
	assert.Error(t, err)
	assert.Zero(t, viewers.Count())
}

func TestHandleSession_EndToEnd(t *testing.T) {
	h, viewers := testHandler(t)
	acc := telnet.NewAcceptor(config.TelnetConfig{
		Host:         "127.0.0.1",
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}, h, zaptest.NewLogger(t))
	go func() { _ = acc.ListenAndServe() }()
	require.Eventually(t, func() bool { return acc.Addr() != "" }, 2*time.Second, 5*time.Millisecond)
	t.Cleanup(acc.Stop)

	c := testutil.NewTelnetClient(t, acc.Addr())
	out := c.ReadUntil(welcome, 3*time.Second)
	assert.Contains(t, out, "[crowd] Town, Little")
	assert.Contains(t, out, "[ ]")
	c.ReadUntil("[crowd #5 L0]> ", time.Second)
	assert.Equal(t, 1, viewers.Count())

	c.SendWindowSize(60, 20)
	c.Send("area 6")
	c.ReadUntil("[crowd] Empty Field", 2*time.Second)
	c.ReadUntil("[crowd #6 L0]> ", time.Second)

	c.Send("who")
	c.ReadUntil("1 viewer(s) connected:", 2*time.Second)

	c.Send("quit")
	c.ReadUntil("Goodbye.", 2*time.Second)
	require.Eventually(t, func() bool { return viewers.Count() == 0 }, 2*time.Second, 10*time.Millisecond)
}

// Property: after any command sequence the registry places the viewer in the
// area its session shows, and the level is one of the area's levels or 0.
func TestPropertyRegistryFollowsSession(t *testing.T) {
	commands := []string{
		"area 5", "area 6", "area 404", "source official", "source crowd", "area 9",
		"[", "]", "1", "0", "+", "-", "pan 1 1", "look 1", "look 2", "unlook", "levels",
	}
	rapid.Check(t, func(rt *rapid.T) {
		b, viewers := testBrowser(t)
		steps := rapid.SliceOfN(rapid.SampledFrom(commands), 1, 30).Draw(rt, "commands")
		for _, line := range steps {
			b.execute(line)
		}
		st := b.view.State()
		v, ok := viewers.Get(b.viewerID)
		if !ok {
			rt.Fatal("viewer missing from registry")
		}
		if v.Source != st.Source || v.AreaID != st.AreaID {
			rt.Fatalf("registry has %s #%s, session shows %s #%s", v.Source, v.AreaID, st.Source, st.AreaID)
		}
		levels := b.view.Area().Levels
		if st.Level != 0 && !containsInt(levels, st.Level) {
			rt.Fatalf("level %d not in %v", st.Level, levels)
		}
	})
}

func containsInt(xs []int, x int) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}
