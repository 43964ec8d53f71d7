package ansi

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/mudmap/internal/game/scene"
	"github.com/cory-johannsen/mudmap/internal/game/view"
	"github.com/cory-johannsen/mudmap/internal/game/world"
)

func frameFor(t *testing.T, st view.State) view.Frame {
	t.Helper()
	area := &world.Area{
		ID:   "5",
		Name: "Keep",
		Rooms: map[string]*world.Room{
			"1": {ID: "1", Environment: world.Environment{Name: "Stone", Color: "#333"},
				Exits: []world.Exit{{Direction: world.East, Target: "2"}}},
			"2": {ID: "2", Coord: world.Coord{X: 2}, Features: &world.Features{Shop: true}},
		},
		Levels: []int{0, 1},
	}
	sc := scene.NewBuilder(scene.DefaultPolicy(), zaptest.NewLogger(t)).Build(area, st.Level)
	f := view.Frame{State: st, Scene: sc, Levels: area.Levels}
	if p, ok := scene.HoverPanel(sc, st.Hover); ok {
		f.Panel = &p
	}
	return f
}

func TestRender_Plain(t *testing.T) {
	lines := New(false).Render(frameFor(t, view.State{Source: "crowd", AreaID: "5", Zoom: 1}), 40, 12)
	require.Len(t, lines, 13)

	assert.Equal(t, "[crowd] Keep  Levels: *0, 1  Zoom: 1.00", lines[0])
	body := strings.Join(lines[1:], "\n")
	assert.Contains(t, body, "[ ]")
	assert.Contains(t, body, "[$]")
	assert.Contains(t, body, "Keep")
	assert.Contains(t, body, "-")
	for _, l := range lines {
		assert.NotContains(t, l, "\x1b[")
	}
}

func TestRender_RoomsOnSameRowConnected(t *testing.T) {
	lines := New(false).Render(frameFor(t, view.State{Zoom: 1}), 40, 12)
	var row string
	for _, l := range lines[1:] {
		if strings.Contains(l, "[$]") {
			row = l
		}
	}
	require.NotEmpty(t, row)
	assert.Contains(t, row, "[ ]-----[$]")
}

func TestRender_Panel(t *testing.T) {
	lines := New(false).Render(frameFor(t, view.State{Zoom: 1, Hover: "1"}), 60, 14)
	body := strings.Join(lines, "\n")
	assert.Contains(t, body, "| #1 -- Stone |")
	assert.Contains(t, body, "| Exits: e")
	assert.Contains(t, body, ">[ ]<")
}

func TestRender_Colors(t *testing.T) {
	lines := New(true).Render(frameFor(t, view.State{Zoom: 1}), 40, 12)
	joined := strings.Join(lines, "\n")
	assert.Contains(t, joined, "\x1b[")
	assert.Contains(t, Strip(joined), "[$]")
}

func TestRender_EmptyScene(t *testing.T) {
	f := frameFor(t, view.State{Zoom: 1, Level: 1})
	lines := New(false).Render(f, 20, 5)
	require.Len(t, lines, 6)
	assert.Contains(t, lines[0], "Levels: 0, *1")
}

func TestRender_FarPathIsClipped(t *testing.T) {
	f := frameFor(t, view.State{Zoom: 1})
	from := f.Scene.Rooms[0].Center
	f.Scene.Paths = append(f.Scene.Paths, scene.DrawablePath{
		From:  from,
		To:    scene.Point{X: 5e7, Y: from.Y},
		Style: scene.PathStyle{Stroke: "#fff"},
	})

	began := time.Now()
	lines := New(false).Render(f, 40, 12)
	assert.Less(t, time.Since(began), 100*time.Millisecond)

	var row string
	for _, l := range lines[1:] {
		if strings.Contains(l, "[$]") {
			row = l
		}
	}
	require.NotEmpty(t, row)
	assert.True(t, strings.HasSuffix(row, "-"), "the path runs to the right edge: %q", row)
}

func TestClip(t *testing.T) {
	r := scene.Rect{Max: scene.Point{X: 10, Y: 10}}
	cases := []struct {
		name     string
		a, b     scene.Point
		wantA    scene.Point
		wantB    scene.Point
		wantSeen bool
	}{
		{"inside", scene.Point{X: 1, Y: 1}, scene.Point{X: 9, Y: 9}, scene.Point{X: 1, Y: 1}, scene.Point{X: 9, Y: 9}, true},
		{"crosses right", scene.Point{X: 5, Y: 5}, scene.Point{X: 1e9, Y: 5}, scene.Point{X: 5, Y: 5}, scene.Point{X: 10, Y: 5}, true},
		{"crosses both", scene.Point{X: -20, Y: 5}, scene.Point{X: 30, Y: 5}, scene.Point{X: 0, Y: 5}, scene.Point{X: 10, Y: 5}, true},
		{"above", scene.Point{X: 1, Y: -5}, scene.Point{X: 9, Y: -1}, scene.Point{}, scene.Point{}, false},
		{"vertical outside", scene.Point{X: 11, Y: 0}, scene.Point{X: 11, Y: 10}, scene.Point{}, scene.Point{}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a, b, ok := clip(tc.a, tc.b, r)
			require.Equal(t, tc.wantSeen, ok)
			if ok {
				assert.InDelta(t, tc.wantA.X, a.X, 1e-9)
				assert.InDelta(t, tc.wantA.Y, a.Y, 1e-9)
				assert.InDelta(t, tc.wantB.X, b.X, 1e-9)
				assert.InDelta(t, tc.wantB.Y, b.Y, 1e-9)
			}
		})
	}
}

// Property: output always has rows+1 lines and never a line wider than cols.
func TestPropertyRenderStaysInCanvas(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		cols := rapid.IntRange(1, 80).Draw(rt, "cols")
		rows := rapid.IntRange(1, 30).Draw(rt, "rows")
		st := view.State{
			Zoom:  rapid.Float64Range(view.MinZoom, view.MaxZoom).Draw(rt, "zoom"),
			Pan:   scene.Point{X: rapid.Float64Range(-500, 500).Draw(rt, "px"), Y: rapid.Float64Range(-500, 500).Draw(rt, "py")},
			Hover: rapid.SampledFrom([]string{"", "1", "2"}).Draw(rt, "hover"),
		}
		lines := New(false).Render(frameFor(t, st), cols, rows)
		if len(lines) != rows+1 {
			rt.Fatalf("got %d lines, want %d", len(lines), rows+1)
		}
		for _, l := range lines[1:] {
			if n := len([]rune(l)); n > cols {
				rt.Fatalf("line %q wider than %d", l, cols)
			}
		}
	})
}
