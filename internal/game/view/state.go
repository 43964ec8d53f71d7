// Package view holds the interaction state of one map viewer and the
// transition rules applied to it by user input.
package view

import (
	"math"
	"strconv"
	"strings"

	"github.com/cory-johannsen/mudmap/internal/game/scene"
)

// Zoom bounds and steps.
const (
	MinZoom     = 0.2
	MaxZoom     = 5.0
	ZoomInStep  = 1.1
	ZoomOutStep = 0.9
)

// State is the complete view state of one viewer. It is a value: every
// transition returns a new State.
type State struct {
	Source string  `json:"source"`
	AreaID string  `json:"area"`
	Level  int     `json:"level"`
	Zoom   float64 `json:"zoom"`
	// Pan is the offset of the scene center from the view center in screen pixels.
	Pan scene.Point `json:"pan"`
	// Hover is the hovered room ID, empty when none.
	Hover string `json:"hover,omitempty"`
}

// Defaults are used when no restorable selection is available.
type Defaults struct {
	Source string
	AreaID string
}

// Initial returns the start state: level 0, zoom 1, no hover, the area
// taken from anchor when it parses and the default otherwise.
func Initial(anchor string, d Defaults) State {
	area, ok := ParseAnchor(anchor)
	if !ok {
		area = d.AreaID
	}
	return State{Source: d.Source, AreaID: area, Zoom: 1}
}

// ParseAnchor extracts the area ID from a "#<id>" fragment. Like an integer
// parse it accepts a leading sign and stops at the first non-digit, so
// "#12abc" selects area "12".
//
// Postcondition: Returns ("", false) when no integer prefix is present.
func ParseAnchor(anchor string) (string, bool) {
	s := strings.TrimPrefix(strings.TrimSpace(anchor), "#")
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return "", false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return "", false
	}
	return strconv.Itoa(n), true
}

// Anchor returns the restorable fragment for the state's area.
func (s State) Anchor() string {
	return "#" + s.AreaID
}

// Event is a user input applied to a State.
type Event interface {
	event()
}

// SelectArea switches to another area of the active source.
type SelectArea struct{ AreaID string }

// SelectSource switches to another dataset.
type SelectSource struct{ Source string }

// KeyPress is a single key typed by the user.
type KeyPress struct{ Key rune }

// Wheel is a scroll of the pointer wheel; positive DeltaY zooms out.
type Wheel struct{ DeltaY float64 }

// Drag moves the scene by Delta screen pixels.
type Drag struct{ Delta scene.Point }

// HoverEnter reports the pointer entering a room unit.
type HoverEnter struct{ RoomID string }

// HoverLeave reports the pointer leaving the hovered room unit.
type HoverLeave struct{}

// PointAt reports a pointer position in surface pixels, such as a tap on a
// touch screen. A Session resolves it into HoverEnter on the room under the
// point, or HoverLeave when there is none; Reduce ignores it.
type PointAt struct {
	At       scene.Point
	Viewport Viewport
}

func (SelectArea) event()   {}
func (SelectSource) event() {}
func (KeyPress) event()     {}
func (Wheel) event()        {}
func (Drag) event()         {}
func (HoverEnter) event()   {}
func (HoverLeave) event()   {}
func (PointAt) event()      {}

// Outcome tells the caller what a transition requires.
type Outcome struct {
	// Rebuild means the area must be prepared and its scene built again.
	Rebuild bool
	// Changed means any part of the state changed and the frame must be redrawn.
	Changed bool
	// Handled means the input was consumed and must not propagate further.
	Handled bool
	// Anchor is the new restorable fragment, set when the area changed.
	Anchor string
}

// Reduce applies ev to s. levels are the levels of the area currently shown.
//
// Postcondition: a rejected input returns s unchanged with Changed false.
func Reduce(s State, levels []int, ev Event) (State, Outcome) {
	switch e := ev.(type) {
	case SelectArea:
		s.AreaID = e.AreaID
		s.Level = 0
		s.Hover = ""
		return s, Outcome{Rebuild: true, Changed: true, Handled: true, Anchor: s.Anchor()}
	case SelectSource:
		s.Source = e.Source
		s.Level = 0
		s.Hover = ""
		return s, Outcome{Rebuild: true, Changed: true, Handled: true}
	case KeyPress:
		return reduceKey(s, levels, e.Key)
	case Wheel:
		return zoomBy(s, wheelFactor(e.DeltaY))
	case Drag:
		if e.Delta == (scene.Point{}) || !finite(e.Delta.X) || !finite(e.Delta.Y) {
			return s, Outcome{Handled: true}
		}
		s.Pan = s.Pan.Add(e.Delta)
		return s, Outcome{Changed: true, Handled: true}
	case HoverEnter:
		if s.Hover == e.RoomID {
			return s, Outcome{}
		}
		s.Hover = e.RoomID
		return s, Outcome{Changed: true}
	case HoverLeave:
		if s.Hover == "" {
			return s, Outcome{}
		}
		s.Hover = ""
		return s, Outcome{Changed: true}
	}
	return s, Outcome{}
}

func reduceKey(s State, levels []int, key rune) (State, Outcome) {
	var out Outcome
	switch key {
	case '[', '{':
		return stepLevel(s, levels, -1)
	case ']', '}':
		return stepLevel(s, levels, 1)
	}

	if key >= '0' && key <= '9' {
		digit := int(key - '0')
		if containsLevel(levels, digit) && s.Level != digit {
			s.Level = digit
			s.Hover = ""
			out = Outcome{Rebuild: true, Changed: true}
		}
	}

	switch key {
	case '-', '_':
		next, zoom := zoomBy(s, ZoomOutStep)
		return next, merge(out, zoom)
	case '+', '=':
		next, zoom := zoomBy(s, ZoomInStep)
		return next, merge(out, zoom)
	case '0':
		if s.Zoom != 1 || s.Pan != (scene.Point{}) {
			s.Zoom = 1
			s.Pan = scene.Point{}
			out.Changed = true
		}
		out.Handled = true
	}
	return s, out
}

// stepLevel moves one level down (delta -1) or up (delta 1). A step that
// would leave the area's level range is rejected. When the current level is
// already outside the range, as right after an area change, the step lands
// on the nearest bound instead.
func stepLevel(s State, levels []int, delta int) (State, Outcome) {
	if len(levels) == 0 {
		return s, Outcome{}
	}
	lo, hi := levels[0], levels[len(levels)-1]
	next := s.Level + delta
	switch {
	case next >= lo && next <= hi:
	case s.Level < lo:
		next = lo
	case s.Level > hi:
		next = hi
	default:
		return s, Outcome{}
	}
	if next == s.Level {
		return s, Outcome{}
	}
	s.Level = next
	s.Hover = ""
	return s, Outcome{Rebuild: true, Changed: true}
}

// zoomBy scales the zoom by factor. A result outside [MinZoom, MaxZoom] is
// rejected; the input is consumed either way.
func zoomBy(s State, factor float64) (State, Outcome) {
	next := s.Zoom * factor
	if factor == 1 || !finite(next) || next < MinZoom || next > MaxZoom {
		return s, Outcome{Handled: true}
	}
	s.Zoom = next
	return s, Outcome{Changed: true, Handled: true}
}

// wheelFactor converts a wheel delta into a zoom factor: one notch of 100
// zooms by 10%.
func wheelFactor(deltaY float64) float64 {
	scale := math.Floor(deltaY/10+0.5) / 120
	return 1 - math.Round(scale*10)/10
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func containsLevel(levels []int, level int) bool {
	for _, l := range levels {
		if l == level {
			return true
		}
	}
	return false
}

func merge(a, b Outcome) Outcome {
	return Outcome{
		Rebuild: a.Rebuild || b.Rebuild,
		Changed: a.Changed || b.Changed,
		Handled: a.Handled || b.Handled,
		Anchor:  a.Anchor + b.Anchor,
	}
}

// LevelMarks returns the levels as text with the active one marked: "-1, *0, 1".
func LevelMarks(levels []int, active int) []string {
	marks := make([]string, len(levels))
	for i, l := range levels {
		marks[i] = strconv.Itoa(l)
		if l == active {
			marks[i] = "*" + marks[i]
		}
	}
	return marks
}
