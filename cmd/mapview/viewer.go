package main

import (
	"bufio"
	"errors"
	"io"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/cory-johannsen/mudmap/internal/frontend/telnet"
	"github.com/cory-johannsen/mudmap/internal/game/scene"
	"github.com/cory-johannsen/mudmap/internal/game/view"
	"github.com/cory-johannsen/mudmap/internal/render/ansi"
)

const footer = "q quit  n/p area  s source  [ ] level  + - 0 zoom  arrows pan  tab/backspace hover"

// keyKind classifies a decoded key press.
type keyKind int

const (
	keyRune keyKind = iota
	keyUp
	keyDown
	keyLeft
	keyRight
	keyTab
	keyBackspace
	keyInterrupt
	keyEscape
)

type key struct {
	kind keyKind
	r    rune
}

// readKey decodes one key from raw terminal input. Arrow keys arrive as
// ESC [ A..D; a lone ESC is reported as keyEscape.
func readKey(in *bufio.Reader) (key, error) {
	b, err := in.ReadByte()
	if err != nil {
		return key{}, err
	}
	switch b {
	case 3, 4:
		return key{kind: keyInterrupt}, nil
	case '\t':
		return key{kind: keyTab}, nil
	case 8, 127:
		return key{kind: keyBackspace}, nil
	case 0x1b:
		if in.Buffered() < 2 {
			return key{kind: keyEscape}, nil
		}
		seq, _ := in.Peek(2)
		if seq[0] != '[' {
			return key{kind: keyEscape}, nil
		}
		_, _ = in.Discard(2)
		switch seq[1] {
		case 'A':
			return key{kind: keyUp}, nil
		case 'B':
			return key{kind: keyDown}, nil
		case 'C':
			return key{kind: keyRight}, nil
		case 'D':
			return key{kind: keyLeft}, nil
		}
		return key{kind: keyEscape}, nil
	}
	if b < utf8.RuneSelf {
		return key{kind: keyRune, r: rune(b)}, nil
	}
	if err := in.UnreadByte(); err != nil {
		return key{}, err
	}
	r, _, err := in.ReadRune()
	if err != nil {
		return key{}, err
	}
	return key{kind: keyRune, r: r}, nil
}

// viewer drives one view session from single key presses and redraws the
// whole screen after every visible change.
type viewer struct {
	session  *view.Session
	renderer *ansi.Renderer
	out      io.Writer
	size     func() (cols, rows int)
	logger   *zap.Logger
}

// run draws the first frame and handles keys until q, Ctrl+C or end of input.
func (v *viewer) run(in *bufio.Reader) error {
	if err := v.draw(); err != nil {
		return err
	}
	for {
		k, err := readKey(in)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		redraw, quit := v.handle(k)
		if quit {
			return nil
		}
		if redraw {
			if err := v.draw(); err != nil {
				return err
			}
		}
	}
}

// handle applies one key.
//
// Postcondition: redraw reports a visible change; quit ends the viewer.
func (v *viewer) handle(k key) (redraw, quit bool) {
	switch k.kind {
	case keyInterrupt:
		return false, true
	case keyUp:
		return v.dispatch(view.Drag{Delta: scene.Point{Y: 2 * ansi.CellHeight}}), false
	case keyDown:
		return v.dispatch(view.Drag{Delta: scene.Point{Y: -2 * ansi.CellHeight}}), false
	case keyLeft:
		return v.dispatch(view.Drag{Delta: scene.Point{X: 4 * ansi.CellWidth}}), false
	case keyRight:
		return v.dispatch(view.Drag{Delta: scene.Point{X: -4 * ansi.CellWidth}}), false
	case keyTab:
		return v.hoverNext(), false
	case keyBackspace:
		return v.dispatch(view.HoverLeave{}), false
	case keyEscape:
		return false, false
	}

	switch k.r {
	case 'q', 'Q':
		return false, true
	case 'n':
		return v.stepArea(1), false
	case 'p':
		return v.stepArea(-1), false
	case 's':
		return v.nextSource(), false
	}
	return v.dispatch(view.KeyPress{Key: k.r}), false
}

func (v *viewer) dispatch(ev view.Event) bool {
	return v.session.Dispatch(ev).Changed
}

// stepArea moves delta places through the area list, wrapping at the ends.
func (v *viewer) stepArea(delta int) bool {
	opts := v.session.AreaOptions()
	if len(opts) == 0 {
		return false
	}
	current := v.session.State().AreaID
	next := 0
	if delta < 0 {
		next = len(opts) - 1
	}
	for i, o := range opts {
		if o.ID == current {
			next = (i + delta + len(opts)) % len(opts)
			break
		}
	}
	if opts[next].ID == current {
		return false
	}
	v.logger.Debug("area selected", zap.String("area", opts[next].ID))
	return v.dispatch(view.SelectArea{AreaID: opts[next].ID})
}

// nextSource cycles through the loaded sources, keeping the area ID.
func (v *viewer) nextSource() bool {
	sources := v.session.Sources()
	if len(sources) < 2 {
		return false
	}
	current := v.session.State().Source
	next := sources[0]
	for i, s := range sources {
		if s == current {
			next = sources[(i+1)%len(sources)]
			break
		}
	}
	return v.dispatch(view.SelectSource{Source: next})
}

// hoverNext moves the hover to the next room in drawing order.
func (v *viewer) hoverNext() bool {
	rooms := v.session.Scene().Rooms
	if len(rooms) == 0 {
		return false
	}
	hover := v.session.State().Hover
	next := rooms[0].ID
	for i, r := range rooms {
		if r.ID == hover {
			next = rooms[(i+1)%len(rooms)].ID
			break
		}
	}
	return v.dispatch(view.HoverEnter{RoomID: next})
}

// draw renders the frame into all rows but the footer.
func (v *viewer) draw() error {
	cols, rows := v.size()
	lines := v.renderer.Render(v.session.Frame(), max(cols, 1), max(rows-2, 1))
	lines = append(lines, footer)
	_, err := v.out.Write(telnet.Redraw(lines))
	return err
}
