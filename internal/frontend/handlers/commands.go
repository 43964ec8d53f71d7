package handlers

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/cory-johannsen/mudmap/internal/game/command"
	"github.com/cory-johannsen/mudmap/internal/game/scene"
	"github.com/cory-johannsen/mudmap/internal/game/view"
	"github.com/cory-johannsen/mudmap/internal/render/ansi"
)

// input carries the resolved command and its arguments.
type input struct {
	cmd    *command.Command
	parsed command.ParseResult
}

type commandFunc func(b *browser, in input) reply

// CommandHandlers returns the map from Handler constant to browser command.
// Exported so completeness can be verified against the registry.
func CommandHandlers() map[string]commandFunc {
	return commandMap
}

// commandMap is the single source of truth for browser command dispatch.
var commandMap = map[string]commandFunc{
	command.HandlerAreas:   func(b *browser, _ input) reply { return b.areas() },
	command.HandlerArea:    func(b *browser, in input) reply { return b.selectArea(in.parsed.Args) },
	command.HandlerSources: func(b *browser, _ input) reply { return b.sources() },
	command.HandlerSource:  func(b *browser, in input) reply { return b.selectSource(in.parsed.Args) },
	command.HandlerLevels:  func(b *browser, _ input) reply { return b.levels() },
	command.HandlerKey:     func(b *browser, in input) reply { return b.key(in.cmd, in.parsed.Command, in.parsed.Repeat) },
	command.HandlerPan:     func(b *browser, in input) reply { return b.pan(in.parsed.Args) },
	command.HandlerLook:    func(b *browser, in input) reply { return b.look(in.parsed.Args) },
	command.HandlerUnlook:  func(b *browser, _ input) reply { return b.unlook() },
	command.HandlerMap:     func(_ *browser, _ input) reply { return reply{redraw: true} },
	command.HandlerWho:     func(b *browser, _ input) reply { return b.who() },
	command.HandlerHelp:    func(b *browser, _ input) reply { return b.help() },
	command.HandlerQuit:    func(_ *browser, _ input) reply { return reply{lines: []string{"Goodbye."}, quit: true} },
}

func text(lines ...string) reply {
	return reply{lines: lines}
}

func (b *browser) areas() reply {
	opts := b.view.AreaOptions()
	if len(opts) == 0 {
		return text("This source has no areas.")
	}
	active := b.view.State().AreaID
	lines := make([]string, 0, len(opts))
	for _, o := range opts {
		mark := " "
		if o.ID == active {
			mark = "*"
		}
		lines = append(lines, fmt.Sprintf("%s %6s  %s", mark, o.ID, o.Name))
	}
	return reply{lines: lines}
}

func (b *browser) selectArea(args []string) reply {
	if len(args) != 1 {
		return text("Usage: area <id>")
	}
	id := strings.TrimPrefix(args[0], "#")
	if n, ok := view.ParseAnchor(id); ok && !b.hasArea(id) {
		id = n
	}
	if !b.hasArea(id) {
		return text(fmt.Sprintf("No area %s in %s.", id, b.view.State().Source))
	}
	b.view.Dispatch(view.SelectArea{AreaID: id})
	b.moved()
	return reply{redraw: true}
}

func (b *browser) hasArea(id string) bool {
	for _, o := range b.view.AreaOptions() {
		if o.ID == id {
			return true
		}
	}
	return false
}

func (b *browser) sources() reply {
	active := b.view.State().Source
	var lines []string
	for _, s := range b.view.Sources() {
		mark := " "
		if s == active {
			mark = "*"
		}
		lines = append(lines, mark+" "+s)
	}
	return reply{lines: lines}
}

func (b *browser) selectSource(args []string) reply {
	if len(args) != 1 {
		return text("Usage: source <name>")
	}
	if args[0] == b.view.State().Source {
		return text("Already showing " + args[0] + ".")
	}
	if out := b.view.Dispatch(view.SelectSource{Source: args[0]}); !out.Changed {
		return text(fmt.Sprintf("Unknown source %q. Type sources for the list.", args[0]))
	}
	b.moved()
	return reply{redraw: true}
}

// moved keeps the registry in step with the session's area.
func (b *browser) moved() {
	st := b.view.State()
	if _, err := b.h.viewers.Move(b.viewerID, st.Source, st.AreaID); err != nil {
		b.logger.Warn("moving viewer", zap.Error(err))
	}
}

func (b *browser) levels() reply {
	levels := b.view.Area().Levels
	if len(levels) == 0 {
		return text("This area has no rooms.")
	}
	return text("Levels: " + strings.Join(view.LevelMarks(levels, b.view.State().Level), ", "))
}

// key presses a view key repeat times. The map is redrawn if any press
// changed the view.
func (b *browser) key(cmd *command.Command, typed string, repeat int) reply {
	k, ok := command.KeyFor(cmd, typed)
	if !ok {
		return text("Type a level digit, for example 2.")
	}
	changed := false
	for range max(repeat, 1) {
		if !b.view.Dispatch(view.KeyPress{Key: k}).Changed {
			break
		}
		changed = true
	}
	if changed {
		return reply{redraw: true}
	}
	switch k {
	case '+', '=', '-', '_':
		return text("Zoom limit reached.")
	case '0':
		return text("The view is already reset.")
	}
	return text("No level there. Type levels for the list.")
}

// pan moves the map by whole character cells.
func (b *browser) pan(args []string) reply {
	if len(args) != 2 {
		return text("Usage: pan <dx> <dy>")
	}
	dx, errX := strconv.ParseFloat(args[0], 64)
	dy, errY := strconv.ParseFloat(args[1], 64)
	if errX != nil || errY != nil || math.IsNaN(dx+dy) || math.IsInf(dx+dy, 0) {
		return text("Usage: pan <dx> <dy>")
	}
	b.view.Dispatch(view.Drag{Delta: scene.Point{X: dx * ansi.CellWidth, Y: dy * ansi.CellHeight}})
	return reply{redraw: true}
}

func (b *browser) unlook() reply {
	b.view.Dispatch(view.HoverLeave{})
	return reply{redraw: true}
}

func (b *browser) look(args []string) reply {
	if len(args) != 1 {
		return text("Usage: look <room>")
	}
	id := strings.TrimPrefix(args[0], "#")
	if _, ok := b.view.Scene().Room(id); !ok {
		return text(fmt.Sprintf("No room %s on this level.", id))
	}
	b.view.Dispatch(view.HoverEnter{RoomID: id})
	return reply{redraw: true}
}

func (b *browser) who() reply {
	viewers := b.h.viewers.List()
	lines := make([]string, 0, len(viewers)+1)
	lines = append(lines, fmt.Sprintf("%d viewer(s) connected:", len(viewers)))
	for _, v := range viewers {
		self := " "
		if v.ID == b.viewerID {
			self = "*"
		}
		lines = append(lines, fmt.Sprintf("%s %s  %-6s  %s #%s  since %s",
			self, v.ID[:8], v.Surface, v.Source, v.AreaID, v.ConnectedAt.Format("15:04:05")))
	}
	return reply{lines: lines}
}

func (b *browser) help() reply {
	byCategory := b.h.registry.CommandsByCategory()
	categories := make([]string, 0, len(byCategory))
	for c := range byCategory {
		categories = append(categories, c)
	}
	sort.Strings(categories)

	var lines []string
	for _, c := range categories {
		lines = append(lines, strings.ToUpper(c[:1])+c[1:]+":")
		for _, cmd := range byCategory[c] {
			name := cmd.Name
			if len(cmd.Aliases) > 0 {
				name += " (" + strings.Join(cmd.Aliases, " ") + ")"
			}
			lines = append(lines, fmt.Sprintf("  %-28s %s", name, cmd.Help))
		}
	}
	return reply{lines: lines}
}
