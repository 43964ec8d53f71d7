// Package command provides the command registry, parser, and built-in command definitions
// of the telnet map browser.
package command

import "unicode/utf8"

// Categories for organizing commands.
const (
	CategoryNavigation = "navigation"
	CategoryView       = "view"
	CategorySystem     = "system"
)

// Handler identifiers mapping commands to session handlers.
const (
	HandlerAreas   = "areas"
	HandlerArea    = "area"
	HandlerSources = "sources"
	HandlerSource  = "source"
	HandlerLevels  = "levels"
	HandlerKey     = "key"
	HandlerPan     = "pan"
	HandlerLook    = "look"
	HandlerUnlook  = "unlook"
	HandlerMap     = "map"
	HandlerWho     = "who"
	HandlerHelp    = "help"
	HandlerQuit    = "quit"
)

// Command defines a viewer-invocable command.
type Command struct {
	// Name is the canonical command name.
	Name string
	// Aliases are alternate names for this command.
	Aliases []string
	// Help is the short help text displayed to viewers.
	Help string
	// Category groups the command (navigation, view, system).
	Category string
	// Handler maps to the session handler.
	Handler string
	// Key is the view key sent by HandlerKey commands invoked by name.
	Key rune
}

// BuiltinCommands returns all built-in commands of the map browser.
func BuiltinCommands() []Command {
	return []Command{
		// Navigation commands
		{Name: "areas", Aliases: []string{"list"}, Help: "List the areas of the current source", Category: CategoryNavigation, Handler: HandlerAreas},
		{Name: "area", Aliases: []string{"a"}, Help: "Show an area (area <id>)", Category: CategoryNavigation, Handler: HandlerArea},
		{Name: "sources", Aliases: nil, Help: "List the loaded map sources", Category: CategoryNavigation, Handler: HandlerSources},
		{Name: "source", Aliases: []string{"src"}, Help: "Switch map source (source <name>)", Category: CategoryNavigation, Handler: HandlerSource},
		{Name: "levels", Aliases: []string{"lv"}, Help: "List the levels of the current area", Category: CategoryNavigation, Handler: HandlerLevels},
		{Name: "lower", Aliases: []string{"[", "{"}, Help: "Step one level down", Category: CategoryNavigation, Handler: HandlerKey, Key: '['},
		{Name: "upper", Aliases: []string{"]", "}"}, Help: "Step one level up", Category: CategoryNavigation, Handler: HandlerKey, Key: ']'},
		{Name: "jump", Aliases: []string{"1", "2", "3", "4", "5", "6", "7", "8", "9"}, Help: "Jump to a level by typing its digit", Category: CategoryNavigation, Handler: HandlerKey},

		// View commands
		{Name: "zoomin", Aliases: []string{"+", "="}, Help: "Zoom in", Category: CategoryView, Handler: HandlerKey, Key: '+'},
		{Name: "zoomout", Aliases: []string{"-", "_"}, Help: "Zoom out", Category: CategoryView, Handler: HandlerKey, Key: '-'},
		{Name: "reset", Aliases: []string{"0"}, Help: "Reset zoom and pan (and jump to level 0)", Category: CategoryView, Handler: HandlerKey, Key: '0'},
		{Name: "pan", Aliases: nil, Help: "Move the map (pan <dx> <dy>)", Category: CategoryView, Handler: HandlerPan},
		{Name: "look", Aliases: []string{"l"}, Help: "Show the details of a room (look <id>)", Category: CategoryView, Handler: HandlerLook},
		{Name: "unlook", Aliases: nil, Help: "Hide the room details", Category: CategoryView, Handler: HandlerUnlook},
		{Name: "map", Aliases: []string{"m"}, Help: "Redraw the map", Category: CategoryView, Handler: HandlerMap},

		// System commands
		{Name: "who", Aliases: nil, Help: "List connected viewers", Category: CategorySystem, Handler: HandlerWho},
		{Name: "quit", Aliases: []string{"exit"}, Help: "Disconnect", Category: CategorySystem, Handler: HandlerQuit},
		{Name: "help", Aliases: []string{"?"}, Help: "Show available commands", Category: CategorySystem, Handler: HandlerHelp},
	}
}

// KeyFor returns the view key a HandlerKey command sends. A command typed as
// a single character sends that character, so "{" steps down like "[" and
// "7" jumps to level 7.
//
// Postcondition: Returns (key, true) for key commands, or (0, false) otherwise.
func KeyFor(cmd *Command, typed string) (rune, bool) {
	if cmd == nil || cmd.Handler != HandlerKey {
		return 0, false
	}
	if r, size := utf8.DecodeRuneInString(typed); size > 0 && size == len(typed) {
		return r, true
	}
	if cmd.Key == 0 {
		return 0, false
	}
	return cmd.Key, true
}
