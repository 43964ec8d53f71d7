package handlers_test

import (
	"testing"

	"github.com/cory-johannsen/mudmap/internal/frontend/handlers"
	"github.com/cory-johannsen/mudmap/internal/game/command"
)

// TestAllCommandHandlersAreWired asserts that every Handler constant
// registered in BuiltinCommands has an entry in the browser dispatch map.
func TestAllCommandHandlersAreWired(t *testing.T) {
	registered := handlers.CommandHandlers()
	for _, cmd := range command.BuiltinCommands() {
		if _, ok := registered[cmd.Handler]; !ok {
			t.Errorf("handler %q is in BuiltinCommands() but missing from CommandHandlers()", cmd.Handler)
		}
	}
}
