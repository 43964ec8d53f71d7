package command

import (
	"fmt"
	"slices"
	"strings"
)

// Registry resolves typed command words to Commands. Names and aliases share
// one namespace.
type Registry struct {
	commands []Command
	index    map[string]int
}

// NewRegistry indexes cmds by name and alias.
//
// Precondition: No word may be used twice, as a name or as an alias.
// Postcondition: Returns a Registry or an error naming the first clash.
func NewRegistry(cmds []Command) (*Registry, error) {
	r := &Registry{commands: slices.Clone(cmds), index: make(map[string]int)}
	for i, cmd := range r.commands {
		for _, word := range append([]string{cmd.Name}, cmd.Aliases...) {
			if prev, taken := r.index[word]; taken {
				return nil, fmt.Errorf("command word %q of %q is already used by %q", word, cmd.Name, r.commands[prev].Name)
			}
			r.index[word] = i
		}
	}
	return r, nil
}

// DefaultRegistry returns the registry of the built-in commands. It panics if
// they clash, which is a programming error.
func DefaultRegistry() *Registry {
	r, err := NewRegistry(BuiltinCommands())
	if err != nil {
		panic(fmt.Sprintf("building default registry: %v", err))
	}
	return r
}

// Resolve looks up a command by name or alias. Lookup is case-sensitive;
// Parse lowercases the command word.
//
// Postcondition: Returns (command, true) if found, or (nil, false).
func (r *Registry) Resolve(word string) (*Command, bool) {
	i, ok := r.index[word]
	if !ok {
		return nil, false
	}
	return &r.commands[i], true
}

// Commands returns the registered commands in registration order.
func (r *Registry) Commands() []*Command {
	out := make([]*Command, len(r.commands))
	for i := range r.commands {
		out[i] = &r.commands[i]
	}
	return out
}

// CommandsByCategory groups the commands by category, each group sorted by name.
func (r *Registry) CommandsByCategory() map[string][]*Command {
	groups := make(map[string][]*Command)
	for _, cmd := range r.Commands() {
		groups[cmd.Category] = append(groups[cmd.Category], cmd)
	}
	for _, g := range groups {
		slices.SortFunc(g, func(a, b *Command) int { return strings.Compare(a.Name, b.Name) })
	}
	return groups
}
