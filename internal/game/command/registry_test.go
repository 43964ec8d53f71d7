package command

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestDefaultRegistry(t *testing.T) {
	r := DefaultRegistry()
	assert.NotNil(t, r)
	assert.Len(t, r.Commands(), len(BuiltinCommands()))
}

func TestResolve_CanonicalName(t *testing.T) {
	r := DefaultRegistry()

	cmd, ok := r.Resolve("area")
	require.True(t, ok)
	assert.Equal(t, "area", cmd.Name)
	assert.Equal(t, HandlerArea, cmd.Handler)
}

func TestResolve_Alias(t *testing.T) {
	r := DefaultRegistry()

	cmd, ok := r.Resolve("?")
	require.True(t, ok)
	assert.Equal(t, "help", cmd.Name)
}

func TestResolve_NotFound(t *testing.T) {
	r := DefaultRegistry()

	_, ok := r.Resolve("teleport")
	assert.False(t, ok)
}

func TestResolve_AllKeys(t *testing.T) {
	r := DefaultRegistry()
	keys := []struct {
		typed string
		name  string
	}{
		{"[", "lower"},
		{"{", "lower"},
		{"]", "upper"},
		{"}", "upper"},
		{"+", "zoomin"},
		{"=", "zoomin"},
		{"-", "zoomout"},
		{"_", "zoomout"},
		{"0", "reset"},
		{"7", "jump"},
	}

	for _, k := range keys {
		cmd, ok := r.Resolve(k.typed)
		require.True(t, ok, "key %q should resolve", k.typed)
		assert.Equal(t, k.name, cmd.Name)
		key, ok := KeyFor(cmd, k.typed)
		require.True(t, ok)
		assert.Equal(t, []rune(k.typed)[0], key)
	}
}

func TestKeyFor_ByName(t *testing.T) {
	r := DefaultRegistry()

	cmd, _ := r.Resolve("lower")
	key, ok := KeyFor(cmd, "lower")
	require.True(t, ok)
	assert.Equal(t, '[', key)

	cmd, _ = r.Resolve("jump")
	_, ok = KeyFor(cmd, "jump")
	assert.False(t, ok, "jump needs a digit")

	cmd, _ = r.Resolve("areas")
	_, ok = KeyFor(cmd, "areas")
	assert.False(t, ok)

	_, ok = KeyFor(nil, "[")
	assert.False(t, ok)
}

func TestNewRegistry_WordClashes(t *testing.T) {
	cases := map[string][]Command{
		"duplicate name": {
			{Name: "map", Handler: HandlerMap},
			{Name: "map", Handler: HandlerMap},
		},
		"alias reuses a name": {
			{Name: "map", Handler: HandlerMap},
			{Name: "redraw", Aliases: []string{"map"}, Handler: HandlerMap},
		},
		"duplicate alias": {
			{Name: "lower", Aliases: []string{"["}, Handler: HandlerKey},
			{Name: "down", Aliases: []string{"["}, Handler: HandlerKey},
		},
		"name reuses an alias": {
			{Name: "help", Aliases: []string{"h"}, Handler: HandlerHelp},
			{Name: "h", Handler: HandlerHelp},
		},
	}
	for name, cmds := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := NewRegistry(cmds)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "is already used by")
		})
	}
}

func TestCommands_RegistrationOrder(t *testing.T) {
	r := DefaultRegistry()
	cmds := r.Commands()
	require.Len(t, cmds, len(BuiltinCommands()))
	assert.Equal(t, "areas", cmds[0].Name)
	assert.Equal(t, "help", cmds[len(cmds)-1].Name)
}

func TestCommandsByCategory(t *testing.T) {
	r := DefaultRegistry()
	cats := r.CommandsByCategory()

	assert.Contains(t, cats, CategoryNavigation)
	assert.Contains(t, cats, CategoryView)
	assert.Contains(t, cats, CategorySystem)

	system := cats[CategorySystem]
	names := make([]string, len(system))
	for i, c := range system {
		names[i] = c.Name
	}
	assert.Equal(t, []string{"help", "quit", "who"}, names)
}

func TestPropertyEveryBuiltinResolvesToItself(t *testing.T) {
	r := DefaultRegistry()
	builtins := BuiltinCommands()
	rapid.Check(t, func(t *rapid.T) {
		c := rapid.SampledFrom(builtins).Draw(t, "command")
		names := append([]string{c.Name}, c.Aliases...)
		typed := rapid.SampledFrom(names).Draw(t, "typed")
		got, ok := r.Resolve(typed)
		if !ok {
			t.Fatalf("%q did not resolve", typed)
		}
		if got.Name != c.Name {
			t.Fatalf("%q resolved to %q, want %q", typed, got.Name, c.Name)
		}
	})
}
