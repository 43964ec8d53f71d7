package importer_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/cory-johannsen/mudmap/internal/game/world"
	"github.com/cory-johannsen/mudmap/internal/importer"
	"github.com/cory-johannsen/mudmap/internal/importer/gomud"
)

func writeAssets(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	for _, dir := range []string{"zones", "areas", "rooms"} {
		require.NoError(t, os.MkdirAll(filepath.Join(root, dir), 0755))
	}
	write := func(path, s string) {
		require.NoError(t, os.WriteFile(filepath.Join(root, path), []byte(s), 0644))
	}
	write("zones/harbor.yaml", `
name: The Harbor
description: Salt and tar.
rooms:
  - Pier
  - Harbor Street
  - Lighthouse Top
`)
	write("areas/docks.yaml", `
name: Docks
rooms:
  - Pier
`)
	write("rooms/pier.yaml", `
name: Pier
description: Wet planks.
exits:
  North:
    direction: North
    name: Harbor Street
    target: Harbor Street
`)
	write("rooms/street.yaml", `
name: Harbor Street
description: Cobbles.
exits:
  South:
    direction: South
    target: Pier
  Up:
    direction: Up
    target: Lighthouse Top
`)
	write("rooms/top.yaml", `
name: Lighthouse Top
description: Windy.
exits:
  Down:
    direction: Down
    target: Harbor Street
`)
	return root
}

func TestImporter_Run_WritesLoadableDataset(t *testing.T) {
	out := filepath.Join(t.TempDir(), "maps", "harbor.yaml")
	imp := importer.New(gomud.NewSource(), 11, zaptest.NewLogger(t))
	require.NoError(t, imp.Run(writeAssets(t), out, ""))

	ds, _, err := world.LoadDatasetFromFile("harbor", out)
	require.NoError(t, err)
	require.Contains(t, ds.Areas, "11")

	area, err := world.NewPreparer(zaptest.NewLogger(t)).Prepare(ds, "11", world.Embedded)
	require.NoError(t, err)
	assert.Equal(t, "The Harbor", area.Name)
	assert.Equal(t, []int{0, 1}, area.Levels)
	require.Len(t, area.Rooms, 3)

	pier := area.Rooms["1"]
	assert.Equal(t, "Pier", pier.Name)
	assert.Equal(t, world.Coord{}, pier.Coord)
	e, ok := pier.ExitForDirection(world.North)
	require.True(t, ok)
	assert.Equal(t, "2", e.Target)
	assert.Equal(t, "Docks", pier.Attributes["region"])

	assert.Equal(t, world.Coord{Y: 1}, area.Rooms["2"].Coord)
	assert.Equal(t, world.Coord{Y: 1, Z: 1}, area.Rooms["3"].Coord)
}

func TestImporter_Run_StartRoomOverride(t *testing.T) {
	out := filepath.Join(t.TempDir(), "harbor.yaml")
	imp := importer.New(gomud.NewSource(), 0, zaptest.NewLogger(t))
	require.NoError(t, imp.Run(writeAssets(t), out, "Lighthouse Top"))

	ds, _, err := world.LoadDatasetFromFile("harbor", out)
	require.NoError(t, err)
	require.Contains(t, ds.Areas, "1", "area numbering starts at 1")
	top := ds.Areas["1"].Rooms["3"]
	assert.Equal(t, world.Coord{}, top.Coord)
	assert.Equal(t, world.Coord{Z: -1}, ds.Areas["1"].Rooms["2"].Coord)
}

func TestImporter_Run_InvalidSourceDir(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out.yaml")
	imp := importer.New(gomud.NewSource(), 1, zaptest.NewLogger(t))
	require.Error(t, imp.Run("/nonexistent/dir", out, ""))
	_, err := os.Stat(out)
	assert.True(t, os.IsNotExist(err), "nothing is written on failure")
}
