package world

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const embeddedMapJSON = `{
  "areas": {
    "5": {
      "name": "Town, Little (Ruins)",
      "rooms": {
        "1": {
          "coord": {"x": 0, "y": 0, "z": 0},
          "name": "Square",
          "title": "The Town Square",
          "environment": 2,
          "exits": [
            {"name": "north", "target": 2},
            {"direction": "up", "exitId": "3"},
            {"target": "2"}
          ]
        },
        "2": {
          "coord": {"x": 1, "y": 0},
          "name": "Market",
          "environment": "2",
          "exits": [{"name": "south", "target": "1"}],
          "userData": {"feature-shop": true, "feature-bank": "true", "note": 7}
        },
        "3": {
          "coord": {"x": 0, "y": 0, "z": 1},
          "name": "Tower",
          "environment": "9",
          "exits": [
            {"name": "d", "target": "1", "customLine": {"coordinates": [[2.5, -1.4], [3, 3]]}}
          ]
        }
      }
    },
    "6": {"name": "Empty Field", "rooms": {}}
  },
  "environments": {
    "2": {"name": "Urban", "htmlcolor": "#808080"},
    "3": {"name": "Forest", "color": "#00ff00"}
  }
}`

func TestLoadDatasetFromBytes_Embedded(t *testing.T) {
	ds, stats, err := LoadDatasetFromBytes("crowd", []byte(embeddedMapJSON), FormatJSON)
	require.NoError(t, err)

	assert.Equal(t, "crowd", ds.Source)
	assert.Len(t, ds.Areas, 2)
	assert.Equal(t, 1, stats.DroppedExits)

	area := ds.Areas["5"]
	assert.Equal(t, "Town, Little (Ruins)", area.Name)
	require.Len(t, area.Rooms, 3)

	square := area.Rooms["1"]
	assert.Equal(t, "2", square.EnvironmentID)
	require.Len(t, square.Exits, 2)
	assert.Equal(t, North, square.Exits[0].Direction)
	assert.Equal(t, "2", square.Exits[0].Target)
	assert.Equal(t, Up, square.Exits[1].Direction)
	assert.Equal(t, "3", square.Exits[1].Target)

	market := area.Rooms["2"]
	assert.Equal(t, 0, market.Coord.Z)
	assert.Equal(t, "true", market.Attributes[FeatureShop])
	assert.Equal(t, "true", market.Attributes[FeatureBank])
	assert.Equal(t, "7", market.Attributes["note"])
	assert.Nil(t, square.Attributes)

	tower := area.Rooms["3"]
	require.Len(t, tower.Exits, 1)
	assert.Equal(t, Down, tower.Exits[0].Direction)
	require.NotNil(t, tower.Exits[0].Override)
	assert.Equal(t, GridPoint{X: 3, Y: -1}, *tower.Exits[0].Override)

	assert.Equal(t, "#808080", ds.Environments["2"].Color)
	assert.Equal(t, "#00ff00", ds.Environments["3"].Color)
	assert.Equal(t, "Urban", ds.Environments["2"].Name)
}

func TestLoadDatasetFromBytes_Derived(t *testing.T) {
	doc := `{
	  "areas": {"7": {"name": "Caves"}},
	  "environments": {},
	  "rooms": {
	    "10": {"coord": {"x": "4", "y": -2.7, "z": -1}, "name": "Cave", "area": 7, "environment": 1}
	  }
	}`
	ds, _, err := LoadDatasetFromBytes("official", []byte(doc), FormatJSON)
	require.NoError(t, err)

	assert.Nil(t, ds.Areas["7"].Rooms)
	room := ds.Rooms["10"]
	assert.Equal(t, "7", room.Area)
	assert.Equal(t, Coord{X: 4, Y: -2, Z: -1}, room.Coord)
}

func TestLoadDatasetFromBytes_YAML(t *testing.T) {
	doc := `
areas:
  5:
    name: Keep
    rooms:
      1:
        coord: {x: 2, y: 3, z: 0}
        name: Gate
        environment: 1
        exits:
          - name: in
            target: 2
environments:
  1:
    name: Stone
    htmlcolor: "#333333"
`
	ds, _, err := LoadDatasetFromBytes("yaml", []byte(doc), FormatYAML)
	require.NoError(t, err)

	room := ds.Areas["5"].Rooms["1"]
	assert.Equal(t, Coord{X: 2, Y: 3}, room.Coord)
	assert.Equal(t, "1", room.EnvironmentID)
	require.Len(t, room.Exits, 1)
	assert.Equal(t, In, room.Exits[0].Direction)
	assert.Equal(t, "2", room.Exits[0].Target)
	assert.Equal(t, "#333333", ds.Environments["1"].Color)
}

func TestLoadDatasetFromBytes_Malformed(t *testing.T) {
	cases := map[string]string{
		"not json":             `{"areas": [`,
		"missing areas":        `{"environments": {}}`,
		"missing environments": `{"areas": {}}`,
		"null areas":           `{"areas": null, "environments": {}}`,
		"bad coordinate":       `{"areas": {"1": {"rooms": {"1": {"coord": {"x": "east"}}}}}, "environments": {}}`,
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, _, err := LoadDatasetFromBytes("bad", []byte(doc), FormatJSON)
			require.Error(t, err)
			var le *LoadError
			assert.True(t, errors.As(err, &le), "expected *LoadError, got %T", err)
			assert.Equal(t, "bad", le.Source)
		})
	}
}

func TestLoadDatasetFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "crowd-map.json")
	require.NoError(t, os.WriteFile(path, []byte(embeddedMapJSON), 0644))

	ds, _, err := LoadDatasetFromFile("crowd", path)
	require.NoError(t, err)
	assert.Len(t, ds.Areas, 2)
}

func TestLoadDatasetFromFile_NotFound(t *testing.T) {
	_, _, err := LoadDatasetFromFile("crowd", "/nonexistent/map.json")
	require.Error(t, err)
	var le *LoadError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, "/nonexistent/map.json", le.Path)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestLoadDatasetFromFile_PathOnParseError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("areas: [unclosed"), 0644))

	_, _, err := LoadDatasetFromFile("broken", path)
	var le *LoadError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, path, le.Path)
}

func TestFormatForPath(t *testing.T) {
	assert.Equal(t, FormatYAML, FormatForPath("maps/a.yaml"))
	assert.Equal(t, FormatYAML, FormatForPath("maps/a.YML"))
	assert.Equal(t, FormatJSON, FormatForPath("maps/a.json"))
	assert.Equal(t, FormatJSON, FormatForPath("maps/a"))
}
