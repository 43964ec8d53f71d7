package gomud

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"

	"github.com/cory-johannsen/mudmap/internal/importer"
)

var _ importer.Source = (*Source)(nil)

// Source reads a GoMUD asset tree: one YAML file per zone, area and room
// under zones/, areas/ and rooms/. Files ending in anything but .yaml or
// .yml are ignored.
type Source struct{}

// NewSource returns a Source.
func NewSource() *Source { return &Source{} }

// Load returns one Zone per zone file, in file name order. A room defined
// by more than one file keeps the last definition and is reported.
//
// Precondition: sourceDir contains zones/, areas/ and rooms/.
// Postcondition: at least one Zone, or a non-nil error.
func (s *Source) Load(sourceDir, startRoom string) ([]*importer.Zone, []string, error) {
	tree := os.DirFS(sourceDir)
	for _, dir := range []string{"zones", "areas", "rooms"} {
		if _, err := fs.Stat(tree, dir); err != nil {
			return nil, nil, fmt.Errorf("required subdirectory %q not accessible in source: %w", dir, err)
		}
	}

	var warnings []string

	roomList, err := readAll(tree, "rooms", ParseRoom)
	if err != nil {
		return nil, nil, err
	}
	rooms := make(map[string]*Room, len(roomList))
	for _, r := range roomList {
		name := strings.TrimSpace(r.Name)
		if _, dup := rooms[name]; dup {
			warnings = append(warnings, fmt.Sprintf("room %q is defined more than once; keeping the last", name))
		}
		rooms[name] = r
	}

	areas, err := readAll(tree, "areas", ParseArea)
	if err != nil {
		return nil, nil, err
	}
	roomArea := make(map[string]string)
	for _, a := range areas {
		for _, name := range a.Rooms {
			roomArea[strings.TrimSpace(name)] = a.Name
		}
	}

	zoneList, err := readAll(tree, "zones", ParseZone)
	if err != nil {
		return nil, nil, err
	}
	if len(zoneList) == 0 {
		return nil, nil, fmt.Errorf("no zone files found in %s", path.Join(sourceDir, "zones"))
	}
	zones := make([]*importer.Zone, 0, len(zoneList))
	for _, zone := range zoneList {
		z, w := ConvertZone(zone, rooms, roomArea, startRoom)
		zones = append(zones, z)
		warnings = append(warnings, w...)
	}
	return zones, warnings, nil
}

// readAll parses every YAML file directly under dir in name order.
func readAll[T any](tree fs.FS, dir string, parse func([]byte) (*T, error)) ([]*T, error) {
	entries, err := fs.ReadDir(tree, dir)
	if err != nil {
		return nil, fmt.Errorf("reading directory %s: %w", dir, err)
	}
	var out []*T
	for _, e := range entries {
		ext := path.Ext(e.Name())
		if e.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		name := path.Join(dir, e.Name())
		data, err := fs.ReadFile(tree, name)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", name, err)
		}
		v, err := parse(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		out = append(out, v)
	}
	return out, nil
}
