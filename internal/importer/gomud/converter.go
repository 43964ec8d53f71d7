package gomud

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cory-johannsen/mudmap/internal/importer"
)

// ConvertZone turns a parsed zone and its supporting data into an
// importer.Zone. Exits are ordered by their key so the layout is stable.
//
// Precondition: zone must be non-nil; rooms maps room display names to their
// definitions; roomArea maps room display names to area display names (may be
// nil); startRoom is an optional display-name override for the start room.
// Postcondition: returns a non-nil Zone and a warning for each room without a
// definition, each exit to a room outside the zone and an unknown startRoom.
func ConvertZone(zone *Zone, rooms map[string]*Room, roomArea map[string]string, startRoom string) (*importer.Zone, []string) {
	var warnings []string

	inZone := make(map[string]bool, len(zone.Rooms))
	for _, name := range zone.Rooms {
		inZone[strings.TrimSpace(name)] = true
	}

	out := &importer.Zone{
		Name:        zone.Name,
		Description: strings.TrimSpace(zone.Description),
	}

	for _, rawName := range zone.Rooms {
		name := strings.TrimSpace(rawName)
		room, ok := rooms[name]
		if !ok {
			warnings = append(warnings, fmt.Sprintf("zone %q: room %q has no definition file; skipping", zone.Name, name))
			continue
		}

		zr := importer.ZoneRoom{
			Key:         importer.NameToID(name),
			Name:        room.Name,
			Description: strings.TrimSpace(room.Description),
			Region:      roomArea[name],
		}

		keys := make([]string, 0, len(room.Exits))
		for k := range room.Exits {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			exit := room.Exits[k]
			target := strings.TrimSpace(exit.Target)
			if target == "" {
				target = strings.TrimSpace(exit.Name)
			}
			if !inZone[target] {
				warnings = append(warnings, fmt.Sprintf("room %q: exit target %q is not in zone %q; dropping exit", name, target, zone.Name))
				continue
			}
			direction := exit.Direction
			if direction == "" {
				direction = k
			}
			zr.Exits = append(zr.Exits, importer.ZoneExit{
				Direction: strings.ToLower(strings.TrimSpace(direction)),
				Target:    importer.NameToID(target),
			})
		}
		out.Rooms = append(out.Rooms, zr)
	}

	if len(out.Rooms) > 0 {
		out.Start = out.Rooms[0].Key
	}
	if startRoom != "" {
		key := importer.NameToID(startRoom)
		found := false
		for _, r := range out.Rooms {
			if r.Key == key {
				found = true
				break
			}
		}
		if found {
			out.Start = key
		} else {
			warnings = append(warnings, fmt.Sprintf("zone %q: start room %q is not in the zone; using %q", zone.Name, startRoom, out.Start))
		}
	}
	return out, warnings
}
