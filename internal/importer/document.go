package importer

import (
	"fmt"
	"strconv"
)

// Document is a map dataset in the YAML form the world loader reads. Every
// zone becomes one area with embedded rooms.
type Document struct {
	Areas map[string]AreaDoc `yaml:"areas"`
}

// AreaDoc is one area of a Document.
type AreaDoc struct {
	Name  string             `yaml:"name"`
	Rooms map[string]RoomDoc `yaml:"rooms"`
}

// RoomDoc is one embedded room of an AreaDoc.
type RoomDoc struct {
	Coord    CoordDoc          `yaml:"coord"`
	Name     string            `yaml:"name"`
	Exits    []ExitDoc         `yaml:"exits,omitempty"`
	UserData map[string]string `yaml:"userData,omitempty"`
}

// CoordDoc is a grid coordinate.
type CoordDoc struct {
	X int `yaml:"x"`
	Y int `yaml:"y"`
	Z int `yaml:"z"`
}

// ExitDoc is one exit of a RoomDoc; Target is a room ID of the same area.
type ExitDoc struct {
	Name   string `yaml:"name"`
	Target string `yaml:"target"`
}

// BuildDocument lays out every zone and numbers the result: areas from
// firstArea upward in zone order, rooms from 1 upward across the whole
// document so that room IDs stay unique between areas.
//
// Precondition: firstArea >= 1.
// Postcondition: returns a Document with len(zones) areas and the layout
// warnings of every zone.
func BuildDocument(zones []*Zone, firstArea int) (*Document, []string) {
	doc := &Document{Areas: make(map[string]AreaDoc, len(zones))}
	var warnings []string
	nextRoom := 1

	for i, zone := range zones {
		coords, layoutWarnings := Layout(zone)
		for _, w := range layoutWarnings {
			warnings = append(warnings, fmt.Sprintf("zone %q: %s", zone.Name, w))
		}

		ids := make(map[string]string, len(zone.Rooms))
		for _, r := range zone.Rooms {
			ids[r.Key] = strconv.Itoa(nextRoom)
			nextRoom++
		}

		area := AreaDoc{Name: zone.Name, Rooms: make(map[string]RoomDoc, len(zone.Rooms))}
		for _, r := range zone.Rooms {
			c := coords[r.Key]
			room := RoomDoc{
				Coord: CoordDoc{X: c.X, Y: c.Y, Z: c.Z},
				Name:  r.Name,
			}
			for _, e := range r.Exits {
				target, ok := ids[e.Target]
				if !ok {
					continue
				}
				room.Exits = append(room.Exits, ExitDoc{Name: e.Direction, Target: target})
			}
			if r.Description != "" || r.Region != "" {
				room.UserData = make(map[string]string, 2)
				if r.Description != "" {
					room.UserData["description"] = r.Description
				}
				if r.Region != "" {
					room.UserData["region"] = r.Region
				}
			}
			area.Rooms[ids[r.Key]] = room
		}
		doc.Areas[strconv.Itoa(firstArea+i)] = area
	}
	return doc, warnings
}
