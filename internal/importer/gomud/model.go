// Package gomud reads the GoMUD asset layout: zones, areas and rooms that
// refer to each other by display name.
package gomud

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Zone is a parsed assets/zones/<name>.yaml file. Rooms lists display names.
type Zone struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Rooms       []string `yaml:"rooms"`
	Areas       []string `yaml:"areas"`
}

// Area is a parsed assets/areas/<name>.yaml file; it groups rooms of a zone.
type Area struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Rooms       []string `yaml:"rooms"`
}

// Room is a parsed assets/rooms/<name>.yaml file. Objects are not read.
type Room struct {
	Name        string          `yaml:"name"`
	Description string          `yaml:"description"`
	Exits       map[string]Exit `yaml:"exits"`
}

// Exit is one entry of Room.Exits. Direction is a capitalized compass
// direction ("North", "Southwest") or a free-form exit name; Target is the
// display name of the target room.
type Exit struct {
	Direction string `yaml:"direction"`
	Name      string `yaml:"name"`
	Target    string `yaml:"target"`
}

// ParseZone parses a zone file.
func ParseZone(data []byte) (*Zone, error) { return parse[Zone](data, "zone") }

// ParseArea parses an area file.
func ParseArea(data []byte) (*Area, error) { return parse[Area](data, "area") }

// ParseRoom parses a room file.
func ParseRoom(data []byte) (*Room, error) { return parse[Room](data, "room") }

func parse[T any](data []byte, kind string) (*T, error) {
	var v T
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("parsing gomud %s: %w", kind, err)
	}
	return &v, nil
}
