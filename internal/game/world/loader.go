package world

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format is the encoding of a dataset document.
type Format int

const (
	// FormatJSON is the native map export format.
	FormatJSON Format = iota
	// FormatYAML is accepted for hand-maintained datasets.
	FormatYAML
)

// FormatForPath picks the document format from a file extension.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	}
	return FormatJSON
}

// LoadStats describes anomalies absorbed while decoding a dataset.
type LoadStats struct {
	// DroppedExits counts exit records with neither a name nor a direction.
	DroppedExits int
}

// jsonDataset is the top-level structure of a map document.
type jsonDataset struct {
	Areas        map[string]jsonArea        `json:"areas"`
	Rooms        map[string]jsonRoom        `json:"rooms"`
	Environments map[string]jsonEnvironment `json:"environments"`
}

type jsonArea struct {
	Name  string              `json:"name"`
	Rooms map[string]jsonRoom `json:"rooms"`
}

type jsonEnvironment struct {
	Name      string `json:"name"`
	HTMLColor string `json:"htmlcolor"`
	Color     string `json:"color"`
}

type jsonCoord struct {
	X flexInt `json:"x"`
	Y flexInt `json:"y"`
	Z flexInt `json:"z"`
}

type jsonRoom struct {
	Coord       jsonCoord                  `json:"coord"`
	Name        string                     `json:"name"`
	Title       string                     `json:"title"`
	Environment flexString                 `json:"environment"`
	Area        flexString                 `json:"area"`
	Exits       []jsonExit                 `json:"exits"`
	UserData    map[string]json.RawMessage `json:"userData"`
}

type jsonExit struct {
	Name       *string         `json:"name"`
	Direction  *string         `json:"direction"`
	Target     flexString      `json:"target"`
	ExitID     flexString      `json:"exitId"`
	CustomLine *jsonCustomLine `json:"customLine"`
}

type jsonCustomLine struct {
	Coordinates [][]float64 `json:"coordinates"`
}

// flexString accepts a JSON string or number. Map exports mix the two for IDs.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("expected string or number, got %s", b)
	}
	*f = flexString(n.String())
	return nil
}

// flexInt accepts a JSON number (truncated toward zero) or a numeric string.
type flexInt int

func (f *flexInt) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	raw := string(b)
	if len(b) > 0 && b[0] == '"' {
		if err := json.Unmarshal(b, &raw); err != nil {
			return err
		}
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return fmt.Errorf("expected numeric coordinate, got %s", b)
	}
	*f = flexInt(int(math.Trunc(v)))
	return nil
}

// LoadDatasetFromFile reads and decodes a dataset document.
//
// Precondition: path must name a JSON or YAML map document.
// Postcondition: Returns a Dataset or a *LoadError.
func LoadDatasetFromFile(source, path string) (*Dataset, LoadStats, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, LoadStats{}, &LoadError{Source: source, Path: path, Err: err}
	}
	ds, stats, err := LoadDatasetFromBytes(source, data, FormatForPath(path))
	if err != nil {
		var le *LoadError
		if errors.As(err, &le) {
			le.Path = path
		}
		return nil, stats, err
	}
	return ds, stats, nil
}

// LoadDatasetFromBytes decodes a dataset document.
//
// Precondition: data must contain "areas" and "environments" collections.
// Postcondition: Returns a Dataset with normalized exits, or a *LoadError.
func LoadDatasetFromBytes(source string, data []byte, format Format) (*Dataset, LoadStats, error) {
	fail := func(err error) (*Dataset, LoadStats, error) {
		return nil, LoadStats{}, &LoadError{Source: source, Path: "<memory>", Err: err}
	}

	if format == FormatYAML {
		converted, err := yamlToJSON(data)
		if err != nil {
			return fail(fmt.Errorf("parsing map YAML: %w", err))
		}
		data = converted
	}

	var doc jsonDataset
	if err := json.Unmarshal(data, &doc); err != nil {
		return fail(fmt.Errorf("parsing map document: %w", err))
	}
	if doc.Areas == nil {
		return fail(errors.New(`missing required collection "areas"`))
	}
	if doc.Environments == nil {
		return fail(errors.New(`missing required collection "environments"`))
	}

	var stats LoadStats
	ds := convertDataset(source, doc, &stats)
	return ds, stats, nil
}

// yamlToJSON re-encodes a YAML document as JSON so both formats share one schema.
func yamlToJSON(data []byte) ([]byte, error) {
	var doc interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return json.Marshal(normalizeYAML(doc))
}

// normalizeYAML converts maps with non-string keys (numeric room IDs) into
// string-keyed maps that encoding/json can marshal.
func normalizeYAML(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, val := range t {
			out[k] = normalizeYAML(val)
		}
		return out
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = normalizeYAML(val)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, val := range t {
			out[i] = normalizeYAML(val)
		}
		return out
	default:
		return v
	}
}

// convertDataset converts the decoded document into domain types.
func convertDataset(source string, doc jsonDataset, stats *LoadStats) *Dataset {
	ds := &Dataset{
		Source:       source,
		Areas:        make(map[string]AreaRecord, len(doc.Areas)),
		Rooms:        make(map[string]RoomRecord, len(doc.Rooms)),
		Environments: make(map[string]Environment, len(doc.Environments)),
	}

	for id, je := range doc.Environments {
		color := je.HTMLColor
		if color == "" {
			color = je.Color
		}
		ds.Environments[id] = Environment{ID: id, Name: je.Name, Color: color}
	}

	for id, ja := range doc.Areas {
		area := AreaRecord{Name: ja.Name}
		if ja.Rooms != nil {
			area.Rooms = make(map[string]RoomRecord, len(ja.Rooms))
			for roomID, jr := range ja.Rooms {
				area.Rooms[roomID] = convertRoom(jr, stats)
			}
		}
		ds.Areas[id] = area
	}

	for id, jr := range doc.Rooms {
		ds.Rooms[id] = convertRoom(jr, stats)
	}

	return ds
}

func convertRoom(jr jsonRoom, stats *LoadStats) RoomRecord {
	room := RoomRecord{
		Coord: Coord{
			X: int(jr.Coord.X),
			Y: int(jr.Coord.Y),
			Z: int(jr.Coord.Z),
		},
		Name:          jr.Name,
		Title:         jr.Title,
		EnvironmentID: string(jr.Environment),
		Area:          string(jr.Area),
	}

	for _, je := range jr.Exits {
		exit, ok := convertExit(je)
		if !ok {
			stats.DroppedExits++
			continue
		}
		room.Exits = append(room.Exits, exit)
	}

	if jr.UserData != nil {
		room.Attributes = make(map[string]string, len(jr.UserData))
		for k, raw := range jr.UserData {
			room.Attributes[k] = attributeString(raw)
		}
	}

	return room
}

// convertExit normalizes the name|direction and target|exitId variants.
//
// Postcondition: Returns false when the record carries neither name nor direction.
func convertExit(je jsonExit) (Exit, bool) {
	var raw string
	switch {
	case je.Name != nil && strings.TrimSpace(*je.Name) != "":
		raw = *je.Name
	case je.Direction != nil && strings.TrimSpace(*je.Direction) != "":
		raw = *je.Direction
	default:
		return Exit{}, false
	}

	exit := Exit{
		Direction: ParseDirection(raw),
		Target:    string(je.Target),
	}
	if exit.Target == "" {
		exit.Target = string(je.ExitID)
	}
	if je.CustomLine != nil && len(je.CustomLine.Coordinates) > 0 && len(je.CustomLine.Coordinates[0]) >= 2 {
		first := je.CustomLine.Coordinates[0]
		exit.Override = &GridPoint{
			X: roundHalfUp(first[0]),
			Y: roundHalfUp(first[1]),
		}
	}
	return exit, true
}

// roundHalfUp rounds .5 toward positive infinity, as browser map exports expect.
func roundHalfUp(v float64) int {
	return int(math.Floor(v + 0.5))
}

// attributeString renders a userData value as a string: JSON strings unquoted,
// everything else as its literal text.
func attributeString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(raw))
}
