package world

import (
	"regexp"
	"sort"
	"strings"
)

var detailSuffix = regexp.MustCompile(` \(.+?\)$`)

// DisplayName presents an area name for selection lists. A trailing
// parenthetical detail is set aside, a "Last, First" name becomes
// "First Last", a leading "the" is dropped and the detail is re-appended:
// "Town, Little (Ruins)" becomes "Little Town (Ruins)".
func DisplayName(name string) string {
	detail := ""
	if loc := detailSuffix.FindStringIndex(name); loc != nil {
		detail = strings.TrimSpace(name[loc[0]:])
		name = name[:loc[0]]
	}

	parts := strings.Split(name, ", ")
	if len(parts) >= 2 {
		reordered := make([]string, 0, len(parts))
		reordered = append(reordered, parts[1], parts[0])
		reordered = append(reordered, parts[2:]...)
		parts = reordered
	}
	name = strings.Join(parts, " ")

	if words := strings.Fields(name); len(words) > 1 && strings.EqualFold(words[0], "the") {
		name = strings.Join(words[1:], " ")
	}

	if detail != "" {
		name += " " + detail
	}
	return name
}

// AreaOption is one entry of the area selection list.
type AreaOption struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// AreaOptions lists every area of ds sorted by display name, then by ID.
//
// Postcondition: Returns a non-nil slice; may be empty.
func AreaOptions(ds *Dataset) []AreaOption {
	opts := make([]AreaOption, 0, len(ds.Areas))
	for id, a := range ds.Areas {
		opts = append(opts, AreaOption{ID: id, Name: DisplayName(a.Name)})
	}
	sort.Slice(opts, func(i, j int) bool {
		if opts[i].Name != opts[j].Name {
			return opts[i].Name < opts[j].Name
		}
		return opts[i].ID < opts[j].ID
	})
	return opts
}
