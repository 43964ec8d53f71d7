package importer

import (
	"strings"
	"unicode"
)

// NameToID turns a display name into the key rooms are joined on. Letters
// and digits are kept in lower case, apostrophes vanish, and every other run
// of characters becomes one underscore. Leading and trailing separators are
// dropped, so "  Smuggler's -- Cove " and "smugglers_cove" share a key.
//
// Postcondition: NameToID(NameToID(s)) == NameToID(s).
func NameToID(name string) string {
	var b strings.Builder
	gap := false
	for _, r := range name {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if gap && b.Len() > 0 {
				b.WriteByte('_')
			}
			gap = false
			b.WriteRune(unicode.ToLower(r))
		case r == '\'' || r == '’':
		default:
			gap = true
		}
	}
	return b.String()
}
