// Package telnet provides the Telnet listener for the terminal map browser.
package telnet

import "strings"

// Screen control sequences.
const (
	ClearScreen = "\033[2J"
	CursorHome  = "\033[H"
)

// Redraw returns the bytes that replace the client's screen with lines.
//
// Postcondition: The result starts at the home position and ends with a line break.
func Redraw(lines []string) []byte {
	var b strings.Builder
	b.WriteString(CursorHome)
	b.WriteString(ClearScreen)
	for _, l := range lines {
		b.WriteString(l)
		b.WriteString("\r\n")
	}
	return []byte(b.String())
}
