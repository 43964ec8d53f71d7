package telnet

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestRedraw(t *testing.T) {
	out := string(Redraw([]string{"[crowd] Keep", "[ ]--[$]"}))
	assert.Equal(t, CursorHome+ClearScreen+"[crowd] Keep\r\n[ ]--[$]\r\n", out)
}

func TestRedraw_Empty(t *testing.T) {
	assert.Equal(t, CursorHome+ClearScreen, string(Redraw(nil)))
}

// Property: every line appears once, terminated by CRLF.
func TestPropertyRedrawLineCount(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		lines := rapid.SliceOf(rapid.StringMatching(`[ -~]{0,20}`)).Draw(rt, "lines")
		out := string(Redraw(lines))
		assert.Equal(rt, len(lines), strings.Count(out, "\r\n"))
	})
}
