package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestValidToken(t *testing.T) {
	assert.True(t, ValidToken(NewToken()))
	assert.False(t, ValidToken(""))
	assert.False(t, ValidToken("not-a-token"))
	assert.False(t, ValidToken("{"+NewToken()+"}"))
}

func TestBookmarkValidate(t *testing.T) {
	ok := Bookmark{Token: NewToken(), Source: "crowd", AreaID: "11"}
	assert.NoError(t, ok.Validate())

	bad := ok
	bad.Token = "x"
	assert.ErrorIs(t, bad.Validate(), ErrInvalidToken)

	bad = ok
	bad.AreaID = ""
	assert.Error(t, bad.Validate())
}

// Property: tokens are unique and always valid.
func TestPropertyNewTokenValid(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(1, 50).Draw(rt, "n")
		seen := make(map[string]bool, n)
		for i := 0; i < n; i++ {
			tok := NewToken()
			if !ValidToken(tok) || seen[tok] {
				rt.Fatalf("bad token %q", tok)
			}
			seen[tok] = true
		}
	})
}
