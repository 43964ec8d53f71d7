// Package storage defines the persisted restorable selection of web viewers.
package storage

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Bookmark is the last {source, area} a browser looked at, keyed by the
// token kept in its cookie.
type Bookmark struct {
	Token     string    `json:"-"`
	Source    string    `json:"source"`
	AreaID    string    `json:"area"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ErrBookmarkNotFound is returned when no bookmark exists for a token.
var ErrBookmarkNotFound = errors.New("bookmark not found")

// ErrInvalidToken is returned when a token is not a UUID.
var ErrInvalidToken = errors.New("invalid bookmark token")

// NewToken returns a fresh random bookmark token.
func NewToken() string {
	return uuid.NewString()
}

// ValidToken reports whether token has the form NewToken produces.
func ValidToken(token string) bool {
	_, err := uuid.Parse(token)
	return err == nil && len(token) == 36
}

// Validate checks that b can be stored.
//
// Postcondition: Returns ErrInvalidToken for a malformed token, or an error
// naming the missing field.
func (b Bookmark) Validate() error {
	if !ValidToken(b.Token) {
		return ErrInvalidToken
	}
	if b.Source == "" || b.AreaID == "" {
		return errors.New("bookmark requires a source and an area")
	}
	return nil
}
