// Package memory provides an in-process bookmark store used when no database
// is configured.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/cory-johannsen/mudmap/internal/storage"
)

// BookmarkStore keeps bookmarks in a map. It is safe for concurrent use.
type BookmarkStore struct {
	mu        sync.RWMutex
	bookmarks map[string]storage.Bookmark
	now       func() time.Time
}

// NewBookmarkStore creates an empty BookmarkStore.
func NewBookmarkStore() *BookmarkStore {
	return &BookmarkStore{
		bookmarks: make(map[string]storage.Bookmark),
		now:       time.Now,
	}
}

// Get returns the bookmark for token.
//
// Postcondition: Returns storage.ErrBookmarkNotFound when none is stored.
func (s *BookmarkStore) Get(ctx context.Context, token string) (storage.Bookmark, error) {
	if err := ctx.Err(); err != nil {
		return storage.Bookmark{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.bookmarks[token]
	if !ok {
		return storage.Bookmark{}, storage.ErrBookmarkNotFound
	}
	return b, nil
}

// Save inserts or replaces the bookmark for b.Token.
//
// Postcondition: Returns the stored bookmark with UpdatedAt set.
func (s *BookmarkStore) Save(ctx context.Context, b storage.Bookmark) (storage.Bookmark, error) {
	if err := ctx.Err(); err != nil {
		return storage.Bookmark{}, err
	}
	if err := b.Validate(); err != nil {
		return storage.Bookmark{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	b.UpdatedAt = s.now()
	s.bookmarks[b.Token] = b
	return b, nil
}

// Delete removes the bookmark for token. Deleting a missing bookmark is not an error.
func (s *BookmarkStore) Delete(ctx context.Context, token string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.bookmarks, token)
	return nil
}
