package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/mudmap/internal/storage"
)

// BookmarkRepository provides bookmark persistence operations.
type BookmarkRepository struct {
	db *pgxpool.Pool
}

// NewBookmarkRepository creates a BookmarkRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewBookmarkRepository(db *pgxpool.Pool) *BookmarkRepository {
	return &BookmarkRepository{db: db}
}

// Get retrieves the bookmark for token.
//
// Postcondition: Returns the Bookmark, storage.ErrBookmarkNotFound, or
// storage.ErrInvalidToken for a malformed token.
func (r *BookmarkRepository) Get(ctx context.Context, token string) (storage.Bookmark, error) {
	if !storage.ValidToken(token) {
		return storage.Bookmark{}, storage.ErrInvalidToken
	}
	var b storage.Bookmark
	err := r.db.QueryRow(ctx,
		`SELECT token::text, source, area_id, updated_at
		 FROM bookmarks WHERE token = $1`,
		token,
	).Scan(&b.Token, &b.Source, &b.AreaID, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return storage.Bookmark{}, storage.ErrBookmarkNotFound
		}
		return storage.Bookmark{}, fmt.Errorf("querying bookmark: %w", err)
	}
	return b, nil
}

// Save inserts the bookmark or replaces the selection stored for its token.
//
// Precondition: b must pass Validate.
// Postcondition: Returns the stored Bookmark with UpdatedAt set by the database.
func (r *BookmarkRepository) Save(ctx context.Context, b storage.Bookmark) (storage.Bookmark, error) {
	if err := b.Validate(); err != nil {
		return storage.Bookmark{}, err
	}
	var out storage.Bookmark
	err := r.db.QueryRow(ctx,
		`INSERT INTO bookmarks (token, source, area_id)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (token) DO UPDATE
		   SET source = EXCLUDED.source, area_id = EXCLUDED.area_id, updated_at = NOW()
		 RETURNING token::text, source, area_id, updated_at`,
		b.Token, b.Source, b.AreaID,
	).Scan(&out.Token, &out.Source, &out.AreaID, &out.UpdatedAt)
	if err != nil {
		return storage.Bookmark{}, fmt.Errorf("saving bookmark: %w", err)
	}
	return out, nil
}

// Delete removes the bookmark for token. Deleting a missing bookmark is not an error.
func (r *BookmarkRepository) Delete(ctx context.Context, token string) error {
	if !storage.ValidToken(token) {
		return storage.ErrInvalidToken
	}
	if _, err := r.db.Exec(ctx, `DELETE FROM bookmarks WHERE token = $1`, token); err != nil {
		return fmt.Errorf("deleting bookmark: %w", err)
	}
	return nil
}
