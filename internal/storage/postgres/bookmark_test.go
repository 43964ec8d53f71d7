package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/mudmap/internal/config"
	"github.com/cory-johannsen/mudmap/internal/storage"
	"github.com/cory-johannsen/mudmap/internal/storage/postgres"
	"github.com/cory-johannsen/mudmap/internal/testutil"
)

func TestBookmarkRepository_SaveGet(t *testing.T) {
	repo := postgres.NewBookmarkRepository(testutil.NewPool(t))
	ctx := context.Background()
	tok := storage.NewToken()

	_, err := repo.Get(ctx, tok)
	assert.ErrorIs(t, err, storage.ErrBookmarkNotFound)

	saved, err := repo.Save(ctx, storage.Bookmark{Token: tok, Source: "crowd", AreaID: "11"})
	require.NoError(t, err)
	assert.Equal(t, tok, saved.Token)
	assert.False(t, saved.UpdatedAt.IsZero())

	got, err := repo.Get(ctx, tok)
	require.NoError(t, err)
	assert.Equal(t, "crowd", got.Source)
	assert.Equal(t, "11", got.AreaID)

	updated, err := repo.Save(ctx, storage.Bookmark{Token: tok, Source: "official", AreaID: "4"})
	require.NoError(t, err)
	assert.Equal(t, "official", updated.Source)
	assert.False(t, updated.UpdatedAt.Before(saved.UpdatedAt))

	require.NoError(t, repo.Delete(ctx, tok))
	_, err = repo.Get(ctx, tok)
	assert.ErrorIs(t, err, storage.ErrBookmarkNotFound)

	// Each property iteration uses fresh tokens against the same container.
	rapid.Check(t, func(rt *rapid.T) {
		b := storage.Bookmark{
			Token:  storage.NewToken(),
			Source: rapid.SampledFrom([]string{"crowd", "official"}).Draw(rt, "source"),
			AreaID: rapid.StringMatching(`[0-9]{1,4}`).Draw(rt, "area"),
		}
		if _, err := repo.Save(ctx, b); err != nil {
			rt.Fatal(err)
		}
		got, err := repo.Get(ctx, b.Token)
		if err != nil || got.Source != b.Source || got.AreaID != b.AreaID {
			rt.Fatalf("got %+v, %v; want %+v", got, err, b)
		}
	})
}

func TestBookmarkRepository_InvalidToken(t *testing.T) {
	// Token validation happens before any query, so no database is needed.
	repo := postgres.NewBookmarkRepository(nil)
	ctx := context.Background()

	_, err := repo.Get(ctx, "not-a-token")
	assert.ErrorIs(t, err, storage.ErrInvalidToken)
	_, err = repo.Save(ctx, storage.Bookmark{Token: "x", Source: "crowd", AreaID: "1"})
	assert.ErrorIs(t, err, storage.ErrInvalidToken)
	assert.ErrorIs(t, repo.Delete(ctx, "x"), storage.ErrInvalidToken)
}

func TestPool_Monitor(t *testing.T) {
	pc := testutil.NewPostgresContainer(t)
	require.True(t, pc.Pool.Healthy())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		pc.Pool.Monitor(ctx, 10*time.Millisecond, zaptest.NewLogger(t))
		close(done)
	}()
	time.Sleep(50 * time.Millisecond)
	assert.True(t, pc.Pool.Healthy())
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("monitor did not stop")
	}
}

func TestConnect_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	cfg := config.DatabaseConfig{
		Host: "127.0.0.1", Port: 1, User: "u", Password: "p", Name: "n",
		SSLMode: "disable", MaxConns: 1,
	}
	_, err := postgres.Connect(ctx, cfg)
	require.Error(t, err)
}
