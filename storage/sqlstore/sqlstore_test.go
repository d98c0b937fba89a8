package sqlstore

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/acksell/hbnb/models"
	"github.com/acksell/hbnb/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type seqIdentity struct{ n int }

func (s *seqIdentity) NewID() string {
	s.n++
	return fmt.Sprintf("obj-%d", s.n)
}

func (s *seqIdentity) Now() time.Time {
	return time.Date(2023, 12, 31, 8, 0, 0, 500000, time.UTC)
}

func newTestStore(t *testing.T) (*Store, string) {
	path := filepath.Join(t.TempDir(), "hbnb.db")
	store, err := Open(context.Background(), Options{Path: path})
	require.NoError(t, err)
	t.Cleanup(func() {
		store.Close()
	})
	return store, path
}

func TestStore_LoadEmpty(t *testing.T) {
	store, _ := newTestStore(t)
	ents, err := store.Load(context.Background(), models.DefaultRegistry())
	require.NoError(t, err)
	assert.Empty(t, ents)
}

func TestStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store, path := newTestStore(t)
	id := &seqIdentity{}

	review := models.Review.New(id)
	require.NoError(t, review.Set("text", models.String("Great stay")))
	require.NoError(t, review.Set("stars", models.Float(5)))
	city := models.City.New(id)
	require.NoError(t, city.Set("zip", models.Int(75001)))
	saved := []*models.Entity{review, city}
	require.NoError(t, store.Save(ctx, saved))

	// reopen to read through a fresh handle
	require.NoError(t, store.Close())
	store, err := Open(ctx, Options{Path: path})
	require.NoError(t, err)
	defer store.Close()

	loaded, err := store.Load(ctx, models.DefaultRegistry())
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	for i := range saved {
		assert.Equal(t, saved[i].String(), loaded[i].String())
	}
	stars, _ := loaded[0].Get("stars")
	assert.Equal(t, models.KindFloat, stars.Kind())
}

func TestStore_SaveReplaces(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)
	id := &seqIdentity{}
	a, b := models.State.New(id), models.State.New(id)

	require.NoError(t, store.Save(ctx, []*models.Entity{a, b}))
	require.NoError(t, store.Save(ctx, []*models.Entity{b}))

	loaded, err := store.Load(ctx, models.DefaultRegistry())
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, b.Key(), loaded[0].Key())
}

func TestStore_LoadMalformed(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)
	_, err := store.sqlDB.ExecContext(ctx, `INSERT INTO objects (seq, key, class, body) VALUES (1, 'User.1', 'User', 'not json')`)
	require.NoError(t, err)

	_, err = store.Load(ctx, models.DefaultRegistry())
	assert.ErrorIs(t, err, storage.ErrMalformed)
}

func TestStore_WithEngine(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)
	opts := storage.Options{Backend: store, Classes: models.DefaultRegistry()}

	engine, err := storage.Open(ctx, opts)
	require.NoError(t, err)
	id := &seqIdentity{}
	for i := 0; i < 3; i++ {
		require.NoError(t, engine.Register(models.Amenity.New(id)))
	}
	require.NoError(t, engine.Save(ctx))

	reloaded, err := storage.Open(ctx, opts)
	require.NoError(t, err)
	assert.Equal(t, 3, reloaded.Count("Amenity"))
	assert.Equal(t, "Amenity.obj-1", reloaded.All("")[0].Key())
}
