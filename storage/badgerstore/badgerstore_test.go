package badgerstore

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/acksell/hbnb/models"
	"github.com/acksell/hbnb/storage"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type seqIdentity struct{ n int }

func (s *seqIdentity) NewID() string {
	s.n++
	return fmt.Sprintf("%d", 100-s.n)
}

func (s *seqIdentity) Now() time.Time {
	return time.Date(2024, 2, 29, 23, 59, 59, 999999000, time.UTC)
}

func newTestStore(t *testing.T) *Store {
	store, err := New(Options{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

func sampleEntities(t *testing.T) []*models.Entity {
	id := &seqIdentity{}
	place := models.Place.New(id)
	require.NoError(t, place.Set("price_by_night", models.Int(120)))
	require.NoError(t, place.Set("longitude", models.Float(-3)))
	require.NoError(t, place.Set("amenity_ids", models.List(models.String("wifi"))))
	require.NoError(t, place.Set("owner", models.Map(map[string]models.Value{
		"name":   models.String("Ann"),
		"rating": models.Float(4.5),
	})))
	return []*models.Entity{place, models.User.New(id), models.BaseModel.New(id)}
}

func TestStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	saved := sampleEntities(t)
	require.NoError(t, store.Save(ctx, saved))

	loaded, err := store.Load(ctx, models.DefaultRegistry())
	require.NoError(t, err)
	require.Len(t, loaded, len(saved))
	for i := range saved {
		assert.Equal(t, saved[i].Key(), loaded[i].Key(), "order preserved")
		assert.Equal(t, saved[i].String(), loaded[i].String())
	}

	lon, _ := loaded[0].Get("longitude")
	assert.Equal(t, models.KindFloat, lon.Kind())
	price, _ := loaded[0].Get("price_by_night")
	assert.Equal(t, models.KindInt, price.Kind())
}

func TestStore_SaveReplacesPrevious(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	all := sampleEntities(t)
	require.NoError(t, store.Save(ctx, all))
	require.NoError(t, store.Save(ctx, all[1:2]))

	loaded, err := store.Load(ctx, models.DefaultRegistry())
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, all[1].Key(), loaded[0].Key())
}

func TestStore_Reopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	store, err := New(Options{Path: dir})
	require.NoError(t, err)
	saved := sampleEntities(t)
	require.NoError(t, store.Save(ctx, saved))
	require.NoError(t, store.Close())

	store, err = New(Options{Path: dir})
	require.NoError(t, err)
	defer store.Close()
	loaded, err := store.Load(ctx, models.DefaultRegistry())
	require.NoError(t, err)
	require.Len(t, loaded, len(saved))
	assert.Equal(t, saved[2].Key(), loaded[2].Key())
}

func TestStore_LoadMalformed(t *testing.T) {
	ctx := context.Background()

	t.Run("undecodable value", func(t *testing.T) {
		store := newTestStore(t)
		require.NoError(t, store.db.Update(func(txn *badger.Txn) error {
			return txn.Set(encodeKey(1, "User.1"), []byte("garbage"))
		}))
		_, err := store.Load(ctx, models.DefaultRegistry())
		assert.ErrorIs(t, err, storage.ErrMalformed)
	})

	t.Run("unknown class", func(t *testing.T) {
		store := newTestStore(t)
		item, err := SerializeItem(map[string]types.AttributeValue{
			"__class__": &types.AttributeValueMemberS{Value: "Ghost"},
		})
		require.NoError(t, err)
		require.NoError(t, store.db.Update(func(txn *badger.Txn) error {
			return txn.Set(encodeKey(1, "Ghost.1"), item)
		}))
		_, err = store.Load(ctx, models.DefaultRegistry())
		assert.ErrorIs(t, err, storage.ErrMalformed)
	})
}

func TestStore_WithEngine(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	opts := storage.Options{Backend: store, Classes: models.DefaultRegistry()}

	engine, err := storage.New(opts)
	require.NoError(t, err)
	for _, ent := range sampleEntities(t) {
		require.NoError(t, engine.Register(ent))
	}
	require.NoError(t, engine.Delete("User", "98"))
	require.NoError(t, engine.Save(ctx))

	reloaded, err := storage.New(opts)
	require.NoError(t, err)
	require.NoError(t, reloaded.Reload(ctx))
	assert.Equal(t, 2, reloaded.Count(""))
	assert.Equal(t, 0, reloaded.Count("User"))
}

// =============================================================================
// Encoding
// =============================================================================

func TestEncodeKey(t *testing.T) {
	a := encodeKey(2, "User.z")
	b := encodeKey(10, "Amenity.a")
	assert.Less(t, string(a), string(b), "sequence dominates ordering")

	seq, key, err := decodeKey(b)
	require.NoError(t, err)
	assert.Equal(t, uint64(10), seq)
	assert.Equal(t, "Amenity.a", key)

	_, _, err = decodeKey([]byte("other"))
	assert.Error(t, err)
}

func TestAttributeValues(t *testing.T) {
	tests := []struct {
		name string
		in   models.Value
		want types.AttributeValue
	}{
		{"string", models.String("x"), &types.AttributeValueMemberS{Value: "x"}},
		{"int", models.Int(-7), &types.AttributeValueMemberN{Value: "-7"}},
		{"integral float", models.Float(2), &types.AttributeValueMemberN{Value: "2.0"}},
		{"list", models.List(models.Int(1)), &types.AttributeValueMemberL{Value: []types.AttributeValue{
			&types.AttributeValueMemberN{Value: "1"},
		}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			av, err := toAttributeValue(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, av)

			back, err := fromAttributeValue(av)
			require.NoError(t, err)
			assert.True(t, tt.in.Equal(back), "got %s", back)
		})
	}

	_, err := fromAttributeValue(&types.AttributeValueMemberBOOL{Value: true})
	assert.Error(t, err)
}
