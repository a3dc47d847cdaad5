package catalog

import (
	"bytes"
	"context"
	"math/rand"
	"os"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/hotelsearch/engine"
	"github.com/viant/hotelsearch/geo"
)

func TestMain(m *testing.M) {
	logrus.SetLevel(logrus.WarnLevel)
	os.Exit(m.Run())
}

func newStore(t *testing.T) *SQLiteStore {
	t.Helper()
	db, err := engine.OpenGeo(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	store, err := NewSQLiteStore(context.Background(), db)
	require.NoError(t, err)
	return store
}

func TestGenerate(t *testing.T) {
	hotels := Generate(rand.New(rand.NewSource(1)), 200)
	require.Len(t, hotels, 200)
	for i, h := range hotels {
		assert.Equal(t, int64(i+1), h.ID)
		assert.Contains(t, Brands, h.Brand)
		assert.Contains(t, Cities, h.City)
		assert.True(t, strings.HasPrefix(h.Name, h.Brand+" "+h.City+" Hotel #"), h.Name)
		assert.True(t, h.Location.X >= 0 && h.Location.X <= 100)
		assert.True(t, h.Location.Y >= 0 && h.Location.Y <= 100)
		assert.Equal(t, round2(h.Location.X), h.Location.X)
		assert.True(t, h.Price >= 200 && h.Price <= 1500, "price %d", h.Price)
		assert.True(t, h.Rating >= 3.0 && h.Rating <= 5.0, "rating %v", h.Rating)
		assert.Equal(t, DefaultCapacity, h.Capacity)
	}
	assert.Equal(t, hotels, Generate(rand.New(rand.NewSource(1)), 200))
	assert.Nil(t, Generate(rand.New(rand.NewSource(1)), 0))
}

func TestTextRoundTrip(t *testing.T) {
	hotels := Generate(rand.New(rand.NewSource(2)), 25)
	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, hotels))

	first := strings.SplitN(buf.String(), "\n", 2)[0]
	assert.Equal(t, 6, len(strings.Split(first, ",")), first)

	restored, err := ReadText(&buf)
	require.NoError(t, err)
	assert.Equal(t, hotels, restored)
}

func TestReadText_Errors(t *testing.T) {
	testCases := []struct {
		name  string
		input string
	}{
		{name: "too few fields", input: "品牌1,name,1,2,300\n"},
		{name: "bad x", input: "品牌1,name,abc,2,300,4.5\n"},
		{name: "bad price", input: "品牌1,name,1,2,3.5,4.5\n"},
		{name: "infinite y", input: "品牌1,name,1,Inf,300,4.5\n"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ReadText(strings.NewReader(tc.input))
			assert.Error(t, err)
		})
	}

	hotels, err := ReadText(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, hotels)
}

func TestHashLocation(t *testing.T) {
	assert.Equal(t, geo.Pt(95, 51), HashLocation("Beijing"))
	assert.Equal(t, geo.Pt(31, 28), HashLocation("Shanghai"))

	p, err := HashLocator(context.Background(), "  ")
	require.NoError(t, err)
	assert.Equal(t, HashLocation(DefaultLocation), p)
}

func TestSQLiteStore_CRUD(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	ids, err := store.AddHotels(ctx, []Hotel{
		{Brand: "品牌1", Name: "a", Location: geo.Pt(1, 1), Price: 300, Rating: 4.1},
		{ID: 10, Brand: "品牌2", Name: "b", Location: geo.Pt(2, 2), Price: 500, Rating: 3.5, Capacity: 2},
	})
	require.NoError(t, err)
	require.Len(t, ids, 2)
	assert.Equal(t, int64(10), ids[1])

	h, err := store.Hotel(ctx, ids[0])
	require.NoError(t, err)
	assert.Equal(t, "a", h.Name)
	assert.Equal(t, DefaultCapacity, h.Capacity)
	assert.Equal(t, geo.Pt(1, 1), h.Location)

	require.NoError(t, store.Move(ctx, 10, geo.Pt(7, 8)))
	h, err = store.Hotel(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, geo.Pt(7, 8), h.Location)

	require.NoError(t, store.Remove(ctx, ids[0]))
	_, err = store.Hotel(ctx, ids[0])
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, store.Remove(ctx, ids[0]), ErrNotFound)
	assert.ErrorIs(t, store.Move(ctx, 999, geo.Pt(1, 1)), ErrNotFound)

	all, err := store.Hotels(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)

	_, err = store.AddHotels(ctx, []Hotel{{Name: ""}})
	assert.Error(t, err)

	// insert, insert, move, delete
	scn, err := store.SCN(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), scn)
}

func TestSQLiteStore_SoldOut(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	_, err := store.AddHotels(ctx, []Hotel{
		{ID: 1, Name: "a", Location: geo.Pt(1, 1), Capacity: 1},
		{ID: 2, Name: "b", Location: geo.Pt(2, 2), Capacity: 1},
	})
	require.NoError(t, err)
	_, err = store.DB().Exec(`UPDATE hotels SET capacity = 0 WHERE id = 2`)
	require.NoError(t, err)

	bm, err := store.SoldOut(ctx)
	require.NoError(t, err)
	assert.Equal(t, []uint64{2}, bm.ToArray())
}

func TestSQLiteStore_NearestSQL(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	_, err := store.AddHotels(ctx, Generate(rand.New(rand.NewSource(3)), 100))
	require.NoError(t, err)

	q := geo.Pt(20, 30)
	got, err := store.NearestSQL(ctx, q, 10)
	require.NoError(t, err)
	require.Len(t, got, 10)
	for i := 1; i < len(got); i++ {
		assert.LessOrEqual(t, got[i-1].Distance, got[i].Distance)
	}
	assert.Equal(t, round2(geo.Distance(q, got[0].Location)), got[0].Distance)
}
