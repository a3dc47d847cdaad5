package catalog

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/hotelsearch/geo"
	"github.com/viant/hotelsearch/index"
	"github.com/viant/hotelsearch/index/bruteforce"
	"github.com/viant/hotelsearch/index/cover"
)

func seededStore(t *testing.T, n int) *SQLiteStore {
	t.Helper()
	store := newStore(t)
	_, err := store.AddHotels(context.Background(), Generate(rand.New(rand.NewSource(42)), n))
	require.NoError(t, err)
	return store
}

func matchIDs(matches []Match) []int64 {
	ids := make([]int64, len(matches))
	for i, m := range matches {
		ids[i] = m.ID
	}
	return ids
}

func TestFinder_MatchesSQL(t *testing.T) {
	ctx := context.Background()
	store := seededStore(t, 300)

	for _, kind := range []index.Kind{index.KindBrute, index.KindCover, index.KindAuto} {
		t.Run(string(kind), func(t *testing.T) {
			finder, err := NewFinder(store, WithIndexKind(kind), WithSnapshots(false))
			require.NoError(t, err)
			rng := rand.New(rand.NewSource(9))
			for i := 0; i < 10; i++ {
				q := geo.Pt(rng.Float64()*100, rng.Float64()*100)
				want, err := store.NearestSQL(ctx, q, 10)
				require.NoError(t, err)
				got, err := finder.FindNear(ctx, q, 10)
				require.NoError(t, err)
				assert.Equal(t, matchIDs(want), matchIDs(got), "query %v", q)
				assert.Equal(t, want, got)
			}
		})
	}
}

func TestFinder_Find(t *testing.T) {
	ctx := context.Background()
	store := seededStore(t, 50)
	finder, err := NewFinder(store)
	require.NoError(t, err)

	res, err := finder.Find(ctx, "", 10)
	require.NoError(t, err)
	assert.Equal(t, DefaultLocation, res.Location)
	assert.Equal(t, geo.Pt(95, 51), res.Coords)
	require.Len(t, res.Hotels, 10)
	for i := 1; i < len(res.Hotels); i++ {
		assert.LessOrEqual(t, res.Hotels[i-1].Distance, res.Hotels[i].Distance)
	}

	all, err := finder.Find(ctx, "Shanghai", 0)
	require.NoError(t, err)
	assert.Len(t, all.Hotels, 50)
}

func TestFinder_CustomLocator(t *testing.T) {
	ctx := context.Background()
	store := seededStore(t, 20)
	failing := errors.New("geocoder down")
	finder, err := NewFinder(store, WithLocator(func(context.Context, string) (geo.Point, error) {
		return geo.Point{}, failing
	}))
	require.NoError(t, err)
	_, err = finder.Find(ctx, "Paris", 3)
	assert.ErrorIs(t, err, failing)

	_, err = NewFinder(store, WithIndexKind("kd"))
	assert.Error(t, err)
	_, err = NewFinder(nil)
	assert.Error(t, err)
}

func TestFinder_SkipsSoldOut(t *testing.T) {
	ctx := context.Background()
	store := seededStore(t, 40)
	finder, err := NewFinder(store, WithIndexKind(index.KindBrute))
	require.NoError(t, err)

	q := geo.Pt(50, 50)
	before, err := finder.FindNear(ctx, q, 5)
	require.NoError(t, err)
	require.Len(t, before, 5)

	_, err = store.DB().Exec(`UPDATE hotels SET capacity = 0 WHERE id IN (?, ?)`, before[0].ID, before[2].ID)
	require.NoError(t, err)

	after, err := finder.FindNear(ctx, q, 5)
	require.NoError(t, err)
	require.Len(t, after, 5)
	assert.NotContains(t, matchIDs(after), before[0].ID)
	assert.NotContains(t, matchIDs(after), before[2].ID)
	assert.Equal(t, before[1].ID, after[0].ID)
}

func TestFinder_SoldOutWideIDs(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	wide := int64(1)<<32 + 1
	_, err := store.AddHotels(ctx, []Hotel{
		{ID: 1, Name: "full", Location: geo.Pt(10, 20), Capacity: -1},
		{ID: wide, Name: "open", Location: geo.Pt(11, 21), Capacity: 5},
	})
	require.NoError(t, err)

	soldOut, err := store.SoldOut(ctx)
	require.NoError(t, err)
	assert.Equal(t, []uint64{1}, soldOut.ToArray())

	finder, err := NewFinder(store, WithIndexKind(index.KindBrute))
	require.NoError(t, err)
	matches, err := finder.FindNear(ctx, geo.Pt(10, 20), 5)
	require.NoError(t, err)
	assert.Equal(t, []int64{wide}, matchIDs(matches))
}

func TestFinder_BuildSurvivesCanceledCaller(t *testing.T) {
	store := seededStore(t, 25)
	finder, err := NewFinder(store, WithSnapshots(false))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	scn, err := store.SCN(ctx)
	require.NoError(t, err)
	cancel()

	idx, err := finder.ensure(ctx, scn)
	require.NoError(t, err)
	assert.Equal(t, 25, idx.Len())

	again, err := finder.Index(context.Background())
	require.NoError(t, err)
	assert.Same(t, idx, again)
}

func TestFinder_RebuildsOnChange(t *testing.T) {
	ctx := context.Background()
	store := seededStore(t, 30)
	finder, err := NewFinder(store)
	require.NoError(t, err)

	first, err := finder.Index(ctx)
	require.NoError(t, err)
	again, err := finder.Index(ctx)
	require.NoError(t, err)
	assert.Same(t, first, again)

	require.NoError(t, store.Move(ctx, 1, geo.Pt(0, 0)))
	moved, err := finder.Index(ctx)
	require.NoError(t, err)
	assert.NotSame(t, first, moved)

	got, err := finder.FindNear(ctx, geo.Pt(0, 0), 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(1), got[0].ID)
	assert.Equal(t, 0.0, got[0].Distance)
}

func TestFinder_PersistsSnapshot(t *testing.T) {
	ctx := context.Background()
	store := seededStore(t, 60)

	for _, kind := range []index.Kind{index.KindBrute, index.KindCover} {
		t.Run(string(kind), func(t *testing.T) {
			builder, err := NewFinder(store, WithIndexKind(kind))
			require.NoError(t, err)
			built, err := builder.Index(ctx)
			require.NoError(t, err)

			scn, err := store.SCN(ctx)
			require.NoError(t, err)
			snap, err := store.loadSnapshot(ctx, scn, nil)
			require.NoError(t, err)
			require.NotNil(t, snap)
			assert.Equal(t, kind, snap.kind)
			assert.Equal(t, built.Len(), snap.idx.Len())
			switch kind {
			case index.KindCover:
				assert.IsType(t, &cover.Index{}, snap.idx)
			default:
				assert.IsType(t, &bruteforce.Index{}, snap.idx)
			}

			// A fresh finder reuses the snapshot and answers identically.
			loader, err := NewFinder(store, WithIndexKind(kind))
			require.NoError(t, err)
			q := geo.Pt(12, 34)
			want, err := builder.FindNear(ctx, q, 8)
			require.NoError(t, err)
			got, err := loader.FindNear(ctx, q, 8)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}

	stale, err := store.loadSnapshot(ctx, -1, nil)
	require.NoError(t, err)
	assert.Nil(t, stale)
}

func TestFinder_ConcurrentQueries(t *testing.T) {
	ctx := context.Background()
	store := seededStore(t, 80)
	finder, err := NewFinder(store, WithIndexKind(index.KindCover))
	require.NoError(t, err)

	want, err := store.NearestSQL(ctx, geo.Pt(40, 60), 6)
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make([]error, 8)
	results := make([][]Match, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = finder.FindNear(ctx, geo.Pt(40, 60), 6)
		}(i)
	}
	wg.Wait()
	for i := range errs {
		require.NoError(t, errs[i])
		assert.Equal(t, matchIDs(want), matchIDs(results[i]))
	}
}
