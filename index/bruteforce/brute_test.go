package bruteforce

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/hotelsearch/geo"
)

func samplePoints() []geo.Point {
	return []geo.Point{geo.Pt(0, 0), geo.Pt(10, 10), geo.Pt(1, 1), geo.Pt(50, 50), geo.Pt(2, 2)}
}

func TestQuery_OrdersBySquaredDistance(t *testing.T) {
	idx := New(samplePoints())

	got, err := idx.Query(geo.Pt(0, 0), 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(0), got[0].ID)
	assert.Equal(t, 0.0, got[0].Distance)
	assert.Equal(t, int64(2), got[1].ID)
	assert.Equal(t, 2.0, got[1].Distance)
}

func TestQuery_TiesKeepBuildOrder(t *testing.T) {
	// Four points equidistant from the origin, in a deliberate order.
	idx := &Index{}
	require.NoError(t, idx.Build(
		[]int64{40, 10, 30, 20},
		[]geo.Point{geo.Pt(1, 0), geo.Pt(0, 1), geo.Pt(-1, 0), geo.Pt(0, -1)},
	))

	got, err := idx.Query(geo.Pt(0, 0), 0)
	require.NoError(t, err)
	ids := make([]int64, len(got))
	for i, n := range got {
		ids[i] = n.ID
	}
	assert.Equal(t, []int64{40, 10, 30, 20}, ids)
}

func TestQuery_KBounds(t *testing.T) {
	idx := New(samplePoints())

	all, err := idx.Query(geo.Pt(5, 5), 0)
	require.NoError(t, err)
	assert.Len(t, all, 5)

	clamped, err := idx.Query(geo.Pt(5, 5), 50)
	require.NoError(t, err)
	assert.Len(t, clamped, 5)

	empty := &Index{}
	got, err := empty.Query(geo.Pt(5, 5), 3)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestQuery_RejectsNonFiniteQuery(t *testing.T) {
	idx := New(samplePoints())
	_, err := idx.Query(geo.Pt(math.NaN(), 0), 1)
	require.Error(t, err)
}

func TestBuild_LengthMismatch(t *testing.T) {
	idx := &Index{}
	err := idx.Build([]int64{1, 2}, []geo.Point{geo.Pt(0, 0)})
	require.Error(t, err)
}

func TestMarshalUnmarshal(t *testing.T) {
	idx := &Index{}
	require.NoError(t, idx.Build([]int64{7, 9, 11}, []geo.Point{geo.Pt(1.5, 2.5), geo.Pt(-3, 4), geo.Pt(99.99, 0)}))

	data, err := idx.MarshalBinary()
	require.NoError(t, err)
	require.Len(t, data, 4+3*recordSize)

	restored := &Index{}
	require.NoError(t, restored.UnmarshalBinary(data))
	assert.Equal(t, idx.ids, restored.ids)
	assert.Equal(t, idx.points, restored.points)

	require.Error(t, restored.UnmarshalBinary(data[:len(data)-1]))
	require.Error(t, restored.UnmarshalBinary([]byte{1}))
}
