package kv_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"lintang/routeplanner/pkg/datastructure"
	"lintang/routeplanner/pkg/kv"
	"lintang/routeplanner/pkg/routemodel"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestKV(t *testing.T) *kv.KVDB {
	t.Helper()
	db, err := pebble.Open("", &pebble.Options{FS: vfs.NewMem()})
	require.NoError(t, err)

	k := kv.NewKVDB(db,
		kv.WithWorkers(2),
		kv.WithProgressWriter(io.Discard),
		kv.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	t.Cleanup(func() { _ = k.Close() })
	return k
}

// jalan kecil di solo, node 3 cuma dipakai footway
func newSoloModel(t *testing.T) *routemodel.RouteModel {
	t.Helper()
	nodes := []datastructure.Node{
		{Lat: -7.5700, Lon: 110.8200, X: 0, Y: 0, ID: 11, Idx: 0},
		{Lat: -7.5700, Lon: 110.8210, X: 0.5, Y: 0, ID: 12, Idx: 1},
		{Lat: -7.5690, Lon: 110.8210, X: 0.5, Y: 0.5, ID: 13, Idx: 2},
		{Lat: -7.5500, Lon: 110.8500, X: 1, Y: 1, ID: 14, Idx: 3},
	}
	ways := []datastructure.Way{
		{ID: 100, Nodes: []int32{0, 1, 2}},
		{ID: 101, Nodes: []int32{2, 3}},
	}
	roads := []datastructure.Road{
		{Way: 0, Type: datastructure.RoadSecondary},
		{Way: 1, Type: datastructure.RoadFootway},
	}
	m, err := routemodel.NewRouteModel(nodes, ways, roads, 222.5)
	require.NoError(t, err)
	return m
}

func TestSaveLoadModel(t *testing.T) {
	ctx := context.Background()

	t.Run("snapshot round trip", func(t *testing.T) {
		k := newTestKV(t)
		m := newSoloModel(t)
		require.NoError(t, k.SaveModel(ctx, m))

		loaded, err := k.LoadModel(ctx)
		require.NoError(t, err)
		assert.Equal(t, m.Nodes(), loaded.Nodes())
		assert.Equal(t, m.Ways(), loaded.Ways())
		assert.Equal(t, m.Roads(), loaded.Roads())
		assert.Equal(t, m.MetricScale(), loaded.MetricScale())
		assert.Equal(t, m.PopulateNeighbors(1), loaded.PopulateNeighbors(1))
	})

	t.Run("missing snapshot", func(t *testing.T) {
		k := newTestKV(t)
		_, err := k.LoadModel(ctx)
		assert.ErrorIs(t, err, kv.ErrSnapshotNotFound)
	})

	t.Run("cancelled context", func(t *testing.T) {
		k := newTestKV(t)
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		assert.ErrorIs(t, k.SaveModel(cctx, newSoloModel(t)), context.Canceled)
	})
}

func TestGetNearestNodesFromPointCoord(t *testing.T) {
	k := newTestKV(t)
	require.NoError(t, k.CreateNodeCellIndex(newSoloModel(t)))

	t.Run("nodes around the point", func(t *testing.T) {
		nodes, err := k.GetNearestNodesFromPointCoord(-7.5701, 110.8203)
		require.NoError(t, err)
		assert.Subset(t, nodes, []int32{0, 1, 2})
		assert.NotContains(t, nodes, int32(3))
	})

	t.Run("far away point has no road node", func(t *testing.T) {
		_, err := k.GetNearestNodesFromPointCoord(51.5, -0.12)
		assert.ErrorIs(t, err, kv.ErrNoNodeNearby)
	})
}

func TestRebuildSnapshot(t *testing.T) {
	ctx := context.Background()
	k := newTestKV(t)

	big := newSoloModel(t)
	require.NoError(t, k.SaveModel(ctx, big))
	require.NoError(t, k.CreateNodeCellIndex(big))

	nodes := []datastructure.Node{
		{Lat: -7.4000, Lon: 110.9500, X: 0, Y: 0, ID: 21, Idx: 0},
		{Lat: -7.4000, Lon: 110.9510, X: 1, Y: 0, ID: 22, Idx: 1},
	}
	small, err := routemodel.NewRouteModel(nodes,
		[]datastructure.Way{{ID: 200, Nodes: []int32{0, 1}}},
		[]datastructure.Road{{Way: 0, Type: datastructure.RoadResidential}}, 111.3)
	require.NoError(t, err)

	t.Run("saving a new model drops the old h3 index", func(t *testing.T) {
		require.NoError(t, k.SaveModel(ctx, small))
		_, err := k.GetNearestNodesFromPointCoord(-7.5701, 110.8203)
		assert.ErrorIs(t, err, kv.ErrNoNodeNearby)
	})

	t.Run("index only has nodes of the new model", func(t *testing.T) {
		require.NoError(t, k.CreateNodeCellIndex(small))

		got, err := k.GetNearestNodesFromPointCoord(-7.4000, 110.9505)
		require.NoError(t, err)
		assert.ElementsMatch(t, []int32{0, 1}, got)

		_, err = k.GetNearestNodesFromPointCoord(-7.5701, 110.8203)
		assert.ErrorIs(t, err, kv.ErrNoNodeNearby)
	})

	t.Run("loaded model is the new one", func(t *testing.T) {
		loaded, err := k.LoadModel(ctx)
		require.NoError(t, err)
		assert.Equal(t, small.Nodes(), loaded.Nodes())
		assert.Equal(t, small.Ways(), loaded.Ways())
	})
}

func TestCompression(t *testing.T) {
	raw := []byte("jalan slamet riyadi jalan slamet riyadi jalan slamet riyadi")
	compressed, err := kv.Compress(raw)
	require.NoError(t, err)

	got, err := kv.Decompress(compressed)
	require.NoError(t, err)
	assert.Equal(t, raw, got)
}
