package routingalgorithm_test

import (
	"context"
	"math"
	"math/rand"
	"testing"

	"lintang/routeplanner/pkg/datastructure"
	"lintang/routeplanner/pkg/engine/routingalgorithm"
	"lintang/routeplanner/pkg/routemodel"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type edge [2]int32

func buildModel(t *testing.T, coords [][2]float64, edges []edge, scale float64) *routemodel.RouteModel {
	t.Helper()
	nodes := make([]datastructure.Node, len(coords))
	for i, c := range coords {
		nodes[i] = datastructure.NewNode(int32(i), c[0], c[1])
	}
	ways := make([]datastructure.Way, len(edges))
	roads := make([]datastructure.Road, len(edges))
	for i, e := range edges {
		ways[i] = datastructure.Way{ID: int64(i), Nodes: []int32{e[0], e[1]}}
		roads[i] = datastructure.Road{Way: int32(i), Type: datastructure.RoadResidential}
	}
	m, err := routemodel.NewRouteModel(nodes, ways, roads, scale)
	require.NoError(t, err)
	return m
}

func pathIdx(path []datastructure.Node) []int32 {
	ids := make([]int32, len(path))
	for i, n := range path {
		ids[i] = n.Idx
	}
	return ids
}

func pathLength(m *routemodel.RouteModel, path []datastructure.Node) float64 {
	total := 0.0
	for i := 1; i < len(path); i++ {
		total += m.Distance(path[i-1], path[i])
	}
	return total * m.MetricScale()
}

// dijkstra O(V^2) buat pembanding.
func dijkstra(m *routemodel.RouteModel, from, to int32) (float64, bool) {
	n := m.NumNodes()
	dist := make([]float64, n)
	done := make([]bool, n)
	for i := range dist {
		dist[i] = math.Inf(1)
	}
	dist[from] = 0
	for {
		u := int32(-1)
		for i := 0; i < n; i++ {
			if !done[i] && !math.IsInf(dist[i], 1) && (u == -1 || dist[i] < dist[u]) {
				u = int32(i)
			}
		}
		if u == -1 {
			return 0, false
		}
		if u == to {
			return dist[u] * m.MetricScale(), true
		}
		done[u] = true
		for _, v := range m.PopulateNeighbors(u) {
			if d := dist[u] + m.Distance(m.Node(u), m.Node(v)); d < dist[v] {
				dist[v] = d
			}
		}
	}
}

func TestAStarSearch(t *testing.T) {
	ctx := context.Background()

	t.Run("square with diagonal takes the diagonal", func(t *testing.T) {
		// 3     2
		//     / |
		// 0 - 1 |  + diagonal 0-2
		m := buildModel(t, [][2]float64{{0, 0}, {1, 0}, {1, 1}, {0, 1}},
			[]edge{{0, 1}, {1, 2}, {0, 2}, {2, 3}}, 1000)

		rp, err := routingalgorithm.NewRoutePlanner(m, 0, 0, 100, 100)
		require.NoError(t, err)

		res, err := rp.AStarSearch(ctx)
		require.NoError(t, err)
		assert.True(t, res.Found)
		assert.Equal(t, []int32{0, 2}, pathIdx(res.Path))
		assert.InDelta(t, math.Sqrt2*1000, res.Distance, 1e-9)
		assert.InDelta(t, res.Distance, rp.TotalDistance(), 1e-12)
		assert.Equal(t, pathIdx(res.Path), pathIdx(m.Path()))
	})

	t.Run("start equals end", func(t *testing.T) {
		m := buildModel(t, [][2]float64{{0, 0}, {1, 0}}, []edge{{0, 1}}, 10)

		rp, err := routingalgorithm.NewRoutePlanner(m, 100, 0, 100, 0)
		require.NoError(t, err)

		res, err := rp.AStarSearch(ctx)
		require.NoError(t, err)
		assert.Equal(t, []int32{1}, pathIdx(res.Path))
		assert.Equal(t, 0.0, res.Distance)
	})

	t.Run("unreachable destination", func(t *testing.T) {
		m := buildModel(t, [][2]float64{{0, 0}, {0.1, 0}, {1, 1}, {0.9, 1}},
			[]edge{{0, 1}, {2, 3}}, 10)
		m.SetPath([]datastructure.Node{m.Node(3)})

		rp, err := routingalgorithm.NewRoutePlanner(m, 0, 0, 100, 100)
		require.NoError(t, err)

		res, err := rp.AStarSearch(ctx)
		assert.ErrorIs(t, err, routingalgorithm.ErrPathNotFound)
		assert.False(t, res.Found)
		assert.Empty(t, res.Path)
		assert.Equal(t, 2, res.ExpandedNodes)
		// path lama gak ditimpa
		assert.Equal(t, []int32{3}, pathIdx(m.Path()))
	})

	t.Run("cheaper route found later replaces the parent", func(t *testing.T) {
		// 0=S, 1=X (expanded duluan), 2=Y, 3=M, 4=E
		m := buildModel(t, [][2]float64{{0, 0}, {1, 0}, {1, 0.5}, {2, 1}, {4, 0}},
			[]edge{{0, 1}, {0, 2}, {1, 3}, {2, 3}, {3, 4}}, 1)

		rp, err := routingalgorithm.NewRoutePlanner(m, 0, 0, 400, 0)
		require.NoError(t, err)

		// M masih di open list waktu Y nemu jalan lebih murah, jadi lewat decrease key
		var res datastructure.SearchResult
		require.NotPanics(t, func() {
			res, err = rp.AStarSearch(ctx)
		})
		require.NoError(t, err)
		assert.Equal(t, []int32{0, 2, 3, 4}, pathIdx(res.Path))

		want := math.Sqrt(1.25) + math.Sqrt(1.25) + math.Sqrt(5)
		assert.InDelta(t, want, res.Distance, 1e-9)
	})

	t.Run("first and last node are start and end", func(t *testing.T) {
		m := buildModel(t, [][2]float64{{0, 0}, {0.5, 0.1}, {1, 0}, {0.5, 0.9}},
			[]edge{{0, 1}, {1, 2}, {0, 3}, {3, 2}}, 50)

		rp, err := routingalgorithm.NewRoutePlanner(m, 1, 1, 99, 1)
		require.NoError(t, err)
		res, err := rp.AStarSearch(ctx)
		require.NoError(t, err)

		first, _ := res.Start()
		last, _ := res.End()
		assert.Equal(t, rp.Start(), first)
		assert.Equal(t, rp.End(), last)
		assert.Equal(t, []int32{0, 1, 2}, pathIdx(res.Path))
		assert.InDelta(t, pathLength(m, res.Path), res.Distance, 1e-9)
	})

	t.Run("running twice on the same model gives the same path", func(t *testing.T) {
		m := buildModel(t, [][2]float64{{0, 0}, {1, 0}, {1, 1}, {0, 1}},
			[]edge{{0, 1}, {1, 2}, {0, 3}, {3, 2}}, 1)

		rp, err := routingalgorithm.NewRoutePlanner(m, 0, 0, 100, 100)
		require.NoError(t, err)
		first, err := rp.AStarSearch(ctx)
		require.NoError(t, err)
		second, err := rp.AStarSearch(ctx)
		require.NoError(t, err)

		other, err := routingalgorithm.NewRoutePlanner(m, 0, 0, 100, 100)
		require.NoError(t, err)
		third, err := other.AStarSearch(ctx)
		require.NoError(t, err)

		assert.Equal(t, first, second)
		assert.Equal(t, first, third)
		assert.InDelta(t, 2.0, first.Distance, 1e-12)
	})

	t.Run("cancelled context stops the search", func(t *testing.T) {
		m := buildModel(t, [][2]float64{{0, 0}, {1, 0}}, []edge{{0, 1}}, 1)
		rp, err := routingalgorithm.NewRoutePlanner(m, 0, 0, 100, 0)
		require.NoError(t, err)

		cctx, cancel := context.WithCancel(ctx)
		cancel()
		res, err := rp.AStarSearch(cctx)
		assert.ErrorIs(t, err, context.Canceled)
		assert.False(t, res.Found)
	})

	t.Run("empty model fails on construction", func(t *testing.T) {
		m, err := routemodel.NewRouteModel(nil, nil, nil, 1)
		require.NoError(t, err)
		_, err = routingalgorithm.NewRoutePlanner(m, 0, 0, 100, 100)
		assert.ErrorIs(t, err, routemodel.ErrEmptyModel)
	})
}

func TestAStarSearchOptimal(t *testing.T) {
	ctx := context.Background()
	rng := rand.New(rand.NewSource(42))

	for trial := 0; trial < 20; trial++ {
		const size = 8
		coords := make([][2]float64, 0, size*size)
		for i := 0; i < size; i++ {
			for j := 0; j < size; j++ {
				coords = append(coords, [2]float64{
					(float64(i) + rng.Float64()*0.6) / size,
					(float64(j) + rng.Float64()*0.6) / size,
				})
			}
		}
		edges := []edge{}
		for i := 0; i < size; i++ {
			for j := 0; j < size; j++ {
				u := int32(i*size + j)
				if i+1 < size && rng.Float64() < 0.75 {
					edges = append(edges, edge{u, u + size})
				}
				if j+1 < size && rng.Float64() < 0.75 {
					edges = append(edges, edge{u, u + 1})
				}
				if i+1 < size && j+1 < size && rng.Float64() < 0.3 {
					edges = append(edges, edge{u, u + size + 1})
				}
			}
		}
		m := buildModel(t, coords, edges, 1000)

		from := coords[rng.Intn(len(coords))]
		to := coords[rng.Intn(len(coords))]
		rp, err := routingalgorithm.NewRoutePlanner(m, from[0]*100, from[1]*100, to[0]*100, to[1]*100)
		require.NoError(t, err)

		want, reachable := dijkstra(m, rp.Start().Idx, rp.End().Idx)
		res, err := rp.AStarSearch(ctx)
		if !reachable {
			assert.ErrorIs(t, err, routingalgorithm.ErrPathNotFound, "trial %d", trial)
			continue
		}
		require.NoError(t, err, "trial %d", trial)
		assert.InDelta(t, want, res.Distance, 1e-6, "trial %d", trial)
		assert.InDelta(t, pathLength(m, res.Path), res.Distance, 1e-6, "trial %d", trial)
	}
}
