package routemodel

import (
	"errors"
	"fmt"
	"sync"

	"lintang/routeplanner/pkg/datastructure"
	"lintang/routeplanner/pkg/geo"

	"github.com/dhconnelly/rtreego"
)

var (
	ErrEmptyModel   = errors.New("route model has no routable node")
	ErrInvalidGraph = errors.New("invalid route model graph")
)

// RouteModel road network yang sudah dinormalisasi. Koordinat node read-only setelah dibuat,
// yang di mutate cuma cache neighbor & path hasil routing (dua-duanya dijaga mutex).
type RouteModel struct {
	nodes       []datastructure.Node
	ways        []datastructure.Way
	roads       []datastructure.Road
	nodeToRoad  [][]int32
	metricScale float64
	tree        *rtreego.Rtree

	mu        sync.RWMutex
	neighbors map[int32][]int32

	pathMu sync.Mutex
	path   []datastructure.Node
}

func NewRouteModel(nodes []datastructure.Node, ways []datastructure.Way, roads []datastructure.Road,
	metricScale float64) (*RouteModel, error) {
	if metricScale <= 0 {
		return nil, fmt.Errorf("%w: metric scale must be positive, got %v", ErrInvalidGraph, metricScale)
	}
	for i := range nodes {
		if nodes[i].Idx != int32(i) {
			return nil, fmt.Errorf("%w: node at position %d has index %d", ErrInvalidGraph, i, nodes[i].Idx)
		}
	}

	nodeToRoad := make([][]int32, len(nodes))
	routable := make([]bool, len(nodes))
	for roadIdx, road := range roads {
		if road.Way < 0 || int(road.Way) >= len(ways) {
			return nil, fmt.Errorf("%w: road %d refers to missing way %d", ErrInvalidGraph, roadIdx, road.Way)
		}
		if !road.Type.Routable() {
			continue
		}
		for _, nodeIdx := range ways[road.Way].Nodes {
			if nodeIdx < 0 || int(nodeIdx) >= len(nodes) {
				return nil, fmt.Errorf("%w: way %d refers to missing node %d", ErrInvalidGraph, ways[road.Way].ID, nodeIdx)
			}
			if rs := nodeToRoad[nodeIdx]; len(rs) == 0 || rs[len(rs)-1] != int32(roadIdx) {
				nodeToRoad[nodeIdx] = append(nodeToRoad[nodeIdx], int32(roadIdx))
			}
			routable[nodeIdx] = true
		}
	}

	return &RouteModel{
		nodes:       nodes,
		ways:        ways,
		roads:       roads,
		nodeToRoad:  nodeToRoad,
		metricScale: metricScale,
		tree:        newNodeTree(nodes, routable),
		neighbors:   make(map[int32][]int32),
	}, nil
}

// FindClosestNode node routable yang paling dekat dengan (x,y) di ruang ternormalisasi.
func (m *RouteModel) FindClosestNode(x, y float64) (datastructure.Node, error) {
	if m.tree.Size() == 0 {
		return datastructure.Node{}, ErrEmptyModel
	}
	idx, ok := m.nearestNode(x, y)
	if !ok {
		return datastructure.Node{}, ErrEmptyModel
	}
	return m.nodes[idx], nil
}

func (m *RouteModel) Distance(a, b datastructure.Node) float64 {
	return geo.EuclideanDistance(a.X, a.Y, b.X, b.Y)
}

// PopulateNeighbors node tetangga = node sebelum/sesudah di setiap road routable yang lewat node ini.
// Hasilnya di cache, panggilan berikutnya return slice yang sama.
func (m *RouteModel) PopulateNeighbors(idx int32) []int32 {
	m.mu.RLock()
	cached, ok := m.neighbors[idx]
	m.mu.RUnlock()
	if ok {
		return cached
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if cached, ok := m.neighbors[idx]; ok {
		return cached
	}

	neighbors := make([]int32, 0, 2*len(m.nodeToRoad[idx]))
	seen := make(map[int32]struct{})
	add := func(n int32) {
		if n == idx {
			return
		}
		if _, ok := seen[n]; ok {
			return
		}
		seen[n] = struct{}{}
		neighbors = append(neighbors, n)
	}

	for _, roadIdx := range m.nodeToRoad[idx] {
		wayNodes := m.ways[m.roads[roadIdx].Way].Nodes
		for i, n := range wayNodes {
			if n != idx {
				continue
			}
			if i > 0 {
				add(wayNodes[i-1])
			}
			if i < len(wayNodes)-1 {
				add(wayNodes[i+1])
			}
		}
	}

	m.neighbors[idx] = neighbors
	return neighbors
}

func (m *RouteModel) Node(idx int32) datastructure.Node {
	return m.nodes[idx]
}

func (m *RouteModel) MetricScale() float64 {
	return m.metricScale
}

// SetPath simpan path hasil routing terakhir buat dipakai consumer lain (render dll).
func (m *RouteModel) SetPath(path []datastructure.Node) {
	p := make([]datastructure.Node, len(path))
	copy(p, path)

	m.pathMu.Lock()
	m.path = p
	m.pathMu.Unlock()
}

func (m *RouteModel) Path() []datastructure.Node {
	m.pathMu.Lock()
	defer m.pathMu.Unlock()
	return m.path
}

func (m *RouteModel) NumNodes() int {
	return len(m.nodes)
}

func (m *RouteModel) Nodes() []datastructure.Node {
	return m.nodes
}

func (m *RouteModel) Ways() []datastructure.Way {
	return m.ways
}

func (m *RouteModel) Roads() []datastructure.Road {
	return m.roads
}

// RoadsOfNode index road routable yang lewat node idx.
func (m *RouteModel) RoadsOfNode(idx int32) []int32 {
	return m.nodeToRoad[idx]
}
