package routemodel

import (
	"lintang/routeplanner/pkg/datastructure"
	"lintang/routeplanner/pkg/geo"

	"github.com/dhconnelly/rtreego"
)

const (
	tol          = 1e-9
	nearestCands = 8
)

type nodeRect struct {
	location rtreego.Point
	idx      int32
}

func (n *nodeRect) Bounds() rtreego.Rect {
	return n.location.ToRect(tol)
}

// 2 dimension, 25 min entries dan 50 max entries
func newNodeTree(nodes []datastructure.Node, routable []bool) *rtreego.Rtree {
	objs := make([]rtreego.Spatial, 0, len(nodes))
	for i, n := range nodes {
		if !routable[i] {
			continue
		}
		objs = append(objs, &nodeRect{location: rtreego.Point{n.X, n.Y}, idx: n.Idx})
	}
	return rtreego.NewTree(2, 25, 50, objs...)
}

// nearestNode rtree nearest neighbor pakai jarak ke bounding rect, jadi ambil beberapa kandidat lalu cek jarak euclid sebenarnya.
func (m *RouteModel) nearestNode(x, y float64) (int32, bool) {
	cands := m.tree.NearestNeighbors(nearestCands, rtreego.Point{x, y})
	best := int32(-1)
	bestDist := 0.0
	for _, c := range cands {
		if c == nil {
			continue
		}
		nr := c.(*nodeRect)
		d := geo.EuclideanDistance(x, y, nr.location[0], nr.location[1])
		if best == -1 || d < bestDist || (d == bestDist && nr.idx < best) {
			best = nr.idx
			bestDist = d
		}
	}
	return best, best != -1
}
