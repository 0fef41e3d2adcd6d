package routingalgorithm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"lintang/routeplanner/pkg/datastructure"

	"golang.org/x/exp/slices"
)

// input koordinat start/end dalam skala 0-100, model pakai skala 0-1.
const inputScale = 0.01

const noParent int32 = -1

var ErrPathNotFound = errors.New("no path between start and end node")

// GraphModel road network yang dipakai A*. Metadata pencarian gak disimpan di model.
type GraphModel interface {
	FindClosestNode(x, y float64) (datastructure.Node, error)
	Distance(a, b datastructure.Node) float64
	PopulateNeighbors(idx int32) []int32
	Node(idx int32) datastructure.Node
	MetricScale() float64
	SetPath(path []datastructure.Node)
}

// searchNode metadata A* per node, cuma hidup selama satu AStarSearch.
// node sudah visited kalau punya entry di RoutePlanner.nodes.
type searchNode struct {
	g      float64
	h      float64
	parent int32
}

type RoutePlanner struct {
	model GraphModel
	start datastructure.Node
	end   datastructure.Node

	openList      *MinHeap[int32]
	nodes         map[int32]*searchNode
	expanded      int
	totalDistance float64
	log           *slog.Logger
}

type Option func(*RoutePlanner)

func WithLogger(log *slog.Logger) Option {
	return func(rp *RoutePlanner) {
		rp.log = log
	}
}

// NewRoutePlanner start & end di skala 0-100, di snap ke node terdekat di model.
func NewRoutePlanner(model GraphModel, startX, startY, endX, endY float64, opts ...Option) (*RoutePlanner, error) {
	start, err := model.FindClosestNode(startX*inputScale, startY*inputScale)
	if err != nil {
		return nil, fmt.Errorf("resolve start node: %w", err)
	}
	end, err := model.FindClosestNode(endX*inputScale, endY*inputScale)
	if err != nil {
		return nil, fmt.Errorf("resolve end node: %w", err)
	}

	rp := &RoutePlanner{
		model: model,
		start: start,
		end:   end,
		log:   slog.Default(),
	}
	for _, opt := range opts {
		opt(rp)
	}
	return rp, nil
}

func (rp *RoutePlanner) Start() datastructure.Node {
	return rp.start
}

func (rp *RoutePlanner) End() datastructure.Node {
	return rp.end
}

// TotalDistance jarak (meter) path terakhir yang ditemukan.
func (rp *RoutePlanner) TotalDistance() float64 {
	return rp.totalDistance
}

func (rp *RoutePlanner) CalculateHValue(node datastructure.Node) float64 {
	return rp.model.Distance(node, rp.end)
}

// AddNeighbors expand current. Neighbor baru masuk open list, neighbor lama di relax kalau ketemu g yang lebih kecil.
func (rp *RoutePlanner) AddNeighbors(current int32) {
	currState := rp.nodes[current]
	currNode := rp.model.Node(current)

	for _, nIdx := range rp.model.PopulateNeighbors(current) {
		neighbor := rp.model.Node(nIdx)
		g := currState.g + rp.model.Distance(currNode, neighbor)

		state, ok := rp.nodes[nIdx]
		if !ok {
			state = &searchNode{
				parent: current,
				h:      rp.CalculateHValue(neighbor),
				g:      g,
			}
			rp.nodes[nIdx] = state
			rp.push(nIdx, state)
			continue
		}

		if g >= state.g {
			continue
		}
		state.g = g
		state.parent = current
		if rp.openList.Contains(nIdx) {
			// g turun & h tetap, jadi rank pasti turun. error di sini berarti heap rusak.
			err := rp.openList.DecreaseKey(PriorityQueueNode[int32]{Rank: state.g + state.h, Tiebreak: state.h, Item: nIdx})
			if err != nil {
				panic(fmt.Sprintf("relax node %d: %v", nIdx, err))
			}
		} else {
			rp.push(nIdx, state)
		}
	}
}

func (rp *RoutePlanner) push(idx int32, state *searchNode) {
	rp.openList.Insert(PriorityQueueNode[int32]{Rank: state.g + state.h, Tiebreak: state.h, Item: idx})
}

// NextNode pop node dengan g+h terkecil dari open list.
func (rp *RoutePlanner) NextNode() (int32, bool) {
	next, err := rp.openList.ExtractMin()
	if err != nil {
		return noParent, false
	}
	return next.Item, true
}

// ConstructFinalPath ikutin parent dari node tujuan sampai start, return path start->end & jarak dalam meter.
func (rp *RoutePlanner) ConstructFinalPath(current int32) ([]datastructure.Node, float64) {
	distance := 0.0
	path := []datastructure.Node{}

	for {
		node := rp.model.Node(current)
		path = append(path, node)
		parent := rp.nodes[current].parent
		if parent == noParent {
			break
		}
		distance += rp.model.Distance(node, rp.model.Node(parent))
		current = parent
	}
	slices.Reverse(path)

	return path, distance * rp.model.MetricScale()
}

func (rp *RoutePlanner) reset() {
	rp.openList = NewMinHeap[int32]()
	rp.nodes = make(map[int32]*searchNode)
	rp.expanded = 0
	rp.totalDistance = 0
}

// AStarSearch cari shortest path start->end. Kalau open list habis sebelum sampai tujuan return ErrPathNotFound.
// Bisa dipanggil berulang kali, state pencarian selalu di reset.
func (rp *RoutePlanner) AStarSearch(ctx context.Context) (datastructure.SearchResult, error) {
	rp.reset()

	startState := &searchNode{
		parent: noParent,
		h:      rp.CalculateHValue(rp.start),
	}
	rp.nodes[rp.start.Idx] = startState
	rp.push(rp.start.Idx, startState)

	for {
		if err := ctx.Err(); err != nil {
			return datastructure.SearchResult{ExpandedNodes: rp.expanded}, err
		}

		current, ok := rp.NextNode()
		if !ok {
			rp.log.Debug("open list exhausted",
				slog.Int("start", int(rp.start.Idx)), slog.Int("end", int(rp.end.Idx)),
				slog.Int("expanded", rp.expanded))
			return datastructure.SearchResult{ExpandedNodes: rp.expanded}, ErrPathNotFound
		}

		if rp.model.Node(current).SameLocation(rp.end) {
			path, dist := rp.ConstructFinalPath(current)
			rp.totalDistance = dist
			rp.model.SetPath(path)

			rp.log.Debug("path found",
				slog.Int("nodes", len(path)), slog.Float64("distance", dist),
				slog.Int("expanded", rp.expanded))
			return datastructure.SearchResult{
				Path:          path,
				Distance:      dist,
				ExpandedNodes: rp.expanded,
				Found:         true,
			}, nil
		}

		rp.expanded++
		rp.AddNeighbors(current)
	}
}
