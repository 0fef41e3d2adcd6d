package datastructure

import "math"

// Coordinate titik lat,lon di output route (json & yaml).
type Coordinate struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lon float64 `json:"lon" yaml:"lon"`
}

// SearchResult hasil satu query A*. Distance dalam meter.
type SearchResult struct {
	Path          []Node
	Distance      float64
	ExpandedNodes int
	Found         bool
}

func (r SearchResult) Start() (Node, bool) {
	if len(r.Path) == 0 {
		return Node{}, false
	}
	return r.Path[0], true
}

func (r SearchResult) End() (Node, bool) {
	if len(r.Path) == 0 {
		return Node{}, false
	}
	return r.Path[len(r.Path)-1], true
}

// RoundedDistance jarak dibulatkan ke digits angka di belakang koma.
func (r SearchResult) RoundedDistance(digits int) float64 {
	p := math.Pow10(digits)
	return math.Round(r.Distance*p) / p
}

func (r SearchResult) Coordinates() []Coordinate {
	route := make([]Coordinate, 0, len(r.Path))
	for _, n := range r.Path {
		route = append(route, n.Coordinate())
	}
	return route
}
