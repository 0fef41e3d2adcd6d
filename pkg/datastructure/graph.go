package datastructure

import (
	"github.com/twpayne/go-polyline"
)

type RoadType uint8

const (
	RoadInvalid RoadType = iota
	RoadUnclassified
	RoadService
	RoadResidential
	RoadTertiary
	RoadSecondary
	RoadPrimary
	RoadTrunk
	RoadMotorway
	RoadFootway
)

// RoadTypeFromHighway map value tag highway openstreetmap ke RoadType. tag yang gak dikenal jadi RoadInvalid.
func RoadTypeFromHighway(highway string) RoadType {
	switch highway {
	case "motorway", "motorway_link":
		return RoadMotorway
	case "trunk", "trunk_link":
		return RoadTrunk
	case "primary", "primary_link":
		return RoadPrimary
	case "secondary", "secondary_link":
		return RoadSecondary
	case "tertiary", "tertiary_link":
		return RoadTertiary
	case "residential", "living_street":
		return RoadResidential
	case "service":
		return RoadService
	case "unclassified", "road":
		return RoadUnclassified
	case "footway", "pedestrian", "path", "steps", "cycleway":
		return RoadFootway
	default:
		return RoadInvalid
	}
}

// Routable footway & invalid road gak dipakai buat routing.
func (t RoadType) Routable() bool {
	return t != RoadInvalid && t != RoadFootway
}

func (t RoadType) String() string {
	switch t {
	case RoadMotorway:
		return "motorway"
	case RoadTrunk:
		return "trunk"
	case RoadPrimary:
		return "primary"
	case RoadSecondary:
		return "secondary"
	case RoadTertiary:
		return "tertiary"
	case RoadResidential:
		return "residential"
	case RoadService:
		return "service"
	case RoadUnclassified:
		return "unclassified"
	case RoadFootway:
		return "footway"
	default:
		return "invalid"
	}
}

// Node titik di road network. X,Y = koordinat ternormalisasi [0,1], Lat,Lon = koordinat asli openstreetmap.
type Node struct {
	Lat float64
	Lon float64
	X   float64
	Y   float64
	ID  int64
	Idx int32
}

func NewNode(idx int32, x, y float64) Node {
	return Node{
		X:   x,
		Y:   y,
		Idx: idx,
	}
}

func (n Node) SameLocation(other Node) bool {
	return n.X == other.X && n.Y == other.Y
}

func (n Node) Coordinate() Coordinate {
	return Coordinate{Lat: n.Lat, Lon: n.Lon}
}

// Way urutan node index dari satu osm way.
type Way struct {
	ID    int64
	Nodes []int32
}

type Road struct {
	Way  int32
	Type RoadType
}

func RenderPath(path []Node) string {
	coords := make([][]float64, 0, len(path))
	for _, p := range path {
		coords = append(coords, []float64{p.Lat, p.Lon})
	}
	return string(polyline.EncodeCoords(coords))
}

