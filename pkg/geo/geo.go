package geo

import (
	"errors"
	"math"

	"github.com/golang/geo/s2"
)

const (
	earthRadiusKM       = 6371.0
	mercatorEarthRadius = 6378137.0 // meter
	degToRad            = math.Pi / 180.0
)

var ErrDegenerateBounds = errors.New("map bounds have zero area")

type Location struct {
	Lat float64
	Lon float64
}

func NewLocation(lat, lon float64) Location {
	return Location{
		Lat: lat,
		Lon: lon,
	}
}

// HaversineDistance great-circle distance dalam km.
func HaversineDistance(locationOne Location, locationTwo Location) float64 {
	one := s2.LatLngFromDegrees(locationOne.Lat, locationOne.Lon)
	two := s2.LatLngFromDegrees(locationTwo.Lat, locationTwo.Lon)
	return one.Distance(two).Radians() * earthRadiusKM
}

func EuclideanDistance(x1, y1, x2, y2 float64) float64 {
	dx := x1 - x2
	dy := y1 - y2
	return math.Sqrt(dx*dx + dy*dy)
}

// MercatorX & MercatorY spherical mercator (meter), setengah skala seperti map tile openstreetmap.
func MercatorX(lon float64) float64 {
	return lon * degToRad / 2 * mercatorEarthRadius
}

func MercatorY(lat float64) float64 {
	return math.Log(math.Tan(lat*degToRad/2+math.Pi/4)) / 2 * mercatorEarthRadius
}

type Bounds struct {
	MinLat, MinLon float64
	MaxLat, MaxLon float64
}

func NewBounds() Bounds {
	return Bounds{
		MinLat: math.Inf(1),
		MinLon: math.Inf(1),
		MaxLat: math.Inf(-1),
		MaxLon: math.Inf(-1),
	}
}

func (b *Bounds) Extend(lat, lon float64) {
	b.MinLat = math.Min(b.MinLat, lat)
	b.MinLon = math.Min(b.MinLon, lon)
	b.MaxLat = math.Max(b.MaxLat, lat)
	b.MaxLon = math.Max(b.MaxLon, lon)
}

func (b Bounds) Empty() bool {
	return b.MinLat > b.MaxLat || b.MinLon > b.MaxLon
}

// Projection ubah lat,lon ke ruang [0,1] (sumbu yang lebih pendek). metricScale = panjang sumbu itu dalam meter.
type Projection struct {
	minX        float64
	minY        float64
	metricScale float64
}

func NewProjection(b Bounds) (Projection, error) {
	if b.Empty() {
		return Projection{}, ErrDegenerateBounds
	}
	minX, minY := MercatorX(b.MinLon), MercatorY(b.MinLat)
	dx := MercatorX(b.MaxLon) - minX
	dy := MercatorY(b.MaxLat) - minY

	scale := math.Min(dx, dy)
	if scale <= 0 {
		// map satu jalan lurus utara-selatan / barat-timur
		scale = math.Max(dx, dy)
	}
	if scale <= 0 {
		return Projection{}, ErrDegenerateBounds
	}
	return Projection{minX: minX, minY: minY, metricScale: scale}, nil
}

func (p Projection) Project(lat, lon float64) (x, y float64) {
	x = (MercatorX(lon) - p.minX) / p.metricScale
	y = (MercatorY(lat) - p.minY) / p.metricScale
	return x, y
}

func (p Projection) MetricScale() float64 {
	return p.metricScale
}
