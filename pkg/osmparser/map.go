package osmparser

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strings"

	"lintang/routeplanner/pkg/datastructure"
	"lintang/routeplanner/pkg/geo"
	"lintang/routeplanner/pkg/routemodel"

	"github.com/k0kubun/go-ansi"
	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"
	"github.com/paulmach/osm/osmxml"
	"github.com/schollz/progressbar/v3"
)

var ErrNoRoads = errors.New("openstreetmap file has no highway way")

type Format int

const (
	FormatXML Format = iota
	FormatPBF
)

func FormatFromPath(mapFile string) Format {
	if strings.HasSuffix(strings.ToLower(mapFile), ".pbf") {
		return FormatPBF
	}
	return FormatXML
}

type OSMParser struct {
	progress io.Writer
	log      *slog.Logger
}

type Option func(*OSMParser)

func WithProgressWriter(w io.Writer) Option {
	return func(p *OSMParser) {
		p.progress = w
	}
}

func WithLogger(log *slog.Logger) Option {
	return func(p *OSMParser) {
		p.log = log
	}
}

func NewOSMParser(opts ...Option) *OSMParser {
	p := &OSMParser{
		progress: ansi.NewAnsiStdout(),
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// BuildRouteModel baca file .osm / .osm.pbf dan bikin route model ternormalisasi.
func (p *OSMParser) BuildRouteModel(ctx context.Context, mapFile string) (*routemodel.RouteModel, error) {
	f, err := os.Open(mapFile)
	if err != nil {
		return nil, fmt.Errorf("open map file: %w", err)
	}
	defer f.Close()

	return p.BuildRouteModelFromReader(ctx, f, FormatFromPath(mapFile))
}

func (p *OSMParser) BuildRouteModelFromReader(ctx context.Context, r io.Reader, format Format) (*routemodel.RouteModel, error) {
	var scanner osm.Scanner
	switch format {
	case FormatPBF:
		scanner = osmpbf.New(ctx, r, runtime.GOMAXPROCS(-1))
	default:
		scanner = osmxml.New(ctx, r)
	}
	defer scanner.Close()

	nodeCoords := make(map[osm.NodeID][2]float64)
	ways := []*osm.Way{}
	var fileBounds *osm.Bounds
	for scanner.Scan() {
		switch o := scanner.Object().(type) {
		case *osm.Bounds:
			fileBounds = o
		case *osm.Node:
			nodeCoords[o.ID] = [2]float64{o.Lat, o.Lon}
		case *osm.Way:
			if isRoad(o) {
				ways = append(ways, o)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan openstreetmap: %w", err)
	}
	if len(ways) == 0 {
		return nil, ErrNoRoads
	}

	p.log.Info("openstreetmap scanned", slog.Int("nodes", len(nodeCoords)), slog.Int("ways", len(ways)))
	return p.initGraph(ways, nodeCoords, fileBounds)
}

func isRoad(way *osm.Way) bool {
	if way.Tags.Find("area") == "yes" {
		return false
	}
	return datastructure.RoadTypeFromHighway(way.Tags.Find("highway")) != datastructure.RoadInvalid
}

// initGraph node index di assign urut sesuai kemunculan pertama di way. way dipotong di node yang gak ada di file
// (way yang kepotong bounding box extract).
func (p *OSMParser) initGraph(osmWays []*osm.Way, nodeCoords map[osm.NodeID][2]float64,
	fileBounds *osm.Bounds) (*routemodel.RouteModel, error) {
	bar := progressbar.NewOptions(len(osmWays),
		progressbar.OptionSetWriter(p.progress),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(15),
		progressbar.OptionSetDescription("[cyan][1/2][reset] building road network from openstreetmap way ..."),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}))

	nodeIdx := make(map[osm.NodeID]int32)
	nodes := []datastructure.Node{}
	ways := []datastructure.Way{}
	roads := []datastructure.Road{}
	bounds := geo.NewBounds()

	addWay := func(id osm.WayID, roadType datastructure.RoadType, segment []int32) {
		if len(segment) < 2 {
			return
		}
		ways = append(ways, datastructure.Way{ID: int64(id), Nodes: segment})
		roads = append(roads, datastructure.Road{Way: int32(len(ways) - 1), Type: roadType})
	}

	for _, way := range osmWays {
		roadType := datastructure.RoadTypeFromHighway(way.Tags.Find("highway"))
		segment := []int32{}
		for _, wn := range way.Nodes {
			coord, ok := nodeCoords[wn.ID]
			if !ok {
				addWay(way.ID, roadType, segment)
				segment = []int32{}
				continue
			}
			idx, ok := nodeIdx[wn.ID]
			if !ok {
				idx = int32(len(nodes))
				nodeIdx[wn.ID] = idx
				nodes = append(nodes, datastructure.Node{
					Lat: coord[0],
					Lon: coord[1],
					ID:  int64(wn.ID),
					Idx: idx,
				})
				bounds.Extend(coord[0], coord[1])
			}
			segment = append(segment, idx)
		}
		addWay(way.ID, roadType, segment)
		_ = bar.Add(1)
	}
	_ = bar.Finish()
	fmt.Fprintln(p.progress)

	if len(ways) == 0 {
		return nil, ErrNoRoads
	}

	projection, err := p.projection(fileBounds, bounds)
	if err != nil {
		return nil, fmt.Errorf("project map bounds: %w", err)
	}
	for i := range nodes {
		nodes[i].X, nodes[i].Y = projection.Project(nodes[i].Lat, nodes[i].Lon)
	}

	p.log.Info("road network ready",
		slog.Int("nodes", len(nodes)), slog.Int("ways", len(ways)),
		slog.Float64("metric_scale", projection.MetricScale()))

	return routemodel.NewRouteModel(nodes, ways, roads, projection.MetricScale())
}

// projection pakai elemen <bounds> dari file kalau ada, kalau gak ada (kebanyakan .pbf) atau
// degenerate pakai extent node.
func (p *OSMParser) projection(fileBounds *osm.Bounds, extent geo.Bounds) (geo.Projection, error) {
	if fileBounds != nil {
		proj, err := geo.NewProjection(geo.Bounds{
			MinLat: fileBounds.MinLat,
			MinLon: fileBounds.MinLon,
			MaxLat: fileBounds.MaxLat,
			MaxLon: fileBounds.MaxLon,
		})
		if err == nil {
			return proj, nil
		}
		p.log.Warn("ignoring degenerate <bounds> element, using node extent",
			slog.Float64("minlat", fileBounds.MinLat), slog.Float64("minlon", fileBounds.MinLon),
			slog.Float64("maxlat", fileBounds.MaxLat), slog.Float64("maxlon", fileBounds.MaxLon))
	}
	return geo.NewProjection(extent)
}
