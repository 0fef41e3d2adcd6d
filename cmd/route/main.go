package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"lintang/routeplanner/pkg/datastructure"
	"lintang/routeplanner/pkg/engine/routingalgorithm"
	"lintang/routeplanner/pkg/kv"
	"lintang/routeplanner/pkg/osmparser"
	"lintang/routeplanner/pkg/routemodel"

	"github.com/cockroachdb/pebble"
	"gopkg.in/yaml.v2"
)

var (
	mapFile = flag.String("f", "", "openstreeetmap file (.osm / .osm.pbf)")
	dbPath  = flag.String("db", "", "direktori snapshot pebble, dipakai kalau -f kosong")
	start   = flag.String("start", "10,10", "titik start \"x,y\" skala 0-100")
	end     = flag.String("end", "90,90", "titik tujuan \"x,y\" skala 0-100")
	format  = flag.String("format", "text", "format output: text atau yaml")
)

type routeReport struct {
	Found         bool                       `yaml:"found"`
	Distance      float64                    `yaml:"distance_m"`
	ExpandedNodes int                        `yaml:"expanded_nodes"`
	Polyline      string                     `yaml:"polyline,omitempty"`
	Route         []datastructure.Coordinate `yaml:"route,omitempty"`
}

func newRouteReport(res datastructure.SearchResult) routeReport {
	report := routeReport{
		Found:         res.Found,
		Distance:      res.RoundedDistance(2),
		ExpandedNodes: res.ExpandedNodes,
	}
	if !res.Found {
		return report
	}
	report.Polyline = datastructure.RenderPath(res.Path)
	report.Route = res.Coordinates()
	return report
}

func main() {
	flag.Parse()
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	if err := run(context.Background(), logger); err != nil {
		logger.Error("route", slog.Any("err", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger) error {
	startX, startY, err := parsePoint(*start)
	if err != nil {
		return fmt.Errorf("-start: %w", err)
	}
	endX, endY, err := parsePoint(*end)
	if err != nil {
		return fmt.Errorf("-end: %w", err)
	}

	model, err := openModel(ctx, logger)
	if err != nil {
		return err
	}

	planner, err := routingalgorithm.NewRoutePlanner(model, startX, startY, endX, endY, routingalgorithm.WithLogger(logger))
	if err != nil {
		return err
	}

	res, err := planner.AStarSearch(ctx)
	if err != nil && !errors.Is(err, routingalgorithm.ErrPathNotFound) {
		return err
	}
	return writeReport(os.Stdout, newRouteReport(res), *format)
}

func writeReport(w io.Writer, report routeReport, format string) error {
	switch format {
	case "yaml":
		out, err := yaml.Marshal(report)
		if err != nil {
			return fmt.Errorf("yaml.Marshal: %w", err)
		}
		_, err = w.Write(out)
		return err
	case "text":
		if !report.Found {
			_, err := fmt.Fprintf(w, "no route found, expanded %d nodes\n", report.ExpandedNodes)
			return err
		}
		_, err := fmt.Fprintf(w, "distance: %.2f m\nnodes: %d, expanded: %d\npolyline: %s\n",
			report.Distance, len(report.Route), report.ExpandedNodes, report.Polyline)
		return err
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

func openModel(ctx context.Context, logger *slog.Logger) (*routemodel.RouteModel, error) {
	if *mapFile != "" {
		return osmparser.NewOSMParser(osmparser.WithLogger(logger), osmparser.WithProgressWriter(os.Stderr)).BuildRouteModel(ctx, *mapFile)
	}
	if *dbPath == "" {
		return nil, errors.New("either -f or -db is required")
	}

	db, err := pebble.Open(*dbPath, &pebble.Options{ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("open pebble: %w", err)
	}
	kvDB := kv.NewKVDB(db, kv.WithLogger(logger))
	defer kvDB.Close()
	return kvDB.LoadModel(ctx)
}

// parsePoint "x,y" dalam skala 0-100.
func parsePoint(s string) (float64, float64, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid point %q, want \"x,y\"", s)
	}
	coords := [2]float64{}
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return 0, 0, fmt.Errorf("invalid point %q: %w", s, err)
		}
		if v < 0 || v > 100 {
			return 0, 0, fmt.Errorf("point %q out of range 0-100", s)
		}
		coords[i] = v
	}
	return coords[0], coords[1], nil
}
