package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"lintang/routeplanner/pkg/kv"
	"lintang/routeplanner/pkg/osmparser"

	"github.com/cockroachdb/pebble"
)

var (
	mapFile = flag.String("f", "solo_jogja.osm.pbf", "openstreeetmap file buat road network graphnya")
	dbPath  = flag.String("db", "routeplannerDB", "direktori pebble buat snapshot route model")
	workers = flag.Int("workers", 4, "jumlah worker penulis snapshot")
)

func main() {
	flag.Parse()
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := run(ctx, logger)
	stop()
	if err != nil {
		logger.Error("preprocessing", slog.Any("err", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger) error {
	osmParser := osmparser.NewOSMParser(osmparser.WithLogger(logger))
	model, err := osmParser.BuildRouteModel(ctx, *mapFile)
	if err != nil {
		return fmt.Errorf("build route model from %s: %w", *mapFile, err)
	}

	db, err := pebble.Open(*dbPath, &pebble.Options{})
	if err != nil {
		return fmt.Errorf("open pebble %s: %w", *dbPath, err)
	}

	kvDB := kv.NewKVDB(db, kv.WithWorkers(*workers), kv.WithLogger(logger))
	defer kvDB.Close()

	if err := kvDB.SaveModel(ctx, model); err != nil {
		return err
	}
	if err := kvDB.CreateNodeCellIndex(model); err != nil {
		return err
	}

	logger.Info("route model snapshot ready",
		slog.String("db", *dbPath),
		slog.Int("nodes", model.NumNodes()),
		slog.Int("ways", len(model.Ways())),
		slog.Float64("metric_scale", model.MetricScale()))
	return nil
}
