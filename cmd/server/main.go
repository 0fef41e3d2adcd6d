package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"lintang/routeplanner/pkg/kv"
	"lintang/routeplanner/pkg/osmparser"
	"lintang/routeplanner/pkg/routemodel"
	"lintang/routeplanner/pkg/server/rest"
	"lintang/routeplanner/pkg/server/rest/service"

	"github.com/cockroachdb/pebble"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	_ "net/http/pprof"
)

var (
	listenAddr = flag.String("listenaddr", ":5000", "server listen address")
	mapFile    = flag.String("f", "solo_jogja.osm.pbf", "openstreeetmap file, dipakai kalau snapshot belum ada")
	dbPath     = flag.String("db", "routeplannerDB", "direktori pebble buat snapshot route model")
)

func main() {
	flag.Parse()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	db, err := pebble.Open(*dbPath, &pebble.Options{})
	if err != nil {
		logger.Error("open pebble", slog.String("db", *dbPath), slog.Any("err", err))
		os.Exit(1)
	}
	kvDB := kv.NewKVDB(db, kv.WithLogger(logger))
	defer kvDB.Close()

	model, err := loadRouteModel(ctx, kvDB, logger)
	if err != nil {
		logger.Error("load route model", slog.Any("err", err))
		kvDB.Close()
		os.Exit(1)
	}

	reg := prometheus.NewRegistry()
	m := rest.NewMetrics(reg)

	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(rest.PromeHttpMiddleware(m)) // prometheus http middleware
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Mount("/debug", middleware.Profiler())

	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	navigatorSvc := service.NewNavigationService(model, kvDB, logger)
	rest.NavigatorRouter(r, navigatorSvc, m)

	srv := &http.Server{Addr: *listenAddr, Handler: r}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown server", slog.Any("err", err))
		}
	}()

	logger.Info("server started", slog.String("addr", *listenAddr), slog.Int("nodes", model.NumNodes()))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("listen and serve", slog.Any("err", err))
	}
}

// loadRouteModel pakai snapshot pebble kalau ada, kalau belum parse file osm lalu simpan snapshotnya.
func loadRouteModel(ctx context.Context, kvDB *kv.KVDB, logger *slog.Logger) (*routemodel.RouteModel, error) {
	model, err := kvDB.LoadModel(ctx)
	if err == nil {
		logger.Info("route model loaded from snapshot", slog.String("db", *dbPath))
		return model, nil
	}
	if !errors.Is(err, kv.ErrSnapshotNotFound) {
		return nil, err
	}

	logger.Info("snapshot not found, parsing openstreetmap file", slog.String("file", *mapFile))
	model, err = osmparser.NewOSMParser(osmparser.WithLogger(logger)).BuildRouteModel(ctx, *mapFile)
	if err != nil {
		return nil, err
	}
	if err := kvDB.SaveModel(ctx, model); err != nil {
		return nil, err
	}
	if err := kvDB.CreateNodeCellIndex(model); err != nil {
		return nil, err
	}
	return model, nil
}
