package service

import (
	"context"
	"errors"
	"log/slog"

	"lintang/routeplanner/pkg/datastructure"
	"lintang/routeplanner/pkg/engine/routingalgorithm"
	"lintang/routeplanner/pkg/geo"
	"lintang/routeplanner/pkg/routemodel"
	"lintang/routeplanner/pkg/server"
)

// skala koordinat request, sama dengan input RoutePlanner
const coordScale = 100.0

type KVDB interface {
	GetNearestNodesFromPointCoord(lat, lon float64) ([]int32, error)
}

type RouteModel interface {
	routingalgorithm.GraphModel
	NumNodes() int
}

// NavigationService setiap query bikin RoutePlanner baru, metadata A* gak disimpan di model jadi aman dipanggil concurrent.
type NavigationService struct {
	model RouteModel
	kv    KVDB
	log   *slog.Logger
}

func NewNavigationService(model RouteModel, kv KVDB, log *slog.Logger) *NavigationService {
	if log == nil {
		log = slog.Default()
	}
	return &NavigationService{model: model, kv: kv, log: log}
}

// ShortestPath start & end dalam skala 0-100 dari ukuran map.
func (uc *NavigationService) ShortestPath(ctx context.Context, startX, startY, endX, endY float64) (datastructure.SearchResult, error) {
	rp, err := routingalgorithm.NewRoutePlanner(uc.model, startX, startY, endX, endY, routingalgorithm.WithLogger(uc.log))
	if err != nil {
		if errors.Is(err, routemodel.ErrEmptyModel) {
			return datastructure.SearchResult{}, server.WrapErrorf(err, server.ErrNotFound, "the map has no road to route on")
		}
		return datastructure.SearchResult{}, server.WrapErrorf(err, server.ErrInternalServerError, server.MessageInternalServerError)
	}

	res, err := rp.AStarSearch(ctx)
	switch {
	case errors.Is(err, routingalgorithm.ErrPathNotFound):
		uc.log.Info("no route found",
			slog.Int64("start_node", rp.Start().ID), slog.Int64("end_node", rp.End().ID),
			slog.Int("expanded", res.ExpandedNodes))
		return res, server.WrapErrorf(err, server.ErrNotFound, "no route between the two locations")
	case err != nil:
		uc.log.Error("shortest path query failed", slog.String("error", err.Error()))
		return res, server.WrapErrorf(err, server.ErrInternalServerError, server.MessageInternalServerError)
	}

	uc.log.Info("route found",
		slog.Int64("start_node", rp.Start().ID), slog.Int64("end_node", rp.End().ID),
		slog.Int("nodes", len(res.Path)), slog.Float64("distance_m", res.Distance),
		slog.Int("expanded", res.ExpandedNodes))
	return res, nil
}

// ShortestPathLatLon snap lat,lon ke road node terdekat lalu query pakai koordinat ternormalisasi node itu.
func (uc *NavigationService) ShortestPathLatLon(ctx context.Context, srcLat, srcLon, dstLat, dstLon float64) (datastructure.SearchResult, error) {
	from, err := uc.SnapLocToRoadNode(srcLat, srcLon)
	if err != nil {
		return datastructure.SearchResult{}, err
	}
	to, err := uc.SnapLocToRoadNode(dstLat, dstLon)
	if err != nil {
		return datastructure.SearchResult{}, err
	}

	return uc.ShortestPath(ctx, from.X*coordScale, from.Y*coordScale, to.X*coordScale, to.Y*coordScale)
}

func (uc *NavigationService) SnapLocToRoadNode(lat, lon float64) (datastructure.Node, error) {
	if uc.kv == nil {
		return datastructure.Node{}, server.WrapErrorf(nil, server.ErrBadParamInput, "lat/lon query needs the h3 road node index, run preprocessing first")
	}

	candidates, err := uc.kv.GetNearestNodesFromPointCoord(lat, lon)
	if err != nil {
		return datastructure.Node{}, server.WrapErrorf(err, server.ErrNotFound, "sorry!! the location you entered is not covered on my map :(")
	}

	home := geo.NewLocation(lat, lon)
	best := datastructure.Node{Idx: -1}
	bestDist := 0.0
	for _, idx := range candidates {
		// index h3 dari snapshot lain bisa nunjuk ke node yang gak ada di model ini
		if idx < 0 || int(idx) >= uc.model.NumNodes() {
			continue
		}
		n := uc.model.Node(idx)
		d := geo.HaversineDistance(home, geo.NewLocation(n.Lat, n.Lon))
		if best.Idx == -1 || d < bestDist || (d == bestDist && n.Idx < best.Idx) {
			best = n
			bestDist = d
		}
	}
	if best.Idx == -1 {
		uc.log.Warn("h3 index does not match the loaded route model", slog.Int("candidates", len(candidates)))
		return datastructure.Node{}, server.WrapErrorf(nil, server.ErrNotFound, "sorry!! the location you entered is not covered on my map :(")
	}
	return best, nil
}
