package kv

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strconv"

	"lintang/routeplanner/pkg/concurrent"
	"lintang/routeplanner/pkg/datastructure"
	"lintang/routeplanner/pkg/routemodel"

	"github.com/cockroachdb/pebble"
	"github.com/k0kubun/go-ansi"
	"github.com/schollz/progressbar/v3"
	"github.com/uber/h3-go/v4"
)

const (
	metaKey         = "model/meta"
	roadsKey        = "model/roads"
	modelPrefix     = "model/"
	nodeChunkPrefix = "model/nodes/"
	wayChunkPrefix  = "model/ways/"
	cellPrefix      = "h3/"

	chunkSize      = 4096
	h3Resolution   = 9
	searchRadiusKm = 0.7
	maxGridDiskLev = 10
)

var (
	ErrSnapshotNotFound = errors.New("route model snapshot not found")
	ErrNoNodeNearby     = errors.New("no road node around the location")
)

type modelMeta struct {
	MetricScale float64
	NumNodes    int32
	NodeChunks  int32
	WayChunks   int32
}

type nodeChunk struct {
	Nodes []datastructure.Node
}

type wayChunk struct {
	Ways []datastructure.Way
}

type roadList struct {
	Roads []datastructure.Road
}

type cellNodes struct {
	Nodes []int32
}

type KVDB struct {
	db       *pebble.DB
	workers  int
	progress io.Writer
	log      *slog.Logger
}

type Option func(*KVDB)

func WithWorkers(n int) Option {
	return func(k *KVDB) {
		k.workers = n
	}
}

func WithProgressWriter(w io.Writer) Option {
	return func(k *KVDB) {
		k.progress = w
	}
}

func WithLogger(log *slog.Logger) Option {
	return func(k *KVDB) {
		k.log = log
	}
}

func NewKVDB(db *pebble.DB, opts ...Option) *KVDB {
	k := &KVDB{
		db:       db,
		workers:  4,
		progress: ansi.NewAnsiStdout(),
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(k)
	}
	return k
}

// SaveModel simpan route model ke pebble. node & way disimpan per chunk, meta ditulis terakhir
// jadi snapshot baru kebaca setelah semua chunk tersimpan.
// Snapshot & h3 index lama dihapus dulu, index node lama gak valid lagi buat model baru.
func (k *KVDB) SaveModel(ctx context.Context, m *routemodel.RouteModel) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := k.deletePrefix(modelPrefix); err != nil {
		return err
	}
	if err := k.deletePrefix(cellPrefix); err != nil {
		return err
	}

	jobs := []concurrent.KVJobItem{}
	nodes := m.Nodes()
	nodeChunks := 0
	for start := 0; start < len(nodes); start += chunkSize {
		end := min(start+chunkSize, len(nodes))
		val, err := Encode(nodeChunk{Nodes: nodes[start:end]})
		if err != nil {
			return fmt.Errorf("encode node chunk %d: %w", nodeChunks, err)
		}
		jobs = append(jobs, concurrent.KVJobItem{Key: nodeChunkPrefix + strconv.Itoa(nodeChunks), Value: val})
		nodeChunks++
	}

	ways := m.Ways()
	wayChunks := 0
	for start := 0; start < len(ways); start += chunkSize {
		end := min(start+chunkSize, len(ways))
		val, err := Encode(wayChunk{Ways: ways[start:end]})
		if err != nil {
			return fmt.Errorf("encode way chunk %d: %w", wayChunks, err)
		}
		jobs = append(jobs, concurrent.KVJobItem{Key: wayChunkPrefix + strconv.Itoa(wayChunks), Value: val})
		wayChunks++
	}

	val, err := Encode(roadList{Roads: m.Roads()})
	if err != nil {
		return fmt.Errorf("encode roads: %w", err)
	}
	jobs = append(jobs, concurrent.KVJobItem{Key: roadsKey, Value: val})

	if err := k.runJobs(jobs, "[cyan][2/2][reset] saving route model to pebble db..."); err != nil {
		return err
	}

	meta, err := encodeCompressed(modelMeta{
		MetricScale: m.MetricScale(),
		NumNodes:    int32(len(nodes)),
		NodeChunks:  int32(nodeChunks),
		WayChunks:   int32(wayChunks),
	})
	if err != nil {
		return fmt.Errorf("encode model meta: %w", err)
	}
	if err := k.db.Set([]byte(metaKey), meta, pebble.Sync); err != nil {
		return fmt.Errorf("save model meta: %w", err)
	}

	k.log.Info("route model saved", slog.Int("nodes", len(nodes)), slog.Int("ways", len(ways)),
		slog.Int("node_chunks", nodeChunks), slog.Int("way_chunks", wayChunks))
	return nil
}

func (k *KVDB) LoadModel(ctx context.Context) (*routemodel.RouteModel, error) {
	meta, err := getDecoded[modelMeta](k, metaKey)
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("load model meta: %w", err)
	}

	nodes := make([]datastructure.Node, 0, meta.NumNodes)
	for i := 0; i < int(meta.NodeChunks); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		chunk, err := getDecoded[nodeChunk](k, nodeChunkPrefix+strconv.Itoa(i))
		if err != nil {
			return nil, fmt.Errorf("load node chunk %d: %w", i, err)
		}
		nodes = append(nodes, chunk.Nodes...)
	}

	ways := []datastructure.Way{}
	for i := 0; i < int(meta.WayChunks); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		chunk, err := getDecoded[wayChunk](k, wayChunkPrefix+strconv.Itoa(i))
		if err != nil {
			return nil, fmt.Errorf("load way chunk %d: %w", i, err)
		}
		ways = append(ways, chunk.Ways...)
	}

	roads, err := getDecoded[roadList](k, roadsKey)
	if err != nil {
		return nil, fmt.Errorf("load roads: %w", err)
	}

	k.log.Info("route model loaded", slog.Int("nodes", len(nodes)), slog.Int("ways", len(ways)))
	return routemodel.NewRouteModel(nodes, ways, roads.Roads, meta.MetricScale)
}

// CreateNodeCellIndex index node routable per h3 cell (resolution 9) buat snapping lat,lon ke road node.
func (k *KVDB) CreateNodeCellIndex(m *routemodel.RouteModel) error {
	if err := k.deletePrefix(cellPrefix); err != nil {
		return err
	}

	cells := make(map[string][]int32)
	for _, n := range m.Nodes() {
		if len(m.RoadsOfNode(n.Idx)) == 0 {
			continue
		}
		cell := h3.LatLngToCell(h3.NewLatLng(n.Lat, n.Lon), h3Resolution)
		cells[cell.String()] = append(cells[cell.String()], n.Idx)
	}

	jobs := make([]concurrent.KVJobItem, 0, len(cells))
	for cell, nodes := range cells {
		val, err := Encode(cellNodes{Nodes: nodes})
		if err != nil {
			return fmt.Errorf("encode h3 cell %s: %w", cell, err)
		}
		jobs = append(jobs, concurrent.KVJobItem{Key: cellPrefix + cell, Value: val})
	}

	if err := k.runJobs(jobs, "[cyan][3/3][reset] saving h3 indexed road node to pebble db..."); err != nil {
		return err
	}
	k.log.Info("h3 node index saved", slog.Int("cells", len(cells)))
	return nil
}

// runJobs compress & tulis semua job ke pebble pakai worker pool.
func (k *KVDB) runJobs(jobs []concurrent.KVJobItem, description string) error {
	bar := progressbar.NewOptions(len(jobs),
		progressbar.OptionSetWriter(k.progress),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(15),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}))

	workers := concurrent.NewWorkerPool[concurrent.KVJobItem, error](k.workers, len(jobs))
	for _, job := range jobs {
		workers.AddJob(job)
	}
	workers.Close()

	workers.Start(k.saveItem)
	workers.Wait()

	var firstErr error
	for err := range workers.CollectResults() {
		_ = bar.Add(1)
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	_ = bar.Finish()
	fmt.Fprintln(k.progress)
	return firstErr
}

func (k *KVDB) saveItem(item concurrent.KVJobItem) error {
	val, err := Compress(item.Value)
	if err != nil {
		return fmt.Errorf("compress %s: %w", item.Key, err)
	}
	if err := k.db.Set([]byte(item.Key), val, pebble.NoSync); err != nil {
		return fmt.Errorf("save %s: %w", item.Key, err)
	}
	return nil
}

// GetNearestNodesFromPointCoord kandidat road node di sekitar lat,lon. cari di cell h3 dalam radius 0.7 km,
// kalau kosong (bandara, hutan, dll) perbesar grid disk sampai level 10.
func (k *KVDB) GetNearestNodesFromPointCoord(lat, lon float64) ([]int32, error) {
	home := h3.LatLngToCell(h3.NewLatLng(lat, lon), h3Resolution)

	nodes, err := k.nodesInCells(kRingIndexesArea(home, searchRadiusKm))
	if err != nil {
		return nil, err
	}

	for lev := 1; lev <= maxGridDiskLev && len(nodes) == 0; lev++ {
		nodes, err = k.nodesInCells(h3.GridDisk(home, lev))
		if err != nil {
			return nil, err
		}
	}

	if len(nodes) == 0 {
		return nil, ErrNoNodeNearby
	}
	return nodes, nil
}

func (k *KVDB) nodesInCells(cells []h3.Cell) ([]int32, error) {
	nodes := []int32{}
	for _, cell := range cells {
		cn, err := getDecoded[cellNodes](k, cellPrefix+cell.String())
		if errors.Is(err, pebble.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("load h3 cell %s: %w", cell.String(), err)
		}
		nodes = append(nodes, cn.Nodes...)
	}
	return nodes, nil
}

/*
*
  - https://observablehq.com/@nrabinowitz/h3-radius-lookup?collection=@nrabinowitz/h3
    search cell neighbor dari origin yang radius nya = searchRadiusKm
*/
func kRingIndexesArea(origin h3.Cell, searchRadiusKm float64) []h3.Cell {
	originArea := h3.CellAreaKm2(origin)
	searchArea := math.Pi * searchRadiusKm * searchRadiusKm

	radius := 0
	diskArea := originArea

	for diskArea < searchArea {
		radius++
		cellCount := float64(3*radius*(radius+1) + 1)
		diskArea = cellCount * originArea
	}

	return h3.GridDisk(origin, radius)
}

// deletePrefix hapus semua key berawalan prefix.
func (k *KVDB) deletePrefix(prefix string) error {
	start := []byte(prefix)
	end := append([]byte(prefix[:len(prefix)-1]), prefix[len(prefix)-1]+1)
	if err := k.db.DeleteRange(start, end, pebble.Sync); err != nil {
		return fmt.Errorf("delete %s keys: %w", prefix, err)
	}
	return nil
}

func getDecoded[T any](k *KVDB, key string) (T, error) {
	var zero T
	val, closer, err := k.db.Get([]byte(key))
	if err != nil {
		return zero, err
	}
	defer closer.Close()
	return decodeCompressed[T](val)
}

func (k *KVDB) Close() error {
	return k.db.Close()
}
