package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime/pprof"
	"strings"
	"syscall"

	"github.com/Prototyp3html/2025-CP-SafePathZamboanga-sub002/pkg/config"
	"github.com/Prototyp3html/2025-CP-SafePathZamboanga-sub002/pkg/dataset"
	"github.com/Prototyp3html/2025-CP-SafePathZamboanga-sub002/pkg/graph"
	"github.com/Prototyp3html/2025-CP-SafePathZamboanga-sub002/pkg/kv"

	"golang.org/x/exp/slog"
)

var (
	roadsFile  = flag.String("roads", "zamboanga_roads.geojson", "road network dataset (.geojson, .osm.pbf or .osm)")
	floodsFile = flag.String("floods", "", "flood dataset (.geojson), optional")
	dbPath     = flag.String("db", "./safepath.db", "snapshot badger db directory")
	configFile = flag.String("config", "", "yaml config file")
	cpuprofile = flag.String("cpuprofile", "", "write cpu profile to file")
	memprofile = flag.String("memprofile", "", "write memory profile to this file")
)

func main() {
	flag.Parse()
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	if *cpuprofile != "" {
		// ./bin/safepath-preprocessing -cpuprofile=safepathcpu.prof -memprofile=safepathmem.mprof
		f, err := os.Create(*cpuprofile)
		if err != nil {
			log.Fatal(err)
		}
		defer f.Close()

		pprof.StartCPUProfile(f)
		defer pprof.StopCPUProfile()
	}

	if err := run(); err != nil {
		slog.Error("preprocessing failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(*configFile)
	if err != nil {
		return err
	}

	slog.Info("reading datasets", "roads", *roadsFile, "floods", *floodsFile)
	ds, err := dataset.Load(ctx, *roadsFile, *floodsFile)
	if err != nil {
		return err
	}
	recordMemProfile(memprofile, "load_dataset")

	// building the graph once rejects datasets the engine could not start from
	g, err := graph.Build(ds.Segments, cfg.Graph)
	if err != nil {
		return err
	}
	slog.Info("road graph ok", "graph", g.String())

	store, err := kv.OpenSnapshotStore(*dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Save(ctx, g.Segments, ds.FloodRecords); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	recordMemProfile(memprofile, "save_snapshot")

	slog.Info("snapshot ready", "db", *dbPath, "segments", len(g.Segments), "flood_records", len(ds.FloodRecords))
	return nil
}

func recordMemProfile(memprofile *string, name string) {
	if *memprofile != "" {
		path := strings.Replace(*memprofile, ".mprof", fmt.Sprintf("%s.mprof", name), -1)
		f, err := os.Create(path)
		if err != nil {
			log.Fatal(err)
		}
		pprof.WriteHeapProfile(f)
		f.Close()
	}
}
