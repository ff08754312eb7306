package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"runtime/pprof"
	"strings"
	"syscall"
	"time"

	"github.com/Prototyp3html/2025-CP-SafePathZamboanga-sub002/pkg/config"
	"github.com/Prototyp3html/2025-CP-SafePathZamboanga-sub002/pkg/dataset"
	"github.com/Prototyp3html/2025-CP-SafePathZamboanga-sub002/pkg/datastructure"
	"github.com/Prototyp3html/2025-CP-SafePathZamboanga-sub002/pkg/engine/cost"
	"github.com/Prototyp3html/2025-CP-SafePathZamboanga-sub002/pkg/engine/planner"
	"github.com/Prototyp3html/2025-CP-SafePathZamboanga-sub002/pkg/engine/routingalgorithm"
	"github.com/Prototyp3html/2025-CP-SafePathZamboanga-sub002/pkg/external"
	"github.com/Prototyp3html/2025-CP-SafePathZamboanga-sub002/pkg/flood"
	"github.com/Prototyp3html/2025-CP-SafePathZamboanga-sub002/pkg/graph"
	"github.com/Prototyp3html/2025-CP-SafePathZamboanga-sub002/pkg/kv"
	"github.com/Prototyp3html/2025-CP-SafePathZamboanga-sub002/pkg/server/rest"
	"github.com/Prototyp3html/2025-CP-SafePathZamboanga-sub002/pkg/server/rest/service"
	"github.com/Prototyp3html/2025-CP-SafePathZamboanga-sub002/pkg/snap"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/exp/slog"
)

var (
	listenAddr = flag.String("listenaddr", "", "server listen address, overrides the config file")
	configFile = flag.String("config", "", "yaml config file")
	roadsFile  = flag.String("roads", "zamboanga_roads.geojson", "road network dataset (.geojson, .osm.pbf or .osm)")
	floodsFile = flag.String("floods", "", "flood dataset (.geojson), optional")
	dbPath     = flag.String("db", "", "snapshot badger db built by the preprocessing binary. when set the datasets are not read")
	memprofile = flag.String("memprofile", "", "write memory profile to this file")
)

func main() {
	flag.Parse()
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	if err := run(); err != nil {
		slog.Error("engine stopped", "error", err)
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
	if *listenAddr != "" {
		cfg.Server.ListenAddr = *listenAddr
	}

	var (
		segments []datastructure.RoadSegment
		records  []datastructure.FloodRecord
		floods   service.FloodRecordStore
	)
	if *dbPath != "" {
		store, err := kv.OpenSnapshotStore(*dbPath)
		if err != nil {
			return err
		}
		defer store.Close()

		segments, records, err = store.Load(ctx)
		if err != nil {
			return fmt.Errorf("load snapshot %s: %w", *dbPath, err)
		}
		floods = store
	} else {
		ds, err := dataset.Load(ctx, *roadsFile, *floodsFile)
		if err != nil {
			return err
		}
		segments, records = ds.Segments, ds.FloodRecords
	}

	lookup := flood.NewLookup(records, cfg.Flood.CoordinatePrecision)
	g, err := graph.Build(segments, cfg.Graph)
	if err != nil {
		return err
	}
	recordMemProfile(memprofile, "build_graph")

	analyzer := flood.NewAnalyzer(g.Segments, lookup, cfg.Flood)
	searcher := routingalgorithm.NewRouteAlgorithm(g, cost.NewCostModel(cfg.Cost, lookup),
		snap.NewRoadSnapper(g, cfg.SnapRadius), cfg.Search)

	strategies := []planner.Strategy{planner.NewGraphStrategy(searcher)}
	if cfg.External.BaseURL != "" {
		strategies = append(strategies, planner.NewExternalStrategy(external.NewOSRMClient(cfg.External)))
	}
	routePlanner := planner.NewPlanner(analyzer, cfg.Planner, strategies...)
	routingSvc := service.NewRoutingService(routePlanner, analyzer, floods)

	reg := prometheus.NewRegistry()
	m := rest.NewMetrics(reg)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(rest.PromeHttpMiddleware(m)) // prometheus http middleware
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	rest.RoutingRouter(r, routingSvc, m)

	srv := &http.Server{
		Addr:              cfg.Server.ListenAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server started", "addr", cfg.Server.ListenAddr, "graph", g.String(),
			"flooded_segments", analyzer.FloodedSegmentCount(), "strategies", len(strategies))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
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
