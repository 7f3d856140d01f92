package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"openroam.dev/internal/persistence/indexdb"
	persistlog "openroam.dev/internal/persistence/log"
	"openroam.dev/internal/sim/tuning"
	"openroam.dev/internal/sim/world"
	"openroam.dev/internal/transport/ws"
)

func main() {
	var (
		addr       = flag.String("addr", ":8080", "http listen address")
		configDir  = flag.String("configs", "./configs", "config directory")
		dataDir    = flag.String("data", "./data", "runtime data directory")
		tuningPath = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		seed       = flag.Int64("seed", 0, "world seed override (0 keeps the tuning value)")
		disableDB  = flag.Bool("disable_db", false, "disable the sqlite diagnostics index")
		pprofHTTP  = flag.Bool("pprof", false, "expose /debug/pprof endpoints")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	tp := strings.TrimSpace(*tuningPath)
	if tp == "" {
		tp = filepath.Join(*configDir, "tuning.yaml")
	}
	tune, notes, err := tuning.Load(tp)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Printf("tuning not found (%s); using defaults", tp)
			tune = tuning.Defaults()
		} else {
			logger.Fatalf("load tuning: %v", err)
		}
	}
	for _, n := range notes {
		logger.Printf("tuning: %s clamped %g -> %g", n.Field, n.Was, n.Now)
	}
	if *seed != 0 {
		tune.Seed = *seed
	}

	_ = os.MkdirAll(*dataDir, 0o755)

	var idx *indexdb.SQLiteIndex
	if !*disableDB {
		idx, err = indexdb.OpenSQLite(filepath.Join(*dataDir, "index", "diag.db"))
		if err != nil {
			logger.Fatalf("open index db: %v", err)
		}
		defer idx.Close()
	}

	metricsLog := persistlog.NewMetricsLogger(*dataDir)
	defer metricsLog.Close()

	w := world.New(tune, logger, multiTickSink{a: metricsLog, b: idx})

	ctx, cancel := signalContext()
	defer cancel()

	go func() {
		if err := w.Run(ctx); err != nil && err != context.Canceled {
			logger.Printf("world stopped: %v", err)
		}
	}()

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("/metrics", func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "text/plain; version=0.0.4")
		m := w.MetricsSnapshot()

		fmt.Fprintf(rw, "# HELP openroam_world_tick Current world tick.\n")
		fmt.Fprintf(rw, "# TYPE openroam_world_tick gauge\n")
		fmt.Fprintf(rw, "openroam_world_tick %d\n", m.Tick)

		fmt.Fprintf(rw, "# HELP openroam_world_entities Current entity count.\n")
		fmt.Fprintf(rw, "# TYPE openroam_world_entities gauge\n")
		fmt.Fprintf(rw, "openroam_world_entities %d\n", m.Entities)

		fmt.Fprintf(rw, "# HELP openroam_world_loaded_chunks Loaded chunk count.\n")
		fmt.Fprintf(rw, "# TYPE openroam_world_loaded_chunks gauge\n")
		fmt.Fprintf(rw, "openroam_world_loaded_chunks %d\n", m.LoadedChunks)

		fmt.Fprintf(rw, "# HELP openroam_world_step_ms Last tick step duration in milliseconds.\n")
		fmt.Fprintf(rw, "# TYPE openroam_world_step_ms gauge\n")
		fmt.Fprintf(rw, "openroam_world_step_ms %.3f\n", m.StepMS)

		fmt.Fprintf(rw, "# HELP openroam_world_population Population by kind.\n")
		fmt.Fprintf(rw, "# TYPE openroam_world_population gauge\n")
		for _, kind := range []string{"BUILDING", "VEHICLE", "NPC", "TREE"} {
			fmt.Fprintf(rw, "openroam_world_population{kind=%q} %d\n", kind, m.Population[kind])
		}

		fmt.Fprintf(rw, "# HELP openroam_world_stale_discarded_total Stale blueprints discarded.\n")
		fmt.Fprintf(rw, "# TYPE openroam_world_stale_discarded_total counter\n")
		fmt.Fprintf(rw, "openroam_world_stale_discarded_total %d\n", m.Counters.StaleDiscarded)

		fmt.Fprintf(rw, "# HELP openroam_world_cap_evictions_total Population cap evictions.\n")
		fmt.Fprintf(rw, "# TYPE openroam_world_cap_evictions_total counter\n")
		fmt.Fprintf(rw, "openroam_world_cap_evictions_total %d\n", m.Counters.CapEvictions)
	})
	mux.HandleFunc("/v1/state", func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(rw).Encode(w.MetricsSnapshot())
	})
	if *pprofHTTP {
		mux.HandleFunc("/debug/pprof/", pprof.Index)
		mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	}
	mux.HandleFunc("/v1/ws", ws.NewServer(w, logger).Handler())

	srv := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	logger.Printf("listening on %s", *addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("ListenAndServe: %v", err)
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}

type multiTickSink struct {
	a world.TickSink
	b *indexdb.SQLiteIndex
}

func (m multiTickSink) WriteTick(metrics world.Metrics, events []world.Event) error {
	if m.a != nil {
		_ = m.a.WriteTick(metrics, events)
	}
	if m.b != nil {
		_ = m.b.WriteTick(metrics, events)
	}
	return nil
}
