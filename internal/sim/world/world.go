// Package world is the authoritative streaming core. All mutable state
// is owned by the single goroutine running Run; transport and tooling
// talk to it exclusively through the channel API below.
package world

import (
	"fmt"
	"log"
	"os"
	"sync/atomic"

	"openroam.dev/internal/sim/tuning"
	"openroam.dev/internal/sim/world/chunkindex"
	"openroam.dev/internal/sim/world/content"
	"openroam.dev/internal/sim/world/gen"
	"openroam.dev/internal/sim/world/geom"
	"openroam.dev/internal/sim/world/placement"
	"openroam.dev/internal/sim/world/roads"
)

// FocusUpdate repositions the streaming focus. EntityID names the
// focus-bound entity (excluded from the dynamic physics window); it may
// be empty for a free camera.
type FocusUpdate struct {
	Pos      geom.Vec3
	EntityID string
}

// RejectReason explains a refused spawn request.
type RejectReason string

const (
	RejectNone     RejectReason = ""
	RejectPosition RejectReason = "POSITION_INVALID"
	RejectRoad     RejectReason = "ROAD_RULE"
	RejectWater    RejectReason = "WATER"
	RejectConflict RejectReason = "PLACEMENT_CONFLICT"
	RejectKind     RejectReason = "UNKNOWN_KIND"
)

type SpawnResult struct {
	EntityID string
	Reject   RejectReason
}

// SpawnRequest is an external spawn submitted through the event inbox.
// Resp, when non-nil, receives exactly one result.
type SpawnRequest struct {
	Kind content.Kind
	Pos  geom.Vec3
	Resp chan SpawnResult
}

// ObserverJoinRequest attaches a read-only session; the world pushes
// tick frames to Out with drop-latest backpressure.
type ObserverJoinRequest struct {
	ID  string
	Out chan []byte
}

// TickSink receives the per-tick metrics snapshot and event batch.
// Implementations must not block the world thread.
type TickSink interface {
	WriteTick(m Metrics, events []Event) error
}

type World struct {
	cfg tuning.Tuning
	log *log.Logger

	tick    atomic.Uint64
	metrics atomic.Value // Metrics

	chunks *chunkindex.Index
	grid   *placement.Grid
	roads  *roads.Network
	pool   *gen.Pool

	entities      map[string]*Entity
	nextEntityNum atomic.Uint64

	hasFocus      bool
	focus         geom.Vec3
	focusEntityID string

	// Async generation bookkeeping. pendingJobs holds jobs for Loading
	// chunks waiting for a worker slot; completedQ is the FIFO of
	// received blueprints not yet applied.
	pendingJobs []gen.Job
	activeJobs  int
	completedQ  []gen.ChunkBlueprint

	unloading []chunkindex.Coord

	pop *populations

	spawnHooks   map[content.Kind][]SpawnHook
	despawnHooks map[content.Kind][]SpawnHook

	eventsThisTick []Event
	observers      map[string]chan []byte

	counters Counters
	stats    stepStats

	tickSink TickSink

	// Tick gates derived from the configured rates.
	streamEvery  uint64
	enforceEvery uint64
	purgeEvery   uint64
	lodTicks     uint64

	focusCh       chan FocusUpdate
	spawnCh       chan SpawnRequest
	observerJoin  chan ObserverJoinRequest
	observerLeave chan string
	stop          chan struct{}
}

// New builds a stopped world from validated tuning. Callers then start
// Run on its own goroutine.
func New(cfg tuning.Tuning, logger *log.Logger, sink TickSink) *World {
	if logger == nil {
		logger = log.New(os.Stdout, "[world] ", log.LstdFlags|log.Lmicroseconds)
	}
	w := &World{
		cfg:    cfg,
		log:    logger,
		chunks: chunkindex.New(cfg.World.ChunkSize, cfg.World.TotalChunksX, cfg.World.TotalChunksZ),
		grid:   placement.NewGrid(10),
		roads:  roads.DefaultNetwork(cfg.Seed, cfg.World.ChunkSize*float64(cfg.World.TotalChunksX)/2),
		pool:   gen.NewPool(cfg.Async.MaxConcurrentTasks),

		entities: map[string]*Entity{},

		spawnHooks:   map[content.Kind][]SpawnHook{},
		despawnHooks: map[content.Kind][]SpawnHook{},
		observers:    map[string]chan []byte{},

		tickSink: sink,

		streamEvery:  gate(cfg.TickRateHz, cfg.StreamingHz),
		enforceEvery: gate(cfg.TickRateHz, cfg.Population.EnforceHz),
		purgeEvery:   uint64(cfg.TickRateHz * cfg.Population.PurgeEveryS),
		lodTicks:     lodGate(cfg.TickRateHz, cfg.LOD.CheckIntervalS),

		focusCh:       make(chan FocusUpdate, 8),
		spawnCh:       make(chan SpawnRequest, 64),
		observerJoin:  make(chan ObserverJoinRequest, 4),
		observerLeave: make(chan string, 4),
		stop:          make(chan struct{}),
	}
	w.pop = newPopulations(w)
	w.metrics.Store(Metrics{Population: map[string]int{}})
	return w
}

// gate converts a subsystem rate into a tick modulus (>= 1).
func gate(tickHz, subHz int) uint64 {
	if subHz <= 0 || subHz >= tickHz {
		return 1
	}
	return uint64(tickHz / subHz)
}

func lodGate(tickHz int, intervalS float64) uint64 {
	t := uint64(float64(tickHz) * intervalS)
	if t < 1 {
		t = 1
	}
	return t
}

func (w *World) Tick() uint64 { return w.tick.Load() }

// Config returns a copy of the effective (clamped, validated) tuning.
func (w *World) Config() tuning.Tuning { return w.cfg }

// MetricsSnapshot returns the last published per-tick metrics. Safe
// from any goroutine.
func (w *World) MetricsSnapshot() Metrics {
	return w.metrics.Load().(Metrics)
}

// UpdateFocus hands the latest focus to the world loop, dropping an
// older queued update rather than blocking the caller.
func (w *World) UpdateFocus(u FocusUpdate) {
	select {
	case w.focusCh <- u:
		return
	default:
	}
	select {
	case <-w.focusCh:
	default:
	}
	select {
	case w.focusCh <- u:
	default:
	}
}

// SubmitSpawn enqueues an external spawn request. False means the
// inbox is full.
func (w *World) SubmitSpawn(req SpawnRequest) bool {
	select {
	case w.spawnCh <- req:
		return true
	default:
		return false
	}
}

func (w *World) JoinObserver(req ObserverJoinRequest)  { w.observerJoin <- req }
func (w *World) LeaveObserver(id string)               { w.observerLeave <- id }

func (w *World) Stop() { close(w.stop) }

func (w *World) newEntityID() string {
	n := w.nextEntityNum.Add(1)
	return fmt.Sprintf("E%06d", n)
}

func (w *World) entity(id string) *Entity { return w.entities[id] }

// lake returns the water disc copied into generation jobs and checked
// by the spawn pipeline.
func (w *World) lake() gen.LakeDisc {
	return gen.LakeDisc{
		Center: geom.Vec3{X: w.cfg.World.LakePosition[0], Z: w.cfg.World.LakePosition[1]},
		Radius: w.cfg.World.LakeSize,
	}
}

func sendLatest(ch chan []byte, b []byte) {
	select {
	case ch <- b:
		return
	default:
	}
	// Drop one.
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- b:
	default:
	}
}
