package world

import (
	"testing"

	"openroam.dev/internal/sim/world/chunkindex"
	"openroam.dev/internal/sim/world/geom"
)

func TestStreamingLoadsAroundFocus(t *testing.T) {
	w := newTestWorld(t)
	focusStep(w, geom.Vec3{})

	// Chunk centers within 100m of the origin: the four innermost.
	settle(t, w, "4 chunks loaded", func() bool {
		return w.chunks.LoadedCount() == 4
	})

	w.chunks.All(func(ch *chunkindex.Chunk) {
		if ch.State != chunkindex.Loaded {
			return
		}
		d := geom.HorizontalDistance(geom.Vec3{}, w.chunks.WorldCenter(ch.Coord))
		if d > w.cfg.World.StreamingRadius {
			t.Fatalf("chunk (%d,%d) loaded at distance %.0f", ch.Coord.X, ch.Coord.Z, d)
		}
		if !ch.BuildingsGenerated || !ch.VegetationGenerated || !ch.VehiclesGenerated {
			t.Fatalf("loaded chunk missing generation flags")
		}
	})
	if w.counters.JobsDispatched < 4 {
		t.Fatalf("jobs dispatched: %d", w.counters.JobsDispatched)
	}
	if w.counters.ChunksLoaded != 4 {
		t.Fatalf("chunks loaded counter: %d", w.counters.ChunksLoaded)
	}
}

func TestNoFocusNoStreaming(t *testing.T) {
	w := newTestWorld(t)
	for i := 0; i < 10; i++ {
		w.step(nil, nil)
	}
	if n := w.chunks.LoadedCount(); n != 0 {
		t.Fatalf("loaded %d chunks without a focus", n)
	}
	if len(w.pendingJobs) != 0 || w.counters.JobsDispatched != 0 {
		t.Fatalf("jobs queued without a focus")
	}
}

func TestFocusMoveUnloadsBehind(t *testing.T) {
	w := newTestWorld(t)
	origin := geom.Vec3{}
	focusStep(w, origin)
	settle(t, w, "initial load", func() bool {
		return w.chunks.LoadedCount() == 4 && w.activeJobs == 0 &&
			len(w.pendingJobs) == 0 && len(w.completedQ) == 0
	})
	if len(w.entities) == 0 {
		t.Fatalf("loaded chunks spawned nothing")
	}

	far := geom.Vec3{X: -350, Z: -350}
	focusStep(w, far)
	settle(t, w, "old area unloaded", func() bool {
		clean := true
		w.chunks.All(func(ch *chunkindex.Chunk) {
			d := geom.HorizontalDistance(origin, w.chunks.WorldCenter(ch.Coord))
			if d <= w.cfg.World.StreamingRadius && ch.State != chunkindex.Unloaded {
				clean = false
			}
		})
		return clean && len(w.unloading) == 0
	})

	if w.counters.ChunksUnloaded < 4 {
		t.Fatalf("chunks unloaded counter: %d", w.counters.ChunksUnloaded)
	}
	// Unloaded slots leave no residue: flags reset, no owned entities.
	w.chunks.All(func(ch *chunkindex.Chunk) {
		if ch.State != chunkindex.Unloaded {
			return
		}
		if len(ch.Entities) != 0 || ch.BuildingsGenerated {
			t.Fatalf("unloaded chunk (%d,%d) kept state", ch.Coord.X, ch.Coord.Z)
		}
	})
	for id, e := range w.entities {
		if e.RenderChild {
			continue
		}
		if e.HasChunk {
			ch := w.chunks.At(e.Chunk)
			if ch == nil || ch.State == chunkindex.Unloaded {
				t.Fatalf("entity %s owned by a dead chunk", id)
			}
		}
	}
}

func TestDispatchRespectsConcurrencyCap(t *testing.T) {
	w := newTestWorld(t)
	// Queue more jobs than the pool accepts at once.
	for i := int32(0); i < 8; i++ {
		c := chunkindex.Coord{X: i - 4, Z: 5}
		genID, ok := w.chunks.BeginLoading(c, 0)
		if !ok {
			t.Fatalf("begin loading (%d,5)", i-4)
		}
		w.pendingJobs = append(w.pendingJobs, w.jobFor(c, genID))
	}
	w.dispatchJobs()
	if w.activeJobs > w.cfg.Async.MaxConcurrentTasks {
		t.Fatalf("active jobs %d over cap %d", w.activeJobs, w.cfg.Async.MaxConcurrentTasks)
	}
	if len(w.pendingJobs)+w.activeJobs != 8 {
		t.Fatalf("jobs lost: pending=%d active=%d", len(w.pendingJobs), w.activeJobs)
	}
}
