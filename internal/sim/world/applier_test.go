package world

import (
	"testing"

	"openroam.dev/internal/sim/world/chunkindex"
	"openroam.dev/internal/sim/world/gen"
)

func TestStaleBlueprintDiscarded(t *testing.T) {
	w := newTestWorld(t)
	c := chunkindex.Coord{X: 0, Z: 0}
	genID, ok := w.chunks.BeginLoading(c, 0)
	if !ok {
		t.Fatalf("begin loading")
	}

	// Wrong generation: a result from a previous load cycle.
	w.completedQ = append(w.completedQ, gen.ChunkBlueprint{
		Coord: c, GenerationID: genID + 1, Success: true,
	})
	w.systemApplier(1)
	if w.counters.StaleDiscarded != 1 {
		t.Fatalf("stale counter: %d", w.counters.StaleDiscarded)
	}
	ch := w.chunks.At(c)
	if ch.State != chunkindex.Loading || ch.GenerationID != genID {
		t.Fatalf("stale result mutated the slot: state=%s gen=%d", ch.State, ch.GenerationID)
	}

	// The matching generation applies.
	w.completedQ = append(w.completedQ, gen.ChunkBlueprint{
		Coord: c, GenerationID: genID, Success: true,
	})
	w.systemApplier(2)
	if ch.State != chunkindex.Loaded {
		t.Fatalf("matching blueprint not applied: %s", ch.State)
	}
	if w.counters.ChunksLoaded != 1 {
		t.Fatalf("chunks loaded counter: %d", w.counters.ChunksLoaded)
	}

	// A duplicate after Loaded is stale by state, same generation or not.
	w.completedQ = append(w.completedQ, gen.ChunkBlueprint{
		Coord: c, GenerationID: genID, Success: true,
	})
	w.systemApplier(3)
	if w.counters.StaleDiscarded != 2 {
		t.Fatalf("duplicate not discarded: %d", w.counters.StaleDiscarded)
	}
}

func TestFailedBlueprintReleasesSlotForRetry(t *testing.T) {
	w := newTestWorld(t)
	c := chunkindex.Coord{X: 1, Z: 1}
	gen1, _ := w.chunks.BeginLoading(c, 0)

	w.completedQ = append(w.completedQ, gen.ChunkBlueprint{
		Coord: c, GenerationID: gen1, Success: false,
	})
	w.systemApplier(1)

	ch := w.chunks.At(c)
	if ch.State != chunkindex.Unloaded {
		t.Fatalf("failed blueprint left state %s", ch.State)
	}
	if w.counters.JobsFailed != 1 {
		t.Fatalf("failed counter: %d", w.counters.JobsFailed)
	}
	gen2, ok := w.chunks.BeginLoading(c, 2)
	if !ok || gen2 != gen1+1 {
		t.Fatalf("retry generation: %d -> %d ok=%v", gen1, gen2, ok)
	}
}

func TestApplierBudgetPerTick(t *testing.T) {
	w := newTestWorld(t)
	w.cfg.Async.MaxCompletedPerFrame = 1

	a := chunkindex.Coord{X: 2, Z: 2}
	b := chunkindex.Coord{X: 3, Z: 3}
	genA, _ := w.chunks.BeginLoading(a, 0)
	genB, _ := w.chunks.BeginLoading(b, 0)
	w.completedQ = append(w.completedQ,
		gen.ChunkBlueprint{Coord: a, GenerationID: genA, Success: true},
		gen.ChunkBlueprint{Coord: b, GenerationID: genB, Success: true},
	)

	w.systemApplier(1)
	if w.chunks.At(a).State != chunkindex.Loaded {
		t.Fatalf("first blueprint not applied")
	}
	if w.chunks.At(b).State != chunkindex.Loading || len(w.completedQ) != 1 {
		t.Fatalf("budget exceeded: state=%s queued=%d", w.chunks.At(b).State, len(w.completedQ))
	}
	w.systemApplier(2)
	if w.chunks.At(b).State != chunkindex.Loaded {
		t.Fatalf("second blueprint not applied next tick")
	}
}

func TestApplierEmitsChunkLoadedEvent(t *testing.T) {
	w := newTestWorld(t)
	c := chunkindex.Coord{X: -1, Z: 2}
	genID, _ := w.chunks.BeginLoading(c, 0)
	w.completedQ = append(w.completedQ, gen.ChunkBlueprint{
		Coord: c, GenerationID: genID, Success: true,
	})
	w.systemApplier(1)

	found := false
	for _, ev := range w.eventsThisTick {
		if ev.Type == EventChunkLoaded && ev.Chunk != nil && *ev.Chunk == c {
			found = true
		}
	}
	if !found {
		t.Fatalf("no CHUNK_LOADED event: %+v", w.eventsThisTick)
	}
}
