package indexdb

import (
	"path/filepath"
	"testing"

	"openroam.dev/internal/sim/world"
	"openroam.dev/internal/sim/world/chunkindex"
	"openroam.dev/internal/sim/world/geom"
)

func TestWriteAndQueryRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index", "diag.db")
	idx, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	coord := chunkindex.Coord{X: 3, Z: -2}
	pos := geom.Vec3{X: 10, Z: 20}
	for tick := uint64(0); tick < 5; tick++ {
		m := world.Metrics{Tick: tick, Entities: int(tick) * 2, LoadedChunks: 1, StepMS: 0.5}
		var events []world.Event
		if tick == 2 {
			events = []world.Event{
				{Tick: tick, Type: world.EventChunkLoaded, Chunk: &coord},
				{Tick: tick, Type: world.EventEntitySpawned, EntityID: "E000001", Kind: "NPC", Pos: &pos},
			}
		}
		if err := idx.WriteTick(m, events); err != nil {
			t.Fatalf("write tick %d: %v", tick, err)
		}
	}
	// Close drains the queue and commits.
	if err := idx.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	idx2, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer idx2.Close()

	lo, hi, err := idx2.TickRange()
	if err != nil {
		t.Fatalf("tick range: %v", err)
	}
	if lo != 0 || hi != 4 {
		t.Fatalf("tick range: [%d,%d]", lo, hi)
	}
	n, err := idx2.EventCount(string(world.EventChunkLoaded))
	if err != nil {
		t.Fatalf("event count: %v", err)
	}
	if n != 1 {
		t.Fatalf("chunk loaded events: %d", n)
	}
	n, err = idx2.EventCount(string(world.EventEntitySpawned))
	if err != nil {
		t.Fatalf("event count: %v", err)
	}
	if n != 1 {
		t.Fatalf("spawn events: %d", n)
	}
}

func TestWriteAfterCloseIsNoop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "diag.db")
	idx, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := idx.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := idx.WriteTick(world.Metrics{Tick: 1}, nil); err != nil {
		t.Fatalf("write after close: %v", err)
	}
	if err := idx.Close(); err != nil {
		t.Fatalf("double close: %v", err)
	}
}

func TestOpenRejectsEmptyPath(t *testing.T) {
	if _, err := OpenSQLite(""); err == nil {
		t.Fatalf("expected error")
	}
}
