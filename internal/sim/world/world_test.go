package world

import (
	"context"
	"io"
	"log"
	"testing"
	"time"

	"openroam.dev/internal/sim/world/content"
	"openroam.dev/internal/sim/world/geom"
)

// Full session against the channel API with the real loop running.
func TestServerLoopSession(t *testing.T) {
	w := New(testTuning(), log.New(io.Discard, "", 0), nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	w.UpdateFocus(FocusUpdate{Pos: geom.Vec3{}})

	deadline := time.Now().Add(5 * time.Second)
	for w.MetricsSnapshot().LoadedChunks == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("no chunks loaded: %+v", w.MetricsSnapshot())
		}
		time.Sleep(10 * time.Millisecond)
	}

	resp := make(chan SpawnResult, 1)
	if !w.SubmitSpawn(SpawnRequest{Kind: content.KindNPC, Pos: geom.Vec3{X: 10, Z: 10}, Resp: resp}) {
		t.Fatalf("spawn inbox full")
	}
	select {
	case res := <-resp:
		// A generated NPC may already occupy the spot.
		if res.Reject != RejectNone && res.Reject != RejectConflict {
			t.Fatalf("spawn result: %+v", res)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("no spawn result")
	}

	m := w.MetricsSnapshot()
	if m.Counters.JobsDispatched == 0 || m.Counters.ChunksLoaded == 0 {
		t.Fatalf("counters: %+v", m.Counters)
	}

	w.Stop()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("loop did not stop")
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	w := New(testTuning(), log.New(io.Discard, "", 0), nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	cancel()
	select {
	case err := <-done:
		if err != context.Canceled {
			t.Fatalf("run returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("loop ignored cancellation")
	}
}

func TestGateDerivation(t *testing.T) {
	if g := gate(60, 10); g != 6 {
		t.Fatalf("60/10: %d", g)
	}
	if g := gate(60, 60); g != 1 {
		t.Fatalf("60/60: %d", g)
	}
	if g := gate(60, 0); g != 1 {
		t.Fatalf("60/0: %d", g)
	}
	if g := lodGate(60, 0.1); g != 6 {
		t.Fatalf("lod 0.1s: %d", g)
	}
	if g := lodGate(60, 0.001); g != 1 {
		t.Fatalf("lod tiny: %d", g)
	}
}

func TestEntityIDsAreSequential(t *testing.T) {
	w := newTestWorld(t)
	if id := w.newEntityID(); id != "E000001" {
		t.Fatalf("first id: %s", id)
	}
	if id := w.newEntityID(); id != "E000002" {
		t.Fatalf("second id: %s", id)
	}
}
