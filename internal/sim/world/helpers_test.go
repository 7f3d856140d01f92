package world

import (
	"io"
	"log"
	"testing"
	"time"

	"openroam.dev/internal/sim/tuning"
	"openroam.dev/internal/sim/world/content"
	"openroam.dev/internal/sim/world/geom"
)

// testTuning shrinks the world so streaming scenarios settle in a few
// ticks: 16x16 chunks of 64m, a 100m bubble, tiny population caps, and
// every gate running at tick rate.
func testTuning() tuning.Tuning {
	c := tuning.Defaults()
	c.StreamingHz = c.TickRateHz
	c.World.ChunkSize = 64
	c.World.TotalChunksX = 16
	c.World.TotalChunksZ = 16
	c.World.StreamingRadius = 100
	c.World.StreamingHysteresis = 20
	c.World.MaxChunksPerTick = 8
	c.World.LakePosition = [2]float64{300, 300}
	c.World.LakeSize = 40
	c.Population.MaxNPCs = 3
	c.Population.EnforceHz = c.TickRateHz
	c.Population.PurgeEveryS = 5
	c.Async.MaxConcurrentTasks = 4
	c.Async.MaxCompletedPerFrame = 8
	return c
}

func newTestWorld(t *testing.T) *World {
	t.Helper()
	cfg := testTuning()
	if notes := cfg.Clamp(); len(notes) != 0 {
		t.Fatalf("test tuning needed clamping: %v", notes)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("test tuning invalid: %v", err)
	}
	w := New(cfg, log.New(io.Discard, "", 0), nil)
	t.Cleanup(func() { w.pool.Close() })
	return w
}

// settle steps the world until cond holds, sleeping between steps so
// async generation can finish.
func settle(t *testing.T, w *World, what string, cond func() bool) {
	t.Helper()
	for i := 0; i < 2000; i++ {
		if cond() {
			return
		}
		w.step(nil, nil)
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("never settled: %s", what)
}

func focusStep(w *World, pos geom.Vec3) {
	w.step([]FocusUpdate{{Pos: pos}}, nil)
}

// clearPos scans near the origin for a position where kind passes every
// placement rule against the current world state.
func clearPos(t *testing.T, w *World, kind content.Kind) geom.Vec3 {
	t.Helper()
	rule, hasRule := content.RoadRule(kind)
	m := content.MeshHalfExtents(kind)
	r := m.X
	if m.Z > r {
		r = m.Z
	}
	for z := -240.0; z <= 240; z += 8 {
		for x := -240.0; x <= 240; x += 8 {
			pos := geom.Vec3{X: x, Z: z}
			if hasRule && rule.Want != w.roads.OnRoad(pos, rule.Tolerance) {
				continue
			}
			if content.RejectsWater(kind) && w.lake().Contains(pos, waterSpawnBuffer) {
				continue
			}
			if !w.grid.CanPlace(pos, kind, r) {
				continue
			}
			return pos
		}
	}
	t.Fatalf("no clear position for %s", kind)
	return geom.Vec3{}
}

// roadPoint returns a sampled centerline point of some road near the
// origin.
func roadPoint(t *testing.T, w *World) geom.Vec3 {
	t.Helper()
	pls := w.roads.PolylinesNear(geom.Vec3{}, 600)
	if len(pls) == 0 {
		t.Fatalf("no roads near origin")
	}
	pts := pls[0].Points
	return pts[len(pts)/2]
}
