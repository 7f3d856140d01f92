package chunkindex

import (
	"testing"

	"openroam.dev/internal/sim/world/geom"
)

func TestAtBounds(t *testing.T) {
	idx := New(64, 4, 4) // coords -2..1
	if idx.At(Coord{X: -2, Z: -2}) == nil {
		t.Fatalf("min corner should exist")
	}
	if idx.At(Coord{X: 1, Z: 1}) == nil {
		t.Fatalf("max corner should exist")
	}
	if idx.At(Coord{X: 2, Z: 0}) != nil {
		t.Fatalf("out of bounds should be nil")
	}
	if idx.At(Coord{X: 0, Z: -3}) != nil {
		t.Fatalf("out of bounds should be nil")
	}
}

func TestCoordAtWorldCenterRoundtrip(t *testing.T) {
	idx := New(64, 8, 8)
	for _, c := range []Coord{{0, 0}, {-1, -1}, {3, -4}, {-4, 3}} {
		center := idx.WorldCenter(c)
		if got := idx.CoordAt(center); got != c {
			t.Fatalf("roundtrip %v -> %v -> %v", c, center, got)
		}
	}
	// Negative positions floor toward the lower chunk.
	if got := idx.CoordAt(geom.Vec3{X: -1, Z: -1}); got != (Coord{X: -1, Z: -1}) {
		t.Fatalf("negative pos maps to %v", got)
	}
}

func TestCoordAtNegativeFractions(t *testing.T) {
	idx := New(128, 8, 8)
	cases := []struct {
		pos  geom.Vec3
		want Coord
	}{
		{geom.Vec3{X: -0.5, Z: 0}, Coord{X: -1, Z: 0}},
		{geom.Vec3{X: -128.5, Z: 0}, Coord{X: -2, Z: 0}},
		{geom.Vec3{X: 0, Z: -127.9}, Coord{X: 0, Z: -1}},
		{geom.Vec3{X: -128, Z: -128}, Coord{X: -1, Z: -1}},
		{geom.Vec3{X: 127.9, Z: 128}, Coord{X: 0, Z: 1}},
	}
	for _, c := range cases {
		if got := idx.CoordAt(c.pos); got != c.want {
			t.Fatalf("CoordAt(%v)=%v want %v", c.pos, got, c.want)
		}
	}
}

func TestBeginLoadingGenerationMonotonic(t *testing.T) {
	idx := New(64, 4, 4)
	c := Coord{X: 0, Z: 0}

	gen1, ok := idx.BeginLoading(c, 1)
	if !ok || gen1 != 1 {
		t.Fatalf("first load: gen=%d ok=%v", gen1, ok)
	}
	if _, ok := idx.BeginLoading(c, 2); ok {
		t.Fatalf("loading slot must not re-enter loading")
	}

	ch := idx.At(c)
	ch.State = Loaded
	if _, ok := idx.BeginLoading(c, 3); ok {
		t.Fatalf("loaded slot must not re-enter loading")
	}
	ch.State = Unloading
	if _, ok := idx.BeginLoading(c, 4); ok {
		t.Fatalf("unloading slot must not re-enter loading")
	}
	ch.State = Unloaded

	gen2, ok := idx.BeginLoading(c, 5)
	if !ok || gen2 != gen1+1 {
		t.Fatalf("generation must increase: %d -> %d", gen1, gen2)
	}
}

func TestCountByState(t *testing.T) {
	idx := New(64, 2, 2)
	idx.At(Coord{X: 0, Z: 0}).State = Loaded
	idx.At(Coord{X: -1, Z: 0}).State = Loading
	counts := idx.CountByState()
	if counts["LOADED"] != 1 || counts["LOADING"] != 1 || counts["UNLOADED"] != 2 {
		t.Fatalf("counts: %v", counts)
	}
	if idx.LoadedCount() != 1 {
		t.Fatalf("loaded count %d", idx.LoadedCount())
	}
}
