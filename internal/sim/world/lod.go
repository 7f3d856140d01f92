package world

import (
	"fmt"
	"math"
	"sort"

	"openroam.dev/internal/sim/world/content"
	"openroam.dev/internal/sim/world/geom"
)

// Mesh scale multipliers per tier. Low detail uses one oversized
// cuboid so silhouettes stay readable at distance.
const (
	mediumDetailScale = 1.0
	lowDetailScale    = 1.6
)

// lodThresholds returns the three tier boundaries for a kind. Fast
// movers swap sooner than scenery.
func (w *World) lodThresholds(kind content.Kind) [3]float64 {
	if kind == content.KindVehicle || kind == content.KindNPC {
		return [3]float64{50, 100, 150}
	}
	d := w.cfg.World.LODDistances
	return [3]float64{d[0], d[1], d[2]}
}

func rawTier(d float64, b [3]float64) LODTier {
	switch {
	case d < b[0]:
		return LODFull
	case d < b[1]:
		return LODMedium
	case d < b[2]:
		return LODLow
	}
	return LODStateOnly
}

// tierWithHysteresis only leaves the current tier once the distance
// clears the boundary by the configured margin, in either direction.
func tierWithHysteresis(cur LODTier, d float64, b [3]float64, h float64) LODTier {
	cand := rawTier(d, b)
	if cand == cur {
		return cur
	}
	if cand > cur {
		shifted := [3]float64{b[0] + h, b[1] + h, b[2] + h}
		if t := rawTier(d, shifted); t > cur {
			return t
		}
		return cur
	}
	shifted := [3]float64{b[0] - h, b[1] - h, b[2] - h}
	if t := rawTier(d, shifted); t < cur {
		return t
	}
	return cur
}

// initLOD assigns the spawn-time tier and builds the initial render
// children. Check phase is staggered by entity number so the per-tick
// due set stays flat.
func (w *World) initLOD(e *Entity, nowTick uint64) {
	if !content.HasLOD(e.Kind) || e.RenderChild {
		return
	}
	d := w.focusDistance(e)
	e.CurrentLOD = rawTier(d, w.lodThresholds(e.Kind))
	w.buildChildren(e)
	e.nextLODCheck = nowTick + 1 + w.nextEntityNum.Load()%w.lodTicks
}

func (w *World) focusDistance(e *Entity) float64 {
	if !w.hasFocus {
		return math.Inf(1)
	}
	return geom.HorizontalDistance(e.Pos, w.focus)
}

// systemLOD re-evaluates due entities and applies at most the
// configured number of tier transitions per tick. Entities past their
// check phase but over budget retry next tick.
func (w *World) systemLOD(nowTick uint64) {
	var due []string
	for id, e := range w.entities {
		if e.RenderChild || !content.HasLOD(e.Kind) {
			continue
		}
		if e.nextLODCheck <= nowTick {
			due = append(due, id)
		}
	}
	sort.Strings(due)

	budget := w.cfg.LOD.MaxTransitionsPerTick
	for _, id := range due {
		e := w.entities[id]
		d := w.focusDistance(e)
		want := tierWithHysteresis(e.CurrentLOD, d, w.lodThresholds(e.Kind), w.cfg.LOD.Hysteresis)
		if want == e.CurrentLOD {
			e.nextLODCheck = nowTick + w.lodTicks
			continue
		}
		if budget == 0 {
			e.nextLODCheck = nowTick + 1
			continue
		}
		w.applyLOD(e, want)
		budget--
		w.counters.LODTransitions++
		e.nextLODCheck = nowTick + w.lodTicks
	}
}

// applyLOD tears down the old representation before building the new
// one; the two never coexist.
func (w *World) applyLOD(e *Entity, tier LODTier) {
	for _, childID := range e.ChildMeshes {
		delete(w.entities, childID)
	}
	e.ChildMeshes = e.ChildMeshes[:0]
	e.CurrentLOD = tier
	w.buildChildren(e)
}

func childMeshCount(kind content.Kind, tier LODTier) int {
	switch tier {
	case LODFull:
		switch kind {
		case content.KindVehicle:
			return 5 // body + wheels
		case content.KindBuilding:
			return 3 // base, facade, roof
		default:
			return 2
		}
	case LODMedium, LODLow:
		return 1
	}
	return 0 // state-only: no render representation
}

func (w *World) buildChildren(e *Entity) {
	n := childMeshCount(e.Kind, e.CurrentLOD)
	scale := e.Scale
	switch e.CurrentLOD {
	case LODMedium:
		scale *= mediumDetailScale
	case LODLow:
		scale *= lowDetailScale
	}
	for i := 0; i < n; i++ {
		child := &Entity{
			ID:          fmt.Sprintf("%s.m%d", e.ID, i),
			Kind:        e.Kind,
			Pos:         e.Pos,
			Yaw:         e.Yaw,
			Scale:       scale,
			Palette:     e.Palette,
			SpawnTick:   e.SpawnTick,
			RenderChild: true,
			ParentID:    e.ID,
			CurrentLOD:  e.CurrentLOD,
		}
		w.entities[child.ID] = child
		e.ChildMeshes = append(e.ChildMeshes, child.ID)
	}
}
