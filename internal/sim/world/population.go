package world

import (
	"sort"

	"openroam.dev/internal/sim/world/chunkindex"
	"openroam.dev/internal/sim/world/content"
	"openroam.dev/internal/sim/world/geom"
)

// populations tracks per-kind membership in spawn order. Membership is
// maintained entirely through the lifecycle hooks, so any future
// subscriber sees the same stream the cap enforcement does.
type populations struct {
	w     *World
	byKind map[content.Kind][]string // FIFO: oldest first
}

var cappedKinds = []content.Kind{
	content.KindBuilding,
	content.KindVehicle,
	content.KindNPC,
	content.KindTree,
}

func newPopulations(w *World) *populations {
	p := &populations{w: w, byKind: map[content.Kind][]string{}}
	for _, k := range cappedKinds {
		kind := k
		w.RegisterSpawnHook(kind,
			func(e *Entity) { p.byKind[kind] = append(p.byKind[kind], e.ID) },
			func(e *Entity) { p.byKind[kind] = removeOrdered(p.byKind[kind], e.ID) },
		)
	}
	return p
}

// removeOrdered deletes id while preserving spawn order; the FIFO
// eviction policy depends on it.
func removeOrdered(s []string, id string) []string {
	for i := range s {
		if s[i] == id {
			return append(s[:i], s[i+1:]...)
		}
	}
	return s
}

func (p *populations) cap(k content.Kind) int {
	c := p.w.cfg.Population
	switch k {
	case content.KindBuilding:
		return c.MaxBuildings
	case content.KindVehicle:
		return c.MaxVehicles
	case content.KindNPC:
		return c.MaxNPCs
	case content.KindTree:
		return c.MaxTrees
	}
	return 0
}

func (p *populations) count(k content.Kind) int { return len(p.byKind[k]) }

func (p *populations) counts() map[string]int {
	out := make(map[string]int, len(cappedKinds))
	for _, k := range cappedKinds {
		out[string(k)] = len(p.byKind[k])
	}
	return out
}

// enforce despawns the oldest members of any kind over its cap. Runs
// on the enforcement gate, so a burst can overshoot briefly; the next
// pass pulls it back down.
func (p *populations) enforce(nowTick uint64) {
	for _, k := range cappedKinds {
		limit := p.cap(k)
		for len(p.byKind[k]) > limit {
			oldest := p.byKind[k][0]
			if !p.w.despawnEntity(oldest, nowTick) {
				// Registry out of sync with the arena; drop the id.
				p.byKind[k] = p.byKind[k][1:]
				continue
			}
			p.w.counters.CapEvictions++
		}
	}
}

// purge removes leaked entities: chunk-owned ones whose slot is no
// longer resident, and unowned direct spawns that drifted far outside
// the streaming bubble. Runs every purge interval.
func (p *populations) purge(nowTick uint64) {
	w := p.w
	farLimit := w.cfg.World.StreamingRadius + 2*w.cfg.World.StreamingHysteresis

	var doomed []string
	for id, e := range w.entities {
		if e.RenderChild {
			continue
		}
		if id == w.focusEntityID {
			continue
		}
		if e.HasChunk {
			ch := w.chunks.At(e.Chunk)
			if ch == nil || (ch.State != chunkindex.Loaded && ch.State != chunkindex.Loading &&
				ch.State != chunkindex.Unloading) {
				doomed = append(doomed, id)
			}
			continue
		}
		if w.hasFocus && geom.HorizontalDistance(e.Pos, w.focus) > farLimit {
			doomed = append(doomed, id)
		}
	}
	sort.Strings(doomed)
	for _, id := range doomed {
		if w.despawnEntity(id, nowTick) {
			w.counters.Purged++
		}
	}
}
