package world

import (
	"sort"

	"openroam.dev/internal/sim/world/chunkindex"
	"openroam.dev/internal/sim/world/gen"
	"openroam.dev/internal/sim/world/geom"
)

// Entity despawns drained from unloading chunks per tick, across all
// chunks. Keeps teardown spikes off the frame budget.
const unloadDrainPerTick = 128

// systemStreaming decides chunk transitions around the focus. Runs on
// the streaming gate, not every tick. Without a focus the streamer
// holds: nothing loads, nothing unloads.
func (w *World) systemStreaming(nowTick uint64) {
	if !w.hasFocus {
		return
	}
	radius := w.cfg.World.StreamingRadius
	exit := radius + w.cfg.World.StreamingHysteresis

	type candidate struct {
		coord chunkindex.Coord
		dist  float64
	}
	var loads []candidate

	// Scan the square covering the exit radius; slots outside it can
	// only be Unloaded already or mid-drain.
	size := w.chunks.ChunkSize()
	minC := w.chunks.CoordAt(w.focus.Add(geom.Vec3{X: -exit - size, Z: -exit - size}))
	maxC := w.chunks.CoordAt(w.focus.Add(geom.Vec3{X: exit + size, Z: exit + size}))
	for z := minC.Z; z <= maxC.Z; z++ {
		for x := minC.X; x <= maxC.X; x++ {
			c := chunkindex.Coord{X: x, Z: z}
			ch := w.chunks.At(c)
			if ch == nil {
				continue
			}
			d := geom.HorizontalDistance(w.focus, w.chunks.WorldCenter(c))
			ch.DistanceToFocus = d
			switch ch.State {
			case chunkindex.Unloaded:
				if d <= radius {
					loads = append(loads, candidate{coord: c, dist: d})
				}
			case chunkindex.Loaded:
				if d > exit {
					w.beginUnload(ch, nowTick)
				}
			}
		}
	}

	// Loaded chunks that fell outside the scan square entirely.
	w.chunks.All(func(ch *chunkindex.Chunk) {
		if ch.State != chunkindex.Loaded {
			return
		}
		d := geom.HorizontalDistance(w.focus, w.chunks.WorldCenter(ch.Coord))
		ch.DistanceToFocus = d
		if d > exit {
			w.beginUnload(ch, nowTick)
		}
	})

	// Nearest first; ties break on coordinate for determinism.
	sort.Slice(loads, func(i, j int) bool {
		a, b := loads[i], loads[j]
		if a.dist != b.dist {
			return a.dist < b.dist
		}
		if a.coord.X != b.coord.X {
			return a.coord.X < b.coord.X
		}
		return a.coord.Z < b.coord.Z
	})

	budget := w.cfg.World.MaxChunksPerTick
	for _, cand := range loads {
		if budget == 0 {
			break
		}
		genID, ok := w.chunks.BeginLoading(cand.coord, nowTick)
		if !ok {
			continue
		}
		w.pendingJobs = append(w.pendingJobs, w.jobFor(cand.coord, genID))
		budget--
	}
}

// jobFor packages the owned inputs a worker needs to generate one chunk.
func (w *World) jobFor(c chunkindex.Coord, genID uint32) gen.Job {
	center := w.chunks.WorldCenter(c)
	return gen.Job{
		Coord:        c,
		ChunkSize:    w.chunks.ChunkSize(),
		GenerationID: genID,
		Seed:         w.cfg.Seed,
		Roads:        w.roads.PolylinesNear(center, w.chunks.ChunkSize()/2),
		Lake:         w.lake(),
	}
}

func (w *World) beginUnload(ch *chunkindex.Chunk, nowTick uint64) {
	ch.State = chunkindex.Unloading
	ch.LastUpdateTick = nowTick
	w.unloading = append(w.unloading, ch.Coord)
}

// systemUnloading drains entity teardown from Unloading chunks, a
// bounded number of despawns per tick, and completes the transition to
// Unloaded once a chunk is empty.
func (w *World) systemUnloading(nowTick uint64) {
	if len(w.unloading) == 0 {
		return
	}
	budget := unloadDrainPerTick
	remaining := w.unloading[:0]
	for _, c := range w.unloading {
		ch := w.chunks.At(c)
		if ch == nil || ch.State != chunkindex.Unloading {
			continue
		}
		for budget > 0 && len(ch.Entities) > 0 {
			id := ch.Entities[len(ch.Entities)-1]
			ch.Entities = ch.Entities[:len(ch.Entities)-1]
			w.despawnEntity(id, nowTick)
			budget--
		}
		if len(ch.Entities) == 0 {
			ch.State = chunkindex.Unloaded
			ch.Entities = nil
			ch.BuildingsGenerated = false
			ch.VegetationGenerated = false
			ch.VehiclesGenerated = false
			ch.LastUpdateTick = nowTick
			w.counters.ChunksUnloaded++
			w.noteChunkEvent(EventChunkUnloaded, c, nowTick)
		} else {
			remaining = append(remaining, c)
		}
	}
	w.unloading = remaining
}

// dispatchJobs feeds queued generation jobs to the pool up to the
// concurrency cap. Chunks wait in Loading until a slot frees up.
func (w *World) dispatchJobs() {
	for len(w.pendingJobs) > 0 && w.activeJobs < w.cfg.Async.MaxConcurrentTasks {
		if !w.pool.TrySubmit(w.pendingJobs[0]) {
			return
		}
		w.pendingJobs = w.pendingJobs[1:]
		w.activeJobs++
		w.counters.JobsDispatched++
	}
}

// pollCompleted moves finished blueprints into the apply queue.
// Receiving a result is what retires it; nothing is polled twice.
func (w *World) pollCompleted() {
	for {
		bp, ok := w.pool.TryRecv()
		if !ok {
			return
		}
		w.activeJobs--
		w.completedQ = append(w.completedQ, bp)
	}
}
