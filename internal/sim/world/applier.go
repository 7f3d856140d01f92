package world

import (
	"openroam.dev/internal/sim/world/chunkindex"
	"openroam.dev/internal/sim/world/content"
)

// systemApplier applies queued blueprints to the world, a bounded
// number per tick. A blueprint whose generation id no longer matches
// its slot is stale and dropped whole; a failed blueprint returns the
// slot to Unloaded so the streamer can retry it.
func (w *World) systemApplier(nowTick uint64) {
	budget := w.cfg.Async.MaxCompletedPerFrame
	for budget > 0 && len(w.completedQ) > 0 {
		bp := w.completedQ[0]
		w.completedQ = w.completedQ[1:]
		budget--

		ch := w.chunks.At(bp.Coord)
		if ch == nil {
			continue
		}
		if ch.State != chunkindex.Loading || bp.GenerationID != ch.GenerationID {
			w.counters.StaleDiscarded++
			w.log.Printf("stale blueprint discarded chunk=(%d,%d) gen=%d slot_gen=%d state=%s",
				bp.Coord.X, bp.Coord.Z, bp.GenerationID, ch.GenerationID, ch.State)
			continue
		}
		if !bp.Success {
			w.counters.JobsFailed++
			ch.State = chunkindex.Unloaded
			ch.LastUpdateTick = nowTick
			w.log.Printf("chunk generation failed, slot released for retry chunk=(%d,%d) gen=%d",
				bp.Coord.X, bp.Coord.Z, bp.GenerationID)
			continue
		}

		// Revalidate every candidate against live state; the worker saw
		// only its owned inputs. Rejections here are normal (a neighbor
		// chunk spawned something closer in the meantime).
		for _, eb := range bp.Entities {
			w.spawnValidated(eb.Kind, eb.Pos, eb.Scale, eb.Yaw, eb.PaletteHint, nowTick)
		}
		ch.BuildingsGenerated = true
		ch.VegetationGenerated = true
		ch.VehiclesGenerated = true
		ch.State = chunkindex.Loaded
		ch.LastUpdateTick = nowTick
		w.counters.ChunksLoaded++
		w.noteChunkEvent(EventChunkLoaded, bp.Coord, nowTick)
	}
}

// handleSpawnRequest is the external entry: same validation pipeline
// as blueprint application, plus per-reason counters surfaced to the
// caller.
func (w *World) handleSpawnRequest(req SpawnRequest, nowTick uint64) SpawnResult {
	switch req.Kind {
	case content.KindBuilding, content.KindVehicle, content.KindNPC,
		content.KindTree, content.KindParticle:
	default:
		return SpawnResult{Reject: RejectKind}
	}
	e, reject := w.spawnValidated(req.Kind, req.Pos, 1, 0, 0, nowTick)
	if reject != RejectNone {
		return SpawnResult{Reject: reject}
	}
	return SpawnResult{EntityID: e.ID}
}
