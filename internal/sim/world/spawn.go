package world

import (
	"openroam.dev/internal/sim/tuning"
	"openroam.dev/internal/sim/world/chunkindex"
	"openroam.dev/internal/sim/world/content"
	"openroam.dev/internal/sim/world/geom"
)

// Water margin applied when validating spawns against the lake disc.
const waterSpawnBuffer = 2.0

// spawnValidated runs the full placement pipeline and creates the
// entity on success. Every spawn path (blueprints and external
// requests) funnels through here; nothing enters the world unchecked.
func (w *World) spawnValidated(kind content.Kind, pos geom.Vec3, scale, yaw float64, palette uint8, nowTick uint64) (*Entity, RejectReason) {
	if !pos.IsFinite() ||
		pos.X < w.cfg.Physics.MinWorldCoord || pos.X > w.cfg.Physics.MaxWorldCoord ||
		pos.Z < w.cfg.Physics.MinWorldCoord || pos.Z > w.cfg.Physics.MaxWorldCoord ||
		pos.Y < w.cfg.Physics.MinWorldCoord || pos.Y > w.cfg.Physics.MaxWorldCoord {
		w.counters.RejectPosition++
		return nil, RejectPosition
	}

	if rule, ok := content.RoadRule(kind); ok {
		on := w.roads.OnRoad(pos, rule.Tolerance)
		if rule.Want != on {
			w.counters.RejectRoad++
			return nil, RejectRoad
		}
	}

	if content.RejectsWater(kind) && w.lake().Contains(pos, waterSpawnBuffer) {
		w.counters.RejectWater++
		return nil, RejectWater
	}

	m := content.MeshHalfExtents(kind)
	radius := m.X
	if m.Z > radius {
		radius = m.Z
	}
	if scale > 0 {
		radius *= scale
	}
	if !w.grid.CanPlace(pos, kind, radius) {
		w.counters.RejectConflict++
		return nil, RejectConflict
	}

	if scale <= 0 {
		scale = 1
	}
	e := &Entity{
		ID:        w.newEntityID(),
		Kind:      kind,
		Pos:       pos,
		Yaw:       yaw,
		Scale:     scale,
		Palette:   palette,
		Dynamic:   content.IsDynamic(kind),
		SpawnTick: nowTick,
	}
	if e.Dynamic {
		// Dynamic bodies exist from birth and start disabled; the
		// activation window flips them on when the focus comes close.
		e.Body = &RigidBody{
			Disabled: true,
			Collider: content.ColliderHalfExtents(kind, w.cfg.Physics.MeshColliderRatio).Scale(scale),
			Mass:     defaultMass(kind, w.cfg.Physics),
		}
	}
	w.entities[e.ID] = e
	w.grid.Insert(e.ID, pos, kind, radius)

	// Chunk ownership: entities inside a Loading or Loaded slot belong
	// to it and die with it. Anything else is unowned until purged.
	c := w.chunks.CoordAt(pos)
	if ch := w.chunks.At(c); ch != nil &&
		(ch.State == chunkindex.Loading || ch.State == chunkindex.Loaded) {
		ch.Entities = append(ch.Entities, e.ID)
		e.Chunk = c
		e.HasChunk = true
	}

	w.initLOD(e, nowTick)
	w.counters.Spawned++
	w.notifySpawned(e, nowTick)
	return e, RejectNone
}

func defaultMass(kind content.Kind, p tuning.Physics) float64 {
	var m float64
	switch kind {
	case content.KindVehicle:
		m = 1200
	case content.KindNPC:
		m = 80
	default:
		m = 1
	}
	return geom.Clamp(m, p.MinMass, p.MaxMass)
}

// despawnEntity tears one entity down completely: render children
// first, then the placement footprint, population membership (via
// hooks), chunk ownership, and finally the arena slot.
func (w *World) despawnEntity(id string, nowTick uint64) bool {
	e := w.entities[id]
	if e == nil {
		return false
	}
	for _, childID := range e.ChildMeshes {
		delete(w.entities, childID)
	}
	e.ChildMeshes = nil

	w.grid.Remove(id)
	if e.HasChunk {
		if ch := w.chunks.At(e.Chunk); ch != nil {
			removeID(&ch.Entities, id)
		}
		e.HasChunk = false
	}
	if !e.RenderChild {
		w.notifyDespawned(e, nowTick)
	}
	delete(w.entities, id)
	w.counters.Despawned++
	return true
}

func removeID(ids *[]string, id string) {
	s := *ids
	for i := range s {
		if s[i] == id {
			s[i] = s[len(s)-1]
			*ids = s[:len(s)-1]
			return
		}
	}
}
