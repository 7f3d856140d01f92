package world

import (
	"openroam.dev/internal/sim/world/chunkindex"
	"openroam.dev/internal/sim/world/content"
	"openroam.dev/internal/sim/world/geom"
)

type EventType string

const (
	EventEntitySpawned   EventType = "ENTITY_SPAWNED"
	EventEntityDespawned EventType = "ENTITY_DESPAWNED"
	EventChunkLoaded     EventType = "CHUNK_LOADED"
	EventChunkUnloaded   EventType = "CHUNK_UNLOADED"
)

// Event is one lifecycle notification. Spawn/despawn events carry the
// entity fields; chunk events carry the coordinate.
type Event struct {
	Tick uint64    `json:"t"`
	Type EventType `json:"type"`

	EntityID string       `json:"entity_id,omitempty"`
	Kind     content.Kind `json:"kind,omitempty"`
	Pos      *geom.Vec3   `json:"pos,omitempty"`

	Chunk *chunkindex.Coord `json:"chunk,omitempty"`
}

// SpawnHook runs synchronously on the world thread when an entity of
// the subscribed kind spawns or despawns. Hooks must not spawn or
// despawn re-entrantly.
type SpawnHook func(*Entity)

// RegisterSpawnHook subscribes to lifecycle of one kind. World-thread
// only; New wires the built-in subscribers before Run starts.
func (w *World) RegisterSpawnHook(kind content.Kind, onSpawn, onDespawn SpawnHook) {
	if onSpawn != nil {
		w.spawnHooks[kind] = append(w.spawnHooks[kind], onSpawn)
	}
	if onDespawn != nil {
		w.despawnHooks[kind] = append(w.despawnHooks[kind], onDespawn)
	}
}

func (w *World) notifySpawned(e *Entity, nowTick uint64) {
	for _, h := range w.spawnHooks[e.Kind] {
		h(e)
	}
	pos := e.Pos
	w.eventsThisTick = append(w.eventsThisTick, Event{
		Tick: nowTick, Type: EventEntitySpawned,
		EntityID: e.ID, Kind: e.Kind, Pos: &pos,
	})
}

func (w *World) notifyDespawned(e *Entity, nowTick uint64) {
	for _, h := range w.despawnHooks[e.Kind] {
		h(e)
	}
	pos := e.Pos
	w.eventsThisTick = append(w.eventsThisTick, Event{
		Tick: nowTick, Type: EventEntityDespawned,
		EntityID: e.ID, Kind: e.Kind, Pos: &pos,
	})
}

func (w *World) noteChunkEvent(t EventType, c chunkindex.Coord, nowTick uint64) {
	coord := c
	w.eventsThisTick = append(w.eventsThisTick, Event{Tick: nowTick, Type: t, Chunk: &coord})
}
