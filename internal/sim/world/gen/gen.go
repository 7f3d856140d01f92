// Package gen produces chunk blueprints off the world thread. Jobs
// carry owned copies of everything they need; workers never read or
// write world state.
package gen

import (
	"openroam.dev/internal/sim/world/chunkindex"
	"openroam.dev/internal/sim/world/content"
	"openroam.dev/internal/sim/world/geom"
	"openroam.dev/internal/sim/world/roads"
)

// Job is the owned input handed to a worker.
type Job struct {
	Coord        chunkindex.Coord
	ChunkSize    float64
	GenerationID uint32
	Seed         int64

	// Owned copies; safe to read from the worker goroutine.
	Roads []roads.Polyline
	Lake  LakeDisc
}

// LakeDisc is the circular water region copied into each job.
type LakeDisc struct {
	Center geom.Vec3
	Radius float64
}

func (l LakeDisc) Contains(pos geom.Vec3, buffer float64) bool {
	if l.Radius <= 0 {
		return false
	}
	r := l.Radius + buffer
	return geom.HorizontalDistanceSq(pos, l.Center) <= r*r
}

// EntityBlueprint is a value-only description of one entity to spawn.
type EntityBlueprint struct {
	Pos         geom.Vec3
	Kind        content.Kind
	Scale       float64
	Yaw         float64
	PaletteHint uint8
}

// ChunkBlueprint is the owned worker output. Success=false means the
// job failed (panic included) and the chunk should be retried.
type ChunkBlueprint struct {
	Coord             chunkindex.Coord
	GenerationID      uint32
	Entities          []EntityBlueprint
	Success           bool
	GenerationSeconds float64
}
