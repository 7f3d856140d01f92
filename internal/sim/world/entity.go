package world

import (
	"openroam.dev/internal/sim/world/chunkindex"
	"openroam.dev/internal/sim/world/content"
	"openroam.dev/internal/sim/world/geom"
)

// LODTier orders representations coarse-ward; comparisons rely on the
// numeric order.
type LODTier uint8

const (
	LODFull LODTier = iota
	LODMedium
	LODLow
	LODStateOnly
)

func (t LODTier) String() string {
	switch t {
	case LODFull:
		return "FULL"
	case LODMedium:
		return "MEDIUM"
	case LODLow:
		return "LOW"
	case LODStateOnly:
		return "STATE_ONLY"
	}
	return "INVALID"
}

// RigidBody is attached and detached by the physics activation window.
type RigidBody struct {
	Fixed    bool
	Disabled bool
	Collider geom.Vec3 // half extents
	Mass     float64

	Vel    geom.Vec3
	AngVel geom.Vec3
}

// Entity is one world object. The entity set is an arena keyed by
// stable string ids; chunks and registries hold ids only.
type Entity struct {
	ID      string
	Kind    content.Kind
	Pos     geom.Vec3
	Yaw     float64
	Scale   float64
	Palette uint8

	// Dynamic marks content that participates in lifecycle events and
	// the dynamic physics window (vehicles, NPCs).
	Dynamic bool

	SpawnTick uint64

	// Chunk ownership; direct spawns outside any loaded chunk are
	// unowned and live until evicted or explicitly despawned.
	Chunk    chunkindex.Coord
	HasChunk bool

	Body *RigidBody // nil while detached

	// Render representation.
	CurrentLOD    LODTier
	ChildMeshes   []string
	nextLODCheck  uint64

	// RenderChild entities are LOD mesh parts: never in the placement
	// grid, populations, or chunk ownership lists.
	RenderChild bool
	ParentID    string

	safetyWarned bool
}
