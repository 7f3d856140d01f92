package content

import "openroam.dev/internal/sim/world/geom"

// Kind is the closed set of content categories the core spawns and
// tracks. Rules (spacing, road affinity, physics) switch on it.
type Kind string

const (
	KindBuilding Kind = "BUILDING"
	KindVehicle  Kind = "VEHICLE"
	KindNPC      Kind = "NPC"
	KindTree     Kind = "TREE"
	KindParticle Kind = "PARTICLE_EFFECT"
	KindRoad     Kind = "ROAD"
)

// PlacementSafetyBuffer is added on top of the per-kind minimum center
// distance for buildings.
const PlacementSafetyBuffer = 2.0

// MinSpacing is the minimum center distance between two entities of
// the same kind, in meters.
func MinSpacing(k Kind) float64 {
	switch k {
	case KindBuilding:
		return 35
	case KindVehicle:
		return 25
	case KindTree:
		return 10
	case KindNPC:
		return 5
	default:
		return 15
	}
}

// IsDynamic reports whether entities of this kind carry a dynamic
// rigid body (and therefore participate in the dynamic physics window).
func IsDynamic(k Kind) bool {
	return k == KindVehicle || k == KindNPC
}

// IsStatic reports whether the kind uses a fixed body attached and
// detached by the static physics window.
func IsStatic(k Kind) bool {
	return k == KindBuilding
}

// HasLOD reports whether the kind swaps render representations by
// distance.
func HasLOD(k Kind) bool {
	switch k {
	case KindBuilding, KindVehicle, KindNPC, KindTree:
		return true
	}
	return false
}

// MeshHalfExtents is the visual bounding half-extent per kind at full
// detail, in meters. Collider extents derive from it via the
// mesh-collider ratio.
func MeshHalfExtents(k Kind) geom.Vec3 {
	switch k {
	case KindBuilding:
		return geom.Vec3{X: 8, Y: 12, Z: 8}
	case KindVehicle:
		return geom.Vec3{X: 1.1, Y: 0.8, Z: 2.4}
	case KindNPC:
		return geom.Vec3{X: 0.4, Y: 0.9, Z: 0.4}
	case KindTree:
		return geom.Vec3{X: 1.5, Y: 5, Z: 1.5}
	default:
		return geom.Vec3{X: 0.5, Y: 0.5, Z: 0.5}
	}
}

// ColliderHalfExtents scales the mesh extents by the configured
// mesh-collider ratio (arcade-forgiving collision).
func ColliderHalfExtents(k Kind, ratio float64) geom.Vec3 {
	m := MeshHalfExtents(k)
	return geom.Vec3{X: m.X * ratio, Y: m.Y * ratio, Z: m.Z * ratio}
}

// RoadAffinity describes the road rule applied in the spawn pipeline.
// Want means the kind must have a road within Tolerance meters; when
// Want is false the kind must NOT be on a road within Tolerance.
type RoadAffinity struct {
	Want      bool
	Tolerance float64
}

func RoadRule(k Kind) (RoadAffinity, bool) {
	switch k {
	case KindVehicle:
		return RoadAffinity{Want: true, Tolerance: 8}, true
	case KindBuilding:
		return RoadAffinity{Want: false, Tolerance: 25}, true
	case KindTree:
		return RoadAffinity{Want: false, Tolerance: 15}, true
	}
	return RoadAffinity{}, false
}

// RejectsWater reports whether the kind cannot spawn inside the lake
// area. Boats are not modeled; all vehicles reject water.
func RejectsWater(k Kind) bool {
	switch k {
	case KindBuilding, KindTree, KindNPC, KindVehicle:
		return true
	}
	return false
}
