package placement

import (
	"openroam.dev/internal/sim/world/content"
	"openroam.dev/internal/sim/world/geom"
)

// Grid is a uniform XZ spatial hash used to reject overlapping spawns.
// Cell size ~10m keeps every min-spacing query within a 9x9 cell scan.
type Grid struct {
	cellSize float64

	// Largest footprint radius ever inserted. Monotonic; only widens
	// the CanPlace scan so stale values stay safe after removals.
	maxRadius float64

	cells    map[cellKey][]Entry
	byEntity map[string]cellKey
}

type cellKey struct {
	X int
	Z int
}

// Entry is one placed entity footprint.
type Entry struct {
	EntityID string
	Pos      geom.Vec3
	Kind     content.Kind
	Radius   float64
}

func NewGrid(cellSize float64) *Grid {
	if cellSize <= 0 {
		cellSize = 10
	}
	return &Grid{
		cellSize: cellSize,
		cells:    map[cellKey][]Entry{},
		byEntity: map[string]cellKey{},
	}
}

func (g *Grid) keyFor(pos geom.Vec3) cellKey {
	return cellKey{
		X: geom.FloorCell(pos.X, g.cellSize),
		Z: geom.FloorCell(pos.Z, g.cellSize),
	}
}

// CanPlace reports whether an entity of the given kind and footprint
// radius can occupy pos without violating the per-kind spacing rule
// against any already-placed entity of the same kind.
func (g *Grid) CanPlace(pos geom.Vec3, kind content.Kind, radius float64) bool {
	minDist := content.MinSpacing(kind)
	// Buildings add both footprints plus a fixed safety margin. The
	// scan reach assumes the worst-case neighbor radius so a large
	// footprint in an outer cell is still compared.
	reach := minDist
	if kind == content.KindBuilding {
		reach = minDist + radius + g.maxRadius + content.PlacementSafetyBuffer
	}
	span := int(reach/g.cellSize) + 1
	center := g.keyFor(pos)
	for dz := -span; dz <= span; dz++ {
		for dx := -span; dx <= span; dx++ {
			for _, e := range g.cells[cellKey{X: center.X + dx, Z: center.Z + dz}] {
				if e.Kind != kind {
					continue
				}
				need := minDist
				if kind == content.KindBuilding {
					need = minDist + radius + e.Radius + content.PlacementSafetyBuffer
				}
				if geom.HorizontalDistanceSq(pos, e.Pos) < need*need {
					return false
				}
			}
		}
	}
	return true
}

// Insert records a placed entity. One entry per entity id.
func (g *Grid) Insert(id string, pos geom.Vec3, kind content.Kind, radius float64) {
	if id == "" {
		return
	}
	g.Remove(id)
	if radius > g.maxRadius {
		g.maxRadius = radius
	}
	k := g.keyFor(pos)
	g.cells[k] = append(g.cells[k], Entry{EntityID: id, Pos: pos, Kind: kind, Radius: radius})
	g.byEntity[id] = k
}

// Remove clears the entity's entry; despawn paths call this
// unconditionally.
func (g *Grid) Remove(id string) bool {
	k, ok := g.byEntity[id]
	if !ok {
		return false
	}
	entries := g.cells[k]
	for i := range entries {
		if entries[i].EntityID == id {
			entries[i] = entries[len(entries)-1]
			entries = entries[:len(entries)-1]
			break
		}
	}
	if len(entries) == 0 {
		delete(g.cells, k)
	} else {
		g.cells[k] = entries
	}
	delete(g.byEntity, id)
	return true
}

func (g *Grid) Contains(id string) bool {
	_, ok := g.byEntity[id]
	return ok
}

func (g *Grid) Len() int { return len(g.byEntity) }
