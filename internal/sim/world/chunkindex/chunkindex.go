package chunkindex

import (
	"openroam.dev/internal/sim/world/geom"
)

// State is the chunk streaming state machine. A slot only ever moves
// Unloaded -> Loading -> Loaded -> Unloading -> Unloaded; Loading is
// never demoted directly (stale async results are discarded by
// generation id instead).
type State uint8

const (
	Unloaded State = iota
	Loading
	Loaded
	Unloading
)

func (s State) String() string {
	switch s {
	case Unloaded:
		return "UNLOADED"
	case Loading:
		return "LOADING"
	case Loaded:
		return "LOADED"
	case Unloading:
		return "UNLOADING"
	}
	return "INVALID"
}

// Coord is a signed chunk coordinate.
type Coord struct {
	X int32
	Z int32
}

// Chunk is one streaming slot. All fields are owned by the world loop.
type Chunk struct {
	Coord        Coord
	State        State
	LODLevel     uint8  // meaningful only when State == Loaded
	GenerationID uint32 // strictly monotonic per slot

	Entities []string // owned entity ids, despawned on unload

	LastUpdateTick  uint64
	DistanceToFocus float64

	// Monotonic once the chunk reaches Loaded.
	BuildingsGenerated  bool
	VegetationGenerated bool
	VehiclesGenerated   bool
}

// Index is a fixed 2D array of chunk slots centered on the origin.
// Coordinates outside the configured extent do not exist.
type Index struct {
	chunkSize float64
	countX    int
	countZ    int
	minX      int32
	minZ      int32

	slots []Chunk
}

func New(chunkSize float64, countX, countZ int) *Index {
	idx := &Index{
		chunkSize: chunkSize,
		countX:    countX,
		countZ:    countZ,
		minX:      int32(-countX / 2),
		minZ:      int32(-countZ / 2),
		slots:     make([]Chunk, countX*countZ),
	}
	for z := 0; z < countZ; z++ {
		for x := 0; x < countX; x++ {
			c := &idx.slots[x+z*countX]
			c.Coord = Coord{X: idx.minX + int32(x), Z: idx.minZ + int32(z)}
		}
	}
	return idx
}

func (idx *Index) ChunkSize() float64 { return idx.chunkSize }

func (idx *Index) InBounds(c Coord) bool {
	return c.X >= idx.minX && c.X < idx.minX+int32(idx.countX) &&
		c.Z >= idx.minZ && c.Z < idx.minZ+int32(idx.countZ)
}

// At returns the slot for c, or nil when c is outside the map.
func (idx *Index) At(c Coord) *Chunk {
	if !idx.InBounds(c) {
		return nil
	}
	x := int(c.X - idx.minX)
	z := int(c.Z - idx.minZ)
	return &idx.slots[x+z*idx.countX]
}

// All iterates every slot in row-major order.
func (idx *Index) All(fn func(*Chunk)) {
	for i := range idx.slots {
		fn(&idx.slots[i])
	}
}

// WorldCenter returns the world position of the chunk's center.
func (idx *Index) WorldCenter(c Coord) geom.Vec3 {
	half := idx.chunkSize / 2
	return geom.Vec3{
		X: float64(c.X)*idx.chunkSize + half,
		Z: float64(c.Z)*idx.chunkSize + half,
	}
}

// CoordAt maps a world position to its containing chunk coordinate.
// The coordinate may be out of bounds; callers check At.
func (idx *Index) CoordAt(pos geom.Vec3) Coord {
	return Coord{
		X: int32(geom.FloorCell(pos.X, idx.chunkSize)),
		Z: int32(geom.FloorCell(pos.Z, idx.chunkSize)),
	}
}

// BeginLoading moves an Unloaded slot to Loading and advances its
// generation id. Returns the new generation, or false when the slot is
// not eligible.
func (idx *Index) BeginLoading(c Coord, nowTick uint64) (uint32, bool) {
	ch := idx.At(c)
	if ch == nil || ch.State != Unloaded {
		return 0, false
	}
	ch.State = Loading
	ch.GenerationID++
	ch.LastUpdateTick = nowTick
	return ch.GenerationID, true
}

// CountByState tallies slots per state for diagnostics.
func (idx *Index) CountByState() map[string]int {
	out := map[string]int{
		Unloaded.String():  0,
		Loading.String():   0,
		Loaded.String():    0,
		Unloading.String(): 0,
	}
	for i := range idx.slots {
		out[idx.slots[i].State.String()]++
	}
	return out
}

// LoadedCount is a cheap helper for tests and metrics.
func (idx *Index) LoadedCount() int {
	n := 0
	for i := range idx.slots {
		if idx.slots[i].State == Loaded {
			n++
		}
	}
	return n
}
