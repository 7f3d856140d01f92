package gen

import (
	"math"

	"openroam.dev/internal/sim/world/content"
	"openroam.dev/internal/sim/world/geom"
	"openroam.dev/internal/sim/world/roads"
)

// Per-kind hash salts keep the placement lattices independent.
const (
	saltBuilding = 101
	saltTree     = 202
	saltVehicle  = 303
	saltNPC      = 404
	saltDetail   = 505
)

// Generate is the pure chunk generator: same job in, same blueprint
// out. It proposes candidates only; the spawn pipeline revalidates
// everything against live world state on application.
func Generate(job Job) ChunkBlueprint {
	bp := ChunkBlueprint{
		Coord:        job.Coord,
		GenerationID: job.GenerationID,
		Success:      true,
	}

	originX := float64(job.Coord.X) * job.ChunkSize
	originZ := float64(job.Coord.Z) * job.ChunkSize

	// Buildings: coarse lattice, one candidate per 40m cell that wins
	// its hash roll and sits clear of roads and water.
	bp.Entities = append(bp.Entities, latticeCandidates(job, originX, originZ, 40, saltBuilding, 250, content.KindBuilding)...)

	// Trees: denser lattice, clustered by a second hash octave.
	bp.Entities = append(bp.Entities, latticeCandidates(job, originX, originZ, 16, saltTree, 180, content.KindTree)...)

	// Vehicles: sampled along the road centerlines crossing the chunk.
	bp.Entities = append(bp.Entities, roadVehicles(job, originX, originZ)...)

	// NPCs: rare, near building candidates.
	bp.Entities = append(bp.Entities, sidewalkNPCs(job, bp.Entities)...)

	return bp
}

func latticeCandidates(job Job, originX, originZ, cell float64, salt int64, probPermille uint64, kind content.Kind) []EntityBlueprint {
	var out []EntityBlueprint
	steps := int(job.ChunkSize / cell)
	for gz := 0; gz < steps; gz++ {
		for gx := 0; gx < steps; gx++ {
			cx := originX + (float64(gx)+0.5)*cell
			cz := originZ + (float64(gz)+0.5)*cell
			h := geom.Hash2(job.Seed+salt, int(cx), int(cz))
			if h%1000 >= probPermille {
				continue
			}
			// Deterministic offset inside the cell.
			ox := (float64((h>>10)%64)/64 - 0.5) * cell * 0.6
			oz := (float64((h>>16)%64)/64 - 0.5) * cell * 0.6
			pos := geom.Vec3{X: cx + ox, Z: cz + oz}

			if rule, ok := content.RoadRule(kind); ok && !rule.Want {
				if nearRoad(job.Roads, pos, rule.Tolerance) {
					continue
				}
			}
			if content.RejectsWater(kind) && job.Lake.Contains(pos, 10) {
				continue
			}
			out = append(out, EntityBlueprint{
				Pos:         pos,
				Kind:        kind,
				Scale:       0.8 + float64((h>>22)%41)/100, // 0.8..1.2
				Yaw:         float64((h>>28)%360) * math.Pi / 180,
				PaletteHint: uint8(h >> 40),
			})
		}
	}
	return out
}

func roadVehicles(job Job, originX, originZ float64) []EntityBlueprint {
	var out []EntityBlueprint
	for _, pl := range job.Roads {
		for i, p := range pl.Points {
			if p.X < originX || p.X >= originX+job.ChunkSize ||
				p.Z < originZ || p.Z >= originZ+job.ChunkSize {
				continue
			}
			h := geom.Hash3(job.Seed+saltVehicle, int(p.X), i, int(p.Z))
			if h%1000 >= 60 { // sparse traffic
				continue
			}
			if job.Lake.Contains(p, 10) {
				continue
			}
			yaw := 0.0
			if i+1 < len(pl.Points) {
				d := pl.Points[i+1].Sub(p)
				yaw = math.Atan2(d.X, d.Z)
			}
			out = append(out, EntityBlueprint{
				Pos:         p,
				Kind:        content.KindVehicle,
				Scale:       1,
				Yaw:         yaw,
				PaletteHint: uint8(h >> 32),
			})
		}
	}
	return out
}

func sidewalkNPCs(job Job, sofar []EntityBlueprint) []EntityBlueprint {
	var out []EntityBlueprint
	for _, e := range sofar {
		if e.Kind != content.KindBuilding {
			continue
		}
		h := geom.Hash2(job.Seed+saltNPC, int(e.Pos.X), int(e.Pos.Z))
		if h%1000 >= 120 {
			continue
		}
		off := geom.Vec3{
			X: float64((h>>8)%21) - 10,
			Z: float64((h>>16)%21) - 10,
		}
		pos := e.Pos.Add(off)
		if job.Lake.Contains(pos, 10) {
			continue
		}
		out = append(out, EntityBlueprint{
			Pos:         pos,
			Kind:        content.KindNPC,
			Scale:       1,
			Yaw:         float64((h>>24)%360) * math.Pi / 180,
			PaletteHint: uint8(h >> 40),
		})
	}
	return out
}

func nearRoad(lines []roads.Polyline, pos geom.Vec3, tolerance float64) bool {
	for _, pl := range lines {
		half := pl.Width/2 + tolerance
		for i := 0; i < len(pl.Points)-1; i++ {
			if pointSegmentDistanceXZ(pos, pl.Points[i], pl.Points[i+1]) <= half {
				return true
			}
		}
	}
	return false
}

func pointSegmentDistanceXZ(p, a, b geom.Vec3) float64 {
	abx := b.X - a.X
	abz := b.Z - a.Z
	l2 := abx*abx + abz*abz
	if l2 == 0 {
		return geom.HorizontalDistance(p, a)
	}
	t := ((p.X-a.X)*abx + (p.Z-a.Z)*abz) / l2
	t = geom.Clamp(t, 0, 1)
	c := geom.Vec3{X: a.X + t*abx, Z: a.Z + t*abz}
	return geom.HorizontalDistance(p, c)
}
