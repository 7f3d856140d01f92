package roads

import (
	"fmt"

	"openroam.dev/internal/sim/world/geom"
)

// DefaultNetwork lays out a deterministic street grid inside the world
// extent: north-south and east-west streets every blockSpacing meters,
// plus a highway ring at 80% of the extent. Spacing jitter comes from
// the seed so two seeds produce distinct but reproducible layouts.
func DefaultNetwork(seed int64, halfExtent float64) *Network {
	n := NewNetwork()
	const blockSpacing = 640.0

	lines := int(halfExtent*2/blockSpacing) - 1
	if lines < 1 {
		lines = 1
	}

	jitter := func(i int) float64 {
		// Up to +/-40m per line, deterministic.
		return float64(int(geom.Hash2(seed, i, 7919)%81)) - 40
	}

	var ns, ew []string
	for i := 0; i < lines; i++ {
		off := -halfExtent + blockSpacing*float64(i+1) + jitter(i)
		idNS := fmt.Sprintf("st_ns_%02d", i)
		n.Add(&Road{
			ID:   idNS,
			Type: Street,
			ControlPoints: []geom.Vec3{
				{X: off, Z: -halfExtent},
				{X: off, Z: halfExtent},
			},
		})
		ns = append(ns, idNS)

		idEW := fmt.Sprintf("st_ew_%02d", i)
		n.Add(&Road{
			ID:   idEW,
			Type: Street,
			ControlPoints: []geom.Vec3{
				{X: -halfExtent, Z: off},
				{X: halfExtent, Z: off},
			},
		})
		ew = append(ew, idEW)
	}

	// Grid intersections.
	for i, a := range ns {
		offX := -halfExtent + blockSpacing*float64(i+1) + jitter(i)
		for j, b := range ew {
			offZ := -halfExtent + blockSpacing*float64(j+1) + jitter(j)
			n.AddNode(fmt.Sprintf("x_%02d_%02d", i, j), geom.Vec3{X: offX, Z: offZ}, a, b)
		}
	}

	// Highway ring.
	r := halfExtent * 0.8
	ring := []geom.Vec3{
		{X: -r, Z: -r}, {X: r, Z: -r}, {X: r, Z: r}, {X: -r, Z: r}, {X: -r, Z: -r},
	}
	for i := 0; i < 4; i++ {
		n.Add(&Road{
			ID:            fmt.Sprintf("hwy_ring_%d", i),
			Type:          Highway,
			ControlPoints: []geom.Vec3{ring[i], ring[i+1]},
		})
	}
	for i := 0; i < 4; i++ {
		n.AddNode(fmt.Sprintf("hwy_x_%d", i), ring[i],
			fmt.Sprintf("hwy_ring_%d", i), fmt.Sprintf("hwy_ring_%d", (i+3)%4))
	}
	return n
}
