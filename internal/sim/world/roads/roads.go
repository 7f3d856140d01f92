package roads

import (
	"math"

	"openroam.dev/internal/sim/world/geom"
)

// RoadType selects width defaults and rendering hints.
type RoadType string

const (
	Highway RoadType = "HIGHWAY"
	Street  RoadType = "STREET"
	Dirt    RoadType = "DIRT"
)

const splineSamples = 20

// Road is one spline with a constant width.
type Road struct {
	ID            string
	Type          RoadType
	Width         float64
	ControlPoints []geom.Vec3

	// Sampled centerline, filled by finalize.
	samples []geom.Vec3
}

// Node is an intersection linking roads; the network is a graph with
// bidirectional adjacency.
type Node struct {
	ID    string
	Pos   geom.Vec3
	Roads []string
}

// Network is the queryable set of roads. Built once on the world
// thread; read-only afterwards.
type Network struct {
	roads map[string]*Road
	order []string

	nodes map[string]*Node
	adj   map[string][]string
}

func NewNetwork() *Network {
	return &Network{
		roads: map[string]*Road{},
		nodes: map[string]*Node{},
		adj:   map[string][]string{},
	}
}

func (n *Network) Add(r *Road) {
	if r == nil || len(r.ControlPoints) < 2 {
		return
	}
	if r.Width <= 0 {
		r.Width = defaultWidth(r.Type)
	}
	r.finalize()
	n.roads[r.ID] = r
	n.order = append(n.order, r.ID)
}

func defaultWidth(t RoadType) float64 {
	switch t {
	case Highway:
		return 16
	case Dirt:
		return 5
	default:
		return 8
	}
}

// AddNode registers an intersection and links its roads bidirectionally.
func (n *Network) AddNode(id string, pos geom.Vec3, roadIDs ...string) {
	node := &Node{ID: id, Pos: pos, Roads: append([]string(nil), roadIDs...)}
	n.nodes[id] = node
	for _, a := range roadIDs {
		for _, b := range roadIDs {
			if a == b {
				continue
			}
			n.connect(a, b)
		}
	}
}

func (n *Network) connect(a, b string) {
	for _, x := range n.adj[a] {
		if x == b {
			return
		}
	}
	n.adj[a] = append(n.adj[a], b)
}

// Neighbors returns road ids reachable from the given road through any
// shared intersection.
func (n *Network) Neighbors(roadID string) []string {
	return n.adj[roadID]
}

func (n *Network) Len() int { return len(n.roads) }

// finalize samples the Catmull-Rom spline through the control points.
func (r *Road) finalize() {
	pts := r.ControlPoints
	if len(pts) == 2 {
		// Straight segment: linear samples.
		r.samples = make([]geom.Vec3, 0, splineSamples+1)
		for i := 0; i <= splineSamples; i++ {
			t := float64(i) / splineSamples
			r.samples = append(r.samples, pts[0].Add(pts[1].Sub(pts[0]).Scale(t)))
		}
		return
	}
	perSpan := splineSamples / (len(pts) - 1)
	if perSpan < 4 {
		perSpan = 4
	}
	r.samples = r.samples[:0]
	for i := 0; i < len(pts)-1; i++ {
		p0 := pts[maxInt(i-1, 0)]
		p1 := pts[i]
		p2 := pts[i+1]
		p3 := pts[minInt(i+2, len(pts)-1)]
		for s := 0; s < perSpan; s++ {
			t := float64(s) / float64(perSpan)
			r.samples = append(r.samples, catmullRom(p0, p1, p2, p3, t))
		}
	}
	r.samples = append(r.samples, pts[len(pts)-1])
}

func catmullRom(p0, p1, p2, p3 geom.Vec3, t float64) geom.Vec3 {
	t2 := t * t
	t3 := t2 * t
	f := func(a0, a1, a2, a3 float64) float64 {
		return 0.5 * ((2 * a1) +
			(-a0+a2)*t +
			(2*a0-5*a1+4*a2-a3)*t2 +
			(-a0+3*a1-3*a2+a3)*t3)
	}
	return geom.Vec3{
		X: f(p0.X, p1.X, p2.X, p3.X),
		Y: f(p0.Y, p1.Y, p2.Y, p3.Y),
		Z: f(p0.Z, p1.Z, p2.Z, p3.Z),
	}
}

// distanceToRoad is the XZ distance from pos to the road centerline,
// approximated over the sampled polyline.
func (r *Road) distanceToRoad(pos geom.Vec3) float64 {
	best := math.Inf(1)
	for i := 0; i < len(r.samples)-1; i++ {
		d := pointSegmentDistanceXZ(pos, r.samples[i], r.samples[i+1])
		if d < best {
			best = d
		}
	}
	return best
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

// OnRoad reports whether pos lies within width/2+tolerance of any road
// centerline.
func (n *Network) OnRoad(pos geom.Vec3, tolerance float64) bool {
	for _, id := range n.order {
		r := n.roads[id]
		if r.distanceToRoad(pos) <= r.Width/2+tolerance {
			return true
		}
	}
	return false
}

// NearestRoadDistance returns the XZ distance to the closest road
// edge (negative values mean inside the road surface). Returns +Inf on
// an empty network.
func (n *Network) NearestRoadDistance(pos geom.Vec3) float64 {
	best := math.Inf(1)
	for _, id := range n.order {
		r := n.roads[id]
		d := r.distanceToRoad(pos) - r.Width/2
		if d < best {
			best = d
		}
	}
	return best
}

// Polyline is an owned copy of a road's sampled centerline, safe to
// hand to generation workers.
type Polyline struct {
	RoadID string
	Width  float64
	Points []geom.Vec3
}

// PolylinesNear returns owned copies of every road polyline that comes
// within reach of the axis-aligned square centered at center.
func (n *Network) PolylinesNear(center geom.Vec3, halfExtent float64) []Polyline {
	var out []Polyline
	for _, id := range n.order {
		r := n.roads[id]
		near := false
		for _, s := range r.samples {
			if math.Abs(s.X-center.X) <= halfExtent+r.Width &&
				math.Abs(s.Z-center.Z) <= halfExtent+r.Width {
				near = true
				break
			}
		}
		if !near {
			continue
		}
		out = append(out, Polyline{
			RoadID: r.ID,
			Width:  r.Width,
			Points: append([]geom.Vec3(nil), r.samples...),
		})
	}
	return out
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
