package tuning

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Tuning is the validated runtime configuration. Load clamps every
// numeric field into its sane range; Validate rejects mutually
// inconsistent invariants and is fatal at startup.
type Tuning struct {
	TickRateHz  int   `yaml:"tick_rate_hz"`
	StreamingHz int   `yaml:"streaming_hz"`
	Seed        int64 `yaml:"seed"`

	Physics    Physics    `yaml:"physics"`
	World      World      `yaml:"world"`
	Population Population `yaml:"population"`
	Async      Async      `yaml:"async"`
	PhysWindow PhysWindow `yaml:"physics_window"`
	LOD        LOD        `yaml:"lod"`
}

type Physics struct {
	MaxWorldCoord         float64 `yaml:"max_world_coord"`
	MinWorldCoord         float64 `yaml:"min_world_coord"`
	MaxVelocity           float64 `yaml:"max_velocity"`
	MaxAngularVelocity    float64 `yaml:"max_angular_velocity"`
	MaxMass               float64 `yaml:"max_mass"`
	MinMass               float64 `yaml:"min_mass"`
	EmergencyDisableCoord float64 `yaml:"emergency_disable_coord"`
	MeshColliderRatio     float64 `yaml:"mesh_collider_ratio"`
}

type World struct {
	ChunkSize           float64    `yaml:"chunk_size"`
	TotalChunksX        int        `yaml:"total_chunks_x"`
	TotalChunksZ        int        `yaml:"total_chunks_z"`
	StreamingRadius     float64    `yaml:"streaming_radius"`
	StreamingHysteresis float64    `yaml:"streaming_hysteresis"`
	MaxChunksPerTick    int        `yaml:"max_chunks_per_tick"`
	LODDistances        []float64  `yaml:"lod_distances"`
	LakePosition        [2]float64 `yaml:"lake_position"`
	LakeSize            float64    `yaml:"lake_size"`
	LakeDepth           float64    `yaml:"lake_depth"`
}

type Population struct {
	MaxBuildings int `yaml:"max_buildings"`
	MaxVehicles  int `yaml:"max_vehicles"`
	MaxNPCs      int `yaml:"max_npcs"`
	MaxTrees     int `yaml:"max_trees"`
	EnforceHz    int `yaml:"enforce_hz"`
	PurgeEveryS  int `yaml:"purge_every_s"`
}

type Async struct {
	MaxConcurrentTasks   int `yaml:"max_concurrent_tasks"`
	MaxCompletedPerFrame int `yaml:"max_completed_per_frame"`
}

type PhysWindow struct {
	StaticEnableRadius     float64 `yaml:"static_enable_radius"`
	StaticDisableRadius    float64 `yaml:"static_disable_radius"`
	DynamicEnableRadius    float64 `yaml:"dynamic_enable_radius"`
	DynamicDisableRadius   float64 `yaml:"dynamic_disable_radius"`
	HysteresisBuffer       float64 `yaml:"hysteresis_buffer"`
	MaxStaticActivations   int     `yaml:"max_static_activations"`
	MaxStaticDeactivations int     `yaml:"max_static_deactivations"`
	MaxDynamicTransitions  int     `yaml:"max_dynamic_transitions"`
}

type LOD struct {
	CheckIntervalS        float64 `yaml:"check_interval_s"`
	Hysteresis            float64 `yaml:"hysteresis"`
	MaxTransitionsPerTick int     `yaml:"max_transitions_per_tick"`
}

func Defaults() Tuning {
	return Tuning{
		TickRateHz:  60,
		StreamingHz: 10,
		Seed:        1337,
		Physics: Physics{
			MaxWorldCoord:         10000,
			MinWorldCoord:         -10000,
			MaxVelocity:           500,
			MaxAngularVelocity:    50,
			MaxMass:               100000,
			MinMass:               0.1,
			EmergencyDisableCoord: 100000,
			MeshColliderRatio:     0.8,
		},
		World: World{
			ChunkSize:           128,
			TotalChunksX:        94,
			TotalChunksZ:        94,
			StreamingRadius:     800,
			StreamingHysteresis: 64,
			MaxChunksPerTick:    4,
			LODDistances:        []float64{150, 300, 500},
			LakePosition:        [2]float64{2000, -1500},
			LakeSize:            200,
			LakeDepth:           5,
		},
		Population: Population{
			MaxBuildings: 80,
			MaxVehicles:  20,
			MaxNPCs:      40,
			MaxTrees:     100,
			EnforceHz:    1,
			PurgeEveryS:  30,
		},
		Async: Async{
			MaxConcurrentTasks:   3,
			MaxCompletedPerFrame: 2,
		},
		PhysWindow: PhysWindow{
			StaticEnableRadius:     200,
			StaticDisableRadius:    250,
			DynamicEnableRadius:    150,
			DynamicDisableRadius:   200,
			HysteresisBuffer:       5,
			MaxStaticActivations:   100,
			MaxStaticDeactivations: 200,
			MaxDynamicTransitions:  25,
		},
		LOD: LOD{
			CheckIntervalS:        0.1,
			Hysteresis:            5,
			MaxTransitionsPerTick: 8,
		},
	}
}

// ClampNote records one out-of-range field replaced with its clamped value.
type ClampNote struct {
	Field string
	Was   float64
	Now   float64
}

func Load(path string) (Tuning, []ClampNote, error) {
	t := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, nil, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, nil, fmt.Errorf("tuning.yaml: %w", err)
	}
	notes := t.Clamp()
	if err := t.Validate(); err != nil {
		return t, notes, err
	}
	return t, notes, nil
}

// Clamp replaces out-of-range numeric fields with the nearest sane
// value and returns a note per replacement so callers can log them.
func (t *Tuning) Clamp() []ClampNote {
	var notes []ClampNote
	ci := func(field string, v *int, lo, hi int) {
		was := *v
		if *v < lo {
			*v = lo
		}
		if *v > hi {
			*v = hi
		}
		if *v != was {
			notes = append(notes, ClampNote{Field: field, Was: float64(was), Now: float64(*v)})
		}
	}
	cf := func(field string, v *float64, lo, hi float64) {
		was := *v
		if *v < lo {
			*v = lo
		}
		if *v > hi {
			*v = hi
		}
		if *v != was {
			notes = append(notes, ClampNote{Field: field, Was: was, Now: *v})
		}
	}

	ci("tick_rate_hz", &t.TickRateHz, 10, 240)
	ci("streaming_hz", &t.StreamingHz, 1, t.TickRateHz)

	cf("physics.max_velocity", &t.Physics.MaxVelocity, 1, 10000)
	cf("physics.max_angular_velocity", &t.Physics.MaxAngularVelocity, 1, 1000)
	cf("physics.emergency_disable_coord", &t.Physics.EmergencyDisableCoord, 1000, 10_000_000)

	cf("world.chunk_size", &t.World.ChunkSize, 16, 1024)
	ci("world.total_chunks_x", &t.World.TotalChunksX, 1, 512)
	ci("world.total_chunks_z", &t.World.TotalChunksZ, 1, 512)
	cf("world.streaming_radius", &t.World.StreamingRadius, t.World.ChunkSize, 5000)
	cf("world.streaming_hysteresis", &t.World.StreamingHysteresis, 0, t.World.StreamingRadius)
	ci("world.max_chunks_per_tick", &t.World.MaxChunksPerTick, 1, 64)
	cf("world.lake_size", &t.World.LakeSize, 0, 5000)
	cf("world.lake_depth", &t.World.LakeDepth, 0, 100)

	ci("population.max_buildings", &t.Population.MaxBuildings, 1, 2000)
	ci("population.max_vehicles", &t.Population.MaxVehicles, 1, 500)
	ci("population.max_npcs", &t.Population.MaxNPCs, 2, 150)
	ci("population.max_trees", &t.Population.MaxTrees, 1, 5000)
	ci("population.enforce_hz", &t.Population.EnforceHz, 1, t.TickRateHz)
	ci("population.purge_every_s", &t.Population.PurgeEveryS, 5, 600)

	ci("async.max_concurrent_tasks", &t.Async.MaxConcurrentTasks, 1, 16)
	ci("async.max_completed_per_frame", &t.Async.MaxCompletedPerFrame, 1, 16)

	cf("physics_window.hysteresis_buffer", &t.PhysWindow.HysteresisBuffer, 0, 100)
	ci("physics_window.max_static_activations", &t.PhysWindow.MaxStaticActivations, 1, 10000)
	ci("physics_window.max_static_deactivations", &t.PhysWindow.MaxStaticDeactivations, 1, 10000)
	ci("physics_window.max_dynamic_transitions", &t.PhysWindow.MaxDynamicTransitions, 1, 1000)

	cf("lod.check_interval_s", &t.LOD.CheckIntervalS, 0.02, 10)
	cf("lod.hysteresis", &t.LOD.Hysteresis, 0, 50)
	ci("lod.max_transitions_per_tick", &t.LOD.MaxTransitionsPerTick, 1, 256)

	return notes
}

// Validate rejects configurations whose invariants contradict each
// other. These are startup-fatal; Clamp cannot repair them.
func (t *Tuning) Validate() error {
	if t.Physics.MinMass > t.Physics.MaxMass {
		return fmt.Errorf("physics: min_mass %g > max_mass %g", t.Physics.MinMass, t.Physics.MaxMass)
	}
	if t.Physics.MinWorldCoord >= t.Physics.MaxWorldCoord {
		return fmt.Errorf("physics: min_world_coord %g >= max_world_coord %g", t.Physics.MinWorldCoord, t.Physics.MaxWorldCoord)
	}
	if t.PhysWindow.StaticDisableRadius <= t.PhysWindow.StaticEnableRadius {
		return fmt.Errorf("physics_window: static_disable_radius %g <= static_enable_radius %g",
			t.PhysWindow.StaticDisableRadius, t.PhysWindow.StaticEnableRadius)
	}
	if t.PhysWindow.DynamicDisableRadius <= t.PhysWindow.DynamicEnableRadius {
		return fmt.Errorf("physics_window: dynamic_disable_radius %g <= dynamic_enable_radius %g",
			t.PhysWindow.DynamicDisableRadius, t.PhysWindow.DynamicEnableRadius)
	}
	if r := t.Physics.MeshColliderRatio; r < 0.7 || r > 0.9 {
		return fmt.Errorf("physics: mesh_collider_ratio %g outside [0.7, 0.9]", r)
	}
	if len(t.World.LODDistances) != 3 {
		return fmt.Errorf("world: lod_distances must have 3 entries, got %d", len(t.World.LODDistances))
	}
	for i := 1; i < len(t.World.LODDistances); i++ {
		if t.World.LODDistances[i] <= t.World.LODDistances[i-1] {
			return fmt.Errorf("world: lod_distances must be strictly increasing")
		}
	}
	return nil
}
