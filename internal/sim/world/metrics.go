package world

// Counters are monotonic since world start. Exposed through Metrics
// and logged per tick by the diagnostics sink.
type Counters struct {
	ChunksLoaded      uint64 `json:"chunks_loaded"`
	ChunksUnloaded    uint64 `json:"chunks_unloaded"`
	JobsDispatched    uint64 `json:"jobs_dispatched"`
	JobsFailed        uint64 `json:"jobs_failed"`
	StaleDiscarded    uint64 `json:"stale_discarded"`
	Spawned           uint64 `json:"spawned"`
	Despawned         uint64 `json:"despawned"`
	RejectPosition    uint64 `json:"reject_position"`
	RejectRoad        uint64 `json:"reject_road"`
	RejectWater       uint64 `json:"reject_water"`
	RejectConflict    uint64 `json:"reject_conflict"`
	CapEvictions      uint64 `json:"cap_evictions"`
	Purged            uint64 `json:"purged"`
	LODTransitions    uint64 `json:"lod_transitions"`
	StaticAttached    uint64 `json:"static_attached"`
	StaticDetached    uint64 `json:"static_detached"`
	DynamicEnabled    uint64 `json:"dynamic_enabled"`
	DynamicDisabled   uint64 `json:"dynamic_disabled"`
	NonFiniteRepairs  uint64 `json:"non_finite_repairs"`
	VelocityClamps    uint64 `json:"velocity_clamps"`
	EmergencyDisables uint64 `json:"emergency_disables"`
}

// QueueDepths samples the inbox channels at the end of a tick.
type QueueDepths struct {
	Focus     int `json:"focus"`
	Spawn     int `json:"spawn"`
	Completed int `json:"completed_queue"`
	Pending   int `json:"pending_jobs"`
}

// Metrics is the per-tick snapshot published for transport and the
// diagnostics log. Value-only; safe to hand across goroutines.
type Metrics struct {
	Tick     uint64 `json:"tick"`
	Entities int    `json:"entities"`

	LoadedChunks    int `json:"loaded_chunks"`
	LoadingChunks   int `json:"loading_chunks"`
	UnloadingChunks int `json:"unloading_chunks"`
	ActiveJobs      int `json:"active_jobs"`

	Population map[string]int `json:"population"`

	StepMS      float64     `json:"step_ms"`
	AvgStepMS   float64     `json:"avg_step_ms"`
	MaxStepMS   float64     `json:"max_step_ms"`
	QueueDepths QueueDepths `json:"queues"`
	Counters    Counters    `json:"counters"`
}

const statsWindow = 600

// stepStats is a ring of recent step durations for the rolling
// avg/max published in Metrics.
type stepStats struct {
	ring  [statsWindow]float64
	n     int
	next  int
	total float64
}

func (s *stepStats) observe(ms float64) {
	if s.n == statsWindow {
		s.total -= s.ring[s.next]
	} else {
		s.n++
	}
	s.ring[s.next] = ms
	s.total += ms
	s.next = (s.next + 1) % statsWindow
}

func (s *stepStats) avg() float64 {
	if s.n == 0 {
		return 0
	}
	return s.total / float64(s.n)
}

func (s *stepStats) max() float64 {
	m := 0.0
	for i := 0; i < s.n; i++ {
		if s.ring[i] > m {
			m = s.ring[i]
		}
	}
	return m
}
