package protocol

// Vec3 mirrors the world-space vector on the wire.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// HELLO (client -> server)
type HelloMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ClientName      string `json:"client_name,omitempty"`
}

// WELCOME (server -> client)
type WelcomeMsg struct {
	Type            string      `json:"type"`
	ProtocolVersion string      `json:"protocol_version"`
	SessionID       string      `json:"session_id"`
	WorldParams     WorldParams `json:"world_params"`
}

type WorldParams struct {
	TickRateHz      int     `json:"tick_rate_hz"`
	StreamingHz     int     `json:"streaming_hz"`
	ChunkSize       float64 `json:"chunk_size"`
	TotalChunksX    int     `json:"total_chunks_x"`
	TotalChunksZ    int     `json:"total_chunks_z"`
	StreamingRadius float64 `json:"streaming_radius"`
	Seed            int64   `json:"seed"`
}

// FOCUS (client -> server): reposition the streaming focus. EntityID
// optionally binds the focus to an entity the physics window must keep
// live.
type FocusMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Pos             Vec3   `json:"pos"`
	EntityID        string `json:"entity_id,omitempty"`
}

// SPAWN (client -> server): request one entity at a position. ReqID is
// echoed back on the result.
type SpawnMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ReqID           string `json:"req_id"`
	Kind            string `json:"kind"`
	Pos             Vec3   `json:"pos"`
}

// SPAWN_RESULT (server -> client)
type SpawnResultMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ReqID           string `json:"req_id"`
	EntityID        string `json:"entity_id,omitempty"`
	Code            string `json:"code,omitempty"`
	Message         string `json:"message,omitempty"`
}
