package protocol

const (
	// Protocol/transport validation.
	ErrProtoBadRequest = "E_PROTO_BAD_REQUEST"

	// Spawn pipeline rejections.
	ErrSpawnKind     = "E_SPAWN_KIND"
	ErrSpawnPosition = "E_SPAWN_POSITION"
	ErrSpawnRoad     = "E_SPAWN_ROAD"
	ErrSpawnWater    = "E_SPAWN_WATER"
	ErrSpawnConflict = "E_SPAWN_CONFLICT"

	// Server-side backpressure.
	ErrQueueFull = "E_QUEUE_FULL"
	ErrInternal  = "E_INTERNAL"
)

var knownCodes = map[string]struct{}{
	ErrProtoBadRequest: {},
	ErrSpawnKind:       {},
	ErrSpawnPosition:   {},
	ErrSpawnRoad:       {},
	ErrSpawnWater:      {},
	ErrSpawnConflict:   {},
	ErrQueueFull:       {},
	ErrInternal:        {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}
