// roamctl is the interactive harness for a running server: it drives
// the streaming focus along a path, fires spawn requests, and prints
// the tick frames the world publishes.
package main

import (
	"encoding/json"
	"flag"
	"log"
	"math"
	"os"
	"os/signal"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"openroam.dev/internal/protocol"
)

func main() {
	var (
		url    = flag.String("url", "ws://localhost:8080/v1/ws", "ws url")
		name   = flag.String("name", "roamctl", "client name")
		mode   = flag.String("mode", "watch", "watch | orbit | spawn")
		radius = flag.Float64("radius", 600, "orbit radius in meters")
		speed  = flag.Float64("speed", 30, "orbit speed in m/s")
		kind   = flag.String("kind", "VEHICLE", "entity kind for -mode spawn")
		x      = flag.Float64("x", 0, "spawn/focus x")
		z      = flag.Float64("z", 0, "spawn/focus z")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[roamctl] ", log.LstdFlags|log.Lmicroseconds)
	conn, _, err := websocket.DefaultDialer.Dial(*url, nil)
	if err != nil {
		logger.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	hello := protocol.HelloMsg{
		Type:            protocol.TypeHello,
		ProtocolVersion: protocol.Version,
		ClientName:      *name,
	}
	if err := conn.WriteJSON(hello); err != nil {
		logger.Fatalf("send HELLO: %v", err)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)

	switch *mode {
	case "orbit":
		go orbitFocus(conn, logger, *radius, *speed, stop)
	case "spawn":
		go func() {
			// Focus first so the target area streams in before the
			// request lands.
			sendFocus(conn, *x, *z)
			time.Sleep(2 * time.Second)
			sendSpawn(conn, logger, *kind, *x, *z)
		}()
	}

	readLoop(conn, logger)
}

func readLoop(conn *websocket.Conn, logger *log.Logger) {
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		base, err := protocol.DecodeBase(msg)
		if err != nil {
			continue
		}
		switch base.Type {
		case protocol.TypeWelcome:
			var w protocol.WelcomeMsg
			if err := json.Unmarshal(msg, &w); err != nil {
				continue
			}
			logger.Printf("WELCOME session=%s tick_rate=%d chunk=%.0fm radius=%.0fm seed=%d",
				w.SessionID, w.WorldParams.TickRateHz, w.WorldParams.ChunkSize,
				w.WorldParams.StreamingRadius, w.WorldParams.Seed)

		case protocol.TypeTick:
			var frame struct {
				Tick    uint64 `json:"tick"`
				Metrics struct {
					Entities     int            `json:"entities"`
					LoadedChunks int            `json:"loaded_chunks"`
					StepMS       float64        `json:"step_ms"`
					Population   map[string]int `json:"population"`
				} `json:"metrics"`
			}
			if err := json.Unmarshal(msg, &frame); err != nil {
				continue
			}
			logger.Printf("tick=%d entities=%d loaded=%d step=%.2fms pop=%v",
				frame.Tick, frame.Metrics.Entities, frame.Metrics.LoadedChunks,
				frame.Metrics.StepMS, frame.Metrics.Population)

		case protocol.TypeSpawnResult:
			var res protocol.SpawnResultMsg
			if err := json.Unmarshal(msg, &res); err != nil {
				continue
			}
			if res.Code != "" {
				logger.Printf("spawn %s rejected: %s %s", res.ReqID, res.Code, res.Message)
			} else {
				logger.Printf("spawn %s -> %s", res.ReqID, res.EntityID)
			}
		}
	}
}

// orbitFocus walks the focus around a circle at ground level, sending
// an update every 100ms.
func orbitFocus(conn *websocket.Conn, logger *log.Logger, radius, speed float64, stop chan os.Signal) {
	t := time.NewTicker(100 * time.Millisecond)
	defer t.Stop()
	start := time.Now()
	for {
		select {
		case <-stop:
			return
		case <-t.C:
			elapsed := time.Since(start).Seconds()
			angle := elapsed * speed / radius
			sendFocus(conn, radius*math.Cos(angle), radius*math.Sin(angle))
		}
	}
}

func sendFocus(conn *websocket.Conn, x, z float64) {
	_ = conn.WriteJSON(protocol.FocusMsg{
		Type:            protocol.TypeFocus,
		ProtocolVersion: protocol.Version,
		Pos:             protocol.Vec3{X: x, Z: z},
	})
}

func sendSpawn(conn *websocket.Conn, logger *log.Logger, kind string, x, z float64) {
	req := protocol.SpawnMsg{
		Type:            protocol.TypeSpawn,
		ProtocolVersion: protocol.Version,
		ReqID:           uuid.NewString(),
		Kind:            kind,
		Pos:             protocol.Vec3{X: x, Z: z},
	}
	if err := conn.WriteJSON(req); err != nil {
		logger.Printf("send SPAWN: %v", err)
	}
}
