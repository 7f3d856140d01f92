package ws

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"openroam.dev/internal/protocol"
	"openroam.dev/internal/sim/world"
	"openroam.dev/internal/sim/world/content"
	"openroam.dev/internal/sim/world/geom"
)

type Server struct {
	world *world.World
	log   *log.Logger

	upgrader websocket.Upgrader
}

func NewServer(w *world.World, logger *log.Logger) *Server {
	return &Server{
		world: w,
		log:   logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		sessionID, out := s.handshake(conn)
		if sessionID == "" {
			return
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		s.world.JoinObserver(world.ObserverJoinRequest{ID: sessionID, Out: out})
		defer s.world.LeaveObserver(sessionID)

		// Writer goroutine.
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case b, ok := <-out:
					if !ok {
						return
					}
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						cancel()
						return
					}
				}
			}
		}()

		// Reader loop.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				cancel()
				return
			}
			base, err := protocol.DecodeBase(msg)
			if err != nil {
				continue
			}
			switch base.Type {
			case protocol.TypeFocus:
				var focus protocol.FocusMsg
				if err := json.Unmarshal(msg, &focus); err != nil {
					continue
				}
				if focus.ProtocolVersion != protocol.Version {
					continue
				}
				s.world.UpdateFocus(world.FocusUpdate{
					Pos:      geom.Vec3{X: focus.Pos.X, Y: focus.Pos.Y, Z: focus.Pos.Z},
					EntityID: focus.EntityID,
				})
			case protocol.TypeSpawn:
				var spawn protocol.SpawnMsg
				if err := json.Unmarshal(msg, &spawn); err != nil {
					continue
				}
				if spawn.ProtocolVersion != protocol.Version || spawn.ReqID == "" {
					continue
				}
				s.submitSpawn(spawn, out)
			}
		}
	}
}

// submitSpawn forwards one spawn request and delivers its result on
// the session's outbound channel without blocking the reader.
func (s *Server) submitSpawn(spawn protocol.SpawnMsg, out chan []byte) {
	resp := make(chan world.SpawnResult, 1)
	ok := s.world.SubmitSpawn(world.SpawnRequest{
		Kind: content.Kind(spawn.Kind),
		Pos:  geom.Vec3{X: spawn.Pos.X, Y: spawn.Pos.Y, Z: spawn.Pos.Z},
		Resp: resp,
	})
	if !ok {
		writeResult(out, protocol.SpawnResultMsg{
			Type:            protocol.TypeSpawnResult,
			ProtocolVersion: protocol.Version,
			ReqID:           spawn.ReqID,
			Code:            protocol.ErrQueueFull,
		})
		return
	}
	go func() {
		select {
		case res := <-resp:
			writeResult(out, protocol.SpawnResultMsg{
				Type:            protocol.TypeSpawnResult,
				ProtocolVersion: protocol.Version,
				ReqID:           spawn.ReqID,
				EntityID:        res.EntityID,
				Code:            rejectCode(res.Reject),
			})
		case <-time.After(5 * time.Second):
			writeResult(out, protocol.SpawnResultMsg{
				Type:            protocol.TypeSpawnResult,
				ProtocolVersion: protocol.Version,
				ReqID:           spawn.ReqID,
				Code:            protocol.ErrInternal,
			})
		}
	}()
}

func rejectCode(r world.RejectReason) string {
	switch r {
	case world.RejectNone:
		return ""
	case world.RejectKind:
		return protocol.ErrSpawnKind
	case world.RejectPosition:
		return protocol.ErrSpawnPosition
	case world.RejectRoad:
		return protocol.ErrSpawnRoad
	case world.RejectWater:
		return protocol.ErrSpawnWater
	case world.RejectConflict:
		return protocol.ErrSpawnConflict
	}
	return protocol.ErrInternal
}

func writeResult(out chan []byte, msg protocol.SpawnResultMsg) {
	b, err := json.Marshal(msg)
	if err != nil {
		return
	}
	select {
	case out <- b:
	case <-time.After(time.Second):
	}
}

func (s *Server) handshake(conn *websocket.Conn) (sessionID string, out chan []byte) {
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return "", nil
	}

	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != protocol.TypeHello {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "expected HELLO"),
			time.Now().Add(time.Second))
		return "", nil
	}

	var hello protocol.HelloMsg
	if err := json.Unmarshal(msg, &hello); err != nil {
		return "", nil
	}
	if hello.ProtocolVersion != protocol.Version {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "bad protocol_version"),
			time.Now().Add(time.Second))
		return "", nil
	}

	sessionID = uuid.NewString()
	out = make(chan []byte, 16)

	cfg := s.world.Config()
	welcome := protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		SessionID:       sessionID,
		WorldParams: protocol.WorldParams{
			TickRateHz:      cfg.TickRateHz,
			StreamingHz:     cfg.StreamingHz,
			ChunkSize:       cfg.World.ChunkSize,
			TotalChunksX:    cfg.World.TotalChunksX,
			TotalChunksZ:    cfg.World.TotalChunksZ,
			StreamingRadius: cfg.World.StreamingRadius,
			Seed:            cfg.Seed,
		},
	}
	if err := writeJSON(conn, welcome); err != nil {
		return "", nil
	}
	return sessionID, out
}

func writeJSON(conn *websocket.Conn, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return conn.WriteMessage(websocket.TextMessage, b)
}
