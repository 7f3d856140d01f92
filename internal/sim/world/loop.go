package world

import (
	"context"
	"encoding/json"
	"time"
)

func (w *World) Run(ctx context.Context) error {
	interval := time.Second / time.Duration(w.cfg.TickRateHz)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	defer w.pool.Close()

	var pendingFocus []FocusUpdate
	var pendingSpawns []SpawnRequest

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.stop:
			return nil
		case u := <-w.focusCh:
			pendingFocus = append(pendingFocus, u)
		case req := <-w.spawnCh:
			pendingSpawns = append(pendingSpawns, req)
		case req := <-w.observerJoin:
			w.observers[req.ID] = req.Out
		case id := <-w.observerLeave:
			delete(w.observers, id)
		case <-ticker.C:
			w.step(pendingFocus, pendingSpawns)
			pendingFocus = pendingFocus[:0]
			pendingSpawns = pendingSpawns[:0]
		}
	}
}

// step advances one tick. System order is fixed: streaming decisions,
// then blueprint application, then external spawns, then population,
// LOD, physics window, integration and safeguards.
func (w *World) step(focusUpdates []FocusUpdate, spawns []SpawnRequest) {
	stepStart := time.Now()
	nowTick := w.tick.Load()
	w.eventsThisTick = w.eventsThisTick[:0]

	// Latest focus wins; older queued updates are superseded.
	if n := len(focusUpdates); n > 0 {
		u := focusUpdates[n-1]
		w.hasFocus = true
		w.focus = u.Pos
		w.focusEntityID = u.EntityID
	}

	if nowTick%w.streamEvery == 0 {
		w.systemStreaming(nowTick)
	}
	w.systemUnloading(nowTick)
	w.dispatchJobs()
	w.pollCompleted()
	w.systemApplier(nowTick)

	for _, req := range spawns {
		res := w.handleSpawnRequest(req, nowTick)
		if req.Resp != nil {
			req.Resp <- res
		}
	}

	if nowTick%w.enforceEvery == 0 {
		w.pop.enforce(nowTick)
	}
	if w.purgeEvery > 0 && nowTick > 0 && nowTick%w.purgeEvery == 0 {
		w.pop.purge(nowTick)
	}

	w.systemLOD(nowTick)
	w.systemPhysicsWindow(nowTick)
	w.systemPhysics(nowTick)

	stepMS := float64(time.Since(stepStart).Microseconds()) / 1000.0
	w.stats.observe(stepMS)
	w.tick.Add(1)
	w.publish(nowTick, stepMS)
}

// StepOnce advances exactly one tick with the given inputs. Test and
// replay entry point; identical ordering to the server loop.
func (w *World) StepOnce(focusUpdates []FocusUpdate, spawns []SpawnRequest) uint64 {
	nowTick := w.tick.Load()
	w.step(focusUpdates, spawns)
	return nowTick
}

type tickFrame struct {
	Type    string  `json:"type"`
	Tick    uint64  `json:"tick"`
	Metrics Metrics `json:"metrics"`
	Events  []Event `json:"events,omitempty"`
}

func (w *World) publish(nowTick uint64, stepMS float64) {
	byState := w.chunks.CountByState()
	m := Metrics{
		Tick:            nowTick,
		Entities:        len(w.entities),
		LoadedChunks:    byState["LOADED"],
		LoadingChunks:   byState["LOADING"],
		UnloadingChunks: byState["UNLOADING"],
		ActiveJobs:      w.activeJobs,
		Population:      w.pop.counts(),
		StepMS:          stepMS,
		AvgStepMS:       w.stats.avg(),
		MaxStepMS:       w.stats.max(),
		QueueDepths: QueueDepths{
			Focus:     len(w.focusCh),
			Spawn:     len(w.spawnCh),
			Completed: len(w.completedQ),
			Pending:   len(w.pendingJobs),
		},
		Counters: w.counters,
	}
	w.metrics.Store(m)

	if w.tickSink != nil {
		_ = w.tickSink.WriteTick(m, w.eventsThisTick)
	}

	// Observer frames ride the streaming gate, not the tick rate.
	if len(w.observers) > 0 && nowTick%w.streamEvery == 0 {
		b, err := json.Marshal(tickFrame{Type: "TICK", Tick: nowTick, Metrics: m, Events: w.eventsThisTick})
		if err == nil {
			for _, out := range w.observers {
				sendLatest(out, b)
			}
		}
	}
}
