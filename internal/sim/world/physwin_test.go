package world

import (
	"testing"

	"openroam.dev/internal/sim/world/content"
	"openroam.dev/internal/sim/world/geom"
)

func TestStaticBodiesAttachAndDetach(t *testing.T) {
	w := newTestWorld(t)
	pos := clearPos(t, w, content.KindBuilding)
	e, reject := w.spawnValidated(content.KindBuilding, pos, 1, 0, 0, 0)
	if reject != RejectNone {
		t.Fatalf("spawn rejected: %q", reject)
	}
	if e.Body != nil {
		t.Fatalf("static body exists before the window reaches it")
	}

	w.hasFocus = true
	w.focus = pos
	w.systemPhysicsWindow(1)
	if e.Body == nil || !e.Body.Fixed {
		t.Fatalf("close building has no fixed body")
	}
	if w.counters.StaticAttached != 1 {
		t.Fatalf("attach counter: %d", w.counters.StaticAttached)
	}

	// Inside the hysteresis band nothing changes.
	w.focus = pos.Add(geom.Vec3{X: 220})
	w.systemPhysicsWindow(2)
	if e.Body == nil {
		t.Fatalf("body detached inside the hysteresis band")
	}

	w.focus = pos.Add(geom.Vec3{X: 260})
	w.systemPhysicsWindow(3)
	if e.Body != nil {
		t.Fatalf("far building kept its body")
	}
	if w.counters.StaticDetached != 1 {
		t.Fatalf("detach counter: %d", w.counters.StaticDetached)
	}

	// Back in the band: still detached.
	w.focus = pos.Add(geom.Vec3{X: 220})
	w.systemPhysicsWindow(4)
	if e.Body != nil {
		t.Fatalf("body reattached inside the hysteresis band")
	}
}

func TestDynamicBodiesEnableAndDisable(t *testing.T) {
	w := newTestWorld(t)
	pos := roadPoint(t, w)
	e, reject := w.spawnValidated(content.KindVehicle, pos, 1, 0, 0, 0)
	if reject != RejectNone {
		t.Fatalf("spawn rejected: %q", reject)
	}

	w.hasFocus = true
	w.focus = pos
	w.systemPhysicsWindow(1)
	if e.Body.Disabled {
		t.Fatalf("close vehicle still disabled")
	}
	if w.counters.DynamicEnabled != 1 {
		t.Fatalf("enable counter: %d", w.counters.DynamicEnabled)
	}

	// Disable radius plus hysteresis buffer is 205m; 202m holds.
	e.Body.Vel = geom.Vec3{X: 10}
	w.focus = pos.Add(geom.Vec3{X: 202})
	w.systemPhysicsWindow(2)
	if e.Body.Disabled {
		t.Fatalf("vehicle disabled inside the buffer")
	}

	w.focus = pos.Add(geom.Vec3{X: 210})
	w.systemPhysicsWindow(3)
	if !e.Body.Disabled {
		t.Fatalf("far vehicle still enabled")
	}
	if e.Body.Vel != (geom.Vec3{}) {
		t.Fatalf("disable kept velocity: %v", e.Body.Vel)
	}
	if w.counters.DynamicDisabled != 1 {
		t.Fatalf("disable counter: %d", w.counters.DynamicDisabled)
	}

	// Enable radius minus hysteresis buffer is 145m; 148m holds off.
	w.focus = pos.Add(geom.Vec3{X: 148})
	w.systemPhysicsWindow(4)
	if !e.Body.Disabled {
		t.Fatalf("vehicle re-enabled inside the buffer")
	}

	w.focus = pos.Add(geom.Vec3{X: 140})
	w.systemPhysicsWindow(5)
	if e.Body.Disabled {
		t.Fatalf("near vehicle still disabled")
	}
	if w.counters.DynamicEnabled != 2 {
		t.Fatalf("enable counter: %d", w.counters.DynamicEnabled)
	}
}

func TestFocusEntityNeverDisabled(t *testing.T) {
	w := newTestWorld(t)
	pos := roadPoint(t, w)
	e, reject := w.spawnValidated(content.KindVehicle, pos, 1, 0, 0, 0)
	if reject != RejectNone {
		t.Fatalf("spawn rejected: %q", reject)
	}
	w.hasFocus = true
	w.focusEntityID = e.ID

	// Focus point far from the entity itself (a trailing camera).
	w.focus = pos.Add(geom.Vec3{X: 400})
	w.systemPhysicsWindow(1)
	if e.Body.Disabled {
		t.Fatalf("focus-bound body disabled")
	}
}

func TestDynamicTransitionBudget(t *testing.T) {
	w := newTestWorld(t)
	w.cfg.PhysWindow.MaxDynamicTransitions = 1

	a, reject := w.spawnValidated(content.KindVehicle, clearPos(t, w, content.KindVehicle), 1, 0, 0, 0)
	if reject != RejectNone {
		t.Fatalf("spawn a: %q", reject)
	}
	b, reject := w.spawnValidated(content.KindVehicle, clearPos(t, w, content.KindVehicle), 1, 0, 0, 0)
	if reject != RejectNone {
		t.Fatalf("spawn b: %q", reject)
	}

	w.hasFocus = true
	w.focus = a.Pos.Add(b.Pos.Sub(a.Pos).Scale(0.5))
	enableAt := w.cfg.PhysWindow.DynamicEnableRadius - w.cfg.PhysWindow.HysteresisBuffer
	if geom.HorizontalDistance(w.focus, a.Pos) > enableAt ||
		geom.HorizontalDistance(w.focus, b.Pos) > enableAt {
		t.Fatalf("vehicles too far apart for a shared focus")
	}

	w.systemPhysicsWindow(1)
	enabled := 0
	if !a.Body.Disabled {
		enabled++
	}
	if !b.Body.Disabled {
		enabled++
	}
	if enabled != 1 {
		t.Fatalf("tick 1 enabled %d bodies under budget 1", enabled)
	}
	w.systemPhysicsWindow(2)
	if a.Body.Disabled || b.Body.Disabled {
		t.Fatalf("second vehicle never enabled")
	}
}

func TestPhysicsWindowNeedsFocus(t *testing.T) {
	w := newTestWorld(t)
	pos := clearPos(t, w, content.KindBuilding)
	e, _ := w.spawnValidated(content.KindBuilding, pos, 1, 0, 0, 0)
	w.systemPhysicsWindow(1)
	if e.Body != nil {
		t.Fatalf("window ran without a focus")
	}
}
