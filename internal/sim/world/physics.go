package world

import (
	"openroam.dev/internal/sim/world/geom"
)

var zeroVec = geom.Vec3{}

// systemPhysics integrates enabled dynamic bodies and applies the
// safety net: non-finite repair, speed clamps, bound clamps, and the
// emergency runaway disable. Safeguard logs fire once per entity.
func (w *World) systemPhysics(nowTick uint64) {
	dt := 1.0 / float64(w.cfg.TickRateHz)
	p := w.cfg.Physics

	for _, e := range w.entities {
		b := e.Body
		if b == nil || b.Fixed || b.Disabled || e.RenderChild {
			continue
		}

		if !e.Pos.IsFinite() || !b.Vel.IsFinite() || !b.AngVel.IsFinite() {
			// Repair in place: park the body at the focus (or origin)
			// rather than killing the entity.
			if w.hasFocus {
				e.Pos = w.focus
			} else {
				e.Pos = zeroVec
			}
			b.Vel = zeroVec
			b.AngVel = zeroVec
			w.counters.NonFiniteRepairs++
			w.warnOnce(e, "non-finite state repaired", nowTick)
			continue
		}

		if v := b.Vel.Length(); v > p.MaxVelocity {
			b.Vel = b.Vel.ClampLength(p.MaxVelocity)
			w.counters.VelocityClamps++
			w.warnOnce(e, "velocity clamped", nowTick)
		}
		if av := b.AngVel.Length(); av > p.MaxAngularVelocity {
			b.AngVel = b.AngVel.ClampLength(p.MaxAngularVelocity)
			w.counters.VelocityClamps++
			w.warnOnce(e, "angular velocity clamped", nowTick)
		}

		e.Pos = e.Pos.Add(b.Vel.Scale(dt))
		w.syncChildren(e)

		// Runaway check before the bound clamp would mask it.
		if abs(e.Pos.X) > p.EmergencyDisableCoord ||
			abs(e.Pos.Y) > p.EmergencyDisableCoord ||
			abs(e.Pos.Z) > p.EmergencyDisableCoord {
			b.Disabled = true
			b.Vel = zeroVec
			b.AngVel = zeroVec
			w.counters.EmergencyDisables++
			w.log.Printf("runaway body disabled entity=%s kind=%s tick=%d pos=(%.0f,%.0f,%.0f)",
				e.ID, e.Kind, nowTick, e.Pos.X, e.Pos.Y, e.Pos.Z)
		}

		e.Pos.X = geom.Clamp(e.Pos.X, p.MinWorldCoord, p.MaxWorldCoord)
		e.Pos.Y = geom.Clamp(e.Pos.Y, p.MinWorldCoord, p.MaxWorldCoord)
		e.Pos.Z = geom.Clamp(e.Pos.Z, p.MinWorldCoord, p.MaxWorldCoord)
	}
}

// syncChildren keeps render children glued to a moving parent.
func (w *World) syncChildren(e *Entity) {
	for _, id := range e.ChildMeshes {
		if c := w.entities[id]; c != nil {
			c.Pos = e.Pos
			c.Yaw = e.Yaw
		}
	}
}

func (w *World) warnOnce(e *Entity, msg string, nowTick uint64) {
	if e.safetyWarned {
		return
	}
	e.safetyWarned = true
	w.log.Printf("%s entity=%s kind=%s tick=%d", msg, e.ID, e.Kind, nowTick)
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
