package world

import (
	"sort"

	"openroam.dev/internal/sim/world/content"
)

// systemPhysicsWindow attaches fixed bodies to near statics and flips
// dynamic bodies on and off around the focus, all under per-tick
// transition caps. The focus-bound entity never gets disabled.
func (w *World) systemPhysicsWindow(nowTick uint64) {
	if !w.hasFocus {
		return
	}
	pw := w.cfg.PhysWindow

	var statics, dynamics []string
	for id, e := range w.entities {
		if e.RenderChild {
			continue
		}
		if content.IsStatic(e.Kind) {
			statics = append(statics, id)
		} else if e.Dynamic {
			dynamics = append(dynamics, id)
		}
	}
	sort.Strings(statics)
	sort.Strings(dynamics)

	attachBudget := pw.MaxStaticActivations
	detachBudget := pw.MaxStaticDeactivations
	for _, id := range statics {
		e := w.entities[id]
		d := w.focusDistance(e)
		switch {
		case e.Body == nil && d <= pw.StaticEnableRadius:
			if attachBudget == 0 {
				continue
			}
			e.Body = &RigidBody{
				Fixed:    true,
				Collider: content.ColliderHalfExtents(e.Kind, w.cfg.Physics.MeshColliderRatio).Scale(e.Scale),
			}
			attachBudget--
			w.counters.StaticAttached++
		case e.Body != nil && d > pw.StaticDisableRadius:
			if detachBudget == 0 {
				continue
			}
			e.Body = nil
			detachBudget--
			w.counters.StaticDetached++
		}
	}

	enableBudget := pw.MaxDynamicTransitions
	disableBudget := pw.MaxDynamicTransitions
	for _, id := range dynamics {
		e := w.entities[id]
		if e.Body == nil {
			continue
		}
		if id == w.focusEntityID {
			// The player's own body stays live regardless of window.
			e.Body.Disabled = false
			continue
		}
		d := w.focusDistance(e)
		// The buffer widens the dead band on both sides: re-enable
		// inside enable-buffer, disable beyond disable+buffer.
		switch {
		case e.Body.Disabled && d <= pw.DynamicEnableRadius-pw.HysteresisBuffer:
			if enableBudget == 0 {
				continue
			}
			e.Body.Disabled = false
			enableBudget--
			w.counters.DynamicEnabled++
		case !e.Body.Disabled && d > pw.DynamicDisableRadius+pw.HysteresisBuffer:
			if disableBudget == 0 {
				continue
			}
			e.Body.Disabled = true
			e.Body.Vel = zeroVec
			e.Body.AngVel = zeroVec
			disableBudget--
			w.counters.DynamicDisabled++
		}
	}
}
