package agentcontroller

import "github.com/kestrel-systems/fleetcore/internal/domain/fleet"

// ProbedWaypoints returns every waypoint a currently-assigned Probe role
// is stationed at, per agent_controller.rs's probed_waypoints.
func (c *Controller) ProbedWaypoints() map[string]bool {
	c.mu.Lock()
	config := append([]fleet.ShipConfig(nil), c.roleConfig...)
	c.mu.Unlock()

	out := make(map[string]bool)
	for _, rc := range config {
		if rc.Behaviour.Kind != fleet.BehaviorProbe {
			continue
		}
		if !c.assignments.IsRoleFilled(rc.ID) {
			continue
		}
		for _, wp := range rc.Behaviour.Waypoints {
			out[wp] = true
		}
	}
	return out
}

// StaticallyProbedWaypoints extends ProbedWaypoints with waypoints a
// ConstructionHauler's purchase-system override makes the controller's
// sole purchaser for, per agent_controller.rs's statically_probed_waypoints
// special case. Exposed as a predicate so taskmanager.Coverage can query it
// without importing this package.
func (c *Controller) StaticallyProbedWaypoints() func(string) bool {
	covered := c.ProbedWaypoints()

	c.mu.Lock()
	config := append([]fleet.ShipConfig(nil), c.roleConfig...)
	c.mu.Unlock()

	for _, rc := range config {
		if rc.Behaviour.Kind != fleet.BehaviorConstructionHauler {
			continue
		}
		if rc.PurchaseCriteria.SystemSymbol != "" && rc.PurchaseCriteria.SystemSymbol != c.StartingSystem {
			covered[rc.PurchaseCriteria.SystemSymbol] = true
		}
	}

	return func(waypointSymbol string) bool {
		return covered[waypointSymbol]
	}
}
