// Package idgen produces the task manager's deterministic task ids and
// request/correlation id helpers (NextRequestID, ShortUUID). Grounded on
// _examples/original_source/src/tasks.rs (deterministic task id scheme) and
// pkg/utils/container_id.go in the teacher repo (short-uuid correlation id
// idiom).
package idgen

import "fmt"

// RefreshMarketTaskID, RefreshShipyardTaskID, BuyShipsTaskID and
// TradeTaskID are pure functions of their arguments, per spec.md's
// "Deterministic task ids" design note: regenerating the candidate task
// list twice in a row must produce identical ids so de-duplication against
// in-progress assignments works without persisting the prior task set.

func RefreshMarketTaskID(systemSymbol, startingSystem, waypoint string) string {
	return withSystemPrefix(systemSymbol, startingSystem, fmt.Sprintf("refreshmarket_%s", waypoint))
}

func RefreshShipyardTaskID(systemSymbol, startingSystem, waypoint string) string {
	return withSystemPrefix(systemSymbol, startingSystem, fmt.Sprintf("refreshshipyard_%s", waypoint))
}

func BuyShipsTaskID(systemSymbol, startingSystem, waypoint string) string {
	return withSystemPrefix(systemSymbol, startingSystem, fmt.Sprintf("buyships_%s", waypoint))
}

func TradeTaskID(systemSymbol, startingSystem, good string) string {
	return withSystemPrefix(systemSymbol, startingSystem, fmt.Sprintf("trade_%s", good))
}

// withSystemPrefix prefixes the id with "<system>/" when the task lives
// outside the agent's starting system, per spec.md §4.2.
func withSystemPrefix(systemSymbol, startingSystem, id string) string {
	if systemSymbol == startingSystem {
		return id
	}
	return fmt.Sprintf("%s/%s", systemSymbol, id)
}
