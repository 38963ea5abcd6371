// Package task defines the closed task vocabulary the Logistic Task
// Manager enumerates and assigns, and the Schedule/ScheduledAction types
// the Per-Ship Executor consumes. Grounded on
// _examples/original_source/src/tasks.rs (Task, TaskCompletion enums) and
// _examples/original_source/src/ship_scripts/logistics.rs (Schedule,
// ScheduledAction, net-cargo reconciliation).
package task

import "time"

// Kind is the task's top-level shape: a single-waypoint visit, or a
// src->dest cargo transport.
type Kind string

const (
	KindVisitLocation Kind = "VISIT_LOCATION"
	KindTransportCargo Kind = "TRANSPORT_CARGO"
)

// VisitAction is what to do once at the visited waypoint.
type VisitAction string

const (
	VisitRefreshMarket   VisitAction = "REFRESH_MARKET"
	VisitRefreshShipyard VisitAction = "REFRESH_SHIPYARD"
	VisitTryBuyShips     VisitAction = "TRY_BUY_SHIPS"
)

// TransportAction distinguishes plain arbitrage (buy then sell) from a
// construction delivery run (buy then deliver to the gate).
type TransportAction string

const (
	TransportArbitrage   TransportAction = "ARBITRAGE"
	TransportConstruction TransportAction = "CONSTRUCTION"
)

// Task is one candidate unit of work the manager can assign to a ship.
// Exactly one of the Visit* or transport fields is meaningful, selected by
// Kind — Go has no tagged union, so this follows the same flattened-DTO
// shape the teacher repo uses for its command/query types.
type Task struct {
	ID    string
	Value int
	Kind  Kind

	// VisitLocation fields.
	Waypoint    string
	VisitAction VisitAction

	// TransportCargo fields.
	Src             string
	Dest            string
	Good            string
	Units           int
	TransportAction TransportAction

	// Assignment, set once a ship takes the task.
	AssignedShip string
	StartedAt    time.Time
}

// IsAssigned reports whether a ship currently holds this task.
func (t Task) IsAssigned() bool {
	return t.AssignedShip != ""
}
