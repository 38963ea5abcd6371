package fleet

import "fmt"

// BehaviorKind is the closed set of per-ship-role execution strategies a
// ShipConfig can name. Each corresponds to a distinct executor behavior in
// the Per-Ship Executor.
type BehaviorKind string

const (
	BehaviorProbe              BehaviorKind = "PROBE"
	BehaviorLogistics          BehaviorKind = "LOGISTICS"
	BehaviorSiphonDrone        BehaviorKind = "SIPHON_DRONE"
	BehaviorSiphonShuttle      BehaviorKind = "SIPHON_SHUTTLE"
	BehaviorMiningDrone        BehaviorKind = "MINING_DRONE"
	BehaviorMiningShuttle      BehaviorKind = "MINING_SHUTTLE"
	BehaviorMiningSurveyor     BehaviorKind = "MINING_SURVEYOR"
	BehaviorConstructionHauler BehaviorKind = "CONSTRUCTION_HAULER"
	BehaviorJumpgateProbe      BehaviorKind = "JUMPGATE_PROBE"
	BehaviorExplorer           BehaviorKind = "EXPLORER"
)

// LogisticsScriptConfig narrows what a Logistics-behavior ship's executor
// is permitted to do, per spec.md's take_tasks filtering step.
type LogisticsScriptConfig struct {
	WaypointAllowlist  []string
	AllowMarketRefresh bool
	AllowShipbuying    bool
	AllowConstruction  bool
}

// Behavior names the executor strategy for a role and, for Probe,
// Logistics and ConstructionHauler, the data that strategy needs.
type Behavior struct {
	Kind      BehaviorKind
	Waypoints []string               // Probe: stationary waypoints to watch
	Logistics *LogisticsScriptConfig // Logistics and ConstructionHauler
}

// PurchaseCriteria governs whether and how the Agent Controller will try to
// buy a ship for a role.
type PurchaseCriteria struct {
	SystemSymbol      string // override purchase system; empty = starting system
	NeverPurchase     bool
	RequireCheapest   bool
	AllowLogisticTask bool
}

// ShipConfig is one role slot in the fleet's role configuration: a stable
// id, the ship model required to fill it, its execution behavior, and the
// policy governing how the controller may acquire a ship for it.
type ShipConfig struct {
	ID               string
	ShipModel        string
	Behaviour        Behavior
	PurchaseCriteria PurchaseCriteria
}

func (c ShipConfig) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("role id cannot be empty")
	}
	if c.ShipModel == "" {
		return fmt.Errorf("role %s: ship model cannot be empty", c.ID)
	}
	return nil
}

// AllowsMultipleShips reports whether more than one ship may hold this
// role simultaneously. Per spec.md's invariant: a role with
// never_purchase=false may hold no more than one ship — never_purchase
// roles (e.g. an unbounded explorer pool fed by discovery rather than
// purchase) are the only ones exempt from the one-ship cap.
func (c ShipConfig) AllowsMultipleShips() bool {
	return c.PurchaseCriteria.NeverPurchase
}
