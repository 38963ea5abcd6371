package agentcontroller

import (
	"context"

	"github.com/kestrel-systems/fleetcore/internal/domain/fleet"
	"github.com/kestrel-systems/fleetcore/internal/domain/ledger"
	"github.com/kestrel-systems/fleetcore/internal/domain/navigation"
)

// RefreshShipConfig regenerates the role catalog for the current era,
// drops assignments whose role no longer exists or whose ship died,
// reserves the standing FUEL/JUMPGATE_COSTS credits plus a per-job
// logistics reservation for every currently-assigned role, and persists
// the result. Grounded on agent_controller.rs's refresh_ship_config.
func (c *Controller) RefreshShipConfig(ctx context.Context) error {
	c.mu.Lock()
	era := c.era
	c.mu.Unlock()

	config, err := GenerateShipConfig(ctx, c.cache, c.StartingSystem, era, c.cfg.NoGateMode, c.token)
	if err != nil {
		return err
	}

	live := make(map[string]bool, len(c.ships))
	c.mu.Lock()
	for s := range c.ships {
		live[s] = true
	}
	c.mu.Unlock()

	removed := c.assignments.Reconcile(config, live)
	for _, pair := range removed {
		c.logger.Printf("unassigning role %s from ship %s: no longer valid", pair[0], pair[1])
		c.ledger.ReleaseReservation(pair[1])
	}

	c.mu.Lock()
	c.roleConfig = config
	c.mu.Unlock()

	c.ledger.ReserveCredits(ledger.ReservationKeyFuel, ledger.StandingFuelReservation)
	if !c.cfg.NoGateMode {
		c.ledger.ReserveCredits(ledger.ReservationKeyJumpgateCosts, ledger.StandingJumpgateReservation)
	}

	for _, rc := range config {
		shipSymbol, ok := c.assignments.ShipFor(rc.ID)
		if !ok {
			continue
		}
		c.reserveCreditsForJob(shipSymbol, rc)
	}

	for shipSymbol := range live {
		if c.assignments.IsShipAssigned(shipSymbol) {
			continue
		}
		c.tryAssignShip(shipSymbol, config)
	}

	c.saveAssignments(ctx)
	return nil
}

// reserveCreditsForJob reserves capacity*5000 credits for a Logistics or
// ConstructionHauler role's assigned ship, matching
// agent_controller.rs's reserve_credits_for_job (Logistics-only there;
// extended here to ConstructionHauler since it shares the same cargo-buy
// pattern in spec.md §4.1).
func (c *Controller) reserveCreditsForJob(shipSymbol string, rc fleet.ShipConfig) {
	if rc.Behaviour.Kind != fleet.BehaviorLogistics && rc.Behaviour.Kind != fleet.BehaviorConstructionHauler {
		return
	}
	cell := c.ShipCell(shipSymbol)
	if cell == nil {
		return
	}
	var capacity int
	_ = cell.With(func(s *navigation.Ship) error {
		capacity = s.CargoCapacity()
		return nil
	})
	c.ledger.ReserveCredits(shipSymbol, int64(capacity)*ledger.PerCapacityLogisticsReservation)
}

// tryAssignShip matches an unassigned live ship against an open role of
// the matching ship model, assigns it, and reserves its credits.
// Grounded on agent_controller.rs's try_assign_ship.
func (c *Controller) tryAssignShip(shipSymbol string, config []fleet.ShipConfig) {
	cell := c.ShipCell(shipSymbol)
	if cell == nil {
		return
	}
	var model string
	_ = cell.With(func(s *navigation.Ship) error {
		model = s.FrameSymbol()
		return nil
	})

	for _, rc := range config {
		if c.assignments.IsRoleFilled(rc.ID) && !rc.AllowsMultipleShips() {
			continue
		}
		if !modelMatches(rc.ShipModel, model) {
			continue
		}
		c.assignments.Assign(rc.ID, shipSymbol)
		c.reserveCreditsForJob(shipSymbol, rc)
		c.logger.Printf("assigned ship %s to role %s", shipSymbol, rc.ID)
		return
	}
	c.logger.Printf("no open role for ship %s (frame %s)", shipSymbol, model)
}
