package agentcontroller

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/kestrel-systems/fleetcore/internal/domain/fleet"
	"github.com/kestrel-systems/fleetcore/internal/domain/navigation"
)

// BuyShipOutcome is the closed set of results a single-role purchase
// attempt can end in, mirroring agent_controller.rs's BuyShipResult enum.
type BuyShipOutcome int

const (
	BuyShipBought BuyShipOutcome = iota
	BuyShipFailedNeverPurchase
	BuyShipFailedLowCredits
	BuyShipFailedNoShipyards
	BuyShipFailedNoPurchaser
)

func (o BuyShipOutcome) String() string {
	switch o {
	case BuyShipBought:
		return "bought"
	case BuyShipFailedNeverPurchase:
		return "never_purchase"
	case BuyShipFailedLowCredits:
		return "low_credits"
	case BuyShipFailedNoShipyards:
		return "no_shipyards"
	case BuyShipFailedNoPurchaser:
		return "no_purchaser"
	default:
		return "unknown"
	}
}

// acquireTryBuyShipsLock enforces the single global purchase lock: no two
// roles may be bought against the same credits balance concurrently.
// Timing out is fatal: it panics with ErrTryBuyShipsLockTimeout, matching
// the original's panic.
func (c *Controller) acquireTryBuyShipsLock(ctx context.Context) (func(), error) {
	select {
	case c.tryBuyShipsLock <- struct{}{}:
		return func() { <-c.tryBuyShipsLock }, nil
	case <-time.After(c.cfg.TryBuyShipsLockTimeout):
		panic(ErrTryBuyShipsLockTimeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// shipyardCandidate is one shipyard selling a role's model, ascending by
// price.
type shipyardCandidate struct {
	waypoint string
	price    int64
}

// purchaserAt reports whether some ship qualifies as a purchaser physically
// present (docked/orbiting, not in transit) at waypointSymbol: either the
// caller-provided purchaser ship, or any ship holding a Probe role
// statically parked there (spec.md §4.1 step 6). Grounded on
// agent_controller.rs's try_buy_ship purchaser search.
func (c *Controller) purchaserAt(waypointSymbol, purchaser string) (string, bool) {
	staticallyProbed := c.StaticallyProbedWaypoints()

	check := func(shipSymbol string) (string, bool) {
		cell := c.ShipCell(shipSymbol)
		if cell == nil {
			return "", false
		}
		var ok bool
		_ = cell.With(func(s *navigation.Ship) error {
			ok = !s.IsInTransit() && s.CurrentLocation() != nil && s.CurrentLocation().Symbol == waypointSymbol
			return nil
		})
		return shipSymbol, ok
	}

	if purchaser != "" {
		if sym, ok := check(purchaser); ok {
			return sym, true
		}
	}
	if staticallyProbed(waypointSymbol) {
		c.mu.Lock()
		config := append([]fleet.ShipConfig(nil), c.roleConfig...)
		c.mu.Unlock()
		roleKind := make(map[string]fleet.BehaviorKind, len(config))
		for _, candidate := range config {
			roleKind[candidate.ID] = candidate.Behaviour.Kind
		}

		for _, shipSymbol := range c.LiveShipSymbols() {
			roleID, assigned := c.assignments.RoleFor(shipSymbol)
			if !assigned || roleKind[roleID] != fleet.BehaviorProbe {
				continue
			}
			if sym, ok := check(shipSymbol); ok {
				return sym, true
			}
		}
	}
	return "", false
}

// TryBuyShip attempts to purchase a ship for a single open role, following
// agent_controller.rs's try_buy_ship step for step:
//  1. never_purchase roles never buy.
//  2. shipyards selling the role's model in its purchase system, ascending
//     by price.
//  3. no shipyards -> FailedNoShipyards.
//  4. job_reservation: capacity*5000 for Logistics roles, else 0; compare
//     against the ledger's available credits.
//  5/6. walk shipyards ascending while affordable, looking for a
//     physically-present purchaser (a static probe there, or the supplied
//     purchaser ship); buy at the first match. require_cheapest stops the
//     walk if the cheapest shipyard had no purchaser.
//  7. no purchaser anywhere -> FailedNoPurchaser, naming the cheapest
//     shipyard only when allow_logistic_task permits ferrying one there.
func (c *Controller) TryBuyShip(ctx context.Context, rc fleet.ShipConfig, purchaser string) (BuyShipOutcome, string, error) {
	if rc.PurchaseCriteria.NeverPurchase {
		return BuyShipFailedNeverPurchase, "", nil
	}
	if c.assignments.IsRoleFilled(rc.ID) && !rc.AllowsMultipleShips() {
		return BuyShipBought, "", nil
	}

	purchaseSystem := rc.PurchaseCriteria.SystemSymbol
	if purchaseSystem == "" {
		purchaseSystem = c.StartingSystem
	}

	waypoints, err := c.cache.SearchShipyards(ctx, purchaseSystem, rc.ShipModel)
	if err != nil {
		return BuyShipFailedNoShipyards, "", err
	}
	if len(waypoints) == 0 {
		return BuyShipFailedNoShipyards, "", nil
	}

	shipyards, err := c.cache.GetSystemShipyards(ctx, purchaseSystem, c.token)
	if err != nil {
		return BuyShipFailedNoShipyards, "", err
	}

	var candidates []shipyardCandidate
	for _, wp := range waypoints {
		sy, ok := shipyards[wp]
		if !ok {
			continue
		}
		price, ok := sy.PriceFor(rc.ShipModel)
		if !ok {
			continue
		}
		candidates = append(candidates, shipyardCandidate{wp, int64(price)})
	}
	if len(candidates) == 0 {
		return BuyShipFailedNoShipyards, "", nil
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].price < candidates[j].price })

	var jobReservation int64
	if rc.Behaviour.Kind == fleet.BehaviorLogistics {
		jobReservation = int64(fleet.ShipModelCargoCapacity(rc.ShipModel)) * 5000
	}

	cheapest := candidates[0]
	available := c.ledger.AvailableCredits()
	lowCredits := available < cheapest.price+jobReservation

	for i, cand := range candidates {
		if available < cand.price+jobReservation {
			break
		}
		purchaserShip, found := c.purchaserAt(cand.waypoint, purchaser)
		if !found {
			if i == 0 && rc.PurchaseCriteria.RequireCheapest {
				break
			}
			continue
		}

		result, err := c.api.PurchaseShip(ctx, rc.ShipModel, cand.waypoint, c.token)
		if err != nil {
			return BuyShipFailedLowCredits, "", err
		}

		shipData, err := c.api.GetShip(ctx, result.ShipSymbol, c.token)
		if err != nil {
			return BuyShipBought, "", fmt.Errorf("purchased %s but failed to hydrate: %w", result.ShipSymbol, err)
		}
		ship, err := hydrateShip(shipData)
		if err != nil {
			return BuyShipBought, "", err
		}

		c.mu.Lock()
		c.ships[result.ShipSymbol] = &ShipCell{Ship: ship}
		c.mu.Unlock()

		if _, err := c.cache.RefreshShipyard(ctx, purchaseSystem, cand.waypoint, c.token); err != nil {
			c.logger.Printf("refresh shipyard %s after purchase: %v", cand.waypoint, err)
		}

		c.assignments.Assign(rc.ID, result.ShipSymbol)
		c.reserveCreditsForJob(result.ShipSymbol, rc)
		if agentData, err := c.api.GetAgent(ctx, c.token); err == nil {
			c.ledger.SetCredits(agentData.Credits)
		}

		c.logger.Printf("bought %s (%s) for role %s at %s via purchaser %s for %d credits", result.ShipSymbol, rc.ShipModel, rc.ID, cand.waypoint, purchaserShip, result.TotalPrice)
		return BuyShipBought, "", nil
	}

	if lowCredits {
		return BuyShipFailedLowCredits, "", nil
	}

	if rc.PurchaseCriteria.AllowLogisticTask {
		return BuyShipFailedNoPurchaser, cheapest.waypoint, nil
	}
	return BuyShipFailedNoPurchaser, "", nil
}

// TryBuyShips iterates every open role in priority order, attempting to
// buy for each, and stops at the first role whose purchase attempt fails
// for any reason other than "never_purchase" — a blocked higher-priority
// role should not be skipped in favor of a lower one. A role that was just
// bought or is already filled lets the loop go on. purchaser, if
// non-empty, names a ship to consider physically present wherever it
// currently sits (the ship that just drove a TryBuyShips task). Returns
// the ships bought and, if a role failed for want of a purchaser at a
// specific shipyard, that waypoint so the caller can emit a ferry task.
// Grounded on agent_controller.rs's try_buy_ships.
func (c *Controller) TryBuyShips(ctx context.Context, purchaser string) ([]string, string, error) {
	release, err := c.acquireTryBuyShipsLock(ctx)
	if err != nil {
		return nil, "", err
	}
	defer release()

	agentData, err := c.api.GetAgent(ctx, c.token)
	if err != nil {
		return nil, "", err
	}
	c.ledger.SetCredits(agentData.Credits)

	c.mu.Lock()
	config := append([]fleet.ShipConfig(nil), c.roleConfig...)
	c.mu.Unlock()

	var bought []string
	for _, rc := range config {
		if rc.AllowsMultipleShips() {
			continue
		}
		if c.assignments.IsRoleFilled(rc.ID) {
			continue
		}
		outcome, pickupWaypoint, err := c.TryBuyShip(ctx, rc, purchaser)
		if err != nil {
			return bought, "", err
		}
		switch outcome {
		case BuyShipBought:
			if shipSymbol, ok := c.assignments.ShipFor(rc.ID); ok {
				bought = append(bought, shipSymbol)
			}
			continue
		case BuyShipFailedNeverPurchase:
			continue
		case BuyShipFailedNoPurchaser:
			return bought, pickupWaypoint, nil
		default:
			return bought, "", nil
		}
	}
	return bought, "", nil
}

// ensureShipFit abandons a ship from role eligibility when a frame or
// reactor component condition has degraded below zero, matching
// spawn_run_ship's disqualifying-condition abort check.
func ensureShipFit(s *navigation.Ship) error {
	if s.HasDisqualifyingCondition() {
		return fmt.Errorf("ship %s disqualified: degraded component condition", s.ShipSymbol())
	}
	return nil
}
