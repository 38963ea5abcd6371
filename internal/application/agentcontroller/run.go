package agentcontroller

import (
	"context"
	"errors"
	"time"

	"github.com/kestrel-systems/fleetcore/internal/domain/fleet"
	"github.com/kestrel-systems/fleetcore/internal/domain/navigation"
	"github.com/kestrel-systems/fleetcore/internal/domain/shared"
)

var errUnknownShip = errors.New("agentcontroller: unknown ship symbol")

// ShipRunner starts a ship's behavior loop in the background. Satisfied by
// executor.Executor; declared here, narrowly, so this package never
// imports the executor package (the reverse dependency — executor on
// agentcontroller's ControllerAPI — is the one that actually needs
// resolving, per spec.md §2's dependency order).
type ShipRunner interface {
	RunShip(ctx context.Context, shipSymbol string, cfg fleet.ShipConfig)
}

// Run is the controller's top-level supervisor: it bootstraps from the
// live API, spawns every currently-assigned ship's executor loop, then
// ticks forever at ControllerTickInterval. Grounded on
// agent_controller.rs's run/controller_loop pair.
func (c *Controller) Run(ctx context.Context, runner ShipRunner) error {
	if err := c.Bootstrap(ctx); err != nil {
		return err
	}

	c.spawnAssigned(ctx, runner)

	ticker := time.NewTicker(c.cfg.ControllerTickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := c.ControllerTick(ctx, runner); err != nil {
				c.logger.Printf("controller tick failed: %v", err)
			}
		}
	}
}

// ControllerTick advances the era, attempts to buy any open roles, and
// spawns an executor loop for every newly bought or newly assigned ship.
// Grounded on agent_controller.rs's controller_tick.
func (c *Controller) ControllerTick(ctx context.Context, runner ShipRunner) error {
	if err := c.CheckEraAdvance(ctx); err != nil {
		return err
	}
	if _, _, err := c.TryBuyShips(ctx, ""); err != nil {
		c.logger.Printf("try_buy_ships: %v", err)
	}
	c.spawnAssigned(ctx, runner)
	c.saveAssignments(ctx)
	return nil
}

// spawnAssigned starts runner.RunShip for every live, assigned ship that
// is not already running, skipping ships with a disqualifying component
// condition (spawn_run_ship's abort check) and, when ScrapAllShips or
// ScrapUnassigned debug flags are set, scrapping rather than spawning.
func (c *Controller) spawnAssigned(ctx context.Context, runner ShipRunner) {
	c.mu.Lock()
	config := append([]fleet.ShipConfig(nil), c.roleConfig...)
	running := c.running
	if running == nil {
		running = make(map[string]bool)
		c.running = running
	}
	c.mu.Unlock()

	for _, rc := range config {
		shipSymbol, ok := c.assignments.ShipFor(rc.ID)
		if !ok {
			continue
		}
		c.mu.Lock()
		alreadyRunning := running[shipSymbol]
		c.mu.Unlock()
		if alreadyRunning {
			continue
		}

		cell := c.ShipCell(shipSymbol)
		if cell == nil {
			continue
		}
		if disqualifyErr := cell.With(ensureShipFit); disqualifyErr != nil {
			c.logger.Printf("ship %s disqualified from role %s, not spawning", shipSymbol, rc.ID)
			continue
		}

		if c.cfg.ScrapAllShips {
			c.scrapShip(ctx, shipSymbol)
			continue
		}

		c.mu.Lock()
		running[shipSymbol] = true
		c.mu.Unlock()
		runner.RunShip(ctx, shipSymbol, rc)
	}

	if c.cfg.ScrapUnassigned {
		for _, shipSymbol := range c.LiveShipSymbols() {
			if !c.assignments.IsShipAssigned(shipSymbol) {
				c.scrapShip(ctx, shipSymbol)
			}
		}
	}
}

func (c *Controller) scrapShip(ctx context.Context, shipSymbol string) {
	if _, err := c.api.ScrapShip(ctx, shipSymbol, c.token); err != nil {
		c.logger.Printf("scrap ship %s: %v", shipSymbol, err)
		return
	}
	c.mu.Lock()
	delete(c.ships, shipSymbol)
	c.mu.Unlock()
	c.logger.Printf("scrapped ship %s", shipSymbol)
}

// TransferCargo moves units of good from one ship to another, updating
// both ships' cargo aggregates in place. Grounded on
// agent_controller.rs's TransferActor::transfer_cargo.
func (c *Controller) TransferCargo(ctx context.Context, fromShip, toShip, good string, units int) error {
	fromCell := c.ShipCell(fromShip)
	toCell := c.ShipCell(toShip)
	if fromCell == nil || toCell == nil {
		return errUnknownShip
	}

	if _, err := c.api.TransferCargo(ctx, fromShip, good, units, toShip, c.token); err != nil {
		return err
	}

	if err := fromCell.With(func(s *navigation.Ship) error { return s.RemoveCargo(good, units) }); err != nil {
		return err
	}
	item, err := shared.NewCargoItem(good, good, "", units)
	if err != nil {
		return err
	}
	return toCell.With(func(s *navigation.Ship) error {
		return s.ReceiveCargo(item)
	})
}
