package agentcontroller

import (
	"context"

	"github.com/kestrel-systems/fleetcore/internal/domain/fleet"
)

func eraFromString(s string) fleet.Era {
	e := fleet.Era(s)
	if e.Valid() {
		return e
	}
	return fleet.EraStartingSystem1
}

// CheckEraAdvance applies fleet.NextEra to a fixed point against the
// ledger's current available credits, persisting each transition and
// regenerating the role config it triggers. Grounded on
// agent_controller.rs's controller_tick era-advance loop.
func (c *Controller) CheckEraAdvance(ctx context.Context) error {
	for {
		c.mu.Lock()
		current := c.era
		c.mu.Unlock()

		next := fleet.NextEra(current, c.ledger.AvailableCredits())
		if next == current {
			return nil
		}

		c.mu.Lock()
		c.era = next
		c.mu.Unlock()
		c.logger.Printf("era advance: %s -> %s", current, next)
		c.saveState(ctx)

		if err := c.RefreshShipConfig(ctx); err != nil {
			return err
		}
	}
}
