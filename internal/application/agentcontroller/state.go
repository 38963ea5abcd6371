package agentcontroller

import (
	"context"
	"errors"

	"github.com/kestrel-systems/fleetcore/internal/adapters/persistence"
)

// agentStateSnapshot is the KV-persisted shape of everything the
// controller needs to resume without re-deriving from the live API,
// stored under "<callsign>/state".
type agentStateSnapshot struct {
	Era string `json:"era"`
}

func (c *Controller) loadState(ctx context.Context) error {
	if c.kv == nil {
		return nil
	}
	var snap agentStateSnapshot
	if err := c.kv.Get(ctx, c.Callsign+"/state", &snap); err != nil {
		return err
	}
	c.mu.Lock()
	if snap.Era != "" {
		c.era = eraFromString(snap.Era)
	}
	c.mu.Unlock()

	var assignmentsWire map[string]string // roleID -> shipSymbol
	if err := c.kv.Get(ctx, c.Callsign+"/ship_assignments", &assignmentsWire); err == nil {
		for roleID, shipSymbol := range assignmentsWire {
			c.assignments.Assign(roleID, shipSymbol)
		}
	} else if !errors.Is(err, persistence.ErrKeyNotFound) {
		return err
	}

	var probeReserve map[string]string
	if err := c.kv.Get(ctx, c.Callsign+"/probe_jumpgate_reservations", &probeReserve); err == nil {
		c.probeReserveMu.Lock()
		c.probeJumpgateReserve = probeReserve
		c.probeReserveMu.Unlock()
	}

	var explorerReserve map[string]string
	if err := c.kv.Get(ctx, c.Callsign+"/explorer_reservations", &explorerReserve); err == nil {
		c.explorerReserveMu.Lock()
		c.explorerReservations = explorerReserve
		c.explorerReserveMu.Unlock()
	}

	return nil
}

func (c *Controller) saveState(ctx context.Context) {
	if c.kv == nil {
		return
	}
	c.mu.Lock()
	snap := agentStateSnapshot{Era: string(c.era)}
	c.mu.Unlock()
	_ = c.kv.Set(ctx, c.Callsign+"/state", snap)
}

func (c *Controller) saveAssignments(ctx context.Context) {
	if c.kv == nil {
		return
	}
	c.mu.Lock()
	wire := make(map[string]string)
	for _, rc := range c.roleConfig {
		if ship, ok := c.assignments.ShipFor(rc.ID); ok {
			wire[rc.ID] = ship
		}
	}
	c.mu.Unlock()
	_ = c.kv.Set(ctx, c.Callsign+"/ship_assignments", wire)
}

func (c *Controller) saveProbeJumpgateReservations(ctx context.Context) {
	if c.kv == nil {
		return
	}
	c.probeReserveMu.Lock()
	cp := make(map[string]string, len(c.probeJumpgateReserve))
	for k, v := range c.probeJumpgateReserve {
		cp[k] = v
	}
	c.probeReserveMu.Unlock()
	_ = c.kv.Set(ctx, c.Callsign+"/probe_jumpgate_reservations", cp)
}

func (c *Controller) saveExplorerReservations(ctx context.Context) {
	if c.kv == nil {
		return
	}
	c.explorerReserveMu.Lock()
	cp := make(map[string]string, len(c.explorerReservations))
	for k, v := range c.explorerReservations {
		cp[k] = v
	}
	c.explorerReserveMu.Unlock()
	_ = c.kv.Set(ctx, c.Callsign+"/explorer_reservations", cp)
}
