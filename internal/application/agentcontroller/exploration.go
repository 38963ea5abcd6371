package agentcontroller

import (
	"context"
	"sort"
)

// GetProbeJumpgateReservation returns the jumpgate system ship_symbol
// should explore, reserving a new one — the closest reachable, uncharted,
// unreserved gate from the ship's current jumpgate graph position — the
// first time it's asked. Grounded on agent_controller.rs's
// get_probe_jumpgate_reservation.
func (c *Controller) GetProbeJumpgateReservation(ctx context.Context, shipSymbol, shipSystem string) (string, bool, error) {
	c.probeReserveMu.Lock()
	if existing, ok := c.probeJumpgateReserve[shipSymbol]; ok {
		c.probeReserveMu.Unlock()
		return existing, true, nil
	}
	c.probeReserveMu.Unlock()

	graph, err := c.cache.JumpgateGraph(ctx)
	if err != nil {
		return "", false, err
	}

	distances := bfsDistances(graph, shipSystem)
	type candidate struct {
		system   string
		distance int
	}
	var candidates []candidate
	for system, d := range distances {
		candidates = append(candidates, candidate{system, d})
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].distance < candidates[j].distance })

	c.probeReserveMu.Lock()
	defer c.probeReserveMu.Unlock()

	reserved := make(map[string]bool, len(c.probeJumpgateReserve))
	for _, sys := range c.probeJumpgateReserve {
		reserved[sys] = true
	}

	for _, cand := range candidates {
		known, err := c.cache.ConnectionsKnown(ctx, cand.system)
		if err != nil {
			continue
		}
		if known || reserved[cand.system] {
			continue
		}
		c.probeJumpgateReserve[shipSymbol] = cand.system
		c.saveProbeJumpgateReservations(ctx)
		return cand.system, true, nil
	}
	return "", false, nil
}

// ClearProbeJumpgateReservation releases ship_symbol's reservation once its
// connections are fully known.
func (c *Controller) ClearProbeJumpgateReservation(ctx context.Context, shipSymbol string) {
	c.probeReserveMu.Lock()
	delete(c.probeJumpgateReserve, shipSymbol)
	c.probeReserveMu.Unlock()
	c.saveProbeJumpgateReservations(ctx)
}

// GetExplorerReservation returns the starter system ship_symbol should
// travel to and survey, reserving the closest unreserved one by warp
// distance. Grounded on agent_controller.rs's get_explorer_reservation;
// simplified to treat every system in the warp graph as a candidate
// destination, since this port's shared.System has no "is starter system"
// concept (see DESIGN.md).
func (c *Controller) GetExplorerReservation(ctx context.Context, shipSymbol, shipSystem string) (string, bool, error) {
	c.explorerReserveMu.Lock()
	if existing, ok := c.explorerReservations[shipSymbol]; ok {
		c.explorerReserveMu.Unlock()
		return existing, true, nil
	}
	c.explorerReserveMu.Unlock()

	graph, err := c.cache.WarpJumpGraph(ctx)
	if err != nil {
		return "", false, err
	}
	distances := bfsDistances(graph, shipSystem)
	distances[shipSystem] = 0

	type candidate struct {
		system   string
		distance int
	}
	var candidates []candidate
	for system, d := range distances {
		candidates = append(candidates, candidate{system, d})
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].distance < candidates[j].distance })

	c.explorerReserveMu.Lock()
	defer c.explorerReserveMu.Unlock()

	reserved := make(map[string]bool, len(c.explorerReservations))
	for _, sys := range c.explorerReservations {
		reserved[sys] = true
	}

	for _, cand := range candidates {
		if reserved[cand.system] {
			continue
		}
		c.explorerReservations[shipSymbol] = cand.system
		c.saveExplorerReservations(ctx)
		return cand.system, true, nil
	}
	return "", false, nil
}

// bfsDistances computes unweighted hop counts from start across an
// adjacency map, standing in for the original's weighted dijkstra_all
// since both JumpgateGraph and WarpJumpGraph expose plain adjacency lists
// rather than edge weights (see DESIGN.md).
func bfsDistances(graph map[string][]string, start string) map[string]int {
	dist := map[string]int{start: 0}
	queue := []string{start}
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		for _, next := range graph[node] {
			if _, seen := dist[next]; seen {
				continue
			}
			dist[next] = dist[node] + 1
			queue = append(queue, next)
		}
	}
	return dist
}
