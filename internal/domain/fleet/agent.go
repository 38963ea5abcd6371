package fleet

import (
	"fmt"

	"github.com/kestrel-systems/fleetcore/internal/domain/shared"
)

// Agent is the player account the controller supervises: callsign,
// starting faction, headquarters waypoint, and its last-known credits
// balance. Grounded on spec.md §3's Agent entity; replaces the teacher's
// multi-tenant player.Player (dropped alongside the rest of the
// multi-tenant persistence layer, see DESIGN.md) since this fleet is
// single-agent.
type Agent struct {
	Callsign        string
	StartingFaction string
	Headquarters    string
	Credits         int64
}

func NewAgent(callsign, startingFaction, headquarters string, credits int64) (*Agent, error) {
	if callsign == "" {
		return nil, fmt.Errorf("agent callsign cannot be empty")
	}
	return &Agent{
		Callsign:        callsign,
		StartingFaction: startingFaction,
		Headquarters:    headquarters,
		Credits:         credits,
	}, nil
}

// StartingSystem derives the agent's starting system symbol from its
// headquarters waypoint.
func (a *Agent) StartingSystem() string {
	return shared.ExtractSystemSymbol(a.Headquarters)
}
