// Package fleet holds the Agent Controller's role/era vocabulary: the
// developmental era machine and the ShipConfig catalog it generates, plus
// the bidirectional role<->ship assignment map. Grounded on
// _examples/original_source/src/agent_controller/agent_controller.rs's
// AgentEra enum and generate_ship_config/try_buy_ship logic.
package fleet

import "fmt"

// Era is one of the fleet's developmental stages. The controller tick
// advances through these in order as credit thresholds are crossed.
type Era string

const (
	EraStartingSystem1 Era = "STARTING_SYSTEM_1"
	EraStartingSystem2 Era = "STARTING_SYSTEM_2"
	EraInterSystem1    Era = "INTER_SYSTEM_1"
	EraInterSystem2    Era = "INTER_SYSTEM_2"
)

func (e Era) Valid() bool {
	switch e {
	case EraStartingSystem1, EraStartingSystem2, EraInterSystem1, EraInterSystem2:
		return true
	default:
		return false
	}
}

// StartingSystem2Threshold is the available-credits level that triggers the
// only currently-active era transition.
const StartingSystem2Threshold = 800_000

// ErrUnsupportedEra is returned by role generators that the original
// implementation itself panics on (InterSystem2 and the capital-system
// generator for InterSystem1). Preserved as a fatal error rather than
// guessed at, per the open-question decision recorded in DESIGN.md.
var ErrUnsupportedEra = fmt.Errorf("era not supported by role generation")

// NextEra returns the era that should follow the current one given the
// ledger's current available credits, or the same era if no transition
// applies. Callers loop this until a fixed point is reached, persisting
// each advance before the next is considered.
func NextEra(current Era, availableCredits int64) Era {
	if current == EraStartingSystem1 && availableCredits >= StartingSystem2Threshold {
		return EraStartingSystem2
	}
	return current
}
