// Package construction models a system's jump gate construction site and
// the supply-chain redirect policy the task manager applies while it is
// incomplete. Grounded on _examples/original_source/src/tasks.rs, the
// sections building good_import_permits / good_req_constant_flow /
// market_capped_import.
package construction

import "errors"

// Material is one required trade good of a construction site, with how much
// has been delivered so far.
type Material struct {
	TradeSymbol string
	Required    int
	Fulfilled   int
}

func (m Material) Incomplete() bool {
	return m.Fulfilled < m.Required
}

// Site is a waypoint's jump gate construction site.
type Site struct {
	WaypointSymbol string
	Materials      []Material
	IsComplete     bool
}

func NewSite(waypointSymbol string, materials []Material) (*Site, error) {
	if waypointSymbol == "" {
		return nil, errors.New("waypoint symbol cannot be empty")
	}
	complete := true
	for _, m := range materials {
		if m.Incomplete() {
			complete = false
			break
		}
	}
	return &Site{WaypointSymbol: waypointSymbol, Materials: materials, IsComplete: complete}, nil
}

// IncompleteMaterials returns the trade symbols still short of their
// required amount.
func (s *Site) IncompleteMaterials() []string {
	var out []string
	for _, m := range s.Materials {
		if m.Incomplete() {
			out = append(out, m.TradeSymbol)
		}
	}
	return out
}

// Canonical construction goods the policy in spec.md §4.2 knows how to
// redirect supply chains for.
const (
	GoodFabMats            = "FAB_MATS"
	GoodAdvancedCircuitry  = "ADVANCED_CIRCUITRY"
)

// supplyChain lists, for each top-level construction good, the intermediate
// goods that feed its production chain (ore -> refined -> component),
// mirroring tasks.rs's hardcoded redirect sets.
var supplyChain = map[string][]string{
	GoodFabMats: {
		"FAB_MATS", "IRON", "IRON_ORE", "QUARTZ_SAND",
	},
	GoodAdvancedCircuitry: {
		"ADVANCED_CIRCUITRY", "ELECTRONICS", "MICROPROCESSORS",
		"SILICON_CRYSTALS", "COPPER", "COPPER_ORE",
	},
}

// constantFlow marks the intermediate goods (everything except the final
// construction good itself, since spec.md says "the final construction good
// itself is not constant-flow") that bypass the Strong-activity
// price-avoidance rule during arbitrage generation.
var constantFlow = map[string]bool{
	"IRON": true, "IRON_ORE": true, "QUARTZ_SAND": true,
	"ELECTRONICS": true, "MICROPROCESSORS": true,
	"SILICON_CRYSTALS": true, "COPPER": true, "COPPER_ORE": true,
}

// RedirectPolicy is the set of supply-chain redirects active for a system's
// incomplete construction site: which goods should only be sold into a
// restricted allowlist of markets, which goods are constant-flow, and the
// per-(market,good) import caps that prevent runaway over-evolution of a
// consumer market (e.g. IRON at a fabricator capped at TV 120).
type RedirectPolicy struct {
	// SellAllowlist restricts a good's sell-side candidates to this set of
	// waypoints when non-empty.
	SellAllowlist map[string][]string
	ConstantFlow  map[string]bool
	ImportCaps    map[ImportCapKey]int
}

// ImportCapKey identifies a single (market, good) import cap.
type ImportCapKey struct {
	Waypoint string
	Good     string
}

// BuildRedirectPolicy derives the redirect policy for a construction site,
// given resolvers that locate the fabricator/smeltery/electronics/
// microprocessor markets for this system by their import/export sets, and
// the configured import cap defaults (spec.md §9 externalizes these).
func BuildRedirectPolicy(site *Site, noGateMode bool, marketsByGood func(tradeSymbol string) []string, defaultCaps map[string]int) RedirectPolicy {
	policy := RedirectPolicy{
		SellAllowlist: map[string][]string{},
		ConstantFlow:  map[string]bool{},
		ImportCaps:    map[ImportCapKey]int{},
	}
	if site == nil || site.IsComplete || noGateMode {
		return policy
	}

	for _, incomplete := range site.IncompleteMaterials() {
		chain, ok := supplyChain[incomplete]
		if !ok {
			continue
		}
		// Every good in the chain is restricted to wherever the *final*
		// chain good is produced/consumed, per tasks.rs's redirect logic.
		markets := marketsByGood(incomplete)
		for _, good := range chain {
			if len(markets) > 0 {
				policy.SellAllowlist[good] = markets
			}
			if constantFlow[good] {
				policy.ConstantFlow[good] = true
			}
			if cap, ok := defaultCaps[good]; ok {
				for _, wp := range markets {
					policy.ImportCaps[ImportCapKey{Waypoint: wp, Good: good}] = cap
				}
			}
		}
	}
	return policy
}
