package agentcontroller

import (
	"context"

	"github.com/kestrel-systems/fleetcore/internal/domain/fleet"
	"github.com/kestrel-systems/fleetcore/internal/domain/shared"
)

// GenerateShipConfig builds the fleet's current role catalog for a system,
// the Go equivalent of agent_controller.rs's generate_ship_config /
// ship_config_starter_system. The Rust source for
// ship_config_starter_system itself fell outside the filtered
// original-source set, so this catalog is synthesized from the confirmed
// BehaviorKind dispatch switch in spawn_run_ship and spec.md §3's
// ShipConfig entity rather than transcribed line for line.
//
// era gates which role tiers are offered, mirroring generate_ship_config's
// panic on InterSystem2 and the capital-system InterSystem1 branch: both
// surface here as ErrUnsupportedEra instead of a generated catalog.
func GenerateShipConfig(ctx context.Context, cache UniverseCache, startingSystem string, era fleet.Era, noGateMode bool, token string) ([]fleet.ShipConfig, error) {
	switch era {
	case fleet.EraStartingSystem1, fleet.EraStartingSystem2:
	default:
		return nil, fleet.ErrUnsupportedEra
	}

	waypoints, err := cache.GetSystemWaypoints(ctx, startingSystem, token)
	if err != nil {
		return nil, err
	}

	var config []fleet.ShipConfig

	config = append(config, fleet.ShipConfig{
		ID:        "logistics/command",
		ShipModel: "SHIP_COMMAND_FRIGATE",
		Behaviour: fleet.Behavior{
			Kind: fleet.BehaviorLogistics,
			Logistics: &fleet.LogisticsScriptConfig{
				AllowMarketRefresh: true,
				AllowShipbuying:    true,
				AllowConstruction:  true,
			},
		},
		PurchaseCriteria: fleet.PurchaseCriteria{NeverPurchase: true},
	})

	for _, wp := range waypoints {
		if !hasAnyTrait(wp, "MARKETPLACE", "SHIPYARD") {
			continue
		}
		config = append(config, fleet.ShipConfig{
			ID:        "probe/" + wp.Symbol,
			ShipModel: "SHIP_PROBE",
			Behaviour: fleet.Behavior{Kind: fleet.BehaviorProbe, Waypoints: []string{wp.Symbol}},
			PurchaseCriteria: fleet.PurchaseCriteria{
				SystemSymbol: startingSystem,
			},
		})
	}

	for i := 0; i < 2; i++ {
		config = append(config, fleet.ShipConfig{
			ID:        idForIndex("logistics/hauler", i),
			ShipModel: "SHIP_LIGHT_HAULER",
			Behaviour: fleet.Behavior{
				Kind: fleet.BehaviorLogistics,
				Logistics: &fleet.LogisticsScriptConfig{
					AllowMarketRefresh: true,
					AllowConstruction:  true,
				},
			},
			PurchaseCriteria: fleet.PurchaseCriteria{SystemSymbol: startingSystem, AllowLogisticTask: true},
		})
	}

	if !noGateMode {
		config = append(config, fleet.ShipConfig{
			ID:        "explore/jumpgate_probe",
			ShipModel: "SHIP_PROBE",
			Behaviour: fleet.Behavior{Kind: fleet.BehaviorJumpgateProbe},
			PurchaseCriteria: fleet.PurchaseCriteria{
				SystemSymbol: startingSystem,
			},
		})
	}

	if era == fleet.EraStartingSystem2 {
		config = append(config,
			fleet.ShipConfig{
				ID:               "mining/surveyor",
				ShipModel:        "SHIP_SURVEYOR",
				Behaviour:        fleet.Behavior{Kind: fleet.BehaviorMiningSurveyor},
				PurchaseCriteria: fleet.PurchaseCriteria{SystemSymbol: startingSystem},
			},
			fleet.ShipConfig{
				ID:               "mining/drone",
				ShipModel:        "SHIP_MINING_DRONE",
				Behaviour:        fleet.Behavior{Kind: fleet.BehaviorMiningDrone},
				PurchaseCriteria: fleet.PurchaseCriteria{SystemSymbol: startingSystem},
			},
			fleet.ShipConfig{
				ID:               "mining/shuttle",
				ShipModel:        "SHIP_LIGHT_SHUTTLE",
				Behaviour:        fleet.Behavior{Kind: fleet.BehaviorMiningShuttle},
				PurchaseCriteria: fleet.PurchaseCriteria{SystemSymbol: startingSystem},
			},
			fleet.ShipConfig{
				ID:               "siphon/drone",
				ShipModel:        "SHIP_SIPHON_DRONE",
				Behaviour:        fleet.Behavior{Kind: fleet.BehaviorSiphonDrone},
				PurchaseCriteria: fleet.PurchaseCriteria{SystemSymbol: startingSystem},
			},
			fleet.ShipConfig{
				ID:               "siphon/shuttle",
				ShipModel:        "SHIP_LIGHT_SHUTTLE",
				Behaviour:        fleet.Behavior{Kind: fleet.BehaviorSiphonShuttle},
				PurchaseCriteria: fleet.PurchaseCriteria{SystemSymbol: startingSystem},
			},
			fleet.ShipConfig{
				ID:        "construction/hauler",
				ShipModel: "SHIP_LIGHT_HAULER",
				Behaviour: fleet.Behavior{
					Kind: fleet.BehaviorConstructionHauler,
					Logistics: &fleet.LogisticsScriptConfig{
						AllowConstruction: true,
					},
				},
				PurchaseCriteria: fleet.PurchaseCriteria{SystemSymbol: startingSystem, AllowLogisticTask: true},
			},
			fleet.ShipConfig{
				ID:               "explore/explorer",
				ShipModel:        "SHIP_PROBE",
				Behaviour:        fleet.Behavior{Kind: fleet.BehaviorExplorer},
				PurchaseCriteria: fleet.PurchaseCriteria{NeverPurchase: true},
			},
		)
	}

	return config, nil
}

func hasAnyTrait(wp *shared.Waypoint, traits ...string) bool {
	for _, want := range traits {
		for _, t := range wp.Traits {
			if t == want {
				return true
			}
		}
	}
	return false
}

func idForIndex(prefix string, i int) string {
	const letters = "abcdefghijklmnopqrstuvwxyz"
	return prefix + "/" + string(letters[i%len(letters)])
}
