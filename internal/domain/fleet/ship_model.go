package fleet

// shipModelCargoCapacity is a static lookup of the stock cargo capacity
// for every ship model this fleet's role catalog (roles.go) ever
// purchases. The original's equivalent is a hardcoded SHIP_MODELS table
// indexed by model symbol (agent_controller.rs:590,
// `SHIP_MODELS[job.ship_model.as_str()].cargo_capacity`); the filtered
// original-source set doesn't carry that table's definition, so these are
// the stock frame values for each model, needed only to estimate a
// Logistics role's job_reservation before a ship of that model is owned
// (spec.md §4.1 step 4).
var shipModelCargoCapacity = map[string]int{
	"SHIP_PROBE":              0,
	"SHIP_MINING_DRONE":       0,
	"SHIP_SIPHON_DRONE":       0,
	"SHIP_INTERCEPTOR":        0,
	"SHIP_SURVEYOR":           0,
	"SHIP_EXPLORER":           0,
	"SHIP_COMMAND_FRIGATE":    60,
	"SHIP_LIGHT_HAULER":       40,
	"SHIP_LIGHT_SHUTTLE":      40,
	"SHIP_ORE_HOUND":          30,
	"SHIP_REFINING_FREIGHTER": 75,
	"SHIP_HEAVY_FREIGHTER":    100,
}

// ShipModelCargoCapacity returns the stock cargo capacity for a ship
// model, or 0 if unknown.
func ShipModelCargoCapacity(model string) int {
	return shipModelCargoCapacity[model]
}
