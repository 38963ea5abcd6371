package agentcontroller

import "strings"

// modelMatches reports whether a purchased ship's frame corresponds to the
// role's required shipyard model. The game API names frames
// "FRAME_<X>" and shipyard listings "SHIP_<X>" for the same hull in the
// common case (SHIP_PROBE -> FRAME_PROBE, SHIP_MINING_DRONE ->
// FRAME_DRONE, ...); ShipData never reports the model symbol a ship was
// purchased under, only its frame, so this is the best available
// correlation rather than an exact id match.
func modelMatches(shipModel, frameSymbol string) bool {
	suffix := strings.TrimPrefix(shipModel, "SHIP_")
	frame := strings.TrimPrefix(frameSymbol, "FRAME_")
	if suffix == frame {
		return true
	}
	// Drone/shuttle hull families collapse several ship models onto one
	// frame; match on the family keyword instead of the full suffix.
	families := []string{"DRONE", "SHUTTLE", "PROBE", "MINER", "SURVEYOR", "HAULER", "FRIGATE"}
	for _, fam := range families {
		if strings.Contains(suffix, fam) && strings.Contains(frame, fam) {
			return true
		}
	}
	return false
}
