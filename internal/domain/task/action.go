package task

// ActionType is the executor's action catalog: spec.md §4.4's actions plus
// ActionChartJumpGate.
type ActionType string

const (
	ActionRefreshMarket       ActionType = "REFRESH_MARKET"
	ActionRefreshShipyard     ActionType = "REFRESH_SHIPYARD"
	ActionBuyGoods            ActionType = "BUY_GOODS"
	ActionSellGoods           ActionType = "SELL_GOODS"
	ActionDeliverConstruction ActionType = "DELIVER_CONSTRUCTION"
	ActionDeliverContract     ActionType = "DELIVER_CONTRACT"
	ActionSupplyConstruction  ActionType = "SUPPLY_CONSTRUCTION"
	ActionJettison            ActionType = "JETTISON"
	ActionTryBuyShips         ActionType = "TRY_BUY_SHIPS"
	ActionTransferCargo       ActionType = "TRANSFER_CARGO"
	ActionReceiveCargo        ActionType = "RECEIVE_CARGO"
	ActionSiphon              ActionType = "SIPHON"
	ActionSurvey              ActionType = "SURVEY"
	ActionExtractSurvey       ActionType = "EXTRACT_SURVEY"
	ActionExtract             ActionType = "EXTRACT"
	ActionChartJumpGate       ActionType = "CHART_JUMP_GATE"
	ActionScrap               ActionType = "SCRAP"
	ActionSetFlightMode       ActionType = "SET_FLIGHT_MODE"
	ActionJump                ActionType = "JUMP"
	ActionWarp                ActionType = "WARP"
)

// Action is one concrete, executor-level step. Only the fields relevant to
// its Type are populated.
type Action struct {
	Type ActionType

	Good  string
	Units int

	FlightMode  string // ActionSetFlightMode, ActionWarp
	Destination string // ActionJump, ActionWarp

	SurveyID        string // ActionExtractSurvey
	CounterpartShip string // ActionTransferCargo

	CompletesTaskID string
}

// NetCargo returns the signed cargo delta this action causes, and whether
// it affects cargo at all — the building block for the per-ship executor's
// expectedCargo reconciliation (ship_scripts/logistics.rs's net_cargo()).
func (a Action) NetCargo() (good string, delta int, affectsCargo bool) {
	switch a.Type {
	case ActionBuyGoods, ActionReceiveCargo:
		return a.Good, a.Units, true
	case ActionSellGoods, ActionDeliverConstruction, ActionDeliverContract,
		ActionSupplyConstruction, ActionJettison, ActionTransferCargo:
		return a.Good, -a.Units, true
	default:
		return "", 0, false
	}
}

// ScheduledAction is one step of a ship's Schedule.
type ScheduledAction struct {
	Waypoint        string
	Action          Action
	CompletesTaskID string
}

// Schedule is an ordered sequence of scheduled actions for exactly one
// ship, produced by take_tasks.
type Schedule struct {
	ShipSymbol string
	Actions    []ScheduledAction
}

// ExpectedCargo sums the net-cargo deltas of the first n actions, dropping
// zero-valued entries — spec.md §4.4's cargo-reconciliation building block.
func (s Schedule) ExpectedCargo(n int) map[string]int {
	out := map[string]int{}
	if n > len(s.Actions) {
		n = len(s.Actions)
	}
	for _, sa := range s.Actions[:n] {
		good, delta, ok := sa.Action.NetCargo()
		if !ok {
			continue
		}
		out[good] += delta
	}
	for g, v := range out {
		if v == 0 {
			delete(out, g)
		}
	}
	return out
}
