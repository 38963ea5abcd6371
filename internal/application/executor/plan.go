package executor

import (
	"context"
	"errors"

	"github.com/kestrel-systems/fleetcore/internal/application/agentcontroller"
	"github.com/kestrel-systems/fleetcore/internal/application/taskmanager"
	"github.com/kestrel-systems/fleetcore/internal/domain/fleet"
	"github.com/kestrel-systems/fleetcore/internal/domain/navigation"
	"github.com/kestrel-systems/fleetcore/internal/domain/shared"
	"github.com/kestrel-systems/fleetcore/internal/domain/task"
)

// errNoJumpGate marks a system whose waypoint list carries no JUMP_GATE
// trait, which should never happen for a reserved jumpgate-probe target.
var errNoJumpGate = errors.New("executor: system has no jump gate waypoint")

// shipSnapshot is a point-in-time read of the fields every planner needs,
// taken under the ship cell's lock once rather than threading cell.With
// calls through each behavior's planning logic.
type shipSnapshot struct {
	symbol   string
	system   string
	location string
	capacity int
	speed    int
	fuelCap  int64
	cargo    map[string]int
}

func (e *Executor) snapshot(cell *agentcontroller.ShipCell) shipSnapshot {
	var snap shipSnapshot
	_ = cell.With(func(s *navigation.Ship) error {
		snap.symbol = s.ShipSymbol()
		loc := s.CurrentLocation()
		snap.location = loc.Symbol
		snap.system = loc.SystemSymbol
		snap.capacity = s.CargoCapacity()
		snap.speed = s.EngineSpeed()
		snap.fuelCap = int64(s.FuelCapacity())
		snap.cargo = make(map[string]int)
		for _, item := range s.Cargo().Inventory {
			snap.cargo[item.Symbol] = item.Units
		}
		return nil
	})
	return snap
}

// planSchedule builds the next schedule for shipSymbol, dispatching on its
// role behavior. Logistics and Construction Hauler roles pull from the
// Logistic Task Manager's take_tasks, the only behavior the filtered
// original-source ship_scripts set actually carries (logistics.rs); every
// other behavior is a fixed, repeating loop synthesized from spec.md §3's
// behavior catalog and this package's own action vocabulary (see
// DESIGN.md).
func (e *Executor) planSchedule(ctx context.Context, cell *agentcontroller.ShipCell, shipSymbol string, cfg fleet.ShipConfig) (task.Schedule, error) {
	snap := e.snapshot(cell)

	switch cfg.Behaviour.Kind {
	case fleet.BehaviorLogistics, fleet.BehaviorConstructionHauler:
		return e.planLogisticsSchedule(ctx, snap, cfg)
	case fleet.BehaviorProbe:
		return e.planProbeSchedule(ctx, snap, cfg)
	case fleet.BehaviorJumpgateProbe:
		return e.planJumpgateProbeSchedule(ctx, snap)
	case fleet.BehaviorExplorer:
		return e.planExplorerSchedule(ctx, snap)
	case fleet.BehaviorMiningSurveyor:
		return e.planSurveyorSchedule(snap)
	case fleet.BehaviorMiningDrone:
		return e.planExtractionSchedule(snap, task.ActionExtract)
	case fleet.BehaviorSiphonDrone:
		return e.planExtractionSchedule(snap, task.ActionSiphon)
	case fleet.BehaviorMiningShuttle, fleet.BehaviorSiphonShuttle:
		return e.planShuttleSchedule(ctx, snap)
	default:
		return task.Schedule{ShipSymbol: shipSymbol}, nil
	}
}

// planLogisticsSchedule delegates to the Logistic Task Manager, the
// behavior take_tasks was written for (spec.md §4.2/§4.4).
func (e *Executor) planLogisticsSchedule(ctx context.Context, snap shipSnapshot, cfg fleet.ShipConfig) (task.Schedule, error) {
	coverage := taskmanager.Coverage{StaticallyProbed: e.controller.StaticallyProbedWaypoints()}
	return e.tasks.TakeTasks(
		ctx,
		snap.symbol, snap.system, e.controller.StartingSystem, e.cfg.Token,
		cfg,
		snap.capacity, snap.speed, snap.fuelCap,
		snap.location,
		e.cfg.PlanHorizon,
		coverage,
	)
}

// planProbeSchedule keeps a stationary probe cycling a refresh of every
// watched waypoint's market and shipyard data, skipping a waypoint
// entirely once its traits show it has neither (a probe assigned to a
// waypoint that turns out to be neither is simply idle there).
func (e *Executor) planProbeSchedule(ctx context.Context, snap shipSnapshot, cfg fleet.ShipConfig) (task.Schedule, error) {
	sched := task.Schedule{ShipSymbol: snap.symbol}
	for _, wp := range cfg.Behaviour.Waypoints {
		resolved, err := e.waypoint(ctx, snap.system, wp)
		if err != nil {
			continue
		}
		if hasTrait(resolved, "MARKETPLACE") {
			sched.Actions = append(sched.Actions, task.ScheduledAction{
				Waypoint: wp,
				Action:   task.Action{Type: task.ActionRefreshMarket},
			})
		}
		if hasTrait(resolved, "SHIPYARD") {
			sched.Actions = append(sched.Actions, task.ScheduledAction{
				Waypoint: wp,
				Action:   task.Action{Type: task.ActionRefreshShipyard},
			})
		}
	}
	return sched, nil
}

func hasTrait(wp *shared.Waypoint, trait string) bool {
	for _, t := range wp.Traits {
		if t == trait {
			return true
		}
	}
	return false
}

// planJumpgateProbeSchedule sends a jumpgate probe to its reserved,
// uncharted system's gate to chart its connections, releasing the
// reservation once that system is fully known so the next cycle claims a
// new one. Grounded on
// agentcontroller.Controller.GetProbeJumpgateReservation.
func (e *Executor) planJumpgateProbeSchedule(ctx context.Context, snap shipSnapshot) (task.Schedule, error) {
	target, ok, err := e.controller.GetProbeJumpgateReservation(ctx, snap.symbol, snap.system)
	if err != nil {
		return task.Schedule{}, err
	}
	if !ok {
		return task.Schedule{ShipSymbol: snap.symbol}, nil
	}

	known, err := e.cache.ConnectionsKnown(ctx, target)
	if err == nil && known {
		e.controller.ClearProbeJumpgateReservation(ctx, snap.symbol)
		return task.Schedule{ShipSymbol: snap.symbol}, nil
	}

	gate, err := e.jumpGateOf(ctx, target)
	if err != nil {
		return task.Schedule{}, err
	}

	return task.Schedule{
		ShipSymbol: snap.symbol,
		Actions: []task.ScheduledAction{
			{Waypoint: gate, Action: task.Action{Type: task.ActionChartJumpGate}},
		},
	}, nil
}

// planExplorerSchedule sends an explorer to its reserved, unvisited system
// and surveys a representative waypoint there to populate the universe
// cache, a simplification of get_explorer_reservation's fuller discovery
// loop (see DESIGN.md).
func (e *Executor) planExplorerSchedule(ctx context.Context, snap shipSnapshot) (task.Schedule, error) {
	target, ok, err := e.controller.GetExplorerReservation(ctx, snap.symbol, snap.system)
	if err != nil {
		return task.Schedule{}, err
	}
	if !ok || target == snap.system {
		return task.Schedule{ShipSymbol: snap.symbol}, nil
	}

	waypoints, err := e.cache.GetSystemWaypoints(ctx, target, e.cfg.Token)
	if err != nil || len(waypoints) == 0 {
		return task.Schedule{ShipSymbol: snap.symbol}, nil
	}

	var dest *shared.Waypoint
	for _, wp := range waypoints {
		if hasTrait(wp, "MARKETPLACE") {
			dest = wp
			break
		}
	}
	if dest == nil {
		dest = waypoints[0]
	}

	action := task.Action{Type: task.ActionRefreshMarket}
	if !hasTrait(dest, "MARKETPLACE") {
		action = task.Action{Type: task.ActionSurvey}
	}

	return task.Schedule{
		ShipSymbol: snap.symbol,
		Actions: []task.ScheduledAction{
			{Waypoint: dest.Symbol, Action: action},
		},
	}, nil
}

// planSurveyorSchedule keeps a mining surveyor parked at its site
// generating fresh surveys for the drones sharing that system's pool.
func (e *Executor) planSurveyorSchedule(snap shipSnapshot) (task.Schedule, error) {
	if snap.location == "" {
		return task.Schedule{ShipSymbol: snap.symbol}, nil
	}
	return task.Schedule{
		ShipSymbol: snap.symbol,
		Actions: []task.ScheduledAction{
			{Waypoint: snap.location, Action: task.Action{Type: task.ActionSurvey}},
		},
	}, nil
}

// planExtractionSchedule runs a mining or siphon drone's core loop at its
// current site: pull resources aboard, then hand the haul off to whatever
// shuttle is parked at the same waypoint via the Cargo Broker.
func (e *Executor) planExtractionSchedule(snap shipSnapshot, extractType task.ActionType) (task.Schedule, error) {
	if snap.location == "" {
		return task.Schedule{ShipSymbol: snap.symbol}, nil
	}
	return task.Schedule{
		ShipSymbol: snap.symbol,
		Actions: []task.ScheduledAction{
			{Waypoint: snap.location, Action: task.Action{Type: extractType}},
			{Waypoint: snap.location, Action: task.Action{Type: task.ActionReceiveCargo}},
		},
	}, nil
}

// planShuttleSchedule runs a mining or siphon shuttle's core loop: once it
// is already carrying a haul, ferry it to the nearest marketplace and sell
// everything aboard; otherwise sit at the site receiving cargo handed off
// by drones through the Cargo Broker.
func (e *Executor) planShuttleSchedule(ctx context.Context, snap shipSnapshot) (task.Schedule, error) {
	if len(snap.cargo) > 0 {
		waypoints, err := e.cache.GetSystemWaypoints(ctx, snap.system, e.cfg.Token)
		if err != nil {
			return task.Schedule{}, err
		}
		var market *shared.Waypoint
		for _, wp := range waypoints {
			if hasTrait(wp, "MARKETPLACE") {
				market = wp
				break
			}
		}
		if market == nil {
			return task.Schedule{ShipSymbol: snap.symbol}, nil
		}

		sched := task.Schedule{ShipSymbol: snap.symbol}
		for good, units := range snap.cargo {
			sched.Actions = append(sched.Actions, task.ScheduledAction{
				Waypoint: market.Symbol,
				Action:   task.Action{Type: task.ActionSellGoods, Good: good, Units: units},
			})
		}
		return sched, nil
	}

	if snap.location == "" {
		return task.Schedule{ShipSymbol: snap.symbol}, nil
	}
	return task.Schedule{
		ShipSymbol: snap.symbol,
		Actions: []task.ScheduledAction{
			{Waypoint: snap.location, Action: task.Action{Type: task.ActionReceiveCargo}},
		},
	}, nil
}

// jumpGateOf returns the JUMP_GATE waypoint of systemSymbol.
func (e *Executor) jumpGateOf(ctx context.Context, systemSymbol string) (string, error) {
	waypoints, err := e.cache.GetSystemWaypoints(ctx, systemSymbol, e.cfg.Token)
	if err != nil {
		return "", err
	}
	for _, wp := range waypoints {
		if hasTrait(wp, "JUMP_GATE") {
			return wp.Symbol, nil
		}
	}
	return "", errNoJumpGate
}
