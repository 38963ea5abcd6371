// Package executor is the Per-Ship Executor: one goroutine per live ship
// that repeatedly plans a schedule of actions and walks it to completion,
// persisting progress after each step so a restart resumes rather than
// re-plans from scratch. Grounded on
// _examples/original_source/src/ship_scripts/logistics.rs's run loop
// (schedule resume, cargo-state reconciliation, action execution) and
// _examples/original_source/src/ship_controller.rs (the per-action API
// calls every behavior ultimately bottoms out in).
package executor

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/kestrel-systems/fleetcore/internal/adapters/persistence"
	"github.com/kestrel-systems/fleetcore/internal/application/agentcontroller"
	"github.com/kestrel-systems/fleetcore/internal/application/broker"
	"github.com/kestrel-systems/fleetcore/internal/application/surveymanager"
	"github.com/kestrel-systems/fleetcore/internal/application/taskmanager"
	"github.com/kestrel-systems/fleetcore/internal/domain/construction"
	"github.com/kestrel-systems/fleetcore/internal/domain/fleet"
	"github.com/kestrel-systems/fleetcore/internal/domain/market"
	"github.com/kestrel-systems/fleetcore/internal/domain/navigation"
	"github.com/kestrel-systems/fleetcore/internal/domain/pathfinding"
	"github.com/kestrel-systems/fleetcore/internal/domain/shared"
	"github.com/kestrel-systems/fleetcore/internal/domain/shipyard"
	"github.com/kestrel-systems/fleetcore/internal/domain/task"
	"github.com/kestrel-systems/fleetcore/internal/infrastructure/logctx"
	"github.com/kestrel-systems/fleetcore/internal/infrastructure/ports"
)

// UniverseCache is the subset of universe.Cache the executor reads while
// walking a schedule, declared narrowly per this codebase's convention of
// never importing the adapters layer from an application package.
type UniverseCache interface {
	GetSystemWaypoints(ctx context.Context, systemSymbol, token string) ([]*shared.Waypoint, error)
	GetRoute(ctx context.Context, systemSymbol, token, src, dest string, speed int, startFuel, fuelCapacity int64) (pathfinding.Route, error)
	FullTravelMatrix(ctx context.Context, systemSymbol, token string, speed int, fuelCapacity int64) (map[string]map[string]int64, error)
	SaveMarket(ctx context.Context, m *market.Market) error
	RefreshMarket(ctx context.Context, systemSymbol, waypointSymbol, token string) (*market.Market, error)
	SaveShipyard(ctx context.Context, sy *shipyard.Shipyard) error
	RefreshShipyard(ctx context.Context, systemSymbol, waypointSymbol, token string) (*shipyard.Shipyard, error)
	UpdateConstruction(ctx context.Context, systemSymbol, waypointSymbol, token string) (*construction.Site, error)
	GetConstruction(ctx context.Context, waypointSymbol string) (*construction.Site, error)
	JumpgateGraph(ctx context.Context) (map[string][]string, error)
	RefreshJumpGate(ctx context.Context, systemSymbol, waypointSymbol, token string) ([]string, error)
	ConnectionsKnown(ctx context.Context, waypointSymbol string) (bool, error)
}

// Config holds the executor's tunables.
type Config struct {
	Token        string
	TickInterval time.Duration
	PlanHorizon  time.Duration
	NoGateMode   bool
}

// Executor runs every ship's behavior loop. It depends directly on
// *agentcontroller.Controller (no interface indirection) because the
// dependency is one-directional: agentcontroller only references this
// package through its own narrow ShipRunner interface, so no import cycle
// exists for executor to close.
type Executor struct {
	controller *agentcontroller.Controller
	tasks      *taskmanager.TaskManager
	surveys    *surveymanager.Manager
	brokers    *broker.Broker
	cache      UniverseCache
	api        ports.APIClient
	kv         *persistence.KVStore
	clock      shared.Clock
	cfg        Config
}

func New(controller *agentcontroller.Controller, tasks *taskmanager.TaskManager, surveys *surveymanager.Manager, brokers *broker.Broker, cache UniverseCache, api ports.APIClient, kv *persistence.KVStore, clock shared.Clock, cfg Config) *Executor {
	if cfg.TickInterval == 0 {
		cfg.TickInterval = 30 * time.Second
	}
	if cfg.PlanHorizon == 0 {
		cfg.PlanHorizon = 15 * time.Minute
	}
	return &Executor{
		controller: controller,
		tasks:      tasks,
		surveys:    surveys,
		brokers:    brokers,
		cache:      cache,
		api:        api,
		kv:         kv,
		clock:      clock,
		cfg:        cfg,
	}
}

// RunShip satisfies agentcontroller.ShipRunner: it starts shipSymbol's
// behavior loop in its own goroutine.
func (e *Executor) RunShip(ctx context.Context, shipSymbol string, cfg fleet.ShipConfig) {
	go e.runLoop(ctx, shipSymbol, cfg)
}

func (e *Executor) runLoop(ctx context.Context, shipSymbol string, cfg fleet.ShipConfig) {
	logger := logctx.ForShip(ctx, shipSymbol)

	for {
		idle, err := e.cycle(ctx, shipSymbol, cfg, logger)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			if errors.Is(err, errCargoMismatch) || errors.Is(err, taskmanager.ErrTakeTasksLockTimeout) {
				logger.Printf("terminating: %v", err)
				return
			}
			logger.Printf("cycle failed: %v", err)
		}

		wait := e.cfg.TickInterval
		if idle {
			wait = 5*time.Minute + time.Duration(e.clock.Now().UnixNano()%int64(5*time.Minute))
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}
	}
}

// cycle runs one schedule end to end: resume a persisted in-flight
// schedule if one exists, otherwise plan a fresh one; then walk its
// actions, reconciling the ship's actual cargo state against what the
// schedule expects before resuming (ship_scripts/logistics.rs's
// cargo_correct check). idle reports whether there was no work to do, the
// signal the caller uses to back off instead of hot-looping.
func (e *Executor) cycle(ctx context.Context, shipSymbol string, cfg fleet.ShipConfig, logger *log.Logger) (idle bool, err error) {
	cell := e.controller.ShipCell(shipSymbol)
	if cell == nil {
		return false, errors.New("executor: ship disappeared from fleet")
	}

	sched, progress, err := e.loadOrPlanSchedule(ctx, cell, shipSymbol, cfg)
	if err != nil {
		return false, err
	}
	if len(sched.Actions) == 0 {
		return true, nil
	}

	progress, err = e.reconcileCargo(ctx, cell, shipSymbol, sched, progress)
	if err != nil {
		// A contract violation: the schedule invariant is broken and this
		// ship's executor cannot safely keep walking it. Fatal per spec.md
		// §7 — the caller (runLoop) stops this ship's loop rather than
		// retrying against state it can no longer trust.
		e.clearSchedule(ctx, shipSymbol)
		return false, fmt.Errorf("%w: %w", errCargoMismatch, err)
	}

	for i := progress; i < len(sched.Actions); i++ {
		sa := sched.Actions[i]
		if err := e.gotoWaypoint(ctx, cell, sa.Waypoint, logger); err != nil {
			return false, err
		}
		if err := e.executeAction(ctx, cell, shipSymbol, sa, logger); err != nil {
			logger.Printf("action %s at %s failed: %v", sa.Action.Type, sa.Waypoint, err)
			return false, err
		}
		e.persistSchedule(ctx, shipSymbol, sched, i+1)
		if sa.CompletesTaskID != "" {
			e.tasks.CompleteTask(sa.CompletesTaskID)
		}
	}
	logger.Printf("completed %d scheduled actions", len(sched.Actions))
	e.clearSchedule(ctx, shipSymbol)
	return false, nil
}

// errCargoMismatch marks a cargo-reconciliation contract violation: the
// ship's actual cargo cannot be explained by any of the three recoverable
// cases spec.md §4.4 step 4 allows, so the executor's loop must stop
// rather than walk a schedule against state it can't trust.
var errCargoMismatch = errors.New("cargo reconciliation mismatch")

// reconcileCargo implements spec.md §4.4 step 4's four-way cargo
// reconciliation before resuming a schedule, matching
// ship_scripts/logistics.rs's cargo_correct check: compute the expected
// cargo from every already-executed action's net delta, then compare
// against what the ship actually carries.
//   - equal -> proceed at progress unchanged.
//   - equal once the next action's net delta is also applied -> that next
//     action already happened (e.g. a crash after the API call landed but
//     before progress was persisted); skip it.
//   - equal except for a nonzero FUEL surplus (possible after a warp,
//     which leaves fuel in cargo rather than the tank) -> dump the fuel,
//     then proceed at progress unchanged.
//   - otherwise -> fatal; returns a non-nil error wrapped in
//     errCargoMismatch by the caller.
func (e *Executor) reconcileCargo(ctx context.Context, cell *agentcontroller.ShipCell, shipSymbol string, sched task.Schedule, progress int) (int, error) {
	actual := actualCargo(cell)
	expected := sched.ExpectedCargo(progress)
	if mapsEqual(expected, actual) {
		return progress, nil
	}

	if progress < len(sched.Actions) {
		if withNext := applyDelta(expected, sched.Actions[progress].Action); mapsEqual(withNext, actual) {
			return progress + 1, nil
		}
	}

	if fuel := actual[shared.FuelSymbol]; fuel > 0 {
		withoutFuel := make(map[string]int, len(actual))
		for good, units := range actual {
			if good == shared.FuelSymbol {
				continue
			}
			withoutFuel[good] = units
		}
		if mapsEqual(expected, withoutFuel) {
			if err := e.dumpFuel(ctx, cell, shipSymbol, fuel); err != nil {
				return progress, fmt.Errorf("dump fuel surplus: %w", err)
			}
			return progress, nil
		}
	}

	return progress, fmt.Errorf("expected cargo %v, actual %v", expected, actual)
}

// applyDelta returns a copy of expected with action's net cargo delta
// folded in, zero-valued entries dropped.
func applyDelta(expected map[string]int, action task.Action) map[string]int {
	good, delta, affectsCargo := action.NetCargo()
	if !affectsCargo {
		return expected
	}
	out := make(map[string]int, len(expected)+1)
	for k, v := range expected {
		out[k] = v
	}
	out[good] += delta
	if out[good] == 0 {
		delete(out, good)
	}
	return out
}

// dumpFuel jettisons a fuel surplus left in cargo by a warp, updating both
// the remote ship and the local cargo snapshot.
func (e *Executor) dumpFuel(ctx context.Context, cell *agentcontroller.ShipCell, shipSymbol string, units int) error {
	if err := e.api.JettisonCargo(ctx, shipSymbol, shared.FuelSymbol, units, e.cfg.Token); err != nil {
		return err
	}
	return cell.With(func(s *navigation.Ship) error {
		return s.RemoveCargo(shared.FuelSymbol, units)
	})
}

func actualCargo(cell *agentcontroller.ShipCell) map[string]int {
	actual := make(map[string]int)
	_ = cell.With(func(s *navigation.Ship) error {
		for _, item := range s.Cargo().Inventory {
			actual[item.Symbol] = item.Units
		}
		return nil
	})
	return actual
}

func mapsEqual(a, b map[string]int) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if b[k] != v {
			return false
		}
	}
	return true
}

type persistedSchedule struct {
	Schedule task.Schedule
	Progress int
}

func (e *Executor) loadOrPlanSchedule(ctx context.Context, cell *agentcontroller.ShipCell, shipSymbol string, cfg fleet.ShipConfig) (task.Schedule, int, error) {
	if e.kv != nil {
		var saved persistedSchedule
		if err := e.kv.Get(ctx, shipSymbol+"/schedule", &saved); err == nil {
			if saved.Progress < len(saved.Schedule.Actions) {
				return saved.Schedule, saved.Progress, nil
			}
		}
	}
	if err := e.prepareForFreshPlan(ctx, cell, shipSymbol); err != nil {
		return task.Schedule{}, 0, err
	}
	sched, err := e.planSchedule(ctx, cell, shipSymbol, cfg)
	if err != nil {
		return task.Schedule{}, 0, err
	}
	e.persistSchedule(ctx, shipSymbol, sched, 0)
	return sched, 0, nil
}

// prepareForFreshPlan implements spec.md §4.4 step 2's precondition for
// planning a brand new schedule (no persisted in-flight one survives): a
// warp can leave FUEL sitting in cargo instead of the tank, so sell it off
// first, then assert cargo is empty — take_tasks assumes an empty hold.
func (e *Executor) prepareForFreshPlan(ctx context.Context, cell *agentcontroller.ShipCell, shipSymbol string) error {
	if fuel := actualCargo(cell)[shared.FuelSymbol]; fuel > 0 {
		if err := ensureDocked(cell); err != nil {
			return fmt.Errorf("dock to sell fuel surplus: %w", err)
		}
		result, err := e.api.SellCargo(ctx, shipSymbol, shared.FuelSymbol, fuel, e.cfg.Token)
		if err != nil {
			return fmt.Errorf("sell fuel surplus: %w", err)
		}
		if err := cell.With(func(s *navigation.Ship) error {
			return s.RemoveCargo(shared.FuelSymbol, fuel)
		}); err != nil {
			return err
		}
		if result.UnitsSold > 0 {
			e.controller.Ledger().RegisterGoodsChange(shipSymbol, shared.FuelSymbol, -result.UnitsSold, int64(result.TotalRevenue/result.UnitsSold))
		}
	}

	if actual := actualCargo(cell); len(actual) > 0 {
		return fmt.Errorf("%w: cargo not empty before planning a fresh schedule: %v", errCargoMismatch, actual)
	}
	return nil
}

func (e *Executor) persistSchedule(ctx context.Context, shipSymbol string, sched task.Schedule, progress int) {
	if e.kv == nil {
		return
	}
	_ = e.kv.Set(ctx, shipSymbol+"/schedule", persistedSchedule{Schedule: sched, Progress: progress})
}

func (e *Executor) clearSchedule(ctx context.Context, shipSymbol string) {
	if e.kv == nil {
		return
	}
	_ = e.kv.Delete(ctx, shipSymbol+"/schedule")
}
