// Package taskmanager is the Logistic Task Manager: it enumerates candidate
// tasks for a system (market/shipyard refresh, arbitrage, construction
// delivery) and assigns them to a ship via take_tasks. Grounded on
// _examples/original_source/src/tasks.rs's generate_tasks/take_tasks pair.
package taskmanager

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/kestrel-systems/fleetcore/internal/adapters/persistence"
	"github.com/kestrel-systems/fleetcore/internal/domain/construction"
	"github.com/kestrel-systems/fleetcore/internal/domain/fleet"
	"github.com/kestrel-systems/fleetcore/internal/domain/ledger"
	"github.com/kestrel-systems/fleetcore/internal/domain/market"
	"github.com/kestrel-systems/fleetcore/internal/domain/shared"
	"github.com/kestrel-systems/fleetcore/internal/domain/shipyard"
	"github.com/kestrel-systems/fleetcore/internal/domain/task"
	"github.com/kestrel-systems/fleetcore/pkg/idgen"
)

// ErrTakeTasksLockTimeout is returned when the global take-tasks lock
// cannot be acquired within the timeout, a fatal condition per spec.md
// §4.2's "this is a contract violation" note.
var ErrTakeTasksLockTimeout = errors.New("taskmanager: take_tasks lock timeout")

// defaultCapacityCap bounds how many units of a good an arbitrage task asks
// for before any specific ship's cargo capacity is known at generation
// time. Chosen as a representative large hauler's hold; neither the planner
// nor the executor reduces a task's units to the assigned ship's real
// cargo capacity.
const defaultCapacityCap = 100

// UniverseCache is the read-through cache of system state the manager
// queries while generating tasks. Satisfied by universe.Cache; declared
// narrowly here so this package never imports the adapters layer directly.
type UniverseCache interface {
	GetSystemWaypoints(ctx context.Context, systemSymbol, token string) ([]*shared.Waypoint, error)
	GetSystemMarkets(ctx context.Context, systemSymbol, token string) (map[string]*market.Market, error)
	GetSystemShipyards(ctx context.Context, systemSymbol, token string) (map[string]*shipyard.Shipyard, error)
	GetConstruction(ctx context.Context, waypointSymbol string) (*construction.Site, error)
	FullTravelMatrix(ctx context.Context, systemSymbol, token string, speed int, fuelCapacity int64) (map[string]map[string]int64, error)
}

// Coverage narrows task generation against waypoints the Agent Controller
// already has standing coverage of (a stationed probe, a construction
// hauler's home base), passed in as predicates to avoid an import cycle
// back to agentcontroller.
type Coverage struct {
	StaticallyProbed func(waypointSymbol string) bool
}

// Config holds the manager's tunables, sourced from infrastructure/config.
type Config struct {
	MinProfit            int64
	ImportCaps           map[string]int
	NoGateMode           bool
	DisableTradingTasks  bool
	TakeTasksLockTimeout time.Duration
}

// TaskManager is the Logistic Task Manager.
type TaskManager struct {
	cache   UniverseCache
	ledger  *ledger.Reservations
	kv      *persistence.KVStore
	cfg     Config
	planner Planner

	lockCh chan struct{}

	mu         sync.Mutex
	inProgress map[string]task.Task // taskID -> task, with AssignedShip/StartedAt set
}

// New builds a TaskManager. planner may be nil, defaulting to GreedyPlanner.
func New(cache UniverseCache, ledg *ledger.Reservations, kv *persistence.KVStore, cfg Config, planner Planner) *TaskManager {
	if cfg.TakeTasksLockTimeout == 0 {
		cfg.TakeTasksLockTimeout = 20 * time.Minute
	}
	if planner == nil {
		planner = GreedyPlanner{}
	}
	return &TaskManager{
		cache:      cache,
		ledger:     ledg,
		kv:         kv,
		cfg:        cfg,
		planner:    planner,
		lockCh:     make(chan struct{}, 1),
		inProgress: make(map[string]task.Task),
	}
}

// acquireTakeTasksLock implements the manager's single global take_tasks
// lock: at most one take_tasks call runs at a time across the whole fleet,
// so two ships never race for the same candidate task.
func (m *TaskManager) acquireTakeTasksLock(ctx context.Context) (func(), error) {
	select {
	case m.lockCh <- struct{}{}:
		return func() { <-m.lockCh }, nil
	case <-time.After(m.cfg.TakeTasksLockTimeout):
		return nil, ErrTakeTasksLockTimeout
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// marketRefreshValue scales a market refresh task's value by how stale the
// cached snapshot is: nothing below 15 minutes, a flat 1000 at 30 minutes,
// ramping linearly to 5000 by the 60 minute mark, per spec.md §4.2.
func marketRefreshValue(staleFor time.Duration) int {
	minutes := staleFor.Minutes()
	switch {
	case minutes < 15:
		return 0
	case minutes <= 30:
		return 1000
	case minutes < 60:
		frac := (minutes - 30) / 30
		return int(1000 + frac*4000)
	default:
		return 5000
	}
}

// GenerateTasks enumerates the full candidate task list for a system:
// market/shipyard refreshes, arbitrage runs, and construction deliveries.
func (m *TaskManager) GenerateTasks(ctx context.Context, systemSymbol, startingSystem, token string, coverage Coverage) ([]task.Task, error) {
	waypoints, err := m.cache.GetSystemWaypoints(ctx, systemSymbol, token)
	if err != nil {
		return nil, err
	}
	markets, err := m.cache.GetSystemMarkets(ctx, systemSymbol, token)
	if err != nil {
		return nil, err
	}
	shipyards, err := m.cache.GetSystemShipyards(ctx, systemSymbol, token)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	var tasks []task.Task

	for _, wp := range waypoints {
		if !wp.HasFuel {
			continue
		}
		if coverage.StaticallyProbed != nil && coverage.StaticallyProbed(wp.Symbol) {
			continue
		}
		mkt, known := markets[wp.Symbol]
		var value int
		if !known {
			value = 5000
		} else {
			if mkt.IsPureExchange() {
				continue
			}
			value = marketRefreshValue(mkt.StaleFor(now))
			if value == 0 {
				continue
			}
		}
		tasks = append(tasks, task.Task{
			ID:          idgen.RefreshMarketTaskID(systemSymbol, startingSystem, wp.Symbol),
			Value:       value,
			Kind:        task.KindVisitLocation,
			Waypoint:    wp.Symbol,
			VisitAction: task.VisitRefreshMarket,
		})
	}

	for _, wp := range waypoints {
		if !hasTrait(wp, "SHIPYARD") {
			continue
		}
		if _, known := shipyards[wp.Symbol]; known {
			continue
		}
		if coverage.StaticallyProbed != nil && coverage.StaticallyProbed(wp.Symbol) {
			continue
		}
		tasks = append(tasks, task.Task{
			ID:          idgen.RefreshShipyardTaskID(systemSymbol, startingSystem, wp.Symbol),
			Value:       5000,
			Kind:        task.KindVisitLocation,
			Waypoint:    wp.Symbol,
			VisitAction: task.VisitRefreshShipyard,
		})
	}

	if m.cfg.DisableTradingTasks {
		return tasks, nil
	}

	site, _ := m.constructionSite(ctx, waypoints)
	policy := construction.BuildRedirectPolicy(site, m.cfg.NoGateMode, marketsForGood(markets), m.cfg.ImportCaps)

	tasks = append(tasks, m.generateArbitrage(systemSymbol, startingSystem, markets, policy)...)
	tasks = append(tasks, m.generateConstructionTasks(systemSymbol, startingSystem, site, markets, policy)...)

	return tasks, nil
}

func (m *TaskManager) constructionSite(ctx context.Context, waypoints []*shared.Waypoint) (*construction.Site, error) {
	for _, wp := range waypoints {
		if !hasTrait(wp, "JUMP_GATE") {
			continue
		}
		site, err := m.cache.GetConstruction(ctx, wp.Symbol)
		if err != nil {
			return nil, err
		}
		if site != nil {
			return site, nil
		}
	}
	return nil, nil
}

func marketsForGood(markets map[string]*market.Market) func(string) []string {
	return func(good string) []string {
		var out []string
		for wp, mkt := range markets {
			if g := mkt.FindGood(good); g != nil && g.IsImport() {
				out = append(out, wp)
			}
		}
		return out
	}
}

func hasTrait(wp *shared.Waypoint, trait string) bool {
	for _, t := range wp.Traits {
		if t == trait {
			return true
		}
	}
	return false
}

// TakeTasks runs one ship's task-taking cycle: acquire the global lock,
// regenerate the candidate list, filter in-progress and out-of-scope
// tasks, plan a schedule, force-assign the highest-value remaining task if
// the planner produced nothing, then persist the new assignments.
func (m *TaskManager) TakeTasks(
	ctx context.Context,
	shipSymbol, systemSymbol, startingSystem, token string,
	shipCfg fleet.ShipConfig,
	capacity, speed int,
	fuelCap int64,
	start string,
	planLen time.Duration,
	coverage Coverage,
) (task.Schedule, error) {
	release, err := m.acquireTakeTasksLock(ctx)
	if err != nil {
		return task.Schedule{}, err
	}
	defer release()

	m.dropInProgressForShip(shipSymbol)

	tasks, err := m.GenerateTasks(ctx, systemSymbol, startingSystem, token, coverage)
	if err != nil {
		return task.Schedule{}, err
	}

	m.ledger.ReserveCredits(shipSymbol, int64(capacity)*ledger.PerCapacityLogisticsReservation)

	tasks = m.filterInProgress(tasks)
	tasks = filterByScriptConfig(tasks, shipCfg.Behaviour.Logistics)
	if len(tasks) == 0 {
		return task.Schedule{ShipSymbol: shipSymbol}, nil
	}

	matrix, err := m.cache.FullTravelMatrix(ctx, systemSymbol, token, speed, fuelCap)
	if err != nil {
		return task.Schedule{}, err
	}

	assignments, schedules := m.planner.Plan(
		[]PlannerShip{{Symbol: shipSymbol, CargoCapacity: capacity, Speed: speed, Start: start}},
		tasks,
		matrix,
		PlannerConstraints{PlanLength: planLen},
	)

	sched := schedules[shipSymbol]
	if len(sched.Actions) == 0 {
		var forcedID string
		sched, forcedID = forceAssignHighestValue(shipSymbol, tasks)
		if forcedID != "" {
			assignments[forcedID] = shipSymbol
		}
	}

	m.persistInProgress(ctx, systemSymbol, assignments, tasks)
	return sched, nil
}

func (m *TaskManager) dropInProgressForShip(shipSymbol string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, t := range m.inProgress {
		if t.AssignedShip == shipSymbol {
			delete(m.inProgress, id)
		}
	}
}

func (m *TaskManager) filterInProgress(tasks []task.Task) []task.Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]task.Task, 0, len(tasks))
	for _, t := range tasks {
		if _, busy := m.inProgress[t.ID]; busy {
			continue
		}
		out = append(out, t)
	}
	return out
}

func filterByScriptConfig(tasks []task.Task, cfg *fleet.LogisticsScriptConfig) []task.Task {
	if cfg == nil {
		return tasks
	}
	out := make([]task.Task, 0, len(tasks))
	for _, t := range tasks {
		if t.Kind == task.KindVisitLocation {
			if t.VisitAction == task.VisitTryBuyShips && !cfg.AllowShipbuying {
				continue
			}
			if t.VisitAction == task.VisitRefreshMarket || t.VisitAction == task.VisitRefreshShipyard {
				if !cfg.AllowMarketRefresh {
					continue
				}
			}
			if len(cfg.WaypointAllowlist) > 0 && !contains(cfg.WaypointAllowlist, t.Waypoint) {
				continue
			}
		} else {
			if t.TransportAction == task.TransportConstruction && !cfg.AllowConstruction {
				continue
			}
			if len(cfg.WaypointAllowlist) > 0 && !contains(cfg.WaypointAllowlist, t.Src) && !contains(cfg.WaypointAllowlist, t.Dest) {
				continue
			}
		}
		out = append(out, t)
	}
	return out
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// CompleteTask drops a task from the in-progress set once its executor
// finishes it, so the next take_tasks cycle can regenerate and reassign
// the underlying work if still needed.
func (m *TaskManager) CompleteTask(taskID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.inProgress, taskID)
}

func (m *TaskManager) persistInProgress(ctx context.Context, systemSymbol string, assignments map[string]string, tasks []task.Task) {
	m.mu.Lock()
	now := time.Now()
	for _, t := range tasks {
		ship, ok := assignments[t.ID]
		if !ok {
			continue
		}
		t.AssignedShip = ship
		t.StartedAt = now
		m.inProgress[t.ID] = t
	}
	snapshot := make(map[string]task.Task, len(m.inProgress))
	for id, t := range m.inProgress {
		snapshot[id] = t
	}
	m.mu.Unlock()

	if m.kv != nil {
		_ = m.kv.Set(ctx, "task_manager_state/"+systemSymbol, snapshot)
	}
}

// LoadInProgress restores the in-progress task set from persistence, for
// recovery after a restart.
func (m *TaskManager) LoadInProgress(ctx context.Context, systemSymbol string) error {
	if m.kv == nil {
		return nil
	}
	var snapshot map[string]task.Task
	if err := m.kv.Get(ctx, "task_manager_state/"+systemSymbol, &snapshot); err != nil {
		if errors.Is(err, persistence.ErrKeyNotFound) {
			return nil
		}
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, t := range snapshot {
		m.inProgress[id] = t
	}
	return nil
}
