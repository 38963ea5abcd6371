// Package agentcontroller is the Agent Controller: the fleet-wide
// supervisor that advances the developmental era, buys and assigns ships
// to roles, reserves the credits those roles commit, and spawns each
// ship's executor goroutine. Grounded on
// _examples/original_source/src/agent_controller/agent_controller.rs.
package agentcontroller

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/kestrel-systems/fleetcore/internal/adapters/persistence"
	"github.com/kestrel-systems/fleetcore/internal/domain/construction"
	"github.com/kestrel-systems/fleetcore/internal/domain/contract"
	"github.com/kestrel-systems/fleetcore/internal/domain/fleet"
	"github.com/kestrel-systems/fleetcore/internal/domain/ledger"
	"github.com/kestrel-systems/fleetcore/internal/domain/market"
	"github.com/kestrel-systems/fleetcore/internal/domain/navigation"
	"github.com/kestrel-systems/fleetcore/internal/domain/pathfinding"
	"github.com/kestrel-systems/fleetcore/internal/domain/shared"
	"github.com/kestrel-systems/fleetcore/internal/domain/shipyard"
	"github.com/kestrel-systems/fleetcore/internal/infrastructure/logctx"
	"github.com/kestrel-systems/fleetcore/internal/infrastructure/ports"
)

// ErrTryBuyShipsLockTimeout marks the fatal condition
// try_buy_ships_lock hits in the original after 30 seconds: two
// concurrent purchase attempts would otherwise double-spend the same
// credits.
var ErrTryBuyShipsLockTimeout = errors.New("agentcontroller: try_buy_ships lock timeout")

// UniverseCache is the subset of universe.Cache the controller reads,
// declared narrowly so this package never imports the adapters layer.
type UniverseCache interface {
	GetSystemWaypoints(ctx context.Context, systemSymbol, token string) ([]*shared.Waypoint, error)
	GetSystemMarkets(ctx context.Context, systemSymbol, token string) (map[string]*market.Market, error)
	GetSystemShipyards(ctx context.Context, systemSymbol, token string) (map[string]*shipyard.Shipyard, error)
	SearchShipyards(ctx context.Context, systemSymbol, shipModel string) ([]string, error)
	RefreshShipyard(ctx context.Context, systemSymbol, waypointSymbol, token string) (*shipyard.Shipyard, error)
	GetConstruction(ctx context.Context, waypointSymbol string) (*construction.Site, error)
	GetRoute(ctx context.Context, systemSymbol, token, src, dest string, speed int, startFuel, fuelCapacity int64) (pathfinding.Route, error)
	JumpgateGraph(ctx context.Context) (map[string][]string, error)
	ConnectionsKnown(ctx context.Context, waypointSymbol string) (bool, error)
	RefreshJumpGate(ctx context.Context, systemSymbol, waypointSymbol, token string) ([]string, error)
	WarpJumpGraph(ctx context.Context) (map[string][]string, error)
	Systems(ctx context.Context) ([]*shared.System, error)
}

// ShipCell owns one ship's mutable aggregate behind its own mutex, the Go
// equivalent of the original's per-ship lock granularity (spec.md §5: "one
// lock per ship, never the whole fleet, for in-flight ship mutation").
type ShipCell struct {
	mu   sync.Mutex
	Ship *navigation.Ship
}

// With runs fn while holding the cell's lock, the only way callers touch
// the underlying ship.
func (c *ShipCell) With(fn func(*navigation.Ship) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return fn(c.Ship)
}

// Controller is the Agent Controller aggregate root.
type Controller struct {
	Callsign       string
	StartingSystem string
	token          string

	cache UniverseCache
	kv    *persistence.KVStore
	api   ports.APIClient
	clock shared.Clock

	cfg Config

	mu          sync.Mutex
	agent       *fleet.Agent
	era         fleet.Era
	roleConfig  []fleet.ShipConfig
	assignments *fleet.AssignmentMap
	ledger      *ledger.Reservations
	contract    *contract.Contract

	ships   map[string]*ShipCell
	running map[string]bool

	tryBuyShipsLock chan struct{}

	contractMu    sync.Mutex
	contractEpoch uint64

	probeJumpgateReserve map[string]string
	probeReserveMu       sync.Mutex
	explorerReservations map[string]string
	explorerReserveMu    sync.Mutex

	logger *log.Logger
}

// Config holds the controller's tunables, sourced from infrastructure/config.
type Config struct {
	NoGateMode              bool
	ScrapAllShips           bool
	ScrapUnassigned         bool
	TryBuyShipsLockTimeout  time.Duration
	ControllerTickInterval  time.Duration
}

// New constructs a Controller over an already-registered agent. It does
// not touch the network; call Bootstrap to hydrate from the live API.
func New(callsign, token string, cache UniverseCache, kv *persistence.KVStore, api ports.APIClient, clock shared.Clock, cfg Config, logger *log.Logger) *Controller {
	if cfg.TryBuyShipsLockTimeout == 0 {
		cfg.TryBuyShipsLockTimeout = 30 * time.Second
	}
	if cfg.ControllerTickInterval == 0 {
		cfg.ControllerTickInterval = 60 * time.Second
	}
	if logger == nil {
		logger = logctx.New(callsign, "stdout", "")
	}
	return &Controller{
		Callsign:             callsign,
		token:                token,
		cache:                cache,
		kv:                   kv,
		api:                  api,
		clock:                clock,
		cfg:                  cfg,
		assignments:          fleet.NewAssignmentMap(),
		ledger:               ledger.NewReservations(),
		ships:                make(map[string]*ShipCell),
		running:              make(map[string]bool),
		tryBuyShipsLock:      make(chan struct{}, 1),
		probeJumpgateReserve: make(map[string]string),
		explorerReservations: make(map[string]string),
		logger:               logger,
	}
}

// Bootstrap loads the agent, live ships and contract from the API,
// restores persisted assignments/reservations from the KV store, and
// generates the initial role config. Grounded on agent_controller.rs's
// async AgentController::new constructor.
func (c *Controller) Bootstrap(ctx context.Context) error {
	agentData, err := c.api.GetAgent(ctx, c.token)
	if err != nil {
		return fmt.Errorf("bootstrap: get agent: %w", err)
	}
	agent, err := fleet.NewAgent(agentData.Symbol, agentData.StartingFaction, agentData.Headquarters, agentData.Credits)
	if err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}

	c.mu.Lock()
	c.agent = agent
	c.StartingSystem = agent.StartingSystem()
	c.ledger.SetCredits(agent.Credits)
	c.mu.Unlock()

	if err := c.loadState(ctx); err != nil {
		c.logger.Printf("bootstrap: no prior state restored: %v", err)
	}

	shipsData, err := c.api.ListShips(ctx, c.token)
	if err != nil {
		return fmt.Errorf("bootstrap: list ships: %w", err)
	}
	for _, sd := range shipsData {
		ship, err := hydrateShip(sd)
		if err != nil {
			c.logger.Printf("bootstrap: skipping ship %s: %v", sd.Symbol, err)
			continue
		}
		c.ships[sd.Symbol] = &ShipCell{Ship: ship}
	}

	contracts, err := c.api.ListContracts(ctx, c.token)
	if err == nil {
		for _, cd := range contracts {
			if cd.Accepted && !cd.Fulfilled {
				c.contract = hydrateContract(cd, c.clock)
				break
			}
		}
	}

	return c.RefreshShipConfig(ctx)
}

// hydrateShip reconstructs the domain aggregate from the API's wire
// snapshot. There is no NavStatus-agnostic constructor on the Rust side to
// transcribe from (ship construction there is a plain struct literal), so
// this follows the teacher's own NewShip validation contract directly.
func hydrateShip(sd *ports.ShipData) (*navigation.Ship, error) {
	wp, err := shared.NewWaypoint(sd.Location, 0, 0)
	if err != nil {
		return nil, err
	}
	fuel, err := shared.NewFuel(sd.FuelCurrent, sd.FuelCapacity)
	if err != nil {
		return nil, err
	}
	var items []*shared.CargoItem
	for _, ci := range sd.Cargo {
		item, err := shared.NewCargoItem(ci.Symbol, ci.Name, ci.Description, ci.Units)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	cargo, err := shared.NewCargo(sd.CargoCapacity, sd.CargoUnits, items)
	if err != nil {
		return nil, err
	}
	var modules []*navigation.ShipModule
	for _, m := range sd.Modules {
		modules = append(modules, navigation.NewShipModule(m, 0, 0))
	}
	ship, err := navigation.NewShip(sd.Symbol, wp, fuel, sd.FuelCapacity, sd.CargoCapacity, cargo, sd.EngineSpeed, sd.FrameSymbol, sd.Role, modules, navigation.NavStatus(sd.NavStatus))
	if err != nil {
		return nil, err
	}
	ship.SetFlightMode(sd.FlightMode)
	return ship, nil
}

func hydrateContract(cd ports.ContractData, clock shared.Clock) *contract.Contract {
	var deliveries []contract.Delivery
	for _, d := range cd.Terms.Deliveries {
		deliveries = append(deliveries, contract.Delivery{
			TradeSymbol:       d.TradeSymbol,
			DestinationSymbol: d.DestinationSymbol,
			UnitsRequired:     d.UnitsRequired,
			UnitsFulfilled:    d.UnitsFulfilled,
		})
	}
	terms := contract.Terms{
		Payment: contract.Payment{
			OnAccepted:  cd.Terms.Payment.OnAccepted,
			OnFulfilled: cd.Terms.Payment.OnFulfilled,
		},
		Deliveries: deliveries,
	}
	ctr, _ := contract.NewContract(cd.ID, cd.FactionSymbol, cd.Type, terms, clock)
	if ctr != nil && cd.Accepted {
		_ = ctr.Accept()
	}
	return ctr
}

// Agent returns the controller's current agent snapshot.
func (c *Controller) Agent() *fleet.Agent {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.agent
}

// Ledger exposes the credit reservation ledger for the Task Manager and
// executors to read/write standing reservations.
func (c *Controller) Ledger() *ledger.Reservations { return c.ledger }

// Assignments exposes the bidirectional role<->ship map.
func (c *Controller) Assignments() *fleet.AssignmentMap { return c.assignments }

// Era returns the controller's current developmental era.
func (c *Controller) Era() fleet.Era {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.era
}

// ShipCell returns the ship cell for symbol, or nil if unknown.
func (c *Controller) ShipCell(symbol string) *ShipCell {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ships[symbol]
}

// LiveShipSymbols returns every ship symbol currently tracked.
func (c *Controller) LiveShipSymbols() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.ships))
	for s := range c.ships {
		out = append(out, s)
	}
	return out
}
