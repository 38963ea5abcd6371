// Package universe is the fleet's read-through cache over star systems,
// waypoints, markets, shipyards, construction sites, and jump/warp
// connectivity. spec.md §6 treats this as an external collaborator
// ("assumed to exist, consumed through an abstract interface"); this
// package gives it a concrete implementation so the repo runs standalone,
// wired to the persistence layer for storage and ports.APIClient for
// authoritative refreshes.
package universe

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/kestrel-systems/fleetcore/internal/adapters/persistence"
	"github.com/kestrel-systems/fleetcore/internal/domain/construction"
	"github.com/kestrel-systems/fleetcore/internal/domain/market"
	"github.com/kestrel-systems/fleetcore/internal/domain/pathfinding"
	"github.com/kestrel-systems/fleetcore/internal/domain/shared"
	"github.com/kestrel-systems/fleetcore/internal/domain/shipyard"
	"github.com/kestrel-systems/fleetcore/internal/infrastructure/ports"
)

// systemTTL bounds how long a loaded system's waypoint set is trusted
// before ensure_system_loaded re-fetches it. Waypoints themselves never
// move once generated, so this only guards against a half-written load.
const systemTTL = 24 * time.Hour

// jumpGateGraphKey is the KV key the jump-gate connectivity graph is
// cached under; it is keyed globally, not per-system, since gates link
// across systems.
const jumpGateGraphKey = "universe/jumpgate_graph"

type Cache struct {
	store  *persistence.UniverseStore
	kv     *persistence.KVStore
	client ports.APIClient
	clock  shared.Clock

	mu           sync.Mutex
	loadedAt     map[string]time.Time
	loadedFactns map[string]string // faction cache, rarely changes
}

func NewCache(store *persistence.UniverseStore, kv *persistence.KVStore, client ports.APIClient, clock shared.Clock) *Cache {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	return &Cache{
		store:        store,
		kv:           kv,
		client:       client,
		clock:        clock,
		loadedAt:     make(map[string]time.Time),
		loadedFactns: make(map[string]string),
	}
}

// EnsureSystemLoaded fetches and caches every waypoint of systemSymbol the
// first time it is seen, or after systemTTL has elapsed since the last
// load. Repeated calls within the TTL are a cheap no-op.
func (c *Cache) EnsureSystemLoaded(ctx context.Context, systemSymbol, token string) error {
	c.mu.Lock()
	last, ok := c.loadedAt[systemSymbol]
	c.mu.Unlock()
	if ok && c.clock.Now().Sub(last) < systemTTL {
		return nil
	}

	var all []ports.WaypointAPIData
	page := 1
	const limit = 20
	for {
		resp, err := c.client.ListWaypoints(ctx, systemSymbol, token, page, limit)
		if err != nil {
			return fmt.Errorf("list waypoints for %s: %w", systemSymbol, err)
		}
		all = append(all, resp.Data...)
		if len(all) >= resp.Meta.Total || len(resp.Data) == 0 {
			break
		}
		page++
	}

	waypoints := make([]*shared.Waypoint, 0, len(all))
	minX, maxX, minY, maxY := 0.0, 0.0, 0.0, 0.0
	for i, wd := range all {
		wp, err := shared.NewWaypoint(wd.Symbol, wd.X, wd.Y)
		if err != nil {
			continue
		}
		wp.Type = wd.Type
		wp.Traits = wd.Traits
		wp.Orbitals = wd.Orbitals
		wp.HasFuel = wd.HasFuel
		waypoints = append(waypoints, wp)
		if i == 0 {
			minX, maxX, minY, maxY = wd.X, wd.X, wd.Y, wd.Y
		} else {
			minX, maxX = math.Min(minX, wd.X), math.Max(maxX, wd.X)
			minY, maxY = math.Min(minY, wd.Y), math.Max(maxY, wd.Y)
		}
	}

	if err := c.store.SaveWaypoints(ctx, systemSymbol, waypoints); err != nil {
		return fmt.Errorf("save waypoints for %s: %w", systemSymbol, err)
	}

	// The system's own center isn't in the waypoint listing; approximate it
	// from the waypoint bounding box so DistanceTo stays usable for
	// inter-system estimates until a warp/jump fetch supplies it exactly.
	sys := shared.NewSystem(systemSymbol, (minX+maxX)/2, (minY+maxY)/2)
	for _, wp := range waypoints {
		sys.Waypoints = append(sys.Waypoints, wp.Symbol)
	}
	if err := c.store.SaveSystem(ctx, sys); err != nil {
		return fmt.Errorf("save system %s: %w", systemSymbol, err)
	}

	c.mu.Lock()
	c.loadedAt[systemSymbol] = c.clock.Now()
	c.mu.Unlock()
	return nil
}

func (c *Cache) GetSystemWaypoints(ctx context.Context, systemSymbol, token string) ([]*shared.Waypoint, error) {
	if err := c.EnsureSystemLoaded(ctx, systemSymbol, token); err != nil {
		return nil, err
	}
	return c.store.GetSystemWaypoints(ctx, systemSymbol)
}

// SearchWaypoints returns every waypoint of systemSymbol matching filter.
func (c *Cache) SearchWaypoints(ctx context.Context, systemSymbol, token string, filter func(*shared.Waypoint) bool) ([]*shared.Waypoint, error) {
	waypoints, err := c.GetSystemWaypoints(ctx, systemSymbol, token)
	if err != nil {
		return nil, err
	}
	if filter == nil {
		return waypoints, nil
	}
	out := make([]*shared.Waypoint, 0, len(waypoints))
	for _, wp := range waypoints {
		if filter(wp) {
			out = append(out, wp)
		}
	}
	return out, nil
}

// GetSystemMarkets returns every cached market in systemSymbol without
// touching the network; callers that need a guaranteed-fresh snapshot
// should use GetSystemMarketsRemote instead.
func (c *Cache) GetSystemMarkets(ctx context.Context, systemSymbol, token string) (map[string]*market.Market, error) {
	marketWaypoints, err := c.SearchWaypoints(ctx, systemSymbol, token, func(wp *shared.Waypoint) bool { return wp.HasFuel })
	if err != nil {
		return nil, err
	}
	out := make(map[string]*market.Market, len(marketWaypoints))
	for _, wp := range marketWaypoints {
		m, err := c.store.GetMarket(ctx, wp.Symbol)
		if err != nil {
			continue
		}
		out[wp.Symbol] = m
	}
	return out, nil
}

// GetSystemMarketsRemote force-refreshes every market in systemSymbol from
// the game API and persists the new snapshots before returning them.
func (c *Cache) GetSystemMarketsRemote(ctx context.Context, systemSymbol, token string) (map[string]*market.Market, error) {
	marketWaypoints, err := c.SearchWaypoints(ctx, systemSymbol, token, func(wp *shared.Waypoint) bool { return wp.HasFuel })
	if err != nil {
		return nil, err
	}
	out := make(map[string]*market.Market, len(marketWaypoints))
	for _, wp := range marketWaypoints {
		data, err := c.client.GetMarket(ctx, systemSymbol, wp.Symbol, token)
		if err != nil {
			continue
		}
		m, err := toDomainMarket(wp.Symbol, data, c.clock.Now())
		if err != nil {
			continue
		}
		if err := c.store.SaveMarket(ctx, m); err != nil {
			return nil, err
		}
		out[wp.Symbol] = m
	}
	return out, nil
}

func (c *Cache) SaveMarket(ctx context.Context, m *market.Market) error {
	return c.store.SaveMarket(ctx, m)
}

// RefreshMarket force-refreshes a single waypoint's market from the game
// API and persists it, the per-waypoint counterpart of
// GetSystemMarketsRemote for the executor's REFRESH_MARKET action.
func (c *Cache) RefreshMarket(ctx context.Context, systemSymbol, waypointSymbol, token string) (*market.Market, error) {
	data, err := c.client.GetMarket(ctx, systemSymbol, waypointSymbol, token)
	if err != nil {
		return nil, err
	}
	m, err := toDomainMarket(waypointSymbol, data, c.clock.Now())
	if err != nil {
		return nil, err
	}
	if err := c.store.SaveMarket(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (c *Cache) GetSystemShipyards(ctx context.Context, systemSymbol, token string) (map[string]*shipyard.Shipyard, error) {
	shipyardWaypoints, err := c.SearchWaypoints(ctx, systemSymbol, token, func(wp *shared.Waypoint) bool { return hasTrait(wp, "SHIPYARD") })
	if err != nil {
		return nil, err
	}
	out := make(map[string]*shipyard.Shipyard, len(shipyardWaypoints))
	for _, wp := range shipyardWaypoints {
		sy, err := c.store.GetShipyard(ctx, wp.Symbol)
		if err != nil {
			continue
		}
		out[wp.Symbol] = sy
	}
	return out, nil
}

func (c *Cache) GetSystemShipyardsRemote(ctx context.Context, systemSymbol, token string) (map[string]*shipyard.Shipyard, error) {
	shipyardWaypoints, err := c.SearchWaypoints(ctx, systemSymbol, token, func(wp *shared.Waypoint) bool { return hasTrait(wp, "SHIPYARD") })
	if err != nil {
		return nil, err
	}
	out := make(map[string]*shipyard.Shipyard, len(shipyardWaypoints))
	for _, wp := range shipyardWaypoints {
		data, err := c.client.GetShipyard(ctx, systemSymbol, wp.Symbol, token)
		if err != nil {
			continue
		}
		offerings := make([]shipyard.Offering, len(data.ShipTypes))
		for i, t := range data.ShipTypes {
			offerings[i] = shipyard.Offering{ShipModel: t.Model, PurchasePrice: t.PurchasePrice}
		}
		sy, err := shipyard.NewShipyard(wp.Symbol, offerings, c.clock.Now())
		if err != nil {
			continue
		}
		if err := c.store.SaveShipyard(ctx, sy); err != nil {
			return nil, err
		}
		out[wp.Symbol] = sy
	}
	return out, nil
}

func (c *Cache) SaveShipyard(ctx context.Context, sy *shipyard.Shipyard) error {
	return c.store.SaveShipyard(ctx, sy)
}

// RefreshShipyard force-refreshes a single waypoint's shipyard listing
// from the game API and persists it, the per-waypoint counterpart of
// GetSystemShipyardsRemote for the executor's REFRESH_SHIPYARD action.
func (c *Cache) RefreshShipyard(ctx context.Context, systemSymbol, waypointSymbol, token string) (*shipyard.Shipyard, error) {
	data, err := c.client.GetShipyard(ctx, systemSymbol, waypointSymbol, token)
	if err != nil {
		return nil, err
	}
	offerings := make([]shipyard.Offering, len(data.ShipTypes))
	for i, t := range data.ShipTypes {
		offerings[i] = shipyard.Offering{ShipModel: t.Model, PurchasePrice: t.PurchasePrice}
	}
	sy, err := shipyard.NewShipyard(waypointSymbol, offerings, c.clock.Now())
	if err != nil {
		return nil, err
	}
	if err := c.store.SaveShipyard(ctx, sy); err != nil {
		return nil, err
	}
	return sy, nil
}

func (c *Cache) SearchShipyards(ctx context.Context, systemSymbol, shipModel string) ([]string, error) {
	return c.store.SearchShipyards(ctx, systemSymbol, shipModel)
}

func (c *Cache) GetConstruction(ctx context.Context, waypointSymbol string) (*construction.Site, error) {
	return c.store.GetConstruction(ctx, waypointSymbol)
}

// UpdateConstruction force-fetches waypointSymbol's construction state and
// persists it, returning the refreshed site.
func (c *Cache) UpdateConstruction(ctx context.Context, systemSymbol, waypointSymbol, token string) (*construction.Site, error) {
	data, err := c.client.GetConstruction(ctx, systemSymbol, waypointSymbol, token)
	if err != nil {
		return nil, err
	}
	materials := make([]construction.Material, len(data.Materials))
	for i, m := range data.Materials {
		materials[i] = construction.Material{TradeSymbol: m.TradeSymbol, Required: m.Required, Fulfilled: m.Fulfilled}
	}
	site, err := construction.NewSite(waypointSymbol, materials)
	if err != nil {
		return nil, err
	}
	if err := c.store.SaveConstruction(ctx, site); err != nil {
		return nil, err
	}
	return site, nil
}

// GetRoute computes the minimum-duration route between two waypoints of
// the same system, using the cached waypoint set to build the market-aware
// graph the travel-time pathfinder needs.
func (c *Cache) GetRoute(ctx context.Context, systemSymbol, token, src, dest string, speed int, startFuel, fuelCapacity int64) (pathfinding.Route, error) {
	waypoints, err := c.GetSystemWaypoints(ctx, systemSymbol, token)
	if err != nil {
		return pathfinding.Route{}, err
	}
	points := make([]pathfinding.Point, len(waypoints))
	for i, wp := range waypoints {
		points[i] = pathfinding.Point{Symbol: wp.Symbol, X: int(wp.X), Y: int(wp.Y), IsMarket: wp.HasFuel}
	}
	graph := pathfinding.NewGraph(points)
	return graph.GetRoute(src, dest, speed, startFuel, fuelCapacity)
}

// FullTravelMatrix computes the minimum duration between every ordered
// pair of waypoints in systemSymbol, for the task manager's arbitrage
// planner to consult without repeating pathfinding per candidate pair.
func (c *Cache) FullTravelMatrix(ctx context.Context, systemSymbol, token string, speed int, fuelCapacity int64) (map[string]map[string]int64, error) {
	waypoints, err := c.GetSystemWaypoints(ctx, systemSymbol, token)
	if err != nil {
		return nil, err
	}
	points := make([]pathfinding.Point, len(waypoints))
	for i, wp := range waypoints {
		points[i] = pathfinding.Point{Symbol: wp.Symbol, X: int(wp.X), Y: int(wp.Y), IsMarket: wp.HasFuel}
	}
	graph := pathfinding.NewGraph(points)

	matrix := make(map[string]map[string]int64, len(points))
	for _, src := range points {
		row := make(map[string]int64, len(points))
		for _, dst := range points {
			if src.Symbol == dst.Symbol {
				row[dst.Symbol] = 0
				continue
			}
			route, err := graph.GetRoute(src.Symbol, dst.Symbol, speed, fuelCapacity, fuelCapacity)
			if err != nil {
				continue
			}
			row[dst.Symbol] = route.TotalDuration
		}
		matrix[src.Symbol] = row
	}
	return matrix, nil
}

type jumpGateEntry struct {
	ConnectedSystems []string `json:"connected_systems"`
	AllKnown         bool     `json:"all_known"`
}

// JumpgateGraph returns every jump-gate waypoint discovered so far and the
// systems it is known to connect to.
func (c *Cache) JumpgateGraph(ctx context.Context) (map[string][]string, error) {
	graph := make(map[string]jumpGateEntry)
	if err := c.kv.Get(ctx, jumpGateGraphKey, &graph); err != nil && err != persistence.ErrKeyNotFound {
		return nil, err
	}
	out := make(map[string][]string, len(graph))
	for wp, entry := range graph {
		out[wp] = entry.ConnectedSystems
	}
	return out, nil
}

// ConnectionsKnown reports whether a jump gate's full connection set has
// been discovered (spec.md §4.1's all_connections_known), used to decide
// whether a probe should keep exploring from it.
func (c *Cache) ConnectionsKnown(ctx context.Context, waypointSymbol string) (bool, error) {
	graph := make(map[string]jumpGateEntry)
	if err := c.kv.Get(ctx, jumpGateGraphKey, &graph); err != nil {
		if err == persistence.ErrKeyNotFound {
			return false, nil
		}
		return false, err
	}
	entry, ok := graph[waypointSymbol]
	return ok && entry.AllKnown, nil
}

// RefreshJumpGate fetches a jump gate's connections from the API and
// records them as fully known; the game API only ever returns the
// complete connection set for a gate, so a successful fetch is always
// "all known".
func (c *Cache) RefreshJumpGate(ctx context.Context, systemSymbol, waypointSymbol, token string) ([]string, error) {
	data, err := c.client.GetJumpGate(ctx, systemSymbol, waypointSymbol, token)
	if err != nil {
		return nil, err
	}
	graph := make(map[string]jumpGateEntry)
	if err := c.kv.Get(ctx, jumpGateGraphKey, &graph); err != nil && err != persistence.ErrKeyNotFound {
		return nil, err
	}
	graph[waypointSymbol] = jumpGateEntry{ConnectedSystems: data.ConnectedSystems, AllKnown: true}
	if err := c.kv.Set(ctx, jumpGateGraphKey, graph); err != nil {
		return nil, err
	}
	return data.ConnectedSystems, nil
}

// WarpJumpGraph returns the warp-gate connectivity between cached systems,
// read straight off each System's Warps field.
func (c *Cache) WarpJumpGraph(ctx context.Context) (map[string][]string, error) {
	systems, err := c.Systems(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string][]string, len(systems))
	for _, sys := range systems {
		out[sys.Symbol] = sys.Warps
	}
	return out, nil
}

// Systems returns every system this cache has loaded waypoints for.
func (c *Cache) Systems(ctx context.Context) ([]*shared.System, error) {
	c.mu.Lock()
	symbols := make([]string, 0, len(c.loadedAt))
	for sym := range c.loadedAt {
		symbols = append(symbols, sym)
	}
	c.mu.Unlock()

	systems := make([]*shared.System, 0, len(symbols))
	for _, sym := range symbols {
		sys, err := c.store.GetSystem(ctx, sym)
		if err != nil {
			continue
		}
		systems = append(systems, sys)
	}
	return systems, nil
}

// GetFaction returns the agent's starting faction, fetched once and
// cached for the lifetime of the process since it never changes.
func (c *Cache) GetFaction(ctx context.Context, callsign, token string) (string, error) {
	c.mu.Lock()
	faction, ok := c.loadedFactns[callsign]
	c.mu.Unlock()
	if ok {
		return faction, nil
	}
	agent, err := c.client.GetAgent(ctx, token)
	if err != nil {
		return "", err
	}
	c.mu.Lock()
	c.loadedFactns[callsign] = agent.StartingFaction
	c.mu.Unlock()
	return agent.StartingFaction, nil
}

func hasTrait(wp *shared.Waypoint, trait string) bool {
	for _, t := range wp.Traits {
		if t == trait {
			return true
		}
	}
	return false
}

func toDomainMarket(waypointSymbol string, data *ports.MarketData, now time.Time) (*market.Market, error) {
	kindOf := func(symbol string) market.GoodType {
		for _, s := range data.Imports {
			if s == symbol {
				return market.GoodTypeImport
			}
		}
		for _, s := range data.Exports {
			if s == symbol {
				return market.GoodTypeExport
			}
		}
		return market.GoodTypeExchange
	}
	goods := make([]market.TradeGood, 0, len(data.TradeGoods))
	for _, g := range data.TradeGoods {
		tg, err := market.NewTradeGood(g.Symbol, kindOf(g.Symbol), market.Supply(g.Supply), market.Activity(g.Activity), g.PurchasePrice, g.SellPrice, g.TradeVolume)
		if err != nil {
			continue
		}
		goods = append(goods, *tg)
	}
	return market.NewMarket(waypointSymbol, goods, now)
}
