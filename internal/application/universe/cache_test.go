package universe

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/kestrel-systems/fleetcore/internal/adapters/persistence"
	"github.com/kestrel-systems/fleetcore/internal/domain/shared"
	"github.com/kestrel-systems/fleetcore/internal/infrastructure/ports"
)

// fakeAPIClient implements ports.APIClient with overridable function
// fields; methods the universe cache doesn't exercise return zero values.
type fakeAPIClient struct {
	listWaypoints func(ctx context.Context, system, token string, page, limit int) (*ports.WaypointsListResponse, error)
	getMarket     func(ctx context.Context, system, waypoint, token string) (*ports.MarketData, error)
	getShipyard   func(ctx context.Context, system, waypoint, token string) (*ports.ShipyardListingData, error)
	getJumpGate   func(ctx context.Context, system, waypoint, token string) (*ports.JumpGateData, error)
	getAgent      func(ctx context.Context, token string) (*ports.AgentData, error)
}

func (f *fakeAPIClient) GetAgent(ctx context.Context, token string) (*ports.AgentData, error) {
	return f.getAgent(ctx, token)
}
func (f *fakeAPIClient) GetStatus(ctx context.Context) (*ports.StatusData, error) { return nil, nil }
func (f *fakeAPIClient) RegisterAgent(ctx context.Context, callsign, faction string) (*ports.RegisterResult, error) {
	return nil, nil
}
func (f *fakeAPIClient) GetShip(ctx context.Context, symbol, token string) (*ports.ShipData, error) {
	return nil, nil
}
func (f *fakeAPIClient) ListShips(ctx context.Context, token string) ([]*ports.ShipData, error) {
	return nil, nil
}
func (f *fakeAPIClient) NavigateShip(ctx context.Context, symbol, destination, token string) (*ports.NavigationResult, error) {
	return nil, nil
}
func (f *fakeAPIClient) WarpShip(ctx context.Context, symbol, destination, token string) (*ports.WarpResult, error) {
	return nil, nil
}
func (f *fakeAPIClient) JumpShip(ctx context.Context, symbol, destination, token string) (*ports.JumpResult, error) {
	return nil, nil
}
func (f *fakeAPIClient) OrbitShip(ctx context.Context, symbol, token string) error { return nil }
func (f *fakeAPIClient) DockShip(ctx context.Context, symbol, token string) error  { return nil }
func (f *fakeAPIClient) RefuelShip(ctx context.Context, symbol, token string, units *int) (*ports.RefuelResult, error) {
	return nil, nil
}
func (f *fakeAPIClient) SetFlightMode(ctx context.Context, symbol, flightMode, token string) error {
	return nil
}
func (f *fakeAPIClient) ScrapShip(ctx context.Context, symbol, token string) (int, error) {
	return 0, nil
}
func (f *fakeAPIClient) PurchaseCargo(ctx context.Context, shipSymbol, goodSymbol string, units int, token string) (*ports.PurchaseResult, error) {
	return nil, nil
}
func (f *fakeAPIClient) SellCargo(ctx context.Context, shipSymbol, goodSymbol string, units int, token string) (*ports.SellResult, error) {
	return nil, nil
}
func (f *fakeAPIClient) JettisonCargo(ctx context.Context, shipSymbol, goodSymbol string, units int, token string) error {
	return nil
}
func (f *fakeAPIClient) TransferCargo(ctx context.Context, shipSymbol, goodSymbol string, units int, destinationShip, token string) (*ports.TransferResult, error) {
	return nil, nil
}
func (f *fakeAPIClient) CreateSurvey(ctx context.Context, shipSymbol, token string) (*ports.SurveyResult, error) {
	return nil, nil
}
func (f *fakeAPIClient) ExtractResources(ctx context.Context, shipSymbol, token string) (*ports.ExtractionResult, error) {
	return nil, nil
}
func (f *fakeAPIClient) ExtractResourcesWithSurvey(ctx context.Context, shipSymbol string, survey ports.SurveyData, token string) (*ports.ExtractionResult, error) {
	return nil, nil
}
func (f *fakeAPIClient) SiphonResources(ctx context.Context, shipSymbol, token string) (*ports.SiphonResult, error) {
	return nil, nil
}
func (f *fakeAPIClient) GetShipyard(ctx context.Context, systemSymbol, waypointSymbol, token string) (*ports.ShipyardListingData, error) {
	return f.getShipyard(ctx, systemSymbol, waypointSymbol, token)
}
func (f *fakeAPIClient) PurchaseShip(ctx context.Context, shipModel, waypointSymbol, token string) (*ports.ShipPurchaseResult, error) {
	return nil, nil
}
func (f *fakeAPIClient) GetMarket(ctx context.Context, systemSymbol, waypointSymbol, token string) (*ports.MarketData, error) {
	return f.getMarket(ctx, systemSymbol, waypointSymbol, token)
}
func (f *fakeAPIClient) ListWaypoints(ctx context.Context, systemSymbol, token string, page, limit int) (*ports.WaypointsListResponse, error) {
	return f.listWaypoints(ctx, systemSymbol, token, page, limit)
}
func (f *fakeAPIClient) GetJumpGate(ctx context.Context, systemSymbol, waypointSymbol, token string) (*ports.JumpGateData, error) {
	return f.getJumpGate(ctx, systemSymbol, waypointSymbol, token)
}
func (f *fakeAPIClient) GetConstruction(ctx context.Context, systemSymbol, waypointSymbol, token string) (*ports.ConstructionData, error) {
	return nil, nil
}
func (f *fakeAPIClient) SupplyConstruction(ctx context.Context, systemSymbol, waypointSymbol, shipSymbol, tradeSymbol string, units int, token string) (*ports.ConstructionSupplyResponse, error) {
	return nil, nil
}
func (f *fakeAPIClient) NegotiateContract(ctx context.Context, shipSymbol, token string) (*ports.ContractNegotiationResult, error) {
	return nil, nil
}
func (f *fakeAPIClient) GetContract(ctx context.Context, contractID, token string) (*ports.ContractData, error) {
	return nil, nil
}
func (f *fakeAPIClient) ListContracts(ctx context.Context, token string) ([]ports.ContractData, error) {
	return nil, nil
}
func (f *fakeAPIClient) AcceptContract(ctx context.Context, contractID, token string) (*ports.ContractData, error) {
	return nil, nil
}
func (f *fakeAPIClient) DeliverContract(ctx context.Context, contractID, shipSymbol, tradeSymbol string, units int, token string) (*ports.ContractData, error) {
	return nil, nil
}
func (f *fakeAPIClient) FulfillContract(ctx context.Context, contractID, token string) (*ports.ContractData, error) {
	return nil, nil
}

func newTestCache(t *testing.T, client ports.APIClient) *Cache {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&persistence.KVEntry{}, &persistence.SystemRecord{}, &persistence.WaypointRecord{}, &persistence.MarketRecord{}, &persistence.ShipyardRecord{}, &persistence.ConstructionRecord{}))
	store := persistence.NewUniverseStore(db)
	kv := persistence.NewKVStore(db)
	clock := shared.NewMockClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	return NewCache(store, kv, client, clock)
}

func TestEnsureSystemLoaded_PaginatesAndCachesWaypoints(t *testing.T) {
	calls := 0
	client := &fakeAPIClient{
		listWaypoints: func(ctx context.Context, system, token string, page, limit int) (*ports.WaypointsListResponse, error) {
			calls++
			if page == 1 {
				return &ports.WaypointsListResponse{
					Data: []ports.WaypointAPIData{{Symbol: "X1-A1", SystemSymbol: system, X: 0, Y: 0, Type: "PLANET"}},
					Meta: ports.PaginationMeta{Total: 2, Page: 1, Limit: 1},
				}, nil
			}
			return &ports.WaypointsListResponse{
				Data: []ports.WaypointAPIData{{Symbol: "X1-A2", SystemSymbol: system, X: 10, Y: 10, Type: "MOON", HasFuel: true}},
				Meta: ports.PaginationMeta{Total: 2, Page: 2, Limit: 1},
			}, nil
		},
	}
	cache := newTestCache(t, client)

	err := cache.EnsureSystemLoaded(context.Background(), "X1", "token")
	require.NoError(t, err)
	assert.Equal(t, 2, calls)

	waypoints, err := cache.GetSystemWaypoints(context.Background(), "X1", "token")
	require.NoError(t, err)
	assert.Len(t, waypoints, 2)

	// second call within the TTL must not re-fetch
	err = cache.EnsureSystemLoaded(context.Background(), "X1", "token")
	require.NoError(t, err)
	assert.Equal(t, 2, calls, "cached load should not re-query the API")
}

func TestGetSystemMarketsRemote_SavesAndReturnsSnapshot(t *testing.T) {
	client := &fakeAPIClient{
		listWaypoints: func(ctx context.Context, system, token string, page, limit int) (*ports.WaypointsListResponse, error) {
			return &ports.WaypointsListResponse{
				Data: []ports.WaypointAPIData{{Symbol: "X1-M1", SystemSymbol: system, HasFuel: true}},
				Meta: ports.PaginationMeta{Total: 1},
			}, nil
		},
		getMarket: func(ctx context.Context, system, waypoint, token string) (*ports.MarketData, error) {
			return &ports.MarketData{
				Symbol:  waypoint,
				Exports: []string{"IRON_ORE"},
				TradeGoods: []ports.TradeGoodData{
					{Symbol: "IRON_ORE", Supply: "MODERATE", Activity: "GROWING", SellPrice: 10, PurchasePrice: 15, TradeVolume: 100},
				},
			}, nil
		},
	}
	cache := newTestCache(t, client)

	markets, err := cache.GetSystemMarketsRemote(context.Background(), "X1", "token")
	require.NoError(t, err)
	require.Contains(t, markets, "X1-M1")
	good := markets["X1-M1"].FindGood("IRON_ORE")
	require.NotNil(t, good)
	assert.Equal(t, 100, good.TradeVolume())

	cached, err := cache.store.GetMarket(context.Background(), "X1-M1")
	require.NoError(t, err)
	assert.Equal(t, "X1-M1", cached.WaypointSymbol())
}

func TestRefreshJumpGate_MarksConnectionsKnown(t *testing.T) {
	client := &fakeAPIClient{
		getJumpGate: func(ctx context.Context, system, waypoint, token string) (*ports.JumpGateData, error) {
			return &ports.JumpGateData{WaypointSymbol: waypoint, ConnectedSystems: []string{"X2", "X3"}}, nil
		},
	}
	cache := newTestCache(t, client)

	known, err := cache.ConnectionsKnown(context.Background(), "X1-GATE")
	require.NoError(t, err)
	assert.False(t, known, "unseen gate has no recorded connections")

	connected, err := cache.RefreshJumpGate(context.Background(), "X1", "X1-GATE", "token")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"X2", "X3"}, connected)

	known, err = cache.ConnectionsKnown(context.Background(), "X1-GATE")
	require.NoError(t, err)
	assert.True(t, known)
}

func TestGetFaction_CachesAfterFirstFetch(t *testing.T) {
	calls := 0
	client := &fakeAPIClient{
		getAgent: func(ctx context.Context, token string) (*ports.AgentData, error) {
			calls++
			return &ports.AgentData{StartingFaction: "COSMIC"}, nil
		},
	}
	cache := newTestCache(t, client)

	faction, err := cache.GetFaction(context.Background(), "AGENT", "token")
	require.NoError(t, err)
	assert.Equal(t, "COSMIC", faction)

	_, err = cache.GetFaction(context.Background(), "AGENT", "token")
	require.NoError(t, err)
	assert.Equal(t, 1, calls, "faction lookup should be cached after the first call")
}
