package taskmanager

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kestrel-systems/fleetcore/internal/domain/construction"
	"github.com/kestrel-systems/fleetcore/internal/domain/market"
	"github.com/kestrel-systems/fleetcore/internal/domain/task"
)

func newGood(t *testing.T, symbol string, kind market.GoodType, supply market.Supply, activity market.Activity, buy, sell, tv int) market.TradeGood {
	g, err := market.NewTradeGood(symbol, kind, supply, activity, buy, sell, tv)
	require.NoError(t, err)
	return *g
}

func TestMarketRefreshValue(t *testing.T) {
	assert.Equal(t, 0, marketRefreshValue(10*time.Minute))
	assert.Equal(t, 1000, marketRefreshValue(30*time.Minute))
	assert.Equal(t, 3000, marketRefreshValue(45*time.Minute))
	assert.Equal(t, 5000, marketRefreshValue(90*time.Minute))
}

func TestBestBuyPrefersCheapestEligibleExport(t *testing.T) {
	goodA := newGood(t, "IRON_ORE", market.GoodTypeExport, market.SupplyHigh, market.ActivityWeak, 10, 8, 50)
	goodB := newGood(t, "IRON_ORE", market.GoodTypeExport, market.SupplyHigh, market.ActivityWeak, 20, 18, 50)
	marketA, err := market.NewMarket("X1-A-1", []market.TradeGood{goodA}, time.Now())
	require.NoError(t, err)
	marketB, err := market.NewMarket("X1-A-2", []market.TradeGood{goodB}, time.Now())
	require.NoError(t, err)

	wp, price, tv, ok := bestBuy("IRON_ORE", map[string]*market.Market{"X1-A-1": marketA, "X1-A-2": marketB}, construction.RedirectPolicy{})
	require.True(t, ok)
	assert.Equal(t, "X1-A-1", wp)
	assert.Equal(t, 10, price)
	assert.Equal(t, 50, tv)
}

func TestBestBuySkipsStrongActivityBelowHighSupply(t *testing.T) {
	strongModerate := newGood(t, "IRON_ORE", market.GoodTypeExport, market.SupplyModerate, market.ActivityStrong, 5, 4, 50)
	m, err := market.NewMarket("X1-A-1", []market.TradeGood{strongModerate}, time.Now())
	require.NoError(t, err)

	_, _, _, ok := bestBuy("IRON_ORE", map[string]*market.Market{"X1-A-1": m}, construction.RedirectPolicy{})
	assert.False(t, ok, "strong activity export below HIGH supply should be excluded")
}

func TestGenerateArbitrageRequiresMinProfit(t *testing.T) {
	buy := newGood(t, "IRON_ORE", market.GoodTypeExport, market.SupplyHigh, market.ActivityWeak, 10, 8, 50)
	sell := newGood(t, "IRON_ORE", market.GoodTypeImport, market.SupplyScarce, market.ActivityGrowing, 12, 11, 50)
	mA, err := market.NewMarket("X1-A-1", []market.TradeGood{buy}, time.Now())
	require.NoError(t, err)
	mB, err := market.NewMarket("X1-A-2", []market.TradeGood{sell}, time.Now())
	require.NoError(t, err)
	markets := map[string]*market.Market{"X1-A-1": mA, "X1-A-2": mB}

	tm := New(nil, nil, nil, Config{MinProfit: 10_000}, nil)
	tasks := tm.generateArbitrage("X1-A", "X1-A", markets, construction.RedirectPolicy{})
	assert.Empty(t, tasks, "profit per unit is only 1 credit; should not clear a 10000 floor")

	tm2 := New(nil, nil, nil, Config{MinProfit: 0}, nil)
	tasks2 := tm2.generateArbitrage("X1-A", "X1-A", markets, construction.RedirectPolicy{})
	require.Len(t, tasks2, 1)
	assert.Equal(t, "X1-A-1", tasks2[0].Src)
	assert.Equal(t, "X1-A-2", tasks2[0].Dest)
}

func TestGreedyPlannerRespectsBudget(t *testing.T) {
	tasks := []task.Task{
		{ID: "t1", Value: 1000, Kind: task.KindVisitLocation, Waypoint: "X1-A-2", VisitAction: task.VisitRefreshMarket},
		{ID: "t2", Value: 5000, Kind: task.KindVisitLocation, Waypoint: "X1-A-3", VisitAction: task.VisitRefreshMarket},
	}
	matrix := map[string]map[string]int64{
		"X1-A-1": {"X1-A-2": 100, "X1-A-3": 50},
	}
	planner := GreedyPlanner{}
	assignments, schedules := planner.Plan(
		[]PlannerShip{{Symbol: "SHIP-1", CargoCapacity: 40, Speed: 10, Start: "X1-A-1"}},
		tasks,
		matrix,
		PlannerConstraints{PlanLength: 60 * time.Second},
	)

	assert.Equal(t, "SHIP-1", assignments["t2"], "higher value-density task within budget should win")
	assert.NotContains(t, assignments, "t1")
	require.Len(t, schedules["SHIP-1"].Actions, 1)
	assert.Equal(t, "X1-A-3", schedules["SHIP-1"].Actions[0].Waypoint)
}

func TestForceAssignHighestValue(t *testing.T) {
	tasks := []task.Task{
		{ID: "t1", Value: 100, Kind: task.KindVisitLocation, Waypoint: "X1-A-2"},
		{ID: "t2", Value: 900, Kind: task.KindTransportCargo, Src: "X1-A-1", Dest: "X1-A-2", Good: "IRON_ORE", Units: 10},
	}
	sched, id := forceAssignHighestValue("SHIP-1", tasks)
	assert.Equal(t, "t2", id)
	require.Len(t, sched.Actions, 2)
	assert.Equal(t, task.ActionBuyGoods, sched.Actions[0].Action.Type)
	assert.Equal(t, task.ActionSellGoods, sched.Actions[1].Action.Type)
}
