package contract

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestContract(t *testing.T) *Contract {
	t.Helper()
	terms := Terms{
		Payment: Payment{OnAccepted: 1000, OnFulfilled: 9000},
		Deliveries: []Delivery{
			{TradeSymbol: "IRON_ORE", DestinationSymbol: "X1-AB12-A1", UnitsRequired: 100},
		},
		DeadlineToAccept: "2026-01-01T00:00:00Z",
		Deadline:         "2026-02-01T00:00:00Z",
	}
	c, err := NewContract("contract-1", "COSMIC", "PROCUREMENT", terms, nil)
	require.NoError(t, err)
	return c
}

func TestContract_AcceptAndDeliverAndFulfill(t *testing.T) {
	c := newTestContract(t)
	require.NoError(t, c.Accept())
	require.Error(t, c.Accept(), "cannot accept twice")

	require.False(t, c.CanFulfill())
	require.NoError(t, c.DeliverCargo("IRON_ORE", 60))
	require.False(t, c.CanFulfill())
	require.NoError(t, c.DeliverCargo("IRON_ORE", 40))
	require.True(t, c.CanFulfill())

	require.NoError(t, c.Fulfill())
	require.True(t, c.Fulfilled())
}

func TestContract_DeliverCargo_RejectsOverdelivery(t *testing.T) {
	c := newTestContract(t)
	require.NoError(t, c.Accept())
	require.Error(t, c.DeliverCargo("IRON_ORE", 101))
}

func TestContract_EvaluateProfitability(t *testing.T) {
	c := newTestContract(t)
	eval, err := c.EvaluateProfitability(ProfitabilityContext{
		MarketPrices:    map[string]int{"IRON_ORE": 20},
		CargoCapacity:   40,
		FuelCostPerTrip: 50,
	})
	require.NoError(t, err)
	require.Equal(t, 3, eval.TripsRequired)
	require.True(t, eval.IsProfitable)
}
