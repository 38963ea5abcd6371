package pathfinding

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDistance(t *testing.T) {
	a := Point{Symbol: "A", X: 0, Y: 0}
	b := Point{Symbol: "B", X: 30, Y: 40}
	assert.Equal(t, int64(0), Distance(a, a))
	assert.Equal(t, int64(50), Distance(a, b))
}

func TestComputeEdge_BurnCruiseBoundary(t *testing.T) {
	a := Point{Symbol: "A", X: 0, Y: 0}
	b := Point{Symbol: "B", X: 30, Y: 40}

	e, ok := ComputeEdge(a, b, 10, 100)
	require.True(t, ok)
	assert.Equal(t, FlightModeBurn, e.Mode)
	assert.Equal(t, int64(100), e.FuelCost)
	assert.Equal(t, int64(78), e.Duration)

	e, ok = ComputeEdge(a, b, 10, 50)
	require.True(t, ok)
	assert.Equal(t, FlightModeCruise, e.Mode)
	assert.Equal(t, int64(50), e.FuelCost)
	assert.Equal(t, int64(140), e.Duration)

	_, ok = ComputeEdge(a, b, 10, 49)
	assert.False(t, ok)
}

func TestGetRoute_FuelingAcrossMarket(t *testing.T) {
	m1 := Point{Symbol: "M1", X: 0, Y: 0, IsMarket: true}
	m2 := Point{Symbol: "M2", X: 30, Y: 40, IsMarket: true}
	n := Point{Symbol: "N", X: 50, Y: 80, IsMarket: false}

	g := NewGraph([]Point{m1, m2, n})

	route, err := g.GetRoute("M1", "N", 10, 60, 100)
	require.NoError(t, err)
	require.Len(t, route.Hops, 2)
	assert.Equal(t, "M2", route.Hops[0].Waypoint)
	assert.Equal(t, "N", route.Hops[1].Waypoint)
	assert.Equal(t, int64(45), route.RequiredEscape)

	last := route.Hops[len(route.Hops)-1]
	assert.Equal(t, FlightModeCruise, last.Edge.Mode)
	assert.Equal(t, int64(45), last.Edge.FuelCost)
}

func TestGetRoute_NoRoute(t *testing.T) {
	a := Point{Symbol: "A", X: 0, Y: 0, IsMarket: true}
	b := Point{Symbol: "B", X: 1000, Y: 1000, IsMarket: false}
	g := NewGraph([]Point{a, b})

	_, err := g.GetRoute("A", "B", 10, 5, 5)
	assert.Error(t, err)
}
