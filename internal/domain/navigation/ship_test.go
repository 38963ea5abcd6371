package navigation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kestrel-systems/fleetcore/internal/domain/shared"
)

func newTestShip(t *testing.T) *Ship {
	t.Helper()
	wp, err := shared.NewWaypoint("X1-AB12-A1", 0, 0)
	require.NoError(t, err)
	fuel, err := shared.NewFuel(100, 100)
	require.NoError(t, err)
	cargo, err := shared.NewCargo(40, 0, nil)
	require.NoError(t, err)
	ship, err := NewShip("AGENT-1", wp, fuel, 100, 40, cargo, 10, "FRAME_FRIGATE", "COMMAND", nil, NavStatusDocked)
	require.NoError(t, err)
	return ship
}

func TestShip_TransitLifecycle(t *testing.T) {
	ship := newTestShip(t)
	assert.True(t, ship.IsDocked())

	changed, err := ship.EnsureInOrbit()
	require.NoError(t, err)
	assert.True(t, changed)
	assert.True(t, ship.IsInOrbit())

	dest, err := shared.NewWaypoint("X1-AB12-B1", 30, 40)
	require.NoError(t, err)
	require.NoError(t, ship.StartTransit(dest))
	assert.True(t, ship.IsInTransit())

	_, err = ship.EnsureDocked()
	assert.Error(t, err, "cannot dock mid-transit")

	require.NoError(t, ship.Arrive())
	assert.True(t, ship.IsInOrbit())
}

func TestShip_HasDisqualifyingCondition(t *testing.T) {
	ship := newTestShip(t)
	assert.False(t, ship.HasDisqualifyingCondition())
	ship.SetComponentConditions([]ComponentCondition{{Symbol: "FRAME", Condition: -1}})
	assert.True(t, ship.HasDisqualifyingCondition())
}
