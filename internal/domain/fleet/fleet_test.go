package fleet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextEra_AdvancesOnCreditThreshold(t *testing.T) {
	assert.Equal(t, EraStartingSystem1, NextEra(EraStartingSystem1, 799_999))
	assert.Equal(t, EraStartingSystem2, NextEra(EraStartingSystem1, 800_000))
	assert.Equal(t, EraInterSystem1, NextEra(EraInterSystem1, 10_000_000), "no further active transition")
}

func TestShipConfig_AllowsMultipleShips(t *testing.T) {
	probe := ShipConfig{ID: "probe-1", ShipModel: "SHIP_PROBE", PurchaseCriteria: PurchaseCriteria{NeverPurchase: true}}
	hauler := ShipConfig{ID: "hauler-1", ShipModel: "SHIP_LIGHT_HAULER"}
	assert.True(t, probe.AllowsMultipleShips())
	assert.False(t, hauler.AllowsMultipleShips())
}

func TestAssignmentMap_AssignAndReconcile(t *testing.T) {
	m := NewAssignmentMap()
	m.Assign("role-a", "SHIP-1")
	require.True(t, m.IsShipAssigned("SHIP-1"))
	require.True(t, m.IsRoleFilled("role-a"))

	ship, ok := m.ShipFor("role-a")
	require.True(t, ok)
	assert.Equal(t, "SHIP-1", ship)

	removed := m.Reconcile(nil, map[string]bool{"SHIP-1": true})
	assert.Len(t, removed, 1, "role-a no longer exists in an empty config")
	assert.False(t, m.IsShipAssigned("SHIP-1"))
}

func TestAssignmentMap_ReassignOverwritesBothSides(t *testing.T) {
	m := NewAssignmentMap()
	m.Assign("role-a", "SHIP-1")
	m.Assign("role-a", "SHIP-2")
	assert.False(t, m.IsShipAssigned("SHIP-1"))
	ship, _ := m.ShipFor("role-a")
	assert.Equal(t, "SHIP-2", ship)
}
