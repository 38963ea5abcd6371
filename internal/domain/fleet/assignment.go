package fleet

import "sync"

// AssignmentMap is the bidirectional role_id <-> ship_symbol map the Agent
// Controller keeps consistent at all times (spec.md §3 invariant: "Every
// ship has at most one role assignment"). Grounded on
// agent_controller.rs's job_assignments / job_assignments_rev pair of
// DashMaps, collapsed into one mutex-guarded struct since this fleet runs
// single-process.
type AssignmentMap struct {
	mu         sync.Mutex
	roleToShip map[string]string
	shipToRole map[string]string
}

func NewAssignmentMap() *AssignmentMap {
	return &AssignmentMap{
		roleToShip: make(map[string]string),
		shipToRole: make(map[string]string),
	}
}

// Assign records that shipSymbol now holds roleID. Any prior assignment
// for either side is overwritten.
func (m *AssignmentMap) Assign(roleID, shipSymbol string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if prevShip, ok := m.roleToShip[roleID]; ok {
		delete(m.shipToRole, prevShip)
	}
	if prevRole, ok := m.shipToRole[shipSymbol]; ok {
		delete(m.roleToShip, prevRole)
	}
	m.roleToShip[roleID] = shipSymbol
	m.shipToRole[shipSymbol] = roleID
}

func (m *AssignmentMap) Unassign(roleID, shipSymbol string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.roleToShip, roleID)
	delete(m.shipToRole, shipSymbol)
}

func (m *AssignmentMap) ShipFor(roleID string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.roleToShip[roleID]
	return s, ok
}

func (m *AssignmentMap) RoleFor(shipSymbol string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.shipToRole[shipSymbol]
	return r, ok
}

func (m *AssignmentMap) IsShipAssigned(shipSymbol string) bool {
	_, ok := m.RoleFor(shipSymbol)
	return ok
}

func (m *AssignmentMap) IsRoleFilled(roleID string) bool {
	_, ok := m.ShipFor(roleID)
	return ok
}

// Reconcile drops assignments whose role no longer exists in the given
// config or whose ship symbol is not present in liveShips, returning the
// (roleID, shipSymbol) pairs it removed. Mirrors
// agent_controller.rs's refresh_ship_config unassign pass.
func (m *AssignmentMap) Reconcile(config []ShipConfig, liveShips map[string]bool) [][2]string {
	roleExists := make(map[string]bool, len(config))
	for _, c := range config {
		roleExists[c.ID] = true
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var removed [][2]string
	for roleID, shipSymbol := range m.roleToShip {
		if !roleExists[roleID] || !liveShips[shipSymbol] {
			removed = append(removed, [2]string{roleID, shipSymbol})
		}
	}
	for _, pair := range removed {
		delete(m.roleToShip, pair[0])
		delete(m.shipToRole, pair[1])
	}
	return removed
}
