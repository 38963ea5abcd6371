package shared

import "math"

// System is a named region containing waypoints, connected to other
// systems by warp gates. Grounded on spec.md §3's System entity.
type System struct {
	Symbol    string
	X         float64
	Y         float64
	Waypoints []string // member waypoint symbols
	Warps     []string // directly warp-connected system symbols
}

func NewSystem(symbol string, x, y float64) *System {
	return &System{Symbol: symbol, X: x, Y: y}
}

// DistanceTo returns the Euclidean distance between two systems' centers.
func (s *System) DistanceTo(other *System) float64 {
	dx := other.X - s.X
	dy := other.Y - s.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// HasWaypoint reports whether symbol is a member waypoint of this system.
func (s *System) HasWaypoint(symbol string) bool {
	for _, w := range s.Waypoints {
		if w == symbol {
			return true
		}
	}
	return false
}
