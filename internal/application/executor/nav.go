package executor

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/kestrel-systems/fleetcore/internal/application/agentcontroller"
	"github.com/kestrel-systems/fleetcore/internal/domain/navigation"
	"github.com/kestrel-systems/fleetcore/internal/domain/shared"
)

// waypoint resolves symbol to a *shared.Waypoint, looking first in
// homeSystem's cached waypoint list and falling back to the system the
// symbol itself names (a cross-system jump/warp target).
func (e *Executor) waypoint(ctx context.Context, homeSystem, symbol string) (*shared.Waypoint, error) {
	waypoints, err := e.cache.GetSystemWaypoints(ctx, homeSystem, e.cfg.Token)
	if err == nil {
		for _, wp := range waypoints {
			if wp.Symbol == symbol {
				return wp, nil
			}
		}
	}
	targetSystem := shared.ExtractSystemSymbol(symbol)
	if targetSystem == homeSystem {
		return nil, fmt.Errorf("waypoint %s not found in system %s", symbol, homeSystem)
	}
	waypoints, err = e.cache.GetSystemWaypoints(ctx, targetSystem, e.cfg.Token)
	if err != nil {
		return nil, err
	}
	for _, wp := range waypoints {
		if wp.Symbol == symbol {
			return wp, nil
		}
	}
	return nil, fmt.Errorf("waypoint %s not found", symbol)
}

// gotoWaypoint drives shipSymbol from wherever it is to dest, hop by hop
// along the cached route, grounded on ship_controller.rs's goto_waypoint /
// navigate / refuel trio: orbit before departing, refuel to cover the hop
// (plus the route's escape reserve on the final hop if dest has no
// market), set flight mode, call the navigate/warp API, wait out transit,
// then record arrival and fuel burn on the domain ship.
func (e *Executor) gotoWaypoint(ctx context.Context, cell *agentcontroller.ShipCell, dest string, logger *log.Logger) error {
	var (
		shipSymbol string
		current    string
		speed      int
		fuelCap    int64
		fuelNow    int64
		system     string
	)
	if err := cell.With(func(s *navigation.Ship) error {
		shipSymbol = s.ShipSymbol()
		current = s.CurrentLocation().Symbol
		system = s.CurrentLocation().SystemSymbol
		speed = s.EngineSpeed()
		fuelCap = int64(s.FuelCapacity())
		fuelNow = int64(s.Fuel().Current)
		return nil
	}); err != nil {
		return err
	}
	if current == dest {
		return nil
	}

	route, err := e.cache.GetRoute(ctx, system, e.cfg.Token, current, dest, speed, fuelNow, fuelCap)
	if err != nil {
		return fmt.Errorf("route %s -> %s: %w", current, dest, err)
	}

	for i, hop := range route.Hops {
		required := hop.Edge.FuelCost
		if i == len(route.Hops)-1 && !hop.DstIsMarket {
			required += route.RequiredEscape
		}

		if err := e.ensureFuel(ctx, cell, shipSymbol, hop.SrcIsMarket, required, logger); err != nil {
			return err
		}

		if err := cell.With(func(s *navigation.Ship) error {
			if _, err := s.EnsureInOrbit(); err != nil {
				return err
			}
			s.SetFlightMode(string(hop.Edge.Mode))
			return nil
		}); err != nil {
			return err
		}
		if err := e.api.SetFlightMode(ctx, shipSymbol, string(hop.Edge.Mode), e.cfg.Token); err != nil {
			return fmt.Errorf("set flight mode: %w", err)
		}

		destWaypoint, err := e.waypoint(ctx, system, hop.Waypoint)
		if err != nil {
			return err
		}

		var arrivalStr string
		if destWaypoint.SystemSymbol != system {
			result, err := e.api.WarpShip(ctx, shipSymbol, hop.Waypoint, e.cfg.Token)
			if err != nil {
				return fmt.Errorf("warp to %s: %w", hop.Waypoint, err)
			}
			arrivalStr = result.ArrivalTimeStr
		} else {
			result, err := e.api.NavigateShip(ctx, shipSymbol, hop.Waypoint, e.cfg.Token)
			if err != nil {
				return fmt.Errorf("navigate to %s: %w", hop.Waypoint, err)
			}
			arrivalStr = result.ArrivalTimeStr
		}
		var waitDur time.Duration
		if arrival, err := time.Parse(time.RFC3339, arrivalStr); err == nil {
			waitDur = time.Until(arrival)
		}

		if err := cell.With(func(s *navigation.Ship) error {
			return s.StartTransit(destWaypoint)
		}); err != nil {
			return err
		}

		if waitDur > 0 {
			e.clock.Sleep(waitDur)
		}

		if err := cell.With(func(s *navigation.Ship) error {
			if err := s.Arrive(); err != nil {
				return err
			}
			return s.ConsumeFuel(int(hop.Edge.FuelCost))
		}); err != nil {
			return err
		}
	}
	return nil
}

// ensureFuel tops fuel up to required when docked at a market with
// insufficient fuel: buy in multiples of 100, rounding down, unless that
// leaves the ship short of required, in which case buy exactly the
// shortfall. Mirrors ship_controller.rs's refuel.
func (e *Executor) ensureFuel(ctx context.Context, cell *agentcontroller.ShipCell, shipSymbol string, atMarket bool, required int64, logger *log.Logger) error {
	var (
		fuelNow int64
		fuelCap int64
	)
	_ = cell.With(func(s *navigation.Ship) error {
		fuelNow = int64(s.Fuel().Current)
		fuelCap = int64(s.FuelCapacity())
		return nil
	})
	if fuelNow >= required {
		return nil
	}
	if !atMarket {
		return fmt.Errorf("insufficient fuel (%d/%d) at non-market waypoint", fuelNow, required)
	}

	if err := cell.With(func(s *navigation.Ship) error {
		_, err := s.EnsureDocked()
		return err
	}); err != nil {
		return err
	}

	shortfall := required - fuelNow
	units := (shortfall / 100) * 100
	if units == 0 || fuelNow+units < required {
		units = shortfall
	}
	if fuelNow+units > fuelCap {
		units = fuelCap - fuelNow
	}
	if units <= 0 {
		return nil
	}

	result, err := e.api.RefuelShip(ctx, shipSymbol, e.cfg.Token, intPtr(int(units)))
	if err != nil {
		return fmt.Errorf("refuel: %w", err)
	}
	return cell.With(func(s *navigation.Ship) error {
		return s.Refuel(result.FuelAdded)
	})
}

func intPtr(v int) *int { return &v }
