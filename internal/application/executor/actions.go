package executor

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/kestrel-systems/fleetcore/internal/application/agentcontroller"
	"github.com/kestrel-systems/fleetcore/internal/domain/navigation"
	"github.com/kestrel-systems/fleetcore/internal/domain/shared"
	"github.com/kestrel-systems/fleetcore/internal/domain/task"
)

func cooldown(secs int) time.Duration {
	return time.Duration(secs) * time.Second
}

// executeAction dispatches one scheduled action's Type against the game
// API and the in-process domain/controller/surveymanager/broker
// collaborators, grounded action-for-action on the corresponding method in
// ship_controller.rs (buy_goods, sell_goods, jettison_cargo, refuel,
// navigate/warp/jump, supply_construction, deliver_contract,
// refresh_market, refresh_shipyard, survey, transfer_cargo, receive_cargo,
// siphon, extract_survey, scrap).
func (e *Executor) executeAction(ctx context.Context, cell *agentcontroller.ShipCell, shipSymbol string, sa task.ScheduledAction, logger *log.Logger) error {
	a := sa.Action
	system := shared.ExtractSystemSymbol(sa.Waypoint)

	switch a.Type {
	case task.ActionRefreshMarket:
		_, err := e.cache.RefreshMarket(ctx, system, sa.Waypoint, e.cfg.Token)
		return err

	case task.ActionRefreshShipyard:
		_, err := e.cache.RefreshShipyard(ctx, system, sa.Waypoint, e.cfg.Token)
		return err

	case task.ActionBuyGoods:
		if err := ensureDocked(cell); err != nil {
			return err
		}
		result, err := e.api.PurchaseCargo(ctx, shipSymbol, a.Good, a.Units, e.cfg.Token)
		if err != nil {
			return fmt.Errorf("buy %s x%d: %w", a.Good, a.Units, err)
		}
		if err := cell.With(func(s *navigation.Ship) error {
			return s.ReceiveCargo(&shared.CargoItem{Symbol: a.Good, Units: result.UnitsAdded})
		}); err != nil {
			return err
		}
		if result.UnitsAdded > 0 {
			e.controller.Ledger().RegisterGoodsChange(shipSymbol, a.Good, result.UnitsAdded, int64(result.TotalCost/result.UnitsAdded))
		}
		return nil

	case task.ActionSellGoods:
		if err := ensureDocked(cell); err != nil {
			return err
		}
		result, err := e.api.SellCargo(ctx, shipSymbol, a.Good, a.Units, e.cfg.Token)
		if err != nil {
			return fmt.Errorf("sell %s x%d: %w", a.Good, a.Units, err)
		}
		if err := cell.With(func(s *navigation.Ship) error {
			return s.RemoveCargo(a.Good, a.Units)
		}); err != nil {
			return err
		}
		if result.UnitsSold > 0 {
			e.controller.Ledger().RegisterGoodsChange(shipSymbol, a.Good, -result.UnitsSold, int64(result.TotalRevenue/result.UnitsSold))
		}
		return nil

	case task.ActionJettison:
		if err := e.api.JettisonCargo(ctx, shipSymbol, a.Good, a.Units, e.cfg.Token); err != nil {
			return fmt.Errorf("jettison %s x%d: %w", a.Good, a.Units, err)
		}
		return cell.With(func(s *navigation.Ship) error {
			return s.RemoveCargo(a.Good, a.Units)
		})

	case task.ActionDeliverConstruction, task.ActionSupplyConstruction:
		if err := ensureDocked(cell); err != nil {
			return err
		}
		_, err := e.api.SupplyConstruction(ctx, system, sa.Waypoint, shipSymbol, a.Good, a.Units, e.cfg.Token)
		if err != nil {
			return fmt.Errorf("supply construction %s x%d: %w", a.Good, a.Units, err)
		}
		if err := cell.With(func(s *navigation.Ship) error {
			return s.RemoveCargo(a.Good, a.Units)
		}); err != nil {
			return err
		}
		_, err = e.cache.UpdateConstruction(ctx, system, sa.Waypoint, e.cfg.Token)
		return err

	case task.ActionDeliverContract:
		return e.controller.DeliverContractCargo(ctx, shipSymbol, a.Good, a.Units)

	case task.ActionTryBuyShips:
		_, _, err := e.controller.TryBuyShips(ctx, shipSymbol)
		return err

	case task.ActionTransferCargo:
		var cargo map[string]int
		if err := cell.With(func(s *navigation.Ship) error {
			cargo = map[string]int{a.Good: a.Units}
			return nil
		}); err != nil {
			return err
		}
		if err := e.brokers.TransferCargo(ctx, shipSymbol, sa.Waypoint, cargo); err != nil {
			return err
		}
		return cell.With(func(s *navigation.Ship) error {
			return s.RemoveCargo(a.Good, a.Units)
		})

	case task.ActionReceiveCargo:
		var space int
		_ = cell.With(func(s *navigation.Ship) error {
			space = s.AvailableCargoSpace()
			return nil
		})
		received, err := e.brokers.ReceiveCargo(ctx, shipSymbol, sa.Waypoint, space)
		if err != nil {
			return err
		}
		return cell.With(func(s *navigation.Ship) error {
			for good, units := range received {
				if err := s.ReceiveCargo(&shared.CargoItem{Symbol: good, Units: units}); err != nil {
					return err
				}
			}
			return nil
		})

	case task.ActionSiphon:
		if _, err := ensureInOrbit(cell); err != nil {
			return err
		}
		result, err := e.api.SiphonResources(ctx, shipSymbol, e.cfg.Token)
		if err != nil {
			return fmt.Errorf("siphon: %w", err)
		}
		if err := cell.With(func(s *navigation.Ship) error {
			return s.ReceiveCargo(&shared.CargoItem{Symbol: result.Symbol, Units: result.Units})
		}); err != nil {
			return err
		}
		e.clock.Sleep(cooldown(result.CooldownSecs))
		return nil

	case task.ActionExtract:
		if _, err := ensureInOrbit(cell); err != nil {
			return err
		}
		result, err := e.api.ExtractResources(ctx, shipSymbol, e.cfg.Token)
		if err != nil {
			return fmt.Errorf("extract: %w", err)
		}
		if err := cell.With(func(s *navigation.Ship) error {
			return s.ReceiveCargo(&shared.CargoItem{Symbol: result.Symbol, Units: result.Units})
		}); err != nil {
			return err
		}
		e.clock.Sleep(cooldown(result.CooldownSecs))
		return nil

	case task.ActionChartJumpGate:
		if _, err := e.cache.RefreshJumpGate(ctx, system, sa.Waypoint, e.cfg.Token); err != nil {
			return fmt.Errorf("chart jump gate %s: %w", sa.Waypoint, err)
		}
		return nil

	case task.ActionSurvey:
		if _, err := ensureInOrbit(cell); err != nil {
			return err
		}
		wait, err := e.surveys.Survey(ctx, system, shipSymbol, e.cfg.Token)
		if err != nil {
			return fmt.Errorf("survey: %w", err)
		}
		e.clock.Sleep(wait)
		return nil

	case task.ActionExtractSurvey:
		if _, err := ensureInOrbit(cell); err != nil {
			return err
		}
		survey := e.surveys.BestSurveyFor(system, a.Good)
		if survey == nil {
			logger.Printf("no survey available for %s at %s, skipping", a.Good, sa.Waypoint)
			return nil
		}
		result, wait, err := e.surveys.ExtractSurvey(ctx, system, shipSymbol, survey, e.cfg.Token)
		if err != nil {
			logger.Printf("extract survey: %v", err)
			return nil
		}
		if err := cell.With(func(s *navigation.Ship) error {
			return s.ReceiveCargo(&shared.CargoItem{Symbol: result.Symbol, Units: result.Units})
		}); err != nil {
			return err
		}
		e.clock.Sleep(wait)
		return nil

	case task.ActionScrap:
		if err := ensureDocked(cell); err != nil {
			return err
		}
		_, err := e.api.ScrapShip(ctx, shipSymbol, e.cfg.Token)
		return err

	case task.ActionSetFlightMode:
		if err := e.api.SetFlightMode(ctx, shipSymbol, a.FlightMode, e.cfg.Token); err != nil {
			return err
		}
		return cell.With(func(s *navigation.Ship) error {
			s.SetFlightMode(a.FlightMode)
			return nil
		})

	case task.ActionJump:
		if _, err := ensureInOrbit(cell); err != nil {
			return err
		}
		result, err := e.api.JumpShip(ctx, shipSymbol, a.Destination, e.cfg.Token)
		if err != nil {
			return fmt.Errorf("jump to %s: %w", a.Destination, err)
		}
		destWaypoint, err := e.waypoint(ctx, system, result.Destination)
		if err != nil {
			return err
		}
		if err := cell.With(func(s *navigation.Ship) error {
			s.SetLocation(destWaypoint)
			s.SetCooldown(e.clock.Now().Add(cooldown(result.CooldownSecs)))
			return nil
		}); err != nil {
			return err
		}
		return nil

	case task.ActionWarp:
		return e.gotoWaypoint(ctx, cell, a.Destination, logger)

	default:
		return fmt.Errorf("unsupported action type %q", a.Type)
	}
}

func ensureDocked(cell *agentcontroller.ShipCell) error {
	return cell.With(func(s *navigation.Ship) error {
		_, err := s.EnsureDocked()
		return err
	})
}

func ensureInOrbit(cell *agentcontroller.ShipCell) (bool, error) {
	var changed bool
	err := cell.With(func(s *navigation.Ship) error {
		var err error
		changed, err = s.EnsureInOrbit()
		return err
	})
	return changed, err
}
