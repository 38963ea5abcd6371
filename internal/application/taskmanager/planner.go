package taskmanager

import (
	"time"

	"github.com/kestrel-systems/fleetcore/internal/domain/task"
)

// PlannerShip is the subset of a ship's navigational profile the planner
// needs to lay out a schedule.
type PlannerShip struct {
	Symbol        string
	CargoCapacity int
	Speed         int
	Start         string
}

// PlannerConstraints bounds how far ahead, and how long, the planner may
// plan.
type PlannerConstraints struct {
	PlanLength     time.Duration
	MaxComputeTime time.Duration
}

// Planner is the take_tasks planning strategy contract: given the ships to
// plan for, the candidate tasks, and a travel-duration matrix keyed by
// waypoint symbol, return which task ids were assigned to which ship and
// the resulting per-ship schedules. spec.md §9 leaves the planning
// algorithm itself unspecified beyond this contract, naming a trivial
// greedy implementation as acceptable.
type Planner interface {
	Plan(ships []PlannerShip, tasks []task.Task, durationMatrix map[string]map[string]int64, constraints PlannerConstraints) (map[string]string, map[string]task.Schedule)
}

// GreedyPlanner assigns the single highest value-density (value per second
// of travel) feasible task at each step, repeating until the plan-length
// budget or the candidate list is exhausted. It is called with exactly one
// ship at a time by TakeTasks.
type GreedyPlanner struct{}

func (GreedyPlanner) Plan(ships []PlannerShip, tasks []task.Task, durationMatrix map[string]map[string]int64, constraints PlannerConstraints) (map[string]string, map[string]task.Schedule) {
	assignments := map[string]string{}
	schedules := map[string]task.Schedule{}
	if len(ships) == 0 {
		return assignments, schedules
	}
	ship := ships[0]

	budget := int64(constraints.PlanLength.Seconds())
	current := ship.Start
	avail := append([]task.Task(nil), tasks...)
	var actions []task.ScheduledAction

	for budget > 0 {
		bestIdx := -1
		var bestDensity float64
		var bestCost int64

		for i, t := range avail {
			firstWp := t.Waypoint
			if t.Kind == task.KindTransportCargo {
				firstWp = t.Src
			}
			leg1, ok := travelTime(durationMatrix, current, firstWp)
			if !ok {
				continue
			}
			cost := leg1
			if t.Kind == task.KindTransportCargo {
				leg2, ok2 := travelTime(durationMatrix, t.Src, t.Dest)
				if !ok2 {
					continue
				}
				cost += leg2
			}
			if cost > budget {
				continue
			}
			density := float64(t.Value) / float64(cost+1)
			if bestIdx == -1 || density > bestDensity {
				bestIdx, bestDensity, bestCost = i, density, cost
			}
		}

		if bestIdx == -1 {
			break
		}
		_ = bestCost
		t := avail[bestIdx]
		avail = append(avail[:bestIdx:bestIdx], avail[bestIdx+1:]...)

		if t.Kind == task.KindVisitLocation {
			leg, _ := travelTime(durationMatrix, current, t.Waypoint)
			budget -= leg
			actions = append(actions, task.ScheduledAction{
				Waypoint:        t.Waypoint,
				Action:          visitAction(t),
				CompletesTaskID: t.ID,
			})
			current = t.Waypoint
		} else {
			leg1, _ := travelTime(durationMatrix, current, t.Src)
			leg2, _ := travelTime(durationMatrix, t.Src, t.Dest)
			budget -= leg1 + leg2
			actions = append(actions,
				task.ScheduledAction{Waypoint: t.Src, Action: srcAction(t)},
				task.ScheduledAction{Waypoint: t.Dest, Action: destAction(t), CompletesTaskID: t.ID},
			)
			current = t.Dest
		}
		assignments[t.ID] = ship.Symbol
	}

	schedules[ship.Symbol] = task.Schedule{ShipSymbol: ship.Symbol, Actions: actions}
	return assignments, schedules
}

func travelTime(matrix map[string]map[string]int64, from, to string) (int64, bool) {
	if from == to {
		return 0, true
	}
	row, ok := matrix[from]
	if !ok {
		return 0, false
	}
	d, ok := row[to]
	return d, ok
}

func visitAction(t task.Task) task.Action {
	switch t.VisitAction {
	case task.VisitRefreshMarket:
		return task.Action{Type: task.ActionRefreshMarket}
	case task.VisitRefreshShipyard:
		return task.Action{Type: task.ActionRefreshShipyard}
	case task.VisitTryBuyShips:
		return task.Action{Type: task.ActionTryBuyShips}
	default:
		return task.Action{}
	}
}

func srcAction(t task.Task) task.Action {
	return task.Action{Type: task.ActionBuyGoods, Good: t.Good, Units: t.Units}
}

func destAction(t task.Task) task.Action {
	if t.TransportAction == task.TransportConstruction {
		return task.Action{Type: task.ActionDeliverConstruction, Good: t.Good, Units: t.Units}
	}
	return task.Action{Type: task.ActionSellGoods, Good: t.Good, Units: t.Units}
}

// forceAssignHighestValue builds a one-task schedule for the single
// highest-value candidate, the take_tasks fallback when the planner
// produces an empty plan (spec.md §4.2 step 5).
func forceAssignHighestValue(shipSymbol string, tasks []task.Task) (task.Schedule, string) {
	if len(tasks) == 0 {
		return task.Schedule{ShipSymbol: shipSymbol}, ""
	}
	best := tasks[0]
	for _, t := range tasks[1:] {
		if t.Value > best.Value {
			best = t
		}
	}

	var actions []task.ScheduledAction
	if best.Kind == task.KindVisitLocation {
		actions = append(actions, task.ScheduledAction{
			Waypoint:        best.Waypoint,
			Action:          visitAction(best),
			CompletesTaskID: best.ID,
		})
	} else {
		actions = append(actions,
			task.ScheduledAction{Waypoint: best.Src, Action: srcAction(best)},
			task.ScheduledAction{Waypoint: best.Dest, Action: destAction(best), CompletesTaskID: best.ID},
		)
	}
	return task.Schedule{ShipSymbol: shipSymbol, Actions: actions}, best.ID
}
