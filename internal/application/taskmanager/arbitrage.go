package taskmanager

import (
	"math"

	"github.com/kestrel-systems/fleetcore/internal/domain/construction"
	"github.com/kestrel-systems/fleetcore/internal/domain/market"
	"github.com/kestrel-systems/fleetcore/internal/domain/task"
	"github.com/kestrel-systems/fleetcore/pkg/idgen"
)

// generateArbitrage enumerates buy/sell pairs across every good traded
// anywhere in the system, per spec.md §4.2's arbitrage rules: export/
// exchange goods at adequate supply on the buy side, import/exchange goods
// at no more than moderate supply on the sell side, profit above the
// configured floor.
func (m *TaskManager) generateArbitrage(systemSymbol, startingSystem string, markets map[string]*market.Market, policy construction.RedirectPolicy) []task.Task {
	var out []task.Task
	for _, good := range tradedGoods(markets) {
		buyWp, buyPrice, buyTV, ok := bestBuy(good, markets, policy)
		if !ok {
			continue
		}
		sellWp, sellPrice, sellTV, ok := bestSell(good, markets, policy)
		if !ok || sellWp == buyWp {
			continue
		}
		units := buyTV
		if sellTV < units {
			units = sellTV
		}
		if units > defaultCapacityCap {
			units = defaultCapacityCap
		}
		if units <= 0 {
			continue
		}
		profit := int64(sellPrice-buyPrice) * int64(units)
		if profit < m.cfg.MinProfit {
			continue
		}
		out = append(out, task.Task{
			ID:              idgen.TradeTaskID(systemSymbol, startingSystem, good),
			Value:           int(profit),
			Kind:            task.KindTransportCargo,
			Src:             buyWp,
			Dest:            sellWp,
			Good:            good,
			Units:           units,
			TransportAction: task.TransportArbitrage,
		})
	}
	return out
}

func tradedGoods(markets map[string]*market.Market) []string {
	seen := map[string]bool{}
	var goods []string
	for _, mkt := range markets {
		for _, g := range mkt.TradeGoods() {
			if !seen[g.Symbol()] {
				seen[g.Symbol()] = true
				goods = append(goods, g.Symbol())
			}
		}
	}
	return goods
}

// bestBuy finds the cheapest purchase price for good across export/
// exchange listings, applying the Strong-activity supply floor unless the
// good is on the construction policy's constant-flow exemption list.
func bestBuy(good string, markets map[string]*market.Market, policy construction.RedirectPolicy) (wp string, price, tv int, ok bool) {
	best := int(^uint(0) >> 1)
	for wpSym, mkt := range markets {
		g := mkt.FindGood(good)
		if g == nil {
			continue
		}
		switch {
		case g.IsExchange():
		case g.IsExport():
			minSupply := market.SupplyModerate
			if !policy.ConstantFlow[good] && g.Activity() == market.ActivityStrong {
				minSupply = market.SupplyHigh
			}
			if !g.Supply().AtLeast(minSupply) {
				continue
			}
		default:
			continue
		}
		if g.PurchasePrice() < best {
			best, wp, price, tv, ok = g.PurchasePrice(), wpSym, g.PurchasePrice(), g.TradeVolume(), true
		}
	}
	return
}

// bestSell finds the highest sell price for good across import/exchange
// listings restricted to the construction policy's sell allowlist (when
// one applies to this good) and respecting per-market import caps.
func bestSell(good string, markets map[string]*market.Market, policy construction.RedirectPolicy) (wp string, price, tv int, ok bool) {
	allowlist := policy.SellAllowlist[good]
	best := -1
	for wpSym, mkt := range markets {
		if len(allowlist) > 0 && !contains(allowlist, wpSym) {
			continue
		}
		g := mkt.FindGood(good)
		if g == nil {
			continue
		}
		switch {
		case g.IsExchange():
		case g.IsImport():
			if !g.Supply().AtMost(market.SupplyModerate) {
				continue
			}
			if cap, capped := policy.ImportCaps[construction.ImportCapKey{Waypoint: wpSym, Good: good}]; capped {
				if g.TradeVolume() >= cap && !g.Supply().AtMost(market.SupplyLimited) {
					continue
				}
			}
		default:
			continue
		}
		if g.SellPrice() > best {
			best, wp, price, tv, ok = g.SellPrice(), wpSym, g.SellPrice(), g.TradeVolume(), true
		}
	}
	return
}

// generateConstructionTasks emits one transport task per incomplete
// construction good, sourcing from the cheapest eligible market and
// delivering to the gate waypoint.
func (m *TaskManager) generateConstructionTasks(systemSymbol, startingSystem string, site *construction.Site, markets map[string]*market.Market, policy construction.RedirectPolicy) []task.Task {
	if site == nil || site.IsComplete {
		return nil
	}
	var out []task.Task
	remaining := remainingByGood(site)
	for _, good := range site.IncompleteMaterials() {
		need := remaining[good]
		if need <= 0 {
			continue
		}
		wp, price, tv, ok := bestBuy(good, markets, policy)
		if !ok {
			continue
		}
		units := int(math.Min(float64(tv), math.Min(float64(need), defaultCapacityCap)))
		if units <= 0 {
			continue
		}
		value := units * (price/10 + 100)
		out = append(out, task.Task{
			ID:              idgen.TradeTaskID(systemSymbol, startingSystem, "construction_"+good),
			Value:           value,
			Kind:            task.KindTransportCargo,
			Src:             wp,
			Dest:            site.WaypointSymbol,
			Good:            good,
			Units:           units,
			TransportAction: task.TransportConstruction,
		})
	}
	return out
}

func remainingByGood(site *construction.Site) map[string]int {
	out := map[string]int{}
	for _, mat := range site.Materials {
		out[mat.TradeSymbol] = mat.Required - mat.Fulfilled
	}
	return out
}
