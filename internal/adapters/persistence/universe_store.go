package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/kestrel-systems/fleetcore/internal/domain/construction"
	"github.com/kestrel-systems/fleetcore/internal/domain/market"
	"github.com/kestrel-systems/fleetcore/internal/domain/shared"
	"github.com/kestrel-systems/fleetcore/internal/domain/shipyard"
)

// UniverseStore persists the read-mostly universe cache: systems,
// waypoints, markets, shipyards, and construction sites. It backs
// internal/application/universe, which adds the in-memory freshness
// policy (ensure_system_loaded, staleness checks) on top.
type UniverseStore struct {
	db *gorm.DB
}

func NewUniverseStore(db *gorm.DB) *UniverseStore {
	return &UniverseStore{db: db}
}

func (u *UniverseStore) SaveSystem(ctx context.Context, sys *shared.System) error {
	warps, _ := json.Marshal(sys.Warps)
	rec := SystemRecord{Symbol: sys.Symbol, X: sys.X, Y: sys.Y, Warps: string(warps), LoadedAt: time.Now()}
	return u.db.WithContext(ctx).Save(&rec).Error
}

func (u *UniverseStore) GetSystem(ctx context.Context, symbol string) (*shared.System, error) {
	var rec SystemRecord
	if err := u.db.WithContext(ctx).Where("symbol = ?", symbol).First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrKeyNotFound
		}
		return nil, err
	}
	var warps []string
	_ = json.Unmarshal([]byte(rec.Warps), &warps)

	var waypointSymbols []string
	var wps []WaypointRecord
	if err := u.db.WithContext(ctx).Where("system_symbol = ?", symbol).Find(&wps).Error; err == nil {
		for _, wp := range wps {
			waypointSymbols = append(waypointSymbols, wp.Symbol)
		}
	}

	sys := shared.NewSystem(rec.Symbol, rec.X, rec.Y)
	sys.Warps = warps
	sys.Waypoints = waypointSymbols
	return sys, nil
}

func (u *UniverseStore) SaveWaypoints(ctx context.Context, systemSymbol string, waypoints []*shared.Waypoint) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, wp := range waypoints {
			traits, _ := json.Marshal(wp.Traits)
			orbitals, _ := json.Marshal(wp.Orbitals)
			rec := WaypointRecord{
				Symbol: wp.Symbol, SystemSymbol: systemSymbol, Type: wp.Type,
				X: wp.X, Y: wp.Y, Traits: string(traits), HasFuel: wp.HasFuel,
				Orbitals: string(orbitals),
			}
			if err := tx.Save(&rec).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (u *UniverseStore) GetSystemWaypoints(ctx context.Context, systemSymbol string) ([]*shared.Waypoint, error) {
	var recs []WaypointRecord
	if err := u.db.WithContext(ctx).Where("system_symbol = ?", systemSymbol).Find(&recs).Error; err != nil {
		return nil, err
	}
	waypoints := make([]*shared.Waypoint, 0, len(recs))
	for _, rec := range recs {
		wp, err := shared.NewWaypoint(rec.Symbol, rec.X, rec.Y)
		if err != nil {
			continue
		}
		wp.SystemSymbol = rec.SystemSymbol
		wp.Type = rec.Type
		wp.HasFuel = rec.HasFuel
		_ = json.Unmarshal([]byte(rec.Traits), &wp.Traits)
		_ = json.Unmarshal([]byte(rec.Orbitals), &wp.Orbitals)
		waypoints = append(waypoints, wp)
	}
	return waypoints, nil
}

func (u *UniverseStore) SaveMarket(ctx context.Context, m *market.Market) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("waypoint_symbol = ?", m.WaypointSymbol()).Delete(&MarketRecord{}).Error; err != nil {
			return err
		}
		goods := m.TradeGoods()
		if len(goods) == 0 {
			return nil
		}
		records := make([]MarketRecord, len(goods))
		for i, g := range goods {
			records[i] = MarketRecord{
				WaypointSymbol: m.WaypointSymbol(), GoodSymbol: g.Symbol(),
				GoodType: string(g.Type()), Supply: string(g.Supply()), Activity: string(g.Activity()),
				PurchasePrice: g.PurchasePrice(), SellPrice: g.SellPrice(), TradeVolume: g.TradeVolume(),
				UpdatedAt: m.LastUpdated(),
			}
		}
		return tx.Create(&records).Error
	})
}

func (u *UniverseStore) GetMarket(ctx context.Context, waypointSymbol string) (*market.Market, error) {
	var recs []MarketRecord
	if err := u.db.WithContext(ctx).Where("waypoint_symbol = ?", waypointSymbol).Find(&recs).Error; err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, ErrKeyNotFound
	}
	goods := make([]market.TradeGood, 0, len(recs))
	lastUpdated := recs[0].UpdatedAt
	for _, rec := range recs {
		g, err := market.NewTradeGood(
			rec.GoodSymbol, market.GoodType(rec.GoodType), market.Supply(rec.Supply), market.Activity(rec.Activity),
			rec.PurchasePrice, rec.SellPrice, rec.TradeVolume,
		)
		if err != nil {
			continue
		}
		goods = append(goods, *g)
		if rec.UpdatedAt.After(lastUpdated) {
			lastUpdated = rec.UpdatedAt
		}
	}
	return market.NewMarket(waypointSymbol, goods, lastUpdated)
}

func (u *UniverseStore) SaveShipyard(ctx context.Context, sy *shipyard.Shipyard) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("waypoint_symbol = ?", sy.WaypointSymbol()).Delete(&ShipyardRecord{}).Error; err != nil {
			return err
		}
		offerings := sy.Offerings()
		if len(offerings) == 0 {
			return nil
		}
		records := make([]ShipyardRecord, len(offerings))
		for i, o := range offerings {
			records[i] = ShipyardRecord{
				WaypointSymbol: sy.WaypointSymbol(), ShipModel: o.ShipModel,
				PurchasePrice: o.PurchasePrice, UpdatedAt: sy.LastUpdated(),
			}
		}
		return tx.Create(&records).Error
	})
}

func (u *UniverseStore) GetShipyard(ctx context.Context, waypointSymbol string) (*shipyard.Shipyard, error) {
	var recs []ShipyardRecord
	if err := u.db.WithContext(ctx).Where("waypoint_symbol = ?", waypointSymbol).Find(&recs).Error; err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, ErrKeyNotFound
	}
	offerings := make([]shipyard.Offering, len(recs))
	for i, rec := range recs {
		offerings[i] = shipyard.Offering{ShipModel: rec.ShipModel, PurchasePrice: rec.PurchasePrice}
	}
	return shipyard.NewShipyard(waypointSymbol, offerings, recs[0].UpdatedAt)
}

func (u *UniverseStore) SearchShipyards(ctx context.Context, systemSymbol, shipModel string) ([]string, error) {
	var waypoints []string
	err := u.db.WithContext(ctx).
		Table("shipyards").
		Joins("JOIN waypoints ON waypoints.symbol = shipyards.waypoint_symbol").
		Where("waypoints.system_symbol = ? AND shipyards.ship_model = ?", systemSymbol, shipModel).
		Pluck("shipyards.waypoint_symbol", &waypoints).Error
	return waypoints, err
}

func (u *UniverseStore) SaveConstruction(ctx context.Context, site *construction.Site) error {
	materialsJSON, err := json.Marshal(site.Materials)
	if err != nil {
		return err
	}
	rec := ConstructionRecord{
		WaypointSymbol: site.WaypointSymbol, MaterialsJSON: string(materialsJSON),
		Complete: site.IsComplete, UpdatedAt: time.Now(),
	}
	return u.db.WithContext(ctx).Save(&rec).Error
}

func (u *UniverseStore) GetConstruction(ctx context.Context, waypointSymbol string) (*construction.Site, error) {
	var rec ConstructionRecord
	if err := u.db.WithContext(ctx).Where("waypoint_symbol = ?", waypointSymbol).First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrKeyNotFound
		}
		return nil, err
	}
	var materials []construction.Material
	if err := json.Unmarshal([]byte(rec.MaterialsJSON), &materials); err != nil {
		return nil, err
	}
	return construction.NewSite(rec.WaypointSymbol, materials)
}
