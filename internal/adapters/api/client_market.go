package api

import (
	"context"
	"fmt"
	"time"

	"github.com/kestrel-systems/fleetcore/internal/infrastructure/ports"
)

func (c *SpaceTradersClient) GetAgent(ctx context.Context, token string) (*ports.AgentData, error) {
	var response struct {
		Data struct {
			AccountID       string `json:"accountId"`
			Symbol          string `json:"symbol"`
			Headquarters    string `json:"headquarters"`
			Credits         int64  `json:"credits"`
			StartingFaction string `json:"startingFaction"`
		} `json:"data"`
	}
	if err := c.request(ctx, "GET", "/my/agent", token, nil, &response); err != nil {
		return nil, fmt.Errorf("get agent: %w", err)
	}
	return &ports.AgentData{
		AccountID:       response.Data.AccountID,
		Symbol:          response.Data.Symbol,
		Headquarters:    response.Data.Headquarters,
		Credits:         response.Data.Credits,
		StartingFaction: response.Data.StartingFaction,
	}, nil
}

func (c *SpaceTradersClient) GetStatus(ctx context.Context) (*ports.StatusData, error) {
	var response struct {
		ResetDate string `json:"resetDate"`
	}
	if err := c.request(ctx, "GET", "/status", "", nil, &response); err != nil {
		return nil, fmt.Errorf("get status: %w", err)
	}
	return &ports.StatusData{ResetDate: response.ResetDate}, nil
}

func (c *SpaceTradersClient) RegisterAgent(ctx context.Context, callsign, faction string) (*ports.RegisterResult, error) {
	body := map[string]string{"symbol": callsign, "faction": faction}
	var response struct {
		Data struct {
			Token string `json:"token"`
			Agent struct {
				AccountID       string `json:"accountId"`
				Symbol          string `json:"symbol"`
				Headquarters    string `json:"headquarters"`
				Credits         int64  `json:"credits"`
				StartingFaction string `json:"startingFaction"`
			} `json:"agent"`
		} `json:"data"`
	}
	if err := c.request(ctx, "POST", "/register", "", body, &response); err != nil {
		return nil, fmt.Errorf("register agent: %w", err)
	}
	return &ports.RegisterResult{
		Token: response.Data.Token,
		Agent: ports.AgentData{
			AccountID:       response.Data.Agent.AccountID,
			Symbol:          response.Data.Agent.Symbol,
			Headquarters:    response.Data.Agent.Headquarters,
			Credits:         response.Data.Agent.Credits,
			StartingFaction: response.Data.Agent.StartingFaction,
		},
	}, nil
}

func (c *SpaceTradersClient) ListWaypoints(ctx context.Context, systemSymbol, token string, page, limit int) (*ports.WaypointsListResponse, error) {
	path := fmt.Sprintf("/systems/%s/waypoints?page=%d&limit=%d", systemSymbol, page, limit)
	var response struct {
		Data []struct {
			Symbol       string  `json:"symbol"`
			SystemSymbol string  `json:"systemSymbol"`
			Type         string  `json:"type"`
			X            float64 `json:"x"`
			Y            float64 `json:"y"`
			Traits       []struct {
				Symbol string `json:"symbol"`
			} `json:"traits"`
			Orbitals []struct {
				Symbol string `json:"symbol"`
			} `json:"orbitals"`
		} `json:"data"`
		Meta struct {
			Total int `json:"total"`
			Page  int `json:"page"`
			Limit int `json:"limit"`
		} `json:"meta"`
	}
	if err := c.request(ctx, "GET", path, token, nil, &response); err != nil {
		return nil, fmt.Errorf("list waypoints: %w", err)
	}

	waypoints := make([]ports.WaypointAPIData, len(response.Data))
	for i, wp := range response.Data {
		traits := make([]string, len(wp.Traits))
		hasFuel := false
		for j, t := range wp.Traits {
			traits[j] = t.Symbol
			if t.Symbol == "MARKETPLACE" || t.Symbol == "FUEL_STATION" {
				hasFuel = true
			}
		}
		orbitals := make([]string, len(wp.Orbitals))
		for j, o := range wp.Orbitals {
			orbitals[j] = o.Symbol
		}
		waypoints[i] = ports.WaypointAPIData{
			Symbol: wp.Symbol, SystemSymbol: wp.SystemSymbol, Type: wp.Type,
			X: wp.X, Y: wp.Y, Traits: traits, Orbitals: orbitals, HasFuel: hasFuel,
		}
	}

	return &ports.WaypointsListResponse{
		Data: waypoints,
		Meta: ports.PaginationMeta{Total: response.Meta.Total, Page: response.Meta.Page, Limit: response.Meta.Limit},
	}, nil
}

func (c *SpaceTradersClient) GetJumpGate(ctx context.Context, systemSymbol, waypointSymbol, token string) (*ports.JumpGateData, error) {
	path := fmt.Sprintf("/systems/%s/waypoints/%s/jump-gate", systemSymbol, waypointSymbol)
	var response struct {
		Data struct {
			Connections []string `json:"connections"`
		} `json:"data"`
	}
	if err := c.request(ctx, "GET", path, token, nil, &response); err != nil {
		return nil, fmt.Errorf("get jump gate: %w", err)
	}
	return &ports.JumpGateData{WaypointSymbol: waypointSymbol, ConnectedSystems: response.Data.Connections}, nil
}

func (c *SpaceTradersClient) GetMarket(ctx context.Context, systemSymbol, waypointSymbol, token string) (*ports.MarketData, error) {
	path := fmt.Sprintf("/systems/%s/waypoints/%s/market", systemSymbol, waypointSymbol)
	var response struct {
		Data struct {
			Symbol  string `json:"symbol"`
			Imports []struct {
				Symbol string `json:"symbol"`
			} `json:"imports"`
			Exports []struct {
				Symbol string `json:"symbol"`
			} `json:"exports"`
			Exchange []struct {
				Symbol string `json:"symbol"`
			} `json:"exchange"`
			TradeGoods []struct {
				Symbol        string `json:"symbol"`
				Supply        string `json:"supply"`
				Activity      string `json:"activity"`
				SellPrice     int    `json:"sellPrice"`
				PurchasePrice int    `json:"purchasePrice"`
				TradeVolume   int    `json:"tradeVolume"`
			} `json:"tradeGoods"`
		} `json:"data"`
	}
	if err := c.request(ctx, "GET", path, token, nil, &response); err != nil {
		return nil, fmt.Errorf("get market: %w", err)
	}

	toSymbols := func(items []struct{ Symbol string `json:"symbol"` }) []string {
		out := make([]string, len(items))
		for i, it := range items {
			out[i] = it.Symbol
		}
		return out
	}

	tradeGoods := make([]ports.TradeGoodData, len(response.Data.TradeGoods))
	for i, g := range response.Data.TradeGoods {
		tradeGoods[i] = ports.TradeGoodData{
			Symbol: g.Symbol, Supply: g.Supply, Activity: g.Activity,
			SellPrice: g.SellPrice, PurchasePrice: g.PurchasePrice, TradeVolume: g.TradeVolume,
		}
	}

	return &ports.MarketData{
		Symbol:     response.Data.Symbol,
		Imports:    toSymbols(response.Data.Imports),
		Exports:    toSymbols(response.Data.Exports),
		Exchange:   toSymbols(response.Data.Exchange),
		TradeGoods: tradeGoods,
	}, nil
}

func (c *SpaceTradersClient) GetShipyard(ctx context.Context, systemSymbol, waypointSymbol, token string) (*ports.ShipyardListingData, error) {
	path := fmt.Sprintf("/systems/%s/waypoints/%s/shipyard", systemSymbol, waypointSymbol)
	var response struct {
		Data struct {
			ShipTypes []struct {
				Type string `json:"type"`
			} `json:"shipTypes"`
			Ships []struct {
				Type          string `json:"type"`
				PurchasePrice int    `json:"purchasePrice"`
			} `json:"ships"`
			ModifiedAt time.Time `json:"modifiedAt"`
		} `json:"data"`
	}
	if err := c.request(ctx, "GET", path, token, nil, &response); err != nil {
		return nil, fmt.Errorf("get shipyard: %w", err)
	}

	types := make([]ports.ShipTypeInfo, 0, len(response.Data.Ships))
	for _, s := range response.Data.Ships {
		types = append(types, ports.ShipTypeInfo{Model: s.Type, PurchasePrice: s.PurchasePrice})
	}
	return &ports.ShipyardListingData{
		WaypointSymbol: waypointSymbol,
		ShipTypes:      types,
		ModifiedAt:     response.Data.ModifiedAt,
	}, nil
}

func (c *SpaceTradersClient) GetConstruction(ctx context.Context, systemSymbol, waypointSymbol, token string) (*ports.ConstructionData, error) {
	path := fmt.Sprintf("/systems/%s/waypoints/%s/construction", systemSymbol, waypointSymbol)
	var response struct {
		Data constructionWire `json:"data"`
	}
	if err := c.request(ctx, "GET", path, token, nil, &response); err != nil {
		return nil, fmt.Errorf("get construction: %w", err)
	}
	return response.Data.toConstructionData(waypointSymbol), nil
}

func (c *SpaceTradersClient) SupplyConstruction(ctx context.Context, systemSymbol, waypointSymbol, shipSymbol, tradeSymbol string, units int, token string) (*ports.ConstructionSupplyResponse, error) {
	path := fmt.Sprintf("/systems/%s/waypoints/%s/construction/supply", systemSymbol, waypointSymbol)
	body := map[string]interface{}{
		"shipSymbol":  shipSymbol,
		"tradeSymbol": tradeSymbol,
		"units":       units,
	}
	var response struct {
		Data struct {
			Construction constructionWire `json:"construction"`
			Cargo        struct {
				Inventory []struct {
					Symbol      string `json:"symbol"`
					Name        string `json:"name"`
					Description string `json:"description"`
					Units       int    `json:"units"`
				} `json:"inventory"`
			} `json:"cargo"`
		} `json:"data"`
	}
	if err := c.request(ctx, "POST", path, token, body, &response); err != nil {
		return nil, fmt.Errorf("supply construction: %w", err)
	}

	cargo := make([]ports.CargoItemData, len(response.Data.Cargo.Inventory))
	for i, item := range response.Data.Cargo.Inventory {
		cargo[i] = ports.CargoItemData{Symbol: item.Symbol, Name: item.Name, Description: item.Description, Units: item.Units}
	}

	return &ports.ConstructionSupplyResponse{
		Construction: *response.Data.Construction.toConstructionData(waypointSymbol),
		Cargo:        cargo,
	}, nil
}

type constructionWire struct {
	Materials []struct {
		TradeSymbol string `json:"tradeSymbol"`
		Required    int    `json:"required"`
		Fulfilled   int    `json:"fulfilled"`
	} `json:"materials"`
	IsComplete bool `json:"isComplete"`
}

func (w *constructionWire) toConstructionData(waypointSymbol string) *ports.ConstructionData {
	materials := make([]ports.ConstructionMaterialData, len(w.Materials))
	for i, m := range w.Materials {
		materials[i] = ports.ConstructionMaterialData{TradeSymbol: m.TradeSymbol, Required: m.Required, Fulfilled: m.Fulfilled}
	}
	return &ports.ConstructionData{WaypointSymbol: waypointSymbol, Materials: materials, Complete: w.IsComplete}
}
