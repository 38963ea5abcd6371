package api

import (
	"context"
	"fmt"

	"github.com/kestrel-systems/fleetcore/internal/infrastructure/ports"
)

// NegotiateContract negotiates a new contract for the ship. Error 4511
// ("agent already has a contract") is reported through the result rather
// than as an error, since the caller (agent controller) treats it as "go
// fetch the existing one", not a failure.
func (c *SpaceTradersClient) NegotiateContract(ctx context.Context, shipSymbol, token string) (*ports.ContractNegotiationResult, error) {
	path := fmt.Sprintf("/my/ships/%s/negotiate/contract", shipSymbol)
	var response struct {
		Data *struct {
			Contract contractWire `json:"contract"`
		} `json:"data"`
	}

	err := c.request(ctx, "POST", path, token, map[string]interface{}{}, &response)
	if apiErr, ok := asAPIError(err); ok && apiErr.Code == 4511 {
		existingID, _ := apiErr.Data["contractId"].(string)
		return &ports.ContractNegotiationResult{ErrorCode: 4511, ExistingContractID: existingID}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("negotiate contract: %w", err)
	}
	if response.Data == nil {
		return nil, fmt.Errorf("negotiate contract: missing data")
	}
	data := response.Data.Contract.toContractData()
	return &ports.ContractNegotiationResult{Contract: &data}, nil
}

func (c *SpaceTradersClient) GetContract(ctx context.Context, contractID, token string) (*ports.ContractData, error) {
	path := fmt.Sprintf("/my/contracts/%s", contractID)
	var response struct {
		Data contractWire `json:"data"`
	}
	if err := c.request(ctx, "GET", path, token, nil, &response); err != nil {
		return nil, fmt.Errorf("get contract: %w", err)
	}
	data := response.Data.toContractData()
	return &data, nil
}

func (c *SpaceTradersClient) ListContracts(ctx context.Context, token string) ([]ports.ContractData, error) {
	var all []ports.ContractData
	for page := 1; ; page++ {
		path := fmt.Sprintf("/my/contracts?page=%d&limit=20", page)
		var response struct {
			Data []contractWire `json:"data"`
		}
		if err := c.request(ctx, "GET", path, token, nil, &response); err != nil {
			return nil, fmt.Errorf("list contracts (page %d): %w", page, err)
		}
		if len(response.Data) == 0 {
			break
		}
		for _, wire := range response.Data {
			all = append(all, wire.toContractData())
		}
	}
	return all, nil
}

func (c *SpaceTradersClient) AcceptContract(ctx context.Context, contractID, token string) (*ports.ContractData, error) {
	path := fmt.Sprintf("/my/contracts/%s/accept", contractID)
	var response struct {
		Data struct {
			Contract contractWire `json:"contract"`
		} `json:"data"`
	}
	if err := c.request(ctx, "POST", path, token, map[string]interface{}{}, &response); err != nil {
		return nil, fmt.Errorf("accept contract: %w", err)
	}
	data := response.Data.Contract.toContractData()
	return &data, nil
}

func (c *SpaceTradersClient) DeliverContract(ctx context.Context, contractID, shipSymbol, tradeSymbol string, units int, token string) (*ports.ContractData, error) {
	path := fmt.Sprintf("/my/contracts/%s/deliver", contractID)
	body := map[string]interface{}{
		"shipSymbol":  shipSymbol,
		"tradeSymbol": tradeSymbol,
		"units":       units,
	}
	var response struct {
		Data struct {
			Contract contractWire `json:"contract"`
		} `json:"data"`
	}
	if err := c.request(ctx, "POST", path, token, body, &response); err != nil {
		return nil, fmt.Errorf("deliver contract: %w", err)
	}
	data := response.Data.Contract.toContractData()
	return &data, nil
}

func (c *SpaceTradersClient) FulfillContract(ctx context.Context, contractID, token string) (*ports.ContractData, error) {
	path := fmt.Sprintf("/my/contracts/%s/fulfill", contractID)
	var response struct {
		Data struct {
			Contract contractWire `json:"contract"`
		} `json:"data"`
	}
	if err := c.request(ctx, "POST", path, token, map[string]interface{}{}, &response); err != nil {
		return nil, fmt.Errorf("fulfill contract: %w", err)
	}
	data := response.Data.Contract.toContractData()
	return &data, nil
}

type contractWire struct {
	ID            string `json:"id"`
	FactionSymbol string `json:"factionSymbol"`
	Type          string `json:"type"`
	Terms         struct {
		Deadline string `json:"deadline"`
		Payment  struct {
			OnAccepted  int `json:"onAccepted"`
			OnFulfilled int `json:"onFulfilled"`
		} `json:"payment"`
		Deliver []struct {
			TradeSymbol       string `json:"tradeSymbol"`
			DestinationSymbol string `json:"destinationSymbol"`
			UnitsRequired     int    `json:"unitsRequired"`
			UnitsFulfilled    int    `json:"unitsFulfilled"`
		} `json:"deliver"`
	} `json:"terms"`
	DeadlineToAccept string `json:"deadlineToAccept"`
	Accepted         bool   `json:"accepted"`
	Fulfilled        bool   `json:"fulfilled"`
}

func (w *contractWire) toContractData() ports.ContractData {
	deliveries := make([]ports.DeliveryData, len(w.Terms.Deliver))
	for i, d := range w.Terms.Deliver {
		deliveries[i] = ports.DeliveryData{
			TradeSymbol:       d.TradeSymbol,
			DestinationSymbol: d.DestinationSymbol,
			UnitsRequired:     d.UnitsRequired,
			UnitsFulfilled:    d.UnitsFulfilled,
		}
	}
	return ports.ContractData{
		ID:            w.ID,
		FactionSymbol: w.FactionSymbol,
		Type:          w.Type,
		Terms: ports.ContractTermsData{
			DeadlineToAccept: w.DeadlineToAccept,
			Deadline:         w.Terms.Deadline,
			Payment: ports.PaymentData{
				OnAccepted:  w.Terms.Payment.OnAccepted,
				OnFulfilled: w.Terms.Payment.OnFulfilled,
			},
			Deliveries: deliveries,
		},
		Accepted:  w.Accepted,
		Fulfilled: w.Fulfilled,
	}
}

// asAPIError unwraps an *APIError even when it has been wrapped by
// fmt.Errorf("...: %w", ...) somewhere in the retry/circuit-breaker path.
func asAPIError(err error) (*APIError, bool) {
	for err != nil {
		if apiErr, ok := err.(*APIError); ok {
			return apiErr, true
		}
		unwrapper, ok := err.(interface{ Unwrap() error })
		if !ok {
			return nil, false
		}
		err = unwrapper.Unwrap()
	}
	return nil, false
}
