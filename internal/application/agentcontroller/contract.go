package agentcontroller

import (
	"context"
	"fmt"

	"github.com/kestrel-systems/fleetcore/internal/domain/contract"
)

// Contract returns the controller's currently tracked contract, or nil.
func (c *Controller) Contract() *contract.Contract {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.contract
}

// NegotiateContract asks a docked ship to negotiate a new contract on the
// agent's behalf, handling the "agent already has a contract" (4511) case
// by fetching the existing one instead of failing. Grounded on
// agent_controller.rs's negotiate_contract.
func (c *Controller) NegotiateContract(ctx context.Context, shipSymbol string) (*contract.Contract, error) {
	result, err := c.api.NegotiateContract(ctx, shipSymbol, c.token)
	if err != nil {
		return nil, err
	}
	if result.Contract != nil {
		ctr := hydrateContract(*result.Contract, c.clock)
		c.mu.Lock()
		c.contract = ctr
		c.mu.Unlock()
		return ctr, nil
	}
	if result.ErrorCode == 4511 && result.ExistingContractID != "" {
		data, err := c.api.GetContract(ctx, result.ExistingContractID, c.token)
		if err != nil {
			return nil, err
		}
		ctr := hydrateContract(*data, c.clock)
		c.mu.Lock()
		c.contract = ctr
		c.mu.Unlock()
		return ctr, nil
	}
	return nil, fmt.Errorf("negotiate contract: error code %d", result.ErrorCode)
}

// AcceptContract accepts the currently negotiated contract and credits its
// on-accepted payment to the ledger's known balance.
func (c *Controller) AcceptContract(ctx context.Context) error {
	c.mu.Lock()
	ctr := c.contract
	c.mu.Unlock()
	if ctr == nil {
		return fmt.Errorf("accept contract: no contract on file")
	}
	if _, err := c.api.AcceptContract(ctx, ctr.ContractID(), c.token); err != nil {
		return err
	}
	if err := ctr.Accept(); err != nil {
		return err
	}
	if agentData, err := c.api.GetAgent(ctx, c.token); err == nil {
		c.ledger.SetCredits(agentData.Credits)
	}
	return nil
}

// DeliverContractCargo reports a delivery of tradeSymbol units at
// shipSymbol against the active contract, updating the in-memory
// aggregate to match the API's authoritative fulfillment counters.
func (c *Controller) DeliverContractCargo(ctx context.Context, shipSymbol, tradeSymbol string, units int) error {
	c.mu.Lock()
	ctr := c.contract
	c.mu.Unlock()
	if ctr == nil {
		return fmt.Errorf("deliver contract cargo: no contract on file")
	}
	if _, err := c.api.DeliverContract(ctx, ctr.ContractID(), shipSymbol, tradeSymbol, units, c.token); err != nil {
		return err
	}
	return ctr.DeliverCargo(tradeSymbol, units)
}

// FulfillContract completes a contract whose deliveries are all
// satisfied, paying out on-fulfilled credits.
func (c *Controller) FulfillContract(ctx context.Context) error {
	c.mu.Lock()
	ctr := c.contract
	c.mu.Unlock()
	if ctr == nil {
		return fmt.Errorf("fulfill contract: no contract on file")
	}
	if !ctr.CanFulfill() {
		return fmt.Errorf("fulfill contract: deliveries incomplete")
	}
	if _, err := c.api.FulfillContract(ctx, ctr.ContractID(), c.token); err != nil {
		return err
	}
	if err := ctr.Fulfill(); err != nil {
		return err
	}
	if agentData, err := c.api.GetAgent(ctx, c.token); err == nil {
		c.ledger.SetCredits(agentData.Credits)
	}
	c.mu.Lock()
	c.contract = nil
	c.mu.Unlock()
	return nil
}

// ContractTick evaluates whether the active contract should be pursued
// further: negotiate one if none is on file, accept a profitable one, or
// fulfill a completed one. Each call takes the next value of an epoch
// counter guarded by contractMu and uses it only to tag its log lines; a
// failed attempt is not rate-limited and is tried again on the next call.
func (c *Controller) ContractTick(ctx context.Context, shipSymbol string, profitCtx contract.ProfitabilityContext) error {
	c.contractMu.Lock()
	epoch := c.contractEpoch
	c.contractEpoch++
	c.contractMu.Unlock()

	ctr := c.Contract()
	if ctr == nil {
		newCtr, err := c.NegotiateContract(ctx, shipSymbol)
		if err != nil {
			c.logger.Printf("contract tick %d: negotiate failed: %v", epoch, err)
			return nil
		}
		ctr = newCtr
	}

	if !ctr.Accepted() {
		eval, err := ctr.EvaluateProfitability(profitCtx)
		if err != nil {
			c.logger.Printf("contract tick %d: profitability evaluation failed: %v", epoch, err)
			return nil
		}
		if !eval.IsProfitable {
			c.logger.Printf("contract tick %d: contract %s below profit floor (%d), skipping", epoch, ctr.ContractID(), eval.NetProfit)
			return nil
		}
		if err := c.AcceptContract(ctx); err != nil {
			return err
		}
	}

	if ctr.CanFulfill() {
		return c.FulfillContract(ctx)
	}
	return nil
}
