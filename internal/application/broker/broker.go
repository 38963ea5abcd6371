// Package broker implements the Cargo Broker: a single-threaded rendezvous
// at a waypoint between ships with cargo to hand off and ships with space
// to receive it. Grounded on spec.md §4.6 and agent_controller.rs's
// TransferActor, which the original's cargo-broker tasks route through
// for exactly this producer/consumer pairing.
package broker

import (
	"context"
	"sync"
)

// Transfer performs one unit transfer between two ships, e.g.
// agentcontroller.Controller.TransferCargo.
type Transfer func(ctx context.Context, fromShip, toShip, good string, units int) error

// Broker pairs producers and consumers parked at the same waypoint,
// settling min(producerUnits, consumerSpace) per good on each match.
type Broker struct {
	mu        sync.Mutex
	producers map[string][]*producerParty
	consumers map[string][]*consumerParty
	transfer  Transfer
}

type producerParty struct {
	shipSymbol string
	cargo      map[string]int
	done       chan error
}

type consumerParty struct {
	shipSymbol string
	spaceAvail int
	received   map[string]int
	done       chan consumerResult
}

type consumerResult struct {
	received map[string]int
	err      error
}

// New constructs a Broker that settles matches through transfer.
func New(transfer Transfer) *Broker {
	return &Broker{
		producers: make(map[string][]*producerParty),
		consumers: make(map[string][]*consumerParty),
		transfer:  transfer,
	}
}

// TransferCargo parks shipSymbol at waypoint as a producer offering cargo
// (good -> units), blocking until every good is fully handed off to
// consumers, the context is canceled, or a transfer call fails.
func (b *Broker) TransferCargo(ctx context.Context, shipSymbol, waypoint string, cargo map[string]int) error {
	remaining := make(map[string]int, len(cargo))
	for good, units := range cargo {
		if units > 0 {
			remaining[good] = units
		}
	}
	if len(remaining) == 0 {
		return nil
	}

	party := &producerParty{shipSymbol: shipSymbol, cargo: remaining, done: make(chan error, 1)}

	b.mu.Lock()
	b.producers[waypoint] = append(b.producers[waypoint], party)
	b.match(ctx, waypoint)
	b.mu.Unlock()

	select {
	case err := <-party.done:
		return err
	case <-ctx.Done():
		b.cancelProducer(waypoint, party)
		return ctx.Err()
	}
}

// ReceiveCargo parks shipSymbol at waypoint as a consumer with spaceAvail
// units of free cargo space, blocking until its space is fully filled or
// the context is canceled. A failed transfer call is reported to the
// producer only; the consumer keeps waiting. On cancellation it returns
// however much of each good it received along with the context's error,
// since a partial fill from a canceled wait is still usable cargo.
func (b *Broker) ReceiveCargo(ctx context.Context, shipSymbol, waypoint string, spaceAvail int) (map[string]int, error) {
	if spaceAvail <= 0 {
		return map[string]int{}, nil
	}

	party := &consumerParty{
		shipSymbol: shipSymbol,
		spaceAvail: spaceAvail,
		received:   make(map[string]int),
		done:       make(chan consumerResult, 1),
	}

	b.mu.Lock()
	b.consumers[waypoint] = append(b.consumers[waypoint], party)
	b.match(ctx, waypoint)
	b.mu.Unlock()

	select {
	case res := <-party.done:
		return res.received, res.err
	case <-ctx.Done():
		b.mu.Lock()
		received := cloneMap(party.received)
		b.cancelConsumerLocked(waypoint, party)
		b.mu.Unlock()
		return received, ctx.Err()
	}
}

// match settles as many producer/consumer pairs at waypoint as possible,
// sweeping out and signaling any party that is now fully drained or fully
// filled, and any producer whose transfer call errored. Callers must hold
// b.mu.
func (b *Broker) match(ctx context.Context, waypoint string) {
	producers := b.producers[waypoint]
	consumers := b.consumers[waypoint]

	for _, p := range producers {
		if p.done == nil {
			continue
		}
		var failed error
		for _, c := range consumers {
			if c.spaceAvail <= 0 {
				continue
			}
			for good, remaining := range p.cargo {
				if remaining <= 0 || c.spaceAvail <= 0 {
					continue
				}
				units := remaining
				if c.spaceAvail < units {
					units = c.spaceAvail
				}
				if err := b.transfer(ctx, p.shipSymbol, c.shipSymbol, good, units); err != nil {
					failed = err
					break
				}
				p.cargo[good] -= units
				c.spaceAvail -= units
				c.received[good] += units
			}
			if failed != nil {
				break
			}
		}
		if failed != nil {
			p.done <- failed
			close(p.done)
			p.done = nil
		}
	}

	b.producers[waypoint] = sweepProducers(producers)
	b.consumers[waypoint] = sweepConsumers(consumers)
}

func sweepProducers(parties []*producerParty) []*producerParty {
	kept := parties[:0]
	for _, p := range parties {
		if p.done == nil {
			continue
		}
		if allZero(p.cargo) {
			p.done <- nil
			close(p.done)
			continue
		}
		kept = append(kept, p)
	}
	return kept
}

func sweepConsumers(parties []*consumerParty) []*consumerParty {
	kept := parties[:0]
	for _, c := range parties {
		if c.done == nil {
			continue
		}
		if c.spaceAvail == 0 {
			c.done <- consumerResult{received: cloneMap(c.received)}
			continue
		}
		kept = append(kept, c)
	}
	return kept
}

func (b *Broker) cancelProducer(waypoint string, target *producerParty) {
	b.mu.Lock()
	defer b.mu.Unlock()
	list := b.producers[waypoint]
	for i, p := range list {
		if p == target {
			b.producers[waypoint] = append(list[:i], list[i+1:]...)
			return
		}
	}
}

func (b *Broker) cancelConsumerLocked(waypoint string, target *consumerParty) {
	list := b.consumers[waypoint]
	for i, c := range list {
		if c == target {
			b.consumers[waypoint] = append(list[:i], list[i+1:]...)
			return
		}
	}
}

func allZero(m map[string]int) bool {
	for _, v := range m {
		if v != 0 {
			return false
		}
	}
	return true
}

func cloneMap(m map[string]int) map[string]int {
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
