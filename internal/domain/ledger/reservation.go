package ledger

import "sync"

// Standing reservation keys, per spec.md §4.5.
const (
	ReservationKeyFuel          = "FUEL"
	ReservationKeyJumpgateCosts = "JUMPGATE_COSTS"

	StandingFuelReservation     = 10_000
	StandingJumpgateReservation = 500_000

	// PerCapacityLogisticsReservation is the credits reserved per unit of
	// cargo capacity for a Logistics-behavior ship (spec.md §4.1 step 4 /
	// §4.5).
	PerCapacityLogisticsReservation = 5_000
)

// Reservations is the process-wide credit reservation ledger: an in-memory
// mapping from an arbitrary key (ship symbol or a well-known standing tag)
// to reserved credits, plus the last-known agent credits balance. Grounded
// on spec.md §4.5; the teacher's own ledger package models a transaction
// *history*, a complementary but distinct concern kept alongside this type
// (see transaction.go) for audit/reporting, not reservation accounting.
type Reservations struct {
	mu             sync.Mutex
	credits        int64
	reserved       map[string]int64
	goodsValueHeld map[string]int64 // per-ship "goods value held" offset
}

func NewReservations() *Reservations {
	return &Reservations{
		reserved:       make(map[string]int64),
		goodsValueHeld: make(map[string]int64),
	}
}

// SetCredits updates the last-known agent credits balance.
func (r *Reservations) SetCredits(credits int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.credits = credits
}

// ReserveCredits overwrites the reservation held under key.
func (r *Reservations) ReserveCredits(key string, amount int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reserved[key] = amount
}

// ReleaseReservation removes the reservation held under key entirely.
func (r *Reservations) ReleaseReservation(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.reserved, key)
}

// RegisterGoodsChange adjusts the "goods value held" component for a ship
// so that a logistics ship's standing capacity reservation stays
// approximately neutral as cargo converts to held value: buying goods
// increases the value held (offsetting the reservation, since the credits
// spent are now embodied in cargo); selling decreases it back down.
func (r *Reservations) RegisterGoodsChange(shipSymbol, good string, signedUnits int, pricePerUnit int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.goodsValueHeld[shipSymbol] += int64(signedUnits) * pricePerUnit
}

// EffectiveReservedCredits sums standing + per-key reservations, netted
// against each ship's held-goods-value offset.
func (r *Reservations) EffectiveReservedCredits() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	var total int64
	for key, amount := range r.reserved {
		total += amount - r.goodsValueHeld[key]
	}
	return total
}

// AvailableCredits returns credits minus effective reserved credits.
func (r *Reservations) AvailableCredits() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	var reserved int64
	for key, amount := range r.reserved {
		reserved += amount - r.goodsValueHeld[key]
	}
	return r.credits - reserved
}
