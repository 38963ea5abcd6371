package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReservations_AvailableCredits(t *testing.T) {
	r := NewReservations()
	r.SetCredits(1_000_000)
	r.ReserveCredits(ReservationKeyFuel, StandingFuelReservation)
	r.ReserveCredits(ReservationKeyJumpgateCosts, StandingJumpgateReservation)
	r.ReserveCredits("SHIP-1", 40*PerCapacityLogisticsReservation)

	assert.Equal(t, int64(1_000_000-10_000-500_000-200_000), r.AvailableCredits())
}

func TestReservations_GoodsChangeOffsetsReservation(t *testing.T) {
	r := NewReservations()
	r.SetCredits(500_000)
	r.ReserveCredits("SHIP-1", 200_000)
	before := r.AvailableCredits()

	r.RegisterGoodsChange("SHIP-1", "IRON_ORE", 100, 20)
	after := r.AvailableCredits()

	assert.Greater(t, after, before, "buying goods should free up reserved credits as they convert to held value")
}

func TestReservations_ReleaseReservation(t *testing.T) {
	r := NewReservations()
	r.SetCredits(100_000)
	r.ReserveCredits("SHIP-1", 50_000)
	r.ReleaseReservation("SHIP-1")
	assert.Equal(t, int64(100_000), r.AvailableCredits())
}
