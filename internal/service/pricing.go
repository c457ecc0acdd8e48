package service

import (
	"errors"
	"strconv"

	"github.com/tulsiarena/booking-service/internal/models"
)

const (
	// PoolCapacity is the maximum combined party size per pool slot.
	PoolCapacity = 25
	// AdditionalPlayerFee is charged per extra player on turf/combo bookings.
	AdditionalPlayerFee = 100
	// PoolCutoffHour closes same-day pool bookings from 9 PM local time.
	PoolCutoffHour = 21
)

var (
	ErrInvalidBasePrice = errors.New("base price must be a positive number")
	ErrNoTimeSlots      = errors.New("at least one time slot is required")
	ErrNonPositiveTotal = errors.New("total price must be greater than zero")
)

// PriceQuote is the output of the pricing calculator, before any discount.
type PriceQuote struct {
	BaseTotal           int
	Surcharge           int
	PriceBeforeDiscount int
}

// ComputePrice is pure: pool bookings are priced per person with no
// surcharge, turf/combo per slot plus a per-player surcharge.
func ComputePrice(facilityType models.FacilityType, slots []string, additionalPlayers int, basePrice string) (PriceQuote, error) {
	base, err := strconv.Atoi(basePrice)
	if err != nil || base <= 0 {
		return PriceQuote{}, ErrInvalidBasePrice
	}

	var quote PriceQuote
	if facilityType == models.FacilityPool {
		party := additionalPlayers
		if party < 1 {
			party = 1
		}
		quote.BaseTotal = base * party
	} else {
		if len(slots) == 0 {
			return PriceQuote{}, ErrNoTimeSlots
		}
		quote.BaseTotal = base * len(slots)
		quote.Surcharge = additionalPlayers * AdditionalPlayerFee
	}

	quote.PriceBeforeDiscount = quote.BaseTotal + quote.Surcharge
	if quote.PriceBeforeDiscount <= 0 {
		return PriceQuote{}, ErrNonPositiveTotal
	}
	return quote, nil
}
