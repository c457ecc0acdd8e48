//go:build integration

package integration

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tulsiarena/booking-service/internal/models"
	"github.com/tulsiarena/booking-service/internal/repository"
	"github.com/tulsiarena/booking-service/internal/service"
)

func newDiscountService() service.DiscountService {
	return service.NewDiscountService(repository.NewDiscountRepository(testDB))
}

func seedCode(t *testing.T, svc service.DiscountService, code models.DiscountCode) *models.DiscountCode {
	t.Helper()
	if code.ExpiresAt.IsZero() {
		code.ExpiresAt = time.Now().Add(24 * time.Hour)
	}
	code.IsActive = true
	require.NoError(t, svc.Create(t.Context(), &code))
	return &code
}

func TestBookingWithDiscountConsumesUse(t *testing.T) {
	cleanTables()
	discountSvc := newDiscountService()
	seedCode(t, discountSvc, models.DiscountCode{
		Code: "SUMMER20", DiscountType: models.DiscountPercentage, DiscountValue: 20, MaxUses: 10,
	})
	svc := newBookingService(nil)

	req := turfRequest("06:00-07:00", "07:00-08:00")
	req.AdditionalPlayers = 2
	req.DiscountCode = "SUMMER20"

	booking, err := svc.CreateBooking(t.Context(), 1, req)
	require.NoError(t, err)
	assert.Equal(t, "SUMMER20", booking.DiscountCode)
	assert.Equal(t, 240, booking.DiscountAmount, "20 percent of 1200")
	assert.Equal(t, 960, booking.TotalPrice)

	var code models.DiscountCode
	require.NoError(t, testDB.Where("code = ?", "SUMMER20").First(&code).Error)
	assert.Equal(t, 1, code.UsedCount)

	var redemptions int64
	testDB.Model(&models.DiscountRedemption{}).Where("user_id = ?", 1).Count(&redemptions)
	assert.Equal(t, int64(1), redemptions)
}

// A user's second booking with the same code goes through at full price.
func TestDiscountOncePerUser(t *testing.T) {
	cleanTables()
	discountSvc := newDiscountService()
	seedCode(t, discountSvc, models.DiscountCode{
		Code: "SUMMER20", DiscountType: models.DiscountPercentage, DiscountValue: 20, MaxUses: 10,
	})
	svc := newBookingService(nil)

	first := turfRequest("06:00-07:00")
	first.DiscountCode = "SUMMER20"
	booking, err := svc.CreateBooking(t.Context(), 1, first)
	require.NoError(t, err)
	assert.Equal(t, 100, booking.DiscountAmount)

	second := turfRequest("07:00-08:00")
	second.DiscountCode = "SUMMER20"
	booking, err = svc.CreateBooking(t.Context(), 1, second)
	require.NoError(t, err)
	assert.Equal(t, 0, booking.DiscountAmount, "already-used code degrades to full price")
	assert.Equal(t, 500, booking.TotalPrice)
}

// Concurrent bookings against a code with 2 remaining uses: exactly 2 get the
// discount charged.
func TestDiscountMaxUsesUnderConcurrency(t *testing.T) {
	cleanTables()
	discountSvc := newDiscountService()
	seedCode(t, discountSvc, models.DiscountCode{
		Code: "LAST2", DiscountType: models.DiscountFlat, DiscountValue: 100, MaxUses: 2,
	})
	svc := newBookingService(nil)

	attempts := 5
	var wg sync.WaitGroup
	results := make(chan *models.Booking, attempts)
	errs := make(chan error, attempts)

	wg.Add(attempts)
	for i := 0; i < attempts; i++ {
		go func(userIdx int) {
			defer wg.Done()
			req := turfRequest(fmt.Sprintf("%02d:00-%02d:00", 6+userIdx, 7+userIdx))
			req.DiscountCode = "LAST2"
			booking, err := svc.CreateBooking(t.Context(), uint(userIdx+1), req)
			if err != nil {
				errs <- err
				return
			}
			results <- booking
		}(i)
	}
	wg.Wait()
	close(results)
	close(errs)

	// A loser either fails with the exhausted error or, if it evaluated the
	// code after the cap was hit, books at full price. Either way exactly two
	// bookings carry the discount.
	discounted := 0
	for b := range results {
		if b.DiscountAmount > 0 {
			assert.Equal(t, 100, b.DiscountAmount)
			discounted++
		}
	}
	for err := range errs {
		assert.ErrorIs(t, err, service.ErrCodeExhausted)
	}
	assert.Equal(t, 2, discounted)

	var code models.DiscountCode
	require.NoError(t, testDB.Where("code = ?", "LAST2").First(&code).Error)
	assert.Equal(t, 2, code.UsedCount, "used count never exceeds max uses")
}

func TestExpiredCodeDegradesToFullPrice(t *testing.T) {
	cleanTables()
	discountSvc := newDiscountService()
	seedCode(t, discountSvc, models.DiscountCode{
		Code: "OLD10", DiscountType: models.DiscountPercentage, DiscountValue: 10, MaxUses: 10,
		ExpiresAt: time.Now().Add(-time.Hour),
	})
	svc := newBookingService(nil)

	req := turfRequest("06:00-07:00")
	req.DiscountCode = "OLD10"
	booking, err := svc.CreateBooking(t.Context(), 1, req)
	require.NoError(t, err)
	assert.Equal(t, 0, booking.DiscountAmount)
	assert.Equal(t, 500, booking.TotalPrice)
}

func TestMinOrderAmountEnforced(t *testing.T) {
	cleanTables()
	discountSvc := newDiscountService()
	seedCode(t, discountSvc, models.DiscountCode{
		Code: "BIG50", DiscountType: models.DiscountFlat, DiscountValue: 50, MaxUses: 10,
		MinOrderAmount: 1000,
	})
	svc := newBookingService(nil)

	small := turfRequest("06:00-07:00")
	small.DiscountCode = "BIG50"
	booking, err := svc.CreateBooking(t.Context(), 1, small)
	require.NoError(t, err)
	assert.Equal(t, 0, booking.DiscountAmount, "500 is below the 1000 minimum")

	large := turfRequest("07:00-08:00", "08:00-09:00")
	large.DiscountCode = "BIG50"
	booking, err = svc.CreateBooking(t.Context(), 2, large)
	require.NoError(t, err)
	assert.Equal(t, 50, booking.DiscountAmount)
}

func TestStandaloneRedeem(t *testing.T) {
	cleanTables()
	svc := newDiscountService()
	seedCode(t, svc, models.DiscountCode{
		Code: "ONEOFF", DiscountType: models.DiscountFlat, DiscountValue: 100, MaxUses: 1,
	})

	require.NoError(t, svc.Redeem(t.Context(), "ONEOFF", 1))

	err := svc.Redeem(t.Context(), "ONEOFF", 1)
	assert.ErrorIs(t, err, service.ErrCodeAlreadyUsed)

	err = svc.Redeem(t.Context(), "ONEOFF", 2)
	assert.ErrorIs(t, err, service.ErrCodeExhausted)

	err = svc.Redeem(t.Context(), "NOSUCH", 3)
	assert.ErrorIs(t, err, service.ErrCodeNotFound)
}

func TestDeactivatedCodeStopsApplying(t *testing.T) {
	cleanTables()
	discountSvc := newDiscountService()
	seedCode(t, discountSvc, models.DiscountCode{
		Code: "TOGGLE", DiscountType: models.DiscountFlat, DiscountValue: 100, MaxUses: 10,
	})

	updated, err := discountSvc.SetActive(t.Context(), "TOGGLE", false)
	require.NoError(t, err)
	assert.False(t, updated.IsActive)

	outcome, err := discountSvc.Evaluate(t.Context(), "TOGGLE", 1000, 1)
	require.NoError(t, err)
	assert.False(t, outcome.Applied)
	assert.Equal(t, service.ReasonInactive, outcome.Reason)
}
