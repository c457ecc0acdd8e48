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
	"github.com/tulsiarena/booking-service/pkg/payment"
)

func newBookingService(gw payment.Gateway) service.BookingService {
	bookingRepo := repository.NewBookingRepository(testDB)
	draftRepo := repository.NewDraftRepository(testDB)
	discountSvc := service.NewDiscountService(repository.NewDiscountRepository(testDB))
	return service.NewBookingService(bookingRepo, draftRepo, discountSvc, gw, nil)
}

func tomorrow() time.Time {
	return time.Now().UTC().AddDate(0, 0, 1).Truncate(24 * time.Hour)
}

func turfRequest(slots ...string) service.BookingRequest {
	return service.BookingRequest{
		FacilityName: models.FacilityNameTurf,
		Date:         tomorrow(),
		TimeSlots:    slots,
		BasePrice:    "500",
	}
}

// 20 users race for the same turf slot. Exactly one wins.
func TestConcurrentSlotClaim(t *testing.T) {
	cleanTables()
	svc := newBookingService(nil)

	attempts := 20
	var wg sync.WaitGroup
	results := make(chan error, attempts)

	wg.Add(attempts)
	for i := 0; i < attempts; i++ {
		go func(userIdx int) {
			defer wg.Done()
			_, err := svc.CreateBooking(t.Context(), uint(userIdx+1), turfRequest("06:00-07:00"))
			results <- err
		}(i)
	}
	wg.Wait()
	close(results)

	confirmed := 0
	conflicts := 0
	for err := range results {
		switch {
		case err == nil:
			confirmed++
		default:
			var conflict *service.SlotConflictError
			require.ErrorAs(t, err, &conflict)
			conflicts++
		}
	}
	assert.Equal(t, 1, confirmed, "exactly one booking should win the slot")
	assert.Equal(t, attempts-1, conflicts)

	var dbSlots int64
	testDB.Model(&models.BookingSlot{}).
		Where("facility_name = ? AND slot = ? AND active", models.FacilityNameTurf, "06:00-07:00").
		Count(&dbSlots)
	assert.Equal(t, int64(1), dbSlots)
}

// Multi-slot requests are all-or-nothing: a conflict on one slot claims none.
func TestMultiSlotAllOrNothing(t *testing.T) {
	cleanTables()
	svc := newBookingService(nil)

	_, err := svc.CreateBooking(t.Context(), 1, turfRequest("07:00-08:00"))
	require.NoError(t, err)

	_, err = svc.CreateBooking(t.Context(), 2, turfRequest("06:00-07:00", "07:00-08:00"))
	var conflict *service.SlotConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, []string{"07:00-08:00"}, conflict.Slots)

	var claimed int64
	testDB.Model(&models.BookingSlot{}).
		Where("facility_name = ? AND slot = ? AND active", models.FacilityNameTurf, "06:00-07:00").
		Count(&claimed)
	assert.Equal(t, int64(0), claimed, "losing request must not claim its free slot")
}

// 10 groups of 5 race for one pool slot with capacity 25 → exactly 5 admitted.
func TestConcurrentPoolCapacity(t *testing.T) {
	cleanTables()
	svc := newBookingService(nil)

	attempts := 10
	var wg sync.WaitGroup
	results := make(chan error, attempts)

	wg.Add(attempts)
	for i := 0; i < attempts; i++ {
		go func(userIdx int) {
			defer wg.Done()
			_, err := svc.CreateBooking(t.Context(), uint(userIdx+1), service.BookingRequest{
				FacilityName:      models.FacilityNamePool,
				Date:              tomorrow(),
				TimeSlots:         []string{"17:00-18:00"},
				AdditionalPlayers: 5,
				BasePrice:         "200",
			})
			results <- err
		}(i)
	}
	wg.Wait()
	close(results)

	admitted := 0
	rejected := 0
	for err := range results {
		switch {
		case err == nil:
			admitted++
		default:
			var capErr *service.PoolCapacityError
			require.ErrorAs(t, err, &capErr)
			rejected++
		}
	}
	assert.Equal(t, 5, admitted, "pool holds exactly 25 persons")
	assert.Equal(t, 5, rejected)

	var headCount int64
	testDB.Model(&models.Booking{}).
		Select("COALESCE(SUM(additional_players), 0)").
		Where("facility_type = ? AND status <> ?", models.FacilityPool, models.StatusCancelled).
		Scan(&headCount)
	assert.Equal(t, int64(25), headCount)
}

// Pool bookings never collide with turf bookings in the same hour.
func TestPoolDoesNotBlockTurf(t *testing.T) {
	cleanTables()
	svc := newBookingService(nil)

	_, err := svc.CreateBooking(t.Context(), 1, service.BookingRequest{
		FacilityName:      models.FacilityNamePool,
		Date:              tomorrow(),
		TimeSlots:         []string{"17:00-18:00"},
		AdditionalPlayers: 10,
		BasePrice:         "200",
	})
	require.NoError(t, err)

	_, err = svc.CreateBooking(t.Context(), 2, turfRequest("17:00-18:00"))
	assert.NoError(t, err, "turf and pool are independent facilities")
}

// Cancelling releases the slot for the next booking.
func TestCancelFreesSlot(t *testing.T) {
	cleanTables()
	svc := newBookingService(nil)

	first, err := svc.CreateBooking(t.Context(), 1, turfRequest("06:00-07:00"))
	require.NoError(t, err)

	_, err = svc.CreateBooking(t.Context(), 2, turfRequest("06:00-07:00"))
	var conflict *service.SlotConflictError
	require.ErrorAs(t, err, &conflict)

	cancelled, err := svc.CancelBooking(t.Context(), first.ID, 1, models.RoleUser)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, cancelled.Status)

	rebooked, err := svc.CreateBooking(t.Context(), 2, turfRequest("06:00-07:00"))
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, rebooked.Status)
}

func TestCancelTwiceRejected(t *testing.T) {
	cleanTables()
	svc := newBookingService(nil)

	booking, err := svc.CreateBooking(t.Context(), 1, turfRequest("06:00-07:00"))
	require.NoError(t, err)

	_, err = svc.CancelBooking(t.Context(), booking.ID, 1, models.RoleUser)
	require.NoError(t, err)

	_, err = svc.CancelBooking(t.Context(), booking.ID, 1, models.RoleUser)
	assert.ErrorIs(t, err, service.ErrAlreadyCancelled)
}

func TestCancelPastBookingRejected(t *testing.T) {
	cleanTables()
	svc := newBookingService(nil)

	yesterday := time.Now().UTC().AddDate(0, 0, -1).Truncate(24 * time.Hour)
	past := &models.Booking{
		UserID:       1,
		FacilityName: models.FacilityNameTurf,
		FacilityType: models.FacilityTurf,
		Date:         yesterday,
		TimeSlots:    []string{"06:00-07:00"},
		BasePrice:    500,
		TotalPrice:   500,
		Status:       models.StatusConfirmed,
	}
	require.NoError(t, testDB.Create(past).Error)

	_, err := svc.CancelBooking(t.Context(), past.ID, 1, models.RoleUser)
	assert.ErrorIs(t, err, service.ErrPastBookingDate)
}

func TestCancelSomeoneElsesBookingRejected(t *testing.T) {
	cleanTables()
	svc := newBookingService(nil)

	booking, err := svc.CreateBooking(t.Context(), 1, turfRequest("06:00-07:00"))
	require.NoError(t, err)

	_, err = svc.CancelBooking(t.Context(), booking.ID, 2, models.RoleUser)
	assert.ErrorIs(t, err, service.ErrNotBookingOwner)

	// Admin can cancel on the owner's behalf.
	cancelled, err := svc.CancelBooking(t.Context(), booking.ID, 2, models.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, cancelled.Status)
}

// Bookings on different days never interfere.
func TestSlotsAreScopedToDate(t *testing.T) {
	cleanTables()
	svc := newBookingService(nil)

	_, err := svc.CreateBooking(t.Context(), 1, turfRequest("06:00-07:00"))
	require.NoError(t, err)

	dayAfter := turfRequest("06:00-07:00")
	dayAfter.Date = tomorrow().AddDate(0, 0, 1)
	_, err = svc.CreateBooking(t.Context(), 2, dayAfter)
	assert.NoError(t, err)
}

func TestAdminStatusUpdate(t *testing.T) {
	cleanTables()
	svc := newBookingService(nil)

	booking, err := svc.CreateBooking(t.Context(), 1, turfRequest("06:00-07:00"))
	require.NoError(t, err)

	updated, err := svc.UpdateBookingStatus(t.Context(), booking.ID, models.StatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, updated.Status)

	// Admin cancel releases the slot like a user cancel.
	_, err = svc.UpdateBookingStatus(t.Context(), booking.ID, models.StatusCancelled)
	require.NoError(t, err)

	_, err = svc.CreateBooking(t.Context(), 2, turfRequest("06:00-07:00"))
	require.NoError(t, err)

	// Cancelled bookings stay cancelled.
	_, err = svc.UpdateBookingStatus(t.Context(), booking.ID, models.StatusConfirmed)
	assert.ErrorIs(t, err, service.ErrAlreadyCancelled)
}

func TestListByDate(t *testing.T) {
	cleanTables()
	svc := newBookingService(nil)

	for i, slot := range []string{"06:00-07:00", "07:00-08:00", "08:00-09:00"} {
		_, err := svc.CreateBooking(t.Context(), uint(i+1), turfRequest(slot))
		require.NoError(t, err)
	}

	bookings, err := svc.ListByDate(t.Context(), tomorrow())
	require.NoError(t, err)
	assert.Len(t, bookings, 3)

	empty, err := svc.ListByDate(t.Context(), tomorrow().AddDate(0, 0, 5))
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestListMyBookings(t *testing.T) {
	cleanTables()
	svc := newBookingService(nil)

	for i := 0; i < 3; i++ {
		_, err := svc.CreateBooking(t.Context(), 1, turfRequest(fmt.Sprintf("%02d:00-%02d:00", 6+i, 7+i)))
		require.NoError(t, err)
	}
	_, err := svc.CreateBooking(t.Context(), 2, turfRequest("10:00-11:00"))
	require.NoError(t, err)

	mine, err := svc.ListMyBookings(t.Context(), 1)
	require.NoError(t, err)
	assert.Len(t, mine, 3)
}
