package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tulsiarena/booking-service/internal/models"
	"github.com/tulsiarena/booking-service/internal/repository"
	"github.com/tulsiarena/booking-service/pkg/payment"
	"github.com/tulsiarena/booking-service/pkg/rabbitmq"
	"gorm.io/gorm"
)

var (
	ErrValidation           = errors.New("validation failed")
	ErrBookingNotFound      = errors.New("booking not found")
	ErrNotBookingOwner      = errors.New("not authorized to access this booking")
	ErrAlreadyCancelled     = errors.New("booking is already cancelled")
	ErrPastBookingDate      = errors.New("cannot cancel a booking whose date has passed")
	ErrPoolCutoff           = errors.New("pool bookings for today close at 9 PM")
	ErrSignatureMismatch    = errors.New("payment signature verification failed")
	ErrDraftNotFound        = errors.New("payment order not found or already processed")
	ErrPaymentRequired      = errors.New("payment is required: create an order and verify it")
	ErrPaymentNotConfigured = errors.New("payment gateway is not configured")
	ErrPaymentGateway       = errors.New("payment gateway error")
)

// SlotConflictError reports the exact slots already taken on an exclusive
// facility.
type SlotConflictError struct {
	Slots []string
}

func (e *SlotConflictError) Error() string {
	return "time slots already booked: " + strings.Join(e.Slots, ", ")
}

// PoolCapacityError reports a pool slot whose remaining capacity cannot fit
// the requested party.
type PoolCapacityError struct {
	Slot      string
	Remaining int
}

func (e *PoolCapacityError) Error() string {
	return fmt.Sprintf("pool slot %s has only %d places left", e.Slot, e.Remaining)
}

// BookingRequest is the validated input of the admission engine.
type BookingRequest struct {
	FacilityName      string
	FacilityType      models.FacilityType
	Date              time.Time
	TimeSlots         []string
	AdditionalPlayers int
	BasePrice         string
	DiscountCode      string
}

// PaymentOrder is what a client needs to drive the gateway checkout.
type PaymentOrder struct {
	OrderID  string
	Amount   int // minor units (paise)
	Currency string
}

type BookingService interface {
	CreateBooking(ctx context.Context, userID uint, req BookingRequest) (*models.Booking, error)
	CreateOrder(ctx context.Context, userID uint, req BookingRequest) (*PaymentOrder, error)
	VerifyPayment(ctx context.Context, orderID, paymentID, signature string) (*models.Booking, error)
	GetBooking(ctx context.Context, id, requesterID uint, role string) (*models.Booking, error)
	ListMyBookings(ctx context.Context, userID uint) ([]models.Booking, error)
	ListByDate(ctx context.Context, date time.Time) ([]models.Booking, error)
	CancelBooking(ctx context.Context, id, requesterID uint, role string) (*models.Booking, error)
	UpdateBookingStatus(ctx context.Context, id uint, status models.BookingStatus) (*models.Booking, error)
}

type bookingService struct {
	bookingRepo repository.BookingRepository
	draftRepo   repository.DraftRepository
	discounts   DiscountService
	gateway     payment.Gateway
	publisher   *rabbitmq.Publisher
	now         func() time.Time
}

// NewBookingService wires the admission engine. gateway may be nil, in which
// case bookings confirm directly without a payment order; publisher may be
// nil, in which case notification events are skipped.
func NewBookingService(
	bookingRepo repository.BookingRepository,
	draftRepo repository.DraftRepository,
	discounts DiscountService,
	gateway payment.Gateway,
	publisher *rabbitmq.Publisher,
) BookingService {
	return &bookingService{
		bookingRepo: bookingRepo,
		draftRepo:   draftRepo,
		discounts:   discounts,
		gateway:     gateway,
		publisher:   publisher,
		now:         time.Now,
	}
}

// validate normalizes the request in place and rejects malformed input before
// any business logic runs.
func (s *bookingService) validate(req *BookingRequest) error {
	derived, ok := models.FacilityTypeFor(req.FacilityName)
	if !ok {
		return fmt.Errorf("%w: unknown facility %q", ErrValidation, req.FacilityName)
	}
	if req.FacilityType == "" {
		req.FacilityType = derived
	} else if req.FacilityType != derived {
		return fmt.Errorf("%w: facility type %q does not match facility %q", ErrValidation, req.FacilityType, req.FacilityName)
	}

	if req.Date.IsZero() {
		return fmt.Errorf("%w: booking date is required", ErrValidation)
	}
	req.Date = dateOnly(req.Date)

	slots := make([]string, 0, len(req.TimeSlots))
	seen := make(map[string]bool, len(req.TimeSlots))
	for _, slot := range req.TimeSlots {
		slot = strings.TrimSpace(slot)
		if slot == "" || seen[slot] {
			continue
		}
		seen[slot] = true
		slots = append(slots, slot)
	}
	if len(slots) == 0 {
		return fmt.Errorf("%w: at least one time slot is required", ErrValidation)
	}
	req.TimeSlots = slots

	if req.FacilityType == models.FacilityPool {
		if req.AdditionalPlayers < 1 || req.AdditionalPlayers > PoolCapacity {
			return fmt.Errorf("%w: pool bookings require 1-%d persons", ErrValidation, PoolCapacity)
		}
	} else {
		if req.AdditionalPlayers < 0 || req.AdditionalPlayers > 4 {
			return fmt.Errorf("%w: additional players must be between 0 and 4", ErrValidation)
		}
	}

	req.DiscountCode = strings.TrimSpace(req.DiscountCode)
	return nil
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// poolCutoffReached rejects same-day pool bookings from 9 PM local time.
func (s *bookingService) poolCutoffReached(req *BookingRequest) bool {
	if req.FacilityType != models.FacilityPool {
		return false
	}
	now := s.now()
	return req.Date.Equal(dateOnly(now)) && now.Hour() >= PoolCutoffHour
}

// checkAvailability runs against tx. With tx inside a transaction holding the
// facility-day lock this is the authoritative check; with the plain DB handle
// it is the advisory pre-check used before opening a payment order.
func (s *bookingService) checkAvailability(ctx context.Context, tx *gorm.DB, req *BookingRequest) error {
	if req.FacilityType == models.FacilityPool {
		for _, slot := range req.TimeSlots {
			taken, err := s.bookingRepo.PoolHeadCount(ctx, tx, req.Date, slot)
			if err != nil {
				return err
			}
			if taken+req.AdditionalPlayers > PoolCapacity {
				return &PoolCapacityError{Slot: slot, Remaining: PoolCapacity - taken}
			}
		}
		return nil
	}

	booked, err := s.bookingRepo.ActiveSlots(ctx, tx, req.FacilityName, req.Date)
	if err != nil {
		return err
	}
	bookedSet := make(map[string]bool, len(booked))
	for _, slot := range booked {
		bookedSet[slot] = true
	}

	var conflicts []string
	for _, slot := range req.TimeSlots {
		if bookedSet[slot] {
			conflicts = append(conflicts, slot)
		}
	}
	if len(conflicts) > 0 {
		return &SlotConflictError{Slots: conflicts}
	}
	return nil
}

// price runs the calculator and the discount evaluator in sequence.
func (s *bookingService) price(ctx context.Context, userID uint, req *BookingRequest) (PriceQuote, DiscountOutcome, int, error) {
	quote, err := ComputePrice(req.FacilityType, req.TimeSlots, req.AdditionalPlayers, req.BasePrice)
	if err != nil {
		return PriceQuote{}, DiscountOutcome{}, 0, err
	}

	outcome, err := s.discounts.Evaluate(ctx, req.DiscountCode, quote.PriceBeforeDiscount, userID)
	if err != nil {
		return PriceQuote{}, DiscountOutcome{}, 0, err
	}

	total := quote.PriceBeforeDiscount - outcome.Amount
	if total <= 0 {
		return PriceQuote{}, DiscountOutcome{}, 0, ErrNonPositiveTotal
	}
	return quote, outcome, total, nil
}

// admit creates the booking and its slot claims inside tx. The facility-day
// lock taken first serializes concurrent admissions; the partial unique index
// on booking_slots backstops exclusive facilities.
func (s *bookingService) admit(ctx context.Context, tx *gorm.DB, booking *models.Booking) error {
	req := &BookingRequest{
		FacilityName:      booking.FacilityName,
		FacilityType:      booking.FacilityType,
		Date:              booking.Date,
		TimeSlots:         booking.TimeSlots,
		AdditionalPlayers: booking.AdditionalPlayers,
	}

	if err := s.bookingRepo.LockFacilityDay(ctx, tx, booking.FacilityName, booking.Date); err != nil {
		return err
	}
	if err := s.checkAvailability(ctx, tx, req); err != nil {
		return err
	}
	if err := s.bookingRepo.Create(ctx, tx, booking); err != nil {
		return err
	}

	slots := make([]models.BookingSlot, len(booking.TimeSlots))
	for i, slot := range booking.TimeSlots {
		slots[i] = models.BookingSlot{
			BookingID:    booking.ID,
			FacilityName: booking.FacilityName,
			FacilityType: booking.FacilityType,
			Date:         booking.Date,
			Slot:         slot,
			Active:       true,
		}
	}
	return s.bookingRepo.CreateSlots(ctx, tx, slots)
}

// CreateBooking is the direct-confirm flow, available only while no payment
// gateway is configured.
func (s *bookingService) CreateBooking(ctx context.Context, userID uint, req BookingRequest) (*models.Booking, error) {
	if s.gateway != nil {
		return nil, ErrPaymentRequired
	}
	if err := s.validate(&req); err != nil {
		return nil, err
	}
	if s.poolCutoffReached(&req) {
		return nil, ErrPoolCutoff
	}

	quote, outcome, total, err := s.price(ctx, userID, &req)
	if err != nil {
		return nil, err
	}

	booking := bookingFromRequest(userID, &req, quote, outcome, total)
	booking.Status = models.StatusConfirmed
	booking.PaymentStatus = models.PaymentPending

	err = s.bookingRepo.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.admit(ctx, tx, booking); err != nil {
			return err
		}
		if outcome.Applied {
			return s.discounts.RedeemIn(ctx, tx, outcome.Code, userID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishConfirmed(booking)
	return booking, nil
}

// CreateOrder prices the request, opens a gateway order for the total and
// persists a draft keyed by the order id. The discount is evaluated but not
// redeemed, and no slots are claimed yet.
func (s *bookingService) CreateOrder(ctx context.Context, userID uint, req BookingRequest) (*PaymentOrder, error) {
	if s.gateway == nil {
		return nil, ErrPaymentNotConfigured
	}
	if err := s.validate(&req); err != nil {
		return nil, err
	}
	if s.poolCutoffReached(&req) {
		return nil, ErrPoolCutoff
	}

	quote, outcome, total, err := s.price(ctx, userID, &req)
	if err != nil {
		return nil, err
	}

	// Fast, friendly rejection. The authoritative check re-runs under the
	// facility-day lock when the payment is verified.
	if err := s.checkAvailability(ctx, s.bookingRepo.GetDB(), &req); err != nil {
		return nil, err
	}

	receipt := "bk_" + uuid.NewString()
	orderID, err := s.gateway.CreateOrder(ctx, total*100, "INR", receipt)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPaymentGateway, err)
	}

	// Draft is written only after the gateway call succeeded, so a gateway
	// failure leaves nothing dangling.
	draft := &models.BookingDraft{
		UserID:                userID,
		FacilityName:          req.FacilityName,
		FacilityType:          req.FacilityType,
		Date:                  req.Date,
		TimeSlots:             req.TimeSlots,
		AdditionalPlayers:     req.AdditionalPlayers,
		BasePrice:             quote.BaseTotal,
		AdditionalPlayersCost: quote.Surcharge,
		DiscountCode:          outcome.Code,
		DiscountAmount:        outcome.Amount,
		TotalPrice:            total,
		RazorpayOrderID:       orderID,
		Status:                models.DraftPending,
	}
	if err := s.draftRepo.Create(ctx, draft); err != nil {
		return nil, err
	}

	return &PaymentOrder{OrderID: orderID, Amount: total * 100, Currency: "INR"}, nil
}

// VerifyPayment authenticates the gateway callback and materializes exactly
// one booking from the draft, redeeming the discount in the same transaction.
func (s *bookingService) VerifyPayment(ctx context.Context, orderID, paymentID, signature string) (*models.Booking, error) {
	if s.gateway == nil {
		return nil, ErrPaymentNotConfigured
	}
	if !s.gateway.VerifySignature(orderID, paymentID, signature) {
		return nil, ErrSignatureMismatch
	}

	var booking *models.Booking
	err := s.bookingRepo.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		draft, err := s.draftRepo.FindPendingByOrderID(ctx, tx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrDraftNotFound
			}
			return err
		}

		completed, err := s.draftRepo.MarkCompleted(ctx, tx, draft.ID)
		if err != nil {
			return err
		}
		if !completed {
			return ErrDraftNotFound
		}

		booking = &models.Booking{
			UserID:                draft.UserID,
			FacilityName:          draft.FacilityName,
			FacilityType:          draft.FacilityType,
			Date:                  draft.Date,
			TimeSlots:             draft.TimeSlots,
			AdditionalPlayers:     draft.AdditionalPlayers,
			BasePrice:             draft.BasePrice,
			AdditionalPlayersCost: draft.AdditionalPlayersCost,
			DiscountCode:          draft.DiscountCode,
			DiscountAmount:        draft.DiscountAmount,
			TotalPrice:            draft.TotalPrice,
			Status:                models.StatusConfirmed,
			PaymentStatus:         models.PaymentPaid,
		}
		if err := s.admit(ctx, tx, booking); err != nil {
			return err
		}

		if draft.DiscountCode != "" {
			err := s.discounts.RedeemIn(ctx, tx, draft.DiscountCode, draft.UserID)
			switch {
			case err == nil:
			case errors.Is(err, ErrCodeExhausted), errors.Is(err, ErrCodeAlreadyUsed), errors.Is(err, ErrCodeNotFound):
				// The code was consumed between order creation and payment.
				// The user already paid the discounted amount, so the booking
				// stands; the code simply is not charged a use.
				log.Printf("[booking] discount %s not redeemed for order %s: %v", draft.DiscountCode, orderID, err)
			default:
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishConfirmed(booking)
	return booking, nil
}

func (s *bookingService) GetBooking(ctx context.Context, id, requesterID uint, role string) (*models.Booking, error) {
	booking, err := s.bookingRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	if booking.UserID != requesterID && role != models.RoleAdmin {
		return nil, ErrNotBookingOwner
	}
	return booking, nil
}

func (s *bookingService) ListMyBookings(ctx context.Context, userID uint) ([]models.Booking, error) {
	return s.bookingRepo.FindByUser(ctx, userID)
}

func (s *bookingService) ListByDate(ctx context.Context, date time.Time) ([]models.Booking, error) {
	return s.bookingRepo.FindByDate(ctx, dateOnly(date))
}

func (s *bookingService) CancelBooking(ctx context.Context, id, requesterID uint, role string) (*models.Booking, error) {
	var result *models.Booking

	err := s.bookingRepo.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		booking, err := s.bookingRepo.FindByIDForUpdate(ctx, tx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrBookingNotFound
			}
			return err
		}

		if booking.UserID != requesterID && role != models.RoleAdmin {
			return ErrNotBookingOwner
		}
		if booking.Status == models.StatusCancelled {
			return ErrAlreadyCancelled
		}
		if booking.Date.Before(dateOnly(s.now())) {
			return ErrPastBookingDate
		}

		if err := s.bookingRepo.UpdateStatus(ctx, tx, booking.ID, models.StatusCancelled); err != nil {
			return err
		}
		if err := s.bookingRepo.DeactivateSlots(ctx, tx, booking.ID); err != nil {
			return err
		}

		booking.Status = models.StatusCancelled
		result = booking
		return nil
	})

	return result, err
}

// UpdateBookingStatus is the admin override. Cancelled bookings stay
// cancelled: reactivating one would need a fresh availability pass, so the
// admin re-books instead.
func (s *bookingService) UpdateBookingStatus(ctx context.Context, id uint, status models.BookingStatus) (*models.Booking, error) {
	switch status {
	case models.StatusPending, models.StatusConfirmed, models.StatusCancelled, models.StatusCompleted:
	default:
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, status)
	}

	var result *models.Booking
	err := s.bookingRepo.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		booking, err := s.bookingRepo.FindByIDForUpdate(ctx, tx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrBookingNotFound
			}
			return err
		}
		if booking.Status == models.StatusCancelled && status != models.StatusCancelled {
			return ErrAlreadyCancelled
		}

		if err := s.bookingRepo.UpdateStatus(ctx, tx, booking.ID, status); err != nil {
			return err
		}
		if status == models.StatusCancelled {
			if err := s.bookingRepo.DeactivateSlots(ctx, tx, booking.ID); err != nil {
				return err
			}
		}

		booking.Status = status
		result = booking
		return nil
	})
	return result, err
}

func bookingFromRequest(userID uint, req *BookingRequest, quote PriceQuote, outcome DiscountOutcome, total int) *models.Booking {
	return &models.Booking{
		UserID:                userID,
		FacilityName:          req.FacilityName,
		FacilityType:          req.FacilityType,
		Date:                  req.Date,
		TimeSlots:             req.TimeSlots,
		AdditionalPlayers:     req.AdditionalPlayers,
		BasePrice:             quote.BaseTotal,
		AdditionalPlayersCost: quote.Surcharge,
		DiscountCode:          outcome.Code,
		DiscountAmount:        outcome.Amount,
		TotalPrice:            total,
	}
}

type bookingConfirmedEvent struct {
	BookingID    uint     `json:"booking_id"`
	UserID       uint     `json:"user_id"`
	FacilityName string   `json:"facility_name"`
	Date         string   `json:"date"`
	TimeSlots    []string `json:"time_slots"`
	TotalPrice   int      `json:"total_price"`
}

func (s *bookingService) publishConfirmed(booking *models.Booking) {
	if s.publisher == nil {
		return
	}
	event := bookingConfirmedEvent{
		BookingID:    booking.ID,
		UserID:       booking.UserID,
		FacilityName: booking.FacilityName,
		Date:         booking.Date.Format("2006-01-02"),
		TimeSlots:    booking.TimeSlots,
		TotalPrice:   booking.TotalPrice,
	}
	if err := s.publisher.Publish("booking.confirmed", event); err != nil {
		log.Printf("[booking] failed to publish booking.confirmed: %v", err)
	}
}
