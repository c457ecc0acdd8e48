package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/tulsiarena/booking-service/internal/models"
	"github.com/tulsiarena/booking-service/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrCodeNotFound    = errors.New("discount code not found")
	ErrCodeExhausted   = errors.New("discount code usage limit reached")
	ErrCodeAlreadyUsed = errors.New("discount code already used by this user")
)

// DiscountReason explains why a code was not applied. Evaluation never fails
// checkout: an unusable code degrades to zero discount, the reason tells the
// caller which way it degraded.
type DiscountReason string

const (
	ReasonNoCode        DiscountReason = "no_code"
	ReasonNotFound      DiscountReason = "not_found"
	ReasonInactive      DiscountReason = "inactive"
	ReasonExpired       DiscountReason = "expired"
	ReasonExhausted     DiscountReason = "usage_limit_reached"
	ReasonAlreadyUsed   DiscountReason = "already_used"
	ReasonBelowMinOrder DiscountReason = "below_min_order"
)

type DiscountOutcome struct {
	Applied bool
	Code    string
	Amount  int
	Reason  DiscountReason
}

type DiscountService interface {
	Evaluate(ctx context.Context, code string, priceBeforeDiscount int, userID uint) (DiscountOutcome, error)
	Redeem(ctx context.Context, code string, userID uint) error
	RedeemIn(ctx context.Context, tx *gorm.DB, code string, userID uint) error
	Create(ctx context.Context, code *models.DiscountCode) error
	List(ctx context.Context) ([]models.DiscountCode, error)
	SetActive(ctx context.Context, code string, active bool) (*models.DiscountCode, error)
}

type discountService struct {
	repo repository.DiscountRepository
	now  func() time.Time
}

func NewDiscountService(repo repository.DiscountRepository) DiscountService {
	return &discountService{repo: repo, now: time.Now}
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Evaluate validates a code against a computed price and reports the discount
// it would grant. It never mutates usage counts; redemption is separate.
func (s *discountService) Evaluate(ctx context.Context, code string, priceBeforeDiscount int, userID uint) (DiscountOutcome, error) {
	code = normalizeCode(code)
	if code == "" {
		return DiscountOutcome{Reason: ReasonNoCode}, nil
	}

	dc, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return DiscountOutcome{Reason: ReasonNotFound}, nil
		}
		return DiscountOutcome{}, err
	}

	if !dc.IsActive {
		return DiscountOutcome{Reason: ReasonInactive}, nil
	}
	if !s.now().Before(dc.ExpiresAt) {
		return DiscountOutcome{Reason: ReasonExpired}, nil
	}
	if dc.UsedCount >= dc.MaxUses {
		return DiscountOutcome{Reason: ReasonExhausted}, nil
	}

	used, err := s.repo.HasRedeemed(ctx, s.repo.GetDB(), dc.ID, userID)
	if err != nil {
		return DiscountOutcome{}, err
	}
	if used {
		return DiscountOutcome{Reason: ReasonAlreadyUsed}, nil
	}

	if priceBeforeDiscount < dc.MinOrderAmount {
		return DiscountOutcome{Reason: ReasonBelowMinOrder}, nil
	}

	amount := discountAmount(dc, priceBeforeDiscount)
	return DiscountOutcome{Applied: true, Code: dc.Code, Amount: amount}, nil
}

func discountAmount(dc *models.DiscountCode, price int) int {
	if dc.DiscountType == models.DiscountPercentage {
		return price * dc.DiscountValue / 100
	}
	// Flat discounts never exceed the order total.
	if dc.DiscountValue > price {
		return price
	}
	return dc.DiscountValue
}

// Redeem consumes one use of the code for the user in its own transaction.
func (s *discountService) Redeem(ctx context.Context, code string, userID uint) error {
	return s.repo.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.RedeemIn(ctx, tx, code, userID)
	})
}

// RedeemIn runs the redemption inside a caller-held transaction, so booking
// confirmation and discount consumption commit together. The code row lock
// plus the conditional increment keep two concurrent redemptions from both
// passing the usage check.
func (s *discountService) RedeemIn(ctx context.Context, tx *gorm.DB, code string, userID uint) error {
	code = normalizeCode(code)

	dc, err := s.repo.FindByCodeForUpdate(ctx, tx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCodeNotFound
		}
		return err
	}

	used, err := s.repo.HasRedeemed(ctx, tx, dc.ID, userID)
	if err != nil {
		return err
	}
	if used {
		return ErrCodeAlreadyUsed
	}

	incremented, err := s.repo.IncrementUsage(ctx, tx, dc.ID)
	if err != nil {
		return err
	}
	if !incremented {
		return ErrCodeExhausted
	}

	if err := s.repo.AddRedemption(ctx, tx, dc.ID, userID); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrCodeAlreadyUsed
		}
		return err
	}
	return nil
}

func (s *discountService) Create(ctx context.Context, code *models.DiscountCode) error {
	code.Code = normalizeCode(code.Code)
	return s.repo.Create(ctx, code)
}

func (s *discountService) List(ctx context.Context) ([]models.DiscountCode, error) {
	return s.repo.FindAll(ctx)
}

func (s *discountService) SetActive(ctx context.Context, code string, active bool) (*models.DiscountCode, error) {
	dc, err := s.repo.SetActive(ctx, normalizeCode(code), active)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCodeNotFound
		}
		return nil, err
	}
	return dc, nil
}
