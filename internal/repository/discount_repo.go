package repository

import (
	"context"

	"github.com/tulsiarena/booking-service/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DiscountRepository interface {
	Create(ctx context.Context, code *models.DiscountCode) error
	FindByCode(ctx context.Context, code string) (*models.DiscountCode, error)
	FindByCodeForUpdate(ctx context.Context, tx *gorm.DB, code string) (*models.DiscountCode, error)
	FindAll(ctx context.Context) ([]models.DiscountCode, error)
	SetActive(ctx context.Context, code string, active bool) (*models.DiscountCode, error)
	HasRedeemed(ctx context.Context, tx *gorm.DB, codeID, userID uint) (bool, error)
	IncrementUsage(ctx context.Context, tx *gorm.DB, codeID uint) (bool, error)
	AddRedemption(ctx context.Context, tx *gorm.DB, codeID, userID uint) error
	GetDB() *gorm.DB
}

type discountRepository struct {
	db *gorm.DB
}

func NewDiscountRepository(db *gorm.DB) DiscountRepository {
	return &discountRepository{db: db}
}

func (r *discountRepository) GetDB() *gorm.DB {
	return r.db
}

func (r *discountRepository) Create(ctx context.Context, code *models.DiscountCode) error {
	return r.db.WithContext(ctx).Create(code).Error
}

func (r *discountRepository) FindByCode(ctx context.Context, code string) (*models.DiscountCode, error) {
	var dc models.DiscountCode
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&dc).Error; err != nil {
		return nil, err
	}
	return &dc, nil
}

// FindByCodeForUpdate locks the code row, serializing concurrent redemptions
// of the same code.
func (r *discountRepository) FindByCodeForUpdate(ctx context.Context, tx *gorm.DB, code string) (*models.DiscountCode, error) {
	var dc models.DiscountCode
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("code = ?", code).
		First(&dc).Error
	if err != nil {
		return nil, err
	}
	return &dc, nil
}

func (r *discountRepository) FindAll(ctx context.Context) ([]models.DiscountCode, error) {
	var codes []models.DiscountCode
	err := r.db.WithContext(ctx).Order("created_at DESC").Find(&codes).Error
	return codes, err
}

func (r *discountRepository) SetActive(ctx context.Context, code string, active bool) (*models.DiscountCode, error) {
	dc, err := r.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).
		Model(dc).
		Update("is_active", active).Error; err != nil {
		return nil, err
	}
	return dc, nil
}

func (r *discountRepository) HasRedeemed(ctx context.Context, tx *gorm.DB, codeID, userID uint) (bool, error) {
	var count int64
	err := tx.WithContext(ctx).
		Model(&models.DiscountRedemption{}).
		Where("discount_code_id = ? AND user_id = ?", codeID, userID).
		Count(&count).Error
	return count > 0, err
}

// IncrementUsage is the conditional increment bounded by max_uses; returns
// false when the cap was already reached.
func (r *discountRepository) IncrementUsage(ctx context.Context, tx *gorm.DB, codeID uint) (bool, error) {
	result := tx.WithContext(ctx).
		Model(&models.DiscountCode{}).
		Where("id = ? AND used_count < max_uses", codeID).
		Update("used_count", gorm.Expr("used_count + 1"))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *discountRepository) AddRedemption(ctx context.Context, tx *gorm.DB, codeID, userID uint) error {
	redemption := models.DiscountRedemption{DiscountCodeID: codeID, UserID: userID}
	return tx.WithContext(ctx).Create(&redemption).Error
}
