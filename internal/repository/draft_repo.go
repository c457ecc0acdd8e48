package repository

import (
	"context"

	"github.com/tulsiarena/booking-service/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DraftRepository interface {
	Create(ctx context.Context, draft *models.BookingDraft) error
	FindPendingByOrderID(ctx context.Context, tx *gorm.DB, orderID string) (*models.BookingDraft, error)
	MarkCompleted(ctx context.Context, tx *gorm.DB, draftID uint) (bool, error)
	GetDB() *gorm.DB
}

type draftRepository struct {
	db *gorm.DB
}

func NewDraftRepository(db *gorm.DB) DraftRepository {
	return &draftRepository{db: db}
}

func (r *draftRepository) GetDB() *gorm.DB {
	return r.db
}

func (r *draftRepository) Create(ctx context.Context, draft *models.BookingDraft) error {
	return r.db.WithContext(ctx).Create(draft).Error
}

// FindPendingByOrderID locks the pending draft row so a replayed
// verification callback blocks here and then finds no pending draft.
func (r *draftRepository) FindPendingByOrderID(ctx context.Context, tx *gorm.DB, orderID string) (*models.BookingDraft, error) {
	var draft models.BookingDraft
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("razorpay_order_id = ? AND status = ?", orderID, models.DraftPending).
		First(&draft).Error
	if err != nil {
		return nil, err
	}
	return &draft, nil
}

// MarkCompleted flips Pending -> Completed; returns false when the draft was
// no longer pending (the transition happens at most once).
func (r *draftRepository) MarkCompleted(ctx context.Context, tx *gorm.DB, draftID uint) (bool, error) {
	result := tx.WithContext(ctx).
		Model(&models.BookingDraft{}).
		Where("id = ? AND status = ?", draftID, models.DraftPending).
		Update("status", models.DraftCompleted)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}
