package repository

import (
	"context"

	"shoptill/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ClosingRepository interface {
	CreateTx(tx *gorm.DB, c *model.ShiftClosing) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.ShiftClosing, error)
	FindByShiftID(ctx context.Context, shiftID uuid.UUID) (*model.ShiftClosing, error)
	// ListPendingPDFs returns closings whose report was never rendered,
	// oldest first, for the retry cron.
	ListPendingPDFs(ctx context.Context, limit int) ([]model.ShiftClosing, error)
	UpdatePDFPath(ctx context.Context, id uuid.UUID, path string) error
}

type closingRepo struct{ db *gorm.DB }

func NewClosingRepository(db *gorm.DB) ClosingRepository { return &closingRepo{db: db} }

func (r *closingRepo) CreateTx(tx *gorm.DB, c *model.ShiftClosing) error {
	return tx.Create(c).Error
}

func (r *closingRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.ShiftClosing, error) {
	var c model.ShiftClosing
	err := r.db.WithContext(ctx).
		Preload("MethodTotals", func(db *gorm.DB) *gorm.DB { return db.Order("method_name ASC") }).
		First(&c, id).Error
	return &c, err
}

func (r *closingRepo) ListPendingPDFs(ctx context.Context, limit int) ([]model.ShiftClosing, error) {
	var closings []model.ShiftClosing
	err := r.db.WithContext(ctx).
		Preload("MethodTotals").
		Where("pdf_path IS NULL").
		Order("created_at ASC").
		Limit(limit).
		Find(&closings).Error
	return closings, err
}

func (r *closingRepo) FindByShiftID(ctx context.Context, shiftID uuid.UUID) (*model.ShiftClosing, error) {
	var c model.ShiftClosing
	err := r.db.WithContext(ctx).
		Preload("MethodTotals", func(db *gorm.DB) *gorm.DB { return db.Order("method_name ASC") }).
		Where("shift_id = ?", shiftID).
		First(&c).Error
	return &c, err
}

func (r *closingRepo) UpdatePDFPath(ctx context.Context, id uuid.UUID, path string) error {
	return r.db.WithContext(ctx).Model(&model.ShiftClosing{}).
		Where("id = ?", id).
		Update("pdf_path", path).Error
}
