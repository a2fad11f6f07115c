package repository

import (
	"context"

	"shoptill/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ReturnRepository interface {
	Create(ctx context.Context, rt *model.ReturnTransaction) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.ReturnTransaction, error)
	FindByIdempotencyKey(ctx context.Context, key string) (*model.ReturnTransaction, error)
	ListByShift(ctx context.Context, shiftID uuid.UUID) ([]model.ReturnTransaction, error)
	// SumReturnedByReceipt totals the quantities already returned against an
	// original receipt, per product, across every linked return.
	SumReturnedByReceipt(ctx context.Context, receiptID uuid.UUID) (map[uuid.UUID]int, error)
	// MarkSettledTx writes the settlement fields, guarded on status PENDING.
	MarkSettledTx(tx *gorm.DB, rt *model.ReturnTransaction) (int64, error)

	DB() *gorm.DB
}

type returnRepo struct{ db *gorm.DB }

func NewReturnRepository(db *gorm.DB) ReturnRepository { return &returnRepo{db: db} }

func (r *returnRepo) DB() *gorm.DB { return r.db }

func (r *returnRepo) Create(ctx context.Context, rt *model.ReturnTransaction) error {
	return r.db.WithContext(ctx).Create(rt).Error
}

func (r *returnRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.ReturnTransaction, error) {
	var rt model.ReturnTransaction
	err := r.db.WithContext(ctx).Preload("Lines").First(&rt, id).Error
	return &rt, err
}

func (r *returnRepo) FindByIdempotencyKey(ctx context.Context, key string) (*model.ReturnTransaction, error) {
	var rt model.ReturnTransaction
	err := r.db.WithContext(ctx).Preload("Lines").
		Where("idempotency_key = ?", key).
		First(&rt).Error
	return &rt, err
}

func (r *returnRepo) ListByShift(ctx context.Context, shiftID uuid.UUID) ([]model.ReturnTransaction, error) {
	var returns []model.ReturnTransaction
	err := r.db.WithContext(ctx).Preload("Lines").
		Where("shift_id = ?", shiftID).
		Order("created_at ASC").
		Find(&returns).Error
	return returns, err
}

func (r *returnRepo) SumReturnedByReceipt(ctx context.Context, receiptID uuid.UUID) (map[uuid.UUID]int, error) {
	var rows []struct {
		ProductID uuid.UUID
		Total     int
	}
	err := r.db.WithContext(ctx).Model(&model.ReturnLine{}).
		Select("return_lines.product_id, COALESCE(SUM(return_lines.quantity), 0) AS total").
		Joins("JOIN return_transactions ON return_transactions.id = return_lines.return_id").
		Where("return_transactions.original_receipt_id = ?", receiptID).
		Group("return_lines.product_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]int, len(rows))
	for _, row := range rows {
		out[row.ProductID] = row.Total
	}
	return out, nil
}

func (r *returnRepo) MarkSettledTx(tx *gorm.DB, rt *model.ReturnTransaction) (int64, error) {
	res := tx.Model(&model.ReturnTransaction{}).
		Where("id = ? AND status = ?", rt.ID, model.ReturnPending).
		Updates(map[string]any{
			"status":            model.ReturnSettled,
			"payment_method_id": rt.PaymentMethodID,
			"settled_amount":    rt.SettledAmount,
			"idempotency_key":   rt.IdempotencyKey,
			"settled_at":        rt.SettledAt,
		})
	return res.RowsAffected, res.Error
}
