package repository

import (
	"context"

	"shoptill/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ReceiptRepository interface {
	Create(ctx context.Context, rc *model.Receipt) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Receipt, error)
	FindByNumber(ctx context.Context, number int) (*model.Receipt, error)
	// FindDraftByShift returns the shift's single in-flight DRAFT, if any.
	FindDraftByShift(ctx context.Context, shiftID uuid.UUID) (*model.Receipt, error)
	FindByIdempotencyKey(ctx context.Context, key string) (*model.Receipt, error)
	ListByShift(ctx context.Context, shiftID uuid.UUID) ([]model.Receipt, error)
	// NextNumber reserves the next value of the receipt sequence.
	NextNumber(ctx context.Context) (int, error)

	SaveItemTx(tx *gorm.DB, it *model.ReceiptItem) error
	DeleteItemTx(tx *gorm.DB, itemID uuid.UUID) error
	// SaveTotalsTx persists recomputed totals and bumps the version.
	SaveTotalsTx(tx *gorm.DB, rc *model.Receipt) error
	// UpdateStatus moves a receipt between statuses with the previous status as
	// a guard; zero rows affected means the receipt was not in `from`.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to string) (int64, error)
	// MarkPaidTx writes the settlement fields, guarded on status DRAFT and the
	// version the terminal read. Zero rows affected means a concurrent mutation
	// won the race.
	MarkPaidTx(tx *gorm.DB, rc *model.Receipt, version int) (int64, error)

	DB() *gorm.DB
}

type receiptRepo struct{ db *gorm.DB }

func NewReceiptRepository(db *gorm.DB) ReceiptRepository { return &receiptRepo{db: db} }

func (r *receiptRepo) DB() *gorm.DB { return r.db }

func (r *receiptRepo) Create(ctx context.Context, rc *model.Receipt) error {
	return r.db.WithContext(ctx).Create(rc).Error
}

func (r *receiptRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Receipt, error) {
	var rc model.Receipt
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		First(&rc, id).Error
	return &rc, err
}

func (r *receiptRepo) FindByNumber(ctx context.Context, number int) (*model.Receipt, error) {
	var rc model.Receipt
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Where("number = ?", number).
		First(&rc).Error
	return &rc, err
}

func (r *receiptRepo) FindDraftByShift(ctx context.Context, shiftID uuid.UUID) (*model.Receipt, error) {
	var rc model.Receipt
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Where("shift_id = ? AND status = ?", shiftID, model.ReceiptDraft).
		First(&rc).Error
	return &rc, err
}

func (r *receiptRepo) FindByIdempotencyKey(ctx context.Context, key string) (*model.Receipt, error) {
	var rc model.Receipt
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("idempotency_key = ?", key).
		First(&rc).Error
	return &rc, err
}

func (r *receiptRepo) ListByShift(ctx context.Context, shiftID uuid.UUID) ([]model.Receipt, error) {
	var receipts []model.Receipt
	err := r.db.WithContext(ctx).
		Where("shift_id = ?", shiftID).
		Order("created_at ASC").
		Find(&receipts).Error
	return receipts, err
}

func (r *receiptRepo) NextNumber(ctx context.Context) (int, error) {
	var n int
	err := r.db.WithContext(ctx).Raw("SELECT nextval('receipt_number_seq')").Scan(&n).Error
	return n, err
}

func (r *receiptRepo) SaveItemTx(tx *gorm.DB, it *model.ReceiptItem) error {
	return tx.Save(it).Error
}

func (r *receiptRepo) DeleteItemTx(tx *gorm.DB, itemID uuid.UUID) error {
	return tx.Delete(&model.ReceiptItem{}, itemID).Error
}

func (r *receiptRepo) SaveTotalsTx(tx *gorm.DB, rc *model.Receipt) error {
	return tx.Model(&model.Receipt{}).
		Where("id = ?", rc.ID).
		Updates(map[string]any{
			"subtotal":       rc.Subtotal,
			"discount_total": rc.DiscountTotal,
			"final_amount":   rc.FinalAmount,
			"version":        gorm.Expr("version + 1"),
		}).Error
}

func (r *receiptRepo) UpdateStatus(ctx context.Context, id uuid.UUID, from, to string) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.Receipt{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	return res.RowsAffected, res.Error
}

func (r *receiptRepo) MarkPaidTx(tx *gorm.DB, rc *model.Receipt, version int) (int64, error) {
	res := tx.Model(&model.Receipt{}).
		Where("id = ? AND status = ? AND version = ?", rc.ID, model.ReceiptDraft, version).
		Updates(map[string]any{
			"status":            model.ReceiptPaid,
			"payment_method_id": rc.PaymentMethodID,
			"tendered_amount":   rc.TenderedAmount,
			"change_amount":     rc.ChangeAmount,
			"idempotency_key":   rc.IdempotencyKey,
			"paid_at":           rc.PaidAt,
		})
	return res.RowsAffected, res.Error
}
