package repository

import (
	"context"

	"shoptill/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// MethodMovementSum is one aggregation row of a shift's movement ledger,
// grouped by payment method and movement kind.
type MethodMovementSum struct {
	PaymentMethodID uuid.UUID
	Kind            string
	Total           decimal.Decimal
}

type ShiftRepository interface {
	Create(ctx context.Context, s *model.CashShift) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.CashShift, error)
	// FindOpenByCashier returns the cashier's single OPEN shift, if any.
	FindOpenByCashier(ctx context.Context, cashierID uuid.UUID) (*model.CashShift, error)
	FindOpenByRegister(ctx context.Context, registerID uuid.UUID) (*model.CashShift, error)
	List(ctx context.Context, registerID *uuid.UUID, page, limit int) ([]model.CashShift, int64, error)

	// TransitionStatusTx moves a shift between statuses with the previous status
	// as a guard. Zero rows affected means the shift was not in `from`.
	TransitionStatusTx(tx *gorm.DB, id uuid.UUID, from, to string) (int64, error)
	// AddCashTx adjusts the drawer total, guarded on the shift still being OPEN.
	// The row lock it takes also serializes transaction commits against a
	// concurrent close, so callers pass a zero delta for non-cash settlements.
	AddCashTx(tx *gorm.DB, id uuid.UUID, delta decimal.Decimal) (int64, error)
	// FinalizeTx stamps the closing fields and moves CLOSING→CLOSED.
	FinalizeTx(tx *gorm.DB, s *model.CashShift) (int64, error)
	CreateMovementTx(tx *gorm.DB, m *model.ShiftMovement) error
	// SumMovements aggregates the shift ledger by method and kind.
	SumMovements(ctx context.Context, shiftID uuid.UUID) ([]MethodMovementSum, error)

	DB() *gorm.DB
}

type shiftRepo struct{ db *gorm.DB }

func NewShiftRepository(db *gorm.DB) ShiftRepository { return &shiftRepo{db: db} }

func (r *shiftRepo) DB() *gorm.DB { return r.db }

func (r *shiftRepo) Create(ctx context.Context, s *model.CashShift) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *shiftRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.CashShift, error) {
	var s model.CashShift
	err := r.db.WithContext(ctx).First(&s, id).Error
	return &s, err
}

func (r *shiftRepo) FindOpenByCashier(ctx context.Context, cashierID uuid.UUID) (*model.CashShift, error) {
	var s model.CashShift
	err := r.db.WithContext(ctx).
		Where("cashier_id = ? AND status = ?", cashierID, model.ShiftStatusOpen).
		First(&s).Error
	return &s, err
}

func (r *shiftRepo) FindOpenByRegister(ctx context.Context, registerID uuid.UUID) (*model.CashShift, error) {
	var s model.CashShift
	err := r.db.WithContext(ctx).
		Where("register_id = ? AND status = ?", registerID, model.ShiftStatusOpen).
		First(&s).Error
	return &s, err
}

func (r *shiftRepo) List(ctx context.Context, registerID *uuid.UUID, page, limit int) ([]model.CashShift, int64, error) {
	var shifts []model.CashShift
	var total int64

	q := r.db.WithContext(ctx).Model(&model.CashShift{})
	if registerID != nil {
		q = q.Where("register_id = ?", *registerID)
	}
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Order("opened_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&shifts).Error
	return shifts, total, err
}

func (r *shiftRepo) TransitionStatusTx(tx *gorm.DB, id uuid.UUID, from, to string) (int64, error) {
	res := tx.Model(&model.CashShift{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	return res.RowsAffected, res.Error
}

func (r *shiftRepo) AddCashTx(tx *gorm.DB, id uuid.UUID, delta decimal.Decimal) (int64, error) {
	res := tx.Model(&model.CashShift{}).
		Where("id = ? AND status = ?", id, model.ShiftStatusOpen).
		Update("current_amount", gorm.Expr("current_amount + ?", delta))
	return res.RowsAffected, res.Error
}

func (r *shiftRepo) FinalizeTx(tx *gorm.DB, s *model.CashShift) (int64, error) {
	res := tx.Model(&model.CashShift{}).
		Where("id = ? AND status = ?", s.ID, model.ShiftStatusClosing).
		Updates(map[string]any{
			"status":       model.ShiftStatusClosed,
			"final_amount": s.FinalAmount,
			"notes":        s.Notes,
			"closed_at":    s.ClosedAt,
		})
	return res.RowsAffected, res.Error
}

func (r *shiftRepo) CreateMovementTx(tx *gorm.DB, m *model.ShiftMovement) error {
	return tx.Create(m).Error
}

func (r *shiftRepo) SumMovements(ctx context.Context, shiftID uuid.UUID) ([]MethodMovementSum, error) {
	var sums []MethodMovementSum
	err := r.db.WithContext(ctx).Model(&model.ShiftMovement{}).
		Select("payment_method_id, kind, COALESCE(SUM(amount), 0) AS total").
		Where("shift_id = ?", shiftID).
		Group("payment_method_id, kind").
		Scan(&sums).Error
	return sums, err
}
