package repository

import (
	"context"

	"shoptill/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type RegisterRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.CashRegister, error)
	// ListMethods returns the active payment methods usable on a register:
	// assigned to it, or shared across the shop.
	ListMethods(ctx context.Context, registerID uuid.UUID) ([]model.PaymentMethod, error)
	FindMethodByID(ctx context.Context, id uuid.UUID) (*model.PaymentMethod, error)
	// AddMethodBalanceTx adjusts a method balance inside a transaction.
	// Negative deltas are guarded so a balance can never go below zero.
	AddMethodBalanceTx(tx *gorm.DB, id uuid.UUID, delta decimal.Decimal) (int64, error)
}

type registerRepo struct{ db *gorm.DB }

func NewRegisterRepository(db *gorm.DB) RegisterRepository { return &registerRepo{db: db} }

func (r *registerRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.CashRegister, error) {
	var reg model.CashRegister
	err := r.db.WithContext(ctx).First(&reg, id).Error
	return &reg, err
}

func (r *registerRepo) ListMethods(ctx context.Context, registerID uuid.UUID) ([]model.PaymentMethod, error) {
	var methods []model.PaymentMethod
	err := r.db.WithContext(ctx).
		Where("active = true AND (shared = true OR register_id = ?)", registerID).
		Order("name ASC").
		Find(&methods).Error
	return methods, err
}

func (r *registerRepo) FindMethodByID(ctx context.Context, id uuid.UUID) (*model.PaymentMethod, error) {
	var m model.PaymentMethod
	err := r.db.WithContext(ctx).First(&m, id).Error
	return &m, err
}

func (r *registerRepo) AddMethodBalanceTx(tx *gorm.DB, id uuid.UUID, delta decimal.Decimal) (int64, error) {
	res := tx.Model(&model.PaymentMethod{}).
		Where("id = ? AND current_balance + ? >= 0", id, delta).
		Update("current_balance", gorm.Expr("current_balance + ?", delta))
	return res.RowsAffected, res.Error
}
