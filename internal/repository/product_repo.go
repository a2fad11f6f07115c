package repository

import (
	"context"

	"shoptill/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProductRepository is a read-only view of the catalog. The back office owns
// catalog writes; the register only resolves names and prices.
type ProductRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	FindByBarcode(ctx context.Context, barcode string) (*model.Product, error)
	List(ctx context.Context) ([]model.Product, error)
}

type productRepo struct{ db *gorm.DB }

func NewProductRepository(db *gorm.DB) ProductRepository { return &productRepo{db: db} }

func (r *productRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	var p model.Product
	err := r.db.WithContext(ctx).First(&p, id).Error
	return &p, err
}

func (r *productRepo) FindByBarcode(ctx context.Context, barcode string) (*model.Product, error) {
	var p model.Product
	err := r.db.WithContext(ctx).Where("barcode = ?", barcode).First(&p).Error
	return &p, err
}

func (r *productRepo) List(ctx context.Context) ([]model.Product, error) {
	var products []model.Product
	err := r.db.WithContext(ctx).Where("active = true").Order("name ASC").Find(&products).Error
	return products, err
}
