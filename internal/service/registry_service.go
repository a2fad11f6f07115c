package service

import (
	"context"

	"shoptill/internal/apierror"
	"shoptill/internal/dto"
	"shoptill/internal/model"
	"shoptill/internal/repository"
)

// RegistryService exposes the read side of the terminal: which payment
// methods the session's register may use, and the product catalog for
// line-item entry.
type RegistryService interface {
	Methods(ctx context.Context, sess Session) ([]dto.PaymentMethodResponse, error)
	Products(ctx context.Context) ([]dto.ProductResponse, error)
	FindProductByBarcode(ctx context.Context, barcode string) (*dto.ProductResponse, error)
}

type registryService struct {
	registerRepo repository.RegisterRepository
	productRepo  repository.ProductRepository
}

func NewRegistryService(registerRepo repository.RegisterRepository, productRepo repository.ProductRepository) RegistryService {
	return &registryService{registerRepo: registerRepo, productRepo: productRepo}
}

func (s *registryService) Methods(ctx context.Context, sess Session) ([]dto.PaymentMethodResponse, error) {
	methods, err := s.registerRepo.ListMethods(ctx, sess.RegisterID)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.PaymentMethodResponse, len(methods))
	for i := range methods {
		resp[i] = methodToResponse(&methods[i])
	}
	return resp, nil
}

func (s *registryService) Products(ctx context.Context) ([]dto.ProductResponse, error) {
	products, err := s.productRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.ProductResponse, len(products))
	for i, p := range products {
		resp[i] = productToResponse(&p)
	}
	return resp, nil
}

func (s *registryService) FindProductByBarcode(ctx context.Context, barcode string) (*dto.ProductResponse, error) {
	p, err := s.productRepo.FindByBarcode(ctx, barcode)
	if err != nil {
		return nil, apierror.NotFoundf("no product with barcode %s", barcode)
	}
	resp := productToResponse(p)
	return &resp, nil
}

func methodToResponse(m *model.PaymentMethod) dto.PaymentMethodResponse {
	var registerID *string
	if m.RegisterID != nil {
		v := m.RegisterID.String()
		registerID = &v
	}
	return dto.PaymentMethodResponse{
		ID:             m.ID.String(),
		Name:           m.Name,
		Kind:           m.Kind,
		RegisterID:     registerID,
		Shared:         m.Shared,
		CurrentBalance: m.CurrentBalance,
		Active:         m.Active,
	}
}

func productToResponse(p *model.Product) dto.ProductResponse {
	return dto.ProductResponse{
		ID:        p.ID.String(),
		Barcode:   p.Barcode,
		Name:      p.Name,
		UnitPrice: p.UnitPrice,
		Active:    p.Active,
	}
}
