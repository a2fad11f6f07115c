package service

import (
	"context"
	"time"

	"shoptill/internal/apierror"
	"shoptill/internal/dto"
	"shoptill/internal/model"
	"shoptill/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ReceiptService interface {
	// AddItem appends a product to the shift's draft receipt, creating the
	// draft on first use.
	AddItem(ctx context.Context, sess Session, req dto.AddItemRequest) (*dto.ReceiptResponse, error)
	// UpdateQuantity changes a line's quantity; zero or below removes the line.
	UpdateQuantity(ctx context.Context, sess Session, receiptID, itemID uuid.UUID, req dto.UpdateQuantityRequest) (*dto.ReceiptResponse, error)
	ApplyDiscount(ctx context.Context, sess Session, receiptID, itemID uuid.UUID, req dto.ApplyDiscountRequest) (*dto.ReceiptResponse, error)
	RemoveItem(ctx context.Context, sess Session, receiptID, itemID uuid.UUID) (*dto.ReceiptResponse, error)
	Cancel(ctx context.Context, sess Session, receiptID uuid.UUID) error
	Current(ctx context.Context, sess Session) (*dto.ReceiptResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.ReceiptResponse, error)
	FindByNumber(ctx context.Context, number int) (*dto.ReceiptResponse, error)
}

type receiptService struct {
	repo        repository.ReceiptRepository
	productRepo repository.ProductRepository
	shifts      ShiftService
}

func NewReceiptService(
	repo repository.ReceiptRepository,
	productRepo repository.ProductRepository,
	shifts ShiftService,
) ReceiptService {
	return &receiptService{repo: repo, productRepo: productRepo, shifts: shifts}
}

// ── AddItem ───────────────────────────────────────────────────────────────────

func (s *receiptService) AddItem(ctx context.Context, sess Session, req dto.AddItemRequest) (*dto.ReceiptResponse, error) {
	shift, err := s.shifts.FindOpenForSession(ctx, sess)
	if err != nil {
		return nil, err
	}

	pid, err := uuid.Parse(req.ProductID)
	if err != nil {
		return nil, apierror.Validationf("product_id is not a valid uuid")
	}
	product, err := s.productRepo.FindByID(ctx, pid)
	if err != nil {
		return nil, apierror.NotFoundf("product not found")
	}
	if !product.Active {
		return nil, apierror.Conflictf("product %s is inactive", product.Name)
	}

	qty := req.Quantity
	if qty == 0 {
		qty = 1
	}
	if qty < 0 {
		return nil, apierror.Validationf("quantity must be positive")
	}

	receipt, err := s.ensureDraft(ctx, shift.ID)
	if err != nil {
		return nil, err
	}

	// Same product on the receipt merges into the existing line.
	var line *model.ReceiptItem
	for i := range receipt.Items {
		if receipt.Items[i].ProductID == pid {
			line = &receipt.Items[i]
			break
		}
	}
	if line != nil {
		line.Quantity += qty
	} else {
		receipt.Items = append(receipt.Items, model.ReceiptItem{
			ID:              uuid.New(),
			ReceiptID:       receipt.ID,
			ProductID:       pid,
			ProductName:     product.Name,
			UnitPrice:       product.UnitPrice,
			Quantity:        qty,
			DiscountPercent: decimal.Zero,
		})
		line = &receipt.Items[len(receipt.Items)-1]
	}
	line.Recalculate()

	if err := s.persistLineChange(ctx, receipt, line, false); err != nil {
		return nil, err
	}
	return s.Get(ctx, receipt.ID)
}

// ensureDraft returns the shift's draft receipt, creating it when the shift
// has none in flight.
func (s *receiptService) ensureDraft(ctx context.Context, shiftID uuid.UUID) (*model.Receipt, error) {
	receipt, err := s.repo.FindDraftByShift(ctx, shiftID)
	if err == nil {
		return receipt, nil
	}

	number, err := s.repo.NextNumber(ctx)
	if err != nil {
		return nil, err
	}
	receipt = &model.Receipt{
		ID:            uuid.New(),
		Number:        number,
		ShiftID:       shiftID,
		Status:        model.ReceiptDraft,
		Subtotal:      decimal.Zero,
		DiscountTotal: decimal.Zero,
		FinalAmount:   decimal.Zero,
		CreatedAt:     time.Now(),
	}
	if err := s.repo.Create(ctx, receipt); err != nil {
		return nil, err
	}
	return receipt, nil
}

// ── UpdateQuantity ────────────────────────────────────────────────────────────

func (s *receiptService) UpdateQuantity(ctx context.Context, sess Session, receiptID, itemID uuid.UUID, req dto.UpdateQuantityRequest) (*dto.ReceiptResponse, error) {
	receipt, err := s.loadDraft(ctx, sess, receiptID)
	if err != nil {
		return nil, err
	}
	line, err := findLine(receipt, itemID)
	if err != nil {
		return nil, err
	}

	if req.Quantity <= 0 {
		return s.removeLine(ctx, receipt, line)
	}

	line.Quantity = req.Quantity
	line.Recalculate()
	if err := s.persistLineChange(ctx, receipt, line, false); err != nil {
		return nil, err
	}
	return s.Get(ctx, receipt.ID)
}

// ── ApplyDiscount ─────────────────────────────────────────────────────────────

func (s *receiptService) ApplyDiscount(ctx context.Context, sess Session, receiptID, itemID uuid.UUID, req dto.ApplyDiscountRequest) (*dto.ReceiptResponse, error) {
	pct := req.DiscountPercent
	if pct.IsNegative() || pct.GreaterThan(oneHundredPct) {
		return nil, apierror.Validationf("discount percent must be between 0 and 100")
	}

	receipt, err := s.loadDraft(ctx, sess, receiptID)
	if err != nil {
		return nil, err
	}
	line, err := findLine(receipt, itemID)
	if err != nil {
		return nil, err
	}

	line.DiscountPercent = pct
	line.Recalculate()
	if err := s.persistLineChange(ctx, receipt, line, false); err != nil {
		return nil, err
	}
	return s.Get(ctx, receipt.ID)
}

var oneHundredPct = decimal.NewFromInt(100)

// ── RemoveItem ────────────────────────────────────────────────────────────────

func (s *receiptService) RemoveItem(ctx context.Context, sess Session, receiptID, itemID uuid.UUID) (*dto.ReceiptResponse, error) {
	receipt, err := s.loadDraft(ctx, sess, receiptID)
	if err != nil {
		return nil, err
	}
	line, err := findLine(receipt, itemID)
	if err != nil {
		return nil, err
	}
	return s.removeLine(ctx, receipt, line)
}

func (s *receiptService) removeLine(ctx context.Context, receipt *model.Receipt, line *model.ReceiptItem) (*dto.ReceiptResponse, error) {
	// line aliases receipt.Items, so compact into a fresh slice; an in-place
	// compaction would shift surviving items over the removed one before its ID
	// reaches the delete.
	removed := *line
	kept := make([]model.ReceiptItem, 0, len(receipt.Items))
	for i := range receipt.Items {
		if receipt.Items[i].ID != removed.ID {
			kept = append(kept, receipt.Items[i])
		}
	}
	receipt.Items = kept

	if err := s.persistLineChange(ctx, receipt, &removed, true); err != nil {
		return nil, err
	}
	return s.Get(ctx, receipt.ID)
}

// ── Cancel ────────────────────────────────────────────────────────────────────

func (s *receiptService) Cancel(ctx context.Context, sess Session, receiptID uuid.UUID) error {
	if _, err := s.loadDraft(ctx, sess, receiptID); err != nil {
		return err
	}
	rows, err := s.repo.UpdateStatus(ctx, receiptID, model.ReceiptDraft, model.ReceiptCancelled)
	if err != nil {
		return err
	}
	if rows == 0 {
		return apierror.Conflictf("receipt is no longer a draft")
	}
	return nil
}

// ── Reads ─────────────────────────────────────────────────────────────────────

func (s *receiptService) Current(ctx context.Context, sess Session) (*dto.ReceiptResponse, error) {
	shift, err := s.shifts.FindOpenForSession(ctx, sess)
	if err != nil {
		return nil, err
	}
	receipt, err := s.repo.FindDraftByShift(ctx, shift.ID)
	if err != nil {
		return nil, apierror.NotFoundf("no draft receipt for this shift")
	}
	resp := receiptToResponse(receipt)
	return &resp, nil
}

func (s *receiptService) Get(ctx context.Context, id uuid.UUID) (*dto.ReceiptResponse, error) {
	receipt, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apierror.NotFoundf("receipt not found")
	}
	resp := receiptToResponse(receipt)
	return &resp, nil
}

func (s *receiptService) FindByNumber(ctx context.Context, number int) (*dto.ReceiptResponse, error) {
	receipt, err := s.repo.FindByNumber(ctx, number)
	if err != nil {
		return nil, apierror.NotFoundf("receipt %d not found", number)
	}
	resp := receiptToResponse(receipt)
	return &resp, nil
}

// ── Helpers ───────────────────────────────────────────────────────────────────

// loadDraft resolves a receipt for mutation: it must exist, still be a draft,
// and belong to the session's open shift.
func (s *receiptService) loadDraft(ctx context.Context, sess Session, receiptID uuid.UUID) (*model.Receipt, error) {
	receipt, err := s.repo.FindByID(ctx, receiptID)
	if err != nil {
		return nil, apierror.NotFoundf("receipt not found")
	}
	if receipt.Status != model.ReceiptDraft {
		return nil, apierror.Conflictf("receipt is not editable in status %s", receipt.Status)
	}
	shift, err := s.shifts.FindOpenForSession(ctx, sess)
	if err != nil {
		return nil, err
	}
	if receipt.ShiftID != shift.ID {
		return nil, apierror.Conflictf("receipt belongs to another shift")
	}
	return receipt, nil
}

func findLine(receipt *model.Receipt, itemID uuid.UUID) (*model.ReceiptItem, error) {
	for i := range receipt.Items {
		if receipt.Items[i].ID == itemID {
			return &receipt.Items[i], nil
		}
	}
	return nil, apierror.NotFoundf("receipt item not found")
}

// persistLineChange writes one line mutation and the recomputed totals in a
// single transaction; the version bump happens with the totals.
func (s *receiptService) persistLineChange(ctx context.Context, receipt *model.Receipt, line *model.ReceiptItem, deleted bool) error {
	receipt.Recalculate()
	return runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		if deleted {
			if err := s.repo.DeleteItemTx(tx, line.ID); err != nil {
				return err
			}
		} else {
			if err := s.repo.SaveItemTx(tx, line); err != nil {
				return err
			}
		}
		return s.repo.SaveTotalsTx(tx, receipt)
	})
}

func receiptToResponse(r *model.Receipt) dto.ReceiptResponse {
	items := make([]dto.ReceiptItemResponse, len(r.Items))
	for i, it := range r.Items {
		items[i] = dto.ReceiptItemResponse{
			ID:              it.ID.String(),
			ProductID:       it.ProductID.String(),
			ProductName:     it.ProductName,
			UnitPrice:       it.UnitPrice,
			Quantity:        it.Quantity,
			DiscountPercent: it.DiscountPercent,
			DiscountAmount:  it.DiscountAmount,
			LineAmount:      it.LineAmount,
			FinalAmount:     it.FinalAmount,
		}
	}
	return dto.ReceiptResponse{
		ID:            r.ID.String(),
		Number:        r.Number,
		ShiftID:       r.ShiftID.String(),
		Status:        r.Status,
		Version:       r.Version,
		Items:         items,
		Subtotal:      r.Subtotal,
		DiscountTotal: r.DiscountTotal,
		FinalAmount:   r.FinalAmount,
		CreatedAt:     r.CreatedAt.Format(time.RFC3339),
	}
}
