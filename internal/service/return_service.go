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

type ReturnService interface {
	// Create opens a PENDING return, either against an original paid receipt
	// (quantity-ceiling validated) or ad hoc without one.
	Create(ctx context.Context, sess Session, req dto.CreateReturnRequest) (*dto.ReturnResponse, error)
	// Settle refunds a pending return through a payment method. Atomic across
	// return status, method balance, drawer and ledger.
	Settle(ctx context.Context, sess Session, returnID uuid.UUID, req dto.SettleReturnRequest) (*dto.ReturnResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.ReturnResponse, error)
}

type returnService struct {
	repo         repository.ReturnRepository
	receiptRepo  repository.ReceiptRepository
	productRepo  repository.ProductRepository
	shiftRepo    repository.ShiftRepository
	registerRepo repository.RegisterRepository
	shifts       ShiftService
}

func NewReturnService(
	repo repository.ReturnRepository,
	receiptRepo repository.ReceiptRepository,
	productRepo repository.ProductRepository,
	shiftRepo repository.ShiftRepository,
	registerRepo repository.RegisterRepository,
	shifts ShiftService,
) ReturnService {
	return &returnService{
		repo:         repo,
		receiptRepo:  receiptRepo,
		productRepo:  productRepo,
		shiftRepo:    shiftRepo,
		registerRepo: registerRepo,
		shifts:       shifts,
	}
}

// ── Create ────────────────────────────────────────────────────────────────────

func (s *returnService) Create(ctx context.Context, sess Session, req dto.CreateReturnRequest) (*dto.ReturnResponse, error) {
	shift, err := s.shifts.FindOpenForSession(ctx, sess)
	if err != nil {
		return nil, err
	}

	var rt *model.ReturnTransaction
	if req.ReceiptNumber != nil {
		rt, err = s.buildLinkedReturn(ctx, *req.ReceiptNumber, req.Lines)
	} else {
		rt, err = s.buildAdHocReturn(ctx, req.Lines)
	}
	if err != nil {
		return nil, err
	}

	rt.ShiftID = shift.ID
	rt.Reason = req.Reason
	rt.Status = model.ReturnPending
	rt.CreatedAt = time.Now()

	if err := s.repo.Create(ctx, rt); err != nil {
		return nil, err
	}
	resp := returnToResponse(rt)
	return &resp, nil
}

// buildLinkedReturn validates each line against the original sale: the
// requested quantity plus everything already returned for that product must
// not exceed the quantity sold. Refunds carry the proportional share of the
// original line discount.
func (s *returnService) buildLinkedReturn(ctx context.Context, receiptNumber int, lines []dto.ReturnLineRequest) (*model.ReturnTransaction, error) {
	orig, err := s.receiptRepo.FindByNumber(ctx, receiptNumber)
	if err != nil {
		return nil, apierror.NotFoundf("original receipt %d not found", receiptNumber)
	}
	if orig.Status != model.ReceiptPaid {
		return nil, apierror.Conflictf("original receipt %d is not paid", receiptNumber)
	}

	returned, err := s.repo.SumReturnedByReceipt(ctx, orig.ID)
	if err != nil {
		return nil, err
	}

	rt := &model.ReturnTransaction{
		ID:                uuid.New(),
		OriginalReceiptID: &orig.ID,
		RefundAmount:      decimal.Zero,
	}
	requested := map[uuid.UUID]int{}
	for _, line := range lines {
		pid, err := uuid.Parse(line.ProductID)
		if err != nil {
			return nil, apierror.Validationf("product_id is not a valid uuid")
		}

		var origItem *model.ReceiptItem
		for i := range orig.Items {
			if orig.Items[i].ProductID == pid {
				origItem = &orig.Items[i]
				break
			}
		}
		if origItem == nil {
			return nil, apierror.Validationf("product %s is not on receipt %d", line.ProductID, receiptNumber)
		}

		requested[pid] += line.Quantity
		remaining := origItem.Quantity - returned[pid]
		if requested[pid] > remaining {
			return nil, apierror.Validationf(
				"return quantity %d exceeds remaining %d for %s",
				requested[pid], remaining, origItem.ProductName,
			)
		}

		// Refund the sold price net of the line discount, proportionally.
		refund := origItem.FinalAmount.
			Mul(decimal.NewFromInt(int64(line.Quantity))).
			Div(decimal.NewFromInt(int64(origItem.Quantity))).
			Round(2)

		rt.Lines = append(rt.Lines, model.ReturnLine{
			ID:           uuid.New(),
			ReturnID:     rt.ID,
			ProductID:    pid,
			ProductName:  origItem.ProductName,
			UnitPrice:    origItem.UnitPrice,
			Quantity:     line.Quantity,
			RefundAmount: refund,
		})
		rt.RefundAmount = rt.RefundAmount.Add(refund)
	}
	return rt, nil
}

// buildAdHocReturn accepts free-form lines priced by the operator; no original
// sale is consulted.
func (s *returnService) buildAdHocReturn(ctx context.Context, lines []dto.ReturnLineRequest) (*model.ReturnTransaction, error) {
	rt := &model.ReturnTransaction{
		ID:           uuid.New(),
		RefundAmount: decimal.Zero,
	}
	for _, line := range lines {
		pid, err := uuid.Parse(line.ProductID)
		if err != nil {
			return nil, apierror.Validationf("product_id is not a valid uuid")
		}
		if line.UnitPrice == nil {
			return nil, apierror.Validationf("unit_price is required for returns without a receipt")
		}
		if line.UnitPrice.IsNegative() {
			return nil, apierror.Validationf("unit_price cannot be negative")
		}
		product, err := s.productRepo.FindByID(ctx, pid)
		if err != nil {
			return nil, apierror.NotFoundf("product not found")
		}

		refund := line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))).Round(2)
		rt.Lines = append(rt.Lines, model.ReturnLine{
			ID:           uuid.New(),
			ReturnID:     rt.ID,
			ProductID:    pid,
			ProductName:  product.Name,
			UnitPrice:    *line.UnitPrice,
			Quantity:     line.Quantity,
			RefundAmount: refund,
		})
		rt.RefundAmount = rt.RefundAmount.Add(refund)
	}
	return rt, nil
}

// ── Settle ────────────────────────────────────────────────────────────────────

func (s *returnService) Settle(ctx context.Context, sess Session, returnID uuid.UUID, req dto.SettleReturnRequest) (*dto.ReturnResponse, error) {
	if existing, err := s.repo.FindByIdempotencyKey(ctx, req.IdempotencyKey); err == nil {
		if existing.ID != returnID {
			return nil, apierror.Conflictf("idempotency key already used by another return")
		}
		resp := returnToResponse(existing)
		return &resp, nil
	}

	rt, err := s.repo.FindByID(ctx, returnID)
	if err != nil {
		return nil, apierror.NotFoundf("return not found")
	}
	if rt.Status != model.ReturnPending {
		return nil, apierror.Conflictf("return is already settled")
	}

	shift, err := s.shiftRepo.FindByID(ctx, rt.ShiftID)
	if err != nil {
		return nil, apierror.NotFoundf("shift not found")
	}
	if !shift.IsOpen() {
		return nil, apierror.Conflictf("shift is not open")
	}

	amount := req.Amount
	if !amount.IsPositive() {
		return nil, apierror.Validationf("settlement amount must be positive")
	}
	if amount.GreaterThan(rt.RefundAmount) {
		return nil, apierror.Validationf("settlement amount %s exceeds refund amount %s", amount, rt.RefundAmount)
	}

	mid, err := uuid.Parse(req.PaymentMethodID)
	if err != nil {
		return nil, apierror.Validationf("payment_method_id is not a valid uuid")
	}
	method, err := s.registerRepo.FindMethodByID(ctx, mid)
	if err != nil {
		return nil, apierror.NotFoundf("payment method not found")
	}
	if !method.AvailableOn(shift.RegisterID) {
		return nil, apierror.MethodUnavailablef("payment method %s is not available on this register", method.Name)
	}
	if amount.GreaterThan(method.CurrentBalance) {
		return nil, apierror.InsufficientFundsf(
			"method %s balance %s cannot cover refund of %s",
			method.Name, method.CurrentBalance, amount,
		)
	}

	now := time.Now()
	key := req.IdempotencyKey
	rt.PaymentMethodID = &mid
	rt.SettledAmount = &amount
	rt.IdempotencyKey = &key
	rt.SettledAt = &now

	cashDelta := decimal.Zero
	if method.IsCash() {
		cashDelta = amount.Neg()
	}

	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		rows, err := s.repo.MarkSettledTx(tx, rt)
		if err != nil {
			return err
		}
		if rows == 0 {
			return apierror.Conflictf("return is already settled")
		}
		rows, err = s.registerRepo.AddMethodBalanceTx(tx, method.ID, amount.Neg())
		if err != nil {
			return err
		}
		if rows == 0 {
			// The balance guard lost a race with another settlement.
			return apierror.InsufficientFundsf("method %s balance cannot cover refund of %s", method.Name, amount)
		}
		rows, err = s.shiftRepo.AddCashTx(tx, shift.ID, cashDelta)
		if err != nil {
			return err
		}
		if rows == 0 {
			return apierror.Conflictf("shift is not open")
		}
		return s.shiftRepo.CreateMovementTx(tx, &model.ShiftMovement{
			ShiftID:         shift.ID,
			Kind:            model.MovementReturn,
			PaymentMethodID: method.ID,
			Amount:          amount,
			ReturnID:        &rt.ID,
		})
	})
	if txErr != nil {
		return nil, txErr
	}

	rt.Status = model.ReturnSettled
	resp := returnToResponse(rt)
	return &resp, nil
}

// ── Get ───────────────────────────────────────────────────────────────────────

func (s *returnService) Get(ctx context.Context, id uuid.UUID) (*dto.ReturnResponse, error) {
	rt, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apierror.NotFoundf("return not found")
	}
	resp := returnToResponse(rt)
	return &resp, nil
}

func returnToResponse(rt *model.ReturnTransaction) dto.ReturnResponse {
	lines := make([]dto.ReturnLineResponse, len(rt.Lines))
	for i, l := range rt.Lines {
		lines[i] = dto.ReturnLineResponse{
			ProductID:    l.ProductID.String(),
			ProductName:  l.ProductName,
			UnitPrice:    l.UnitPrice,
			Quantity:     l.Quantity,
			RefundAmount: l.RefundAmount,
		}
	}
	var origID *string
	if rt.OriginalReceiptID != nil {
		v := rt.OriginalReceiptID.String()
		origID = &v
	}
	var methodID *string
	if rt.PaymentMethodID != nil {
		v := rt.PaymentMethodID.String()
		methodID = &v
	}
	return dto.ReturnResponse{
		ID:                rt.ID.String(),
		ShiftID:           rt.ShiftID.String(),
		OriginalReceiptID: origID,
		Status:            rt.Status,
		Lines:             lines,
		Reason:            rt.Reason,
		RefundAmount:      rt.RefundAmount,
		PaymentMethodID:   methodID,
		SettledAmount:     rt.SettledAmount,
		CreatedAt:         rt.CreatedAt.Format(time.RFC3339),
	}
}
