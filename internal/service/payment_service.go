package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"shoptill/internal/apierror"
	"shoptill/internal/dto"
	"shoptill/internal/model"
	"shoptill/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type PaymentService interface {
	// Pay settles a draft receipt. The whole settlement — receipt PAID, drawer
	// total, method balance, ledger movement — commits atomically or not at all.
	Pay(ctx context.Context, sess Session, receiptID uuid.UUID, req dto.PayReceiptRequest) (*dto.PaymentResponse, error)
}

type paymentService struct {
	receiptRepo  repository.ReceiptRepository
	shiftRepo    repository.ShiftRepository
	registerRepo repository.RegisterRepository
}

func NewPaymentService(
	receiptRepo repository.ReceiptRepository,
	shiftRepo repository.ShiftRepository,
	registerRepo repository.RegisterRepository,
) PaymentService {
	return &paymentService{
		receiptRepo:  receiptRepo,
		shiftRepo:    shiftRepo,
		registerRepo: registerRepo,
	}
}

// ── Pay ───────────────────────────────────────────────────────────────────────
//  1. Deduplicate on the idempotency key: a retried attempt returns the
//     already-committed settlement instead of paying twice.
//  2. Pre-flight outside the transaction: status, items, version, shift,
//     method availability, tender arithmetic.
//  3. One transaction: mark PAID (guarded on status and version), bump the
//     drawer, bump the method balance, append the SALE movement.

func (s *paymentService) Pay(ctx context.Context, sess Session, receiptID uuid.UUID, req dto.PayReceiptRequest) (*dto.PaymentResponse, error) {
	if existing, err := s.receiptRepo.FindByIdempotencyKey(ctx, req.IdempotencyKey); err == nil {
		if existing.ID != receiptID {
			return nil, apierror.Conflictf("idempotency key already used by receipt %d", existing.Number)
		}
		return paymentToResponse(existing), nil
	}

	receipt, err := s.receiptRepo.FindByID(ctx, receiptID)
	if err != nil {
		return nil, apierror.NotFoundf("receipt not found")
	}
	if receipt.Status != model.ReceiptDraft {
		return nil, apierror.Conflictf("receipt is not payable in status %s", receipt.Status)
	}
	if len(receipt.Items) == 0 {
		return nil, apierror.Validationf("receipt has no items")
	}
	if req.ReceiptVersion != receipt.Version {
		return nil, apierror.ConcurrentModificationf("receipt changed since it was read")
	}

	shift, err := s.shiftRepo.FindByID(ctx, receipt.ShiftID)
	if err != nil {
		return nil, apierror.NotFoundf("shift not found")
	}
	if !shift.IsOpen() {
		return nil, apierror.Conflictf("shift is not open")
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

	final := receipt.FinalAmount
	var change decimal.Decimal
	if method.IsCash() {
		if req.TenderedAmount.LessThan(final) {
			return nil, apierror.InsufficientFundsf("tendered amount %s is below total %s", req.TenderedAmount, final)
		}
		change = req.TenderedAmount.Sub(final)
	} else {
		// Non-cash methods are exact-tender, change is never produced.
		if !req.TenderedAmount.Equal(final) {
			return nil, apierror.Validationf("method %s requires exact tender of %s", method.Name, final)
		}
		change = decimal.Zero
	}

	now := time.Now()
	key := req.IdempotencyKey
	tendered := req.TenderedAmount
	receipt.PaymentMethodID = &mid
	receipt.TenderedAmount = &tendered
	receipt.ChangeAmount = &change
	receipt.IdempotencyKey = &key
	receipt.PaidAt = &now

	cashDelta := decimal.Zero
	if method.IsCash() {
		cashDelta = final
	}

	txErr := runTx(ctx, s.receiptRepo.DB(), func(tx *gorm.DB) error {
		rows, err := s.receiptRepo.MarkPaidTx(tx, receipt, req.ReceiptVersion)
		if err != nil {
			return err
		}
		if rows == 0 {
			return apierror.ConcurrentModificationf("receipt changed during payment")
		}
		rows, err = s.shiftRepo.AddCashTx(tx, shift.ID, cashDelta)
		if err != nil {
			return err
		}
		if rows == 0 {
			return apierror.Conflictf("shift is not open")
		}
		rows, err = s.registerRepo.AddMethodBalanceTx(tx, method.ID, final)
		if err != nil {
			return err
		}
		if rows == 0 {
			return fmt.Errorf("payment method %s balance update failed", method.ID)
		}
		return s.shiftRepo.CreateMovementTx(tx, &model.ShiftMovement{
			ShiftID:         shift.ID,
			Kind:            model.MovementSale,
			PaymentMethodID: method.ID,
			Amount:          final,
			ReceiptID:       &receipt.ID,
		})
	})
	if txErr != nil {
		if errors.Is(txErr, gorm.ErrDuplicatedKey) {
			return nil, apierror.Conflictf("duplicate payment attempt")
		}
		return nil, txErr
	}

	receipt.Status = model.ReceiptPaid
	return paymentToResponse(receipt), nil
}

func paymentToResponse(r *model.Receipt) *dto.PaymentResponse {
	resp := &dto.PaymentResponse{Receipt: receiptToResponse(r)}
	if r.TenderedAmount != nil {
		resp.TenderedAmount = *r.TenderedAmount
	}
	if r.ChangeAmount != nil {
		resp.ChangeAmount = *r.ChangeAmount
	}
	return resp
}
