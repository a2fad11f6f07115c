package service

import (
	"context"
	"errors"
	"time"

	"shoptill/internal/apierror"
	"shoptill/internal/dto"
	"shoptill/internal/model"
	"shoptill/internal/repository"
	"shoptill/internal/worker"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type ShiftService interface {
	Open(ctx context.Context, sess Session, req dto.OpenShiftRequest) (*dto.ShiftResponse, error)
	Current(ctx context.Context, sess Session) (*dto.ShiftResponse, error)
	Close(ctx context.Context, sess Session, shiftID uuid.UUID, req dto.CloseShiftRequest) (*dto.ClosingReportResponse, error)
	Report(ctx context.Context, shiftID uuid.UUID) (*dto.ClosingReportResponse, error)
	History(ctx context.Context, registerID *uuid.UUID, page, limit int) (*dto.ShiftListResponse, error)
	// FindOpenForSession is called by the transaction services to resolve the
	// shift every receipt and return is booked against.
	FindOpenForSession(ctx context.Context, sess Session) (*model.CashShift, error)
}

type shiftService struct {
	repo         repository.ShiftRepository
	registerRepo repository.RegisterRepository
	closingRepo  repository.ClosingRepository
	dispatcher   *worker.Dispatcher
}

func NewShiftService(
	repo repository.ShiftRepository,
	registerRepo repository.RegisterRepository,
	closingRepo repository.ClosingRepository,
	dispatcher *worker.Dispatcher,
) ShiftService {
	return &shiftService{
		repo:         repo,
		registerRepo: registerRepo,
		closingRepo:  closingRepo,
		dispatcher:   dispatcher,
	}
}

// ── Open ──────────────────────────────────────────────────────────────────────

func (s *shiftService) Open(ctx context.Context, sess Session, req dto.OpenShiftRequest) (*dto.ShiftResponse, error) {
	if req.InitialAmount.IsNegative() {
		return nil, apierror.Validationf("initial amount cannot be negative")
	}

	reg, err := s.registerRepo.FindByID(ctx, sess.RegisterID)
	if err != nil {
		return nil, apierror.NotFoundf("register not found")
	}
	if !reg.Active {
		return nil, apierror.Conflictf("register %s is inactive", reg.Name)
	}

	// Guard: one OPEN shift per cashier, one per register. The partial unique
	// index backs this up against racing opens.
	if _, err := s.repo.FindOpenByCashier(ctx, sess.UserID); err == nil {
		return nil, apierror.Conflictf("cashier already has an open shift")
	}
	if _, err := s.repo.FindOpenByRegister(ctx, sess.RegisterID); err == nil {
		return nil, apierror.Conflictf("register already has an open shift")
	}

	shift := &model.CashShift{
		RegisterID:    sess.RegisterID,
		CashierID:     sess.UserID,
		Status:        model.ShiftStatusOpen,
		InitialAmount: req.InitialAmount,
		CurrentAmount: req.InitialAmount,
		OpenedAt:      time.Now(),
	}
	if err := s.repo.Create(ctx, shift); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apierror.Conflictf("register already has an open shift")
		}
		return nil, err
	}

	resp := shiftToResponse(shift)
	return &resp, nil
}

// ── Current ───────────────────────────────────────────────────────────────────

func (s *shiftService) Current(ctx context.Context, sess Session) (*dto.ShiftResponse, error) {
	shift, err := s.FindOpenForSession(ctx, sess)
	if err != nil {
		return nil, err
	}
	resp := shiftToResponse(shift)
	return &resp, nil
}

func (s *shiftService) FindOpenForSession(ctx context.Context, sess Session) (*model.CashShift, error) {
	shift, err := s.repo.FindOpenByCashier(ctx, sess.UserID)
	if err != nil {
		return nil, apierror.NotFoundf("no open shift for this cashier")
	}
	if shift.RegisterID != sess.RegisterID {
		return nil, apierror.Conflictf("open shift belongs to another register")
	}
	return shift, nil
}

// ── Close ─────────────────────────────────────────────────────────────────────
// Two-phase close: OPEN→CLOSING freezes the shift (every transaction commit
// asserts status OPEN, so nothing lands after the edge), the snapshot is built
// and persisted, then CLOSING→CLOSED finalizes. All inside one transaction.

func (s *shiftService) Close(ctx context.Context, sess Session, shiftID uuid.UUID, req dto.CloseShiftRequest) (*dto.ClosingReportResponse, error) {
	shift, err := s.repo.FindByID(ctx, shiftID)
	if err != nil {
		return nil, apierror.NotFoundf("shift not found")
	}
	if shift.CashierID != sess.UserID && sess.Role == "cashier" {
		return nil, apierror.Conflictf("shift belongs to another cashier")
	}
	if !shift.IsOpen() {
		return nil, apierror.Conflictf("shift is not open")
	}

	closedAt := time.Now()
	var closing *model.ShiftClosing

	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		rows, err := s.repo.TransitionStatusTx(tx, shift.ID, model.ShiftStatusOpen, model.ShiftStatusClosing)
		if err != nil {
			return err
		}
		if rows == 0 {
			return apierror.Conflictf("shift is not open")
		}

		// The row lock taken by the transition blocks in-flight settlements; any
		// transaction committed before it is visible here, anything after fails
		// its own OPEN guard. Re-read for the authoritative drawer total.
		fresh, err := s.repo.FindByID(ctx, shift.ID)
		if err != nil {
			return err
		}
		sums, err := s.repo.SumMovements(ctx, shift.ID)
		if err != nil {
			return err
		}
		methods, err := s.resolveMethods(ctx, shift.RegisterID, sums)
		if err != nil {
			return err
		}

		closing, err = buildClosing(fresh, methods, sums, req.Notes, closedAt)
		if err != nil {
			return err
		}
		if err := s.closingRepo.CreateTx(tx, closing); err != nil {
			return err
		}

		final := closing.FinalAmount
		fresh.FinalAmount = &final
		fresh.Notes = req.Notes
		fresh.ClosedAt = &closedAt
		rows, err = s.repo.FinalizeTx(tx, fresh)
		if err != nil {
			return err
		}
		if rows == 0 {
			return apierror.Conflictf("shift close was interrupted")
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	if s.dispatcher != nil {
		if err := s.dispatcher.EnqueueClosingReport(ctx, worker.ClosingReportJob{ClosingID: closing.ID.String()}); err != nil {
			// The snapshot is already durable; report delivery retries via the queue.
			log.Error().Err(err).Str("closing_id", closing.ID.String()).Msg("failed to enqueue closing report")
		}
	}

	resp := closingToReport(closing)
	return &resp, nil
}

func (s *shiftService) resolveMethods(ctx context.Context, registerID uuid.UUID, sums []repository.MethodMovementSum) (map[uuid.UUID]*model.PaymentMethod, error) {
	methods := map[uuid.UUID]*model.PaymentMethod{}
	listed, err := s.registerRepo.ListMethods(ctx, registerID)
	if err != nil {
		return nil, err
	}
	for i := range listed {
		methods[listed[i].ID] = &listed[i]
	}
	// A method deactivated mid-shift still owns its movements.
	for _, sum := range sums {
		if _, ok := methods[sum.PaymentMethodID]; ok {
			continue
		}
		m, err := s.registerRepo.FindMethodByID(ctx, sum.PaymentMethodID)
		if err != nil {
			return nil, err
		}
		methods[m.ID] = m
	}
	return methods, nil
}

// ── Report ────────────────────────────────────────────────────────────────────

func (s *shiftService) Report(ctx context.Context, shiftID uuid.UUID) (*dto.ClosingReportResponse, error) {
	closing, err := s.closingRepo.FindByShiftID(ctx, shiftID)
	if err != nil {
		return nil, apierror.NotFoundf("closing report not found")
	}
	resp := closingToReport(closing)
	return &resp, nil
}

// ── History ───────────────────────────────────────────────────────────────────

func (s *shiftService) History(ctx context.Context, registerID *uuid.UUID, page, limit int) (*dto.ShiftListResponse, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	shifts, total, err := s.repo.List(ctx, registerID, page, limit)
	if err != nil {
		return nil, err
	}
	resp := &dto.ShiftListResponse{
		Data:  make([]dto.ShiftResponse, len(shifts)),
		Total: total,
		Page:  page,
		Limit: limit,
	}
	for i := range shifts {
		resp.Data[i] = shiftToResponse(&shifts[i])
	}
	return resp, nil
}

// ── Mappers ───────────────────────────────────────────────────────────────────

func shiftToResponse(s *model.CashShift) dto.ShiftResponse {
	var closedAt *string
	if s.ClosedAt != nil {
		t := s.ClosedAt.Format(time.RFC3339)
		closedAt = &t
	}
	return dto.ShiftResponse{
		ID:            s.ID.String(),
		RegisterID:    s.RegisterID.String(),
		CashierID:     s.CashierID.String(),
		Status:        s.Status,
		InitialAmount: s.InitialAmount,
		CurrentAmount: s.CurrentAmount,
		FinalAmount:   s.FinalAmount,
		Notes:         s.Notes,
		OpenedAt:      s.OpenedAt.Format(time.RFC3339),
		ClosedAt:      closedAt,
	}
}

func closingToReport(c *model.ShiftClosing) dto.ClosingReportResponse {
	totals := make([]dto.MethodTotalResponse, len(c.MethodTotals))
	for i, mt := range c.MethodTotals {
		totals[i] = dto.MethodTotalResponse{
			PaymentMethodID: mt.PaymentMethodID.String(),
			MethodName:      mt.MethodName,
			MethodKind:      mt.MethodKind,
			Sales:           mt.Sales,
			Returns:         mt.Returns,
			Total:           mt.Total,
		}
	}
	return dto.ClosingReportResponse{
		ShiftID:       c.ShiftID.String(),
		RegisterID:    c.RegisterID.String(),
		CashierID:     c.CashierID.String(),
		OpenedAt:      c.OpenedAt.Format(time.RFC3339),
		ClosedAt:      c.ClosedAt.Format(time.RFC3339),
		InitialAmount: c.InitialAmount,
		FinalAmount:   c.FinalAmount,
		MethodTotals:  totals,
		TotalSales:    c.TotalSales,
		TotalReturns:  c.TotalReturns,
		TotalNet:      c.TotalNet,
		Notes:         c.Notes,
	}
}
