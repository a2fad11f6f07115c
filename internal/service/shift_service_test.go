package service_test

import (
	"context"
	"testing"

	"shoptill/internal/apierror"
	"shoptill/internal/dto"
	"shoptill/internal/model"
	"shoptill/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenShift(t *testing.T) {
	f := newFixture(t)

	resp := f.openShift("1000")

	assert.Equal(t, model.ShiftStatusOpen, resp.Status)
	assert.True(t, resp.InitialAmount.Equal(dec("1000")))
	assert.True(t, resp.CurrentAmount.Equal(dec("1000")))
	assert.Equal(t, f.register.ID.String(), resp.RegisterID)
	assert.Nil(t, resp.ClosedAt)
}

func TestOpenShift_NegativeInitialAmount(t *testing.T) {
	f := newFixture(t)

	_, err := f.shifts.Open(context.Background(), f.sess, dto.OpenShiftRequest{InitialAmount: dec("-50")})

	require.Error(t, err)
	assert.Equal(t, apierror.KindValidation, apierror.KindOf(err))
}

func TestOpenShift_CashierAlreadyHasOpenShift(t *testing.T) {
	f := newFixture(t)
	f.openShift("100")

	_, err := f.shifts.Open(context.Background(), f.sess, dto.OpenShiftRequest{InitialAmount: dec("200")})

	require.Error(t, err)
	assert.Equal(t, apierror.KindConflict, apierror.KindOf(err))
}

func TestOpenShift_RegisterAlreadyHasOpenShift(t *testing.T) {
	f := newFixture(t)
	f.openShift("100")

	other := f.sess
	other.UserID = uuid.New()
	other.Username = "cashier2"
	_, err := f.shifts.Open(context.Background(), other, dto.OpenShiftRequest{InitialAmount: dec("0")})

	require.Error(t, err)
	assert.Equal(t, apierror.KindConflict, apierror.KindOf(err))
}

func TestOpenShift_InactiveRegister(t *testing.T) {
	f := newFixture(t)
	f.register.Active = false

	_, err := f.shifts.Open(context.Background(), f.sess, dto.OpenShiftRequest{InitialAmount: dec("0")})

	require.Error(t, err)
	assert.Equal(t, apierror.KindConflict, apierror.KindOf(err))
}

func TestCurrentShift(t *testing.T) {
	f := newFixture(t)

	_, err := f.shifts.Current(context.Background(), f.sess)
	assert.Equal(t, apierror.KindNotFound, apierror.KindOf(err))

	opened := f.openShift("300")
	resp, err := f.shifts.Current(context.Background(), f.sess)
	require.NoError(t, err)
	assert.Equal(t, opened.ID, resp.ID)
}

func TestCloseShift_EmptyShift(t *testing.T) {
	f := newFixture(t)
	opened := f.openShift("500")
	shiftID := uuid.MustParse(opened.ID)

	report, err := f.shifts.Close(context.Background(), f.sess, shiftID, dto.CloseShiftRequest{})
	require.NoError(t, err)

	assert.True(t, report.InitialAmount.Equal(dec("500")))
	assert.True(t, report.FinalAmount.Equal(dec("500")))
	assert.True(t, report.TotalNet.IsZero())
	assert.Empty(t, report.MethodTotals)

	stored := f.shiftRepo.shifts[shiftID]
	assert.Equal(t, model.ShiftStatusClosed, stored.Status)
	require.NotNil(t, stored.FinalAmount)
	assert.True(t, stored.FinalAmount.Equal(dec("500")))
	assert.NotNil(t, stored.ClosedAt)
}

func TestCloseShift_CashSalesReconcile(t *testing.T) {
	f := newFixture(t)
	coffee := f.seedProduct("Coffee beans 1kg", "1000")
	filters := f.seedProduct("Paper filters", "180")
	opened := f.openShift("1000")

	f.addItem(coffee.ID, 1)
	receipt := f.addItem(filters.ID, 1)
	f.payCash(receipt.ID, receipt.Version, "1200", "pay-reconcile-1")

	report, err := f.shifts.Close(context.Background(), f.sess, uuid.MustParse(opened.ID), dto.CloseShiftRequest{})
	require.NoError(t, err)

	assert.True(t, report.FinalAmount.Equal(dec("2180")))
	assert.True(t, report.TotalSales.Equal(dec("1180")))
	assert.True(t, report.TotalReturns.IsZero())
	assert.True(t, report.TotalNet.Equal(dec("1180")))

	require.Len(t, report.MethodTotals, 1)
	mt := report.MethodTotals[0]
	assert.Equal(t, f.cash.ID.String(), mt.PaymentMethodID)
	assert.Equal(t, model.MethodKindCash, mt.MethodKind)
	assert.True(t, mt.Sales.Equal(dec("1180")))
	assert.True(t, mt.Total.Equal(dec("1180")))
}

func TestCloseShift_LedgerDrawerMismatch(t *testing.T) {
	f := newFixture(t)
	opened := f.openShift("1000")
	shiftID := uuid.MustParse(opened.ID)

	// A cash movement with no matching drawer change cannot be produced by the
	// write path; closing must refuse to snapshot it.
	f.shiftRepo.movements = append(f.shiftRepo.movements, model.ShiftMovement{
		ID:              uuid.New(),
		ShiftID:         shiftID,
		Kind:            model.MovementSale,
		PaymentMethodID: f.cash.ID,
		Amount:          dec("100"),
	})

	_, err := f.shifts.Close(context.Background(), f.sess, shiftID, dto.CloseShiftRequest{})
	require.Error(t, err)
	assert.Equal(t, apierror.KindInternal, apierror.KindOf(err))
}

func TestCloseShift_AlreadyClosed(t *testing.T) {
	f := newFixture(t)
	opened := f.openShift("100")
	shiftID := uuid.MustParse(opened.ID)

	_, err := f.shifts.Close(context.Background(), f.sess, shiftID, dto.CloseShiftRequest{})
	require.NoError(t, err)

	_, err = f.shifts.Close(context.Background(), f.sess, shiftID, dto.CloseShiftRequest{})
	require.Error(t, err)
	assert.Equal(t, apierror.KindConflict, apierror.KindOf(err))
}

func TestCloseShift_OtherCashierRejected(t *testing.T) {
	f := newFixture(t)
	opened := f.openShift("100")

	other := service.Session{UserID: uuid.New(), Username: "cashier2", Role: "cashier", RegisterID: f.register.ID}
	_, err := f.shifts.Close(context.Background(), other, uuid.MustParse(opened.ID), dto.CloseShiftRequest{})

	require.Error(t, err)
	assert.Equal(t, apierror.KindConflict, apierror.KindOf(err))
}

func TestCloseShift_SupervisorMayCloseForeignShift(t *testing.T) {
	f := newFixture(t)
	opened := f.openShift("100")

	supervisor := service.Session{UserID: uuid.New(), Username: "boss", Role: "supervisor", RegisterID: f.register.ID}
	report, err := f.shifts.Close(context.Background(), supervisor, uuid.MustParse(opened.ID), dto.CloseShiftRequest{})

	require.NoError(t, err)
	assert.Equal(t, f.sess.UserID.String(), report.CashierID)
}

func TestShiftReport(t *testing.T) {
	f := newFixture(t)
	opened := f.openShift("250")
	shiftID := uuid.MustParse(opened.ID)

	_, err := f.shifts.Report(context.Background(), shiftID)
	assert.Equal(t, apierror.KindNotFound, apierror.KindOf(err))

	notes := "drawer counted twice"
	_, err = f.shifts.Close(context.Background(), f.sess, shiftID, dto.CloseShiftRequest{Notes: &notes})
	require.NoError(t, err)

	report, err := f.shifts.Report(context.Background(), shiftID)
	require.NoError(t, err)
	assert.Equal(t, shiftID.String(), report.ShiftID)
	require.NotNil(t, report.Notes)
	assert.Equal(t, notes, *report.Notes)
}

func TestShiftHistory_Paging(t *testing.T) {
	f := newFixture(t)
	opened := f.openShift("100")
	_, err := f.shifts.Close(context.Background(), f.sess, uuid.MustParse(opened.ID), dto.CloseShiftRequest{})
	require.NoError(t, err)
	f.openShift("200")

	resp, err := f.shifts.History(context.Background(), nil, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), resp.Total)
	assert.Len(t, resp.Data, 1)

	// Out-of-range values fall back to defaults.
	resp, err = f.shifts.History(context.Background(), nil, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Page)
	assert.Equal(t, 20, resp.Limit)
	assert.Len(t, resp.Data, 2)
}
