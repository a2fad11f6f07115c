package service_test

import (
	"context"
	"testing"

	"shoptill/internal/apierror"
	"shoptill/internal/dto"
	"shoptill/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPay_CashWithChange(t *testing.T) {
	f := newFixture(t)
	beans := f.seedProduct("Coffee beans 1kg", "1000")
	filters := f.seedProduct("Paper filters", "180")
	opened := f.openShift("1000")

	f.addItem(beans.ID, 1)
	draft := f.addItem(filters.ID, 1)
	require.True(t, draft.FinalAmount.Equal(dec("1180")))

	resp, err := f.payments.Pay(context.Background(), f.sess, uuid.MustParse(draft.ID), dto.PayReceiptRequest{
		PaymentMethodID: f.cash.ID.String(),
		TenderedAmount:  dec("1200"),
		IdempotencyKey:  "pay-cash-change",
		ReceiptVersion:  draft.Version,
	})
	require.NoError(t, err)

	assert.Equal(t, model.ReceiptPaid, resp.Receipt.Status)
	assert.True(t, resp.TenderedAmount.Equal(dec("1200")))
	assert.True(t, resp.ChangeAmount.Equal(dec("20")))

	// Drawer moves by the receipt total, not the tendered amount.
	shift := f.shiftRepo.shifts[uuid.MustParse(opened.ID)]
	assert.True(t, shift.CurrentAmount.Equal(dec("2180")))
	assert.True(t, f.cash.CurrentBalance.Equal(dec("1180")))

	require.Len(t, f.shiftRepo.movements, 1)
	mv := f.shiftRepo.movements[0]
	assert.Equal(t, model.MovementSale, mv.Kind)
	assert.Equal(t, f.cash.ID, mv.PaymentMethodID)
	assert.True(t, mv.Amount.Equal(dec("1180")))
	require.NotNil(t, mv.ReceiptID)
	assert.Equal(t, draft.ID, mv.ReceiptID.String())
}

func TestPay_CashInsufficientTender(t *testing.T) {
	f := newFixture(t)
	beans := f.seedProduct("Coffee beans 1kg", "1000")
	f.openShift("500")
	draft := f.addItem(beans.ID, 1)

	_, err := f.payments.Pay(context.Background(), f.sess, uuid.MustParse(draft.ID), dto.PayReceiptRequest{
		PaymentMethodID: f.cash.ID.String(),
		TenderedAmount:  dec("900"),
		IdempotencyKey:  "pay-short-tender",
		ReceiptVersion:  draft.Version,
	})
	require.Error(t, err)
	assert.Equal(t, apierror.KindInsufficientFunds, apierror.KindOf(err))

	// Nothing committed.
	got, _ := f.receipts.Get(context.Background(), uuid.MustParse(draft.ID))
	assert.Equal(t, model.ReceiptDraft, got.Status)
	assert.Empty(t, f.shiftRepo.movements)
}

func TestPay_NonCashExactTender(t *testing.T) {
	f := newFixture(t)
	beans := f.seedProduct("Coffee beans 1kg", "1000")
	opened := f.openShift("500")
	draft := f.addItem(beans.ID, 1)

	// Over-tender on card is rejected outright.
	_, err := f.payments.Pay(context.Background(), f.sess, uuid.MustParse(draft.ID), dto.PayReceiptRequest{
		PaymentMethodID: f.card.ID.String(),
		TenderedAmount:  dec("1100"),
		IdempotencyKey:  "pay-card-over",
		ReceiptVersion:  draft.Version,
	})
	require.Error(t, err)
	assert.Equal(t, apierror.KindValidation, apierror.KindOf(err))

	resp, err := f.payments.Pay(context.Background(), f.sess, uuid.MustParse(draft.ID), dto.PayReceiptRequest{
		PaymentMethodID: f.card.ID.String(),
		TenderedAmount:  dec("1000"),
		IdempotencyKey:  "pay-card-exact",
		ReceiptVersion:  draft.Version,
	})
	require.NoError(t, err)
	assert.True(t, resp.ChangeAmount.IsZero())

	// Card settlement never touches the drawer.
	shift := f.shiftRepo.shifts[uuid.MustParse(opened.ID)]
	assert.True(t, shift.CurrentAmount.Equal(dec("500")))
	assert.True(t, f.card.CurrentBalance.Equal(dec("1500")))
}

func TestPay_EmptyReceiptRejected(t *testing.T) {
	f := newFixture(t)
	beans := f.seedProduct("Coffee beans 1kg", "1000")
	f.openShift("500")
	draft := f.addItem(beans.ID, 1)

	rid := uuid.MustParse(draft.ID)
	iid := uuid.MustParse(draft.Items[0].ID)
	emptied, err := f.receipts.RemoveItem(context.Background(), f.sess, rid, iid)
	require.NoError(t, err)

	_, err = f.payments.Pay(context.Background(), f.sess, rid, dto.PayReceiptRequest{
		PaymentMethodID: f.cash.ID.String(),
		TenderedAmount:  dec("0"),
		IdempotencyKey:  "pay-empty",
		ReceiptVersion:  emptied.Version,
	})
	require.Error(t, err)
	assert.Equal(t, apierror.KindValidation, apierror.KindOf(err))
}

func TestPay_StaleVersionRejected(t *testing.T) {
	f := newFixture(t)
	beans := f.seedProduct("Coffee beans 1kg", "1000")
	f.openShift("500")
	draft := f.addItem(beans.ID, 1)

	_, err := f.payments.Pay(context.Background(), f.sess, uuid.MustParse(draft.ID), dto.PayReceiptRequest{
		PaymentMethodID: f.cash.ID.String(),
		TenderedAmount:  dec("1000"),
		IdempotencyKey:  "pay-stale-version",
		ReceiptVersion:  draft.Version - 1,
	})
	require.Error(t, err)
	assert.Equal(t, apierror.KindConcurrentModification, apierror.KindOf(err))
}

func TestPay_IdempotentRetry(t *testing.T) {
	f := newFixture(t)
	beans := f.seedProduct("Coffee beans 1kg", "1000")
	opened := f.openShift("500")
	draft := f.addItem(beans.ID, 1)

	req := dto.PayReceiptRequest{
		PaymentMethodID: f.cash.ID.String(),
		TenderedAmount:  dec("1000"),
		IdempotencyKey:  "pay-retried-once",
		ReceiptVersion:  draft.Version,
	}
	first, err := f.payments.Pay(context.Background(), f.sess, uuid.MustParse(draft.ID), req)
	require.NoError(t, err)

	second, err := f.payments.Pay(context.Background(), f.sess, uuid.MustParse(draft.ID), req)
	require.NoError(t, err)

	assert.Equal(t, first.Receipt.ID, second.Receipt.ID)
	assert.True(t, second.TenderedAmount.Equal(dec("1000")))

	// Exactly one settlement: one movement, one drawer bump.
	assert.Len(t, f.shiftRepo.movements, 1)
	shift := f.shiftRepo.shifts[uuid.MustParse(opened.ID)]
	assert.True(t, shift.CurrentAmount.Equal(dec("1500")))
	assert.True(t, f.cash.CurrentBalance.Equal(dec("1000")))
}

func TestPay_IdempotencyKeyBoundToReceipt(t *testing.T) {
	f := newFixture(t)
	beans := f.seedProduct("Coffee beans 1kg", "1000")
	f.openShift("500")
	first := f.addItem(beans.ID, 1)
	f.payCash(first.ID, first.Version, "1000", "pay-key-reuse")

	second := f.addItem(beans.ID, 1)
	_, err := f.payments.Pay(context.Background(), f.sess, uuid.MustParse(second.ID), dto.PayReceiptRequest{
		PaymentMethodID: f.cash.ID.String(),
		TenderedAmount:  dec("1000"),
		IdempotencyKey:  "pay-key-reuse",
		ReceiptVersion:  second.Version,
	})
	require.Error(t, err)
	assert.Equal(t, apierror.KindConflict, apierror.KindOf(err))
}

func TestPay_NonDraftReceipt(t *testing.T) {
	f := newFixture(t)
	beans := f.seedProduct("Coffee beans 1kg", "1000")
	f.openShift("500")
	draft := f.addItem(beans.ID, 1)
	f.payCash(draft.ID, draft.Version, "1000", "pay-first")

	_, err := f.payments.Pay(context.Background(), f.sess, uuid.MustParse(draft.ID), dto.PayReceiptRequest{
		PaymentMethodID: f.cash.ID.String(),
		TenderedAmount:  dec("1000"),
		IdempotencyKey:  "pay-second",
		ReceiptVersion:  draft.Version,
	})
	require.Error(t, err)
	assert.Equal(t, apierror.KindConflict, apierror.KindOf(err))
}

func TestPay_MethodNotAvailableOnRegister(t *testing.T) {
	f := newFixture(t)
	beans := f.seedProduct("Coffee beans 1kg", "1000")
	f.openShift("500")
	draft := f.addItem(beans.ID, 1)

	otherRegister := uuid.New()
	foreign := &model.PaymentMethod{
		ID: uuid.New(), Name: "Till 2 wallet", Kind: model.MethodKindQR,
		RegisterID: &otherRegister, Shared: false, Active: true,
	}
	f.registerRepo.methods[foreign.ID] = foreign

	_, err := f.payments.Pay(context.Background(), f.sess, uuid.MustParse(draft.ID), dto.PayReceiptRequest{
		PaymentMethodID: foreign.ID.String(),
		TenderedAmount:  dec("1000"),
		IdempotencyKey:  "pay-foreign-method",
		ReceiptVersion:  draft.Version,
	})
	require.Error(t, err)
	assert.Equal(t, apierror.KindMethodUnavailable, apierror.KindOf(err))
}

func TestPay_ClosedShiftRejected(t *testing.T) {
	f := newFixture(t)
	beans := f.seedProduct("Coffee beans 1kg", "1000")
	opened := f.openShift("500")
	draft := f.addItem(beans.ID, 1)

	// Closing does not wait for drafts; the draft simply becomes unpayable.
	_, err := f.shifts.Close(context.Background(), f.sess, uuid.MustParse(opened.ID), dto.CloseShiftRequest{})
	require.NoError(t, err)

	_, err = f.payments.Pay(context.Background(), f.sess, uuid.MustParse(draft.ID), dto.PayReceiptRequest{
		PaymentMethodID: f.cash.ID.String(),
		TenderedAmount:  dec("1000"),
		IdempotencyKey:  "pay-after-close",
		ReceiptVersion:  draft.Version,
	})
	require.Error(t, err)
	assert.Equal(t, apierror.KindConflict, apierror.KindOf(err))
}
