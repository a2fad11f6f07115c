package service

import (
	"sort"
	"time"

	"shoptill/internal/apierror"
	"shoptill/internal/model"
	"shoptill/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// buildClosing aggregates a shift's movement ledger into the immutable closing
// snapshot. Pure function of its inputs; the caller persists the result inside
// the closing transaction.
//
// Per method: total = sales − returns. The cash total must reconcile with the
// drawer: Σ cash totals = finalAmount − initialAmount. A mismatch means the
// ledger and the drawer counter diverged, which the write path makes
// impossible, so it is reported as an internal error rather than mapped to a
// client status.
func buildClosing(
	shift *model.CashShift,
	methods map[uuid.UUID]*model.PaymentMethod,
	sums []repository.MethodMovementSum,
	notes *string,
	closedAt time.Time,
) (*model.ShiftClosing, error) {
	type acc struct {
		sales   decimal.Decimal
		returns decimal.Decimal
	}
	byMethod := map[uuid.UUID]*acc{}
	for _, sum := range sums {
		a, ok := byMethod[sum.PaymentMethodID]
		if !ok {
			a = &acc{sales: decimal.Zero, returns: decimal.Zero}
			byMethod[sum.PaymentMethodID] = a
		}
		switch sum.Kind {
		case model.MovementSale:
			a.sales = a.sales.Add(sum.Total)
		case model.MovementReturn:
			a.returns = a.returns.Add(sum.Total)
		}
	}

	finalAmount := shift.CurrentAmount
	closing := &model.ShiftClosing{
		ShiftID:       shift.ID,
		RegisterID:    shift.RegisterID,
		CashierID:     shift.CashierID,
		OpenedAt:      shift.OpenedAt,
		ClosedAt:      closedAt,
		InitialAmount: shift.InitialAmount,
		FinalAmount:   finalAmount,
		TotalSales:    decimal.Zero,
		TotalReturns:  decimal.Zero,
		Notes:         notes,
	}

	cashDelta := decimal.Zero
	for methodID, a := range byMethod {
		m, ok := methods[methodID]
		if !ok {
			return nil, apierror.NotFoundf("payment method %s not found while closing", methodID)
		}
		total := a.sales.Sub(a.returns)
		closing.MethodTotals = append(closing.MethodTotals, model.ShiftClosingMethodTotal{
			PaymentMethodID: methodID,
			MethodName:      m.Name,
			MethodKind:      m.Kind,
			Sales:           a.sales,
			Returns:         a.returns,
			Total:           total,
		})
		closing.TotalSales = closing.TotalSales.Add(a.sales)
		closing.TotalReturns = closing.TotalReturns.Add(a.returns)
		if m.IsCash() {
			cashDelta = cashDelta.Add(total)
		}
	}
	closing.TotalNet = closing.TotalSales.Sub(closing.TotalReturns)

	sort.Slice(closing.MethodTotals, func(i, j int) bool {
		return closing.MethodTotals[i].MethodName < closing.MethodTotals[j].MethodName
	})

	if !cashDelta.Equal(finalAmount.Sub(shift.InitialAmount)) {
		return nil, &apierror.Error{
			Kind:   apierror.KindInternal,
			Detail: "cash ledger does not reconcile with drawer totals",
		}
	}

	return closing, nil
}
