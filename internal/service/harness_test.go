package service_test

import (
	"context"
	"testing"
	"time"

	"shoptill/internal/dto"
	"shoptill/internal/model"
	"shoptill/internal/repository"
	"shoptill/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// ── In-memory ShiftRepository ────────────────────────────────────────────────

type stubShiftRepo struct {
	shifts    map[uuid.UUID]*model.CashShift
	movements []model.ShiftMovement
}

func newStubShiftRepo() *stubShiftRepo {
	return &stubShiftRepo{shifts: make(map[uuid.UUID]*model.CashShift)}
}

func (r *stubShiftRepo) Create(_ context.Context, s *model.CashShift) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	r.shifts[s.ID] = s
	return nil
}

func (r *stubShiftRepo) FindByID(_ context.Context, id uuid.UUID) (*model.CashShift, error) {
	s, ok := r.shifts[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return s, nil
}

func (r *stubShiftRepo) FindOpenByCashier(_ context.Context, cashierID uuid.UUID) (*model.CashShift, error) {
	for _, s := range r.shifts {
		if s.CashierID == cashierID && s.Status == model.ShiftStatusOpen {
			return s, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubShiftRepo) FindOpenByRegister(_ context.Context, registerID uuid.UUID) (*model.CashShift, error) {
	for _, s := range r.shifts {
		if s.RegisterID == registerID && s.Status == model.ShiftStatusOpen {
			return s, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubShiftRepo) List(_ context.Context, registerID *uuid.UUID, page, limit int) ([]model.CashShift, int64, error) {
	var all []model.CashShift
	for _, s := range r.shifts {
		if registerID != nil && s.RegisterID != *registerID {
			continue
		}
		all = append(all, *s)
	}
	total := int64(len(all))
	start := (page - 1) * limit
	if start >= len(all) {
		return nil, total, nil
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

func (r *stubShiftRepo) TransitionStatusTx(_ *gorm.DB, id uuid.UUID, from, to string) (int64, error) {
	s, ok := r.shifts[id]
	if !ok || s.Status != from {
		return 0, nil
	}
	s.Status = to
	return 1, nil
}

func (r *stubShiftRepo) AddCashTx(_ *gorm.DB, id uuid.UUID, delta decimal.Decimal) (int64, error) {
	s, ok := r.shifts[id]
	if !ok || s.Status != model.ShiftStatusOpen {
		return 0, nil
	}
	s.CurrentAmount = s.CurrentAmount.Add(delta)
	return 1, nil
}

func (r *stubShiftRepo) FinalizeTx(_ *gorm.DB, s *model.CashShift) (int64, error) {
	stored, ok := r.shifts[s.ID]
	if !ok || stored.Status != model.ShiftStatusClosing {
		return 0, nil
	}
	stored.Status = model.ShiftStatusClosed
	stored.FinalAmount = s.FinalAmount
	stored.Notes = s.Notes
	stored.ClosedAt = s.ClosedAt
	return 1, nil
}

func (r *stubShiftRepo) CreateMovementTx(_ *gorm.DB, m *model.ShiftMovement) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	m.CreatedAt = time.Now()
	r.movements = append(r.movements, *m)
	return nil
}

func (r *stubShiftRepo) SumMovements(_ context.Context, shiftID uuid.UUID) ([]repository.MethodMovementSum, error) {
	type key struct {
		method uuid.UUID
		kind   string
	}
	totals := map[key]decimal.Decimal{}
	for _, m := range r.movements {
		if m.ShiftID != shiftID {
			continue
		}
		k := key{m.PaymentMethodID, m.Kind}
		totals[k] = totals[k].Add(m.Amount)
	}
	var sums []repository.MethodMovementSum
	for k, total := range totals {
		sums = append(sums, repository.MethodMovementSum{
			PaymentMethodID: k.method,
			Kind:            k.kind,
			Total:           total,
		})
	}
	return sums, nil
}

func (r *stubShiftRepo) DB() *gorm.DB { return nil }

// ── In-memory RegisterRepository ─────────────────────────────────────────────

type stubRegisterRepo struct {
	registers map[uuid.UUID]*model.CashRegister
	methods   map[uuid.UUID]*model.PaymentMethod
}

func newStubRegisterRepo() *stubRegisterRepo {
	return &stubRegisterRepo{
		registers: make(map[uuid.UUID]*model.CashRegister),
		methods:   make(map[uuid.UUID]*model.PaymentMethod),
	}
}

func (r *stubRegisterRepo) FindByID(_ context.Context, id uuid.UUID) (*model.CashRegister, error) {
	reg, ok := r.registers[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return reg, nil
}

func (r *stubRegisterRepo) ListMethods(_ context.Context, registerID uuid.UUID) ([]model.PaymentMethod, error) {
	var methods []model.PaymentMethod
	for _, m := range r.methods {
		if !m.Active {
			continue
		}
		if m.Shared || (m.RegisterID != nil && *m.RegisterID == registerID) {
			methods = append(methods, *m)
		}
	}
	return methods, nil
}

func (r *stubRegisterRepo) FindMethodByID(_ context.Context, id uuid.UUID) (*model.PaymentMethod, error) {
	m, ok := r.methods[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return m, nil
}

func (r *stubRegisterRepo) AddMethodBalanceTx(_ *gorm.DB, id uuid.UUID, delta decimal.Decimal) (int64, error) {
	m, ok := r.methods[id]
	if !ok {
		return 0, nil
	}
	next := m.CurrentBalance.Add(delta)
	if next.IsNegative() {
		return 0, nil
	}
	m.CurrentBalance = next
	return 1, nil
}

// ── In-memory ProductRepository ──────────────────────────────────────────────

type stubProductRepo struct {
	products map[uuid.UUID]*model.Product
}

func newStubProductRepo() *stubProductRepo {
	return &stubProductRepo{products: make(map[uuid.UUID]*model.Product)}
}

func (r *stubProductRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Product, error) {
	p, ok := r.products[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return p, nil
}

func (r *stubProductRepo) FindByBarcode(_ context.Context, barcode string) (*model.Product, error) {
	for _, p := range r.products {
		if p.Barcode == barcode {
			return p, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubProductRepo) List(_ context.Context) ([]model.Product, error) {
	var products []model.Product
	for _, p := range r.products {
		if p.Active {
			products = append(products, *p)
		}
	}
	return products, nil
}

// ── In-memory ReceiptRepository ──────────────────────────────────────────────

type stubReceiptRepo struct {
	receipts map[uuid.UUID]*model.Receipt
	seq      int
}

func newStubReceiptRepo() *stubReceiptRepo {
	return &stubReceiptRepo{receipts: make(map[uuid.UUID]*model.Receipt)}
}

func (r *stubReceiptRepo) Create(_ context.Context, rc *model.Receipt) error {
	if rc.ID == uuid.Nil {
		rc.ID = uuid.New()
	}
	r.receipts[rc.ID] = rc
	return nil
}

func (r *stubReceiptRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Receipt, error) {
	rc, ok := r.receipts[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return rc, nil
}

func (r *stubReceiptRepo) FindByNumber(_ context.Context, number int) (*model.Receipt, error) {
	for _, rc := range r.receipts {
		if rc.Number == number {
			return rc, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubReceiptRepo) FindDraftByShift(_ context.Context, shiftID uuid.UUID) (*model.Receipt, error) {
	for _, rc := range r.receipts {
		if rc.ShiftID == shiftID && rc.Status == model.ReceiptDraft {
			return rc, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubReceiptRepo) FindByIdempotencyKey(_ context.Context, key string) (*model.Receipt, error) {
	for _, rc := range r.receipts {
		if rc.IdempotencyKey != nil && *rc.IdempotencyKey == key {
			return rc, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubReceiptRepo) ListByShift(_ context.Context, shiftID uuid.UUID) ([]model.Receipt, error) {
	var out []model.Receipt
	for _, rc := range r.receipts {
		if rc.ShiftID == shiftID {
			out = append(out, *rc)
		}
	}
	return out, nil
}

func (r *stubReceiptRepo) NextNumber(_ context.Context) (int, error) {
	r.seq++
	return r.seq, nil
}

func (r *stubReceiptRepo) SaveItemTx(_ *gorm.DB, it *model.ReceiptItem) error {
	rc, ok := r.receipts[it.ReceiptID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for i := range rc.Items {
		if rc.Items[i].ID == it.ID {
			rc.Items[i] = *it
			return nil
		}
	}
	rc.Items = append(rc.Items, *it)
	return nil
}

func (r *stubReceiptRepo) DeleteItemTx(_ *gorm.DB, itemID uuid.UUID) error {
	for _, rc := range r.receipts {
		for i := range rc.Items {
			if rc.Items[i].ID == itemID {
				rc.Items = append(rc.Items[:i], rc.Items[i+1:]...)
				return nil
			}
		}
	}
	return nil
}

func (r *stubReceiptRepo) SaveTotalsTx(_ *gorm.DB, rc *model.Receipt) error {
	stored, ok := r.receipts[rc.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	stored.Subtotal = rc.Subtotal
	stored.DiscountTotal = rc.DiscountTotal
	stored.FinalAmount = rc.FinalAmount
	stored.Version++
	return nil
}

func (r *stubReceiptRepo) UpdateStatus(_ context.Context, id uuid.UUID, from, to string) (int64, error) {
	rc, ok := r.receipts[id]
	if !ok || rc.Status != from {
		return 0, nil
	}
	rc.Status = to
	return 1, nil
}

func (r *stubReceiptRepo) MarkPaidTx(_ *gorm.DB, rc *model.Receipt, version int) (int64, error) {
	stored, ok := r.receipts[rc.ID]
	if !ok || stored.Status != model.ReceiptDraft || stored.Version != version {
		return 0, nil
	}
	stored.Status = model.ReceiptPaid
	stored.PaymentMethodID = rc.PaymentMethodID
	stored.TenderedAmount = rc.TenderedAmount
	stored.ChangeAmount = rc.ChangeAmount
	stored.IdempotencyKey = rc.IdempotencyKey
	stored.PaidAt = rc.PaidAt
	return 1, nil
}

func (r *stubReceiptRepo) DB() *gorm.DB { return nil }

// ── In-memory ReturnRepository ───────────────────────────────────────────────

type stubReturnRepo struct {
	returns map[uuid.UUID]*model.ReturnTransaction
}

func newStubReturnRepo() *stubReturnRepo {
	return &stubReturnRepo{returns: make(map[uuid.UUID]*model.ReturnTransaction)}
}

func (r *stubReturnRepo) Create(_ context.Context, rt *model.ReturnTransaction) error {
	if rt.ID == uuid.Nil {
		rt.ID = uuid.New()
	}
	r.returns[rt.ID] = rt
	return nil
}

func (r *stubReturnRepo) FindByID(_ context.Context, id uuid.UUID) (*model.ReturnTransaction, error) {
	rt, ok := r.returns[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return rt, nil
}

func (r *stubReturnRepo) FindByIdempotencyKey(_ context.Context, key string) (*model.ReturnTransaction, error) {
	for _, rt := range r.returns {
		if rt.IdempotencyKey != nil && *rt.IdempotencyKey == key {
			return rt, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubReturnRepo) ListByShift(_ context.Context, shiftID uuid.UUID) ([]model.ReturnTransaction, error) {
	var out []model.ReturnTransaction
	for _, rt := range r.returns {
		if rt.ShiftID == shiftID {
			out = append(out, *rt)
		}
	}
	return out, nil
}

func (r *stubReturnRepo) SumReturnedByReceipt(_ context.Context, receiptID uuid.UUID) (map[uuid.UUID]int, error) {
	totals := map[uuid.UUID]int{}
	for _, rt := range r.returns {
		if rt.OriginalReceiptID == nil || *rt.OriginalReceiptID != receiptID {
			continue
		}
		for _, l := range rt.Lines {
			totals[l.ProductID] += l.Quantity
		}
	}
	return totals, nil
}

func (r *stubReturnRepo) MarkSettledTx(_ *gorm.DB, rt *model.ReturnTransaction) (int64, error) {
	stored, ok := r.returns[rt.ID]
	if !ok || stored.Status != model.ReturnPending {
		return 0, nil
	}
	stored.Status = model.ReturnSettled
	stored.PaymentMethodID = rt.PaymentMethodID
	stored.SettledAmount = rt.SettledAmount
	stored.IdempotencyKey = rt.IdempotencyKey
	stored.SettledAt = rt.SettledAt
	return 1, nil
}

func (r *stubReturnRepo) DB() *gorm.DB { return nil }

// ── In-memory ClosingRepository ──────────────────────────────────────────────

type stubClosingRepo struct {
	closings map[uuid.UUID]*model.ShiftClosing
}

func newStubClosingRepo() *stubClosingRepo {
	return &stubClosingRepo{closings: make(map[uuid.UUID]*model.ShiftClosing)}
}

func (r *stubClosingRepo) CreateTx(_ *gorm.DB, c *model.ShiftClosing) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	c.CreatedAt = time.Now()
	r.closings[c.ID] = c
	return nil
}

func (r *stubClosingRepo) FindByID(_ context.Context, id uuid.UUID) (*model.ShiftClosing, error) {
	c, ok := r.closings[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return c, nil
}

func (r *stubClosingRepo) FindByShiftID(_ context.Context, shiftID uuid.UUID) (*model.ShiftClosing, error) {
	for _, c := range r.closings {
		if c.ShiftID == shiftID {
			return c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubClosingRepo) ListPendingPDFs(_ context.Context, limit int) ([]model.ShiftClosing, error) {
	var out []model.ShiftClosing
	for _, c := range r.closings {
		if c.PDFPath == nil && len(out) < limit {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (r *stubClosingRepo) UpdatePDFPath(_ context.Context, id uuid.UUID, path string) error {
	c, ok := r.closings[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	c.PDFPath = &path
	return nil
}

// ── Fixture ──────────────────────────────────────────────────────────────────

// fixture wires the transaction services against the in-memory repositories,
// with one active register, a shared cash drawer and a card method holding a
// starting float of 500.
type fixture struct {
	t *testing.T

	shiftRepo    *stubShiftRepo
	receiptRepo  *stubReceiptRepo
	returnRepo   *stubReturnRepo
	registerRepo *stubRegisterRepo
	productRepo  *stubProductRepo
	closingRepo  *stubClosingRepo

	shifts   service.ShiftService
	receipts service.ReceiptService
	payments service.PaymentService
	returns  service.ReturnService

	register *model.CashRegister
	cash     *model.PaymentMethod
	card     *model.PaymentMethod
	sess     service.Session
}

func newFixture(t *testing.T) *fixture {
	f := &fixture{
		t:            t,
		shiftRepo:    newStubShiftRepo(),
		receiptRepo:  newStubReceiptRepo(),
		returnRepo:   newStubReturnRepo(),
		registerRepo: newStubRegisterRepo(),
		productRepo:  newStubProductRepo(),
		closingRepo:  newStubClosingRepo(),
	}

	f.register = &model.CashRegister{ID: uuid.New(), Name: "Till 1", ShopID: uuid.New(), Active: true}
	f.registerRepo.registers[f.register.ID] = f.register

	f.cash = &model.PaymentMethod{
		ID: uuid.New(), Name: "Cash", Kind: model.MethodKindCash,
		Shared: true, CurrentBalance: decimal.Zero, Active: true,
	}
	f.card = &model.PaymentMethod{
		ID: uuid.New(), Name: "Debit card", Kind: model.MethodKindCard,
		Shared: true, CurrentBalance: dec("500"), Active: true,
	}
	f.registerRepo.methods[f.cash.ID] = f.cash
	f.registerRepo.methods[f.card.ID] = f.card

	f.shifts = service.NewShiftService(f.shiftRepo, f.registerRepo, f.closingRepo, nil)
	f.receipts = service.NewReceiptService(f.receiptRepo, f.productRepo, f.shifts)
	f.payments = service.NewPaymentService(f.receiptRepo, f.shiftRepo, f.registerRepo)
	f.returns = service.NewReturnService(f.returnRepo, f.receiptRepo, f.productRepo, f.shiftRepo, f.registerRepo, f.shifts)

	f.sess = service.Session{
		UserID:     uuid.New(),
		Username:   "cashier1",
		Role:       "cashier",
		RegisterID: f.register.ID,
	}
	return f
}

func (f *fixture) seedProduct(name, price string) *model.Product {
	p := &model.Product{
		ID:        uuid.New(),
		Name:      name,
		Barcode:   uuid.NewString()[:13],
		UnitPrice: dec(price),
		Active:    true,
	}
	f.productRepo.products[p.ID] = p
	return p
}

func (f *fixture) openShift(initial string) *dto.ShiftResponse {
	f.t.Helper()
	resp, err := f.shifts.Open(context.Background(), f.sess, dto.OpenShiftRequest{InitialAmount: dec(initial)})
	require.NoError(f.t, err)
	return resp
}

func (f *fixture) addItem(productID uuid.UUID, qty int) *dto.ReceiptResponse {
	f.t.Helper()
	resp, err := f.receipts.AddItem(context.Background(), f.sess, dto.AddItemRequest{
		ProductID: productID.String(),
		Quantity:  qty,
	})
	require.NoError(f.t, err)
	return resp
}

// payCash settles the draft in cash and returns the payment response.
func (f *fixture) payCash(receiptID string, version int, tendered, key string) *dto.PaymentResponse {
	f.t.Helper()
	id := uuid.MustParse(receiptID)
	resp, err := f.payments.Pay(context.Background(), f.sess, id, dto.PayReceiptRequest{
		PaymentMethodID: f.cash.ID.String(),
		TenderedAmount:  dec(tendered),
		IdempotencyKey:  key,
		ReceiptVersion:  version,
	})
	require.NoError(f.t, err)
	return resp
}
