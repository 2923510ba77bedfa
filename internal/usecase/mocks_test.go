package usecase_test

import (
	"context"
	"strconv"
	"strings"
	"testing"
	"time"

	"marketplace/internal/domain/model"
	repo "marketplace/internal/repository"
	"marketplace/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// =====================
// TxManager / TxRepos mocks
// =====================

// TxManagerMock は WithinTx の中で渡す repos を固定して unit テストを回す
type TxManagerMock struct {
	mock.Mock
	Repos repo.TxRepos
}

func (m *TxManagerMock) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	// 呼ばれた事実だけ記録（ctxの具体値は問わない）
	m.Called(ctx)
	return fn(m.Repos)
}

type TxReposMock struct {
	orders      repo.OrderRepository
	orderItems  repo.OrderItemRepository
	withdrawals repo.WithdrawalRepository
	merchants   repo.MerchantRepository
	users       repo.UserRepository
	auditLogs   repo.AuditLogRepository
}

func (r *TxReposMock) Orders() repo.OrderRepository           { return r.orders }
func (r *TxReposMock) OrderItems() repo.OrderItemRepository   { return r.orderItems }
func (r *TxReposMock) Withdrawals() repo.WithdrawalRepository { return r.withdrawals }
func (r *TxReposMock) Merchants() repo.MerchantRepository     { return r.merchants }
func (r *TxReposMock) Users() repo.UserRepository             { return r.users }
func (r *TxReposMock) AuditLogs() repo.AuditLogRepository     { return r.auditLogs }

// =====================
// Repository mocks
// =====================

type OrderRepoMock struct{ mock.Mock }

func (m *OrderRepoMock) FindByID(ctx context.Context, orderID int64) (model.Order, error) {
	args := m.Called(ctx, orderID)
	o, _ := args.Get(0).(model.Order)
	return o, args.Error(1)
}

func (m *OrderRepoMock) ListByMerchantID(ctx context.Context, merchantID int64, f repo.OrderListFilter) ([]model.Order, int64, error) {
	args := m.Called(ctx, merchantID, f)
	orders, _ := args.Get(0).([]model.Order)
	return orders, args.Get(1).(int64), args.Error(2)
}

func (m *OrderRepoMock) Create(ctx context.Context, order model.Order) (int64, error) {
	args := m.Called(ctx, order)
	return args.Get(0).(int64), args.Error(1)
}

func (m *OrderRepoMock) UpdateStatus(ctx context.Context, orderID int64, status model.OrderStatus) error {
	args := m.Called(ctx, orderID, status)
	return args.Error(0)
}

func (m *OrderRepoMock) FindByPaymentReference(ctx context.Context, ref string) (model.Order, bool, error) {
	args := m.Called(ctx, ref)
	o, _ := args.Get(0).(model.Order)
	return o, args.Bool(1), args.Error(2)
}

func (m *OrderRepoMock) ListSubscriptionsByMerchantID(ctx context.Context, merchantID int64, includeCancelled bool) ([]model.Order, error) {
	args := m.Called(ctx, merchantID, includeCancelled)
	orders, _ := args.Get(0).([]model.Order)
	return orders, args.Error(1)
}

func (m *OrderRepoMock) UpdateSubscription(ctx context.Context, orderID int64, fields repo.SubscriptionFields) error {
	args := m.Called(ctx, orderID, fields)
	return args.Error(0)
}

func (m *OrderRepoMock) ListDueSubscriptions(ctx context.Context, now time.Time) ([]model.Order, error) {
	args := m.Called(ctx, now)
	orders, _ := args.Get(0).([]model.Order)
	return orders, args.Error(1)
}

func (m *OrderRepoMock) SumTotalByMerchantID(ctx context.Context, merchantID int64) (int64, error) {
	args := m.Called(ctx, merchantID)
	return args.Get(0).(int64), args.Error(1)
}

type OrderItemRepoMock struct{ mock.Mock }

func (m *OrderItemRepoMock) CreateBulk(ctx context.Context, orderID int64, items []model.OrderItem) error {
	args := m.Called(ctx, orderID, items)
	return args.Error(0)
}

func (m *OrderItemRepoMock) ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderItem, error) {
	args := m.Called(ctx, orderID)
	items, _ := args.Get(0).([]model.OrderItem)
	return items, args.Error(1)
}

func (m *OrderItemRepoMock) ReplaceForOrder(ctx context.Context, orderID int64, items []model.OrderItem) error {
	args := m.Called(ctx, orderID, items)
	return args.Error(0)
}

type WithdrawalRepoMock struct{ mock.Mock }

func (m *WithdrawalRepoMock) FindByID(ctx context.Context, id int64) (model.Withdrawal, error) {
	args := m.Called(ctx, id)
	w, _ := args.Get(0).(model.Withdrawal)
	return w, args.Error(1)
}

func (m *WithdrawalRepoMock) Create(ctx context.Context, w model.Withdrawal) (int64, error) {
	args := m.Called(ctx, w)
	return args.Get(0).(int64), args.Error(1)
}

func (m *WithdrawalRepoMock) ListByMerchantID(ctx context.Context, merchantID int64, f repo.WithdrawalListFilter) ([]model.Withdrawal, int64, error) {
	args := m.Called(ctx, merchantID, f)
	ws, _ := args.Get(0).([]model.Withdrawal)
	return ws, args.Get(1).(int64), args.Error(2)
}

func (m *WithdrawalRepoMock) ListAdmin(ctx context.Context, f repo.WithdrawalListFilter) ([]model.Withdrawal, int64, error) {
	args := m.Called(ctx, f)
	ws, _ := args.Get(0).([]model.Withdrawal)
	return ws, args.Get(1).(int64), args.Error(2)
}

func (m *WithdrawalRepoMock) UpdateStatusIf(ctx context.Context, id int64, from model.WithdrawalStatus, to model.WithdrawalStatus) (bool, error) {
	args := m.Called(ctx, id, from, to)
	return args.Bool(0), args.Error(1)
}

func (m *WithdrawalRepoMock) SumNonFailedByMerchantID(ctx context.Context, merchantID int64) (int64, error) {
	args := m.Called(ctx, merchantID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *WithdrawalRepoMock) HasPendingByMerchantID(ctx context.Context, merchantID int64) (bool, error) {
	args := m.Called(ctx, merchantID)
	return args.Bool(0), args.Error(1)
}

type MerchantRepoMock struct{ mock.Mock }

func (m *MerchantRepoMock) FindByID(ctx context.Context, id int64) (model.Merchant, error) {
	args := m.Called(ctx, id)
	mm, _ := args.Get(0).(model.Merchant)
	return mm, args.Error(1)
}

func (m *MerchantRepoMock) FindByUserID(ctx context.Context, userID int64) (model.Merchant, error) {
	args := m.Called(ctx, userID)
	mm, _ := args.Get(0).(model.Merchant)
	return mm, args.Error(1)
}

func (m *MerchantRepoMock) Create(ctx context.Context, mm model.Merchant) (int64, error) {
	args := m.Called(ctx, mm)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MerchantRepoMock) AddBalance(ctx context.Context, id int64, amount int64) error {
	args := m.Called(ctx, id, amount)
	return args.Error(0)
}

func (m *MerchantRepoMock) DecreaseBalanceIfEnough(ctx context.Context, id int64, amount int64) (bool, error) {
	args := m.Called(ctx, id, amount)
	return args.Bool(0), args.Error(1)
}

func (m *MerchantRepoMock) UpdateAutoWithdrawalInterval(ctx context.Context, id int64, interval model.AutoWithdrawalInterval) error {
	args := m.Called(ctx, id, interval)
	return args.Error(0)
}

func (m *MerchantRepoMock) SetLastAutoWithdrawalAt(ctx context.Context, id int64, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

func (m *MerchantRepoMock) ListAutoWithdrawalEnabled(ctx context.Context) ([]model.Merchant, error) {
	args := m.Called(ctx)
	ms, _ := args.Get(0).([]model.Merchant)
	return ms, args.Error(1)
}

type UserRepoMock struct{ mock.Mock }

func (m *UserRepoMock) FindByID(ctx context.Context, id int64) (model.User, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(model.User)
	return u, args.Error(1)
}

func (m *UserRepoMock) FindByEmail(ctx context.Context, email string) (model.User, bool, error) {
	args := m.Called(ctx, email)
	u, _ := args.Get(0).(model.User)
	return u, args.Bool(1), args.Error(2)
}

func (m *UserRepoMock) Create(ctx context.Context, u model.User) (int64, error) {
	args := m.Called(ctx, u)
	return args.Get(0).(int64), args.Error(1)
}

type AuditRepoMock struct{ mock.Mock }

func (m *AuditRepoMock) Create(ctx context.Context, log model.AuditLog) error {
	args := m.Called(ctx, log)
	return args.Error(0)
}

func (m *AuditRepoMock) List(ctx context.Context, filter repo.AuditLogFilter) ([]model.AuditLog, error) {
	args := m.Called(ctx, filter)
	logs, _ := args.Get(0).([]model.AuditLog)
	return logs, args.Error(1)
}

// =====================
// usecaseに渡す部品のテスト用実装
// =====================

type fixedClock struct{ t time.Time }

func (c *fixedClock) Now() time.Time { return c.t }

type seqIDGen struct{ n int }

func (g *seqIDGen) NewID() string {
	g.n++
	return "ref-" + strconv.Itoa(g.n)
}

// 常に通す validator
type passValidator struct{}

func (v *passValidator) ValidateCheckout(in usecase.CheckoutInput) error { return nil }

func (v *passValidator) ValidateItems(items []usecase.CheckoutItemInput) error { return nil }

// =====================
// Helper: error contains（HTTPErrorの実装詳細に依存しない）
// =====================

func assertErrContains(t *testing.T, err error, wantSubstr string) {
	t.Helper()
	if assert.Error(t, err) {
		assert.True(t, strings.Contains(err.Error(), wantSubstr), "err=%q want contains %q", err.Error(), wantSubstr)
	}
}
