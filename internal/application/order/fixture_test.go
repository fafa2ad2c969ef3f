package order

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xiebiao/flashorder/internal/domain/idempotency"
	"github.com/xiebiao/flashorder/internal/domain/inventory"
	"github.com/xiebiao/flashorder/internal/domain/order"
	"github.com/xiebiao/flashorder/internal/infrastructure/persistence/memory"
)

const testProduct = "SKU-1"

type recordingEvents struct {
	mu   sync.Mutex
	keys []string
}

func (e *recordingEvents) Publish(_ context.Context, routingKey string, _ any) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.keys = append(e.keys, routingKey)
	return nil
}

func (e *recordingEvents) count(routingKey string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := 0
	for _, k := range e.keys {
		if k == routingKey {
			n++
		}
	}
	return n
}

// faultyOrderRepo 可注入写入失败和读屏障
type faultyOrderRepo struct {
	order.Repository

	failCreate atomic.Bool

	barrierOn atomic.Bool
	parties   int32
	arrived   atomic.Int32
	barrier   chan struct{}
}

func (r *faultyOrderRepo) Create(ctx context.Context, o *order.Order) error {
	if r.failCreate.Load() {
		return errors.New("insert orders: connection reset")
	}
	return r.Repository.Create(ctx, o)
}

// FindByOrderNo 屏障打开时等到parties个调用者都读到同一状态再返回
func (r *faultyOrderRepo) FindByOrderNo(ctx context.Context, orderNo string) (*order.Order, error) {
	o, err := r.Repository.FindByOrderNo(ctx, orderNo)
	if r.barrierOn.Load() {
		if r.arrived.Add(1) == r.parties {
			close(r.barrier)
		}
		select {
		case <-r.barrier:
		case <-time.After(2 * time.Second):
		}
	}
	return o, err
}

func (r *faultyOrderRepo) armBarrier(parties int32) {
	r.parties = parties
	r.arrived.Store(0)
	r.barrier = make(chan struct{})
	r.barrierOn.Store(true)
}

type fixture struct {
	store     *memory.KVStore
	locker    *memory.Locker
	orderRepo *faultyOrderRepo
	invRepo   *memory.InventoryRepository
	guard     *idempotency.Guard
	ledger    *inventory.Ledger
	orders    *order.StateMachine
	events    *recordingEvents

	tokens     *IssueTokenUseCase
	create     *CreateOrderUseCase
	transition *TransitionUseCase
	callback   *PaymentCallbackUseCase
	query      *QueryUseCase
}

func newFixture(t *testing.T, stock int) *fixture {
	t.Helper()
	logger := zap.NewNop()

	f := &fixture{
		store:     memory.NewKVStore(),
		locker:    memory.NewLocker(),
		orderRepo: &faultyOrderRepo{Repository: memory.NewOrderRepository()},
		invRepo:   memory.NewInventoryRepository(),
		events:    &recordingEvents{},
	}
	f.guard = idempotency.NewGuard(f.store, idempotency.Config{}, logger)
	f.ledger = inventory.NewLedger(f.invRepo, f.store, f.locker, inventory.LedgerConfig{LockWait: 5 * time.Second}, logger)
	f.orders = order.NewStateMachine(f.orderRepo, f.store, f.locker, order.StateMachineConfig{}, logger)

	f.tokens = NewIssueTokenUseCase(f.guard)
	f.create = NewCreateOrderUseCase(f.guard, f.ledger, f.orders, order.NewNoGenerator(f.store), f.events,
		CreateOrderConfig{Timeout: 10 * time.Second}, logger)
	f.transition = NewTransitionUseCase(f.orders, f.ledger, f.events, logger)
	f.callback = NewPaymentCallbackUseCase(f.orders, f.ledger, f.events, logger)
	f.query = NewQueryUseCase(f.orders)

	_, err := f.ledger.Initialize(context.Background(), testProduct, "widget", stock)
	require.NoError(t, err)
	return f
}

func (f *fixture) token(t *testing.T, userID uint) string {
	t.Helper()
	resp, err := f.tokens.Execute(context.Background(), userID)
	require.NoError(t, err)
	return resp.Token
}

func (f *fixture) request(t *testing.T, userID uint, amount int) CreateOrderRequest {
	t.Helper()
	return CreateOrderRequest{
		UserID:        userID,
		ProductID:     testProduct,
		Amount:        amount,
		Token:         f.token(t, userID),
		TotalAmount:   int64(amount) * 100,
		PaymentAmount: int64(amount) * 100,
		PaymentType:   "ALIPAY",
	}
}

func (f *fixture) placeOrder(t *testing.T, userID uint, amount int) string {
	t.Helper()
	resp, err := f.create.Execute(context.Background(), f.request(t, userID, amount))
	require.NoError(t, err)
	return resp.OrderNo
}

func (f *fixture) stock(t *testing.T) *inventory.Record {
	t.Helper()
	rec, err := f.invRepo.FindByProductID(context.Background(), testProduct)
	require.NoError(t, err)
	require.NoError(t, rec.Validate())
	return rec
}
