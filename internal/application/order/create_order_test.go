package order

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xiebiao/flashorder/internal/domain/idempotency"
	"github.com/xiebiao/flashorder/internal/domain/inventory"
	"github.com/xiebiao/flashorder/internal/domain/order"
	"github.com/xiebiao/flashorder/internal/infrastructure/persistence/memory"
	apperrors "github.com/xiebiao/flashorder/pkg/errors"
)

func TestCreateOrder_ReservesStockAndPersistsPending(t *testing.T) {
	f := newFixture(t, 10)
	ctx := context.Background()

	resp, err := f.create.Execute(ctx, f.request(t, 1, 2))
	require.NoError(t, err)
	assert.False(t, resp.Duplicate)
	assert.Equal(t, "PENDING", resp.Status)
	assert.Regexp(t, `^ORD\d{14}\d{6}$`, resp.OrderNo)

	rec := f.stock(t)
	assert.Equal(t, 8, rec.AvailableStock)
	assert.Equal(t, 2, rec.ReservedStock)

	o, err := f.query.GetOrder(ctx, 1, resp.OrderNo)
	require.NoError(t, err)
	assert.Equal(t, order.StatusPending, o.Status)
	assert.Equal(t, 2, o.Quantity)
	assert.Equal(t, 1, f.events.count(order.RoutingKeyCreated))
}

func TestCreateOrder_DuplicateSubmissionReturnsSameOrder(t *testing.T) {
	f := newFixture(t, 10)
	ctx := context.Background()
	req := f.request(t, 1, 3)

	first, err := f.create.Execute(ctx, req)
	require.NoError(t, err)

	second, err := f.create.Execute(ctx, req)
	require.NoError(t, err)
	assert.True(t, second.Duplicate)
	assert.Equal(t, first.OrderNo, second.OrderNo)

	// 只预留一次
	assert.Equal(t, 3, f.stock(t).ReservedStock)
	_, total, err := f.query.ListOrders(ctx, 1, 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
}

func TestCreateOrder_TokenIsSingleUse(t *testing.T) {
	f := newFixture(t, 10)
	ctx := context.Background()
	req := f.request(t, 1, 1)

	_, err := f.create.Execute(ctx, req)
	require.NoError(t, err)

	// 同一Token换参数，不是重复请求，而Token已被消费
	req.Amount = 2
	_, err = f.create.Execute(ctx, req)
	assert.ErrorIs(t, err, idempotency.ErrInvalidToken)
	assert.Equal(t, 1, f.stock(t).ReservedStock)
}

func TestCreateOrder_ConcurrentDuplicatesCreateOneOrder(t *testing.T) {
	f := newFixture(t, 10)
	req := f.request(t, 1, 2)

	var (
		wg      sync.WaitGroup
		created atomic.Int32
		mu      sync.Mutex
		nos     = map[string]struct{}{}
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := f.create.Execute(context.Background(), req)
			if err != nil {
				assert.ErrorIs(t, err, idempotency.ErrDuplicateRequest)
				return
			}
			if !resp.Duplicate {
				created.Add(1)
			}
			mu.Lock()
			nos[resp.OrderNo] = struct{}{}
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, created.Load())
	assert.Len(t, nos, 1)
	assert.Equal(t, 2, f.stock(t).ReservedStock)
}

func TestCreateOrder_OneTokenAcrossAmountsCreatesOneOrder(t *testing.T) {
	f := newFixture(t, 10)
	base := f.request(t, 1, 1)

	var (
		wg      sync.WaitGroup
		created atomic.Int32
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(amount int) {
			defer wg.Done()
			req := base
			req.Amount = amount
			resp, err := f.create.Execute(context.Background(), req)
			if err != nil {
				assert.True(t,
					errors.Is(err, idempotency.ErrDuplicateRequest) || errors.Is(err, idempotency.ErrInvalidToken),
					"unexpected error: %v", err)
				return
			}
			if !resp.Duplicate {
				created.Add(1)
			}
		}(1 + i%2)
	}
	wg.Wait()

	assert.EqualValues(t, 1, created.Load())
	orders, total, err := f.query.ListOrders(context.Background(), 1, 1, 10)
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	assert.Equal(t, orders[0].Quantity, f.stock(t).ReservedStock)
}

// tokenDelFailingStore 删除Token时失败，模拟标记完成只写入一半
type tokenDelFailingStore struct {
	*memory.KVStore
	fail atomic.Bool
}

func (s *tokenDelFailingStore) Del(ctx context.Context, keys ...string) error {
	if s.fail.Load() && len(keys) > 0 && strings.HasPrefix(keys[0], "idempotency:token:") {
		return errors.New("redis: i/o timeout")
	}
	return s.KVStore.Del(ctx, keys...)
}

func TestCreateOrder_MarkCreatedFailureKeepsTokenUsable(t *testing.T) {
	f := newFixture(t, 10)
	ctx := context.Background()

	store := &tokenDelFailingStore{KVStore: f.store}
	guard := idempotency.NewGuard(store, idempotency.Config{}, zap.NewNop())
	create := NewCreateOrderUseCase(guard, f.ledger, f.orders, order.NewNoGenerator(f.store), f.events,
		CreateOrderConfig{Timeout: 10 * time.Second}, zap.NewNop())

	token, err := guard.IssueToken(ctx, 1)
	require.NoError(t, err)
	req := CreateOrderRequest{UserID: 1, ProductID: testProduct, Amount: 2, Token: token.Value}

	store.fail.Store(true)
	_, err = create.Execute(ctx, req)
	require.ErrorIs(t, err, apperrors.ErrStoreUnavailable)

	rec := f.stock(t)
	assert.Equal(t, 10, rec.AvailableStock)
	assert.Zero(t, rec.ReservedStock)
	orders, total, err := f.query.ListOrders(ctx, 1, 1, 10)
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	assert.Equal(t, order.StatusCancelled, orders[0].Status)

	// 重试不会指向已回滚的订单
	store.fail.Store(false)
	resp, err := create.Execute(ctx, req)
	require.NoError(t, err)
	assert.False(t, resp.Duplicate)
	assert.NotEqual(t, orders[0].OrderNo, resp.OrderNo)
	assert.Equal(t, 2, f.stock(t).ReservedStock)
}

func TestCreateOrder_ConcurrentReservesNeverOversell(t *testing.T) {
	f := newFixture(t, 10)

	reqs := make([]CreateOrderRequest, 20)
	for i := range reqs {
		reqs[i] = f.request(t, uint(i+1), 1)
	}

	var (
		wg           sync.WaitGroup
		succeeded    atomic.Int32
		insufficient atomic.Int32
	)
	for _, req := range reqs {
		wg.Add(1)
		go func(req CreateOrderRequest) {
			defer wg.Done()
			_, err := f.create.Execute(context.Background(), req)
			switch {
			case err == nil:
				succeeded.Add(1)
			case errors.Is(err, inventory.ErrInsufficientStock):
				insufficient.Add(1)
			default:
				assert.NoError(t, err)
			}
		}(req)
	}
	wg.Wait()

	assert.EqualValues(t, 10, succeeded.Load())
	assert.EqualValues(t, 10, insufficient.Load())

	rec := f.stock(t)
	assert.Equal(t, 0, rec.AvailableStock)
	assert.Equal(t, 10, rec.ReservedStock)
	assert.EqualValues(t, 11, rec.Version)
}

func TestCreateOrder_InsufficientStockKeepsTokenUsable(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()
	req := f.request(t, 1, 2)

	_, err := f.create.Execute(ctx, req)
	require.ErrorIs(t, err, inventory.ErrInsufficientStock)
	assert.Equal(t, apperrors.ErrCodeInsufficientStock, apperrors.GetAppError(err).Code)

	// 幂等键已解除，重试得到同样的业务错误而不是重复请求
	_, err = f.create.Execute(ctx, req)
	assert.ErrorIs(t, err, inventory.ErrInsufficientStock)

	req.Amount = 1
	resp, err := f.create.Execute(ctx, req)
	require.NoError(t, err)
	assert.NotEmpty(t, resp.OrderNo)
}

func TestCreateOrder_PersistFailureReleasesReservation(t *testing.T) {
	f := newFixture(t, 10)
	ctx := context.Background()
	req := f.request(t, 1, 4)

	f.orderRepo.failCreate.Store(true)
	_, err := f.create.Execute(ctx, req)
	require.Error(t, err)

	rec := f.stock(t)
	assert.Equal(t, 10, rec.AvailableStock)
	assert.Equal(t, 0, rec.ReservedStock)
	assert.Zero(t, f.events.count(order.RoutingKeyCreated))

	logs, _, err := f.ledger.Logs(ctx, testProduct, 1, 10)
	require.NoError(t, err)
	require.Len(t, logs, 3)
	assert.Equal(t, inventory.ChangeTypeRelease, logs[0].ChangeType)
	assert.Equal(t, inventory.ChangeTypeReserve, logs[1].ChangeType)

	// Token未被消费，恢复后可以重试成功
	f.orderRepo.failCreate.Store(false)
	resp, err := f.create.Execute(ctx, req)
	require.NoError(t, err)
	assert.False(t, resp.Duplicate)
	assert.Equal(t, 4, f.stock(t).ReservedStock)
}

func TestCreateOrder_RejectsInvalidRequests(t *testing.T) {
	f := newFixture(t, 10)
	ctx := context.Background()

	cases := []struct {
		name   string
		mutate func(*CreateOrderRequest)
		want   error
	}{
		{"未知Token", func(r *CreateOrderRequest) { r.Token = "not-issued" }, idempotency.ErrInvalidToken},
		{"空Token", func(r *CreateOrderRequest) { r.Token = "" }, idempotency.ErrInvalidToken},
		{"数量为0", func(r *CreateOrderRequest) { r.Amount = 0 }, order.ErrInvalidQuantity},
		{"缺少商品", func(r *CreateOrderRequest) { r.ProductID = "" }, order.ErrInvalidOrder},
		{"负金额", func(r *CreateOrderRequest) { r.PaymentAmount = -1 }, order.ErrInvalidAmount},
		{"未知商品", func(r *CreateOrderRequest) { r.ProductID = "SKU-404" }, inventory.ErrInventoryNotFound},
	}
	for i, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := f.request(t, uint(100+i), 1)
			tc.mutate(&req)
			_, err := f.create.Execute(ctx, req)
			assert.ErrorIs(t, err, tc.want, fmt.Sprintf("case %s", tc.name))
		})
	}

	rec := f.stock(t)
	assert.Equal(t, 10, rec.AvailableStock)
	assert.EqualValues(t, 1, rec.Version)
}
