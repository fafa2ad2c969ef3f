package inventory_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xiebiao/flashorder/internal/domain/inventory"
	"github.com/xiebiao/flashorder/internal/domain/kv"
	"github.com/xiebiao/flashorder/internal/infrastructure/persistence/memory"
	apperrors "github.com/xiebiao/flashorder/pkg/errors"
)

const sku = "SKU-1"

type ledgerFixture struct {
	repo   *memory.InventoryRepository
	store  *memory.KVStore
	locker *memory.Locker
	ledger *inventory.Ledger
}

func newLedger(t *testing.T, cfg inventory.LedgerConfig, repo inventory.Repository) *ledgerFixture {
	t.Helper()
	f := &ledgerFixture{
		repo:   memory.NewInventoryRepository(),
		store:  memory.NewKVStore(),
		locker: memory.NewLocker(),
	}
	if repo == nil {
		repo = f.repo
	}
	f.ledger = inventory.NewLedger(repo, f.store, f.locker, cfg, zap.NewNop())
	return f
}

func (f *ledgerFixture) record(t *testing.T) *inventory.Record {
	t.Helper()
	rec, err := f.repo.FindByProductID(context.Background(), sku)
	require.NoError(t, err)
	require.NoError(t, rec.Validate())
	return rec
}

func TestLedger_Initialize(t *testing.T) {
	f := newLedger(t, inventory.LedgerConfig{}, nil)
	ctx := context.Background()

	rec, err := f.ledger.Initialize(ctx, sku, "widget", 10)
	require.NoError(t, err)
	assert.Equal(t, 10, rec.AvailableStock)
	assert.EqualValues(t, 1, rec.Version)
	assert.Equal(t, inventory.StatusNormal, rec.Status)

	_, err = f.ledger.Initialize(ctx, sku, "widget", 5)
	assert.ErrorIs(t, err, inventory.ErrInventoryExists)

	_, err = f.ledger.Initialize(ctx, "", "x", 1)
	assert.ErrorIs(t, err, inventory.ErrInvalidProductID)
	_, err = f.ledger.Initialize(ctx, "SKU-2", "x", -1)
	assert.ErrorIs(t, err, inventory.ErrInvalidTotalStock)

	logs, total, err := f.ledger.Logs(ctx, sku, 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, inventory.ChangeTypeInit, logs[0].ChangeType)
	assert.Equal(t, 10, logs[0].AfterAvailable)
}

func TestLedger_ReserveThenConfirm(t *testing.T) {
	f := newLedger(t, inventory.LedgerConfig{}, nil)
	ctx := context.Background()
	_, err := f.ledger.Initialize(ctx, sku, "widget", 10)
	require.NoError(t, err)

	_, err = f.ledger.Reserve(ctx, sku, 3, "ORD1")
	require.NoError(t, err)
	afterReserve := f.record(t)

	rec, err := f.ledger.Confirm(ctx, sku, 3, "ORD1")
	require.NoError(t, err)

	assert.Equal(t, afterReserve.AvailableStock, rec.AvailableStock)
	assert.Equal(t, afterReserve.ReservedStock-3, rec.ReservedStock)
	assert.Equal(t, afterReserve.SoldStock+3, rec.SoldStock)
	assert.Equal(t, afterReserve.Version+1, rec.Version)
	assert.Equal(t, rec.TotalStock, rec.AvailableStock+rec.ReservedStock+rec.SoldStock)

	stored := f.record(t)
	assert.Equal(t, rec.Version, stored.Version)
	assert.EqualValues(t, 3, stored.Version)
}

func TestLedger_ReleaseAndRefund(t *testing.T) {
	f := newLedger(t, inventory.LedgerConfig{}, nil)
	ctx := context.Background()
	_, err := f.ledger.Initialize(ctx, sku, "widget", 10)
	require.NoError(t, err)

	_, err = f.ledger.Reserve(ctx, sku, 4, "ORD1")
	require.NoError(t, err)
	_, err = f.ledger.Release(ctx, sku, 2, "ORD1")
	require.NoError(t, err)
	_, err = f.ledger.Confirm(ctx, sku, 2, "ORD1")
	require.NoError(t, err)
	rec, err := f.ledger.Refund(ctx, sku, 2, "ORD1")
	require.NoError(t, err)

	assert.Equal(t, 10, rec.AvailableStock)
	assert.Zero(t, rec.ReservedStock)
	assert.Zero(t, rec.SoldStock)

	logs, total, err := f.ledger.Logs(ctx, sku, 1, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 5, total)
	require.Len(t, logs, 2)
	assert.Equal(t, inventory.ChangeTypeRefund, logs[0].ChangeType)
	assert.Equal(t, "ORD1", logs[0].Remark)
	assert.Equal(t, inventory.ChangeTypeConfirm, logs[1].ChangeType)
}

func TestLedger_RejectsWithoutSideEffects(t *testing.T) {
	f := newLedger(t, inventory.LedgerConfig{}, nil)
	ctx := context.Background()
	_, err := f.ledger.Initialize(ctx, sku, "widget", 2)
	require.NoError(t, err)

	cases := []struct {
		name string
		op   func() error
		want error
	}{
		{"可售不足", func() error { _, err := f.ledger.Reserve(ctx, sku, 3, ""); return err }, inventory.ErrInsufficientStock},
		{"预留不足无法确认", func() error { _, err := f.ledger.Confirm(ctx, sku, 1, ""); return err }, inventory.ErrInsufficientReserved},
		{"预留不足无法释放", func() error { _, err := f.ledger.Release(ctx, sku, 1, ""); return err }, inventory.ErrInsufficientReserved},
		{"已售不足无法退回", func() error { _, err := f.ledger.Refund(ctx, sku, 1, ""); return err }, inventory.ErrInsufficientSold},
		{"数量为0", func() error { _, err := f.ledger.Reserve(ctx, sku, 0, ""); return err }, inventory.ErrInvalidQuantity},
		{"商品不存在", func() error { _, err := f.ledger.Reserve(ctx, "SKU-404", 1, ""); return err }, inventory.ErrInventoryNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.ErrorIs(t, tc.op(), tc.want)
		})
	}

	rec := f.record(t)
	assert.Equal(t, 2, rec.AvailableStock)
	assert.EqualValues(t, 1, rec.Version)
}

func TestLedger_LockTimeoutHasNoSideEffects(t *testing.T) {
	f := newLedger(t, inventory.LedgerConfig{LockWait: 50 * time.Millisecond}, nil)
	ctx := context.Background()
	_, err := f.ledger.Initialize(ctx, sku, "widget", 10)
	require.NoError(t, err)

	held, err := f.locker.Acquire(ctx, "inventory-lock:"+sku, time.Second, time.Minute)
	require.NoError(t, err)
	defer func() { _ = held.Release(ctx) }()

	start := time.Now()
	_, err = f.ledger.Reserve(ctx, sku, 1, "ORD1")
	assert.ErrorIs(t, err, apperrors.ErrLockTimeout)
	assert.True(t, apperrors.IsRetryable(err))
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)

	rec := f.record(t)
	assert.Equal(t, 10, rec.AvailableStock)
	assert.EqualValues(t, 1, rec.Version)
}

// staleRepo 在条件更新前偷偷推进版本，模拟租约过期后别的持有者已经写入
type staleRepo struct {
	*memory.InventoryRepository
	bumped atomic.Bool
}

func (r *staleRepo) CompareAndSwap(ctx context.Context, productID string, expected int64, delta inventory.Delta, log *inventory.Log) (int64, error) {
	if r.bumped.CompareAndSwap(false, true) {
		if _, err := r.InventoryRepository.CompareAndSwap(ctx, productID, expected, inventory.Delta{}, nil); err != nil {
			return 0, err
		}
	}
	return r.InventoryRepository.CompareAndSwap(ctx, productID, expected, delta, log)
}

func TestLedger_StaleVersionIsRejected(t *testing.T) {
	base := memory.NewInventoryRepository()
	repo := &staleRepo{InventoryRepository: base}
	f := newLedger(t, inventory.LedgerConfig{}, repo)
	f.repo = base
	ctx := context.Background()

	_, err := f.ledger.Initialize(ctx, sku, "widget", 10)
	require.NoError(t, err)

	_, err = f.ledger.Reserve(ctx, sku, 1, "ORD1")
	assert.ErrorIs(t, err, apperrors.ErrConcurrentModification)

	rec := f.record(t)
	assert.Equal(t, 10, rec.AvailableStock)
	assert.EqualValues(t, 2, rec.Version)

	// 再次尝试读到新版本，成功
	_, err = f.ledger.Reserve(ctx, sku, 1, "ORD1")
	require.NoError(t, err)
	assert.Equal(t, 9, f.record(t).AvailableStock)
}

func TestLedger_GetCachesAndMutationInvalidates(t *testing.T) {
	f := newLedger(t, inventory.LedgerConfig{}, nil)
	ctx := context.Background()
	_, err := f.ledger.Initialize(ctx, sku, "widget", 10)
	require.NoError(t, err)

	rec, err := f.ledger.Get(ctx, sku)
	require.NoError(t, err)
	assert.Equal(t, 10, rec.AvailableStock)
	_, err = f.store.Get(ctx, "inventory:"+sku)
	require.NoError(t, err)

	_, err = f.ledger.Reserve(ctx, sku, 2, "")
	require.NoError(t, err)
	raw, err := f.store.Get(ctx, "inventory:"+sku)
	require.NoError(t, err)
	assert.Equal(t, kv.Tombstone, raw)

	rec, err = f.ledger.Get(ctx, sku)
	require.NoError(t, err)
	assert.Equal(t, 8, rec.AvailableStock)
}

// interleavedRepo 读到记录后、返回前执行一次hook，模拟读者与写者交错
type interleavedRepo struct {
	*memory.InventoryRepository
	hook func()
}

func (r *interleavedRepo) FindByProductID(ctx context.Context, productID string) (*inventory.Record, error) {
	rec, err := r.InventoryRepository.FindByProductID(ctx, productID)
	if hook := r.hook; hook != nil {
		r.hook = nil
		hook()
	}
	return rec, err
}

func TestLedger_StaleReadCannotRefillAfterWrite(t *testing.T) {
	f := newLedger(t, inventory.LedgerConfig{}, nil)
	ctx := context.Background()
	_, err := f.ledger.Initialize(ctx, sku, "widget", 10)
	require.NoError(t, err)

	repo := &interleavedRepo{InventoryRepository: f.repo}
	reader := inventory.NewLedger(repo, f.store, f.locker, inventory.LedgerConfig{}, nil)
	repo.hook = func() {
		_, err := f.ledger.Reserve(ctx, sku, 2, "ORD1")
		require.NoError(t, err)
	}

	// 读者拿到的是写入前的旧行
	rec, err := reader.Get(ctx, sku)
	require.NoError(t, err)
	assert.Equal(t, 10, rec.AvailableStock)

	// 旧行没有回填进缓存
	rec, err = f.ledger.Get(ctx, sku)
	require.NoError(t, err)
	assert.Equal(t, 8, rec.AvailableStock)
}

func TestLedger_ConcurrentReservesNeverOversell(t *testing.T) {
	f := newLedger(t, inventory.LedgerConfig{}, nil)
	ctx := context.Background()
	_, err := f.ledger.Initialize(ctx, sku, "widget", 10)
	require.NoError(t, err)

	var (
		wg           sync.WaitGroup
		ok           atomic.Int32
		insufficient atomic.Int32
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.ledger.Reserve(context.Background(), sku, 1, "")
			switch {
			case err == nil:
				ok.Add(1)
			case errors.Is(err, inventory.ErrInsufficientStock):
				insufficient.Add(1)
			default:
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 10, ok.Load())
	assert.EqualValues(t, 10, insufficient.Load())
	rec := f.record(t)
	assert.Zero(t, rec.AvailableStock)
	assert.Equal(t, 10, rec.ReservedStock)
}
