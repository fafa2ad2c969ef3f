package inventory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xiebiao/flashorder/internal/domain/inventory"
	"github.com/xiebiao/flashorder/internal/infrastructure/persistence/memory"
)

func newUseCase() *UseCase {
	ledger := inventory.NewLedger(memory.NewInventoryRepository(), memory.NewKVStore(), memory.NewLocker(),
		inventory.LedgerConfig{}, zap.NewNop())
	return NewUseCase(ledger, zap.NewNop())
}

func TestUseCase_InitializeAndQuery(t *testing.T) {
	uc := newUseCase()
	ctx := context.Background()

	rec, err := uc.InitializeInventory(ctx, InitializeRequest{ProductID: "SKU-1", ProductName: "widget", TotalStock: 5})
	require.NoError(t, err)
	assert.Equal(t, 5, rec.AvailableStock)

	_, err = uc.InitializeInventory(ctx, InitializeRequest{ProductID: "SKU-1", TotalStock: 5})
	assert.ErrorIs(t, err, inventory.ErrInventoryExists)

	got, err := uc.GetInventory(ctx, "SKU-1")
	require.NoError(t, err)
	assert.Equal(t, "widget", got.ProductName)

	logs, total, err := uc.ListInventoryLogs(ctx, "SKU-1", 0, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Len(t, logs, 1)

	_, err = uc.GetInventory(ctx, "SKU-404")
	assert.ErrorIs(t, err, inventory.ErrInventoryNotFound)
}
