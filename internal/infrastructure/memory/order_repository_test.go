package memory

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/Zhima-Mochi/candyshop/internal/domain/order"
)

type approvingMethod struct{}

func (approvingMethod) Name() string                                      { return "test" }
func (approvingMethod) Process(_ context.Context, _ decimal.Decimal) bool { return true }
func (approvingMethod) Refund(_ context.Context, _ decimal.Decimal) bool  { return true }

func storedOrder(t *testing.T, id int64) *domain.Order {
	t.Helper()
	price := decimal.RequireFromString("2.50")
	lines := []domain.Line{{
		ItemID:    "candy-001",
		ItemName:  "GummyBear",
		UnitPrice: price,
		Quantity:  1,
		Subtotal:  price,
	}}
	o, err := domain.New(id, "cust-1", "Keanu", lines, price, approvingMethod{})
	require.NoError(t, err)
	return o
}

func TestOrderRepository_InsertAndGet(t *testing.T) {
	repo := NewOrderRepository()
	ctx := context.Background()

	require.NoError(t, repo.Insert(ctx, storedOrder(t, 1000)))

	got, err := repo.Get(ctx, 1000)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), got.ID)

	_, err = repo.Get(ctx, 9999)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestOrderRepository_InsertRejectsDuplicateAndZeroID(t *testing.T) {
	repo := NewOrderRepository()
	ctx := context.Background()

	require.NoError(t, repo.Insert(ctx, storedOrder(t, 1000)))
	assert.ErrorIs(t, repo.Insert(ctx, storedOrder(t, 1000)), domain.ErrConflict)

	assert.Error(t, repo.Insert(ctx, nil))
}

func TestOrderRepository_Update(t *testing.T) {
	repo := NewOrderRepository()
	ctx := context.Background()

	entity := storedOrder(t, 1000)
	assert.ErrorIs(t, repo.Update(ctx, entity), domain.ErrNotFound)

	require.NoError(t, repo.Insert(ctx, entity))

	paid, err := entity.ConfirmPayment(ctx)
	require.NoError(t, err)
	require.True(t, paid)
	require.NoError(t, repo.Update(ctx, entity))

	got, err := repo.Get(ctx, 1000)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPaid, got.Status())
}

func TestOrderRepository_CloneIsolation(t *testing.T) {
	repo := NewOrderRepository()
	ctx := context.Background()

	entity := storedOrder(t, 1000)
	require.NoError(t, repo.Insert(ctx, entity))

	// Mutating the caller's copy after insert must not touch the store.
	paid, err := entity.ConfirmPayment(ctx)
	require.NoError(t, err)
	require.True(t, paid)

	got, err := repo.Get(ctx, 1000)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, got.Status())

	// Mutating a read copy must not touch the store either.
	_, err = got.ConfirmPayment(ctx)
	require.NoError(t, err)

	again, err := repo.Get(ctx, 1000)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, again.Status())
}

func TestOrderRepository_ListSortsByID(t *testing.T) {
	repo := NewOrderRepository()
	ctx := context.Background()

	for _, id := range []int64{1002, 1000, 1001} {
		require.NoError(t, repo.Insert(ctx, storedOrder(t, id)))
	}

	all, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, int64(1000), all[0].ID)
	assert.Equal(t, int64(1001), all[1].ID)
	assert.Equal(t, int64(1002), all[2].ID)
}
