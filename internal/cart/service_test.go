package cart

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/shopfront-backend/internal/users"
	"github.com/angelmondragon/shopfront-backend/pkg/db"
	"github.com/angelmondragon/shopfront-backend/pkg/db/dbtest"
	"github.com/angelmondragon/shopfront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/shopfront-backend/pkg/errors"
	"github.com/angelmondragon/shopfront-backend/pkg/metrics"
)

func newTestService(t *testing.T) (Service, *db.Client) {
	t.Helper()
	client := dbtest.OpenSQLite(t)
	svc, err := NewService(ServiceParams{
		Repo:    NewRepository(client.DB()),
		Users:   users.NewRepository(client.DB()),
		Tx:      client,
		Metrics: metrics.NewShopMetrics(prometheus.NewRegistry()),
	})
	require.NoError(t, err)
	return svc, client
}

func intPtr(v int) *int { return &v }

func TestAddCreatesUserAndDefaultsQuantity(t *testing.T) {
	svc, client := newTestService(t)
	product := dbtest.SeedProduct(t, client, "Oversize T-Shirt", "249.90")
	ctx := context.Background()

	item, err := svc.Add(ctx, AddInput{UserID: "u1", ProductID: product.ID})
	require.NoError(t, err)
	assert.Equal(t, 1, item.Quantity)
	require.NotNil(t, item.Product)
	assert.Equal(t, "Oversize T-Shirt", item.Product.Name)

	zero, err := svc.Add(ctx, AddInput{UserID: "u1", ProductID: product.ID, Quantity: intPtr(0)})
	require.NoError(t, err)
	assert.Equal(t, 2, zero.Quantity)

	var user models.User
	require.NoError(t, client.DB().First(&user, "id = ?", "u1").Error)
	assert.Equal(t, "u1@placeholder.com", user.Email)
}

func TestAddMergesQuantity(t *testing.T) {
	svc, client := newTestService(t)
	product := dbtest.SeedProduct(t, client, "Sneaker Ayakkabı", "799.00")
	ctx := context.Background()

	first, err := svc.Add(ctx, AddInput{UserID: "u1", ProductID: product.ID, Quantity: intPtr(2)})
	require.NoError(t, err)
	second, err := svc.Add(ctx, AddInput{UserID: "u1", ProductID: product.ID, Quantity: intPtr(3)})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 5, second.Quantity)

	items, err := svc.List(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 5, items[0].Quantity)
}

func TestAddConcurrentRequestsKeepOneRow(t *testing.T) {
	svc, client := newTestService(t)
	product := dbtest.SeedProduct(t, client, "Deri Omuz Çantası", "699.00")
	ctx := context.Background()

	const workers = 10
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Add(ctx, AddInput{UserID: "racer", ProductID: product.ID})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	items, err := svc.List(ctx, "racer")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, workers, items[0].Quantity)
}

func TestAddValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	cases := []struct {
		name  string
		input AddInput
	}{
		{name: "missing user", input: AddInput{ProductID: 1}},
		{name: "blank user", input: AddInput{UserID: "  ", ProductID: 1}},
		{name: "missing product", input: AddInput{UserID: "u1"}},
		{name: "negative quantity", input: AddInput{UserID: "u1", ProductID: 1, Quantity: intPtr(-2)}},
		{name: "quantity above column range", input: AddInput{UserID: "u1", ProductID: 1, Quantity: intPtr(math.MaxInt32 + 1)}},
		{name: "product id above column range", input: AddInput{UserID: "u1", ProductID: math.MaxInt64 + 1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Add(ctx, tc.input)
			assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "got %v", err)
		})
	}
}

func TestAddUnknownProductIsNotFound(t *testing.T) {
	svc, client := newTestService(t)

	_, err := svc.Add(context.Background(), AddInput{UserID: "u1", ProductID: 999})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound), "got %v", err)

	var count int64
	require.NoError(t, client.DB().Model(&models.User{}).Count(&count).Error)
	assert.Zero(t, count, "user creation rolls back with the failed add")
}

func TestListRequiresUser(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.List(context.Background(), "")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	items, err := svc.List(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestAdjust(t *testing.T) {
	svc, client := newTestService(t)
	product := dbtest.SeedProduct(t, client, "Yüksek Bel Jean", "499.00")
	ctx := context.Background()

	item, err := svc.Add(ctx, AddInput{UserID: "u1", ProductID: product.ID, Quantity: intPtr(2)})
	require.NoError(t, err)

	up, err := svc.Adjust(ctx, item.ID, 3)
	require.NoError(t, err)
	require.False(t, up.Deleted)
	assert.Equal(t, 5, up.Item.Quantity)
	require.NotNil(t, up.Item.Product)

	down, err := svc.Adjust(ctx, item.ID, -4)
	require.NoError(t, err)
	assert.Equal(t, 1, down.Item.Quantity)

	gone, err := svc.Adjust(ctx, item.ID, -1)
	require.NoError(t, err)
	assert.True(t, gone.Deleted)
	assert.Nil(t, gone.Item)

	items, err := svc.List(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestAdjustBelowZeroDeletes(t *testing.T) {
	svc, client := newTestService(t)
	product := dbtest.SeedProduct(t, client, "Oversize T-Shirt", "249.90")
	ctx := context.Background()

	item, err := svc.Add(ctx, AddInput{UserID: "u1", ProductID: product.ID})
	require.NoError(t, err)

	res, err := svc.Adjust(ctx, item.ID, -5)
	require.NoError(t, err)
	assert.True(t, res.Deleted)
}

func TestAdjustErrors(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Adjust(ctx, 1, 0)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.Adjust(ctx, 0, 1)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.Adjust(ctx, 42, 1)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestAddMergeBeyondQuantityRangeIsValidation(t *testing.T) {
	svc, client := newTestService(t)
	product := dbtest.SeedProduct(t, client, "Oversize T-Shirt", "249.90")
	ctx := context.Background()

	_, err := svc.Add(ctx, AddInput{UserID: "u1", ProductID: product.ID, Quantity: intPtr(math.MaxInt32)})
	require.NoError(t, err)

	_, err = svc.Add(ctx, AddInput{UserID: "u1", ProductID: product.ID, Quantity: intPtr(1)})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "got %v", err)
	typed := pkgerrors.As(err)
	assert.Equal(t, "quantity would exceed 2147483647", typed.Message())
	assert.Equal(t, map[string]any{"field": "quantity"}, typed.Details())

	items, err := svc.List(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, math.MaxInt32, items[0].Quantity)
}

func TestAdjustBeyondQuantityRangeIsValidation(t *testing.T) {
	svc, client := newTestService(t)
	product := dbtest.SeedProduct(t, client, "Yüksek Bel Jean", "499.00")
	ctx := context.Background()

	item, err := svc.Add(ctx, AddInput{UserID: "u1", ProductID: product.ID, Quantity: intPtr(2)})
	require.NoError(t, err)

	_, err = svc.Adjust(ctx, item.ID, math.MaxInt32-1)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "got %v", err)

	_, err = svc.Adjust(ctx, item.ID, math.MaxInt32+1)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "got %v", err)

	_, err = svc.Adjust(ctx, math.MaxInt64+1, 1)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "got %v", err)

	items, err := svc.List(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Quantity)

	up, err := svc.Adjust(ctx, item.ID, math.MaxInt32-2)
	require.NoError(t, err)
	assert.Equal(t, math.MaxInt32, up.Item.Quantity)
}

func TestRemove(t *testing.T) {
	svc, client := newTestService(t)
	product := dbtest.SeedProduct(t, client, "Oversize T-Shirt", "249.90")
	ctx := context.Background()

	item, err := svc.Add(ctx, AddInput{UserID: "u1", ProductID: product.ID, Quantity: intPtr(4)})
	require.NoError(t, err)

	removed, err := svc.Remove(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, item.ID, removed.ID)
	assert.Equal(t, 4, removed.Quantity)

	_, err = svc.Remove(ctx, item.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

type failingTx struct{ err error }

func (f failingTx) WithTx(context.Context, func(tx *gorm.DB) error) error { return f.err }

func TestStorageFailuresArePersistenceErrors(t *testing.T) {
	client := dbtest.OpenSQLite(t)
	cause := errors.New("connection reset")
	svc, err := NewService(ServiceParams{
		Repo:  NewRepository(client.DB()),
		Users: users.NewRepository(client.DB()),
		Tx:    failingTx{err: cause},
	})
	require.NoError(t, err)

	_, err = svc.Add(context.Background(), AddInput{UserID: "u1", ProductID: 1})
	require.ErrorIs(t, err, cause)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeInternal, typed.Code())
	assert.Equal(t, map[string]any{"op": "cart.add"}, typed.Details())
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	_, err := NewService(ServiceParams{})
	assert.Error(t, err)
}
