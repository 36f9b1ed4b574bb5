package catalog_test

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/storefront-kit/pricing-api/internal/catalog"
)

type stubRepo struct {
	products map[string]*catalog.Product
	loads    int
}

func (s *stubRepo) ProductByID(_ context.Context, id string) (*catalog.Product, error) {
	s.loads++
	return s.products[id], nil
}

func (s *stubRepo) PriceForCustomer(context.Context, string, string) (*decimal.Decimal, error) {
	return nil, nil
}

func (s *stubRepo) QuantityInCarts(context.Context, string, string, catalog.CartType) (int, error) {
	return 0, nil
}

func (s *stubRepo) CustomerByID(context.Context, string) (*catalog.Customer, error) {
	return nil, nil
}

func testService(t *testing.T, repo *stubRepo) *catalog.Service {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	svc, err := catalog.NewService(catalog.ServiceConfig{
		Repo:  repo,
		Cache: catalog.NewCache(client, time.Minute),
	})
	require.NoError(t, err)
	return svc
}

func TestProductByIDReadThrough(t *testing.T) {
	product := &catalog.Product{
		ID:    "p1",
		Name:  "Widget",
		Price: decimal.RequireFromString("49.99"),
		TierPrices: []catalog.TierPrice{
			{Quantity: 10, Price: decimal.RequireFromString("45")},
		},
	}
	repo := &stubRepo{products: map[string]*catalog.Product{"p1": product}}
	svc := testService(t, repo)
	ctx := context.Background()

	first, err := svc.ProductByID(ctx, "p1")
	require.NoError(t, err)
	require.NotNil(t, first)
	require.Equal(t, 1, repo.loads)

	second, err := svc.ProductByID(ctx, "p1")
	require.NoError(t, err)
	require.NotNil(t, second)
	require.Equal(t, 1, repo.loads, "second lookup must be served from cache")
	require.True(t, second.Price.Equal(product.Price))
	require.Len(t, second.TierPrices, 1)
}

func TestProductByIDMissingNotCached(t *testing.T) {
	repo := &stubRepo{products: map[string]*catalog.Product{}}
	svc := testService(t, repo)
	ctx := context.Background()

	p, err := svc.ProductByID(ctx, "ghost")
	require.NoError(t, err)
	require.Nil(t, p)

	_, err = svc.ProductByID(ctx, "ghost")
	require.NoError(t, err)
	require.Equal(t, 2, repo.loads, "missing products must not be cached")
}

func TestInvalidateProduct(t *testing.T) {
	product := &catalog.Product{ID: "p1", Price: decimal.NewFromInt(10)}
	repo := &stubRepo{products: map[string]*catalog.Product{"p1": product}}
	svc := testService(t, repo)
	ctx := context.Background()

	_, err := svc.ProductByID(ctx, "p1")
	require.NoError(t, err)
	require.NoError(t, svc.InvalidateProduct(ctx, "p1"))

	_, err = svc.ProductByID(ctx, "p1")
	require.NoError(t, err)
	require.Equal(t, 2, repo.loads)
}
