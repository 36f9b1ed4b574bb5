package catalog

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/storefront-kit/pricing-api/internal/obs"
)

// productSource captures the storage methods the service needs.
type productSource interface {
	ProductByID(ctx context.Context, id string) (*Product, error)
	PriceForCustomer(ctx context.Context, customerID, productID string) (*decimal.Decimal, error)
	QuantityInCarts(ctx context.Context, customerID, productID string, cartType CartType) (int, error)
	CustomerByID(ctx context.Context, id string) (*Customer, error)
}

// Service fronts the catalog repository with a read-through product cache.
// Customer prices and cart quantities bypass the cache.
type Service struct {
	repo  productSource
	cache *Cache
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Repo  productSource
	Cache *Cache
}

// NewService constructs a Service instance.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Repo == nil {
		return nil, errors.New("catalog: repository is required")
	}
	return &Service{repo: cfg.Repo, cache: cfg.Cache}, nil
}

// ProductByID returns the product aggregate, served from cache when present.
// A missing product is reported as (nil, nil) and is not cached.
func (s *Service) ProductByID(ctx context.Context, id string) (*Product, error) {
	if id == "" {
		return nil, nil
	}
	key := productCacheKey(id)
	if s.cache != nil {
		var cached Product
		ok, err := s.cache.GetJSON(ctx, key, &cached)
		if err == nil && ok {
			countCacheLookup("hit")
			return &cached, nil
		}
		countCacheLookup("miss")
	}
	product, err := s.repo.ProductByID(ctx, id)
	if err != nil || product == nil {
		return product, err
	}
	if s.cache != nil {
		_ = s.cache.SetJSON(ctx, key, product)
	}
	return product, nil
}

func countCacheLookup(result string) {
	if obs.ProductCacheTotal != nil {
		obs.ProductCacheTotal.WithLabelValues(result).Inc()
	}
}

// InvalidateProduct drops the cached aggregate after a catalog change.
func (s *Service) InvalidateProduct(ctx context.Context, id string) error {
	if s.cache == nil || id == "" {
		return nil
	}
	return s.cache.Invalidate(ctx, productCacheKey(id))
}

// PriceForCustomer proxies the per-customer price lookup.
func (s *Service) PriceForCustomer(ctx context.Context, customerID, productID string) (*decimal.Decimal, error) {
	return s.repo.PriceForCustomer(ctx, customerID, productID)
}

// QuantityInCarts proxies the grouped cart quantity lookup.
func (s *Service) QuantityInCarts(ctx context.Context, customerID, productID string, cartType CartType) (int, error) {
	return s.repo.QuantityInCarts(ctx, customerID, productID, cartType)
}

// CustomerByID proxies customer resolution.
func (s *Service) CustomerByID(ctx context.Context, id string) (*Customer, error) {
	return s.repo.CustomerByID(ctx, id)
}
