package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/charbel0004/Unishelf-sub000/internal/domain"
	"github.com/charbel0004/Unishelf-sub000/internal/infra/cache"
	"github.com/charbel0004/Unishelf-sub000/internal/repository"
	"github.com/charbel0004/Unishelf-sub000/internal/security"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const maxPageSize = 100

type CatalogService struct {
	store repository.Store
	ids   security.Obfuscator
	cache cache.Cache
	log   zerolog.Logger
}

func NewCatalogService(store repository.Store, ids security.Obfuscator) *CatalogService {
	return &CatalogService{store: store, ids: ids, cache: cache.Nop{}, log: zerolog.Nop()}
}

func (s *CatalogService) SetCache(c cache.Cache) { s.cache = c }

func (s *CatalogService) SetLogger(l zerolog.Logger) { s.log = l }

type ProductQuery struct {
	Search        string
	OnlyAvailable bool
	Limit, Offset int
}

// cacheable is the storefront landing listing: every available product,
// first page, no search.
func (q ProductQuery) cacheable() bool {
	return q.OnlyAvailable && q.Search == "" && q.Offset == 0 && q.Limit == 0
}

func (s *CatalogService) ListProducts(ctx context.Context, q ProductQuery) ([]domain.Product, error) {
	if q.Limit > maxPageSize {
		q.Limit = maxPageSize
	}
	if q.cacheable() {
		var cached []domain.Product
		if found, err := s.cache.Get(ctx, cache.ProductListKey, &cached); err == nil && found {
			return cached, nil
		}
	}

	out, err := s.store.Products().List(ctx, repository.ProductFilter{
		Search:        strings.TrimSpace(q.Search),
		OnlyAvailable: q.OnlyAvailable,
		Limit:         q.Limit,
		Offset:        q.Offset,
	})
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	if q.cacheable() {
		if err := s.cache.Set(ctx, cache.ProductListKey, out); err != nil {
			loggerFrom(ctx, &s.log).Warn().Err(err).Msg("product list cache write failed")
		}
	}
	return out, nil
}

func (s *CatalogService) GetProduct(ctx context.Context, opaqueID string) (*domain.Product, error) {
	id, err := s.ids.Decode(opaqueID)
	if err != nil {
		return nil, fmt.Errorf("productID: %w", err)
	}
	p, err := s.store.Products().FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load product: %w", err)
	}
	if p == nil {
		return nil, domain.ErrProductNotFound
	}
	return p, nil
}

type CreateProductInput struct {
	Name        string
	Description string
	Price       decimal.Decimal
	Quantity    *int
	Available   *bool
}

func (in CreateProductInput) Validate() error {
	v := domain.NewValidationError()
	if strings.TrimSpace(in.Name) == "" {
		v.Add("name", "is required")
	}
	if in.Price.IsNegative() {
		v.Add("price", "must not be negative")
	}
	if in.Quantity != nil && *in.Quantity < 0 {
		v.Add("quantity", "must not be negative")
	}
	return v.OrNil()
}

func (s *CatalogService) CreateProduct(ctx context.Context, p *security.Principal, in CreateProductInput) (*domain.Product, error) {
	if !p.IsManager() {
		return nil, domain.ErrForbidden
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	prod := &domain.Product{
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Price:       in.Price,
		Quantity:    in.Quantity,
		Available:   true,
	}
	if in.Available != nil {
		prod.Available = *in.Available
	}
	if prod.Quantity != nil && *prod.Quantity == 0 {
		prod.Available = false
	}
	if err := s.store.Products().Create(ctx, prod); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	s.dropListing(ctx)
	return prod, nil
}

// AdjustStock overwrites the stock figures of a product. A tracked quantity
// of zero always leaves the product unavailable.
func (s *CatalogService) AdjustStock(ctx context.Context, p *security.Principal, opaqueID string, quantity *int, available *bool) (*domain.Product, error) {
	if !p.IsStaff() {
		return nil, domain.ErrForbidden
	}
	if quantity != nil && *quantity < 0 {
		v := domain.NewValidationError()
		v.Add("quantity", "must not be negative")
		return nil, v
	}
	id, err := s.ids.Decode(opaqueID)
	if err != nil {
		return nil, fmt.Errorf("productID: %w", err)
	}

	var prod *domain.Product
	err = s.store.WithinTx(ctx, func(tx repository.Store) error {
		pr, err := tx.Products().FindForUpdate(ctx, id)
		if err != nil {
			return fmt.Errorf("load product: %w", err)
		}
		if pr == nil {
			return domain.ErrProductNotFound
		}
		if quantity != nil {
			q := *quantity
			pr.Quantity = &q
			pr.Available = q > 0
		}
		if available != nil {
			pr.Available = *available
		}
		if pr.Quantity != nil && *pr.Quantity == 0 {
			pr.Available = false
		}
		if err := tx.Products().SaveStock(ctx, pr); err != nil {
			return fmt.Errorf("save stock: %w", err)
		}
		prod = pr
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.dropListing(ctx)
	return prod, nil
}

func (s *CatalogService) dropListing(ctx context.Context) {
	if err := s.cache.Delete(ctx, cache.ProductListKey); err != nil {
		loggerFrom(ctx, &s.log).Warn().Err(err).Msg("product list cache invalidation failed")
	}
}
