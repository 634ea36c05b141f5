// Package catalog loads the product listing from the backend and keeps
// the last successful result available for rendering and lookups.
package catalog

import (
	"context"
	"sort"
	"strings"

	"github.com/jfcardenas/storefront-core/pkg/api"
	"github.com/jfcardenas/storefront-core/pkg/errors"
	"github.com/jfcardenas/storefront-core/pkg/logger"
	"github.com/jfcardenas/storefront-core/pkg/state"
)

type listClient interface {
	ListProducts(ctx context.Context, token string) ([]api.Product, error)
}

// ServiceParams holds the dependencies for the catalog service.
type ServiceParams struct {
	Client    listClient
	Logger    *logger.Logger
	TokenFunc func() string
}

// Service fetches products and caches the most recent listing.
type Service struct {
	client   listClient
	logg     *logger.Logger
	token    func() string
	products *state.Value[[]api.Product]
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Client == nil {
		return nil, errors.New(errors.CodeInternal, "catalog: client is required")
	}
	if params.Logger == nil {
		params.Logger = logger.New(logger.Options{ServiceName: "catalog"})
	}
	if params.TokenFunc == nil {
		params.TokenFunc = func() string { return "" }
	}

	return &Service{
		client:   params.Client,
		logg:     params.Logger,
		token:    params.TokenFunc,
		products: state.NewValue[[]api.Product](nil),
	}, nil
}

// Refresh fetches the listing from the backend. Inactive products are
// dropped and the rest are sorted by name so rendering is stable. The
// cached listing is only replaced on success.
func (s *Service) Refresh(ctx context.Context) ([]api.Product, error) {
	listing, err := s.client.ListProducts(ctx, s.token())
	if err != nil {
		s.logg.Warn(ctx, "catalog refresh failed: "+err.Error())
		return nil, errors.Wrap(errors.CodeTransport, err, "catalog: list products")
	}

	active := make([]api.Product, 0, len(listing))
	for _, product := range listing {
		if product.Active {
			active = append(active, product)
		}
	}
	sort.Slice(active, func(i, j int) bool { return active[i].Name < active[j].Name })

	s.products.Set(active)
	s.logg.Debug(ctx, "catalog refreshed")
	return active, nil
}

// Products exposes the cached listing as an observable.
func (s *Service) Products() *state.Value[[]api.Product] {
	return s.products
}

// ByID looks up a product in the cached listing.
func (s *Service) ByID(id int64) (api.Product, bool) {
	for _, product := range s.products.Get() {
		if product.ID == id {
			return product, true
		}
	}
	return api.Product{}, false
}

// Featured returns up to limit in-stock products for the landing view.
func (s *Service) Featured(limit int) []api.Product {
	if limit <= 0 {
		return nil
	}

	featured := make([]api.Product, 0, limit)
	for _, product := range s.products.Get() {
		if product.Stock <= 0 {
			continue
		}
		featured = append(featured, product)
		if len(featured) == limit {
			break
		}
	}
	return featured
}

// Search filters the cached listing by a case-insensitive name match.
// An empty term returns the full listing.
func (s *Service) Search(term string) []api.Product {
	listing := s.products.Get()
	term = strings.TrimSpace(strings.ToLower(term))
	if term == "" {
		return append([]api.Product(nil), listing...)
	}

	matches := make([]api.Product, 0, len(listing))
	for _, product := range listing {
		if strings.Contains(strings.ToLower(product.Name), term) {
			matches = append(matches, product)
		}
	}
	return matches
}
