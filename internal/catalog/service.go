package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/watt-media-api/internal/obs"
	"github.com/noah-isme/watt-media-api/internal/paths"
	"github.com/noah-isme/watt-media-api/internal/pricing"
	"github.com/noah-isme/watt-media-api/internal/resilience"
)

// ServiceView is the API shape of a ServiceSummary with site links resolved.
type ServiceView struct {
	ID                   string        `json:"id"`
	Name                 string        `json:"name"`
	Route                string        `json:"route"`
	Description          string        `json:"description"`
	Image                string        `json:"image"`
	Alt                  string        `json:"alt"`
	StartingPrice        pricing.Value `json:"startingPrice"`
	StartingPriceDisplay string        `json:"startingPriceDisplay"`
}

// PricedItem is an item with its original and discounted price.
type PricedItem struct {
	ID              string        `json:"id"`
	Label           string        `json:"label"`
	Notes           string        `json:"notes,omitempty"`
	Price           pricing.Value `json:"price"`
	Adjusted        pricing.Value `json:"adjusted"`
	Display         string        `json:"display"`
	AdjustedDisplay string        `json:"adjustedDisplay"`
}

// PricedGroup is a Group with every item priced.
type PricedGroup struct {
	ID          string       `json:"id"`
	ServiceName string       `json:"serviceName"`
	Blurb       string       `json:"blurb"`
	Items       []PricedItem `json:"items"`
}

// PriceList is the full catalog priced at one discount.
type PriceList struct {
	Discount int64         `json:"discount"`
	Groups   []PricedGroup `json:"groups"`
}

// Service serves read-only catalog views.
type Service struct {
	catalog  *Catalog
	resolver paths.Resolver
	cache    *Cache
	logger   zerolog.Logger
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Catalog  *Catalog
	Resolver paths.Resolver
	Cache    *Cache
	Logger   zerolog.Logger
}

// NewService constructs a Service. Catalog must be non-nil.
func NewService(cfg ServiceConfig) *Service {
	return &Service{
		catalog:  cfg.Catalog,
		resolver: cfg.Resolver,
		cache:    cfg.Cache,
		logger:   cfg.Logger,
	}
}

// Services returns the service summaries with routes and images under the
// site base path.
func (s *Service) Services() []ServiceView {
	out := make([]ServiceView, 0, len(s.catalog.Services))
	for _, svc := range s.catalog.Services {
		out = append(out, ServiceView{
			ID:                   svc.ID,
			Name:                 svc.Name,
			Route:                s.resolver.AddBasePath(svc.Route),
			Description:          svc.Description,
			Image:                s.resolver.AddBasePath(svc.Image),
			Alt:                  svc.Alt,
			StartingPrice:        pricing.ValueOf(svc.StartingPrice),
			StartingPriceDisplay: pricing.FormatPrice(svc.StartingPrice),
		})
	}
	return out
}

// Groups returns the undiscounted offer groups.
func (s *Service) Groups() []Group {
	return s.catalog.Groups
}

// Priced returns every group priced at discount. Non-positive discounts give
// the undiscounted list. Results are cached when Redis is configured; cache
// failures are logged and bypassed.
func (s *Service) Priced(ctx context.Context, discount int64) PriceList {
	if discount < 0 {
		discount = 0
	}
	key := pricedKey(discount)

	if s.cache.Enabled() {
		var cached PriceList
		hit, err := s.cache.GetJSON(ctx, key, &cached)
		switch {
		case errors.Is(err, resilience.ErrOpenCircuit):
			obs.CountCatalogCache("bypass")
		case err != nil:
			obs.CountCatalogCache("error")
			s.logger.Warn().Err(err).Str("key", key).Msg("catalog cache read failed")
		case hit:
			obs.CountCatalogCache("hit")
			return cached
		default:
			obs.CountCatalogCache("miss")
		}
	}

	list := s.price(discount)

	if s.cache.Enabled() {
		if err := s.cache.SetJSON(ctx, key, list); err != nil && !errors.Is(err, resilience.ErrOpenCircuit) {
			s.logger.Warn().Err(err).Str("key", key).Msg("catalog cache write failed")
		}
	}
	return list
}

// Warm fills the cache for each discount concurrently.
func (s *Service) Warm(ctx context.Context, discounts ...int64) error {
	if !s.cache.Enabled() {
		return nil
	}
	g, gctx := errgroup.WithContext(ctx)
	for _, d := range discounts {
		g.Go(func() error {
			if err := s.cache.SetJSON(gctx, pricedKey(d), s.price(d)); err != nil {
				return fmt.Errorf("warm discount %d: %w", d, err)
			}
			return nil
		})
	}
	return g.Wait()
}

func (s *Service) price(discount int64) PriceList {
	list := PriceList{Discount: discount, Groups: make([]PricedGroup, 0, len(s.catalog.Groups))}
	for _, g := range s.catalog.Groups {
		pg := PricedGroup{ID: g.ID, ServiceName: g.ServiceName, Blurb: g.Blurb, Items: make([]PricedItem, 0, len(g.Items))}
		for _, item := range g.Items {
			adjusted := pricing.ApplyDiscount(item.Price, discount).Adjusted
			pg.Items = append(pg.Items, PricedItem{
				ID:              item.ID,
				Label:           item.Label,
				Notes:           item.Notes,
				Price:           pricing.ValueOf(item.Price),
				Adjusted:        pricing.ValueOf(adjusted),
				Display:         pricing.FormatPrice(item.Price),
				AdjustedDisplay: pricing.FormatPrice(adjusted),
			})
		}
		list.Groups = append(list.Groups, pg)
	}
	return list
}
