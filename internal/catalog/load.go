// Package catalog holds the services and price lists shown on the site and
// derives discounted views of them.
package catalog

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"

	validator "github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/noah-isme/watt-media-api/internal/pricing"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// ErrInvalidCatalog is returned when catalog data fails validation.
var ErrInvalidCatalog = errors.New("invalid catalog")

// ServiceSummary is a top-level offering linked from the services page.
type ServiceSummary struct {
	ID            string
	Name          string
	Route         string
	Description   string
	Image         string
	Alt           string
	StartingPrice pricing.Price
}

// Item is a single priced line in an offer group.
type Item struct {
	ID    string
	Label string
	Notes string
	Price pricing.Price
}

// Group is the price list for one service.
type Group struct {
	ID          string
	ServiceName string
	Blurb       string
	Items       []Item
}

// Catalog is the immutable set of services and price groups.
type Catalog struct {
	Services []ServiceSummary
	Groups   []Group
}

type catalogFile struct {
	Services []serviceRecord `yaml:"services" validate:"required,min=1,dive"`
	Groups   []groupRecord   `yaml:"groups" validate:"required,min=1,dive"`
}

type serviceRecord struct {
	ID            string        `yaml:"id" validate:"required"`
	Name          string        `yaml:"name" validate:"required"`
	Route         string        `yaml:"route" validate:"required,startswith=/"`
	Description   string        `yaml:"description"`
	Image         string        `yaml:"image" validate:"required"`
	Alt           string        `yaml:"alt" validate:"required"`
	StartingPrice pricing.Value `yaml:"startingPrice"`
}

type groupRecord struct {
	ID          string       `yaml:"id" validate:"required"`
	ServiceName string       `yaml:"serviceName" validate:"required"`
	Blurb       string       `yaml:"blurb"`
	Items       []itemRecord `yaml:"items" validate:"required,min=1,dive"`
}

type itemRecord struct {
	ID    string        `yaml:"id" validate:"required"`
	Label string        `yaml:"label" validate:"required"`
	Notes string        `yaml:"notes"`
	Price pricing.Value `yaml:"price"`
}

var validate = validator.New()

// LoadDefault parses the catalog compiled into the binary.
func LoadDefault() (*Catalog, error) {
	return Load(defaultCatalog)
}

// Load parses and validates YAML catalog data. Ids must be unique among
// services, among groups and among items across all groups.
func Load(data []byte) (*Catalog, error) {
	var file catalogFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrInvalidCatalog, err)
	}
	if err := validate.Struct(file); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}

	out := &Catalog{
		Services: make([]ServiceSummary, 0, len(file.Services)),
		Groups:   make([]Group, 0, len(file.Groups)),
	}

	seen := map[string]struct{}{}
	for _, rec := range file.Services {
		if err := claim(seen, "service", rec.ID); err != nil {
			return nil, err
		}
		price, err := rec.StartingPrice.Price()
		if err != nil {
			return nil, fmt.Errorf("%w: service %s: %v", ErrInvalidCatalog, rec.ID, err)
		}
		out.Services = append(out.Services, ServiceSummary{
			ID:            rec.ID,
			Name:          rec.Name,
			Route:         rec.Route,
			Description:   rec.Description,
			Image:         rec.Image,
			Alt:           rec.Alt,
			StartingPrice: price,
		})
	}

	groupIDs := map[string]struct{}{}
	itemIDs := map[string]struct{}{}
	for _, rec := range file.Groups {
		if err := claim(groupIDs, "group", rec.ID); err != nil {
			return nil, err
		}
		group := Group{ID: rec.ID, ServiceName: rec.ServiceName, Blurb: rec.Blurb, Items: make([]Item, 0, len(rec.Items))}
		for _, item := range rec.Items {
			if err := claim(itemIDs, "item", item.ID); err != nil {
				return nil, err
			}
			price, err := item.Price.Price()
			if err != nil {
				return nil, fmt.Errorf("%w: item %s: %v", ErrInvalidCatalog, item.ID, err)
			}
			group.Items = append(group.Items, Item{ID: item.ID, Label: item.Label, Notes: item.Notes, Price: price})
		}
		out.Groups = append(out.Groups, group)
	}
	return out, nil
}

func claim(seen map[string]struct{}, kind, id string) error {
	if _, dup := seen[id]; dup {
		return fmt.Errorf("%w: duplicate %s id %q", ErrInvalidCatalog, kind, id)
	}
	seen[id] = struct{}{}
	return nil
}

// Items returns every item across all groups in catalog order.
func (c *Catalog) Items() []Item {
	var items []Item
	for _, g := range c.Groups {
		items = append(items, g.Items...)
	}
	return items
}
