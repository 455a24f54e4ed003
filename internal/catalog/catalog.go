// Package catalog holds the immutable SKU→product lookup table. Products are
// loaded once at startup and never mutated; cart lines snapshot name and price
// at add time so the table can be treated as read-only everywhere.
package catalog

import (
	"errors"
	"fmt"

	"github.com/smallbiznis/tillsync/internal/currency"
	"go.uber.org/fx"
)

// Module provides the default product catalog.
var Module = fx.Provide(Default)

type Category string

const (
	CategoryPizza   Category = "pizza"
	CategorySide    Category = "side"
	CategoryDrink   Category = "drink"
	CategoryDessert Category = "dessert"
)

var (
	ErrDuplicateSKU    = errors.New("duplicate_sku")
	ErrInvalidPrice    = errors.New("invalid_price")
	ErrInvalidCategory = errors.New("invalid_category")
)

// Product is a single sellable catalog entry.
type Product struct {
	SKU      string         `json:"sku"`
	Name     string         `json:"name"`
	Price    currency.Cents `json:"price"`
	Category Category       `json:"category"`
}

// Catalog is an immutable SKU-keyed product table.
type Catalog struct {
	bySKU map[string]Product
	order []string
}

// New builds a catalog, rejecting duplicate SKUs, non-positive prices and
// unknown categories.
func New(products []Product) (*Catalog, error) {
	c := &Catalog{bySKU: make(map[string]Product, len(products))}
	for _, p := range products {
		if _, exists := c.bySKU[p.SKU]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateSKU, p.SKU)
		}
		if p.Price <= 0 {
			return nil, fmt.Errorf("%w: %s", ErrInvalidPrice, p.SKU)
		}
		switch p.Category {
		case CategoryPizza, CategorySide, CategoryDrink, CategoryDessert:
		default:
			return nil, fmt.Errorf("%w: %s has %q", ErrInvalidCategory, p.SKU, p.Category)
		}
		c.bySKU[p.SKU] = p
		c.order = append(c.order, p.SKU)
	}
	return c, nil
}

// Lookup returns the product for sku.
func (c *Catalog) Lookup(sku string) (Product, bool) {
	p, ok := c.bySKU[sku]
	return p, ok
}

// Products returns all products in seed order.
func (c *Catalog) Products() []Product {
	out := make([]Product, 0, len(c.order))
	for _, sku := range c.order {
		out = append(out, c.bySKU[sku])
	}
	return out
}

// ByCategory returns all products of cat in seed order. An empty category
// returns everything.
func (c *Catalog) ByCategory(cat Category) []Product {
	if cat == "" {
		return c.Products()
	}
	var out []Product
	for _, sku := range c.order {
		if p := c.bySKU[sku]; p.Category == cat {
			out = append(out, p)
		}
	}
	return out
}

// Len reports the number of products.
func (c *Catalog) Len() int {
	return len(c.order)
}
