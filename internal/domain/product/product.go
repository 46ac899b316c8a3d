// Package product models the flower catalog. The order ledger reads it to
// snapshot title, image, and price at creation time; changing a catalog
// record never alters historical orders.
package product

import (
	"context"

	"github.com/shopspring/decimal"
)

// Product is a catalog entry for a stock arrangement.
type Product struct {
	ID            string
	Title         string
	Description   string
	Price         decimal.Decimal
	DurationHours int
	Images        []string
}

// FirstImage returns the primary catalog image, or an empty string when the
// product has none.
func (p Product) FirstImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}

// Repository defines catalog persistence. List and GetByID serve the order
// ledger; Create and Delete back the admin catalog screens.
type Repository interface {
	List(ctx context.Context) ([]Product, error)
	GetByID(ctx context.Context, id string) (*Product, error)
	Create(ctx context.Context, p *Product) error
	Delete(ctx context.Context, id string) error
}
