// Package store provides an interface for product storage operations.
package store

import (
	"context"
	"time"
)

// Product is the storage-neutral representation of a catalog product.
// ID is the public, store-assigned identifier: an ObjectID hex string for the
// document backend, a UUID string for the relational backend.
type Product struct {
	ID            string
	Name          string
	Description   string
	DescriptionAm string
	DescriptionOm string
	Price         float64
	Stock         int
	Category      string
	ImageBase64   string
	Unit          string
	Origin        string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ProductPatch describes a partial update. Only non-nil fields are applied;
// the store refreshes UpdatedAt on every applied patch.
type ProductPatch struct {
	Name          *string
	Description   *string
	DescriptionAm *string
	DescriptionOm *string
	Price         *float64
	Stock         *int
	Category      *string
	ImageBase64   *string
	Unit          *string
	Origin        *string
}

// IsEmpty reports whether the patch carries no fields at all.
func (p ProductPatch) IsEmpty() bool {
	return p.Name == nil && p.Description == nil && p.DescriptionAm == nil &&
		p.DescriptionOm == nil && p.Price == nil && p.Stock == nil &&
		p.Category == nil && p.ImageBase64 == nil && p.Unit == nil && p.Origin == nil
}

// ProductPage is one page of a list result together with the total match count.
type ProductPage struct {
	Items []Product
	Total int64
}

// Stats holds the aggregate figures computed in a single pass over the
// full collection. All fields are zero when the collection is empty.
type Stats struct {
	Total      int64   `json:"total"`
	LowStock   int64   `json:"lowStock"`
	OutOfStock int64   `json:"outOfStock"`
	TotalValue float64 `json:"totalValue"`
}

// ProductStore is an interface for product storage operations.
// It abstracts the underlying data store, allowing for different
// implementations (document store, relational store, in-memory for tests).
type ProductStore interface {
	// List returns one page of products matching the query plus the total
	// match count. Returns an empty page if nothing matches.
	List(ctx context.Context, q ListQuery) (*ProductPage, error)

	// FindByID retrieves a single product by its identifier.
	// Returns ErrInvalidProductID if the ID is not in the store's native
	// format, ErrProductNotFound if no product exists with the given ID.
	FindByID(ctx context.Context, id string) (*Product, error)

	// Create adds a new product. The store assigns the identifier and both
	// timestamps and returns the stored product.
	Create(ctx context.Context, p *Product) (*Product, error)

	// Update applies a partial update and returns the updated product.
	// Unset patch fields are left unchanged; UpdatedAt always refreshes.
	// Returns ErrInvalidProductID or ErrProductNotFound like FindByID.
	Update(ctx context.Context, id string, patch ProductPatch) (*Product, error)

	// Delete removes a product by its ID. Hard delete, no tombstone.
	// Returns ErrInvalidProductID or ErrProductNotFound like FindByID.
	Delete(ctx context.Context, id string) error

	// Categories returns the distinct non-empty category values.
	Categories(ctx context.Context) ([]string, error)

	// Stats recomputes the aggregate stats from current state.
	Stats(ctx context.Context) (*Stats, error)
}
