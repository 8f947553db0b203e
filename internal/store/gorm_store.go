package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	cerrors "github.com/gebeya/catalog/internal/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore implements ProductStore on a relational database through GORM.
// The default deployment uses embedded SQLite; PostgreSQL is selectable via
// configuration without code changes.
type GormStore struct {
	db *gorm.DB
}

// productRow is the relational row shape. GORM maintains CreatedAt on insert
// and UpdatedAt on every Updates call.
type productRow struct {
	ID            string  `gorm:"primaryKey;type:varchar(36)"`
	Name          string  `gorm:"index;not null"`
	Description   string
	DescriptionAm string
	DescriptionOm string
	Price         float64 `gorm:"index;not null"`
	Stock         int     `gorm:"not null;default:0"`
	Category      string  `gorm:"index"`
	ImageBase64   string
	Unit          string
	Origin        string
	CreatedAt     time.Time `gorm:"index"`
	UpdatedAt     time.Time
}

func (productRow) TableName() string { return "products" }

// NewGormStore creates a relational ProductStore and migrates its schema.
func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if err := db.AutoMigrate(&productRow{}); err != nil {
		return nil, fmt.Errorf("failed to migrate products table: %w", err)
	}
	return &GormStore{db: db}, nil
}

// List returns one page of products matching the query plus the total count.
// All filter values travel as bind parameters; nothing is concatenated into SQL.
func (s *GormStore) List(ctx context.Context, q ListQuery) (*ProductPage, error) {
	tx := s.applyFilters(s.db.WithContext(ctx).Model(&productRow{}), q)

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}

	tx = s.applyOrder(tx, q).Offset(q.Offset()).Limit(q.Limit)

	var rows []productRow
	if err := tx.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	items := make([]Product, len(rows))
	for i := range rows {
		items[i] = *rows[i].toProduct()
	}
	return &ProductPage{Items: items, Total: total}, nil
}

// applyFilters translates the ListQuery filters into parameterized WHERE clauses.
func (s *GormStore) applyFilters(tx *gorm.DB, q ListQuery) *gorm.DB {
	if q.Category != "" {
		tx = tx.Where("category = ?", q.Category)
	}
	if q.MinPrice != nil {
		tx = tx.Where("price >= ?", *q.MinPrice)
	}
	if q.MaxPrice != nil {
		tx = tx.Where("price <= ?", *q.MaxPrice)
	}
	if q.Search != "" {
		pattern := "%" + strings.ToLower(q.Search) + "%"
		tx = tx.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", pattern, pattern)
	}
	return tx
}

// applyOrder sorts newest first, ranking name matches ahead of
// description-only matches when a search term is active.
func (s *GormStore) applyOrder(tx *gorm.DB, q ListQuery) *gorm.DB {
	if q.Search != "" {
		pattern := "%" + strings.ToLower(q.Search) + "%"
		tx = tx.Clauses(clause.OrderBy{Expression: clause.Expr{
			SQL:                "CASE WHEN LOWER(name) LIKE ? THEN 0 ELSE 1 END, created_at DESC",
			Vars:               []any{pattern},
			WithoutParentheses: true,
		}})
		return tx
	}
	return tx.Order("created_at DESC")
}

// FindByID retrieves a product by its identifier.
func (s *GormStore) FindByID(ctx context.Context, id string) (*Product, error) {
	if err := validateUUID(id); err != nil {
		return nil, err
	}

	var row productRow
	if err := s.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, cerrors.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product by ID: %w", err)
	}
	return row.toProduct(), nil
}

// Create inserts a new product with a store-assigned UUID.
func (s *GormStore) Create(ctx context.Context, p *Product) (*Product, error) {
	row := rowFromProduct(p)
	row.ID = uuid.NewString()

	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return row.toProduct(), nil
}

// Update applies the non-nil patch fields. The existence check runs first so
// a missing row never reaches the UPDATE.
func (s *GormStore) Update(ctx context.Context, id string, patch ProductPatch) (*Product, error) {
	if err := validateUUID(id); err != nil {
		return nil, err
	}

	var row productRow
	if err := s.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, cerrors.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product for update: %w", err)
	}

	updates := patchColumns(patch)
	if err := s.db.WithContext(ctx).Model(&row).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	if err := s.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("failed to reload product after update: %w", err)
	}
	return row.toProduct(), nil
}

// Delete removes a product by its ID.
func (s *GormStore) Delete(ctx context.Context, id string) error {
	if err := validateUUID(id); err != nil {
		return err
	}

	res := s.db.WithContext(ctx).Delete(&productRow{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete product: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return cerrors.ErrProductNotFound
	}
	return nil
}

// Categories returns the distinct non-empty category values, sorted.
func (s *GormStore) Categories(ctx context.Context) ([]string, error) {
	var categories []string
	err := s.db.WithContext(ctx).
		Model(&productRow{}).
		Distinct("category").
		Where("category IS NOT NULL AND category <> ''").
		Order("category").
		Pluck("category", &categories).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

// Stats computes the aggregate stats in a single SELECT.
func (s *GormStore) Stats(ctx context.Context) (*Stats, error) {
	var stats Stats
	err := s.db.WithContext(ctx).
		Model(&productRow{}).
		Select(
			"COUNT(*) AS total, " +
				"COALESCE(SUM(CASE WHEN stock > 0 AND stock <= 5 THEN 1 ELSE 0 END), 0) AS low_stock, " +
				"COALESCE(SUM(CASE WHEN stock = 0 THEN 1 ELSE 0 END), 0) AS out_of_stock, " +
				"COALESCE(SUM(price * stock), 0) AS total_value").
		Scan(&stats).Error
	if err != nil {
		return nil, fmt.Errorf("failed to compute product stats: %w", err)
	}
	return &stats, nil
}

// validateUUID rejects identifiers that are not in the relational backend's
// native UUID format before any query runs.
func validateUUID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return cerrors.ErrInvalidProductID
	}
	return nil
}

// patchColumns converts a patch into the column map handed to Updates.
// GORM refreshes updated_at on every Updates call, even when the map only
// rewrites existing values.
func patchColumns(patch ProductPatch) map[string]any {
	updates := map[string]any{}
	if patch.Name != nil {
		updates["name"] = *patch.Name
	}
	if patch.Description != nil {
		updates["description"] = *patch.Description
	}
	if patch.DescriptionAm != nil {
		updates["description_am"] = *patch.DescriptionAm
	}
	if patch.DescriptionOm != nil {
		updates["description_om"] = *patch.DescriptionOm
	}
	if patch.Price != nil {
		updates["price"] = *patch.Price
	}
	if patch.Stock != nil {
		updates["stock"] = *patch.Stock
	}
	if patch.Category != nil {
		updates["category"] = *patch.Category
	}
	if patch.ImageBase64 != nil {
		updates["image_base64"] = *patch.ImageBase64
	}
	if patch.Unit != nil {
		updates["unit"] = *patch.Unit
	}
	if patch.Origin != nil {
		updates["origin"] = *patch.Origin
	}
	return updates
}

func (r *productRow) toProduct() *Product {
	return &Product{
		ID:            r.ID,
		Name:          r.Name,
		Description:   r.Description,
		DescriptionAm: r.DescriptionAm,
		DescriptionOm: r.DescriptionOm,
		Price:         r.Price,
		Stock:         r.Stock,
		Category:      r.Category,
		ImageBase64:   r.ImageBase64,
		Unit:          r.Unit,
		Origin:        r.Origin,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

func rowFromProduct(p *Product) *productRow {
	return &productRow{
		Name:          p.Name,
		Description:   p.Description,
		DescriptionAm: p.DescriptionAm,
		DescriptionOm: p.DescriptionOm,
		Price:         p.Price,
		Stock:         p.Stock,
		Category:      p.Category,
		ImageBase64:   p.ImageBase64,
		Unit:          p.Unit,
		Origin:        p.Origin,
	}
}
