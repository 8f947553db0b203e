// Package service provides the implementation of product catalog business logic.
package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/gebeya/catalog/internal/cache"
	cerrors "github.com/gebeya/catalog/internal/errors"
	"github.com/gebeya/catalog/internal/store"
)

// defaultUnit is applied at creation when the client does not supply one.
const defaultUnit = "unit"

// maxImageBytes caps the decoded size of an inline base64 image at 5MB.
const maxImageBytes = 5 << 20

var (
	imageDataRe = regexp.MustCompile(`^data:image/(png|jpg|jpeg|gif|webp);base64,`)
	imageURLRe  = regexp.MustCompile(`^https?://`)
)

// ProductService defines the catalog operations exposed to transports.
type ProductService interface {
	// List returns one page of products. The default query (no filters,
	// first page, default page size) is served read-through from the cache.
	List(ctx context.Context, q store.ListQuery) (*ProductPageDto, error)

	// FindByID retrieves a single product.
	// Returns ErrInvalidProductID or ErrProductNotFound.
	FindByID(ctx context.Context, id string) (*ProductDto, error)

	// Create adds a new product and invalidates the list cache.
	Create(ctx context.Context, dto ProductCreateDto) (*ProductDto, error)

	// Update applies a partial update and invalidates the list cache.
	// Returns ErrEmptyUpdate when the payload carries no fields.
	Update(ctx context.Context, id string, dto ProductUpdateDto) (*ProductDto, error)

	// DeleteByID removes a product and invalidates the list cache.
	DeleteByID(ctx context.Context, id string) error

	// Categories returns the distinct non-empty category values.
	Categories(ctx context.Context) ([]string, error)

	// Stats recomputes the aggregate stats from current state.
	Stats(ctx context.Context) (*store.Stats, error)
}

// Service implements ProductService. It owns the list cache: reads go
// through it for the default query, every write clears it.
type Service struct {
	repository store.ProductStore
	listCache  *cache.ListCache[ProductPageDto]
}

// NewService creates a ProductService over the given store and cache.
// A nil cache disables default-query caching, which tests rely on.
func NewService(repo store.ProductStore, listCache *cache.ListCache[ProductPageDto]) *Service {
	return &Service{
		repository: repo,
		listCache:  listCache,
	}
}

// ProductDto is the external representation of a product. The internal
// storage identifier surfaces as the public "id" field.
type ProductDto struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description,omitempty"`
	DescriptionAm string    `json:"description_am,omitempty"`
	DescriptionOm string    `json:"description_om,omitempty"`
	Price         float64   `json:"price"`
	Stock         int       `json:"stock"`
	Category      string    `json:"category,omitempty"`
	ImageBase64   string    `json:"image_base64,omitempty"`
	Unit          string    `json:"unit,omitempty"`
	Origin        string    `json:"origin,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ProductPageDto is one page of products plus the total match count.
type ProductPageDto struct {
	Items []ProductDto `json:"items"`
	Total int64        `json:"total"`
}

// ProductCreateDto carries the fields accepted at creation. Price and Stock
// are pointers so a legitimate zero value still satisfies "required".
type ProductCreateDto struct {
	Name          string   `json:"name"           validate:"required,notblank,max=200"`
	Description   string   `json:"description"`
	DescriptionAm string   `json:"description_am"`
	DescriptionOm string   `json:"description_om"`
	Price         *float64 `json:"price"          validate:"required,gte=0"`
	Stock         *int     `json:"stock"          validate:"required,gte=0"`
	Category      string   `json:"category"`
	ImageBase64   string   `json:"image_base64"`
	Unit          string   `json:"unit"`
	Origin        string   `json:"origin"`
}

// ProductUpdateDto carries a partial update: nil fields stay untouched.
type ProductUpdateDto struct {
	Name          *string  `json:"name"           validate:"omitempty,notblank,max=200"`
	Description   *string  `json:"description"`
	DescriptionAm *string  `json:"description_am"`
	DescriptionOm *string  `json:"description_om"`
	Price         *float64 `json:"price"          validate:"omitempty,gte=0"`
	Stock         *int     `json:"stock"          validate:"omitempty,gte=0"`
	Category      *string  `json:"category"`
	ImageBase64   *string  `json:"image_base64"`
	Unit          *string  `json:"unit"`
	Origin        *string  `json:"origin"`
}

// List returns one page of products. Only the default query touches the
// cache; filtered or paginated-off-default requests always hit the store.
func (s *Service) List(ctx context.Context, q store.ListQuery) (*ProductPageDto, error) {
	if s.listCache != nil && q.IsDefault() {
		page, err := s.listCache.GetOrFetch(ctx, func(ctx context.Context) (ProductPageDto, error) {
			p, err := s.list(ctx, q)
			if err != nil {
				return ProductPageDto{}, err
			}
			return *p, nil
		})
		if err != nil {
			return nil, err
		}
		return &page, nil
	}
	return s.list(ctx, q)
}

func (s *Service) list(ctx context.Context, q store.ListQuery) (*ProductPageDto, error) {
	page, err := s.repository.List(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch products: %w", err)
	}

	items := make([]ProductDto, len(page.Items))
	for i := range page.Items {
		items[i] = *toDto(&page.Items[i])
	}
	return &ProductPageDto{Items: items, Total: page.Total}, nil
}

// FindByID retrieves a product by its ID and returns it as a ProductDto.
func (s *Service) FindByID(ctx context.Context, id string) (*ProductDto, error) {
	product, err := s.repository.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch product %s: %w", id, err)
	}
	return toDto(product), nil
}

// Create validates the image payload, applies creation defaults, stores the
// product and clears the list cache.
func (s *Service) Create(ctx context.Context, dto ProductCreateDto) (*ProductDto, error) {
	if dto.ImageBase64 != "" {
		if err := validateImage(dto.ImageBase64, false); err != nil {
			return nil, err
		}
	}

	unit := dto.Unit
	if unit == "" {
		unit = defaultUnit
	}

	created, err := s.repository.Create(ctx, &store.Product{
		Name:          strings.TrimSpace(dto.Name),
		Description:   dto.Description,
		DescriptionAm: dto.DescriptionAm,
		DescriptionOm: dto.DescriptionOm,
		Price:         *dto.Price,
		Stock:         *dto.Stock,
		Category:      dto.Category,
		ImageBase64:   dto.ImageBase64,
		Unit:          unit,
		Origin:        dto.Origin,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	s.invalidate()
	return toDto(created), nil
}

// Update applies a partial update and clears the list cache. Updates accept
// an image URL in addition to inline base64 data.
func (s *Service) Update(ctx context.Context, id string, dto ProductUpdateDto) (*ProductDto, error) {
	patch := dto.toPatch()
	if patch.IsEmpty() {
		return nil, cerrors.ErrEmptyUpdate
	}
	if patch.ImageBase64 != nil && *patch.ImageBase64 != "" {
		if err := validateImage(*patch.ImageBase64, true); err != nil {
			return nil, err
		}
	}

	updated, err := s.repository.Update(ctx, id, patch)
	if err != nil {
		return nil, fmt.Errorf("failed to update product %s: %w", id, err)
	}

	s.invalidate()
	return toDto(updated), nil
}

// DeleteByID removes a product and clears the list cache.
func (s *Service) DeleteByID(ctx context.Context, id string) error {
	if err := s.repository.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate()
	return nil
}

// Categories returns the distinct non-empty category values.
func (s *Service) Categories(ctx context.Context) ([]string, error) {
	categories, err := s.repository.Categories(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch categories: %w", err)
	}
	return categories, nil
}

// Stats recomputes the aggregate stats from current state on every call.
func (s *Service) Stats(ctx context.Context) (*store.Stats, error) {
	stats, err := s.repository.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compute stats: %w", err)
	}
	return stats, nil
}

func (s *Service) invalidate() {
	if s.listCache != nil {
		s.listCache.Invalidate()
	}
}

// validateImage checks the mutually exclusive image representations: an
// inline data URI (bounded at 5MB decoded), or, when allowURL is set, an
// http(s) URL. The representation is distinguished by format alone.
func validateImage(image string, allowURL bool) error {
	if imageDataRe.MatchString(image) {
		if decodedSize(image) > maxImageBytes {
			return cerrors.ErrImageTooLarge
		}
		return nil
	}
	if allowURL && imageURLRe.MatchString(image) {
		return nil
	}
	return cerrors.ErrInvalidImageFormat
}

// decodedSize estimates the decoded byte size of a base64 payload.
func decodedSize(image string) int {
	return len(image) * 3 / 4
}

func (dto ProductUpdateDto) toPatch() store.ProductPatch {
	patch := store.ProductPatch{
		Description:   dto.Description,
		DescriptionAm: dto.DescriptionAm,
		DescriptionOm: dto.DescriptionOm,
		Price:         dto.Price,
		Stock:         dto.Stock,
		Category:      dto.Category,
		ImageBase64:   dto.ImageBase64,
		Unit:          dto.Unit,
		Origin:        dto.Origin,
	}
	if dto.Name != nil {
		trimmed := strings.TrimSpace(*dto.Name)
		patch.Name = &trimmed
	}
	return patch
}

// toDto converts a store.Product to its external representation.
func toDto(p *store.Product) *ProductDto {
	return &ProductDto{
		ID:            p.ID,
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
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}
