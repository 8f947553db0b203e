package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/gebeya/catalog/internal/cache"
	cerrors "github.com/gebeya/catalog/internal/errors"
	"github.com/gebeya/catalog/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockProductStore is a mock implementation of the ProductStore interface.
// It records the arguments of write calls and counts List calls so cache
// behavior is observable.
type mockProductStore struct {
	page       store.ProductPage
	product    store.Product
	categories []string
	stats      store.Stats
	error      error

	listCalls    int
	createdInput *store.Product
	patchInput   *store.ProductPatch
}

func (m *mockProductStore) List(_ context.Context, _ store.ListQuery) (*store.ProductPage, error) {
	m.listCalls++
	if m.error != nil {
		return nil, m.error
	}
	return &m.page, nil
}

func (m *mockProductStore) FindByID(_ context.Context, _ string) (*store.Product, error) {
	if m.error != nil {
		return nil, m.error
	}
	return &m.product, nil
}

func (m *mockProductStore) Create(_ context.Context, p *store.Product) (*store.Product, error) {
	m.createdInput = p
	if m.error != nil {
		return nil, m.error
	}
	return &m.product, nil
}

func (m *mockProductStore) Update(_ context.Context, _ string, patch store.ProductPatch) (*store.Product, error) {
	m.patchInput = &patch
	if m.error != nil {
		return nil, m.error
	}
	return &m.product, nil
}

func (m *mockProductStore) Delete(_ context.Context, _ string) error {
	return m.error
}

func (m *mockProductStore) Categories(_ context.Context) ([]string, error) {
	if m.error != nil {
		return nil, m.error
	}
	return m.categories, nil
}

func (m *mockProductStore) Stats(_ context.Context) (*store.Stats, error) {
	if m.error != nil {
		return nil, m.error
	}
	return &m.stats, nil
}

func ptr[T any](v T) *T { return &v }

const tinyPNG = "data:image/png;base64,iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNkYPhfDwAChwGA60e6kgAAAABJRU5ErkJggg=="

func Test_ProductService_Create(t *testing.T) {
	oversized := "data:image/png;base64," + strings.Repeat("A", (5<<20)*4/3+1024)
	stored := store.Product{ID: "68a1", Name: "Tomato", Price: 2.5, Stock: 10, Unit: "unit"}

	testCases := []struct {
		name        string
		dto         ProductCreateDto
		expectError error
	}{
		{
			name: "Success - minimal payload",
			dto:  ProductCreateDto{Name: "Tomato", Price: ptr(2.5), Stock: ptr(10)},
		},
		{
			name: "Success - inline base64 image",
			dto:  ProductCreateDto{Name: "Tomato", Price: ptr(2.5), Stock: ptr(10), ImageBase64: tinyPNG},
		},
		{
			name:        "Error - image URL not accepted at creation",
			dto:         ProductCreateDto{Name: "Tomato", Price: ptr(2.5), Stock: ptr(10), ImageBase64: "https://example.com/tomato.png"},
			expectError: cerrors.ErrInvalidImageFormat,
		},
		{
			name:        "Error - unknown image format",
			dto:         ProductCreateDto{Name: "Tomato", Price: ptr(2.5), Stock: ptr(10), ImageBase64: "data:image/bmp;base64,Qk0="},
			expectError: cerrors.ErrInvalidImageFormat,
		},
		{
			name:        "Error - image above 5MB",
			dto:         ProductCreateDto{Name: "Tomato", Price: ptr(2.5), Stock: ptr(10), ImageBase64: oversized},
			expectError: cerrors.ErrImageTooLarge,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			mockStore := &mockProductStore{product: stored}
			service := NewService(mockStore, nil)
			// when
			created, err := service.Create(context.Background(), tc.dto)
			// then
			if tc.expectError != nil {
				assert.ErrorIs(t, err, tc.expectError)
				assert.Nil(t, created)
				assert.Nil(t, mockStore.createdInput, "store must not be reached on validation failure")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, stored.ID, created.ID)
		})
	}
}

func Test_ProductService_Create_Defaults(t *testing.T) {
	// given
	mockStore := &mockProductStore{product: store.Product{ID: "68a1"}}
	service := NewService(mockStore, nil)
	// when
	_, err := service.Create(context.Background(), ProductCreateDto{
		Name:  "  Tomato  ",
		Price: ptr(2.5),
		Stock: ptr(0),
	})
	// then
	require.NoError(t, err)
	require.NotNil(t, mockStore.createdInput)
	assert.Equal(t, "Tomato", mockStore.createdInput.Name, "name is trimmed")
	assert.Equal(t, "unit", mockStore.createdInput.Unit, "unit defaults when absent")
	assert.Equal(t, 0, mockStore.createdInput.Stock, "zero stock is a legitimate value")
}

func Test_ProductService_Update(t *testing.T) {
	stored := store.Product{ID: "68a1", Name: "Tomato", Price: 2.5, Stock: 5}

	testCases := []struct {
		name        string
		dto         ProductUpdateDto
		expectError error
	}{
		{
			name: "Success - single field",
			dto:  ProductUpdateDto{Stock: ptr(5)},
		},
		{
			name: "Success - image URL accepted on update",
			dto:  ProductUpdateDto{ImageBase64: ptr("https://example.com/tomato.png")},
		},
		{
			name: "Success - inline base64 image on update",
			dto:  ProductUpdateDto{ImageBase64: ptr(tinyPNG)},
		},
		{
			name:        "Error - empty payload",
			dto:         ProductUpdateDto{},
			expectError: cerrors.ErrEmptyUpdate,
		},
		{
			name:        "Error - invalid image value",
			dto:         ProductUpdateDto{ImageBase64: ptr("ftp://example.com/tomato.png")},
			expectError: cerrors.ErrInvalidImageFormat,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			mockStore := &mockProductStore{product: stored}
			service := NewService(mockStore, nil)
			// when
			updated, err := service.Update(context.Background(), "68a1", tc.dto)
			// then
			if tc.expectError != nil {
				assert.ErrorIs(t, err, tc.expectError)
				assert.Nil(t, updated)
				assert.Nil(t, mockStore.patchInput, "store must not be reached on validation failure")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, stored.ID, updated.ID)
		})
	}
}

func Test_ProductService_Update_PartialPatch(t *testing.T) {
	// given
	mockStore := &mockProductStore{product: store.Product{ID: "68a1"}}
	service := NewService(mockStore, nil)
	// when
	_, err := service.Update(context.Background(), "68a1", ProductUpdateDto{Stock: ptr(5)})
	// then
	require.NoError(t, err)
	require.NotNil(t, mockStore.patchInput)
	assert.Equal(t, 5, *mockStore.patchInput.Stock)
	assert.Nil(t, mockStore.patchInput.Name, "unsupplied fields stay unset")
	assert.Nil(t, mockStore.patchInput.Price, "unsupplied fields stay unset")
}

func Test_ProductService_FindByID(t *testing.T) {
	testCases := []struct {
		name        string
		mockStore   *mockProductStore
		expectError error
	}{
		{
			name:      "Success - product found",
			mockStore: &mockProductStore{product: store.Product{ID: "68a1", Name: "Tomato"}},
		},
		{
			name:        "Error - not found sentinel survives wrapping",
			mockStore:   &mockProductStore{error: cerrors.ErrProductNotFound},
			expectError: cerrors.ErrProductNotFound,
		},
		{
			name:        "Error - malformed id sentinel survives wrapping",
			mockStore:   &mockProductStore{error: cerrors.ErrInvalidProductID},
			expectError: cerrors.ErrInvalidProductID,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			service := NewService(tc.mockStore, nil)
			// when
			found, err := service.FindByID(context.Background(), "68a1")
			// then
			if tc.expectError != nil {
				assert.ErrorIs(t, err, tc.expectError)
				assert.Nil(t, found)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "68a1", found.ID)
			assert.Equal(t, "Tomato", found.Name)
		})
	}
}

func newTestCache(ttl time.Duration) *cache.ListCache[ProductPageDto] {
	return cache.New[ProductPageDto](cache.Config{TTL: ttl, Capacity: 4})
}

func Test_ProductService_List_DefaultQueryIsCached(t *testing.T) {
	// given
	mockStore := &mockProductStore{page: store.ProductPage{Items: []store.Product{{ID: "68a1", Name: "Tomato"}}, Total: 1}}
	service := NewService(mockStore, newTestCache(time.Minute))
	q := store.DefaultListQuery()
	// when
	first, err := service.List(context.Background(), q)
	require.NoError(t, err)
	second, err := service.List(context.Background(), q)
	require.NoError(t, err)
	// then
	assert.Equal(t, 1, mockStore.listCalls, "second default-query read must be a cache hit")
	assert.Equal(t, first, second)
}

func Test_ProductService_List_WriteInvalidatesCache(t *testing.T) {
	// given
	mockStore := &mockProductStore{page: store.ProductPage{Total: 1}, product: store.Product{ID: "68a1"}}
	service := NewService(mockStore, newTestCache(time.Minute))
	q := store.DefaultListQuery()

	_, err := service.List(context.Background(), q)
	require.NoError(t, err)

	// when: any write clears the cache, regardless of which record changed
	_, err = service.Create(context.Background(), ProductCreateDto{Name: "Onion", Price: ptr(1.0), Stock: ptr(3)})
	require.NoError(t, err)
	_, err = service.List(context.Background(), q)
	require.NoError(t, err)

	// then
	assert.Equal(t, 2, mockStore.listCalls, "write must force the next default query to recompute")
}

func Test_ProductService_List_NonDefaultQueryBypassesCache(t *testing.T) {
	// given
	mockStore := &mockProductStore{page: store.ProductPage{Total: 0}}
	service := NewService(mockStore, newTestCache(time.Minute))
	q := store.ListQuery{Category: "fruit", Page: 1, Limit: 10}
	// when
	_, err := service.List(context.Background(), q)
	require.NoError(t, err)
	_, err = service.List(context.Background(), q)
	require.NoError(t, err)
	// then
	assert.Equal(t, 2, mockStore.listCalls, "filtered queries must always hit the store")
}

func Test_ProductService_List_CacheExpires(t *testing.T) {
	// given
	mockStore := &mockProductStore{page: store.ProductPage{Total: 0}}
	service := NewService(mockStore, newTestCache(20*time.Millisecond))
	q := store.DefaultListQuery()
	// when
	_, err := service.List(context.Background(), q)
	require.NoError(t, err)
	time.Sleep(50 * time.Millisecond)
	_, err = service.List(context.Background(), q)
	require.NoError(t, err)
	// then
	assert.Equal(t, 2, mockStore.listCalls, "expired entries must not be served")
}

func Test_ProductService_DeleteByID(t *testing.T) {
	// given
	storeErr := errors.New("store error")
	testCases := []struct {
		name        string
		mockStore   *mockProductStore
		expectError error
	}{
		{name: "Success", mockStore: &mockProductStore{}},
		{name: "Error - not found", mockStore: &mockProductStore{error: cerrors.ErrProductNotFound}, expectError: cerrors.ErrProductNotFound},
		{name: "Error - store failure", mockStore: &mockProductStore{error: storeErr}, expectError: storeErr},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			service := NewService(tc.mockStore, nil)
			err := service.DeleteByID(context.Background(), "68a1")
			if tc.expectError != nil {
				assert.ErrorIs(t, err, tc.expectError)
				return
			}
			require.NoError(t, err)
		})
	}
}

func Test_ProductService_Stats(t *testing.T) {
	// given
	mockStore := &mockProductStore{stats: store.Stats{Total: 3, LowStock: 1, OutOfStock: 1, TotalValue: 42.5}}
	service := NewService(mockStore, nil)
	// when
	stats, err := service.Stats(context.Background())
	// then
	require.NoError(t, err)
	assert.Equal(t, &store.Stats{Total: 3, LowStock: 1, OutOfStock: 1, TotalValue: 42.5}, stats)
}

func Test_ProductService_Categories(t *testing.T) {
	// given
	mockStore := &mockProductStore{categories: []string{"fruit", "vegetable"}}
	service := NewService(mockStore, nil)
	// when
	categories, err := service.Categories(context.Background())
	// then
	require.NoError(t, err)
	assert.Equal(t, []string{"fruit", "vegetable"}, categories)
}
