// Package rest provides HTTP handlers for the product catalog API.
package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	cerrors "github.com/gebeya/catalog/internal/errors"
	"github.com/gebeya/catalog/internal/service"
	"github.com/gebeya/catalog/internal/store"
	"github.com/gebeya/catalog/pkg/web"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

type Handler struct {
	service  service.ProductService
	validate *validator.Validate
	logger   *slog.Logger
}

// NewHandler creates a new product API handler with the provided service.
func NewHandler(svc service.ProductService, logger *slog.Logger) *Handler {
	v := validator.New()
	// whitespace-only names must not pass "required"
	_ = v.RegisterValidation("notblank", validators.NotBlank)

	return &Handler{
		service:  svc,
		validate: v,
		logger:   logger.With("component", "rest"),
	}
}

// RegisterRoutes registers the HTTP routes for the catalog service.
func (h *Handler) RegisterRoutes(r *chi.Mux) {
	r.Route("/api/products", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/categories", h.Categories)
		r.Get("/stats", h.Stats)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.FindByID)
			r.Put("/", h.Update)
			r.Delete("/", h.DeleteByID)
		})
	})

	r.Get("/healthz", h.HealthCheck)
}

// List returns one page of products, filtered by the optional query parameters.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)

	page, ok := web.ParseIntMin(r, w, mLogger, "page", store.DefaultPage, 1)
	if !ok {
		return
	}
	limit, ok := web.ParseIntInRange(r, w, mLogger, "limit", store.DefaultLimit, 1, store.MaxLimit)
	if !ok {
		return
	}
	minPrice, ok := web.ParseOptionalPrice(r, w, mLogger, "minPrice")
	if !ok {
		return
	}
	maxPrice, ok := web.ParseOptionalPrice(r, w, mLogger, "maxPrice")
	if !ok {
		return
	}

	q := store.ListQuery{
		Category: r.URL.Query().Get("category"),
		MinPrice: minPrice,
		MaxPrice: maxPrice,
		Search:   r.URL.Query().Get("search"),
		Page:     page,
		Limit:    limit,
	}

	mLogger.DebugContext(r.Context(), "Received request to list products", "query", fmt.Sprintf("%+v", q))
	result, err := h.service.List(r.Context(), q)
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Error retrieving product list", "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to fetch products")
		return
	}
	mLogger.DebugContext(r.Context(), "Successfully retrieved product list", "count", len(result.Items), "total", result.Total)
	web.RespondPage(w, mLogger, result.Items, web.NewPagination(q.Page, q.Limit, result.Total))
}

// FindByID retrieves a product by its ID.
func (h *Handler) FindByID(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id := chi.URLParam(r, "id")

	mLogger.DebugContext(r.Context(), "Received request to find product by ID", "ID", id)
	found, err := h.service.FindByID(r.Context(), id)
	if err != nil {
		h.respondOperationError(w, r, mLogger, err, id, "retrieve")
		return
	}
	mLogger.DebugContext(r.Context(), "Successfully retrieved product", "ID", found.ID, "Name", found.Name)
	web.RespondData(w, mLogger, http.StatusOK, found)
}

// Create handles the creation of a new product.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)

	var dto service.ProductCreateDto
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		mLogger.ErrorContext(r.Context(), "Error decoding request body", "error", err)
		web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid request body")
		return
	}
	if !h.validateBody(w, r, mLogger, dto) {
		return
	}

	created, err := h.service.Create(r.Context(), dto)
	if err != nil {
		if respondImageError(w, mLogger, err) {
			return
		}
		mLogger.ErrorContext(r.Context(), "Error creating product", "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to create product")
		return
	}
	mLogger.InfoContext(r.Context(), "Product created successfully", "ID", created.ID, "Name", created.Name)
	web.RespondMessage(w, mLogger, http.StatusCreated, created, "Product created successfully")
}

// Update applies a partial update to an existing product.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id := chi.URLParam(r, "id")

	var dto service.ProductUpdateDto
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		mLogger.ErrorContext(r.Context(), "Error decoding request body", "error", err)
		web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid request body")
		return
	}
	if !h.validateBody(w, r, mLogger, dto) {
		return
	}

	mLogger.DebugContext(r.Context(), "Received request to update product", "ID", id)
	updated, err := h.service.Update(r.Context(), id, dto)
	if err != nil {
		if errors.Is(err, cerrors.ErrEmptyUpdate) {
			mLogger.WarnContext(r.Context(), "Update request carried no fields", "ID", id)
			web.RespondError(w, mLogger, http.StatusBadRequest, "No fields to update")
			return
		}
		if respondImageError(w, mLogger, err) {
			return
		}
		h.respondOperationError(w, r, mLogger, err, id, "update")
		return
	}
	mLogger.InfoContext(r.Context(), "Product updated successfully", "ID", updated.ID, "Name", updated.Name)
	web.RespondMessage(w, mLogger, http.StatusOK, updated, "Product updated successfully")
}

// DeleteByID deletes a product by its ID.
func (h *Handler) DeleteByID(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id := chi.URLParam(r, "id")

	mLogger.DebugContext(r.Context(), "Received request to delete product", "ID", id)
	if err := h.service.DeleteByID(r.Context(), id); err != nil {
		h.respondOperationError(w, r, mLogger, err, id, "delete")
		return
	}
	mLogger.InfoContext(r.Context(), "Product deleted successfully", "ID", id)
	web.RespondMessage(w, mLogger, http.StatusOK, nil, "Product deleted successfully")
}

// Categories returns the distinct category values in use.
func (h *Handler) Categories(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)

	categories, err := h.service.Categories(r.Context())
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Error retrieving categories", "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to fetch categories")
		return
	}
	if categories == nil {
		categories = []string{}
	}
	web.RespondData(w, mLogger, http.StatusOK, categories)
}

// Stats returns the aggregate catalog stats.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)

	stats, err := h.service.Stats(r.Context())
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Error computing product stats", "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to compute stats")
		return
	}
	web.RespondData(w, mLogger, http.StatusOK, stats)
}

// HealthCheck reports service liveness.
func (h *Handler) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// validateBody runs struct validation and writes a 400 envelope describing
// the violated rules. Returns false when the request was already answered.
func (h *Handler) validateBody(w http.ResponseWriter, r *http.Request, mLogger *slog.Logger, body any) bool {
	err := h.validate.Struct(body)
	if err == nil {
		return true
	}

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		parts := make([]string, 0, len(validationErrors))
		for _, fieldErr := range validationErrors {
			parts = append(parts, fmt.Sprintf("%s failed on rule: %s", fieldErr.Field(), fieldErr.Tag()))
		}
		message := strings.Join(parts, "; ")
		mLogger.WarnContext(r.Context(), "Validation errors occurred", "errors", message)
		web.RespondError(w, mLogger, http.StatusBadRequest, message)
		return false
	}

	mLogger.ErrorContext(r.Context(), "Error validating request body", "error", err)
	web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid request body")
	return false
}

// respondOperationError maps identifier errors onto the uniform status
// contract: malformed ID is a client error, a well-formed miss is a 404,
// anything else is an opaque 500.
func (h *Handler) respondOperationError(w http.ResponseWriter, r *http.Request, mLogger *slog.Logger, err error, id, op string) {
	switch {
	case errors.Is(err, cerrors.ErrInvalidProductID):
		mLogger.WarnContext(r.Context(), "Malformed product ID", "ID", id)
		web.RespondError(w, mLogger, http.StatusBadRequest, fmt.Sprintf("Invalid product ID: %s", id))
	case errors.Is(err, cerrors.ErrProductNotFound):
		mLogger.WarnContext(r.Context(), "Product not found", "ID", id)
		web.RespondError(w, mLogger, http.StatusNotFound, fmt.Sprintf("Product with ID %s not found", id))
	default:
		mLogger.ErrorContext(r.Context(), "Error handling product request", "ID", id, "op", op, "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, fmt.Sprintf("Failed to %s product", op))
	}
}

// respondImageError answers image validation failures; returns false when
// the error is not image related.
func respondImageError(w http.ResponseWriter, mLogger *slog.Logger, err error) bool {
	switch {
	case errors.Is(err, cerrors.ErrInvalidImageFormat):
		web.RespondError(w, mLogger, http.StatusBadRequest,
			"Invalid image format. Must be a base64 encoded image (png, jpg, jpeg, gif, or webp) or a valid URL")
		return true
	case errors.Is(err, cerrors.ErrImageTooLarge):
		web.RespondError(w, mLogger, http.StatusBadRequest, "Image size must not exceed 5MB")
		return true
	}
	return false
}

func (h *Handler) loggerWithReqID(r *http.Request) *slog.Logger {
	if reqID, ok := web.GetRequestID(r.Context()); ok {
		return h.logger.With("request_id", reqID)
	}
	return h.logger
}
