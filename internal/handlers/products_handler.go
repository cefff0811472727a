package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"catalog-service/internal/models"
	"gorm.io/gorm"
)

// ProductStore is the persistence surface the CRUD handlers need. The
// production implementation is repository.CatalogRepository.
type ProductStore interface {
	FindProductID(ctx context.Context, sku, region string) (uuid.UUID, bool, error)
	CreateProduct(ctx context.Context, product *models.Product) (uuid.UUID, error)
	GetProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	GetProductByNaturalKey(ctx context.Context, sku, region string) (*models.Product, error)
	GetProducts(ctx context.Context, region, category string, page, limit int) ([]models.Product, int64, error)
	UpdateProductFields(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error
	DeleteProduct(ctx context.Context, id uuid.UUID) error
}

// ProductEventPublisher is notified of catalog changes. Optional.
type ProductEventPublisher interface {
	PublishProductCreated(product *models.Product)
	PublishProductUpdated(product *models.Product)
	PublishProductDeleted(product *models.Product)
}

type ProductsHandler struct {
	store         ProductStore
	publisher     ProductEventPublisher
	logger        *logrus.Logger
	defaultRegion string
}

func NewProductsHandler(store ProductStore, publisher ProductEventPublisher, logger *logrus.Logger, defaultRegion string) *ProductsHandler {
	if defaultRegion == "" {
		defaultRegion = models.DefaultRegion
	}
	return &ProductsHandler{
		store:         store,
		publisher:     publisher,
		logger:        logger,
		defaultRegion: defaultRegion,
	}
}

// CreateProduct creates a new product
// POST /api/v1/products
func (h *ProductsHandler) CreateProduct(c *gin.Context) {
	var req models.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "VALIDATION_ERROR",
				Message: err.Error(),
			},
		})
		return
	}

	region := strings.ToLower(strings.TrimSpace(req.Region))
	if region == "" {
		region = h.defaultRegion
	}

	_, exists, err := h.store.FindProductID(c.Request.Context(), req.SKU, region)
	if err != nil {
		h.respondStoreError(c, err)
		return
	}
	if exists {
		c.JSON(http.StatusConflict, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "DUPLICATE_SKU",
				Message: "A product with this SKU already exists in this region",
				Field:   "sku",
			},
		})
		return
	}

	product := &models.Product{
		SKU:            req.SKU,
		Region:         region,
		RegionGroup:    normalizeGroup(req.RegionGroup),
		Name:           req.Name,
		Slug:           req.Slug,
		Description:    req.Description,
		Price:          req.Price,
		ComparePrice:   req.ComparePrice,
		Category:       req.Category,
		Brand:          req.Brand,
		Featured:       req.Featured,
		Quantity:       req.Quantity,
		Weight:         req.Weight,
		SearchKeywords: req.SearchKeywords,
	}
	if len(req.Tags) > 0 {
		tags := make(models.JSONArray, 0, len(req.Tags))
		for _, t := range req.Tags {
			tags = append(tags, t)
		}
		product.Tags = &tags
	}

	if _, err := h.store.CreateProduct(c.Request.Context(), product); err != nil {
		h.logger.WithError(err).Error("Failed to create product")
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "CREATION_FAILED",
				Message: "Failed to create product",
			},
		})
		return
	}

	if h.publisher != nil {
		h.publisher.PublishProductCreated(product)
	}

	c.JSON(http.StatusCreated, models.ProductResponse{
		Success: true,
		Data:    product,
		Message: stringPtr("Product created successfully"),
	})
}

// GetProduct retrieves a product by ID with all relationships
// GET /api/v1/products/:id
func (h *ProductsHandler) GetProduct(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "INVALID_ID",
				Message: "Product ID must be a valid UUID",
				Field:   "id",
			},
		})
		return
	}

	product, err := h.store.GetProductByID(c.Request.Context(), id)
	if err != nil {
		h.respondStoreError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.ProductResponse{
		Success: true,
		Data:    product,
	})
}

// GetProductBySKU retrieves a product by its (SKU, region) natural key
// GET /api/v1/products/sku/:sku?region=us
func (h *ProductsHandler) GetProductBySKU(c *gin.Context) {
	sku := c.Param("sku")
	region := strings.ToLower(strings.TrimSpace(c.DefaultQuery("region", h.defaultRegion)))

	product, err := h.store.GetProductByNaturalKey(c.Request.Context(), sku, region)
	if err != nil {
		h.respondStoreError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.ProductResponse{
		Success: true,
		Data:    product,
	})
}

// ListProducts retrieves products with optional filters and pagination
// GET /api/v1/products?region=us&category=gaming&page=1&limit=20
func (h *ProductsHandler) ListProducts(c *gin.Context) {
	region := strings.ToLower(strings.TrimSpace(c.Query("region")))
	category := c.Query("category")

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	products, total, err := h.store.GetProducts(c.Request.Context(), region, category, page, limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list products")
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "LIST_FAILED",
				Message: "Failed to list products",
			},
		})
		return
	}

	totalPages := int((total + int64(limit) - 1) / int64(limit))
	c.JSON(http.StatusOK, models.ProductListResponse{
		Success: true,
		Data:    products,
		Pagination: &models.PaginationInfo{
			Page:        page,
			Limit:       limit,
			Total:       total,
			TotalPages:  totalPages,
			HasNext:     page < totalPages,
			HasPrevious: page > 1,
		},
	})
}

// UpdateProduct applies a partial update to a product's base fields
// PUT /api/v1/products/:id
func (h *ProductsHandler) UpdateProduct(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "INVALID_ID",
				Message: "Product ID must be a valid UUID",
				Field:   "id",
			},
		})
		return
	}

	var req models.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "VALIDATION_ERROR",
				Message: err.Error(),
			},
		})
		return
	}

	updates := updateFields(&req)
	if len(updates) == 0 {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "NO_FIELDS",
				Message: "No updatable fields were provided",
			},
		})
		return
	}

	if err := h.store.UpdateProductFields(c.Request.Context(), id, updates); err != nil {
		h.respondStoreError(c, err)
		return
	}

	product, err := h.store.GetProductByID(c.Request.Context(), id)
	if err != nil {
		h.respondStoreError(c, err)
		return
	}

	if h.publisher != nil {
		h.publisher.PublishProductUpdated(product)
	}

	c.JSON(http.StatusOK, models.ProductResponse{
		Success: true,
		Data:    product,
		Message: stringPtr("Product updated successfully"),
	})
}

// DeleteProduct soft deletes a product
// DELETE /api/v1/products/:id
func (h *ProductsHandler) DeleteProduct(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "INVALID_ID",
				Message: "Product ID must be a valid UUID",
				Field:   "id",
			},
		})
		return
	}

	product, err := h.store.GetProductByID(c.Request.Context(), id)
	if err != nil {
		h.respondStoreError(c, err)
		return
	}

	if err := h.store.DeleteProduct(c.Request.Context(), id); err != nil {
		h.respondStoreError(c, err)
		return
	}

	if h.publisher != nil {
		h.publisher.PublishProductDeleted(product)
	}

	c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Message: stringPtr("Product deleted successfully"),
	})
}

// updateFields converts the non-nil request fields to a column update map.
func updateFields(req *models.UpdateProductRequest) map[string]interface{} {
	updates := make(map[string]interface{})
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Slug != nil {
		updates["slug"] = *req.Slug
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Price != nil {
		updates["price"] = *req.Price
	}
	if req.ComparePrice != nil {
		updates["compare_price"] = *req.ComparePrice
	}
	if req.Category != nil {
		updates["category"] = *req.Category
	}
	if req.Tags != nil {
		tags := make(models.JSONArray, 0, len(req.Tags))
		for _, t := range req.Tags {
			tags = append(tags, t)
		}
		updates["tags"] = tags
	}
	if req.Brand != nil {
		updates["brand"] = *req.Brand
	}
	if req.Featured != nil {
		updates["featured"] = *req.Featured
	}
	if req.Quantity != nil {
		updates["quantity"] = *req.Quantity
	}
	if req.Weight != nil {
		updates["weight"] = *req.Weight
	}
	if req.SearchKeywords != nil {
		updates["search_keywords"] = *req.SearchKeywords
	}
	return updates
}

func (h *ProductsHandler) respondStoreError(c *gin.Context, err error) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "NOT_FOUND",
				Message: "Product not found",
			},
		})
		return
	}
	h.logger.WithError(err).Error("Catalog store error")
	c.JSON(http.StatusInternalServerError, models.ErrorResponse{
		Success: false,
		Error: models.Error{
			Code:    "INTERNAL_ERROR",
			Message: "An internal error occurred",
		},
	})
}

func normalizeGroup(group string) string {
	trimmed := strings.TrimSpace(group)
	if trimmed == "" || strings.EqualFold(trimmed, "null") {
		return models.RegionGroupNone
	}
	return trimmed
}

func stringPtr(s string) *string {
	return &s
}
