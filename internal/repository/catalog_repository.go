package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"catalog-service/internal/models"
	"gorm.io/gorm"
)

// Cache TTL constants
const (
	ProductCacheTTL     = 5 * time.Minute // Single product cache
	ProductListCacheTTL = 2 * time.Minute // List cache (shorter due to frequent changes)
)

// CatalogRepository is the gorm/Postgres catalog store with an optional
// Redis read-through cache. It implements importer.CatalogStore.
type CatalogRepository struct {
	db    *gorm.DB
	redis *redis.Client
}

func NewCatalogRepository(db *gorm.DB, redisClient *redis.Client) *CatalogRepository {
	return &CatalogRepository{
		db:    db,
		redis: redisClient,
	}
}

func productCacheKey(id uuid.UUID) string {
	return fmt.Sprintf("catalog:product:%s", id.String())
}

// invalidateProduct drops the cached copy after a mutation.
func (r *CatalogRepository) invalidateProduct(ctx context.Context, id uuid.UUID) {
	if r.redis == nil {
		return
	}
	_ = r.redis.Del(ctx, productCacheKey(id)).Err()
}

// FindProductID looks up a product identity by its (SKU, region) natural key.
func (r *CatalogRepository) FindProductID(ctx context.Context, sku, region string) (uuid.UUID, bool, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Select("id").
		Where("sku = ? AND region = ?", sku, region).
		First(&product).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return uuid.Nil, false, nil
	}
	if err != nil {
		return uuid.Nil, false, err
	}
	return product.ID, true, nil
}

// CreateProduct inserts a base product and returns its generated identity.
func (r *CatalogRepository) CreateProduct(ctx context.Context, product *models.Product) (uuid.UUID, error) {
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	if product.RegionGroup == "" {
		product.RegionGroup = models.RegionGroupNone
	}
	// Slug uniqueness piggybacks on the id prefix
	if product.Slug == nil || *product.Slug == "" {
		uniqueSlug := fmt.Sprintf("%s-%s", generateSlug(product.Name), product.ID.String()[:8])
		product.Slug = &uniqueSlug
	}
	product.CreatedAt = time.Now()
	product.UpdatedAt = time.Now()

	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return uuid.Nil, err
	}
	return product.ID, nil
}

// UpdateProduct overwrites all provided fields of an existing product and
// clears its relationship rows so the import's Pass 2 can rewrite them.
func (r *CatalogRepository) UpdateProduct(ctx context.Context, id uuid.UUID, product *models.Product) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{
			"name":            product.Name,
			"region_group":    product.RegionGroup,
			"description":     product.Description,
			"price":           product.Price,
			"compare_price":   product.ComparePrice,
			"category":        product.Category,
			"tags":            product.Tags,
			"brand":           product.Brand,
			"featured":        product.Featured,
			"quantity":        product.Quantity,
			"weight":          product.Weight,
			"search_keywords": product.SearchKeywords,
			"updated_at":      time.Now(),
		}
		result := tx.Model(&models.Product{}).Where("id = ?", id).Updates(updates)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return r.deleteRelationships(tx, id)
	})
	if err == nil {
		r.invalidateProduct(ctx, id)
	}
	return err
}

// UpdateProductFields applies a partial column update without touching
// relationship rows. Used by the CRUD API; imports go through UpdateProduct.
func (r *CatalogRepository) UpdateProductFields(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now()
	result := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	r.invalidateProduct(ctx, id)
	return nil
}

// deleteRelationships removes every child row of a product. Used on update
// (relationships are rewritten) and on delete.
func (r *CatalogRepository) deleteRelationships(tx *gorm.DB, productID uuid.UUID) error {
	if err := tx.Where("product_id = ?", productID).Delete(&models.ProductImage{}).Error; err != nil {
		return err
	}
	var variationIDs []uuid.UUID
	if err := tx.Model(&models.ProductVariation{}).
		Where("product_id = ?", productID).
		Pluck("id", &variationIDs).Error; err != nil {
		return err
	}
	if len(variationIDs) > 0 {
		if err := tx.Where("variation_id IN ?", variationIDs).Delete(&models.VariationOption{}).Error; err != nil {
			return err
		}
	}
	if err := tx.Where("product_id = ?", productID).Delete(&models.ProductVariation{}).Error; err != nil {
		return err
	}
	if err := tx.Where("product_id = ?", productID).Delete(&models.BundleItem{}).Error; err != nil {
		return err
	}
	if err := tx.Where("product_id = ?", productID).Delete(&models.ProductFAQ{}).Error; err != nil {
		return err
	}
	if err := tx.Where("product_id = ?", productID).Delete(&models.ProductManual{}).Error; err != nil {
		return err
	}
	return tx.Where("product_id = ?", productID).Delete(&models.ProductExtraInfo{}).Error
}

// AddImage appends a gallery image.
func (r *CatalogRepository) AddImage(ctx context.Context, image *models.ProductImage) error {
	return r.db.WithContext(ctx).Create(image).Error
}

// AddVariation inserts a variation header together with its ordered options.
func (r *CatalogRepository) AddVariation(ctx context.Context, variation *models.ProductVariation) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		options := variation.Options
		variation.Options = nil
		if variation.ID == uuid.Nil {
			variation.ID = uuid.New()
		}
		if err := tx.Create(variation).Error; err != nil {
			return err
		}
		for _, opt := range options {
			opt.VariationID = variation.ID
			if err := tx.Create(opt).Error; err != nil {
				return err
			}
		}
		variation.Options = options
		return nil
	})
}

// AddBundleItem links a bundle to one of its component products.
func (r *CatalogRepository) AddBundleItem(ctx context.Context, item *models.BundleItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

// AddFAQ appends a question/answer block.
func (r *CatalogRepository) AddFAQ(ctx context.Context, faq *models.ProductFAQ) error {
	return r.db.WithContext(ctx).Create(faq).Error
}

// AddManual appends a manual link.
func (r *CatalogRepository) AddManual(ctx context.Context, manual *models.ProductManual) error {
	return r.db.WithContext(ctx).Create(manual).Error
}

// AddExtraInfo appends an extra-info block.
func (r *CatalogRepository) AddExtraInfo(ctx context.Context, info *models.ProductExtraInfo) error {
	return r.db.WithContext(ctx).Create(info).Error
}

// GetProductByID retrieves a product with all relationships, with caching.
func (r *CatalogRepository) GetProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	cacheKey := productCacheKey(id)

	if r.redis != nil {
		val, err := r.redis.Get(ctx, cacheKey).Result()
		if err == nil {
			var product models.Product
			if err := json.Unmarshal([]byte(val), &product); err == nil {
				return &product, nil
			}
		}
	}

	var product models.Product
	err := r.db.WithContext(ctx).
		Preload("Images").
		Preload("Variations.Options").
		Preload("BundleItems").
		Preload("FAQs").
		Preload("Manuals").
		Preload("ExtraInfo").
		Where("id = ?", id).
		First(&product).Error
	if err != nil {
		return nil, err
	}

	if r.redis != nil {
		if data, err := json.Marshal(product); err == nil {
			r.redis.Set(ctx, cacheKey, data, ProductCacheTTL)
		}
	}

	return &product, nil
}

// GetProductByNaturalKey retrieves a product by (SKU, region).
func (r *CatalogRepository) GetProductByNaturalKey(ctx context.Context, sku, region string) (*models.Product, error) {
	id, found, err := r.FindProductID(ctx, sku, region)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, gorm.ErrRecordNotFound
	}
	return r.GetProductByID(ctx, id)
}

// GetProducts retrieves products with optional region/category filters and
// pagination.
func (r *CatalogRepository) GetProducts(ctx context.Context, region, category string, page, limit int) ([]models.Product, int64, error) {
	var products []models.Product
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Product{})
	if region != "" {
		query = query.Where("region = ?", region)
	}
	if category != "" {
		query = query.Where("category = ?", category)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	err := query.Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&products).Error
	if err != nil {
		return nil, 0, err
	}

	return products, total, nil
}

// DeleteProduct soft deletes a product and removes its relationship rows.
func (r *CatalogRepository) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("id = ?", id).Delete(&models.Product{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return r.deleteRelationships(tx, id)
	})
	if err == nil {
		r.invalidateProduct(ctx, id)
	}
	return err
}

// ExportProducts loads the full catalog for a region (or all regions) with
// relationships preloaded, in stable creation order.
func (r *CatalogRepository) ExportProducts(ctx context.Context, region string) ([]models.Product, error) {
	var products []models.Product
	query := r.db.WithContext(ctx).
		Preload("Images").
		Preload("Variations.Options").
		Preload("BundleItems").
		Preload("FAQs").
		Preload("Manuals").
		Preload("ExtraInfo").
		Order("created_at ASC")
	if region != "" {
		query = query.Where("region = ?", region)
	}
	if err := query.Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

// generateSlug converts a product name to a URL-friendly slug.
func generateSlug(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = slugPattern.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}
