package importer

import (
	"context"

	"github.com/google/uuid"
	"catalog-service/internal/models"
)

// CatalogStore is the persistence collaborator the reconciler writes through.
// The production implementation lives in internal/repository; tests substitute
// an in-memory fake.
type CatalogStore interface {
	// FindProductID looks up a product by its natural key.
	FindProductID(ctx context.Context, sku, region string) (uuid.UUID, bool, error)
	CreateProduct(ctx context.Context, product *models.Product) (uuid.UUID, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, product *models.Product) error

	AddImage(ctx context.Context, image *models.ProductImage) error
	AddVariation(ctx context.Context, variation *models.ProductVariation) error
	AddBundleItem(ctx context.Context, item *models.BundleItem) error
	AddFAQ(ctx context.Context, faq *models.ProductFAQ) error
	AddManual(ctx context.Context, manual *models.ProductManual) error
	AddExtraInfo(ctx context.Context, info *models.ProductExtraInfo) error
}
