package importer

import (
	"context"
	"fmt"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"catalog-service/internal/models"
)

// fakeStore is an in-memory CatalogStore for reconciler tests.
type fakeStore struct {
	byKey    map[string]uuid.UUID
	products map[uuid.UUID]*models.Product

	images     []*models.ProductImage
	variations []*models.ProductVariation
	bundles    []*models.BundleItem
	faqs       []*models.ProductFAQ
	manuals    []*models.ProductManual
	extras     []*models.ProductExtraInfo

	createCalls int
	updateCalls int

	failCreateSKU string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		byKey:    make(map[string]uuid.UUID),
		products: make(map[uuid.UUID]*models.Product),
	}
}

func storeKey(sku, region string) string {
	return sku + "|" + region
}

func (s *fakeStore) seed(sku, region string) uuid.UUID {
	id := uuid.New()
	s.byKey[storeKey(sku, region)] = id
	s.products[id] = &models.Product{ID: id, SKU: sku, Region: region}
	return id
}

func (s *fakeStore) FindProductID(_ context.Context, sku, region string) (uuid.UUID, bool, error) {
	id, ok := s.byKey[storeKey(sku, region)]
	return id, ok, nil
}

func (s *fakeStore) CreateProduct(_ context.Context, product *models.Product) (uuid.UUID, error) {
	s.createCalls++
	if product.SKU == s.failCreateSKU {
		return uuid.Nil, fmt.Errorf("simulated create failure")
	}
	id := uuid.New()
	product.ID = id
	s.byKey[storeKey(product.SKU, product.Region)] = id
	s.products[id] = product
	return id, nil
}

func (s *fakeStore) UpdateProduct(_ context.Context, id uuid.UUID, product *models.Product) error {
	s.updateCalls++
	existing, ok := s.products[id]
	if !ok {
		return fmt.Errorf("no such product")
	}
	product.ID = id
	product.SKU = existing.SKU
	product.Region = existing.Region
	s.products[id] = product

	// Update clears relationship rows so Pass 2 rewrites them
	s.images = filterByProduct(s.images, id, func(i *models.ProductImage) uuid.UUID { return i.ProductID })
	s.variations = filterByProduct(s.variations, id, func(v *models.ProductVariation) uuid.UUID { return v.ProductID })
	s.bundles = filterByProduct(s.bundles, id, func(b *models.BundleItem) uuid.UUID { return b.ProductID })
	s.faqs = filterByProduct(s.faqs, id, func(f *models.ProductFAQ) uuid.UUID { return f.ProductID })
	s.manuals = filterByProduct(s.manuals, id, func(m *models.ProductManual) uuid.UUID { return m.ProductID })
	s.extras = filterByProduct(s.extras, id, func(e *models.ProductExtraInfo) uuid.UUID { return e.ProductID })
	return nil
}

func filterByProduct[T any](items []T, id uuid.UUID, productID func(T) uuid.UUID) []T {
	var kept []T
	for _, item := range items {
		if productID(item) != id {
			kept = append(kept, item)
		}
	}
	return kept
}

func (s *fakeStore) AddImage(_ context.Context, image *models.ProductImage) error {
	s.images = append(s.images, image)
	return nil
}

func (s *fakeStore) AddVariation(_ context.Context, variation *models.ProductVariation) error {
	s.variations = append(s.variations, variation)
	return nil
}

func (s *fakeStore) AddBundleItem(_ context.Context, item *models.BundleItem) error {
	s.bundles = append(s.bundles, item)
	return nil
}

func (s *fakeStore) AddFAQ(_ context.Context, faq *models.ProductFAQ) error {
	s.faqs = append(s.faqs, faq)
	return nil
}

func (s *fakeStore) AddManual(_ context.Context, manual *models.ProductManual) error {
	s.manuals = append(s.manuals, manual)
	return nil
}

func (s *fakeStore) AddExtraInfo(_ context.Context, info *models.ProductExtraInfo) error {
	s.extras = append(s.extras, info)
	return nil
}

func testReconciler(store CatalogStore) *Reconciler {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewReconciler(store, logger, "us")
}

func simpleFeed() []models.FeedRow {
	return []models.FeedRow{
		feedRow(2, map[string]string{"sku": "A", "name": "Alpha", "price": "10"}),
		feedRow(3, map[string]string{"sku": "B", "name": "Beta", "price": "20"}),
	}
}

func TestRun_CreatesProducts(t *testing.T) {
	store := newFakeStore()
	report := testReconciler(store).Run(context.Background(), simpleFeed(), models.ImportOptions{Mode: models.ImportModeCreate})

	assert.True(t, report.Success)
	assert.Equal(t, 2, report.Total)
	assert.Equal(t, 2, report.Created)
	assert.Empty(t, report.Errors)
	assert.Len(t, store.products, 2)
}

func TestRun_SkipDuplicatesIsIdempotent(t *testing.T) {
	store := newFakeStore()
	rec := testReconciler(store)
	feed := []models.FeedRow{
		feedRow(2, map[string]string{
			"sku": "A", "name": "Alpha", "price": "10",
			"images": `[{"url":"https://cdn/a.jpg","primary":true}]`,
		}),
	}
	opts := models.ImportOptions{Mode: models.ImportModeSkipDuplicates}

	first := rec.Run(context.Background(), feed, opts)
	require.True(t, first.Success)
	assert.Equal(t, 1, first.Created)
	assert.Len(t, store.images, 1)

	second := rec.Run(context.Background(), feed, opts)
	assert.True(t, second.Success)
	assert.Equal(t, 0, second.Created)
	assert.Equal(t, 1, second.Skipped)
	assert.Len(t, store.products, 1)
	assert.Len(t, store.images, 1, "skipped rows must not duplicate relationship rows")
}

func TestRun_ForwardBundleReference(t *testing.T) {
	store := newFakeStore()
	feed := []models.FeedRow{
		feedRow(2, map[string]string{
			"sku": "BUNDLE-1", "name": "Starter Kit", "price": "99",
			"bundle_items": `[{"sku":"PART-1","quantity":2}]`,
		}),
		// the referenced component appears later in the same feed
		feedRow(3, map[string]string{"sku": "PART-1", "name": "Part One", "price": "10"}),
	}

	report := testReconciler(store).Run(context.Background(), feed, models.ImportOptions{Mode: models.ImportModeCreate})

	require.True(t, report.Success, "errors: %+v", report.Errors)
	assert.Equal(t, 2, report.Created)
	require.Len(t, store.bundles, 1)

	partID := store.byKey[storeKey("PART-1", "us")]
	assert.Equal(t, partID, store.bundles[0].ItemID)
	assert.Equal(t, "PART-1", store.bundles[0].ItemSKU)
	assert.Equal(t, 2, store.bundles[0].Quantity)
}

func TestRun_BundleResolvesAgainstPersistedCatalog(t *testing.T) {
	store := newFakeStore()
	existingID := store.seed("PART-OLD", "us")

	feed := []models.FeedRow{
		feedRow(2, map[string]string{
			"sku": "BUNDLE-1", "name": "Kit", "price": "50",
			"bundle_items": `[{"sku":"PART-OLD"}]`,
		}),
	}

	report := testReconciler(store).Run(context.Background(), feed, models.ImportOptions{Mode: models.ImportModeCreate})

	require.True(t, report.Success)
	require.Len(t, store.bundles, 1)
	assert.Equal(t, existingID, store.bundles[0].ItemID)
	assert.Equal(t, 1, store.bundles[0].Quantity, "quantity defaults to 1")
}

func TestRun_UnresolvableBundleReference(t *testing.T) {
	store := newFakeStore()
	feed := []models.FeedRow{
		feedRow(2, map[string]string{
			"sku": "BUNDLE-1", "name": "Kit", "price": "50",
			"bundle_items": `[{"sku":"GHOST-1"}]`,
			"faqs":         `[{"question":"Q","answer":"A"}]`,
		}),
		feedRow(3, map[string]string{"sku": "C", "name": "Gamma", "price": "30"}),
	}

	report := testReconciler(store).Run(context.Background(), feed, models.ImportOptions{Mode: models.ImportModeCreate})

	assert.False(t, report.Success)
	require.Len(t, report.Errors, 1)
	assert.Contains(t, report.Errors[0].Message, "GHOST-1")
	assert.Contains(t, report.Errors[0].Message, "us")
	assert.Equal(t, 2, report.Errors[0].Row)

	// the sibling row and the bundle's other relationships still import
	assert.Equal(t, 2, report.Created)
	assert.Len(t, store.faqs, 1)
	assert.Empty(t, store.bundles)
}

func TestRun_BundleScopedByRegion(t *testing.T) {
	store := newFakeStore()
	store.seed("PART-1", "eu")

	feed := []models.FeedRow{
		feedRow(2, map[string]string{
			"sku": "BUNDLE-1", "name": "Kit", "price": "50", "region": "us",
			"bundle_items": `[{"sku":"PART-1"}]`,
		}),
	}

	report := testReconciler(store).Run(context.Background(), feed, models.ImportOptions{Mode: models.ImportModeCreate})

	assert.False(t, report.Success, "a component in another region must not resolve")
	require.Len(t, report.Errors, 1)
	assert.Contains(t, report.Errors[0].Message, "PART-1")
}

func TestRun_DryRunMutatesNothing(t *testing.T) {
	store := newFakeStore()
	feed := []models.FeedRow{
		feedRow(2, map[string]string{
			"sku": "A", "name": "Alpha", "price": "10",
			"images": `[{"url":"https://cdn/a.jpg"}]`,
		}),
		feedRow(3, map[string]string{"sku": "B", "name": "", "price": "x"}),
	}

	report := testReconciler(store).Run(context.Background(), feed, models.ImportOptions{
		Mode: models.ImportModeCreate, DryRun: true,
	})

	assert.False(t, report.Success)
	assert.NotEmpty(t, report.Errors)
	assert.Zero(t, report.Created)
	assert.Zero(t, report.Updated)
	assert.Zero(t, report.Skipped)
	assert.Equal(t, 0, store.createCalls)
	assert.Empty(t, store.products)
	assert.Empty(t, store.images)
}

func TestRun_ValidateOnlyStopsBeforeLookups(t *testing.T) {
	store := newFakeStore()
	feed := []models.FeedRow{
		feedRow(2, map[string]string{"sku": "A", "name": "Alpha", "price": "10"}),
		feedRow(3, map[string]string{"sku": "", "name": "Beta", "price": "20"}),
	}

	report := testReconciler(store).Run(context.Background(), feed, models.ImportOptions{
		Mode: models.ImportModeCreate, ValidateOnly: true,
	})

	assert.False(t, report.Success)
	require.Len(t, report.Errors, 1)
	assert.Equal(t, 3, report.Errors[0].Row)
	assert.Empty(t, store.products)
}

func TestRun_UpdateModeOverwritesAndRewritesRelationships(t *testing.T) {
	store := newFakeStore()
	id := store.seed("A", "us")
	store.images = append(store.images, &models.ProductImage{ProductID: id, URL: "https://cdn/old.jpg"})

	feed := []models.FeedRow{
		feedRow(2, map[string]string{
			"sku": "A", "name": "Alpha v2", "price": "15",
			"images": `[{"url":"https://cdn/new.jpg","primary":true}]`,
		}),
	}

	report := testReconciler(store).Run(context.Background(), feed, models.ImportOptions{Mode: models.ImportModeUpdate})

	require.True(t, report.Success)
	assert.Equal(t, 1, report.Updated)
	assert.Equal(t, 1, store.updateCalls)
	assert.Equal(t, "Alpha v2", store.products[id].Name)
	require.Len(t, store.images, 1)
	assert.Equal(t, "https://cdn/new.jpg", store.images[0].URL)
}

func TestRun_CreateModeSkipsExisting(t *testing.T) {
	store := newFakeStore()
	store.seed("A", "us")

	report := testReconciler(store).Run(context.Background(), simpleFeed(), models.ImportOptions{Mode: models.ImportModeCreate})

	assert.True(t, report.Success)
	assert.Equal(t, 1, report.Created)
	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, 0, store.updateCalls)
}

func TestRun_SameSKUDifferentRegionsAreDistinct(t *testing.T) {
	store := newFakeStore()
	feed := []models.FeedRow{
		feedRow(2, map[string]string{"sku": "A", "name": "Alpha US", "price": "10", "region": "us"}),
		feedRow(3, map[string]string{"sku": "A", "name": "Alpha EU", "price": "12", "region": "eu"}),
	}

	report := testReconciler(store).Run(context.Background(), feed, models.ImportOptions{Mode: models.ImportModeCreate})

	assert.True(t, report.Success)
	assert.Equal(t, 2, report.Created)
	assert.Len(t, store.products, 2)
}

func TestRun_RowFailureDoesNotAbortBatch(t *testing.T) {
	store := newFakeStore()
	store.failCreateSKU = "A"

	report := testReconciler(store).Run(context.Background(), simpleFeed(), models.ImportOptions{Mode: models.ImportModeCreate})

	assert.False(t, report.Success)
	assert.Equal(t, 1, report.Created)
	require.Len(t, report.Errors, 1)
	assert.Equal(t, "A", report.Errors[0].SKU)
}

func TestRun_WarningRowStillImports(t *testing.T) {
	store := newFakeStore()
	feed := []models.FeedRow{
		feedRow(2, map[string]string{"sku": "A", "name": "Alpha", "price": "10", "category": "furniture"}),
	}

	report := testReconciler(store).Run(context.Background(), feed, models.ImportOptions{Mode: models.ImportModeCreate})

	assert.True(t, report.Success)
	assert.Equal(t, 1, report.Created)
	require.Len(t, report.Warnings, 1)
	assert.Empty(t, report.Errors)

	// the unrecognized category is persisted verbatim
	for _, p := range store.products {
		require.NotNil(t, p.Category)
		assert.Equal(t, "furniture", *p.Category)
	}
}

func TestRun_VariationOptionsCoerced(t *testing.T) {
	store := newFakeStore()
	feed := []models.FeedRow{
		feedRow(2, map[string]string{
			"sku": "A", "name": "Alpha", "price": "10",
			"variations": `[{"name":"Size","type":"dropdown","options":[` +
				`{"label":"S","price_adjustment":"-2.50","stock":3,"sort_order":"1"},` +
				`{"label":"M"}]}]`,
		}),
	}

	report := testReconciler(store).Run(context.Background(), feed, models.ImportOptions{Mode: models.ImportModeCreate})

	require.True(t, report.Success, "errors: %+v", report.Errors)
	require.Len(t, store.variations, 1)
	options := store.variations[0].Options
	require.Len(t, options, 2)

	assert.Equal(t, "-2.50", options[0].PriceAdjustment)
	require.NotNil(t, options[0].Stock)
	assert.Equal(t, 3, *options[0].Stock)
	assert.Equal(t, 1, options[0].Position)

	assert.Equal(t, "0", options[1].PriceAdjustment)
	assert.Nil(t, options[1].Stock)
	assert.Equal(t, 1, options[1].Position, "sort order falls back to slice index")
}
