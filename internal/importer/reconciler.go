package importer

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"catalog-service/internal/models"
)

// naturalKey identifies a base product within one import run. Lookups are
// always scoped by the (SKU, region) pair, never by SKU alone.
type naturalKey struct {
	SKU    string
	Region string
}

// Reconciler runs the import pipeline over a parsed feed: validation,
// normalization, then a two-pass write against the catalog store. Rows are
// processed sequentially; Pass 2 depends on the complete identity map built
// in Pass 1, and diagnostics must report deterministic row numbers.
type Reconciler struct {
	store         CatalogStore
	logger        *logrus.Entry
	defaultRegion string
}

func NewReconciler(store CatalogStore, logger *logrus.Logger, defaultRegion string) *Reconciler {
	if defaultRegion == "" {
		defaultRegion = models.DefaultRegion
	}
	return &Reconciler{
		store:         store,
		logger:        logger.WithField("component", "reconciler"),
		defaultRegion: defaultRegion,
	}
}

// pass1Result is a row that survived Pass 1 and needs its relationships
// written in Pass 2.
type pass1Result struct {
	record  *models.NormalizedRecord
	id      uuid.UUID
	outcome models.RowOutcome
}

// Run executes one import call and always returns a complete report: no
// error from processing a single row escapes the batch loop.
func (r *Reconciler) Run(ctx context.Context, rows []models.FeedRow, opts models.ImportOptions) *models.ImportReport {
	report := newReportBuilder(len(rows))

	region := opts.DefaultRegion
	if region == "" {
		region = r.defaultRegion
	}

	// Validation stage: collect every diagnostic for every row.
	for _, row := range rows {
		result := ValidateRow(row)
		report.add(result.Diagnostics...)
	}

	if opts.ValidateOnly {
		return report.build()
	}

	// Normalization stage: only rows without Critical diagnostics proceed.
	var records []*models.NormalizedRecord
	for _, row := range rows {
		if report.hasCritical(row.Number) {
			continue
		}
		rec, err := NormalizeRow(row, region)
		if err != nil {
			report.add(models.Diagnostic{
				Row: row.Number, SKU: row.Get("sku"),
				Message:  fmt.Sprintf("Normalization failed: %v", err),
				Severity: models.SeverityCritical,
			})
			continue
		}
		records = append(records, rec)
	}

	identities := make(map[naturalKey]uuid.UUID)
	survivors := r.reconcileBase(ctx, records, opts, identities, report)

	if opts.DryRun {
		return report.build()
	}

	for _, res := range survivors {
		r.reconcileRelationships(ctx, res, identities, report)
	}

	result := report.build()
	r.logger.WithFields(logrus.Fields{
		"total":   result.Total,
		"created": result.Created,
		"updated": result.Updated,
		"skipped": result.Skipped,
		"errors":  len(result.Errors),
		"mode":    opts.Mode,
	}).Info("Catalog import reconciled")
	return result
}

// reconcileBase is Pass 1: create/update/skip base records in feed order and
// build the identity map consulted by Pass 2. A failure excludes only the
// offending row.
func (r *Reconciler) reconcileBase(
	ctx context.Context,
	records []*models.NormalizedRecord,
	opts models.ImportOptions,
	identities map[naturalKey]uuid.UUID,
	report *reportBuilder,
) []pass1Result {
	var survivors []pass1Result

	for _, rec := range records {
		key := naturalKey{SKU: rec.SKU, Region: rec.Region}

		existingID, found, err := r.store.FindProductID(ctx, rec.SKU, rec.Region)
		if err != nil {
			report.add(models.Diagnostic{
				Row: rec.Row, SKU: rec.SKU,
				Message:  fmt.Sprintf("Catalog lookup failed: %v", err),
				Severity: models.SeverityCritical,
			})
			continue
		}

		// Dry runs stop after the lookup: no identity registration, no
		// counting, and Pass 2 never runs.
		if opts.DryRun {
			continue
		}

		if !found {
			id, err := r.store.CreateProduct(ctx, productFromRecord(rec))
			if err != nil {
				report.add(models.Diagnostic{
					Row: rec.Row, SKU: rec.SKU,
					Message:  fmt.Sprintf("Failed to create product: %v", err),
					Severity: models.SeverityCritical,
				})
				continue
			}
			identities[key] = id
			report.addOutcome(models.OutcomeCreated)
			survivors = append(survivors, pass1Result{record: rec, id: id, outcome: models.OutcomeCreated})
			continue
		}

		switch opts.Mode {
		case models.ImportModeUpdate:
			if err := r.store.UpdateProduct(ctx, existingID, productFromRecord(rec)); err != nil {
				report.add(models.Diagnostic{
					Row: rec.Row, SKU: rec.SKU,
					Message:  fmt.Sprintf("Failed to update product: %v", err),
					Severity: models.SeverityCritical,
				})
				continue
			}
			identities[key] = existingID
			report.addOutcome(models.OutcomeUpdated)
			survivors = append(survivors, pass1Result{record: rec, id: existingID, outcome: models.OutcomeUpdated})
		default:
			// Create and SkipDuplicates both leave the existing row
			// untouched but still register its identity so later bundle
			// rows can reference it.
			identities[key] = existingID
			report.addOutcome(models.OutcomeSkipped)
		}
	}

	return survivors
}

// reconcileRelationships is Pass 2 for one row. A failure writing one
// relationship type is recorded and does not stop the others.
func (r *Reconciler) reconcileRelationships(
	ctx context.Context,
	res pass1Result,
	identities map[naturalKey]uuid.UUID,
	report *reportBuilder,
) {
	rec := res.record

	for i, img := range rec.Images {
		err := r.store.AddImage(ctx, &models.ProductImage{
			ProductID: res.id,
			URL:       img.URL,
			AltText:   img.Alt,
			Position:  i,
			IsPrimary: img.IsPrimary,
		})
		if err != nil {
			report.add(relationshipFailure(rec, "images", err))
			break
		}
	}

	for i, v := range rec.Variations {
		variation := &models.ProductVariation{
			ProductID:   res.id,
			Name:        v.Name,
			DisplayType: v.DisplayType,
			Position:    i,
		}
		for j, opt := range v.Options {
			option := &models.VariationOption{
				Label:           opt.Label,
				ImageURL:        optionalString(opt.Image),
				PriceAdjustment: coerceDecimal(opt.PriceAdjustment, "0"),
				Stock:           coerceOptionalInt(opt.Stock),
				Position:        coerceInt(opt.SortOrder, j),
			}
			variation.Options = append(variation.Options, option)
		}
		if err := r.store.AddVariation(ctx, variation); err != nil {
			report.add(relationshipFailure(rec, "variations", err))
			break
		}
	}

	for i, item := range rec.BundleItems {
		// Bundle references resolve in the parent row's region: first the
		// identity map built this run, then the persisted catalog for items
		// that predate the import.
		itemID, ok := identities[naturalKey{SKU: item.SKU, Region: rec.Region}]
		if !ok {
			liveID, found, err := r.store.FindProductID(ctx, item.SKU, rec.Region)
			if err != nil {
				report.add(relationshipFailure(rec, "bundle_items", err))
				continue
			}
			if !found {
				report.add(models.Diagnostic{
					Row: rec.Row, Field: "bundle_items", SKU: rec.SKU,
					Message:  fmt.Sprintf("Bundle item SKU '%s' not found in region '%s'", item.SKU, rec.Region),
					Severity: models.SeverityCritical,
				})
				continue
			}
			itemID = liveID
		}

		err := r.store.AddBundleItem(ctx, &models.BundleItem{
			ProductID: res.id,
			ItemID:    itemID,
			ItemSKU:   item.SKU,
			Quantity:  coerceInt(item.Quantity, 1),
			Position:  i,
		})
		if err != nil {
			report.add(relationshipFailure(rec, "bundle_items", err))
		}
	}

	for i, faq := range rec.FAQs {
		err := r.store.AddFAQ(ctx, &models.ProductFAQ{
			ProductID: res.id,
			Question:  faq.Question,
			Answer:    faq.Answer,
			Position:  i,
		})
		if err != nil {
			report.add(relationshipFailure(rec, "faqs", err))
			break
		}
	}

	for i, manual := range rec.Manuals {
		err := r.store.AddManual(ctx, &models.ProductManual{
			ProductID: res.id,
			Title:     manual.Title,
			URL:       manual.URL,
			Position:  i,
		})
		if err != nil {
			report.add(relationshipFailure(rec, "manuals", err))
			break
		}
	}

	for i, info := range rec.ExtraInfo {
		err := r.store.AddExtraInfo(ctx, &models.ProductExtraInfo{
			ProductID: res.id,
			Title:     info.Title,
			Body:      info.Body,
			Position:  i,
		})
		if err != nil {
			report.add(relationshipFailure(rec, "extra_info", err))
			break
		}
	}
}

func relationshipFailure(rec *models.NormalizedRecord, field string, err error) models.Diagnostic {
	return models.Diagnostic{
		Row: rec.Row, Field: field, SKU: rec.SKU,
		Message:  fmt.Sprintf("Failed to write %s: %v", field, err),
		Severity: models.SeverityCritical,
	}
}

// productFromRecord maps a normalized record onto the base product entity.
// Unknown categories are stored verbatim for operator follow-up.
func productFromRecord(rec *models.NormalizedRecord) *models.Product {
	product := &models.Product{
		SKU:            rec.SKU,
		Region:         rec.Region,
		RegionGroup:    rec.RegionGroup,
		Name:           rec.Name,
		Price:          rec.Price,
		ComparePrice:   rec.ComparePrice,
		Category:       rec.Category,
		Description:    rec.Description,
		Brand:          rec.Brand,
		Featured:       rec.Featured,
		Quantity:       rec.Quantity,
		Weight:         rec.Weight,
		SearchKeywords: rec.SearchKeywords,
	}
	if len(rec.Tags) > 0 {
		tags := make(models.JSONArray, 0, len(rec.Tags))
		for _, t := range rec.Tags {
			tags = append(tags, t)
		}
		product.Tags = &tags
	}
	return product
}
