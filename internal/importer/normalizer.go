package importer

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"catalog-service/internal/models"
)

// NormalizeRow converts a validated FeedRow into its typed form. It is a pure
// transform: any error escaping coercion is returned and recorded by the
// caller as a late Critical failure for the row.
func NormalizeRow(row models.FeedRow, defaultRegion string) (*models.NormalizedRecord, error) {
	if defaultRegion == "" {
		defaultRegion = models.DefaultRegion
	}

	rec := &models.NormalizedRecord{
		Row:   row.Number,
		SKU:   row.Get("sku"),
		Name:  row.Get("name"),
		Price: row.Get("price"),
	}

	rec.Region = strings.ToLower(strings.TrimSpace(row.Get("region")))
	if rec.Region == "" {
		rec.Region = defaultRegion
	}
	rec.RegionGroup = normalizeRegionGroup(row.Get("region_group"))

	if values, format := ParseStringList(row.Get("category")); format != FormatUnparseable && len(values) > 0 {
		// A product belongs to exactly one category; the feed sometimes
		// wraps it in a one-element array.
		category := values[0]
		rec.Category = &category
	}
	if values, format := ParseStringList(row.Get("tags")); format != FormatUnparseable {
		rec.Tags = values
	}

	rec.ComparePrice = optionalString(row.Get("compare_price"))
	rec.Description = optionalString(row.Get("description"))
	rec.Brand = optionalString(row.Get("brand"))
	rec.Weight = optionalString(row.Get("weight"))
	rec.SearchKeywords = optionalString(row.Get("search_keywords"))
	rec.Quantity = parseOptionalInt(row.Get("quantity"))
	rec.Featured = strings.EqualFold(strings.TrimSpace(row.Get("featured")), "true")

	if err := decodeStructured(row, "images", &rec.Images); err != nil {
		return nil, err
	}
	if err := decodeStructured(row, "variations", &rec.Variations); err != nil {
		return nil, err
	}
	if err := decodeStructured(row, "bundle_items", &rec.BundleItems); err != nil {
		return nil, err
	}
	if err := decodeStructured(row, "faqs", &rec.FAQs); err != nil {
		return nil, err
	}
	if err := decodeStructured(row, "manuals", &rec.Manuals); err != nil {
		return nil, err
	}
	if err := decodeStructured(row, "extra_info", &rec.ExtraInfo); err != nil {
		return nil, err
	}

	for i := range rec.Variations {
		rec.Variations[i].DisplayType = resolveDisplayType(rec.Variations[i])
	}

	return rec, nil
}

// resolveDisplayType maps legacy labels to their current equivalents and
// reclassifies a dropdown whose options carry images as an image variation.
func resolveDisplayType(v models.VariationPayload) string {
	displayType := models.CanonicalDisplayType(v.DisplayType)
	if displayType == "" {
		displayType = models.VariationDisplayDropdown
	}
	if displayType == models.VariationDisplayDropdown && variationHasOptionImages(v) {
		return models.VariationDisplayImage
	}
	return displayType
}

// normalizeRegionGroup maps an omitted or explicitly null group identifier to
// the no-group marker. Group membership must never be ambiguous.
func normalizeRegionGroup(raw string) string {
	group := strings.TrimSpace(raw)
	if group == "" || strings.EqualFold(group, "null") {
		return models.RegionGroupNone
	}
	return group
}

func decodeStructured[T any](row models.FeedRow, field string, dst *[]T) error {
	raw := row.Get(field)
	if raw == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return fmt.Errorf("failed to decode '%s': %w", field, err)
	}
	return nil
}

// optionalString returns nil for empty strings, pointer otherwise
func optionalString(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

// parseOptionalInt treats unparseable numeric fields as absent, not zero.
func parseOptionalInt(value string) *int {
	if value == "" {
		return nil
	}
	if num, err := strconv.Atoi(value); err == nil {
		return &num
	}
	return nil
}

// coerceInt pulls an int out of a loosely-typed JSON value, falling back to
// def when the value is missing or unparseable.
func coerceInt(value interface{}, def int) int {
	switch v := value.(type) {
	case float64:
		return int(v)
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return def
}

// coerceOptionalInt is coerceInt with "absent" instead of a default.
func coerceOptionalInt(value interface{}) *int {
	switch v := value.(type) {
	case float64:
		n := int(v)
		return &n
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return &n
		}
	}
	return nil
}

// coerceDecimal renders a loosely-typed JSON number as a decimal string,
// falling back to def when unparseable.
func coerceDecimal(value interface{}, def string) string {
	switch v := value.(type) {
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case string:
		trimmed := strings.TrimSpace(v)
		if _, err := strconv.ParseFloat(trimmed, 64); err == nil {
			return trimmed
		}
	}
	return def
}
