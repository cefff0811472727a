package importer

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"catalog-service/internal/models"
)

// structuredFields are the feed columns that, when present and non-empty,
// must decode as JSON arrays.
var structuredFields = []string{
	"images",
	"variations",
	"bundle_items",
	"faqs",
	"manuals",
	"extra_info",
}

// ValidationResult carries the verdict for one feed row. Valid is true iff
// no Critical diagnostic was produced; warning-only rows still import.
type ValidationResult struct {
	Valid       bool
	Diagnostics []models.Diagnostic
}

// ValidateRow applies every rule independently and collects all diagnostics
// for the row rather than short-circuiting on the first failure.
func ValidateRow(row models.FeedRow) ValidationResult {
	var diags []models.Diagnostic
	sku := row.Get("sku")

	addCritical := func(field, message string) {
		diags = append(diags, models.Diagnostic{
			Row: row.Number, Field: field, SKU: sku,
			Message: message, Severity: models.SeverityCritical,
		})
	}
	addWarning := func(field, message string) {
		diags = append(diags, models.Diagnostic{
			Row: row.Number, Field: field, SKU: sku,
			Message: message, Severity: models.SeverityWarning,
		})
	}

	if strings.TrimSpace(sku) == "" {
		addCritical("sku", "SKU is required")
	}
	if strings.TrimSpace(row.Get("name")) == "" {
		addCritical("name", "Product name is required")
	}

	if price := row.Get("price"); strings.TrimSpace(price) == "" {
		addCritical("price", "Price is required")
	} else if parsed, err := strconv.ParseFloat(price, 64); err != nil {
		addCritical("price", "Price must be a valid number")
	} else if parsed < 0 {
		addCritical("price", "Price must not be negative")
	}

	if category := row.Get("category"); category != "" {
		// Keep single-value categories out of the list rules: the category
		// column may also arrive as a one-element JSON array.
		values, format := ParseStringList(category)
		switch {
		case format == FormatUnparseable:
			addCritical("category", "Category must be a value or a JSON array of one value")
		case len(values) > 0 && !models.IsKnownCategory(values[0]):
			addWarning("category", fmt.Sprintf("Unrecognized category '%s'", values[0]))
		}
	}

	for _, field := range structuredFields {
		raw := row.Get(field)
		if raw == "" {
			continue
		}
		if err := checkJSONArray(raw); err != nil {
			addCritical(field, fmt.Sprintf("Field '%s' must be a JSON array: %v", field, err))
		}
	}

	// Cross-field rules for variations, only meaningful once the column is a
	// well-formed array.
	if raw := row.Get("variations"); raw != "" && checkJSONArray(raw) == nil {
		var variations []models.VariationPayload
		if err := json.Unmarshal([]byte(raw), &variations); err == nil {
			for _, v := range variations {
				displayType := models.CanonicalDisplayType(v.DisplayType)
				hasImages := variationHasOptionImages(v)
				if displayType == models.VariationDisplayDropdown && hasImages {
					addWarning("variations", fmt.Sprintf(
						"Variation '%s' is declared dropdown but its options carry images; it will be stored as an image variation", v.Name))
				}
				if displayType == models.VariationDisplayImage && !hasImages {
					addWarning("variations", fmt.Sprintf(
						"Variation '%s' is declared image but none of its options carry an image", v.Name))
				}
			}
		}
	}

	valid := true
	for _, d := range diags {
		if d.Severity == models.SeverityCritical {
			valid = false
			break
		}
	}
	return ValidationResult{Valid: valid, Diagnostics: diags}
}

// checkJSONArray verifies raw decodes to a JSON array of any element type.
func checkJSONArray(raw string) error {
	if !strings.HasPrefix(strings.TrimSpace(raw), "[") {
		return fmt.Errorf("not an array")
	}
	var elements []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &elements); err != nil {
		return err
	}
	return nil
}

func variationHasOptionImages(v models.VariationPayload) bool {
	for _, opt := range v.Options {
		if strings.TrimSpace(opt.Image) != "" {
			return true
		}
	}
	return false
}
