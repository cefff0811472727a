package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"catalog-service/internal/models"
)

func feedRow(number int, fields map[string]string) models.FeedRow {
	return models.FeedRow{Number: number, Fields: fields}
}

func criticalFields(result ValidationResult) []string {
	var fields []string
	for _, d := range result.Diagnostics {
		if d.Severity == models.SeverityCritical {
			fields = append(fields, d.Field)
		}
	}
	return fields
}

func TestValidateRow_CollectsAllMissingRequiredFields(t *testing.T) {
	result := ValidateRow(feedRow(2, map[string]string{}))

	assert.False(t, result.Valid)
	assert.ElementsMatch(t, []string{"sku", "name", "price"}, criticalFields(result))
}

func TestValidateRow_ValidMinimalRow(t *testing.T) {
	result := ValidateRow(feedRow(2, map[string]string{
		"sku":   "ABC-1",
		"name":  "Widget",
		"price": "9.99",
	}))

	assert.True(t, result.Valid)
	assert.Empty(t, result.Diagnostics)
}

func TestValidateRow_PriceRules(t *testing.T) {
	tests := []struct {
		name  string
		price string
		valid bool
	}{
		{"non-numeric", "free", false},
		{"negative", "-1", false},
		{"zero", "0", true},
		{"decimal", "19.95", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ValidateRow(feedRow(2, map[string]string{
				"sku": "A", "name": "Widget", "price": tt.price,
			}))
			assert.Equal(t, tt.valid, result.Valid)
		})
	}
}

func TestValidateRow_UnknownCategoryIsWarningOnly(t *testing.T) {
	result := ValidateRow(feedRow(2, map[string]string{
		"sku": "A", "name": "Widget", "price": "1", "category": "furniture",
	}))

	assert.True(t, result.Valid, "warnings must not exclude the row")
	require.Len(t, result.Diagnostics, 1)
	assert.Equal(t, models.SeverityWarning, result.Diagnostics[0].Severity)
	assert.Contains(t, result.Diagnostics[0].Message, "furniture")
}

func TestValidateRow_CategoryAsJSONArray(t *testing.T) {
	result := ValidateRow(feedRow(2, map[string]string{
		"sku": "A", "name": "Widget", "price": "1", "category": `["gaming"]`,
	}))
	assert.Empty(t, result.Diagnostics)
}

func TestValidateRow_BrokenCategoryJSONIsCritical(t *testing.T) {
	result := ValidateRow(feedRow(2, map[string]string{
		"sku": "A", "name": "Widget", "price": "1", "category": `["gaming`,
	}))
	assert.False(t, result.Valid)
}

func TestValidateRow_StructuredFieldMustBeJSONArray(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"truncated", `[{"url":"https://cdn/a.jpg"`},
		{"object not array", `{"url":"https://cdn/a.jpg"}`},
		{"plain text", "a.jpg;b.jpg"},
		{"json null", "null"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ValidateRow(feedRow(2, map[string]string{
				"sku": "A", "name": "Widget", "price": "1", "images": tt.raw,
			}))
			assert.False(t, result.Valid)
			assert.Contains(t, criticalFields(result), "images")
		})
	}
}

func TestValidateRow_RulesDoNotShortCircuit(t *testing.T) {
	result := ValidateRow(feedRow(2, map[string]string{
		"sku":   "A",
		"price": "free",
		"faqs":  "not-json",
	}))

	// missing name, bad price, bad faqs: all three reported
	assert.ElementsMatch(t, []string{"name", "price", "faqs"}, criticalFields(result))
}

func TestValidateRow_DropdownWithOptionImagesWarns(t *testing.T) {
	result := ValidateRow(feedRow(2, map[string]string{
		"sku": "A", "name": "Widget", "price": "1",
		"variations": `[{"name":"Color","type":"dropdown","options":[{"label":"Red","image":"https://cdn/red.jpg"}]}]`,
	}))

	assert.True(t, result.Valid)
	require.Len(t, result.Diagnostics, 1)
	assert.Equal(t, models.SeverityWarning, result.Diagnostics[0].Severity)
	assert.Contains(t, result.Diagnostics[0].Message, "Color")
}

func TestValidateRow_LegacySelectTreatedAsDropdown(t *testing.T) {
	result := ValidateRow(feedRow(2, map[string]string{
		"sku": "A", "name": "Widget", "price": "1",
		"variations": `[{"name":"Size","type":"select","options":[{"label":"M","image":"https://cdn/m.jpg"}]}]`,
	}))

	require.Len(t, result.Diagnostics, 1)
	assert.Equal(t, models.SeverityWarning, result.Diagnostics[0].Severity)
}

func TestValidateRow_ImageVariationWithoutImagesWarns(t *testing.T) {
	result := ValidateRow(feedRow(2, map[string]string{
		"sku": "A", "name": "Widget", "price": "1",
		"variations": `[{"name":"Finish","type":"image","options":[{"label":"Matte"}]}]`,
	}))

	assert.True(t, result.Valid)
	require.Len(t, result.Diagnostics, 1)
	assert.Contains(t, result.Diagnostics[0].Message, "Finish")
}
