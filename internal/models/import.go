package models

// ImportFormat represents the file format for import
type ImportFormat string

const (
	ImportFormatCSV  ImportFormat = "csv"
	ImportFormatXLSX ImportFormat = "xlsx"
)

// ImportMode controls how a feed row that matches an existing (SKU, region)
// pair is reconciled.
type ImportMode string

const (
	// ImportModeCreate imports new rows only; existing natural keys are
	// silently skipped without an error.
	ImportModeCreate ImportMode = "create"
	// ImportModeUpdate overwrites all provided fields of existing rows and
	// creates the rest.
	ImportModeUpdate ImportMode = "update"
	// ImportModeSkipDuplicates skips existing rows but still registers their
	// identity so later rows can reference them.
	ImportModeSkipDuplicates ImportMode = "skip-duplicates"
)

// ImportOptions represents import configuration supplied by the caller.
type ImportOptions struct {
	Mode          ImportMode `json:"mode"`
	DryRun        bool       `json:"dryRun"`       // validate and plan, mutate nothing
	ValidateOnly  bool       `json:"validateOnly"` // stop after validation
	DefaultRegion string     `json:"defaultRegion,omitempty"`
}

// Severity classifies a Diagnostic. Critical excludes a row from import,
// Warning does not.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
)

// Diagnostic describes one problem found while importing. Row 0 means the
// problem could not be attributed to a data row (structural feed failure).
type Diagnostic struct {
	Row      int      `json:"row"`
	Field    string   `json:"field,omitempty"`
	SKU      string   `json:"sku,omitempty"`
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
}

// FeedRow is the raw unit of input: column name to string value, plus the
// row's 1-based position in the feed document. Columns absent from a short
// row are absent keys, so downstream code can distinguish "omitted" from
// "present but empty".
type FeedRow struct {
	Number int
	Fields map[string]string
}

// Get returns the trimmed value for a column, empty if absent.
func (r FeedRow) Get(column string) string {
	return r.Fields[column]
}

// Has reports whether the column physically existed in the row.
func (r FeedRow) Has(column string) bool {
	_, ok := r.Fields[column]
	return ok
}

// ImagePayload is the decoded form of one entry of the images JSON column.
type ImagePayload struct {
	URL       string  `json:"url"`
	Alt       *string `json:"alt,omitempty"`
	IsPrimary bool    `json:"primary,omitempty"`
}

// OptionPayload is one option of a variation in the feed.
type OptionPayload struct {
	Label           string      `json:"label"`
	Image           string      `json:"image,omitempty"`
	PriceAdjustment interface{} `json:"price_adjustment,omitempty"`
	Stock           interface{} `json:"stock,omitempty"`
	SortOrder       interface{} `json:"sort_order,omitempty"`
}

// VariationPayload is one entry of the variations JSON column.
type VariationPayload struct {
	Name        string          `json:"name"`
	DisplayType string          `json:"type"`
	Options     []OptionPayload `json:"options,omitempty"`
}

// BundleItemPayload references another product by SKU; resolution to an
// identity happens during reconciliation.
type BundleItemPayload struct {
	SKU      string      `json:"sku"`
	Quantity interface{} `json:"quantity,omitempty"`
}

// FAQPayload is one entry of the faqs JSON column.
type FAQPayload struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// ManualPayload is one entry of the manuals JSON column.
type ManualPayload struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// ExtraInfoPayload is one entry of the extra_info JSON column.
type ExtraInfoPayload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// NormalizedRecord is the typed, validated form of one FeedRow. Only rows
// without Critical diagnostics reach this stage.
type NormalizedRecord struct {
	Row            int
	SKU            string
	Region         string
	RegionGroup    string
	Name           string
	Price          string
	ComparePrice   *string
	Category       *string
	Tags           []string
	Description    *string
	Brand          *string
	Featured       bool
	Quantity       *int
	Weight         *string
	SearchKeywords *string
	Images         []ImagePayload
	Variations     []VariationPayload
	BundleItems    []BundleItemPayload
	FAQs           []FAQPayload
	Manuals        []ManualPayload
	ExtraInfo      []ExtraInfoPayload
}

// RowOutcome is the per-row result of Pass 1.
type RowOutcome int

const (
	OutcomeCreated RowOutcome = iota
	OutcomeUpdated
	OutcomeSkipped
	OutcomeFailed
)

// ImportReport is the final result of one import call. Success is derived:
// true iff no diagnostic carries Critical severity.
type ImportReport struct {
	Success  bool         `json:"success"`
	Total    int          `json:"total"`
	Created  int          `json:"created"`
	Updated  int          `json:"updated"`
	Skipped  int          `json:"skipped"`
	Errors   []Diagnostic `json:"errors"`
	Warnings []Diagnostic `json:"warnings"`
}

// ImportTemplateColumn defines a column in the import template
type ImportTemplateColumn struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Required    bool   `json:"required"`
	Type        string `json:"type"` // string, number, boolean, json-array
	Example     string `json:"example"`
}

// ImportTemplate defines the structure of an import template
type ImportTemplate struct {
	Entity  string                 `json:"entity"`
	Version string                 `json:"version"`
	Columns []ImportTemplateColumn `json:"columns"`
}

// CatalogImportColumns returns the column definitions for the catalog feed
func CatalogImportColumns() []ImportTemplateColumn {
	return []ImportTemplateColumn{
		{Name: "sku", Description: "Product SKU, unique per region", Required: true, Type: "string", Example: "TSH-BLU-001"},
		{Name: "name", Description: "Product name", Required: true, Type: "string", Example: "Blue Cotton T-Shirt"},
		{Name: "price", Description: "Base price (decimal, >= 0)", Required: true, Type: "number", Example: "29.99"},
		{Name: "region", Description: "Region code - defaults to the primary region when omitted", Required: false, Type: "string", Example: "us"},
		{Name: "region_group", Description: "Cross-region group identifier shared by regional twins", Required: false, Type: "string", Example: "grp-tshirts"},
		{Name: "category", Description: "Category - unrecognized values import with a warning", Required: false, Type: "string", Example: "computing"},
		{Name: "tags", Description: "JSON array of strings, or comma-separated", Required: false, Type: "json-array", Example: `["summer","cotton"]`},
		{Name: "description", Description: "Product description", Required: false, Type: "string", Example: ""},
		{Name: "brand", Description: "Brand name", Required: false, Type: "string", Example: ""},
		{Name: "featured", Description: "true to feature on the storefront", Required: false, Type: "boolean", Example: "true"},
		{Name: "quantity", Description: "Stock quantity", Required: false, Type: "number", Example: ""},
		{Name: "compare_price", Description: "Original/compare price", Required: false, Type: "number", Example: ""},
		{Name: "weight", Description: "Product weight (kg)", Required: false, Type: "number", Example: ""},
		{Name: "search_keywords", Description: "Search keywords", Required: false, Type: "string", Example: ""},
		{Name: "images", Description: "JSON array of {url, alt, primary}", Required: false, Type: "json-array", Example: `[{"url":"https://cdn/a.jpg","primary":true}]`},
		{Name: "variations", Description: "JSON array of {name, type, options:[{label, image, price_adjustment, stock, sort_order}]}", Required: false, Type: "json-array", Example: `[{"name":"Size","type":"dropdown","options":[{"label":"M"}]}]`},
		{Name: "bundle_items", Description: "JSON array of {sku, quantity} referencing other rows in the same region", Required: false, Type: "json-array", Example: `[{"sku":"TSH-BLU-001","quantity":2}]`},
		{Name: "faqs", Description: "JSON array of {question, answer}", Required: false, Type: "json-array", Example: `[{"question":"Machine washable?","answer":"Yes"}]`},
		{Name: "manuals", Description: "JSON array of {title, url}", Required: false, Type: "json-array", Example: `[{"title":"Care guide","url":"https://cdn/care.pdf"}]`},
		{Name: "extra_info", Description: "JSON array of {title, body}", Required: false, Type: "json-array", Example: `[{"title":"Material","body":"100% cotton"}]`},
	}
}

// CatalogImportTemplate returns the template definition for the catalog feed
func CatalogImportTemplate() ImportTemplate {
	return ImportTemplate{
		Entity:  "catalog",
		Version: "2.0",
		Columns: CatalogImportColumns(),
	}
}
