package models

import (
	"database/sql/driver"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DefaultRegion is the region assigned to feed rows that omit one.
// Overridable via DEFAULT_REGION.
const DefaultRegion = "us"

// RegionGroupNone marks a product that belongs to no cross-region group.
// Group membership drives pricing/stock sharing downstream, so an empty
// string is never stored.
const RegionGroupNone = "no-group"

// Variation display types
const (
	VariationDisplayDropdown = "dropdown"
	VariationDisplayImage    = "image"
	VariationDisplayBoolean  = "boolean"
)

// legacyDisplayTypes maps pre-2.x feed labels to their current equivalents.
var legacyDisplayTypes = map[string]string{
	"model":  VariationDisplayImage,
	"radio":  VariationDisplayBoolean,
	"select": VariationDisplayDropdown,
}

// CanonicalDisplayType rewrites a legacy variation display type to its
// current label. Unknown values pass through lowercased.
func CanonicalDisplayType(t string) string {
	key := strings.ToLower(strings.TrimSpace(t))
	if mapped, ok := legacyDisplayTypes[key]; ok {
		return mapped
	}
	return key
}

// Categories is the fixed set of storefront categories. Feed values outside
// this set import with a warning and are stored verbatim for operator
// follow-up.
var Categories = []string{
	"appliances",
	"audio",
	"computing",
	"gaming",
	"mobile",
	"networking",
	"photography",
	"smart-home",
	"accessories",
}

// IsKnownCategory reports whether value matches the category set,
// case-insensitively after trimming.
func IsKnownCategory(value string) bool {
	needle := strings.ToLower(strings.TrimSpace(value))
	for _, c := range Categories {
		if c == needle {
			return true
		}
	}
	return false
}

// JSON type for PostgreSQL JSONB (object/map)
type JSON map[string]interface{}

func (j JSON) Value() (driver.Value, error) {
	return json.Marshal(j)
}

func (j *JSON) Scan(value interface{}) error {
	if value == nil {
		*j = make(JSON)
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}
	return json.Unmarshal(bytes, j)
}

// JSONArray type for PostgreSQL JSONB (array)
type JSONArray []interface{}

func (j JSONArray) Value() (driver.Value, error) {
	return json.Marshal(j)
}

func (j *JSONArray) Scan(value interface{}) error {
	if value == nil {
		*j = make(JSONArray, 0)
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}
	return json.Unmarshal(bytes, j)
}

// Product represents a base catalog entry. The natural key is (SKU, region):
// the same SKU may exist once per region, so every lookup is scoped by the
// pair, never by SKU alone.
type Product struct {
	ID             uuid.UUID           `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	SKU            string              `json:"sku" gorm:"not null;index:idx_products_region_sku,unique"`
	Region         string              `json:"region" gorm:"not null;index:idx_products_region_sku,unique;index:idx_products_region"`
	RegionGroup    string              `json:"regionGroup" gorm:"not null;default:'no-group';index"`
	Name           string              `json:"name" gorm:"not null"`
	Slug           *string             `json:"slug,omitempty" gorm:"index"`
	Description    *string             `json:"description,omitempty"`
	Price          string              `json:"price" gorm:"not null"`
	ComparePrice   *string             `json:"comparePrice,omitempty"`
	Category       *string             `json:"category,omitempty" gorm:"index"`
	Tags           *JSONArray          `json:"tags,omitempty" gorm:"type:jsonb"`
	Brand          *string             `json:"brand,omitempty" gorm:"index"`
	Featured       bool                `json:"featured" gorm:"not null;default:false"`
	Quantity       *int                `json:"quantity,omitempty"`
	Weight         *string             `json:"weight,omitempty"`
	SearchKeywords *string             `json:"searchKeywords,omitempty"`
	Images         []*ProductImage     `json:"images,omitempty" gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	Variations     []*ProductVariation `json:"variations,omitempty" gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	BundleItems    []*BundleItem       `json:"bundleItems,omitempty" gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	FAQs           []*ProductFAQ       `json:"faqs,omitempty" gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	Manuals        []*ProductManual    `json:"manuals,omitempty" gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	ExtraInfo      []*ProductExtraInfo `json:"extraInfo,omitempty" gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt      time.Time           `json:"createdAt"`
	UpdatedAt      time.Time           `json:"updatedAt"`
	DeletedAt      *gorm.DeletedAt     `json:"deletedAt,omitempty" gorm:"index"`
}

// ProductImage represents a positioned gallery image.
type ProductImage struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	ProductID uuid.UUID `json:"productId" gorm:"type:uuid;not null;index"`
	URL       string    `json:"url" gorm:"not null"`
	AltText   *string   `json:"altText,omitempty"`
	Position  int       `json:"position" gorm:"not null;default:0"`
	IsPrimary bool      `json:"isPrimary" gorm:"not null;default:false"`
	CreatedAt time.Time `json:"createdAt"`
}

// ProductVariation represents a configurable axis of a product (e.g. colour)
// with its ordered options.
type ProductVariation struct {
	ID          uuid.UUID          `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	ProductID   uuid.UUID          `json:"productId" gorm:"type:uuid;not null;index"`
	Name        string             `json:"name" gorm:"not null"`
	DisplayType string             `json:"displayType" gorm:"not null;default:'dropdown'"`
	Position    int                `json:"position" gorm:"not null;default:0"`
	Options     []*VariationOption `json:"options,omitempty" gorm:"foreignKey:VariationID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time          `json:"createdAt"`
}

// VariationOption represents one selectable option of a variation.
// Stock is nil when the option does not track stock.
type VariationOption struct {
	ID              uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	VariationID     uuid.UUID `json:"variationId" gorm:"type:uuid;not null;index"`
	Label           string    `json:"label" gorm:"not null"`
	ImageURL        *string   `json:"imageUrl,omitempty"`
	PriceAdjustment string    `json:"priceAdjustment" gorm:"not null;default:'0'"`
	Stock           *int      `json:"stock,omitempty"`
	Position        int       `json:"position" gorm:"not null;default:0"`
	CreatedAt       time.Time `json:"createdAt"`
}

// BundleItem links a bundle product to one of its component products.
// ItemSKU is kept denormalized so exports can round-trip without a join.
type BundleItem struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	ProductID uuid.UUID `json:"productId" gorm:"type:uuid;not null;index"`
	ItemID    uuid.UUID `json:"itemId" gorm:"type:uuid;not null;index"`
	ItemSKU   string    `json:"itemSku" gorm:"not null"`
	Quantity  int       `json:"quantity" gorm:"not null;default:1"`
	Position  int       `json:"position" gorm:"not null;default:0"`
	CreatedAt time.Time `json:"createdAt"`
}

// ProductFAQ represents one question/answer block.
type ProductFAQ struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	ProductID uuid.UUID `json:"productId" gorm:"type:uuid;not null;index"`
	Question  string    `json:"question" gorm:"not null"`
	Answer    string    `json:"answer" gorm:"not null"`
	Position  int       `json:"position" gorm:"not null;default:0"`
	CreatedAt time.Time `json:"createdAt"`
}

// ProductManual represents a downloadable manual/datasheet link.
type ProductManual struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	ProductID uuid.UUID `json:"productId" gorm:"type:uuid;not null;index"`
	Title     string    `json:"title" gorm:"not null"`
	URL       string    `json:"url" gorm:"not null"`
	Position  int       `json:"position" gorm:"not null;default:0"`
	CreatedAt time.Time `json:"createdAt"`
}

// ProductExtraInfo represents a free-form titled content block shown on the
// product page.
type ProductExtraInfo struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	ProductID uuid.UUID `json:"productId" gorm:"type:uuid;not null;index"`
	Title     string    `json:"title" gorm:"not null"`
	Body      string    `json:"body" gorm:"not null"`
	Position  int       `json:"position" gorm:"not null;default:0"`
	CreatedAt time.Time `json:"createdAt"`
}

// CreateProductRequest represents a request to create a new product
type CreateProductRequest struct {
	SKU            string   `json:"sku" binding:"required"`
	Region         string   `json:"region,omitempty"`
	RegionGroup    string   `json:"regionGroup,omitempty"`
	Name           string   `json:"name" binding:"required"`
	Slug           *string  `json:"slug,omitempty"`
	Description    *string  `json:"description,omitempty"`
	Price          string   `json:"price" binding:"required"`
	ComparePrice   *string  `json:"comparePrice,omitempty"`
	Category       *string  `json:"category,omitempty"`
	Tags           []string `json:"tags,omitempty"`
	Brand          *string  `json:"brand,omitempty"`
	Featured       bool     `json:"featured,omitempty"`
	Quantity       *int     `json:"quantity,omitempty"`
	Weight         *string  `json:"weight,omitempty"`
	SearchKeywords *string  `json:"searchKeywords,omitempty"`
}

// UpdateProductRequest represents a request to update a product
type UpdateProductRequest struct {
	Name           *string  `json:"name,omitempty"`
	Slug           *string  `json:"slug,omitempty"`
	Description    *string  `json:"description,omitempty"`
	Price          *string  `json:"price,omitempty"`
	ComparePrice   *string  `json:"comparePrice,omitempty"`
	Category       *string  `json:"category,omitempty"`
	Tags           []string `json:"tags,omitempty"`
	Brand          *string  `json:"brand,omitempty"`
	Featured       *bool    `json:"featured,omitempty"`
	Quantity       *int     `json:"quantity,omitempty"`
	Weight         *string  `json:"weight,omitempty"`
	SearchKeywords *string  `json:"searchKeywords,omitempty"`
}

// Response types
type PaginationInfo struct {
	Page        int   `json:"page"`
	Limit       int   `json:"limit"`
	Total       int64 `json:"total"`
	TotalPages  int   `json:"totalPages"`
	HasNext     bool  `json:"hasNext"`
	HasPrevious bool  `json:"hasPrevious"`
}

type ProductResponse struct {
	Success bool     `json:"success"`
	Data    *Product `json:"data"`
	Message *string  `json:"message,omitempty"`
}

type ProductListResponse struct {
	Success    bool            `json:"success"`
	Data       []Product       `json:"data"`
	Pagination *PaginationInfo `json:"pagination"`
}

type ErrorResponse struct {
	Success bool  `json:"success"`
	Error   Error `json:"error"`
}

type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

type SuccessResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message *string     `json:"message,omitempty"`
}

// TableName returns the table name for the Product model
func (Product) TableName() string {
	return "products"
}

// TableName returns the table name for the ProductImage model
func (ProductImage) TableName() string {
	return "product_images"
}

// TableName returns the table name for the ProductVariation model
func (ProductVariation) TableName() string {
	return "product_variations"
}

// TableName returns the table name for the VariationOption model
func (VariationOption) TableName() string {
	return "variation_options"
}

// TableName returns the table name for the BundleItem model
func (BundleItem) TableName() string {
	return "bundle_items"
}

// TableName returns the table name for the ProductFAQ model
func (ProductFAQ) TableName() string {
	return "product_faqs"
}

// TableName returns the table name for the ProductManual model
func (ProductManual) TableName() string {
	return "product_manuals"
}

// TableName returns the table name for the ProductExtraInfo model
func (ProductExtraInfo) TableName() string {
	return "product_extra_info"
}
