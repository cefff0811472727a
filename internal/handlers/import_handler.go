package handlers

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
	"catalog-service/internal/importer"
	"catalog-service/internal/models"
)

// ProductExporter loads the catalog for feed generation.
type ProductExporter interface {
	ExportProducts(ctx context.Context, region string) ([]models.Product, error)
}

// ImportEventPublisher is notified when an import run finishes. Optional.
type ImportEventPublisher interface {
	PublishImportCompleted(report *models.ImportReport, opts models.ImportOptions)
}

type ImportHandler struct {
	reconciler *importer.Reconciler
	exporter   ProductExporter
	publisher  ImportEventPublisher
	logger     *logrus.Logger
}

func NewImportHandler(store importer.CatalogStore, exporter ProductExporter, publisher ImportEventPublisher, logger *logrus.Logger, defaultRegion string) *ImportHandler {
	return &ImportHandler{
		reconciler: importer.NewReconciler(store, logger, defaultRegion),
		exporter:   exporter,
		publisher:  publisher,
		logger:     logger,
	}
}

// GetImportTemplate returns the import template definition or file
// GET /api/v1/catalog/import/template
func (h *ImportHandler) GetImportTemplate(c *gin.Context) {
	format := c.DefaultQuery("format", "json")

	template := models.CatalogImportTemplate()

	switch format {
	case "csv":
		h.generateCSVTemplate(c, template)
	case "xlsx":
		h.generateXLSXTemplate(c, template)
	default:
		c.JSON(http.StatusOK, gin.H{
			"success":  true,
			"template": template,
		})
	}
}

// generateCSVTemplate generates and downloads a CSV template (headers only)
func (h *ImportHandler) generateCSVTemplate(c *gin.Context, template models.ImportTemplate) {
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", "attachment; filename=catalog_import_template.csv")

	writer := csv.NewWriter(c.Writer)
	defer writer.Flush()

	headers := make([]string, len(template.Columns))
	for i, col := range template.Columns {
		headers[i] = col.Name
	}
	writer.Write(headers)
}

// generateXLSXTemplate generates and downloads an Excel template
func (h *ImportHandler) generateXLSXTemplate(c *gin.Context, template models.ImportTemplate) {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Products"
	f.SetSheetName("Sheet1", sheetName)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})

	requiredStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"C65911"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})

	for i, col := range template.Columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		headerText := col.Name
		if col.Required {
			headerText = col.Name + " *"
		}
		f.SetCellValue(sheetName, cell, headerText)

		if col.Required {
			f.SetCellStyle(sheetName, cell, cell, requiredStyle)
		} else {
			f.SetCellStyle(sheetName, cell, cell, headerStyle)
		}

		colName, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheetName, colName, colName, 20)
	}

	// Add Instructions sheet
	f.NewSheet("Instructions")
	f.SetCellValue("Instructions", "A1", "Catalog Import Instructions")

	f.SetCellValue("Instructions", "A3", "REGIONS:")
	f.SetCellValue("Instructions", "A4", "Each row belongs to one region. The same SKU may appear once per region.")
	f.SetCellValue("Instructions", "A5", "Rows without a region column get the storefront's default region.")
	f.SetCellValue("Instructions", "A6", "Use region_group to link the regional variants of the same product.")

	f.SetCellValue("Instructions", "A8", "BUNDLES:")
	f.SetCellValue("Instructions", "A9", "bundle_items references component products by SKU within the row's region.")
	f.SetCellValue("Instructions", "A10", "Components may appear anywhere in the same file, including after the bundle row.")
	f.SetCellValue("Instructions", "A11", "A component that is neither in the file nor already in the catalog fails that bundle row.")

	f.SetCellValue("Instructions", "A13", "Column Definitions:")
	f.SetCellValue("Instructions", "A14", "Column")
	f.SetCellValue("Instructions", "B14", "Description")
	f.SetCellValue("Instructions", "C14", "Required")
	f.SetCellValue("Instructions", "D14", "Type")
	f.SetCellValue("Instructions", "E14", "Example")

	for i, col := range template.Columns {
		row := i + 15
		f.SetCellValue("Instructions", fmt.Sprintf("A%d", row), col.Name)
		f.SetCellValue("Instructions", fmt.Sprintf("B%d", row), col.Description)
		required := "Optional"
		if col.Required {
			required = "Required"
		}
		f.SetCellValue("Instructions", fmt.Sprintf("C%d", row), required)
		f.SetCellValue("Instructions", fmt.Sprintf("D%d", row), col.Type)
		f.SetCellValue("Instructions", fmt.Sprintf("E%d", row), col.Example)
	}

	f.SetColWidth("Instructions", "A", "A", 25)
	f.SetColWidth("Instructions", "B", "B", 60)
	f.SetColWidth("Instructions", "C", "C", 15)
	f.SetColWidth("Instructions", "D", "D", 15)
	f.SetColWidth("Instructions", "E", "E", 40)

	sheetIdx, _ := f.GetSheetIndex(sheetName)
	f.SetActiveSheet(sheetIdx)

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", "attachment; filename=catalog_import_template.xlsx")

	f.Write(c.Writer)
}

// ImportCatalog imports products from a CSV or Excel feed
// POST /api/v1/catalog/import
// The response is always a complete ImportReport; a row failure never aborts
// the batch.
func (h *ImportHandler) ImportCatalog(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "FILE_REQUIRED",
				Message: "Please upload a CSV or Excel file",
			},
		})
		return
	}
	defer file.Close()

	mode := models.ImportMode(c.DefaultPostForm("mode", string(models.ImportModeCreate)))
	switch mode {
	case models.ImportModeCreate, models.ImportModeUpdate, models.ImportModeSkipDuplicates:
	default:
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "INVALID_MODE",
				Message: "mode must be one of: create, update, skip-duplicates",
				Field:   "mode",
			},
		})
		return
	}

	opts := models.ImportOptions{
		Mode:          mode,
		DryRun:        c.DefaultPostForm("dryRun", "false") == "true",
		ValidateOnly:  c.DefaultPostForm("validateOnly", "false") == "true",
		DefaultRegion: c.DefaultPostForm("region", ""),
	}

	filename := strings.ToLower(header.Filename)
	var format models.ImportFormat
	if strings.HasSuffix(filename, ".csv") {
		format = models.ImportFormatCSV
	} else if strings.HasSuffix(filename, ".xlsx") {
		format = models.ImportFormatXLSX
	} else {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "INVALID_FORMAT",
				Message: "Only CSV and XLSX files are supported",
			},
		})
		return
	}

	rows, parseErr := importer.ParseFeed(file, format)
	if parseErr != nil {
		// Structural failure: no individual row can be blamed, so the report
		// carries a single row-0 diagnostic and nothing was attempted.
		c.JSON(http.StatusBadRequest, &models.ImportReport{
			Success: false,
			Errors: []models.Diagnostic{{
				Row:      0,
				Message:  parseErr.Error(),
				Severity: models.SeverityCritical,
			}},
			Warnings: []models.Diagnostic{},
		})
		return
	}

	if len(rows) == 0 {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "EMPTY_FILE",
				Message: "The file contains no data rows",
			},
		})
		return
	}

	report := h.reconciler.Run(c.Request.Context(), rows, opts)

	if h.publisher != nil && !opts.DryRun && !opts.ValidateOnly {
		h.publisher.PublishImportCompleted(report, opts)
	}

	c.JSON(http.StatusOK, report)
}

// ExportCatalog streams the catalog as a feed file that round-trips through
// the importer
// GET /api/v1/catalog/export?format=csv|xlsx&region=us
func (h *ImportHandler) ExportCatalog(c *gin.Context) {
	format := c.DefaultQuery("format", "csv")
	region := c.Query("region")

	if format != "csv" && format != "xlsx" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "INVALID_FORMAT",
				Message: "format must be csv or xlsx",
				Field:   "format",
			},
		})
		return
	}

	products, err := h.exporter.ExportProducts(c.Request.Context(), region)
	if err != nil {
		h.logger.WithError(err).Error("Failed to load catalog for export")
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "EXPORT_FAILED",
				Message: "Failed to export catalog",
			},
		})
		return
	}

	if format == "csv" {
		h.exportCSV(c, products)
		return
	}
	h.exportXLSX(c, products)
}

func (h *ImportHandler) exportCSV(c *gin.Context, products []models.Product) {
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", "attachment; filename=catalog_export.csv")

	writer := csv.NewWriter(c.Writer)
	defer writer.Flush()

	writer.Write(exportHeader())
	for i := range products {
		writer.Write(exportRow(&products[i]))
	}
}

func (h *ImportHandler) exportXLSX(c *gin.Context, products []models.Product) {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Products"
	f.SetSheetName("Sheet1", sheetName)

	for i, name := range exportHeader() {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, name)
	}
	for rowIdx := range products {
		values := exportRow(&products[rowIdx])
		for colIdx, value := range values {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			f.SetCellValue(sheetName, cell, value)
		}
	}

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", "attachment; filename=catalog_export.xlsx")

	f.Write(c.Writer)
}

func exportHeader() []string {
	columns := models.CatalogImportColumns()
	headers := make([]string, len(columns))
	for i, col := range columns {
		headers[i] = col.Name
	}
	return headers
}

// exportRow serializes one product in import column order. Relationship
// columns use the same JSON payload shapes the importer accepts.
func exportRow(p *models.Product) []string {
	return []string{
		p.SKU,
		p.Name,
		p.Price,
		p.Region,
		exportRegionGroup(p.RegionGroup),
		deref(p.Category),
		exportTags(p.Tags),
		deref(p.Description),
		deref(p.Brand),
		exportBool(p.Featured),
		exportInt(p.Quantity),
		deref(p.ComparePrice),
		deref(p.Weight),
		deref(p.SearchKeywords),
		exportImages(p.Images),
		exportVariations(p.Variations),
		exportBundleItems(p.BundleItems),
		exportFAQs(p.FAQs),
		exportManuals(p.Manuals),
		exportExtraInfo(p.ExtraInfo),
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func exportBool(b bool) string {
	if b {
		return "true"
	}
	return ""
}

func exportInt(n *int) string {
	if n == nil {
		return ""
	}
	return strconv.Itoa(*n)
}

// exportRegionGroup writes an empty cell for ungrouped products so re-import
// normalizes it back to no-group.
func exportRegionGroup(group string) string {
	if group == models.RegionGroupNone {
		return ""
	}
	return group
}

func exportTags(tags *models.JSONArray) string {
	if tags == nil || len(*tags) == 0 {
		return ""
	}
	return marshalColumn(tags)
}

func exportImages(images []*models.ProductImage) string {
	if len(images) == 0 {
		return ""
	}
	payloads := make([]models.ImagePayload, 0, len(images))
	for _, img := range images {
		payloads = append(payloads, models.ImagePayload{
			URL:       img.URL,
			Alt:       img.AltText,
			IsPrimary: img.IsPrimary,
		})
	}
	return marshalColumn(payloads)
}

func exportVariations(variations []*models.ProductVariation) string {
	if len(variations) == 0 {
		return ""
	}
	payloads := make([]models.VariationPayload, 0, len(variations))
	for _, v := range variations {
		payload := models.VariationPayload{
			Name:        v.Name,
			DisplayType: v.DisplayType,
		}
		for _, opt := range v.Options {
			payload.Options = append(payload.Options, models.OptionPayload{
				Label:           opt.Label,
				Image:           deref(opt.ImageURL),
				PriceAdjustment: opt.PriceAdjustment,
				Stock:           exportOptionStock(opt.Stock),
				SortOrder:       opt.Position,
			})
		}
		payloads = append(payloads, payload)
	}
	return marshalColumn(payloads)
}

func exportOptionStock(stock *int) interface{} {
	if stock == nil {
		return nil
	}
	return *stock
}

func exportBundleItems(items []*models.BundleItem) string {
	if len(items) == 0 {
		return ""
	}
	payloads := make([]models.BundleItemPayload, 0, len(items))
	for _, item := range items {
		payloads = append(payloads, models.BundleItemPayload{
			SKU:      item.ItemSKU,
			Quantity: item.Quantity,
		})
	}
	return marshalColumn(payloads)
}

func exportFAQs(faqs []*models.ProductFAQ) string {
	if len(faqs) == 0 {
		return ""
	}
	payloads := make([]models.FAQPayload, 0, len(faqs))
	for _, faq := range faqs {
		payloads = append(payloads, models.FAQPayload{
			Question: faq.Question,
			Answer:   faq.Answer,
		})
	}
	return marshalColumn(payloads)
}

func exportManuals(manuals []*models.ProductManual) string {
	if len(manuals) == 0 {
		return ""
	}
	payloads := make([]models.ManualPayload, 0, len(manuals))
	for _, manual := range manuals {
		payloads = append(payloads, models.ManualPayload{
			Title: manual.Title,
			URL:   manual.URL,
		})
	}
	return marshalColumn(payloads)
}

func exportExtraInfo(blocks []*models.ProductExtraInfo) string {
	if len(blocks) == 0 {
		return ""
	}
	payloads := make([]models.ExtraInfoPayload, 0, len(blocks))
	for _, block := range blocks {
		payloads = append(payloads, models.ExtraInfoPayload{
			Title: block.Title,
			Body:  block.Body,
		})
	}
	return marshalColumn(payloads)
}

func marshalColumn(v interface{}) string {
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(data)
}
