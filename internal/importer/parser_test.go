package importer

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"catalog-service/internal/models"
)

func TestParseCSV_HeaderNormalization(t *testing.T) {
	input := "SKU *, Name ,PRICE\nABC-1,Widget,9.99\n"

	rows, err := ParseCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, rows, 1)

	assert.Equal(t, "ABC-1", rows[0].Get("sku"))
	assert.Equal(t, "Widget", rows[0].Get("name"))
	assert.Equal(t, "9.99", rows[0].Get("price"))
}

func TestParseCSV_RowNumbersStartAtTwo(t *testing.T) {
	input := "sku,name,price\nA,First,1\nB,Second,2\n"

	rows, err := ParseCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, 2, rows[0].Number)
	assert.Equal(t, 3, rows[1].Number)
}

func TestParseCSV_ShortRowOmitsColumns(t *testing.T) {
	input := "sku,name,price,brand\nA,First,1\n"

	rows, err := ParseCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, rows, 1)

	assert.True(t, rows[0].Has("sku"))
	assert.True(t, rows[0].Has("price"))
	assert.False(t, rows[0].Has("brand"), "missing trailing column must be absent, not empty")
}

func TestParseCSV_ExtraCellsIgnored(t *testing.T) {
	input := "sku,name\nA,First,unexpected,more\n"

	rows, err := ParseCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Len(t, rows[0].Fields, 2)
}

func TestParseCSV_TrimsCellWhitespace(t *testing.T) {
	input := "sku,name,price\n  A  ,  First Widget ,1\n"

	rows, err := ParseCSV(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, "A", rows[0].Get("sku"))
	assert.Equal(t, "First Widget", rows[0].Get("name"))
}

func TestParseCSV_MalformedQuotingIsStructural(t *testing.T) {
	input := "sku,name\nA,\"bad\"quote\n"

	_, err := ParseCSV(strings.NewReader(input))
	assert.Error(t, err)
}

func TestParseCSV_EmptyHeaderFails(t *testing.T) {
	_, err := ParseCSV(strings.NewReader(""))
	assert.Error(t, err)
}

func TestParseFeed_UnsupportedFormat(t *testing.T) {
	_, err := ParseFeed(strings.NewReader("sku\nA\n"), models.ImportFormat("pdf"))
	assert.Error(t, err)
}

func TestParseXLSX_PrefersProductsSheet(t *testing.T) {
	f := excelize.NewFile()
	f.SetSheetName("Sheet1", "Scratch")
	f.SetCellValue("Scratch", "A1", "wrong")

	f.NewSheet("Products")
	f.SetCellValue("Products", "A1", "sku")
	f.SetCellValue("Products", "B1", "name")
	f.SetCellValue("Products", "A2", "ABC-1")
	f.SetCellValue("Products", "B2", "Widget")

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	rows, err := ParseXLSX(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 2, rows[0].Number)
	assert.Equal(t, "ABC-1", rows[0].Get("sku"))
	assert.Equal(t, "Widget", rows[0].Get("name"))
}

func TestParseXLSX_StripsRequiredMarker(t *testing.T) {
	f := excelize.NewFile()
	f.SetSheetName("Sheet1", "Products")
	f.SetCellValue("Products", "A1", "sku *")
	f.SetCellValue("Products", "B1", "price *")
	f.SetCellValue("Products", "A2", "A")
	f.SetCellValue("Products", "B2", "9.99")

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	rows, err := ParseXLSX(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "A", rows[0].Get("sku"))
	assert.Equal(t, "9.99", rows[0].Get("price"))
}
