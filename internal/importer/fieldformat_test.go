package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseStringList_JSONArm(t *testing.T) {
	values, format := ParseStringList(`["summer"," cotton ",""]`)
	assert.Equal(t, FormatJSON, format)
	assert.Equal(t, []string{"summer", "cotton"}, values)
}

func TestParseStringList_DelimitedArm(t *testing.T) {
	values, format := ParseStringList("summer, cotton ,,sale")
	assert.Equal(t, FormatDelimited, format)
	assert.Equal(t, []string{"summer", "cotton", "sale"}, values)
}

func TestParseStringList_Empty(t *testing.T) {
	values, format := ParseStringList("   ")
	assert.Equal(t, FormatDelimited, format)
	assert.Empty(t, values)
}

func TestParseStringList_BrokenJSONIsNotResplit(t *testing.T) {
	values, format := ParseStringList(`["summer","cotton`)
	assert.Equal(t, FormatUnparseable, format)
	assert.Nil(t, values)
}

func TestParseStringList_JSONArrayOfObjectsIsUnparseable(t *testing.T) {
	_, format := ParseStringList(`[{"name":"x"}]`)
	assert.Equal(t, FormatUnparseable, format)
}
