package extraction

import (
    "testing"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/zihao-lin/expenseflow/internal/models"
)

var testFields = []models.FieldDescriptor{
    {Code: "amount", Type: models.FieldTypeNumber, ExtractionInstruction: "total paid"},
    {Code: "note", Type: models.FieldTypeString},
}

func TestBuildSchemaFiltersUninstructedFields(t *testing.T) {
    schema := BuildSchema(testFields)

    properties, ok := schema["properties"].(map[string]interface{})
    require.True(t, ok)

    amount, ok := properties["amount"].(map[string]interface{})
    require.True(t, ok, "instruction-bearing field must be present")
    assert.Equal(t, "number", amount["type"])
    assert.Equal(t, "total paid", amount["description"])

    _, hasNote := properties["note"]
    assert.False(t, hasNote, "field without instruction must be omitted")

    required, ok := schema["required"].([]string)
    require.True(t, ok)
    assert.Contains(t, required, "amount")
    assert.Contains(t, required, "items")
    assert.Equal(t, false, schema["additionalProperties"])
}

func TestBuildSchemaItemsMirrorPropertySet(t *testing.T) {
    schema := BuildSchema(testFields)

    properties := schema["properties"].(map[string]interface{})
    items, ok := properties["items"].(map[string]interface{})
    require.True(t, ok, "items property is required")
    assert.Equal(t, "array", items["type"])

    entry, ok := items["items"].(map[string]interface{})
    require.True(t, ok)
    assert.Equal(t, "object", entry["type"])
    assert.Equal(t, false, entry["additionalProperties"])

    entryProps := entry["properties"].(map[string]interface{})
    assert.Contains(t, entryProps, "amount")
    assert.NotContains(t, entryProps, "items", "items must not nest itself")

    entryRequired := entry["required"].([]string)
    assert.Equal(t, []string{"amount"}, entryRequired)
}

func TestBuildSchemaEmptyFieldSet(t *testing.T) {
    schema := BuildSchema(nil)
    properties := schema["properties"].(map[string]interface{})
    assert.Len(t, properties, 1) // only items
    assert.Equal(t, []string{"items"}, schema["required"].([]string))
}

func TestBuildPromptSubstitution(t *testing.T) {
    got := BuildPrompt("Fields:\n{fields}", testFields, nil, nil)
    assert.Equal(t, "Fields:\n- amount: total paid", got)
}

func TestBuildPromptCategoriesAndProjects(t *testing.T) {
    categories := []models.Category{{Code: "travel"}, {Code: "meals"}}
    projects := []models.Project{{Code: "p-1"}}

    got := BuildPrompt("Categories: {categories}; Projects: {projects}", testFields, categories, projects)
    assert.Equal(t, "Categories: travel, meals; Projects: p-1", got)
}

func TestBuildPromptEmptyPlaceholders(t *testing.T) {
    got := BuildPrompt("A{fields}B{categories}C{projects}D", nil, nil, nil)
    assert.Equal(t, "ABCD", got)
}

func TestBuildPromptIsSinglePass(t *testing.T) {
    fields := []models.FieldDescriptor{
        {Code: "vendor", Type: models.FieldTypeString, ExtractionInstruction: "seller name, see {categories}"},
    }
    got := BuildPrompt("{fields}", fields, []models.Category{{Code: "travel"}}, nil)
    // The placeholder inside an instruction must survive literally.
    assert.Equal(t, "- vendor: seller name, see {categories}", got)
}
