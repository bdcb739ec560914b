package converters

import (
    "encoding/json"
    "testing"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/zihao-lin/expenseflow/internal/models"
)

var converterFields = []models.FieldDescriptor{
    {Code: "amount", Type: models.FieldTypeNumber, ExtractionInstruction: "total paid"},
    {Code: "vendor", Type: models.FieldTypeString, ExtractionInstruction: "seller name"},
    {Code: "reimbursable", Type: models.FieldTypeBoolean, ExtractionInstruction: "is it reimbursable"},
    {Code: "note", Type: models.FieldTypeString}, // no instruction, never extracted
}

func TestConvertSplitsFieldsAndItems(t *testing.T) {
    raw := map[string]interface{}{
        "amount":       json.Number("42.50"),
        "vendor":       "ACME GmbH",
        "reimbursable": true,
        "note":         "should be ignored",
        "items": []interface{}{
            map[string]interface{}{"amount": json.Number("40"), "vendor": "ACME GmbH", "reimbursable": true},
            map[string]interface{}{"amount": json.Number("2.5"), "vendor": "ACME GmbH", "reimbursable": false},
        },
    }

    doc, err := NewExtractionConverter().Convert(raw, converterFields, "receipt.pdf")
    require.NoError(t, err)

    assert.Equal(t, "receipt.pdf", doc.Filename)
    assert.Equal(t, 42.5, doc.Fields["amount"])
    assert.Equal(t, "ACME GmbH", doc.Fields["vendor"])
    assert.Equal(t, true, doc.Fields["reimbursable"])
    assert.NotContains(t, doc.Fields, "note")

    require.Len(t, doc.Items, 2)
    assert.Equal(t, 40.0, doc.Items[0]["amount"])
    assert.Equal(t, false, doc.Items[1]["reimbursable"])
}

func TestConvertDropsMistypedValues(t *testing.T) {
    raw := map[string]interface{}{
        "amount": "not a number",
        "vendor": "ACME GmbH",
    }

    doc, err := NewExtractionConverter().Convert(raw, converterFields, "receipt.jpg")
    require.NoError(t, err)
    assert.NotContains(t, doc.Fields, "amount")
    assert.Equal(t, "ACME GmbH", doc.Fields["vendor"])
}

func TestConvertNilOutput(t *testing.T) {
    _, err := NewExtractionConverter().Convert(nil, converterFields, "receipt.jpg")
    assert.Error(t, err)
}
