package converters

import (
    "encoding/json"
    "fmt"
    "time"

    "github.com/zihao-lin/expenseflow/internal/models"
)

// ResultConverter 定义提取结果转换器接口
type ResultConverter interface {
    Convert(raw map[string]interface{}, fields []models.FieldDescriptor, filename string) (*models.ExtractedDocument, error)
}

// ExtractionConverter checks the raw model output against the field
// descriptors and splits scalar fields from repeated line items. Values with
// the wrong primitive type are dropped rather than failing the document.
type ExtractionConverter struct{}

func NewExtractionConverter() *ExtractionConverter {
    return &ExtractionConverter{}
}

func (c *ExtractionConverter) Convert(raw map[string]interface{}, fields []models.FieldDescriptor, filename string) (*models.ExtractedDocument, error) {
    if raw == nil {
        return nil, fmt.Errorf("no extraction output to convert")
    }

    byCode := make(map[string]models.FieldDescriptor, len(fields))
    for _, f := range fields {
        if f.ExtractionInstruction != "" {
            byCode[f.Code] = f
        }
    }

    doc := &models.ExtractedDocument{
        Filename:    filename,
        Fields:      make(map[string]interface{}, len(byCode)),
        ExtractedAt: time.Now(),
    }

    for code, value := range raw {
        if code == "items" {
            continue
        }
        desc, ok := byCode[code]
        if !ok {
            continue
        }
        if v, ok := coerce(value, desc.Type); ok {
            doc.Fields[code] = v
        }
    }

    rawItems, ok := raw["items"].([]interface{})
    if !ok {
        return doc, nil
    }
    for _, rawItem := range rawItems {
        entry, ok := rawItem.(map[string]interface{})
        if !ok {
            continue
        }
        item := make(map[string]interface{}, len(entry))
        for code, value := range entry {
            desc, ok := byCode[code]
            if !ok {
                continue
            }
            if v, ok := coerce(value, desc.Type); ok {
                item[code] = v
            }
        }
        if len(item) > 0 {
            doc.Items = append(doc.Items, item)
        }
    }

    return doc, nil
}

// coerce maps a decoded JSON value onto the declared field type.
func coerce(value interface{}, fieldType models.FieldType) (interface{}, bool) {
    switch fieldType {
    case models.FieldTypeString:
        v, ok := value.(string)
        return v, ok
    case models.FieldTypeNumber:
        switch n := value.(type) {
        case json.Number:
            f, err := n.Float64()
            return f, err == nil
        case float64:
            return n, true
        }
        return nil, false
    case models.FieldTypeBoolean:
        v, ok := value.(bool)
        return v, ok
    default:
        return nil, false
    }
}
