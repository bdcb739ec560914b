// internal/extraction/schema.go
package extraction

import (
    "strings"

    "github.com/zihao-lin/expenseflow/internal/models"
)

// Prompt placeholders. Substitution is a single literal pass, so an
// instruction containing "{fields}" is never re-expanded.
const (
    PlaceholderFields     = "{fields}"
    PlaceholderCategories = "{categories}"
    PlaceholderProjects   = "{projects}"
)

// instructed filters down to the fields that participate in schema and
// prompt generation.
func instructed(fields []models.FieldDescriptor) []models.FieldDescriptor {
    out := make([]models.FieldDescriptor, 0, len(fields))
    for _, f := range fields {
        if f.ExtractionInstruction != "" {
            out = append(out, f)
        }
    }
    return out
}

// BuildSchema turns field descriptors into a JSON schema for structured
// output. Properties are exactly the instruction-bearing fields, typed per
// the declared primitive type with the instruction as description. The
// required "items" array carries repeated line items within one document
// (itemized receipts) and mirrors the same property set. Both levels forbid
// undeclared properties and require every declared one.
func BuildSchema(fields []models.FieldDescriptor) map[string]interface{} {
    active := instructed(fields)

    properties := make(map[string]interface{}, len(active)+1)
    required := make([]string, 0, len(active))
    for _, f := range active {
        properties[f.Code] = map[string]interface{}{
            "type":        string(f.Type),
            "description": f.ExtractionInstruction,
        }
        required = append(required, f.Code)
    }

    itemProperties := make(map[string]interface{}, len(active))
    for code, prop := range properties {
        itemProperties[code] = prop
    }

    properties["items"] = map[string]interface{}{
        "type": "array",
        "items": map[string]interface{}{
            "type":                 "object",
            "properties":           itemProperties,
            "required":             required,
            "additionalProperties": false,
        },
    }

    topRequired := make([]string, 0, len(required)+1)
    topRequired = append(topRequired, required...)
    topRequired = append(topRequired, "items")

    return map[string]interface{}{
        "type":                 "object",
        "properties":           properties,
        "required":             topRequired,
        "additionalProperties": false,
    }
}

// BuildPrompt renders template with a single pass of literal placeholder
// substitution. {fields} becomes a bulleted list of instruction-bearing
// fields; {categories} and {projects} become comma-joined code lists. A
// placeholder with nothing to enumerate resolves to an empty string.
func BuildPrompt(template string, fields []models.FieldDescriptor, categories []models.Category, projects []models.Project) string {
    bullets := make([]string, 0, len(fields))
    for _, f := range instructed(fields) {
        bullets = append(bullets, "- "+f.Code+": "+f.ExtractionInstruction)
    }

    categoryCodes := make([]string, 0, len(categories))
    for _, c := range categories {
        categoryCodes = append(categoryCodes, c.Code)
    }
    projectCodes := make([]string, 0, len(projects))
    for _, p := range projects {
        projectCodes = append(projectCodes, p.Code)
    }

    return strings.NewReplacer(
        PlaceholderFields, strings.Join(bullets, "\n"),
        PlaceholderCategories, strings.Join(categoryCodes, ", "),
        PlaceholderProjects, strings.Join(projectCodes, ", "),
    ).Replace(template)
}
