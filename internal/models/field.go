package models

// FieldType 字段的原始类型
type FieldType string

const (
    FieldTypeString  FieldType = "string"
    FieldTypeNumber  FieldType = "number"
    FieldTypeBoolean FieldType = "boolean"
)

// FieldDescriptor is a user-defined extraction field. Only descriptors with a
// non-empty ExtractionInstruction participate in schema and prompt building.
type FieldDescriptor struct {
    Code                  string    `json:"code" yaml:"code"`
    Type                  FieldType `json:"type" yaml:"type"`
    ExtractionInstruction string    `json:"extractionInstruction,omitempty" yaml:"extractionInstruction"`
}

// Category 支出类别
type Category struct {
    Code string `json:"code" yaml:"code"`
    Name string `json:"name,omitempty" yaml:"name"`
}

// Project 项目
type Project struct {
    Code string `json:"code" yaml:"code"`
    Name string `json:"name,omitempty" yaml:"name"`
}
