// internal/utils/validator/document.go
package validator

import (
    "bytes"
    "crypto/sha256"
    "encoding/hex"
    "fmt"
    "io"
    "mime/multipart"
    "net/http"
    "path/filepath"
    "strings"

    "github.com/ledongthuc/pdf"

    "github.com/zihao-lin/expenseflow/pkg/logger"
)

// DocumentValidator 文档验证器
type DocumentValidator struct {
    logger logger.Logger
    config *Config
}

// Config 验证器配置
type Config struct {
    MaxFileSize  int64               // 最大文件大小（字节）
    AllowedTypes map[string][]string // 允许的文件类型 {扩展名: []MIME类型}
    MaxPageCount int                 // PDF最大页数
}

// Result 验证结果
type Result struct {
    IsValid  bool              `json:"isValid"`
    Errors   []ValidationError `json:"errors,omitempty"`
    FileInfo FileInfo          `json:"fileInfo"`
}

// ValidationError 验证错误
type ValidationError struct {
    Code    string `json:"code"`
    Message string `json:"message"`
    Field   string `json:"field,omitempty"`
}

// FileInfo 文件信息
type FileInfo struct {
    Filename  string `json:"filename"`
    Size      int64  `json:"size"`
    MimeType  string `json:"mimeType"`
    Extension string `json:"extension"`
    Hash      string `json:"hash"`
    PageCount int    `json:"pageCount,omitempty"`
}

// DefaultConfig covers the document types the pipeline can preview.
func DefaultConfig() *Config {
    return &Config{
        MaxFileSize: 50 * 1024 * 1024, // 50MB
        AllowedTypes: map[string][]string{
            ".pdf":  {"application/pdf"},
            ".jpg":  {"image/jpeg"},
            ".jpeg": {"image/jpeg"},
            ".png":  {"image/png"},
            ".tiff": {"image/tiff"},
            ".webp": {"image/webp"},
        },
        MaxPageCount: 100,
    }
}

// NewDocumentValidator 创建新的文档验证器
func NewDocumentValidator(log logger.Logger, config *Config) *DocumentValidator {
    if config == nil {
        config = DefaultConfig()
    }
    return &DocumentValidator{
        logger: log,
        config: config,
    }
}

// ValidateFile 验证单个文件
func (v *DocumentValidator) ValidateFile(file *multipart.FileHeader) (*Result, error) {
    result := &Result{
        IsValid: true,
        FileInfo: FileInfo{
            Filename:  file.Filename,
            Size:      file.Size,
            Extension: strings.ToLower(filepath.Ext(file.Filename)),
        },
    }

    f, err := file.Open()
    if err != nil {
        return nil, fmt.Errorf("failed to open file: %w", err)
    }
    defer f.Close()

    content, err := io.ReadAll(f)
    if err != nil {
        return nil, fmt.Errorf("failed to read file: %w", err)
    }

    hash := sha256.Sum256(content)
    result.FileInfo.Hash = hex.EncodeToString(hash[:])
    result.FileInfo.MimeType = detectMimeType(content)

    if errs := v.performBasicValidation(result.FileInfo); len(errs) > 0 {
        result.IsValid = false
        result.Errors = append(result.Errors, errs...)
    }

    if result.FileInfo.Extension == ".pdf" {
        pageCount, errs := v.validatePDF(content)
        result.FileInfo.PageCount = pageCount
        if len(errs) > 0 {
            result.IsValid = false
            result.Errors = append(result.Errors, errs...)
        }
    }

    return result, nil
}

// 基本验证

func (v *DocumentValidator) performBasicValidation(fileInfo FileInfo) []ValidationError {
    var errors []ValidationError

    if fileInfo.Size > v.config.MaxFileSize {
        errors = append(errors, ValidationError{
            Code:    "FILE_TOO_LARGE",
            Message: fmt.Sprintf("File size exceeds maximum limit of %d bytes", v.config.MaxFileSize),
            Field:   "size",
        })
    }

    allowedMimes, ok := v.config.AllowedTypes[fileInfo.Extension]
    if !ok {
        errors = append(errors, ValidationError{
            Code:    "INVALID_FILE_TYPE",
            Message: fmt.Sprintf("File type %s is not allowed", fileInfo.Extension),
            Field:   "extension",
        })
        return errors
    }

    mimeValid := false
    for _, mime := range allowedMimes {
        if mime == fileInfo.MimeType {
            mimeValid = true
            break
        }
    }
    if !mimeValid {
        errors = append(errors, ValidationError{
            Code:    "INVALID_MIME_TYPE",
            Message: fmt.Sprintf("Invalid MIME type %s for extension %s", fileInfo.MimeType, fileInfo.Extension),
            Field:   "mimeType",
        })
    }

    return errors
}

// PDF特定验证：页数上限和可解析性
func (v *DocumentValidator) validatePDF(content []byte) (int, []ValidationError) {
    reader := bytes.NewReader(content)
    pdfReader, err := pdf.NewReader(reader, reader.Size())
    if err != nil {
        return 0, []ValidationError{{
            Code:    "CORRUPT_PDF",
            Message: fmt.Sprintf("Failed to parse PDF: %v", err),
            Field:   "content",
        }}
    }

    pageCount := pdfReader.NumPage()
    if pageCount > v.config.MaxPageCount {
        return pageCount, []ValidationError{{
            Code:    "TOO_MANY_PAGES",
            Message: fmt.Sprintf("PDF has %d pages, maximum is %d", pageCount, v.config.MaxPageCount),
            Field:   "pageCount",
        }}
    }

    return pageCount, nil
}

// 检测MIME类型
func detectMimeType(content []byte) string {
    if len(content) > 512 {
        content = content[:512]
    }
    return http.DetectContentType(content)
}

// ErrorSummary flattens validation errors into one message for the batch
// rejection list.
func (r *Result) ErrorSummary() string {
    msgs := make([]string, 0, len(r.Errors))
    for _, e := range r.Errors {
        msgs = append(msgs, e.Message)
    }
    return strings.Join(msgs, "; ")
}
