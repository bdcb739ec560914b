package models

import (
    "time"
)

// BatchReceipt is returned to the client after a batch upload has been
// accepted. Processing continues in the background under ProgressID.
type BatchReceipt struct {
    ProgressID string         `json:"progressId"`
    Accepted   []AcceptedItem `json:"accepted"`
    Rejected   []RejectedItem `json:"rejected,omitempty"`
}

// AcceptedItem 已接收的文档
type AcceptedItem struct {
    ItemIndex int    `json:"itemIndex"`
    Filename  string `json:"filename"`
    Size      int64  `json:"size"`
    StorageID string `json:"storageId,omitempty"`
}

// RejectedItem describes an upload that failed validation and was excluded
// from the batch before the progress total was fixed.
type RejectedItem struct {
    Filename string `json:"filename"`
    Error    string `json:"error"`
}

// ExtractedDocument 单个文档的结构化提取结果
type ExtractedDocument struct {
    Filename    string                   `json:"filename"`
    Fields      map[string]interface{}   `json:"fields"`
    Items       []map[string]interface{} `json:"items"`
    ExtractedAt time.Time                `json:"extractedAt"`
}
