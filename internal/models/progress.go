package models

import (
    "time"
)

// ItemStatus 表示批次中单个条目的最终状态
type ItemStatus string

const (
    ItemSucceeded ItemStatus = "succeeded"
    ItemFailed    ItemStatus = "failed"
)

// ErrorKind classifies per-item failures so consumers don't have to parse
// error strings.
type ErrorKind string

const (
    ErrorKindNone       ErrorKind = ""
    ErrorKindValidation ErrorKind = "validation"
    ErrorKindStorage    ErrorKind = "storage"
    ErrorKindConversion ErrorKind = "conversion"
    ErrorKindExtraction ErrorKind = "extraction"
    ErrorKindInternal   ErrorKind = "internal"
)

// ItemResult records the outcome of one batch item.
type ItemResult struct {
    ItemIndex int        `json:"itemIndex"`
    Status    ItemStatus `json:"status"`
    ErrorKind ErrorKind  `json:"errorKind,omitempty"`
    Error     string     `json:"error,omitempty"`
}

// ProgressData is the structured payload attached to a progress record.
type ProgressData struct {
    Items []ItemResult `json:"items,omitempty"`
}

// ProgressRecord 进度记录
// Current never decreases; the record is complete once Current == Total and
// Total > 0. Failures of individual items live in Data, not in a separate
// state.
type ProgressRecord struct {
    ID        string       `json:"id"`
    OwnerID   string       `json:"-"`
    Type      string       `json:"type"`
    Current   int64        `json:"current"`
    Total     int64        `json:"total"`
    Data      ProgressData `json:"data"`
    CreatedAt time.Time    `json:"createdAt"`
}

// Complete reports whether every accepted item has been accounted for.
func (r *ProgressRecord) Complete() bool {
    return r.Total > 0 && r.Current == r.Total
}

// Equal compares the subscriber-visible parts of two snapshots. It decides
// whether a poll result is pushed to the stream.
func (r *ProgressRecord) Equal(o *ProgressRecord) bool {
    if o == nil {
        return false
    }
    if r.ID != o.ID || r.Type != o.Type || r.Current != o.Current || r.Total != o.Total {
        return false
    }
    if len(r.Data.Items) != len(o.Data.Items) {
        return false
    }
    for i := range r.Data.Items {
        if r.Data.Items[i] != o.Data.Items[i] {
            return false
        }
    }
    return true
}
