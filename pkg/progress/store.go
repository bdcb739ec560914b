package progress

import (
    "context"
    "errors"
    "fmt"

    "github.com/zihao-lin/expenseflow/internal/models"
    "github.com/zihao-lin/expenseflow/pkg/logger"
)

// ErrNotFound is returned when a record does not exist for the given owner.
// A record owned by somebody else is indistinguishable from a missing one.
var ErrNotFound = errors.New("progress record not found")

// StoreType 定义存储类型
type StoreType string

const (
    StoreTypeRedis  StoreType = "redis"
    StoreTypeMemory StoreType = "memory"
)

// Update carries an absolute overwrite of the given fields. Nil fields are
// left untouched.
type Update struct {
    Current *int64
    Total   *int64
    Data    *models.ProgressData
}

// Store is the record store backing the tracker. Increment and AppendItem
// must be safe under interleaved concurrent callers.
type Store interface {
    // Create stores rec unless a record with the same owner and id already
    // exists; the first writer wins and the stored record is returned either way.
    Create(ctx context.Context, rec *models.ProgressRecord) (*models.ProgressRecord, error)
    // Get returns a point-in-time snapshot scoped to ownerID.
    Get(ctx context.Context, ownerID, id string) (*models.ProgressRecord, error)
    // Increment adds delta to the record's current counter.
    Increment(ctx context.Context, ownerID, id string, delta int64) error
    // Update overwrites the given fields.
    Update(ctx context.Context, ownerID, id string, upd Update) error
    // AppendItem appends one item outcome to the record's data payload.
    AppendItem(ctx context.Context, ownerID, id string, item models.ItemResult) error
    // Delete removes the record.
    Delete(ctx context.Context, ownerID, id string) error
}

// NewStore 创建存储实例的工厂方法
func NewStore(storeType StoreType, log logger.Logger) (Store, error) {
    switch storeType {
    case StoreTypeRedis:
        return NewRedisStore(log)
    case StoreTypeMemory:
        return NewMemoryStore(), nil
    default:
        return nil, fmt.Errorf("unsupported store type: %s", storeType)
    }
}
