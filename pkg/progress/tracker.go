// pkg/progress/tracker.go
package progress

import (
    "context"
    "fmt"
    "time"

    "github.com/zihao-lin/expenseflow/internal/models"
    "github.com/zihao-lin/expenseflow/pkg/logger"
)

// DefaultPollInterval is how often subscriber streams re-read the store.
const DefaultPollInterval = 2 * time.Second

// Tracker owns progress record lifecycle and the push protocol to
// subscribers. It never deletes records itself; cleanup is the owner's
// concern.
type Tracker struct {
    store        Store
    logger       logger.Logger
    pollInterval time.Duration
}

// Option defines tracker option function
type Option func(*Tracker)

// WithPollInterval overrides the stream poll interval.
func WithPollInterval(d time.Duration) Option {
    return func(t *Tracker) {
        t.pollInterval = d
    }
}

// NewTracker creates a tracker backed by store.
func NewTracker(store Store, log logger.Logger, opts ...Option) *Tracker {
    t := &Tracker{
        store:        store,
        logger:       log,
        pollInterval: DefaultPollInterval,
    }
    for _, opt := range opts {
        opt(t)
    }
    return t
}

// GetOrCreate returns the existing record unchanged if present, otherwise
// creates an empty one (current=0, total=0). It never resets an in-progress
// record.
func (t *Tracker) GetOrCreate(ctx context.Context, ownerID, id, recordType string) (*models.ProgressRecord, error) {
    rec, err := t.store.Create(ctx, &models.ProgressRecord{
        ID:        id,
        OwnerID:   ownerID,
        Type:      recordType,
        CreatedAt: time.Now(),
    })
    if err != nil {
        return nil, fmt.Errorf("failed to get or create progress record: %w", err)
    }
    return rec, nil
}

// Increment adds amount to the record's current counter. Additive and
// commutative, so interleaved item workers need no ordering.
func (t *Tracker) Increment(ctx context.Context, ownerID, id string, amount int64) error {
    return t.store.Increment(ctx, ownerID, id, amount)
}

// Update overwrites the given fields of the record.
func (t *Tracker) Update(ctx context.Context, ownerID, id string, upd Update) error {
    return t.store.Update(ctx, ownerID, id, upd)
}

// RecordItem attaches one item outcome to the record's data payload.
func (t *Tracker) RecordItem(ctx context.Context, ownerID, id string, item models.ItemResult) error {
    return t.store.AppendItem(ctx, ownerID, id, item)
}

// Read returns a point-in-time snapshot scoped to ownerID.
func (t *Tracker) Read(ctx context.Context, ownerID, id string) (*models.ProgressRecord, error) {
    return t.store.Get(ctx, ownerID, id)
}
