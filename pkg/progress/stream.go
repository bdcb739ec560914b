// pkg/progress/stream.go
package progress

import (
    "context"
    "errors"

    "time"

    "github.com/zihao-lin/expenseflow/internal/models"
    "github.com/zihao-lin/expenseflow/pkg/logger"
)

// EventKind names the two event types a subscriber can observe.
type EventKind string

const (
    EventProgress EventKind = "progress"
    EventError    EventKind = "error"
)

// Event is one server-push message. Snapshot is set for progress events,
// Err for the single diagnostic event emitted before an abnormal close.
type Event struct {
    Kind     EventKind
    Snapshot *models.ProgressRecord
    Err      error
}

// Watch subscribes to a record. The record is fetched or created up front,
// then a loop polls the store and pushes a snapshot only when it differs from
// the last one pushed. The channel is closed after the completion snapshot,
// after a single error event if the record disappears, or as soon as ctx is
// cancelled. The backing batch keeps running regardless of watchers.
func (t *Tracker) Watch(ctx context.Context, ownerID, id, recordType string) (<-chan Event, error) {
    if _, err := t.GetOrCreate(ctx, ownerID, id, recordType); err != nil {
        return nil, err
    }

    ch := make(chan Event)
    go t.watchLoop(ctx, ownerID, id, ch)
    return ch, nil
}

func (t *Tracker) watchLoop(ctx context.Context, ownerID, id string, ch chan<- Event) {
    defer close(ch)

    ticker := time.NewTicker(t.pollInterval)
    defer ticker.Stop()

    var last *models.ProgressRecord
    for {
        rec, err := t.store.Get(ctx, ownerID, id)
        switch {
        case errors.Is(err, ErrNotFound):
            // Deleted externally before completion. One diagnostic event,
            // then the stream is done.
            t.send(ctx, ch, Event{Kind: EventError, Err: ErrNotFound})
            return
        case err != nil:
            if ctx.Err() != nil {
                return
            }
            t.logger.Error("Progress poll failed",
                logger.String("id", id),
                logger.Error(err),
            )
            t.send(ctx, ch, Event{Kind: EventError, Err: err})
            return
        }

        if !rec.Equal(last) {
            if !t.send(ctx, ch, Event{Kind: EventProgress, Snapshot: rec}) {
                return
            }
            last = rec
        }

        if rec.Complete() {
            return
        }

        select {
        case <-ticker.C:
        case <-ctx.Done():
            return
        }
    }
}

func (t *Tracker) send(ctx context.Context, ch chan<- Event, ev Event) bool {
    select {
    case ch <- ev:
        return true
    case <-ctx.Done():
        return false
    }
}
