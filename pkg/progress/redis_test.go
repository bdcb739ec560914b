package progress

import (
    "context"
    "testing"
    "time"

    "github.com/alicebob/miniredis/v2"
    "github.com/redis/go-redis/v9"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/zihao-lin/expenseflow/internal/models"
    "github.com/zihao-lin/expenseflow/pkg/logger"
)

func newRedisTestStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
    t.Helper()
    mr := miniredis.RunT(t)
    client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
    t.Cleanup(func() { client.Close() })
    return &RedisStore{client: client, logger: logger.NewTestLogger()}, mr
}

func TestRedisCreateWritesFullRecordAtomically(t *testing.T) {
    store, _ := newRedisTestStore(t)
    ctx := context.Background()

    rec := &models.ProgressRecord{
        ID:        "batch-1",
        OwnerID:   "owner-1",
        Type:      "document:process",
        CreatedAt: time.Now(),
    }
    created, err := store.Create(ctx, rec)
    require.NoError(t, err)
    assert.Equal(t, "document:process", created.Type)

    got, err := store.Get(ctx, "owner-1", "batch-1")
    require.NoError(t, err)
    assert.Equal(t, "batch-1", got.ID)
    assert.Equal(t, "document:process", got.Type)
    assert.Equal(t, int64(0), got.Current)
    assert.Equal(t, int64(0), got.Total)
    assert.False(t, got.CreatedAt.IsZero())
}

func TestRedisCreateLoserReadsWinnerRecord(t *testing.T) {
    store, _ := newRedisTestStore(t)
    ctx := context.Background()

    winner := &models.ProgressRecord{
        ID:        "batch-2",
        OwnerID:   "owner-1",
        Type:      "document:process",
        Total:     7,
        CreatedAt: time.Now(),
    }
    _, err := store.Create(ctx, winner)
    require.NoError(t, err)

    loser := &models.ProgressRecord{
        ID:        "batch-2",
        OwnerID:   "owner-1",
        Type:      "rates:warmup",
        CreatedAt: time.Now(),
    }
    got, err := store.Create(ctx, loser)
    require.NoError(t, err)

    // The loser must see the winner's fully initialized record, never a
    // partial hash or its own values.
    assert.Equal(t, "document:process", got.Type)
    assert.Equal(t, int64(7), got.Total)
}

func TestRedisIncrementAndItems(t *testing.T) {
    store, _ := newRedisTestStore(t)
    ctx := context.Background()

    _, err := store.Create(ctx, &models.ProgressRecord{
        ID:        "batch-3",
        OwnerID:   "owner-1",
        Type:      "document:process",
        CreatedAt: time.Now(),
    })
    require.NoError(t, err)

    require.NoError(t, store.Increment(ctx, "owner-1", "batch-3", 2))
    require.NoError(t, store.Increment(ctx, "owner-1", "batch-3", 1))
    require.NoError(t, store.AppendItem(ctx, "owner-1", "batch-3", models.ItemResult{
        ItemIndex: 0,
        Status:    models.ItemFailed,
        ErrorKind: models.ErrorKindConversion,
        Error:     "broken page",
    }))

    got, err := store.Get(ctx, "owner-1", "batch-3")
    require.NoError(t, err)
    assert.Equal(t, int64(3), got.Current)
    require.Len(t, got.Data.Items, 1)
    assert.Equal(t, models.ErrorKindConversion, got.Data.Items[0].ErrorKind)
}

func TestRedisIncrementMissingRecord(t *testing.T) {
    store, _ := newRedisTestStore(t)

    err := store.Increment(context.Background(), "owner-1", "nope", 1)
    assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisRecordExpires(t *testing.T) {
    store, mr := newRedisTestStore(t)
    ctx := context.Background()

    _, err := store.Create(ctx, &models.ProgressRecord{
        ID:        "batch-4",
        OwnerID:   "owner-1",
        Type:      "document:process",
        CreatedAt: time.Now(),
    })
    require.NoError(t, err)

    mr.FastForward(recordRetention + time.Minute)

    _, err = store.Get(ctx, "owner-1", "batch-4")
    assert.ErrorIs(t, err, ErrNotFound)
}
