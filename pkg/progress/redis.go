package progress

import (
    "context"
    "encoding/json"
    "fmt"
    "strconv"
    "time"

    "github.com/redis/go-redis/v9"

    cfg "github.com/zihao-lin/expenseflow/config"
    "github.com/zihao-lin/expenseflow/internal/models"
    "github.com/zihao-lin/expenseflow/pkg/logger"
)

// retention keeps finished batches readable for a day, matching the retention
// of stored originals.
const recordRetention = 24 * time.Hour

// RedisStore keeps each record in a hash plus a list of item results. All
// mutations map to single atomic redis commands, so concurrent item workers
// need no external locking.
type RedisStore struct {
    client *redis.Client
    logger logger.Logger
}

func NewRedisStore(log logger.Logger) (*RedisStore, error) {
    redisConfig := cfg.GetRedisConfig()
    client := redis.NewClient(&redis.Options{
        Addr:     redisConfig.Addr,
        Password: redisConfig.Password,
        DB:       redisConfig.DB,
    })

    if err := client.Ping(context.Background()).Err(); err != nil {
        return nil, fmt.Errorf("failed to connect to redis: %w", err)
    }

    return &RedisStore{client: client, logger: log}, nil
}

func recordKey(ownerID, id string) string {
    return fmt.Sprintf("progress:%s:%s", ownerID, id)
}

func itemsKey(ownerID, id string) string {
    return recordKey(ownerID, id) + ":items"
}

// createScript writes the whole record under the HSETNX guard in one atomic
// step, so a losing writer never observes a partially initialized hash.
var createScript = redis.NewScript(`
if redis.call("HSETNX", KEYS[1], "id", ARGV[1]) == 1 then
    redis.call("HSET", KEYS[1], "type", ARGV[2], "current", ARGV[3], "total", ARGV[4], "createdAt", ARGV[5])
    redis.call("EXPIRE", KEYS[1], ARGV[6])
    return 1
end
return 0
`)

// Create implements Store.Create. The script decides the winner; a losing
// writer reads back whatever the winner stored.
func (s *RedisStore) Create(ctx context.Context, rec *models.ProgressRecord) (*models.ProgressRecord, error) {
    key := recordKey(rec.OwnerID, rec.ID)

    won, err := createScript.Run(ctx, s.client, []string{key},
        rec.ID,
        rec.Type,
        rec.Current,
        rec.Total,
        rec.CreatedAt.UTC().Format(time.RFC3339Nano),
        int64(recordRetention.Seconds()),
    ).Int()
    if err != nil {
        return nil, fmt.Errorf("failed to create record: %w", err)
    }
    if won == 0 {
        return s.Get(ctx, rec.OwnerID, rec.ID)
    }

    return rec, nil
}

// Get implements Store.Get.
func (s *RedisStore) Get(ctx context.Context, ownerID, id string) (*models.ProgressRecord, error) {
    fields, err := s.client.HGetAll(ctx, recordKey(ownerID, id)).Result()
    if err != nil {
        return nil, fmt.Errorf("failed to read record: %w", err)
    }
    if len(fields) == 0 {
        return nil, ErrNotFound
    }

    rec := &models.ProgressRecord{
        ID:      fields["id"],
        OwnerID: ownerID,
        Type:    fields["type"],
    }
    rec.Current, _ = strconv.ParseInt(fields["current"], 10, 64)
    rec.Total, _ = strconv.ParseInt(fields["total"], 10, 64)
    if ts, err := time.Parse(time.RFC3339Nano, fields["createdAt"]); err == nil {
        rec.CreatedAt = ts
    }

    raw, err := s.client.LRange(ctx, itemsKey(ownerID, id), 0, -1).Result()
    if err != nil {
        return nil, fmt.Errorf("failed to read item results: %w", err)
    }
    for _, entry := range raw {
        var item models.ItemResult
        if err := json.Unmarshal([]byte(entry), &item); err != nil {
            s.logger.Warn("Skipping malformed item result",
                logger.String("id", id),
                logger.Error(err),
            )
            continue
        }
        rec.Data.Items = append(rec.Data.Items, item)
    }

    return rec, nil
}

// Increment implements Store.Increment via HIncrBy, which is commutative
// across concurrent workers.
func (s *RedisStore) Increment(ctx context.Context, ownerID, id string, delta int64) error {
    key := recordKey(ownerID, id)
    exists, err := s.client.Exists(ctx, key).Result()
    if err != nil {
        return fmt.Errorf("failed to check record: %w", err)
    }
    if exists == 0 {
        return ErrNotFound
    }
    if err := s.client.HIncrBy(ctx, key, "current", delta).Err(); err != nil {
        return fmt.Errorf("failed to increment record: %w", err)
    }
    return nil
}

// Update implements Store.Update.
func (s *RedisStore) Update(ctx context.Context, ownerID, id string, upd Update) error {
    key := recordKey(ownerID, id)
    exists, err := s.client.Exists(ctx, key).Result()
    if err != nil {
        return fmt.Errorf("failed to check record: %w", err)
    }
    if exists == 0 {
        return ErrNotFound
    }

    pipe := s.client.TxPipeline()
    if upd.Current != nil {
        pipe.HSet(ctx, key, "current", *upd.Current)
    }
    if upd.Total != nil {
        pipe.HSet(ctx, key, "total", *upd.Total)
    }
    if upd.Data != nil {
        items := itemsKey(ownerID, id)
        pipe.Del(ctx, items)
        for _, item := range upd.Data.Items {
            data, err := json.Marshal(item)
            if err != nil {
                return fmt.Errorf("failed to marshal item result: %w", err)
            }
            pipe.RPush(ctx, items, data)
        }
        pipe.Expire(ctx, items, recordRetention)
    }
    if _, err := pipe.Exec(ctx); err != nil {
        return fmt.Errorf("failed to update record: %w", err)
    }
    return nil
}

// AppendItem implements Store.AppendItem. RPush keeps concurrent appends
// intact without read-modify-write races.
func (s *RedisStore) AppendItem(ctx context.Context, ownerID, id string, item models.ItemResult) error {
    data, err := json.Marshal(item)
    if err != nil {
        return fmt.Errorf("failed to marshal item result: %w", err)
    }
    key := itemsKey(ownerID, id)
    pipe := s.client.TxPipeline()
    pipe.RPush(ctx, key, data)
    pipe.Expire(ctx, key, recordRetention)
    if _, err := pipe.Exec(ctx); err != nil {
        return fmt.Errorf("failed to append item result: %w", err)
    }
    return nil
}

// Delete implements Store.Delete.
func (s *RedisStore) Delete(ctx context.Context, ownerID, id string) error {
    if err := s.client.Del(ctx, recordKey(ownerID, id), itemsKey(ownerID, id)).Err(); err != nil {
        return fmt.Errorf("failed to delete record: %w", err)
    }
    return nil
}
