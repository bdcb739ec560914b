package progress

import (
    "context"
    "sync"

    "github.com/zihao-lin/expenseflow/internal/models"
)

// MemoryStore is an in-process Store used by tests and single-binary dev
// runs. Snapshots returned by Get are copies.
type MemoryStore struct {
    mu      sync.Mutex
    records map[string]*models.ProgressRecord
}

func NewMemoryStore() *MemoryStore {
    return &MemoryStore{
        records: make(map[string]*models.ProgressRecord),
    }
}

func memKey(ownerID, id string) string {
    return ownerID + "/" + id
}

func (s *MemoryStore) Create(ctx context.Context, rec *models.ProgressRecord) (*models.ProgressRecord, error) {
    s.mu.Lock()
    defer s.mu.Unlock()

    key := memKey(rec.OwnerID, rec.ID)
    if existing, ok := s.records[key]; ok {
        return copyRecord(existing), nil
    }
    s.records[key] = copyRecord(rec)
    return copyRecord(rec), nil
}

func (s *MemoryStore) Get(ctx context.Context, ownerID, id string) (*models.ProgressRecord, error) {
    s.mu.Lock()
    defer s.mu.Unlock()

    rec, ok := s.records[memKey(ownerID, id)]
    if !ok {
        return nil, ErrNotFound
    }
    return copyRecord(rec), nil
}

func (s *MemoryStore) Increment(ctx context.Context, ownerID, id string, delta int64) error {
    s.mu.Lock()
    defer s.mu.Unlock()

    rec, ok := s.records[memKey(ownerID, id)]
    if !ok {
        return ErrNotFound
    }
    rec.Current += delta
    return nil
}

func (s *MemoryStore) Update(ctx context.Context, ownerID, id string, upd Update) error {
    s.mu.Lock()
    defer s.mu.Unlock()

    rec, ok := s.records[memKey(ownerID, id)]
    if !ok {
        return ErrNotFound
    }
    if upd.Current != nil {
        rec.Current = *upd.Current
    }
    if upd.Total != nil {
        rec.Total = *upd.Total
    }
    if upd.Data != nil {
        rec.Data = models.ProgressData{Items: append([]models.ItemResult(nil), upd.Data.Items...)}
    }
    return nil
}

func (s *MemoryStore) AppendItem(ctx context.Context, ownerID, id string, item models.ItemResult) error {
    s.mu.Lock()
    defer s.mu.Unlock()

    rec, ok := s.records[memKey(ownerID, id)]
    if !ok {
        return ErrNotFound
    }
    rec.Data.Items = append(rec.Data.Items, item)
    return nil
}

func (s *MemoryStore) Delete(ctx context.Context, ownerID, id string) error {
    s.mu.Lock()
    defer s.mu.Unlock()

    delete(s.records, memKey(ownerID, id))
    return nil
}

func copyRecord(rec *models.ProgressRecord) *models.ProgressRecord {
    out := *rec
    out.Data = models.ProgressData{Items: append([]models.ItemResult(nil), rec.Data.Items...)}
    return &out
}
