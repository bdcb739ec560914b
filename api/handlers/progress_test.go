package handlers

import (
    "bufio"
    "context"
    "errors"
    "io"
    "net/http"
    "net/http/httptest"
    "strings"
    "testing"
    "time"

    "github.com/gin-gonic/gin"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/zihao-lin/expenseflow/internal/models"
    "github.com/zihao-lin/expenseflow/internal/service/pipeline"
    "github.com/zihao-lin/expenseflow/pkg/logger"
    "github.com/zihao-lin/expenseflow/pkg/progress"
)

// vanishedStore simulates a record that expired between creation and the
// first poll.
type vanishedStore struct {
    progress.Store
}

func (s *vanishedStore) Get(context.Context, string, string) (*models.ProgressRecord, error) {
    return nil, progress.ErrNotFound
}

// brokenStore simulates a store backend outage.
type brokenStore struct {
    progress.Store
}

func (s *brokenStore) Get(context.Context, string, string) (*models.ProgressRecord, error) {
    return nil, errors.New("connection refused")
}

func newProgressServer(t *testing.T, store progress.Store) (*httptest.Server, *progress.Tracker) {
    t.Helper()
    gin.SetMode(gin.TestMode)

    tracker := progress.NewTracker(store, logger.NewTestLogger(),
        progress.WithPollInterval(5*time.Millisecond),
    )
    h := NewProgressHandler(tracker, logger.NewTestLogger())

    r := gin.New()
    r.GET("/progress/:id", h.GetSnapshot)
    r.GET("/progress/:id/subscribe", h.Subscribe)

    srv := httptest.NewServer(r)
    t.Cleanup(srv.Close)
    return srv, tracker
}

func openStream(t *testing.T, ctx context.Context, url string) *http.Response {
    t.Helper()
    req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
    require.NoError(t, err)
    req.Header.Set("X-Owner-ID", "owner-1")

    resp, err := http.DefaultClient.Do(req)
    require.NoError(t, err)
    t.Cleanup(func() { resp.Body.Close() })
    return resp
}

// awaitFirstEvent reads lines until the first SSE event marker so the test
// knows the subscription went through the tracker.
func awaitFirstEvent(t *testing.T, body io.Reader) {
    t.Helper()
    scanner := bufio.NewScanner(body)
    for scanner.Scan() {
        if strings.HasPrefix(scanner.Text(), "event:") {
            return
        }
    }
    t.Fatal("stream closed before the first event")
}

func TestSubscribeUsesRequestedRecordType(t *testing.T) {
    srv, tracker := newProgressServer(t, progress.NewMemoryStore())

    ctx, cancel := context.WithCancel(context.Background())
    defer cancel()
    resp := openStream(t, ctx, srv.URL+"/progress/warmup-1/subscribe?type=rates:warmup")
    awaitFirstEvent(t, resp.Body)
    cancel()

    rec, err := tracker.Read(context.Background(), "owner-1", "warmup-1")
    require.NoError(t, err)
    assert.Equal(t, "rates:warmup", rec.Type)
}

func TestSubscribeDefaultsToDocumentProcessing(t *testing.T) {
    srv, tracker := newProgressServer(t, progress.NewMemoryStore())

    ctx, cancel := context.WithCancel(context.Background())
    defer cancel()
    resp := openStream(t, ctx, srv.URL+"/progress/batch-1/subscribe")
    awaitFirstEvent(t, resp.Body)
    cancel()

    rec, err := tracker.Read(context.Background(), "owner-1", "batch-1")
    require.NoError(t, err)
    assert.Equal(t, pipeline.TypeDocumentProcess, rec.Type)
}

func TestSubscribeVanishedRecordEmitsNotFound(t *testing.T) {
    srv, _ := newProgressServer(t, &vanishedStore{Store: progress.NewMemoryStore()})

    resp := openStream(t, context.Background(), srv.URL+"/progress/gone/subscribe")
    body, err := io.ReadAll(resp.Body)
    require.NoError(t, err)

    assert.Contains(t, string(body), "event:error")
    assert.Contains(t, string(body), "Not found")
    assert.NotContains(t, string(body), "unavailable")
}

func TestSubscribeStoreOutageIsNotReportedAsMissing(t *testing.T) {
    srv, _ := newProgressServer(t, &brokenStore{Store: progress.NewMemoryStore()})

    resp := openStream(t, context.Background(), srv.URL+"/progress/any/subscribe")
    body, err := io.ReadAll(resp.Body)
    require.NoError(t, err)

    assert.Contains(t, string(body), "event:error")
    assert.Contains(t, string(body), "Progress store unavailable")
    assert.NotContains(t, string(body), "Not found")
}

func TestGetSnapshotMissingRecord(t *testing.T) {
    srv, _ := newProgressServer(t, progress.NewMemoryStore())

    req, err := http.NewRequest(http.MethodGet, srv.URL+"/progress/nope", nil)
    require.NoError(t, err)
    req.Header.Set("X-Owner-ID", "owner-1")

    resp, err := http.DefaultClient.Do(req)
    require.NoError(t, err)
    defer resp.Body.Close()
    assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
