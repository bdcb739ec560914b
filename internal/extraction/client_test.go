package extraction

import (
    "context"
    "encoding/json"
    "net/http"
    "net/http/httptest"
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    cfg "github.com/zihao-lin/expenseflow/config"
)

func poolConfig(endpoint string) *cfg.ExtractorConfig {
    return &cfg.ExtractorConfig{
        Endpoint:    endpoint,
        Model:       "test-model",
        MaxTokens:   256,
        MaxPoolSize: 2,
        PoolTimeout: 50 * time.Millisecond,
        Timeout:     time.Second,
    }
}

func TestClientExtract(t *testing.T) {
    srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        assert.Equal(t, "/api/generate", r.URL.Path)

        var body map[string]interface{}
        require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
        assert.Equal(t, "test-model", body["model"])
        assert.NotNil(t, body["format"])

        json.NewEncoder(w).Encode(generateResponse{
            Response: `{"vendor":"ACME Corp","total":12.5}`,
            Done:     true,
        })
    }))
    defer srv.Close()

    client := NewClient(poolConfig(srv.URL))
    got, err := client.Extract(context.Background(), &Request{
        Prompt: "extract",
        Schema: map[string]interface{}{"type": "object"},
        Images: [][]byte{[]byte("fake")},
    })
    require.NoError(t, err)
    assert.Equal(t, "ACME Corp", got["vendor"])
}

func TestClientExtractModelError(t *testing.T) {
    srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        json.NewEncoder(w).Encode(generateResponse{Error: "model not loaded"})
    }))
    defer srv.Close()

    client := NewClient(poolConfig(srv.URL))
    _, err := client.Extract(context.Background(), &Request{Prompt: "extract"})
    require.Error(t, err)
    assert.Contains(t, err.Error(), "model not loaded")
}

func TestClientPoolBoundsConcurrency(t *testing.T) {
    pool := NewClientPool(poolConfig("http://localhost:11434"))
    defer pool.Close()
    ctx := context.Background()

    first, err := pool.get(ctx)
    require.NoError(t, err)
    second, err := pool.get(ctx)
    require.NoError(t, err)

    _, err = pool.get(ctx)
    require.Error(t, err, "a third borrow must time out")

    pool.put(first)
    third, err := pool.get(ctx)
    require.NoError(t, err)

    pool.put(second)
    pool.put(third)
}

func TestClientPoolCloseIsIdempotent(t *testing.T) {
    pool := NewClientPool(poolConfig("http://localhost:11434"))
    require.NoError(t, pool.Close())
    require.NoError(t, pool.Close())
}

func TestClientPoolGetAfterClose(t *testing.T) {
    pool := NewClientPool(poolConfig("http://localhost:11434"))
    require.NoError(t, pool.Close())

    _, err := pool.get(context.Background())
    require.Error(t, err)
    assert.Contains(t, err.Error(), "closed")
}

func TestClientPoolPutAfterClose(t *testing.T) {
    pool := NewClientPool(poolConfig("http://localhost:11434"))

    client, err := pool.get(context.Background())
    require.NoError(t, err)
    require.NoError(t, pool.Close())

    assert.NotPanics(t, func() { pool.put(client) })
}
