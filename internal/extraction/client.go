package extraction

import (
    "bytes"
    "context"
    "encoding/base64"
    "encoding/json"
    "fmt"
    "io"
    "net/http"
    "strings"
    "sync"
    "time"

    cfg "github.com/zihao-lin/expenseflow/config"
)

// Request carries one document to the extraction model.
type Request struct {
    Prompt string
    Schema map[string]interface{}
    Images [][]byte // encoded page previews, in page order
}

// Extractor runs structured extraction for a single document.
type Extractor interface {
    Extract(ctx context.Context, req *Request) (map[string]interface{}, error)
}

// generateResponse 定义模型 API 响应结构
type generateResponse struct {
    Response      string `json:"response"`
    Model         string `json:"model"`
    Done          bool   `json:"done"`
    TotalDuration int64  `json:"total_duration,omitempty"`
    EvalCount     int    `json:"eval_count,omitempty"`
    Error         string `json:"error,omitempty"`
}

// Client talks to an Ollama-compatible endpoint using the format parameter
// to constrain output to the built schema.
type Client struct {
    endpoint    string
    model       string
    maxTokens   int
    temperature float64
    httpClient  *http.Client
}

func NewClient(config *cfg.ExtractorConfig) *Client {
    return &Client{
        endpoint:    config.Endpoint,
        model:       config.Model,
        maxTokens:   config.MaxTokens,
        temperature: config.Temperature,
        httpClient: &http.Client{
            Timeout: config.Timeout,
        },
    }
}

// Extract implements Extractor.
func (c *Client) Extract(ctx context.Context, req *Request) (map[string]interface{}, error) {
    images := make([]string, 0, len(req.Images))
    for _, img := range req.Images {
        images = append(images, base64.StdEncoding.EncodeToString(img))
    }

    reqBody := map[string]interface{}{
        "model":  c.model,
        "prompt": req.Prompt,
        "stream": false,
        "format": req.Schema,
        "options": map[string]interface{}{
            "temperature": c.temperature,
            "num_predict": c.maxTokens,
        },
    }
    if len(images) > 0 {
        reqBody["images"] = images
    }

    reqData, err := json.Marshal(reqBody)
    if err != nil {
        return nil, fmt.Errorf("failed to marshal request: %w", err)
    }

    httpReq, err := http.NewRequestWithContext(ctx, "POST", c.endpoint+"/api/generate", bytes.NewReader(reqData))
    if err != nil {
        return nil, fmt.Errorf("failed to create request: %w", err)
    }
    httpReq.Header.Set("Content-Type", "application/json")

    resp, err := c.httpClient.Do(httpReq)
    if err != nil {
        return nil, fmt.Errorf("failed to send request: %w", err)
    }
    defer resp.Body.Close()

    if resp.StatusCode != http.StatusOK {
        body, _ := io.ReadAll(resp.Body)
        return nil, fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, string(body))
    }

    var result generateResponse
    if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
        return nil, fmt.Errorf("failed to decode response: %w", err)
    }
    if result.Error != "" {
        return nil, fmt.Errorf("extraction model error: %s", result.Error)
    }

    var extracted map[string]interface{}
    dec := json.NewDecoder(strings.NewReader(result.Response))
    dec.UseNumber()
    if err := dec.Decode(&extracted); err != nil {
        return nil, fmt.Errorf("model returned non-JSON payload: %w", err)
    }

    return extracted, nil
}

func (c *Client) Close() error {
    c.httpClient.CloseIdleConnections()
    return nil
}

// ClientPool bounds the number of concurrent model calls across the batch
// fan-out.
type ClientPool struct {
    clients chan *Client
    config  *cfg.ExtractorConfig

    mu     sync.Mutex
    closed bool
}

func NewClientPool(config *cfg.ExtractorConfig) *ClientPool {
    pool := &ClientPool{
        clients: make(chan *Client, config.MaxPoolSize),
        config:  config,
    }
    for i := 0; i < config.MaxPoolSize; i++ {
        pool.clients <- NewClient(config)
    }
    return pool
}

// Extract implements Extractor by borrowing a pooled client.
func (p *ClientPool) Extract(ctx context.Context, req *Request) (map[string]interface{}, error) {
    client, err := p.get(ctx)
    if err != nil {
        return nil, err
    }
    defer p.put(client)
    return client.Extract(ctx, req)
}

func (p *ClientPool) get(ctx context.Context) (*Client, error) {
    select {
    case client, ok := <-p.clients:
        if !ok {
            return nil, fmt.Errorf("extraction client pool is closed")
        }
        return client, nil
    case <-time.After(p.config.PoolTimeout):
        return nil, fmt.Errorf("timeout waiting for available extraction client")
    case <-ctx.Done():
        return nil, ctx.Err()
    }
}

func (p *ClientPool) put(client *Client) {
    p.mu.Lock()
    defer p.mu.Unlock()
    if p.closed {
        client.Close()
        return
    }
    select {
    case p.clients <- client:
    default:
    }
}

// Close drains the pool and releases idle connections. A borrowed client is
// closed when its holder returns it.
func (p *ClientPool) Close() error {
    p.mu.Lock()
    defer p.mu.Unlock()
    if p.closed {
        return nil
    }
    p.closed = true
    close(p.clients)
    for client := range p.clients {
        client.Close()
    }
    return nil
}
