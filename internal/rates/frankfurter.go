package rates

import (
    "context"
    "encoding/json"
    "fmt"
    "io"
    "net/http"
    "net/url"
    "time"
)

// lookbackDays widens the query window so a weekend or holiday date still
// resolves against the last published trading day.
const lookbackDays = 3

// FrankfurterProvider queries a Frankfurter-compatible date-range API:
// GET {endpoint}/{start}..{end}?base={from}&symbols={to}.
type FrankfurterProvider struct {
    endpoint string
    client   *http.Client
}

func NewFrankfurterProvider(endpoint string, timeout time.Duration) *FrankfurterProvider {
    return &FrankfurterProvider{
        endpoint: endpoint,
        client:   &http.Client{Timeout: timeout},
    }
}

func (p *FrankfurterProvider) Name() string {
    return "frankfurter"
}

type rangeResponse struct {
    Base  string                        `json:"base"`
    Rates map[string]map[string]float64 `json:"rates"`
}

// Rate implements Provider. The response maps ISO dates to symbol rates; the
// most recent date in range wins.
func (p *FrankfurterProvider) Rate(ctx context.Context, from, to string, date time.Time) (float64, error) {
    start := date.AddDate(0, 0, -lookbackDays).Format("2006-01-02")
    end := date.Format("2006-01-02")

    reqURL := fmt.Sprintf("%s/%s..%s?base=%s&symbols=%s",
        p.endpoint, start, end, url.QueryEscape(from), url.QueryEscape(to))

    req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
    if err != nil {
        return 0, fmt.Errorf("failed to create request: %w", err)
    }

    resp, err := p.client.Do(req)
    if err != nil {
        return 0, fmt.Errorf("failed to query rate API: %w", err)
    }
    defer resp.Body.Close()

    if resp.StatusCode != http.StatusOK {
        body, _ := io.ReadAll(resp.Body)
        return 0, fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, string(body))
    }

    var parsed rangeResponse
    if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
        return 0, fmt.Errorf("failed to decode rate response: %w", err)
    }

    // ISO dates sort lexically, so a plain string comparison finds the most
    // recent entry.
    var bestDate string
    var bestRate float64
    var found bool
    for day, symbols := range parsed.Rates {
        rate, ok := symbols[to]
        if !ok {
            continue
        }
        if !found || day > bestDate {
            bestDate = day
            bestRate = rate
            found = true
        }
    }
    if !found {
        return 0, fmt.Errorf("no %s rate in range %s..%s", to, start, end)
    }

    return bestRate, nil
}
