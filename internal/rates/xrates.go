package rates

import (
    "context"
    "fmt"
    "net/http"
    "net/url"
    "strconv"
    "strings"
    "time"

    "github.com/PuerkitoBio/goquery"
)

// XRatesProvider is the fallback tier. The upstream embeds historical rates
// in an HTML table; each row links to the target pair with the rate as the
// link text.
type XRatesProvider struct {
    endpoint string
    client   *http.Client
}

func NewXRatesProvider(endpoint string, timeout time.Duration) *XRatesProvider {
    return &XRatesProvider{
        endpoint: endpoint,
        client:   &http.Client{Timeout: timeout},
    }
}

func (p *XRatesProvider) Name() string {
    return "x-rates"
}

// Rate implements Provider.
func (p *XRatesProvider) Rate(ctx context.Context, from, to string, date time.Time) (float64, error) {
    reqURL := fmt.Sprintf("%s/?from=%s&amount=1&date=%s",
        p.endpoint, url.QueryEscape(from), date.Format("2006-01-02"))

    req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
    if err != nil {
        return 0, fmt.Errorf("failed to create request: %w", err)
    }
    req.Header.Set("User-Agent", "expenseflow/1.0")

    resp, err := p.client.Do(req)
    if err != nil {
        return 0, fmt.Errorf("failed to query rate table: %w", err)
    }
    defer resp.Body.Close()

    if resp.StatusCode != http.StatusOK {
        return 0, fmt.Errorf("unexpected status code %d", resp.StatusCode)
    }

    doc, err := goquery.NewDocumentFromReader(resp.Body)
    if err != nil {
        return 0, fmt.Errorf("failed to parse rate table: %w", err)
    }

    var rate float64
    var found bool
    doc.Find("table.ratesTable tbody tr").EachWithBreak(func(i int, row *goquery.Selection) bool {
        link := row.Find("td.rtRates a").First()
        href, ok := link.Attr("href")
        if !ok || !strings.Contains(href, "to="+to) {
            return true
        }
        parsed, err := strconv.ParseFloat(strings.TrimSpace(link.Text()), 64)
        if err != nil {
            return true
        }
        rate = parsed
        found = true
        return false
    })

    if !found {
        return 0, fmt.Errorf("currency %s not present in rate table", to)
    }
    return rate, nil
}
