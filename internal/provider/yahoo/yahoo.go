// Package yahoo implements the data provider interfaces on top of the Yahoo
// Finance chart and quoteSummary endpoints.
package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/kyuwon/tradewind/internal/core"
)

const (
	chartBaseURL   = "https://query1.finance.yahoo.com/v8/finance/chart"
	summaryBaseURL = "https://query1.finance.yahoo.com/v10/finance/quoteSummary"

	vixSymbol = "^VIX"
)

// validSymbol matches stock symbols like AAPL, MSFT, 005930.KS, 0700.HK and
// index symbols like ^VIX, ^KS11.
var validSymbol = regexp.MustCompile(`^\^?[A-Za-z0-9]{1,10}(\.[A-Za-z]{1,4})?$`)

func validateSymbol(symbol string) error {
	if symbol == "" {
		return fmt.Errorf("symbol cannot be empty")
	}
	if len(symbol) > 20 {
		return fmt.Errorf("symbol too long: %s", symbol)
	}
	if !validSymbol.MatchString(symbol) {
		return fmt.Errorf("invalid symbol format: %s", symbol)
	}
	return nil
}

// Client talks to the Yahoo Finance public endpoints.
type Client struct {
	http    *http.Client
	baseURL string
	sumURL  string
}

// Option customizes the client.
type Option func(*Client)

// WithBaseURL points the client at a different chart endpoint. Used by tests.
func WithBaseURL(chart, summary string) Option {
	return func(c *Client) {
		c.baseURL = chart
		c.sumURL = summary
	}
}

// New creates a Yahoo Finance client.
func New(opts ...Option) *Client {
	c := &Client{
		http:    &http.Client{Timeout: 10 * time.Second},
		baseURL: chartBaseURL,
		sumURL:  summaryBaseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// periodRange converts a lookback period string into a Yahoo range parameter.
func periodRange(period string) string {
	switch period {
	case "5d", "1mo", "3mo", "6mo", "1y", "2y", "5y", "max":
		return period
	default:
		return "1y"
	}
}

func intervalParam(interval string) string {
	switch interval {
	case "1d", "1wk", "1mo":
		return interval
	default:
		return "1d"
	}
}

// History fetches daily bars for one ticker.
func (c *Client) History(ctx context.Context, ticker, period, interval string) ([]core.PriceBar, error) {
	if err := validateSymbol(ticker); err != nil {
		return nil, err
	}
	url := fmt.Sprintf("%s/%s?range=%s&interval=%s",
		c.baseURL, ticker, periodRange(period), intervalParam(interval))

	var result chartResponse
	if err := c.getJSON(ctx, url, &result); err != nil {
		return nil, core.WrapError(core.ErrProviderFailed, err)
	}
	if result.Chart.Error != nil {
		return nil, core.WrapError(core.ErrProviderFailed,
			fmt.Errorf("yahoo error: %s", result.Chart.Error.Description))
	}
	if len(result.Chart.Result) == 0 {
		return nil, core.WrapError(core.ErrNoData, fmt.Errorf("no data for %s", ticker))
	}

	r := result.Chart.Result[0]
	if len(r.Indicators.Quote) == 0 {
		return nil, core.WrapError(core.ErrNoData, fmt.Errorf("no quote data for %s", ticker))
	}
	quotes := r.Indicators.Quote[0]

	bars := make([]core.PriceBar, 0, len(r.Timestamp))
	for i, ts := range r.Timestamp {
		// skip half-filled rows: any OHLC column may be short or null
		if i >= len(quotes.Open) || i >= len(quotes.High) ||
			i >= len(quotes.Low) || i >= len(quotes.Close) ||
			quotes.Open[i] == nil || quotes.High[i] == nil ||
			quotes.Low[i] == nil || quotes.Close[i] == nil {
			continue
		}
		var vol int64
		if i < len(quotes.Volume) && quotes.Volume[i] != nil {
			vol = int64(*quotes.Volume[i])
		}
		bars = append(bars, core.PriceBar{
			Date:   time.Unix(int64(ts), 0),
			Open:   *quotes.Open[i],
			High:   *quotes.High[i],
			Low:    *quotes.Low[i],
			Close:  *quotes.Close[i],
			Volume: vol,
		})
	}
	return bars, nil
}

// Histories fetches several tickers sequentially. Callers wanting bounded
// parallelism and caching wrap the client in provider.Cached.
func (c *Client) Histories(ctx context.Context, tickers []string, period, interval string) (map[string][]core.PriceBar, error) {
	out := make(map[string][]core.PriceBar, len(tickers))
	for _, t := range tickers {
		bars, err := c.History(ctx, t, period, interval)
		if err != nil {
			out[t] = nil // per-ticker isolation: failed fetch becomes an empty series
			continue
		}
		out[t] = bars
	}
	return out, nil
}

// Quote assembles the latest session's prices from the 5d history, falling
// back to the summary fields when the chart is empty, and attaches the raw
// fundamentals snapshot.
func (c *Client) Quote(ctx context.Context, ticker string) (*core.Quote, error) {
	if err := validateSymbol(ticker); err != nil {
		return nil, err
	}

	fundamentals, err := c.fundamentals(ctx, ticker)
	if err != nil {
		fundamentals = core.Fundamentals{}
	}

	bars, err := c.History(ctx, ticker, "5d", "1d")
	if err != nil || len(bars) == 0 {
		q := &core.Quote{Symbol: ticker, Fundamentals: fundamentals}
		if last, e := parseField(fundamentals, "regularMarketPrice"); e == nil {
			q.Last = last
		}
		if open, e := parseField(fundamentals, "open"); e == nil {
			q.Open = open
		}
		if high, e := parseField(fundamentals, "dayHigh"); e == nil {
			q.High = high
		}
		if low, e := parseField(fundamentals, "dayLow"); e == nil {
			q.Low = low
		}
		if !q.IsValid() {
			return nil, core.WrapError(core.ErrNoData, fmt.Errorf("no quote for %s", ticker))
		}
		return q, nil
	}

	last := bars[len(bars)-1]
	return &core.Quote{
		Symbol:       ticker,
		Last:         last.Close,
		Open:         last.Open,
		High:         last.High,
		Low:          last.Low,
		Fundamentals: fundamentals,
	}, nil
}

// VolatilityIndex returns the latest VIX close.
func (c *Client) VolatilityIndex(ctx context.Context) (float64, error) {
	bars, err := c.History(ctx, vixSymbol, "5d", "1d")
	if err != nil {
		return 0, err
	}
	if len(bars) == 0 {
		return 0, core.WrapError(core.ErrNoData, fmt.Errorf("no VIX data"))
	}
	return bars[len(bars)-1].Close, nil
}

// Sector looks up a ticker's sector classification from the asset profile.
func (c *Client) Sector(ctx context.Context, ticker string) (string, error) {
	f, err := c.fundamentals(ctx, ticker)
	if err != nil {
		return "", err
	}
	if s, ok := f["sector"].(string); ok && s != "" {
		return s, nil
	}
	if s, ok := f["industry"].(string); ok && s != "" {
		return s, nil
	}
	return "", core.WrapError(core.ErrNoData, fmt.Errorf("no sector for %s", ticker))
}

// fundamentals flattens the quoteSummary modules into one snapshot map.
func (c *Client) fundamentals(ctx context.Context, ticker string) (core.Fundamentals, error) {
	url := fmt.Sprintf("%s/%s?modules=summaryDetail,defaultKeyStatistics,financialData,assetProfile",
		c.sumURL, ticker)

	var result summaryResponse
	if err := c.getJSON(ctx, url, &result); err != nil {
		return nil, core.WrapError(core.ErrProviderFailed, err)
	}
	if result.QuoteSummary.Error != nil {
		return nil, core.WrapError(core.ErrProviderFailed,
			fmt.Errorf("yahoo error: %s", result.QuoteSummary.Error.Description))
	}
	if len(result.QuoteSummary.Result) == 0 {
		return nil, core.WrapError(core.ErrNoData, fmt.Errorf("no fundamentals for %s", ticker))
	}

	flat := core.Fundamentals{}
	for _, module := range result.QuoteSummary.Result[0] {
		for key, val := range module {
			flat[key] = unwrapRawFmt(val)
		}
	}
	return flat, nil
}

// unwrapRawFmt reduces Yahoo's {"raw": 1.23, "fmt": "1.23"} wrappers to the
// raw value, keeping plain scalars as they are.
func unwrapRawFmt(v any) any {
	m, ok := v.(map[string]any)
	if !ok {
		return v
	}
	if raw, present := m["raw"]; present {
		return raw
	}
	if f, present := m["fmt"]; present {
		return f
	}
	return v
}

func parseField(f core.Fundamentals, key string) (float64, error) {
	raw, present := f[key]
	if !present {
		return 0, core.ErrDataUnavailable
	}
	switch x := raw.(type) {
	case float64:
		return x, nil
	case string:
		var v float64
		_, err := fmt.Sscanf(strings.ReplaceAll(x, ",", ""), "%f", &v)
		return v, err
	default:
		return 0, core.ErrParseFailure
	}
}

func (c *Client) getJSON(ctx context.Context, url string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; tradewind/1.0)")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return core.WrapError(core.ErrRateLimited, fmt.Errorf("fetching %s", url))
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(v)
}

// Yahoo API response types
type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *apiError     `json:"error"`
	} `json:"chart"`
}

type apiError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type chartResult struct {
	Timestamp  []int `json:"timestamp"`
	Indicators struct {
		Quote []quoteIndicator `json:"quote"`
	} `json:"indicators"`
}

type quoteIndicator struct {
	Open   []*float64 `json:"open"`
	High   []*float64 `json:"high"`
	Low    []*float64 `json:"low"`
	Close  []*float64 `json:"close"`
	Volume []*float64 `json:"volume"`
}

type summaryResponse struct {
	QuoteSummary struct {
		Result []map[string]map[string]any `json:"result"`
		Error  *apiError                   `json:"error"`
	} `json:"quoteSummary"`
}
