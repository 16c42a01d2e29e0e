package quote

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/himanshuo/buy-the-dip/internal/calculator"
	"github.com/himanshuo/buy-the-dip/internal/model"
)

// YahooFetcher implements Fetcher using Yahoo Finance public chart API.
type YahooFetcher struct {
	BaseURL    string
	Client     *http.Client
	Benchmarks map[string]bool // symbols treated as benchmark-class (ETFs)
	Names      map[string]string
}

// NewYahooFetcher creates a new Yahoo Finance fetcher with optional proxy support.
func NewYahooFetcher(proxyURL string, benchmarks map[string]bool, names map[string]string) *YahooFetcher {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	if benchmarks == nil {
		benchmarks = map[string]bool{}
	}
	if names == nil {
		names = map[string]string{}
	}
	return &YahooFetcher{
		BaseURL: "https://query1.finance.yahoo.com",
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
		Benchmarks: benchmarks,
		Names:      names,
	}
}

func (f *YahooFetcher) Name() string { return "yahoo" }

// yahooChart is the response structure from Yahoo Finance chart API.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []interface{} `json:"open"`
					High   []interface{} `json:"high"`
					Low    []interface{} `json:"low"`
					Close  []interface{} `json:"close"`
					Volume []interface{} `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func toFloat(v interface{}) float64 {
	if v == nil {
		return 0
	}
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	default:
		return 0
	}
}

func (f *YahooFetcher) fetchChart(symbol, interval, rng string) ([]model.OHLCV, error) {
	u := fmt.Sprintf("%s/v8/finance/chart/%s?interval=%s&range=%s",
		f.BaseURL, url.PathEscape(symbol), interval, rng)

	req, err := http.NewRequest("GET", u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("yahoo fetch: %v: %w", err, ErrUnavailable)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("yahoo read body: %v: %w", err, ErrUnavailable)
	}
	if resp.StatusCode == http.StatusTooManyRequests || strings.Contains(string(body), "Too Many Requests") {
		return nil, fmt.Errorf("yahoo: status %d: %w", resp.StatusCode, ErrRateLimited)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("yahoo: status %d, body: %s: %w", resp.StatusCode, string(body), ErrUnavailable)
	}

	var chart yahooChart
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, fmt.Errorf("yahoo decode: %v: %w", err, ErrUnavailable)
	}
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo api error: %s: %w", chart.Chart.Error.Description, ErrUnavailable)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Timestamp) == 0 {
		return nil, fmt.Errorf("yahoo: no data returned: %w", ErrUnavailable)
	}

	result := chart.Chart.Result[0]
	quote := result.Indicators.Quote[0]
	bars := make([]model.OHLCV, 0, len(result.Timestamp))

	for i, ts := range result.Timestamp {
		o := toFloat(quote.Open[i])
		h := toFloat(quote.High[i])
		l := toFloat(quote.Low[i])
		c := toFloat(quote.Close[i])
		if o == 0 && h == 0 && l == 0 && c == 0 {
			continue // skip null bars (holidays etc.)
		}
		bars = append(bars, model.OHLCV{
			Time:   time.Unix(ts, 0),
			Open:   o,
			High:   h,
			Low:    l,
			Close:  c,
			Volume: toFloat(quote.Volume[i]),
		})
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return bars, nil
}

// FetchSnapshot builds a full intraday snapshot for one ticker: the last two
// daily bars supply the intraday fields, a six-month window supplies the
// long-term trend slope.
func (f *YahooFetcher) FetchSnapshot(symbol string) (*model.StockSnapshot, error) {
	recent, err := f.fetchChart(symbol, "1d", "5d")
	if err != nil {
		return nil, err
	}
	if len(recent) < 2 {
		return nil, fmt.Errorf("yahoo: need 2 daily bars for %s, got %d: %w", symbol, len(recent), ErrUnavailable)
	}
	today := recent[len(recent)-1]
	prior := recent[len(recent)-2]

	history, err := f.fetchChart(symbol, "1d", "6mo")
	if err != nil {
		return nil, err
	}
	slope, err := calculator.CalculateTrendSlope(history)
	if err != nil {
		return nil, fmt.Errorf("trend slope for %s: %v: %w", symbol, err, ErrUnavailable)
	}

	name := f.Names[symbol]
	if name == "" {
		name = symbol
	}
	return &model.StockSnapshot{
		Symbol:        symbol,
		DisplayName:   name,
		CurrentPrice:  today.Close,
		Open:          today.Open,
		PreviousClose: prior.Close,
		DayHigh:       today.High,
		PriorDayLow:   prior.Low,
		LongTermSlope: slope,
		IsBenchmark:   f.Benchmarks[symbol],
		FetchedAt:     time.Now(),
	}, nil
}
