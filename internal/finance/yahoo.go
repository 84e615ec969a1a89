// Package finance implements the Yahoo Finance tool provider: a small HTTP
// client for quotes, history and company profiles, and the MCP server that
// exposes them as tools.
package finance

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
)

const (
	defaultQueryURL  = "https://query1.finance.yahoo.com"
	defaultCookieURL = "https://fc.yahoo.com"
	userAgent        = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"
)

// ErrNoData is returned when Yahoo knows nothing about a symbol or range.
var ErrNoData = errors.New("no data")

// Bar is one daily OHLCV row.
type Bar struct {
	Date   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume int64
}

// Profile is the subset of company information the tools report.
type Profile struct {
	LongName          string
	Sector            string
	Industry          string
	Country           string
	MarketCap         int64
	FullTimeEmployees int64
	Website           string
}

// Client talks to the public Yahoo Finance endpoints.
type Client struct {
	http      *http.Client
	queryURL  string
	cookieURL string

	mu    sync.Mutex
	crumb string
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURLs points the client at other hosts, e.g. a test server.
func WithBaseURLs(queryURL, cookieURL string) Option {
	return func(c *Client) {
		c.queryURL = strings.TrimRight(queryURL, "/")
		c.cookieURL = cookieURL
	}
}

// WithHTTPClient replaces the HTTP client. It should carry a cookie jar.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

func NewClient(opts ...Option) *Client {
	jar, _ := cookiejar.New(nil)
	c := &Client{
		http:      &http.Client{Timeout: 30 * time.Second, Jar: jar},
		queryURL:  defaultQueryURL,
		cookieURL: defaultCookieURL,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol             string  `json:"symbol"`
				Currency           string  `json:"currency"`
				RegularMarketPrice float64 `json:"regularMarketPrice"`
				GMTOffset          int64   `json:"gmtoffset"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*int64   `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *yahooError `json:"error"`
	} `json:"chart"`
}

type yahooError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

func (e *yahooError) err() error {
	if strings.EqualFold(e.Code, "Not Found") {
		return errors.Wrap(ErrNoData, e.Description)
	}
	return errors.Errorf("yahoo: %s: %s", e.Code, e.Description)
}

// Price returns the most recent daily close for symbol.
func (c *Client) Price(ctx context.Context, symbol string) (float64, error) {
	bars, meta, err := c.chart(ctx, symbol, url.Values{"range": {"1d"}, "interval": {"1d"}})
	if err != nil {
		return 0, err
	}
	if len(bars) > 0 {
		return bars[len(bars)-1].Close, nil
	}
	if meta > 0 {
		return meta, nil
	}
	return 0, ErrNoData
}

// History returns daily bars in [start, end).
func (c *Client) History(ctx context.Context, symbol string, start, end time.Time) ([]Bar, error) {
	q := url.Values{
		"period1":  {fmt.Sprint(start.Unix())},
		"period2":  {fmt.Sprint(end.Unix())},
		"interval": {"1d"},
		"events":   {"history"},
	}
	bars, _, err := c.chart(ctx, symbol, q)
	if err != nil {
		return nil, err
	}
	if len(bars) == 0 {
		return nil, ErrNoData
	}
	return bars, nil
}

func (c *Client) chart(ctx context.Context, symbol string, q url.Values) ([]Bar, float64, error) {
	var resp chartResponse
	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s?%s", c.queryURL, url.PathEscape(symbol), q.Encode())
	if err := c.getJSON(ctx, endpoint, &resp); err != nil {
		return nil, 0, err
	}
	if resp.Chart.Error != nil {
		return nil, 0, resp.Chart.Error.err()
	}
	if len(resp.Chart.Result) == 0 {
		return nil, 0, ErrNoData
	}

	r := resp.Chart.Result[0]
	if len(r.Indicators.Quote) == 0 {
		return nil, r.Meta.RegularMarketPrice, nil
	}
	quote := r.Indicators.Quote[0]
	offset := time.Duration(r.Meta.GMTOffset) * time.Second

	var bars []Bar
	for i, ts := range r.Timestamp {
		cl := at(quote.Close, i)
		if cl == nil {
			continue
		}
		b := Bar{
			Date:  time.Unix(ts, 0).Add(offset).UTC(),
			Close: *cl,
		}
		if v := at(quote.Open, i); v != nil {
			b.Open = *v
		}
		if v := at(quote.High, i); v != nil {
			b.High = *v
		}
		if v := at(quote.Low, i); v != nil {
			b.Low = *v
		}
		if v := at(quote.Volume, i); v != nil {
			b.Volume = *v
		}
		bars = append(bars, b)
	}
	return bars, r.Meta.RegularMarketPrice, nil
}

func at[T any](s []*T, i int) *T {
	if i < len(s) {
		return s[i]
	}
	return nil
}

type quoteSummaryResponse struct {
	QuoteSummary struct {
		Result []struct {
			AssetProfile struct {
				Sector            string `json:"sector"`
				Industry          string `json:"industry"`
				Country           string `json:"country"`
				FullTimeEmployees int64  `json:"fullTimeEmployees"`
				Website           string `json:"website"`
			} `json:"assetProfile"`
			Price struct {
				LongName  string `json:"longName"`
				ShortName string `json:"shortName"`
				MarketCap struct {
					Raw float64 `json:"raw"`
				} `json:"marketCap"`
			} `json:"price"`
		} `json:"result"`
		Error *yahooError `json:"error"`
	} `json:"quoteSummary"`
}

// Profile returns company information for symbol.
func (c *Client) Profile(ctx context.Context, symbol string) (*Profile, error) {
	crumb, err := c.ensureCrumb(ctx)
	if err != nil {
		return nil, err
	}
	q := url.Values{"modules": {"assetProfile,price"}, "crumb": {crumb}}
	endpoint := fmt.Sprintf("%s/v10/finance/quoteSummary/%s?%s", c.queryURL, url.PathEscape(symbol), q.Encode())

	var resp quoteSummaryResponse
	if err := c.getJSON(ctx, endpoint, &resp); err != nil {
		return nil, err
	}
	if resp.QuoteSummary.Error != nil {
		return nil, resp.QuoteSummary.Error.err()
	}
	if len(resp.QuoteSummary.Result) == 0 {
		return nil, ErrNoData
	}

	r := resp.QuoteSummary.Result[0]
	p := &Profile{
		LongName:          r.Price.LongName,
		Sector:            r.AssetProfile.Sector,
		Industry:          r.AssetProfile.Industry,
		Country:           r.AssetProfile.Country,
		MarketCap:         int64(r.Price.MarketCap.Raw),
		FullTimeEmployees: r.AssetProfile.FullTimeEmployees,
		Website:           r.AssetProfile.Website,
	}
	if p.LongName == "" {
		p.LongName = r.Price.ShortName
	}
	return p, nil
}

// ensureCrumb primes the session cookie and fetches the crumb quoteSummary requires.
func (c *Client) ensureCrumb(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.crumb != "" {
		return c.crumb, nil
	}

	// The cookie endpoint answers 404 but sets the session cookie.
	if req, err := c.newRequest(ctx, c.cookieURL); err == nil {
		if resp, err := c.http.Do(req); err == nil {
			_, _ = io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
		}
	}

	req, err := c.newRequest(ctx, c.queryURL+"/v1/test/getcrumb")
	if err != nil {
		return "", err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "fetching crumb")
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.Wrap(err, "reading crumb")
	}
	crumb := strings.TrimSpace(string(body))
	if resp.StatusCode != http.StatusOK || crumb == "" || strings.Contains(crumb, "<") {
		return "", errors.Errorf("fetching crumb: status %d", resp.StatusCode)
	}
	c.crumb = crumb
	return crumb, nil
}

func (c *Client) newRequest(ctx context.Context, endpoint string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, errors.Wrap(err, "building request")
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, v any) error {
	req, err := c.newRequest(ctx, endpoint)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrap(err, "yahoo request")
	}
	defer resp.Body.Close()

	// Yahoo reports unknown symbols as 404 with a JSON error body.
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNotFound {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return errors.Errorf("yahoo request: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return errors.Wrap(err, "decoding yahoo response")
	}
	return nil
}
