package finance

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const chartAAPL = `{"chart":{"result":[{"meta":{"symbol":"AAPL","currency":"USD","regularMarketPrice":151.5,"gmtoffset":-18000},
"timestamp":[1672756200,1672842600,1672929000],
"indicators":{"quote":[{"open":[130.28,126.89,null],"high":[130.9,128.66,null],"low":[124.17,125.08,null],
"close":[125.07,126.36,null],"volume":[112117500,89113600,null]}]}}],"error":null}}`

const chartMissing = `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`

const summaryAAPL = `{"quoteSummary":{"result":[{"assetProfile":{"sector":"Technology","industry":"Consumer Electronics",
"country":"United States","fullTimeEmployees":164000,"website":"https://www.apple.com"},
"price":{"longName":"Apple Inc.","shortName":"Apple","marketCap":{"raw":2950000000000,"fmt":"2.95T"}}}],"error":null}}`

type fakeYahoo struct {
	*httptest.Server
	crumbHits atomic.Int32
	lastQuery atomic.Value
}

func newFakeYahoo(t *testing.T) *fakeYahoo {
	t.Helper()
	f := &fakeYahoo{}
	mux := http.NewServeMux()
	mux.HandleFunc("/cookie", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "A3", Value: "session", Path: "/"})
		w.WriteHeader(http.StatusNotFound)
	})
	mux.HandleFunc("/v1/test/getcrumb", func(w http.ResponseWriter, r *http.Request) {
		f.crumbHits.Add(1)
		if _, err := r.Cookie("A3"); err != nil {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		fmt.Fprint(w, "abc123")
	})
	mux.HandleFunc("/v8/finance/chart/{symbol}", func(w http.ResponseWriter, r *http.Request) {
		f.lastQuery.Store(r.URL.RawQuery)
		switch r.PathValue("symbol") {
		case "AAPL":
			fmt.Fprint(w, chartAAPL)
		case "BOOM":
			http.Error(w, "upstream exploded", http.StatusBadGateway)
		default:
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, chartMissing)
		}
	})
	mux.HandleFunc("/v10/finance/quoteSummary/{symbol}", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("crumb") != "abc123" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if r.PathValue("symbol") != "AAPL" {
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"quoteSummary":{"result":null,"error":{"code":"Not Found","description":"Quote not found"}}}`)
			return
		}
		fmt.Fprint(w, summaryAAPL)
	})
	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Close)
	return f
}

func (f *fakeYahoo) client() *Client {
	return NewClient(WithBaseURLs(f.URL, f.URL+"/cookie"))
}

func TestPriceUsesLatestClose(t *testing.T) {
	y := newFakeYahoo(t)
	price, err := y.client().Price(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.InDelta(t, 126.36, price, 1e-9)
	assert.Contains(t, y.lastQuery.Load(), "range=1d")
}

func TestPriceUnknownSymbol(t *testing.T) {
	y := newFakeYahoo(t)
	_, err := y.client().Price(context.Background(), "ZZZZ")
	assert.True(t, errors.Is(err, ErrNoData))
}

func TestUpstreamFailureIsNotNoData(t *testing.T) {
	y := newFakeYahoo(t)
	_, err := y.client().Price(context.Background(), "BOOM")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNoData))
	assert.Contains(t, err.Error(), "status 502")
}

func TestHistorySkipsEmptyRows(t *testing.T) {
	y := newFakeYahoo(t)
	start := time.Date(2023, 1, 3, 0, 0, 0, 0, time.UTC)
	end := time.Date(2023, 1, 6, 0, 0, 0, 0, time.UTC)

	bars, err := y.client().History(context.Background(), "AAPL", start, end)
	require.NoError(t, err)
	require.Len(t, bars, 2)
	assert.Equal(t, "2023-01-03", bars[0].Date.Format(dateLayout))
	assert.InDelta(t, 130.28, bars[0].Open, 1e-9)
	assert.Equal(t, int64(89113600), bars[1].Volume)

	q := y.lastQuery.Load().(string)
	assert.Contains(t, q, fmt.Sprintf("period1=%d", start.Unix()))
	assert.Contains(t, q, fmt.Sprintf("period2=%d", end.Unix()))
}

func TestProfileFetchesCrumbOnce(t *testing.T) {
	y := newFakeYahoo(t)
	c := y.client()

	p, err := c.Profile(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, "Apple Inc.", p.LongName)
	assert.Equal(t, "Technology", p.Sector)
	assert.Equal(t, int64(2950000000000), p.MarketCap)
	assert.Equal(t, int64(164000), p.FullTimeEmployees)

	_, err = c.Profile(context.Background(), "MSFT")
	assert.True(t, errors.Is(err, ErrNoData))
	assert.Equal(t, int32(1), y.crumbHits.Load())
}
