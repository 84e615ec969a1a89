package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubQuerier struct {
	got  []string
	resp string
	err  error
}

func (s *stubQuerier) ProcessQuery(_ context.Context, q string) (string, error) {
	s.got = append(s.got, q)
	return s.resp, s.err
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestQueryReturnsResponse(t *testing.T) {
	q := &stubQuerier{resp: "[Calling tool get_stock_price with args {'symbol': 'AAPL'}]\nThe current price of AAPL is $150.00"}
	rec := do(t, New(q), http.MethodPost, "/api/query", `{"query":"price of AAPL"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t,
		`{"response":"[Calling tool get_stock_price with args {'symbol': 'AAPL'}]\nThe current price of AAPL is $150.00"}`,
		rec.Body.String())
	assert.Equal(t, []string{"price of AAPL"}, q.got)
}

func TestQueryValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty body", ""},
		{"missing field", `{}`},
		{"blank query", `{"query":"   "}`},
		{"malformed json", `{"query":`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := &stubQuerier{}
			rec := do(t, New(q), http.MethodPost, "/api/query", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.JSONEq(t, `{"detail":"Query is required"}`, rec.Body.String())
			assert.Empty(t, q.got)
		})
	}
}

func TestQueryWithoutConnection(t *testing.T) {
	// The connection check comes first, even for an empty query.
	for _, body := range []string{`{"query":"price of AAPL"}`, `{}`} {
		rec := do(t, New(nil), http.MethodPost, "/api/query", body)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.JSONEq(t, `{"detail":"Not connected to MCP server"}`, rec.Body.String())
	}
}

func TestQueryFailure(t *testing.T) {
	q := &stubQuerier{err: errors.New("Unknown tool name: wire_money")}
	rec := do(t, New(q), http.MethodPost, "/api/query", `{"query":"send money"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"detail":"Unknown tool name: wire_money"}`, rec.Body.String())
}

func TestIndexAndFavicon(t *testing.T) {
	s := New(&stubQuerier{})

	rec := do(t, s, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "/api/query")

	rec = do(t, s, http.MethodGet, "/favicon.ico", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())
}
