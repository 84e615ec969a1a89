package assistant_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	mcpclient "github.com/mark3labs/mcp-go/client"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reinhart/finAgent/internal/assistant"
	"github.com/reinhart/finAgent/internal/finance"
	"github.com/reinhart/finAgent/internal/mcpsession"
)

// scriptedProvider replies with a fixed completion and records what it saw.
type scriptedProvider struct {
	reply *assistant.Completion
	tools []assistant.ToolDefinition
}

func (p *scriptedProvider) Chat(_ context.Context, _ []assistant.Message, tools []assistant.ToolDefinition, _ assistant.Sampling) (*assistant.Completion, error) {
	p.tools = tools
	return p.reply, nil
}

func yahooBackend(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/v8/finance/chart/{symbol}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("symbol") != "AAPL" {
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`)
			return
		}
		fmt.Fprint(w, `{"chart":{"result":[{"meta":{"symbol":"AAPL","regularMarketPrice":187.44,"gmtoffset":-14400},
			"timestamp":[1717162200],"indicators":{"quote":[{"open":[191.44],"high":[192.57],"low":[189.91],
			"close":[192.25],"volume":[75158300]}]}}],"error":null}}`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func financeSession(t *testing.T) *mcpsession.Session {
	t.Helper()
	yahoo := yahooBackend(t)
	quotes := finance.NewClient(finance.WithBaseURLs(yahoo.URL, yahoo.URL+"/cookie"))

	ctx := context.Background()
	c, err := mcpclient.NewInProcessClient(finance.NewServer(quotes))
	require.NoError(t, err)
	require.NoError(t, c.Start(ctx))

	s, err := mcpsession.Attach(ctx, c)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func toolReply(id, name, args string) *assistant.Completion {
	return &assistant.Completion{Choices: []assistant.Message{{
		Role: assistant.RoleAssistant,
		ToolCalls: []assistant.ToolCall{{
			ID:       id,
			Type:     "function",
			Function: assistant.FunctionCall{Name: name, Arguments: args},
		}},
	}}}
}

func TestStockPriceEndToEnd(t *testing.T) {
	provider := &scriptedProvider{reply: toolReply("call_1", "get_stock_price", `{"symbol": "AAPL"}`)}
	agent := assistant.NewAgent(provider, financeSession(t), assistant.NewFinanceRegistry())

	out, err := agent.ProcessQuery(context.Background(), "What is the price of AAPL?")
	require.NoError(t, err)
	assert.Equal(t,
		"[Calling tool get_stock_price with args {'symbol': 'AAPL'}]\nThe current price of AAPL is $192.25",
		out)

	var names []string
	for _, d := range provider.tools {
		names = append(names, d.Name)
	}
	assert.ElementsMatch(t, []string{"get_stock_price", "get_company_info", "get_historical_data"}, names)
}

func TestProviderErrorTextIsReturnedAsOutput(t *testing.T) {
	provider := &scriptedProvider{reply: toolReply("call_1", "get_stock_price", `{"symbol": "ZZZZ"}`)}
	agent := assistant.NewAgent(provider, financeSession(t), assistant.NewFinanceRegistry())

	out, err := agent.ProcessQuery(context.Background(), "price of ZZZZ")
	require.NoError(t, err)
	assert.Equal(t,
		"[Calling tool get_stock_price with args {'symbol': 'ZZZZ'}]\nNo data found for stock symbol: ZZZZ",
		out)
}

func TestUnknownToolNeverReachesProvider(t *testing.T) {
	provider := &scriptedProvider{reply: toolReply("call_1", "delete_portfolio", `{}`)}
	agent := assistant.NewAgent(provider, financeSession(t), assistant.NewFinanceRegistry())

	_, err := agent.ProcessQuery(context.Background(), "delete everything")
	require.Error(t, err)
	assert.Equal(t, assistant.ErrUnknownTool, assistant.KindOf(err))
	assert.Equal(t, "Unknown tool name: delete_portfolio", err.Error())
}
