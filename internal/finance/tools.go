package finance

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/pkg/errors"
	"github.com/spf13/cast"

	"github.com/reinhart/finAgent/internal/logger"
)

const (
	ServerName    = "yahoo_finance"
	ServerVersion = "1.0.0"

	dateLayout = "2006-01-02"
)

// Quotes is the market data source behind the tools.
type Quotes interface {
	Price(ctx context.Context, symbol string) (float64, error)
	Profile(ctx context.Context, symbol string) (*Profile, error)
	History(ctx context.Context, symbol string, start, end time.Time) ([]Bar, error)
}

// NewServer registers the finance tools on a fresh MCP server.
func NewServer(q Quotes) *server.MCPServer {
	srv := server.NewMCPServer(ServerName, ServerVersion, server.WithToolCapabilities(false))
	h := &handlers{quotes: q}

	srv.AddTool(mcp.NewTool("get_stock_price",
		mcp.WithDescription("Get the current stock price for a given stock symbol."),
		mcp.WithString("symbol", mcp.Required(), mcp.Description(`Stock symbol (e.g., "AAPL")`)),
	), h.stockPrice)

	srv.AddTool(mcp.NewTool("get_company_info",
		mcp.WithDescription("Get company information for a given stock symbol."),
		mcp.WithString("symbol", mcp.Required(), mcp.Description(`Stock symbol (e.g., "AAPL")`)),
	), h.companyInfo)

	srv.AddTool(mcp.NewTool("get_historical_data",
		mcp.WithDescription("Get historical daily prices for a stock between two dates."),
		mcp.WithString("symbol", mcp.Required(), mcp.Description(`Stock symbol (e.g., "AAPL")`)),
		mcp.WithString("start_date", mcp.Required(), mcp.Description("Start date in YYYY-MM-DD format")),
		mcp.WithString("end_date", mcp.Required(), mcp.Description("End date in YYYY-MM-DD format (exclusive)")),
	), h.historicalData)

	return srv
}

type handlers struct {
	quotes Quotes
}

func stringArg(req mcp.CallToolRequest, key string) string {
	return strings.TrimSpace(cast.ToString(req.GetArguments()[key]))
}

func (h *handlers) stockPrice(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	symbol := stringArg(req, "symbol")
	if symbol == "" {
		return mcp.NewToolResultText("Error: Missing 'symbol' in arguments."), nil
	}

	price, err := h.quotes.Price(ctx, symbol)
	switch {
	case errors.Is(err, ErrNoData):
		return mcp.NewToolResultText("No data found for stock symbol: " + symbol), nil
	case err != nil:
		logger.Warn("price lookup for %s failed: %v", symbol, err)
		return mcp.NewToolResultText(fmt.Sprintf("Error fetching stock price for %s: %v", symbol, err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("The current price of %s is $%.2f", symbol, price)), nil
}

func (h *handlers) companyInfo(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	symbol := stringArg(req, "symbol")
	if symbol == "" {
		return mcp.NewToolResultText("Error: Missing 'symbol' in arguments."), nil
	}

	p, err := h.quotes.Profile(ctx, symbol)
	switch {
	case errors.Is(err, ErrNoData):
		return mcp.NewToolResultText("No information found for stock symbol: " + symbol), nil
	case err != nil:
		logger.Warn("profile lookup for %s failed: %v", symbol, err)
		return mcp.NewToolResultText(fmt.Sprintf("Error fetching company info for %s: %v", symbol, err)), nil
	}
	return mcp.NewToolResultText(formatProfile(p)), nil
}

func (h *handlers) historicalData(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	symbol := stringArg(req, "symbol")
	startArg := stringArg(req, "start_date")
	endArg := stringArg(req, "end_date")
	if symbol == "" || startArg == "" || endArg == "" {
		return mcp.NewToolResultText("Error: Missing required fields ('symbol', 'start_date', 'end_date')."), nil
	}

	start, err := time.Parse(dateLayout, startArg)
	if err != nil {
		return mcp.NewToolResultText(fmt.Sprintf("Error: invalid start_date %q, expected YYYY-MM-DD.", startArg)), nil
	}
	end, err := time.Parse(dateLayout, endArg)
	if err != nil {
		return mcp.NewToolResultText(fmt.Sprintf("Error: invalid end_date %q, expected YYYY-MM-DD.", endArg)), nil
	}

	bars, err := h.quotes.History(ctx, symbol, start, end)
	switch {
	case errors.Is(err, ErrNoData):
		return mcp.NewToolResultText(fmt.Sprintf("No historical data found for %s between %s and %s", symbol, startArg, endArg)), nil
	case err != nil:
		logger.Warn("history lookup for %s failed: %v", symbol, err)
		return mcp.NewToolResultText(fmt.Sprintf("Error fetching historical data for %s: %v", symbol, err)), nil
	}
	return mcp.NewToolResultText(formatHistory(bars)), nil
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func formatProfile(p *Profile) string {
	marketCap := "N/A"
	if p.MarketCap > 0 {
		marketCap = "$" + humanize.Comma(p.MarketCap)
	}
	employees := "N/A"
	if p.FullTimeEmployees > 0 {
		employees = humanize.Comma(p.FullTimeEmployees)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Company Name: %s\n", orNA(p.LongName))
	fmt.Fprintf(&b, "Sector: %s\n", orNA(p.Sector))
	fmt.Fprintf(&b, "Industry: %s\n", orNA(p.Industry))
	fmt.Fprintf(&b, "Country: %s\n", orNA(p.Country))
	fmt.Fprintf(&b, "Market Cap: %s\n", marketCap)
	fmt.Fprintf(&b, "Employees: %s\n", employees)
	fmt.Fprintf(&b, "Website: %s", orNA(p.Website))
	return b.String()
}

func formatHistory(bars []Bar) string {
	rows := make([]string, len(bars))
	for i, bar := range bars {
		rows[i] = fmt.Sprintf("Date: %s\nOpen: $%.2f\nHigh: $%.2f\nLow: $%.2f\nClose: $%.2f\nVolume: %s",
			bar.Date.Format(dateLayout), bar.Open, bar.High, bar.Low, bar.Close, humanize.Comma(bar.Volume))
	}
	return strings.Join(rows, "\n---\n")
}
