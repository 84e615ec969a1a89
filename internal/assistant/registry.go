package assistant

import (
	"encoding/json"
	"sort"

	"github.com/pkg/errors"
)

// ToolRoute describes how one allowlisted tool call is forwarded: which
// arguments are picked out of the model's payload and passed on.
type ToolRoute struct {
	Name string
	Args []string
}

// Forward extracts the route's arguments. Missing arguments are forwarded
// as null so the provider reports them.
func (r ToolRoute) Forward(parsed map[string]any) map[string]any {
	out := make(map[string]any, len(r.Args))
	for _, a := range r.Args {
		out[a] = parsed[a]
	}
	return out
}

// ToolRegistry is the closed set of tools the orchestrator will forward.
type ToolRegistry struct {
	routes map[string]ToolRoute
}

// NewToolRegistry creates a new tool registry
func NewToolRegistry(routes ...ToolRoute) *ToolRegistry {
	r := &ToolRegistry{routes: make(map[string]ToolRoute, len(routes))}
	for _, route := range routes {
		r.Register(route)
	}
	return r
}

// NewFinanceRegistry allows exactly the finance provider's tools.
func NewFinanceRegistry() *ToolRegistry {
	return NewToolRegistry(
		ToolRoute{Name: "get_stock_price", Args: []string{"symbol"}},
		ToolRoute{Name: "get_company_info", Args: []string{"symbol"}},
		ToolRoute{Name: "get_historical_data", Args: []string{"symbol", "start_date", "end_date"}},
	)
}

// Register adds a route to the registry
func (r *ToolRegistry) Register(route ToolRoute) {
	r.routes[route.Name] = route
}

// Get retrieves a route by tool name
func (r *ToolRegistry) Get(name string) (ToolRoute, bool) {
	route, ok := r.routes[name]
	return route, ok
}

// Names returns the allowlisted tool names, sorted.
func (r *ToolRegistry) Names() []string {
	names := make([]string, 0, len(r.routes))
	for n := range r.routes {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// ParseArgs decodes a tool-call payload, which must be a JSON object.
func ParseArgs(args string) (map[string]any, error) {
	var v map[string]any
	if err := json.Unmarshal([]byte(args), &v); err != nil {
		return nil, err
	}
	if v == nil {
		return nil, errors.New("arguments must be a JSON object")
	}
	return v, nil
}
