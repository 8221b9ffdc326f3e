package ratelimit

import "strings"

// MatchEndpoint resolves the budget for a path and method. Exact path
// entries win over prefix entries (paths ending in "/", so "/analyze/"
// covers every analyze route that has no entry of its own). The health
// check always resolves to an unmetered budget. Returns nil when only the
// default budget applies.
func MatchEndpoint(path, method string, budgets []EndpointConfig) *EndpointConfig {
	if path == "/health" && method == "GET" {
		return &EndpointConfig{}
	}

	for i := range budgets {
		if budgets[i].Method == method && budgets[i].Path == path {
			return &budgets[i]
		}
	}

	for i := range budgets {
		b := &budgets[i]
		if b.Method == method && strings.HasSuffix(b.Path, "/") && strings.HasPrefix(path, b.Path) {
			return b
		}
	}

	return nil
}
